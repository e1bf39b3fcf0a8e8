/*
Copyright the Premath contributors 2026

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package vectors

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/premath/premath/pkg/canonical"
	"github.com/premath/premath/pkg/projection"
	"github.com/premath/premath/pkg/witness"
)

// ci.required witness predicates: witness-verification violations collapse
// onto the single ci_required_witness_invalid class at this surface; the
// delta and decision checks report their own classes.

func requiredWitnessInputs(artifacts map[string]interface{}) ([]string, map[string]interface{}, witness.Options, error) {
	changedPaths, err := ensureStringList(artifacts["changedPaths"], "artifacts.changedPaths")
	if err != nil {
		return nil, nil, witness.Options{}, err
	}
	w, err := ensureObject(artifacts["witness"], "artifacts.witness")
	if err != nil {
		return nil, nil, witness.Options{}, err
	}
	opts := witness.Options{}
	if artifacts["gateWitnessPayloads"] != nil {
		payloadsRaw, err := ensureObject(artifacts["gateWitnessPayloads"], "artifacts.gateWitnessPayloads")
		if err != nil {
			return nil, nil, witness.Options{}, err
		}
		payloads := map[string]map[string]interface{}{}
		for key, payloadRaw := range payloadsRaw {
			payload, ok := payloadRaw.(map[string]interface{})
			if !ok {
				return nil, nil, witness.Options{}, errors.Errorf("artifacts.gateWitnessPayloads[%q] must be an object", key)
			}
			payloads[key] = payload
		}
		opts.GateWitnessPayloads = payloads
	}
	native, err := ensureStringList(artifacts["nativeRequiredChecks"], "artifacts.nativeRequiredChecks")
	if err != nil {
		return nil, nil, witness.Options{}, err
	}
	opts.NativeRequiredChecks = native
	return changedPaths, w, opts, nil
}

func evaluateCIRequiredWitnessValidity(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	changedPaths, w, opts, err := requiredWitnessInputs(artifacts)
	if err != nil {
		return Outcome{}, err
	}
	verifyErrors, _ := witness.VerifyRequired(w, changedPaths, opts)
	if len(verifyErrors) > 0 {
		return rejected(witness.InvalidClass), nil
	}
	return accepted(), nil
}

func evaluateCIRequiredWitnessInvariance(caseObj map[string]interface{}) (Outcome, error) {
	profile, err := ensureString(caseObj["profile"], "profile")
	if err != nil {
		return Outcome{}, err
	}
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	changedPaths, w, opts, err := requiredWitnessInputs(artifacts)
	if err != nil {
		return Outcome{}, err
	}
	verifyErrors, _ := witness.VerifyRequired(w, changedPaths, opts)
	if len(verifyErrors) > 0 {
		return rejected(witness.InvalidClass), nil
	}

	verdict, classes, err := kernelInput(artifacts)
	if err != nil {
		return Outcome{}, err
	}
	if profile != "local" {
		claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
		if err != nil {
			return Outcome{}, err
		}
		if !claimed[CapabilityCIWitnesses] {
			return rejected("capability_not_claimed"), nil
		}
	}
	return passthrough(verdict, classes), nil
}

func evaluateCIRequiredWitnessStrictDelta(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	changedPaths, w, opts, err := requiredWitnessInputs(artifacts)
	if err != nil {
		return Outcome{}, err
	}
	detectedPaths, err := ensureStringList(artifacts["detectedChangedPaths"], "artifacts.detectedChangedPaths")
	if err != nil {
		return Outcome{}, err
	}
	verifyErrors, _ := witness.VerifyRequired(w, changedPaths, opts)
	if len(verifyErrors) > 0 {
		return rejected(witness.InvalidClass), nil
	}

	witnessPaths, err := canonicalCheckSet(w["changedPaths"], "artifacts.witness.changedPaths")
	if err != nil {
		return Outcome{}, err
	}
	sort.Strings(detectedPaths)
	if !equalStringSlices(witnessPaths, dedupSorted(detectedPaths)) {
		return rejected("delta_comparison_mismatch"), nil
	}
	return accepted(), nil
}

func evaluateCIRequiredWitnessDeltaSnapshot(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	changedPaths, err := ensureStringList(artifacts["changedPaths"], "artifacts.changedPaths")
	if err != nil {
		return Outcome{}, err
	}
	deltaSnapshot, err := ensureObject(artifacts["deltaSnapshot"], "artifacts.deltaSnapshot")
	if err != nil {
		return Outcome{}, err
	}
	snapshotPaths, err := ensureStringList(deltaSnapshot["changedPaths"], "artifacts.deltaSnapshot.changedPaths")
	if err != nil {
		return Outcome{}, err
	}
	w, err := ensureObject(artifacts["witness"], "artifacts.witness")
	if err != nil {
		return Outcome{}, err
	}
	verifyErrors, _ := witness.VerifyRequired(w, changedPaths, witness.Options{})
	if len(verifyErrors) > 0 {
		return rejected(witness.InvalidClass), nil
	}

	proj := projection.Project(snapshotPaths)
	witnessProjection, err := ensureString(w["projectionDigest"], "artifacts.witness.projectionDigest")
	if err != nil {
		return Outcome{}, err
	}
	if proj.ProjectionDigest != witnessProjection {
		return rejected("delta_snapshot_projection_mismatch"), nil
	}

	sortedSnapshot := append([]string(nil), snapshotPaths...)
	sort.Strings(sortedSnapshot)
	sortedChanged := append([]string(nil), changedPaths...)
	sort.Strings(sortedChanged)
	if !equalStringSlices(dedupSorted(sortedSnapshot), dedupSorted(sortedChanged)) {
		return rejected("delta_snapshot_paths_mismatch"), nil
	}

	decisionSnapshot, err := ensureObject(artifacts["decisionFromSnapshot"], "artifacts.decisionFromSnapshot")
	if err != nil {
		return Outcome{}, err
	}
	decisionDetect, err := ensureObject(artifacts["decisionFromDetect"], "artifacts.decisionFromDetect")
	if err != nil {
		return Outcome{}, err
	}

	snapshotShape, err := decisionShape(decisionSnapshot, "artifacts.decisionFromSnapshot")
	if err != nil {
		return Outcome{}, err
	}
	detectShape, err := decisionShape(decisionDetect, "artifacts.decisionFromDetect")
	if err != nil {
		return Outcome{}, err
	}
	if !canonicalEqual(snapshotShape, detectShape) {
		return rejected("decision_non_deterministic"), nil
	}
	if snapshotShape["projectionDigest"] != proj.ProjectionDigest {
		return rejected("decision_projection_mismatch"), nil
	}
	if snapshotShape["decision"] != "accept" {
		return rejected("decision_not_accept"), nil
	}
	return accepted(), nil
}

func decisionShape(decision map[string]interface{}, label string) (map[string]interface{}, error) {
	decisionValue, err := ensureString(decision["decision"], label+".decision")
	if err != nil {
		return nil, err
	}
	projectionDigest, err := ensureString(decision["projectionDigest"], label+".projectionDigest")
	if err != nil {
		return nil, err
	}
	reasonClass, err := ensureString(decision["reasonClass"], label+".reasonClass")
	if err != nil {
		return nil, err
	}
	requiredChecks, err := canonicalCheckSet(decision["requiredChecks"], label+".requiredChecks")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"decision":         decisionValue,
		"projectionDigest": projectionDigest,
		"reasonClass":      reasonClass,
		"requiredChecks":   toIfaceSlice(requiredChecks),
	}, nil
}

func evaluateCIRequiredWitnessDecisionAttestation(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	changedPaths, err := ensureStringList(artifacts["changedPaths"], "artifacts.changedPaths")
	if err != nil {
		return Outcome{}, err
	}
	w, err := ensureObject(artifacts["witness"], "artifacts.witness")
	if err != nil {
		return Outcome{}, err
	}
	deltaSnapshot, err := ensureObject(artifacts["deltaSnapshot"], "artifacts.deltaSnapshot")
	if err != nil {
		return Outcome{}, err
	}
	decision, err := ensureObject(artifacts["decision"], "artifacts.decision")
	if err != nil {
		return Outcome{}, err
	}

	verifyErrors, _ := witness.VerifyRequired(w, changedPaths, witness.Options{})
	if len(verifyErrors) > 0 {
		return rejected(witness.InvalidClass), nil
	}

	proj := projection.Project(changedPaths)
	decisionChecks, err := canonicalCheckSet(decision["requiredChecks"], "artifacts.decision.requiredChecks")
	if err != nil {
		return Outcome{}, err
	}
	expectedChecks := append([]string(nil), proj.RequiredChecks...)
	sort.Strings(expectedChecks)

	if w["projectionDigest"] != proj.ProjectionDigest ||
		deltaSnapshot["projectionDigest"] != proj.ProjectionDigest ||
		decision["projectionDigest"] != proj.ProjectionDigest {
		return rejected("decision_projection_mismatch"), nil
	}
	if !equalStringSlices(decisionChecks, expectedChecks) {
		return rejected("decision_required_checks_mismatch"), nil
	}
	if decision["decisionKind"] != witness.DecisionKind {
		return rejected("decision_kind_mismatch"), nil
	}

	witnessSha, err := canonical.StableHash(w)
	if err != nil {
		return Outcome{}, err
	}
	deltaSha, err := canonical.StableHash(deltaSnapshot)
	if err != nil {
		return Outcome{}, err
	}
	if decision["witnessSha256"] != witnessSha {
		return rejected("decision_witness_sha_mismatch"), nil
	}
	if decision["deltaSha256"] != deltaSha {
		return rejected("decision_delta_sha_mismatch"), nil
	}

	decisionValue, err := ensureString(decision["decision"], "artifacts.decision.decision")
	if err != nil {
		return Outcome{}, err
	}
	if decisionValue != "accept" {
		return rejected("decision_not_accept"), nil
	}
	if decision["reasonClass"] != witness.ReasonVerifiedAccept {
		return rejected("decision_reason_mismatch"), nil
	}
	if errsRaw, ok := decision["errors"].([]interface{}); !ok || len(errsRaw) > 0 {
		return rejected("decision_errors_non_empty"), nil
	}
	return accepted(), nil
}
