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
	"strings"

	"github.com/pkg/errors"

	"github.com/premath/premath/pkg/canonical"
)

// ObligationGateRegistryKind is the canonical obligation registry kind the
// boundary-authority lineage predicate pins.
const ObligationGateRegistryKind = "premath.obligation_gate_registry.v1"

// obstructionConstructor is the typed constructor an obstruction class maps
// onto in the obstruction algebra.
type obstructionConstructor struct {
	Family string
	Tag    string
}

// obstructionClassToConstructor is the closed round-trip table between
// canonical obstruction classes and their constructors.
var obstructionClassToConstructor = map[string]struct {
	Family    string
	Tag       string
	Canonical string
}{
	"stability_failure":     {"semantic", "stability", "stability_failure"},
	"locality_failure":      {"semantic", "locality", "locality_failure"},
	"descent_failure":       {"semantic", "descent", "descent_failure"},
	"glue_non_contractible": {"semantic", "contractibility", "glue_non_contractible"},
	"adjoint_triple_coherence_failure": {
		"semantic", "adjoint_triple", "adjoint_triple_coherence_failure",
	},
	"coherence.cwf_substitution_identity.violation": {
		"structural", "cwf_substitution_identity", "coherence.cwf_substitution_identity.violation",
	},
	"coherence.cwf_substitution_composition.violation": {
		"structural", "cwf_substitution_composition", "coherence.cwf_substitution_composition.violation",
	},
	"coherence.span_square_commutation.violation": {
		"commutation", "span_square_commutation", "coherence.span_square_commutation.violation",
	},
	"decision_witness_sha_mismatch": {
		"lifecycle", "decision_attestation", "decision_witness_sha_mismatch",
	},
	"decision_delta_sha_mismatch": {
		"lifecycle", "decision_delta_attestation", "decision_delta_sha_mismatch",
	},
	"unification.evidence_factorization.missing": {
		"lifecycle", "evidence_factorization_missing", "unification.evidence_factorization.missing",
	},
	"unification.evidence_factorization.ambiguous": {
		"lifecycle", "evidence_factorization_ambiguous", "unification.evidence_factorization.ambiguous",
	},
	"unification.evidence_factorization.unbound": {
		"lifecycle", "evidence_factorization_unbound", "unification.evidence_factorization.unbound",
	},
}

var obstructionConstructorToCanonical = func() map[obstructionConstructor]string {
	out := map[obstructionConstructor]string{}
	for _, row := range obstructionClassToConstructor {
		out[obstructionConstructor{Family: row.Family, Tag: row.Tag}] = row.Canonical
	}
	return out
}()

func evaluateCIWitnessDeterministic(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
	if err != nil {
		return Outcome{}, err
	}
	if !claimed[CapabilityCIWitnesses] {
		return rejected("capability_not_claimed"), nil
	}

	instruction, err := ensureObject(artifacts["instruction"], "artifacts.instruction")
	if err != nil {
		return Outcome{}, err
	}
	witnessA, err := ensureObject(artifacts["witnessA"], "artifacts.witnessA")
	if err != nil {
		return Outcome{}, err
	}
	witnessB, err := ensureObject(artifacts["witnessB"], "artifacts.witnessB")
	if err != nil {
		return Outcome{}, err
	}

	expectedDigest, err := ComputeInstructionDigest(instruction)
	if err != nil {
		return Outcome{}, err
	}
	aDigest, err := ensureString(witnessA["instructionDigest"], "artifacts.witnessA.instructionDigest")
	if err != nil {
		return Outcome{}, err
	}
	bDigest, err := ensureString(witnessB["instructionDigest"], "artifacts.witnessB.instructionDigest")
	if err != nil {
		return Outcome{}, err
	}
	if aDigest != expectedDigest || bDigest != expectedDigest {
		return rejected("ci_instruction_digest_mismatch"), nil
	}

	aVerdict, err := ensureString(witnessA["verdictClass"], "artifacts.witnessA.verdictClass")
	if err != nil {
		return Outcome{}, err
	}
	bVerdict, err := ensureString(witnessB["verdictClass"], "artifacts.witnessB.verdictClass")
	if err != nil {
		return Outcome{}, err
	}
	if (aVerdict != "accepted" && aVerdict != "rejected") || (bVerdict != "accepted" && bVerdict != "rejected") {
		return Outcome{}, errors.New("artifacts.witness*.verdictClass must be 'accepted' or 'rejected'")
	}

	aRequired, err := canonicalCheckSet(witnessA["requiredChecks"], "artifacts.witnessA.requiredChecks")
	if err != nil {
		return Outcome{}, err
	}
	bRequired, err := canonicalCheckSet(witnessB["requiredChecks"], "artifacts.witnessB.requiredChecks")
	if err != nil {
		return Outcome{}, err
	}
	aExecuted, err := canonicalCheckSet(witnessA["executedChecks"], "artifacts.witnessA.executedChecks")
	if err != nil {
		return Outcome{}, err
	}
	bExecuted, err := canonicalCheckSet(witnessB["executedChecks"], "artifacts.witnessB.executedChecks")
	if err != nil {
		return Outcome{}, err
	}
	aFailures, err := canonicalCheckSet(witnessA["failureClasses"], "artifacts.witnessA.failureClasses")
	if err != nil {
		return Outcome{}, err
	}
	bFailures, err := canonicalCheckSet(witnessB["failureClasses"], "artifacts.witnessB.failureClasses")
	if err != nil {
		return Outcome{}, err
	}

	deterministic := aVerdict == bVerdict &&
		equalStringSlices(aRequired, bRequired) &&
		equalStringSlices(aExecuted, bExecuted) &&
		equalStringSlices(aFailures, bFailures)
	if deterministic {
		return Outcome{Result: "accepted", KernelVerdict: aVerdict, FailureClasses: aFailures}, nil
	}
	return rejected("ci_witness_non_deterministic"), nil
}

func evaluateCIWitnessInvariance(caseObj map[string]interface{}) (Outcome, error) {
	profile, err := ensureString(caseObj["profile"], "profile")
	if err != nil {
		return Outcome{}, err
	}
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
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

func evaluateBoundaryAuthorityLineage(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	if profileRaw := caseObj["profile"]; profileRaw != nil {
		profile, err := ensureString(profileRaw, "profile")
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
	}

	kernelVerdict := "accepted"
	gateFailureClasses := []string{}
	if artifacts["input"] != nil {
		var err error
		kernelVerdict, gateFailureClasses, err = kernelInput(artifacts)
		if err != nil {
			return Outcome{}, err
		}
		sort.Strings(gateFailureClasses)
	}

	failures := map[string]bool{}

	registry, err := ensureObject(artifacts["obligationRegistry"], "artifacts.obligationRegistry")
	if err != nil {
		return Outcome{}, err
	}
	registryKind, err := ensureString(registry["registryKind"], "artifacts.obligationRegistry.registryKind")
	if err != nil {
		return Outcome{}, err
	}
	mappingsRaw, ok := registry["mappings"].([]interface{})
	if !ok {
		return Outcome{}, errors.New("artifacts.obligationRegistry.mappings must be a list")
	}
	obligationToFailure := map[string]string{}
	for idx, rowRaw := range mappingsRaw {
		row, ok := rowRaw.(map[string]interface{})
		if !ok {
			return Outcome{}, errors.Errorf("artifacts.obligationRegistry.mappings[%d] must be an object", idx)
		}
		obligationKind, err := ensureString(row["obligationKind"], "artifacts.obligationRegistry.mappings obligationKind")
		if err != nil {
			return Outcome{}, err
		}
		failureClass, err := ensureString(row["failureClass"], "artifacts.obligationRegistry.mappings failureClass")
		if err != nil {
			return Outcome{}, err
		}
		if existing, ok := obligationToFailure[obligationKind]; ok && existing != failureClass {
			failures["boundary_authority_registry_mismatch"] = true
			continue
		}
		obligationToFailure[obligationKind] = failureClass
	}
	if registryKind != ObligationGateRegistryKind {
		failures["boundary_authority_registry_mismatch"] = true
	}

	proposal, err := ensureObject(artifacts["proposal"], "artifacts.proposal")
	if err != nil {
		return Outcome{}, err
	}
	proposalObligationsRaw, ok := proposal["obligations"].([]interface{})
	if !ok {
		return Outcome{}, errors.New("artifacts.proposal.obligations must be a list")
	}
	proposalObligationKinds := []string{}
	for idx, rowRaw := range proposalObligationsRaw {
		row, ok := rowRaw.(map[string]interface{})
		if !ok {
			return Outcome{}, errors.Errorf("artifacts.proposal.obligations[%d] must be an object", idx)
		}
		kind, err := ensureString(row["kind"], "artifacts.proposal.obligations kind")
		if err != nil {
			return Outcome{}, err
		}
		proposalObligationKinds = append(proposalObligationKinds, kind)
	}
	sort.Strings(proposalObligationKinds)
	proposalObligationKinds = dedupSorted(proposalObligationKinds)

	proposalDischarge, err := ensureObject(proposal["discharge"], "artifacts.proposal.discharge")
	if err != nil {
		return Outcome{}, err
	}
	stepsRaw, ok := proposalDischarge["steps"].([]interface{})
	if !ok {
		return Outcome{}, errors.New("artifacts.proposal.discharge.steps must be a list")
	}
	failedObligationKinds := []string{}
	for idx, rowRaw := range stepsRaw {
		row, ok := rowRaw.(map[string]interface{})
		if !ok {
			return Outcome{}, errors.Errorf("artifacts.proposal.discharge.steps[%d] must be an object", idx)
		}
		kind, err := ensureString(row["kind"], "artifacts.proposal.discharge.steps kind")
		if err != nil {
			return Outcome{}, err
		}
		status, err := ensureString(row["status"], "artifacts.proposal.discharge.steps status")
		if err != nil {
			return Outcome{}, err
		}
		if status != "passed" && status != "failed" {
			return Outcome{}, errors.New("artifacts.proposal.discharge.steps status must be 'passed' or 'failed'")
		}
		if status != "failed" {
			continue
		}
		failedObligationKinds = append(failedObligationKinds, kind)
		if stepFailureRaw := row["failureClass"]; stepFailureRaw != nil {
			stepFailure, ok := stepFailureRaw.(string)
			if !ok || stepFailure == "" {
				return Outcome{}, errors.New("artifacts.proposal.discharge.steps failureClass must be a non-empty string when present")
			}
			mapped, ok := obligationToFailure[kind]
			if !ok || mapped != stepFailure {
				failures["boundary_authority_registry_mismatch"] = true
			}
		}
	}

	expectedSemanticFailures := []string{}
	if !failures["boundary_authority_registry_mismatch"] {
		sort.Strings(failedObligationKinds)
		for _, kind := range dedupSorted(failedObligationKinds) {
			mapped, ok := obligationToFailure[kind]
			if !ok {
				failures["boundary_authority_registry_mismatch"] = true
				expectedSemanticFailures = nil
				break
			}
			expectedSemanticFailures = append(expectedSemanticFailures, mapped)
		}
	}
	sort.Strings(expectedSemanticFailures)
	expectedSemanticFailures = dedupSorted(expectedSemanticFailures)

	coherence, err := ensureObject(artifacts["coherence"], "artifacts.coherence")
	if err != nil {
		return Outcome{}, err
	}
	coherenceRegistryKind, err := ensureString(coherence["obligationRegistryKind"], "artifacts.coherence.obligationRegistryKind")
	if err != nil {
		return Outcome{}, err
	}
	if coherenceRegistryKind != registryKind {
		failures["boundary_authority_registry_mismatch"] = true
	}
	coherenceBidir, err := canonicalCheckSet(coherence["bidirCheckerObligations"], "artifacts.coherence.bidirCheckerObligations")
	if err != nil {
		return Outcome{}, err
	}
	coherenceBidirSet := stringSet(coherenceBidir)

	ciWitness, err := ensureObject(artifacts["ciWitness"], "artifacts.ciWitness")
	if err != nil {
		return Outcome{}, err
	}
	typedCore, err := ensureString(ciWitness["typedCoreProjectionDigest"], "artifacts.ciWitness.typedCoreProjectionDigest")
	if err != nil {
		return Outcome{}, err
	}
	authorityDigest, err := ensureString(ciWitness["authorityPayloadDigest"], "artifacts.ciWitness.authorityPayloadDigest")
	if err != nil {
		return Outcome{}, err
	}
	normalizerID, err := ensureString(ciWitness["normalizerId"], "artifacts.ciWitness.normalizerId")
	if err != nil {
		return Outcome{}, err
	}
	policyDigest, err := ensureString(ciWitness["policyDigest"], "artifacts.ciWitness.policyDigest")
	if err != nil {
		return Outcome{}, err
	}
	expectedTypedCore := canonical.TypedCoreProjectionDigest(authorityDigest, normalizerID, policyDigest)
	if typedCore != expectedTypedCore {
		failures["boundary_authority_lineage_mismatch"] = true
	}
	if typedCore == authorityDigest {
		failures["boundary_authority_lineage_mismatch"] = true
	}
	if ciWitness["projectionDigest"] != nil {
		projectionDigest, err := ensureString(ciWitness["projectionDigest"], "artifacts.ciWitness.projectionDigest")
		if err != nil {
			return Outcome{}, err
		}
		if projectionDigest != authorityDigest {
			failures["boundary_authority_lineage_mismatch"] = true
		}
	}
	ciSemantic, err := canonicalCheckSet(ciWitness["semanticFailureClasses"], "artifacts.ciWitness.semanticFailureClasses")
	if err != nil {
		return Outcome{}, err
	}
	ciOperational, err := canonicalCheckSet(ciWitness["operationalFailureClasses"], "artifacts.ciWitness.operationalFailureClasses")
	if err != nil {
		return Outcome{}, err
	}
	ciFailureClasses, err := canonicalCheckSet(ciWitness["failureClasses"], "artifacts.ciWitness.failureClasses")
	if err != nil {
		return Outcome{}, err
	}

	if doctrineSiteRaw := artifacts["doctrineSite"]; doctrineSiteRaw != nil {
		doctrineSite, ok := doctrineSiteRaw.(map[string]interface{})
		if !ok {
			return Outcome{}, errors.New("artifacts.doctrineSite must be an object when present")
		}
		trackedDigest, err := ensureString(doctrineSite["trackedDigest"], "artifacts.doctrineSite.trackedDigest")
		if err != nil {
			return Outcome{}, err
		}
		generatedDigest, err := ensureString(doctrineSite["generatedDigest"], "artifacts.doctrineSite.generatedDigest")
		if err != nil {
			return Outcome{}, err
		}
		if trackedDigest != generatedDigest {
			failures["boundary_authority_stale_generated"] = true
		}
	}

	if proposalIngestRaw := ciWitness["proposalIngest"]; proposalIngestRaw != nil {
		proposalIngest, ok := proposalIngestRaw.(map[string]interface{})
		if !ok {
			return Outcome{}, errors.New("artifacts.ciWitness.proposalIngest must be an object when present")
		}
		ingestObligationKinds := []string{}
		if obligationsRaw, ok := proposalIngest["obligations"].([]interface{}); ok {
			for idx, rowRaw := range obligationsRaw {
				row, ok := rowRaw.(map[string]interface{})
				if !ok {
					return Outcome{}, errors.Errorf("artifacts.ciWitness.proposalIngest.obligations[%d] must be an object", idx)
				}
				kind, err := ensureString(row["kind"], "artifacts.ciWitness.proposalIngest.obligations kind")
				if err != nil {
					return Outcome{}, err
				}
				ingestObligationKinds = append(ingestObligationKinds, kind)
			}
		} else if proposalIngest["obligations"] != nil {
			return Outcome{}, errors.New("artifacts.ciWitness.proposalIngest.obligations must be a list")
		}
		sort.Strings(ingestObligationKinds)
		if !equalStringSlices(dedupSorted(ingestObligationKinds), proposalObligationKinds) {
			failures["boundary_authority_lineage_mismatch"] = true
		}

		ingestDischarge, err := ensureObject(proposalIngest["discharge"], "artifacts.ciWitness.proposalIngest.discharge")
		if err != nil {
			return Outcome{}, err
		}
		ingestFailureClasses, err := canonicalCheckSet(ingestDischarge["failureClasses"], "artifacts.ciWitness.proposalIngest.discharge.failureClasses")
		if err != nil {
			return Outcome{}, err
		}
		if !failures["boundary_authority_registry_mismatch"] && !equalStringSlices(ingestFailureClasses, expectedSemanticFailures) {
			failures["boundary_authority_lineage_mismatch"] = true
		}
	}

	if !failures["boundary_authority_registry_mismatch"] {
		proposalDischargeFailures, err := canonicalCheckSet(proposalDischarge["failureClasses"], "artifacts.proposal.discharge.failureClasses")
		if err != nil {
			return Outcome{}, err
		}
		if !equalStringSlices(proposalDischargeFailures, expectedSemanticFailures) {
			failures["boundary_authority_lineage_mismatch"] = true
		}
		if !equalStringSlices(ciSemantic, expectedSemanticFailures) {
			failures["boundary_authority_lineage_mismatch"] = true
		}
		for _, kind := range proposalObligationKinds {
			if !coherenceBidirSet[kind] {
				failures["boundary_authority_lineage_mismatch"] = true
				break
			}
		}
	}

	expectedCIFailures := append(append([]string(nil), ciOperational...), ciSemantic...)
	sort.Strings(expectedCIFailures)
	expectedCIFailures = dedupSorted(expectedCIFailures)
	if !equalStringSlices(ciFailureClasses, expectedCIFailures) {
		failures["boundary_authority_lineage_mismatch"] = true
	}

	if len(failures) > 0 {
		classes := make([]string, 0, len(failures))
		for class := range failures {
			classes = append(classes, class)
		}
		return rejected(classes...), nil
	}
	return passthrough(kernelVerdict, gateFailureClasses), nil
}

func evaluateObstructionRoundtrip(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
	if err != nil {
		return Outcome{}, err
	}
	if !claimed[CapabilityCIWitnesses] {
		return rejected("capability_not_claimed"), nil
	}

	kernelVerdict := "accepted"
	gateFailureClasses := []string{}
	if artifacts["input"] != nil {
		kernelVerdict, gateFailureClasses, err = kernelInput(artifacts)
		if err != nil {
			return Outcome{}, err
		}
		sort.Strings(gateFailureClasses)
	}

	roundtrip, err := ensureObject(artifacts["obstructionRoundtrip"], "artifacts.obstructionRoundtrip")
	if err != nil {
		return Outcome{}, err
	}
	rowsRaw, ok := roundtrip["rows"].([]interface{})
	if !ok || len(rowsRaw) == 0 {
		return Outcome{}, errors.New("artifacts.obstructionRoundtrip.rows must be a non-empty list")
	}

	failures := map[string]bool{}
	observedFamilies := map[string]bool{}
	observedIssueTags := []string{}
	for idx, rowRaw := range rowsRaw {
		row, ok := rowRaw.(map[string]interface{})
		if !ok {
			return Outcome{}, errors.Errorf("artifacts.obstructionRoundtrip.rows[%d] must be an object", idx)
		}
		sourceClass, err := ensureString(row["sourceClass"], "artifacts.obstructionRoundtrip.rows sourceClass")
		if err != nil {
			return Outcome{}, err
		}
		expectedConstructor, err := ensureObject(row["expectedConstructor"], "artifacts.obstructionRoundtrip.rows expectedConstructor")
		if err != nil {
			return Outcome{}, err
		}
		expectedFamily, err := ensureString(expectedConstructor["family"], "artifacts.obstructionRoundtrip.rows expectedConstructor.family")
		if err != nil {
			return Outcome{}, err
		}
		expectedTag, err := ensureString(expectedConstructor["tag"], "artifacts.obstructionRoundtrip.rows expectedConstructor.tag")
		if err != nil {
			return Outcome{}, err
		}
		expectedCanonical, err := ensureString(row["expectedCanonicalClass"], "artifacts.obstructionRoundtrip.rows expectedCanonicalClass")
		if err != nil {
			return Outcome{}, err
		}

		mapped, ok := obstructionClassToConstructor[sourceClass]
		if !ok {
			failures["obstruction_roundtrip_unknown_class"] = true
			continue
		}
		observedFamilies[mapped.Family] = true
		observedIssueTags = append(observedIssueTags, "obs."+mapped.Family+"."+mapped.Tag)

		if expectedFamily != mapped.Family || expectedTag != mapped.Tag || expectedCanonical != mapped.Canonical {
			failures["obstruction_roundtrip_mismatch"] = true
			continue
		}
		if obstructionConstructorToCanonical[obstructionConstructor{Family: expectedFamily, Tag: expectedTag}] != expectedCanonical {
			failures["obstruction_roundtrip_mismatch"] = true
		}
	}

	requiredFamilies, err := canonicalCheckSet(roundtrip["requiredFamilies"], "artifacts.obstructionRoundtrip.requiredFamilies")
	if err != nil {
		return Outcome{}, err
	}
	for _, family := range requiredFamilies {
		if !observedFamilies[family] {
			failures["obstruction_roundtrip_mismatch"] = true
			break
		}
	}

	if issueProjectionRaw := roundtrip["issueProjection"]; issueProjectionRaw != nil {
		issueProjection, ok := issueProjectionRaw.(map[string]interface{})
		if !ok {
			return Outcome{}, errors.New("artifacts.obstructionRoundtrip.issueProjection must be an object")
		}
		expectedTags, err := canonicalCheckSet(issueProjection["expectedTags"], "artifacts.obstructionRoundtrip.issueProjection.expectedTags")
		if err != nil {
			return Outcome{}, err
		}
		sort.Strings(observedIssueTags)
		if !equalStringSlices(expectedTags, dedupSorted(observedIssueTags)) {
			failures["obstruction_roundtrip_mismatch"] = true
		}
	}

	if len(failures) > 0 {
		classes := make([]string, 0, len(failures))
		for class := range failures {
			classes = append(classes, class)
		}
		return rejected(classes...), nil
	}
	return passthrough(kernelVerdict, gateFailureClasses), nil
}

// EvaluateCIWitnesses dispatches one ci_witnesses vector by id.
func EvaluateCIWitnesses(vectorID string, caseObj map[string]interface{}) (Outcome, error) {
	switch vectorID {
	case "golden/instruction_witness_deterministic",
		"golden/instruction_reject_witness_deterministic",
		"adversarial/instruction_witness_non_deterministic_reject",
		"adversarial/instruction_reject_witness_failure_class_mismatch_reject":
		return evaluateCIWitnessDeterministic(caseObj)
	case "adversarial/instruction_witness_requires_claim":
		return requiresClaim(caseObj, "instruction_witness_determinism", CapabilityCIWitnesses)
	case "golden/witness_verifies_for_projected_delta",
		"golden/gate_witness_refs_integrity_accept",
		"golden/native_required_source_accept",
		"adversarial/witness_projection_digest_mismatch_reject",
		"adversarial/witness_verdict_inconsistent_reject",
		"adversarial/gate_witness_ref_digest_mismatch_reject",
		"adversarial/gate_witness_ref_source_missing_reject",
		"adversarial/native_required_fallback_reject":
		return evaluateCIRequiredWitnessValidity(caseObj)
	case "adversarial/ci_witness_requires_claim":
		return requiresClaim(caseObj, "ci_witness_verification", CapabilityCIWitnesses)
	case "golden/strict_delta_compare_match",
		"adversarial/strict_delta_compare_mismatch_reject":
		return evaluateCIRequiredWitnessStrictDelta(caseObj)
	case "golden/decision_attestation_chain_accept",
		"adversarial/decision_attestation_witness_sha_mismatch_reject",
		"adversarial/decision_attestation_delta_sha_mismatch_reject":
		return evaluateCIRequiredWitnessDecisionAttestation(caseObj)
	case "golden/delta_snapshot_projection_decision_stable":
		return evaluateCIRequiredWitnessDeltaSnapshot(caseObj)
	case "golden/obstruction_algebra_roundtrip_accept",
		"adversarial/obstruction_algebra_roundtrip_mismatch_reject":
		return evaluateObstructionRoundtrip(caseObj)
	case "golden/boundary_authority_lineage_accept",
		"adversarial/boundary_authority_registry_mismatch_reject",
		"adversarial/boundary_authority_stale_generated_reject",
		"invariance/same_boundary_authority_local",
		"invariance/same_boundary_authority_external":
		return evaluateBoundaryAuthorityLineage(caseObj)
	case "invariance/same_required_witness_local",
		"invariance/same_required_witness_external":
		return evaluateCIRequiredWitnessInvariance(caseObj)
	}
	if strings.HasPrefix(vectorID, "invariance/") {
		return evaluateCIWitnessInvariance(caseObj)
	}
	return Outcome{}, errors.Errorf("unsupported ci_witnesses vector id: %s", vectorID)
}
