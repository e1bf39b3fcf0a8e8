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

func canonicalOverlapSection(section map[string]interface{}, label string) (map[string]interface{}, error) {
	kernelVerdict, err := ensureString(section["kernelVerdict"], label+".kernelVerdict")
	if err != nil {
		return nil, err
	}
	if kernelVerdict != "accepted" && kernelVerdict != "rejected" {
		return nil, errors.Errorf("%s.kernelVerdict must be 'accepted' or 'rejected'", label)
	}
	gateFailureClasses, err := ensureStringList(section["gateFailureClasses"], label+".gateFailureClasses")
	if err != nil {
		return nil, err
	}
	sort.Strings(gateFailureClasses)
	requiredChecks, err := canonicalCheckSet(section["requiredChecks"], label+".requiredChecks")
	if err != nil {
		return nil, err
	}
	policyDigest, err := ensureString(section["policyDigest"], label+".policyDigest")
	if err != nil {
		return nil, err
	}
	projectionDigest, err := ensureString(section["projectionDigest"], label+".projectionDigest")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"kernelVerdict":      kernelVerdict,
		"gateFailureClasses": toIfaceSlice(gateFailureClasses),
		"requiredChecks":     toIfaceSlice(requiredChecks),
		"policyDigest":       policyDigest,
		"projectionDigest":   projectionDigest,
	}, nil
}

func evaluateSiteLocDescriptorDeterministic(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	left, err := ensureObject(artifacts["leftDescriptor"], "artifacts.leftDescriptor")
	if err != nil {
		return Outcome{}, err
	}
	right, err := ensureObject(artifacts["rightDescriptor"], "artifacts.rightDescriptor")
	if err != nil {
		return Outcome{}, err
	}
	leftRef, err := computeSiteLocRef(left, "artifacts.leftDescriptor")
	if err != nil {
		return Outcome{}, err
	}
	rightRef, err := computeSiteLocRef(right, "artifacts.rightDescriptor")
	if err != nil {
		return Outcome{}, err
	}
	if leftRef == rightRef {
		return acceptedWithRef(leftRef), nil
	}
	return rejected("site_loc_descriptor_mismatch"), nil
}

func evaluateSiteOverlapAgreement(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	left, err := ensureObject(artifacts["leftSection"], "artifacts.leftSection")
	if err != nil {
		return Outcome{}, err
	}
	right, err := ensureObject(artifacts["rightSection"], "artifacts.rightSection")
	if err != nil {
		return Outcome{}, err
	}
	leftSection, err := canonicalOverlapSection(left, "artifacts.leftSection")
	if err != nil {
		return Outcome{}, err
	}
	rightSection, err := canonicalOverlapSection(right, "artifacts.rightSection")
	if err != nil {
		return Outcome{}, err
	}
	leftEnc, err := canonical.Marshal(leftSection)
	if err != nil {
		return Outcome{}, err
	}
	rightEnc, err := canonical.Marshal(rightSection)
	if err != nil {
		return Outcome{}, err
	}
	if string(leftEnc) == string(rightEnc) {
		return accepted(), nil
	}
	return rejected("site_overlap_mismatch"), nil
}

func evaluateSiteGlueNonContractible(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	mode, err := ensureObject(artifacts["mode"], "artifacts.mode")
	if err != nil {
		return Outcome{}, err
	}
	if _, err := ensureString(mode["normalizerId"], "artifacts.mode.normalizerId"); err != nil {
		return Outcome{}, err
	}
	if _, err := ensureString(mode["policyDigest"], "artifacts.mode.policyDigest"); err != nil {
		return Outcome{}, err
	}

	proposalsRaw, ok := artifacts["glueProposals"].([]interface{})
	if !ok {
		return Outcome{}, errors.New("artifacts.glueProposals must be a list")
	}
	if len(proposalsRaw) == 0 {
		return rejected("site_glue_missing"), nil
	}

	fingerprints := map[string]bool{}
	for idx, proposalRaw := range proposalsRaw {
		proposal, ok := proposalRaw.(map[string]interface{})
		if !ok {
			return Outcome{}, errors.Errorf("artifacts.glueProposals[%d] must be an object", idx)
		}
		fp, err := canonical.StableHash(canonical.NormalizeSemantics(proposal))
		if err != nil {
			return Outcome{}, err
		}
		fingerprints[fp] = true
	}
	if len(fingerprints) == 1 {
		return accepted(), nil
	}
	return rejected("site_glue_non_contractible"), nil
}

func evaluateSiteInvariance(caseObj map[string]interface{}) (Outcome, error) {
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
		if !claimed[CapabilitySqueakSite] {
			return rejected("capability_not_claimed"), nil
		}
		descriptor, err := ensureObject(artifacts["locationDescriptor"], "artifacts.locationDescriptor")
		if err != nil {
			return Outcome{}, err
		}
		if _, err := computeSiteLocRef(descriptor, "artifacts.locationDescriptor"); err != nil {
			return Outcome{}, err
		}
	}
	return passthrough(verdict, classes), nil
}

// EvaluateSqueakSite dispatches one squeak_site vector by id.
func EvaluateSqueakSite(vectorID string, caseObj map[string]interface{}) (Outcome, error) {
	switch vectorID {
	case "golden/site_loc_descriptor_deterministic":
		return evaluateSiteLocDescriptorDeterministic(caseObj)
	case "golden/site_overlap_agreement_accept", "adversarial/site_overlap_mismatch_reject":
		return evaluateSiteOverlapAgreement(caseObj)
	case "adversarial/site_glue_missing_reject", "adversarial/site_glue_non_contractible_reject":
		return evaluateSiteGlueNonContractible(caseObj)
	case "adversarial/site_requires_claim":
		return requiresClaim(caseObj, "site_linked_runtime_evidence", CapabilitySqueakSite)
	}
	if strings.HasPrefix(vectorID, "invariance/") {
		return evaluateSiteInvariance(caseObj)
	}
	return Outcome{}, errors.Errorf("unsupported squeak_site vector id: %s", vectorID)
}
