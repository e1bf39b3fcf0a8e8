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
	"strings"

	"github.com/pkg/errors"

	"github.com/premath/premath/pkg/canonical"
)

func evaluateNfBindingStable(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
	if err != nil {
		return Outcome{}, err
	}
	if !claimed[CapabilityNormalForms] {
		return rejected("capability_not_claimed"), nil
	}

	semantic := artifacts["input"]
	runsRaw, ok := artifacts["runs"].([]interface{})
	if !ok || len(runsRaw) < 2 {
		return Outcome{}, errors.New("artifacts.runs must be a list of at least 2 runs")
	}

	normalizers := map[string]bool{}
	policies := map[string]bool{}
	cmpRefs := map[string]bool{}
	firstRef := ""
	for idx, runRaw := range runsRaw {
		run, ok := runRaw.(map[string]interface{})
		if !ok {
			return Outcome{}, errors.Errorf("artifacts.runs[%d] must be an object", idx)
		}
		normalizerID, err := ensureString(run["normalizerId"], "artifacts.runs normalizerId")
		if err != nil {
			return Outcome{}, err
		}
		policyDigest, err := ensureString(run["policyDigest"], "artifacts.runs policyDigest")
		if err != nil {
			return Outcome{}, err
		}
		cmpRef, err := canonical.CompareRef(semantic, normalizerID, policyDigest)
		if err != nil {
			return Outcome{}, err
		}
		normalizers[normalizerID] = true
		policies[policyDigest] = true
		cmpRefs[cmpRef] = true
		if firstRef == "" {
			firstRef = cmpRef
		}
	}

	if len(normalizers) == 1 && len(policies) == 1 && len(cmpRefs) == 1 {
		return acceptedWithRef(firstRef), nil
	}
	return rejected("nf_binding_unstable"), nil
}

func nfSide(artifacts map[string]interface{}, key string) (map[string]interface{}, string, string, error) {
	side, err := ensureObject(artifacts[key], "artifacts."+key)
	if err != nil {
		return nil, "", "", err
	}
	normalizerID, err := ensureString(side["normalizerId"], "artifacts."+key+".normalizerId")
	if err != nil {
		return nil, "", "", err
	}
	policyDigest, err := ensureString(side["policyDigest"], "artifacts."+key+".policyDigest")
	if err != nil {
		return nil, "", "", err
	}
	return side, normalizerID, policyDigest, nil
}

func evaluateNfEquivAccept(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	left, leftNorm, leftPolicy, err := nfSide(artifacts, "left")
	if err != nil {
		return Outcome{}, err
	}
	right, rightNorm, rightPolicy, err := nfSide(artifacts, "right")
	if err != nil {
		return Outcome{}, err
	}
	if leftNorm != rightNorm || leftPolicy != rightPolicy {
		return rejected("nf_policy_binding_mismatch"), nil
	}
	leftCmp, err := canonical.CompareRef(left["semantic"], leftNorm, leftPolicy)
	if err != nil {
		return Outcome{}, err
	}
	rightCmp, err := canonical.CompareRef(right["semantic"], rightNorm, rightPolicy)
	if err != nil {
		return Outcome{}, err
	}
	if leftCmp == rightCmp {
		return acceptedWithRef(leftCmp), nil
	}
	return rejected("nf_not_equivalent"), nil
}

func evaluateNfPolicyBindingMismatch(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	_, leftNorm, leftPolicy, err := nfSide(artifacts, "left")
	if err != nil {
		return Outcome{}, err
	}
	_, rightNorm, rightPolicy, err := nfSide(artifacts, "right")
	if err != nil {
		return Outcome{}, err
	}
	if leftNorm != rightNorm || leftPolicy != rightPolicy {
		return rejected("nf_policy_binding_mismatch"), nil
	}
	return accepted(), nil
}

func evaluateNfInvariance(caseObj map[string]interface{}) (Outcome, error) {
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

	cmpRef := ""
	if profile == "normalized" {
		claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
		if err != nil {
			return Outcome{}, err
		}
		if !claimed[CapabilityNormalForms] {
			return rejected("capability_not_claimed"), nil
		}
		normalizerID, err := ensureString(artifacts["normalizerId"], "artifacts.normalizerId")
		if err != nil {
			return Outcome{}, err
		}
		policyDigest, err := ensureString(artifacts["policyDigest"], "artifacts.policyDigest")
		if err != nil {
			return Outcome{}, err
		}
		inputObj, err := ensureObject(artifacts["input"], "artifacts.input")
		if err != nil {
			return Outcome{}, err
		}
		cmpRef, err = canonical.CompareRef(inputObj["semantic"], normalizerID, policyDigest)
		if err != nil {
			return Outcome{}, err
		}
	}

	out := passthrough(verdict, classes)
	out.CmpRef = cmpRef
	return out, nil
}

// EvaluateNormalForms dispatches one normal_forms vector by id.
func EvaluateNormalForms(vectorID string, caseObj map[string]interface{}) (Outcome, error) {
	switch vectorID {
	case "golden/nf_binding_stable":
		return evaluateNfBindingStable(caseObj)
	case "golden/nf_equiv_accept":
		return evaluateNfEquivAccept(caseObj)
	case "adversarial/nf_requires_claim":
		return requiresClaim(caseObj, "normalized", CapabilityNormalForms)
	case "adversarial/nf_policy_binding_mismatch":
		return evaluateNfPolicyBindingMismatch(caseObj)
	}
	if strings.HasPrefix(vectorID, "invariance/") {
		return evaluateNfInvariance(caseObj)
	}
	return Outcome{}, errors.Errorf("unsupported normal_forms vector id: %s", vectorID)
}
