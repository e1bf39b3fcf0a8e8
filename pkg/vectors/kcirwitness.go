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
)

// verifyKcirBundleRefs checks that every ref in a witness bundle resolves
// within the ref store and matches its payload's content address. Returns
// the failure class, or empty on success.
func verifyKcirBundleRefs(witnessBundle, refStore map[string]interface{}) (string, error) {
	refs, err := ensureStringList(witnessBundle["refs"], "artifacts.witnessBundle.refs")
	if err != nil {
		return "", err
	}
	if len(refs) == 0 {
		return "", errors.New("artifacts.witnessBundle.refs must be non-empty")
	}
	for _, ref := range refs {
		payloadRaw, ok := refStore[ref]
		if !ok {
			return "kcir_ref_missing", nil
		}
		payload, ok := payloadRaw.(map[string]interface{})
		if !ok {
			return "", errors.Errorf("artifacts.refStore[%s] must be an object payload", ref)
		}
		computed, err := computeKcirRef(payload)
		if err != nil {
			return "", err
		}
		if computed != ref {
			return "kcir_ref_tampered", nil
		}
	}
	return "", nil
}

func evaluateKcirRefsResolve(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
	if err != nil {
		return Outcome{}, err
	}
	if !claimed[CapabilityKcirWitnesses] {
		return rejected("capability_not_claimed"), nil
	}
	witnessBundle, err := ensureObject(artifacts["witnessBundle"], "artifacts.witnessBundle")
	if err != nil {
		return Outcome{}, err
	}
	refStore, err := ensureObject(artifacts["refStore"], "artifacts.refStore")
	if err != nil {
		return Outcome{}, err
	}
	failure, err := verifyKcirBundleRefs(witnessBundle, refStore)
	if err != nil {
		return Outcome{}, err
	}
	if failure == "" {
		return accepted(), nil
	}
	return rejected(failure), nil
}

func evaluateKcirInvariance(caseObj map[string]interface{}) (Outcome, error) {
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

	if profile == "kcir_linked_witness" {
		claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
		if err != nil {
			return Outcome{}, err
		}
		if !claimed[CapabilityKcirWitnesses] {
			return rejected("capability_not_claimed"), nil
		}
		witnessBundle, err := ensureObject(artifacts["witnessBundle"], "artifacts.witnessBundle")
		if err != nil {
			return Outcome{}, err
		}
		refStore, err := ensureObject(artifacts["refStore"], "artifacts.refStore")
		if err != nil {
			return Outcome{}, err
		}
		failure, err := verifyKcirBundleRefs(witnessBundle, refStore)
		if err != nil {
			return Outcome{}, err
		}
		if failure != "" {
			return rejected(failure), nil
		}
	}
	return passthrough(verdict, classes), nil
}

// EvaluateKcirWitnesses dispatches one kcir_witnesses vector by id.
func EvaluateKcirWitnesses(vectorID string, caseObj map[string]interface{}) (Outcome, error) {
	switch vectorID {
	case "golden/kcir_witness_refs_resolve", "adversarial/kcir_witness_tampered_ref_reject":
		return evaluateKcirRefsResolve(caseObj)
	case "adversarial/kcir_witness_requires_claim":
		return requiresClaim(caseObj, "kcir_linked_witness", CapabilityKcirWitnesses)
	}
	if strings.HasPrefix(vectorID, "invariance/") {
		return evaluateKcirInvariance(caseObj)
	}
	return Outcome{}, errors.Errorf("unsupported kcir_witnesses vector id: %s", vectorID)
}
