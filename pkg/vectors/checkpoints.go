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

// verifyCheckpointBinding checks the run-material and checkpoint refs of a
// commitment checkpoint. Returns the failure class, or empty on success.
func verifyCheckpointBinding(runMaterialRaw, checkpointRaw interface{}) (string, error) {
	runMaterial, ok := runMaterialRaw.(map[string]interface{})
	if !ok {
		return "", errors.New("artifacts.runMaterial must be an object")
	}
	checkpoint, ok := checkpointRaw.(map[string]interface{})
	if !ok {
		return "", errors.New("artifacts.checkpoint must be an object")
	}

	declaredRunRef, err := ensureString(checkpoint["runMaterialRef"], "artifacts.checkpoint.runMaterialRef")
	if err != nil {
		return "", err
	}
	expectedRunRef, err := computeRunMaterialRef(runMaterial)
	if err != nil {
		return "", err
	}
	if declaredRunRef != expectedRunRef {
		return "checkpoint_run_material_ref_mismatch", nil
	}

	declaredCheckpointRef, err := ensureString(checkpoint["checkpointRef"], "artifacts.checkpoint.checkpointRef")
	if err != nil {
		return "", err
	}
	body := map[string]interface{}{}
	for k, v := range checkpoint {
		if k != "checkpointRef" {
			body[k] = v
		}
	}
	expectedCheckpointRef, err := computeCheckpointRef(body)
	if err != nil {
		return "", err
	}
	if declaredCheckpointRef != expectedCheckpointRef {
		return "checkpoint_ref_mismatch", nil
	}
	return "", nil
}

func evaluateCheckpointBinding(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
	if err != nil {
		return Outcome{}, err
	}
	if !claimed[CapabilityCommitmentCheckpoints] {
		return rejected("capability_not_claimed"), nil
	}
	failure, err := verifyCheckpointBinding(artifacts["runMaterial"], artifacts["checkpoint"])
	if err != nil {
		return Outcome{}, err
	}
	if failure == "" {
		return accepted(), nil
	}
	return rejected(failure), nil
}

func evaluateCheckpointInvariance(caseObj map[string]interface{}) (Outcome, error) {
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

	if profile == "checkpoint_enabled" {
		claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
		if err != nil {
			return Outcome{}, err
		}
		if !claimed[CapabilityCommitmentCheckpoints] {
			return rejected("capability_not_claimed"), nil
		}
		failure, err := verifyCheckpointBinding(artifacts["runMaterial"], artifacts["checkpoint"])
		if err != nil {
			return Outcome{}, err
		}
		if failure != "" {
			return rejected(failure), nil
		}
	}
	return passthrough(verdict, classes), nil
}

// EvaluateCommitmentCheckpoints dispatches one commitment_checkpoints
// vector by id.
func EvaluateCommitmentCheckpoints(vectorID string, caseObj map[string]interface{}) (Outcome, error) {
	switch vectorID {
	case "golden/checkpoint_create_verify_ok", "adversarial/checkpoint_tampered_or_mismatch":
		return evaluateCheckpointBinding(caseObj)
	case "adversarial/checkpoint_requires_claim":
		return requiresClaim(caseObj, "checkpoint_enabled", CapabilityCommitmentCheckpoints)
	}
	if strings.HasPrefix(vectorID, "invariance/") {
		return evaluateCheckpointInvariance(caseObj)
	}
	return Outcome{}, errors.Errorf("unsupported commitment_checkpoints vector id: %s", vectorID)
}
