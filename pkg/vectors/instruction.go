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

// canonicalInstructionEnvelope applies the envelope defaults and reduces an
// instruction to the identity-bearing view its digest binds.
func canonicalInstructionEnvelope(instruction map[string]interface{}) (map[string]interface{}, error) {
	intent, err := ensureString(instruction["intent"], "instruction.intent")
	if err != nil {
		return nil, err
	}
	scope, err := ensureString(instruction["scope"], "instruction.scope")
	if err != nil {
		return nil, err
	}
	normalizerID, err := ensureString(instruction["normalizerId"], "instruction.normalizerId")
	if err != nil {
		return nil, err
	}
	policyDigest, err := ensureString(instruction["policyDigest"], "instruction.policyDigest")
	if err != nil {
		return nil, err
	}
	requestedChecks, err := ensureStringList(instruction["requestedChecks"], "instruction.requestedChecks")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"intent":          intent,
		"scope":           scope,
		"normalizerId":    normalizerID,
		"policyDigest":    policyDigest,
		"requestedChecks": toIfaceSlice(requestedChecks),
	}, nil
}

// ComputeInstructionDigest derives the instr1_ digest of a canonicalized
// envelope.
func ComputeInstructionDigest(instruction map[string]interface{}) (string, error) {
	envelope, err := canonicalInstructionEnvelope(instruction)
	if err != nil {
		return "", err
	}
	return canonical.RefString(canonical.SchemeInstr, envelope)
}

// canonicalClassification normalizes a deterministic typing classification:
// typed carries a kind, unknown carries a reason.
func canonicalClassification(classification map[string]interface{}, label string) (map[string]string, error) {
	state, err := ensureString(classification["state"], label+".state")
	if err != nil {
		return nil, err
	}
	switch state {
	case "typed":
		kind, err := ensureString(classification["kind"], label+".kind")
		if err != nil {
			return nil, err
		}
		return map[string]string{"state": state, "kind": kind}, nil
	case "unknown":
		reason, err := ensureString(classification["reason"], label+".reason")
		if err != nil {
			return nil, err
		}
		return map[string]string{"state": state, "reason": reason}, nil
	}
	return nil, errors.Errorf("%s.state must be 'typed' or 'unknown'", label)
}

func classificationsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func allowUnknownFrom(policy interface{}) (bool, error) {
	if policy == nil {
		return false, nil
	}
	obj, ok := policy.(map[string]interface{})
	if !ok {
		return false, errors.New("artifacts.policy must be an object when provided")
	}
	allow, _ := obj["allowUnknown"].(bool)
	return allow, nil
}

func evaluateInstructionTypedDeterministic(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
	if err != nil {
		return Outcome{}, err
	}
	if !claimed[CapabilityInstructionTyping] {
		return rejected("capability_not_claimed"), nil
	}

	instruction, err := ensureObject(artifacts["instruction"], "artifacts.instruction")
	if err != nil {
		return Outcome{}, err
	}
	classificationA, err := ensureObject(artifacts["classificationA"], "artifacts.classificationA")
	if err != nil {
		return Outcome{}, err
	}
	classificationB, err := ensureObject(artifacts["classificationB"], "artifacts.classificationB")
	if err != nil {
		return Outcome{}, err
	}

	// The envelope canonicalization itself must be well-defined.
	if _, err := ComputeInstructionDigest(instruction); err != nil {
		return Outcome{}, err
	}

	left, err := canonicalClassification(classificationA, "artifacts.classificationA")
	if err != nil {
		return Outcome{}, err
	}
	right, err := canonicalClassification(classificationB, "artifacts.classificationB")
	if err != nil {
		return Outcome{}, err
	}
	if !classificationsEqual(left, right) {
		return rejected("instruction_type_non_deterministic"), nil
	}

	allowUnknown, err := allowUnknownFrom(artifacts["policy"])
	if err != nil {
		return Outcome{}, err
	}
	if left["state"] == "unknown" && !allowUnknown {
		return rejected("instruction_unknown_unroutable"), nil
	}
	return accepted(), nil
}

func evaluateInstructionProposalChecking(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
	if err != nil {
		return Outcome{}, err
	}
	if !claimed[CapabilityInstructionTyping] {
		return rejected("capability_not_claimed"), nil
	}

	proposalA, okA := artifacts["proposalA"].(map[string]interface{})
	proposalB, okB := artifacts["proposalB"].(map[string]interface{})
	if !okA || !okB {
		return rejected("proposal_invalid_shape"), nil
	}
	classificationA, err := ensureObject(artifacts["classificationA"], "artifacts.classificationA")
	if err != nil {
		return Outcome{}, err
	}
	classificationB, err := ensureObject(artifacts["classificationB"], "artifacts.classificationB")
	if err != nil {
		return Outcome{}, err
	}

	left, err := canonicalClassification(classificationA, "artifacts.classificationA")
	if err != nil {
		return Outcome{}, err
	}
	right, err := canonicalClassification(classificationB, "artifacts.classificationB")
	if err != nil {
		return Outcome{}, err
	}
	if !classificationsEqual(left, right) {
		return rejected("instruction_type_non_deterministic"), nil
	}

	allowUnknown, err := allowUnknownFrom(artifacts["policy"])
	if err != nil {
		return Outcome{}, err
	}
	if left["state"] == "unknown" && !allowUnknown {
		return rejected("instruction_unknown_unroutable"), nil
	}

	viewA, failureA, err := CheckProposal(proposalA)
	if err != nil {
		return Outcome{}, err
	}
	if failureA != "" {
		return rejected(failureA), nil
	}
	viewB, failureB, err := CheckProposal(proposalB)
	if err != nil {
		return Outcome{}, err
	}
	if failureB != "" {
		return rejected(failureB), nil
	}

	if !canonicalEqual(viewA.Canonical, viewB.Canonical) {
		return rejected("proposal_nondeterministic"), nil
	}
	if viewA.Digest != viewB.Digest || viewA.KcirRef != viewB.KcirRef {
		return rejected("proposal_nondeterministic"), nil
	}
	if !canonicalEqual(viewA.Obligations, viewB.Obligations) {
		return rejected("proposal_nondeterministic"), nil
	}
	if !canonicalEqual(viewA.Discharge, viewB.Discharge) {
		return rejected("proposal_nondeterministic"), nil
	}

	if outcome, _ := viewA.Discharge["outcome"].(string); outcome == "rejected" {
		failureClasses, err := ensureStringList(viewA.Discharge["failureClasses"], "proposal.discharge.failureClasses")
		if err != nil {
			return Outcome{}, err
		}
		if len(failureClasses) > 0 {
			return rejected(failureClasses...), nil
		}
		return rejected("descent_failure"), nil
	}
	return accepted(), nil
}

func canonicalEqual(a, b interface{}) bool {
	ea, errA := canonical.Marshal(a)
	eb, errB := canonical.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ea) == string(eb)
}

func evaluateInstructionTypingInvariance(caseObj map[string]interface{}) (Outcome, error) {
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
		if !claimed[CapabilityInstructionTyping] {
			return rejected("capability_not_claimed"), nil
		}
	}
	return passthrough(verdict, classes), nil
}

// EvaluateInstructionTyping dispatches one instruction_typing vector by id.
func EvaluateInstructionTyping(vectorID string, caseObj map[string]interface{}) (Outcome, error) {
	switch vectorID {
	case "golden/instruction_typed_deterministic", "adversarial/instruction_unknown_unroutable_reject":
		return evaluateInstructionTypedDeterministic(caseObj)
	case "golden/instruction_proposal_typed_deterministic",
		"adversarial/proposal_unbound_policy_reject",
		"adversarial/proposal_invalid_step_reject",
		"adversarial/proposal_nondeterministic_digest_reject",
		"adversarial/proposal_kcir_ref_mismatch_reject",
		"adversarial/proposal_ext_gap_discharge_reject",
		"adversarial/proposal_ext_ambiguous_discharge_reject":
		return evaluateInstructionProposalChecking(caseObj)
	case "adversarial/instruction_typing_requires_claim":
		return requiresClaim(caseObj, "instruction_typing", CapabilityInstructionTyping)
	}
	if strings.HasPrefix(vectorID, "invariance/") {
		return evaluateInstructionTypingInvariance(caseObj)
	}
	return Outcome{}, errors.Errorf("unsupported instruction_typing vector id: %s", vectorID)
}
