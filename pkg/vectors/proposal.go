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

	"github.com/premath/premath/pkg/canonical"
)

// Proposal parsing, obligation compilation, and normalized discharge. A
// proposal either canonicalizes deterministically or dies with a single
// stable failure class.

var proposalKinds = map[string]bool{
	"value":          true,
	"derivation":     true,
	"refinementPlan": true,
}

// obligationToGateFailure maps obligation kinds onto their Gate failure
// classes.
var obligationToGateFailure = map[string]string{
	"stability":            "stability_failure",
	"locality":             "locality_failure",
	"descent_exists":       "descent_failure",
	"descent_contractible": "glue_non_contractible",
	"adjoint_triangle":     "adjoint_triple_coherence_failure",
	"beck_chevalley_sigma": "adjoint_triple_coherence_failure",
	"beck_chevalley_pi":    "adjoint_triple_coherence_failure",
	"refinement_invariance": "stability_failure",
	"adjoint_triple":       "adjoint_triple_coherence_failure",
	"ext_gap":              "descent_failure",
	"ext_ambiguous":        "glue_non_contractible",
}

// gateFailureToLawRef pairs Gate failure classes with their law refs.
var gateFailureToLawRef = map[string]string{
	"stability_failure":                "GATE-3.1",
	"locality_failure":                 "GATE-3.2",
	"descent_failure":                  "GATE-3.3",
	"glue_non_contractible":            "GATE-3.4",
	"adjoint_triple_coherence_failure": "GATE-3.5",
}

// refinementObligationHints are the candidate-ref hints a refinement plan
// must carry to discharge its kernel obligations.
var refinementObligationHints = map[string]string{
	"adjoint_triangle":      "hint:adjoint_triangle",
	"beck_chevalley_sigma":  "hint:beck_chevalley_sigma",
	"beck_chevalley_pi":     "hint:beck_chevalley_pi",
	"refinement_invariance": "hint:refinement_invariance",
}

// AdjointsSitesRequiredObligations is the closed obligation set a
// refinement plan must compile.
var AdjointsSitesRequiredObligations = []string{
	"adjoint_triangle",
	"beck_chevalley_sigma",
	"beck_chevalley_pi",
	"refinement_invariance",
}

// proposalFailure carries the deterministic failure class of a proposal
// validation error.
type proposalFailure struct {
	class string
	msg   string
}

func (e *proposalFailure) Error() string { return e.class + ": " + e.msg }

func proposalErr(class, msg string) error {
	return &proposalFailure{class: class, msg: msg}
}

func proposalString(v interface{}, label, class string) (string, error) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", proposalErr(class, label+" must be a non-empty string")
	}
	return strings.TrimSpace(s), nil
}

// canonicalizeProposal validates and normalizes a raw proposal payload.
func canonicalizeProposal(raw interface{}) (map[string]interface{}, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, proposalErr("proposal_invalid_shape", "proposal must be an object")
	}

	proposalKind, err := proposalString(obj["proposalKind"], "proposal.proposalKind", "proposal_invalid_kind")
	if err != nil {
		return nil, err
	}
	if !proposalKinds[proposalKind] {
		return nil, proposalErr("proposal_invalid_kind", "proposal.proposalKind must be one of derivation, refinementPlan, value")
	}

	targetCtxRef, err := proposalString(obj["targetCtxRef"], "proposal.targetCtxRef", "proposal_invalid_target")
	if err != nil {
		return nil, err
	}

	targetJudgment, ok := obj["targetJudgment"].(map[string]interface{})
	if !ok {
		return nil, proposalErr("proposal_invalid_target_judgment", "proposal.targetJudgment must be an object")
	}
	targetKind, _ := targetJudgment["kind"].(string)
	if targetKind != "obj" && targetKind != "mor" {
		return nil, proposalErr("proposal_invalid_target_judgment", "proposal.targetJudgment.kind must be 'obj' or 'mor'")
	}
	targetShape, err := proposalString(targetJudgment["shape"], "proposal.targetJudgment.shape", "proposal_invalid_target_judgment")
	if err != nil {
		return nil, err
	}

	binding, ok := obj["binding"].(map[string]interface{})
	if !ok {
		return nil, proposalErr("proposal_unbound_policy", "proposal.binding must be an object")
	}
	normalizerID, err := proposalString(binding["normalizerId"], "proposal.binding.normalizerId", "proposal_unbound_policy")
	if err != nil {
		return nil, err
	}
	policyDigest, err := proposalString(binding["policyDigest"], "proposal.binding.policyDigest", "proposal_unbound_policy")
	if err != nil {
		return nil, err
	}

	candidateRefs := []string{}
	if obj["candidateRefs"] != nil {
		raw, ok := obj["candidateRefs"].([]interface{})
		if !ok {
			return nil, proposalErr("proposal_invalid_step", "proposal.candidateRefs must be a list")
		}
		for _, item := range raw {
			ref, err := proposalString(item, "proposal.candidateRefs item", "proposal_invalid_step")
			if err != nil {
				return nil, err
			}
			candidateRefs = append(candidateRefs, ref)
		}
		sort.Strings(candidateRefs)
		candidateRefs = dedupSorted(candidateRefs)
	}

	stepsRaw := []interface{}{}
	if obj["steps"] != nil {
		var ok bool
		stepsRaw, ok = obj["steps"].([]interface{})
		if !ok {
			return nil, proposalErr("proposal_invalid_step", "proposal.steps must be a list")
		}
	}
	if proposalKind == "derivation" && len(stepsRaw) == 0 {
		return nil, proposalErr("proposal_invalid_step", "proposal.steps must be non-empty for derivation proposals")
	}
	if proposalKind != "derivation" && len(stepsRaw) > 0 {
		return nil, proposalErr("proposal_invalid_step", "proposal.steps is only valid for derivation proposals")
	}

	steps := []interface{}{}
	for _, stepRaw := range stepsRaw {
		step, ok := stepRaw.(map[string]interface{})
		if !ok {
			return nil, proposalErr("proposal_invalid_step", "proposal.steps item must be an object")
		}
		ruleID, err := proposalString(step["ruleId"], "proposal.steps ruleId", "proposal_invalid_step")
		if err != nil {
			return nil, err
		}
		claim, err := proposalString(step["claim"], "proposal.steps claim", "proposal_invalid_step")
		if err != nil {
			return nil, err
		}
		inputs, err := proposalStrings(step["inputs"], "proposal.steps inputs")
		if err != nil {
			return nil, err
		}
		outputs, err := proposalStrings(step["outputs"], "proposal.steps outputs")
		if err != nil {
			return nil, err
		}
		steps = append(steps, map[string]interface{}{
			"ruleId":  ruleID,
			"inputs":  toIfaceSlice(inputs),
			"outputs": toIfaceSlice(outputs),
			"claim":   claim,
		})
	}

	canonicalProposal := map[string]interface{}{
		"proposalKind": proposalKind,
		"targetCtxRef": targetCtxRef,
		"targetJudgment": map[string]interface{}{
			"kind":  targetKind,
			"shape": targetShape,
		},
		"candidateRefs": toIfaceSlice(candidateRefs),
		"binding": map[string]interface{}{
			"normalizerId": normalizerID,
			"policyDigest": policyDigest,
		},
	}
	if len(steps) > 0 {
		canonicalProposal["steps"] = steps
	}
	return canonicalProposal, nil
}

func proposalStrings(v interface{}, label string) ([]string, error) {
	if v == nil {
		return []string{}, nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, proposalErr("proposal_invalid_step", label+" must be a list")
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, err := proposalString(item, label+" item", "proposal_invalid_step")
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func toIfaceSlice(items []string) []interface{} {
	out := make([]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}

func proposalSubjectRef(canonicalProposal map[string]interface{}) string {
	if refs, ok := canonicalProposal["candidateRefs"].([]interface{}); ok && len(refs) > 0 {
		if first, ok := refs[0].(string); ok && first != "" {
			return first
		}
	}
	if steps, ok := canonicalProposal["steps"].([]interface{}); ok {
		for i := len(steps) - 1; i >= 0; i-- {
			step, ok := steps[i].(map[string]interface{})
			if !ok {
				continue
			}
			if outputs, ok := step["outputs"].([]interface{}); ok && len(outputs) > 0 {
				if first, ok := outputs[0].(string); ok && first != "" {
					return first
				}
			}
		}
	}
	targetCtxRef, _ := canonicalProposal["targetCtxRef"].(string)
	targetKind := "obj"
	if tj, ok := canonicalProposal["targetJudgment"].(map[string]interface{}); ok {
		if kind, ok := tj["kind"].(string); ok && kind != "" {
			targetKind = kind
		}
	}
	return targetCtxRef + "#" + targetKind
}

func proposalHasDischargeCandidate(canonicalProposal map[string]interface{}) bool {
	if refs, ok := canonicalProposal["candidateRefs"].([]interface{}); ok && len(refs) > 0 {
		return true
	}
	steps, ok := canonicalProposal["steps"].([]interface{})
	if !ok {
		return false
	}
	for _, stepRaw := range steps {
		step, ok := stepRaw.(map[string]interface{})
		if !ok {
			continue
		}
		if outputs, ok := step["outputs"].([]interface{}); ok && len(outputs) > 0 {
			return true
		}
	}
	return false
}

// compileProposalObligations compiles a canonical proposal into its
// deterministic checker obligations.
func compileProposalObligations(canonicalProposal map[string]interface{}) ([]map[string]interface{}, error) {
	proposalKind, _ := canonicalProposal["proposalKind"].(string)
	targetCtxRef, _ := canonicalProposal["targetCtxRef"].(string)
	targetKind := "obj"
	if tj, ok := canonicalProposal["targetJudgment"].(map[string]interface{}); ok {
		if kind, ok := tj["kind"].(string); ok && kind != "" {
			targetKind = kind
		}
	}
	candidateCount := 0
	if refs, ok := canonicalProposal["candidateRefs"].([]interface{}); ok {
		candidateCount = len(refs)
	}
	stepCount := 0
	if steps, ok := canonicalProposal["steps"].([]interface{}); ok {
		stepCount = len(steps)
	}

	obligationKinds := []string{"stability", "locality"}
	if proposalHasDischargeCandidate(canonicalProposal) {
		obligationKinds = append(obligationKinds, "descent_exists")
	} else {
		obligationKinds = append(obligationKinds, "ext_gap")
	}
	if proposalKind == "value" && candidateCount > 1 {
		obligationKinds = append(obligationKinds, "ext_ambiguous")
	}
	if proposalKind == "refinementPlan" {
		obligationKinds = append(obligationKinds,
			"adjoint_triple",
			"adjoint_triangle",
			"beck_chevalley_sigma",
			"beck_chevalley_pi",
			"refinement_invariance",
		)
	}

	subjectRef := proposalSubjectRef(canonicalProposal)
	obligations := make([]map[string]interface{}, 0, len(obligationKinds))
	for idx, kind := range obligationKinds {
		core := map[string]interface{}{
			"kind": kind,
			"ctx":  map[string]interface{}{"ref": targetCtxRef},
			"subject": map[string]interface{}{
				"kind": targetKind,
				"ref":  subjectRef,
			},
			"details": map[string]interface{}{
				"proposalKind":    proposalKind,
				"candidateCount":  candidateCount,
				"stepCount":       stepCount,
				"obligationIndex": idx,
			},
		}
		obligationID, err := canonical.RefString(canonical.SchemeObligation, core)
		if err != nil {
			return nil, err
		}
		obligation := map[string]interface{}{"obligationId": obligationID}
		for k, v := range core {
			obligation[k] = v
		}
		obligations = append(obligations, obligation)
	}
	return obligations, nil
}

// dischargeProposalObligations runs the normalized-mode discharge: ext_gap
// and ext_ambiguous always fail, refinement obligations fail without their
// candidate-ref hints, and failure classes map through the Gate table.
func dischargeProposalObligations(canonicalProposal map[string]interface{}, obligations []map[string]interface{}) map[string]interface{} {
	normalizerID := ""
	policyDigest := ""
	if binding, ok := canonicalProposal["binding"].(map[string]interface{}); ok {
		normalizerID, _ = binding["normalizerId"].(string)
		policyDigest, _ = binding["policyDigest"].(string)
	}

	candidateRefSet := map[string]bool{}
	if refs, ok := canonicalProposal["candidateRefs"].([]interface{}); ok {
		for _, item := range refs {
			if s, ok := item.(string); ok && s != "" {
				candidateRefSet[s] = true
			}
		}
	}

	steps := []interface{}{}
	failureClasses := []string{}
	for _, obligation := range obligations {
		obligationID, _ := obligation["obligationId"].(string)
		kind, _ := obligation["kind"].(string)

		failed := kind == "ext_gap" || kind == "ext_ambiguous"
		hint, hasHint := refinementObligationHints[kind]
		if hasHint && !candidateRefSet[hint] {
			failed = true
		}
		step := map[string]interface{}{
			"obligationId": obligationID,
			"kind":         kind,
			"status":       "passed",
			"mode":         "normalized",
			"binding": map[string]interface{}{
				"normalizerId": normalizerID,
				"policyDigest": policyDigest,
			},
		}
		if failed {
			step["status"] = "failed"
			failureClass, ok := obligationToGateFailure[kind]
			if !ok {
				failureClass = "descent_failure"
			}
			step["failureClass"] = failureClass
			lawRef, ok := gateFailureToLawRef[failureClass]
			if !ok {
				lawRef = "GATE-3.3"
			}
			step["lawRef"] = lawRef
			if hasHint && !candidateRefSet[hint] {
				step["missingHint"] = hint
			}
			failureClasses = append(failureClasses, failureClass)
		}
		steps = append(steps, step)
	}

	sort.Strings(failureClasses)
	deduped := dedupSorted(failureClasses)
	outcome := "accepted"
	if len(deduped) > 0 {
		outcome = "rejected"
	}
	return map[string]interface{}{
		"mode": "normalized",
		"binding": map[string]interface{}{
			"normalizerId": normalizerID,
			"policyDigest": policyDigest,
		},
		"outcome":        outcome,
		"steps":          steps,
		"failureClasses": toIfaceSlice(deduped),
	}
}

// ProposalView is the checked, canonicalized view of one proposal.
type ProposalView struct {
	Canonical   map[string]interface{}
	Digest      string
	KcirRef     string
	Obligations []map[string]interface{}
	Discharge   map[string]interface{}
}

// CheckProposal canonicalizes, addresses, compiles, and discharges a raw
// proposal. A validation failure returns its stable failure class.
func CheckProposal(raw interface{}) (*ProposalView, string, error) {
	canonicalProposal, err := canonicalizeProposal(raw)
	if err != nil {
		if pf, ok := err.(*proposalFailure); ok {
			return nil, pf.class, nil
		}
		return nil, "", err
	}
	digest, err := canonical.RefString(canonical.SchemeProposal, canonicalProposal)
	if err != nil {
		return nil, "", err
	}
	kcirRef, err := computeKcirRef(map[string]interface{}{
		"kind":              "kcir.proposal.v1",
		"canonicalProposal": canonicalProposal,
	})
	if err != nil {
		return nil, "", err
	}
	obligations, err := compileProposalObligations(canonicalProposal)
	if err != nil {
		return nil, "", err
	}
	discharge := dischargeProposalObligations(canonicalProposal, obligations)
	return &ProposalView{
		Canonical:   canonicalProposal,
		Digest:      digest,
		KcirRef:     kcirRef,
		Obligations: obligations,
		Discharge:   discharge,
	}, "", nil
}
