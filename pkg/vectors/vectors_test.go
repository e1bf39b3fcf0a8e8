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
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/premath/premath/pkg/canonical"
)

func claims(ids ...string) []interface{} {
	out := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		out = append(out, id)
	}
	return out
}

func TestEvaluateNfBindingStable(t *testing.T) {
	run := func(normalizer, policy string) map[string]interface{} {
		return map[string]interface{}{"normalizerId": normalizer, "policyDigest": policy}
	}
	caseObj := map[string]interface{}{
		"artifacts": map[string]interface{}{
			"claimedCapabilities": claims(CapabilityNormalForms),
			"input":               map[string]interface{}{"xs": []interface{}{"b", "a"}},
			"runs":                []interface{}{run("nf.v1", "pol1_a"), run("nf.v1", "pol1_a")},
		},
	}
	outcome, err := EvaluateNormalForms("golden/nf_binding_stable", caseObj)
	if err != nil {
		t.Fatalf("EvaluateNormalForms returned error: %v", err)
	}
	if outcome.Result != "accepted" || outcome.CmpRef == "" {
		t.Errorf("Expected accepted outcome with cmp ref, got %+v", outcome)
	}

	caseObj["artifacts"].(map[string]interface{})["runs"] = []interface{}{
		run("nf.v1", "pol1_a"), run("nf.v2", "pol1_a"),
	}
	outcome, err = EvaluateNormalForms("golden/nf_binding_stable", caseObj)
	if err != nil {
		t.Fatalf("EvaluateNormalForms returned error: %v", err)
	}
	if outcome.Result != "rejected" || outcome.FailureClasses[0] != "nf_binding_unstable" {
		t.Errorf("Expected nf_binding_unstable, got %+v", outcome)
	}
}

func TestEvaluateNfRequiresClaim(t *testing.T) {
	caseObj := map[string]interface{}{
		"artifacts": map[string]interface{}{
			"request": map[string]interface{}{
				"mode":                "normalized",
				"claimedCapabilities": claims(),
			},
		},
	}
	outcome, err := EvaluateNormalForms("adversarial/nf_requires_claim", caseObj)
	if err != nil {
		t.Fatalf("EvaluateNormalForms returned error: %v", err)
	}
	want := []string{"capability_not_claimed"}
	if diff := pretty.Compare(outcome.FailureClasses, want); diff != "" {
		t.Errorf("Unexpected failure classes, diff:\n%s", diff)
	}
}

func TestEvaluateKcirWitnessRefs(t *testing.T) {
	payload := map[string]interface{}{"witness": "data"}
	ref, err := computeKcirRef(payload)
	if err != nil {
		t.Fatalf("computeKcirRef returned error: %v", err)
	}
	caseObj := map[string]interface{}{
		"artifacts": map[string]interface{}{
			"claimedCapabilities": claims(CapabilityKcirWitnesses),
			"witnessBundle":       map[string]interface{}{"refs": []interface{}{ref}},
			"refStore":            map[string]interface{}{ref: payload},
		},
	}
	outcome, err := EvaluateKcirWitnesses("golden/kcir_witness_refs_resolve", caseObj)
	if err != nil {
		t.Fatalf("EvaluateKcirWitnesses returned error: %v", err)
	}
	if outcome.Result != "accepted" {
		t.Errorf("Expected accepted, got %+v", outcome)
	}

	// Tamper with the stored payload: the ref no longer re-derives.
	caseObj["artifacts"].(map[string]interface{})["refStore"] = map[string]interface{}{
		ref: map[string]interface{}{"witness": "tampered"},
	}
	outcome, err = EvaluateKcirWitnesses("adversarial/kcir_witness_tampered_ref_reject", caseObj)
	if err != nil {
		t.Fatalf("EvaluateKcirWitnesses returned error: %v", err)
	}
	if outcome.Result != "rejected" || outcome.FailureClasses[0] != "kcir_ref_tampered" {
		t.Errorf("Expected kcir_ref_tampered, got %+v", outcome)
	}

	caseObj["artifacts"].(map[string]interface{})["refStore"] = map[string]interface{}{}
	outcome, err = EvaluateKcirWitnesses("golden/kcir_witness_refs_resolve", caseObj)
	if err != nil {
		t.Fatalf("EvaluateKcirWitnesses returned error: %v", err)
	}
	if outcome.FailureClasses[0] != "kcir_ref_missing" {
		t.Errorf("Expected kcir_ref_missing, got %+v", outcome)
	}
}

func TestEvaluateCheckpointBinding(t *testing.T) {
	runMaterial := map[string]interface{}{"runId": "run-1", "inputs": []interface{}{"a"}}
	runRef, err := computeRunMaterialRef(runMaterial)
	if err != nil {
		t.Fatalf("computeRunMaterialRef returned error: %v", err)
	}
	checkpointBody := map[string]interface{}{
		"runMaterialRef": runRef,
		"sequence":       1,
	}
	checkpointRef, err := computeCheckpointRef(checkpointBody)
	if err != nil {
		t.Fatalf("computeCheckpointRef returned error: %v", err)
	}
	checkpoint := map[string]interface{}{
		"runMaterialRef": runRef,
		"sequence":       1,
		"checkpointRef":  checkpointRef,
	}
	caseObj := map[string]interface{}{
		"artifacts": map[string]interface{}{
			"claimedCapabilities": claims(CapabilityCommitmentCheckpoints),
			"runMaterial":         runMaterial,
			"checkpoint":          checkpoint,
		},
	}
	outcome, err := EvaluateCommitmentCheckpoints("golden/checkpoint_create_verify_ok", caseObj)
	if err != nil {
		t.Fatalf("EvaluateCommitmentCheckpoints returned error: %v", err)
	}
	if outcome.Result != "accepted" {
		t.Errorf("Expected accepted, got %+v", outcome)
	}

	checkpoint["sequence"] = 2
	outcome, err = EvaluateCommitmentCheckpoints("adversarial/checkpoint_tampered_or_mismatch", caseObj)
	if err != nil {
		t.Fatalf("EvaluateCommitmentCheckpoints returned error: %v", err)
	}
	if outcome.FailureClasses[0] != "checkpoint_ref_mismatch" {
		t.Errorf("Expected checkpoint_ref_mismatch, got %+v", outcome)
	}
}

func TestEvaluateSiteLocDescriptor(t *testing.T) {
	left := map[string]interface{}{
		"worldId":             "sheaf_bits",
		"runtimeProfile":      "local",
		"capabilityVector":    []interface{}{"b", "a"},
		"substrateBindingRef": "substrate-1",
	}
	right := map[string]interface{}{
		"worldId":             "sheaf_bits",
		"runtimeProfile":      "local",
		"capabilityVector":    []interface{}{"a", "b", "a"},
		"substrateBindingRef": "substrate-1",
	}
	caseObj := map[string]interface{}{
		"artifacts": map[string]interface{}{
			"leftDescriptor":  left,
			"rightDescriptor": right,
		},
	}
	outcome, err := EvaluateSqueakSite("golden/site_loc_descriptor_deterministic", caseObj)
	if err != nil {
		t.Fatalf("EvaluateSqueakSite returned error: %v", err)
	}
	if outcome.Result != "accepted" {
		t.Errorf("Sorted capability vectors must hash equal, got %+v", outcome)
	}
}

func proposalPayload(withHints bool) map[string]interface{} {
	candidateRefs := []interface{}{"cand:base"}
	if withHints {
		candidateRefs = append(candidateRefs,
			"hint:adjoint_triangle",
			"hint:beck_chevalley_sigma",
			"hint:beck_chevalley_pi",
			"hint:refinement_invariance",
		)
	}
	return map[string]interface{}{
		"proposalKind": "refinementPlan",
		"targetCtxRef": "ctx:site",
		"targetJudgment": map[string]interface{}{
			"kind":  "obj",
			"shape": "refinement",
		},
		"candidateRefs": candidateRefs,
		"binding": map[string]interface{}{
			"normalizerId": "nf.v1",
			"policyDigest": "pol1_test",
		},
	}
}

func spanSquareArtifacts(t *testing.T, runtimeProfile string) map[string]interface{} {
	t.Helper()
	digest, err := computeSpanSquareDigest("square-1", RequiredCrossLaneRoute)
	if err != nil {
		t.Fatalf("computeSpanSquareDigest returned error: %v", err)
	}
	descriptor := map[string]interface{}{
		"worldId":             "sheaf_bits",
		"runtimeProfile":      runtimeProfile,
		"capabilityVector":    []interface{}{CapabilityAdjointsSites, CapabilitySqueakSite},
		"substrateBindingRef": "substrate-1",
	}
	locRef, err := computeSiteLocRef(descriptor, "descriptor")
	if err != nil {
		t.Fatalf("computeSiteLocRef returned error: %v", err)
	}
	return map[string]interface{}{
		"crossLaneRoute": map[string]interface{}{"pullbackBaseChange": RequiredCrossLaneRoute},
		"spanSquareWitness": map[string]interface{}{
			"squareId": "square-1",
			"route":    RequiredCrossLaneRoute,
			"digest":   digest,
		},
		"locationDescriptor": descriptor,
		"expectedLocRef":     locRef,
	}
}

func TestAdjointsSitesProposalAccept(t *testing.T) {
	caseObj := map[string]interface{}{
		"artifacts": map[string]interface{}{
			"claimedCapabilities": claims(CapabilityAdjointsSites),
			"proposalA":           proposalPayload(true),
			"proposalB":           proposalPayload(true),
		},
	}
	outcome, err := EvaluateAdjointsSites("golden/adjoint_site_obligations_accept", caseObj)
	if err != nil {
		t.Fatalf("EvaluateAdjointsSites returned error: %v", err)
	}
	if outcome.Result != "accepted" {
		t.Errorf("Expected accepted, got %+v", outcome)
	}
}

func TestAdjointsSitesMissingHintRejects(t *testing.T) {
	caseObj := map[string]interface{}{
		"artifacts": map[string]interface{}{
			"claimedCapabilities": claims(CapabilityAdjointsSites),
			"proposalA":           proposalPayload(false),
			"proposalB":           proposalPayload(false),
		},
	}
	outcome, err := EvaluateAdjointsSites("adversarial/adjoint_triangle_missing_reject", caseObj)
	if err != nil {
		t.Fatalf("EvaluateAdjointsSites returned error: %v", err)
	}
	if outcome.Result != "rejected" {
		t.Fatalf("Expected rejection, got %+v", outcome)
	}
	// All refinement hints are missing, so the discharge fails through the
	// mapped Gate classes.
	want := []string{"adjoint_triple_coherence_failure", "stability_failure"}
	if diff := pretty.Compare(outcome.FailureClasses, want); diff != "" {
		t.Errorf("Unexpected failure classes, diff:\n%s", diff)
	}
}

// Two invariance vectors of the same scenario under different profiles must
// reduce to the same (verdict, failure classes) pair.
func TestAdjointsSitesComposedInvarianceGroup(t *testing.T) {
	buildCase := func(profile string) map[string]interface{} {
		artifacts := spanSquareArtifacts(t, profile)
		artifacts["claimedCapabilities"] = claims(CapabilityAdjointsSites, CapabilitySqueakSite)
		artifacts["input"] = map[string]interface{}{
			"kernelVerdict":      "accepted",
			"gateFailureClasses": []interface{}{},
		}
		return map[string]interface{}{
			"profile":            profile,
			"semanticScenarioId": "adjoint_site_obligations_accept",
			"artifacts":          artifacts,
		}
	}

	localOutcome, err := EvaluateAdjointsSites("invariance/same_composed_sigpi_squeak_span_local", buildCase("local"))
	if err != nil {
		t.Fatalf("EvaluateAdjointsSites returned error: %v", err)
	}
	externalOutcome, err := EvaluateAdjointsSites("invariance/same_composed_sigpi_squeak_span_external", buildCase("external"))
	if err != nil {
		t.Fatalf("EvaluateAdjointsSites returned error: %v", err)
	}
	if localOutcome.Result != "accepted" || externalOutcome.Result != "accepted" {
		t.Fatalf("Expected both profiles accepted: %+v vs %+v", localOutcome, externalOutcome)
	}
	if localOutcome.KernelVerdict != externalOutcome.KernelVerdict {
		t.Errorf("Kernel verdicts differ across profiles")
	}
	if diff := pretty.Compare(localOutcome.FailureClasses, externalOutcome.FailureClasses); diff != "" {
		t.Errorf("Failure classes differ across profiles, diff:\n%s", diff)
	}
}

func TestInstructionTypingUnknownGating(t *testing.T) {
	instruction := map[string]interface{}{
		"intent":          "apply-refinement",
		"scope":           "crates/premath-kernel",
		"normalizerId":    "nf.v1",
		"policyDigest":    "pol1_test",
		"requestedChecks": []interface{}{"baseline"},
	}
	unknown := map[string]interface{}{"state": "unknown", "reason": "unparseable"}
	caseObj := map[string]interface{}{
		"artifacts": map[string]interface{}{
			"claimedCapabilities": claims(CapabilityInstructionTyping),
			"instruction":         instruction,
			"classificationA":     unknown,
			"classificationB":     unknown,
		},
	}
	outcome, err := EvaluateInstructionTyping("adversarial/instruction_unknown_unroutable_reject", caseObj)
	if err != nil {
		t.Fatalf("EvaluateInstructionTyping returned error: %v", err)
	}
	if outcome.FailureClasses[0] != "instruction_unknown_unroutable" {
		t.Errorf("Expected instruction_unknown_unroutable, got %+v", outcome)
	}

	caseObj["artifacts"].(map[string]interface{})["policy"] = map[string]interface{}{"allowUnknown": true}
	outcome, err = EvaluateInstructionTyping("golden/instruction_typed_deterministic", caseObj)
	if err != nil {
		t.Fatalf("EvaluateInstructionTyping returned error: %v", err)
	}
	if outcome.Result != "accepted" {
		t.Errorf("allowUnknown policy must accept unknown classifications, got %+v", outcome)
	}
}

func TestCheckProposalDeterministic(t *testing.T) {
	first, failure, err := CheckProposal(proposalPayload(true))
	if err != nil || failure != "" {
		t.Fatalf("CheckProposal returned (%q, %v)", failure, err)
	}
	second, failure, err := CheckProposal(proposalPayload(true))
	if err != nil || failure != "" {
		t.Fatalf("CheckProposal returned (%q, %v)", failure, err)
	}
	if first.Digest != second.Digest || first.KcirRef != second.KcirRef {
		t.Error("Proposal digests must be deterministic")
	}
	if first.Digest[:6] != canonical.SchemeProposal {
		t.Errorf("Expected %q scheme on %q", canonical.SchemeProposal, first.Digest)
	}

	_, failure, err = CheckProposal(map[string]interface{}{
		"proposalKind": "refinementPlan",
		"targetCtxRef": "ctx:site",
		"targetJudgment": map[string]interface{}{
			"kind":  "obj",
			"shape": "refinement",
		},
	})
	if err != nil {
		t.Fatalf("CheckProposal returned error: %v", err)
	}
	if failure != "proposal_unbound_policy" {
		t.Errorf("Expected proposal_unbound_policy, got %q", failure)
	}
}
