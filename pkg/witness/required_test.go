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

package witness

import (
	"strings"
	"testing"

	"github.com/premath/premath/pkg/canonical"
	"github.com/premath/premath/pkg/projection"
)

func toIface(items []string) []interface{} {
	out := make([]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}

var kernelPaths = []string{"crates/premath-kernel/src/lib.rs"}

// validWitness builds a well-formed accepted witness for paths.
func validWitness(paths []string) map[string]interface{} {
	proj := projection.Project(paths)
	results := []interface{}{}
	for _, check := range proj.RequiredChecks {
		results = append(results, map[string]interface{}{
			"checkId":  check,
			"status":   "passed",
			"exitCode": 0,
		})
	}
	return map[string]interface{}{
		"ciSchema":         1,
		"witnessKind":      RequiredWitnessKind,
		"projectionPolicy": projection.Policy,
		"policyDigest":     projection.Policy,
		"changedPaths":     toIface(proj.Paths),
		"projectionDigest": proj.ProjectionDigest,
		"requiredChecks":   toIface(proj.RequiredChecks),
		"executedChecks":   toIface(proj.RequiredChecks),
		"results":          results,
		"docsOnly":         proj.DocsOnly,
		"reasons":          toIface(proj.Reasons),
		"verdictClass":     "accepted",
		"failureClasses":   []interface{}{},
	}
}

func TestVerifyRequiredAcceptPath(t *testing.T) {
	w := validWitness(kernelPaths)
	errs, derived := VerifyRequired(w, kernelPaths, Options{})
	if len(errs) != 0 {
		t.Fatalf("Expected no errors, got %v", errs)
	}
	if derived.ExpectedVerdict != "accepted" {
		t.Errorf("Expected accepted verdict, got %q", derived.ExpectedVerdict)
	}
	wantChecks := []string{"baseline", "build", "test", "test-toy", "test-kcir-toy"}
	if !equalStrings(derived.RequiredChecks, wantChecks) {
		t.Errorf("Unexpected required checks: %v", derived.RequiredChecks)
	}
}

func TestVerifyRequiredRejectsProjectionDigestMismatch(t *testing.T) {
	w := validWitness(kernelPaths)
	w["projectionDigest"] = strings.Repeat("0", 64)
	errs, _ := VerifyRequired(w, kernelPaths, Options{})
	if len(errs) == 0 {
		t.Fatal("Expected a projectionDigest violation")
	}
	found := false
	for _, e := range errs {
		if strings.Contains(e, "projectionDigest mismatch") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected projectionDigest mismatch among %v", errs)
	}
}

func TestVerifyRequiredFailedCheckPolarity(t *testing.T) {
	w := validWitness(kernelPaths)
	results := w["results"].([]interface{})
	row := results[0].(map[string]interface{})
	row["exitCode"] = 2
	row["status"] = "failed"

	// A failed row forces verdictClass=rejected and failureClasses
	// ["check_failed"].
	errs, _ := VerifyRequired(w, kernelPaths, Options{})
	if len(errs) == 0 {
		t.Fatal("Expected verdict/failure-class violations on the accepted shell")
	}

	w["verdictClass"] = "rejected"
	w["failureClasses"] = []interface{}{"check_failed"}
	errs, derived := VerifyRequired(w, kernelPaths, Options{})
	if len(errs) != 0 {
		t.Fatalf("Expected no errors after fixing polarity, got %v", errs)
	}
	if derived.ExpectedVerdict != "rejected" {
		t.Errorf("Expected rejected verdict, got %q", derived.ExpectedVerdict)
	}
}

func TestVerifyRequiredStatusExitCodeMismatch(t *testing.T) {
	w := validWitness(kernelPaths)
	row := w["results"].([]interface{})[0].(map[string]interface{})
	row["exitCode"] = 1 // status stays "passed"
	errs, _ := VerifyRequired(w, kernelPaths, Options{})
	found := false
	for _, e := range errs {
		if strings.Contains(e, "status/exitCode mismatch") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected status/exitCode mismatch among %v", errs)
	}
}

func gateRefsFor(t *testing.T, w map[string]interface{}, source string) map[string]map[string]interface{} {
	t.Helper()
	payloads := map[string]map[string]interface{}{}
	refs := []interface{}{}
	for _, checkRaw := range w["executedChecks"].([]interface{}) {
		check := checkRaw.(string)
		payload := map[string]interface{}{
			"witnessKind": GateWitnessKind,
			"result":      "accepted",
			"failures":    []interface{}{},
			"runId":       "run-1",
		}
		sha, err := canonical.StableHash(payload)
		if err != nil {
			t.Fatalf("StableHash returned error: %v", err)
		}
		rel := "gates/" + check + ".json"
		payloads[rel] = payload
		refs = append(refs, map[string]interface{}{
			"checkId":         check,
			"source":          source,
			"artifactRelPath": rel,
			"sha256":          sha,
			"witnessKind":     GateWitnessKind,
			"result":          "accepted",
			"runId":           "run-1",
		})
	}
	w["gateWitnessRefs"] = refs
	return payloads
}

func TestVerifyRequiredGateWitnessRefsIntegrity(t *testing.T) {
	w := validWitness(kernelPaths)
	payloads := gateRefsFor(t, w, "native")
	errs, derived := VerifyRequired(w, kernelPaths, Options{GateWitnessPayloads: payloads})
	if len(errs) != 0 {
		t.Fatalf("Expected no errors, got %v", errs)
	}
	for _, check := range derived.ExecutedChecks {
		if derived.SourceByCheck[check] != "native" {
			t.Errorf("Expected native source for %q", check)
		}
	}

	// Tamper with one inline payload: the recorded sha no longer matches.
	for _, payload := range payloads {
		payload["result"] = "rejected"
		break
	}
	errs, _ = VerifyRequired(w, kernelPaths, Options{GateWitnessPayloads: payloads})
	if len(errs) == 0 {
		t.Fatal("Expected digest violation after payload tamper")
	}
}

func TestVerifyRequiredNativeRequiredRejectsFallback(t *testing.T) {
	w := validWitness(kernelPaths)
	payloads := gateRefsFor(t, w, "fallback")
	errs, _ := VerifyRequired(w, kernelPaths, Options{
		GateWitnessPayloads:  payloads,
		NativeRequiredChecks: []string{"baseline"},
	})
	found := false
	for _, e := range errs {
		if strings.Contains(e, "requires native source") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected native-source violation among %v", errs)
	}
}

func TestBuildDecisionAcceptPath(t *testing.T) {
	w := validWitness(kernelPaths)
	delta := map[string]interface{}{
		"deltaKind":        "ci.required.delta.v1",
		"changedPaths":     toIface(kernelPaths),
		"projectionDigest": projection.Project(kernelPaths).ProjectionDigest,
	}
	decision, err := BuildDecision(w, delta, kernelPaths, "nf.v1", "pol1_test")
	if err != nil {
		t.Fatalf("BuildDecision returned error: %v", err)
	}
	if decision.Decision != "accept" || decision.ReasonClass != ReasonVerifiedAccept {
		t.Errorf("Unexpected decision: %+v", decision)
	}
	wantSha, err := canonical.StableHash(w)
	if err != nil {
		t.Fatalf("StableHash returned error: %v", err)
	}
	if decision.WitnessSha256 != wantSha {
		t.Errorf("Expected witness sha %q, got %q", wantSha, decision.WitnessSha256)
	}
	if decision.TypedCoreProjectionDigest == decision.AuthorityPayloadDigest {
		t.Error("Typed-core digest must differ from the authority payload digest")
	}
	if !strings.HasPrefix(decision.TypedCoreProjectionDigest, "ev1_") {
		t.Errorf("Typed-core digest must carry the ev1_ scheme: %q", decision.TypedCoreProjectionDigest)
	}
}

func TestBuildDecisionRejectsInvalidWitness(t *testing.T) {
	w := validWitness(kernelPaths)
	w["executedChecks"] = []interface{}{"baseline"}
	decision, err := BuildDecision(w, map[string]interface{}{}, kernelPaths, "nf.v1", "pol1_test")
	if err != nil {
		t.Fatalf("BuildDecision returned error: %v", err)
	}
	if decision.Decision != "reject" || decision.ReasonClass != ReasonWitnessInvalid {
		t.Errorf("Unexpected decision: %+v", decision)
	}
	if len(decision.Errors) == 0 {
		t.Error("Expected recorded verification errors")
	}
}

func TestVerifyDecisionAttestation(t *testing.T) {
	w := validWitness(kernelPaths)
	proj := projection.Project(kernelPaths)
	delta := map[string]interface{}{
		"deltaKind":        "ci.required.delta.v1",
		"changedPaths":     toIface(kernelPaths),
		"projectionDigest": proj.ProjectionDigest,
	}
	witnessSha, _ := canonical.StableHash(w)
	deltaSha, _ := canonical.StableHash(delta)
	decision := map[string]interface{}{
		"decisionKind":     DecisionKind,
		"decision":         "accept",
		"reasonClass":      ReasonVerifiedAccept,
		"projectionDigest": proj.ProjectionDigest,
		"requiredChecks":   toIface(proj.RequiredChecks),
		"witnessSha256":    witnessSha,
		"deltaSha256":      deltaSha,
		"errors":           []interface{}{},
	}
	if failures := VerifyDecisionAttestation(w, delta, decision, kernelPaths); len(failures) != 0 {
		t.Fatalf("Expected clean attestation, got %v", failures)
	}

	decision["witnessSha256"] = strings.Repeat("0", 64)
	failures := VerifyDecisionAttestation(w, delta, decision, kernelPaths)
	found := false
	for _, class := range failures {
		if class == "decision_witness_sha_mismatch" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected decision_witness_sha_mismatch among %v", failures)
	}
}
