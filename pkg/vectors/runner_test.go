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
	"testing"

	"github.com/pkg/errors"
)

type memLoader struct {
	manifests map[string][]string
	cases     map[string]map[string]interface{}
	expects   map[string]map[string]interface{}
}

func (l memLoader) Manifest(capabilityID string) ([]string, error) {
	vectors, ok := l.manifests[capabilityID]
	if !ok {
		return nil, errors.Errorf("no manifest for %s", capabilityID)
	}
	return vectors, nil
}

func (l memLoader) Case(capabilityID, vectorID string) (map[string]interface{}, error) {
	return l.cases[capabilityID+"/"+vectorID], nil
}

func (l memLoader) Expect(capabilityID, vectorID string) (map[string]interface{}, error) {
	return l.expects[capabilityID+"/"+vectorID], nil
}

func invarianceCase(scenarioID, profile, verdict string, classes ...interface{}) map[string]interface{} {
	return map[string]interface{}{
		"profile":            profile,
		"semanticScenarioId": scenarioID,
		"artifacts": map[string]interface{}{
			"input": map[string]interface{}{
				"kernelVerdict":      verdict,
				"gateFailureClasses": classes,
			},
		},
	}
}

func expectPayload(result string) map[string]interface{} {
	return map[string]interface{}{"result": result}
}

func TestRunCapabilityInvarianceGroups(t *testing.T) {
	loader := memLoader{
		manifests: map[string][]string{
			CapabilityInstructionTyping: {
				"invariance/same_typing_local",
				"invariance/same_typing_external",
			},
		},
		cases: map[string]map[string]interface{}{
			CapabilityInstructionTyping + "/invariance/same_typing_local":    invarianceCase("same_typing", "local", "accepted"),
			CapabilityInstructionTyping + "/invariance/same_typing_external": invarianceCase("same_typing", "local", "accepted"),
		},
		expects: map[string]map[string]interface{}{
			CapabilityInstructionTyping + "/invariance/same_typing_local":    expectPayload("accepted"),
			CapabilityInstructionTyping + "/invariance/same_typing_external": expectPayload("accepted"),
		},
	}
	report := RunCapability(loader, CapabilityInstructionTyping, EvaluateInstructionTyping)
	if !report.Accepted() {
		t.Fatalf("Expected clean run, got errors: %v", report.Errors)
	}
	if report.Checked != 2 {
		t.Errorf("Expected 2 checked vectors, got %d", report.Checked)
	}
}

func TestRunCapabilityInvarianceMismatch(t *testing.T) {
	loader := memLoader{
		manifests: map[string][]string{
			CapabilityInstructionTyping: {
				"invariance/same_typing_local",
				"invariance/same_typing_external",
			},
		},
		cases: map[string]map[string]interface{}{
			CapabilityInstructionTyping + "/invariance/same_typing_local":    invarianceCase("same_typing", "local", "accepted"),
			CapabilityInstructionTyping + "/invariance/same_typing_external": invarianceCase("same_typing", "local", "rejected", "descent_failure"),
		},
		expects: map[string]map[string]interface{}{
			CapabilityInstructionTyping + "/invariance/same_typing_local":    expectPayload("accepted"),
			CapabilityInstructionTyping + "/invariance/same_typing_external": expectPayload("rejected"),
		},
	}
	report := RunCapability(loader, CapabilityInstructionTyping, EvaluateInstructionTyping)
	if report.Accepted() {
		t.Fatal("Expected invariance mismatch errors")
	}
	found := false
	for _, e := range report.Errors {
		if strings.Contains(e, "kernelVerdict mismatch") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected kernelVerdict mismatch among %v", report.Errors)
	}
}

func TestRunCapabilitySingletonInvarianceGroupRejects(t *testing.T) {
	loader := memLoader{
		manifests: map[string][]string{
			CapabilityInstructionTyping: {"invariance/same_typing_local"},
		},
		cases: map[string]map[string]interface{}{
			CapabilityInstructionTyping + "/invariance/same_typing_local": invarianceCase("same_typing", "local", "accepted"),
		},
		expects: map[string]map[string]interface{}{
			CapabilityInstructionTyping + "/invariance/same_typing_local": expectPayload("accepted"),
		},
	}
	report := RunCapability(loader, CapabilityInstructionTyping, EvaluateInstructionTyping)
	if report.Accepted() {
		t.Fatal("Expected singleton invariance group to be rejected")
	}
}

func TestRunCapabilityStakedExpectationMismatch(t *testing.T) {
	loader := memLoader{
		manifests: map[string][]string{
			CapabilityNormalForms: {"adversarial/nf_requires_claim"},
		},
		cases: map[string]map[string]interface{}{
			CapabilityNormalForms + "/adversarial/nf_requires_claim": {
				"artifacts": map[string]interface{}{
					"request": map[string]interface{}{
						"mode":                "normalized",
						"claimedCapabilities": claims(),
					},
				},
			},
		},
		expects: map[string]map[string]interface{}{
			// Staked expectation disagrees with the deterministic outcome.
			CapabilityNormalForms + "/adversarial/nf_requires_claim": expectPayload("accepted"),
		},
	}
	report := RunCapability(loader, CapabilityNormalForms, EvaluateNormalForms)
	if report.Accepted() {
		t.Fatal("Expected result mismatch error")
	}
}

// Re-running the same vector set yields identical outcomes.
func TestRunCapabilityDeterministic(t *testing.T) {
	loader := memLoader{
		manifests: map[string][]string{
			CapabilityNormalForms: {"golden/nf_equiv_accept"},
		},
		cases: map[string]map[string]interface{}{
			CapabilityNormalForms + "/golden/nf_equiv_accept": {
				"artifacts": map[string]interface{}{
					"left": map[string]interface{}{
						"semantic":     map[string]interface{}{"xs": []interface{}{"b", "a"}},
						"normalizerId": "nf.v1",
						"policyDigest": "pol1_a",
					},
					"right": map[string]interface{}{
						"semantic":     map[string]interface{}{"xs": []interface{}{"a", "b"}},
						"normalizerId": "nf.v1",
						"policyDigest": "pol1_a",
					},
				},
			},
		},
		expects: map[string]map[string]interface{}{
			CapabilityNormalForms + "/golden/nf_equiv_accept": expectPayload("accepted"),
		},
	}
	first := RunCapability(loader, CapabilityNormalForms, EvaluateNormalForms)
	second := RunCapability(loader, CapabilityNormalForms, EvaluateNormalForms)
	if !first.Accepted() || !second.Accepted() {
		t.Fatalf("Expected clean runs: %v / %v", first.Errors, second.Errors)
	}
	if first.Results[0].Outcome.CmpRef == "" || first.Results[0].Outcome.CmpRef != second.Results[0].Outcome.CmpRef {
		t.Error("cmp refs must be stable across runs")
	}
}
