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

package drift

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/premath/premath/pkg/contract"
)

const specIndexText = `# SPEC-INDEX

### 5.3 Other

- unrelated

### 5.4 Capability doc map

- ` + "`docs/NORMAL-FORMS.md` (for `capabilities.normal_forms`)" + `
- ` + "`docs/ADJOINTS-AND-SITES.md` (for `capabilities.adjoints_sites`)" + `

### 5.5 Tail
`

func testContract(t *testing.T) *contract.Contract {
	t.Helper()
	// Reuse the loader's own fixture payload through the public API so the
	// sentinels cross-check a genuinely loaded contract.
	c, err := contract.Load(contractFixture())
	if err != nil {
		t.Fatalf("contract.Load returned error: %v", err)
	}
	return c
}

func acceptingInputs(t *testing.T) Inputs {
	t.Helper()
	c := testContract(t)
	return Inputs{
		Contract:   c,
		LoaderView: NewLoaderView(c),
		SpecIndexText: specIndexText,
		ExecutableCapabilities: []string{
			"capabilities.normal_forms",
			"capabilities.adjoints_sites",
		},
		CoherenceContract: map[string]interface{}{
			"conditionalCapabilityDocs": []interface{}{
				map[string]interface{}{
					"docRef":       "docs/ADJOINTS-AND-SITES.md",
					"capabilityId": "capabilities.adjoints_sites",
				},
			},
			"obligations": []interface{}{
				map[string]interface{}{"id": "scope_noncontradiction"},
				map[string]interface{}{"id": "gate_chain_parity"},
			},
			"requiredBidirObligations": []interface{}{
				"stability", "locality", "descent_exists", "descent_contractible",
				"adjoint_triple", "ext_gap", "ext_ambiguous",
			},
			"surfaces": map[string]interface{}{
				"obligationRegistryKind": "premath.obligation_gate_registry.v1",
			},
		},
		CoherenceWitness: map[string]interface{}{
			"obligations": []interface{}{
				map[string]interface{}{
					"obligationId": "scope_noncontradiction",
					"details": map[string]interface{}{
						"requiredCoherenceObligations": []interface{}{
							"gate_chain_parity", "scope_noncontradiction",
						},
						"requiredBidirObligations": []interface{}{
							"adjoint_triple", "descent_contractible", "descent_exists",
							"ext_ambiguous", "ext_gap", "locality", "stability",
						},
						"obligationRegistryKind": "premath.obligation_gate_registry.v1",
					},
				},
				map[string]interface{}{
					"obligationId": "gate_chain_parity",
					"details": map[string]interface{}{
						"laneRegistry": map[string]interface{}{
							"requiredCrossLaneWitnessRoute": "span_square_commutation",
						},
					},
				},
			},
		},
		NormativeDocs: map[string]string{
			"specs/premath/draft/SPEC-INDEX.md":          "uses SigPi and sig\\Pi throughout",
			"specs/premath/draft/UNIFICATION-DOCTRINE.md": "SigPi",
		},
		CacheClosurePaths: append([]string(nil), CacheClosureRequiredPaths...),
	}
}

func TestEvaluateAccepts(t *testing.T) {
	report, err := Evaluate(acceptingInputs(t))
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if report.Result != "accepted" {
		t.Fatalf("Expected accepted, got %q with classes %v", report.Result, report.DriftClasses)
	}
	if report.CheckKind != CheckKind || report.Schema != Schema {
		t.Errorf("Unexpected report identity: %+v", report)
	}
	if report.Summary["checkCount"] != 5 {
		t.Errorf("Expected 5 sentinels, got %d", report.Summary["checkCount"])
	}
}

func TestEvaluateDetectsDriftClasses(t *testing.T) {
	testCases := []struct {
		desc   string
		mutate func(in *Inputs)
		want   []string
	}{
		{
			desc: "unknown capability in spec index",
			mutate: func(in *Inputs) {
				in.ExecutableCapabilities = []string{"capabilities.normal_forms"}
			},
			want: []string{ClassSpecIndex},
		}, {
			desc: "loader constants diverge from contract",
			mutate: func(in *Inputs) {
				in.LoaderView.RequiredCrossLaneRoute = "legacy_route"
			},
			want: []string{ClassLaneBindings},
		}, {
			desc: "witness bidir obligations diverge",
			mutate: func(in *Inputs) {
				in.CoherenceContract["requiredBidirObligations"] = []interface{}{"stability"}
			},
			want: []string{ClassRequiredObligations},
		}, {
			desc: "legacy notation alias in normative docs",
			mutate: func(in *Inputs) {
				in.NormativeDocs["specs/premath/draft/SPEC-INDEX.md"] = "still says Sig/Pi but also SigPi and sig\\Pi"
			},
			want: []string{ClassSigPiNotation},
		}, {
			desc: "cache closure missing a loader input",
			mutate: func(in *Inputs) {
				in.CacheClosurePaths = in.CacheClosurePaths[:1]
			},
			want: []string{ClassCacheClosure},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			in := acceptingInputs(t)
			tc.mutate(&in)
			report, err := Evaluate(in)
			if err != nil {
				t.Fatalf("Evaluate returned error: %v", err)
			}
			if report.Result != "rejected" {
				t.Fatalf("Expected rejection, got %q", report.Result)
			}
			if diff := pretty.Compare(report.DriftClasses, tc.want); diff != "" {
				t.Errorf("Unexpected drift classes, diff:\n%s", diff)
			}
		})
	}
}
