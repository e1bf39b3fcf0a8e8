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

package worlds

import (
	"encoding/json"
	"testing"
)

func TestGetKnownWorlds(t *testing.T) {
	for _, name := range Names() {
		w, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%q) returned error: %v", name, err)
		}
		if w.Name() != name {
			t.Errorf("World %q reports name %q", name, w.Name())
		}
	}
	if _, err := Get("no_such_world"); err == nil {
		t.Error("Expected error for unknown world")
	}
}

func TestSheafBitsValidateAndRestrict(t *testing.T) {
	w, _ := Get("sheaf_bits")
	v := map[string]interface{}{"0": 1, "1": 0, "2": 1}
	if !w.Validate(7, v) {
		t.Fatal("Expected value to inhabit Def(7)")
	}
	if w.Validate(3, v) {
		t.Error("Value with extra keys must not inhabit Def(3)")
	}
	r, ok := w.Restrict(5, 7, v)
	if !ok {
		t.Fatal("Restriction along 5 -> 7 must be defined")
	}
	if !w.Equal(r, map[string]interface{}{"0": 1, "2": 1}) {
		t.Errorf("Unexpected restriction: %v", r)
	}
	// json.Number values decode the same way prim tables do.
	decoded := map[string]interface{}{"0": json.Number("1"), "1": json.Number("0"), "2": json.Number("1")}
	if !w.Validate(7, decoded) {
		t.Error("Decoded json.Number values must validate")
	}
	if !w.Equal(v, decoded) {
		t.Error("World equality must not depend on number representation")
	}
}

func TestSheafBitsEnumerateIsExhaustive(t *testing.T) {
	w, _ := Get("sheaf_bits")
	got := w.Enumerate(5)
	if len(got) != 4 {
		t.Fatalf("Expected 4 sections of Def(5), got %d", len(got))
	}
	for _, v := range got {
		if !w.Validate(5, v) {
			t.Errorf("Enumerated value does not validate: %v", v)
		}
	}
}

func TestBadStabilityNonFunctorialCase(t *testing.T) {
	w, _ := Get("bad_stability")
	direct, ok := w.Restrict(1, 7, 1)
	if !ok {
		t.Fatal("Restriction must be defined")
	}
	via, ok := w.Restrict(1, 3, 1)
	if !ok {
		t.Fatal("Intermediate restriction must be defined")
	}
	if w.Equal(direct, via) {
		t.Error("bad_stability must disagree with the factored restriction")
	}
}

func TestPartialRestrictUndefinedOnSingletons(t *testing.T) {
	w, _ := Get("partial_restrict")
	if _, ok := w.Restrict(4, 7, 1); ok {
		t.Error("Restriction to a singleton context must be undefined")
	}
	if _, ok := w.Restrict(3, 7, 1); !ok {
		t.Error("Restriction to a two-bit context must be defined")
	}
}

func TestContractibleUniqueness(t *testing.T) {
	sheaf, _ := Get("sheaf_bits")
	locals := []Value{
		map[string]interface{}{"0": 0, "1": 0},
		map[string]interface{}{"0": 0, "2": 0},
		map[string]interface{}{"1": 0, "2": 0},
	}
	if !sheaf.VerifyContractible(SchemeEnumerateV1, nil, 7, []uint32{3, 5, 6}, locals) {
		t.Error("sheaf_bits glue must be contractible")
	}
	if sheaf.VerifyContractible(SchemeEnumerateV1, []byte{0x01}, 7, []uint32{3, 5, 6}, locals) {
		t.Error("Non-empty proof bytes must be rejected by the baseline scheme")
	}
	if sheaf.VerifyContractible([]byte("not-a-real-scheme-id-32-bytes!!!"), nil, 7, []uint32{3, 5, 6}, locals) {
		t.Error("Unknown scheme ids must be rejected")
	}

	nonSep, _ := Get("non_separated")
	if nonSep.VerifyContractible(SchemeEnumerateV1, nil, 7, []uint32{3, 5, 6}, []Value{0, 0, 0}) {
		t.Error("non_separated glue must not be contractible")
	}
}
