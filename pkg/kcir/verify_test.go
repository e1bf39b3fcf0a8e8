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

package kcir

import (
	"testing"

	"github.com/premath/premath/pkg/canonical"
	"github.com/premath/premath/pkg/kcir/worlds"
)

var (
	testEnvSig = fixedDigest(0x11)
	testUID    = fixedDigest(0x22)
)

func mustWorld(t *testing.T, name string) worlds.World {
	t.Helper()
	w, err := worlds.Get(name)
	if err != nil {
		t.Fatalf("worlds.Get(%q) returned error: %v", name, err)
	}
	return w
}

func sheafLocals() []worlds.Value {
	// Locals for legs [3, 5, 6] that glue to the all-zero global section.
	return []worlds.Value{
		map[string]interface{}{"0": 0, "1": 0},
		map[string]interface{}{"0": 0, "2": 0},
		map[string]interface{}{"1": 0, "2": 0},
	}
}

func TestVerifyEmptyStoreAccepts(t *testing.T) {
	res, err := Verify(NewStore(), mustWorld(t, "sheaf_bits"), Options{})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if len(res.ObjOverlay) != 0 {
		t.Errorf("Expected empty overlay, got %d entries", len(res.ObjOverlay))
	}
	verdict := res.Verdict()
	if verdict.Verdict != "accepted" || len(verdict.FailureClasses) != 0 {
		t.Errorf("Expected trivial accept, got %+v", verdict)
	}
}

func TestVerifyAcceptedDescent(t *testing.T) {
	fx, err := CompileDescent(testEnvSig, testUID, 7, []uint32{3, 5, 6}, sheafLocals(), true)
	if err != nil {
		t.Fatalf("CompileDescent returned error: %v", err)
	}
	res, err := Verify(fx.Store, mustWorld(t, "sheaf_bits"), Options{})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if res.EnvSig != testEnvSig || res.UID != testUID {
		t.Errorf("Unexpected env/uid: %v/%v", res.EnvSig.Hex(), res.UID.Hex())
	}
	if len(res.ObjOverlay) == 0 {
		t.Fatal("Expected a populated obj overlay")
	}
	// Every overlay entry round-trips through the normal-form codec and
	// re-addresses to the same ref.
	for ref, objBytes := range res.ObjOverlay {
		nf, err := ParseObjNF(objBytes)
		if err != nil {
			t.Fatalf("Overlay bytes do not parse: %v", err)
		}
		if got := ObjRef(testEnvSig, testUID, nf.Encode()); got != ref {
			t.Errorf("Overlay entry does not re-address: %v vs %v", got.Hex(), ref.Hex())
		}
	}
}

func TestVerifyNonSeparatedGlueNotContractible(t *testing.T) {
	// Same descent shape under the non-separated world: every value
	// restricts to 0, so both global candidates match every local and
	// uniqueness fails.
	locals := []worlds.Value{0, 0, 0}
	fx, err := CompileDescent(testEnvSig, testUID, 7, []uint32{3, 5, 6}, locals, true)
	if err != nil {
		t.Fatalf("CompileDescent returned error: %v", err)
	}
	_, err = Verify(fx.Store, mustWorld(t, "non_separated"), Options{})
	ve, ok := err.(*VerifyError)
	if !ok {
		t.Fatalf("Expected *VerifyError, got %v", err)
	}
	if ve.Class != ClassContractViolation {
		t.Errorf("Expected %q, got %q", ClassContractViolation, ve.Class)
	}
}

func TestVerifyRejectsTamperedNodeBytes(t *testing.T) {
	fx, err := CompileDescent(testEnvSig, testUID, 7, []uint32{3, 5, 6}, sheafLocals(), false)
	if err != nil {
		t.Fatalf("CompileDescent returned error: %v", err)
	}
	for ref, raw := range fx.Store.Certs {
		tampered := append([]byte(nil), raw...)
		tampered[0] ^= 0xff
		fx.Store.Certs[ref] = tampered
		break
	}
	_, err = Verify(fx.Store, mustWorld(t, "sheaf_bits"), Options{})
	ve, ok := err.(*VerifyError)
	if !ok {
		t.Fatalf("Expected *VerifyError, got %v", err)
	}
	if ve.Class != ClassDigestMismatch {
		t.Errorf("Expected %q, got %q", ClassDigestMismatch, ve.Class)
	}
}

func TestVerifyCollectAllGathersFailures(t *testing.T) {
	fx, err := CompileDescent(testEnvSig, testUID, 7, []uint32{3, 5, 6}, sheafLocals(), false)
	if err != nil {
		t.Fatalf("CompileDescent returned error: %v", err)
	}
	for ref, raw := range fx.Store.Certs {
		tampered := append([]byte(nil), raw...)
		tampered[0] ^= 0xff
		fx.Store.Certs[ref] = tampered
		break
	}
	res, err := Verify(fx.Store, mustWorld(t, "sheaf_bits"), Options{CollectAll: true})
	if err != nil {
		t.Fatalf("Verify returned error in collect-all mode: %v", err)
	}
	if len(res.Failures) == 0 {
		t.Fatal("Expected collected failures")
	}
	found := false
	for _, class := range res.Failures {
		if class == ClassDigestMismatch {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected %q among %v", ClassDigestMismatch, res.Failures)
	}
	if res.Verdict().Verdict != "rejected" {
		t.Error("Collect-all with failures must reject")
	}
}

func TestVerifyMkGlueDepsCountMismatch(t *testing.T) {
	s := NewStore()
	sig, coverNode, _, err := s.AddCover(testEnvSig, testUID, 7, []uint32{3, 5, 6})
	if err != nil {
		t.Fatalf("AddCover returned error: %v", err)
	}
	objRef, _, localNode, err := s.AddPrim(testEnvSig, testUID, 3, map[string]interface{}{"0": 0, "1": 0})
	if err != nil {
		t.Fatalf("AddPrim returned error: %v", err)
	}
	// Glue over a three-leg cover with a single local: deps count is
	// 1 + 1 instead of 1 + 3.
	if _, _, err := s.AddGlue(testEnvSig, testUID, sig, []canonical.Digest256{objRef}, coverNode, []canonical.Digest256{localNode}); err != nil {
		t.Fatalf("AddGlue returned error: %v", err)
	}
	_, err = Verify(s, mustWorld(t, "sheaf_bits"), Options{})
	ve, ok := err.(*VerifyError)
	if !ok {
		t.Fatalf("Expected *VerifyError, got %v", err)
	}
	if ve.Class != ClassContractViolation {
		t.Errorf("Expected %q, got %q", ClassContractViolation, ve.Class)
	}
}

func TestVerifyContractibleRejectsNonEmptyProof(t *testing.T) {
	fx, err := CompileDescent(testEnvSig, testUID, 7, []uint32{3, 5, 6}, sheafLocals(), false)
	if err != nil {
		t.Fatalf("CompileDescent returned error: %v", err)
	}
	if _, err := fx.Store.AddAssertContractible(testEnvSig, testUID, worlds.SchemeEnumerateV1, []byte{0x01}, fx.GlueNode); err != nil {
		t.Fatalf("AddAssertContractible returned error: %v", err)
	}
	_, err = Verify(fx.Store, mustWorld(t, "sheaf_bits"), Options{})
	ve, ok := err.(*VerifyError)
	if !ok {
		t.Fatalf("Expected *VerifyError, got %v", err)
	}
	if ve.Class != ClassContractViolation {
		t.Errorf("Expected %q, got %q", ClassContractViolation, ve.Class)
	}
}

func TestVerifyRejectsMissingDep(t *testing.T) {
	s := NewStore()
	ghost := fixedDigest(0x77)
	unitRef := s.UnitRef(testEnvSig, testUID)
	if _, err := s.AddNode(Node{
		EnvSig: testEnvSig,
		UID:    testUID,
		Sort:   SortObj,
		Opcode: OpObjAssertOverlap,
		Out:    unitRef[:],
		Args:   u32le(1),
		Deps:   []canonical.Digest256{ghost, ghost},
	}); err != nil {
		t.Fatalf("AddNode returned error: %v", err)
	}
	_, err := Verify(s, mustWorld(t, "sheaf_bits"), Options{})
	ve, ok := err.(*VerifyError)
	if !ok {
		t.Fatalf("Expected *VerifyError, got %v", err)
	}
	if ve.Class != ClassStoreMissingNode {
		t.Errorf("Expected %q, got %q", ClassStoreMissingNode, ve.Class)
	}
}

func TestVerifyRejectsMixedEnvUID(t *testing.T) {
	s := NewStore()
	if _, _, _, err := s.AddCover(testEnvSig, testUID, 1, []uint32{1}); err != nil {
		t.Fatalf("AddCover returned error: %v", err)
	}
	if _, _, _, err := s.AddCover(testEnvSig, fixedDigest(0x99), 3, []uint32{1, 2}); err != nil {
		t.Fatalf("AddCover returned error: %v", err)
	}
	_, err := Verify(s, mustWorld(t, "sheaf_bits"), Options{})
	ve, ok := err.(*VerifyError)
	if !ok {
		t.Fatalf("Expected *VerifyError, got %v", err)
	}
	if ve.Class != ClassEnvUIDMismatch {
		t.Errorf("Expected %q, got %q", ClassEnvUIDMismatch, ve.Class)
	}
}
