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
	"bytes"
	"sort"

	"github.com/premath/premath/pkg/canonical"
	"github.com/premath/premath/pkg/kcir/worlds"
)

// Verifier failure classes. The set is closed and the strings are stable;
// tests bind to them.
const (
	ClassParseError         = "kcir_v2.parse_error"
	ClassDigestMismatch     = "kcir_v2.digest_mismatch"
	ClassEnvUIDMismatch     = "kcir_v2.env_uid_mismatch"
	ClassDepCycle           = "kcir_v2.dep_cycle"
	ClassStoreMissingNode   = "kcir_v2.store_missing_node"
	ClassStoreMissingObjNF  = "kcir_v2.store_missing_obj_nf"
	ClassDataUnavailable    = "kcir_v2.data_unavailable"
	ClassContractViolation  = "kcir_v2.contract_violation"
	ClassUnsupportedOpcode  = "kcir_v2.unsupported_opcode"
)

// VerifyError carries a closed failure class plus a human diagnostic.
type VerifyError struct {
	Class string
	Msg   string
}

func (e *VerifyError) Error() string {
	return e.Class + ": " + e.Msg
}

func parseErr(msg string) error {
	return &VerifyError{Class: ClassParseError, Msg: msg}
}

func contractErr(msg string) error {
	return &VerifyError{Class: ClassContractViolation, Msg: msg}
}

// Options tune a verification run. CollectAll is the opt-in fixture mode:
// every node is checked and all failure classes are gathered instead of
// stopping at the first rejection.
type Options struct {
	CollectAll bool
}

// Result is the output of an accepted (or collect-all) verification.
type Result struct {
	EnvSig canonical.Digest256
	UID    canonical.Digest256

	// ObjOverlay maps object refs to the normal-form bytes constructed
	// while discharging OBJ nodes.
	ObjOverlay map[canonical.Digest256][]byte

	// Failures holds every failure class observed in collect-all mode,
	// sorted and deduplicated. Empty on acceptance.
	Failures []string
}

// Verdict reduces a result to the external accepted/rejected surface.
type Verdict struct {
	Verdict        string   `json:"verdict"`
	FailureClasses []string `json:"failureClasses"`
}

// Verdict renders the aggregate verdict for r.
func (r Result) Verdict() Verdict {
	if len(r.Failures) == 0 {
		return Verdict{Verdict: "accepted", FailureClasses: []string{}}
	}
	return Verdict{Verdict: "rejected", FailureClasses: r.Failures}
}

// Verify checks every node in the store against the given world.
//
// The structural pass decodes each entry, rejects digest mismatches, pins a
// single (envSig, uid) pair, and walks the dependency relation for cycles
// and unresolvable refs. The contract pass then discharges each node's
// opcode contract. By default the first failure wins; Options.CollectAll
// gathers every node's failure class instead.
func Verify(store *Store, world worlds.World, opts Options) (Result, error) {
	res := Result{ObjOverlay: map[canonical.Digest256][]byte{}}
	if len(store.Certs) == 0 {
		// Degenerate store: trivially accepted with zero obligations.
		return res, nil
	}

	refs := make([]canonical.Digest256, 0, len(store.Certs))
	for ref := range store.Certs {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		return bytes.Compare(refs[i][:], refs[j][:]) < 0
	})

	collected := map[string]bool{}
	fail := func(err error) error {
		if !opts.CollectAll {
			return err
		}
		if ve, ok := err.(*VerifyError); ok {
			collected[ve.Class] = true
			return nil
		}
		return err
	}

	nodes := map[canonical.Digest256]Node{}
	var envSet bool
	for _, ref := range refs {
		raw := store.Certs[ref]
		nd, err := DecodeNode(raw)
		if err != nil {
			if ferr := fail(err); ferr != nil {
				return res, ferr
			}
			continue
		}
		if NodeRef(raw) != ref {
			if ferr := fail(&VerifyError{Class: ClassDigestMismatch, Msg: "node digest mismatch"}); ferr != nil {
				return res, ferr
			}
			continue
		}
		if !envSet {
			res.EnvSig, res.UID = nd.EnvSig, nd.UID
			envSet = true
		} else if nd.EnvSig != res.EnvSig || nd.UID != res.UID {
			if ferr := fail(&VerifyError{Class: ClassEnvUIDMismatch, Msg: "envSig/uid mismatch across nodes"}); ferr != nil {
				return res, ferr
			}
			continue
		}
		nodes[ref] = nd
	}

	// Cycle check with an explicit DFS over deps.
	const (
		colorWhite = 0
		colorGray  = 1
		colorBlack = 2
	)
	color := map[canonical.Digest256]int{}
	var dfs func(ref canonical.Digest256) error
	dfs = func(ref canonical.Digest256) error {
		switch color[ref] {
		case colorBlack:
			return nil
		case colorGray:
			return &VerifyError{Class: ClassDepCycle, Msg: "dependency cycle detected"}
		}
		color[ref] = colorGray
		for _, dep := range nodes[ref].Deps {
			if _, ok := nodes[dep]; !ok {
				return &VerifyError{Class: ClassStoreMissingNode, Msg: "missing dep node"}
			}
			if err := dfs(dep); err != nil {
				return err
			}
		}
		color[ref] = colorBlack
		return nil
	}
	for _, ref := range refs {
		if _, ok := nodes[ref]; !ok {
			continue
		}
		if err := dfs(ref); err != nil {
			if ferr := fail(err); ferr != nil {
				return res, ferr
			}
		}
	}

	for _, ref := range refs {
		nd, ok := nodes[ref]
		if !ok {
			continue
		}
		if err := verifyNode(store, nodes, world, res.EnvSig, res.UID, nd, res.ObjOverlay); err != nil {
			if ferr := fail(err); ferr != nil {
				return res, ferr
			}
		}
	}

	if opts.CollectAll {
		for class := range collected {
			res.Failures = append(res.Failures, class)
		}
		sort.Strings(res.Failures)
	}
	return res, nil
}

func (s *Store) objBytes(overlay map[canonical.Digest256][]byte, ref canonical.Digest256) ([]byte, bool) {
	if b, ok := overlay[ref]; ok {
		return b, true
	}
	b, ok := s.Obj[ref]
	return b, ok
}

func (s *Store) primEntry(primID canonical.Digest256) (PrimEntry, error) {
	ent, ok := s.Prims[primID]
	if !ok {
		return PrimEntry{}, &VerifyError{Class: ClassDataUnavailable, Msg: "missing prim store entry"}
	}
	return ent, nil
}

// primLocal dereferences a dep node's output into its prim table entry.
func primLocal(store *Store, overlay map[canonical.Digest256][]byte, nd Node, which string) (PrimEntry, error) {
	var out canonical.Digest256
	copy(out[:], nd.Out)
	objBytes, ok := store.objBytes(overlay, out)
	if !ok {
		return PrimEntry{}, &VerifyError{Class: ClassStoreMissingObjNF, Msg: which + " missing ObjNF bytes for dep"}
	}
	nf, err := ParseObjNF(objBytes)
	if err != nil {
		return PrimEntry{}, err
	}
	if nf.Tag != TagPrim {
		return PrimEntry{}, contractErr(which + " deps must be Prim objects")
	}
	return store.primEntry(nf.PrimID)
}

func verifyNode(store *Store, nodes map[canonical.Digest256]Node, world worlds.World, envSig, uid canonical.Digest256, nd Node, overlay map[canonical.Digest256][]byte) error {
	switch {
	case nd.Sort == SortCover && nd.Opcode == OpCoverLiteral:
		if len(nd.Args) != 32 {
			return contractErr("C_LITERAL args must be 32 bytes")
		}
		var coverSig canonical.Digest256
		copy(coverSig[:], nd.Args)
		if !bytes.Equal(nd.Out, nd.Args) {
			return contractErr("C_LITERAL out must equal coverSig")
		}
		cd, ok := store.Covers[coverSig]
		if !ok {
			return &VerifyError{Class: ClassDataUnavailable, Msg: "cover data missing"}
		}
		if !ValidateCover(coverSig, cd) {
			return contractErr("invalid cover data for coverSig")
		}
		return nil

	case nd.Sort == SortMap && nd.Opcode == OpMapLiteral:
		if len(nd.Args) != 32 {
			return contractErr("M_LITERAL args must be 32 bytes")
		}
		if !bytes.Equal(nd.Out, nd.Args) {
			return contractErr("M_LITERAL out must equal mapId")
		}
		if _, _, err := DecodeMapID(nd.Args); err != nil {
			return err
		}
		return nil

	case nd.Sort == SortObj && nd.Opcode == OpObjUnit:
		if len(nd.Args) != 0 {
			return contractErr("O_UNIT args must be empty")
		}
		if len(nd.Deps) != 0 {
			return contractErr("O_UNIT deps must be empty")
		}
		objBytes := UnitBytes()
		expOut := ObjRef(envSig, uid, objBytes)
		if !bytes.Equal(nd.Out, expOut[:]) {
			return contractErr("O_UNIT out mismatch")
		}
		overlay[expOut] = objBytes
		return nil

	case nd.Sort == SortObj && nd.Opcode == OpObjPrim:
		if len(nd.Args) != 32 {
			return contractErr("O_PRIM args must be 32 bytes")
		}
		var primID canonical.Digest256
		copy(primID[:], nd.Args)
		objBytes := BuildPrim(primID)
		expOut := ObjRef(envSig, uid, objBytes)
		if !bytes.Equal(nd.Out, expOut[:]) {
			return contractErr("O_PRIM out mismatch")
		}
		overlay[expOut] = objBytes
		if _, ok := store.Prims[primID]; !ok {
			return &VerifyError{Class: ClassDataUnavailable, Msg: "missing prim store entry for O_PRIM"}
		}
		if stored, ok := store.Obj[expOut]; ok && !bytes.Equal(stored, objBytes) {
			return &VerifyError{Class: ClassStoreMissingObjNF, Msg: "obj store bytes mismatch for constructed object"}
		}
		return nil

	case nd.Sort == SortObj && nd.Opcode == OpObjMkGlue:
		return verifyMkGlue(store, nodes, envSig, uid, nd, overlay)

	case nd.Sort == SortObj && nd.Opcode == OpObjAssertOverlap:
		return verifyAssertOverlap(store, nodes, world, envSig, uid, nd, overlay)

	case nd.Sort == SortObj && nd.Opcode == OpObjAssertTriple:
		return verifyAssertTriple(store, nodes, world, envSig, uid, nd, overlay)

	case nd.Sort == SortObj && nd.Opcode == OpObjAssertContractible:
		return verifyAssertContractible(store, nodes, world, envSig, uid, nd, overlay)
	}
	return &VerifyError{Class: ClassUnsupportedOpcode, Msg: "unsupported (sort,opcode) pair"}
}

func verifyMkGlue(store *Store, nodes map[canonical.Digest256]Node, envSig, uid canonical.Digest256, nd Node, overlay map[canonical.Digest256][]byte) error {
	if len(nd.Args) != 32 {
		return contractErr("O_MKGLUE args must be exactly wSig (32 bytes)")
	}
	var wSig canonical.Digest256
	copy(wSig[:], nd.Args)

	cd, ok := store.Covers[wSig]
	if !ok {
		return &VerifyError{Class: ClassDataUnavailable, Msg: "O_MKGLUE missing cover data for wSig"}
	}
	if !ValidateCover(wSig, cd) {
		return contractErr("O_MKGLUE invalid cover data for wSig")
	}
	nLocals := CoverLen(cd)

	// Proof-carrying trace: deps = [coverNode] ++ local object nodes.
	if len(nd.Deps) != 1+nLocals {
		return contractErr("O_MKGLUE deps must be cover + one dep per local")
	}
	coverDep, ok := nodes[nd.Deps[0]]
	if !ok || coverDep.Sort != SortCover || coverDep.Opcode != OpCoverLiteral || !bytes.Equal(coverDep.Out, wSig[:]) {
		return contractErr("O_MKGLUE first dep must be COVER/C_LITERAL with out=wSig")
	}
	localRefs := make([]canonical.Digest256, 0, nLocals)
	for i := 0; i < nLocals; i++ {
		dep, ok := nodes[nd.Deps[1+i]]
		if !ok || dep.Sort != SortObj {
			return contractErr("O_MKGLUE local dep must be OBJ node")
		}
		if dep.Opcode != OpObjPrim && dep.Opcode != OpObjMkGlue {
			return contractErr("O_MKGLUE local deps must be O_PRIM or O_MKGLUE")
		}
		var out canonical.Digest256
		copy(out[:], dep.Out)
		localRefs = append(localRefs, out)
	}

	objBytes := BuildGlue(wSig, localRefs)
	expOut := ObjRef(envSig, uid, objBytes)
	if !bytes.Equal(nd.Out, expOut[:]) {
		return contractErr("O_MKGLUE out mismatch")
	}
	overlay[expOut] = objBytes
	if stored, ok := store.Obj[expOut]; ok && !bytes.Equal(stored, objBytes) {
		return &VerifyError{Class: ClassStoreMissingObjNF, Msg: "obj store bytes mismatch for constructed glue object"}
	}
	return nil
}

func assertUnitOut(store *Store, envSig, uid canonical.Digest256, nd Node, overlay map[canonical.Digest256][]byte, which string) error {
	unitBytes := UnitBytes()
	unitRef := ObjRef(envSig, uid, unitBytes)
	if !bytes.Equal(nd.Out, unitRef[:]) {
		return contractErr(which + " out must be Unit")
	}
	overlay[unitRef] = unitBytes
	return nil
}

func verifyAssertOverlap(store *Store, nodes map[canonical.Digest256]Node, world worlds.World, envSig, uid canonical.Digest256, nd Node, overlay map[canonical.Digest256][]byte) error {
	if len(nd.Args) != 4 {
		return contractErr("O_ASSERT_OVERLAP args must be ovMask:u32le (4 bytes)")
	}
	if len(nd.Deps) != 2 {
		return contractErr("O_ASSERT_OVERLAP deps must be exactly 2 OBJ nodes")
	}
	ovMask, err := u32leToMask(nd.Args)
	if err != nil {
		return err
	}

	left, lok := nodes[nd.Deps[0]]
	right, rok := nodes[nd.Deps[1]]
	if !lok || !rok || left.Sort != SortObj || right.Sort != SortObj {
		return contractErr("O_ASSERT_OVERLAP deps must be OBJ nodes")
	}

	lEnt, err := primLocal(store, overlay, left, "O_ASSERT_OVERLAP")
	if err != nil {
		return err
	}
	rEnt, err := primLocal(store, overlay, right, "O_ASSERT_OVERLAP")
	if err != nil {
		return err
	}
	if ovMask != lEnt.Mask&rEnt.Mask {
		return contractErr("O_ASSERT_OVERLAP ovMask does not match masks of deps")
	}

	if !world.Validate(lEnt.Mask, lEnt.Value) || !world.Validate(rEnt.Mask, rEnt.Value) {
		return contractErr("O_ASSERT_OVERLAP prim value ill-typed for its declared mask")
	}
	lr, lDefined := world.Restrict(ovMask, lEnt.Mask, lEnt.Value)
	rr, rDefined := world.Restrict(ovMask, rEnt.Mask, rEnt.Value)
	if !lDefined || !rDefined {
		return contractErr("O_ASSERT_OVERLAP restriction undefined on overlap")
	}
	if !world.Validate(ovMask, lr) || !world.Validate(ovMask, rr) {
		return contractErr("O_ASSERT_OVERLAP restricted value ill-typed on overlap")
	}
	if !world.Equal(lr, rr) {
		return contractErr("O_ASSERT_OVERLAP overlap values do not agree")
	}
	return assertUnitOut(store, envSig, uid, nd, overlay, "O_ASSERT_OVERLAP")
}

func verifyAssertTriple(store *Store, nodes map[canonical.Digest256]Node, world worlds.World, envSig, uid canonical.Digest256, nd Node, overlay map[canonical.Digest256][]byte) error {
	if len(nd.Args) != 4 {
		return contractErr("O_ASSERT_TRIPLE args must be triMask:u32le (4 bytes)")
	}
	if len(nd.Deps) != 3 {
		return contractErr("O_ASSERT_TRIPLE deps must be exactly 3 OBJ nodes")
	}
	triMask, err := u32leToMask(nd.Args)
	if err != nil {
		return err
	}

	ents := make([]PrimEntry, 0, 3)
	for _, depRef := range nd.Deps {
		dep, ok := nodes[depRef]
		if !ok || dep.Sort != SortObj {
			return contractErr("O_ASSERT_TRIPLE deps must be OBJ nodes")
		}
		ent, err := primLocal(store, overlay, dep, "O_ASSERT_TRIPLE")
		if err != nil {
			return err
		}
		ents = append(ents, ent)
	}
	if triMask != ents[0].Mask&ents[1].Mask&ents[2].Mask {
		return contractErr("O_ASSERT_TRIPLE triMask does not match masks of deps")
	}

	restricted := make([]worlds.Value, 0, 3)
	for _, ent := range ents {
		if !world.Validate(ent.Mask, ent.Value) {
			return contractErr("O_ASSERT_TRIPLE prim value ill-typed for its declared mask")
		}
		r, defined := world.Restrict(triMask, ent.Mask, ent.Value)
		if !defined {
			return contractErr("O_ASSERT_TRIPLE restriction undefined on triple-overlap")
		}
		if !world.Validate(triMask, r) {
			return contractErr("O_ASSERT_TRIPLE restricted value ill-typed on triple-overlap")
		}
		restricted = append(restricted, r)
	}
	if !world.Equal(restricted[0], restricted[1]) || !world.Equal(restricted[1], restricted[2]) {
		return contractErr("O_ASSERT_TRIPLE triple-overlap values do not agree")
	}
	return assertUnitOut(store, envSig, uid, nd, overlay, "O_ASSERT_TRIPLE")
}

func verifyAssertContractible(store *Store, nodes map[canonical.Digest256]Node, world worlds.World, envSig, uid canonical.Digest256, nd Node, overlay map[canonical.Digest256][]byte) error {
	if len(nd.Args) < 32 {
		return contractErr("O_ASSERT_CONTRACTIBLE args must begin with schemeId:Bytes32")
	}
	schemeID := nd.Args[:32]
	proof := nd.Args[32:]
	if !bytes.Equal(schemeID, worlds.SchemeEnumerateV1) {
		return contractErr("O_ASSERT_CONTRACTIBLE unsupported proof scheme id")
	}
	if len(nd.Deps) != 1 {
		return contractErr("O_ASSERT_CONTRACTIBLE deps must be exactly one OBJ node (the glue candidate)")
	}
	glueNode, ok := nodes[nd.Deps[0]]
	if !ok || glueNode.Sort != SortObj || glueNode.Opcode != OpObjMkGlue {
		return contractErr("O_ASSERT_CONTRACTIBLE dep must be OBJ/O_MKGLUE")
	}

	var glueObjRef canonical.Digest256
	copy(glueObjRef[:], glueNode.Out)
	glueBytes, ok := store.objBytes(overlay, glueObjRef)
	if !ok {
		return &VerifyError{Class: ClassStoreMissingObjNF, Msg: "O_ASSERT_CONTRACTIBLE missing ObjNF bytes for glue object"}
	}
	glueNF, err := ParseObjNF(glueBytes)
	if err != nil {
		return err
	}
	if glueNF.Tag != TagGlue {
		return contractErr("O_ASSERT_CONTRACTIBLE dep out must be an ObjNF Glue")
	}

	cd, ok := store.Covers[glueNF.WSig]
	if !ok {
		return &VerifyError{Class: ClassDataUnavailable, Msg: "O_ASSERT_CONTRACTIBLE missing cover data for glue"}
	}
	if !ValidateCover(glueNF.WSig, cd) {
		return contractErr("O_ASSERT_CONTRACTIBLE invalid cover data")
	}
	if len(glueNF.Locals) != CoverLen(cd) {
		return contractErr("O_ASSERT_CONTRACTIBLE locals length mismatch with cover")
	}

	localVals := make([]worlds.Value, 0, len(glueNF.Locals))
	for i, objRef := range glueNF.Locals {
		legMask := cd.Legs[i]
		objBytes, ok := store.objBytes(overlay, objRef)
		if !ok {
			return &VerifyError{Class: ClassStoreMissingObjNF, Msg: "O_ASSERT_CONTRACTIBLE missing ObjNF bytes for local"}
		}
		nf, err := ParseObjNF(objBytes)
		if err != nil {
			return err
		}
		if nf.Tag != TagPrim {
			return contractErr("O_ASSERT_CONTRACTIBLE locals must be Prim objects")
		}
		ent, err := store.primEntry(nf.PrimID)
		if err != nil {
			return err
		}
		if ent.Mask != legMask {
			return contractErr("O_ASSERT_CONTRACTIBLE prim mask does not match cover leg mask")
		}
		if !world.Validate(legMask, ent.Value) {
			return contractErr("O_ASSERT_CONTRACTIBLE local value ill-typed for leg mask")
		}
		localVals = append(localVals, ent.Value)
	}

	if !world.VerifyContractible(schemeID, proof, cd.BaseMask, cd.Legs, localVals) {
		return contractErr("O_ASSERT_CONTRACTIBLE failed: glue space not contractible")
	}
	return assertUnitOut(store, envSig, uid, nd, overlay, "O_ASSERT_CONTRACTIBLE")
}
