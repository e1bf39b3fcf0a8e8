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
	"crypto/sha256"
	"sort"

	"github.com/premath/premath/pkg/canonical"
)

// PrimEntry is one declared primitive: a context mask and its semantic value.
type PrimEntry struct {
	Mask  uint32
	Value interface{}
}

// CoverData is a descent cover: the ambient base mask and one subset mask per
// leg. Canonical form has legs sorted ascending with duplicates removed.
type CoverData struct {
	BaseMask uint32
	Legs     []uint32
}

// Store is the verification input: content-addressed node bytes, optional
// object normal-form bytes, cover data keyed by cover signature, and the prim
// table keyed by prim id.
type Store struct {
	Certs  map[canonical.Digest256][]byte
	Obj    map[canonical.Digest256][]byte
	Covers map[canonical.Digest256]CoverData
	Prims  map[canonical.Digest256]PrimEntry
}

// NewStore returns an empty store with all maps allocated.
func NewStore() *Store {
	return &Store{
		Certs:  map[canonical.Digest256][]byte{},
		Obj:    map[canonical.Digest256][]byte{},
		Covers: map[canonical.Digest256]CoverData{},
		Prims:  map[canonical.Digest256]PrimEntry{},
	}
}

// NormalizeCover sorts and dedupes legs into canonical cover order.
func NormalizeCover(base uint32, legs []uint32) CoverData {
	seen := map[uint32]bool{}
	out := make([]uint32, 0, len(legs))
	for _, leg := range legs {
		if !seen[leg] {
			seen[leg] = true
			out = append(out, leg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return CoverData{BaseMask: base, Legs: out}
}

const coverSigDomain = "premath.kcir.cover.v2"

// CoverSig derives the 32-byte cover signature of canonical cover data.
func CoverSig(cd CoverData) canonical.Digest256 {
	h := sha256.New()
	h.Write([]byte(coverSigDomain))
	h.Write([]byte{0x00})
	h.Write(u32le(cd.BaseMask))
	h.Write(u32le(uint32(len(cd.Legs))))
	for _, leg := range cd.Legs {
		h.Write(u32le(leg))
	}
	var d canonical.Digest256
	copy(d[:], h.Sum(nil))
	return d
}

// ValidateCover checks that cd is canonical (legs sorted, deduped, each
// contained in the base mask) and that it hashes to sig.
func ValidateCover(sig canonical.Digest256, cd CoverData) bool {
	for i, leg := range cd.Legs {
		if leg&^cd.BaseMask != 0 {
			return false
		}
		if i > 0 && cd.Legs[i-1] >= leg {
			return false
		}
	}
	return CoverSig(cd) == sig
}

// CoverLen is the number of legs, and therefore the number of locals a glue
// over the cover carries.
func CoverLen(cd CoverData) int {
	return len(cd.Legs)
}

// EncodeMapID packs a context inclusion (src -> tgt) into a decodable
// 32-byte map id: srcMask u32le || tgtMask u32le || 24 zero bytes.
func EncodeMapID(src, tgt uint32) []byte {
	out := make([]byte, 32)
	copy(out[0:4], u32le(src))
	copy(out[4:8], u32le(tgt))
	return out
}

// DecodeMapID unpacks and validates a map id: src must be included in tgt
// and the padding must be zero.
func DecodeMapID(mapID []byte) (src, tgt uint32, err error) {
	if len(mapID) != 32 {
		return 0, 0, &VerifyError{Class: ClassContractViolation, Msg: "map id must be 32 bytes"}
	}
	if !bytes.Equal(mapID[8:], make([]byte, 24)) {
		return 0, 0, &VerifyError{Class: ClassContractViolation, Msg: "map id padding must be zero"}
	}
	src, err = u32leToMask(mapID[0:4])
	if err != nil {
		return 0, 0, err
	}
	tgt, err = u32leToMask(mapID[4:8])
	if err != nil {
		return 0, 0, err
	}
	if src&^tgt != 0 {
		return 0, 0, &VerifyError{Class: ClassContractViolation, Msg: "map id source must be included in target"}
	}
	return src, tgt, nil
}

const primIDDomain = "premath.kcir.prim.v2"

// PrimID derives the stable prim id for a (mask, value) pair. The value
// participates through its canonical JSON encoding.
func PrimID(mask uint32, value interface{}) (canonical.Digest256, error) {
	enc, err := canonical.Marshal(value)
	if err != nil {
		return canonical.Digest256{}, err
	}
	h := sha256.New()
	h.Write([]byte(primIDDomain))
	h.Write([]byte{0x00})
	h.Write(u32le(mask))
	h.Write(enc)
	var d canonical.Digest256
	copy(d[:], h.Sum(nil))
	return d, nil
}

// AddNode encodes n, stores its bytes, and returns the node ref.
func (s *Store) AddNode(n Node) (canonical.Digest256, error) {
	encoded, err := EncodeNode(n)
	if err != nil {
		return canonical.Digest256{}, err
	}
	ref := NodeRef(encoded)
	s.Certs[ref] = encoded
	return ref, nil
}

// AddPrim declares a primitive and its O_PRIM node, returning the object ref,
// prim id, and node ref.
func (s *Store) AddPrim(envSig, uid canonical.Digest256, mask uint32, value interface{}) (objRef, primID, nodeRef canonical.Digest256, err error) {
	primID, err = PrimID(mask, value)
	if err != nil {
		return
	}
	if _, ok := s.Prims[primID]; !ok {
		s.Prims[primID] = PrimEntry{Mask: mask, Value: value}
	}
	objBytes := BuildPrim(primID)
	objRef = ObjRef(envSig, uid, objBytes)
	s.Obj[objRef] = objBytes
	nodeRef, err = s.AddNode(Node{
		EnvSig: envSig,
		UID:    uid,
		Sort:   SortObj,
		Opcode: OpObjPrim,
		Out:    objRef[:],
		Args:   primID[:],
	})
	return
}

// AddCover registers canonical cover data and its C_LITERAL node.
func (s *Store) AddCover(envSig, uid canonical.Digest256, base uint32, legs []uint32) (sig, nodeRef canonical.Digest256, cd CoverData, err error) {
	cd = NormalizeCover(base, legs)
	sig = CoverSig(cd)
	s.Covers[sig] = cd
	nodeRef, err = s.AddNode(Node{
		EnvSig: envSig,
		UID:    uid,
		Sort:   SortCover,
		Opcode: OpCoverLiteral,
		Out:    sig[:],
		Args:   sig[:],
	})
	return
}

// AddGlue builds the glue object for a cover plus local object refs and its
// O_MKGLUE node whose deps are the cover node followed by the local nodes.
func (s *Store) AddGlue(envSig, uid, coverSig canonical.Digest256, localObjRefs []canonical.Digest256, coverNode canonical.Digest256, localNodes []canonical.Digest256) (objRef, nodeRef canonical.Digest256, err error) {
	objBytes := BuildGlue(coverSig, localObjRefs)
	objRef = ObjRef(envSig, uid, objBytes)
	s.Obj[objRef] = objBytes
	deps := append([]canonical.Digest256{coverNode}, localNodes...)
	nodeRef, err = s.AddNode(Node{
		EnvSig: envSig,
		UID:    uid,
		Sort:   SortObj,
		Opcode: OpObjMkGlue,
		Out:    objRef[:],
		Args:   coverSig[:],
		Deps:   deps,
	})
	return
}

// UnitRef ensures the Unit object bytes are present and returns their ref.
func (s *Store) UnitRef(envSig, uid canonical.Digest256) canonical.Digest256 {
	ref := ObjRef(envSig, uid, UnitBytes())
	if _, ok := s.Obj[ref]; !ok {
		s.Obj[ref] = UnitBytes()
	}
	return ref
}
