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
	"github.com/premath/premath/pkg/canonical"
	"github.com/premath/premath/pkg/kcir/worlds"
)

// Gate witness builders. These produce the proof-carrying assertion nodes a
// descent trace is made of; the verifier holds the matching contracts.

// AddAssertOverlap adds a witness node certifying pairwise overlap
// compatibility of two local OBJ nodes.
func (s *Store) AddAssertOverlap(envSig, uid canonical.Digest256, ovMask uint32, leftNode, rightNode canonical.Digest256) (canonical.Digest256, error) {
	unitRef := s.UnitRef(envSig, uid)
	return s.AddNode(Node{
		EnvSig: envSig,
		UID:    uid,
		Sort:   SortObj,
		Opcode: OpObjAssertOverlap,
		Out:    unitRef[:],
		Args:   u32le(ovMask),
		Deps:   []canonical.Digest256{leftNode, rightNode},
	})
}

// AddAssertTriple adds a witness node certifying cocycle coherence on a
// triple overlap.
func (s *Store) AddAssertTriple(envSig, uid canonical.Digest256, triMask uint32, aNode, bNode, cNode canonical.Digest256) (canonical.Digest256, error) {
	unitRef := s.UnitRef(envSig, uid)
	return s.AddNode(Node{
		EnvSig: envSig,
		UID:    uid,
		Sort:   SortObj,
		Opcode: OpObjAssertTriple,
		Out:    unitRef[:],
		Args:   u32le(triMask),
		Deps:   []canonical.Digest256{aNode, bNode, cNode},
	})
}

// AddAssertContractible adds a contractible-gluing witness over a glue node.
// The scheme id selects the proof checker; the baseline enumeration scheme
// requires empty proof bytes.
func (s *Store) AddAssertContractible(envSig, uid canonical.Digest256, schemeID, proof []byte, glueNode canonical.Digest256) (canonical.Digest256, error) {
	unitRef := s.UnitRef(envSig, uid)
	args := append(append([]byte(nil), schemeID...), proof...)
	return s.AddNode(Node{
		EnvSig: envSig,
		UID:    uid,
		Sort:   SortObj,
		Opcode: OpObjAssertContractible,
		Out:    unitRef[:],
		Args:   args,
		Deps:   []canonical.Digest256{glueNode},
	})
}

// DescentFixture compiles a full proof-carrying descent trace: the cover,
// one prim per leg, all pairwise overlap witnesses, all triple witnesses,
// the glue candidate, and (when contractible is requested) the enumeration
// witness. It is the store shape the toy gate suite verifies.
type DescentFixture struct {
	Store       *Store
	CoverSig    canonical.Digest256
	CoverNode   canonical.Digest256
	LocalNodes  []canonical.Digest256
	GlueObj     canonical.Digest256
	GlueNode    canonical.Digest256
	ContractibleNode canonical.Digest256
}

// CompileDescent builds a DescentFixture for base/legs/locals. locals must
// align with the canonical (sorted, deduped) leg order.
func CompileDescent(envSig, uid canonical.Digest256, base uint32, legs []uint32, locals []worlds.Value, contractible bool) (DescentFixture, error) {
	fx := DescentFixture{Store: NewStore()}
	s := fx.Store

	cd := NormalizeCover(base, legs)
	if len(locals) != len(cd.Legs) {
		return fx, contractErr("locals length must match legs length")
	}
	sig, coverNode, cd, err := s.AddCover(envSig, uid, base, legs)
	if err != nil {
		return fx, err
	}
	fx.CoverSig, fx.CoverNode = sig, coverNode

	localObjs := make([]canonical.Digest256, 0, len(cd.Legs))
	for i, leg := range cd.Legs {
		objRef, _, nodeRef, err := s.AddPrim(envSig, uid, leg, locals[i])
		if err != nil {
			return fx, err
		}
		localObjs = append(localObjs, objRef)
		fx.LocalNodes = append(fx.LocalNodes, nodeRef)
	}

	for i := range cd.Legs {
		for j := i + 1; j < len(cd.Legs); j++ {
			if _, err := s.AddAssertOverlap(envSig, uid, cd.Legs[i]&cd.Legs[j], fx.LocalNodes[i], fx.LocalNodes[j]); err != nil {
				return fx, err
			}
			for k := j + 1; k < len(cd.Legs); k++ {
				tri := cd.Legs[i] & cd.Legs[j] & cd.Legs[k]
				if _, err := s.AddAssertTriple(envSig, uid, tri, fx.LocalNodes[i], fx.LocalNodes[j], fx.LocalNodes[k]); err != nil {
					return fx, err
				}
			}
		}
	}

	fx.GlueObj, fx.GlueNode, err = s.AddGlue(envSig, uid, sig, localObjs, coverNode, fx.LocalNodes)
	if err != nil {
		return fx, err
	}

	if contractible {
		fx.ContractibleNode, err = s.AddAssertContractible(envSig, uid, worlds.SchemeEnumerateV1, nil, fx.GlueNode)
		if err != nil {
			return fx, err
		}
	}
	return fx, nil
}
