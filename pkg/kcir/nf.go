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

	"github.com/premath/premath/pkg/canonical"
)

// ObjNF tags. First byte of every object normal form.
const (
	TagUnit      byte = 0x01
	TagPrim      byte = 0x02
	TagTensor    byte = 0x03
	TagSpine     byte = 0x04
	TagSpineHead byte = 0x05
	TagGlue      byte = 0x06
)

// ObjNF is a parsed object normal form. Only the fields for the parsed tag
// are populated.
type ObjNF struct {
	Tag byte

	// Prim
	PrimID canonical.Digest256

	// Tensor
	Left  canonical.Digest256
	Right canonical.Digest256

	// Spine (0x04 headless, 0x05 headed)
	Head  canonical.Digest256
	Items []canonical.Digest256

	// Glue
	WSig   canonical.Digest256
	Locals []canonical.Digest256
}

const objRefDomain = "premath.kcir.objnf.v2"

// ObjRef derives the content address of an object normal form under a single
// (envSig, uid) environment.
func ObjRef(envSig, uid canonical.Digest256, objBytes []byte) canonical.Digest256 {
	h := sha256.New()
	h.Write([]byte(objRefDomain))
	h.Write([]byte{0x00})
	h.Write(envSig[:])
	h.Write(uid[:])
	h.Write(objBytes)
	var d canonical.Digest256
	copy(d[:], h.Sum(nil))
	return d
}

// UnitBytes is the one-byte Unit normal form.
func UnitBytes() []byte {
	return []byte{TagUnit}
}

func writeDigest(buf *bytes.Buffer, d canonical.Digest256) {
	putUvarint(buf, 32)
	buf.Write(d[:])
}

func writeDigestList(buf *bytes.Buffer, ds []canonical.Digest256) {
	putUvarint(buf, uint64(len(ds)))
	for _, d := range ds {
		writeDigest(buf, d)
	}
}

// BuildPrim emits tag 0x02 over a prim id.
func BuildPrim(primID canonical.Digest256) []byte {
	var buf bytes.Buffer
	buf.WriteByte(TagPrim)
	writeDigest(&buf, primID)
	return buf.Bytes()
}

// BuildTensor emits tag 0x03 over left/right object refs.
func BuildTensor(left, right canonical.Digest256) []byte {
	var buf bytes.Buffer
	buf.WriteByte(TagTensor)
	writeDigest(&buf, left)
	writeDigest(&buf, right)
	return buf.Bytes()
}

// BuildSpine emits tag 0x04 over an ordered ref list.
func BuildSpine(items []canonical.Digest256) []byte {
	var buf bytes.Buffer
	buf.WriteByte(TagSpine)
	writeDigestList(&buf, items)
	return buf.Bytes()
}

// BuildSpineHead emits tag 0x05: a head ref followed by the ref list.
func BuildSpineHead(head canonical.Digest256, items []canonical.Digest256) []byte {
	var buf bytes.Buffer
	buf.WriteByte(TagSpineHead)
	writeDigest(&buf, head)
	writeDigestList(&buf, items)
	return buf.Bytes()
}

// BuildGlue emits tag 0x06 over the cover signature and the local object refs
// in cover-leg order.
func BuildGlue(wSig canonical.Digest256, locals []canonical.Digest256) []byte {
	var buf bytes.Buffer
	buf.WriteByte(TagGlue)
	writeDigest(&buf, wSig)
	writeDigestList(&buf, locals)
	return buf.Bytes()
}

func readDigest(r *byteReader) (canonical.Digest256, bool) {
	var d canonical.Digest256
	n, ok := r.uvarint()
	if !ok || n != 32 {
		return d, false
	}
	raw, ok := r.take(32)
	if !ok {
		return d, false
	}
	copy(d[:], raw)
	return d, true
}

func readDigestList(r *byteReader) ([]canonical.Digest256, bool) {
	count, ok := r.uvarint()
	if !ok {
		return nil, false
	}
	out := make([]canonical.Digest256, 0, count)
	for i := uint64(0); i < count; i++ {
		d, ok := readDigest(r)
		if !ok {
			return nil, false
		}
		out = append(out, d)
	}
	return out, true
}

// ParseObjNF parses any tagged normal form. Unknown tags, truncated varints,
// and trailing bytes yield kcir_v2.parse_error.
func ParseObjNF(data []byte) (ObjNF, error) {
	var nf ObjNF
	if len(data) == 0 {
		return nf, parseErr("empty object normal form")
	}
	r := &byteReader{data: data, off: 1}
	nf.Tag = data[0]

	switch nf.Tag {
	case TagUnit:
		// No payload.
	case TagPrim:
		pid, ok := readDigest(r)
		if !ok {
			return nf, parseErr("truncated prim id")
		}
		nf.PrimID = pid
	case TagTensor:
		left, ok := readDigest(r)
		if !ok {
			return nf, parseErr("truncated tensor left ref")
		}
		right, ok := readDigest(r)
		if !ok {
			return nf, parseErr("truncated tensor right ref")
		}
		nf.Left, nf.Right = left, right
	case TagSpine:
		items, ok := readDigestList(r)
		if !ok {
			return nf, parseErr("truncated spine items")
		}
		nf.Items = items
	case TagSpineHead:
		head, ok := readDigest(r)
		if !ok {
			return nf, parseErr("truncated spine head")
		}
		items, ok := readDigestList(r)
		if !ok {
			return nf, parseErr("truncated spine items")
		}
		nf.Head, nf.Items = head, items
	case TagGlue:
		wSig, ok := readDigest(r)
		if !ok {
			return nf, parseErr("truncated glue cover signature")
		}
		locals, ok := readDigestList(r)
		if !ok {
			return nf, parseErr("truncated glue locals")
		}
		nf.WSig, nf.Locals = wSig, locals
	default:
		return nf, parseErr("unknown object normal form tag")
	}

	if r.remaining() != 0 {
		return nf, parseErr("trailing bytes after object normal form")
	}
	return nf, nil
}

// Encode re-emits the parsed normal form; decode/encode round-trips to the
// same bytes for every valid form.
func (nf ObjNF) Encode() []byte {
	switch nf.Tag {
	case TagUnit:
		return UnitBytes()
	case TagPrim:
		return BuildPrim(nf.PrimID)
	case TagTensor:
		return BuildTensor(nf.Left, nf.Right)
	case TagSpine:
		return BuildSpine(nf.Items)
	case TagSpineHead:
		return BuildSpineHead(nf.Head, nf.Items)
	case TagGlue:
		return BuildGlue(nf.WSig, nf.Locals)
	}
	return nil
}
