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

// Package kcir implements the content-addressed typed IR: node codecs,
// object normal forms, the verification store, and the verifier that
// discharges stability, locality, descent-existence and
// contractible-uniqueness obligations.
package kcir

import (
	"bytes"
	"encoding/binary"

	"github.com/premath/premath/pkg/canonical"
)

// Sorts. The set is closed.
const (
	SortCover byte = 0x01
	SortMap   byte = 0x02
	SortObj   byte = 0x03
)

// Opcodes per sort. The sets are closed.
const (
	OpCoverLiteral byte = 0x01
	OpMapLiteral   byte = 0x01

	OpObjUnit                byte = 0x01
	OpObjPrim                byte = 0x02
	OpObjMkGlue              byte = 0x04
	OpObjAssertOverlap       byte = 0x05
	OpObjAssertTriple        byte = 0x06
	OpObjAssertContractible  byte = 0x07
)

// Node is one typed KCIR node. Its ref is the sha256 of its encoding.
type Node struct {
	EnvSig canonical.Digest256
	UID    canonical.Digest256
	Sort   byte
	Opcode byte
	Out    []byte
	Args   []byte
	Deps   []canonical.Digest256
}

// NodeRef hashes encoded node bytes into the node's content address.
func NodeRef(encoded []byte) canonical.Digest256 {
	return canonical.Sha256(encoded)
}

func putUvarint(buf *bytes.Buffer, x uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], x)
	buf.Write(tmp[:n])
}

type byteReader struct {
	data []byte
	off  int
}

func (r *byteReader) remaining() int { return len(r.data) - r.off }

func (r *byteReader) take(n int) ([]byte, bool) {
	if n < 0 || r.remaining() < n {
		return nil, false
	}
	out := r.data[r.off : r.off+n]
	r.off += n
	return out, true
}

func (r *byteReader) uvarint() (uint64, bool) {
	x, n := binary.Uvarint(r.data[r.off:])
	if n <= 0 {
		return 0, false
	}
	r.off += n
	return x, true
}

// EncodeNode emits the legacy fixed-32 layout:
// envSig(32) || uid(32) || sort(1) || opcode(1) || out(32) ||
// varint(argsLen) || args || varint(depsCount) || depsCount x 32-byte ref.
func EncodeNode(n Node) ([]byte, error) {
	if len(n.Out) != 32 {
		return nil, &VerifyError{Class: ClassParseError, Msg: "legacy encoding requires a 32-byte out"}
	}
	var buf bytes.Buffer
	buf.Write(n.EnvSig[:])
	buf.Write(n.UID[:])
	buf.WriteByte(n.Sort)
	buf.WriteByte(n.Opcode)
	buf.Write(n.Out)
	putUvarint(&buf, uint64(len(n.Args)))
	buf.Write(n.Args)
	putUvarint(&buf, uint64(len(n.Deps)))
	for _, d := range n.Deps {
		buf.Write(d[:])
	}
	return buf.Bytes(), nil
}

// DecodeNode parses the legacy fixed-32 layout. Truncated varints or trailing
// bytes yield kcir_v2.parse_error.
func DecodeNode(data []byte) (Node, error) {
	var n Node
	r := &byteReader{data: data}

	env, ok := r.take(32)
	if !ok {
		return n, parseErr("truncated envSig")
	}
	copy(n.EnvSig[:], env)
	uid, ok := r.take(32)
	if !ok {
		return n, parseErr("truncated uid")
	}
	copy(n.UID[:], uid)
	hdr, ok := r.take(2)
	if !ok {
		return n, parseErr("truncated sort/opcode")
	}
	n.Sort, n.Opcode = hdr[0], hdr[1]
	out, ok := r.take(32)
	if !ok {
		return n, parseErr("truncated out")
	}
	n.Out = append([]byte(nil), out...)

	argsLen, ok := r.uvarint()
	if !ok {
		return n, parseErr("truncated args length")
	}
	args, ok := r.take(int(argsLen))
	if !ok {
		return n, parseErr("truncated args")
	}
	n.Args = append([]byte(nil), args...)

	depsCount, ok := r.uvarint()
	if !ok {
		return n, parseErr("truncated deps count")
	}
	for i := uint64(0); i < depsCount; i++ {
		dep, ok := r.take(32)
		if !ok {
			return n, parseErr("truncated dep ref")
		}
		var d canonical.Digest256
		copy(d[:], dep)
		n.Deps = append(n.Deps, d)
	}
	if r.remaining() != 0 {
		return n, parseErr("trailing bytes after node")
	}
	return n, nil
}

// EncodeNodeV1 emits the length-prefixed ref layout: the fixed out slot
// becomes varint(outLen) || out, and deps become
// varint(count) || count x (varint(len) || bytes).
func EncodeNodeV1(n Node) []byte {
	var buf bytes.Buffer
	buf.Write(n.EnvSig[:])
	buf.Write(n.UID[:])
	buf.WriteByte(n.Sort)
	buf.WriteByte(n.Opcode)
	putUvarint(&buf, uint64(len(n.Out)))
	buf.Write(n.Out)
	putUvarint(&buf, uint64(len(n.Args)))
	buf.Write(n.Args)
	putUvarint(&buf, uint64(len(n.Deps)))
	for _, d := range n.Deps {
		putUvarint(&buf, 32)
		buf.Write(d[:])
	}
	return buf.Bytes()
}

// DecodeNodeV1 parses the length-prefixed ref layout.
func DecodeNodeV1(data []byte) (Node, error) {
	var n Node
	r := &byteReader{data: data}

	env, ok := r.take(32)
	if !ok {
		return n, parseErr("truncated envSig")
	}
	copy(n.EnvSig[:], env)
	uid, ok := r.take(32)
	if !ok {
		return n, parseErr("truncated uid")
	}
	copy(n.UID[:], uid)
	hdr, ok := r.take(2)
	if !ok {
		return n, parseErr("truncated sort/opcode")
	}
	n.Sort, n.Opcode = hdr[0], hdr[1]

	outLen, ok := r.uvarint()
	if !ok {
		return n, parseErr("truncated out length")
	}
	out, ok := r.take(int(outLen))
	if !ok {
		return n, parseErr("truncated out")
	}
	n.Out = append([]byte(nil), out...)

	argsLen, ok := r.uvarint()
	if !ok {
		return n, parseErr("truncated args length")
	}
	args, ok := r.take(int(argsLen))
	if !ok {
		return n, parseErr("truncated args")
	}
	n.Args = append([]byte(nil), args...)

	depsCount, ok := r.uvarint()
	if !ok {
		return n, parseErr("truncated deps count")
	}
	for i := uint64(0); i < depsCount; i++ {
		depLen, ok := r.uvarint()
		if !ok {
			return n, parseErr("truncated dep length")
		}
		if depLen != 32 {
			return n, parseErr("dep refs must be 32 bytes")
		}
		dep, ok := r.take(32)
		if !ok {
			return n, parseErr("truncated dep ref")
		}
		var d canonical.Digest256
		copy(d[:], dep)
		n.Deps = append(n.Deps, d)
	}
	if r.remaining() != 0 {
		return n, parseErr("trailing bytes after node")
	}
	return n, nil
}

func u32le(x uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], x)
	return b[:]
}

func u32leToMask(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, &VerifyError{Class: ClassContractViolation, Msg: "expected u32le"}
	}
	return binary.LittleEndian.Uint32(b), nil
}
