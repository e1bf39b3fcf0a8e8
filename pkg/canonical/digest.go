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

package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Ref scheme prefixes. The prefix is part of a ref's identity: two refs over
// the same digest with different prefixes are distinct.
const (
	SchemeEvidence   = "ev1_"
	SchemeCompare    = "cmp1_"
	SchemeKcir       = "kcir1_"
	SchemeLocation   = "loc1_"
	SchemeProposal   = "prop1_"
	SchemeInstr      = "instr1_"
	SchemeCheckpoint = "ckpt1_"
	SchemeRun        = "run1_"
	SchemeIssue      = "iss1_"
	SchemeSquare     = "sqw1_"
	SchemeObligation = "obl1_"
	SchemeNote       = "note1_"
	SchemePolicy     = "pol1_"
)

var hex64Re = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Digest256 is a 32-byte content hash, always rendered lower-hex.
type Digest256 [32]byte

// Hex renders the digest as 64 lowercase hex characters.
func (d Digest256) Hex() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether every byte of the digest is zero.
func (d Digest256) IsZero() bool {
	return d == Digest256{}
}

// ParseDigest256 parses 64 lowercase hex characters.
func ParseDigest256(s string) (Digest256, error) {
	var d Digest256
	if !hex64Re.MatchString(s) {
		return d, errors.Errorf("digest must be 64 lowercase hex chars, got %q", s)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, errors.Wrap(err, "decoding digest hex")
	}
	copy(d[:], raw)
	return d, nil
}

// IsHex64 reports whether s is a well-formed lower-hex sha256 rendering.
func IsHex64(s string) bool {
	return hex64Re.MatchString(s)
}

// Sha256 hashes raw bytes into a Digest256.
func Sha256(b []byte) Digest256 {
	return Digest256(sha256.Sum256(b))
}

// HashJSON hashes the canonical encoding of v.
func HashJSON(v interface{}) (Digest256, error) {
	enc, err := Marshal(v)
	if err != nil {
		return Digest256{}, err
	}
	return Sha256(enc), nil
}

// StableHash renders HashJSON as lower-hex; for values that cannot be
// encoded it returns the encoding error.
func StableHash(v interface{}) (string, error) {
	d, err := HashJSON(v)
	if err != nil {
		return "", err
	}
	return d.Hex(), nil
}

// Ref is a scheme-tagged digest.
type Ref struct {
	Scheme string
	Digest Digest256
}

// String renders scheme || lower-hex digest.
func (r Ref) String() string {
	return r.Scheme + r.Digest.Hex()
}

// ParseRef splits a rendered ref into scheme and digest. The scheme must end
// with "_" and the remainder must be a 64-char hex digest.
func ParseRef(s string) (Ref, error) {
	idx := strings.Index(s, "_")
	if idx < 0 || idx+1 >= len(s) {
		return Ref{}, errors.Errorf("ref %q has no scheme prefix", s)
	}
	scheme := s[:idx+1]
	d, err := ParseDigest256(s[idx+1:])
	if err != nil {
		return Ref{}, errors.Wrapf(err, "ref %q", s)
	}
	return Ref{Scheme: scheme, Digest: d}, nil
}

// RefFor derives scheme || sha256(canonical encoding of v).
func RefFor(scheme string, v interface{}) (Ref, error) {
	d, err := HashJSON(v)
	if err != nil {
		return Ref{}, err
	}
	return Ref{Scheme: scheme, Digest: d}, nil
}

// RefString is RefFor rendered, for call sites that only thread strings.
func RefString(scheme string, v interface{}) (string, error) {
	r, err := RefFor(scheme, v)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// CompareRef derives the cmp1_ ref of a semantic value bound to its
// normalizer and policy.
func CompareRef(semantic interface{}, normalizerID, policyDigest string) (string, error) {
	material := map[string]interface{}{
		"semantic":     NormalizeSemantics(semantic),
		"normalizerId": normalizerID,
		"policyDigest": policyDigest,
	}
	return RefString(SchemeCompare, material)
}

// TypedCoreProjectionDigest derives the ev1_ digest downstream gates route
// on: sha256 over each part followed by a zero separator byte.
func TypedCoreProjectionDigest(authorityPayloadDigest, normalizerID, policyDigest string) string {
	h := sha256.New()
	for _, part := range []string{authorityPayloadDigest, normalizerID, policyDigest} {
		h.Write([]byte(part))
		h.Write([]byte{0x00})
	}
	return SchemeEvidence + hex.EncodeToString(h.Sum(nil))
}
