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

// Package canonical provides the canonical JSON encoding and the digest/ref
// derivations every other package binds its identities to. The encoding is
// unique per value: object keys sorted lexicographically, "," and ":"
// separators with no insignificant whitespace, UTF-8 text preserved as text,
// array order preserved.
package canonical

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Marshal encodes v into canonical JSON bytes.
//
// v must be a JSON-like value: nil, bool, string, json.Number, float64, int,
// int64, uint64, []interface{}, map[string]interface{}, or any composition of
// those. Other types marshal through encoding/json first so plain structs are
// accepted, at the cost of an extra decode pass.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a single JSON value from r, preserving number text exactly so
// re-encoding cannot drift.
func Decode(r io.Reader) (interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "decoding json value")
	}
	return v, nil
}

// DecodeBytes is Decode over an in-memory payload.
func DecodeBytes(b []byte) (interface{}, error) {
	return Decode(bytes.NewReader(b))
}

// DecodeObject decodes b and requires the root to be a JSON object.
func DecodeObject(b []byte) (map[string]interface{}, error) {
	v, err := DecodeBytes(b)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, errors.New("json root must be an object")
	}
	return obj, nil
}

func writeValue(buf *bytes.Buffer, v interface{}) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		writeString(buf, t)
	case json.Number:
		buf.WriteString(t.String())
	case int:
		buf.WriteString(strconv.FormatInt(int64(t), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(t, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(t, 10))
	case float64:
		// Integral floats render without an exponent or trailing zeros so
		// values decoded without UseNumber stay stable.
		if t == float64(int64(t)) {
			buf.WriteString(strconv.FormatInt(int64(t), 10))
		} else {
			buf.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
		}
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case []string:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, item)
		}
		buf.WriteByte(']')
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			if err := writeValue(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		// Fall back through encoding/json for struct values.
		raw, err := json.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "marshaling non-primitive value")
		}
		decoded, err := DecodeBytes(raw)
		if err != nil {
			return err
		}
		return writeValue(buf, decoded)
	}
	return nil
}

// writeString emits a JSON string. Unicode is preserved as text; only control
// characters and the two mandatory escapes are encoded.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u`)
				const hexdigits = "0123456789abcdef"
				buf.WriteByte('0')
				buf.WriteByte('0')
				buf.WriteByte(hexdigits[(r>>4)&0xf])
				buf.WriteByte(hexdigits[r&0xf])
			} else {
				var tmp [utf8.UTFMax]byte
				n := utf8.EncodeRune(tmp[:], r)
				buf.Write(tmp[:n])
			}
		}
	}
	buf.WriteByte('"')
}

// NormalizeSemantics rewrites v into a canonical semantic shape: objects keep
// sorted keys (Marshal already does this) and lists are deduplicated and
// ordered by their canonical encodings. Scalars pass through unchanged.
func NormalizeSemantics(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = NormalizeSemantics(item)
		}
		return out
	case []interface{}:
		dedup := make(map[string]interface{}, len(t))
		keys := make([]string, 0, len(t))
		for _, item := range t {
			norm := NormalizeSemantics(item)
			enc, err := Marshal(norm)
			if err != nil {
				// Unencodable items are dropped from the result.
				continue
			}
			if _, seen := dedup[string(enc)]; !seen {
				keys = append(keys, string(enc))
			}
			dedup[string(enc)] = norm
		}
		sort.Strings(keys)
		out := make([]interface{}, 0, len(keys))
		for _, k := range keys {
			out = append(out, dedup[k])
		}
		return out
	default:
		return v
	}
}
