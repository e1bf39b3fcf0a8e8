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
	"testing"

	"github.com/kylelemons/godebug/pretty"
)

func TestMarshalCanonicalForm(t *testing.T) {
	testCases := []struct {
		desc  string
		input interface{}
		want  string
	}{
		{
			desc:  "sorts object keys at every level",
			input: map[string]interface{}{"b": 1, "a": map[string]interface{}{"z": true, "y": nil}},
			want:  `{"a":{"y":null,"z":true},"b":1}`,
		}, {
			desc:  "preserves array order",
			input: []interface{}{"c", "a", "b"},
			want:  `["c","a","b"]`,
		}, {
			desc:  "keeps unicode as text",
			input: map[string]interface{}{"k": "Σπ → glue"},
			want:  `{"k":"Σπ → glue"}`,
		}, {
			desc:  "escapes control characters",
			input: "line\nbreak\x01",
			want:  `"line\nbreak"`,
		}, {
			desc:  "integral float renders without exponent",
			input: map[string]interface{}{"n": float64(7)},
			want:  `{"n":7}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := Marshal(tc.input)
			if err != nil {
				t.Fatalf("Marshal returned error: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("Expected %q but got %q", tc.want, string(got))
			}
		})
	}
}

func TestMarshalStableAcrossDecode(t *testing.T) {
	raw := []byte(`{"z": [3, 1, 2], "a": {"nested": "ok"}, "n": 12345678901234567890}`)
	v, err := DecodeBytes(raw)
	if err != nil {
		t.Fatalf("DecodeBytes returned error: %v", err)
	}
	first, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	second, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("Canonical encoding unstable: %q vs %q", first, second)
	}
	want := `{"a":{"nested":"ok"},"n":12345678901234567890,"z":[3,1,2]}`
	if string(first) != want {
		t.Errorf("Expected %q but got %q", want, string(first))
	}
}

func TestNormalizeSemantics(t *testing.T) {
	input := map[string]interface{}{
		"items": []interface{}{"b", "a", "b"},
		"inner": map[string]interface{}{"k": []interface{}{2, 1}},
	}
	got := NormalizeSemantics(input)
	want := map[string]interface{}{
		"items": []interface{}{"a", "b"},
		"inner": map[string]interface{}{"k": []interface{}{1, 2}},
	}
	if diff := pretty.Compare(got, want); diff != "" {
		t.Errorf("Unexpected normalization, diff:\n%s", diff)
	}
}
