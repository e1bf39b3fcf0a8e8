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
	"strings"
	"testing"
)

func TestRefRoundTrip(t *testing.T) {
	ref, err := RefFor(SchemeKcir, map[string]interface{}{"payload": "x"})
	if err != nil {
		t.Fatalf("RefFor returned error: %v", err)
	}
	rendered := ref.String()
	if !strings.HasPrefix(rendered, SchemeKcir) {
		t.Errorf("Expected prefix %q on %q", SchemeKcir, rendered)
	}
	parsed, err := ParseRef(rendered)
	if err != nil {
		t.Fatalf("ParseRef returned error: %v", err)
	}
	if parsed != ref {
		t.Errorf("Round trip mismatch: %v vs %v", parsed, ref)
	}
}

func TestRefSchemeIsPartOfIdentity(t *testing.T) {
	payload := map[string]interface{}{"same": "payload"}
	a, err := RefString(SchemeKcir, payload)
	if err != nil {
		t.Fatalf("RefString returned error: %v", err)
	}
	b, err := RefString(SchemeRun, payload)
	if err != nil {
		t.Fatalf("RefString returned error: %v", err)
	}
	if a == b {
		t.Errorf("Refs with distinct schemes must differ: %q", a)
	}
	if a[len(SchemeKcir):] != b[len(SchemeRun):] {
		t.Errorf("Digest halves should coincide for equal payloads: %q vs %q", a, b)
	}
}

func TestTypedCoreProjectionDigestDiffersFromAuthority(t *testing.T) {
	authority := "deadbeef"
	got := TypedCoreProjectionDigest(authority, "nf.v1", "pol1_abc")
	if !strings.HasPrefix(got, SchemeEvidence) {
		t.Errorf("Expected %q prefix on %q", SchemeEvidence, got)
	}
	if got == authority {
		t.Error("Typed-core digest must not collapse onto the authority digest")
	}
	again := TypedCoreProjectionDigest(authority, "nf.v1", "pol1_abc")
	if got != again {
		t.Errorf("Digest unstable across runs: %q vs %q", got, again)
	}
}

func TestCompareRefNormalizesSemantics(t *testing.T) {
	left, err := CompareRef(map[string]interface{}{"xs": []interface{}{"b", "a"}}, "nf.v1", "pol1_abc")
	if err != nil {
		t.Fatalf("CompareRef returned error: %v", err)
	}
	right, err := CompareRef(map[string]interface{}{"xs": []interface{}{"a", "b", "a"}}, "nf.v1", "pol1_abc")
	if err != nil {
		t.Fatalf("CompareRef returned error: %v", err)
	}
	if left != right {
		t.Errorf("Expected normalized semantics to agree: %q vs %q", left, right)
	}
}
