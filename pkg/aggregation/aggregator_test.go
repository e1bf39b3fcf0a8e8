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

package aggregation

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/premath/premath/pkg/canonical"
	"github.com/premath/premath/pkg/projection"
	"github.com/premath/premath/pkg/witness"
)

var aggTestPaths = []string{"crates/premath-kernel/src/lib.rs"}

func validWitnessBytes(t *testing.T) []byte {
	t.Helper()
	proj := projection.Project(aggTestPaths)
	results := []interface{}{}
	for _, check := range proj.RequiredChecks {
		results = append(results, map[string]interface{}{
			"checkId":  check,
			"status":   "passed",
			"exitCode": 0,
		})
	}
	paths := []interface{}{}
	for _, p := range proj.Paths {
		paths = append(paths, p)
	}
	checks := []interface{}{}
	for _, c := range proj.RequiredChecks {
		checks = append(checks, c)
	}
	reasons := []interface{}{}
	for _, r := range proj.Reasons {
		reasons = append(reasons, r)
	}
	payload := map[string]interface{}{
		"ciSchema":         1,
		"witnessKind":      witness.RequiredWitnessKind,
		"projectionPolicy": projection.Policy,
		"policyDigest":     projection.Policy,
		"changedPaths":     paths,
		"projectionDigest": proj.ProjectionDigest,
		"requiredChecks":   checks,
		"executedChecks":   checks,
		"results":          results,
		"docsOnly":         proj.DocsOnly,
		"reasons":          reasons,
		"verdictClass":     "accepted",
		"failureClasses":   []interface{}{},
	}
	raw, err := canonical.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	return raw
}

func doUpload(t *testing.T, server *httptest.Server, runID string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/v1/results/required/"+runID, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest returned error: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func TestAggregatorAcceptsExpectedResult(t *testing.T) {
	agg := NewAggregator([]ExpectedResult{{RunID: "run-1", ChangedPaths: aggTestPaths}})
	server := httptest.NewServer(agg.Handler())
	defer server.Close()

	resp := doUpload(t, server, "run-1", validWitnessBytes(t))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	select {
	case <-agg.Done():
	default:
		t.Error("Expected aggregator to be complete")
	}
	results := agg.Results()
	if results["run-1"].Verdict != "accepted" {
		t.Errorf("Expected accepted verdict, got %+v", results["run-1"])
	}
}

func TestAggregatorRejectsUnexpectedRun(t *testing.T) {
	agg := NewAggregator([]ExpectedResult{{RunID: "run-1", ChangedPaths: aggTestPaths}})
	server := httptest.NewServer(agg.Handler())
	defer server.Close()

	resp := doUpload(t, server, "run-9", validWitnessBytes(t))
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAggregatorRecordsInvalidWitness(t *testing.T) {
	agg := NewAggregator([]ExpectedResult{{RunID: "run-1", ChangedPaths: aggTestPaths}})
	server := httptest.NewServer(agg.Handler())
	defer server.Close()

	resp := doUpload(t, server, "run-1", []byte(`{"ciSchema": 2}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	result := agg.Results()["run-1"]
	if result.Verdict != "rejected" || len(result.Errors) == 0 {
		t.Errorf("Expected rejected result with errors, got %+v", result)
	}
}
