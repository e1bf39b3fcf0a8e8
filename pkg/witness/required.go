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

// Package witness verifies ci.required witness artifacts against the
// deterministic projection contract and emits digest-bound decisions.
package witness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/premath/premath/pkg/canonical"
	"github.com/premath/premath/pkg/projection"
)

// Canonical witness kinds.
const (
	RequiredWitnessKind = "ci.required.v1"
	DecisionKind        = "ci.required.decision.v1"
	GateWitnessKind     = "gate"
)

// InvalidClass is the failure class every required-witness violation
// collapses to at the evaluator surface.
const InvalidClass = "ci_required_witness_invalid"

// Options carry the optional inputs of a verification run.
type Options struct {
	// GateWitnessPayloads resolves gateWitnessRefs artifact paths to their
	// inline payloads. When nil, ref payload checks are skipped.
	GateWitnessPayloads map[string]map[string]interface{}

	// NativeRequiredChecks must have been produced by a native gate run,
	// not the fallback shim.
	NativeRequiredChecks []string
}

// Derived is the normalized projection material a verification produces.
type Derived struct {
	ChangedPaths     []string
	ProjectionDigest string
	RequiredChecks   []string
	ExecutedChecks   []string
	SourceByCheck    map[string]string
	DocsOnly         bool
	Reasons          []string
	ExpectedVerdict  string
}

type errlist struct {
	errs []string
}

func (e *errlist) addf(format string, args ...interface{}) {
	e.errs = append(e.errs, fmt.Sprintf(format, args...))
}

func stringList(v interface{}, label string, errs *errlist) []string {
	raw, ok := v.([]interface{})
	if !ok {
		errs.addf("%s must be a list", label)
		return nil
	}
	out := []string{}
	for idx, item := range raw {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			errs.addf("%s[%d] must be a non-empty string", label, idx)
			continue
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func checkStrField(witness map[string]interface{}, key, expected string, errs *errlist) {
	if value, _ := witness[key].(string); value != expected {
		errs.addf("%s mismatch (expected=%q, actual=%v)", key, expected, witness[key])
	}
}

func intField(v interface{}) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return int(t), true
		}
	default:
		if n, ok := jsonNumberInt(v); ok {
			return n, true
		}
	}
	return 0, false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// VerifyRequired checks a ci.required witness candidate against the
// deterministic projection of changedPaths. It returns the ordered list of
// violations (empty on success) and the derived projection material.
func VerifyRequired(w map[string]interface{}, changedPaths []string, opts Options) ([]string, Derived) {
	errs := &errlist{}

	normalized := projection.NormalizePaths(changedPaths)
	proj := projection.Project(normalized)
	expectedRequired := proj.RequiredChecks

	if schema, ok := intField(w["ciSchema"]); !ok || schema != 1 {
		errs.addf("ciSchema must be 1 (actual=%v)", w["ciSchema"])
	}
	checkStrField(w, "witnessKind", RequiredWitnessKind, errs)
	checkStrField(w, "projectionPolicy", projection.Policy, errs)
	checkStrField(w, "policyDigest", projection.Policy, errs)

	witnessChanged := projection.NormalizePaths(stringList(w["changedPaths"], "changedPaths", errs))
	if !equalStrings(witnessChanged, normalized) {
		errs.addf("changedPaths mismatch (expected=%v, actual=%v)", normalized, witnessChanged)
	}

	if digest, _ := w["projectionDigest"].(string); digest != proj.ProjectionDigest {
		errs.addf("projectionDigest mismatch (expected=%q, actual=%v)", proj.ProjectionDigest, w["projectionDigest"])
	}

	requiredChecks := stringList(w["requiredChecks"], "requiredChecks", errs)
	if !equalStrings(requiredChecks, expectedRequired) {
		errs.addf("requiredChecks mismatch (expected=%v, actual=%v)", expectedRequired, requiredChecks)
	}
	executedChecks := stringList(w["executedChecks"], "executedChecks", errs)
	if !equalStrings(executedChecks, requiredChecks) {
		errs.addf("executedChecks mismatch (expected=%v, actual=%v)", requiredChecks, executedChecks)
	}

	resultsRaw, ok := w["results"].([]interface{})
	if !ok {
		errs.addf("results must be a list")
		resultsRaw = nil
	}

	resultCheckIDs := []string{}
	resultsByCheck := map[string]map[string]interface{}{}
	failedCount := 0
	for idx, rowRaw := range resultsRaw {
		row, ok := rowRaw.(map[string]interface{})
		if !ok {
			errs.addf("results[%d] must be an object", idx)
			continue
		}
		checkID, ok := row["checkId"].(string)
		if !ok || checkID == "" {
			errs.addf("results[%d].checkId must be a non-empty string", idx)
			continue
		}
		if _, dup := resultsByCheck[checkID]; dup {
			errs.addf("results[%d].checkId must be unique (duplicate=%q)", idx, checkID)
			continue
		}
		resultCheckIDs = append(resultCheckIDs, checkID)
		resultsByCheck[checkID] = row

		status, _ := row["status"].(string)
		if status != "passed" && status != "failed" {
			errs.addf("results[%d].status must be 'passed' or 'failed'", idx)
		}
		exitCode, ok := intField(row["exitCode"])
		if !ok {
			errs.addf("results[%d].exitCode must be an integer", idx)
			continue
		}
		expectedStatus := "passed"
		if exitCode != 0 {
			expectedStatus = "failed"
		}
		if status != expectedStatus {
			errs.addf("results[%d] status/exitCode mismatch (status=%q, exitCode=%d)", idx, status, exitCode)
		}
		if exitCode != 0 {
			failedCount++
		}
	}

	if !equalStrings(resultCheckIDs, executedChecks) {
		errs.addf("results checkId sequence mismatch (expected=%v, actual=%v)", executedChecks, resultCheckIDs)
	}

	sourceByCheck := verifyGateWitnessRefs(w, executedChecks, resultsByCheck, errs, opts.GateWitnessPayloads)

	for idx, checkID := range opts.NativeRequiredChecks {
		executed := false
		for _, e := range executedChecks {
			if e == checkID {
				executed = true
			}
		}
		if !executed {
			errs.addf("nativeRequiredChecks[%d] not executed (checkId=%q, executed=%v)", idx, checkID, executedChecks)
			continue
		}
		if sourceByCheck[checkID] != "native" {
			errs.addf("nativeRequiredChecks[%d] requires native source (checkId=%q, source=%q)", idx, checkID, sourceByCheck[checkID])
		}
	}

	docsOnly, ok := w["docsOnly"].(bool)
	if !ok || docsOnly != proj.DocsOnly {
		errs.addf("docsOnly mismatch (expected=%v, actual=%v)", proj.DocsOnly, w["docsOnly"])
	}

	reasons := stringList(w["reasons"], "reasons", errs)
	if !equalStrings(reasons, proj.Reasons) {
		errs.addf("reasons mismatch (expected=%v, actual=%v)", proj.Reasons, reasons)
	}

	expectedVerdict := "accepted"
	if failedCount > 0 {
		expectedVerdict = "rejected"
	}
	if verdict, _ := w["verdictClass"].(string); verdict != expectedVerdict {
		errs.addf("verdictClass mismatch (expected=%q, actual=%v)", expectedVerdict, w["verdictClass"])
	}

	failureClasses := stringList(w["failureClasses"], "failureClasses", errs)
	expectedFailureClasses := []string{}
	if failedCount > 0 {
		expectedFailureClasses = []string{"check_failed"}
	}
	sortedActual := append([]string(nil), failureClasses...)
	sort.Strings(sortedActual)
	if !equalStrings(sortedActual, expectedFailureClasses) {
		errs.addf("failureClasses mismatch (expected=%v, actual=%v)", expectedFailureClasses, failureClasses)
	}

	derived := Derived{
		ChangedPaths:     normalized,
		ProjectionDigest: proj.ProjectionDigest,
		RequiredChecks:   expectedRequired,
		ExecutedChecks:   executedChecks,
		SourceByCheck:    sourceByCheck,
		DocsOnly:         proj.DocsOnly,
		Reasons:          proj.Reasons,
		ExpectedVerdict:  expectedVerdict,
	}
	return errs.errs, derived
}

func normalizeRelPath(path string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(path), "\\", "/")
	for strings.HasPrefix(normalized, "./") {
		normalized = normalized[2:]
	}
	return normalized
}

func verifyGateWitnessRefs(
	w map[string]interface{},
	executedChecks []string,
	resultsByCheck map[string]map[string]interface{},
	errs *errlist,
	payloads map[string]map[string]interface{},
) map[string]string {
	sourceByCheck := map[string]string{}
	refsRaw := w["gateWitnessRefs"]
	if refsRaw == nil {
		return sourceByCheck
	}
	refs, ok := refsRaw.([]interface{})
	if !ok {
		errs.addf("gateWitnessRefs must be a list when present")
		return sourceByCheck
	}
	if len(refs) != len(executedChecks) {
		errs.addf("gateWitnessRefs length mismatch (expected=%d, actual=%d)", len(executedChecks), len(refs))
	}

	for idx, refRaw := range refs {
		ref, ok := refRaw.(map[string]interface{})
		if !ok {
			errs.addf("gateWitnessRefs[%d] must be an object", idx)
			continue
		}
		checkID, ok := ref["checkId"].(string)
		if !ok || strings.TrimSpace(checkID) == "" {
			errs.addf("gateWitnessRefs[%d].checkId must be a non-empty string", idx)
			continue
		}
		checkID = strings.TrimSpace(checkID)
		if idx < len(executedChecks) && checkID != executedChecks[idx] {
			errs.addf("gateWitnessRefs[%d].checkId mismatch (expected=%q, actual=%q)", idx, executedChecks[idx], checkID)
		}

		resultRow, ok := resultsByCheck[checkID]
		if !ok {
			errs.addf("gateWitnessRefs[%d] unknown checkId: %q", idx, checkID)
			continue
		}
		exitCode, _ := intField(resultRow["exitCode"])
		expectedGateResult := "accepted"
		if exitCode != 0 {
			expectedGateResult = "rejected"
		}

		source, _ := ref["source"].(string)
		if source != "native" && source != "fallback" {
			errs.addf("gateWitnessRefs[%d].source must be 'native' or 'fallback' (actual=%v)", idx, ref["source"])
		} else {
			sourceByCheck[checkID] = source
		}

		artifactRelPath, ok := ref["artifactRelPath"].(string)
		if !ok || strings.TrimSpace(artifactRelPath) == "" {
			errs.addf("gateWitnessRefs[%d].artifactRelPath must be a non-empty string", idx)
			continue
		}
		artifactRelPath = normalizeRelPath(artifactRelPath)
		if strings.HasPrefix(artifactRelPath, "/") || strings.HasPrefix(artifactRelPath, "../") {
			errs.addf("gateWitnessRefs[%d].artifactRelPath must be relative", idx)
			continue
		}
		if strings.Contains(artifactRelPath, "/../") || artifactRelPath == ".." {
			errs.addf("gateWitnessRefs[%d].artifactRelPath must not contain '..'", idx)
			continue
		}

		sha, ok := ref["sha256"].(string)
		if !ok || !canonical.IsHex64(sha) {
			errs.addf("gateWitnessRefs[%d].sha256 must be 64 lowercase hex chars", idx)
			continue
		}

		if refKind := ref["witnessKind"]; refKind != nil && refKind != GateWitnessKind {
			errs.addf("gateWitnessRefs[%d].witnessKind mismatch (expected=%q, actual=%v)", idx, GateWitnessKind, refKind)
		}
		if refResult := ref["result"]; refResult != nil && refResult != expectedGateResult {
			errs.addf("gateWitnessRefs[%d].result mismatch (expected=%q, actual=%v)", idx, expectedGateResult, refResult)
		}

		if payloads == nil {
			continue
		}
		payload, ok := payloads[artifactRelPath]
		if !ok {
			errs.addf("gateWitnessRefs missing inline payload: %s", artifactRelPath)
			continue
		}

		payloadDigest, err := canonical.StableHash(payload)
		if err != nil {
			errs.addf("gateWitnessRefs[%d] payload is not canonically encodable", idx)
			continue
		}
		if payloadDigest != sha {
			errs.addf("gateWitnessRefs[%d] digest mismatch (expected=%s, actual=%s)", idx, sha, payloadDigest)
		}
		if kind, _ := payload["witnessKind"].(string); kind != GateWitnessKind {
			errs.addf("gateWitnessRefs[%d] payload witnessKind mismatch (expected=%q, actual=%v)", idx, GateWitnessKind, payload["witnessKind"])
		}
		payloadResult, _ := payload["result"].(string)
		if payloadResult != expectedGateResult {
			errs.addf("gateWitnessRefs[%d] payload result mismatch (expected=%q, actual=%v)", idx, expectedGateResult, payload["result"])
		}
		failures, ok := payload["failures"].([]interface{})
		if !ok {
			errs.addf("gateWitnessRefs[%d] payload failures must be a list", idx)
		} else {
			if payloadResult == "accepted" && len(failures) > 0 {
				errs.addf("gateWitnessRefs[%d] accepted payload must have empty failures list", idx)
			}
			if payloadResult == "rejected" && len(failures) == 0 {
				errs.addf("gateWitnessRefs[%d] rejected payload must include failures", idx)
			}
		}

		if refRunID := ref["runId"]; refRunID != nil {
			runID, ok := refRunID.(string)
			if !ok || strings.TrimSpace(runID) == "" {
				errs.addf("gateWitnessRefs[%d].runId must be a non-empty string", idx)
			} else if payload["runId"] != runID {
				errs.addf("gateWitnessRefs[%d] runId mismatch (ref=%q, payload=%v)", idx, runID, payload["runId"])
			}
		}
	}
	return sourceByCheck
}
