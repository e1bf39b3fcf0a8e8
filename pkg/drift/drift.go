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

// Package drift cross-checks the governance contract, the loader constants,
// the docs index, the capability registry, and the live coherence witness,
// and surfaces every mis-agreement as a named drift class.
package drift

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/premath/premath/pkg/contract"
)

// Schema and check kind of the emitted report.
const (
	Schema    = 1
	CheckKind = "ci.drift_budget.v1"
)

// The closed drift-class set.
const (
	ClassSpecIndex           = "spec_index_capability_map_drift"
	ClassLaneBindings        = "control_plane_lane_binding_drift"
	ClassRequiredObligations = "coherence_required_obligation_drift"
	ClassSigPiNotation       = "sigpi_notation_drift"
	ClassCacheClosure        = "coherence_cache_input_closure_drift"
)

var docMapRe = regexp.MustCompile("- `([^`]+)`\\s+\\(for `([^`]+)`\\)")
var sigPiAliasRe = regexp.MustCompile(`(?i)\bSig/Pi\b`)

// CacheClosureRequiredPaths are the loader inputs the fixture-suite cache
// closure must cover to reproduce the contract witness.
var CacheClosureRequiredPaths = []string{
	"specs/premath/draft/COHERENCE-CONTRACT.json",
	"specs/premath/draft/CONTROL-PLANE-CONTRACT.json",
	"pkg/contract",
	"pkg/drift",
	"pkg/vectors",
}

// LoaderView is the runtime constants snapshot derived from a loaded
// contract. Collaborators that cache derived constants hand their snapshot
// in; the lane-binding sentinel detects divergence from the contract.
type LoaderView struct {
	EvidenceLanes              map[string]string
	LaneArtifactKinds          map[string][]string
	CheckerCoreOnlyObligations []string
	RequiredCrossLaneRoute     string
	LaneFailureClasses         []string
	GovernanceMode             string
	GovernanceDecisionRef      string
	GovernanceOwner            string
	RolloverCadenceMonths      int
	FreezeReason               string
	HarnessRetry               contract.HarnessRetry
}

// NewLoaderView derives the constants snapshot straight from a contract.
func NewLoaderView(c *contract.Contract) LoaderView {
	return LoaderView{
		EvidenceLanes:              c.EvidenceLanes,
		LaneArtifactKinds:          c.LaneArtifactKinds,
		CheckerCoreOnlyObligations: c.LaneOwnership.CheckerCoreOnlyObligations,
		RequiredCrossLaneRoute:     c.LaneOwnership.RequiredCrossLaneRoute,
		LaneFailureClasses:         c.LaneFailureClasses,
		GovernanceMode:             c.SchemaLifecycle.Governance.Mode,
		GovernanceDecisionRef:      c.SchemaLifecycle.Governance.DecisionRef,
		GovernanceOwner:            c.SchemaLifecycle.Governance.Owner,
		RolloverCadenceMonths:      c.SchemaLifecycle.Governance.RolloverCadenceMonths,
		FreezeReason:               c.SchemaLifecycle.Governance.FreezeReason,
		HarnessRetry:               c.HarnessRetry,
	}
}

// Inputs gather everything the sentinels cross-check. All fields are
// value-typed; the sentinels never touch the filesystem.
type Inputs struct {
	Contract   *contract.Contract
	LoaderView LoaderView

	// SpecIndexText is the SPEC-INDEX document; its §5.4 section maps
	// capability docs onto executable capabilities.
	SpecIndexText          string
	ExecutableCapabilities []string

	// CoherenceContract is the decoded COHERENCE-CONTRACT artifact.
	CoherenceContract map[string]interface{}

	// CoherenceWitness is the live obligation witness to compare against.
	CoherenceWitness map[string]interface{}

	// NormativeDocs maps doc paths onto their text for notation checks.
	NormativeDocs map[string]string

	// CacheClosurePaths is the input closure the fixture suites expose.
	CacheClosurePaths []string
}

// Detail is the per-class diagnostic payload.
type Detail map[string]interface{}

// Report is the aggregated drift verdict, sorted by class name.
type Report struct {
	Schema       int               `json:"schema"`
	CheckKind    string            `json:"checkKind"`
	Result       string            `json:"result"`
	DriftClasses []string          `json:"driftClasses"`
	Summary      map[string]int    `json:"summary"`
	Details      map[string]Detail `json:"details"`
}

// ParseSpecIndexCapabilityDocMap extracts the §5.4 capability-doc map from
// the SPEC-INDEX text.
func ParseSpecIndexCapabilityDocMap(text string) (map[string]string, error) {
	section, err := extractHeadingSection(text, "5.4")
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, match := range docMapRe.FindAllStringSubmatch(section, -1) {
		out[match[1]] = match[2]
	}
	if len(out) == 0 {
		return nil, errors.New("spec-index §5.4 capability doc map is empty")
	}
	return out, nil
}

func extractHeadingSection(text, headingPrefix string) (string, error) {
	headingRe, err := regexp.Compile(`(?m)^### ` + regexp.QuoteMeta(headingPrefix) + `.*?$`)
	if err != nil {
		return "", err
	}
	loc := headingRe.FindStringIndex(text)
	if loc == nil {
		return "", errors.Errorf("missing heading: %q", headingPrefix)
	}
	tail := text[loc[1]:]
	next := regexp.MustCompile(`(?m)^### `).FindStringIndex(tail)
	if next == nil {
		return tail, nil
	}
	return tail[:next[0]], nil
}

func sortedStrings(values []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func stringListOf(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := []string{}
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func equalSorted(a, b []string) bool {
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

// Evaluate runs every sentinel and aggregates the report. Sentinels never
// fail fast; all classes are collected before returning.
func Evaluate(in Inputs) (Report, error) {
	type sentinel struct {
		class string
		run   func(Inputs) (bool, Detail, error)
	}
	sentinels := []sentinel{
		{ClassSpecIndex, checkSpecIndexCapabilityMap},
		{ClassLaneBindings, checkControlPlaneLaneBindings},
		{ClassRequiredObligations, checkCoherenceRequiredObligations},
		{ClassSigPiNotation, checkSigPiNotation},
		{ClassCacheClosure, checkCacheInputClosure},
	}

	driftClasses := []string{}
	details := map[string]Detail{}
	for _, s := range sentinels {
		failed, detail, err := s.run(in)
		if err != nil {
			return Report{}, errors.Wrapf(err, "drift sentinel %s", s.class)
		}
		details[s.class] = detail
		if failed {
			driftClasses = append(driftClasses, s.class)
		}
	}
	sort.Strings(driftClasses)

	result := "accepted"
	if len(driftClasses) > 0 {
		result = "rejected"
	}
	return Report{
		Schema:       Schema,
		CheckKind:    CheckKind,
		Result:       result,
		DriftClasses: driftClasses,
		Summary: map[string]int{
			"checkCount": len(sentinels),
			"driftCount": len(driftClasses),
		},
		Details: details,
	}, nil
}

func checkSpecIndexCapabilityMap(in Inputs) (bool, Detail, error) {
	specMap, err := ParseSpecIndexCapabilityDocMap(in.SpecIndexText)
	if err != nil {
		return false, nil, err
	}
	reasons := []string{}
	executable := map[string]bool{}
	for _, capabilityID := range in.ExecutableCapabilities {
		executable[capabilityID] = true
	}
	unknown := []string{}
	for _, capabilityID := range specMap {
		if !executable[capabilityID] {
			unknown = append(unknown, capabilityID)
		}
	}
	unknown = sortedStrings(unknown)
	if len(unknown) > 0 {
		reasons = append(reasons, "spec-index references capabilities not present in the capability registry")
	}

	conditionalDocs, err := parseConditionalCapabilityDocs(in.CoherenceContract)
	if err != nil {
		return false, nil, err
	}
	missingConditional := []string{}
	conditionalMismatches := []map[string]string{}
	for docRef, capabilityID := range conditionalDocs {
		mapped, ok := specMap[docRef]
		if !ok {
			missingConditional = append(missingConditional, docRef)
			continue
		}
		if mapped != capabilityID {
			conditionalMismatches = append(conditionalMismatches, map[string]string{
				"docRef": docRef, "expected": capabilityID, "actual": mapped,
			})
		}
	}
	if len(missingConditional) > 0 || len(conditionalMismatches) > 0 {
		reasons = append(reasons, "spec-index §5.4 conditional capability docs diverge from the coherence contract")
	}
	sort.Slice(conditionalMismatches, func(i, j int) bool {
		return conditionalMismatches[i]["docRef"] < conditionalMismatches[j]["docRef"]
	})

	detail := Detail{
		"reasons":               reasons,
		"unknownCapabilities":   unknown,
		"missingConditionalDocs": sortedStrings(missingConditional),
		"conditionalMismatches": conditionalMismatches,
	}
	return len(reasons) > 0, detail, nil
}

func parseConditionalCapabilityDocs(coherenceContract map[string]interface{}) (map[string]string, error) {
	rowsRaw, ok := coherenceContract["conditionalCapabilityDocs"].([]interface{})
	if !ok || len(rowsRaw) == 0 {
		return nil, errors.New("coherence contract conditionalCapabilityDocs must be a non-empty list")
	}
	out := map[string]string{}
	for idx, rowRaw := range rowsRaw {
		row, ok := rowRaw.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("conditionalCapabilityDocs[%d] must be an object", idx)
		}
		docRef, ok := row["docRef"].(string)
		if !ok || strings.TrimSpace(docRef) == "" {
			return nil, errors.Errorf("conditionalCapabilityDocs[%d].docRef must be non-empty", idx)
		}
		capabilityID, ok := row["capabilityId"].(string)
		if !ok || strings.TrimSpace(capabilityID) == "" {
			return nil, errors.Errorf("conditionalCapabilityDocs[%d].capabilityId must be non-empty", idx)
		}
		out[strings.TrimSpace(docRef)] = strings.TrimSpace(capabilityID)
	}
	return out, nil
}

func obligationDetails(witness map[string]interface{}, obligationID string) (map[string]interface{}, error) {
	rowsRaw, ok := witness["obligations"].([]interface{})
	if !ok {
		return nil, errors.New("coherence witness obligations must be a list")
	}
	for _, rowRaw := range rowsRaw {
		row, ok := rowRaw.(map[string]interface{})
		if !ok {
			continue
		}
		if row["obligationId"] == obligationID {
			details, ok := row["details"].(map[string]interface{})
			if !ok {
				return nil, errors.Errorf("coherence witness obligation %s details must be an object", obligationID)
			}
			return details, nil
		}
	}
	return nil, errors.Errorf("coherence witness missing obligation details for %q", obligationID)
}

func checkControlPlaneLaneBindings(in Inputs) (bool, Detail, error) {
	gateChain, err := obligationDetails(in.CoherenceWitness, "gate_chain_parity")
	if err != nil {
		return false, nil, err
	}
	reasons := []string{}

	laneRegistry, ok := gateChain["laneRegistry"].(map[string]interface{})
	if !ok {
		laneRegistry = map[string]interface{}{}
		reasons = append(reasons, "coherence witness missing gate_chain_parity laneRegistry details")
	}

	c := in.Contract
	contractChecker := sortedStrings(c.LaneOwnership.CheckerCoreOnlyObligations)
	contractLaneFailures := sortedStrings(c.LaneFailureClasses)

	// Witness-observed registry against the contract.
	if checkerLanes, ok := laneRegistry["evidenceLanes"].(map[string]interface{}); ok {
		for key, want := range c.EvidenceLanes {
			if checkerLanes[key] != want {
				reasons = append(reasons, "coherence checker lane IDs differ from the contract evidenceLanes")
				break
			}
		}
	}
	if checkerKinds, ok := laneRegistry["laneArtifactKinds"].(map[string]interface{}); ok && len(checkerKinds) > 0 {
		for laneID, want := range c.LaneArtifactKinds {
			got := sortedStrings(stringListOf(checkerKinds[laneID]))
			if !equalSorted(got, sortedStrings(want)) {
				reasons = append(reasons, "coherence checker laneArtifactKinds differ from the contract")
				break
			}
		}
	}
	if checkerCore := sortedStrings(stringListOf(laneRegistry["expectedCheckerCoreOnlyObligations"])); len(checkerCore) > 0 && !equalSorted(checkerCore, contractChecker) {
		reasons = append(reasons, "checker expected checker-core-only obligations differ from the contract laneOwnership")
	}
	if route, ok := laneRegistry["requiredCrossLaneWitnessRoute"].(string); ok && route != "" && route != c.LaneOwnership.RequiredCrossLaneRoute {
		reasons = append(reasons, "checker required cross-lane witness route differs from the contract laneOwnership")
	}
	if required := sortedStrings(stringListOf(laneRegistry["requiredLaneFailureClasses"])); len(required) > 0 {
		have := map[string]bool{}
		for _, class := range contractLaneFailures {
			have[class] = true
		}
		for _, class := range required {
			if !have[class] {
				reasons = append(reasons, "contract laneFailureClasses missing checker-required failure classes")
				break
			}
		}
	}

	// Loader-constant snapshot against the contract.
	lv := in.LoaderView
	if len(lv.EvidenceLanes) != len(c.EvidenceLanes) {
		reasons = append(reasons, "loader EVIDENCE_LANES drift from contract payload")
	} else {
		for key, want := range c.EvidenceLanes {
			if lv.EvidenceLanes[key] != want {
				reasons = append(reasons, "loader EVIDENCE_LANES drift from contract payload")
				break
			}
		}
	}
	if len(lv.LaneArtifactKinds) != len(c.LaneArtifactKinds) {
		reasons = append(reasons, "loader LANE_ARTIFACT_KINDS drift from contract payload")
	} else {
		for laneID, want := range c.LaneArtifactKinds {
			if !equalSorted(sortedStrings(lv.LaneArtifactKinds[laneID]), sortedStrings(want)) {
				reasons = append(reasons, "loader LANE_ARTIFACT_KINDS drift from contract payload")
				break
			}
		}
	}
	if !equalSorted(sortedStrings(lv.CheckerCoreOnlyObligations), contractChecker) {
		reasons = append(reasons, "loader CHECKER_CORE_ONLY_OBLIGATIONS drift from contract payload")
	}
	if lv.RequiredCrossLaneRoute != c.LaneOwnership.RequiredCrossLaneRoute {
		reasons = append(reasons, "loader REQUIRED_CROSS_LANE_WITNESS_ROUTE drift from contract payload")
	}
	if !equalSorted(sortedStrings(lv.LaneFailureClasses), contractLaneFailures) {
		reasons = append(reasons, "loader LANE_FAILURE_CLASSES drift from contract payload")
	}
	gov := c.SchemaLifecycle.Governance
	if lv.GovernanceMode != gov.Mode ||
		lv.GovernanceDecisionRef != gov.DecisionRef ||
		lv.GovernanceOwner != gov.Owner ||
		lv.RolloverCadenceMonths != gov.RolloverCadenceMonths ||
		lv.FreezeReason != gov.FreezeReason {
		reasons = append(reasons, "loader schema-lifecycle governance drift from contract payload")
	}
	hr := c.HarnessRetry
	if lv.HarnessRetry.PolicyKind != hr.PolicyKind ||
		lv.HarnessRetry.PolicyPath != hr.PolicyPath ||
		!equalSorted(sortedStrings(lv.HarnessRetry.EscalationActions), sortedStrings(hr.EscalationActions)) ||
		!equalSorted(sortedStrings(lv.HarnessRetry.ActiveIssueEnvKeys), sortedStrings(hr.ActiveIssueEnvKeys)) ||
		lv.HarnessRetry.IssuesPathEnvKey != hr.IssuesPathEnvKey ||
		lv.HarnessRetry.SessionPathEnvKey != hr.SessionPathEnvKey ||
		lv.HarnessRetry.SessionPathDefault != hr.SessionPathDefault ||
		lv.HarnessRetry.SessionIssueField != hr.SessionIssueField {
		reasons = append(reasons, "loader harness-retry constants drift from contract payload")
	}

	detail := Detail{
		"reasons": sortedStrings(reasons),
		"contract": map[string]interface{}{
			"evidenceLanes":              c.EvidenceLanes,
			"checkerCoreOnlyObligations": contractChecker,
			"requiredCrossLaneWitnessRoute": c.LaneOwnership.RequiredCrossLaneRoute,
			"laneFailureClasses":         contractLaneFailures,
		},
	}
	return len(reasons) > 0, detail, nil
}

func checkCoherenceRequiredObligations(in Inputs) (bool, Detail, error) {
	scope, err := obligationDetails(in.CoherenceWitness, "scope_noncontradiction")
	if err != nil {
		return false, nil, err
	}
	reasons := []string{}

	contractObligations, err := parseRequiredObligationIDs(in.CoherenceContract)
	if err != nil {
		return false, nil, err
	}
	contractBidir := sortedStrings(stringListOf(in.CoherenceContract["requiredBidirObligations"]))
	if len(contractBidir) == 0 {
		return false, nil, errors.New("coherence contract requiredBidirObligations must be non-empty")
	}
	var contractRegistryKind interface{}
	if surfaces, ok := in.CoherenceContract["surfaces"].(map[string]interface{}); ok {
		contractRegistryKind = surfaces["obligationRegistryKind"]
	}

	checkerObligations := sortedStrings(stringListOf(scope["requiredCoherenceObligations"]))
	checkerBidir := sortedStrings(stringListOf(scope["requiredBidirObligations"]))
	checkerRegistryKind := scope["obligationRegistryKind"]

	if !equalSorted(sortedStrings(contractObligations), checkerObligations) {
		reasons = append(reasons, "coherence required obligation set drifts between contract and checker")
	}
	if !equalSorted(contractBidir, checkerBidir) {
		reasons = append(reasons, "requiredBidirObligations drifts between contract and checker")
	}
	if contractRegistryKind != checkerRegistryKind {
		reasons = append(reasons, "obligation registry kind drifts between contract and checker")
	}

	detail := Detail{
		"reasons":                          reasons,
		"contractRequiredObligations":      sortedStrings(contractObligations),
		"checkerRequiredObligations":       checkerObligations,
		"contractRequiredBidirObligations": contractBidir,
		"checkerRequiredBidirObligations":  checkerBidir,
	}
	return len(reasons) > 0, detail, nil
}

func parseRequiredObligationIDs(coherenceContract map[string]interface{}) ([]string, error) {
	rowsRaw, ok := coherenceContract["obligations"].([]interface{})
	if !ok || len(rowsRaw) == 0 {
		return nil, errors.New("coherence contract obligations must be a non-empty list")
	}
	out := []string{}
	for idx, rowRaw := range rowsRaw {
		row, ok := rowRaw.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("obligations[%d] must be an object", idx)
		}
		id, ok := row["id"].(string)
		if !ok || strings.TrimSpace(id) == "" {
			return nil, errors.Errorf("obligations[%d].id must be a non-empty string", idx)
		}
		out = append(out, strings.TrimSpace(id))
	}
	return out, nil
}

func checkSigPiNotation(in Inputs) (bool, Detail, error) {
	reasons := []string{}
	aliasHits := []string{}
	canonicalSigPiDocs := []string{}
	canonicalLatexDocs := []string{}

	docPaths := make([]string, 0, len(in.NormativeDocs))
	for path := range in.NormativeDocs {
		docPaths = append(docPaths, path)
	}
	sort.Strings(docPaths)

	for _, path := range docPaths {
		text := in.NormativeDocs[path]
		if sigPiAliasRe.MatchString(text) {
			aliasHits = append(aliasHits, path)
		}
		if strings.Contains(text, "SigPi") {
			canonicalSigPiDocs = append(canonicalSigPiDocs, path)
		}
		if strings.Contains(text, `sig\Pi`) {
			canonicalLatexDocs = append(canonicalLatexDocs, path)
		}
	}

	if len(aliasHits) > 0 {
		reasons = append(reasons, "normative docs still use Sig/Pi alias")
	}
	if len(canonicalSigPiDocs) == 0 {
		reasons = append(reasons, "normative docs missing canonical SigPi spelling")
	}
	if len(canonicalLatexDocs) == 0 {
		reasons = append(reasons, `normative docs missing canonical sig\Pi notation`)
	}

	detail := Detail{
		"reasons":            reasons,
		"checkedDocs":        docPaths,
		"aliasHits":          aliasHits,
		"canonicalSigPiDocs": canonicalSigPiDocs,
		"canonicalLatexDocs": canonicalLatexDocs,
	}
	return len(reasons) > 0, detail, nil
}

func checkCacheInputClosure(in Inputs) (bool, Detail, error) {
	closure := map[string]bool{}
	for _, path := range in.CacheClosurePaths {
		closure[path] = true
	}
	missing := []string{}
	for _, required := range CacheClosureRequiredPaths {
		if !closure[required] {
			missing = append(missing, required)
		}
	}
	sort.Strings(missing)

	reasons := []string{}
	if len(missing) > 0 {
		reasons = append(reasons, "coherence-contract cache input closure missing required loader inputs")
	}
	detail := Detail{
		"reasons":       reasons,
		"requiredPaths": CacheClosureRequiredPaths,
		"missingPaths":  missing,
		"closureSize":   len(closure),
	}
	return len(missing) > 0, detail, nil
}
