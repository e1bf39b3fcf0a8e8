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

package vectors

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/premath/premath/pkg/canonical"
)

// FixtureLoader resolves a vector's case and expectation payloads. The
// default implementation reads <root>/<capability>/<vector>/{case,expect}.json.
type FixtureLoader interface {
	Manifest(capabilityID string) ([]string, error)
	Case(capabilityID, vectorID string) (map[string]interface{}, error)
	Expect(capabilityID, vectorID string) (map[string]interface{}, error)
}

// DirLoader loads fixtures from a directory tree.
type DirLoader struct {
	Root string
}

func (l DirLoader) readObject(parts ...string) (map[string]interface{}, error) {
	path := filepath.Join(append([]string{l.Root}, parts...)...)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading fixture %s", path)
	}
	obj, err := canonical.DecodeObject(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "fixture %s", path)
	}
	return obj, nil
}

// Manifest reads the capability's vector list.
func (l DirLoader) Manifest(capabilityID string) ([]string, error) {
	manifest, err := l.readObject(capabilityID, "manifest.json")
	if err != nil {
		return nil, err
	}
	rowsRaw, ok := manifest["vectors"].([]interface{})
	if !ok || len(rowsRaw) == 0 {
		return nil, errors.Errorf("%s/manifest.json: vectors must be a non-empty list", capabilityID)
	}
	out := make([]string, 0, len(rowsRaw))
	for _, item := range rowsRaw {
		s, ok := item.(string)
		if !ok || s == "" {
			return nil, errors.Errorf("%s/manifest.json: all vectors must be non-empty strings", capabilityID)
		}
		out = append(out, s)
	}
	return out, nil
}

// Case reads one vector's case payload.
func (l DirLoader) Case(capabilityID, vectorID string) (map[string]interface{}, error) {
	return l.readObject(capabilityID, filepath.FromSlash(vectorID), "case.json")
}

// Expect reads one vector's staked expectation.
func (l DirLoader) Expect(capabilityID, vectorID string) (map[string]interface{}, error) {
	return l.readObject(capabilityID, filepath.FromSlash(vectorID), "expect.json")
}

// VectorResult is one evaluated vector with its staked comparison applied.
type VectorResult struct {
	CapabilityID string
	VectorID     string
	Outcome      Outcome
	Errors       []string
}

// RunReport aggregates a conformance run.
type RunReport struct {
	Checked int
	Results []VectorResult
	Errors  []string
}

// Accepted reports whether the run surfaced no errors.
func (r RunReport) Accepted() bool {
	return len(r.Errors) == 0
}

type invariantEntry struct {
	vectorID string
	outcome  Outcome
	caseObj  map[string]interface{}
}

// RunCapability evaluates every vector in a capability's manifest, compares
// staked expectations, and enforces invariance groups. Vector evaluation
// fans out across goroutines; results keep manifest order, and each
// invariance group's rows are sorted by vector id before comparison so
// output ordering stays deterministic.
func RunCapability(loader FixtureLoader, capabilityID string, evaluator Evaluator) RunReport {
	report := RunReport{}
	vectorIDs, err := loader.Manifest(capabilityID)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}

	var mu sync.Mutex
	results := make([]VectorResult, len(vectorIDs))
	invariance := map[string][]invariantEntry{}

	var group errgroup.Group
	for idx, vectorID := range vectorIDs {
		idx, vectorID := idx, vectorID
		group.Go(func() error {
			result := VectorResult{CapabilityID: capabilityID, VectorID: vectorID}
			caseObj, err := loader.Case(capabilityID, vectorID)
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				results[idx] = result
				return nil
			}
			expect, err := loader.Expect(capabilityID, vectorID)
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				results[idx] = result
				return nil
			}
			outcome, err := evaluator(vectorID, caseObj)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", capabilityID, vectorID, err))
				results[idx] = result
				return nil
			}
			result.Outcome = outcome

			expectedResult, err := ensureString(expect["result"], "expect.result")
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", capabilityID, vectorID, err))
				results[idx] = result
				return nil
			}
			if outcome.Result != expectedResult {
				result.Errors = append(result.Errors, fmt.Sprintf(
					"%s/%s: result mismatch (expected=%s, actual=%s)",
					capabilityID, vectorID, expectedResult, outcome.Result))
			} else if expect["expectedFailureClasses"] != nil {
				expectedClasses, err := canonicalCheckSet(expect["expectedFailureClasses"], "expect.expectedFailureClasses")
				if err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", capabilityID, vectorID, err))
				} else {
					actualClasses := append([]string(nil), outcome.FailureClasses...)
					sort.Strings(actualClasses)
					actualClasses = dedupSorted(actualClasses)
					if !equalStringSlices(actualClasses, expectedClasses) {
						result.Errors = append(result.Errors, fmt.Sprintf(
							"%s/%s: failure class mismatch (expected=%v, actual=%v)",
							capabilityID, vectorID, expectedClasses, actualClasses))
					}
				}
			}

			if len(result.Errors) == 0 && strings.HasPrefix(vectorID, "invariance/") {
				scenarioID, err := ensureString(caseObj["semanticScenarioId"], "semanticScenarioId")
				if err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", capabilityID, vectorID, err))
				} else {
					mu.Lock()
					invariance[scenarioID] = append(invariance[scenarioID], invariantEntry{
						vectorID: vectorID,
						outcome:  outcome,
						caseObj:  caseObj,
					})
					mu.Unlock()
				}
			}
			results[idx] = result
			return nil
		})
	}
	// The group never returns errors; vector failures land in results.
	_ = group.Wait()

	for _, result := range results {
		if len(result.Errors) == 0 {
			report.Checked++
			logrus.WithFields(logrus.Fields{
				"capability": capabilityID,
				"vector":     result.VectorID,
			}).Debug("vector ok")
		}
		report.Errors = append(report.Errors, result.Errors...)
		report.Results = append(report.Results, result)
	}

	scenarioIDs := make([]string, 0, len(invariance))
	for scenarioID := range invariance {
		scenarioIDs = append(scenarioIDs, scenarioID)
	}
	sort.Strings(scenarioIDs)
	for _, scenarioID := range scenarioIDs {
		rows := invariance[scenarioID]
		sort.Slice(rows, func(i, j int) bool { return rows[i].vectorID < rows[j].vectorID })
		if len(rows) != 2 {
			report.Errors = append(report.Errors, fmt.Sprintf(
				"%s: invariance scenario %q must have 2 vectors, found %d",
				capabilityID, scenarioID, len(rows)))
			continue
		}
		left, right := rows[0].outcome, rows[1].outcome
		if left.KernelVerdict != right.KernelVerdict {
			report.Errors = append(report.Errors, fmt.Sprintf(
				"%s: invariance %q kernelVerdict mismatch (%s vs %s)",
				capabilityID, scenarioID, left.KernelVerdict, right.KernelVerdict))
		}
		leftClasses := append([]string(nil), left.FailureClasses...)
		rightClasses := append([]string(nil), right.FailureClasses...)
		sort.Strings(leftClasses)
		sort.Strings(rightClasses)
		if !equalStringSlices(leftClasses, rightClasses) {
			report.Errors = append(report.Errors, fmt.Sprintf(
				"%s: invariance %q gate failure class mismatch (%v vs %v)",
				capabilityID, scenarioID, left.FailureClasses, right.FailureClasses))
		}
		if err := checkProjectionSignatureInvariance(capabilityID, scenarioID, rows); err != nil {
			report.Errors = append(report.Errors, err.Error())
		}
	}
	return report
}

// checkProjectionSignatureInvariance additionally requires the projection
// signature tuple to agree across a group when its members carry one.
func checkProjectionSignatureInvariance(capabilityID, scenarioID string, rows []invariantEntry) error {
	signatures := make([]string, 0, len(rows))
	for _, row := range rows {
		artifacts, ok := row.caseObj["artifacts"].(map[string]interface{})
		if !ok {
			return nil
		}
		sectionRaw, ok := artifacts["projectionSignature"].(map[string]interface{})
		if !ok {
			return nil
		}
		enc, err := canonical.Marshal(canonical.NormalizeSemantics(sectionRaw))
		if err != nil {
			return errors.Wrapf(err, "%s: invariance %q projection signature", capabilityID, scenarioID)
		}
		signatures = append(signatures, string(enc))
	}
	for i := 1; i < len(signatures); i++ {
		if signatures[i] != signatures[0] {
			return errors.Errorf(
				"%s: invariance %q projection signature mismatch across profiles",
				capabilityID, scenarioID)
		}
	}
	return nil
}

// Run evaluates the given capabilities (all registry capabilities when the
// list is empty) against the fixture tree.
func Run(loader FixtureLoader, executableCapabilities, only []string) (RunReport, error) {
	if err := CheckRunnerParity(executableCapabilities); err != nil {
		return RunReport{}, err
	}
	targets := executableCapabilities
	if len(only) > 0 {
		targets = only
	}
	runners := Evaluators()

	aggregate := RunReport{}
	for _, capabilityID := range targets {
		evaluator, ok := runners[capabilityID]
		if !ok {
			return RunReport{}, errors.Errorf("unknown capability id: %s", capabilityID)
		}
		report := RunCapability(loader, capabilityID, evaluator)
		aggregate.Checked += report.Checked
		aggregate.Results = append(aggregate.Results, report.Results...)
		aggregate.Errors = append(aggregate.Errors, report.Errors...)
	}
	return aggregate, nil
}
