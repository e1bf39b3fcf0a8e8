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

// Package projection maps a change-set to its canonical required-check set
// under the ci-topos-v0 policy and binds the result to a stable projection
// digest.
package projection

import (
	"sort"
	"strings"

	"github.com/premath/premath/pkg/canonical"
)

// Policy is the canonical projection policy kind.
const Policy = "ci-topos-v0"

// Check ids in canonical order. The order is part of the policy: projected
// checks always render in this sequence.
const (
	CheckBaseline         = "baseline"
	CheckBuild            = "build"
	CheckTest             = "test"
	CheckTestToy          = "test-toy"
	CheckTestKcirToy      = "test-kcir-toy"
	CheckConformanceCheck = "conformance-check"
	CheckConformanceRun   = "conformance-run"
	CheckDoctrineCheck    = "doctrine-check"
)

// CheckOrder is the canonical rendering order for projected checks.
var CheckOrder = []string{
	CheckBaseline,
	CheckBuild,
	CheckTest,
	CheckTestToy,
	CheckTestKcirToy,
	CheckConformanceCheck,
	CheckConformanceRun,
	CheckDoctrineCheck,
}

// Projection is the deterministic required-check decision for a change-set.
type Projection struct {
	Policy          string
	ProjectionDigest string
	RequiredChecks  []string
	DocsOnly        bool
	Reasons         []string
	Paths           []string
}

// surfaceRule maps a path surface to its required-check contribution. Rules
// are evaluated in declaration order; the first match claims the path.
type surfaceRule struct {
	id     string
	match  func(path string) bool
	checks []string
	doc    bool
}

func hasPrefixDir(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

var surfaceRules = []surfaceRule{
	{
		id: "kernel-code",
		match: func(p string) bool {
			return hasPrefixDir(p, "crates") || hasPrefixDir(p, "src")
		},
		checks: []string{CheckBaseline, CheckBuild, CheckTest, CheckTestToy, CheckTestKcirToy},
	},
	{
		id: "conformance-surface",
		match: func(p string) bool {
			return hasPrefixDir(p, "tools/conformance") || hasPrefixDir(p, "tests/conformance")
		},
		checks: []string{CheckBaseline, CheckConformanceCheck, CheckConformanceRun, CheckTestToy, CheckTestKcirToy},
	},
	{
		id: "toy-fixtures",
		match: func(p string) bool {
			return hasPrefixDir(p, "tests/toy") || hasPrefixDir(p, "tests/kcir_toy") || hasPrefixDir(p, "tools/toy") || hasPrefixDir(p, "tools/kcir_toy")
		},
		checks: []string{CheckBaseline, CheckTestToy, CheckTestKcirToy},
	},
	{
		id: "governance-contracts",
		match: func(p string) bool {
			return hasPrefixDir(p, "specs") && strings.HasSuffix(p, ".json")
		},
		checks: []string{CheckBaseline, CheckConformanceCheck, CheckDoctrineCheck},
	},
	{
		id: "ci-tooling",
		match: func(p string) bool {
			return hasPrefixDir(p, "tools/ci") || hasPrefixDir(p, ".github")
		},
		checks: []string{CheckBaseline, CheckConformanceCheck},
	},
	{
		id: "docs",
		match: func(p string) bool {
			return strings.HasSuffix(p, ".md") || hasPrefixDir(p, "docs")
		},
		checks: []string{CheckConformanceCheck},
		doc:    true,
	},
}

// NormalizePaths rewrites paths into canonical repository-relative form:
// forward slashes, no leading "./", trimmed, empties dropped, duplicates
// preserved in input order.
func NormalizePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized := strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
		for strings.HasPrefix(normalized, "./") {
			normalized = normalized[2:]
		}
		if normalized == "" {
			continue
		}
		out = append(out, normalized)
	}
	return out
}

// Project maps changedPaths to the canonical required-check set.
//
// Each path is claimed by the first matching surface rule and contributes
// that rule's checks; paths no rule claims fall back to the baseline check.
// When every path is a documentation path the change-set is docs-only and
// the minimal conformance-check contribution applies. The final check list
// renders in canonical order with duplicates dropped.
func Project(changedPaths []string) Projection {
	paths := NormalizePaths(changedPaths)

	claimed := map[string]bool{}
	docsOnly := len(paths) > 0
	matchedRules := []string{}
	seenRule := map[string]bool{}

	for _, p := range paths {
		matched := false
		for _, rule := range surfaceRules {
			if !rule.match(p) {
				continue
			}
			matched = true
			if !rule.doc {
				docsOnly = false
			}
			for _, check := range rule.checks {
				claimed[check] = true
			}
			if !seenRule[rule.id] {
				seenRule[rule.id] = true
				matchedRules = append(matchedRules, rule.id)
			}
			break
		}
		if !matched {
			docsOnly = false
			claimed[CheckBaseline] = true
			if !seenRule["fallback-unknown-surface"] {
				seenRule["fallback-unknown-surface"] = true
				matchedRules = append(matchedRules, "fallback-unknown-surface")
			}
		}
	}

	if docsOnly {
		claimed = map[string]bool{CheckConformanceCheck: true}
	}

	required := []string{}
	for _, check := range CheckOrder {
		if claimed[check] {
			required = append(required, check)
		}
	}

	reasons := make([]string, 0, len(matchedRules)+1)
	sort.Strings(matchedRules)
	for _, id := range matchedRules {
		reasons = append(reasons, "surface:"+id)
	}
	if docsOnly {
		reasons = append(reasons, "docs-only change-set")
	}

	proj := Projection{
		Policy:         Policy,
		RequiredChecks: required,
		DocsOnly:       docsOnly,
		Reasons:        reasons,
		Paths:          paths,
	}
	proj.ProjectionDigest = proj.digest()
	return proj
}

// PublicView is the canonical JSON shape the projection digest binds.
func (p Projection) PublicView() map[string]interface{} {
	return map[string]interface{}{
		"policy":         p.Policy,
		"requiredChecks": p.RequiredChecks,
		"docsOnly":       p.DocsOnly,
		"reasons":        p.Reasons,
		"paths":          p.Paths,
	}
}

func (p Projection) digest() string {
	d, err := canonical.HashJSON(p.PublicView())
	if err != nil {
		// The public view is built from plain strings and bools; this
		// cannot fail for well-formed projections.
		return ""
	}
	return d.Hex()
}
