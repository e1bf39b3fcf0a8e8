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

// Package vectors replays executable conformance vectors against the fixed
// capability predicates and reduces each to a deterministic outcome.
package vectors

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// Executable capability ids. The registry and the runner table must agree on
// this set exactly.
const (
	CapabilityNormalForms           = "capabilities.normal_forms"
	CapabilityKcirWitnesses         = "capabilities.kcir_witnesses"
	CapabilityCommitmentCheckpoints = "capabilities.commitment_checkpoints"
	CapabilitySqueakSite            = "capabilities.squeak_site"
	CapabilityCIWitnesses           = "capabilities.ci_witnesses"
	CapabilityInstructionTyping     = "capabilities.instruction_typing"
	CapabilityAdjointsSites         = "capabilities.adjoints_sites"
	CapabilityChangeMorphisms       = "capabilities.change_morphisms"
)

// RequiredCrossLaneRoute is the canonical pullback-base-change witness route.
const RequiredCrossLaneRoute = "span_square_commutation"

// Outcome is the deterministic reduction of one vector.
type Outcome struct {
	Result         string
	KernelVerdict  string
	FailureClasses []string
	CmpRef         string
}

func accepted() Outcome {
	return Outcome{Result: "accepted", KernelVerdict: "accepted", FailureClasses: []string{}}
}

func acceptedWithRef(cmpRef string) Outcome {
	out := accepted()
	out.CmpRef = cmpRef
	return out
}

func rejected(failureClasses ...string) Outcome {
	sorted := append([]string(nil), failureClasses...)
	sort.Strings(sorted)
	return Outcome{Result: "rejected", KernelVerdict: "rejected", FailureClasses: dedupSorted(sorted)}
}

func passthrough(kernelVerdict string, failureClasses []string) Outcome {
	return Outcome{Result: kernelVerdict, KernelVerdict: kernelVerdict, FailureClasses: failureClasses}
}

func dedupSorted(sorted []string) []string {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || sorted[i-1] != v {
			out = append(out, v)
		}
	}
	return out
}

func ensureObject(v interface{}, label string) (map[string]interface{}, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("%s must be an object", label)
	}
	return obj, nil
}

func ensureString(v interface{}, label string) (string, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errors.Errorf("%s must be a non-empty string", label)
	}
	return s, nil
}

func ensureInt(v interface{}, label string) (int64, error) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		if t == float64(int64(t)) {
			return int64(t), nil
		}
	}
	return 0, errors.Errorf("%s must be an integer", label)
}

func ensureBool(v interface{}, label string) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errors.Errorf("%s must be a boolean", label)
	}
	return b, nil
}

func ensureStringList(v interface{}, label string) ([]string, error) {
	if v == nil {
		return []string{}, nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, errors.Errorf("%s must be a list", label)
	}
	out := make([]string, 0, len(raw))
	for idx, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, errors.Errorf("%s[%d] must be a string", label, idx)
		}
		out = append(out, s)
	}
	return out, nil
}

func ensureStringMapping(v interface{}, label string) (map[string]string, error) {
	raw, ok := v.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("%s must be an object", label)
	}
	out := map[string]string{}
	for key, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, errors.Errorf("%s[%q] must be a string", label, key)
		}
		out[key] = s
	}
	return out, nil
}

// canonicalCheckSet sorts and dedups a string list.
func canonicalCheckSet(v interface{}, label string) ([]string, error) {
	items, err := ensureStringList(v, label)
	if err != nil {
		return nil, err
	}
	sort.Strings(items)
	return dedupSorted(items), nil
}

func claimedSet(v interface{}, label string) (map[string]bool, error) {
	items, err := ensureStringList(v, label)
	if err != nil {
		return nil, err
	}
	return stringSet(items), nil
}

func stringSet(items []string) map[string]bool {
	out := map[string]bool{}
	for _, item := range items {
		out[item] = true
	}
	return out
}

func subset(need []string, have map[string]bool) bool {
	for _, item := range need {
		if !have[item] {
			return false
		}
	}
	return true
}

func equalStringSlices(a, b []string) bool {
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

// kernelInput reads the staked (kernelVerdict, gateFailureClasses) pair an
// invariance vector carries.
func kernelInput(artifacts map[string]interface{}) (string, []string, error) {
	inputObj, err := ensureObject(artifacts["input"], "artifacts.input")
	if err != nil {
		return "", nil, err
	}
	verdict, err := ensureString(inputObj["kernelVerdict"], "artifacts.input.kernelVerdict")
	if err != nil {
		return "", nil, err
	}
	if verdict != "accepted" && verdict != "rejected" {
		return "", nil, errors.New("artifacts.input.kernelVerdict must be 'accepted' or 'rejected'")
	}
	classes, err := ensureStringList(inputObj["gateFailureClasses"], "artifacts.input.gateFailureClasses")
	if err != nil {
		return "", nil, err
	}
	return verdict, classes, nil
}

// requiresClaim implements the shared adversarial predicate: a request in
// the given mode must claim the capability.
func requiresClaim(caseObj map[string]interface{}, mode, capability string) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	request, err := ensureObject(artifacts["request"], "artifacts.request")
	if err != nil {
		return Outcome{}, err
	}
	requestMode, err := ensureString(request["mode"], "artifacts.request.mode")
	if err != nil {
		return Outcome{}, err
	}
	claimed, err := claimedSet(request["claimedCapabilities"], "artifacts.request.claimedCapabilities")
	if err != nil {
		return Outcome{}, err
	}
	if requestMode == mode && !claimed[capability] {
		return rejected("capability_not_claimed"), nil
	}
	return accepted(), nil
}
