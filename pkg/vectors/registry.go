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
	"strings"

	"github.com/pkg/errors"

	"github.com/premath/premath/pkg/canonical"
)

// RegistryKind is the canonical capability-registry artifact kind.
const RegistryKind = "premath.capability_registry.v1"

// LoadExecutableCapabilities parses a capability-registry artifact into its
// ordered executable-capability list.
func LoadExecutableCapabilities(raw []byte) ([]string, error) {
	payload, err := canonical.DecodeObject(raw)
	if err != nil {
		return nil, errors.Wrap(err, "capability registry")
	}
	schema, err := ensureInt(payload["schema"], "schema")
	if err != nil || schema != 1 {
		return nil, errors.New("capability registry schema must be 1")
	}
	kind, _ := payload["registryKind"].(string)
	if kind != RegistryKind {
		return nil, errors.Errorf("registryKind must be %q, got %q", RegistryKind, kind)
	}
	rowsRaw, ok := payload["executableCapabilities"].([]interface{})
	if !ok || len(rowsRaw) == 0 {
		return nil, errors.New("executableCapabilities must be a non-empty list")
	}
	out := make([]string, 0, len(rowsRaw))
	seen := map[string]bool{}
	for idx, item := range rowsRaw {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, errors.Errorf("executableCapabilities[%d] must be a non-empty string", idx)
		}
		capabilityID := strings.TrimSpace(s)
		if seen[capabilityID] {
			return nil, errors.Errorf("executableCapabilities contains duplicate %q", capabilityID)
		}
		seen[capabilityID] = true
		out = append(out, capabilityID)
	}
	return out, nil
}

// Evaluator reduces one vector of a capability to its outcome.
type Evaluator func(vectorID string, caseObj map[string]interface{}) (Outcome, error)

// Evaluators is the closed runner table. It must cover exactly the
// registry's executable capabilities.
func Evaluators() map[string]Evaluator {
	return map[string]Evaluator{
		CapabilityNormalForms:           EvaluateNormalForms,
		CapabilityKcirWitnesses:         EvaluateKcirWitnesses,
		CapabilityCommitmentCheckpoints: EvaluateCommitmentCheckpoints,
		CapabilitySqueakSite:            EvaluateSqueakSite,
		CapabilityCIWitnesses:           EvaluateCIWitnesses,
		CapabilityInstructionTyping:     EvaluateInstructionTyping,
		CapabilityAdjointsSites:         EvaluateAdjointsSites,
		CapabilityChangeMorphisms:       EvaluateChangeMorphisms,
	}
}

// CheckRunnerParity cross-checks the registry's capability list against the
// runner table: no unhandled capability, no undeclared handler.
func CheckRunnerParity(executableCapabilities []string) error {
	runners := Evaluators()
	declared := stringSet(executableCapabilities)
	for _, capabilityID := range executableCapabilities {
		if _, ok := runners[capabilityID]; !ok {
			return errors.Errorf("capability registry contains unsupported capability handlers: %s", capabilityID)
		}
	}
	for capabilityID := range runners {
		if !declared[capabilityID] {
			return errors.Errorf("capability runner table contains undeclared executable capabilities: %s", capabilityID)
		}
	}
	return nil
}
