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

package projection

import (
	"github.com/pkg/errors"
)

// Provider-neutral CI env keys. Wrappers translate their provider's
// environment into these before the core sees it.
const (
	EnvBaseRef = "PREMATH_CI_BASE_REF"
	EnvHeadRef = "PREMATH_CI_HEAD_REF"
)

// githubEnvMap translates GitHub Actions refs into the provider-neutral
// keys. Keys with empty values are dropped so absent refs stay absent.
var githubEnvMap = map[string]string{
	"GITHUB_BASE_REF": EnvBaseRef,
	"GITHUB_SHA":      EnvHeadRef,
}

// MapGitHubEnv translates a GitHub Actions environment into the premath CI
// env keys. Unrelated keys are ignored.
func MapGitHubEnv(env map[string]string) map[string]string {
	out := map[string]string{}
	for from, to := range githubEnvMap {
		if value, ok := env[from]; ok && value != "" {
			out[to] = value
		}
	}
	return out
}

// CIRefs is the resolved (base, head) ref pair. BaseRef is empty when the
// evaluation has no merge base (e.g. a push to a branch tip).
type CIRefs struct {
	BaseRef string
	HasBase bool
	HeadRef string
}

// ResolveCIRefs extracts the ref pair from a provider-neutral environment.
func ResolveCIRefs(env map[string]string) (CIRefs, error) {
	head, ok := env[EnvHeadRef]
	if !ok || head == "" {
		return CIRefs{}, errors.Errorf("%s must be set", EnvHeadRef)
	}
	base, hasBase := env[EnvBaseRef]
	if base == "" {
		hasBase = false
	}
	return CIRefs{BaseRef: base, HasBase: hasBase, HeadRef: head}, nil
}
