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

package witness

import (
	"encoding/json"
	"sort"

	"github.com/premath/premath/pkg/canonical"
	"github.com/premath/premath/pkg/projection"
)

// Decision reason classes.
const (
	ReasonVerifiedAccept  = "verified_accept"
	ReasonWitnessInvalid  = "witness_invalid"
	ReasonChecksFailed    = "checks_failed"
)

// Decision is the digest-bound acceptance record for a required run. Both
// the compatibility-alias digest (the raw projection digest) and the
// typed-core projection digest travel together; downstream gates route on
// the typed-core digest.
type Decision struct {
	DecisionKind             string   `json:"decisionKind"`
	Decision                 string   `json:"decision"`
	ReasonClass              string   `json:"reasonClass"`
	ProjectionDigest         string   `json:"projectionDigest"`
	RequiredChecks           []string `json:"requiredChecks"`
	AuthorityPayloadDigest   string   `json:"authorityPayloadDigest"`
	TypedCoreProjectionDigest string  `json:"typedCoreProjectionDigest"`
	WitnessSha256            string   `json:"witnessSha256"`
	DeltaSha256              string   `json:"deltaSha256"`
	Errors                   []string `json:"errors"`
}

func jsonNumberInt(v interface{}) (int, bool) {
	if num, ok := v.(json.Number); ok {
		if n, err := num.Int64(); err == nil {
			return int(n), true
		}
	}
	return 0, false
}

// BuildDecision verifies the witness against changedPaths and emits the
// decision record binding the witness and delta-snapshot digests. The
// normalizer id and policy digest feed the typed-core projection digest.
func BuildDecision(
	w map[string]interface{},
	deltaSnapshot map[string]interface{},
	changedPaths []string,
	normalizerID string,
	policyDigest string,
) (Decision, error) {
	verifyErrors, derived := VerifyRequired(w, changedPaths, Options{})
	proj := projection.Project(changedPaths)

	witnessSha, err := canonical.StableHash(w)
	if err != nil {
		return Decision{}, err
	}
	deltaSha, err := canonical.StableHash(deltaSnapshot)
	if err != nil {
		return Decision{}, err
	}

	authority := proj.ProjectionDigest
	typedCore := canonical.TypedCoreProjectionDigest(authority, normalizerID, policyDigest)

	decision := Decision{
		DecisionKind:              DecisionKind,
		ProjectionDigest:          proj.ProjectionDigest,
		RequiredChecks:            proj.RequiredChecks,
		AuthorityPayloadDigest:    authority,
		TypedCoreProjectionDigest: typedCore,
		WitnessSha256:             witnessSha,
		DeltaSha256:               deltaSha,
		Errors:                    []string{},
	}

	switch {
	case len(verifyErrors) > 0:
		decision.Decision = "reject"
		decision.ReasonClass = ReasonWitnessInvalid
		decision.Errors = verifyErrors
	case derived.ExpectedVerdict == "rejected":
		decision.Decision = "reject"
		decision.ReasonClass = ReasonChecksFailed
	default:
		decision.Decision = "accept"
		decision.ReasonClass = ReasonVerifiedAccept
	}
	return decision, nil
}

// VerifyDecisionAttestation cross-checks a decision record against its
// witness, delta snapshot, and change-set. It returns the sorted failure
// classes of every violated binding (empty on success).
func VerifyDecisionAttestation(
	w map[string]interface{},
	deltaSnapshot map[string]interface{},
	decision map[string]interface{},
	changedPaths []string,
) []string {
	failures := map[string]bool{}

	verifyErrors, _ := VerifyRequired(w, changedPaths, Options{})
	if len(verifyErrors) > 0 {
		failures[InvalidClass] = true
	}

	proj := projection.Project(changedPaths)
	if w["projectionDigest"] != proj.ProjectionDigest {
		failures["decision_projection_mismatch"] = true
	}
	if deltaSnapshot["projectionDigest"] != proj.ProjectionDigest {
		failures["decision_projection_mismatch"] = true
	}
	if decision["projectionDigest"] != proj.ProjectionDigest {
		failures["decision_projection_mismatch"] = true
	}

	decisionChecks := []string{}
	if raw, ok := decision["requiredChecks"].([]interface{}); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				decisionChecks = append(decisionChecks, s)
			}
		}
	}
	sort.Strings(decisionChecks)
	expected := append([]string(nil), proj.RequiredChecks...)
	sort.Strings(expected)
	if !equalStrings(decisionChecks, expected) {
		failures["decision_required_checks_mismatch"] = true
	}

	if decision["decisionKind"] != DecisionKind {
		failures["decision_kind_mismatch"] = true
	}

	witnessSha, err := canonical.StableHash(w)
	if err != nil || decision["witnessSha256"] != witnessSha {
		failures["decision_witness_sha_mismatch"] = true
	}
	deltaSha, err := canonical.StableHash(deltaSnapshot)
	if err != nil || decision["deltaSha256"] != deltaSha {
		failures["decision_delta_sha_mismatch"] = true
	}

	if decision["decision"] != "accept" {
		failures["decision_not_accept"] = true
	}
	if decision["reasonClass"] != ReasonVerifiedAccept {
		failures["decision_reason_mismatch"] = true
	}
	if errsRaw, ok := decision["errors"].([]interface{}); !ok || len(errsRaw) > 0 {
		failures["decision_errors_non_empty"] = true
	}

	out := make([]string, 0, len(failures))
	for class := range failures {
		out = append(out, class)
	}
	sort.Strings(out)
	return out
}
