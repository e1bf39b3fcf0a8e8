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

// Package harness holds the retry-policy surface the pipeline wrappers
// consult between required-gate attempts. The core never retries; the
// policy is data the collaborators route on.
package harness

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/premath/premath/pkg/canonical"
)

// PolicyKind is the canonical harness retry-policy artifact kind.
const PolicyKind = "ci.harness.retry.policy.v1"

// Escalation actions a terminal rule may name.
const (
	ActionIssueDiscover = "issue_discover"
	ActionMarkBlocked   = "mark_blocked"
	ActionStop          = "stop"
)

// Rule is one retry rule keyed by failure classes.
type Rule struct {
	RuleID             string
	MatchFailureClasses []string
	MaxAttempts        int
	BackoffClass       string
	EscalationAction   string
}

// Policy is a parsed retry policy plus its digest identity.
type Policy struct {
	PolicyID     string
	PolicyDigest string
	Rules        []Rule
	DefaultRule  Rule
}

// Decision is the resolved outcome for one attempt.
type Decision struct {
	Retry               bool
	Attempt             int
	MaxAttempts         int
	RuleID              string
	MatchedFailureClass string
	BackoffClass        string
	EscalationAction    string
	FailureClasses      []string
}

// LoadPolicy parses a retry-policy artifact.
func LoadPolicy(raw []byte) (*Policy, error) {
	payload, err := canonical.DecodeObject(raw)
	if err != nil {
		return nil, errors.Wrap(err, "retry policy")
	}
	if kind, _ := payload["policyKind"].(string); kind != PolicyKind {
		return nil, errors.Errorf("retry policy policyKind must be %q", PolicyKind)
	}
	policyID, _ := payload["policyId"].(string)
	if policyID == "" {
		return nil, errors.New("retry policy policyId must be a non-empty string")
	}
	digest, err := canonical.StableHash(payload)
	if err != nil {
		return nil, err
	}

	rulesRaw, ok := payload["rules"].([]interface{})
	if !ok || len(rulesRaw) == 0 {
		return nil, errors.New("retry policy rules must be a non-empty list")
	}
	policy := &Policy{PolicyID: policyID, PolicyDigest: digest}
	for idx, ruleRaw := range rulesRaw {
		rule, err := parseRule(ruleRaw, idx)
		if err != nil {
			return nil, err
		}
		policy.Rules = append(policy.Rules, rule)
	}

	defaultRaw, ok := payload["defaultRule"]
	if !ok {
		return nil, errors.New("retry policy defaultRule must be present")
	}
	policy.DefaultRule, err = parseRule(defaultRaw, -1)
	if err != nil {
		return nil, err
	}
	if len(policy.DefaultRule.MatchFailureClasses) != 0 {
		return nil, errors.New("retry policy defaultRule must not match specific failure classes")
	}
	return policy, nil
}

func parseRule(v interface{}, idx int) (Rule, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return Rule{}, errors.Errorf("retry policy rule %d must be an object", idx)
	}
	rule := Rule{}
	rule.RuleID, _ = obj["ruleId"].(string)
	if rule.RuleID == "" {
		return Rule{}, errors.Errorf("retry policy rule %d ruleId must be non-empty", idx)
	}
	if obj["matchFailureClasses"] != nil {
		rows, ok := obj["matchFailureClasses"].([]interface{})
		if !ok {
			return Rule{}, errors.Errorf("retry policy rule %q matchFailureClasses must be a list", rule.RuleID)
		}
		for _, item := range rows {
			class, ok := item.(string)
			if !ok || class == "" {
				return Rule{}, errors.Errorf("retry policy rule %q matchFailureClasses entries must be non-empty strings", rule.RuleID)
			}
			rule.MatchFailureClasses = append(rule.MatchFailureClasses, class)
		}
	}
	maxAttempts, ok := numAsInt(obj["maxAttempts"])
	if !ok || maxAttempts < 1 {
		return Rule{}, errors.Errorf("retry policy rule %q maxAttempts must be >= 1", rule.RuleID)
	}
	rule.MaxAttempts = maxAttempts
	rule.BackoffClass, _ = obj["backoffClass"].(string)
	if rule.BackoffClass == "" {
		return Rule{}, errors.Errorf("retry policy rule %q backoffClass must be non-empty", rule.RuleID)
	}
	rule.EscalationAction, _ = obj["escalationAction"].(string)
	switch rule.EscalationAction {
	case ActionIssueDiscover, ActionMarkBlocked, ActionStop:
	default:
		return Rule{}, errors.Errorf("retry policy rule %q escalationAction must be one of issue_discover, mark_blocked, stop", rule.RuleID)
	}
	return rule, nil
}

func numAsInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return int(t), true
		}
	default:
		type inter interface{ Int64() (int64, error) }
		if n, ok := v.(inter); ok {
			if i, err := n.Int64(); err == nil {
				return int(i), true
			}
		}
	}
	return 0, false
}

// CombineFailureClasses merges witness- and process-observed failure
// classes into one sorted, deduplicated set.
func CombineFailureClasses(sources ...[]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, source := range sources {
		for _, class := range source {
			if class != "" && !seen[class] {
				seen[class] = true
				out = append(out, class)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Resolve picks the first rule whose match set intersects the observed
// failure classes (rules in order, classes sorted), falling back to the
// default rule. Retry is allowed while attempt < maxAttempts.
func (p *Policy) Resolve(failureClasses []string, attempt int) Decision {
	classes := CombineFailureClasses(failureClasses)
	for _, rule := range p.Rules {
		for _, matchClass := range rule.MatchFailureClasses {
			for _, class := range classes {
				if class != matchClass {
					continue
				}
				return Decision{
					Retry:               attempt < rule.MaxAttempts,
					Attempt:             attempt,
					MaxAttempts:         rule.MaxAttempts,
					RuleID:              rule.RuleID,
					MatchedFailureClass: matchClass,
					BackoffClass:        rule.BackoffClass,
					EscalationAction:    rule.EscalationAction,
					FailureClasses:      classes,
				}
			}
		}
	}
	rule := p.DefaultRule
	return Decision{
		Retry:            attempt < rule.MaxAttempts,
		Attempt:          attempt,
		MaxAttempts:      rule.MaxAttempts,
		RuleID:           rule.RuleID,
		BackoffClass:     rule.BackoffClass,
		EscalationAction: rule.EscalationAction,
		FailureClasses:   classes,
	}
}
