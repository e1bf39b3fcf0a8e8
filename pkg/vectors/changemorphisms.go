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
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/premath/premath/pkg/projection"
)

// Lease policy bounds.
const (
	DefaultLeaseTTLSeconds = 3600
	MinLeaseTTLSeconds     = 30
	MaxLeaseTTLSeconds     = 86400
)

// blockingDepTypes are the dependency kinds that block readiness.
var blockingDepTypes = map[string]bool{
	"blocks":             true,
	"parent-child":       true,
	"conditional-blocks": true,
	"waits-for":          true,
}

// leaseToken compresses an id into the ascii token vocabulary of lease ids.
func leaseToken(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r < 128 && (r >= 'a' && r <= 'z' || r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	trimmed := strings.Trim(b.String(), "_")
	if trimmed == "" {
		return "anon"
	}
	return trimmed
}

func resolveLeaseID(rawLeaseID interface{}, issueID, assignee string) string {
	if s, ok := rawLeaseID.(string); ok && s != "" {
		return s
	}
	return "lease1_" + leaseToken(issueID) + "_" + leaseToken(assignee)
}

// resolveLeaseExpiry resolves a lease expiry from either an explicit
// expires-at or a TTL, rejecting ambiguous or out-of-bounds bindings.
func resolveLeaseExpiry(nowUnixMs int64, ttlSecondsRaw, expiresAtRaw interface{}) (int64, string, error) {
	var ttlSeconds *int64
	if ttlSecondsRaw != nil {
		n, err := ensureInt(ttlSecondsRaw, "leaseTtlSeconds")
		if err != nil {
			return 0, "", errors.New("leaseTtlSeconds must be an integer when present")
		}
		ttlSeconds = &n
	}
	var expiresAt *int64
	if expiresAtRaw != nil {
		n, err := ensureInt(expiresAtRaw, "leaseExpiresAtUnixMs")
		if err != nil {
			return 0, "", errors.New("leaseExpiresAtUnixMs must be an integer when present")
		}
		expiresAt = &n
	}

	if ttlSeconds != nil && expiresAt != nil {
		return 0, "lease_binding_ambiguous", nil
	}
	if expiresAt != nil {
		if *expiresAt <= nowUnixMs {
			return 0, "lease_invalid_expires_at", nil
		}
		return *expiresAt, "", nil
	}
	ttl := int64(DefaultLeaseTTLSeconds)
	if ttlSeconds != nil {
		ttl = *ttlSeconds
	}
	if ttl < MinLeaseTTLSeconds || ttl > MaxLeaseTTLSeconds {
		return 0, "lease_invalid_ttl", nil
	}
	return nowUnixMs + ttl*1000, "", nil
}

func nowUnixMsOf(artifacts map[string]interface{}) (int64, error) {
	if artifacts["nowUnixMs"] == nil {
		return 0, nil
	}
	return ensureInt(artifacts["nowUnixMs"], "artifacts.nowUnixMs")
}

type leaseView struct {
	Owner           string
	LeaseID         string
	ExpiresAtUnixMs int64
}

func leaseOf(v interface{}, label string, requireID bool) (*leaseView, error) {
	if v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("%s must be an object when present", label)
	}
	owner, err := ensureString(obj["owner"], label+".owner")
	if err != nil {
		return nil, err
	}
	out := &leaseView{Owner: owner}
	if requireID {
		out.LeaseID, err = ensureString(obj["leaseId"], label+".leaseId")
		if err != nil {
			return nil, err
		}
	} else if id, ok := obj["leaseId"].(string); ok {
		out.LeaseID = id
	}
	out.ExpiresAtUnixMs, err = ensureInt(obj["expiresAtUnixMs"], label+".expiresAtUnixMs")
	if err != nil {
		return nil, err
	}
	return out, nil
}

func expectedAfterMismatch(artifacts map[string]interface{}, actualStatus, actualAssignee, leaseID, leaseOwner, leaseState, class string) (*Outcome, error) {
	expectedAfterRaw := artifacts["expectedAfter"]
	if expectedAfterRaw == nil {
		return nil, nil
	}
	expectedAfter, ok := expectedAfterRaw.(map[string]interface{})
	if !ok {
		return nil, errors.New("artifacts.expectedAfter must be an object when present")
	}
	expectedStatus, err := ensureString(expectedAfter["status"], "artifacts.expectedAfter.status")
	if err != nil {
		return nil, err
	}
	expectedAssignee, err := ensureString(expectedAfter["assignee"], "artifacts.expectedAfter.assignee")
	if err != nil {
		return nil, err
	}
	if expectedLeaseRaw := expectedAfter["lease"]; expectedLeaseRaw != nil {
		expectedLease, ok := expectedLeaseRaw.(map[string]interface{})
		if !ok {
			return nil, errors.New("artifacts.expectedAfter.lease must be an object when present")
		}
		expectedLeaseID, err := ensureString(expectedLease["leaseId"], "artifacts.expectedAfter.lease.leaseId")
		if err != nil {
			return nil, err
		}
		expectedOwner, err := ensureString(expectedLease["owner"], "artifacts.expectedAfter.lease.owner")
		if err != nil {
			return nil, err
		}
		expectedState, err := ensureString(expectedLease["state"], "artifacts.expectedAfter.lease.state")
		if err != nil {
			return nil, err
		}
		if leaseID != expectedLeaseID || leaseOwner != expectedOwner || leaseState != expectedState {
			out := rejected(class)
			return &out, nil
		}
	}
	if actualStatus != expectedStatus || actualAssignee != expectedAssignee {
		out := rejected(class)
		return &out, nil
	}
	return nil, nil
}

func evaluateIssueClaim(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	if out, err := requiresClaim(caseObj, "issue_claim", CapabilityChangeMorphisms); err != nil || out.Result == "rejected" {
		return out, err
	}

	issueBefore, err := ensureObject(artifacts["issueBefore"], "artifacts.issueBefore")
	if err != nil {
		return Outcome{}, err
	}
	issueID, err := ensureString(issueBefore["id"], "artifacts.issueBefore.id")
	if err != nil {
		return Outcome{}, err
	}
	beforeStatus, err := ensureString(issueBefore["status"], "artifacts.issueBefore.status")
	if err != nil {
		return Outcome{}, err
	}
	beforeAssignee := ""
	if issueBefore["assignee"] != nil {
		var ok bool
		beforeAssignee, ok = issueBefore["assignee"].(string)
		if !ok {
			return Outcome{}, errors.New("artifacts.issueBefore.assignee must be a string when present")
		}
	}
	nowUnixMs, err := nowUnixMsOf(artifacts)
	if err != nil {
		return Outcome{}, err
	}
	beforeLease, err := leaseOf(issueBefore["lease"], "artifacts.issueBefore.lease", false)
	if err != nil {
		return Outcome{}, err
	}

	claim, err := ensureObject(artifacts["claim"], "artifacts.claim")
	if err != nil {
		return Outcome{}, err
	}
	claimAssignee, err := ensureString(claim["assignee"], "artifacts.claim.assignee")
	if err != nil {
		return Outcome{}, err
	}
	if claim["leaseId"] != nil {
		if _, ok := claim["leaseId"].(string); !ok {
			return Outcome{}, errors.New("artifacts.claim.leaseId must be a string when present")
		}
	}

	if beforeStatus == "closed" {
		return rejected("issue_claim_closed"), nil
	}
	hasStaleLease := beforeLease != nil && beforeLease.ExpiresAtUnixMs <= nowUnixMs
	hasActiveLease := beforeLease != nil && beforeLease.ExpiresAtUnixMs > nowUnixMs
	if hasActiveLease && beforeLease.Owner != claimAssignee {
		return rejected("lease_contention_active"), nil
	}
	if beforeAssignee != "" && beforeAssignee != claimAssignee && !hasActiveLease && !hasStaleLease {
		return rejected("issue_already_claimed"), nil
	}

	leaseID := resolveLeaseID(claim["leaseId"], issueID, claimAssignee)
	leaseExpiresAt, expiryFailure, err := resolveLeaseExpiry(nowUnixMs, claim["leaseTtlSeconds"], claim["leaseExpiresAtUnixMs"])
	if err != nil {
		return Outcome{}, err
	}
	if expiryFailure != "" {
		return rejected(expiryFailure), nil
	}
	leaseState := "stale"
	if leaseExpiresAt > nowUnixMs {
		leaseState = "active"
	}

	mismatch, err := expectedAfterMismatch(artifacts, "in_progress", claimAssignee, leaseID, claimAssignee, leaseState, "issue_claim_transition_mismatch")
	if err != nil {
		return Outcome{}, err
	}
	if mismatch != nil {
		return *mismatch, nil
	}
	return accepted(), nil
}

func evaluateIssueLeaseRenew(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	if out, err := requiresClaim(caseObj, "issue_lease_renew", CapabilityChangeMorphisms); err != nil || out.Result == "rejected" {
		return out, err
	}

	nowUnixMs, err := nowUnixMsOf(artifacts)
	if err != nil {
		return Outcome{}, err
	}
	issueBefore, err := ensureObject(artifacts["issueBefore"], "artifacts.issueBefore")
	if err != nil {
		return Outcome{}, err
	}
	beforeStatus, err := ensureString(issueBefore["status"], "artifacts.issueBefore.status")
	if err != nil {
		return Outcome{}, err
	}
	if issueBefore["lease"] == nil {
		return rejected("lease_missing"), nil
	}
	beforeLease, err := leaseOf(issueBefore["lease"], "artifacts.issueBefore.lease", true)
	if err != nil {
		return Outcome{}, err
	}

	renew, err := ensureObject(artifacts["renew"], "artifacts.renew")
	if err != nil {
		return Outcome{}, err
	}
	renewAssignee, err := ensureString(renew["assignee"], "artifacts.renew.assignee")
	if err != nil {
		return Outcome{}, err
	}
	renewLeaseID, err := ensureString(renew["leaseId"], "artifacts.renew.leaseId")
	if err != nil {
		return Outcome{}, err
	}
	_, expiryFailure, err := resolveLeaseExpiry(nowUnixMs, renew["leaseTtlSeconds"], renew["leaseExpiresAtUnixMs"])
	if err != nil {
		return Outcome{}, err
	}
	if expiryFailure != "" {
		return rejected(expiryFailure), nil
	}

	if beforeStatus == "closed" {
		return rejected("lease_issue_closed"), nil
	}
	if beforeLease.ExpiresAtUnixMs <= nowUnixMs {
		return rejected("lease_stale"), nil
	}
	if beforeLease.Owner != renewAssignee {
		return rejected("lease_owner_mismatch"), nil
	}
	if beforeLease.LeaseID != renewLeaseID {
		return rejected("lease_id_mismatch"), nil
	}

	mismatch, err := expectedAfterMismatch(artifacts, "in_progress", renewAssignee, renewLeaseID, renewAssignee, "active", "issue_lease_renew_transition_mismatch")
	if err != nil {
		return Outcome{}, err
	}
	if mismatch != nil {
		return *mismatch, nil
	}
	return accepted(), nil
}

func evaluateIssueLeaseRelease(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	if out, err := requiresClaim(caseObj, "issue_lease_release", CapabilityChangeMorphisms); err != nil || out.Result == "rejected" {
		return out, err
	}

	issueBefore, err := ensureObject(artifacts["issueBefore"], "artifacts.issueBefore")
	if err != nil {
		return Outcome{}, err
	}
	beforeStatus, err := ensureString(issueBefore["status"], "artifacts.issueBefore.status")
	if err != nil {
		return Outcome{}, err
	}
	beforeAssignee := ""
	if issueBefore["assignee"] != nil {
		var ok bool
		beforeAssignee, ok = issueBefore["assignee"].(string)
		if !ok {
			return Outcome{}, errors.New("artifacts.issueBefore.assignee must be a string when present")
		}
	}

	release, err := ensureObject(artifacts["release"], "artifacts.release")
	if err != nil {
		return Outcome{}, err
	}
	releaseAssignee := ""
	if release["assignee"] != nil {
		var ok bool
		releaseAssignee, ok = release["assignee"].(string)
		if !ok {
			return Outcome{}, errors.New("artifacts.release.assignee must be a string when present")
		}
	}
	releaseLeaseID := ""
	if release["leaseId"] != nil {
		var ok bool
		releaseLeaseID, ok = release["leaseId"].(string)
		if !ok {
			return Outcome{}, errors.New("artifacts.release.leaseId must be a string when present")
		}
	}

	var actualStatus, actualAssignee string
	if issueBefore["lease"] == nil {
		if releaseAssignee != "" || releaseLeaseID != "" {
			return rejected("lease_missing"), nil
		}
		actualStatus, actualAssignee = beforeStatus, beforeAssignee
	} else {
		beforeLease, err := leaseOf(issueBefore["lease"], "artifacts.issueBefore.lease", true)
		if err != nil {
			return Outcome{}, err
		}
		if releaseAssignee != "" && beforeLease.Owner != releaseAssignee {
			return rejected("lease_owner_mismatch"), nil
		}
		if releaseLeaseID != "" && beforeLease.LeaseID != releaseLeaseID {
			return rejected("lease_id_mismatch"), nil
		}
		actualStatus = beforeStatus
		if beforeStatus == "in_progress" {
			actualStatus = "open"
		}
		actualAssignee = ""
	}

	if expectedAfterRaw := artifacts["expectedAfter"]; expectedAfterRaw != nil {
		expectedAfter, ok := expectedAfterRaw.(map[string]interface{})
		if !ok {
			return Outcome{}, errors.New("artifacts.expectedAfter must be an object when present")
		}
		expectedStatus, err := ensureString(expectedAfter["status"], "artifacts.expectedAfter.status")
		if err != nil {
			return Outcome{}, err
		}
		expectedAssignee := ""
		if expectedAfter["assignee"] != nil {
			var ok bool
			expectedAssignee, ok = expectedAfter["assignee"].(string)
			if !ok {
				return Outcome{}, errors.New("artifacts.expectedAfter.assignee must be a string")
			}
		}
		if expectedAfter["lease"] != nil {
			return Outcome{}, errors.New("artifacts.expectedAfter.lease must be null for release checks")
		}
		if actualStatus != expectedStatus || actualAssignee != expectedAssignee {
			return rejected("issue_lease_release_transition_mismatch"), nil
		}
	}
	return accepted(), nil
}

func extractIssueIDs(v interface{}, label string) ([]string, error) {
	raw, ok := v.([]interface{})
	if v == nil {
		return []string{}, nil
	}
	if !ok {
		return nil, errors.Errorf("%s must be a list", label)
	}
	out := make([]string, 0, len(raw))
	for idx, item := range raw {
		switch t := item.(type) {
		case string:
			out = append(out, t)
		case map[string]interface{}:
			id, err := ensureString(t["id"], fmt.Sprintf("%s[%d].id", label, idx))
			if err != nil {
				return nil, err
			}
			out = append(out, id)
		default:
			return nil, errors.Errorf("%s[%d] must be string or object", label, idx)
		}
	}
	return out, nil
}

func evaluateIssueDiscover(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	if out, err := requiresClaim(caseObj, "issue_discover", CapabilityChangeMorphisms); err != nil || out.Result == "rejected" {
		return out, err
	}

	existingIDs, err := extractIssueIDs(artifacts["existingIssues"], "artifacts.existingIssues")
	if err != nil {
		return Outcome{}, err
	}
	parentIssue, err := ensureObject(artifacts["parentIssue"], "artifacts.parentIssue")
	if err != nil {
		return Outcome{}, err
	}
	parentID, err := ensureString(parentIssue["id"], "artifacts.parentIssue.id")
	if err != nil {
		return Outcome{}, err
	}
	discoveredIssue, err := ensureObject(artifacts["discoveredIssue"], "artifacts.discoveredIssue")
	if err != nil {
		return Outcome{}, err
	}
	discoveredID, err := ensureString(discoveredIssue["id"], "artifacts.discoveredIssue.id")
	if err != nil {
		return Outcome{}, err
	}

	existing := stringSet(existingIDs)
	if !existing[parentID] {
		return rejected("issue_discover_parent_missing"), nil
	}
	if existing[discoveredID] {
		return rejected("issue_discover_id_conflict"), nil
	}

	if depRaw := artifacts["expectedDependency"]; depRaw != nil {
		dep, ok := depRaw.(map[string]interface{})
		if !ok {
			return Outcome{}, errors.New("artifacts.expectedDependency must be an object when present")
		}
		depIssueID, err := ensureString(dep["issueId"], "artifacts.expectedDependency.issueId")
		if err != nil {
			return Outcome{}, err
		}
		dependsOn, err := ensureString(dep["dependsOnId"], "artifacts.expectedDependency.dependsOnId")
		if err != nil {
			return Outcome{}, err
		}
		depType, err := ensureString(dep["type"], "artifacts.expectedDependency.type")
		if err != nil {
			return Outcome{}, err
		}
		if depIssueID != discoveredID || dependsOn != parentID || depType != "discovered-from" {
			return rejected("issue_discover_link_mismatch"), nil
		}
	}

	if totalRaw := artifacts["expectedTotalIssues"]; totalRaw != nil {
		total, err := ensureInt(totalRaw, "artifacts.expectedTotalIssues")
		if err != nil {
			return Outcome{}, err
		}
		if int64(len(existingIDs))+1 != total {
			return rejected("issue_discover_non_loss_violation"), nil
		}
	}
	return accepted(), nil
}

type issueGraphRow struct {
	ID           string
	Status       string
	Dependencies []issueDep
}

type issueDep struct {
	DependsOnID string
	Type        string
}

func extractIssueGraphRows(v interface{}, label string) ([]issueGraphRow, error) {
	raw, ok := v.([]interface{})
	if v == nil {
		return nil, nil
	}
	if !ok {
		return nil, errors.Errorf("%s must be a list", label)
	}
	out := make([]issueGraphRow, 0, len(raw))
	for idx, itemRaw := range raw {
		item, ok := itemRaw.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("%s[%d] must be an object", label, idx)
		}
		id, err := ensureString(item["id"], label+" id")
		if err != nil {
			return nil, err
		}
		status, err := ensureString(item["status"], label+" status")
		if err != nil {
			return nil, err
		}
		row := issueGraphRow{ID: id, Status: status}
		if item["dependencies"] != nil {
			depsRaw, ok := item["dependencies"].([]interface{})
			if !ok {
				return nil, errors.Errorf("%s[%d].dependencies must be a list", label, idx)
			}
			for didx, depRaw := range depsRaw {
				dep, ok := depRaw.(map[string]interface{})
				if !ok {
					return nil, errors.Errorf("%s[%d].dependencies[%d] must be an object", label, idx, didx)
				}
				dependsOn, err := ensureString(dep["dependsOnId"], label+" dependsOnId")
				if err != nil {
					return nil, err
				}
				depType, err := ensureString(dep["type"], label+" dependency type")
				if err != nil {
					return nil, err
				}
				row.Dependencies = append(row.Dependencies, issueDep{DependsOnID: dependsOn, Type: depType})
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func evaluateIssueReadyBlocked(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	if out, err := requiresClaim(caseObj, "issue_ready_blocked", CapabilityChangeMorphisms); err != nil || out.Result == "rejected" {
		return out, err
	}

	rows, err := extractIssueGraphRows(artifacts["issues"], "artifacts.issues")
	if err != nil {
		return Outcome{}, err
	}
	expectedReady, err := canonicalCheckSet(artifacts["expectedReadyIds"], "artifacts.expectedReadyIds")
	if err != nil {
		return Outcome{}, err
	}
	expectedBlocked, err := canonicalCheckSet(artifacts["expectedBlockedIds"], "artifacts.expectedBlockedIds")
	if err != nil {
		return Outcome{}, err
	}

	statusByID := map[string]string{}
	for _, row := range rows {
		if _, dup := statusByID[row.ID]; dup {
			return Outcome{}, errors.Errorf("duplicate issue id in artifacts.issues: %s", row.ID)
		}
		statusByID[row.ID] = row.Status
	}

	hasUnresolvedBlocker := func(row issueGraphRow) bool {
		for _, dep := range row.Dependencies {
			if !blockingDepTypes[dep.Type] {
				continue
			}
			if statusByID[dep.DependsOnID] != "closed" {
				return true
			}
		}
		return false
	}

	readyIDs := []string{}
	blockedIDs := []string{}
	for _, row := range rows {
		unresolved := hasUnresolvedBlocker(row)
		if row.Status == "open" && !unresolved {
			readyIDs = append(readyIDs, row.ID)
		}
		if row.Status != "closed" && unresolved {
			blockedIDs = append(blockedIDs, row.ID)
		}
	}
	sort.Strings(readyIDs)
	sort.Strings(blockedIDs)

	if !equalStringSlices(readyIDs, expectedReady) {
		return rejected("issue_ready_set_mismatch"), nil
	}
	if !equalStringSlices(blockedIDs, expectedBlocked) {
		return rejected("issue_blocked_set_mismatch"), nil
	}
	readySet := stringSet(readyIDs)
	for _, id := range blockedIDs {
		if readySet[id] {
			return rejected("issue_ready_blocked_overlap"), nil
		}
	}

	openIDs := []string{}
	for _, row := range rows {
		if row.Status == "open" {
			openIDs = append(openIDs, row.ID)
		}
	}
	sort.Strings(openIDs)
	blockedOpen := []string{}
	for _, id := range blockedIDs {
		if statusByID[id] == "open" {
			blockedOpen = append(blockedOpen, id)
		}
	}
	partition := append(append([]string(nil), readyIDs...), blockedOpen...)
	sort.Strings(partition)
	if !equalStringSlices(dedupSorted(partition), openIDs) {
		return rejected("issue_ready_blocked_open_partition_mismatch"), nil
	}
	return accepted(), nil
}

func evaluateIssueLeaseProjection(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	if out, err := requiresClaim(caseObj, "issue_lease_projection", CapabilityChangeMorphisms); err != nil || out.Result == "rejected" {
		return out, err
	}

	rowsRaw, ok := artifacts["issues"].([]interface{})
	if artifacts["issues"] != nil && !ok {
		return Outcome{}, errors.New("artifacts.issues must be a list")
	}
	nowUnixMs, err := nowUnixMsOf(artifacts)
	if err != nil {
		return Outcome{}, err
	}
	expectedStale, err := canonicalCheckSet(artifacts["expectedStaleIssueIds"], "artifacts.expectedStaleIssueIds")
	if err != nil {
		return Outcome{}, err
	}
	expectedContended, err := canonicalCheckSet(artifacts["expectedContendedIssueIds"], "artifacts.expectedContendedIssueIds")
	if err != nil {
		return Outcome{}, err
	}

	staleIDs := []string{}
	contendedIDs := []string{}
	for idx, rowRaw := range rowsRaw {
		row, ok := rowRaw.(map[string]interface{})
		if !ok {
			return Outcome{}, errors.Errorf("artifacts.issues[%d] must be an object", idx)
		}
		issueID, err := ensureString(row["id"], "artifacts.issues id")
		if err != nil {
			return Outcome{}, err
		}
		status, err := ensureString(row["status"], "artifacts.issues status")
		if err != nil {
			return Outcome{}, err
		}
		assignee := ""
		if row["assignee"] != nil {
			var ok bool
			assignee, ok = row["assignee"].(string)
			if !ok {
				return Outcome{}, errors.New("artifacts.issues assignee must be a string when present")
			}
		}
		lease, err := leaseOf(row["lease"], "artifacts.issues lease", false)
		if err != nil {
			return Outcome{}, err
		}
		if lease == nil {
			continue
		}
		if lease.ExpiresAtUnixMs <= nowUnixMs {
			staleIDs = append(staleIDs, issueID)
			continue
		}
		if status != "in_progress" || assignee != lease.Owner {
			contendedIDs = append(contendedIDs, issueID)
		}
	}
	sort.Strings(staleIDs)
	sort.Strings(contendedIDs)

	if !equalStringSlices(dedupSorted(staleIDs), expectedStale) {
		return rejected("lease_stale_set_mismatch"), nil
	}
	if !equalStringSlices(dedupSorted(contendedIDs), expectedContended) {
		return rejected("lease_contended_set_mismatch"), nil
	}
	return accepted(), nil
}

func evaluateIssueEventReplayCache(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	if out, err := requiresClaim(caseObj, "issue_event_replay_cache", CapabilityChangeMorphisms); err != nil || out.Result == "rejected" {
		return out, err
	}

	events, ok := artifacts["events"].([]interface{})
	if !ok {
		return Outcome{}, errors.New("artifacts.events must be a list")
	}
	snapshot, err := ensureObject(artifacts["snapshot"], "artifacts.snapshot")
	if err != nil {
		return Outcome{}, err
	}
	declaredEventRef, err := ensureString(artifacts["eventStreamRef"], "artifacts.eventStreamRef")
	if err != nil {
		return Outcome{}, err
	}
	declaredSnapshotRef, err := ensureString(artifacts["snapshotRef"], "artifacts.snapshotRef")
	if err != nil {
		return Outcome{}, err
	}
	expectedEventRef, err := computeEventStreamRef(events)
	if err != nil {
		return Outcome{}, err
	}
	expectedSnapshotRef, err := computeSnapshotRef(snapshot)
	if err != nil {
		return Outcome{}, err
	}
	if declaredEventRef != expectedEventRef || declaredSnapshotRef != expectedSnapshotRef {
		return rejected("issue_event_replay_ref_mismatch"), nil
	}

	expectedCacheHit, err := ensureBool(artifacts["expectedCacheHit"], "artifacts.expectedCacheHit")
	if err != nil {
		return Outcome{}, err
	}
	actualCacheHit := false
	if cacheEntryRaw := artifacts["cacheEntry"]; cacheEntryRaw != nil {
		cacheEntry, ok := cacheEntryRaw.(map[string]interface{})
		if !ok {
			return Outcome{}, errors.New("artifacts.cacheEntry must be an object when present")
		}
		cacheEventRef, err := ensureString(cacheEntry["eventStreamRef"], "artifacts.cacheEntry.eventStreamRef")
		if err != nil {
			return Outcome{}, err
		}
		cacheSnapshotRef, err := ensureString(cacheEntry["snapshotRef"], "artifacts.cacheEntry.snapshotRef")
		if err != nil {
			return Outcome{}, err
		}
		actualCacheHit = cacheEventRef == declaredEventRef && cacheSnapshotRef == declaredSnapshotRef
	}
	if actualCacheHit != expectedCacheHit {
		return rejected("issue_event_replay_cache_hit_mismatch"), nil
	}
	return accepted(), nil
}

func evaluateChangeProjectionDocsAndCode(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	changedPaths, err := ensureStringList(artifacts["changedPaths"], "artifacts.changedPaths")
	if err != nil {
		return Outcome{}, err
	}
	expectedRequired, err := canonicalCheckSet(artifacts["expectedRequiredChecks"], "artifacts.expectedRequiredChecks")
	if err != nil {
		return Outcome{}, err
	}
	proj := projection.Project(changedPaths)
	actual := append([]string(nil), proj.RequiredChecks...)
	sort.Strings(actual)
	if !equalStringSlices(actual, expectedRequired) {
		return rejected("change_projection_mismatch"), nil
	}
	return accepted(), nil
}

func evaluateProviderEnvMapping(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	changedPaths, err := ensureStringList(artifacts["changedPaths"], "artifacts.changedPaths")
	if err != nil {
		return Outcome{}, err
	}
	expectedRequired, err := canonicalCheckSet(artifacts["expectedRequiredChecks"], "artifacts.expectedRequiredChecks")
	if err != nil {
		return Outcome{}, err
	}
	directEnv, err := ensureStringMapping(artifacts["directEnv"], "artifacts.directEnv")
	if err != nil {
		return Outcome{}, err
	}
	githubEnv, err := ensureStringMapping(artifacts["githubEnv"], "artifacts.githubEnv")
	if err != nil {
		return Outcome{}, err
	}

	projDirect := projection.Project(changedPaths)
	projMapped := projection.Project(changedPaths)
	actual := append([]string(nil), projDirect.RequiredChecks...)
	sort.Strings(actual)
	if !equalStringSlices(actual, expectedRequired) {
		return rejected("change_projection_mismatch"), nil
	}
	if projDirect.ProjectionDigest != projMapped.ProjectionDigest {
		return rejected("change_projection_digest_mismatch"), nil
	}

	mappedEnv := projection.MapGitHubEnv(githubEnv)
	directRefs, err := projection.ResolveCIRefs(directEnv)
	if err != nil {
		return rejected("provider_env_mapping_mismatch"), nil
	}
	mappedRefs, err := projection.ResolveCIRefs(mappedEnv)
	if err != nil {
		return rejected("provider_env_mapping_mismatch"), nil
	}
	if directRefs != mappedRefs {
		return rejected("provider_env_mapping_mismatch"), nil
	}
	return accepted(), nil
}

func evaluateChangeProjectionComposed(caseObj map[string]interface{}, mutation func(map[string]interface{}) (Outcome, error)) (Outcome, error) {
	base, err := mutation(caseObj)
	if err != nil || base.Result != "accepted" {
		return base, err
	}
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	contractOutcome, err := evaluateCrossLaneSpanSquare(artifacts, []string{
		CapabilityChangeMorphisms, CapabilityAdjointsSites, CapabilitySqueakSite,
	}, "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	if contractOutcome != nil {
		return *contractOutcome, nil
	}
	return accepted(), nil
}

func evaluateChangeProjectionComposedInvariance(caseObj map[string]interface{}, mutation func(map[string]interface{}) (Outcome, error)) (Outcome, error) {
	profile, err := ensureString(caseObj["profile"], "profile")
	if err != nil {
		return Outcome{}, err
	}
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	verdict, classesRaw, err := kernelInput(artifacts)
	if err != nil {
		return Outcome{}, err
	}
	classes := append([]string(nil), classesRaw...)
	sort.Strings(classes)
	classes = dedupSorted(classes)

	contractOutcome, err := evaluateCrossLaneSpanSquare(artifacts, []string{
		CapabilityChangeMorphisms, CapabilityAdjointsSites, CapabilitySqueakSite,
	}, "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	if contractOutcome != nil {
		return *contractOutcome, nil
	}

	locationDescriptor, err := ensureObject(artifacts["locationDescriptor"], "artifacts.locationDescriptor")
	if err != nil {
		return Outcome{}, err
	}
	runtimeProfile, err := ensureString(locationDescriptor["runtimeProfile"], "artifacts.locationDescriptor.runtimeProfile")
	if err != nil {
		return Outcome{}, err
	}
	if profile != runtimeProfile {
		return rejected("cross_lane_profile_mismatch"), nil
	}

	mutationOutcome, err := mutation(caseObj)
	if err != nil {
		return Outcome{}, err
	}
	mutationFailures := append([]string(nil), mutationOutcome.FailureClasses...)
	sort.Strings(mutationFailures)
	mutationFailures = dedupSorted(mutationFailures)
	if mutationOutcome.KernelVerdict != verdict {
		return rejected("cross_lane_kernel_verdict_mismatch"), nil
	}
	if !equalStringSlices(mutationFailures, classes) {
		return rejected("cross_lane_gate_failure_class_mismatch"), nil
	}
	return passthrough(verdict, classes), nil
}

func evaluateChangeProjectionInvariance(caseObj map[string]interface{}) (Outcome, error) {
	profile, err := ensureString(caseObj["profile"], "profile")
	if err != nil {
		return Outcome{}, err
	}
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	changedPaths, err := ensureStringList(artifacts["changedPaths"], "artifacts.changedPaths")
	if err != nil {
		return Outcome{}, err
	}
	expectedRequired, err := canonicalCheckSet(artifacts["expectedRequiredChecks"], "artifacts.expectedRequiredChecks")
	if err != nil {
		return Outcome{}, err
	}
	proj := projection.Project(changedPaths)
	actual := append([]string(nil), proj.RequiredChecks...)
	sort.Strings(actual)
	if !equalStringSlices(actual, expectedRequired) {
		return rejected("change_projection_mismatch"), nil
	}

	verdict, classes, err := kernelInput(artifacts)
	if err != nil {
		return Outcome{}, err
	}
	if profile != "local" {
		claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
		if err != nil {
			return Outcome{}, err
		}
		if !claimed[CapabilityChangeMorphisms] {
			return rejected("capability_not_claimed"), nil
		}
	}
	return passthrough(verdict, classes), nil
}

func evaluateProviderWrapperInvariance(caseObj map[string]interface{}) (Outcome, error) {
	profile, err := ensureString(caseObj["profile"], "profile")
	if err != nil {
		return Outcome{}, err
	}
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	changedPaths, err := ensureStringList(artifacts["changedPaths"], "artifacts.changedPaths")
	if err != nil {
		return Outcome{}, err
	}
	expectedRequired, err := canonicalCheckSet(artifacts["expectedRequiredChecks"], "artifacts.expectedRequiredChecks")
	if err != nil {
		return Outcome{}, err
	}
	proj := projection.Project(changedPaths)
	actual := append([]string(nil), proj.RequiredChecks...)
	sort.Strings(actual)
	if !equalStringSlices(actual, expectedRequired) {
		return rejected("change_projection_mismatch"), nil
	}

	expectedRefsRaw, err := ensureObject(artifacts["expectedRefs"], "artifacts.expectedRefs")
	if err != nil {
		return Outcome{}, err
	}
	expectedHead, err := ensureString(expectedRefsRaw["headRef"], "artifacts.expectedRefs.headRef")
	if err != nil {
		return Outcome{}, err
	}
	expectedBase := ""
	expectedHasBase := false
	if expectedRefsRaw["baseRef"] != nil {
		var ok bool
		expectedBase, ok = expectedRefsRaw["baseRef"].(string)
		if !ok {
			return Outcome{}, errors.New("artifacts.expectedRefs.baseRef must be null or string")
		}
		expectedHasBase = expectedBase != ""
	}
	expected := projection.CIRefs{BaseRef: expectedBase, HasBase: expectedHasBase, HeadRef: expectedHead}

	var actualRefs projection.CIRefs
	switch profile {
	case "local":
		localEnv, err := ensureStringMapping(artifacts["localEnv"], "artifacts.localEnv")
		if err != nil {
			return Outcome{}, err
		}
		actualRefs, err = projection.ResolveCIRefs(localEnv)
		if err != nil {
			return rejected("provider_env_mapping_mismatch"), nil
		}
	case "external":
		claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
		if err != nil {
			return Outcome{}, err
		}
		if !claimed[CapabilityChangeMorphisms] {
			return rejected("capability_not_claimed"), nil
		}
		githubEnv, err := ensureStringMapping(artifacts["githubEnv"], "artifacts.githubEnv")
		if err != nil {
			return Outcome{}, err
		}
		actualRefs, err = projection.ResolveCIRefs(projection.MapGitHubEnv(githubEnv))
		if err != nil {
			return rejected("provider_env_mapping_mismatch"), nil
		}
	default:
		return Outcome{}, errors.New("profile must be 'local' or 'external'")
	}
	if actualRefs != expected {
		return rejected("provider_env_mapping_mismatch"), nil
	}

	verdict, classes, err := kernelInput(artifacts)
	if err != nil {
		return Outcome{}, err
	}
	return passthrough(verdict, classes), nil
}

func evaluateIssueEventReplayInvariance(caseObj map[string]interface{}) (Outcome, error) {
	profile, err := ensureString(caseObj["profile"], "profile")
	if err != nil {
		return Outcome{}, err
	}
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	verdict, classes, err := kernelInput(artifacts)
	if err != nil {
		return Outcome{}, err
	}
	if profile != "local" {
		claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
		if err != nil {
			return Outcome{}, err
		}
		if !claimed[CapabilityChangeMorphisms] {
			return rejected("capability_not_claimed"), nil
		}
	}
	replayOutcome, err := evaluateIssueEventReplayCache(caseObj)
	if err != nil || replayOutcome.Result != "accepted" {
		return replayOutcome, err
	}
	return passthrough(verdict, classes), nil
}

// EvaluateChangeMorphisms dispatches one change_morphisms vector by id.
func EvaluateChangeMorphisms(vectorID string, caseObj map[string]interface{}) (Outcome, error) {
	switch vectorID {
	case "golden/docs_only_raw_runs_conformance_check",
		"golden/kernel_touch_runs_build_test_and_toys",
		"golden/conformance_touch_runs_conformance_and_toys",
		"golden/fallback_unknown_surface_runs_baseline",
		"golden/mixed_known_unknown_surface_runs_baseline":
		return evaluateChangeProjectionDocsAndCode(caseObj)
	case "golden/issue_claim_sets_in_progress_and_assignee",
		"golden/issue_claim_assigns_active_lease",
		"golden/issue_claim_reclaims_stale_lease",
		"adversarial/issue_claim_rejects_active_lease_contention",
		"adversarial/issue_claim_invalid_expiry_reject",
		"adversarial/issue_claim_invalid_ttl_reject",
		"invariance/same_issue_claim_contention_local",
		"invariance/same_issue_claim_contention_external":
		return evaluateIssueClaim(caseObj)
	case "golden/composed_issue_claim_sigpi_squeak_span_accept",
		"adversarial/composed_issue_claim_cross_lane_capability_missing_reject",
		"adversarial/composed_issue_claim_span_route_missing_reject":
		return evaluateChangeProjectionComposed(caseObj, evaluateIssueClaim)
	case "golden/issue_discover_preserves_existing_and_links_discovered_from",
		"adversarial/issue_discover_rejects_parent_missing":
		return evaluateIssueDiscover(caseObj)
	case "golden/issue_lease_renew_preserves_active_claim",
		"adversarial/issue_lease_renew_stale_reject",
		"invariance/same_issue_lease_renew_stale_local",
		"invariance/same_issue_lease_renew_stale_external":
		return evaluateIssueLeaseRenew(caseObj)
	case "golden/composed_issue_lease_renew_sigpi_squeak_span_accept",
		"adversarial/composed_issue_lease_renew_transport_ref_mismatch_reject":
		return evaluateChangeProjectionComposed(caseObj, evaluateIssueLeaseRenew)
	case "golden/issue_lease_release_reopens_issue",
		"adversarial/issue_lease_release_owner_mismatch_reject",
		"adversarial/issue_lease_release_id_mismatch_reject",
		"invariance/same_issue_lease_release_owner_mismatch_local",
		"invariance/same_issue_lease_release_owner_mismatch_external":
		return evaluateIssueLeaseRelease(caseObj)
	case "golden/issue_ready_blocked_partition_coherent",
		"adversarial/issue_ready_blocked_partition_mismatch_reject",
		"adversarial/issue_ready_blocked_set_mismatch_reject":
		return evaluateIssueReadyBlocked(caseObj)
	case "golden/issue_lease_projection_stale_and_contended",
		"adversarial/issue_lease_projection_mismatch_reject":
		return evaluateIssueLeaseProjection(caseObj)
	case "golden/issue_event_replay_cache_hit_stable",
		"adversarial/issue_event_replay_cache_ref_mismatch_reject":
		return evaluateIssueEventReplayCache(caseObj)
	case "golden/provider_env_mapping_github_equiv":
		return evaluateProviderEnvMapping(caseObj)
	case "invariance/same_provider_wrapper_local_env",
		"invariance/same_provider_wrapper_github_env":
		return evaluateProviderWrapperInvariance(caseObj)
	case "invariance/same_composed_issue_claim_sigpi_squeak_span_local",
		"invariance/same_composed_issue_claim_sigpi_squeak_span_external":
		return evaluateChangeProjectionComposedInvariance(caseObj, evaluateIssueClaim)
	case "invariance/same_composed_issue_lease_renew_sigpi_squeak_span_local",
		"invariance/same_composed_issue_lease_renew_sigpi_squeak_span_external":
		return evaluateChangeProjectionComposedInvariance(caseObj, evaluateIssueLeaseRenew)
	case "invariance/same_issue_event_replay_cache_local",
		"invariance/same_issue_event_replay_cache_external":
		return evaluateIssueEventReplayInvariance(caseObj)
	case "adversarial/change_morphisms_requires_claim":
		return requiresClaim(caseObj, "change_morphisms", CapabilityChangeMorphisms)
	}
	if strings.HasPrefix(vectorID, "invariance/") {
		return evaluateChangeProjectionInvariance(caseObj)
	}
	return Outcome{}, errors.Errorf("unsupported change_morphisms vector id: %s", vectorID)
}
