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

package contract

import (
	"encoding/json"
	"strings"
	"testing"
)

func kindFamily(canonical, alias string) map[string]interface{} {
	return map[string]interface{}{
		"canonicalKind": canonical,
		"compatibilityAliases": []interface{}{
			map[string]interface{}{
				"aliasKind":         alias,
				"supportUntilEpoch": "2026-06",
				"replacementKind":   canonical,
			},
		},
	}
}

func basePayload() map[string]interface{} {
	return map[string]interface{}{
		"schema":       1,
		"contractKind": "premath.control_plane.contract.v1",
		"contractId":   "control-plane.default.v1",
		"schemaLifecycle": map[string]interface{}{
			"activeEpoch": "2026-02",
			"governance": map[string]interface{}{
				"mode":                  "rollover",
				"decisionRef":           "decision-0105",
				"owner":                 "premath-core",
				"rolloverCadenceMonths": 6,
			},
			"kindFamilies": map[string]interface{}{
				"controlPlaneContractKind": kindFamily("premath.control_plane.contract.v1", "premath.control_plane.contract.v0"),
				"requiredWitnessKind":      kindFamily("ci.required.v1", "ci.required.v0"),
				"requiredDecisionKind":     kindFamily("ci.required.decision.v1", "ci.required.decision.v0"),
				"instructionWitnessKind":   kindFamily("ci.instruction.v1", "ci.instruction.v0"),
				"instructionPolicyKind":    kindFamily("ci.instruction.policy.v1", "ci.instruction.policy.v0"),
				"requiredProjectionPolicy": kindFamily("ci-topos-v0", "ci-topos-v0-preview"),
				"requiredDeltaKind":        kindFamily("ci.required.delta.v1", "ci.delta.v1"),
			},
		},
		"requiredGateProjection": map[string]interface{}{
			"projectionPolicy": "ci-topos-v0",
			"checkIds": map[string]interface{}{
				"baseline":         "baseline",
				"build":            "build",
				"test":             "test",
				"testToy":          "test-toy",
				"testKcirToy":      "test-kcir-toy",
				"conformanceCheck": "conformance-check",
				"conformanceRun":   "conformance-run",
				"doctrineCheck":    "doctrine-check",
			},
			"checkOrder": []interface{}{
				"baseline", "build", "test", "test-toy", "test-kcir-toy",
				"conformance-check", "conformance-run", "doctrine-check",
			},
		},
		"requiredWitness": map[string]interface{}{
			"witnessKind":  "ci.required.v1",
			"decisionKind": "ci.required.decision.v1",
		},
		"instructionWitness": map[string]interface{}{
			"witnessKind":        "ci.instruction.v1",
			"policyKind":         "ci.instruction.policy.v1",
			"policyDigestPrefix": "pol1_",
		},
		"harnessRetry": map[string]interface{}{
			"policyKind": "ci.harness.retry.policy.v1",
			"policyPath": "policies/control/harness-retry-policy-v1.json",
			"escalationActions": []interface{}{
				"issue_discover", "mark_blocked", "stop",
			},
			"activeIssueEnvKeys": []interface{}{
				"PREMATH_ACTIVE_ISSUE_ID", "PREMATH_ISSUE_ID",
			},
			"issuesPathEnvKey":   "PREMATH_ISSUES_PATH",
			"sessionPathEnvKey":  "PREMATH_HARNESS_SESSION_PATH",
			"sessionPathDefault": ".premath/harness_session.json",
			"sessionIssueField":  "issueId",
		},
		"workerLaneAuthority": map[string]interface{}{
			"mutationPolicy": map[string]interface{}{
				"defaultMode":  "instruction-linked",
				"allowedModes": []interface{}{"instruction-linked", "human-override"},
				"compatibilityOverrides": []interface{}{
					map[string]interface{}{
						"mode":              "human-override",
						"supportUntilEpoch": "2026-06",
						"requiresReason":    true,
					},
				},
			},
			"mutationRoutes": map[string]interface{}{
				"issueClaim":        "capabilities.change_morphisms.issue_claim",
				"issueLeaseRenew":   "capabilities.change_morphisms.issue_lease_renew",
				"issueLeaseRelease": "capabilities.change_morphisms.issue_lease_release",
				"issueDiscover":     "capabilities.change_morphisms.issue_discover",
			},
			"failureClasses": map[string]interface{}{
				"policyDrift":       "worker_lane_policy_drift",
				"mutationModeDrift": "worker_lane_mutation_mode_drift",
				"routeUnbound":      "worker_lane_route_unbound",
			},
		},
		"runtimeRouteBindings": map[string]interface{}{
			"requiredOperationRoutes": map[string]interface{}{
				"requiredDecision": map[string]interface{}{
					"operationId":       "premath.required.decision",
					"requiredMorphisms": []interface{}{"ctx.patch", "ctx.identity"},
				},
				"instructionDecision": map[string]interface{}{
					"operationId":       "premath.instruction.decision",
					"requiredMorphisms": []interface{}{"ctx.identity"},
				},
			},
			"failureClasses": map[string]interface{}{
				"missingRoute":    "runtime_route_missing",
				"morphismDrift":   "runtime_route_morphism_drift",
				"contractUnbound": "runtime_route_contract_unbound",
			},
		},
		"commandSurface": map[string]interface{}{
			"requiredDecision": map[string]interface{}{
				"canonicalEntrypoint":  []interface{}{"premath", "required", "decide"},
				"compatibilityAliases": []interface{}{[]interface{}{"premath", "ci", "required"}},
			},
			"instructionEnvelopeCheck": map[string]interface{}{
				"canonicalEntrypoint":  []interface{}{"premath", "instruction", "check"},
				"compatibilityAliases": []interface{}{},
			},
			"instructionDecision": map[string]interface{}{
				"canonicalEntrypoint":  []interface{}{"premath", "instruction", "decide"},
				"compatibilityAliases": []interface{}{},
			},
			"failureClasses": map[string]interface{}{
				"unbound": "command_surface_unbound",
			},
		},
		"controlPlaneBundleProfile": map[string]interface{}{
			"profileId": "cp.bundle.v0",
			"contextFamily": map[string]interface{}{
				"id": "C_cp",
				"contextKinds": []interface{}{
					"repo_head", "workspace_delta", "instruction_envelope",
					"policy_snapshot", "witness_projection",
				},
				"morphismKinds": []interface{}{
					"ctx.identity", "ctx.rebase", "ctx.patch", "ctx.policy_rollover",
				},
			},
			"artifactFamily": map[string]interface{}{
				"id": "E_cp",
				"artifactRefs": map[string]interface{}{
					"controlPlaneContract": "specs/premath/draft/CONTROL-PLANE-CONTRACT.json",
					"coherenceContract":    "specs/premath/draft/COHERENCE-CONTRACT.json",
					"capabilityRegistry":   "specs/premath/draft/CAPABILITY-REGISTRY.json",
					"doctrineSiteInput":    "specs/premath/draft/DOCTRINE-SITE-INPUT.json",
					"doctrineOpRegistry":   "specs/premath/draft/DOCTRINE-OP-REGISTRY.json",
				},
			},
			"reindexingCoherence": map[string]interface{}{
				"requiredObligations": []interface{}{
					"identity_preserved", "composition_preserved",
					"policy_digest_stable", "route_bindings_total",
				},
				"commutationWitness": "span_square_commutation",
			},
			"coverGlue": map[string]interface{}{
				"workerCoverKind":           "worktree_partition_cover",
				"mergeCompatibilityWitness": "span_square_commutation",
				"requiredMergeArtifacts": []interface{}{
					"ci.required.v1", "ci.instruction.v1", "coherence_witness",
				},
			},
			"authoritySplit": map[string]interface{}{
				"semanticAuthority":          []interface{}{"PREMATH-KERNEL", "GATE", "BIDIR-DESCENT"},
				"controlPlaneRole":           "projection_and_parity_only",
				"forbiddenControlPlaneRoles": []interface{}{"semantic_obligation_discharge", "admissibility_override"},
			},
		},
		"controlPlaneKcirMappings": map[string]interface{}{
			"profileId": "cp.kcir.map.v0",
			"mappingTable": map[string]interface{}{
				"instructionEnvelope": map[string]interface{}{
					"sourceKind":     "ci.instruction.v1",
					"targetDomain":   "kcir",
					"targetKind":     "kcir.instruction_envelope.v1",
					"identityFields": []interface{}{"instructionDigest", "normalizerId", "policyDigest"},
				},
				"proposalPayload": map[string]interface{}{
					"sourceKind":     "ci.instruction.proposal.v1",
					"targetDomain":   "kcir",
					"targetKind":     "kcir.proposal_payload.v1",
					"identityFields": []interface{}{"proposalDigest", "kcirRef"},
				},
				"coherenceCheckPayload": map[string]interface{}{
					"sourceKind":     "coherence_witness",
					"targetDomain":   "kcir",
					"targetKind":     "kcir.coherence_check.v1",
					"identityFields": []interface{}{"normalizerId", "policyDigest"},
				},
				"requiredDecisionInput": map[string]interface{}{
					"sourceKind":     "ci.required.decision.v1",
					"targetDomain":   "kcir",
					"targetKind":     "kcir.required_decision_input.v1",
					"identityFields": []interface{}{"requiredDigest", "decisionDigest"},
				},
				"coherenceObligations": map[string]interface{}{
					"sourceKind":     "coherence_obligation",
					"targetDomain":   "kcir",
					"targetKind":     "kcir.coherence_obligations.v1",
					"identityFields": []interface{}{"obligationDigest", "normalizerId", "policyDigest"},
				},
				"doctrineRouteBinding": map[string]interface{}{
					"sourceKind":     "doctrine_route",
					"targetDomain":   "kcir",
					"targetKind":     "kcir.doctrine_route_binding.v1",
					"identityFields": []interface{}{"operationId", "siteDigest", "policyDigest"},
				},
				"fiberLifecycleAction": map[string]interface{}{
					"sourceKind":     "issue_event",
					"targetDomain":   "kcir",
					"targetKind":     "kcir.fiber_lifecycle_action.v1",
					"identityFields": []interface{}{"issueId", "eventStreamRef"},
				},
			},
			"identityDigestLineage": map[string]interface{}{
				"digestAlgorithm":   "sha256",
				"refProfilePath":    "specs/premath/draft/REF-PROFILE.md",
				"normalizerField":   "normalizerId",
				"policyDigestField": "policyDigest",
			},
			"compatibilityPolicy": map[string]interface{}{
				"legacyNonKcirEncodings": map[string]interface{}{
					"mode":              "dual_emit",
					"authorityMode":     "forbidden",
					"supportUntilEpoch": "2026-06",
					"failureClass":      "kcir_mapping_legacy_encoding_authority_violation",
				},
			},
		},
		"evidenceStage1Parity": map[string]interface{}{
			"profileKind":               "ci.evidence.profile.v1",
			"authorityToTypedCoreRoute": "stage1.authority_to_typed_core",
			"comparisonTuple": map[string]interface{}{
				"authorityDigestRef": "authorityPayloadDigest",
				"typedCoreDigestRef": "typedCoreProjectionDigest",
				"normalizerIdRef":    "normalizerId",
				"policyDigestRef":    "policyDigest",
			},
			"failureClasses": map[string]interface{}{
				"missing":  "unification.evidence_stage1.parity.missing",
				"mismatch": "unification.evidence_stage1.parity.mismatch",
				"unbound":  "unification.evidence_stage1.parity.unbound",
			},
		},
		"evidenceStage1Rollback": map[string]interface{}{
			"profileKind": "ci.evidence.profile.v1",
			"witnessKind": "ci.evidence.rollback.v1",
			"fromStage":   "stage1",
			"toStage":     "stage0",
			"triggerFailureClasses": []interface{}{
				"unification.evidence_stage1.parity.missing",
				"unification.evidence_stage1.parity.mismatch",
				"unification.evidence_stage1.parity.unbound",
			},
			"identityRefs": map[string]interface{}{
				"authorityDigestRef":         "authorityPayloadDigest",
				"rollbackAuthorityDigestRef": "rollbackAuthorityPayloadDigest",
				"normalizerIdRef":            "normalizerId",
				"policyDigestRef":            "policyDigest",
			},
			"failureClasses": map[string]interface{}{
				"precondition":  "unification.evidence_stage1.rollback.precondition",
				"identityDrift": "unification.evidence_stage1.rollback.identity_drift",
				"unbound":       "unification.evidence_stage1.rollback.unbound",
			},
		},
	}
}

func withLaneRegistry(payload map[string]interface{}) map[string]interface{} {
	payload["evidenceLanes"] = map[string]interface{}{
		"semanticDoctrine":   "semantic_doctrine",
		"strictChecker":      "strict_checker",
		"witnessCommutation": "witness_commutation",
		"runtimeTransport":   "runtime_transport",
	}
	payload["laneArtifactKinds"] = map[string]interface{}{
		"semantic_doctrine":   []interface{}{"kernel_obligation"},
		"strict_checker":      []interface{}{"coherence_obligation"},
		"witness_commutation": []interface{}{"square_witness"},
		"runtime_transport":   []interface{}{"squeak_site_witness"},
	}
	payload["laneOwnership"] = map[string]interface{}{
		"checkerCoreOnlyObligations": []interface{}{"cwf_substitution_identity"},
		"requiredCrossLaneWitnessRoute": map[string]interface{}{
			"pullbackBaseChange": "span_square_commutation",
		},
	}
	payload["laneFailureClasses"] = []interface{}{
		"lane_unknown", "lane_kind_unbound", "lane_ownership_violation", "lane_route_missing",
	}
	return payload
}

func withStage2(payload map[string]interface{}) map[string]interface{} {
	payload["evidenceStage2Authority"] = map[string]interface{}{
		"profileKind": "ci.evidence.profile.v1",
		"activeStage": "stage2",
		"typedAuthority": map[string]interface{}{
			"kindRef":         "typedCoreProjectionKind",
			"digestRef":       "typedCoreProjectionDigest",
			"normalizerIdRef": "normalizerId",
			"policyDigestRef": "policyDigest",
		},
		"compatibilityAlias": map[string]interface{}{
			"kindRef":           "authorityPayloadKind",
			"digestRef":         "authorityPayloadDigest",
			"role":              "projection_only",
			"supportUntilEpoch": "2026-06",
		},
		"bidirEvidenceRoute": map[string]interface{}{
			"routeKind":          "direct_checker_discharge",
			"obligationFieldRef": "bidirCheckerObligations",
			"requiredObligations": []interface{}{
				"stability", "locality", "descent_exists", "descent_contractible",
				"adjoint_triple", "ext_gap", "ext_ambiguous",
			},
			"failureClasses": map[string]interface{}{
				"missing": "unification.evidence_stage2.kernel_compliance_missing",
				"drift":   "unification.evidence_stage2.kernel_compliance_drift",
			},
		},
		"failureClasses": map[string]interface{}{
			"authorityAliasViolation": "unification.evidence_stage2.authority_alias_violation",
			"aliasWindowViolation":    "unification.evidence_stage2.alias_window_violation",
			"unbound":                 "unification.evidence_stage2.unbound",
		},
	}
	return payload
}

func loadPayload(t *testing.T, payload map[string]interface{}) (*Contract, error) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	return Load(raw)
}

func mustLoad(t *testing.T, payload map[string]interface{}) *Contract {
	t.Helper()
	c, err := loadPayload(t, payload)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return c
}

func expectLoadError(t *testing.T, payload map[string]interface{}, fragment string) {
	t.Helper()
	_, err := loadPayload(t, payload)
	if err == nil {
		t.Fatalf("Expected load error containing %q", fragment)
	}
	if !strings.Contains(err.Error(), fragment) {
		t.Errorf("Expected error containing %q, got %q", fragment, err.Error())
	}
}

func TestLoadAcceptsLaneRegistryExtension(t *testing.T) {
	c := mustLoad(t, withLaneRegistry(basePayload()))
	if c.EvidenceLanes["semanticDoctrine"] != "semantic_doctrine" {
		t.Errorf("Unexpected lane binding: %v", c.EvidenceLanes)
	}
	if c.LaneOwnership.RequiredCrossLaneRoute != "span_square_commutation" {
		t.Errorf("Unexpected cross-lane route: %q", c.LaneOwnership.RequiredCrossLaneRoute)
	}
	if c.SchemaLifecycle.EpochDiscipline.RolloverEpoch != "2026-06" {
		t.Errorf("Unexpected rollover epoch: %q", c.SchemaLifecycle.EpochDiscipline.RolloverEpoch)
	}
	if c.SchemaLifecycle.EpochDiscipline.AliasRunwayMonths != 4 {
		t.Errorf("Unexpected alias runway: %d", c.SchemaLifecycle.EpochDiscipline.AliasRunwayMonths)
	}
	if c.SchemaLifecycle.Governance.Mode != "rollover" || c.SchemaLifecycle.Governance.RolloverCadenceMonths != 6 {
		t.Errorf("Unexpected governance: %+v", c.SchemaLifecycle.Governance)
	}
	if c.HarnessRetry.SessionPathEnvKey != "PREMATH_HARNESS_SESSION_PATH" {
		t.Errorf("Unexpected harness retry session key: %q", c.HarnessRetry.SessionPathEnvKey)
	}
}

func TestLoadRejectsDuplicateLaneIDs(t *testing.T) {
	payload := withLaneRegistry(basePayload())
	payload["evidenceLanes"].(map[string]interface{})["runtimeTransport"] = "strict_checker"
	expectLoadError(t, payload, "evidenceLanes values must not contain duplicates")
}

func TestLoadRejectsUnknownLaneArtifactMapping(t *testing.T) {
	payload := withLaneRegistry(basePayload())
	payload["laneArtifactKinds"].(map[string]interface{})["unknown_lane"] = []interface{}{"opaque_kind"}
	expectLoadError(t, payload, "laneArtifactKinds keys must be subset")
}

func TestResolveSchemaKindAliasWindow(t *testing.T) {
	c := mustLoad(t, basePayload())

	resolved, err := c.ResolveSchemaKind("requiredWitnessKind", "ci.required.v0", "2026-06")
	if err != nil {
		t.Fatalf("ResolveSchemaKind returned error: %v", err)
	}
	if resolved != "ci.required.v1" {
		t.Errorf("Expected canonical kind, got %q", resolved)
	}

	if _, err := c.ResolveSchemaKind("requiredWitnessKind", "ci.required.v0", "2026-07"); err == nil {
		t.Fatal("Expected expired-alias rejection")
	} else if !strings.Contains(err.Error(), "expired") {
		t.Errorf("Expected expiry error, got %q", err.Error())
	}

	canonical, err := c.CanonicalSchemaKind("requiredProjectionPolicy")
	if err != nil {
		t.Fatalf("CanonicalSchemaKind returned error: %v", err)
	}
	if canonical != "ci-topos-v0" {
		t.Errorf("Unexpected canonical projection policy: %q", canonical)
	}
	// The canonical kind is a fixed point of resolution.
	again, err := c.ResolveSchemaKind("requiredProjectionPolicy", canonical, "")
	if err != nil {
		t.Fatalf("ResolveSchemaKind returned error: %v", err)
	}
	if again != canonical {
		t.Errorf("Canonical kind must resolve to itself, got %q", again)
	}
}

func TestLoadRejectsMixedRolloverEpochs(t *testing.T) {
	payload := basePayload()
	family := payload["schemaLifecycle"].(map[string]interface{})["kindFamilies"].(map[string]interface{})["requiredWitnessKind"].(map[string]interface{})
	family["compatibilityAliases"].([]interface{})[0].(map[string]interface{})["supportUntilEpoch"] = "2026-07"
	expectLoadError(t, payload, "one shared supportUntilEpoch")
}

func TestLoadRejectsRolloverRunwayTooLarge(t *testing.T) {
	payload := basePayload()
	families := payload["schemaLifecycle"].(map[string]interface{})["kindFamilies"].(map[string]interface{})
	for _, famRaw := range families {
		fam := famRaw.(map[string]interface{})
		for _, aliasRaw := range fam["compatibilityAliases"].([]interface{}) {
			aliasRaw.(map[string]interface{})["supportUntilEpoch"] = "2027-03"
		}
	}
	expectLoadError(t, payload, "max runway")
}

func TestLoadRejectsDuplicateEscalationActions(t *testing.T) {
	payload := basePayload()
	payload["harnessRetry"].(map[string]interface{})["escalationActions"] = []interface{}{
		"issue_discover", "issue_discover",
	}
	expectLoadError(t, payload, "must not contain duplicates")
}

func TestLoadRejectsRolloverWithoutCadence(t *testing.T) {
	payload := basePayload()
	delete(payload["schemaLifecycle"].(map[string]interface{})["governance"].(map[string]interface{}), "rolloverCadenceMonths")
	expectLoadError(t, payload, "rolloverCadenceMonths")
}

func TestLoadFreezeGovernance(t *testing.T) {
	payload := basePayload()
	payload["schemaLifecycle"].(map[string]interface{})["governance"] = map[string]interface{}{
		"mode":         "freeze",
		"decisionRef":  "decision-0105",
		"owner":        "premath-core",
		"freezeReason": "release-freeze",
	}
	expectLoadError(t, payload, "mode=freeze requires no active compatibility aliases")

	families := payload["schemaLifecycle"].(map[string]interface{})["kindFamilies"].(map[string]interface{})
	for _, famRaw := range families {
		famRaw.(map[string]interface{})["compatibilityAliases"] = []interface{}{}
	}
	c := mustLoad(t, payload)
	if c.SchemaLifecycle.Governance.Mode != "freeze" || c.SchemaLifecycle.Governance.FreezeReason != "release-freeze" {
		t.Errorf("Unexpected freeze governance: %+v", c.SchemaLifecycle.Governance)
	}
}

func TestLoadRejectsExpiredWorkerOverride(t *testing.T) {
	payload := basePayload()
	policy := payload["workerLaneAuthority"].(map[string]interface{})["mutationPolicy"].(map[string]interface{})
	policy["compatibilityOverrides"].([]interface{})[0].(map[string]interface{})["supportUntilEpoch"] = "2026-01"
	expectLoadError(t, payload, "expired at supportUntilEpoch")
}

func TestLoadRejectsNonCanonicalWorkerDefaultMode(t *testing.T) {
	payload := basePayload()
	policy := payload["workerLaneAuthority"].(map[string]interface{})["mutationPolicy"].(map[string]interface{})
	policy["defaultMode"] = "human-override"
	expectLoadError(t, payload, "defaultMode must be `instruction-linked`")
}

func TestLoadRejectsCheckOrderMismatch(t *testing.T) {
	payload := basePayload()
	payload["requiredGateProjection"].(map[string]interface{})["checkOrder"] = []interface{}{
		"baseline", "build",
	}
	expectLoadError(t, payload, "checkOrder must cover exactly")
}

func TestLoadStage2Authority(t *testing.T) {
	c := mustLoad(t, withStage2(basePayload()))
	if c.Stage2Authority == nil {
		t.Fatal("Expected a stage-2 authority record")
	}
	if len(c.Stage2Authority.BidirEvidenceRoute.RequiredObligations) != len(Stage2RequiredKernelObligations) {
		t.Errorf("Unexpected obligations: %v", c.Stage2Authority.BidirEvidenceRoute.RequiredObligations)
	}

	payload := withStage2(basePayload())
	stage2 := payload["evidenceStage2Authority"].(map[string]interface{})
	stage2["compatibilityAlias"].(map[string]interface{})["supportUntilEpoch"] = "2026-05"
	expectLoadError(t, payload, "supportUntilEpoch must match schemaLifecycle.epochDiscipline.rolloverEpoch")
}

func TestLoadRejectsAliasEqualToCanonicalEntrypoint(t *testing.T) {
	payload := basePayload()
	surface := payload["commandSurface"].(map[string]interface{})["requiredDecision"].(map[string]interface{})
	surface["compatibilityAliases"] = []interface{}{[]interface{}{"premath", "required", "decide"}}
	expectLoadError(t, payload, "must not include canonicalEntrypoint")
}

func TestLoadTwiceYieldsEqualContracts(t *testing.T) {
	raw, err := json.Marshal(withStage2(withLaneRegistry(basePayload())))
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	first, err := Load(raw)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	second, err := Load(raw)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Error("Loading the same bytes twice produced structurally different contracts")
	}
}
