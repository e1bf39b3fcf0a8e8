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

package drift

// contractFixture is a complete, valid control-plane contract payload with
// the lane registry extension, used to ground the sentinel tests.
func contractFixture() []byte {
	return []byte(`{
  "schema": 1,
  "contractKind": "premath.control_plane.contract.v1",
  "contractId": "control-plane.default.v1",
  "schemaLifecycle": {
    "activeEpoch": "2026-02",
    "governance": {
      "mode": "rollover",
      "decisionRef": "decision-0105",
      "owner": "premath-core",
      "rolloverCadenceMonths": 6
    },
    "kindFamilies": {
      "controlPlaneContractKind": {
        "canonicalKind": "premath.control_plane.contract.v1",
        "compatibilityAliases": [
          {"aliasKind": "premath.control_plane.contract.v0", "supportUntilEpoch": "2026-06", "replacementKind": "premath.control_plane.contract.v1"}
        ]
      },
      "requiredWitnessKind": {
        "canonicalKind": "ci.required.v1",
        "compatibilityAliases": [
          {"aliasKind": "ci.required.v0", "supportUntilEpoch": "2026-06", "replacementKind": "ci.required.v1"}
        ]
      },
      "requiredDecisionKind": {
        "canonicalKind": "ci.required.decision.v1",
        "compatibilityAliases": [
          {"aliasKind": "ci.required.decision.v0", "supportUntilEpoch": "2026-06", "replacementKind": "ci.required.decision.v1"}
        ]
      },
      "instructionWitnessKind": {
        "canonicalKind": "ci.instruction.v1",
        "compatibilityAliases": [
          {"aliasKind": "ci.instruction.v0", "supportUntilEpoch": "2026-06", "replacementKind": "ci.instruction.v1"}
        ]
      },
      "instructionPolicyKind": {
        "canonicalKind": "ci.instruction.policy.v1",
        "compatibilityAliases": [
          {"aliasKind": "ci.instruction.policy.v0", "supportUntilEpoch": "2026-06", "replacementKind": "ci.instruction.policy.v1"}
        ]
      },
      "requiredProjectionPolicy": {
        "canonicalKind": "ci-topos-v0",
        "compatibilityAliases": [
          {"aliasKind": "ci-topos-v0-preview", "supportUntilEpoch": "2026-06", "replacementKind": "ci-topos-v0"}
        ]
      },
      "requiredDeltaKind": {
        "canonicalKind": "ci.required.delta.v1",
        "compatibilityAliases": [
          {"aliasKind": "ci.delta.v1", "supportUntilEpoch": "2026-06", "replacementKind": "ci.required.delta.v1"}
        ]
      }
    }
  },
  "requiredGateProjection": {
    "projectionPolicy": "ci-topos-v0",
    "checkIds": {
      "baseline": "baseline",
      "build": "build",
      "test": "test",
      "testToy": "test-toy",
      "testKcirToy": "test-kcir-toy",
      "conformanceCheck": "conformance-check",
      "conformanceRun": "conformance-run",
      "doctrineCheck": "doctrine-check"
    },
    "checkOrder": ["baseline", "build", "test", "test-toy", "test-kcir-toy", "conformance-check", "conformance-run", "doctrine-check"]
  },
  "requiredWitness": {"witnessKind": "ci.required.v1", "decisionKind": "ci.required.decision.v1"},
  "instructionWitness": {"witnessKind": "ci.instruction.v1", "policyKind": "ci.instruction.policy.v1", "policyDigestPrefix": "pol1_"},
  "harnessRetry": {
    "policyKind": "ci.harness.retry.policy.v1",
    "policyPath": "policies/control/harness-retry-policy-v1.json",
    "escalationActions": ["issue_discover", "mark_blocked", "stop"],
    "activeIssueEnvKeys": ["PREMATH_ACTIVE_ISSUE_ID", "PREMATH_ISSUE_ID"],
    "issuesPathEnvKey": "PREMATH_ISSUES_PATH",
    "sessionPathEnvKey": "PREMATH_HARNESS_SESSION_PATH",
    "sessionPathDefault": ".premath/harness_session.json",
    "sessionIssueField": "issueId"
  },
  "workerLaneAuthority": {
    "mutationPolicy": {
      "defaultMode": "instruction-linked",
      "allowedModes": ["instruction-linked", "human-override"],
      "compatibilityOverrides": [
        {"mode": "human-override", "supportUntilEpoch": "2026-06", "requiresReason": true}
      ]
    },
    "mutationRoutes": {
      "issueClaim": "capabilities.change_morphisms.issue_claim",
      "issueLeaseRenew": "capabilities.change_morphisms.issue_lease_renew",
      "issueLeaseRelease": "capabilities.change_morphisms.issue_lease_release",
      "issueDiscover": "capabilities.change_morphisms.issue_discover"
    },
    "failureClasses": {
      "policyDrift": "worker_lane_policy_drift",
      "mutationModeDrift": "worker_lane_mutation_mode_drift",
      "routeUnbound": "worker_lane_route_unbound"
    }
  },
  "runtimeRouteBindings": {
    "requiredOperationRoutes": {
      "requiredDecision": {"operationId": "premath.required.decision", "requiredMorphisms": ["ctx.patch", "ctx.identity"]},
      "instructionDecision": {"operationId": "premath.instruction.decision", "requiredMorphisms": ["ctx.identity"]}
    },
    "failureClasses": {
      "missingRoute": "runtime_route_missing",
      "morphismDrift": "runtime_route_morphism_drift",
      "contractUnbound": "runtime_route_contract_unbound"
    }
  },
  "commandSurface": {
    "requiredDecision": {
      "canonicalEntrypoint": ["premath", "required", "decide"],
      "compatibilityAliases": [["premath", "ci", "required"]]
    },
    "instructionEnvelopeCheck": {
      "canonicalEntrypoint": ["premath", "instruction", "check"],
      "compatibilityAliases": []
    },
    "instructionDecision": {
      "canonicalEntrypoint": ["premath", "instruction", "decide"],
      "compatibilityAliases": []
    },
    "failureClasses": {"unbound": "command_surface_unbound"}
  },
  "controlPlaneBundleProfile": {
    "profileId": "cp.bundle.v0",
    "contextFamily": {
      "id": "C_cp",
      "contextKinds": ["repo_head", "workspace_delta", "instruction_envelope", "policy_snapshot", "witness_projection"],
      "morphismKinds": ["ctx.identity", "ctx.rebase", "ctx.patch", "ctx.policy_rollover"]
    },
    "artifactFamily": {
      "id": "E_cp",
      "artifactRefs": {
        "controlPlaneContract": "specs/premath/draft/CONTROL-PLANE-CONTRACT.json",
        "coherenceContract": "specs/premath/draft/COHERENCE-CONTRACT.json",
        "capabilityRegistry": "specs/premath/draft/CAPABILITY-REGISTRY.json",
        "doctrineSiteInput": "specs/premath/draft/DOCTRINE-SITE-INPUT.json",
        "doctrineOpRegistry": "specs/premath/draft/DOCTRINE-OP-REGISTRY.json"
      }
    },
    "reindexingCoherence": {
      "requiredObligations": ["identity_preserved", "composition_preserved", "policy_digest_stable", "route_bindings_total"],
      "commutationWitness": "span_square_commutation"
    },
    "coverGlue": {
      "workerCoverKind": "worktree_partition_cover",
      "mergeCompatibilityWitness": "span_square_commutation",
      "requiredMergeArtifacts": ["ci.required.v1", "ci.instruction.v1", "coherence_witness"]
    },
    "authoritySplit": {
      "semanticAuthority": ["PREMATH-KERNEL", "GATE", "BIDIR-DESCENT"],
      "controlPlaneRole": "projection_and_parity_only",
      "forbiddenControlPlaneRoles": ["semantic_obligation_discharge", "admissibility_override"]
    }
  },
  "controlPlaneKcirMappings": {
    "profileId": "cp.kcir.map.v0",
    "mappingTable": {
      "instructionEnvelope": {"sourceKind": "ci.instruction.v1", "targetDomain": "kcir", "targetKind": "kcir.instruction_envelope.v1", "identityFields": ["instructionDigest", "normalizerId", "policyDigest"]},
      "proposalPayload": {"sourceKind": "ci.instruction.proposal.v1", "targetDomain": "kcir", "targetKind": "kcir.proposal_payload.v1", "identityFields": ["proposalDigest", "kcirRef"]},
      "coherenceCheckPayload": {"sourceKind": "coherence_witness", "targetDomain": "kcir", "targetKind": "kcir.coherence_check.v1", "identityFields": ["normalizerId", "policyDigest"]},
      "requiredDecisionInput": {"sourceKind": "ci.required.decision.v1", "targetDomain": "kcir", "targetKind": "kcir.required_decision_input.v1", "identityFields": ["requiredDigest", "decisionDigest"]},
      "coherenceObligations": {"sourceKind": "coherence_obligation", "targetDomain": "kcir", "targetKind": "kcir.coherence_obligations.v1", "identityFields": ["obligationDigest", "normalizerId", "policyDigest"]},
      "doctrineRouteBinding": {"sourceKind": "doctrine_route", "targetDomain": "kcir", "targetKind": "kcir.doctrine_route_binding.v1", "identityFields": ["operationId", "siteDigest", "policyDigest"]},
      "fiberLifecycleAction": {"sourceKind": "issue_event", "targetDomain": "kcir", "targetKind": "kcir.fiber_lifecycle_action.v1", "identityFields": ["issueId", "eventStreamRef"]}
    },
    "identityDigestLineage": {
      "digestAlgorithm": "sha256",
      "refProfilePath": "specs/premath/draft/REF-PROFILE.md",
      "normalizerField": "normalizerId",
      "policyDigestField": "policyDigest"
    },
    "compatibilityPolicy": {
      "legacyNonKcirEncodings": {
        "mode": "dual_emit",
        "authorityMode": "forbidden",
        "supportUntilEpoch": "2026-06",
        "failureClass": "kcir_mapping_legacy_encoding_authority_violation"
      }
    }
  },
  "evidenceLanes": {
    "semanticDoctrine": "semantic_doctrine",
    "strictChecker": "strict_checker",
    "witnessCommutation": "witness_commutation",
    "runtimeTransport": "runtime_transport"
  },
  "laneArtifactKinds": {
    "semantic_doctrine": ["kernel_obligation"],
    "strict_checker": ["coherence_obligation"],
    "witness_commutation": ["square_witness"],
    "runtime_transport": ["squeak_site_witness"]
  },
  "laneOwnership": {
    "checkerCoreOnlyObligations": ["cwf_substitution_identity"],
    "requiredCrossLaneWitnessRoute": {"pullbackBaseChange": "span_square_commutation"}
  },
  "laneFailureClasses": ["lane_unknown", "lane_kind_unbound", "lane_ownership_violation", "lane_route_missing"],
  "evidenceStage1Parity": {
    "profileKind": "ci.evidence.profile.v1",
    "authorityToTypedCoreRoute": "stage1.authority_to_typed_core",
    "comparisonTuple": {
      "authorityDigestRef": "authorityPayloadDigest",
      "typedCoreDigestRef": "typedCoreProjectionDigest",
      "normalizerIdRef": "normalizerId",
      "policyDigestRef": "policyDigest"
    },
    "failureClasses": {
      "missing": "unification.evidence_stage1.parity.missing",
      "mismatch": "unification.evidence_stage1.parity.mismatch",
      "unbound": "unification.evidence_stage1.parity.unbound"
    }
  },
  "evidenceStage1Rollback": {
    "profileKind": "ci.evidence.profile.v1",
    "witnessKind": "ci.evidence.rollback.v1",
    "fromStage": "stage1",
    "toStage": "stage0",
    "triggerFailureClasses": [
      "unification.evidence_stage1.parity.missing",
      "unification.evidence_stage1.parity.mismatch",
      "unification.evidence_stage1.parity.unbound"
    ],
    "identityRefs": {
      "authorityDigestRef": "authorityPayloadDigest",
      "rollbackAuthorityDigestRef": "rollbackAuthorityPayloadDigest",
      "normalizerIdRef": "normalizerId",
      "policyDigestRef": "policyDigest"
    },
    "failureClasses": {
      "precondition": "unification.evidence_stage1.rollback.precondition",
      "identityDrift": "unification.evidence_stage1.rollback.identity_drift",
      "unbound": "unification.evidence_stage1.rollback.unbound"
    }
  }
}`)
}
