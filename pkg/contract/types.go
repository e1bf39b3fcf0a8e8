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

// Package contract loads the single governance contract into a fully typed,
// fully validated value. Loading is fail-fast: the first violation wins and
// its message names the offending JSON path. A loaded Contract is immutable;
// callers cache one instance per evaluation.
package contract

// ContractKind is the canonical control-plane contract kind.
const ContractKind = "premath.control_plane.contract.v1"

// MaxAliasRunwayMonths bounds every compatibility-alias support window.
const MaxAliasRunwayMonths = 12

// RequiredKindFamilies is the closed set of schema-lifecycle kind families.
var RequiredKindFamilies = []string{
	"controlPlaneContractKind",
	"requiredWitnessKind",
	"requiredDecisionKind",
	"instructionWitnessKind",
	"instructionPolicyKind",
	"requiredProjectionPolicy",
	"requiredDeltaKind",
}

// Canonical worker-lane constants.
const WorkerDefaultMutationMode = "instruction-linked"

var WorkerAllowedMutationModes = []string{"instruction-linked", "human-override"}

var WorkerMutationRouteBindings = map[string]string{
	"issueClaim":        "capabilities.change_morphisms.issue_claim",
	"issueLeaseRenew":   "capabilities.change_morphisms.issue_lease_renew",
	"issueLeaseRelease": "capabilities.change_morphisms.issue_lease_release",
	"issueDiscover":     "capabilities.change_morphisms.issue_discover",
}

var workerFailureClasses = [3]string{
	"worker_lane_policy_drift",
	"worker_lane_mutation_mode_drift",
	"worker_lane_route_unbound",
}

// Canonical stage tuples.
var stage1ParityFailureClasses = [3]string{
	"unification.evidence_stage1.parity.missing",
	"unification.evidence_stage1.parity.mismatch",
	"unification.evidence_stage1.parity.unbound",
}

var stage1RollbackFailureClasses = [3]string{
	"unification.evidence_stage1.rollback.precondition",
	"unification.evidence_stage1.rollback.identity_drift",
	"unification.evidence_stage1.rollback.unbound",
}

var stage2AuthorityFailureClasses = [3]string{
	"unification.evidence_stage2.authority_alias_violation",
	"unification.evidence_stage2.alias_window_violation",
	"unification.evidence_stage2.unbound",
}

var stage2KernelComplianceFailureClasses = [2]string{
	"unification.evidence_stage2.kernel_compliance_missing",
	"unification.evidence_stage2.kernel_compliance_drift",
}

// Stage2RequiredKernelObligations is the canonical bidirectional obligation
// set the stage-2 evidence route must carry.
var Stage2RequiredKernelObligations = []string{
	"stability",
	"locality",
	"descent_exists",
	"descent_contractible",
	"adjoint_triple",
	"ext_gap",
	"ext_ambiguous",
}

const (
	stage2CompatibilityAliasRole       = "projection_only"
	stage2BidirEvidenceRouteKind       = "direct_checker_discharge"
	stage2BidirEvidenceObligationField = "bidirCheckerObligations"
	stage2BidirEvidenceFallbackMode    = "profile_gated_sentinel"
)

var runtimeRouteFailureClassKeys = []string{"missingRoute", "morphismDrift", "contractUnbound"}

// RequiredCommandSurfaceIDs is the closed set of canonical command surfaces.
var RequiredCommandSurfaceIDs = []string{
	"requiredDecision",
	"instructionEnvelopeCheck",
	"instructionDecision",
}

// Bundle-profile closed sets.
const (
	BundleProfileID        = "cp.bundle.v0"
	bundleContextFamilyID  = "C_cp"
	bundleArtifactFamilyID = "E_cp"
	bundleCommutation      = "span_square_commutation"
	bundleWorkerCoverKind  = "worktree_partition_cover"
	bundleControlPlaneRole = "projection_and_parity_only"
)

var bundleContextKinds = []string{
	"repo_head",
	"workspace_delta",
	"instruction_envelope",
	"policy_snapshot",
	"witness_projection",
}

var bundleMorphismKinds = []string{
	"ctx.identity",
	"ctx.rebase",
	"ctx.patch",
	"ctx.policy_rollover",
}

var bundleArtifactRefs = map[string]string{
	"controlPlaneContract": "specs/premath/draft/CONTROL-PLANE-CONTRACT.json",
	"coherenceContract":    "specs/premath/draft/COHERENCE-CONTRACT.json",
	"capabilityRegistry":   "specs/premath/draft/CAPABILITY-REGISTRY.json",
	"doctrineSiteInput":    "specs/premath/draft/DOCTRINE-SITE-INPUT.json",
	"doctrineOpRegistry":   "specs/premath/draft/DOCTRINE-OP-REGISTRY.json",
}

var bundleReindexingObligations = []string{
	"identity_preserved",
	"composition_preserved",
	"policy_digest_stable",
	"route_bindings_total",
}

var bundleRequiredMergeArtifacts = []string{
	"ci.required.v1",
	"ci.instruction.v1",
	"coherence_witness",
}

// BundleSemanticAuthority is the closed semantic-authority lane set.
var BundleSemanticAuthority = []string{"PREMATH-KERNEL", "GATE", "BIDIR-DESCENT"}

var bundleForbiddenRoles = []string{
	"semantic_obligation_discharge",
	"admissibility_override",
}

// Alias is one compatibility alias inside a kind family.
type Alias struct {
	SupportUntilEpoch string
	ReplacementKind   string
}

// KindFamily declares the canonical kind and its alias window.
type KindFamily struct {
	CanonicalKind string
	Aliases       map[string]Alias
}

// Governance is the schema-lifecycle governance record.
type Governance struct {
	Mode                  string
	DecisionRef           string
	Owner                 string
	RolloverCadenceMonths int  // zero when mode=freeze
	FreezeReason          string // empty when mode=rollover
}

// EpochDiscipline is derived from the alias windows across families.
type EpochDiscipline struct {
	RolloverEpoch        string // empty when no aliases are active
	AliasRunwayMonths    int
	MaxAliasRunwayMonths int
}

// SchemaLifecycle groups epoch and kind-family state.
type SchemaLifecycle struct {
	ActiveEpoch     string
	Governance      Governance
	KindFamilies    map[string]KindFamily
	EpochDiscipline EpochDiscipline
}

// LaneOwnership pins checker-core-only obligations and the required
// cross-lane witness route.
type LaneOwnership struct {
	CheckerCoreOnlyObligations []string
	RequiredCrossLaneRoute     string
}

// MutationOverride is a per-mode compatibility override with an epoch window.
type MutationOverride struct {
	Mode              string
	SupportUntilEpoch string
	RequiresReason    bool
}

// WorkerLaneAuthority is the worker mutation-policy block.
type WorkerLaneAuthority struct {
	DefaultMode    string
	AllowedModes   []string
	Overrides      []MutationOverride
	MutationRoutes map[string]string
	FailureClasses WorkerFailureClasses
}

// WorkerFailureClasses is the canonical worker-lane failure triple.
type WorkerFailureClasses struct {
	PolicyDrift       string
	MutationModeDrift string
	RouteUnbound      string
}

// RouteBinding binds one runtime route to its operation and morphisms.
type RouteBinding struct {
	OperationID       string
	RequiredMorphisms []string
}

// RuntimeRouteBindings is the runtime route registry plus its closed
// failure-class triple.
type RuntimeRouteBindings struct {
	Routes         map[string]RouteBinding
	FailureClasses RouteFailureClasses
}

// RouteFailureClasses is the canonical runtime-route failure triple.
type RouteFailureClasses struct {
	MissingRoute    string
	MorphismDrift   string
	ContractUnbound string
}

// SurfaceBinding is one command surface: a canonical entrypoint token list
// plus sorted unique aliases, none equal to canonical.
type SurfaceBinding struct {
	CanonicalEntrypoint []string
	CompatibilityAliases [][]string
}

// CommandSurface holds the three canonical surfaces and their failure class.
type CommandSurface struct {
	Surfaces            map[string]SurfaceBinding
	UnboundFailureClass string
}

// HarnessRetry mirrors the contract's harness retry loader constants.
type HarnessRetry struct {
	PolicyKind         string
	PolicyPath         string
	EscalationActions  []string
	ActiveIssueEnvKeys []string
	IssuesPathEnvKey   string
	SessionPathEnvKey  string
	SessionPathDefault string
	SessionIssueField  string
}

// RequiredGateProjection is the projected check-id table and its order.
type RequiredGateProjection struct {
	ProjectionPolicy string
	CheckIDs         map[string]string
	CheckOrder       []string
}

// RequiredWitnessKinds resolves the required witness/decision kinds.
type RequiredWitnessKinds struct {
	WitnessKind  string
	DecisionKind string
}

// InstructionWitnessKinds resolves the instruction witness/policy kinds.
type InstructionWitnessKinds struct {
	WitnessKind        string
	PolicyKind         string
	PolicyDigestPrefix string
}

// Stage1Parity is the stage-1 authority/typed-core parity record.
type Stage1Parity struct {
	ProfileKind              string
	AuthorityToTypedCoreRoute string
	ComparisonTuple          ComparisonTuple
	FailureClasses           Stage1ParityFailureClasses
}

// ComparisonTuple names the four refs stage-1 parity compares.
type ComparisonTuple struct {
	AuthorityDigestRef string
	TypedCoreDigestRef string
	NormalizerIDRef    string
	PolicyDigestRef    string
}

// Stage1ParityFailureClasses is the canonical parity failure triple.
type Stage1ParityFailureClasses struct {
	Missing  string
	Mismatch string
	Unbound  string
}

// Stage1Rollback is the stage-1 -> stage-0 rollback record.
type Stage1Rollback struct {
	ProfileKind           string
	WitnessKind           string
	FromStage             string
	ToStage               string
	TriggerFailureClasses []string
	IdentityRefs          RollbackIdentityRefs
	FailureClasses        Stage1RollbackFailureClasses
}

// RollbackIdentityRefs names the identity refs a rollback must preserve.
type RollbackIdentityRefs struct {
	AuthorityDigestRef         string
	RollbackAuthorityDigestRef string
	NormalizerIDRef            string
	PolicyDigestRef            string
}

// Stage1RollbackFailureClasses is the canonical rollback failure triple.
type Stage1RollbackFailureClasses struct {
	Precondition  string
	IdentityDrift string
	Unbound       string
}

// Stage2Authority is the stage-2 typed-authority record.
type Stage2Authority struct {
	ProfileKind       string
	ActiveStage       string
	TypedAuthority    AuthorityRefs
	CompatibilityAlias Stage2Alias
	BidirEvidenceRoute BidirEvidenceRoute
	FailureClasses    Stage2FailureClasses
	KernelSentinel    *KernelComplianceSentinel
}

// AuthorityRefs names the typed-authority identity refs.
type AuthorityRefs struct {
	KindRef         string
	DigestRef       string
	NormalizerIDRef string
	PolicyDigestRef string
}

// Stage2Alias is the projection-only compatibility alias.
type Stage2Alias struct {
	KindRef           string
	DigestRef         string
	Role              string
	SupportUntilEpoch string
}

// BidirEvidenceRoute is the bidirectional evidence route record.
type BidirEvidenceRoute struct {
	RouteKind           string
	ObligationFieldRef  string
	RequiredObligations []string
	FailureClasses      BidirFailureClasses
	Fallback            *BidirFallback
}

// BidirFailureClasses is the canonical kernel-compliance failure pair.
type BidirFailureClasses struct {
	Missing string
	Drift   string
}

// BidirFallback is the optional profile-gated sentinel fallback.
type BidirFallback struct {
	Mode         string
	ProfileKinds []string
}

// Stage2FailureClasses is the canonical stage-2 failure triple.
type Stage2FailureClasses struct {
	AuthorityAliasViolation string
	AliasWindowViolation    string
	Unbound                 string
}

// KernelComplianceSentinel is the optional profile-gated sentinel.
type KernelComplianceSentinel struct {
	RequiredObligations []string
	FailureClasses      BidirFailureClasses
}

// BundleProfile is the cp.bundle.v0 record with its closed sets.
type BundleProfile struct {
	ProfileID     string
	ContextFamily ContextFamily
	ArtifactFamily ArtifactFamily
	Reindexing    ReindexingCoherence
	CoverGlue     CoverGlue
	AuthoritySplit AuthoritySplit
}

// ContextFamily is the bundle's context/morphism kind sets.
type ContextFamily struct {
	ID            string
	ContextKinds  []string
	MorphismKinds []string
}

// ArtifactFamily is the bundle's tracked artifact refs.
type ArtifactFamily struct {
	ID           string
	ArtifactRefs map[string]string
}

// ReindexingCoherence is the bundle's reindexing obligations.
type ReindexingCoherence struct {
	RequiredObligations []string
	CommutationWitness  string
}

// CoverGlue is the worker-cover merge record.
type CoverGlue struct {
	WorkerCoverKind            string
	MergeCompatibilityWitness  string
	RequiredMergeArtifacts     []string
}

// AuthoritySplit pins semantic authority against the control-plane role.
type AuthoritySplit struct {
	SemanticAuthority       []string
	ControlPlaneRole        string
	ForbiddenControlPlaneRoles []string
}

// KcirMappings is the control-plane KCIR mapping profile.
type KcirMappings struct {
	ProfileID            string
	MappingTable         map[string]MappingRow
	IdentityDigestLineage IdentityDigestLineage
	LegacyPolicy         LegacyEncodingPolicy
}

// MappingRow is one canonical mapping-table row.
type MappingRow struct {
	SourceKind     string
	TargetDomain   string
	TargetKind     string
	IdentityFields []string
}

// IdentityDigestLineage names how mapped identities derive their digests.
type IdentityDigestLineage struct {
	DigestAlgorithm   string
	RefProfilePath    string
	NormalizerField   string
	PolicyDigestField string
}

// LegacyEncodingPolicy is the compatibility window for non-KCIR encodings.
type LegacyEncodingPolicy struct {
	Mode              string
	AuthorityMode     string
	SupportUntilEpoch string
	FailureClass      string
}

// Contract is the fully validated governance contract.
type Contract struct {
	Schema          int
	ContractKind    string
	SchemaLifecycle SchemaLifecycle
	BundleProfile   BundleProfile
	KcirMappings    KcirMappings

	EvidenceLanes      map[string]string
	LaneArtifactKinds  map[string][]string
	LaneOwnership      LaneOwnership
	LaneFailureClasses []string

	WorkerLaneAuthority  WorkerLaneAuthority
	RuntimeRouteBindings RuntimeRouteBindings
	CommandSurface       CommandSurface
	HarnessRetry         HarnessRetry

	RequiredGateProjection RequiredGateProjection
	RequiredWitness        RequiredWitnessKinds
	InstructionWitness     InstructionWitnessKinds

	Stage1Parity   Stage1Parity
	Stage1Rollback Stage1Rollback
	Stage2Authority *Stage2Authority
}
