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
	"sort"
	"strings"

	"github.com/pkg/errors"
)

func validateWorkerLaneAuthority(v interface{}, activeEpoch string) (WorkerLaneAuthority, error) {
	out := WorkerLaneAuthority{MutationRoutes: map[string]string{}}
	obj, err := reqObject(v, "workerLaneAuthority")
	if err != nil {
		return out, err
	}
	policyObj, err := reqObject(obj["mutationPolicy"], "workerLaneAuthority.mutationPolicy")
	if err != nil {
		return out, err
	}
	if out.DefaultMode, err = reqString(policyObj["defaultMode"], "workerLaneAuthority.mutationPolicy.defaultMode"); err != nil {
		return out, err
	}
	if out.AllowedModes, err = reqStringList(policyObj["allowedModes"], "workerLaneAuthority.mutationPolicy.allowedModes"); err != nil {
		return out, err
	}
	allowed := setOf(out.AllowedModes)
	if out.DefaultMode != WorkerDefaultMutationMode {
		return out, errors.New("workerLaneAuthority.mutationPolicy.defaultMode must be `instruction-linked`")
	}
	if !allowed[out.DefaultMode] {
		return out, errors.New("workerLaneAuthority.mutationPolicy.allowedModes must include defaultMode")
	}
	if !sameMembers(out.AllowedModes, WorkerAllowedMutationModes) {
		return out, errors.Errorf(
			"workerLaneAuthority.mutationPolicy.allowedModes must match canonical modes: %s",
			strings.Join(WorkerAllowedMutationModes, ", "))
	}

	overridesRaw := policyObj["compatibilityOverrides"]
	if overridesRaw == nil {
		overridesRaw = []interface{}{}
	}
	rows, ok := overridesRaw.([]interface{})
	if !ok {
		return out, errors.New("workerLaneAuthority.mutationPolicy.compatibilityOverrides must be a list")
	}
	overrideRows := map[string]MutationOverride{}
	for idx, rowRaw := range rows {
		row, err := reqObject(rowRaw, "workerLaneAuthority.mutationPolicy.compatibilityOverrides")
		if err != nil {
			return out, err
		}
		mode, err := reqString(row["mode"], "workerLaneAuthority.mutationPolicy.compatibilityOverrides mode")
		if err != nil {
			return out, err
		}
		supportUntil, err := reqEpoch(row["supportUntilEpoch"], "workerLaneAuthority.mutationPolicy.compatibilityOverrides supportUntilEpoch")
		if err != nil {
			return out, err
		}
		requiresReason, err := reqBool(row["requiresReason"], "workerLaneAuthority.mutationPolicy.compatibilityOverrides requiresReason")
		if err != nil {
			return out, err
		}
		if mode == out.DefaultMode {
			return out, errors.New("workerLaneAuthority.mutationPolicy.compatibilityOverrides mode must differ from defaultMode")
		}
		if !allowed[mode] {
			return out, errors.New("workerLaneAuthority.mutationPolicy.compatibilityOverrides mode must be listed in allowedModes")
		}
		if activeEpoch > supportUntil {
			return out, errors.Errorf(
				"workerLaneAuthority.mutationPolicy.compatibilityOverrides[%d] expired at supportUntilEpoch=%q (activeEpoch=%q)",
				idx, supportUntil, activeEpoch)
		}
		if _, dup := overrideRows[mode]; dup {
			return out, errors.New("workerLaneAuthority.mutationPolicy.compatibilityOverrides mode values must be unique")
		}
		overrideRows[mode] = MutationOverride{Mode: mode, SupportUntilEpoch: supportUntil, RequiresReason: requiresReason}
	}
	expectedOverrideModes := map[string]bool{}
	for _, mode := range WorkerAllowedMutationModes {
		if mode != out.DefaultMode {
			expectedOverrideModes[mode] = true
		}
	}
	if len(overrideRows) != len(expectedOverrideModes) {
		return out, errors.New("workerLaneAuthority.mutationPolicy.compatibilityOverrides must define exactly one active override per non-default allowed mode")
	}
	for mode := range overrideRows {
		if !expectedOverrideModes[mode] {
			return out, errors.New("workerLaneAuthority.mutationPolicy.compatibilityOverrides must define exactly one active override per non-default allowed mode")
		}
	}
	modes := make([]string, 0, len(overrideRows))
	for mode := range overrideRows {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	for _, mode := range modes {
		out.Overrides = append(out.Overrides, overrideRows[mode])
	}

	routesObj, err := reqObject(obj["mutationRoutes"], "workerLaneAuthority.mutationRoutes")
	if err != nil {
		return out, err
	}
	for key, expected := range WorkerMutationRouteBindings {
		value, err := reqString(routesObj[key], "workerLaneAuthority.mutationRoutes."+key)
		if err != nil {
			return out, err
		}
		if value != expected {
			return out, errors.Errorf("workerLaneAuthority.mutationRoutes.%s must resolve to canonical route %q", key, expected)
		}
		out.MutationRoutes[key] = value
	}
	unknownRouteKeys := []string{}
	for key := range routesObj {
		if _, ok := WorkerMutationRouteBindings[key]; !ok {
			unknownRouteKeys = append(unknownRouteKeys, key)
		}
	}
	if len(unknownRouteKeys) > 0 {
		sort.Strings(unknownRouteKeys)
		return out, errors.Errorf("workerLaneAuthority.mutationRoutes includes unknown route keys: %s", strings.Join(unknownRouteKeys, ", "))
	}

	fcObj, err := reqObject(obj["failureClasses"], "workerLaneAuthority.failureClasses")
	if err != nil {
		return out, err
	}
	parsed := [3]string{}
	for i, key := range []string{"policyDrift", "mutationModeDrift", "routeUnbound"} {
		if parsed[i], err = reqString(fcObj[key], "workerLaneAuthority.failureClasses."+key); err != nil {
			return out, err
		}
	}
	if parsed != workerFailureClasses {
		return out, errors.New("workerLaneAuthority.failureClasses must map to canonical worker-lane classes")
	}
	out.FailureClasses = WorkerFailureClasses{PolicyDrift: parsed[0], MutationModeDrift: parsed[1], RouteUnbound: parsed[2]}
	return out, nil
}

func validateRuntimeRouteBindings(v interface{}) (RuntimeRouteBindings, error) {
	out := RuntimeRouteBindings{Routes: map[string]RouteBinding{}}
	obj, err := reqObject(v, "runtimeRouteBindings")
	if err != nil {
		return out, err
	}
	routesObj, err := reqObject(obj["requiredOperationRoutes"], "runtimeRouteBindings.requiredOperationRoutes")
	if err != nil {
		return out, err
	}
	if len(routesObj) == 0 {
		return out, errors.New("runtimeRouteBindings.requiredOperationRoutes must be a non-empty object")
	}
	for _, routeID := range sortedKeys(routesObj) {
		routeObj, err := reqObject(routesObj[routeID], "runtimeRouteBindings.requiredOperationRoutes."+routeID)
		if err != nil {
			return out, err
		}
		operationID, err := reqString(routeObj["operationId"], "runtimeRouteBindings.requiredOperationRoutes."+routeID+".operationId")
		if err != nil {
			return out, err
		}
		morphisms, err := reqStringList(routeObj["requiredMorphisms"], "runtimeRouteBindings.requiredOperationRoutes."+routeID+".requiredMorphisms")
		if err != nil {
			return out, err
		}
		sort.Strings(morphisms)
		out.Routes[routeID] = RouteBinding{OperationID: operationID, RequiredMorphisms: morphisms}
	}

	fcObj, err := reqObject(obj["failureClasses"], "runtimeRouteBindings.failureClasses")
	if err != nil {
		return out, err
	}
	required := setOf(runtimeRouteFailureClassKeys)
	missing := []string{}
	for _, key := range runtimeRouteFailureClassKeys {
		if _, ok := fcObj[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return out, errors.Errorf("runtimeRouteBindings.failureClasses missing required keys: %s", strings.Join(missing, ", "))
	}
	unknown := []string{}
	for key := range fcObj {
		if !required[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return out, errors.Errorf("runtimeRouteBindings.failureClasses includes unknown keys: %s", strings.Join(unknown, ", "))
	}
	missingRoute, err := reqString(fcObj["missingRoute"], "runtimeRouteBindings.failureClasses.missingRoute")
	if err != nil {
		return out, err
	}
	morphismDrift, err := reqString(fcObj["morphismDrift"], "runtimeRouteBindings.failureClasses.morphismDrift")
	if err != nil {
		return out, err
	}
	contractUnbound, err := reqString(fcObj["contractUnbound"], "runtimeRouteBindings.failureClasses.contractUnbound")
	if err != nil {
		return out, err
	}
	out.FailureClasses = RouteFailureClasses{
		MissingRoute:    missingRoute,
		MorphismDrift:   morphismDrift,
		ContractUnbound: contractUnbound,
	}
	return out, nil
}

func validateCommandSurface(v interface{}) (CommandSurface, error) {
	out := CommandSurface{Surfaces: map[string]SurfaceBinding{}}
	obj, err := reqObject(v, "commandSurface")
	if err != nil {
		return out, err
	}
	missing := []string{}
	for _, id := range RequiredCommandSurfaceIDs {
		if _, ok := obj[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return out, errors.Errorf("commandSurface missing required surfaces: %s", strings.Join(missing, ", "))
	}
	known := setOf(RequiredCommandSurfaceIDs)
	known["failureClasses"] = true
	unknown := []string{}
	for key := range obj {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return out, errors.Errorf("commandSurface includes unknown keys: %s", strings.Join(unknown, ", "))
	}

	for _, surfaceID := range RequiredCommandSurfaceIDs {
		row, err := reqObject(obj[surfaceID], "commandSurface."+surfaceID)
		if err != nil {
			return out, err
		}
		canonicalTokens, err := reqCommandTokens(row["canonicalEntrypoint"], "commandSurface."+surfaceID+".canonicalEntrypoint")
		if err != nil {
			return out, err
		}
		aliases, err := reqCommandAliases(row["compatibilityAliases"], "commandSurface."+surfaceID+".compatibilityAliases")
		if err != nil {
			return out, err
		}
		canonicalKey := strings.Join(canonicalTokens, "\x00")
		for _, alias := range aliases {
			if strings.Join(alias, "\x00") == canonicalKey {
				return out, errors.Errorf("commandSurface.%s.compatibilityAliases must not include canonicalEntrypoint", surfaceID)
			}
		}
		sort.Slice(aliases, func(i, j int) bool {
			return strings.Join(aliases[i], "\x00") < strings.Join(aliases[j], "\x00")
		})
		out.Surfaces[surfaceID] = SurfaceBinding{
			CanonicalEntrypoint:  canonicalTokens,
			CompatibilityAliases: aliases,
		}
	}

	fcObj, err := reqObject(obj["failureClasses"], "commandSurface.failureClasses")
	if err != nil {
		return out, err
	}
	for key := range fcObj {
		if key != "unbound" {
			return out, errors.Errorf("commandSurface.failureClasses includes unknown keys: %s", key)
		}
	}
	if _, ok := fcObj["unbound"]; !ok {
		return out, errors.New("commandSurface.failureClasses missing required keys: unbound")
	}
	out.UnboundFailureClass, err = reqString(fcObj["unbound"], "commandSurface.failureClasses.unbound")
	if err != nil {
		return out, err
	}
	return out, nil
}

func validateBundleProfile(v interface{}) (BundleProfile, error) {
	out := BundleProfile{}
	obj, err := reqObject(v, "controlPlaneBundleProfile")
	if err != nil {
		return out, err
	}
	if out.ProfileID, err = reqString(obj["profileId"], "controlPlaneBundleProfile.profileId"); err != nil {
		return out, err
	}
	if out.ProfileID != BundleProfileID {
		return out, errors.Errorf("controlPlaneBundleProfile.profileId must equal %q", BundleProfileID)
	}

	ctxObj, err := reqObject(obj["contextFamily"], "controlPlaneBundleProfile.contextFamily")
	if err != nil {
		return out, err
	}
	if out.ContextFamily.ID, err = reqString(ctxObj["id"], "controlPlaneBundleProfile.contextFamily.id"); err != nil {
		return out, err
	}
	if out.ContextFamily.ID != bundleContextFamilyID {
		return out, errors.Errorf("controlPlaneBundleProfile.contextFamily.id must equal %q", bundleContextFamilyID)
	}
	if out.ContextFamily.ContextKinds, err = reqStringList(ctxObj["contextKinds"], "controlPlaneBundleProfile.contextFamily.contextKinds"); err != nil {
		return out, err
	}
	if err := reqExactMembers(out.ContextFamily.ContextKinds, bundleContextKinds, "controlPlaneBundleProfile.contextFamily.contextKinds"); err != nil {
		return out, err
	}
	if out.ContextFamily.MorphismKinds, err = reqStringList(ctxObj["morphismKinds"], "controlPlaneBundleProfile.contextFamily.morphismKinds"); err != nil {
		return out, err
	}
	if err := reqExactMembers(out.ContextFamily.MorphismKinds, bundleMorphismKinds, "controlPlaneBundleProfile.contextFamily.morphismKinds"); err != nil {
		return out, err
	}

	artObj, err := reqObject(obj["artifactFamily"], "controlPlaneBundleProfile.artifactFamily")
	if err != nil {
		return out, err
	}
	if out.ArtifactFamily.ID, err = reqString(artObj["id"], "controlPlaneBundleProfile.artifactFamily.id"); err != nil {
		return out, err
	}
	if out.ArtifactFamily.ID != bundleArtifactFamilyID {
		return out, errors.Errorf("controlPlaneBundleProfile.artifactFamily.id must equal %q", bundleArtifactFamilyID)
	}
	refsObj, err := reqObject(artObj["artifactRefs"], "controlPlaneBundleProfile.artifactFamily.artifactRefs")
	if err != nil {
		return out, err
	}
	unknownRefs := []string{}
	for key := range refsObj {
		if _, ok := bundleArtifactRefs[key]; !ok {
			unknownRefs = append(unknownRefs, key)
		}
	}
	if len(unknownRefs) > 0 {
		sort.Strings(unknownRefs)
		return out, errors.Errorf("controlPlaneBundleProfile.artifactFamily.artifactRefs includes unknown keys: %s", strings.Join(unknownRefs, ", "))
	}
	missingRefs := []string{}
	for key := range bundleArtifactRefs {
		if _, ok := refsObj[key]; !ok {
			missingRefs = append(missingRefs, key)
		}
	}
	if len(missingRefs) > 0 {
		sort.Strings(missingRefs)
		return out, errors.Errorf("controlPlaneBundleProfile.artifactFamily.artifactRefs missing required keys: %s", strings.Join(missingRefs, ", "))
	}
	out.ArtifactFamily.ArtifactRefs = map[string]string{}
	for key, expectedPath := range bundleArtifactRefs {
		parsed, err := reqString(refsObj[key], "controlPlaneBundleProfile.artifactFamily.artifactRefs."+key)
		if err != nil {
			return out, err
		}
		if parsed != expectedPath {
			return out, errors.Errorf("controlPlaneBundleProfile.artifactFamily.artifactRefs.%s must equal %q", key, expectedPath)
		}
		out.ArtifactFamily.ArtifactRefs[key] = parsed
	}

	reindexObj, err := reqObject(obj["reindexingCoherence"], "controlPlaneBundleProfile.reindexingCoherence")
	if err != nil {
		return out, err
	}
	if out.Reindexing.RequiredObligations, err = reqStringList(reindexObj["requiredObligations"], "controlPlaneBundleProfile.reindexingCoherence.requiredObligations"); err != nil {
		return out, err
	}
	if err := reqExactMembers(out.Reindexing.RequiredObligations, bundleReindexingObligations, "controlPlaneBundleProfile.reindexingCoherence.requiredObligations"); err != nil {
		return out, err
	}
	if out.Reindexing.CommutationWitness, err = reqString(reindexObj["commutationWitness"], "controlPlaneBundleProfile.reindexingCoherence.commutationWitness"); err != nil {
		return out, err
	}
	if out.Reindexing.CommutationWitness != bundleCommutation {
		return out, errors.Errorf("controlPlaneBundleProfile.reindexingCoherence.commutationWitness must equal %q", bundleCommutation)
	}

	glueObj, err := reqObject(obj["coverGlue"], "controlPlaneBundleProfile.coverGlue")
	if err != nil {
		return out, err
	}
	if out.CoverGlue.WorkerCoverKind, err = reqString(glueObj["workerCoverKind"], "controlPlaneBundleProfile.coverGlue.workerCoverKind"); err != nil {
		return out, err
	}
	if out.CoverGlue.WorkerCoverKind != bundleWorkerCoverKind {
		return out, errors.Errorf("controlPlaneBundleProfile.coverGlue.workerCoverKind must equal %q", bundleWorkerCoverKind)
	}
	if out.CoverGlue.MergeCompatibilityWitness, err = reqString(glueObj["mergeCompatibilityWitness"], "controlPlaneBundleProfile.coverGlue.mergeCompatibilityWitness"); err != nil {
		return out, err
	}
	if out.CoverGlue.MergeCompatibilityWitness != bundleCommutation {
		return out, errors.Errorf("controlPlaneBundleProfile.coverGlue.mergeCompatibilityWitness must equal %q", bundleCommutation)
	}
	if out.CoverGlue.RequiredMergeArtifacts, err = reqStringList(glueObj["requiredMergeArtifacts"], "controlPlaneBundleProfile.coverGlue.requiredMergeArtifacts"); err != nil {
		return out, err
	}
	if err := reqExactMembers(out.CoverGlue.RequiredMergeArtifacts, bundleRequiredMergeArtifacts, "controlPlaneBundleProfile.coverGlue.requiredMergeArtifacts"); err != nil {
		return out, err
	}

	splitObj, err := reqObject(obj["authoritySplit"], "controlPlaneBundleProfile.authoritySplit")
	if err != nil {
		return out, err
	}
	if out.AuthoritySplit.SemanticAuthority, err = reqStringList(splitObj["semanticAuthority"], "controlPlaneBundleProfile.authoritySplit.semanticAuthority"); err != nil {
		return out, err
	}
	if err := reqExactMembers(out.AuthoritySplit.SemanticAuthority, BundleSemanticAuthority, "controlPlaneBundleProfile.authoritySplit.semanticAuthority"); err != nil {
		return out, err
	}
	if out.AuthoritySplit.ControlPlaneRole, err = reqString(splitObj["controlPlaneRole"], "controlPlaneBundleProfile.authoritySplit.controlPlaneRole"); err != nil {
		return out, err
	}
	if out.AuthoritySplit.ControlPlaneRole != bundleControlPlaneRole {
		return out, errors.Errorf("controlPlaneBundleProfile.authoritySplit.controlPlaneRole must equal %q", bundleControlPlaneRole)
	}
	if out.AuthoritySplit.ForbiddenControlPlaneRoles, err = reqStringList(splitObj["forbiddenControlPlaneRoles"], "controlPlaneBundleProfile.authoritySplit.forbiddenControlPlaneRoles"); err != nil {
		return out, err
	}
	if err := reqExactMembers(out.AuthoritySplit.ForbiddenControlPlaneRoles, bundleForbiddenRoles, "controlPlaneBundleProfile.authoritySplit.forbiddenControlPlaneRoles"); err != nil {
		return out, err
	}
	return out, nil
}

func validateKcirMappings(v interface{}, activeEpoch string, discipline EpochDiscipline) (KcirMappings, error) {
	out := KcirMappings{MappingTable: map[string]MappingRow{}}
	obj, err := reqObject(v, "controlPlaneKcirMappings")
	if err != nil {
		return out, err
	}
	if out.ProfileID, err = reqString(obj["profileId"], "controlPlaneKcirMappings.profileId"); err != nil {
		return out, err
	}

	tableObj, err := reqObject(obj["mappingTable"], "controlPlaneKcirMappings.mappingTable")
	if err != nil {
		return out, err
	}
	if len(tableObj) == 0 {
		return out, errors.New("controlPlaneKcirMappings.mappingTable must be non-empty")
	}
	for _, rowID := range sortedKeys(tableObj) {
		row, err := reqObject(tableObj[rowID], "controlPlaneKcirMappings.mappingTable."+rowID)
		if err != nil {
			return out, err
		}
		sourceKind, err := reqString(row["sourceKind"], "controlPlaneKcirMappings.mappingTable."+rowID+".sourceKind")
		if err != nil {
			return out, err
		}
		targetDomain, err := reqString(row["targetDomain"], "controlPlaneKcirMappings.mappingTable."+rowID+".targetDomain")
		if err != nil {
			return out, err
		}
		targetKind, err := reqString(row["targetKind"], "controlPlaneKcirMappings.mappingTable."+rowID+".targetKind")
		if err != nil {
			return out, err
		}
		identityFields, err := reqStringList(row["identityFields"], "controlPlaneKcirMappings.mappingTable."+rowID+".identityFields")
		if err != nil {
			return out, err
		}
		out.MappingTable[rowID] = MappingRow{
			SourceKind:     sourceKind,
			TargetDomain:   targetDomain,
			TargetKind:     targetKind,
			IdentityFields: identityFields,
		}
	}

	lineageObj, err := reqObject(obj["identityDigestLineage"], "controlPlaneKcirMappings.identityDigestLineage")
	if err != nil {
		return out, err
	}
	if out.IdentityDigestLineage.DigestAlgorithm, err = reqString(lineageObj["digestAlgorithm"], "controlPlaneKcirMappings.identityDigestLineage.digestAlgorithm"); err != nil {
		return out, err
	}
	if out.IdentityDigestLineage.RefProfilePath, err = reqString(lineageObj["refProfilePath"], "controlPlaneKcirMappings.identityDigestLineage.refProfilePath"); err != nil {
		return out, err
	}
	if out.IdentityDigestLineage.NormalizerField, err = reqString(lineageObj["normalizerField"], "controlPlaneKcirMappings.identityDigestLineage.normalizerField"); err != nil {
		return out, err
	}
	if out.IdentityDigestLineage.PolicyDigestField, err = reqString(lineageObj["policyDigestField"], "controlPlaneKcirMappings.identityDigestLineage.policyDigestField"); err != nil {
		return out, err
	}

	compatObj, err := reqObject(obj["compatibilityPolicy"], "controlPlaneKcirMappings.compatibilityPolicy")
	if err != nil {
		return out, err
	}
	legacyObj, err := reqObject(compatObj["legacyNonKcirEncodings"], "controlPlaneKcirMappings.compatibilityPolicy.legacyNonKcirEncodings")
	if err != nil {
		return out, err
	}
	if out.LegacyPolicy.Mode, err = reqString(legacyObj["mode"], "controlPlaneKcirMappings.compatibilityPolicy.legacyNonKcirEncodings.mode"); err != nil {
		return out, err
	}
	if out.LegacyPolicy.AuthorityMode, err = reqString(legacyObj["authorityMode"], "controlPlaneKcirMappings.compatibilityPolicy.legacyNonKcirEncodings.authorityMode"); err != nil {
		return out, err
	}
	if out.LegacyPolicy.SupportUntilEpoch, err = reqEpoch(legacyObj["supportUntilEpoch"], "controlPlaneKcirMappings.compatibilityPolicy.legacyNonKcirEncodings.supportUntilEpoch"); err != nil {
		return out, err
	}
	if activeEpoch > out.LegacyPolicy.SupportUntilEpoch {
		return out, errors.Errorf(
			"controlPlaneKcirMappings.compatibilityPolicy.legacyNonKcirEncodings expired at supportUntilEpoch=%q (activeEpoch=%q)",
			out.LegacyPolicy.SupportUntilEpoch, activeEpoch)
	}
	if discipline.RolloverEpoch != "" && out.LegacyPolicy.SupportUntilEpoch != discipline.RolloverEpoch {
		return out, errors.New("controlPlaneKcirMappings.compatibilityPolicy.legacyNonKcirEncodings.supportUntilEpoch must match schemaLifecycle.epochDiscipline.rolloverEpoch")
	}
	if out.LegacyPolicy.FailureClass, err = reqString(legacyObj["failureClass"], "controlPlaneKcirMappings.compatibilityPolicy.legacyNonKcirEncodings.failureClass"); err != nil {
		return out, err
	}
	return out, nil
}
