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
	"fmt"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/premath/premath/pkg/canonical"
)

// LoadFile reads and validates the contract at path.
func LoadFile(path string) (*Contract, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read control-plane contract %s", path)
	}
	c, err := Load(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "control-plane contract %s", path)
	}
	return c, nil
}

// Load validates raw JSON bytes into a Contract.
func Load(raw []byte) (*Contract, error) {
	rootVal, err := canonical.DecodeBytes(raw)
	if err != nil {
		return nil, errors.Wrap(err, "invalid json in control-plane contract")
	}
	root, err := reqObject(rootVal, "control-plane contract root")
	if err != nil {
		return nil, err
	}

	schema, err := reqInt(root["schema"], "schema")
	if err != nil || schema != 1 {
		return nil, errors.New("control-plane contract schema must be 1")
	}

	lifecycleObj, err := reqObject(root["schemaLifecycle"], "schemaLifecycle")
	if err != nil {
		return nil, err
	}
	activeEpoch, err := reqEpoch(lifecycleObj["activeEpoch"], "schemaLifecycle.activeEpoch")
	if err != nil {
		return nil, err
	}
	governanceObj, err := reqObject(lifecycleObj["governance"], "schemaLifecycle.governance")
	if err != nil {
		return nil, err
	}
	familiesRaw, err := reqObject(lifecycleObj["kindFamilies"], "schemaLifecycle.kindFamilies")
	if err != nil {
		return nil, err
	}
	known := setOf(RequiredKindFamilies)
	unknownFamilies := []string{}
	for id := range familiesRaw {
		if !known[id] {
			unknownFamilies = append(unknownFamilies, id)
		}
	}
	if len(unknownFamilies) > 0 {
		sort.Strings(unknownFamilies)
		return nil, errors.Errorf("schemaLifecycle.kindFamilies includes unknown families: %s", joinComma(unknownFamilies))
	}
	families := map[string]KindFamily{}
	for _, id := range RequiredKindFamilies {
		fam, err := parseKindFamily(familiesRaw[id], "schemaLifecycle.kindFamilies."+id)
		if err != nil {
			return nil, err
		}
		families[id] = fam
	}

	discipline, err := validateEpochDiscipline(activeEpoch, families)
	if err != nil {
		return nil, err
	}
	governance, err := validateGovernance(governanceObj, discipline)
	if err != nil {
		return nil, err
	}

	contractKindDeclared, err := reqString(root["contractKind"], "contractKind")
	if err != nil {
		return nil, err
	}
	contractKind, err := resolveKindInFamily("controlPlaneContractKind", families["controlPlaneContractKind"], contractKindDeclared, activeEpoch, "contractKind")
	if err != nil {
		return nil, err
	}
	if contractKind != ContractKind {
		return nil, errors.Errorf("control-plane contract kind must resolve to %q", ContractKind)
	}

	bundle, err := validateBundleProfile(root["controlPlaneBundleProfile"])
	if err != nil {
		return nil, err
	}
	mappings, err := validateKcirMappings(root["controlPlaneKcirMappings"], activeEpoch, discipline)
	if err != nil {
		return nil, err
	}

	evidenceLanes := map[string]string{}
	if root["evidenceLanes"] != nil {
		lanesObj, err := reqObject(root["evidenceLanes"], "evidenceLanes")
		if err != nil {
			return nil, err
		}
		for _, key := range []string{"semanticDoctrine", "strictChecker", "witnessCommutation", "runtimeTransport"} {
			lane, err := reqString(lanesObj[key], "evidenceLanes."+key)
			if err != nil {
				return nil, err
			}
			evidenceLanes[key] = lane
		}
		seen := map[string]bool{}
		for _, lane := range evidenceLanes {
			if seen[lane] {
				return nil, errors.New("evidenceLanes values must not contain duplicates")
			}
			seen[lane] = true
		}
	}

	laneArtifactKinds := map[string][]string{}
	if root["laneArtifactKinds"] != nil {
		kindsObj, err := reqObject(root["laneArtifactKinds"], "laneArtifactKinds")
		if err != nil {
			return nil, err
		}
		laneValues := map[string]bool{}
		for _, lane := range evidenceLanes {
			laneValues[lane] = true
		}
		for _, laneID := range sortedKeys(kindsObj) {
			kinds, err := reqStringList(kindsObj[laneID], "laneArtifactKinds."+laneID)
			if err != nil {
				return nil, err
			}
			laneArtifactKinds[laneID] = kinds
			if len(evidenceLanes) > 0 && !laneValues[laneID] {
				return nil, errors.New("laneArtifactKinds keys must be subset of evidenceLanes values")
			}
		}
	}

	ownership := LaneOwnership{}
	if root["laneOwnership"] != nil {
		ownObj, err := reqObject(root["laneOwnership"], "laneOwnership")
		if err != nil {
			return nil, err
		}
		ownership.CheckerCoreOnlyObligations, err = optStringList(ownObj["checkerCoreOnlyObligations"], "laneOwnership.checkerCoreOnlyObligations")
		if err != nil {
			return nil, err
		}
		if ownObj["requiredCrossLaneWitnessRoute"] != nil {
			routeObj, err := reqObject(ownObj["requiredCrossLaneWitnessRoute"], "laneOwnership.requiredCrossLaneWitnessRoute")
			if err != nil {
				return nil, err
			}
			ownership.RequiredCrossLaneRoute, err = reqString(routeObj["pullbackBaseChange"], "laneOwnership.requiredCrossLaneWitnessRoute.pullbackBaseChange")
			if err != nil {
				return nil, err
			}
		}
	}

	laneFailureClasses, err := optStringList(root["laneFailureClasses"], "laneFailureClasses")
	if err != nil {
		return nil, err
	}

	workerLane, err := validateWorkerLaneAuthority(root["workerLaneAuthority"], activeEpoch)
	if err != nil {
		return nil, err
	}
	runtimeRoutes, err := validateRuntimeRouteBindings(root["runtimeRouteBindings"])
	if err != nil {
		return nil, err
	}
	commandSurface, err := validateCommandSurface(root["commandSurface"])
	if err != nil {
		return nil, err
	}
	harnessRetry, err := validateHarnessRetry(root["harnessRetry"])
	if err != nil {
		return nil, err
	}
	gateProjection, err := validateRequiredGateProjection(root["requiredGateProjection"], families["requiredProjectionPolicy"], activeEpoch)
	if err != nil {
		return nil, err
	}

	requiredWitnessObj, err := reqObject(root["requiredWitness"], "requiredWitness")
	if err != nil {
		return nil, err
	}
	witnessKindDeclared, err := reqString(requiredWitnessObj["witnessKind"], "requiredWitness.witnessKind")
	if err != nil {
		return nil, err
	}
	witnessKind, err := resolveKindInFamily("requiredWitnessKind", families["requiredWitnessKind"], witnessKindDeclared, activeEpoch, "requiredWitness.witnessKind")
	if err != nil {
		return nil, err
	}
	decisionKindDeclared, err := reqString(requiredWitnessObj["decisionKind"], "requiredWitness.decisionKind")
	if err != nil {
		return nil, err
	}
	decisionKind, err := resolveKindInFamily("requiredDecisionKind", families["requiredDecisionKind"], decisionKindDeclared, activeEpoch, "requiredWitness.decisionKind")
	if err != nil {
		return nil, err
	}

	instructionObj, err := reqObject(root["instructionWitness"], "instructionWitness")
	if err != nil {
		return nil, err
	}
	instrWitnessDeclared, err := reqString(instructionObj["witnessKind"], "instructionWitness.witnessKind")
	if err != nil {
		return nil, err
	}
	instrWitnessKind, err := resolveKindInFamily("instructionWitnessKind", families["instructionWitnessKind"], instrWitnessDeclared, activeEpoch, "instructionWitness.witnessKind")
	if err != nil {
		return nil, err
	}
	instrPolicyDeclared, err := reqString(instructionObj["policyKind"], "instructionWitness.policyKind")
	if err != nil {
		return nil, err
	}
	instrPolicyKind, err := resolveKindInFamily("instructionPolicyKind", families["instructionPolicyKind"], instrPolicyDeclared, activeEpoch, "instructionWitness.policyKind")
	if err != nil {
		return nil, err
	}
	instrPolicyDigestPrefix, err := reqString(instructionObj["policyDigestPrefix"], "instructionWitness.policyDigestPrefix")
	if err != nil {
		return nil, err
	}

	stage1Parity, err := validateStage1Parity(root["evidenceStage1Parity"])
	if err != nil {
		return nil, err
	}
	stage1Rollback, err := validateStage1Rollback(root["evidenceStage1Rollback"])
	if err != nil {
		return nil, err
	}
	var stage2 *Stage2Authority
	if root["evidenceStage2Authority"] != nil {
		stage2, err = validateStage2Authority(root["evidenceStage2Authority"], activeEpoch, discipline)
		if err != nil {
			return nil, err
		}
	}

	return &Contract{
		Schema:       schema,
		ContractKind: contractKind,
		SchemaLifecycle: SchemaLifecycle{
			ActiveEpoch:     activeEpoch,
			Governance:      governance,
			KindFamilies:    families,
			EpochDiscipline: discipline,
		},
		BundleProfile:      bundle,
		KcirMappings:       mappings,
		EvidenceLanes:      evidenceLanes,
		LaneArtifactKinds:  laneArtifactKinds,
		LaneOwnership:      ownership,
		LaneFailureClasses: laneFailureClasses,
		WorkerLaneAuthority:  workerLane,
		RuntimeRouteBindings: runtimeRoutes,
		CommandSurface:       commandSurface,
		HarnessRetry:         harnessRetry,
		RequiredGateProjection: gateProjection,
		RequiredWitness: RequiredWitnessKinds{
			WitnessKind:  witnessKind,
			DecisionKind: decisionKind,
		},
		InstructionWitness: InstructionWitnessKinds{
			WitnessKind:        instrWitnessKind,
			PolicyKind:         instrPolicyKind,
			PolicyDigestPrefix: instrPolicyDigestPrefix,
		},
		Stage1Parity:    stage1Parity,
		Stage1Rollback:  stage1Rollback,
		Stage2Authority: stage2,
	}, nil
}

func joinComma(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}

func parseKindFamily(v interface{}, label string) (KindFamily, error) {
	fam := KindFamily{Aliases: map[string]Alias{}}
	obj, err := reqObject(v, label)
	if err != nil {
		return fam, err
	}
	fam.CanonicalKind, err = reqString(obj["canonicalKind"], label+".canonicalKind")
	if err != nil {
		return fam, err
	}
	aliasesRaw := obj["compatibilityAliases"]
	if aliasesRaw == nil {
		return fam, nil
	}
	rows, ok := aliasesRaw.([]interface{})
	if !ok {
		return fam, errors.Errorf("%s.compatibilityAliases must be a list", label)
	}
	for idx, rowRaw := range rows {
		rowLabel := fmt.Sprintf("%s.compatibilityAliases[%d]", label, idx)
		row, err := reqObject(rowRaw, rowLabel)
		if err != nil {
			return fam, err
		}
		aliasKind, err := reqString(row["aliasKind"], rowLabel+".aliasKind")
		if err != nil {
			return fam, err
		}
		supportUntil, err := reqEpoch(row["supportUntilEpoch"], rowLabel+".supportUntilEpoch")
		if err != nil {
			return fam, err
		}
		replacement, err := reqString(row["replacementKind"], rowLabel+".replacementKind")
		if err != nil {
			return fam, err
		}
		if aliasKind == fam.CanonicalKind {
			return fam, errors.Errorf("%s.aliasKind must differ from canonicalKind", rowLabel)
		}
		if replacement != fam.CanonicalKind {
			return fam, errors.Errorf("%s.replacementKind must match canonicalKind", rowLabel)
		}
		if _, dup := fam.Aliases[aliasKind]; dup {
			return fam, errors.Errorf("%s.compatibilityAliases aliasKind values must be unique", label)
		}
		fam.Aliases[aliasKind] = Alias{SupportUntilEpoch: supportUntil, ReplacementKind: replacement}
	}
	return fam, nil
}

func validateEpochDiscipline(activeEpoch string, families map[string]KindFamily) (EpochDiscipline, error) {
	supportEpochs := map[string]bool{}
	for _, fam := range families {
		for _, alias := range fam.Aliases {
			supportEpochs[alias.SupportUntilEpoch] = true
		}
	}
	if len(supportEpochs) == 0 {
		return EpochDiscipline{AliasRunwayMonths: 0, MaxAliasRunwayMonths: MaxAliasRunwayMonths}, nil
	}
	unique := make([]string, 0, len(supportEpochs))
	for epoch := range supportEpochs {
		unique = append(unique, epoch)
	}
	sort.Strings(unique)
	if len(unique) != 1 {
		return EpochDiscipline{}, errors.Errorf(
			"schemaLifecycle rollover policy requires one shared supportUntilEpoch across all compatibility aliases (got %v)", unique)
	}
	rolloverEpoch := unique[0]
	runway := epochMonthIndex(rolloverEpoch) - epochMonthIndex(activeEpoch)
	if runway < 1 {
		return EpochDiscipline{}, errors.Errorf(
			"schemaLifecycle rollover policy requires supportUntilEpoch to be after activeEpoch (activeEpoch=%q, rolloverEpoch=%q)", activeEpoch, rolloverEpoch)
	}
	if runway > MaxAliasRunwayMonths {
		return EpochDiscipline{}, errors.Errorf(
			"schemaLifecycle rollover policy exceeds max runway (%d months): activeEpoch=%q, rolloverEpoch=%q", MaxAliasRunwayMonths, activeEpoch, rolloverEpoch)
	}
	return EpochDiscipline{
		RolloverEpoch:        rolloverEpoch,
		AliasRunwayMonths:    runway,
		MaxAliasRunwayMonths: MaxAliasRunwayMonths,
	}, nil
}

func validateGovernance(obj map[string]interface{}, discipline EpochDiscipline) (Governance, error) {
	mode, err := reqString(obj["mode"], "schemaLifecycle.governance.mode")
	if err != nil {
		return Governance{}, err
	}
	if mode != "rollover" && mode != "freeze" {
		return Governance{}, errors.New("schemaLifecycle.governance.mode must be one of: rollover, freeze")
	}
	decisionRef, err := reqString(obj["decisionRef"], "schemaLifecycle.governance.decisionRef")
	if err != nil {
		return Governance{}, err
	}
	owner, err := reqString(obj["owner"], "schemaLifecycle.governance.owner")
	if err != nil {
		return Governance{}, err
	}

	if mode == "rollover" {
		cadence, err := reqPositiveInt(obj["rolloverCadenceMonths"], "schemaLifecycle.governance.rolloverCadenceMonths")
		if err != nil {
			return Governance{}, err
		}
		if cadence > MaxAliasRunwayMonths {
			return Governance{}, errors.Errorf("schemaLifecycle.governance.rolloverCadenceMonths must be <= %d", MaxAliasRunwayMonths)
		}
		if discipline.RolloverEpoch == "" {
			return Governance{}, errors.New("schemaLifecycle.governance.mode=rollover requires at least one compatibility alias with supportUntilEpoch")
		}
		if discipline.AliasRunwayMonths > cadence {
			return Governance{}, errors.Errorf(
				"schemaLifecycle.governance.rolloverCadenceMonths must be >= alias runway (runway=%d, cadence=%d)", discipline.AliasRunwayMonths, cadence)
		}
		if obj["freezeReason"] != nil {
			return Governance{}, errors.New("schemaLifecycle.governance.freezeReason is only allowed when mode=freeze")
		}
		return Governance{Mode: mode, DecisionRef: decisionRef, Owner: owner, RolloverCadenceMonths: cadence}, nil
	}

	if obj["rolloverCadenceMonths"] != nil {
		return Governance{}, errors.New("schemaLifecycle.governance.rolloverCadenceMonths is only allowed when mode=rollover")
	}
	freezeReason, err := reqString(obj["freezeReason"], "schemaLifecycle.governance.freezeReason")
	if err != nil {
		return Governance{}, err
	}
	if discipline.RolloverEpoch != "" || discipline.AliasRunwayMonths != 0 {
		return Governance{}, errors.New("schemaLifecycle.governance.mode=freeze requires no active compatibility aliases")
	}
	return Governance{Mode: mode, DecisionRef: decisionRef, Owner: owner, FreezeReason: freezeReason}, nil
}

func resolveKindInFamily(familyID string, family KindFamily, kind, activeEpoch, label string) (string, error) {
	if kind == family.CanonicalKind {
		return kind, nil
	}
	alias, ok := family.Aliases[kind]
	if !ok {
		return "", errors.Errorf(
			"%s kind %q is not supported for schemaLifecycle.kindFamilies.%s (canonicalKind=%q)", label, kind, familyID, family.CanonicalKind)
	}
	if activeEpoch > alias.SupportUntilEpoch {
		return "", errors.Errorf(
			"%s kind %q expired at supportUntilEpoch=%q for schemaLifecycle.kindFamilies.%s (activeEpoch=%q, canonicalKind=%q)",
			label, kind, alias.SupportUntilEpoch, familyID, activeEpoch, family.CanonicalKind)
	}
	return family.CanonicalKind, nil
}

func validateHarnessRetry(v interface{}) (HarnessRetry, error) {
	obj, err := reqObject(v, "harnessRetry")
	if err != nil {
		return HarnessRetry{}, err
	}
	out := HarnessRetry{}
	if out.PolicyKind, err = reqString(obj["policyKind"], "harnessRetry.policyKind"); err != nil {
		return out, err
	}
	if out.PolicyPath, err = reqString(obj["policyPath"], "harnessRetry.policyPath"); err != nil {
		return out, err
	}
	if out.EscalationActions, err = reqStringList(obj["escalationActions"], "harnessRetry.escalationActions"); err != nil {
		return out, err
	}
	if out.ActiveIssueEnvKeys, err = reqStringList(obj["activeIssueEnvKeys"], "harnessRetry.activeIssueEnvKeys"); err != nil {
		return out, err
	}
	if out.IssuesPathEnvKey, err = reqString(obj["issuesPathEnvKey"], "harnessRetry.issuesPathEnvKey"); err != nil {
		return out, err
	}
	if out.SessionPathEnvKey, err = reqString(obj["sessionPathEnvKey"], "harnessRetry.sessionPathEnvKey"); err != nil {
		return out, err
	}
	if out.SessionPathDefault, err = reqString(obj["sessionPathDefault"], "harnessRetry.sessionPathDefault"); err != nil {
		return out, err
	}
	if out.SessionIssueField, err = reqString(obj["sessionIssueField"], "harnessRetry.sessionIssueField"); err != nil {
		return out, err
	}
	return out, nil
}

func validateRequiredGateProjection(v interface{}, policyFamily KindFamily, activeEpoch string) (RequiredGateProjection, error) {
	out := RequiredGateProjection{CheckIDs: map[string]string{}}
	obj, err := reqObject(v, "requiredGateProjection")
	if err != nil {
		return out, err
	}
	declaredPolicy, err := reqString(obj["projectionPolicy"], "requiredGateProjection.projectionPolicy")
	if err != nil {
		return out, err
	}
	out.ProjectionPolicy, err = resolveKindInFamily("requiredProjectionPolicy", policyFamily, declaredPolicy, activeEpoch, "requiredGateProjection.projectionPolicy")
	if err != nil {
		return out, err
	}
	checkIDsRaw, err := reqObject(obj["checkIds"], "requiredGateProjection.checkIds")
	if err != nil {
		return out, err
	}
	requiredKeys := []string{"baseline", "build", "test", "testToy", "testKcirToy", "conformanceCheck", "conformanceRun", "doctrineCheck"}
	values := map[string]bool{}
	for _, key := range requiredKeys {
		id, err := reqString(checkIDsRaw[key], "requiredGateProjection.checkIds."+key)
		if err != nil {
			return out, err
		}
		out.CheckIDs[key] = id
		values[id] = true
	}
	if len(values) != len(requiredKeys) {
		return out, errors.New("requiredGateProjection.checkIds must not contain duplicate values")
	}
	out.CheckOrder, err = reqStringList(obj["checkOrder"], "requiredGateProjection.checkOrder")
	if err != nil {
		return out, err
	}
	orderSet := setOf(out.CheckOrder)
	if len(orderSet) != len(values) {
		return out, errors.New("requiredGateProjection.checkOrder must cover exactly requiredGateProjection.checkIds values")
	}
	for id := range values {
		if !orderSet[id] {
			return out, errors.New("requiredGateProjection.checkOrder must cover exactly requiredGateProjection.checkIds values")
		}
	}
	return out, nil
}
