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

	"github.com/pkg/errors"
)

func validateStage1Parity(v interface{}) (Stage1Parity, error) {
	out := Stage1Parity{}
	obj, err := reqObject(v, "evidenceStage1Parity")
	if err != nil {
		return out, err
	}
	if out.ProfileKind, err = reqString(obj["profileKind"], "evidenceStage1Parity.profileKind"); err != nil {
		return out, err
	}
	if out.AuthorityToTypedCoreRoute, err = reqString(obj["authorityToTypedCoreRoute"], "evidenceStage1Parity.authorityToTypedCoreRoute"); err != nil {
		return out, err
	}
	tupleObj, err := reqObject(obj["comparisonTuple"], "evidenceStage1Parity.comparisonTuple")
	if err != nil {
		return out, err
	}
	if out.ComparisonTuple.AuthorityDigestRef, err = reqString(tupleObj["authorityDigestRef"], "evidenceStage1Parity.comparisonTuple.authorityDigestRef"); err != nil {
		return out, err
	}
	if out.ComparisonTuple.TypedCoreDigestRef, err = reqString(tupleObj["typedCoreDigestRef"], "evidenceStage1Parity.comparisonTuple.typedCoreDigestRef"); err != nil {
		return out, err
	}
	if out.ComparisonTuple.NormalizerIDRef, err = reqString(tupleObj["normalizerIdRef"], "evidenceStage1Parity.comparisonTuple.normalizerIdRef"); err != nil {
		return out, err
	}
	if out.ComparisonTuple.PolicyDigestRef, err = reqString(tupleObj["policyDigestRef"], "evidenceStage1Parity.comparisonTuple.policyDigestRef"); err != nil {
		return out, err
	}
	if out.ComparisonTuple.NormalizerIDRef != "normalizerId" {
		return out, errors.New("evidenceStage1Parity.comparisonTuple.normalizerIdRef must be `normalizerId`")
	}
	if out.ComparisonTuple.PolicyDigestRef != "policyDigest" {
		return out, errors.New("evidenceStage1Parity.comparisonTuple.policyDigestRef must be `policyDigest`")
	}

	fcObj, err := reqObject(obj["failureClasses"], "evidenceStage1Parity.failureClasses")
	if err != nil {
		return out, err
	}
	parsed := [3]string{}
	for i, key := range []string{"missing", "mismatch", "unbound"} {
		if parsed[i], err = reqString(fcObj[key], "evidenceStage1Parity.failureClasses."+key); err != nil {
			return out, err
		}
	}
	if parsed != stage1ParityFailureClasses {
		return out, errors.New("evidenceStage1Parity.failureClasses must map to canonical Stage 1 parity classes")
	}
	out.FailureClasses = Stage1ParityFailureClasses{Missing: parsed[0], Mismatch: parsed[1], Unbound: parsed[2]}
	return out, nil
}

func validateStage1Rollback(v interface{}) (Stage1Rollback, error) {
	out := Stage1Rollback{}
	obj, err := reqObject(v, "evidenceStage1Rollback")
	if err != nil {
		return out, err
	}
	if out.ProfileKind, err = reqString(obj["profileKind"], "evidenceStage1Rollback.profileKind"); err != nil {
		return out, err
	}
	if out.WitnessKind, err = reqString(obj["witnessKind"], "evidenceStage1Rollback.witnessKind"); err != nil {
		return out, err
	}
	if out.FromStage, err = reqString(obj["fromStage"], "evidenceStage1Rollback.fromStage"); err != nil {
		return out, err
	}
	if out.ToStage, err = reqString(obj["toStage"], "evidenceStage1Rollback.toStage"); err != nil {
		return out, err
	}
	if out.FromStage != "stage1" {
		return out, errors.New("evidenceStage1Rollback.fromStage must be `stage1`")
	}
	if out.ToStage != "stage0" {
		return out, errors.New("evidenceStage1Rollback.toStage must be `stage0`")
	}

	if out.TriggerFailureClasses, err = reqStringList(obj["triggerFailureClasses"], "evidenceStage1Rollback.triggerFailureClasses"); err != nil {
		return out, err
	}
	triggers := setOf(out.TriggerFailureClasses)
	for _, class := range stage1ParityFailureClasses {
		if !triggers[class] {
			return out, errors.New("evidenceStage1Rollback.triggerFailureClasses must include canonical Stage 1 parity classes")
		}
	}

	refsObj, err := reqObject(obj["identityRefs"], "evidenceStage1Rollback.identityRefs")
	if err != nil {
		return out, err
	}
	if out.IdentityRefs.AuthorityDigestRef, err = reqString(refsObj["authorityDigestRef"], "evidenceStage1Rollback.identityRefs.authorityDigestRef"); err != nil {
		return out, err
	}
	if out.IdentityRefs.RollbackAuthorityDigestRef, err = reqString(refsObj["rollbackAuthorityDigestRef"], "evidenceStage1Rollback.identityRefs.rollbackAuthorityDigestRef"); err != nil {
		return out, err
	}
	if out.IdentityRefs.NormalizerIDRef, err = reqString(refsObj["normalizerIdRef"], "evidenceStage1Rollback.identityRefs.normalizerIdRef"); err != nil {
		return out, err
	}
	if out.IdentityRefs.PolicyDigestRef, err = reqString(refsObj["policyDigestRef"], "evidenceStage1Rollback.identityRefs.policyDigestRef"); err != nil {
		return out, err
	}
	if out.IdentityRefs.AuthorityDigestRef == out.IdentityRefs.RollbackAuthorityDigestRef {
		return out, errors.New("evidenceStage1Rollback.identityRefs authority/rollback refs must differ")
	}
	if out.IdentityRefs.NormalizerIDRef != "normalizerId" {
		return out, errors.New("evidenceStage1Rollback.identityRefs.normalizerIdRef must be `normalizerId`")
	}
	if out.IdentityRefs.PolicyDigestRef != "policyDigest" {
		return out, errors.New("evidenceStage1Rollback.identityRefs.policyDigestRef must be `policyDigest`")
	}

	fcObj, err := reqObject(obj["failureClasses"], "evidenceStage1Rollback.failureClasses")
	if err != nil {
		return out, err
	}
	parsed := [3]string{}
	for i, key := range []string{"precondition", "identityDrift", "unbound"} {
		if parsed[i], err = reqString(fcObj[key], "evidenceStage1Rollback.failureClasses."+key); err != nil {
			return out, err
		}
	}
	if parsed != stage1RollbackFailureClasses {
		return out, errors.New("evidenceStage1Rollback.failureClasses must map to canonical Stage 1 rollback classes")
	}
	out.FailureClasses = Stage1RollbackFailureClasses{Precondition: parsed[0], IdentityDrift: parsed[1], Unbound: parsed[2]}
	return out, nil
}

func validateStage2Authority(v interface{}, activeEpoch string, discipline EpochDiscipline) (*Stage2Authority, error) {
	obj, err := reqObject(v, "evidenceStage2Authority")
	if err != nil {
		return nil, err
	}
	out := &Stage2Authority{}
	if out.ProfileKind, err = reqString(obj["profileKind"], "evidenceStage2Authority.profileKind"); err != nil {
		return nil, err
	}
	if out.ActiveStage, err = reqString(obj["activeStage"], "evidenceStage2Authority.activeStage"); err != nil {
		return nil, err
	}
	if out.ActiveStage != "stage2" {
		return nil, errors.New("evidenceStage2Authority.activeStage must be `stage2`")
	}

	typedObj, err := reqObject(obj["typedAuthority"], "evidenceStage2Authority.typedAuthority")
	if err != nil {
		return nil, err
	}
	if out.TypedAuthority.KindRef, err = reqString(typedObj["kindRef"], "evidenceStage2Authority.typedAuthority.kindRef"); err != nil {
		return nil, err
	}
	if out.TypedAuthority.DigestRef, err = reqString(typedObj["digestRef"], "evidenceStage2Authority.typedAuthority.digestRef"); err != nil {
		return nil, err
	}
	if out.TypedAuthority.NormalizerIDRef, err = reqString(typedObj["normalizerIdRef"], "evidenceStage2Authority.typedAuthority.normalizerIdRef"); err != nil {
		return nil, err
	}
	if out.TypedAuthority.PolicyDigestRef, err = reqString(typedObj["policyDigestRef"], "evidenceStage2Authority.typedAuthority.policyDigestRef"); err != nil {
		return nil, err
	}
	if out.TypedAuthority.NormalizerIDRef != "normalizerId" {
		return nil, errors.New("evidenceStage2Authority.typedAuthority.normalizerIdRef must be `normalizerId`")
	}
	if out.TypedAuthority.PolicyDigestRef != "policyDigest" {
		return nil, errors.New("evidenceStage2Authority.typedAuthority.policyDigestRef must be `policyDigest`")
	}

	aliasObj, err := reqObject(obj["compatibilityAlias"], "evidenceStage2Authority.compatibilityAlias")
	if err != nil {
		return nil, err
	}
	if out.CompatibilityAlias.KindRef, err = reqString(aliasObj["kindRef"], "evidenceStage2Authority.compatibilityAlias.kindRef"); err != nil {
		return nil, err
	}
	if out.CompatibilityAlias.DigestRef, err = reqString(aliasObj["digestRef"], "evidenceStage2Authority.compatibilityAlias.digestRef"); err != nil {
		return nil, err
	}
	if out.CompatibilityAlias.Role, err = reqString(aliasObj["role"], "evidenceStage2Authority.compatibilityAlias.role"); err != nil {
		return nil, err
	}
	if out.CompatibilityAlias.Role != stage2CompatibilityAliasRole {
		return nil, errors.Errorf("evidenceStage2Authority.compatibilityAlias.role must be `%s`", stage2CompatibilityAliasRole)
	}
	if out.CompatibilityAlias.SupportUntilEpoch, err = reqEpoch(aliasObj["supportUntilEpoch"], "evidenceStage2Authority.compatibilityAlias.supportUntilEpoch"); err != nil {
		return nil, err
	}
	if out.TypedAuthority.DigestRef == out.CompatibilityAlias.DigestRef {
		return nil, errors.New("evidenceStage2Authority typed/alias digest refs must differ")
	}

	if discipline.RolloverEpoch == "" {
		return nil, errors.New("evidenceStage2Authority requires schemaLifecycle.epochDiscipline.rolloverEpoch")
	}
	if out.CompatibilityAlias.SupportUntilEpoch != discipline.RolloverEpoch {
		return nil, errors.New("evidenceStage2Authority.compatibilityAlias.supportUntilEpoch must match schemaLifecycle.epochDiscipline.rolloverEpoch")
	}
	if activeEpoch > out.CompatibilityAlias.SupportUntilEpoch {
		return nil, errors.Errorf(
			"evidenceStage2Authority compatibility alias expired at supportUntilEpoch=%q (activeEpoch=%q)",
			out.CompatibilityAlias.SupportUntilEpoch, activeEpoch)
	}

	routeObj, err := reqObject(obj["bidirEvidenceRoute"], "evidenceStage2Authority.bidirEvidenceRoute")
	if err != nil {
		return nil, err
	}
	if out.BidirEvidenceRoute.RouteKind, err = reqString(routeObj["routeKind"], "evidenceStage2Authority.bidirEvidenceRoute.routeKind"); err != nil {
		return nil, err
	}
	if out.BidirEvidenceRoute.RouteKind != stage2BidirEvidenceRouteKind {
		return nil, errors.Errorf("evidenceStage2Authority.bidirEvidenceRoute.routeKind must be `%s`", stage2BidirEvidenceRouteKind)
	}
	if out.BidirEvidenceRoute.ObligationFieldRef, err = reqString(routeObj["obligationFieldRef"], "evidenceStage2Authority.bidirEvidenceRoute.obligationFieldRef"); err != nil {
		return nil, err
	}
	if out.BidirEvidenceRoute.ObligationFieldRef != stage2BidirEvidenceObligationField {
		return nil, errors.Errorf("evidenceStage2Authority.bidirEvidenceRoute.obligationFieldRef must be `%s`", stage2BidirEvidenceObligationField)
	}
	if out.BidirEvidenceRoute.RequiredObligations, err = reqStringList(routeObj["requiredObligations"], "evidenceStage2Authority.bidirEvidenceRoute.requiredObligations"); err != nil {
		return nil, err
	}
	if !sameMembers(out.BidirEvidenceRoute.RequiredObligations, Stage2RequiredKernelObligations) {
		return nil, errors.New("evidenceStage2Authority.bidirEvidenceRoute.requiredObligations must match canonical Stage 2 kernel obligations")
	}

	routeFcObj, err := reqObject(routeObj["failureClasses"], "evidenceStage2Authority.bidirEvidenceRoute.failureClasses")
	if err != nil {
		return nil, err
	}
	routeParsed := [2]string{}
	for i, key := range []string{"missing", "drift"} {
		if routeParsed[i], err = reqString(routeFcObj[key], "evidenceStage2Authority.bidirEvidenceRoute.failureClasses."+key); err != nil {
			return nil, err
		}
	}
	if routeParsed != stage2KernelComplianceFailureClasses {
		return nil, errors.New("evidenceStage2Authority.bidirEvidenceRoute.failureClasses must map to canonical Stage 2 kernel-compliance classes")
	}
	out.BidirEvidenceRoute.FailureClasses = BidirFailureClasses{Missing: routeParsed[0], Drift: routeParsed[1]}

	if routeObj["fallback"] != nil {
		fallbackObj, err := reqObject(routeObj["fallback"], "evidenceStage2Authority.bidirEvidenceRoute.fallback")
		if err != nil {
			return nil, err
		}
		mode, err := reqString(fallbackObj["mode"], "evidenceStage2Authority.bidirEvidenceRoute.fallback.mode")
		if err != nil {
			return nil, err
		}
		if mode != stage2BidirEvidenceFallbackMode {
			return nil, errors.Errorf("evidenceStage2Authority.bidirEvidenceRoute.fallback.mode must be `%s`", stage2BidirEvidenceFallbackMode)
		}
		fallback := &BidirFallback{Mode: mode}
		if fallbackObj["profileKinds"] != nil {
			rows, ok := fallbackObj["profileKinds"].([]interface{})
			if !ok {
				return nil, errors.New("evidenceStage2Authority.bidirEvidenceRoute.fallback.profileKinds must be a list")
			}
			seen := map[string]bool{}
			for idx, row := range rows {
				kind, err := reqString(row, fmt.Sprintf("evidenceStage2Authority.bidirEvidenceRoute.fallback.profileKinds[%d]", idx))
				if err != nil {
					return nil, err
				}
				if seen[kind] {
					return nil, errors.New("evidenceStage2Authority.bidirEvidenceRoute.fallback.profileKinds must not contain duplicates")
				}
				seen[kind] = true
				fallback.ProfileKinds = append(fallback.ProfileKinds, kind)
			}
		}
		out.BidirEvidenceRoute.Fallback = fallback
	}

	if obj["kernelComplianceSentinel"] != nil {
		sentinelObj, err := reqObject(obj["kernelComplianceSentinel"], "evidenceStage2Authority.kernelComplianceSentinel")
		if err != nil {
			return nil, err
		}
		sentinelObligations, err := reqStringList(sentinelObj["requiredObligations"], "evidenceStage2Authority.kernelComplianceSentinel.requiredObligations")
		if err != nil {
			return nil, err
		}
		if !sameMembers(sentinelObligations, out.BidirEvidenceRoute.RequiredObligations) {
			return nil, errors.New("evidenceStage2Authority.kernelComplianceSentinel.requiredObligations must match evidenceStage2Authority.bidirEvidenceRoute.requiredObligations")
		}
		sentinelFcObj, err := reqObject(sentinelObj["failureClasses"], "evidenceStage2Authority.kernelComplianceSentinel.failureClasses")
		if err != nil {
			return nil, err
		}
		sentinelParsed := [2]string{}
		for i, key := range []string{"missing", "drift"} {
			if sentinelParsed[i], err = reqString(sentinelFcObj[key], "evidenceStage2Authority.kernelComplianceSentinel.failureClasses."+key); err != nil {
				return nil, err
			}
		}
		if sentinelParsed != routeParsed {
			return nil, errors.New("evidenceStage2Authority.kernelComplianceSentinel.failureClasses must match evidenceStage2Authority.bidirEvidenceRoute.failureClasses")
		}
		gated := out.BidirEvidenceRoute.Fallback != nil && out.BidirEvidenceRoute.Fallback.Mode == stage2BidirEvidenceFallbackMode
		inProfile := false
		if gated {
			for _, kind := range out.BidirEvidenceRoute.Fallback.ProfileKinds {
				if kind == out.ProfileKind {
					inProfile = true
				}
			}
		}
		if !gated || !inProfile {
			return nil, errors.New("evidenceStage2Authority.kernelComplianceSentinel requires bidirEvidenceRoute.fallback.mode=`profile_gated_sentinel` with current profileKind included in fallback.profileKinds")
		}
		out.KernelSentinel = &KernelComplianceSentinel{
			RequiredObligations: sentinelObligations,
			FailureClasses:      BidirFailureClasses{Missing: sentinelParsed[0], Drift: sentinelParsed[1]},
		}
	}

	fcObj, err := reqObject(obj["failureClasses"], "evidenceStage2Authority.failureClasses")
	if err != nil {
		return nil, err
	}
	parsed := [3]string{}
	for i, key := range []string{"authorityAliasViolation", "aliasWindowViolation", "unbound"} {
		if parsed[i], err = reqString(fcObj[key], "evidenceStage2Authority.failureClasses."+key); err != nil {
			return nil, err
		}
	}
	if parsed != stage2AuthorityFailureClasses {
		return nil, errors.New("evidenceStage2Authority.failureClasses must map to canonical Stage 2 classes")
	}
	out.FailureClasses = Stage2FailureClasses{AuthorityAliasViolation: parsed[0], AliasWindowViolation: parsed[1], Unbound: parsed[2]}
	return out, nil
}
