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
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// evaluateCrossLaneSpanSquare applies the shared cross-lane contract: the
// required capabilities must be claimed, the pullback-base-change route must
// be span_square_commutation, the span-square witness digest must re-derive,
// and the location descriptor must hash to the expected loc ref. A nil
// result means the contract holds.
func evaluateCrossLaneSpanSquare(artifacts map[string]interface{}, requiredCapabilities []string, labelPrefix string) (*Outcome, error) {
	claimed, err := claimedSet(artifacts["claimedCapabilities"], labelPrefix+".claimedCapabilities")
	if err != nil {
		return nil, err
	}
	if !subset(requiredCapabilities, claimed) {
		out := rejected("cross_lane_capability_missing")
		return &out, nil
	}

	routeObj, err := ensureObject(artifacts["crossLaneRoute"], labelPrefix+".crossLaneRoute")
	if err != nil {
		return nil, err
	}
	route, err := ensureString(routeObj["pullbackBaseChange"], labelPrefix+".crossLaneRoute.pullbackBaseChange")
	if err != nil {
		return nil, err
	}
	if route != RequiredCrossLaneRoute {
		out := rejected("cross_lane_route_missing")
		return &out, nil
	}

	witnessObj, err := ensureObject(artifacts["spanSquareWitness"], labelPrefix+".spanSquareWitness")
	if err != nil {
		return nil, err
	}
	squareID, err := ensureString(witnessObj["squareId"], labelPrefix+".spanSquareWitness.squareId")
	if err != nil {
		return nil, err
	}
	witnessRoute, err := ensureString(witnessObj["route"], labelPrefix+".spanSquareWitness.route")
	if err != nil {
		return nil, err
	}
	witnessDigest, err := ensureString(witnessObj["digest"], labelPrefix+".spanSquareWitness.digest")
	if err != nil {
		return nil, err
	}
	expectedDigest, err := computeSpanSquareDigest(squareID, witnessRoute)
	if err != nil {
		return nil, err
	}
	if witnessRoute != RequiredCrossLaneRoute || witnessDigest != expectedDigest {
		out := rejected("cross_lane_witness_mismatch")
		return &out, nil
	}

	locationDescriptor, err := ensureObject(artifacts["locationDescriptor"], labelPrefix+".locationDescriptor")
	if err != nil {
		return nil, err
	}
	expectedLocRef, err := ensureString(artifacts["expectedLocRef"], labelPrefix+".expectedLocRef")
	if err != nil {
		return nil, err
	}
	actualLocRef, err := computeSiteLocRef(locationDescriptor, labelPrefix+".locationDescriptor")
	if err != nil {
		return nil, err
	}
	if actualLocRef != expectedLocRef {
		out := rejected("cross_lane_transport_mismatch")
		return &out, nil
	}
	return nil, nil
}

func evaluateAdjointsSitesProposal(caseObj map[string]interface{}) (Outcome, error) {
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	claimed, err := claimedSet(artifacts["claimedCapabilities"], "claimedCapabilities")
	if err != nil {
		return Outcome{}, err
	}
	if !claimed[CapabilityAdjointsSites] {
		return rejected("capability_not_claimed"), nil
	}

	proposalA, okA := artifacts["proposalA"].(map[string]interface{})
	proposalB, okB := artifacts["proposalB"].(map[string]interface{})
	if !okA || !okB {
		return rejected("proposal_invalid_shape"), nil
	}

	viewA, failureA, err := CheckProposal(proposalA)
	if err != nil {
		return Outcome{}, err
	}
	if failureA != "" {
		return rejected(failureA), nil
	}
	viewB, failureB, err := CheckProposal(proposalB)
	if err != nil {
		return Outcome{}, err
	}
	if failureB != "" {
		return rejected(failureB), nil
	}

	kindA, _ := viewA.Canonical["proposalKind"].(string)
	kindB, _ := viewB.Canonical["proposalKind"].(string)
	if kindA != "refinementPlan" || kindB != "refinementPlan" {
		return rejected("adjoints_sites_requires_refinement_plan"), nil
	}
	if !canonicalEqual(viewA.Canonical, viewB.Canonical) {
		return rejected("proposal_nondeterministic"), nil
	}
	if !canonicalEqual(viewA.Obligations, viewB.Obligations) {
		return rejected("proposal_nondeterministic"), nil
	}

	obligationKinds := map[string]bool{}
	for _, obligation := range viewA.Obligations {
		if kind, ok := obligation["kind"].(string); ok {
			obligationKinds[kind] = true
		}
	}
	missing := []string{}
	for _, kind := range AdjointsSitesRequiredObligations {
		if !obligationKinds[kind] {
			missing = append(missing, kind)
		}
	}
	if len(missing) > 0 {
		return rejected("adjoints_sites_obligation_missing"), nil
	}

	if !canonicalEqual(viewA.Discharge, viewB.Discharge) {
		return rejected("proposal_nondeterministic"), nil
	}
	outcome, err := ensureString(viewA.Discharge["outcome"], "discharge.outcome")
	if err != nil {
		return Outcome{}, err
	}
	failureClasses, err := canonicalCheckSet(viewA.Discharge["failureClasses"], "discharge.failureClasses")
	if err != nil {
		return Outcome{}, err
	}
	if outcome == "rejected" {
		if len(failureClasses) > 0 {
			return rejected(failureClasses...), nil
		}
		return rejected("adjoint_triple_coherence_failure"), nil
	}
	if outcome != "accepted" {
		return Outcome{}, errors.New("discharge.outcome must be 'accepted' or 'rejected'")
	}
	return accepted(), nil
}

func evaluateAdjointsSitesComposed(caseObj map[string]interface{}) (Outcome, error) {
	base, err := evaluateAdjointsSitesProposal(caseObj)
	if err != nil || base.Result != "accepted" {
		return base, err
	}
	artifacts, err := ensureObject(caseObj["artifacts"], "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	contractOutcome, err := evaluateCrossLaneSpanSquare(artifacts, []string{CapabilityAdjointsSites, CapabilitySqueakSite}, "artifacts")
	if err != nil {
		return Outcome{}, err
	}
	if contractOutcome != nil {
		return *contractOutcome, nil
	}
	return accepted(), nil
}

func evaluateAdjointsSitesInvariance(caseObj map[string]interface{}) (Outcome, error) {
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
		if !claimed[CapabilityAdjointsSites] {
			return rejected("capability_not_claimed"), nil
		}
	}
	return passthrough(verdict, classes), nil
}

func evaluateAdjointsSitesComposedInvariance(caseObj map[string]interface{}) (Outcome, error) {
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

	contractOutcome, err := evaluateCrossLaneSpanSquare(artifacts, []string{CapabilityAdjointsSites, CapabilitySqueakSite}, "artifacts")
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
	return passthrough(verdict, classes), nil
}

// EvaluateAdjointsSites dispatches one adjoints_sites vector by id.
func EvaluateAdjointsSites(vectorID string, caseObj map[string]interface{}) (Outcome, error) {
	switch vectorID {
	case "golden/adjoint_site_obligations_accept",
		"adversarial/adjoint_triangle_missing_reject",
		"adversarial/beck_chevalley_sigma_missing_reject",
		"adversarial/beck_chevalley_pi_missing_reject",
		"adversarial/refinement_invariance_missing_reject":
		return evaluateAdjointsSitesProposal(caseObj)
	case "golden/composed_sigpi_squeak_span_accept",
		"adversarial/composed_sigpi_squeak_span_route_missing_reject",
		"adversarial/composed_sigpi_squeak_transport_ref_mismatch_reject":
		return evaluateAdjointsSitesComposed(caseObj)
	case "adversarial/adjoints_sites_requires_claim":
		return requiresClaim(caseObj, "adjoints_sites_obligations", CapabilityAdjointsSites)
	case "invariance/same_composed_sigpi_squeak_span_local",
		"invariance/same_composed_sigpi_squeak_span_external":
		return evaluateAdjointsSitesComposedInvariance(caseObj)
	}
	if strings.HasPrefix(vectorID, "invariance/") {
		return evaluateAdjointsSitesInvariance(caseObj)
	}
	return Outcome{}, errors.Errorf("unsupported adjoints_sites vector id: %s", vectorID)
}
