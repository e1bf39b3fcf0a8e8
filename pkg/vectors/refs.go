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

	"github.com/premath/premath/pkg/canonical"
)

// Ref derivations shared across capability predicates. Every ref is a
// scheme-tagged sha256 over a canonical JSON payload.

func computeKcirRef(payload interface{}) (string, error) {
	return canonical.RefString(canonical.SchemeKcir, payload)
}

func computeRunMaterialRef(runMaterial interface{}) (string, error) {
	return canonical.RefString(canonical.SchemeRun, runMaterial)
}

func computeCheckpointRef(checkpointBody interface{}) (string, error) {
	return canonical.RefString(canonical.SchemeCheckpoint, checkpointBody)
}

func computeEventStreamRef(events interface{}) (string, error) {
	return canonical.RefString(canonical.SchemeEvidence, events)
}

func computeSnapshotRef(snapshot interface{}) (string, error) {
	return canonical.RefString(canonical.SchemeIssue, snapshot)
}

func computeSpanSquareDigest(squareID, route string) (string, error) {
	return canonical.RefString(canonical.SchemeSquare, map[string]interface{}{
		"squareId": squareID,
		"route":    route,
	})
}

// canonicalLocDescriptor normalizes a squeak-site location descriptor: the
// capability vector is sorted and deduplicated before hashing.
func canonicalLocDescriptor(descriptor map[string]interface{}, label string) (map[string]interface{}, error) {
	worldID, err := ensureString(descriptor["worldId"], label+".worldId")
	if err != nil {
		return nil, err
	}
	runtimeProfile, err := ensureString(descriptor["runtimeProfile"], label+".runtimeProfile")
	if err != nil {
		return nil, err
	}
	substrateBindingRef, err := ensureString(descriptor["substrateBindingRef"], label+".substrateBindingRef")
	if err != nil {
		return nil, err
	}
	capabilityVector, err := ensureStringList(descriptor["capabilityVector"], label+".capabilityVector")
	if err != nil {
		return nil, err
	}
	sort.Strings(capabilityVector)
	capabilityVector = dedupSorted(capabilityVector)
	return map[string]interface{}{
		"worldId":             worldID,
		"runtimeProfile":      runtimeProfile,
		"capabilityVector":    capabilityVector,
		"substrateBindingRef": substrateBindingRef,
	}, nil
}

func computeSiteLocRef(descriptor map[string]interface{}, label string) (string, error) {
	canonicalDescriptor, err := canonicalLocDescriptor(descriptor, label)
	if err != nil {
		return "", err
	}
	return canonical.RefString(canonical.SchemeLocation, canonicalDescriptor)
}
