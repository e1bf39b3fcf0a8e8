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
	"github.com/pkg/errors"
)

// CanonicalSchemaKind returns the canonical kind declared by a kind family.
func (c *Contract) CanonicalSchemaKind(familyID string) (string, error) {
	family, ok := c.SchemaLifecycle.KindFamilies[familyID]
	if !ok {
		return "", errors.Errorf("unknown schemaLifecycle kind family: %q", familyID)
	}
	return family.CanonicalKind, nil
}

// ResolveSchemaKind accepts either the canonical kind or an alias whose
// support window still covers the given epoch (the contract's active epoch
// when activeEpoch is empty), and canonicalizes it.
func (c *Contract) ResolveSchemaKind(familyID, kind, activeEpoch string) (string, error) {
	family, ok := c.SchemaLifecycle.KindFamilies[familyID]
	if !ok {
		return "", errors.Errorf("unknown schemaLifecycle kind family: %q", familyID)
	}
	epoch := activeEpoch
	if epoch == "" {
		epoch = c.SchemaLifecycle.ActiveEpoch
	}
	if !epochRe.MatchString(epoch) {
		return "", errors.Errorf("schemaLifecycle.activeEpoch must use YYYY-MM with zero-padded month")
	}
	return resolveKindInFamily(familyID, family, kind, epoch, "schemaLifecycle.kindFamilies."+familyID)
}

// RequiredProjectionPolicy is the canonical projection-policy kind.
func (c *Contract) RequiredProjectionPolicy() string {
	return c.RequiredGateProjection.ProjectionPolicy
}

// OrderedCheckIDs returns the projected check ids in canonical order.
func (c *Contract) OrderedCheckIDs() []string {
	out := make([]string, len(c.RequiredGateProjection.CheckOrder))
	copy(out, c.RequiredGateProjection.CheckOrder)
	return out
}
