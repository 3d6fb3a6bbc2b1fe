// Package match resolves normalized names against the canonical entity
// registry: exact alias lookup first, similarity fallback second. Both
// resolvers are pure; given the same registry snapshot they always return
// the same answer.
package match

import (
	"github.com/ppiankov/agtrack/internal/model"
	"github.com/ppiankov/agtrack/internal/registry"
)

// Match is a successful resolution of a name to an entity.
type Match struct {
	EntityID string
	Method   model.ResolutionMethod
	Score    float64
}

// AliasResolver resolves names by exact comparison-form lookup against
// every alias of every live entity.
type AliasResolver struct{}

// NewAliasResolver creates a new alias resolver
func NewAliasResolver() *AliasResolver {
	return &AliasResolver{}
}

// Resolve looks the name up in the snapshot's alias index. A hit scores
// 1.0 and mutates nothing.
func (r *AliasResolver) Resolve(name model.NormalizedName, snap *registry.Snapshot) (Match, bool) {
	if name.Empty {
		return Match{}, false
	}
	id, ok := snap.AliasOwner(name.Comparison)
	if !ok {
		return Match{}, false
	}
	return Match{EntityID: id, Method: model.MethodAliasExact, Score: 1.0}, true
}
