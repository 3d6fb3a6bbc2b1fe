package registry

import (
	"sort"

	"github.com/ppiankov/agtrack/internal/normalize"
)

// Snapshot is an immutable view of the registry for the read-only
// resolution passes. Workers share one snapshot freely; the registry can
// keep mutating without affecting resolutions already in flight.
type Snapshot struct {
	aliasIdx map[string]string
	entities []SnapshotEntity
}

// SnapshotEntity is one live entity prepared for fuzzy comparison: every
// alias is pre-folded to its token-sorted comparison form.
type SnapshotEntity struct {
	ID            string
	CanonicalName string
	SortKeys      []string // token-sorted comparison forms, sorted, deduplicated
	ResolvedCount int      // records already resolved to this entity
}

// AliasOwner returns the entity owning the given comparison form.
func (s *Snapshot) AliasOwner(comparison string) (string, bool) {
	id, ok := s.aliasIdx[comparison]
	return id, ok
}

// Entities returns the snapshot's entities in deterministic order
// (canonical name, then id).
func (s *Snapshot) Entities() []SnapshotEntity {
	return s.entities
}

// Len returns the number of live entities in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.entities)
}

func (st *state) snapshot() *Snapshot {
	snap := &Snapshot{
		aliasIdx: make(map[string]string, len(st.aliasIdx)),
		entities: make([]SnapshotEntity, 0, len(st.entities)),
	}
	for comparison, id := range st.aliasIdx {
		snap.aliasIdx[comparison] = id
	}
	for _, e := range st.entities {
		keys := make([]string, 0, len(e.aliases))
		seen := make(map[string]struct{}, len(e.aliases))
		for comparison := range e.aliases {
			key := normalize.TokenSort(comparison)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		sort.Strings(keys)
		snap.entities = append(snap.entities, SnapshotEntity{
			ID:            e.id,
			CanonicalName: e.canonicalName,
			SortKeys:      keys,
			ResolvedCount: len(e.records),
		})
	}
	sort.Slice(snap.entities, func(i, j int) bool {
		if snap.entities[i].CanonicalName != snap.entities[j].CanonicalName {
			return snap.entities[i].CanonicalName < snap.entities[j].CanonicalName
		}
		return snap.entities[i].ID < snap.entities[j].ID
	})
	return snap
}
