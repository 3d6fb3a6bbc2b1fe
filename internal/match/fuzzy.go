package match

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/ppiankov/agtrack/internal/model"
	"github.com/ppiankov/agtrack/internal/normalize"
	"github.com/ppiankov/agtrack/internal/registry"
)

// FuzzyMatcher resolves names that missed the alias index by token-sort
// similarity: tokens are sorted lexically and rejoined on both sides, then
// scored by edit distance, so word reordering ("Blackstone Group" vs
// "Group Blackstone") does not defeat the match.
type FuzzyMatcher struct {
	cfg model.ResolverConfig
}

// NewFuzzyMatcher creates a fuzzy matcher with the given policy.
func NewFuzzyMatcher(cfg model.ResolverConfig) *FuzzyMatcher {
	return &FuzzyMatcher{cfg: cfg}
}

// Match scores the name against every live entity's canonical name and
// aliases. Candidates at or above the threshold are ranked by score, then
// by resolved-record count (the stronger prior), then by lexically
// smallest canonical name, so the winner does not depend on processing
// order. Below the threshold the name stays unresolved; it is never
// attached to the nearest entity.
func (m *FuzzyMatcher) Match(name model.NormalizedName, snap *registry.Snapshot) (Match, bool) {
	return m.MatchExcluding(name, snap, "")
}

// MatchExcluding is Match with one entity id skipped. The pipeline's
// consolidation sweep uses it to score a freshly promoted entity against
// everything except itself.
func (m *FuzzyMatcher) MatchExcluding(name model.NormalizedName, snap *registry.Snapshot, excludeID string) (Match, bool) {
	if name.Empty {
		return Match{}, false
	}
	query := normalize.TokenSort(name.Comparison)
	queryLen := utf8.RuneCountInString(query)

	// Short strings fuzzy-match promiscuously ("Chile" vs "Children").
	if queryLen < m.cfg.MinNameLength {
		return Match{}, false
	}

	var (
		found    bool
		best     float64
		bestID   string
		bestName string
		bestPrio int
	)
	for _, entity := range snap.Entities() {
		if excludeID != "" && entity.ID == excludeID {
			continue
		}
		score := m.entityScore(query, queryLen, entity)
		if score < m.cfg.FuzzyThreshold {
			continue
		}
		better := score > best ||
			(score == best && (entity.ResolvedCount > bestPrio ||
				(entity.ResolvedCount == bestPrio && entity.CanonicalName < bestName)))
		if !found || better {
			found = true
			best = score
			bestID = entity.ID
			bestName = entity.CanonicalName
			bestPrio = entity.ResolvedCount
		}
	}
	if !found {
		return Match{}, false
	}
	return Match{EntityID: bestID, Method: model.MethodFuzzy, Score: best}, true
}

// entityScore returns the best similarity across the entity's token-sorted
// alias forms.
func (m *FuzzyMatcher) entityScore(query string, queryLen int, entity registry.SnapshotEntity) float64 {
	var best float64
	for _, key := range entity.SortKeys {
		keyLen := utf8.RuneCountInString(key)
		if keyLen < m.cfg.MinNameLength {
			continue
		}
		// Dramatically different lengths cannot be the same company even
		// when the edit ratio looks plausible.
		ratio := float64(queryLen) / float64(keyLen)
		if ratio < m.cfg.MinLengthRatio || ratio > m.cfg.MaxLengthRatio {
			continue
		}
		if score := similarity(query, key, queryLen, keyLen); score > best {
			best = score
		}
	}
	return best
}

// similarity converts edit distance to a 0-1 ratio over the longer string.
func similarity(a, b string, alen, blen int) float64 {
	if a == b {
		return 1.0
	}
	longest := alen
	if blen > longest {
		longest = blen
	}
	if longest == 0 {
		return 0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(longest)
}
