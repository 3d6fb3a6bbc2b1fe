package model

// ResolutionMethod records how a raw name was mapped to an entity
type ResolutionMethod string

const (
	MethodAliasExact ResolutionMethod = "alias_exact" // Exact alias lookup, score 1.0
	MethodFuzzy      ResolutionMethod = "fuzzy"       // Similarity match at or above threshold
	MethodUnresolved ResolutionMethod = "unresolved"  // No match, surfaced for manual review
)

// ResolvedRecord is the resolution outcome for exactly one RawRecord.
// It is re-pointed, never duplicated, when its entity is later merged.
type ResolvedRecord struct {
	RecordID string           `json:"record_id"`
	EntityID string           `json:"entity_id,omitempty"` // "" while unresolved
	Method   ResolutionMethod `json:"method"`
	Score    float64          `json:"score,omitempty"` // 1.0 alias, similarity for fuzzy, absent otherwise
	RawName  string           `json:"raw_name"`        // Primary defendant as extracted
}

// Resolved reports whether the record was assigned to a canonical entity.
func (r *ResolvedRecord) Resolved() bool {
	return r.Method != MethodUnresolved && r.EntityID != ""
}
