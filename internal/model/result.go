package model

import "time"

// Result is the complete output of one resolution run: the exposed
// library boundary for the reporting/export collaborator.
type Result struct {
	RunAt    time.Time `json:"run_at"`
	Records  int       `json:"records"` // RawRecords consumed
	Entities []CanonicalEntity `json:"entities"`
	Resolved []ResolvedRecord  `json:"resolved"` // One per RawRecord, input order
	Groups   []SettlementGroup `json:"groups"`
	Scores   []QualityScore    `json:"scores"` // Parallel to Resolved
	Merges   []MergeEvent      `json:"merges,omitempty"`
	Rollup   Rollup            `json:"rollup"`
}

// QualityScore is the confidence/completeness annotation for one record
type QualityScore struct {
	RecordID string  `json:"record_id"`
	Score    float64 `json:"score"`
	// Breakdown holds the per-component contributions so scoring stays
	// explainable.
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// Rollup holds the aggregator's read-only counts and totals.
type Rollup struct {
	TotalRecords       int   `json:"total_records"`
	ResolvedRecords    int   `json:"resolved_records"`
	UnresolvedRecords  int   `json:"unresolved_records"`
	SettlementTotal    Cents `json:"settlement_total_cents"` // Sum of group totals, each counted once
	NeedsReviewGroups  int   `json:"needs_review_groups"`
	MultistateEntities int   `json:"multistate_entities"` // Entities observed in 3+ states

	ByEntity   []EntityRollup   `json:"by_entity"`
	ByState    []BucketRollup   `json:"by_state"`
	ByCategory []BucketRollup   `json:"by_category"`
	ByYear     []BucketRollup   `json:"by_year"`
}

// EntityRollup aggregates one canonical entity's activity
type EntityRollup struct {
	EntityID      string `json:"entity_id"`
	CanonicalName string `json:"canonical_name"`
	Records       int    `json:"records"`
	States        int    `json:"states"`
	Settlements   int    `json:"settlements"`
	Total         Cents  `json:"total_cents"`
}

// BucketRollup aggregates records under one key (state, category, or year)
type BucketRollup struct {
	Key     string `json:"key"`
	Records int    `json:"records"`
	Total   Cents  `json:"total_cents"`
}
