package model

// SettlementGroup is the deduplicated representation of one real-world
// settlement across its per-state mentions. Its total is counted once
// system-wide, never summed across contributing records.
type SettlementGroup struct {
	ID          string   `json:"id"`
	EntityID    string   `json:"entity_id"`
	TotalCents  Cents    `json:"total_cents"`
	Fingerprint string   `json:"fingerprint"`
	RecordIDs   []string `json:"record_ids"`   // Contributing RawRecord ids, input order
	States      []string `json:"states"`       // Distinct states among contributors, sorted
	NeedsReview bool     `json:"needs_review"` // Contributor amounts disagree and none is tagged as the multistate total
}

// Multistate reports whether the settlement was mentioned by three or
// more states.
func (g *SettlementGroup) Multistate() bool {
	return len(g.States) >= 3
}
