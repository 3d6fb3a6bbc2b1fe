package model

// CanonicalEntity is the single stable identity a family of raw name
// variants resolves to. Entities are never deleted, only merged.
type CanonicalEntity struct {
	ID            string   `json:"id"`                  // Stable opaque id
	CanonicalName string   `json:"canonical_name"`      // Display name
	Aliases       []string `json:"aliases"`             // Known alias strings (display forms)
	States        []string `json:"states,omitempty"`    // States with observed actions
	ParentID      string   `json:"parent_id,omitempty"` // Weak subsidiary link, relation only
}

// NormalizedName is the output of the name normalizer: the display form is
// preserved verbatim, the comparison form is what lookups and fuzzy
// matching operate on.
type NormalizedName struct {
	Display    string `json:"display"`    // Cleaned name, original casing
	Comparison string `json:"comparison"` // Folded, accent-stripped, whitespace-collapsed
	Empty      bool   `json:"empty"`      // Nothing usable survived cleaning
}

// MergeEvent is one immutable audit entry recording an entity merge.
type MergeEvent struct {
	AbsorbedID string `json:"absorbed_id"`
	SurvivorID string `json:"survivor_id"`
	Ordinal    int    `json:"ordinal"` // Causal order within the run, 0-based
	Reason     string `json:"reason,omitempty"`
}
