package model

import "time"

// RawRecord is one enforcement action as delivered by the upstream
// scraping/extraction collaborator. Immutable once produced.
type RawRecord struct {
	ID                   string     `json:"id"`                         // Upstream record id (source URL hash if absent)
	State                string     `json:"state"`                      // Two-letter state code
	Date                 *time.Time `json:"date,omitempty"`             // Announcement date (optional)
	Headline             string     `json:"headline"`                   // Press release title
	Defendants           []string   `json:"defendants"`                 // Raw defendant name strings, primary first
	ActionType           ActionType `json:"action_type"`                // Kind of enforcement action
	Category             string     `json:"category,omitempty"`         // Violation category key
	AmountCents          *Cents     `json:"amount_cents,omitempty"`     // Settlement amount, currency-normalized (optional)
	IsMultistateTotal    bool       `json:"is_multistate_total"`        // Upstream tag: amount is the multistate total
	Statutes             []string   `json:"statutes,omitempty"`         // Statute citations
	SourceURL            string     `json:"source_url"`                 // Press release URL
	ExtractionConfidence float64    `json:"extraction_confidence"`      // Upstream extraction confidence (0-1)
}

// HasAmount reports whether the record carries a usable settlement amount.
func (r *RawRecord) HasAmount() bool {
	return r.AmountCents != nil && *r.AmountCents > 0
}

// Primary returns the primary defendant name, or "" when none were extracted.
func (r *RawRecord) Primary() string {
	if len(r.Defendants) == 0 {
		return ""
	}
	return r.Defendants[0]
}

// Cents is a monetary amount in US cents. Dollar values compare exactly,
// which the dedup total policy depends on.
type Cents int64

// Dollars returns the amount as floating-point dollars, for display only.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

// ActionType categorizes the enforcement action
type ActionType string

const (
	ActionSettlement   ActionType = "settlement"
	ActionLawsuitFiled ActionType = "lawsuit_filed"
	ActionConsent      ActionType = "consent_decree"
	ActionAssurance    ActionType = "assurance_of_discontinuance"
	ActionJudgment     ActionType = "judgment"
	ActionInjunction   ActionType = "injunction"
	ActionOther        ActionType = "other"
)
