package match

import (
	"strings"

	"github.com/ppiankov/agtrack/internal/model"
)

// Fragments that body-text extraction coughs up which are never company
// names: bare pronouns, generic nouns, enforcement boilerplate.
var junkTokens = map[string]struct{}{
	"he": {}, "she": {}, "it": {}, "they": {}, "them": {}, "his": {},
	"her": {}, "its": {}, "their": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "who": {}, "we": {}, "you": {}, "i": {},
	"company": {}, "companies": {}, "corporation": {}, "business": {},
	"businesses": {}, "defendant": {}, "defendants": {}, "respondent": {},
	"respondents": {}, "individual": {}, "individuals": {}, "person": {},
	"persons": {}, "people": {}, "consumer": {}, "consumers": {},
	"state": {}, "states": {}, "attorney": {}, "general": {}, "office": {},
	"agency": {}, "department": {}, "court": {}, "settlement": {},
	"other": {}, "others": {}, "unknown": {}, "unnamed": {}, "several": {},
	"various": {}, "and": {}, "of": {}, "the": {}, "a": {}, "an": {},
}

// Promoter decides when an unresolved name earns a brand-new canonical
// entity. One-off extraction noise must not pollute the entity table, so
// promotion requires the name to recur across records or states.
type Promoter struct {
	cfg model.ResolverConfig
}

// NewPromoter creates a promoter with the given policy.
func NewPromoter(cfg model.ResolverConfig) *Promoter {
	return &Promoter{cfg: cfg}
}

// Valid reports whether the name could ever denote an entity: non-empty
// and not a pure stop-word/pronoun fragment.
func (p *Promoter) Valid(name model.NormalizedName) bool {
	if name.Empty || name.Comparison == "" {
		return false
	}
	tokens := strings.Fields(name.Comparison)
	if len(tokens) == 0 {
		return false
	}
	for _, token := range tokens {
		if _, junk := junkTokens[token]; !junk && len(token) > 1 {
			return true
		}
	}
	return false
}

// Eligible reports whether a valid name has recurred enough to promote:
// seen in the minimum number of distinct records, or the minimum number
// of distinct states, whichever comes first.
func (p *Promoter) Eligible(name model.NormalizedName, records, states int) bool {
	if !p.Valid(name) {
		return false
	}
	return records >= p.cfg.MinPromotionRecords || states >= p.cfg.MinPromotionStates
}
