// Package score computes per-record confidence/completeness scores.
// Scoring never filters anything; downstream reporting decides inclusion
// thresholds.
package score

import (
	"math"

	"github.com/ppiankov/agtrack/internal/model"
)

// Component weights. Field completeness carries 0.60 of the score,
// resolution confidence the remaining 0.40.
const (
	weightDate       = 0.15
	weightAmount     = 0.20
	weightCategory   = 0.15
	weightStatute    = 0.10
	weightResolution = 0.40

	// unresolvedFloor keeps unresolved records visible with a low but
	// non-zero resolution component.
	unresolvedFloor = 0.25
)

// Scorer computes quality scores for resolved records
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the [0,1] quality score for one record: a weighted sum
// of field completeness and resolution confidence. Same inputs always
// produce the same score.
func (s *Scorer) Score(rr model.ResolvedRecord, raw model.RawRecord) model.QualityScore {
	breakdown := make(map[string]float64, 5)

	if raw.Date != nil {
		breakdown["date"] = weightDate
	}
	if raw.HasAmount() {
		breakdown["amount"] = weightAmount
	}
	if raw.Category != "" && raw.Category != "other" {
		breakdown["category"] = weightCategory
	}
	if len(raw.Statutes) > 0 {
		breakdown["statute"] = weightStatute
	}
	breakdown["resolution"] = weightResolution * resolutionFactor(rr)

	var total float64
	for _, v := range breakdown {
		total += v
	}

	return model.QualityScore{
		RecordID:  rr.RecordID,
		Score:     round4(math.Min(total, 1.0)),
		Breakdown: breakdown,
	}
}

// resolutionFactor scales the resolution component: exact alias matches
// score highest, fuzzy matches inherit their similarity, unresolved
// records get the floor.
func resolutionFactor(rr model.ResolvedRecord) float64 {
	switch rr.Method {
	case model.MethodAliasExact:
		return 1.0
	case model.MethodFuzzy:
		return rr.Score
	default:
		return unresolvedFloor
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
