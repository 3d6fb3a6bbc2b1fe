package score

import (
	"math"
	"testing"
	"time"

	"github.com/ppiankov/agtrack/internal/model"
)

func fullRecord() model.RawRecord {
	d := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	amount := model.Cents(10_000_000)
	return model.RawRecord{
		ID:          "r1",
		State:       "CA",
		Date:        &d,
		ActionType:  model.ActionSettlement,
		Category:    "privacy",
		AmountCents: &amount,
		Statutes:    []string{"Cal. Bus. & Prof. Code § 17200"},
	}
}

func TestScore(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name     string
		resolved model.ResolvedRecord
		mutate   func(*model.RawRecord)
		want     float64
	}{
		{
			name:     "complete record with alias match",
			resolved: model.ResolvedRecord{RecordID: "r1", EntityID: "e1", Method: model.MethodAliasExact, Score: 1.0},
			want:     1.0,
		},
		{
			name:     "complete record with fuzzy match",
			resolved: model.ResolvedRecord{RecordID: "r1", EntityID: "e1", Method: model.MethodFuzzy, Score: 0.9},
			want:     0.96, // 0.60 completeness + 0.40*0.9
		},
		{
			name:     "complete but unresolved",
			resolved: model.ResolvedRecord{RecordID: "r1", Method: model.MethodUnresolved},
			want:     0.70, // 0.60 completeness + 0.40*0.25
		},
		{
			name:     "bare unresolved record",
			resolved: model.ResolvedRecord{RecordID: "r1", Method: model.MethodUnresolved},
			mutate: func(r *model.RawRecord) {
				r.Date = nil
				r.AmountCents = nil
				r.Category = ""
				r.Statutes = nil
			},
			want: 0.10, // resolution floor only
		},
		{
			name:     "category other does not count",
			resolved: model.ResolvedRecord{RecordID: "r1", EntityID: "e1", Method: model.MethodAliasExact, Score: 1.0},
			mutate: func(r *model.RawRecord) {
				r.Category = "other"
			},
			want: 0.85,
		},
		{
			name:     "missing amount",
			resolved: model.ResolvedRecord{RecordID: "r1", EntityID: "e1", Method: model.MethodAliasExact, Score: 1.0},
			mutate: func(r *model.RawRecord) {
				r.AmountCents = nil
			},
			want: 0.80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := fullRecord()
			if tt.mutate != nil {
				tt.mutate(&raw)
			}
			got := s.Score(tt.resolved, raw)
			if math.Abs(got.Score-tt.want) > 1e-9 {
				t.Errorf("Score = %v, want %v", got.Score, tt.want)
			}
			if got.RecordID != "r1" {
				t.Errorf("RecordID = %q", got.RecordID)
			}

			var sum float64
			for _, v := range got.Breakdown {
				sum += v
			}
			if math.Abs(math.Min(sum, 1.0)-got.Score) > 1e-9 {
				t.Errorf("breakdown sums to %v, score is %v", sum, got.Score)
			}
		})
	}
}

func TestScoreIsPure(t *testing.T) {
	s := NewScorer()
	raw := fullRecord()
	rr := model.ResolvedRecord{RecordID: "r1", EntityID: "e1", Method: model.MethodFuzzy, Score: 0.87}

	first := s.Score(rr, raw)
	second := s.Score(rr, raw)
	if first.Score != second.Score {
		t.Errorf("scores differ across calls: %v vs %v", first.Score, second.Score)
	}
}
