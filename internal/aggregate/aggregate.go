// Package aggregate produces read-only rollups over resolved output.
// Everything here is reproducible from its inputs; there is no hidden
// state.
package aggregate

import (
	"sort"
	"strconv"

	"github.com/ppiankov/agtrack/internal/model"
)

// Aggregator computes counts and totals by entity, state, category, and
// year.
type Aggregator struct{}

// NewAggregator creates a new aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Rollup aggregates a run's full output. Settlement money follows the
// "counted once" contract: every total comes from group totals, never
// from summing per-state mentions, and each group is attributed to a
// single anchor record for the state/category/year buckets.
func (a *Aggregator) Rollup(
	records []model.RawRecord,
	resolved []model.ResolvedRecord,
	groups []model.SettlementGroup,
	entities []model.CanonicalEntity,
) model.Rollup {
	rollup := model.Rollup{TotalRecords: len(records)}

	recordByID := make(map[string]*model.RawRecord, len(records))
	for i := range records {
		recordByID[records[i].ID] = &records[i]
	}
	nameByEntity := make(map[string]string, len(entities))
	for _, e := range entities {
		nameByEntity[e.ID] = e.CanonicalName
	}

	type entityAcc struct {
		records     int
		states      map[string]struct{}
		settlements int
		total       model.Cents
	}
	perEntity := make(map[string]*entityAcc)
	acc := func(entityID string) *entityAcc {
		e, ok := perEntity[entityID]
		if !ok {
			e = &entityAcc{states: make(map[string]struct{})}
			perEntity[entityID] = e
		}
		return e
	}

	stateRecords := make(map[string]int)
	categoryRecords := make(map[string]int)
	yearRecords := make(map[string]int)

	for i := range resolved {
		raw := recordByID[resolved[i].RecordID]
		if raw == nil {
			continue
		}
		if resolved[i].Resolved() {
			rollup.ResolvedRecords++
			e := acc(resolved[i].EntityID)
			e.records++
			if raw.State != "" {
				e.states[raw.State] = struct{}{}
			}
		} else {
			rollup.UnresolvedRecords++
		}
		if raw.State != "" {
			stateRecords[raw.State]++
		}
		if raw.Category != "" {
			categoryRecords[raw.Category]++
		}
		yearRecords[yearOf(raw)]++
	}

	stateTotals := make(map[string]model.Cents)
	categoryTotals := make(map[string]model.Cents)
	yearTotals := make(map[string]model.Cents)

	for _, g := range groups {
		rollup.SettlementTotal += g.TotalCents
		if g.NeedsReview {
			rollup.NeedsReviewGroups++
		}
		e := acc(g.EntityID)
		e.settlements++
		e.total += g.TotalCents

		// Anchor the group's money on its first contributing record.
		if len(g.RecordIDs) > 0 {
			if anchor := recordByID[g.RecordIDs[0]]; anchor != nil {
				if anchor.State != "" {
					stateTotals[anchor.State] += g.TotalCents
				}
				if anchor.Category != "" {
					categoryTotals[anchor.Category] += g.TotalCents
				}
				yearTotals[yearOf(anchor)] += g.TotalCents
			}
		}
	}

	for entityID, e := range perEntity {
		if len(e.states) >= 3 {
			rollup.MultistateEntities++
		}
		rollup.ByEntity = append(rollup.ByEntity, model.EntityRollup{
			EntityID:      entityID,
			CanonicalName: nameByEntity[entityID],
			Records:       e.records,
			States:        len(e.states),
			Settlements:   e.settlements,
			Total:         e.total,
		})
	}
	sort.Slice(rollup.ByEntity, func(i, j int) bool {
		ei, ej := rollup.ByEntity[i], rollup.ByEntity[j]
		if ei.Total != ej.Total {
			return ei.Total > ej.Total
		}
		if ei.Records != ej.Records {
			return ei.Records > ej.Records
		}
		return ei.CanonicalName < ej.CanonicalName
	})

	rollup.ByState = buckets(stateRecords, stateTotals)
	rollup.ByCategory = buckets(categoryRecords, categoryTotals)
	rollup.ByYear = buckets(yearRecords, yearTotals)
	return rollup
}

func buckets(counts map[string]int, totals map[string]model.Cents) []model.BucketRollup {
	keys := make(map[string]struct{}, len(counts))
	for k := range counts {
		keys[k] = struct{}{}
	}
	for k := range totals {
		keys[k] = struct{}{}
	}
	out := make([]model.BucketRollup, 0, len(keys))
	for k := range keys {
		out = append(out, model.BucketRollup{Key: k, Records: counts[k], Total: totals[k]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func yearOf(r *model.RawRecord) string {
	if r.Date == nil {
		return "unknown"
	}
	return strconv.Itoa(r.Date.Year())
}
