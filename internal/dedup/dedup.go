// Package dedup recognizes that one multistate settlement, reported
// independently by several states, is one economic event. Grouping is
// entity-scoped and fully deterministic: same inputs, same groups, same
// order.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/agtrack/internal/model"
	"github.com/ppiankov/agtrack/internal/registry"
)

// Deduplicator groups per-state settlement mentions into canonical
// economic events.
type Deduplicator struct {
	cfg model.DedupConfig
}

// NewDeduplicator creates a deduplicator with the given policy.
func NewDeduplicator(cfg model.DedupConfig) *Deduplicator {
	return &Deduplicator{cfg: cfg}
}

// candidate is one amount-bearing resolved record under consideration.
type candidate struct {
	record   *model.RawRecord
	resolved *model.ResolvedRecord
	amount   model.Cents
}

// building is a group under construction.
type building struct {
	members   []candidate
	lastDate  *time.Time // latest member date; nil for undated singletons
	category  string     // first non-empty member category
	minAmount model.Cents
	maxAmount model.Cents
	tagged    []model.Cents // amounts carried by multistate-total records
}

// Group builds settlement groups over all resolved records. records and
// resolved are parallel slices in input order.
func (d *Deduplicator) Group(records []model.RawRecord, resolved []model.ResolvedRecord) []model.SettlementGroup {
	byEntity := make(map[string][]candidate)
	for i := range resolved {
		if !resolved[i].Resolved() || !records[i].HasAmount() {
			continue
		}
		c := candidate{record: &records[i], resolved: &resolved[i], amount: *records[i].AmountCents}
		byEntity[resolved[i].EntityID] = append(byEntity[resolved[i].EntityID], c)
	}

	entityIDs := make([]string, 0, len(byEntity))
	for id := range byEntity {
		entityIDs = append(entityIDs, id)
	}
	sort.Strings(entityIDs)

	var groups []model.SettlementGroup
	seen := make(map[string]int) // fingerprint → occurrences, for de-collision
	for _, entityID := range entityIDs {
		for _, b := range d.groupEntity(byEntity[entityID]) {
			groups = append(groups, d.finalize(entityID, b, seen))
		}
	}
	return groups
}

// groupEntity partitions one entity's candidates. Candidates are walked in
// (date, state, URL) order; each joins the first open group it is
// compatible with, or opens a new one.
func (d *Deduplicator) groupEntity(candidates []candidate) []*building {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		at, bt := dateKey(a.record.Date), dateKey(b.record.Date)
		if !at.Equal(bt) {
			return at.Before(bt)
		}
		if a.record.State != b.record.State {
			return a.record.State < b.record.State
		}
		return a.record.SourceURL < b.record.SourceURL
	})

	var open []*building
	for _, c := range candidates {
		joined := false
		for _, b := range open {
			if d.compatible(b, c) {
				b.join(c)
				joined = true
				break
			}
		}
		if !joined {
			open = append(open, newBuilding(c))
		}
	}
	return open
}

// compatible applies the fingerprint dimensions: date proximity (rolling
// window), category overlap, and amount agreement.
func (d *Deduplicator) compatible(b *building, c candidate) bool {
	// Undated mentions cannot be windowed; they never share a group.
	if c.record.Date == nil || b.lastDate == nil {
		return false
	}
	days := c.record.Date.Sub(*b.lastDate).Hours() / 24
	if days < 0 {
		days = -days
	}
	if days > float64(d.cfg.WindowDays) {
		return false
	}

	if b.category != "" && c.record.Category != "" && b.category != c.record.Category {
		return false
	}

	// A record tagged as the multistate total is allowed to disagree with
	// the state-specific partial figures around it.
	if c.record.IsMultistateTotal || len(b.tagged) > 0 {
		return true
	}
	lo, hi := b.minAmount, b.maxAmount
	if c.amount < lo {
		lo = c.amount
	}
	if c.amount > hi {
		hi = c.amount
	}
	if lo == hi {
		return true
	}
	return float64(lo)/float64(hi) >= d.cfg.AmountSimilarity
}

func newBuilding(c candidate) *building {
	b := &building{
		members:   []candidate{c},
		category:  c.record.Category,
		minAmount: c.amount,
		maxAmount: c.amount,
	}
	if c.record.Date != nil {
		t := *c.record.Date
		b.lastDate = &t
	}
	if c.record.IsMultistateTotal {
		b.tagged = append(b.tagged, c.amount)
	}
	return b
}

func (b *building) join(c candidate) {
	b.members = append(b.members, c)
	if c.record.Date != nil && (b.lastDate == nil || c.record.Date.After(*b.lastDate)) {
		t := *c.record.Date
		b.lastDate = &t
	}
	if b.category == "" {
		b.category = c.record.Category
	}
	if c.amount < b.minAmount {
		b.minAmount = c.amount
	}
	if c.amount > b.maxAmount {
		b.maxAmount = c.amount
	}
	if c.record.IsMultistateTotal {
		b.tagged = append(b.tagged, c.amount)
	}
}

// finalize applies the canonical total policy: an explicit multistate
// total wins; otherwise the maximum reported amount, which avoids
// under-counting a partial state figure as the full settlement. Untagged
// contributors that disagree are surfaced as needs_review, never guessed
// away.
func (d *Deduplicator) finalize(entityID string, b *building, seen map[string]int) model.SettlementGroup {
	var total model.Cents
	var needsReview bool
	switch {
	case len(b.tagged) > 0:
		total = b.tagged[0]
		for _, amount := range b.tagged[1:] {
			if amount != total {
				needsReview = true
			}
			if amount > total {
				total = amount
			}
		}
	default:
		total = b.maxAmount
		needsReview = b.minAmount != b.maxAmount
	}

	recordIDs := make([]string, 0, len(b.members))
	stateSet := make(map[string]struct{})
	for _, c := range b.members {
		recordIDs = append(recordIDs, c.record.ID)
		if c.record.State != "" {
			stateSet[c.record.State] = struct{}{}
		}
	}
	states := make([]string, 0, len(stateSet))
	for st := range stateSet {
		states = append(states, st)
	}
	sort.Strings(states)

	fingerprint := d.fingerprint(entityID, b, total, seen)
	return model.SettlementGroup{
		ID:          registry.GroupID(fingerprint),
		EntityID:    entityID,
		TotalCents:  total,
		Fingerprint: fingerprint,
		RecordIDs:   recordIDs,
		States:      states,
		NeedsReview: needsReview,
	}
}

// fingerprint encodes the dedup dimensions. Groups that would collide
// (same entity, window anchor, category, and total) get an ordinal
// suffix so ids stay unique yet reproducible.
func (d *Deduplicator) fingerprint(entityID string, b *building, total model.Cents, seen map[string]int) string {
	anchor := ""
	if first := b.members[0].record.Date; first != nil {
		anchor = first.Format("2006-01-02")
	}
	base := fmt.Sprintf("%s|%s|%s|%d", entityID, anchor, b.category, total)
	ordinal := seen[base]
	seen[base] = ordinal + 1
	if ordinal > 0 {
		base = fmt.Sprintf("%s|%d", base, ordinal)
	}
	sum := sha256.Sum256([]byte(base))
	return "ag:v1:" + hex.EncodeToString(sum[:8])
}

// dateKey orders optional dates; undated records sort last.
func dateKey(t *time.Time) time.Time {
	if t == nil {
		return time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return *t
}
