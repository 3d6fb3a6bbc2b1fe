// Package pipeline orchestrates one resolution run: normalize, resolve,
// promote, dedup, score, aggregate. All registry mutations happen on a
// staged transaction committed only at run completion, so an aborted run
// leaves the registry untouched.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/agtrack/internal/aggregate"
	"github.com/ppiankov/agtrack/internal/dedup"
	"github.com/ppiankov/agtrack/internal/match"
	"github.com/ppiankov/agtrack/internal/model"
	"github.com/ppiankov/agtrack/internal/normalize"
	"github.com/ppiankov/agtrack/internal/registry"
	"github.com/ppiankov/agtrack/internal/score"
	"github.com/ppiankov/agtrack/internal/seed"
)

// Pipeline orchestrates the complete resolution process
type Pipeline struct {
	normalizer *normalize.Normalizer
	alias      *match.AliasResolver
	fuzzy      *match.FuzzyMatcher
	promoter   *match.Promoter
	dedup      *dedup.Deduplicator
	scorer     *score.Scorer
	aggregator *aggregate.Aggregator
	registry   *registry.Registry
	config     *model.Config
	logger     zerolog.Logger
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, reg *registry.Registry, logger zerolog.Logger) *Pipeline {
	normalizer := normalize.NewNormalizer()
	if !cfg.Cache.Enabled {
		normalizer = normalize.NewUncachedNormalizer()
	}

	return &Pipeline{
		normalizer: normalizer,
		alias:      match.NewAliasResolver(),
		fuzzy:      match.NewFuzzyMatcher(cfg.Resolver),
		promoter:   match.NewPromoter(cfg.Resolver),
		dedup:      dedup.NewDeduplicator(cfg.Dedup),
		scorer:     score.NewScorer(),
		aggregator: aggregate.NewAggregator(),
		registry:   reg,
		config:     cfg,
		logger:     logger,
	}
}

// unresolvedTally accumulates sightings of one novel comparison form
// while the mutation phase decides whether it earns an entity.
type unresolvedTally struct {
	name    model.NormalizedName
	indices []int
	states  map[string]struct{}
}

// Run resolves a batch of records against the registry and returns the
// complete result. Records are processed in input order; re-running the
// same batch against the same registry state produces an identical
// result.
func (p *Pipeline) Run(ctx context.Context, records []model.RawRecord, seeds *seed.Table) (*model.Result, error) {
	txn := p.registry.Begin()
	committed := false
	defer func() {
		if !committed {
			txn.Abort()
		}
	}()

	// 1. Seed the staged registry. Any alias conflict in the curated
	// table is fatal.
	if seeds != nil {
		if err := seed.Apply(txn, seeds, p.logger); err != nil {
			return nil, fmt.Errorf("apply seeds: %w", err)
		}
	}

	names := make([]model.NormalizedName, len(records))
	for i := range records {
		names[i] = p.normalizer.Normalize(records[i].Primary())
	}

	resolved := make([]model.ResolvedRecord, len(records))
	for i := range records {
		resolved[i] = model.ResolvedRecord{
			RecordID: records[i].ID,
			Method:   model.MethodUnresolved,
			RawName:  records[i].Primary(),
		}
	}

	// 2. Pass 1: resolve everything against the seeded snapshot.
	// Read-only, so workers can share the snapshot freely.
	all := make([]int, len(records))
	for i := range all {
		all[i] = i
	}
	pass1, err := p.resolvePass(ctx, all, names, txn.Snapshot())
	if err != nil {
		return nil, err
	}

	// 3. Mutation phase: single writer, original record order.
	tallies, order, err := p.applyResolutions(txn, records, names, resolved, all, pass1)
	if err != nil {
		return nil, err
	}

	if err := p.promote(txn, resolved, tallies, order); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4. Pass 2: the promoted entities may now cover records that missed
	// in pass 1.
	var retry []int
	for i := range resolved {
		if !resolved[i].Resolved() {
			retry = append(retry, i)
		}
	}
	if len(retry) > 0 {
		pass2, err := p.resolvePass(ctx, retry, names, txn.Snapshot())
		if err != nil {
			return nil, err
		}
		if _, _, err := p.applyResolutions(txn, records, names, resolved, retry, pass2); err != nil {
			return nil, err
		}
	}

	// Terminal unresolved records still register so the run is complete.
	for i := range resolved {
		if !resolved[i].Resolved() {
			if err := txn.AttachRecord(&resolved[i]); err != nil {
				return nil, err
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 5. Dedup, score, aggregate.
	groups := p.dedup.Group(records, resolved)
	for i := range groups {
		if err := txn.AttachGroup(&groups[i]); err != nil {
			return nil, err
		}
	}

	scores := make([]model.QualityScore, len(records))
	for i := range records {
		scores[i] = p.scorer.Score(resolved[i], records[i])
	}

	entities := txn.Entities()
	merges := txn.Merges()
	rollup := p.aggregator.Rollup(records, resolved, groups, entities)

	// 6. Publish. Nothing before this point touched the live registry.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("commit registry: %w", err)
	}
	committed = true

	p.logger.Info().
		Int("records", len(records)).
		Int("entities", len(entities)).
		Int("groups", len(groups)).
		Int("merges", len(merges)).
		Int("unresolved", rollup.UnresolvedRecords).
		Msg("run complete")

	return &model.Result{
		RunAt:    time.Now().UTC(),
		Records:  len(records),
		Entities: entities,
		Resolved: resolved,
		Groups:   groups,
		Scores:   scores,
		Merges:   merges,
		Rollup:   rollup,
	}, nil
}

// applyResolutions walks one pass's results in input order, attaching
// hits and tallying misses. Fuzzy hits teach the registry the raw form
// as a new alias so the next batch resolves it exactly.
func (p *Pipeline) applyResolutions(
	txn *registry.Txn,
	records []model.RawRecord,
	names []model.NormalizedName,
	resolved []model.ResolvedRecord,
	indices []int,
	results []resolution,
) (map[string]*unresolvedTally, []string, error) {
	tallies := make(map[string]*unresolvedTally)
	var order []string

	for k, idx := range indices {
		res := results[k]
		if res.err != nil {
			return nil, nil, res.err
		}
		if !res.ok {
			if names[idx].Empty {
				continue
			}
			key := names[idx].Comparison
			t, seen := tallies[key]
			if !seen {
				t = &unresolvedTally{name: names[idx], states: make(map[string]struct{})}
				tallies[key] = t
				order = append(order, key)
			}
			t.indices = append(t.indices, idx)
			if records[idx].State != "" {
				t.states[records[idx].State] = struct{}{}
			}
			continue
		}

		resolved[idx].EntityID = res.match.EntityID
		resolved[idx].Method = res.match.Method
		resolved[idx].Score = res.match.Score
		if err := txn.AttachRecord(&resolved[idx]); err != nil {
			return nil, nil, err
		}
		if res.match.Method == model.MethodFuzzy {
			if err := txn.AddAlias(resolved[idx].EntityID, names[idx].Display); err != nil {
				if !registry.IsAliasConflict(err) {
					return nil, nil, err
				}
				// The display form already belongs to another entity;
				// the match stands, the alias does not.
				p.logger.Warn().Str("alias", names[idx].Display).Msg("alias conflict on fuzzy hit")
			}
		}
		if err := txn.ObserveState(resolved[idx].EntityID, records[idx].State); err != nil {
			return nil, nil, err
		}
	}
	return tallies, order, nil
}

// promote creates entities for novel names that met the promotion rule,
// then consolidates variants that were promoted separately in the same
// phase.
func (p *Pipeline) promote(
	txn *registry.Txn,
	resolved []model.ResolvedRecord,
	tallies map[string]*unresolvedTally,
	order []string,
) error {
	var created []promoted

	for _, key := range order {
		t := tallies[key]
		if !p.promoter.Eligible(t.name, len(t.indices), len(t.states)) {
			continue
		}
		id, err := txn.Create(t.name.Display)
		if err != nil {
			// An alias added earlier in this phase claimed the name;
			// resolve the sightings there instead of creating a twin.
			var conflict *registry.AliasConflictError
			if !errors.As(err, &conflict) {
				return fmt.Errorf("promote %q: %w", t.name.Display, err)
			}
			id = conflict.OwnerID
		} else {
			created = append(created, promoted{id: id, name: t.name})
			p.logger.Debug().Str("entity", id).Str("name", t.name.Display).Msg("promoted novel name")
		}
		for _, idx := range t.indices {
			resolved[idx].EntityID = id
			resolved[idx].Method = model.MethodAliasExact
			resolved[idx].Score = 1.0
			if err := txn.AttachRecord(&resolved[idx]); err != nil {
				return err
			}
		}
		states := make([]string, 0, len(t.states))
		for st := range t.states {
			states = append(states, st)
		}
		sort.Strings(states)
		for _, st := range states {
			if err := txn.ObserveState(id, st); err != nil {
				return err
			}
		}
	}

	// Consolidation sweep: two variants promoted in the same phase never
	// saw each other during pass 1.
	if len(created) > 1 {
		snap := txn.Snapshot()
		for _, c := range created {
			live, err := txn.Resolve(c.id)
			if err != nil {
				return err
			}
			if live != c.id {
				continue // already absorbed this sweep
			}
			m, ok := p.fuzzy.MatchExcluding(c.name, snap, c.id)
			if !ok {
				continue
			}
			target, err := txn.Resolve(m.EntityID)
			if err != nil {
				return err
			}
			if target == live {
				continue
			}
			survivor, err := txn.MergeReason(live, target, "name variants promoted in one run")
			if err != nil {
				return fmt.Errorf("consolidate %q: %w", c.name.Display, err)
			}
			p.logger.Debug().Str("absorbed", c.id).Str("survivor", survivor).Msg("consolidated variants")
		}
	}
	return nil
}

type promoted struct {
	id   string
	name model.NormalizedName
}
