package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/agtrack/internal/match"
	"github.com/ppiankov/agtrack/internal/model"
	"github.com/ppiankov/agtrack/internal/registry"
	"github.com/ppiankov/agtrack/internal/worker"
)

// resolution is the outcome of resolving one name against a snapshot.
type resolution struct {
	index int
	match match.Match
	ok    bool
	err   error
}

// resolveJob resolves one name against a shared registry snapshot.
// Read-only; safe to run on any worker.
type resolveJob struct {
	index int
	name  model.NormalizedName
	snap  *registry.Snapshot
	alias *match.AliasResolver
	fuzzy *match.FuzzyMatcher
}

// Execute implements worker.Job
func (j *resolveJob) Execute(ctx context.Context) worker.Result {
	if err := ctx.Err(); err != nil {
		return &resolveResult{resolution{index: j.index, err: err}}
	}
	if m, ok := j.alias.Resolve(j.name, j.snap); ok {
		return &resolveResult{resolution{index: j.index, match: m, ok: true}}
	}
	if m, ok := j.fuzzy.Match(j.name, j.snap); ok {
		return &resolveResult{resolution{index: j.index, match: m, ok: true}}
	}
	return &resolveResult{resolution{index: j.index}}
}

// resolveResult wraps a resolution as a worker.Result
type resolveResult struct {
	resolution
}

func (r *resolveResult) Index() int      { return r.index }
func (r *resolveResult) GetError() error { return r.err }

// resolvePass resolves the given record indices against one snapshot.
// With one worker it runs inline; otherwise it fans out over the pool.
// Either way results come back positionally, aligned with indices, so
// worker interleaving cannot change the output.
func (p *Pipeline) resolvePass(ctx context.Context, indices []int, names []model.NormalizedName, snap *registry.Snapshot) ([]resolution, error) {
	results := make([]resolution, len(indices))

	if p.config.Concurrency.Workers <= 1 {
		for k, idx := range indices {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			job := resolveJob{index: k, name: names[idx], snap: snap, alias: p.alias, fuzzy: p.fuzzy}
			res := job.Execute(ctx).(*resolveResult)
			results[k] = res.resolution
		}
		return results, firstError(results)
	}

	pool := worker.NewPool(p.config.Concurrency.Workers)
	pool.Start()
	go func() {
		for k, idx := range indices {
			pool.Submit(&resolveJob{index: k, name: names[idx], snap: snap, alias: p.alias, fuzzy: p.fuzzy})
		}
		pool.Close()
	}()
	for k, res := range pool.WaitOrdered(len(indices)) {
		if res == nil {
			return nil, fmt.Errorf("resolution worker dropped index %d", k)
		}
		results[k] = res.(*resolveResult).resolution
	}
	return results, firstError(results)
}

func firstError(results []resolution) error {
	for i := range results {
		if results[i].err != nil {
			return results[i].err
		}
	}
	return nil
}
