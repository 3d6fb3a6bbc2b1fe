// Package registry is the process-wide authoritative store of canonical
// entities, their aliases, and their merge history. It is passed
// explicitly into every component; all mutation goes through a single
// writer (the Registry mutex, or the run's Txn owner), while the
// read-only resolution passes work on immutable snapshots.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ppiankov/agtrack/internal/model"
	"github.com/ppiankov/agtrack/internal/normalize"
)

// Fixed namespace for deterministic entity and group ids: the same
// canonical name yields the same id on every run.
var idNamespace = uuid.MustParse("c1f0a1d2-5b0e-4f5a-9c62-7d3f8e2b4a91")

// EntityID derives the stable opaque id for a canonical comparison form.
func EntityID(comparison string) string {
	return uuid.NewSHA1(idNamespace, []byte("entity:"+comparison)).String()
}

// GroupID derives the stable id for a settlement group fingerprint.
func GroupID(fingerprint string) string {
	return uuid.NewSHA1(idNamespace, []byte("group:"+fingerprint)).String()
}

// entityState is the mutable per-entity bookkeeping behind the public
// CanonicalEntity view.
type entityState struct {
	id            string
	canonicalName string
	parentID      string
	aliases       map[string]string   // comparison form → display form
	states        map[string]struct{} // states with observed actions
	records       []string            // attached resolved record ids
}

// state is the whole registry content. Txn copies it, Commit swaps it.
type state struct {
	entities  map[string]*entityState
	aliasIdx  map[string]string // comparison form → entity id
	redirects map[string]string // absorbed id → survivor id (kept compressed)
	merges    []model.MergeEvent
	resolved  map[string]*model.ResolvedRecord  // record id → record, for re-pointing
	groups    map[string]*model.SettlementGroup // group id → group, for re-pointing
}

func newState() *state {
	return &state{
		entities:  make(map[string]*entityState),
		aliasIdx:  make(map[string]string),
		redirects: make(map[string]string),
		resolved:  make(map[string]*model.ResolvedRecord),
		groups:    make(map[string]*model.SettlementGroup),
	}
}

// Registry is the canonical entity store. Safe for concurrent reads and
// writes; every mutating method holds the single writer lock.
type Registry struct {
	mu     sync.Mutex
	state  *state
	logger zerolog.Logger
}

// New creates an empty registry.
func New(logger zerolog.Logger) *Registry {
	return &Registry{
		state:  newState(),
		logger: logger,
	}
}

// Create registers a brand-new canonical entity and returns its id.
// It fails if the name's comparison form already exists as an alias of
// any entity.
func (r *Registry) Create(canonicalName string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.create(canonicalName, "")
}

// AddAlias attaches an alias to an existing entity. An alias belonging to
// a different entity is an AliasConflictError, never overwritten.
func (r *Registry) AddAlias(entityID, alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.addAlias(entityID, alias)
}

// Merge absorbs one entity into another and returns the survivor id.
func (r *Registry) Merge(entityA, entityB string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	survivor, absorbed, err := r.state.merge(entityA, entityB, "")
	if err == nil {
		r.logger.Debug().Str("absorbed", absorbed).Str("survivor", survivor).Msg("merged entities")
	}
	return survivor, err
}

// Lookup resolves an entity id through merge chains to the live survivor
// and returns its public view.
func (r *Registry) Lookup(entityID string) (model.CanonicalEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.lookup(entityID)
}

// Resolve maps an entity id (live or absorbed) to the live survivor id.
func (r *Registry) Resolve(entityID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.resolveID(entityID)
}

// Entities returns every live entity, sorted by canonical name then id.
func (r *Registry) Entities() []model.CanonicalEntity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.entityViews()
}

// Merges returns the immutable merge audit log, in causal order.
func (r *Registry) Merges() []model.MergeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.MergeEvent, len(r.state.merges))
	copy(out, r.state.merges)
	return out
}

// Snapshot captures an immutable view for the read-only resolution passes.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.snapshot()
}

// ---------------------------------------------------------------------------
// state operations (callers hold the writer lock or own the state)
// ---------------------------------------------------------------------------

func (s *state) create(canonicalName, fixedID string) (string, error) {
	comparison := normalize.Comparison(canonicalName)
	if comparison == "" {
		return "", fmt.Errorf("create entity: empty canonical name")
	}
	if ownerID, exists := s.aliasIdx[comparison]; exists {
		return "", &AliasConflictError{Alias: canonicalName, OwnerID: ownerID}
	}

	id := fixedID
	if id == "" {
		id = EntityID(comparison)
	}
	if _, exists := s.entities[id]; exists {
		return "", fmt.Errorf("create entity %q: id %s already in use", canonicalName, id)
	}

	s.entities[id] = &entityState{
		id:            id,
		canonicalName: canonicalName,
		aliases:       map[string]string{comparison: canonicalName},
		states:        make(map[string]struct{}),
	}
	s.aliasIdx[comparison] = id
	return id, nil
}

func (s *state) addAlias(entityID, alias string) error {
	id, err := s.resolveID(entityID)
	if err != nil {
		return err
	}
	comparison := normalize.Comparison(alias)
	if comparison == "" {
		return fmt.Errorf("add alias to %s: empty alias", id)
	}
	if ownerID, exists := s.aliasIdx[comparison]; exists {
		if ownerID == id {
			return nil
		}
		return &AliasConflictError{Alias: alias, OwnerID: ownerID, ClaimantID: id}
	}
	s.entities[id].aliases[comparison] = alias
	s.aliasIdx[comparison] = id
	return nil
}

func (s *state) merge(entityA, entityB, reason string) (survivorID, absorbedID string, err error) {
	a, err := s.resolveID(entityA)
	if err != nil {
		return "", "", fmt.Errorf("merge %s into %s: %w", entityA, entityB, err)
	}
	b, err := s.resolveID(entityB)
	if err != nil {
		return "", "", fmt.Errorf("merge %s into %s: %w", entityA, entityB, err)
	}
	if a == b {
		return "", "", fmt.Errorf("merge %s into %s: %w", entityA, entityB, ErrMergeCycle)
	}

	// Survivor: more already-resolved records; ties go to the smaller id.
	survivor, absorbed := a, b
	ea, eb := s.entities[a], s.entities[b]
	if len(eb.records) > len(ea.records) || (len(eb.records) == len(ea.records) && b < a) {
		survivor, absorbed = b, a
	}
	sv, ab := s.entities[survivor], s.entities[absorbed]

	for comparison, display := range ab.aliases {
		sv.aliases[comparison] = display
		s.aliasIdx[comparison] = survivor
	}
	for st := range ab.states {
		sv.states[st] = struct{}{}
	}
	for _, recordID := range ab.records {
		if rr := s.resolved[recordID]; rr != nil {
			rr.EntityID = survivor
		}
	}
	sv.records = append(sv.records, ab.records...)
	for _, g := range s.groups {
		if g.EntityID == absorbed {
			g.EntityID = survivor
		}
	}

	// The absorbed id resolves to the survivor forever. Existing chains
	// ending at the absorbed entity are re-pointed so lookups stay one hop.
	delete(s.entities, absorbed)
	s.redirects[absorbed] = survivor
	for from, to := range s.redirects {
		if to == absorbed {
			s.redirects[from] = survivor
		}
	}

	s.merges = append(s.merges, model.MergeEvent{
		AbsorbedID: absorbed,
		SurvivorID: survivor,
		Ordinal:    len(s.merges),
		Reason:     reason,
	})
	return survivor, absorbed, nil
}

func (s *state) resolveID(entityID string) (string, error) {
	id := entityID
	for hops := 0; ; hops++ {
		if _, live := s.entities[id]; live {
			return id, nil
		}
		next, redirected := s.redirects[id]
		if !redirected {
			return "", fmt.Errorf("%w: %s", ErrUnknownEntity, entityID)
		}
		if hops > len(s.redirects) {
			return "", fmt.Errorf("redirect cycle at %s: %w", entityID, ErrMergeCycle)
		}
		id = next
	}
}

func (s *state) lookup(entityID string) (model.CanonicalEntity, error) {
	id, err := s.resolveID(entityID)
	if err != nil {
		return model.CanonicalEntity{}, err
	}
	return s.entities[id].view(), nil
}

func (s *state) entityViews() []model.CanonicalEntity {
	views := make([]model.CanonicalEntity, 0, len(s.entities))
	for _, e := range s.entities {
		views = append(views, e.view())
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].CanonicalName != views[j].CanonicalName {
			return views[i].CanonicalName < views[j].CanonicalName
		}
		return views[i].ID < views[j].ID
	})
	return views
}

func (e *entityState) view() model.CanonicalEntity {
	aliases := make([]string, 0, len(e.aliases))
	for _, display := range e.aliases {
		aliases = append(aliases, display)
	}
	sort.Strings(aliases)
	states := make([]string, 0, len(e.states))
	for st := range e.states {
		states = append(states, st)
	}
	sort.Strings(states)
	return model.CanonicalEntity{
		ID:            e.id,
		CanonicalName: e.canonicalName,
		Aliases:       aliases,
		States:        states,
		ParentID:      e.parentID,
	}
}

func (s *state) clone() *state {
	next := newState()
	for id, e := range s.entities {
		ce := &entityState{
			id:            e.id,
			canonicalName: e.canonicalName,
			parentID:      e.parentID,
			aliases:       make(map[string]string, len(e.aliases)),
			states:        make(map[string]struct{}, len(e.states)),
			records:       append([]string(nil), e.records...),
		}
		for k, v := range e.aliases {
			ce.aliases[k] = v
		}
		for k := range e.states {
			ce.states[k] = struct{}{}
		}
		next.entities[id] = ce
	}
	for k, v := range s.aliasIdx {
		next.aliasIdx[k] = v
	}
	for k, v := range s.redirects {
		next.redirects[k] = v
	}
	next.merges = append([]model.MergeEvent(nil), s.merges...)
	for k, v := range s.resolved {
		rr := *v
		next.resolved[k] = &rr
	}
	for k, v := range s.groups {
		g := *v
		g.RecordIDs = append([]string(nil), v.RecordIDs...)
		g.States = append([]string(nil), v.States...)
		next.groups[k] = &g
	}
	return next
}
