package registry

import (
	"fmt"

	"github.com/ppiankov/agtrack/internal/model"
)

// Txn is a staged view of the registry for one run. All of a run's
// mutations accumulate on a private copy of the registry state; Commit
// swaps the copy in atomically, so an aborted run leaves no partial
// merge state behind.
//
// A Txn has a single owner. It is not safe for concurrent mutation; the
// pipeline funnels every mutating call through one goroutine, in original
// record order.
type Txn struct {
	parent   *Registry
	state    *state
	finished bool
}

// Begin stages a transaction over a copy of the current registry state.
func (r *Registry) Begin() *Txn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Txn{parent: r, state: r.state.clone()}
}

// Commit atomically publishes the staged state to the parent registry.
func (t *Txn) Commit() error {
	if t.finished {
		return fmt.Errorf("transaction already finished")
	}
	t.finished = true
	t.parent.mu.Lock()
	t.parent.state = t.state
	t.parent.mu.Unlock()
	return nil
}

// Abort discards the staged state. The parent registry is untouched.
func (t *Txn) Abort() {
	t.finished = true
}

// Create registers a new canonical entity in the staged state.
func (t *Txn) Create(canonicalName string) (string, error) {
	return t.state.create(canonicalName, "")
}

// CreateWithID registers an entity under a caller-supplied id; the seed
// loader uses this to preserve curated ids.
func (t *Txn) CreateWithID(id, canonicalName string) (string, error) {
	return t.state.create(canonicalName, id)
}

// AddAlias attaches an alias to a staged entity.
func (t *Txn) AddAlias(entityID, alias string) error {
	return t.state.addAlias(entityID, alias)
}

// Merge absorbs one staged entity into another and returns the survivor.
func (t *Txn) Merge(entityA, entityB string) (string, error) {
	return t.MergeReason(entityA, entityB, "")
}

// MergeReason is Merge with an audit reason recorded on the merge event.
func (t *Txn) MergeReason(entityA, entityB, reason string) (string, error) {
	survivor, _, err := t.state.merge(entityA, entityB, reason)
	return survivor, err
}

// SetParent records a weak subsidiary relation. The child keeps its own
// identity; nothing is merged.
func (t *Txn) SetParent(entityID, parentID string) error {
	id, err := t.state.resolveID(entityID)
	if err != nil {
		return err
	}
	if _, err := t.state.resolveID(parentID); err != nil {
		return err
	}
	t.state.entities[id].parentID = parentID
	return nil
}

// Lookup resolves through merge chains to the live survivor's view.
func (t *Txn) Lookup(entityID string) (model.CanonicalEntity, error) {
	return t.state.lookup(entityID)
}

// Resolve maps any entity id to its live survivor id.
func (t *Txn) Resolve(entityID string) (string, error) {
	return t.state.resolveID(entityID)
}

// AttachRecord registers a resolved record so later merges can re-point
// it, and counts it toward its entity's resolved-record prior.
func (t *Txn) AttachRecord(rr *model.ResolvedRecord) error {
	if rr.Resolved() {
		id, err := t.state.resolveID(rr.EntityID)
		if err != nil {
			return fmt.Errorf("attach record %s: %w", rr.RecordID, err)
		}
		rr.EntityID = id
		t.state.entities[id].records = append(t.state.entities[id].records, rr.RecordID)
	}
	t.state.resolved[rr.RecordID] = rr
	return nil
}

// AttachGroup registers a settlement group for merge re-pointing.
func (t *Txn) AttachGroup(g *model.SettlementGroup) error {
	id, err := t.state.resolveID(g.EntityID)
	if err != nil {
		return fmt.Errorf("attach group %s: %w", g.ID, err)
	}
	g.EntityID = id
	t.state.groups[g.ID] = g
	return nil
}

// ObserveState records that an action against the entity was observed in
// the given state.
func (t *Txn) ObserveState(entityID, stateCode string) error {
	id, err := t.state.resolveID(entityID)
	if err != nil {
		return err
	}
	if stateCode != "" {
		t.state.entities[id].states[stateCode] = struct{}{}
	}
	return nil
}

// Snapshot captures an immutable view of the staged state.
func (t *Txn) Snapshot() *Snapshot {
	return t.state.snapshot()
}

// Entities returns the staged live entities, deterministically ordered.
func (t *Txn) Entities() []model.CanonicalEntity {
	return t.state.entityViews()
}

// Merges returns the staged merge audit log.
func (t *Txn) Merges() []model.MergeEvent {
	out := make([]model.MergeEvent, len(t.state.merges))
	copy(out, t.state.merges)
	return out
}
