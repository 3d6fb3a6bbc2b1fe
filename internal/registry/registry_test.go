package registry

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ppiankov/agtrack/internal/model"
)

func newTestRegistry() *Registry {
	return New(zerolog.Nop())
}

func TestCreateAndLookup(t *testing.T) {
	reg := newTestRegistry()

	id, err := reg.Create("Google")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != EntityID("google") {
		t.Errorf("id = %s, want deterministic %s", id, EntityID("google"))
	}

	e, err := reg.Lookup(id)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e.CanonicalName != "Google" {
		t.Errorf("CanonicalName = %q, want %q", e.CanonicalName, "Google")
	}
	if len(e.Aliases) != 1 || e.Aliases[0] != "Google" {
		t.Errorf("Aliases = %v, want the canonical name itself", e.Aliases)
	}

	if _, err := reg.Lookup("no-such-id"); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("Lookup unknown: err = %v, want ErrUnknownEntity", err)
	}
}

func TestCreateConflict(t *testing.T) {
	reg := newTestRegistry()

	if _, err := reg.Create("Google"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Same comparison form, different surface form.
	_, err := reg.Create("GOOGLE")
	if !IsAliasConflict(err) {
		t.Fatalf("duplicate Create: err = %v, want alias conflict", err)
	}
}

func TestAddAlias(t *testing.T) {
	reg := newTestRegistry()

	googleID, _ := reg.Create("Google")
	metaID, _ := reg.Create("Meta Platforms")

	if err := reg.AddAlias(googleID, "Google LLC"); err != nil {
		t.Fatalf("AddAlias: %v", err)
	}
	// Re-adding to the same entity is a no-op.
	if err := reg.AddAlias(googleID, "Google LLC"); err != nil {
		t.Fatalf("re-AddAlias to owner: %v", err)
	}
	// Claiming it for another entity is a conflict.
	err := reg.AddAlias(metaID, "Google LLC")
	if !IsAliasConflict(err) {
		t.Fatalf("cross-entity AddAlias: err = %v, want alias conflict", err)
	}
	var conflict *AliasConflictError
	if errors.As(err, &conflict) {
		if conflict.OwnerID != googleID || conflict.ClaimantID != metaID {
			t.Errorf("conflict owner/claimant = %s/%s, want %s/%s",
				conflict.OwnerID, conflict.ClaimantID, googleID, metaID)
		}
	}

	e, _ := reg.Lookup(googleID)
	if len(e.Aliases) != 2 {
		t.Errorf("Aliases = %v, want 2 entries", e.Aliases)
	}
}

func TestMergeSurvivorSelection(t *testing.T) {
	reg := newTestRegistry()
	txn := reg.Begin()

	aID, _ := txn.Create("Acme Widgets")
	bID, _ := txn.Create("Acme Widget")

	// b carries more resolved records, so b survives.
	for _, recID := range []string{"r1", "r2"} {
		rr := &model.ResolvedRecord{RecordID: recID, EntityID: bID, Method: model.MethodAliasExact, Score: 1.0}
		if err := txn.AttachRecord(rr); err != nil {
			t.Fatalf("AttachRecord: %v", err)
		}
	}
	ra := &model.ResolvedRecord{RecordID: "r3", EntityID: aID, Method: model.MethodAliasExact, Score: 1.0}
	if err := txn.AttachRecord(ra); err != nil {
		t.Fatalf("AttachRecord: %v", err)
	}

	survivor, err := txn.Merge(aID, bID)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if survivor != bID {
		t.Errorf("survivor = %s, want %s (more records)", survivor, bID)
	}

	// The absorbed record was re-pointed, not duplicated.
	if ra.EntityID != bID {
		t.Errorf("absorbed record entity = %s, want %s", ra.EntityID, bID)
	}

	// Absorbed id resolves to the survivor forever.
	if got, err := txn.Resolve(aID); err != nil || got != bID {
		t.Errorf("Resolve(absorbed) = %s, %v; want %s", got, err, bID)
	}

	// Survivor unioned the alias sets.
	e, err := txn.Lookup(aID)
	if err != nil {
		t.Fatalf("Lookup through redirect: %v", err)
	}
	if len(e.Aliases) != 2 {
		t.Errorf("merged aliases = %v, want both canonical names", e.Aliases)
	}

	events := txn.Merges()
	if len(events) != 1 {
		t.Fatalf("merge events = %d, want 1", len(events))
	}
	if events[0].AbsorbedID != aID || events[0].SurvivorID != bID || events[0].Ordinal != 0 {
		t.Errorf("event = %+v", events[0])
	}
}

func TestMergeTieBreaksOnSmallerID(t *testing.T) {
	reg := newTestRegistry()
	txn := reg.Begin()

	aID, _ := txn.Create("Alpha Holdings")
	bID, _ := txn.Create("Alpha Holding")

	want := aID
	if bID < aID {
		want = bID
	}
	survivor, err := txn.Merge(aID, bID)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if survivor != want {
		t.Errorf("survivor = %s, want smaller id %s", survivor, want)
	}
}

func TestMergeTransitivity(t *testing.T) {
	// Merging A→B then B→C must leave every original id resolving to the
	// same final survivor as merging A→C directly would.
	reg := newTestRegistry()
	txn := reg.Begin()

	aID, _ := txn.Create("Trans A")
	bID, _ := txn.Create("Trans B")
	cID, _ := txn.Create("Trans C")

	s1, err := txn.Merge(aID, bID)
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}
	s2, err := txn.Merge(s1, cID)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}

	for _, id := range []string{aID, bID, cID} {
		got, err := txn.Resolve(id)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", id, err)
		}
		if got != s2 {
			t.Errorf("Resolve(%s) = %s, want final survivor %s", id, got, s2)
		}
	}

	events := txn.Merges()
	if len(events) != 2 {
		t.Fatalf("merge events = %d, want 2", len(events))
	}
	if events[0].Ordinal != 0 || events[1].Ordinal != 1 {
		t.Errorf("ordinals = %d,%d; want 0,1", events[0].Ordinal, events[1].Ordinal)
	}
}

func TestMergeErrors(t *testing.T) {
	reg := newTestRegistry()
	txn := reg.Begin()

	aID, _ := txn.Create("Solo Entity")

	if _, err := txn.Merge(aID, "ghost"); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("merge with unknown: err = %v, want ErrUnknownEntity", err)
	}
	if _, err := txn.Merge(aID, aID); !errors.Is(err, ErrMergeCycle) {
		t.Errorf("self merge: err = %v, want ErrMergeCycle", err)
	}

	bID, _ := txn.Create("Other Entity")
	survivor, _ := txn.Merge(aID, bID)
	absorbed := aID
	if survivor == aID {
		absorbed = bID
	}
	// Both sides now resolve to the survivor.
	if _, err := txn.Merge(absorbed, survivor); !errors.Is(err, ErrMergeCycle) {
		t.Errorf("re-merge absorbed: err = %v, want ErrMergeCycle", err)
	}
}

func TestTxnCommitAndAbort(t *testing.T) {
	reg := newTestRegistry()

	txn := reg.Begin()
	if _, err := txn.Create("Staged Entity"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	txn.Abort()

	if got := len(reg.Entities()); got != 0 {
		t.Fatalf("after abort: %d entities, want 0", got)
	}

	txn = reg.Begin()
	id, _ := txn.Create("Committed Entity")
	if err := txn.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if got := len(reg.Entities()); got != 1 {
		t.Fatalf("after commit: %d entities, want 1", got)
	}
	if _, err := reg.Lookup(id); err != nil {
		t.Errorf("Lookup after commit: %v", err)
	}

	if err := txn.Commit(); err == nil {
		t.Error("second Commit succeeded, want error")
	}
}

func TestTxnIsolation(t *testing.T) {
	reg := newTestRegistry()
	baseID, _ := reg.Create("Base Entity")

	txn := reg.Begin()
	if _, err := txn.Create("Staged Only"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The live registry does not see staged work.
	if got := len(reg.Entities()); got != 1 {
		t.Errorf("live entities = %d, want 1", got)
	}
	// The txn sees both.
	if got := len(txn.Entities()); got != 2 {
		t.Errorf("staged entities = %d, want 2", got)
	}
	// Staged mutations of a pre-existing entity stay staged.
	if err := txn.AddAlias(baseID, "Base Alias"); err != nil {
		t.Fatalf("AddAlias: %v", err)
	}
	live, _ := reg.Lookup(baseID)
	if len(live.Aliases) != 1 {
		t.Errorf("live aliases = %v, want untouched", live.Aliases)
	}
	txn.Abort()
}

func TestSnapshotOrdering(t *testing.T) {
	reg := newTestRegistry()
	for _, name := range []string{"Zeta Corp", "Alpha Industries", "Midway Foods"} {
		if _, err := reg.Create(name); err != nil {
			t.Fatalf("Create(%q): %v", name, err)
		}
	}

	snap := reg.Snapshot()
	if snap.Len() != 3 {
		t.Fatalf("Len = %d, want 3", snap.Len())
	}
	names := make([]string, 0, snap.Len())
	for _, e := range snap.Entities() {
		names = append(names, e.CanonicalName)
	}
	want := []string{"Alpha Industries", "Midway Foods", "Zeta Corp"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("snapshot order = %v, want %v", names, want)
		}
	}

	if owner, ok := snap.AliasOwner("alpha industries"); !ok || owner != EntityID("alpha industries") {
		t.Errorf("AliasOwner = %s, %v", owner, ok)
	}
	if _, ok := snap.AliasOwner("nobody"); ok {
		t.Error("AliasOwner hit for unknown alias")
	}
}

func TestObserveStateAndParent(t *testing.T) {
	reg := newTestRegistry()
	txn := reg.Begin()

	childID, _ := txn.Create("Sub Division")
	parentID, _ := txn.Create("Parent Holdings")

	for _, st := range []string{"CA", "NY", "CA", ""} {
		if err := txn.ObserveState(childID, st); err != nil {
			t.Fatalf("ObserveState: %v", err)
		}
	}
	if err := txn.SetParent(childID, parentID); err != nil {
		t.Fatalf("SetParent: %v", err)
	}

	e, _ := txn.Lookup(childID)
	if len(e.States) != 2 {
		t.Errorf("States = %v, want CA and NY", e.States)
	}
	if e.ParentID != parentID {
		t.Errorf("ParentID = %s, want %s", e.ParentID, parentID)
	}
}

func TestGroupRepointingOnMerge(t *testing.T) {
	reg := newTestRegistry()
	txn := reg.Begin()

	aID, _ := txn.Create("Group Holder A")
	bID, _ := txn.Create("Group Holder B")

	g := &model.SettlementGroup{ID: "g1", EntityID: aID, TotalCents: 100}
	if err := txn.AttachGroup(g); err != nil {
		t.Fatalf("AttachGroup: %v", err)
	}

	survivor, err := txn.Merge(aID, bID)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if g.EntityID != survivor {
		t.Errorf("group entity = %s, want survivor %s", g.EntityID, survivor)
	}
}
