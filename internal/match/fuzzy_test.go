package match

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ppiankov/agtrack/internal/model"
	"github.com/ppiankov/agtrack/internal/registry"
)

func testResolverConfig() model.ResolverConfig {
	return model.DefaultConfig().Resolver
}

func name(display, comparison string) model.NormalizedName {
	return model.NormalizedName{Display: display, Comparison: comparison}
}

func snapshotWith(t *testing.T, canonicalNames ...string) *registry.Snapshot {
	t.Helper()
	reg := registry.New(zerolog.Nop())
	for _, n := range canonicalNames {
		if _, err := reg.Create(n); err != nil {
			t.Fatalf("Create(%q): %v", n, err)
		}
	}
	return reg.Snapshot()
}

func TestAliasResolver(t *testing.T) {
	snap := snapshotWith(t, "Google")
	r := NewAliasResolver()

	m, ok := r.Resolve(name("Google", "google"), snap)
	if !ok {
		t.Fatal("expected alias hit")
	}
	if m.Method != model.MethodAliasExact {
		t.Errorf("Method = %s, want alias_exact", m.Method)
	}
	if m.Score != 1.0 {
		t.Errorf("Score = %v, want 1.0", m.Score)
	}
	if m.EntityID != registry.EntityID("google") {
		t.Errorf("EntityID = %s", m.EntityID)
	}

	if _, ok := r.Resolve(name("Googol", "googol"), snap); ok {
		t.Error("unexpected alias hit for non-alias")
	}
	if _, ok := r.Resolve(model.NormalizedName{Empty: true}, snap); ok {
		t.Error("unexpected alias hit for empty name")
	}
}

func TestFuzzyWordOrderInsensitive(t *testing.T) {
	snap := snapshotWith(t, "Blackstone Group")
	m := NewFuzzyMatcher(testResolverConfig())

	got, ok := m.Match(name("Group Blackstone", "group blackstone"), snap)
	if !ok {
		t.Fatal("expected fuzzy hit for reordered tokens")
	}
	if got.Score != 1.0 {
		t.Errorf("Score = %v, want 1.0 after token sort", got.Score)
	}
	if got.Method != model.MethodFuzzy {
		t.Errorf("Method = %s, want fuzzy", got.Method)
	}
}

func TestFuzzyThresholdBoundary(t *testing.T) {
	// Equal-length single-token strings make the similarity ratio exact:
	// 150 substitutions in 1000 runes is 0.850, 151 is 0.849.
	base := strings.Repeat("a", 1000)
	snap := snapshotWith(t, base)
	m := NewFuzzyMatcher(testResolverConfig())

	at := strings.Repeat("a", 850) + strings.Repeat("b", 150)
	if _, ok := m.Match(name(at, at), snap); !ok {
		t.Error("similarity exactly at threshold should match")
	}

	below := strings.Repeat("a", 849) + strings.Repeat("b", 151)
	if _, ok := m.Match(name(below, below), snap); ok {
		t.Error("similarity 0.849 must not match")
	}
}

func TestFuzzyShortNameGuard(t *testing.T) {
	snap := snapshotWith(t, "abc")
	m := NewFuzzyMatcher(testResolverConfig())

	// Comparison form shorter than the minimum never fuzzy-matches, even
	// against a near-identical entry.
	if _, ok := m.Match(name("abd", "abd"), snap); ok {
		t.Error("short name matched; want guard to reject")
	}
}

func TestFuzzyLengthRatioGuard(t *testing.T) {
	snap := snapshotWith(t, "abcdefghijklmnopqrstuvwxyz")
	m := NewFuzzyMatcher(testResolverConfig())

	if _, ok := m.Match(name("abcd", "abcd"), snap); ok {
		t.Error("wildly different lengths matched; want ratio guard to reject")
	}
}

func TestFuzzyNoMatchBelowThreshold(t *testing.T) {
	snap := snapshotWith(t, "Children")
	m := NewFuzzyMatcher(testResolverConfig())

	// Similar-looking but genuinely different names stay unresolved
	// rather than attaching to the nearest entity.
	if _, ok := m.Match(name("Chile", "chile"), snap); ok {
		t.Error("Chile matched Children")
	}
}

func TestFuzzyDeterministicTieBreak(t *testing.T) {
	// Both entities are edit distance 1 from the query, so the score
	// ties; the lexically smaller canonical name must win every time.
	snap := snapshotWith(t, "abcdefgi", "abcdefgh")
	m := NewFuzzyMatcher(testResolverConfig())

	for i := 0; i < 10; i++ {
		got, ok := m.Match(name("abcdefgx", "abcdefgx"), snap)
		if !ok {
			t.Fatal("expected fuzzy hit")
		}
		if got.EntityID != registry.EntityID("abcdefgh") {
			t.Fatalf("tie broke to %s, want entity for abcdefgh", got.EntityID)
		}
	}
}

func TestFuzzyPrefersStrongerPrior(t *testing.T) {
	// Same tie, but one entity already carries resolved records; it wins
	// over the lexically smaller name.
	reg := registry.New(zerolog.Nop())
	txn := reg.Begin()
	if _, err := txn.Create("abcdefgh"); err != nil {
		t.Fatal(err)
	}
	heavyID, err := txn.Create("abcdefgi")
	if err != nil {
		t.Fatal(err)
	}
	rr := &model.ResolvedRecord{RecordID: "r1", EntityID: heavyID, Method: model.MethodAliasExact, Score: 1.0}
	if err := txn.AttachRecord(rr); err != nil {
		t.Fatal(err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatal(err)
	}

	m := NewFuzzyMatcher(testResolverConfig())
	got, ok := m.Match(name("abcdefgx", "abcdefgx"), reg.Snapshot())
	if !ok {
		t.Fatal("expected fuzzy hit")
	}
	if got.EntityID != heavyID {
		t.Errorf("winner = %s, want entity with resolved records %s", got.EntityID, heavyID)
	}
}

func TestMatchExcluding(t *testing.T) {
	snap := snapshotWith(t, "Acme Widget Holdings", "Acme Widgets Holdings")
	m := NewFuzzyMatcher(testResolverConfig())

	selfID := registry.EntityID("acme widget holdings")
	got, ok := m.MatchExcluding(name("Acme Widget Holdings", "acme widget holdings"), snap, selfID)
	if !ok {
		t.Fatal("expected hit on the sibling entity")
	}
	if got.EntityID == selfID {
		t.Error("excluded entity still matched")
	}
}
