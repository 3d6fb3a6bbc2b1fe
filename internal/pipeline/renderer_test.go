package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/agtrack/internal/model"
)

func TestFormatCents(t *testing.T) {
	tests := []struct {
		input model.Cents
		want  string
	}{
		{0, "$0"},
		{100, "$1"},
		{150, "$1.50"},
		{350_000_000, "$3,500,000"},
		{39_150_000_000, "$391,500,000"},
		{2_600_000_000_000, "$26,000,000,000"},
		{-150, "-$1.50"},
	}
	for _, tt := range tests {
		if got := FormatCents(tt.input); got != tt.want {
			t.Errorf("FormatCents(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	r := NewRenderer(10)
	result := &model.Result{
		Records: 2,
		Resolved: []model.ResolvedRecord{
			{RecordID: "r1", EntityID: "e1", Method: model.MethodAliasExact, Score: 1.0},
			{RecordID: "r2", Method: model.MethodUnresolved},
		},
	}

	path := filepath.Join(t.TempDir(), "result.json")
	if err := r.RenderJSON(result, path); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var roundTrip model.Result
	if err := json.Unmarshal(data, &roundTrip); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if roundTrip.Records != 2 || len(roundTrip.Resolved) != 2 {
		t.Errorf("round trip = %+v", roundTrip)
	}
	if roundTrip.Resolved[0].Method != model.MethodAliasExact {
		t.Errorf("method = %s", roundTrip.Resolved[0].Method)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 40); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	long := "An Extremely Long Corporate Name That Overflows The Column"
	got := truncate(long, 20)
	if len([]rune(got)) > 20 {
		t.Errorf("truncate left %d runes", len([]rune(got)))
	}
}
