package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/agtrack/internal/model"
	"github.com/ppiankov/agtrack/internal/normalize"
)

// recordWire is one record as delivered on disk. Upstream extractors that
// could not normalize the settlement amount ship the raw phrase in
// amount_text instead; the loader parses it as a fallback.
type recordWire struct {
	model.RawRecord
	AmountText string `json:"amount_text,omitempty"`
}

// recordFile is the on-disk batch envelope.
type recordFile struct {
	Records []recordWire `json:"records"`
}

// LoadRecords reads a batch of raw records from a JSON file. Accepts
// either a {"records": [...]} envelope or a bare array. Record order is
// preserved; it defines the run's processing order.
func LoadRecords(path string) ([]model.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return ParseRecords(data)
}

// ParseRecords decodes and validates a record batch.
func ParseRecords(data []byte) ([]model.RawRecord, error) {
	var file recordFile
	if err := json.Unmarshal(data, &file); err != nil {
		// Bare array form
		if arrErr := json.Unmarshal(data, &file.Records); arrErr != nil {
			return nil, fmt.Errorf("parse records: %w", err)
		}
	}

	records := make([]model.RawRecord, 0, len(file.Records))
	seen := make(map[string]struct{}, len(file.Records))
	for i, w := range file.Records {
		r := w.RawRecord

		if r.AmountCents == nil && w.AmountText != "" {
			if cents, ok := normalize.ParseAmount(w.AmountText); ok {
				r.AmountCents = &cents
			}
		}

		if r.ID == "" {
			if r.SourceURL == "" {
				return nil, fmt.Errorf("record %d: no id and no source_url to derive one", i)
			}
			sum := sha256.Sum256([]byte(r.SourceURL))
			r.ID = hex.EncodeToString(sum[:8])
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("record %d: duplicate id %s", i, r.ID)
		}
		seen[r.ID] = struct{}{}

		records = append(records, r)
	}
	return records, nil
}
