// Package seed loads the curated alias table the resolver starts from.
package seed

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/agtrack/internal/registry"
)

// Table is the curated seed alias table, loaded once at startup.
type Table struct {
	Entities []Entry `yaml:"entities"`
}

// Entry seeds one canonical entity with its known aliases.
type Entry struct {
	ID            string   `yaml:"id,omitempty"` // Optional curated id
	CanonicalName string   `yaml:"canonical_name"`
	Aliases       []string `yaml:"aliases,omitempty"`
	Parent        string   `yaml:"parent,omitempty"` // Canonical name of the parent entity
}

// Load reads and parses a seed table file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed table: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML seed table.
func Parse(data []byte) (*Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse seed table: %w", err)
	}
	for i, e := range table.Entities {
		if e.CanonicalName == "" {
			return nil, fmt.Errorf("parse seed table: entity %d has no canonical_name", i)
		}
	}
	return &table, nil
}

// Apply seeds the staged registry from the table. Any alias mapped to two
// canonical entities is a fatal error: a contradictory seed table must
// not silently resolve to an arbitrary winner.
func Apply(txn *registry.Txn, table *Table, logger zerolog.Logger) error {
	ids := make(map[string]string, len(table.Entities)) // canonical name → id
	aliasCount := 0

	for _, entry := range table.Entities {
		var id string
		var err error
		if entry.ID != "" {
			id, err = txn.CreateWithID(entry.ID, entry.CanonicalName)
		} else {
			id, err = txn.Create(entry.CanonicalName)
		}
		if err != nil {
			return fmt.Errorf("seed entity %q: %w", entry.CanonicalName, err)
		}
		ids[entry.CanonicalName] = id

		for _, alias := range entry.Aliases {
			if err := txn.AddAlias(id, alias); err != nil {
				return fmt.Errorf("seed entity %q: %w", entry.CanonicalName, err)
			}
			aliasCount++
		}
	}

	// Parent relations resolve after every entity exists, so ordering in
	// the file does not matter.
	for _, entry := range table.Entities {
		if entry.Parent == "" {
			continue
		}
		parentID, ok := ids[entry.Parent]
		if !ok {
			return fmt.Errorf("seed entity %q: unknown parent %q", entry.CanonicalName, entry.Parent)
		}
		if err := txn.SetParent(ids[entry.CanonicalName], parentID); err != nil {
			return fmt.Errorf("seed entity %q: %w", entry.CanonicalName, err)
		}
	}

	logger.Info().
		Int("entities", len(table.Entities)).
		Int("aliases", aliasCount).
		Msg("loaded seed alias table")
	return nil
}
