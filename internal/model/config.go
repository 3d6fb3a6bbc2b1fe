package model

import "runtime"

// Config is the complete runtime configuration.
// Every resolution policy knob lives here so that a run is reproducible
// from its config alone.
type Config struct {
	Resolver    ResolverConfig    `yaml:"resolver" mapstructure:"resolver"`
	Dedup       DedupConfig       `yaml:"dedup" mapstructure:"dedup"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// ResolverConfig controls alias/fuzzy resolution and entity promotion
type ResolverConfig struct {
	// FuzzyThreshold is the minimum token-sort similarity for an automatic
	// fuzzy match. Below it a record stays unresolved.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`

	// MinNameLength is the minimum comparison-form length eligible for
	// fuzzy matching. Short strings produce spurious matches
	// ("Chile" vs "Children").
	MinNameLength int `yaml:"min_name_length" mapstructure:"min_name_length"`

	// MinLengthRatio/MaxLengthRatio bound the candidate length ratio.
	MinLengthRatio float64 `yaml:"min_length_ratio" mapstructure:"min_length_ratio"`
	MaxLengthRatio float64 `yaml:"max_length_ratio" mapstructure:"max_length_ratio"`

	// MinPromotionRecords and MinPromotionStates gate creation of new
	// canonical entities from unresolved names: a name is promoted once it
	// appears in this many distinct records, or this many distinct states,
	// whichever comes first.
	MinPromotionRecords int `yaml:"min_promotion_records" mapstructure:"min_promotion_records"`
	MinPromotionStates  int `yaml:"min_promotion_states" mapstructure:"min_promotion_states"`
}

// DedupConfig controls settlement deduplication
type DedupConfig struct {
	// WindowDays is the rolling date-proximity window: mentions of the
	// same settlement typically land within days across states.
	WindowDays int `yaml:"window_days" mapstructure:"window_days"`

	// AmountSimilarity is the minimum min/max ratio for two differing
	// amounts to still be considered the same settlement.
	AmountSimilarity float64 `yaml:"amount_similarity" mapstructure:"amount_similarity"`
}

// ConcurrencyConfig controls the parallel execution mode
type ConcurrencyConfig struct {
	// Workers is the resolution worker count. 1 forces the fully
	// sequential mode; either mode produces identical output.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig controls normalization memoization
type CacheConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// OutputConfig controls CLI output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Resolver: ResolverConfig{
			FuzzyThreshold:      0.85,
			MinNameLength:       4,
			MinLengthRatio:      0.4,
			MaxLengthRatio:      2.5,
			MinPromotionRecords: 2,
			MinPromotionStates:  2,
		},
		Dedup: DedupConfig{
			WindowDays:       30,
			AmountSimilarity: 0.9,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
