package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/agtrack/internal/model"
)

// Matches "$1.5 million", "$3,500,000", "$500,000.00", "$1.2B", "$750K".
var dollarPattern = regexp.MustCompile(
	`(?i)\$\s*([\d,]+(?:\.\d+)?)\s*(million|billion|thousand|[mbk]\b)?`)

var multipliers = map[string]float64{
	"thousand": 1e3,
	"million":  1e6,
	"billion":  1e9,
	"k":        1e3,
	"m":        1e6,
	"b":        1e9,
}

// ParseAmount extracts a currency-normalized settlement amount from raw
// text. Malformed or missing amounts return ok=false and are treated as
// absent, never as an error: the record still flows through resolution,
// it just carries no amount and skips dedup grouping.
func ParseAmount(text string) (model.Cents, bool) {
	match := dollarPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}

	if unit := strings.ToLower(match[2]); unit != "" {
		value *= multipliers[unit]
	}

	cents := math.Round(value * 100)
	if cents <= 0 || cents > math.MaxInt64 {
		return 0, false
	}
	return model.Cents(cents), true
}
