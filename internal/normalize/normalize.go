package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/agtrack/internal/cache"
	"github.com/ppiankov/agtrack/internal/model"
)

// Legal suffixes stripped from company names. May need multiple passes:
// "Acme Holdings Corp., LLC" sheds one suffix per pass.
var legalSuffixes = regexp.MustCompile(
	`(?i),?\s*\b(` +
		`inc\.?|incorporated|corp\.?|corporation|llc|l\.l\.c\.?|` +
		`ltd\.?|limited|l\.p\.?|lp|llp|l\.l\.p\.?|pllc|p\.c\.?|` +
		`co\.?|company|plc|p\.l\.c\.?|` +
		`na|n\.a\.?|` +
		`et\s+al\.?|d/b/a\s+\S+` +
		`)\s*$`)

var leadingArticles = regexp.MustCompile(`(?i)^(the|a|an)\s+`)

// Body-text extraction sometimes captures the sentence continuation after
// the defendant name ("Acme Corp for deceptive billing practices"). Cut at
// a connective only when it is followed by conduct language, so names that
// legitimately contain "for" survive.
var trailingFragment = regexp.MustCompile(
	`(?i)\s+(?:for|over|regarding|alleging|following|after|to\s+resolve|in\s+connection\s+with|related\s+to)\s+` +
		`(?:its\s+|their\s+|allegedly\s+)?` +
		`(?:deceptive|misleading|unlawful|illegal|fraudulent|false|improper|` +
		`violat\w*|allegation\w*|alleged|claims?|charges?|fraud|failure|failing|role)\b.*$`)

var multiSpace = regexp.MustCompile(`\s{2,}`)

var nonComparable = regexp.MustCompile(`[^a-z0-9 ]+`)

// stripAccents folds accented characters to their ASCII base so that
// comparison forms match across sources ("Mondelēz" vs "Mondelez").
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var titleCaser = cases.Title(language.AmericanEnglish)

// Normalizer cleans raw extracted name strings into comparable forms.
// It is pure; the optional cache only memoizes results.
type Normalizer struct {
	cache cache.Cache
}

// NewNormalizer creates a normalizer with memoization enabled.
func NewNormalizer() *Normalizer {
	return &Normalizer{cache: cache.NewMemory()}
}

// NewUncachedNormalizer creates a normalizer without memoization.
func NewUncachedNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize cleans a raw name into a display form and a comparison form.
// Empty or unusable input yields Empty=true, never an error: downstream
// resolvers treat the marker as immediately unresolved and ineligible for
// entity creation.
func (n *Normalizer) Normalize(raw string) model.NormalizedName {
	key := cache.Key(raw)
	if n.cache != nil {
		if hit, ok := n.cache.Get(key); ok {
			return hit
		}
	}

	result := normalizeName(raw)

	if n.cache != nil {
		n.cache.Set(key, result)
	}
	return result
}

func normalizeName(raw string) model.NormalizedName {
	name := strings.TrimSpace(raw)
	if name == "" {
		return model.NormalizedName{Empty: true}
	}

	name = trailingFragment.ReplaceAllString(name, "")
	name = leadingArticles.ReplaceAllString(name, "")

	// Suffix stripping may expose another suffix; three passes matches the
	// deepest nesting seen in practice.
	for range 3 {
		prev := name
		name = strings.TrimRight(strings.TrimSpace(legalSuffixes.ReplaceAllString(name, "")), ",.")
		if name == prev {
			break
		}
	}

	name = strings.TrimSpace(multiSpace.ReplaceAllString(name, " "))
	if name == "" {
		return model.NormalizedName{Empty: true}
	}

	display := name
	if display == strings.ToUpper(display) || display == strings.ToLower(display) {
		display = titleCaser.String(strings.ToLower(display))
	}

	comparison := Comparison(display)
	if comparison == "" {
		return model.NormalizedName{Empty: true}
	}

	return model.NormalizedName{Display: display, Comparison: comparison}
}

// Comparison folds a display-form name into the comparison form: lowered,
// accent-stripped, punctuation dropped, whitespace collapsed.
func Comparison(display string) string {
	folded, _, err := transform.String(stripAccents, strings.ToLower(display))
	if err != nil {
		folded = strings.ToLower(display)
	}
	folded = nonComparable.ReplaceAllString(folded, " ")
	return strings.TrimSpace(multiSpace.ReplaceAllString(folded, " "))
}

// TokenSort rebuilds a comparison form with its tokens in lexical order,
// the shared transformation both sides of a fuzzy comparison go through.
func TokenSort(comparison string) string {
	tokens := strings.Fields(comparison)
	if len(tokens) < 2 {
		return comparison
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
