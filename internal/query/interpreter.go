// Package query turns free-text search phrases into structured search criteria.
//
// Parsing never fails. Each field has its own extractor that either finds a
// value or leaves the field unrestricted, so clauses may appear in any order:
// "2 BHK under 80L near Siruseri" and "Siruseri properties, budget 80L, 2 BHK"
// produce the same criteria.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/stwalsh4118/estimo/api/internal/models"
)

// Interpreter parses search phrases against a fixed set of known neighborhood names.
type Interpreter struct {
	neighborhoods []string
}

// NewInterpreter creates an Interpreter that recognises the given neighborhood names.
// Names are matched in the order given.
func NewInterpreter(neighborhoods []string) *Interpreter {
	names := make([]string, 0, len(neighborhoods))
	for _, n := range neighborhoods {
		if strings.TrimSpace(n) != "" {
			names = append(names, n)
		}
	}
	return &Interpreter{neighborhoods: names}
}

// Parse extracts budget, bedroom and location restrictions from phrase.
// Unmatched fields stay unrestricted.
func (i *Interpreter) Parse(phrase string) models.SearchCriteria {
	text := normalizeText(phrase)

	criteria := models.SearchCriteria{
		Locations: extractLocations(text, i.neighborhoods),
	}

	if b, ok := extractBudget(text); ok {
		criteria.MinBudget = b.min
		criteria.MaxBudget = b.max
	}

	if n, ok := extractBedrooms(text); ok {
		criteria.Bedrooms = n
	}

	return criteria
}

var (
	digitGroupSeparator = regexp.MustCompile(`(\d),(\d)`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// normalizeText lowercases the phrase, joins digit groups ("80,00,000")
// and collapses whitespace.
func normalizeText(phrase string) string {
	text := strings.ToLower(phrase)
	for digitGroupSeparator.MatchString(text) {
		text = digitGroupSeparator.ReplaceAllString(text, "$1$2")
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// extractLocations returns every known neighborhood named in text, in the
// order the names were given, without duplicates.
func extractLocations(text string, names []string) []string {
	found := make([]string, 0)
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if seen[key] {
			continue
		}
		if strings.Contains(text, key) {
			seen[key] = true
			found = append(found, name)
		}
	}
	return found
}

var bedroomPattern = regexp.MustCompile(`\b(\d{1,2})\s*(?:bhk|bed(?:room)?s?)\b`)

// extractBedrooms finds "<n> bhk" (or "<n> bedrooms").
func extractBedrooms(text string) (int, bool) {
	m := bedroomPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}
