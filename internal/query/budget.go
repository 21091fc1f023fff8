package query

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/stwalsh4118/estimo/api/internal/models"
)

// budget is an extracted price range. max of zero means unbounded.
type budget struct {
	min int64
	max int64
}

const (
	currencyPrefix = `(?:(?:rs\.?|inr|₹)\s*)?`
	number         = `(\d+(?:\.\d+)?)`
	unit           = `(lakhs|lakh|lacs|lac|l|crores|crore|cr)`
	amount         = currencyPrefix + number + `\s*` + unit + `?\b`
	amountWithUnit = currencyPrefix + number + `\s*` + unit + `\b`
	rangeJoin      = `\s*(?:to|-|–)\s*`
)

var (
	// "budget 80l", "budget of rs 70 lakh to 90 lakh", "budget 1-1.5 cr"
	budgetKeywordPattern = regexp.MustCompile(`\bbudget\s*(?:of\s+|is\s+|around\s+|:\s*)?` + amount + `(?:` + rangeJoin + amount + `)?`)

	// "between 70l and 90l", "from 1cr to 1.5cr"
	rangePattern = regexp.MustCompile(`\b(?:between|from)\s+` + amount + `\s*(?:and|to|-|–)\s*` + amount)

	upperBoundPattern = regexp.MustCompile(`\b(?:under|below|within|upto|up to|less than|max|maximum|not more than|at most)\s+` + amountWithUnit)
	lowerBoundPattern = regexp.MustCompile(`\b(?:above|over|more than|at least|min|minimum|starting(?: at| from)?)\s+` + amountWithUnit)

	// a unitless figure directly followed by a room count, as in "budget 2 bhk"
	roomCountSuffix = regexp.MustCompile(`^\s*(?:bhk|bed)`)
)

// extractBudget tries, in order: the "budget ..." clause, an explicit
// "between/from ... and/to ..." range, then independent upper and lower
// bounds. A lone budget figure is the maximum.
func extractBudget(text string) (budget, bool) {
	if m := budgetKeywordPattern.FindStringSubmatch(text); m != nil && !budgetClauseIsRoomCount(text) {
		if m[3] == "" {
			return budget{max: toAmount(m[1], m[2])}, true
		}
		upperUnit := m[4]
		lowerUnit := m[2]
		if lowerUnit == "" {
			lowerUnit = upperUnit
		}
		return ordered(toAmount(m[1], lowerUnit), toAmount(m[3], upperUnit)), true
	}

	if m := rangePattern.FindStringSubmatch(text); m != nil && (m[2] != "" || m[4] != "") {
		lowerUnit := m[2]
		if lowerUnit == "" {
			lowerUnit = m[4]
		}
		return ordered(toAmount(m[1], lowerUnit), toAmount(m[3], m[4])), true
	}

	var (
		b     budget
		found bool
	)
	if m := upperBoundPattern.FindStringSubmatch(text); m != nil {
		b.max = toAmount(m[1], m[2])
		found = true
	}
	if m := lowerBoundPattern.FindStringSubmatch(text); m != nil {
		b.min = toAmount(m[1], m[2])
		found = true
	}
	if !found {
		return budget{}, false
	}
	if b.max > 0 && b.min > b.max {
		b.min, b.max = b.max, b.min
	}
	return b, true
}

// budgetClauseIsRoomCount reports whether a unitless figure in the
// "budget ..." clause is really a bedroom count.
func budgetClauseIsRoomCount(text string) bool {
	idx := budgetKeywordPattern.FindStringSubmatchIndex(text)
	if idx == nil {
		return false
	}
	// groups: 1 lower figure, 2 lower unit, 3 upper figure, 4 upper unit
	for _, g := range [][2]int{{1, 2}, {3, 4}} {
		figureEnd, unitStart := idx[2*g[0]+1], idx[2*g[1]]
		if figureEnd < 0 || unitStart >= 0 {
			continue
		}
		if roomCountSuffix.MatchString(text[figureEnd:]) {
			return true
		}
	}
	return false
}

// ordered builds a range, swapping reversed bounds.
func ordered(lo, hi int64) budget {
	if hi > 0 && lo > hi {
		lo, hi = hi, lo
	}
	return budget{min: lo, max: hi}
}

// toAmount converts a number and unit token into currency units.
// Without a unit, small figures are read as lakhs and figures of at least
// one lakh as plain rupees, so "budget 80" and "budget 8000000" agree.
// Figures beyond the int64 range saturate at math.MaxInt64.
func toAmount(value, unitToken string) int64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}

	multiplier := float64(models.Lakh)
	switch {
	case strings.HasPrefix(unitToken, "c"):
		multiplier = models.Crore
	case unitToken == "" && v >= models.Lakh:
		multiplier = 1
	}

	product := math.Round(v * multiplier)
	if math.IsNaN(product) || product >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(product)
}
