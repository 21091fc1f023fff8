// Package ranking orders scored properties and picks comparison recommendations.
package ranking

import (
	"sort"

	"github.com/stwalsh4118/estimo/api/internal/models"
)

// OrderFunc returns the catalog position of a property id. Lower comes first.
type OrderFunc func(id string) int

// Ranked is one entry of a ranking.
type Ranked struct {
	Breakdown models.ScoreBreakdown
	Position  int
}

// Rank sorts breakdowns by composite score, highest first. Equal scores keep
// catalog order as given by order. A limit of zero or less returns every entry.
// The input is not modified.
func Rank(breakdowns []models.ScoreBreakdown, order OrderFunc, limit int) []Ranked {
	sorted := make([]models.ScoreBreakdown, len(breakdowns))
	copy(sorted, breakdowns)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Composite != sorted[j].Composite {
			return sorted[i].Composite > sorted[j].Composite
		}
		if order == nil {
			return false
		}
		return order(sorted[i].PropertyID) < order(sorted[j].PropertyID)
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]Ranked, 0, len(sorted))
	for i, b := range sorted {
		out = append(out, Ranked{Breakdown: b, Position: i + 1})
	}
	return out
}

// Recommend returns the id of the highest composite score in a comparison.
// A comparison needs at least two properties; ties go to the earliest in
// catalog order.
func Recommend(breakdowns []models.ScoreBreakdown, order OrderFunc) (string, bool) {
	if len(breakdowns) < 2 {
		return "", false
	}

	ranked := Rank(breakdowns, order, 1)
	return ranked[0].Breakdown.PropertyID, true
}

// MarkRecommended sets Recommended on the breakdown of the recommended
// property, if any, and returns its id.
func MarkRecommended(breakdowns []models.ScoreBreakdown, order OrderFunc) (string, bool) {
	id, ok := Recommend(breakdowns, order)
	if !ok {
		return "", false
	}

	for i := range breakdowns {
		breakdowns[i].Recommended = breakdowns[i].PropertyID == id
	}
	return id, true
}
