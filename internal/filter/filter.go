// Package filter narrows a property list to a candidate set.
//
// A chain is the conjunction of independent predicates; each predicate only
// sees one property, so predicate order never changes the result.
package filter

import (
	"strconv"
	"strings"

	"github.com/stwalsh4118/estimo/api/internal/models"
)

// Predicate reports whether a property passes one filter.
type Predicate func(models.Property) bool

// Params are explicit filter parameters. Zero values place no restriction:
// a zero maximum is unbounded and empty sets pass everything.
type Params struct {
	Locations     []string
	Exclude       []string
	Keyword       string
	MinPrice      int64
	MaxPrice      int64
	MinValueScore float64
	MinSize       int
	MaxSize       int
	Bedrooms      int
}

// FromCriteria converts search criteria into filter parameters.
func FromCriteria(c models.SearchCriteria) Params {
	return Params{
		MinPrice:  c.MinBudget,
		MaxPrice:  c.MaxBudget,
		Bedrooms:  c.Bedrooms,
		Locations: c.Locations,
	}
}

// Predicates builds the predicate list for p, skipping unrestricted fields.
func (p Params) Predicates() []Predicate {
	preds := make([]Predicate, 0, 7)

	if p.MinPrice > 0 || p.MaxPrice > 0 {
		preds = append(preds, PriceRange(p.MinPrice, p.MaxPrice))
	}
	if p.MinSize > 0 || p.MaxSize > 0 {
		preds = append(preds, SizeRange(p.MinSize, p.MaxSize))
	}
	if p.Bedrooms > 0 {
		preds = append(preds, Bedrooms(p.Bedrooms))
	}
	if len(p.Locations) > 0 {
		preds = append(preds, Locations(p.Locations))
	}
	if p.MinValueScore > 0 {
		preds = append(preds, MinValueScore(p.MinValueScore))
	}
	if len(p.Exclude) > 0 {
		preds = append(preds, Exclude(p.Exclude))
	}
	if strings.TrimSpace(p.Keyword) != "" {
		preds = append(preds, Keyword(p.Keyword))
	}

	return preds
}

// Apply returns the properties passing every predicate, preserving input order.
// The result is never nil.
func Apply(properties []models.Property, preds ...Predicate) []models.Property {
	pass := Chain(preds...)

	out := make([]models.Property, 0, len(properties))
	for _, p := range properties {
		if pass(p) {
			out = append(out, p)
		}
	}
	return out
}

// Chain combines predicates with logical AND. An empty chain passes everything.
func Chain(preds ...Predicate) Predicate {
	return func(p models.Property) bool {
		for _, pred := range preds {
			if !pred(p) {
				return false
			}
		}
		return true
	}
}

// PriceRange passes prices within [min, max] inclusive. A max of zero is unbounded.
func PriceRange(min, max int64) Predicate {
	return func(p models.Property) bool {
		if p.Price < min {
			return false
		}
		return max <= 0 || p.Price <= max
	}
}

// SizeRange passes sizes within [min, max] inclusive. A max of zero is unbounded.
func SizeRange(min, max int) Predicate {
	return func(p models.Property) bool {
		if p.Size < min {
			return false
		}
		return max <= 0 || p.Size <= max
	}
}

// Bedrooms passes properties with exactly n bedrooms.
func Bedrooms(n int) Predicate {
	return func(p models.Property) bool {
		return p.Bedrooms == n
	}
}

// Locations passes properties whose location text contains any of the names,
// case-insensitively. An empty set passes everything.
func Locations(names []string) Predicate {
	needles := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			needles = append(needles, n)
		}
	}

	return func(p models.Property) bool {
		if len(needles) == 0 {
			return true
		}
		location := strings.ToLower(p.Location)
		for _, n := range needles {
			if strings.Contains(location, n) {
				return true
			}
		}
		return false
	}
}

// MinValueScore passes properties scoring at least min.
func MinValueScore(min float64) Predicate {
	return func(p models.Property) bool {
		return p.ValueScore >= min
	}
}

// Exclude rejects properties whose id is in ids, typically those already selected.
func Exclude(ids []string) Predicate {
	excluded := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		excluded[id] = struct{}{}
	}

	return func(p models.Property) bool {
		_, skip := excluded[p.ID]
		return !skip
	}
}

// Keyword passes properties where q occurs in the title, location, an
// amenity, the formatted price, or the bedroom, bathroom or size figures.
func Keyword(q string) Predicate {
	needle := strings.ToLower(strings.TrimSpace(q))

	return func(p models.Property) bool {
		if needle == "" {
			return true
		}

		fields := []string{
			p.Title,
			p.Location,
			models.FormatPrice(p.Price),
			strconv.Itoa(p.Bedrooms),
			strconv.Itoa(p.Bathrooms),
			strconv.Itoa(p.Size),
		}
		fields = append(fields, p.Amenities...)

		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), needle) {
				return true
			}
		}
		return false
	}
}
