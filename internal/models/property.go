package models

import "strings"

// Property is a residential listing in the catalog.
// It is immutable once loaded; Price and Size are always positive and
// ValueScore (0-100) is supplied by the listing source, never derived here.
type Property struct {
	Coordinates  Point    `json:"coordinates"`
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Location     string   `json:"location"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Description  string   `json:"description,omitempty"`
	Amenities    []string `json:"amenities"`
	Price        int64    `json:"price"`
	ValueScore   float64  `json:"value_score"`
	Size         int      `json:"size"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    int      `json:"bathrooms"`
}

// AmenityCount returns the number of distinct amenities.
// Amenities have set semantics, so duplicates differing only in case or
// surrounding whitespace are counted once.
func (p Property) AmenityCount() int {
	seen := make(map[string]struct{}, len(p.Amenities))
	for _, a := range p.Amenities {
		key := strings.ToLower(strings.TrimSpace(a))
		if key == "" {
			continue
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}

// PricePerSqft returns the price per unit of area, rounded down.
func (p Property) PricePerSqft() int64 {
	if p.Size <= 0 {
		return 0
	}
	return p.Price / int64(p.Size)
}
