// Package scoring normalizes property attributes and combines them into
// weighted composite scores.
package scoring

import (
	"github.com/stwalsh4118/estimo/api/internal/models"
)

// Components are the normalized attributes of one property. Each lies in [0,1].
type Components struct {
	Value     float64 `json:"value"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Amenities float64 `json:"amenities"`
	Location  float64 `json:"location"`
}

// LocationFunc returns the location component of a property.
type LocationFunc func(models.Property) float64

// LocationScores is the fixed location component per neighborhood tier.
type LocationScores struct {
	Prime    float64 `yaml:"prime" json:"prime"`
	Emerging float64 `yaml:"emerging" json:"emerging"`
	Other    float64 `yaml:"other" json:"other"`
}

// DefaultLocationScores returns the standard tier lookup.
func DefaultLocationScores() LocationScores {
	return LocationScores{Prime: 0.9, Emerging: 0.7, Other: 0.5}
}

// ForTier returns the score for t. Standard and unknown tiers share Other.
func (s LocationScores) ForTier(t models.Tier) float64 {
	switch t {
	case models.TierPrime:
		return s.Prime
	case models.TierEmerging:
		return s.Emerging
	default:
		return s.Other
	}
}

// Validate checks every score lies in [0,1].
func (s LocationScores) Validate() error {
	for _, v := range []float64{s.Prime, s.Emerging, s.Other} {
		if v < 0 || v > 1 {
			return ErrInvalidLocationScores
		}
	}
	return nil
}

// TierLocator builds a LocationFunc from a tier lookup.
func TierLocator(tierOf func(models.Property) models.Tier, scores LocationScores) LocationFunc {
	return func(p models.Property) float64 {
		return scores.ForTier(tierOf(p))
	}
}

// Domain is a fixed range to normalize against instead of the candidate set.
type Domain struct {
	MinPrice     int64 `json:"min_price"`
	MaxPrice     int64 `json:"max_price"`
	MinSize      int   `json:"min_size"`
	MaxSize      int   `json:"max_size"`
	MaxAmenities int   `json:"max_amenities"`
}

// DefaultDomain covers the listings the catalog is seeded with.
func DefaultDomain() Domain {
	return Domain{
		MinPrice:     7_000_000,
		MaxPrice:     11_000_000,
		MinSize:      1000,
		MaxSize:      1500,
		MaxAmenities: 10,
	}
}

// Normalize scales every candidate relative to the set:
//
//	value     = valueScore / 100
//	price     = 1 - (p - min) / (max - min), or 1 when all prices are equal
//	size      = (s - min) / (max - min), or 0 when all sizes are equal
//	amenities = count / maxCount, or 0 when no candidate has amenities
//	location  = locate(p)
//
// The result is keyed by property id.
func Normalize(candidates []models.Property, locate LocationFunc) map[string]Components {
	out := make(map[string]Components, len(candidates))
	if len(candidates) == 0 {
		return out
	}

	minPrice, maxPrice := candidates[0].Price, candidates[0].Price
	minSize, maxSize := candidates[0].Size, candidates[0].Size
	maxAmenities := 0
	for _, p := range candidates {
		minPrice = min(minPrice, p.Price)
		maxPrice = max(maxPrice, p.Price)
		minSize = min(minSize, p.Size)
		maxSize = max(maxSize, p.Size)
		maxAmenities = max(maxAmenities, p.AmenityCount())
	}

	for _, p := range candidates {
		c := Components{
			Value:    clamp(p.ValueScore / 100),
			Price:    1,
			Location: location(p, locate),
		}
		if maxPrice > minPrice {
			c.Price = 1 - float64(p.Price-minPrice)/float64(maxPrice-minPrice)
		}
		if maxSize > minSize {
			c.Size = float64(p.Size-minSize) / float64(maxSize-minSize)
		}
		if maxAmenities > 0 {
			c.Amenities = float64(p.AmenityCount()) / float64(maxAmenities)
		}
		out[p.ID] = c
	}

	return out
}

// NormalizeWithin scales every candidate against the fixed domain d,
// clamping values outside it. Degenerate domain bounds behave like an
// equal-valued candidate set.
func NormalizeWithin(candidates []models.Property, d Domain, locate LocationFunc) map[string]Components {
	out := make(map[string]Components, len(candidates))

	for _, p := range candidates {
		c := Components{
			Value:    clamp(p.ValueScore / 100),
			Price:    1,
			Location: location(p, locate),
		}
		if d.MaxPrice > d.MinPrice {
			c.Price = clamp(1 - float64(p.Price-d.MinPrice)/float64(d.MaxPrice-d.MinPrice))
		}
		if d.MaxSize > d.MinSize {
			c.Size = clamp(float64(p.Size-d.MinSize) / float64(d.MaxSize-d.MinSize))
		}
		if d.MaxAmenities > 0 {
			c.Amenities = clamp(float64(p.AmenityCount()) / float64(d.MaxAmenities))
		}
		out[p.ID] = c
	}

	return out
}

func location(p models.Property, locate LocationFunc) float64 {
	if locate == nil {
		return DefaultLocationScores().Other
	}
	return clamp(locate(p))
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
