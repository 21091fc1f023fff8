package models

import (
	"fmt"
	"strings"
)

// Tier is the qualitative desirability rank of a neighborhood.
// Higher tiers are more desirable; the zero value ranks lowest.
type Tier int

const (
	TierUnknown Tier = iota
	TierStandard
	TierEmerging
	TierPrime
)

var tierNames = map[Tier]string{
	TierUnknown:  "unknown",
	TierStandard: "standard",
	TierEmerging: "emerging",
	TierPrime:    "prime",
}

// String returns the lowercase tier name.
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier converts a tier name into a Tier. Unknown names map to TierUnknown.
func ParseTier(s string) Tier {
	needle := strings.ToLower(strings.TrimSpace(s))
	for tier, name := range tierNames {
		if name == needle {
			return tier
		}
	}
	return TierUnknown
}

// MarshalText implements encoding.TextMarshaler so tiers read as names in JSON and YAML.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	*t = ParseTier(string(text))
	return nil
}

// Neighborhood is a reference record for a locality.
// Connectivity, Amenities, Safety and Schools are display metrics (0-100).
type Neighborhood struct {
	Coordinates  Point   `json:"coordinates"`
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	PriceRange   string  `json:"price_range,omitempty"`
	Connectivity float64 `json:"connectivity"`
	Amenities    float64 `json:"amenities"`
	Safety       float64 `json:"safety"`
	Schools      float64 `json:"schools"`
	ValueScore   float64 `json:"value_score"`
	Tier         Tier    `json:"tier"`
}
