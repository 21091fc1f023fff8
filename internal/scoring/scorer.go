package scoring

import (
	"sort"

	"github.com/stwalsh4118/estimo/api/internal/models"
)

// Lookup supplies the catalog-derived facts the scorer needs.
// *catalog.Catalog satisfies it.
type Lookup interface {
	Tier(p models.Property) models.Tier
	Order(id string) int
}

// Scorer turns a candidate set into score breakdowns.
type Scorer struct {
	weights   Weights
	locations LocationScores
}

// NewScorer creates a Scorer after validating its configuration.
func NewScorer(weights Weights, locations LocationScores) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if err := locations.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: weights, locations: locations}, nil
}

// DefaultScorer returns a Scorer with the default weights and tier scores.
func DefaultScorer() *Scorer {
	return &Scorer{weights: DefaultWeights(), locations: DefaultLocationScores()}
}

// Weights returns the scorer's weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// LocationScores returns the scorer's tier scores.
func (s *Scorer) LocationScores() LocationScores {
	return s.locations
}

// Locator returns the LocationFunc the scorer applies with lookup.
func (s *Scorer) Locator(lookup Lookup) LocationFunc {
	return TierLocator(lookup.Tier, s.locations)
}

// Score normalizes the candidates against each other and returns one
// breakdown per candidate, in candidate order.
//
// Category winners are decided on raw attributes and only for sets of two
// or more: highest value score, lowest price, most amenities, highest tier.
// Ties go to the candidate that comes first in catalog order.
func (s *Scorer) Score(candidates []models.Property, lookup Lookup) []models.ScoreBreakdown {
	components := Normalize(candidates, s.Locator(lookup))

	out := make([]models.ScoreBreakdown, 0, len(candidates))
	for _, p := range candidates {
		c := components[p.ID]
		out = append(out, models.ScoreBreakdown{
			PropertyID: p.ID,
			Value:      c.Value,
			Price:      c.Price,
			Size:       c.Size,
			Amenities:  c.Amenities,
			Location:   c.Location,
			Composite:  s.weights.Composite(c),
		})
	}

	if len(candidates) < 2 {
		return out
	}

	w := findWinners(candidates, lookup)
	for i := range out {
		out[i].Winners = models.Winners{
			BestValue:     i == w.value,
			BestPrice:     i == w.price,
			MostAmenities: i == w.amenities,
			BestLocation:  i == w.location,
		}
	}

	return out
}

// winnerIndexes holds candidate indexes of each category winner.
type winnerIndexes struct {
	value, price, amenities, location int
}

// findWinners reduces over the candidates in catalog order so that the
// first strictly better candidate is kept on ties.
func findWinners(candidates []models.Property, lookup Lookup) winnerIndexes {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lookup.Order(candidates[order[a]].ID) < lookup.Order(candidates[order[b]].ID)
	})

	first := order[0]
	w := winnerIndexes{value: first, price: first, amenities: first, location: first}
	bestTier := lookup.Tier(candidates[first])

	for _, i := range order[1:] {
		p := candidates[i]
		if p.ValueScore > candidates[w.value].ValueScore {
			w.value = i
		}
		if p.Price < candidates[w.price].Price {
			w.price = i
		}
		if p.AmenityCount() > candidates[w.amenities].AmenityCount() {
			w.amenities = i
		}
		if t := lookup.Tier(p); t > bestTier {
			w.location = i
			bestTier = t
		}
	}

	return w
}
