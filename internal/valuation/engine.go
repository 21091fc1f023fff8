// Package valuation wires the query, filter, scoring and ranking stages into
// request/response operations over a catalog snapshot.
package valuation

import (
	"errors"
	"fmt"

	"github.com/stwalsh4118/estimo/api/internal/filter"
	"github.com/stwalsh4118/estimo/api/internal/models"
	"github.com/stwalsh4118/estimo/api/internal/query"
	"github.com/stwalsh4118/estimo/api/internal/ranking"
	"github.com/stwalsh4118/estimo/api/internal/scoring"
)

// MaxCompared is the largest selection Compare accepts.
const MaxCompared = 3

var (
	// ErrUnknownProperty is returned when a compared id is not in the catalog.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrSelectionSize is returned when a comparison is empty, too large or repeats an id.
	ErrSelectionSize = errors.New("invalid selection size")
)

// Snapshot is the read-only catalog view the engine works on.
// *catalog.Catalog satisfies it.
type Snapshot interface {
	Properties() []models.Property
	Property(id string) (models.Property, bool)
	NeighborhoodNames() []string
	Tier(p models.Property) models.Tier
	Order(id string) int
}

// Result is one ranked search hit.
type Result struct {
	Property  models.Property       `json:"property"`
	Breakdown models.ScoreBreakdown `json:"breakdown"`
	Composite float64               `json:"composite"`
	Position  int                   `json:"position"`
}

// SearchResult is a ranked, possibly capped, candidate list.
// Matched counts every candidate that passed the filters.
type SearchResult struct {
	Results []Result `json:"results"`
	Matched int      `json:"matched"`
}

// Comparison scores a user-selected set of properties against each other.
// RecommendedID is empty for fewer than two properties.
type Comparison struct {
	Properties    []models.Property             `json:"properties"`
	Breakdowns    []models.ScoreBreakdown       `json:"breakdowns"`
	Profiles      map[string]scoring.Components `json:"profiles"`
	RecommendedID string                        `json:"recommended_id,omitempty"`
}

// Engine holds the scoring configuration. It keeps no per-request state.
type Engine struct {
	scorer *scoring.Scorer
	domain scoring.Domain
}

// NewEngine creates an Engine. A nil scorer uses the default weights.
func NewEngine(scorer *scoring.Scorer) *Engine {
	if scorer == nil {
		scorer = scoring.DefaultScorer()
	}
	return &Engine{scorer: scorer, domain: scoring.DefaultDomain()}
}

// Scorer returns the engine's scorer.
func (e *Engine) Scorer() *scoring.Scorer {
	return e.scorer
}

// Interpret parses a free-text phrase against the snapshot's neighborhoods.
func (e *Engine) Interpret(snap Snapshot, phrase string) models.SearchCriteria {
	return query.NewInterpreter(snap.NeighborhoodNames()).Parse(phrase)
}

// ComputeRanking filters the snapshot with params, scores the candidates
// against each other and returns them best first. A limit of zero or less
// returns every candidate. An empty result is valid.
func (e *Engine) ComputeRanking(snap Snapshot, params filter.Params, limit int) SearchResult {
	candidates := filter.Apply(snap.Properties(), params.Predicates()...)
	breakdowns := e.scorer.Score(candidates, snap)

	byID := make(map[string]models.Property, len(candidates))
	for _, p := range candidates {
		byID[p.ID] = p
	}

	ranked := ranking.Rank(breakdowns, snap.Order, limit)

	results := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, Result{
			Property:  byID[r.Breakdown.PropertyID],
			Breakdown: r.Breakdown,
			Composite: r.Breakdown.Composite,
			Position:  r.Position,
		})
	}

	return SearchResult{Results: results, Matched: len(candidates)}
}

// Search interprets phrase and ranks the matching properties.
func (e *Engine) Search(snap Snapshot, phrase string, limit int) (models.SearchCriteria, SearchResult) {
	criteria := e.Interpret(snap, phrase)
	return criteria, e.ComputeRanking(snap, filter.FromCriteria(criteria), limit)
}

// Compare scores the selected properties against each other, in selection
// order, and recommends the best when at least two are selected.
func (e *Engine) Compare(snap Snapshot, ids []string) (Comparison, error) {
	if len(ids) == 0 || len(ids) > MaxCompared {
		return Comparison{}, fmt.Errorf("%w: select between 1 and %d properties, got %d", ErrSelectionSize, MaxCompared, len(ids))
	}

	seen := make(map[string]bool, len(ids))
	selected := make([]models.Property, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			return Comparison{}, fmt.Errorf("%w: property %s selected twice", ErrSelectionSize, id)
		}
		seen[id] = true

		p, ok := snap.Property(id)
		if !ok {
			return Comparison{}, fmt.Errorf("%w: %s", ErrUnknownProperty, id)
		}
		selected = append(selected, p)
	}

	breakdowns := e.scorer.Score(selected, snap)
	recommended, _ := ranking.MarkRecommended(breakdowns, snap.Order)

	return Comparison{
		Properties:    selected,
		Breakdowns:    breakdowns,
		Profiles:      scoring.NormalizeWithin(selected, e.domain, e.scorer.Locator(snap)),
		RecommendedID: recommended,
	}, nil
}
