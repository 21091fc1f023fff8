package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/stwalsh4118/estimo/api/internal/catalog"
	"github.com/stwalsh4118/estimo/api/internal/filter"
	"github.com/stwalsh4118/estimo/api/internal/finance"
	"github.com/stwalsh4118/estimo/api/internal/logger"
	"github.com/stwalsh4118/estimo/api/internal/metrics"
	"github.com/stwalsh4118/estimo/api/internal/models"
	"github.com/stwalsh4118/estimo/api/internal/repository"
	"github.com/stwalsh4118/estimo/api/internal/valuation"
)

// Coordinate validation constants
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Radius validation constants
const (
	MinRadiusMeters = 1
	MaxRadiusMeters = 50000
)

// DefaultTopProperties is how many listings a neighborhood detail carries.
const DefaultTopProperties = 3

// Service-level errors
var (
	ErrCatalogNotLoaded     = errors.New("catalog not loaded")
	ErrPropertyNotFound     = errors.New("property not found")
	ErrNeighborhoodNotFound = errors.New("neighborhood not found")
	ErrInvalidSelection     = errors.New("invalid selection")
	ErrInvalidParameters    = errors.New("invalid parameters")
	ErrInvalidCoordinates   = errors.New("invalid coordinates")
	ErrInvalidRadius        = fmt.Errorf("radius must be between %d and %d meters", MinRadiusMeters, MaxRadiusMeters)
)

// CatalogInfo describes the active catalog snapshot.
type CatalogInfo struct {
	LoadedAt      time.Time `json:"loaded_at"`
	Source        string    `json:"source"`
	Properties    int       `json:"properties"`
	Neighborhoods int       `json:"neighborhoods"`
}

// PropertyDetail is a listing with its neighborhood, when known.
type PropertyDetail struct {
	Property     models.Property      `json:"property"`
	Neighborhood *models.Neighborhood `json:"neighborhood,omitempty"`
	ValueLabel   string               `json:"value_label"`
}

// SearchOutcome is a free-text search: the interpreted criteria and the ranking.
type SearchOutcome struct {
	Criteria models.SearchCriteria  `json:"criteria"`
	Result   valuation.SearchResult `json:"result"`
}

// CompareOutcome is a comparison, optionally with one projection per property.
type CompareOutcome struct {
	valuation.Comparison
	Projections map[string]models.InvestmentProjection `json:"projections,omitempty"`
}

// NeighborhoodDetail is a neighborhood with its best listings by value score.
type NeighborhoodDetail struct {
	Neighborhood  models.Neighborhood `json:"neighborhood"`
	TopProperties []models.Property   `json:"top_properties"`
	Listings      int                 `json:"listings"`
}

// PropertyWithDistance is a listing and its distance from a query point.
type PropertyWithDistance struct {
	Property       models.Property `json:"property"`
	DistanceMeters float64         `json:"distance_meters"`
}

// Options configures a ValuationService.
type Options struct {
	// Source names the catalog backend for diagnostics.
	Source string
	// LoadTimeout bounds a single catalog load. Zero means no extra bound.
	LoadTimeout time.Duration
	// DefaultLimit caps ranked results when a request gives no limit.
	DefaultLimit int
	// Finance options applied to every projection.
	Finance []finance.Option
}

// ValuationService defines the interface for search, comparison and
// projection operations over the property catalog.
type ValuationService interface {
	// Reload fetches the catalog from the repository and swaps it in.
	// On failure the previous snapshot stays active.
	Reload(ctx context.Context) error

	// Ready returns nil when a catalog is loaded and the repository is reachable.
	Ready(ctx context.Context) error

	// Info describes the active snapshot.
	// Returns ErrCatalogNotLoaded before the first successful Reload.
	Info() (CatalogInfo, error)

	// ListProperties returns every listing in catalog order.
	ListProperties(ctx context.Context) ([]models.Property, error)

	// GetProperty returns one listing with its neighborhood.
	// Returns ErrPropertyNotFound for an unknown id.
	GetProperty(ctx context.Context, id string) (*PropertyDetail, error)

	// Search interprets a free-text phrase and ranks matching listings.
	// A limit of zero uses the configured default.
	Search(ctx context.Context, phrase string, limit int) (*SearchOutcome, error)

	// Filter ranks the listings matching explicit parameters.
	// A limit of zero uses the configured default.
	Filter(ctx context.Context, params filter.Params, limit int) (*valuation.SearchResult, error)

	// Compare scores the selected listings against each other. When params
	// is non-nil a projection is attached for each listing.
	// Returns ErrInvalidSelection for an empty, oversized, repeated or unknown selection
	// and ErrInvalidParameters for unusable investment parameters.
	Compare(ctx context.Context, ids []string, params *models.InvestmentParameters) (*CompareOutcome, error)

	// Project computes the investment projection for one listing.
	// Returns ErrPropertyNotFound or ErrInvalidParameters.
	Project(ctx context.Context, id string, params models.InvestmentParameters) (*models.InvestmentProjection, error)

	// Mortgage computes loan totals for an arbitrary price.
	// Returns ErrInvalidParameters for unusable inputs.
	Mortgage(ctx context.Context, price int64, params models.InvestmentParameters) (*finance.Mortgage, error)

	// ListNeighborhoods returns every neighborhood.
	ListNeighborhoods(ctx context.Context) ([]models.Neighborhood, error)

	// GetNeighborhood returns a neighborhood with its top listings by value score.
	// A top of zero uses DefaultTopProperties.
	// Returns ErrNeighborhoodNotFound for an unknown name.
	GetNeighborhood(ctx context.Context, name string, top int) (*NeighborhoodDetail, error)

	// Nearby returns listings within radiusMeters of the point, nearest first.
	// Returns ErrInvalidCoordinates or ErrInvalidRadius for out-of-range input.
	// Returns an empty slice if nothing is in range (not an error).
	Nearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]PropertyWithDistance, error)
}

// valuationService is the concrete implementation of ValuationService.
type valuationService struct {
	repo    repository.CatalogRepository
	engine  *valuation.Engine
	metrics *metrics.Metrics
	log     *logger.Logger
	opts    Options

	snapshot atomic.Pointer[catalog.Catalog]
}

// NewValuationService creates a new instance of ValuationService.
// The catalog is empty until Reload succeeds.
func NewValuationService(repo repository.CatalogRepository, engine *valuation.Engine, m *metrics.Metrics, log *logger.Logger, opts Options) ValuationService {
	if engine == nil {
		engine = valuation.NewEngine(nil)
	}
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = logger.Nop()
	}
	if opts.DefaultLimit < 0 {
		opts.DefaultLimit = 0
	}
	return &valuationService{
		repo:    repo,
		engine:  engine,
		metrics: m,
		log:     log.WithComponent("valuation"),
		opts:    opts,
	}
}

// Reload loads a fresh snapshot and records the outcome.
func (s *valuationService) Reload(ctx context.Context) error {
	if s.opts.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.LoadTimeout)
		defer cancel()
	}

	start := time.Now()
	cat, err := catalog.Load(ctx, s.repo)
	s.metrics.CatalogLoadDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.CatalogLoadsTotal.WithLabelValues("error").Inc()
		s.log.ForContext(ctx).Error("Failed to load catalog", err, map[string]interface{}{
			"source": s.opts.Source,
		})
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	s.snapshot.Store(cat)
	s.metrics.CatalogLoadsTotal.WithLabelValues("success").Inc()
	s.metrics.CatalogProperties.Set(float64(cat.Len()))

	s.log.ForContext(ctx).Info("Catalog loaded", map[string]interface{}{
		"source":        s.opts.Source,
		"properties":    cat.Len(),
		"neighborhoods": len(cat.Neighborhoods()),
		"duration_ms":   time.Since(start).Milliseconds(),
	})

	return nil
}

func (s *valuationService) Ready(ctx context.Context) error {
	if s.snapshot.Load() == nil {
		return ErrCatalogNotLoaded
	}
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("catalog source unreachable: %w", err)
	}
	return nil
}

func (s *valuationService) current() (*catalog.Catalog, error) {
	cat := s.snapshot.Load()
	if cat == nil {
		return nil, ErrCatalogNotLoaded
	}
	return cat, nil
}

func (s *valuationService) Info() (CatalogInfo, error) {
	cat, err := s.current()
	if err != nil {
		return CatalogInfo{}, err
	}
	return CatalogInfo{
		LoadedAt:      cat.LoadedAt(),
		Source:        s.opts.Source,
		Properties:    cat.Len(),
		Neighborhoods: len(cat.Neighborhoods()),
	}, nil
}

func (s *valuationService) ListProperties(ctx context.Context) ([]models.Property, error) {
	cat, err := s.current()
	if err != nil {
		return nil, err
	}
	return cat.Properties(), nil
}

func (s *valuationService) GetProperty(ctx context.Context, id string) (*PropertyDetail, error) {
	cat, err := s.current()
	if err != nil {
		return nil, err
	}

	p, ok := cat.Property(id)
	if !ok {
		s.log.ForContext(ctx).Debug("Property not found", map[string]interface{}{
			"property_id": id,
		})
		return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, id)
	}

	detail := &PropertyDetail{
		Property:   p,
		ValueLabel: models.ValueLabel(p.ValueScore),
	}
	if n, ok := cat.NeighborhoodOf(p); ok {
		detail.Neighborhood = &n
	}
	return detail, nil
}

func (s *valuationService) limit(requested int) int {
	if requested > 0 {
		return requested
	}
	return s.opts.DefaultLimit
}

// recordSearch updates search metrics for one ranking.
func (s *valuationService) recordSearch(mode string, result valuation.SearchResult) {
	outcome := "results"
	if result.Matched == 0 {
		outcome = "empty"
	}
	s.metrics.SearchesTotal.WithLabelValues(mode, outcome).Inc()
	s.metrics.SearchResultsCount.WithLabelValues(mode).Observe(float64(result.Matched))
}

func (s *valuationService) Search(ctx context.Context, phrase string, limit int) (*SearchOutcome, error) {
	cat, err := s.current()
	if err != nil {
		return nil, err
	}

	criteria, result := s.engine.Search(cat, phrase, s.limit(limit))
	s.recordSearch("query", result)

	s.log.ForContext(ctx).Info("Search completed", map[string]interface{}{
		"phrase":     phrase,
		"locations":  criteria.Locations,
		"min_budget": criteria.MinBudget,
		"max_budget": criteria.MaxBudget,
		"bedrooms":   criteria.Bedrooms,
		"matched":    result.Matched,
		"returned":   len(result.Results),
	})

	return &SearchOutcome{Criteria: criteria, Result: result}, nil
}

func (s *valuationService) Filter(ctx context.Context, params filter.Params, limit int) (*valuation.SearchResult, error) {
	cat, err := s.current()
	if err != nil {
		return nil, err
	}

	result := s.engine.ComputeRanking(cat, params, s.limit(limit))
	s.recordSearch("filter", result)

	s.log.ForContext(ctx).Info("Filter completed", map[string]interface{}{
		"matched":  result.Matched,
		"returned": len(result.Results),
	})

	return &result, nil
}

func (s *valuationService) Compare(ctx context.Context, ids []string, params *models.InvestmentParameters) (*CompareOutcome, error) {
	cat, err := s.current()
	if err != nil {
		return nil, err
	}

	comparison, err := s.engine.Compare(cat, ids)
	if err != nil {
		s.metrics.ComparisonsTotal.WithLabelValues("rejected").Inc()
		s.log.ForContext(ctx).Warn("Comparison rejected", map[string]interface{}{
			"ids":   ids,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %w", ErrInvalidSelection, err)
	}

	outcome := &CompareOutcome{Comparison: comparison}

	if params != nil {
		outcome.Projections = make(map[string]models.InvestmentProjection, len(comparison.Properties))
		for _, p := range comparison.Properties {
			projection, err := s.project(ctx, p, *params)
			if err != nil {
				s.metrics.ComparisonsTotal.WithLabelValues("rejected").Inc()
				return nil, err
			}
			outcome.Projections[p.ID] = projection
		}
	}

	result := "single"
	if comparison.RecommendedID != "" {
		result = "recommended"
	}
	s.metrics.ComparisonsTotal.WithLabelValues(result).Inc()

	s.log.ForContext(ctx).Info("Comparison completed", map[string]interface{}{
		"ids":            ids,
		"recommended_id": comparison.RecommendedID,
		"projections":    params != nil,
	})

	return outcome, nil
}

// project runs one projection, mapping parameter failures to ErrInvalidParameters.
func (s *valuationService) project(ctx context.Context, p models.Property, params models.InvestmentParameters) (models.InvestmentProjection, error) {
	projection, err := finance.Project(p.Price, params, s.opts.Finance...)
	if err != nil {
		s.metrics.ProjectionsTotal.WithLabelValues("projection", "rejected").Inc()
		s.log.ForContext(ctx).Warn("Invalid investment parameters", map[string]interface{}{
			"property_id": p.ID,
			"error":       err.Error(),
		})
		return models.InvestmentProjection{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	s.metrics.ProjectionsTotal.WithLabelValues("projection", "ok").Inc()
	return projection, nil
}

func (s *valuationService) Project(ctx context.Context, id string, params models.InvestmentParameters) (*models.InvestmentProjection, error) {
	cat, err := s.current()
	if err != nil {
		return nil, err
	}

	p, ok := cat.Property(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, id)
	}

	projection, err := s.project(ctx, p, params)
	if err != nil {
		return nil, err
	}

	s.log.ForContext(ctx).Debug("Projection computed", map[string]interface{}{
		"property_id":         id,
		"monthly_installment": projection.MonthlyInstallment,
		"absolute_return":     projection.AbsoluteReturnPercent,
	})

	return &projection, nil
}

func (s *valuationService) Mortgage(ctx context.Context, price int64, params models.InvestmentParameters) (*finance.Mortgage, error) {
	mortgage, err := finance.Amortize(price, params)
	if err != nil {
		s.metrics.ProjectionsTotal.WithLabelValues("mortgage", "rejected").Inc()
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	s.metrics.ProjectionsTotal.WithLabelValues("mortgage", "ok").Inc()
	return &mortgage, nil
}

func (s *valuationService) ListNeighborhoods(ctx context.Context) ([]models.Neighborhood, error) {
	cat, err := s.current()
	if err != nil {
		return nil, err
	}
	return cat.Neighborhoods(), nil
}

func (s *valuationService) GetNeighborhood(ctx context.Context, name string, top int) (*NeighborhoodDetail, error) {
	cat, err := s.current()
	if err != nil {
		return nil, err
	}

	n, ok := cat.Neighborhood(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNeighborhoodNotFound, name)
	}

	if top <= 0 {
		top = DefaultTopProperties
	}

	listings := cat.PropertiesIn(n.Name)
	best := append([]models.Property(nil), listings...)
	sort.SliceStable(best, func(i, j int) bool {
		return best[i].ValueScore > best[j].ValueScore
	})
	if len(best) > top {
		best = best[:top]
	}
	if best == nil {
		best = []models.Property{}
	}

	return &NeighborhoodDetail{
		Neighborhood:  n,
		TopProperties: best,
		Listings:      len(listings),
	}, nil
}

func (s *valuationService) Nearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]PropertyWithDistance, error) {
	// Validate latitude range
	if lat < MinLatitude || lat > MaxLatitude {
		s.log.ForContext(ctx).Warn("Invalid latitude provided", map[string]interface{}{
			"lat": lat,
			"lng": lng,
		})
		return nil, fmt.Errorf("%w: latitude must be between %f and %f, got %f",
			ErrInvalidCoordinates, MinLatitude, MaxLatitude, lat)
	}

	// Validate longitude range
	if lng < MinLongitude || lng > MaxLongitude {
		s.log.ForContext(ctx).Warn("Invalid longitude provided", map[string]interface{}{
			"lat": lat,
			"lng": lng,
		})
		return nil, fmt.Errorf("%w: longitude must be between %f and %f, got %f",
			ErrInvalidCoordinates, MinLongitude, MaxLongitude, lng)
	}

	// Validate radius range
	if radiusMeters < MinRadiusMeters || radiusMeters > MaxRadiusMeters {
		s.log.ForContext(ctx).Warn("Invalid radius provided", map[string]interface{}{
			"radius": radiusMeters,
		})
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRadius, radiusMeters)
	}

	cat, err := s.current()
	if err != nil {
		return nil, err
	}

	origin := models.Point{Lat: lat, Lng: lng}
	results := []PropertyWithDistance{}
	for _, p := range cat.Properties() {
		if p.Coordinates.IsZero() {
			continue
		}
		d := origin.DistanceMeters(p.Coordinates)
		if d <= float64(radiusMeters) {
			results = append(results, PropertyWithDistance{Property: p, DistanceMeters: d})
		}
	}

	// Catalog order breaks distance ties
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})

	s.log.ForContext(ctx).Info("Nearby properties found", map[string]interface{}{
		"lat":    lat,
		"lng":    lng,
		"radius": radiusMeters,
		"count":  len(results),
	})

	return results, nil
}
