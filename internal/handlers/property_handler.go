package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/estimo/api/internal/errors"
	"github.com/stwalsh4118/estimo/api/internal/filter"
	"github.com/stwalsh4118/estimo/api/internal/finance"
	"github.com/stwalsh4118/estimo/api/internal/middleware"
	"github.com/stwalsh4118/estimo/api/internal/models"
	"github.com/stwalsh4118/estimo/api/internal/services"
	"github.com/stwalsh4118/estimo/api/internal/valuation"
)

// defaultNearbyRadiusMeters applies when a nearby request gives no radius.
const defaultNearbyRadiusMeters = 2000

// PropertyHandler handles property search, comparison and projection requests.
type PropertyHandler struct {
	service services.ValuationService
}

// NewPropertyHandler creates a new PropertyHandler instance.
func NewPropertyHandler(service services.ValuationService) *PropertyHandler {
	return &PropertyHandler{
		service: service,
	}
}

// ListRequest represents the query parameters for the list endpoint.
type ListRequest struct {
	Keyword string `form:"keyword" binding:"omitempty,max=200"`
}

// SearchRequest represents the query parameters for the search endpoint.
type SearchRequest struct {
	Query string `form:"q" binding:"required,max=500"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// FilterRequest represents the body of the filter endpoint.
// Zero-valued bounds place no restriction.
type FilterRequest struct {
	Locations     []string `json:"locations" binding:"omitempty,max=20,dive,required"`
	Exclude       []string `json:"exclude" binding:"omitempty,max=100"`
	Keyword       string   `json:"keyword" binding:"omitempty,max=200"`
	MinPrice      int64    `json:"min_price" binding:"omitempty,min=0"`
	MaxPrice      int64    `json:"max_price" binding:"omitempty,min=0"`
	MinValueScore float64  `json:"min_value_score" binding:"omitempty,min=0,max=100"`
	MinSize       int      `json:"min_size" binding:"omitempty,min=0"`
	MaxSize       int      `json:"max_size" binding:"omitempty,min=0"`
	Bedrooms      int      `json:"bedrooms" binding:"omitempty,min=0,max=20"`
	Limit         int      `json:"limit" binding:"omitempty,min=1,max=50"`
}

// InvestmentRequest carries investor inputs. Omitted fields take the
// defaults offered to investors.
type InvestmentRequest struct {
	DownPaymentPercent        *float64 `json:"down_payment_percent" binding:"omitempty,min=0,max=100"`
	LoanTermYears             *int     `json:"loan_term_years" binding:"omitempty,min=1,max=40"`
	AnnualInterestRatePercent *float64 `json:"annual_interest_rate_percent" binding:"omitempty,min=0,max=30"`
	ExpectedMonthlyRental     *float64 `json:"expected_monthly_rental" binding:"omitempty,min=0"`
	AnnualAppreciationPercent *float64 `json:"annual_appreciation_percent" binding:"omitempty,min=0,max=50"`
}

// CompareRequest represents the body of the compare endpoint.
type CompareRequest struct {
	IDs        []string           `json:"ids" binding:"required,min=1,max=3,unique,dive,required"`
	Investment *InvestmentRequest `json:"investment"`
}

// MortgageRequest represents the body of the mortgage calculator endpoint.
type MortgageRequest struct {
	InvestmentRequest
	Price int64 `json:"price" binding:"required,min=1"`
}

// NearbyRequest represents the query parameters for the nearby endpoint.
type NearbyRequest struct {
	Lat    *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng    *float64 `form:"lng" binding:"required,min=-180,max=180"`
	Radius int      `form:"radius" binding:"omitempty,min=1,max=50000"`
}

// ListResponse represents the response for the list endpoint.
type ListResponse struct {
	Properties []models.Property `json:"properties"`
	Count      int               `json:"count"`
}

// SearchResponse represents the response for the search endpoint.
type SearchResponse struct {
	Criteria models.SearchCriteria `json:"criteria"`
	Results  []valuation.Result    `json:"results"`
	Matched  int                   `json:"matched"`
}

// RankingResponse represents the response for the filter endpoint.
type RankingResponse struct {
	Results []valuation.Result `json:"results"`
	Matched int                `json:"matched"`
}

// NearbyResponse represents the response for the nearby endpoint.
type NearbyResponse struct {
	Properties []services.PropertyWithDistance `json:"properties"`
	Count      int                             `json:"count"`
}

// ToParams merges the request over the default investment parameters.
func (r *InvestmentRequest) ToParams() models.InvestmentParameters {
	params := models.DefaultInvestmentParameters()
	if r == nil {
		return params
	}
	if r.DownPaymentPercent != nil {
		params.DownPaymentPercent = *r.DownPaymentPercent
	}
	if r.LoanTermYears != nil {
		params.LoanTermYears = *r.LoanTermYears
	}
	if r.AnnualInterestRatePercent != nil {
		params.AnnualInterestRatePercent = *r.AnnualInterestRatePercent
	}
	if r.ExpectedMonthlyRental != nil {
		params.ExpectedMonthlyRental = *r.ExpectedMonthlyRental
	}
	if r.AnnualAppreciationPercent != nil {
		params.AnnualAppreciationPercent = *r.AnnualAppreciationPercent
	}
	return params
}

// ToParams converts the request into filter parameters.
func (r FilterRequest) ToParams() filter.Params {
	return filter.Params{
		Locations:     r.Locations,
		Exclude:       r.Exclude,
		Keyword:       r.Keyword,
		MinPrice:      r.MinPrice,
		MaxPrice:      r.MaxPrice,
		MinValueScore: r.MinValueScore,
		MinSize:       r.MinSize,
		MaxSize:       r.MaxSize,
		Bedrooms:      r.Bedrooms,
	}
}

// List handles GET /api/v1/properties endpoint.
// An optional keyword narrows the listings without ranking them.
func (h *PropertyHandler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	props, err := h.service.ListProperties(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Failed to list properties")
		return
	}

	if req.Keyword != "" {
		props = filter.Apply(props, filter.Keyword(req.Keyword))
	}

	c.JSON(http.StatusOK, ListResponse{
		Properties: props,
		Count:      len(props),
	})
}

// Get handles GET /api/v1/properties/:id endpoint.
func (h *PropertyHandler) Get(c *gin.Context) {
	detail, err := h.service.GetProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to load property")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Search handles GET /api/v1/properties/search endpoint.
// It interprets the free-text query and returns ranked matches with the
// criteria it understood.
func (h *PropertyHandler) Search(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	if log != nil {
		log.Info("Processing search request", map[string]interface{}{
			"q":     req.Query,
			"limit": req.Limit,
		})
	}

	outcome, err := h.service.Search(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		handleServiceError(c, err, "Failed to search properties")
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		Criteria: outcome.Criteria,
		Results:  outcome.Result.Results,
		Matched:  outcome.Result.Matched,
	})
}

// Filter handles POST /api/v1/properties/filter endpoint.
func (h *PropertyHandler) Filter(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	if req.MaxPrice > 0 && req.MinPrice > req.MaxPrice {
		apierrors.BadRequest(c, "min_price must not exceed max_price", nil)
		return
	}
	if req.MaxSize > 0 && req.MinSize > req.MaxSize {
		apierrors.BadRequest(c, "min_size must not exceed max_size", nil)
		return
	}

	result, err := h.service.Filter(c.Request.Context(), req.ToParams(), req.Limit)
	if err != nil {
		handleServiceError(c, err, "Failed to filter properties")
		return
	}

	c.JSON(http.StatusOK, RankingResponse{
		Results: result.Results,
		Matched: result.Matched,
	})
}

// Compare handles POST /api/v1/properties/compare endpoint.
func (h *PropertyHandler) Compare(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	var params *models.InvestmentParameters
	if req.Investment != nil {
		p := req.Investment.ToParams()
		params = &p
	}

	if log != nil {
		log.Info("Processing compare request", map[string]interface{}{
			"ids":        req.IDs,
			"investment": params != nil,
		})
	}

	outcome, err := h.service.Compare(c.Request.Context(), req.IDs, params)
	if err != nil {
		handleServiceError(c, err, "Failed to compare properties")
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// Projection handles POST /api/v1/properties/:id/projection endpoint.
// An empty body projects with the default investment parameters.
func (h *PropertyHandler) Projection(c *gin.Context) {
	var req InvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apierrors.BindingError(c, err)
		return
	}

	projection, err := h.service.Project(c.Request.Context(), c.Param("id"), req.ToParams())
	if err != nil {
		handleServiceError(c, err, "Failed to compute projection")
		return
	}

	c.JSON(http.StatusOK, projection)
}

// Mortgage handles POST /api/v1/mortgage endpoint.
func (h *PropertyHandler) Mortgage(c *gin.Context) {
	var req MortgageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	mortgage, err := h.service.Mortgage(c.Request.Context(), req.Price, req.ToParams())
	if err != nil {
		handleServiceError(c, err, "Failed to compute mortgage")
		return
	}

	c.JSON(http.StatusOK, mortgage)
}

// Nearby handles GET /api/v1/properties/nearby endpoint.
// It retrieves listings within the specified radius of the given lat/lng point.
func (h *PropertyHandler) Nearby(c *gin.Context) {
	var req NearbyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	if req.Radius == 0 {
		req.Radius = defaultNearbyRadiusMeters
	}

	results, err := h.service.Nearby(c.Request.Context(), *req.Lat, *req.Lng, req.Radius)
	if err != nil {
		handleServiceError(c, err, "Failed to query nearby properties")
		return
	}

	c.JSON(http.StatusOK, NearbyResponse{
		Properties: results,
		Count:      len(results),
	})
}

// handleServiceError maps service-level errors to API error responses.
func handleServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrCatalogNotLoaded):
		apierrors.ServiceUnavailable(c, "Property catalog is not loaded yet")
	case errors.Is(err, services.ErrPropertyNotFound):
		apierrors.NotFound(c, "Property not found")
	case errors.Is(err, services.ErrNeighborhoodNotFound):
		apierrors.NotFound(c, "Neighborhood not found")
	case errors.Is(err, services.ErrInvalidSelection),
		errors.Is(err, services.ErrInvalidParameters),
		errors.Is(err, finance.ErrInvalidParameters),
		errors.Is(err, services.ErrInvalidCoordinates),
		errors.Is(err, services.ErrInvalidRadius):
		apierrors.BadRequest(c, err.Error(), nil)
	default:
		apierrors.InternalServerError(c, fallback, err)
	}
}
