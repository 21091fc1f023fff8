package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/estimo/api/internal/catalog/catalogtest"
	apierrors "github.com/stwalsh4118/estimo/api/internal/errors"
	"github.com/stwalsh4118/estimo/api/internal/finance"
	"github.com/stwalsh4118/estimo/api/internal/logger"
	"github.com/stwalsh4118/estimo/api/internal/middleware"
	"github.com/stwalsh4118/estimo/api/internal/models"
	"github.com/stwalsh4118/estimo/api/internal/services"
)

// fixtureRepository serves the fixture catalog.
type fixtureRepository struct{}

func (fixtureRepository) ListProperties(ctx context.Context) ([]models.Property, error) {
	return catalogtest.Properties(), nil
}

func (fixtureRepository) ListNeighborhoods(ctx context.Context) ([]models.Neighborhood, error) {
	return catalogtest.Neighborhoods(), nil
}

func (fixtureRepository) Ping(ctx context.Context) error {
	return nil
}

// setupValuationTestRouter creates a test router with middleware and the
// property and neighborhood handlers over the fixture catalog.
func setupValuationTestRouter(t *testing.T, load bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Nop()
	service := services.NewValuationService(fixtureRepository{}, nil, nil, log, services.Options{
		Source:       "fixture",
		DefaultLimit: 3,
	})
	if load {
		require.NoError(t, service.Reload(context.Background()))
	}

	properties := NewPropertyHandler(service)
	neighborhoods := NewNeighborhoodHandler(service)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))

	v1 := router.Group("/api/v1")
	{
		props := v1.Group("/properties")
		{
			props.GET("", properties.List)
			props.GET("/search", properties.Search)
			props.GET("/nearby", properties.Nearby)
			props.POST("/filter", properties.Filter)
			props.POST("/compare", properties.Compare)
			props.GET("/:id", properties.Get)
			props.POST("/:id/projection", properties.Projection)
		}
		v1.POST("/mortgage", properties.Mortgage)

		hoods := v1.Group("/neighborhoods")
		{
			hoods.GET("", neighborhoods.List)
			hoods.GET("/:name", neighborhoods.Get)
		}
	}

	return router
}

func doRequest(router *gin.Engine, method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.ErrorResponse {
	t.Helper()
	var response apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestList(t *testing.T) {
	router := setupValuationTestRouter(t, true)

	w := doRequest(router, http.MethodGet, "/api/v1/properties", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 9, response.Count)
	assert.Equal(t, "p1", response.Properties[0].ID)

	w = doRequest(router, http.MethodGet, "/api/v1/properties?keyword=padur", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Count)
}

func TestList_CatalogNotLoaded(t *testing.T) {
	router := setupValuationTestRouter(t, false)

	w := doRequest(router, http.MethodGet, "/api/v1/properties", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	response := decodeError(t, w)
	assert.Equal(t, apierrors.ErrCatalogUnavailable, response.Error.Code)
	assert.NotEmpty(t, response.Error.RequestID)
}

func TestGet(t *testing.T) {
	router := setupValuationTestRouter(t, true)

	w := doRequest(router, http.MethodGet, "/api/v1/properties/p5", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var detail services.PropertyDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "p5", detail.Property.ID)
	require.NotNil(t, detail.Neighborhood)
	assert.Equal(t, models.TierStandard, detail.Neighborhood.Tier)

	w = doRequest(router, http.MethodGet, "/api/v1/properties/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierrors.ErrNotFound, decodeError(t, w).Error.Code)
}

func TestSearch(t *testing.T) {
	router := setupValuationTestRouter(t, true)

	w := doRequest(router, http.MethodGet, "/api/v1/properties/search?q=2+bhk+in+Padur", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"Padur"}, response.Criteria.Locations)
	assert.Equal(t, 2, response.Criteria.Bedrooms)
	assert.Equal(t, 2, response.Matched)
	require.Len(t, response.Results, 2)
	assert.Equal(t, "p5", response.Results[0].Property.ID)
	assert.Equal(t, 1, response.Results[0].Position)
	assert.InDelta(t, 0.902, response.Results[0].Composite, 1e-9)
}

func TestSearch_Validation(t *testing.T) {
	router := setupValuationTestRouter(t, true)

	tests := []struct {
		name   string
		target string
	}{
		{name: "missing query", target: "/api/v1/properties/search"},
		{name: "limit too large", target: "/api/v1/properties/search?q=flat&limit=500"},
		{name: "non-numeric limit", target: "/api/v1/properties/search?q=flat&limit=many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestFilter(t *testing.T) {
	router := setupValuationTestRouter(t, true)

	w := doRequest(router, http.MethodPost, "/api/v1/properties/filter", map[string]interface{}{
		"locations": []string{"Padur"},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var response RankingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Results, 2)
	assert.Equal(t, "p5", response.Results[0].Property.ID)
	assert.Equal(t, "p7", response.Results[1].Property.ID)
}

func TestFilter_InvalidRanges(t *testing.T) {
	router := setupValuationTestRouter(t, true)

	w := doRequest(router, http.MethodPost, "/api/v1/properties/filter", map[string]interface{}{
		"min_price": 9000000,
		"max_price": 8000000,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apierrors.ErrBadRequest, decodeError(t, w).Error.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/properties/filter", map[string]interface{}{
		"min_value_score": 150,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apierrors.ErrValidation, decodeError(t, w).Error.Code)
}

func TestCompare(t *testing.T) {
	router := setupValuationTestRouter(t, true)

	w := doRequest(router, http.MethodPost, "/api/v1/properties/compare", CompareRequest{
		IDs: []string{"p6", "p2", "p1"},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var response services.CompareOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "p2", response.RecommendedID)
	require.Len(t, response.Breakdowns, 3)
	assert.Equal(t, "p6", response.Breakdowns[0].PropertyID)
	assert.True(t, response.Breakdowns[1].Recommended)
	assert.Empty(t, response.Projections)
}

func TestCompare_WithInvestment(t *testing.T) {
	router := setupValuationTestRouter(t, true)
	years := 15

	w := doRequest(router, http.MethodPost, "/api/v1/properties/compare", CompareRequest{
		IDs:        []string{"p1", "p2"},
		Investment: &InvestmentRequest{LoanTermYears: &years},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var response services.CompareOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Projections, 2)
	assert.InDelta(t, finance.EMI(7600000, 7.5, 15), response.Projections["p1"].MonthlyInstallment, 1e-6)
}

func TestCompare_Errors(t *testing.T) {
	router := setupValuationTestRouter(t, true)

	tests := []struct {
		name         string
		body         interface{}
		expectedCode string
	}{
		{name: "no ids", body: map[string]interface{}{}, expectedCode: apierrors.ErrValidation},
		{name: "too many ids", body: CompareRequest{IDs: []string{"p1", "p2", "p3", "p4"}}, expectedCode: apierrors.ErrValidation},
		{name: "duplicate ids", body: CompareRequest{IDs: []string{"p1", "p1"}}, expectedCode: apierrors.ErrValidation},
		{name: "unknown id", body: CompareRequest{IDs: []string{"p1", "zz"}}, expectedCode: apierrors.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/v1/properties/compare", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.expectedCode, decodeError(t, w).Error.Code)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/properties/compare", bytes.NewBufferString("{ids:"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apierrors.ErrBadRequest, decodeError(t, w).Error.Code)
	})
}

func TestProjection(t *testing.T) {
	router := setupValuationTestRouter(t, true)

	// Empty body uses the default investment parameters
	w := doRequest(router, http.MethodPost, "/api/v1/properties/p1/projection", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var projection models.InvestmentProjection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &projection))
	assert.InDelta(t, 7600000, projection.LoanAmount, 1e-6)
	assert.InDelta(t, 61225.08270993698, projection.MonthlyInstallment, 1e-6)

	down := 100.0
	w = doRequest(router, http.MethodPost, "/api/v1/properties/p1/projection", InvestmentRequest{DownPaymentPercent: &down})
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &projection))
	assert.Zero(t, projection.LoanAmount)
}

func TestProjection_Errors(t *testing.T) {
	router := setupValuationTestRouter(t, true)

	w := doRequest(router, http.MethodPost, "/api/v1/properties/missing/projection", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	zero := 0
	w = doRequest(router, http.MethodPost, "/api/v1/properties/p1/projection", InvestmentRequest{LoanTermYears: &zero})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeError(t, w)
	assert.Equal(t, apierrors.ErrValidation, response.Error.Code)
	assert.Contains(t, response.Error.Details, "LoanTermYears")
}

func TestMortgage(t *testing.T) {
	router := setupValuationTestRouter(t, false)

	// The calculator works without a catalog
	w := doRequest(router, http.MethodPost, "/api/v1/mortgage", map[string]interface{}{
		"price": 9500000,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var mortgage finance.Mortgage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mortgage))
	assert.InDelta(t, 14694019.85, mortgage.TotalPayment, 0.01)
	assert.InDelta(t, 7094019.85, mortgage.TotalInterest, 0.01)

	w = doRequest(router, http.MethodPost, "/api/v1/mortgage", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Error.Details, "Price")
}

func TestNearby(t *testing.T) {
	router := setupValuationTestRouter(t, true)

	w := doRequest(router, http.MethodGet, "/api/v1/properties/nearby?lat=12.889&lng=80.23&radius=1000", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response NearbyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Count)
	assert.Equal(t, "p5", response.Properties[0].Property.ID)

	// Default radius of 2km also reaches p6
	w = doRequest(router, http.MethodGet, "/api/v1/properties/nearby?lat=12.889&lng=80.23", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 3, response.Count)
}

func TestNearby_Validation(t *testing.T) {
	router := setupValuationTestRouter(t, true)

	tests := []struct {
		name   string
		target string
	}{
		{name: "missing latitude", target: "/api/v1/properties/nearby?lng=80.23"},
		{name: "latitude out of range", target: "/api/v1/properties/nearby?lat=95&lng=80.23"},
		{name: "radius out of range", target: "/api/v1/properties/nearby?lat=12.9&lng=80.23&radius=60000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, apierrors.ErrValidation, decodeError(t, w).Error.Code)
		})
	}

	// Zero is a valid coordinate
	w := doRequest(router, http.MethodGet, "/api/v1/properties/nearby?lat=0&lng=0&radius=10", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNeighborhoods(t *testing.T) {
	router := setupValuationTestRouter(t, true)

	w := doRequest(router, http.MethodGet, "/api/v1/neighborhoods", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var list NeighborhoodListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 8, list.Count)

	w = doRequest(router, http.MethodGet, "/api/v1/neighborhoods/padur?top=1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var detail services.NeighborhoodDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Padur", detail.Neighborhood.Name)
	assert.Equal(t, 2, detail.Listings)
	require.Len(t, detail.TopProperties, 1)
	assert.Equal(t, "p5", detail.TopProperties[0].ID)

	w = doRequest(router, http.MethodGet, "/api/v1/neighborhoods/atlantis", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
