package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/estimo/api/internal/errors"
	"github.com/stwalsh4118/estimo/api/internal/models"
	"github.com/stwalsh4118/estimo/api/internal/services"
)

// NeighborhoodHandler handles neighborhood lookups.
type NeighborhoodHandler struct {
	service services.ValuationService
}

// NewNeighborhoodHandler creates a new NeighborhoodHandler instance.
func NewNeighborhoodHandler(service services.ValuationService) *NeighborhoodHandler {
	return &NeighborhoodHandler{
		service: service,
	}
}

// NeighborhoodRequest represents the query parameters for the detail endpoint.
type NeighborhoodRequest struct {
	Top int `form:"top" binding:"omitempty,min=1,max=20"`
}

// NeighborhoodListResponse represents the response for the list endpoint.
type NeighborhoodListResponse struct {
	Neighborhoods []models.Neighborhood `json:"neighborhoods"`
	Count         int                   `json:"count"`
}

// List handles GET /api/v1/neighborhoods endpoint.
func (h *NeighborhoodHandler) List(c *gin.Context) {
	hoods, err := h.service.ListNeighborhoods(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Failed to list neighborhoods")
		return
	}

	c.JSON(http.StatusOK, NeighborhoodListResponse{
		Neighborhoods: hoods,
		Count:         len(hoods),
	})
}

// Get handles GET /api/v1/neighborhoods/:name endpoint.
// The name is matched case-insensitively.
func (h *NeighborhoodHandler) Get(c *gin.Context) {
	var req NeighborhoodRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	detail, err := h.service.GetNeighborhood(c.Request.Context(), c.Param("name"), req.Top)
	if err != nil {
		handleServiceError(c, err, "Failed to load neighborhood")
		return
	}

	c.JSON(http.StatusOK, detail)
}
