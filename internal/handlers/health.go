package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/estimo/api/internal/middleware"
	"github.com/stwalsh4118/estimo/api/internal/services"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout is the timeout for catalog source health checks
	HealthCheckTimeout = 2 * time.Second
)

// CatalogStatus reports on the loaded catalog. ValuationService satisfies it.
type CatalogStatus interface {
	Ready(ctx context.Context) error
	Info() (services.CatalogInfo, error)
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	catalog   CatalogStatus
	startTime time.Time
	env       string
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(catalog CatalogStatus, env string) *HealthHandler {
	return &HealthHandler{
		catalog:   catalog,
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status  string `json:"status"`
	Catalog string `json:"catalog"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Catalog     *services.CatalogInfo `json:"catalog,omitempty"`
	Version     string                `json:"version"`
	Environment string                `json:"environment"`
	Uptime      string                `json:"uptime"`
}

// Health handles GET /health endpoint.
// This is a basic health check that always returns 200 OK.
// It does not check any dependencies and is used for basic liveness checks.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready endpoint.
// Returns 200 OK once a catalog is loaded and its source answers a ping,
// 503 Service Unavailable otherwise.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	if err := h.catalog.Ready(ctx); err != nil {
		state := "unreachable"
		if errors.Is(err, services.ErrCatalogNotLoaded) {
			state = "not_loaded"
		}

		if log := middleware.GetLogger(c); log != nil {
			log.Error("Catalog health check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
				"catalog": state,
			})
		}

		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status:  "not_ready",
			Catalog: state,
		})
		return
	}

	c.JSON(http.StatusOK, ReadyResponse{
		Status:  "ready",
		Catalog: "loaded",
	})
}

// Info handles GET /api/v1/info endpoint.
// Returns API metadata including version, environment, uptime and the
// active catalog snapshot when one is loaded.
func (h *HealthHandler) Info(c *gin.Context) {
	resp := InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(time.Since(h.startTime)),
	}
	if info, err := h.catalog.Info(); err == nil {
		resp.Catalog = &info
	}

	c.JSON(http.StatusOK, resp)
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
