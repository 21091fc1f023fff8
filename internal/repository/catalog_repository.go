package repository

import (
	"context"

	"github.com/stwalsh4118/estimo/api/internal/models"
)

// CatalogRepository defines the data access operations backing the catalog.
// Listings are returned in catalog order, which decides ranking ties.
type CatalogRepository interface {
	// ListProperties returns every listing in catalog order.
	// Returns an empty slice if the store holds no listings (not an error).
	ListProperties(ctx context.Context) ([]models.Property, error)

	// ListNeighborhoods returns every neighborhood reference record.
	ListNeighborhoods(ctx context.Context) ([]models.Neighborhood, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
