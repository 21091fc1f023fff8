package repository

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/estimo/api/internal/database"
	"github.com/stwalsh4118/estimo/api/internal/models"
)

// postgresCatalogRepository reads the catalog from PostgreSQL.
//
// Expected tables:
//
//	properties(id text primary key, position int, title text, location text,
//	           neighborhood text, description text, price bigint, size_sqft int,
//	           bedrooms int, bathrooms int, value_score double precision,
//	           amenities text[], coordinates geometry(Point, 4326))
//	neighborhoods(id text primary key, position int, name text unique, tier text,
//	              description text, price_range text, connectivity double precision,
//	              amenities double precision, safety double precision,
//	              schools double precision, value_score double precision,
//	              coordinates geometry(Point, 4326))
type postgresCatalogRepository struct {
	db *database.Database
}

// NewPostgresCatalogRepository creates a CatalogRepository backed by PostgreSQL.
func NewPostgresCatalogRepository(db *database.Database) CatalogRepository {
	return &postgresCatalogRepository{db: db}
}

// ListProperties returns listings ordered by their catalog position.
// Coordinates are read with ST_AsGeoJSON and parsed by models.Point.
func (r *postgresCatalogRepository) ListProperties(ctx context.Context) ([]models.Property, error) {
	query := `
		SELECT
			id,
			title,
			location,
			COALESCE(neighborhood, ''),
			COALESCE(description, ''),
			price,
			size_sqft,
			bedrooms,
			bathrooms,
			value_score,
			COALESCE(amenities, '{}'),
			ST_AsGeoJSON(coordinates)
		FROM properties
		ORDER BY position, id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	results := []models.Property{}
	for rows.Next() {
		var p models.Property
		var geomJSON []byte

		err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Location,
			&p.Neighborhood,
			&p.Description,
			&p.Price,
			&p.Size,
			&p.Bedrooms,
			&p.Bathrooms,
			&p.ValueScore,
			&p.Amenities,
			&geomJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}

		if err := p.Coordinates.Scan(geomJSON); err != nil {
			return nil, fmt.Errorf("failed to parse coordinates for property %s: %w", p.ID, err)
		}

		results = append(results, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}

	return results, nil
}

// ListNeighborhoods returns neighborhoods ordered by their catalog position.
func (r *postgresCatalogRepository) ListNeighborhoods(ctx context.Context) ([]models.Neighborhood, error) {
	query := `
		SELECT
			id,
			name,
			COALESCE(tier, ''),
			COALESCE(description, ''),
			COALESCE(price_range, ''),
			connectivity,
			amenities,
			safety,
			schools,
			value_score,
			ST_AsGeoJSON(coordinates)
		FROM neighborhoods
		ORDER BY position, id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighborhoods: %w", err)
	}
	defer rows.Close()

	results := []models.Neighborhood{}
	for rows.Next() {
		var n models.Neighborhood
		var tier string
		var geomJSON []byte

		err := rows.Scan(
			&n.ID,
			&n.Name,
			&tier,
			&n.Description,
			&n.PriceRange,
			&n.Connectivity,
			&n.Amenities,
			&n.Safety,
			&n.Schools,
			&n.ValueScore,
			&geomJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan neighborhood row: %w", err)
		}

		n.Tier = models.ParseTier(tier)
		if err := n.Coordinates.Scan(geomJSON); err != nil {
			return nil, fmt.Errorf("failed to parse coordinates for neighborhood %s: %w", n.Name, err)
		}

		results = append(results, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating neighborhood rows: %w", err)
	}

	return results, nil
}

func (r *postgresCatalogRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
