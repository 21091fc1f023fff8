package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stwalsh4118/estimo/api/internal/database"
	"github.com/stwalsh4118/estimo/api/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS properties (
  id TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  title TEXT NOT NULL,
  location TEXT NOT NULL,
  neighborhood TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  price INTEGER NOT NULL,
  size_sqft INTEGER NOT NULL,
  bedrooms INTEGER NOT NULL,
  bathrooms INTEGER NOT NULL,
  value_score REAL NOT NULL,
  amenities_json TEXT NOT NULL DEFAULT '[]',
  coordinates TEXT
);
CREATE INDEX IF NOT EXISTS idx_properties_position ON properties(position);
CREATE TABLE IF NOT EXISTS neighborhoods (
  id TEXT PRIMARY KEY,
  position INTEGER NOT NULL DEFAULT 0,
  name TEXT NOT NULL UNIQUE,
  tier TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  price_range TEXT NOT NULL DEFAULT '',
  connectivity REAL NOT NULL DEFAULT 0,
  amenities REAL NOT NULL DEFAULT 0,
  safety REAL NOT NULL DEFAULT 0,
  schools REAL NOT NULL DEFAULT 0,
  value_score REAL NOT NULL DEFAULT 0,
  coordinates TEXT
);
`

// SQLiteCatalogRepository serves the catalog from a SQLite database and can
// seed it from a catalog file.
type SQLiteCatalogRepository struct {
	db *database.SQLite
}

// NewSQLiteCatalogRepository creates a repository on an open SQLite database.
func NewSQLiteCatalogRepository(db *database.SQLite) *SQLiteCatalogRepository {
	return &SQLiteCatalogRepository{db: db}
}

// EnsureSchema creates the catalog tables if they do not exist and adds the
// neighborhood position column to databases created before it existed.
func (r *SQLiteCatalogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.DB.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create sqlite catalog schema: %w", err)
	}

	hasPosition, err := r.hasColumn(ctx, "neighborhoods", "position")
	if err != nil {
		return err
	}
	if !hasPosition {
		if _, err := r.db.DB.ExecContext(ctx,
			`ALTER TABLE neighborhoods ADD COLUMN position INTEGER NOT NULL DEFAULT 0`); err != nil {
			return fmt.Errorf("failed to add neighborhoods.position: %w", err)
		}
	}

	if _, err := r.db.DB.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_neighborhoods_position ON neighborhoods(position)`); err != nil {
		return fmt.Errorf("failed to index neighborhoods.position: %w", err)
	}
	return nil
}

func (r *SQLiteCatalogRepository) hasColumn(ctx context.Context, table, column string) (bool, error) {
	rows, err := r.db.DB.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// CountProperties returns the number of stored listings.
func (r *SQLiteCatalogRepository) CountProperties(ctx context.Context) (int, error) {
	var n int
	if err := r.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}
	return n, nil
}

// UpsertMany stores listings and neighborhoods in one transaction, replacing
// rows with the same id. Listings and neighborhoods keep their slice order as
// catalog position.
func (r *SQLiteCatalogRepository) UpsertMany(ctx context.Context, properties []models.Property, neighborhoods []models.Neighborhood) error {
	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	propStmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO properties
(id, position, title, location, neighborhood, description, price, size_sqft, bedrooms, bathrooms, value_score, amenities_json, coordinates)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return fmt.Errorf("failed to prepare property insert: %w", err)
	}
	defer propStmt.Close()

	for i, p := range properties {
		amenities := p.Amenities
		if amenities == nil {
			amenities = []string{}
		}
		amenitiesJSON, err := json.Marshal(amenities)
		if err != nil {
			return fmt.Errorf("failed to encode amenities for property %s: %w", p.ID, err)
		}

		if _, err := propStmt.ExecContext(ctx,
			p.ID, i, p.Title, p.Location, p.Neighborhood, p.Description,
			p.Price, p.Size, p.Bedrooms, p.Bathrooms, p.ValueScore,
			string(amenitiesJSON), p.Coordinates,
		); err != nil {
			return fmt.Errorf("failed to store property %s: %w", p.ID, err)
		}
	}

	hoodStmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO neighborhoods
(id, position, name, tier, description, price_range, connectivity, amenities, safety, schools, value_score, coordinates)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return fmt.Errorf("failed to prepare neighborhood insert: %w", err)
	}
	defer hoodStmt.Close()

	for i, n := range neighborhoods {
		if _, err := hoodStmt.ExecContext(ctx,
			n.ID, i, n.Name, n.Tier.String(), n.Description, n.PriceRange,
			n.Connectivity, n.Amenities, n.Safety, n.Schools, n.ValueScore,
			n.Coordinates,
		); err != nil {
			return fmt.Errorf("failed to store neighborhood %s: %w", n.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}

// SeedFromFile fills an empty database from the catalog file at path.
// It returns the number of listings written; a populated database is left untouched.
func (r *SQLiteCatalogRepository) SeedFromFile(ctx context.Context, path string) (int, error) {
	n, err := r.CountProperties(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	file, err := ReadCatalogFile(path)
	if err != nil {
		return 0, err
	}
	if err := r.UpsertMany(ctx, file.Properties, file.Neighborhoods); err != nil {
		return 0, err
	}
	return len(file.Properties), nil
}

// ListProperties returns listings ordered by catalog position.
func (r *SQLiteCatalogRepository) ListProperties(ctx context.Context) ([]models.Property, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
SELECT id, title, location, neighborhood, description, price, size_sqft, bedrooms, bathrooms, value_score, amenities_json, coordinates
FROM properties
ORDER BY position, id
`)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	results := []models.Property{}
	for rows.Next() {
		var p models.Property
		var amenitiesJSON string

		if err := rows.Scan(
			&p.ID, &p.Title, &p.Location, &p.Neighborhood, &p.Description,
			&p.Price, &p.Size, &p.Bedrooms, &p.Bathrooms, &p.ValueScore,
			&amenitiesJSON, &p.Coordinates,
		); err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}

		if err := json.Unmarshal([]byte(amenitiesJSON), &p.Amenities); err != nil {
			return nil, fmt.Errorf("failed to decode amenities for property %s: %w", p.ID, err)
		}

		results = append(results, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}
	return results, nil
}

// ListNeighborhoods returns neighborhoods ordered by catalog position.
func (r *SQLiteCatalogRepository) ListNeighborhoods(ctx context.Context) ([]models.Neighborhood, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
SELECT id, name, tier, description, price_range, connectivity, amenities, safety, schools, value_score, coordinates
FROM neighborhoods
ORDER BY position, id
`)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighborhoods: %w", err)
	}
	defer rows.Close()

	results := []models.Neighborhood{}
	for rows.Next() {
		var n models.Neighborhood
		var tier string

		if err := rows.Scan(
			&n.ID, &n.Name, &tier, &n.Description, &n.PriceRange,
			&n.Connectivity, &n.Amenities, &n.Safety, &n.Schools, &n.ValueScore,
			&n.Coordinates,
		); err != nil {
			return nil, fmt.Errorf("failed to scan neighborhood row: %w", err)
		}

		n.Tier = models.ParseTier(tier)
		results = append(results, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating neighborhood rows: %w", err)
	}
	return results, nil
}

func (r *SQLiteCatalogRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
