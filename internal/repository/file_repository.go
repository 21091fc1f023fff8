package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/stwalsh4118/estimo/api/internal/models"
)

// CatalogFile is the JSON layout of a catalog file.
type CatalogFile struct {
	Properties    []models.Property     `json:"properties"`
	Neighborhoods []models.Neighborhood `json:"neighborhoods"`
}

// ReadCatalogFile reads and decodes the catalog file at path.
func ReadCatalogFile(path string) (CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CatalogFile{}, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var file CatalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return CatalogFile{}, fmt.Errorf("failed to decode catalog file %s: %w", path, err)
	}

	if file.Properties == nil {
		file.Properties = []models.Property{}
	}
	if file.Neighborhoods == nil {
		file.Neighborhoods = []models.Neighborhood{}
	}
	return file, nil
}

// fileCatalogRepository serves the catalog from a JSON file.
// The file is re-read on every call so a reload picks up edits.
type fileCatalogRepository struct {
	path string
}

// NewFileCatalogRepository creates a CatalogRepository reading from path.
func NewFileCatalogRepository(path string) CatalogRepository {
	return &fileCatalogRepository{path: path}
}

func (r *fileCatalogRepository) ListProperties(ctx context.Context) ([]models.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := ReadCatalogFile(r.path)
	if err != nil {
		return nil, err
	}
	return file.Properties, nil
}

func (r *fileCatalogRepository) ListNeighborhoods(ctx context.Context) ([]models.Neighborhood, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := ReadCatalogFile(r.path)
	if err != nil {
		return nil, err
	}
	return file.Neighborhoods, nil
}

// Ping checks the catalog file is still readable.
func (r *fileCatalogRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("catalog file unavailable: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("catalog file %s is a directory", r.path)
	}
	return nil
}
