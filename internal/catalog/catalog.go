// Package catalog provides a read-only, in-memory view over the property and
// neighborhood records supplied by a catalog source.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stwalsh4118/estimo/api/internal/models"
	"golang.org/x/sync/errgroup"
)

// Catalog-level errors
var (
	ErrInvalidProperty     = errors.New("invalid property")
	ErrInvalidNeighborhood = errors.New("invalid neighborhood")
	ErrDuplicateID         = errors.New("duplicate property id")
)

// Source supplies the raw records a Catalog is built from.
type Source interface {
	ListProperties(ctx context.Context) ([]models.Property, error)
	ListNeighborhoods(ctx context.Context) ([]models.Neighborhood, error)
}

// Catalog is an immutable snapshot of properties and neighborhoods.
// Catalog order (the order records were supplied in) is the stable key
// used for every tie-break downstream.
type Catalog struct {
	loadedAt      time.Time
	properties    []models.Property
	neighborhoods []models.Neighborhood
	index         map[string]int
	byName        map[string]int
}

// New validates the records and builds a snapshot.
// The catalog keeps its own copies, so later changes to the input slices are not observed.
func New(properties []models.Property, neighborhoods []models.Neighborhood) (*Catalog, error) {
	c := &Catalog{
		loadedAt:      time.Now(),
		properties:    make([]models.Property, 0, len(properties)),
		neighborhoods: make([]models.Neighborhood, 0, len(neighborhoods)),
		index:         make(map[string]int, len(properties)),
		byName:        make(map[string]int, len(neighborhoods)),
	}

	for _, n := range neighborhoods {
		key := strings.ToLower(strings.TrimSpace(n.Name))
		if key == "" {
			return nil, fmt.Errorf("%w: neighborhood %q has no name", ErrInvalidNeighborhood, n.ID)
		}
		if _, exists := c.byName[key]; exists {
			return nil, fmt.Errorf("%w: duplicate neighborhood name %q", ErrInvalidNeighborhood, n.Name)
		}
		c.byName[key] = len(c.neighborhoods)
		c.neighborhoods = append(c.neighborhoods, n)
	}

	for _, p := range properties {
		if err := validateProperty(p); err != nil {
			return nil, err
		}
		if _, exists := c.index[p.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		p.Amenities = append([]string(nil), p.Amenities...)
		c.index[p.ID] = len(c.properties)
		c.properties = append(c.properties, p)
	}

	return c, nil
}

func validateProperty(p models.Property) error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("%w: missing id (title %q)", ErrInvalidProperty, p.Title)
	case p.Price <= 0:
		return fmt.Errorf("%w: %s: price must be positive, got %d", ErrInvalidProperty, p.ID, p.Price)
	case p.Size <= 0:
		return fmt.Errorf("%w: %s: size must be positive, got %d", ErrInvalidProperty, p.ID, p.Size)
	case p.ValueScore < 0 || p.ValueScore > 100:
		return fmt.Errorf("%w: %s: value score must be between 0 and 100, got %.2f", ErrInvalidProperty, p.ID, p.ValueScore)
	case p.Bedrooms <= 0:
		return fmt.Errorf("%w: %s: bedrooms must be positive, got %d", ErrInvalidProperty, p.ID, p.Bedrooms)
	case p.Bathrooms <= 0:
		return fmt.Errorf("%w: %s: bathrooms must be positive, got %d", ErrInvalidProperty, p.ID, p.Bathrooms)
	}
	return nil
}

// Load fetches properties and neighborhoods from src concurrently and builds a Catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	var (
		properties    []models.Property
		neighborhoods []models.Neighborhood
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		properties, err = src.ListProperties(gctx)
		if err != nil {
			return fmt.Errorf("failed to list properties: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		neighborhoods, err = src.ListNeighborhoods(gctx)
		if err != nil {
			return fmt.Errorf("failed to list neighborhoods: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(properties, neighborhoods)
}

// LoadedAt returns when the snapshot was built.
func (c *Catalog) LoadedAt() time.Time {
	return c.loadedAt
}

// Len returns the number of properties.
func (c *Catalog) Len() int {
	return len(c.properties)
}

// Properties returns the properties in catalog order.
// The returned slice is a copy; the amenity slices inside must be treated as read-only.
func (c *Catalog) Properties() []models.Property {
	out := make([]models.Property, len(c.properties))
	copy(out, c.properties)
	return out
}

// Property looks up a property by id.
func (c *Catalog) Property(id string) (models.Property, bool) {
	i, ok := c.index[id]
	if !ok {
		return models.Property{}, false
	}
	return c.properties[i], true
}

// Order returns the catalog position of a property id.
// Unknown ids sort after every known property.
func (c *Catalog) Order(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return len(c.properties)
}

// Neighborhoods returns the neighborhoods in catalog order.
func (c *Catalog) Neighborhoods() []models.Neighborhood {
	out := make([]models.Neighborhood, len(c.neighborhoods))
	copy(out, c.neighborhoods)
	return out
}

// NeighborhoodNames returns the known neighborhood names in catalog order.
func (c *Catalog) NeighborhoodNames() []string {
	names := make([]string, 0, len(c.neighborhoods))
	for _, n := range c.neighborhoods {
		names = append(names, n.Name)
	}
	return names
}

// Neighborhood looks up a neighborhood by name, case-insensitively.
func (c *Catalog) Neighborhood(name string) (models.Neighborhood, bool) {
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return models.Neighborhood{}, false
	}
	return c.neighborhoods[i], true
}

// NeighborhoodOf resolves the neighborhood a property belongs to.
// An explicit Neighborhood field wins; otherwise the first neighborhood, in
// catalog order, whose name occurs in the property's location text is used.
func (c *Catalog) NeighborhoodOf(p models.Property) (models.Neighborhood, bool) {
	if p.Neighborhood != "" {
		if n, ok := c.Neighborhood(p.Neighborhood); ok {
			return n, true
		}
	}

	location := strings.ToLower(p.Location)
	for _, n := range c.neighborhoods {
		if strings.Contains(location, strings.ToLower(n.Name)) {
			return n, true
		}
	}
	return models.Neighborhood{}, false
}

// Tier returns the tier of the property's neighborhood, or TierUnknown.
func (c *Catalog) Tier(p models.Property) models.Tier {
	n, ok := c.NeighborhoodOf(p)
	if !ok {
		return models.TierUnknown
	}
	return n.Tier
}

// PropertiesIn returns the properties located in the named neighborhood, in catalog order.
func (c *Catalog) PropertiesIn(name string) []models.Property {
	target, ok := c.Neighborhood(name)
	if !ok {
		return []models.Property{}
	}

	out := make([]models.Property, 0)
	for _, p := range c.properties {
		if n, ok := c.NeighborhoodOf(p); ok && strings.EqualFold(n.Name, target.Name) {
			out = append(out, p)
		}
	}
	return out
}
