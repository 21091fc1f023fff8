// Package catalogtest provides a fixed OMR catalog for tests.
package catalogtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/estimo/api/internal/catalog"
	"github.com/stwalsh4118/estimo/api/internal/models"
)

// Properties returns the fixture listings in catalog order.
func Properties() []models.Property {
	return []models.Property{
		{
			ID:           "p1",
			Title:        "Prestige Lakeside Habitat",
			Location:     "Thoraipakkam, OMR",
			Neighborhood: "Thoraipakkam",
			Price:        9500000,
			Size:         1275,
			Bedrooms:     2,
			Bathrooms:    2,
			ValueScore:   87,
			Amenities:    []string{"Swimming Pool", "Gym", "Clubhouse", "Park", "24/7 Security"},
			Coordinates:  models.Point{Lat: 12.925, Lng: 80.239},
		},
		{
			ID:           "p2",
			Title:        "Casagrand Luxus",
			Location:     "Navalur, OMR",
			Neighborhood: "Navalur",
			Price:        8200000,
			Size:         1180,
			Bedrooms:     2,
			Bathrooms:    2,
			ValueScore:   82,
			Amenities:    []string{"Swimming Pool", "Gym", "Indoor Games", "Party Hall", "Children's Play Area"},
			Coordinates:  models.Point{Lat: 12.841, Lng: 80.227},
		},
		{
			ID:           "p3",
			Title:        "DLF Garden City",
			Location:     "Siruseri, OMR",
			Neighborhood: "Siruseri",
			Price:        10500000,
			Size:         1350,
			Bedrooms:     2,
			Bathrooms:    2,
			ValueScore:   91,
			Amenities:    []string{"Swimming Pool", "Tennis Court", "Clubhouse", "Gym", "Landscaped Gardens"},
			Coordinates:  models.Point{Lat: 12.823, Lng: 80.219},
		},
		{
			ID:           "p4",
			Title:        "Hiranandani Parks",
			Location:     "Oragadam, Chennai",
			Neighborhood: "Oragadam",
			Price:        7800000,
			Size:         1210,
			Bedrooms:     2,
			Bathrooms:    2,
			ValueScore:   85,
			Amenities:    []string{"Swimming Pool", "Gym", "Park", "Basketball Court", "Clubhouse"},
			Coordinates:  models.Point{Lat: 12.798, Lng: 80.01},
		},
		{
			ID:           "p5",
			Title:        "Pacifica Aurum",
			Location:     "Padur, OMR",
			Neighborhood: "Padur",
			Price:        7200000,
			Size:         1150,
			Bedrooms:     2,
			Bathrooms:    2,
			ValueScore:   88,
			Amenities:    []string{"Swimming Pool", "Gym", "Jogging Track", "Mini Theatre", "Supermarket"},
			Coordinates:  models.Point{Lat: 12.889, Lng: 80.23},
		},
		{
			ID:           "p6",
			Title:        "Alliance Galleria Residences",
			Location:     "Sholinganallur, OMR",
			Neighborhood: "Sholinganallur",
			Price:        8800000,
			Size:         1230,
			Bedrooms:     2,
			Bathrooms:    2,
			ValueScore:   83,
			Amenities:    []string{"Swimming Pool", "Gym", "Multipurpose Hall", "Library", "Children's Play Area"},
			Coordinates:  models.Point{Lat: 12.901, Lng: 80.227},
		},
		{
			ID:           "p7",
			Title:        "Mantri Synergy",
			Location:     "Padur, OMR",
			Neighborhood: "Padur",
			Price:        7500000,
			Size:         1150,
			Bedrooms:     2,
			Bathrooms:    2,
			ValueScore:   78,
			Amenities:    []string{"Swimming Pool", "Gym", "Play Area"},
			Coordinates:  models.Point{Lat: 12.887, Lng: 80.231},
		},
		{
			ID:          "p8",
			Title:       "VGN Fairmont",
			Location:    "Guindy, Chennai",
			Price:       12000000,
			Size:        1450,
			Bedrooms:    3,
			Bathrooms:   2,
			ValueScore:  92,
			Amenities:   []string{"Swimming Pool", "Gym", "Spa", "Club House", "Banquet Hall"},
			Coordinates: models.Point{Lat: 13.007, Lng: 80.212},
		},
		{
			ID:           "p9",
			Title:        "PBEL City",
			Location:     "Kelambakkam, OMR",
			Neighborhood: "Kelambakkam",
			Price:        6500000,
			Size:         1100,
			Bedrooms:     2,
			Bathrooms:    2,
			ValueScore:   75,
			Amenities:    []string{"Swimming Pool", "Garden", "Security"},
			Coordinates:  models.Point{Lat: 12.786, Lng: 80.22},
		},
	}
}

// Neighborhoods returns the fixture neighborhoods in catalog order.
func Neighborhoods() []models.Neighborhood {
	return []models.Neighborhood{
		{ID: "n1", Name: "Thoraipakkam", Tier: models.TierPrime, Connectivity: 90, Amenities: 85, Safety: 80, Schools: 75, ValueScore: 87},
		{ID: "n2", Name: "Sholinganallur", Tier: models.TierPrime, Connectivity: 94, Amenities: 90, Safety: 82, Schools: 84, ValueScore: 90},
		{ID: "n3", Name: "Navalur", Tier: models.TierEmerging, Connectivity: 80, Amenities: 78, Safety: 85, Schools: 70, ValueScore: 82},
		{ID: "n4", Name: "Siruseri", Tier: models.TierEmerging, Connectivity: 75, Amenities: 70, Safety: 82, Schools: 65, ValueScore: 76},
		{ID: "n5", Name: "Pallikaranai", Tier: models.TierEmerging, Connectivity: 85, Amenities: 80, Safety: 75, Schools: 85, ValueScore: 83},
		{ID: "n6", Name: "Padur", Tier: models.TierStandard, Connectivity: 72, Amenities: 68, Safety: 78, Schools: 62, ValueScore: 78},
		{ID: "n7", Name: "Kelambakkam", Tier: models.TierStandard, Connectivity: 70, Amenities: 65, Safety: 80, Schools: 60, ValueScore: 74},
		{ID: "n8", Name: "Oragadam", Tier: models.TierStandard, Connectivity: 65, Amenities: 70, Safety: 78, Schools: 60, ValueScore: 72},
	}
}

// New builds the fixture catalog and fails the test on error.
func New(t testing.TB) *catalog.Catalog {
	t.Helper()

	c, err := catalog.New(Properties(), Neighborhoods())
	require.NoError(t, err)
	return c
}

// Subset builds a catalog holding only the given property ids, in fixture order.
func Subset(t testing.TB, ids ...string) *catalog.Catalog {
	t.Helper()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var props []models.Property
	for _, p := range Properties() {
		if want[p.ID] {
			props = append(props, p)
		}
	}

	c, err := catalog.New(props, Neighborhoods())
	require.NoError(t, err)
	return c
}
