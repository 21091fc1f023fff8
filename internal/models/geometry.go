package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
)

// earthRadiusMeters is the mean Earth radius used for great-circle distances.
const earthRadiusMeters = 6371008.8

// Point represents a PostGIS Point geometry for a property or neighborhood.
// GeoJSON stores coordinates as [lon, lat]; SRID 4326 (WGS84).
type Point struct {
	Lat float64
	Lng float64
}

// IsZero reports whether the point carries no coordinates.
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}

type geoJSONPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Scan implements sql.Scanner for reading point geometry from the database.
// Postgres returns ST_AsGeoJSON output as []byte; SQLite stores the same
// GeoJSON in a TEXT column and may hand back a string.
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan Point: expected []byte or string, got %T", value)
	}

	if len(raw) == 0 {
		return nil
	}

	return p.UnmarshalJSON(raw)
}

// Value implements driver.Valuer for writing point geometry to the database.
// Returns a GeoJSON string for use with ST_GeomFromGeoJSON.
func (p Point) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}

	geoJSON, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return string(geoJSON), nil
}

// MarshalJSON implements json.Marshaler and emits a GeoJSON Point.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(geoJSONPoint{
		Type:        "Point",
		Coordinates: [2]float64{p.Lng, p.Lat},
	})
}

// UnmarshalJSON implements json.Unmarshaler for GeoJSON Point input.
func (p *Point) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var geom geoJSONPoint
	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal point: %w", err)
	}

	if geom.Type != "" && geom.Type != "Point" {
		return fmt.Errorf("expected Point type, got %s", geom.Type)
	}

	p.Lng = geom.Coordinates[0]
	p.Lat = geom.Coordinates[1]

	return nil
}

// DistanceMeters returns the great-circle (haversine) distance to q.
func (p Point) DistanceMeters(q Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := q.Lat * math.Pi / 180
	dLat := (q.Lat - p.Lat) * math.Pi / 180
	dLng := (q.Lng - p.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
