package scoring

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidWeights is returned when weights are negative or do not sum to 1.
	ErrInvalidWeights = errors.New("invalid scoring weights")

	// ErrInvalidLocationScores is returned when a tier score falls outside [0,1].
	ErrInvalidLocationScores = errors.New("invalid location scores")
)

// weightTolerance is the allowed drift of the weight sum from 1.0.
const weightTolerance = 0.001

// Weights are the per-component multipliers of the composite score.
type Weights struct {
	Value     float64 `yaml:"value" json:"value"`
	Price     float64 `yaml:"price" json:"price"`
	Amenities float64 `yaml:"amenities" json:"amenities"`
	Location  float64 `yaml:"location" json:"location"`
	Size      float64 `yaml:"size" json:"size"`
}

// DefaultWeights returns the standard weighting. Size is carried in the
// breakdown but not weighted.
func DefaultWeights() Weights {
	return Weights{
		Value:     0.4,
		Price:     0.3,
		Amenities: 0.2,
		Location:  0.1,
		Size:      0,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Value + w.Price + w.Amenities + w.Location + w.Size
}

// Validate checks that no weight is negative and that they sum to 1.0.
func (w Weights) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"value", w.Value},
		{"price", w.Price},
		{"amenities", w.Amenities},
		{"location", w.Location},
		{"size", w.Size},
	}
	for _, f := range fields {
		if f.value < 0 {
			return fmt.Errorf("%w: %s weight is negative (%g)", ErrInvalidWeights, f.name, f.value)
		}
	}

	if sum := w.Sum(); math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, expected 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

// Normalize rescales the weights to sum to 1.0. Weights summing to zero or
// less fall back to DefaultWeights.
func (w Weights) Normalize() Weights {
	sum := w.Sum()
	if sum <= 0 {
		return DefaultWeights()
	}
	return Weights{
		Value:     w.Value / sum,
		Price:     w.Price / sum,
		Amenities: w.Amenities / sum,
		Location:  w.Location / sum,
		Size:      w.Size / sum,
	}
}

// Composite returns the weighted sum of c.
func (w Weights) Composite(c Components) float64 {
	return c.Value*w.Value +
		c.Price*w.Price +
		c.Amenities*w.Amenities +
		c.Location*w.Location +
		c.Size*w.Size
}

// weightsFile is the YAML layout of a scoring configuration file.
type weightsFile struct {
	Weights        Weights        `yaml:"weights"`
	LocationScores LocationScores `yaml:"location_scores"`
}

// LoadWeights reads weights and tier scores from a YAML file. Keys missing
// from the file keep their defaults. The result is validated.
func LoadWeights(path string) (Weights, LocationScores, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, LocationScores{}, fmt.Errorf("failed to read weights file: %w", err)
	}

	cfg := weightsFile{
		Weights:        DefaultWeights(),
		LocationScores: DefaultLocationScores(),
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Weights{}, LocationScores{}, fmt.Errorf("failed to parse weights file: %w", err)
	}

	if err := cfg.Weights.Validate(); err != nil {
		return Weights{}, LocationScores{}, err
	}
	if err := cfg.LocationScores.Validate(); err != nil {
		return Weights{}, LocationScores{}, err
	}

	return cfg.Weights, cfg.LocationScores, nil
}
