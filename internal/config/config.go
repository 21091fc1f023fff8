package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Catalog sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	Database DatabaseConfig
	SQLite   SQLiteConfig
	Scoring  ScoringConfig
	Finance  FinanceConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// CatalogConfig selects where the property catalog is loaded from.
type CatalogConfig struct {
	Source      string
	File        string
	LoadTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection configuration.
// It is only required when the catalog source is postgres.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// SQLiteConfig holds the SQLite catalog database location.
type SQLiteConfig struct {
	Path string
	// Seed loads the catalog file into an empty SQLite database on startup.
	Seed bool
}

// ScoringConfig holds ranking configuration.
type ScoringConfig struct {
	WeightsFile        string
	DefaultSearchLimit int
}

// FinanceConfig holds investment projection configuration.
type FinanceConfig struct {
	// PrincipalBaselinePercent, when set, is the share of the price treated
	// as borrowed principal in total interest. Nil uses the financed share.
	PrincipalBaselinePercent *float64
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("CATALOG_SOURCE", SourceFile)
	v.SetDefault("CATALOG_FILE", "data/catalog.json")
	v.SetDefault("CATALOG_LOAD_TIMEOUT", "10s")
	v.SetDefault("SQLITE_PATH", "data/estimo.db")
	v.SetDefault("SQLITE_SEED", true)
	v.SetDefault("DB_HOST", "host.docker.internal")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "estimo")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("SEARCH_DEFAULT_LIMIT", 3)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")

	// Bind environment variables
	v.AutomaticEnv()

	baseline, err := parseOptionalPercent(v.GetString("PRINCIPAL_BASELINE_PERCENT"))
	if err != nil {
		return nil, fmt.Errorf("PRINCIPAL_BASELINE_PERCENT: %w", err)
	}

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Catalog: CatalogConfig{
			Source:      strings.ToLower(strings.TrimSpace(v.GetString("CATALOG_SOURCE"))),
			File:        v.GetString("CATALOG_FILE"),
			LoadTimeout: v.GetDuration("CATALOG_LOAD_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		SQLite: SQLiteConfig{
			Path: v.GetString("SQLITE_PATH"),
			Seed: v.GetBool("SQLITE_SEED"),
		},
		Scoring: ScoringConfig{
			WeightsFile:        v.GetString("SCORING_WEIGHTS_FILE"),
			DefaultSearchLimit: v.GetInt("SEARCH_DEFAULT_LIMIT"),
		},
		Finance: FinanceConfig{
			PrincipalBaselinePercent: baseline,
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate catalog config
	switch c.Catalog.Source {
	case SourceFile:
		if c.Catalog.File == "" {
			return fmt.Errorf("CATALOG_FILE is required for the file catalog source")
		}
	case SourceSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite catalog source")
		}
		if c.SQLite.Seed && c.Catalog.File == "" {
			return fmt.Errorf("CATALOG_FILE is required to seed the sqlite catalog")
		}
	case SourcePostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("CATALOG_SOURCE must be one of %s, %s, %s; got %q",
			SourceFile, SourcePostgres, SourceSQLite, c.Catalog.Source)
	}
	if c.Catalog.LoadTimeout <= 0 {
		return fmt.Errorf("CATALOG_LOAD_TIMEOUT must be positive")
	}

	// Validate scoring config
	if c.Scoring.DefaultSearchLimit < 1 {
		return fmt.Errorf("SEARCH_DEFAULT_LIMIT must be at least 1")
	}

	// Validate finance config
	if p := c.Finance.PrincipalBaselinePercent; p != nil && (*p < 0 || *p > 100) {
		return fmt.Errorf("PRINCIPAL_BASELINE_PERCENT must be between 0 and 100")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	return nil
}

// Validate checks the PostgreSQL connection settings.
func (d DatabaseConfig) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// parseOptionalPercent parses a percentage, returning nil for an empty value.
func parseOptionalPercent(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid percentage %q", raw)
	}
	return &p, nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
