package config

import (
	"os"
	"testing"
	"time"
)

var configEnvVars = []string{
	"PORT", "ENV", "CATALOG_SOURCE", "CATALOG_FILE", "CATALOG_LOAD_TIMEOUT",
	"SQLITE_PATH", "SQLITE_SEED", "SCORING_WEIGHTS_FILE", "SEARCH_DEFAULT_LIMIT",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_POOL_MIN", "DB_POOL_MAX",
	"PRINCIPAL_BASELINE_PERCENT", "CORS_ORIGINS",
}

// clearConfigEnv unsets every config variable for the duration of the test.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080", Env: "development"},
		Catalog: CatalogConfig{Source: SourceFile, File: "data/catalog.json", LoadTimeout: 10 * time.Second},
		SQLite:  SQLiteConfig{Path: "data/estimo.db", Seed: true},
		Database: DatabaseConfig{
			Host: "localhost", Port: "5432", Name: "estimo",
			User: "postgres", Password: "postgres", PoolMin: 2, PoolMax: 10,
		},
		Scoring: ScoringConfig{DefaultSearchLimit: 3},
		CORS:    CORSConfig{Origins: []string{"http://localhost:3000"}},
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Env != "development" {
		t.Errorf("Expected env development, got %s", cfg.Server.Env)
	}
	if cfg.Catalog.Source != SourceFile {
		t.Errorf("Expected catalog source file, got %s", cfg.Catalog.Source)
	}
	if cfg.Catalog.File != "data/catalog.json" {
		t.Errorf("Expected catalog file data/catalog.json, got %s", cfg.Catalog.File)
	}
	if cfg.Catalog.LoadTimeout != 10*time.Second {
		t.Errorf("Expected load timeout 10s, got %s", cfg.Catalog.LoadTimeout)
	}
	if cfg.Scoring.DefaultSearchLimit != 3 {
		t.Errorf("Expected default search limit 3, got %d", cfg.Scoring.DefaultSearchLimit)
	}
	if cfg.Scoring.WeightsFile != "" {
		t.Errorf("Expected no weights file, got %s", cfg.Scoring.WeightsFile)
	}
	if cfg.Database.Name != "estimo" {
		t.Errorf("Expected db name estimo, got %s", cfg.Database.Name)
	}
	if cfg.Database.PoolMax != 10 {
		t.Errorf("Expected pool max 10, got %d", cfg.Database.PoolMax)
	}
	if len(cfg.CORS.Origins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %d", len(cfg.CORS.Origins))
	}
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("CATALOG_SOURCE", "Postgres")
	t.Setenv("CATALOG_LOAD_TIMEOUT", "3s")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "testdb")
	t.Setenv("DB_USER", "testuser")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_POOL_MIN", "5")
	t.Setenv("DB_POOL_MAX", "20")
	t.Setenv("SCORING_WEIGHTS_FILE", "/etc/estimo/weights.yaml")
	t.Setenv("SEARCH_DEFAULT_LIMIT", "5")
	t.Setenv("PRINCIPAL_BASELINE_PERCENT", "80")
	t.Setenv("CORS_ORIGINS", "http://example.com,https://app.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Catalog.Source != SourcePostgres {
		t.Errorf("Expected catalog source postgres, got %s", cfg.Catalog.Source)
	}
	if cfg.Catalog.LoadTimeout != 3*time.Second {
		t.Errorf("Expected load timeout 3s, got %s", cfg.Catalog.LoadTimeout)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected host localhost, got %s", cfg.Database.Host)
	}
	if cfg.Database.Password != "testpass" {
		t.Errorf("Expected password testpass, got %s", cfg.Database.Password)
	}
	if cfg.Database.PoolMin != 5 {
		t.Errorf("Expected pool min 5, got %d", cfg.Database.PoolMin)
	}
	if cfg.Scoring.WeightsFile != "/etc/estimo/weights.yaml" {
		t.Errorf("Expected weights file, got %s", cfg.Scoring.WeightsFile)
	}
	if cfg.Scoring.DefaultSearchLimit != 5 {
		t.Errorf("Expected default search limit 5, got %d", cfg.Scoring.DefaultSearchLimit)
	}
	if p := cfg.Finance.PrincipalBaselinePercent; p == nil || *p != 80 {
		t.Errorf("Expected principal baseline 80, got %v", p)
	}
	if len(cfg.CORS.Origins) != 2 || cfg.CORS.Origins[0] != "http://example.com" {
		t.Errorf("Unexpected CORS origins %v", cfg.CORS.Origins)
	}
}

func TestLoad_PostgresWithoutPassword(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CATALOG_SOURCE", "postgres")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when DB_PASSWORD is missing for the postgres source")
	}
}

func TestLoad_FileSourceDoesNotNeedDatabase(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CATALOG_SOURCE", "file")

	if _, err := Load(); err != nil {
		t.Errorf("Expected file source to load without DB_PASSWORD, got %v", err)
	}
}

func TestLoad_PrincipalBaseline(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    *float64
		wantErr bool
	}{
		{name: "unset uses the financed share", value: "", want: nil},
		{name: "fixed baseline", value: "75.5", want: ptr(75.5)},
		{name: "zero baseline", value: "0", want: ptr(0)},
		{name: "not a number", value: "eighty", wantErr: true},
		{name: "above 100", value: "120", wantErr: true},
		{name: "negative", value: "-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv("PRINCIPAL_BASELINE_PERCENT", tt.value)

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}

			got := cfg.Finance.PrincipalBaselinePercent
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("Expected no baseline, got %v", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("Expected baseline %v, got %v", *tt.want, got)
			}
		})
	}
}

func ptr(f float64) *float64 { return &f }

func TestValidate_InvalidPoolSizes(t *testing.T) {
	tests := []struct {
		name    string
		poolMin int
		poolMax int
		wantErr bool
	}{
		{name: "negative pool min", poolMin: -1, poolMax: 10, wantErr: true},
		{name: "zero pool max", poolMin: 0, poolMax: 0, wantErr: true},
		{name: "pool min greater than max", poolMin: 15, poolMax: 10, wantErr: true},
		{name: "valid pool sizes", poolMin: 2, poolMax: 10, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Catalog.Source = SourcePostgres
			cfg.Database.PoolMin = tt.poolMin
			cfg.Database.PoolMax = tt.poolMax

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_InvalidFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }},
		{"unknown catalog source", func(c *Config) { c.Catalog.Source = "redis" }},
		{"file source without file", func(c *Config) { c.Catalog.File = "" }},
		{"sqlite source without path", func(c *Config) {
			c.Catalog.Source = SourceSQLite
			c.SQLite.Path = ""
		}},
		{"sqlite seed without file", func(c *Config) {
			c.Catalog.Source = SourceSQLite
			c.Catalog.File = ""
		}},
		{"postgres source without db host", func(c *Config) {
			c.Catalog.Source = SourcePostgres
			c.Database.Host = ""
		}},
		{"zero load timeout", func(c *Config) { c.Catalog.LoadTimeout = 0 }},
		{"zero search limit", func(c *Config) { c.Scoring.DefaultSearchLimit = 0 }},
		{"principal baseline above 100", func(c *Config) { c.Finance.PrincipalBaselinePercent = ptr(101) }},
		{"missing CORS origins", func(c *Config) { c.CORS.Origins = []string{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error but got none")
			}
		})
	}
}

func TestValidate_SQLiteWithoutSeed(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Source = SourceSQLite
	cfg.Catalog.File = ""
	cfg.SQLite.Seed = false

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected unseeded sqlite source to validate, got %v", err)
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "single origin",
			input:  "http://localhost:3000",
			expect: []string{"http://localhost:3000"},
		},
		{
			name:   "multiple origins",
			input:  "http://localhost:3000,http://localhost:5173",
			expect: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		{
			name:   "origins with spaces",
			input:  " http://localhost:3000 , http://localhost:5173 ",
			expect: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		{
			name:   "empty string",
			input:  "",
			expect: []string{},
		},
		{
			name:   "only commas",
			input:  ",,,",
			expect: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseOrigins(tt.input)
			if len(result) != len(tt.expect) {
				t.Errorf("Expected %d origins, got %d", len(tt.expect), len(result))
				return
			}
			for i, origin := range result {
				if origin != tt.expect[i] {
					t.Errorf("Expected origin %s at index %d, got %s", tt.expect[i], i, origin)
				}
			}
		})
	}
}
