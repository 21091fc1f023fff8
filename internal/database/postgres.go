package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stwalsh4118/estimo/api/internal/config"
)

// ApplicationName identifies catalog sessions in pg_stat_activity.
const ApplicationName = "estimo-api"

// Database wraps the pgx connection pool backing the postgres catalog source.
type Database struct {
	Pool *pgxpool.Pool
}

// DSN builds the PostgreSQL connection string for cfg.
func DSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Path:     cfg.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// PoolConfig derives the pool settings for cfg. The catalog is only ever
// read, so sessions default to read-only transactions.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MinConns = int32(cfg.PoolMin)
	poolConfig.MaxConns = int32(cfg.PoolMax)

	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second
	poolConfig.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	poolConfig.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"

	// loads are occasional; keep idle connections around between reloads
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.HealthCheckPeriod = time.Minute

	return poolConfig, nil
}

// NewPostgresPool opens the pool and pings the database once.
func NewPostgresPool(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{Pool: pool}, nil
}

// Ping checks if the database connection is alive.
func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close closes the pool, waiting for acquired connections to be released.
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Stats returns statistics about the connection pool.
func (db *Database) Stats() *pgxpool.Stat {
	if db.Pool == nil {
		return nil
	}
	return db.Pool.Stat()
}

// Collectors exposes pool statistics as gauges sampled at scrape time.
func (db *Database) Collectors() []prometheus.Collector {
	gauge := func(name, help string, read func(*pgxpool.Stat) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "estimo",
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 {
			stat := db.Stats()
			if stat == nil {
				return 0
			}
			return float64(read(stat))
		})
	}

	return []prometheus.Collector{
		gauge("max_conns", "Configured maximum pool size.", (*pgxpool.Stat).MaxConns),
		gauge("total_conns", "Connections currently open.", (*pgxpool.Stat).TotalConns),
		gauge("acquired_conns", "Connections currently in use.", (*pgxpool.Stat).AcquiredConns),
		gauge("idle_conns", "Connections open and idle.", (*pgxpool.Stat).IdleConns),
	}
}
