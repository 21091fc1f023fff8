package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/estimo/api/internal/config"
	"github.com/stwalsh4118/estimo/api/internal/database"
	"github.com/stwalsh4118/estimo/api/internal/finance"
	"github.com/stwalsh4118/estimo/api/internal/handlers"
	"github.com/stwalsh4118/estimo/api/internal/logger"
	"github.com/stwalsh4118/estimo/api/internal/metrics"
	"github.com/stwalsh4118/estimo/api/internal/middleware"
	"github.com/stwalsh4118/estimo/api/internal/repository"
	"github.com/stwalsh4118/estimo/api/internal/scoring"
	"github.com/stwalsh4118/estimo/api/internal/services"
	"github.com/stwalsh4118/estimo/api/internal/valuation"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting Estimo API", map[string]interface{}{
		"version":        handlers.APIVersion,
		"environment":    cfg.Server.Env,
		"port":           cfg.Server.Port,
		"catalog_source": cfg.Catalog.Source,
	})

	ctx := context.Background()

	m := metrics.New()

	// Open the catalog source
	repo, closeRepo, err := openCatalogRepository(ctx, cfg, m, log)
	if err != nil {
		log.Fatal("Failed to open catalog source", err, map[string]interface{}{
			"source": cfg.Catalog.Source,
		})
	}
	defer closeRepo()

	// Build the scorer from the optional weights file
	scorer, err := buildScorer(cfg.Scoring)
	if err != nil {
		log.Fatal("Failed to load scoring weights", err, map[string]interface{}{
			"file": cfg.Scoring.WeightsFile,
		})
	}
	log.Info("Scoring configured", map[string]interface{}{
		"weights":         scorer.Weights(),
		"location_scores": scorer.LocationScores(),
	})

	// Initialize the service and initial catalog snapshot
	valuationService := services.NewValuationService(repo, valuation.NewEngine(scorer), m, log, services.Options{
		Source:       cfg.Catalog.Source,
		LoadTimeout:  cfg.Catalog.LoadTimeout,
		DefaultLimit: cfg.Scoring.DefaultSearchLimit,
		Finance:      financeOptions(cfg.Finance, log),
	})
	if err := valuationService.Reload(ctx); err != nil {
		log.Fatal("Failed to load catalog", err, nil)
	}

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> Metrics -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log, m))
	router.Use(middleware.Metrics(m))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check and metrics routes
	healthHandler := handlers.NewHealthHandler(valuationService, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Initialize handlers
	propertyHandler := handlers.NewPropertyHandler(valuationService)
	neighborhoodHandler := handlers.NewNeighborhoodHandler(valuationService)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	{
		properties := v1.Group("/properties")
		{
			properties.GET("", propertyHandler.List)
			properties.GET("/search", propertyHandler.Search)
			properties.GET("/nearby", propertyHandler.Nearby)
			properties.POST("/filter", propertyHandler.Filter)
			properties.POST("/compare", propertyHandler.Compare)
			properties.GET("/:id", propertyHandler.Get)
			properties.POST("/:id/projection", propertyHandler.Projection)
		}

		v1.POST("/mortgage", propertyHandler.Mortgage)

		neighborhoods := v1.Group("/neighborhoods")
		{
			neighborhoods.GET("", neighborhoodHandler.List)
			neighborhoods.GET("/:name", neighborhoodHandler.Get)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// SIGHUP reloads the catalog; SIGINT or SIGTERM shuts down
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for sig := range signals {
		if sig != syscall.SIGHUP {
			break
		}
		log.Info("Reloading catalog", nil)
		if err := valuationService.Reload(ctx); err != nil {
			log.Warn("Catalog reload failed, keeping previous snapshot", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

// openCatalogRepository opens the configured catalog source. The returned
// func releases its connections.
func openCatalogRepository(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) (repository.CatalogRepository, func(), error) {
	switch cfg.Catalog.Source {
	case config.SourcePostgres:
		db, err := database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		m.Registry().MustRegister(db.Collectors()...)
		log.Info("Database connection established", map[string]interface{}{
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"database": cfg.Database.Name,
			"pool_min": cfg.Database.PoolMin,
			"pool_max": cfg.Database.PoolMax,
		})
		return repository.NewPostgresCatalogRepository(db), db.Close, nil

	case config.SourceSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() { _ = db.Close() }

		repo := repository.NewSQLiteCatalogRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			closeDB()
			return nil, nil, err
		}
		if cfg.SQLite.Seed {
			written, err := repo.SeedFromFile(ctx, cfg.Catalog.File)
			if err != nil {
				closeDB()
				return nil, nil, err
			}
			log.Info("SQLite catalog ready", map[string]interface{}{
				"path":   cfg.SQLite.Path,
				"seeded": written,
			})
		}
		return repo, closeDB, nil

	default:
		return repository.NewFileCatalogRepository(cfg.Catalog.File), func() {}, nil
	}
}

// buildScorer returns the default scorer unless a weights file is configured.
func buildScorer(cfg config.ScoringConfig) (*scoring.Scorer, error) {
	if cfg.WeightsFile == "" {
		return scoring.DefaultScorer(), nil
	}

	weights, locations, err := scoring.LoadWeights(cfg.WeightsFile)
	if err != nil {
		return nil, err
	}
	return scoring.NewScorer(weights, locations)
}

// financeOptions translates projection settings into finance options.
func financeOptions(cfg config.FinanceConfig, log *logger.Logger) []finance.Option {
	if cfg.PrincipalBaselinePercent == nil {
		return nil
	}
	log.Info("Projection principal baseline fixed", map[string]interface{}{
		"percent": *cfg.PrincipalBaselinePercent,
	})
	return []finance.Option{finance.WithPrincipalBaseline(*cfg.PrincipalBaselinePercent)}
}
