// Package main provides the entrypoint for the Pollution Trends API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pollutiontrends/pollutiontrends/internal/api"
	"github.com/pollutiontrends/pollutiontrends/internal/api/middleware"
	"github.com/pollutiontrends/pollutiontrends/internal/database"
	"github.com/pollutiontrends/pollutiontrends/internal/dataset"
	"github.com/pollutiontrends/pollutiontrends/internal/dataset/kaggle"
	"github.com/pollutiontrends/pollutiontrends/internal/plot"
	"github.com/pollutiontrends/pollutiontrends/internal/telemetry"
	"github.com/pollutiontrends/pollutiontrends/internal/trends"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "pollution-trends-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Pollution Trends API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Load the dataset once. A missing or corrupt dataset is fatal here,
	// never a per-call error.
	datasetSource := os.Getenv("DATASET_SOURCE")
	if datasetSource == "" {
		datasetSource = "csv"
	}

	var repo dataset.Repository
	switch datasetSource {
	case "postgres":
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
		repo = dataset.NewPostgresRepository(pool)
	case "csv":
		repo = loadCSVDataset(ctx, log)
	default:
		log.Fatal().Str("source", datasetSource).Msg("unknown DATASET_SOURCE")
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to validate dataset")
	}
	log.Info().
		Str("source", datasetSource).
		Int("records", stats.Records).
		Int("cities", stats.Cities).
		Msg("dataset loaded")

	// Initialize the trends service
	slopeThreshold := 0.0
	if raw := os.Getenv("TREND_SLOPE_THRESHOLD"); raw != "" {
		slopeThreshold, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			log.Fatal().Str("value", raw).Msg("invalid TREND_SLOPE_THRESHOLD")
		}
	}

	trendsService := trends.NewService(trends.ServiceConfig{
		Repository:     repo,
		Logger:         log,
		SlopeThreshold: slopeThreshold,
	})
	log.Info().Msg("trends service initialized")

	// Initialize the chart renderer
	renderer, err := plot.NewRenderer(plot.RendererConfig{
		ArtifactDir: os.Getenv("ARTIFACT_DIR"),
		Logger:      log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize renderer")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:       Version,
		BuildTime:     BuildTime,
		Logger:        log,
		ServiceName:   serviceName,
		Metrics:       metrics,
		DatasetSource: datasetSource,
		Repository:    repo,
		TrendsService: trendsService,
		Renderer:      renderer,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// loadCSVDataset resolves the dataset CSV (downloading it when no local
// path is configured) and builds the in-memory repository.
func loadCSVDataset(ctx context.Context, log zerolog.Logger) dataset.Repository {
	path := os.Getenv("DATASET_CSV_PATH")
	if path == "" {
		providerMetrics, err := middleware.NewProviderMetrics(kaggle.ProviderName)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize provider metrics")
		}
		client, err := kaggle.NewClient(kaggle.ClientConfig{
			DownloadURL: os.Getenv("DATASET_DOWNLOAD_URL"),
			Metrics:     providerMetrics,
			Logger:      log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create dataset client")
		}
		path, err = client.EnsureDataset(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to download dataset")
		}
	}

	records, pollutants, err := dataset.LoadCSV(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to load dataset")
	}
	return dataset.NewMemoryRepository(records, pollutants)
}
