package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/agri-risk-service/internal/adapter/gemini"
	"github.com/couchcryptid/agri-risk-service/internal/adapter/googlesearch"
	"github.com/couchcryptid/agri-risk-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/agri-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/agri-risk-service/internal/adapter/mapbox"
	"github.com/couchcryptid/agri-risk-service/internal/adapter/nasapower"
	"github.com/couchcryptid/agri-risk-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/agri-risk-service/internal/adapter/soilgrids"
	"github.com/couchcryptid/agri-risk-service/internal/config"
	"github.com/couchcryptid/agri-risk-service/internal/domain"
	"github.com/couchcryptid/agri-risk-service/internal/observability"
	"github.com/couchcryptid/agri-risk-service/internal/pipeline"
	"github.com/couchcryptid/agri-risk-service/internal/stage"
	"github.com/couchcryptid/agri-risk-service/internal/task"
	"github.com/couchcryptid/agri-risk-service/internal/workflow"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	meteo := openmeteo.NewClient(cfg.OpenMeteoBaseURL, cfg.OpenMeteoGeocodingURL, cfg.ProviderTimeout, logger)
	power := nasapower.NewClient(cfg.NASAPowerBaseURL, cfg.NASAPowerLookbackDays, cfg.ProviderTimeout, logger)

	var soil domain.SoilProvider
	if cfg.SoilGridsEnabled {
		soil = soilgrids.NewClient(cfg.SoilGridsBaseURL, cfg.ProviderTimeout, logger)
	} else {
		logger.Info("soilgrids disabled, soil texture modifiers inactive")
	}

	// Geocoder: Mapbox when enabled, Open-Meteo place search otherwise.
	var geocoder domain.Geocoder = meteo
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled, using open-meteo place search")
	}

	var advisory domain.AdvisoryWriter
	if cfg.GeminiEnabled() {
		advisor, err := gemini.New(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("gemini unavailable, advisory text disabled", "error", err)
		} else {
			defer closeWith(logger, "gemini client", advisor.Close)
			advisory = advisor
			logger.Info("gemini advisory enabled", "model", cfg.GeminiModel)
		}
	}

	var searcher domain.Searcher
	if cfg.SearchEnabled() {
		s, err := googlesearch.New(ctx, cfg.GoogleAPIKey, cfg.SearchEngineID)
		if err != nil {
			logger.Error("custom search unavailable, verification runs offline", "error", err)
		} else {
			searcher = s
			logger.Info("custom search enabled")
		}
	}

	var notifier domain.Notifier
	if cfg.KafkaNotificationTopic != "" {
		n := kafkaadapter.NewNotifier(cfg, logger)
		defer closeWith(logger, "kafka notifier", n.Close)
		notifier = n
		logger.Info("notifications enabled", "topic", cfg.KafkaNotificationTopic)
	}

	tasks := task.NewController(logger, metrics)
	orchestrator := workflow.New(
		stage.NewForecast(stage.ForecastDeps{
			Geocoder:  geocoder,
			Weather:   meteo,
			Satellite: power,
			Climate:   power,
			Soil:      soil,
		}, logger, metrics),
		stage.NewVerify(searcher, logger, metrics),
		stage.NewPlan(stage.PlanDeps{
			Advisory: advisory,
			Searcher: searcher,
			Notifier: notifier,
		}, logger, metrics),
		logger, metrics,
		workflow.WithGate(tasks),
		workflow.WithDefaults(workflow.Defaults{
			ConfidenceThreshold: cfg.ConfidenceThreshold,
			MaxIterations:       cfg.MaxIterations,
			DaysAhead:           cfg.DefaultDaysAhead,
		}),
	)

	var publisher pipeline.ResultPublisher
	var ready httpadapter.ReadyFunc = httpadapter.AlwaysReady
	var intake *pipeline.Pipeline
	var reader *kafkaadapter.Reader
	if cfg.KafkaEnabled {
		results := kafkaadapter.NewResultWriter(cfg, logger)
		defer closeWith(logger, "kafka result writer", results.Close)
		publisher = results
		reader = kafkaadapter.NewReader(cfg, logger)
	}

	runner := pipeline.NewRunner(orchestrator, tasks, publisher, logger, metrics)
	if reader != nil {
		intake = pipeline.New(reader, runner, logger, metrics, cfg.BatchSize)
		ready = intake.CheckReadiness
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, ready, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if intake != nil {
		go func() {
			if err := intake.Run(ctx); err != nil {
				logger.Error("intake error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	tasks.CancelAll()
	if reader != nil {
		closeWith(logger, "kafka reader", reader.Close)
	}

	logger.Info("shutdown complete")
}

func closeWith(logger *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error(name+" close error", "error", err)
	}
}
