package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/draftea/order-saga/order-service/config"
	"github.com/draftea/order-saga/order-service/handlers"
	"github.com/draftea/order-saga/shared/logging"
	"github.com/draftea/order-saga/shared/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.ReadConfig()
	if err != nil {
		bootstrap := logging.New("order-service", "info", os.Stderr)
		bootstrap.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(cfg.ServiceName, cfg.LogLevel, os.Stdout)
	logger.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("storage", cfg.Storage.Driver).
		Msg("starting service")

	// Initialize dependencies
	ctx := logging.WithContext(context.Background(), logger)
	deps, err := config.BuildDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build dependencies")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing dependencies")
		}
	}()
	if deps.Telemetry != nil {
		ctx = telemetry.WithTelemetry(ctx, deps.Telemetry)
	}

	// Start event subscriber
	if deps.EventSubscriber != nil {
		if err := deps.EventSubscriber.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to start event subscriber")
		}
	}

	// Setup and start HTTP server
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(deps, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdown(deps, server, logger)
	logger.Info().Msg("service stopped")
}

// shutdown stops intake first, then lets running sagas reach a terminal state
func shutdown(deps *config.Dependencies, server *http.Server, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	if deps.EventSubscriber != nil {
		if err := deps.EventSubscriber.Stop(ctx); err != nil {
			logger.Error().Err(err).Msg("event subscriber did not stop")
		}
	}

	if err := deps.Coordinator.Wait(ctx); err != nil {
		logger.Warn().Err(err).Msg("sagas still running at shutdown")
	}
}

func setupRouter(deps *config.Dependencies, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(middleware.Recoverer)

	// Telemetry middleware (inject telemetry into context)
	if deps.Telemetry != nil {
		r.Use(telemetry.Middleware(deps.Telemetry))
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics endpoint for Prometheus
	r.Handle("/metrics", handlers.NewMetricsHandler())

	// Register order routes
	deps.OrderHandlers.RegisterRoutes(r)

	return r
}
