// api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"viewcounter/api/config"
	"viewcounter/api/database"
	"viewcounter/api/handlers"
	"viewcounter/api/logger"
	"viewcounter/api/metrics"
	"viewcounter/api/services"
	"viewcounter/api/store"
)

func main() {
	// Load .env file at the very start
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// The logger depends on config, so fall back to a default one.
		lg := logger.New(logger.Options{})
		lg.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if envErr != nil {
		lg.Debug().Err(envErr).Msg("no .env file loaded")
	}

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Initialize the analytics backend ---
	backend, err := newBackend(cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Str("backend", cfg.Backend).Msg("failed to initialize analytics backend")
	}
	defer func() {
		if err := backend.Close(); err != nil {
			lg.Error().Err(err).Msg("failed to close analytics backend")
		}
	}()

	if cfg.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := backend.EnsureSchema(ctx, cfg.Dataset)
		cancel()
		if err != nil {
			lg.Fatal().Err(err).Str("dataset", cfg.Dataset).Msg("failed to create dataset")
		}
	}

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sink, err := metrics.NewPrometheus(reg)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to register metrics")
	}

	views := services.NewViewService(backend, services.Options{
		Dataset:       cfg.Dataset,
		QueryTimeout:  cfg.QueryTimeout,
		IngestTimeout: cfg.IngestTimeout,
		Metrics:       sink,
		Logger:        lg,
	})

	r := handlers.NewRouter(handlers.RouterOptions{
		Views:       views,
		Metrics:     sink,
		Logger:      lg,
		ErrorStatus: cfg.ErrorStatus,
		StrictIDs:   cfg.StrictIDs,
		SelfTrack:   cfg.SelfTrack,
		CORSOrigin:  cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info().Str("addr", "http://localhost:"+cfg.Port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		go func() {
			lg.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error().Err(err).Msg("server forced to shutdown")
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			lg.Error().Err(err).Msg("metrics server forced to shutdown")
		}
	}

	// Let detached ingests finish before the backend is closed.
	drained := make(chan struct{})
	go func() {
		views.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(cfg.IngestTimeout):
		lg.Warn().Msg("gave up waiting for in-flight view ingests")
	}

	lg.Info().Msg("server exiting")
}

func newBackend(cfg *config.Config, lg zerolog.Logger) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		client, err := database.NewPostgresDB(cfg.PostgresURL(), lg)
		if err != nil {
			return nil, err
		}
		return store.NewPGStore(client.DB), nil
	default:
		client, err := database.NewClickHouseDB(cfg, lg)
		if err != nil {
			return nil, err
		}
		return store.NewAnalyticsStore(client), nil
	}
}
