package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weare-health/fhir-session-gateway/internal/api"
	"github.com/weare-health/fhir-session-gateway/internal/config"
	"github.com/weare-health/fhir-session-gateway/internal/hydrate"
	"github.com/weare-health/fhir-session-gateway/internal/metrics"
	"github.com/weare-health/fhir-session-gateway/internal/middleware"
	"github.com/weare-health/fhir-session-gateway/internal/pod"
	"github.com/weare-health/fhir-session-gateway/internal/reqctx"
	"github.com/weare-health/fhir-session-gateway/internal/session"
	"github.com/weare-health/fhir-session-gateway/internal/sessionstore"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config.Config{}
	var sweepInterval, podTimeout time.Duration

	root := &cobra.Command{
		Use:   "fhir-session-gateway",
		Short: "Ephemeral, session-scoped FHIR gateway with Solid pod write-through",
		Long: `fhir-session-gateway holds no durable state of its own. Each bearer
credential binds to an in-memory session that is hydrated from, and
written through to, the holder's Solid pod.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.SweepInterval = sweepInterval.String()
			cfg.PodTimeout = podTimeout.String()
			return run(cmd.Context(), cfg, sweepInterval, podTimeout)
		},
	}

	root.AddCommand(newVersionCmd())

	root.PersistentFlags().StringVar(&cfg.HTTPAddr, "http-addr", config.EnvOrDefault("WEARE_HTTP_ADDR", ":8080"), "HTTP listen address")
	root.PersistentFlags().BoolVar(&cfg.SolidEnabled, "solid-enabled", config.EnvOrDefault("WEARE_SOLID_ENABLED", "false") == "true", "Enable Solid pod write-through and hydration")
	root.PersistentFlags().StringVar(&cfg.FHIRContainerPath, "fhir-container-path", config.EnvOrDefault("WEARE_FHIR_CONTAINER_PATH", "/weare/fhir"), "Pod container path for FHIR resources")
	root.PersistentFlags().StringVar(&cfg.IGURL, "ig-url", config.EnvOrDefault("WEARE_IG_URL", ""), "URL to a packaged Implementation Guide archive (not fetched: no IG fetcher is wired, so the static registries load from --testdata-path)")
	root.PersistentFlags().StringVar(&cfg.TestdataPath, "testdata-path", config.EnvOrDefault("WEARE_TESTDATA_PATH", "./testdata/dev"), "Filesystem path for dev fixture data")
	root.PersistentFlags().DurationVar(&sweepInterval, "sweep-interval", envOrDefaultDuration("WEARE_SWEEP_INTERVAL", 5*time.Minute), "Session sweep cadence")
	root.PersistentFlags().DurationVar(&podTimeout, "pod-timeout", envOrDefaultDuration("WEARE_POD_TIMEOUT", 30*time.Second), "Pod HTTP client timeout")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", config.EnvOrDefault("WEARE_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fhir-session-gateway %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func run(ctx context.Context, cfg *config.Config, sweepInterval, podTimeout time.Duration) error {
	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting fhir-session-gateway",
		zap.String("version", version),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("solid_enabled", cfg.SolidEnabled),
		zap.Duration("sweep_interval", sweepInterval),
	)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rec := metrics.New(prometheus.DefaultRegisterer)

	podClient := pod.New(pod.Config{
		Timeout:       podTimeout,
		ContainerPath: cfg.FHIRContainerPath,
		Disabled:      !cfg.SolidEnabled,
	}, logger)

	store := sessionstore.New(logger)

	orchestrator := hydrate.New(podClient, cfg.IGURL, cfg.TestdataPath, nil, logger)
	if err := orchestrator.LoadStaticRegistries(ctx); err != nil {
		return fmt.Errorf("failed to load static registries: %w", err)
	}

	hydrateFn := func(claims *reqctx.Claims, sess *session.Session) {
		hydrateCtx := reqctx.WithClaims(ctx, claims)
		orchestrator.Hydrate(hydrateCtx, sess)
	}

	sweeper, err := sessionstore.NewSweeper(store, rec, logger)
	if err != nil {
		return fmt.Errorf("failed to create sweeper: %w", err)
	}
	if err := sweeper.Start(ctx, sweepInterval); err != nil {
		return fmt.Errorf("failed to start sweeper: %w", err)
	}
	defer func() {
		if err := sweeper.Stop(); err != nil {
			logger.Warn("sweeper shutdown error", zap.Error(err))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Store:   store,
		Pod:     podClient,
		Metrics: rec,
		Hydrate: middleware.HydrateFunc(hydrateFn),
		Logger:  logger,
	})

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down fhir-session-gateway")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server graceful shutdown error", zap.Error(err))
	}

	logger.Info("fhir-session-gateway stopped")
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	var cfg zap.Config

	switch level {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultVal
	}
	return d
}
