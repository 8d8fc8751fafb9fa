package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/streamline/internal/auth"
	"github.com/fyrsmithlabs/streamline/internal/config"
	httpserver "github.com/fyrsmithlabs/streamline/internal/http"
	"github.com/fyrsmithlabs/streamline/internal/store"
	"github.com/fyrsmithlabs/streamline/internal/telemetry"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	var (
		seedFile string
		port     int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the entity API server",
		Long: `Run an in-memory entity server implementing the remote entity API.

Examples:
  # Start with defaults (localhost:8080, no auth)
  streamline serve

  # Preload projects and listen on another port
  streamline serve --seed ./seed.yaml --port 9090

  # Require tokens issued with "streamline token issue"
  AUTH_SIGNING_KEY=... streamline serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			if seedFile != "" {
				cfg.Server.SeedFile = seedFile
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&seedFile, "seed", "", "YAML file of projects to preload (overrides server.seed_file)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.http_port)")
	return cmd
}

// runServe starts the entity server and blocks until ctx is cancelled.
//
//  1. Initializes telemetry and the logger
//  2. Loads the seed file into a fresh store
//  3. Builds the bearer token verifier
//  4. Serves until shutdown
func runServe(ctx context.Context, cfg *config.Config) error {
	telCfg := telemetry.FromObservability(cfg.Observability, version)
	tel, err := telemetry.New(ctx, telCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telCfg.Shutdown.Timeout.Duration())
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logger, err := newLogger(cfg.Observability, tel, false)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	if health := tel.Health(); health.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", health.Reason))
	}

	st := store.New()
	if cfg.Server.SeedFile != "" {
		seed, err := store.LoadSeedFile(cfg.Server.SeedFile)
		if err != nil {
			return err
		}
		if err := seed.Apply(ctx, st); err != nil {
			return fmt.Errorf("failed to apply seed: %w", err)
		}
		projects, tasks := st.Counts()
		logger.Info(ctx, "seed loaded",
			zap.String("path", cfg.Server.SeedFile),
			zap.Int("projects", projects),
			zap.Int("tasks", tasks))
	}

	verifier, _, err := auth.FromConfig(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to configure auth: %w", err)
	}

	opts := []httpserver.Option{
		httpserver.WithMeter(tel.Meter(httpserver.InstrumentationName)),
	}
	if verifier != nil {
		opts = append(opts, httpserver.WithVerifier(verifier))
	} else {
		logger.Warn(ctx, "no auth configured, entity routes accept unauthenticated requests")
	}

	srv, err := httpserver.NewServer(st, logger, httpserver.ConfigFrom(cfg.Server), opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info(ctx, "starting streamline",
		zap.String("addr", srv.Addr()),
		zap.Bool("auth", verifier != nil),
		zap.Bool("telemetry", tel.IsEnabled()),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	start := time.Now()
	if err := srv.Run(ctx, cfg.Server.ShutdownTimeout.Duration()); err != nil {
		return err
	}
	logger.Info(context.Background(), "server shutdown complete", zap.Duration("uptime", time.Since(start)))
	return nil
}
