package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibliotheca/gateway"
	"github.com/bibliotheca/gateway/infrastructure/api"
	apimiddleware "github.com/bibliotheca/gateway/infrastructure/api/middleware"
	"github.com/bibliotheca/gateway/internal/config"
	"github.com/bibliotheca/gateway/internal/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.bibliotheca)
  DB_URL                       Upload queue database (default: sqlite:///{data_dir}/gateway.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  API_KEYS                     Comma-separated keys accepted on upload routes
  SECURE_TOKEN                 Token the gateway presents to backend services

  PROJECTS_SERVICE_*           Project directory and branch registry
    URL                        Base URL
    TIMEOUT                    Request timeout in seconds (default: 60)
  TOC_SERVICE_*                Table of contents service (same fields)
  STORAGE_SERVICE_*            Document storage service (same fields)
  SEARCH_SERVICE_*             Search index; uploads are enabled when set
  PDF_EXPORT_SERVICE_*         PDF renderer service (same fields)

  DOCUMENT_BACKEND             http or s3 (default: http)
  S3_BUCKET, S3_REGION, S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY,
  S3_USE_PATH_STYLE, S3_PREFIX

  RENDERER                     http or chromium (default: http)
  CHROMIUM_REMOTE_URL, CHROMIUM_NO_SANDBOX, CHROMIUM_TIMEOUT

  UPLOAD_WORKER_ENABLED        Run the upload worker in-process (default: true)
  UPLOAD_POLL_PERIOD_SECONDS   Upload queue poll period (default: 1)
  UPLOAD_STAGING_DIR           Staged archive directory (default: {data_dir}/staging)

  METRICS_ENABLED              Serve /metrics (default: true)
  CORS_ALLOWED_ORIGINS         Comma-separated list of allowed origins`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(parent context.Context, envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	logger := log.Configure(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := clientOptions(ctx, cfg, logger)
	if err != nil {
		return err
	}
	opts = append(opts, uploadOptions(cfg)...)
	opts = append(opts, gateway.WithRecorder(metricsRecorder(cfg)))

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting gateway", attrs...)

	client, err := gateway.New(opts...)
	if err != nil {
		return fmt.Errorf("create gateway client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil && !errors.Is(err, gateway.ErrClientClosed) {
			logger.Error("failed to close gateway client", slog.Any("error", err))
		}
	}()
	if !client.UploadsEnabled() {
		logger.Warn("uploads disabled: SEARCH_SERVICE_URL is not set")
	}

	apiServer := api.NewAPIServer(client,
		api.WithVersion(version),
		api.WithCORSAllowedOrigins(cfg.CORSAllowedOrigins()),
	)
	router := apiServer.Router()
	router.Use(apimiddleware.Logging(logger))
	router.Use(apimiddleware.CorrelationID)
	apiServer.MountRoutes()

	server := api.NewServer(cfg.Addr(), logger)
	server.Router().Mount("/", router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
