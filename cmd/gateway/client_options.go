package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibliotheca/gateway"
	"github.com/bibliotheca/gateway/domain/document"
	"github.com/bibliotheca/gateway/domain/render"
	"github.com/bibliotheca/gateway/infrastructure/metrics"
	"github.com/bibliotheca/gateway/infrastructure/remote"
	renderinfra "github.com/bibliotheca/gateway/infrastructure/render"
	"github.com/bibliotheca/gateway/infrastructure/storage"
	"github.com/bibliotheca/gateway/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// closerFunc adapts a func to io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// clientOptions returns the gateway.Option slice derived from AppConfig:
// backend clients, document store and renderer. Callers append
// entrypoint-specific options before calling gateway.New.
func clientOptions(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) ([]gateway.Option, error) {
	opts := []gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithDataDir(cfg.DataDir()),
		gateway.WithProjectDirectory(remote.NewProjectsClient(remoteConfig(cfg, cfg.ProjectsService()))),
		gateway.WithTableOfContents(remote.NewTocClient(remoteConfig(cfg, cfg.TocService()))),
	}

	documents, err := documentStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("document store: %w", err)
	}
	opts = append(opts, gateway.WithDocumentStore(documents))

	renderer, rendererOpts := rendererOptions(cfg, logger)
	opts = append(opts, gateway.WithRenderer(renderer))
	opts = append(opts, rendererOpts...)

	if keys := cfg.APIKeys(); len(keys) > 0 {
		opts = append(opts, gateway.WithAPIKeys(keys...))
	}

	return opts, nil
}

// uploadOptions enables uploads when the search service is configured.
// Branches live in the projects service.
func uploadOptions(cfg config.AppConfig) []gateway.Option {
	if !cfg.SearchService().IsConfigured() {
		return nil
	}
	opts := []gateway.Option{
		gateway.WithBranchRegistry(remote.NewBranchesClient(remoteConfig(cfg, cfg.ProjectsService()))),
		gateway.WithSearchIndex(remote.NewSearchClient(remoteConfig(cfg, cfg.SearchService()))),
		gateway.WithDatabaseURL(cfg.DBURL()),
		gateway.WithStagingDir(cfg.StagingDir()),
		gateway.WithWorkerPollPeriod(cfg.Upload().PollPeriod()),
	}
	if !cfg.Upload().WorkerEnabled() {
		opts = append(opts, gateway.WithoutWorker())
	}
	return opts
}

func remoteConfig(cfg config.AppConfig, endpoint config.ServiceEndpoint) remote.Config {
	return remote.Config{
		BaseURL:     endpoint.URL(),
		SecureToken: cfg.SecureToken(),
		Timeout:     endpoint.Timeout(),
	}
}

func documentStore(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (document.Store, error) {
	switch cfg.DocumentBackend() {
	case config.DocumentBackendS3:
		store, err := storage.NewS3Store(ctx, cfg.S3(), logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return remote.NewDocumentsClient(remoteConfig(cfg, cfg.StorageService())), nil
	}
}

func rendererOptions(cfg config.AppConfig, logger *slog.Logger) (render.Client, []gateway.Option) {
	if cfg.Renderer() == config.RendererChromium {
		r := renderinfra.NewChromiumRenderer(cfg.Chromium(), logger)
		return r, []gateway.Option{gateway.WithCloser(closerFunc(func() error {
			r.Close()
			return nil
		}))}
	}
	return remote.NewPdfExportClient(remoteConfig(cfg, cfg.PdfExportService())), nil
}

// metricsRecorder returns a Prometheus recorder on a fresh registry with the
// Go and process collectors, or a no-op recorder when metrics are disabled.
func metricsRecorder(cfg config.AppConfig) metrics.Recorder {
	if !cfg.MetricsEnabled() {
		return metrics.NoopRecorder{}
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.NewPrometheusRecorder(reg)
}
