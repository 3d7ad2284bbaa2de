// Package gateway provides the documentation site gateway as a library.
//
// The gateway exports a project branch as a single PDF: it fetches the
// project metadata and chapter tree, concatenates the chapter documents
// behind a title page and table of contents, and hands the result to a
// renderer. It also replaces published branches with uploaded archives.
//
// Basic usage:
//
//	client, err := gateway.New(
//	    gateway.WithProjectDirectory(projects),
//	    gateway.WithTableOfContents(chapters),
//	    gateway.WithDocumentStore(documents),
//	    gateway.WithRenderer(renderer),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	pdf, err := client.Exports.Export(ctx, export.NewRequest("Docs", "v1"))
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/bibliotheca/gateway/application/service"
	"github.com/bibliotheca/gateway/infrastructure/metrics"
	"github.com/bibliotheca/gateway/infrastructure/persistence"
	"github.com/bibliotheca/gateway/internal/config"
	"github.com/bibliotheca/gateway/internal/database"
	"github.com/google/uuid"
)

// Construction errors.
var (
	ErrClientClosed        = service.ErrClientClosed
	ErrNoDatabase          = errors.New("gateway: uploads need a database")
	ErrNoProjectDirectory  = errors.New("gateway: no project directory configured")
	ErrNoTableOfContents   = errors.New("gateway: no table of contents provider configured")
	ErrNoDocumentStore     = errors.New("gateway: no document store configured")
	ErrNoRenderer          = errors.New("gateway: no renderer configured")
	ErrUploadsNotAvailable = errors.New("gateway: uploads are not configured")
)

// Client is the main entry point for the gateway library.
//
// Exports and Catalog are always available. Uploads and Queue are set only
// when a branch registry and a search index are configured; the background
// upload worker then starts automatically.
type Client struct {
	Exports *service.Export
	Catalog *service.Catalog
	Uploads *service.Upload
	Queue   *service.Queue

	db       *database.Database
	worker   *service.Worker
	recorder metrics.Recorder
	closers  []io.Closer

	logger     *slog.Logger
	dataDir    string
	stagingDir string
	apiKeys    []string
	closed     atomic.Bool
	mu         sync.Mutex
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	client := &Client{
		recorder: recorder,
		closers:  cfg.closers,
		logger:   logger,
		apiKeys:  cfg.apiKeys,
	}

	client.Exports = service.NewExport(cfg.projects, cfg.chapters, cfg.documents, cfg.renderer, logger).
		WithRecorder(recorder)
	client.Catalog = service.NewCatalog(cfg.projects, cfg.chapters, cfg.documents)

	if !cfg.uploadsConfigured() {
		logger.Info("uploads disabled, no branch registry or search index configured")
		return client, nil
	}

	if cfg.database == databaseUnset {
		return nil, ErrNoDatabase
	}

	dataDir, err := config.PrepareDataDir(cfg.dataDir)
	if err != nil {
		return nil, err
	}
	stagingDir := cfg.stagingDir
	if stagingDir == "" {
		stagingDir = filepath.Join(dataDir, config.DefaultStagingSubdir)
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	ctx := context.Background()
	dbURL, err := buildDatabaseURL(cfg, dataDir)
	if err != nil {
		return nil, fmt.Errorf("build database url: %w", err)
	}

	db, err := database.NewDatabase(ctx, dbURL, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.AutoMigrate(ctx, db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	jobStore := persistence.NewUploadStore(db)

	client.db = &db
	client.dataDir = dataDir
	client.stagingDir = stagingDir
	client.Uploads = service.NewUpload(cfg.branches, cfg.documents, cfg.projects, cfg.index, logger).
		WithRecorder(recorder)
	client.Queue = service.NewQueue(jobStore, logger)

	if cfg.workerEnabled {
		client.worker = service.NewWorker(jobStore, client.Uploads, logger).
			WithPollPeriod(cfg.workerPollPeriod)
		client.worker.Start(ctx)
	}

	return client, nil
}

func (c *clientConfig) validate() error {
	var errs []error
	if c.projects == nil {
		errs = append(errs, ErrNoProjectDirectory)
	}
	if c.chapters == nil {
		errs = append(errs, ErrNoTableOfContents)
	}
	if c.documents == nil {
		errs = append(errs, ErrNoDocumentStore)
	}
	if c.renderer == nil {
		errs = append(errs, ErrNoRenderer)
	}
	return errors.Join(errs...)
}

func (c *clientConfig) uploadsConfigured() bool {
	return c.branches != nil && c.index != nil
}

// buildDatabaseURL constructs the database URL from configuration.
func buildDatabaseURL(cfg *clientConfig, dataDir string) (string, error) {
	switch cfg.database {
	case databaseSQLite:
		path := cfg.dbPath
		if path == "" {
			path = filepath.Join(dataDir, config.DefaultDatabaseFilename)
		}
		return "sqlite:///" + path, nil
	case databasePostgres:
		if cfg.dbDSN == "" {
			return "", errors.New("postgres dsn is empty")
		}
		return cfg.dbDSN, nil
	case databaseURL:
		if cfg.dbURL == "" {
			return "", errors.New("database url is empty")
		}
		return cfg.dbURL, nil
	default:
		return "", ErrNoDatabase
	}
}

// UploadsEnabled reports whether branch uploads are available.
func (c *Client) UploadsEnabled() bool {
	return c.Uploads != nil
}

// Stage copies an uploaded archive into the staging directory and returns
// its path. The upload pipeline removes the file once it has run.
func (c *Client) Stage(archive io.Reader) (string, error) {
	if c.closed.Load() {
		return "", ErrClientClosed
	}
	if !c.UploadsEnabled() {
		return "", ErrUploadsNotAvailable
	}

	path := filepath.Join(c.stagingDir, uuid.NewString()+".zip")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}

	if _, err := io.Copy(f, archive); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return path, nil
}

// Close releases all resources and stops the background worker.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.worker != nil {
		c.worker.Stop()
	}

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}

	c.logger.Info("gateway client closed")
	return nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// APIKeys returns the keys accepted on write-protected routes.
func (c *Client) APIKeys() []string {
	return c.apiKeys
}

// Recorder returns the metrics recorder.
func (c *Client) Recorder() metrics.Recorder {
	return c.recorder
}

// StagingDir returns the directory holding staged archives.
func (c *Client) StagingDir() string {
	return c.stagingDir
}
