package gateway

import (
	"io"
	"log/slog"
	"time"

	"github.com/bibliotheca/gateway/domain/branch"
	"github.com/bibliotheca/gateway/domain/document"
	"github.com/bibliotheca/gateway/domain/project"
	"github.com/bibliotheca/gateway/domain/render"
	"github.com/bibliotheca/gateway/domain/search"
	"github.com/bibliotheca/gateway/domain/toc"
	"github.com/bibliotheca/gateway/infrastructure/metrics"
	"github.com/bibliotheca/gateway/internal/config"
)

// databaseType identifies the database.
type databaseType int

const (
	databaseUnset databaseType = iota
	databaseSQLite
	databasePostgres
	databaseURL
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	database         databaseType
	dbPath           string
	dbDSN            string
	dbURL            string
	dataDir          string
	stagingDir       string
	projects         project.Directory
	chapters         toc.Provider
	documents        document.Store
	branches         branch.Registry
	index            search.Index
	renderer         render.Client
	recorder         metrics.Recorder
	logger           *slog.Logger
	apiKeys          []string
	workerEnabled    bool
	workerPollPeriod time.Duration
	closers          []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:          config.DefaultDataDir(),
		workerEnabled:    config.DefaultUploadWorker,
		workerPollPeriod: config.DefaultUploadPollPeriod,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the upload job database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.database = databaseSQLite
		c.dbPath = path
	}
}

// WithPostgres configures PostgreSQL as the upload job database.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.database = databasePostgres
		c.dbDSN = dsn
	}
}

// WithDatabaseURL configures the database from a URL such as
// sqlite:///path/to.db or postgres://host/db.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.database = databaseURL
		c.dbURL = url
	}
}

// WithProjectDirectory sets the source of project metadata.
func WithProjectDirectory(d project.Directory) Option {
	return func(c *clientConfig) {
		c.projects = d
	}
}

// WithTableOfContents sets the source of chapter trees.
func WithTableOfContents(p toc.Provider) Option {
	return func(c *clientConfig) {
		c.chapters = p
	}
}

// WithDocumentStore sets the document store.
func WithDocumentStore(s document.Store) Option {
	return func(c *clientConfig) {
		c.documents = s
	}
}

// WithBranchRegistry sets the branch registry used by uploads.
func WithBranchRegistry(r branch.Registry) Option {
	return func(c *clientConfig) {
		c.branches = r
	}
}

// WithSearchIndex sets the search index refreshed after uploads.
func WithSearchIndex(i search.Index) Option {
	return func(c *clientConfig) {
		c.index = i
	}
}

// WithRenderer sets the PDF renderer.
func WithRenderer(r render.Client) Option {
	return func(c *clientConfig) {
		c.renderer = r
	}
}

// WithRecorder sets the metrics recorder. Defaults to a no-op recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *clientConfig) {
		c.recorder = r
	}
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithStagingDir sets where received archives wait for the worker.
// Defaults to {dataDir}/staging.
func WithStagingDir(dir string) Option {
	return func(c *clientConfig) {
		c.stagingDir = dir
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithAPIKeys sets the API keys for HTTP API authentication.
func WithAPIKeys(keys ...string) Option {
	return func(c *clientConfig) {
		c.apiKeys = keys
	}
}

// WithWorkerPollPeriod sets how often the upload worker checks for jobs.
func WithWorkerPollPeriod(d time.Duration) Option {
	return func(c *clientConfig) {
		c.workerPollPeriod = d
	}
}

// WithoutWorker disables the background upload worker. Jobs stay pending
// until a process with a worker picks them up.
func WithoutWorker() Option {
	return func(c *clientConfig) {
		c.workerEnabled = false
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(c io.Closer) Option {
	return func(cfg *clientConfig) {
		cfg.closers = append(cfg.closers, c)
	}
}
