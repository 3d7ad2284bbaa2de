package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., PROJECTS_SERVICE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.bibliotheca
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/gateway.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of keys accepted on mutating routes.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// SecureToken authenticates the gateway itself to backend services.
	// Env: SECURE_TOKEN
	SecureToken string `envconfig:"SECURE_TOKEN"`

	ProjectsService  ServiceEnv `envconfig:"PROJECTS_SERVICE"`
	TocService       ServiceEnv `envconfig:"TOC_SERVICE"`
	StorageService   ServiceEnv `envconfig:"STORAGE_SERVICE"`
	SearchService    ServiceEnv `envconfig:"SEARCH_SERVICE"`
	PdfExportService ServiceEnv `envconfig:"PDF_EXPORT_SERVICE"`

	// DocumentBackend selects where documents are read from (http or s3).
	// Env: DOCUMENT_BACKEND (default: http)
	DocumentBackend string `envconfig:"DOCUMENT_BACKEND" default:"http"`

	// S3 configures the s3 document backend.
	S3 S3Env `envconfig:"S3"`

	// Renderer selects the PDF renderer (http or chromium).
	// Env: RENDERER (default: http)
	Renderer string `envconfig:"RENDERER" default:"http"`

	// Chromium configures the chromium renderer.
	Chromium ChromiumEnv `envconfig:"CHROMIUM"`

	// Upload configures background uploads.
	Upload UploadEnv `envconfig:"UPLOAD"`

	// MetricsEnabled controls the /metrics endpoint.
	// Env: METRICS_ENABLED (default: true)
	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`

	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	// Env: CORS_ALLOWED_ORIGINS
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

// ServiceEnv holds environment configuration for a backend service.
type ServiceEnv struct {
	// URL is the service base URL.
	// Env: *_URL
	URL string `envconfig:"URL"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`
}

// S3Env holds environment configuration for the S3 backend.
type S3Env struct {
	Bucket       string `envconfig:"BUCKET"`
	Region       string `envconfig:"REGION" default:"us-east-1"`
	Endpoint     string `envconfig:"ENDPOINT"`
	AccessKey    string `envconfig:"ACCESS_KEY"`
	SecretKey    string `envconfig:"SECRET_KEY"`
	UsePathStyle bool   `envconfig:"USE_PATH_STYLE" default:"false"`
	Prefix       string `envconfig:"PREFIX"`
}

// ChromiumEnv holds environment configuration for the chromium renderer.
type ChromiumEnv struct {
	// RemoteURL is the DevTools websocket URL of a running browser.
	// Env: CHROMIUM_REMOTE_URL
	RemoteURL string `envconfig:"REMOTE_URL"`

	// NoSandbox disables the browser sandbox, needed in most containers.
	// Env: CHROMIUM_NO_SANDBOX (default: false)
	NoSandbox bool `envconfig:"NO_SANDBOX" default:"false"`

	// Timeout bounds a single render in seconds.
	// Env: CHROMIUM_TIMEOUT (default: 120)
	Timeout float64 `envconfig:"TIMEOUT" default:"120"`
}

// UploadEnv holds environment configuration for uploads.
type UploadEnv struct {
	// WorkerEnabled runs the upload worker in this process.
	// Env: UPLOAD_WORKER_ENABLED (default: true)
	WorkerEnabled bool `envconfig:"WORKER_ENABLED" default:"true"`

	// PollPeriodSeconds is how often pending uploads are checked.
	// Env: UPLOAD_POLL_PERIOD_SECONDS (default: 1)
	PollPeriodSeconds float64 `envconfig:"POLL_PERIOD_SECONDS" default:"1"`

	// StagingDir is where received archives wait for the worker.
	// Env: UPLOAD_STAGING_DIR
	// Default: {data_dir}/staging
	StagingDir string `envconfig:"STAGING_DIR"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	return LoadFromEnvWithPrefix("")
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "GATEWAY" would require GATEWAY_DATA_DIR instead of DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = applyOption(cfg, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = applyOption(cfg, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.APIKeys != "" {
		cfg = applyOption(cfg, WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	}
	if e.SecureToken != "" {
		cfg = applyOption(cfg, WithSecureToken(e.SecureToken))
	}

	cfg = cfg.Apply(
		WithProjectsService(e.ProjectsService.ToServiceEndpoint()),
		WithTocService(e.TocService.ToServiceEndpoint()),
		WithStorageService(e.StorageService.ToServiceEndpoint()),
		WithSearchService(e.SearchService.ToServiceEndpoint()),
		WithPdfExportService(e.PdfExportService.ToServiceEndpoint()),
		WithDocumentBackend(parseDocumentBackend(e.DocumentBackend)),
		WithS3Config(e.S3.ToS3Config()),
		WithRenderer(parseRenderer(e.Renderer)),
		WithChromiumConfig(e.Chromium.ToChromiumConfig()),
		WithUploadConfig(e.Upload.ToUploadConfig()),
		WithMetricsEnabled(e.MetricsEnabled),
	)

	if e.CORSAllowedOrigins != "" {
		cfg = applyOption(cfg, WithCORSAllowedOrigins(ParseList(e.CORSAllowedOrigins)))
	}

	return cfg
}

// applyOption applies an option to the config.
func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// ToServiceEndpoint converts ServiceEnv to ServiceEndpoint.
func (s ServiceEnv) ToServiceEndpoint() ServiceEndpoint {
	return NewServiceEndpoint(s.URL, seconds(s.Timeout))
}

// ToS3Config converts S3Env to S3Config.
func (s S3Env) ToS3Config() S3Config {
	return NewS3ConfigWithOptions(
		WithBucket(s.Bucket),
		WithRegion(s.Region),
		WithS3Endpoint(s.Endpoint),
		WithStaticCredentials(s.AccessKey, s.SecretKey),
		WithUsePathStyle(s.UsePathStyle),
		WithPrefix(s.Prefix),
	)
}

// ToChromiumConfig converts ChromiumEnv to ChromiumConfig.
func (c ChromiumEnv) ToChromiumConfig() ChromiumConfig {
	return NewChromiumConfig().
		WithRemoteURL(c.RemoteURL).
		WithNoSandbox(c.NoSandbox).
		WithTimeout(seconds(c.Timeout))
}

// ToUploadConfig converts UploadEnv to UploadConfig.
func (u UploadEnv) ToUploadConfig() UploadConfig {
	return NewUploadConfig().
		WithWorkerEnabled(u.WorkerEnabled).
		WithPollPeriodSeconds(u.PollPeriodSeconds).
		WithStagingDir(u.StagingDir)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}

// parseDocumentBackend keeps unknown values so Validate can report them.
func parseDocumentBackend(s string) DocumentBackend {
	if s == "" {
		return DefaultDocumentBackend
	}
	return DocumentBackend(strings.ToLower(strings.TrimSpace(s)))
}

func parseRenderer(s string) Renderer {
	if s == "" {
		return DefaultRenderer
	}
	return Renderer(strings.ToLower(strings.TrimSpace(s)))
}
