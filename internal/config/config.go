// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost             = "0.0.0.0"
	DefaultPort             = 8080
	DefaultLogLevel         = "INFO"
	DefaultServiceTimeout   = 60 * time.Second
	DefaultChromiumTimeout  = 120 * time.Second
	DefaultUploadPollPeriod = time.Second
	DefaultStagingSubdir    = "staging"
	DefaultDatabaseFilename = "gateway.db"
	DefaultDataDirName      = ".bibliotheca"
	DefaultDocumentBackend  = DocumentBackendHTTP
	DefaultRenderer         = RendererHTTP
	DefaultUploadWorker     = true
	DefaultMetricsEnabled   = true
	DefaultS3Region         = "us-east-1"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// DocumentBackend selects where chapter documents are read from.
type DocumentBackend string

// DocumentBackend values.
const (
	DocumentBackendHTTP DocumentBackend = "http"
	DocumentBackendS3   DocumentBackend = "s3"
)

// Renderer selects how assembled markup becomes a PDF.
type Renderer string

// Renderer values.
const (
	RendererHTTP     Renderer = "http"
	RendererChromium Renderer = "chromium"
)

// ServiceEndpoint locates a backend service.
type ServiceEndpoint struct {
	url     string
	timeout time.Duration
}

// NewServiceEndpoint creates a ServiceEndpoint. A non-positive timeout falls
// back to DefaultServiceTimeout.
func NewServiceEndpoint(url string, timeout time.Duration) ServiceEndpoint {
	if timeout <= 0 {
		timeout = DefaultServiceTimeout
	}
	return ServiceEndpoint{url: strings.TrimRight(url, "/"), timeout: timeout}
}

// URL returns the base URL of the service.
func (s ServiceEndpoint) URL() string { return s.url }

// Timeout returns the per-request timeout.
func (s ServiceEndpoint) Timeout() time.Duration {
	if s.timeout <= 0 {
		return DefaultServiceTimeout
	}
	return s.timeout
}

// IsConfigured returns true if the service has a URL.
func (s ServiceEndpoint) IsConfigured() bool { return s.url != "" }

// S3Config configures the S3 document backend.
type S3Config struct {
	bucket       string
	region       string
	endpoint     string
	accessKey    string
	secretKey    string
	usePathStyle bool
	prefix       string
}

// NewS3Config creates a new S3Config with defaults.
func NewS3Config() S3Config {
	return S3Config{region: DefaultS3Region}
}

// Bucket returns the bucket name.
func (s S3Config) Bucket() string { return s.bucket }

// Region returns the AWS region.
func (s S3Config) Region() string { return s.region }

// Endpoint returns a custom endpoint, for S3-compatible stores.
func (s S3Config) Endpoint() string { return s.endpoint }

// AccessKey returns the static access key, if any.
func (s S3Config) AccessKey() string { return s.accessKey }

// SecretKey returns the static secret key, if any.
func (s S3Config) SecretKey() string { return s.secretKey }

// UsePathStyle returns whether path-style addressing is used.
func (s S3Config) UsePathStyle() bool { return s.usePathStyle }

// Prefix returns the object key prefix.
func (s S3Config) Prefix() string { return s.prefix }

// HasStaticCredentials returns true if both keys are set.
func (s S3Config) HasStaticCredentials() bool {
	return s.accessKey != "" && s.secretKey != ""
}

// S3ConfigOption is a functional option for S3Config.
type S3ConfigOption func(*S3Config)

// WithBucket sets the bucket name.
func WithBucket(bucket string) S3ConfigOption {
	return func(s *S3Config) { s.bucket = bucket }
}

// WithRegion sets the region.
func WithRegion(region string) S3ConfigOption {
	return func(s *S3Config) {
		if region != "" {
			s.region = region
		}
	}
}

// WithS3Endpoint sets a custom endpoint.
func WithS3Endpoint(endpoint string) S3ConfigOption {
	return func(s *S3Config) { s.endpoint = endpoint }
}

// WithStaticCredentials sets the access and secret keys.
func WithStaticCredentials(accessKey, secretKey string) S3ConfigOption {
	return func(s *S3Config) {
		s.accessKey = accessKey
		s.secretKey = secretKey
	}
}

// WithUsePathStyle sets path-style addressing.
func WithUsePathStyle(enabled bool) S3ConfigOption {
	return func(s *S3Config) { s.usePathStyle = enabled }
}

// WithPrefix sets the object key prefix.
func WithPrefix(prefix string) S3ConfigOption {
	return func(s *S3Config) { s.prefix = prefix }
}

// NewS3ConfigWithOptions creates an S3Config with functional options.
func NewS3ConfigWithOptions(opts ...S3ConfigOption) S3Config {
	s := NewS3Config()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// ChromiumConfig configures the local headless Chromium renderer.
type ChromiumConfig struct {
	remoteURL string
	noSandbox bool
	timeout   time.Duration
}

// NewChromiumConfig creates a new ChromiumConfig with defaults.
func NewChromiumConfig() ChromiumConfig {
	return ChromiumConfig{timeout: DefaultChromiumTimeout}
}

// RemoteURL returns the DevTools websocket URL of a running browser.
// An empty value launches a local browser.
func (c ChromiumConfig) RemoteURL() string { return c.remoteURL }

// NoSandbox returns whether the browser sandbox is disabled.
func (c ChromiumConfig) NoSandbox() bool { return c.noSandbox }

// Timeout bounds a single render.
func (c ChromiumConfig) Timeout() time.Duration { return c.timeout }

// WithRemoteURL returns a new config with the specified browser URL.
func (c ChromiumConfig) WithRemoteURL(url string) ChromiumConfig {
	c.remoteURL = url
	return c
}

// WithNoSandbox returns a new config with the sandbox setting.
func (c ChromiumConfig) WithNoSandbox(noSandbox bool) ChromiumConfig {
	c.noSandbox = noSandbox
	return c
}

// WithTimeout returns a new config with the specified render timeout.
func (c ChromiumConfig) WithTimeout(d time.Duration) ChromiumConfig {
	if d > 0 {
		c.timeout = d
	}
	return c
}

// UploadConfig configures background branch uploads.
type UploadConfig struct {
	workerEnabled bool
	pollPeriod    time.Duration
	stagingDir    string
}

// NewUploadConfig creates a new UploadConfig with defaults.
func NewUploadConfig() UploadConfig {
	return UploadConfig{
		workerEnabled: DefaultUploadWorker,
		pollPeriod:    DefaultUploadPollPeriod,
	}
}

// WorkerEnabled returns whether the upload worker runs in this process.
func (u UploadConfig) WorkerEnabled() bool { return u.workerEnabled }

// PollPeriod returns how often the worker checks for pending uploads.
func (u UploadConfig) PollPeriod() time.Duration { return u.pollPeriod }

// StagingDir returns the directory for staged archives. Empty means the
// default under the data directory.
func (u UploadConfig) StagingDir() string { return u.stagingDir }

// WithWorkerEnabled returns a new config with the worker setting.
func (u UploadConfig) WithWorkerEnabled(enabled bool) UploadConfig {
	u.workerEnabled = enabled
	return u
}

// WithPollPeriodSeconds returns a new config with the specified poll period.
func (u UploadConfig) WithPollPeriodSeconds(seconds float64) UploadConfig {
	if seconds > 0 {
		u.pollPeriod = time.Duration(seconds * float64(time.Second))
	}
	return u
}

// WithStagingDir returns a new config with the specified staging directory.
func (u UploadConfig) WithStagingDir(dir string) UploadConfig {
	u.stagingDir = dir
	return u
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host               string
	port               int
	dataDir            string
	dbURL              string
	logLevel           string
	logFormat          LogFormat
	apiKeys            []string
	secureToken        string
	projectsService    ServiceEndpoint
	tocService         ServiceEndpoint
	storageService     ServiceEndpoint
	searchService      ServiceEndpoint
	pdfExportService   ServiceEndpoint
	documentBackend    DocumentBackend
	s3                 S3Config
	renderer           Renderer
	chromium           ChromiumConfig
	upload             UploadConfig
	metricsEnabled     bool
	corsAllowedOrigins []string
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataDirName
	}
	return filepath.Join(home, DefaultDataDirName)
}

// PrepareDataDir creates the data directory if it does not exist and returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:               DefaultHost,
		port:               DefaultPort,
		dataDir:            dataDir,
		dbURL:              defaultDBURL(dataDir),
		logLevel:           DefaultLogLevel,
		logFormat:          LogFormatPretty,
		apiKeys:            []string{},
		documentBackend:    DefaultDocumentBackend,
		s3:                 NewS3Config(),
		renderer:           DefaultRenderer,
		chromium:           NewChromiumConfig(),
		upload:             NewUploadConfig(),
		metricsEnabled:     DefaultMetricsEnabled,
		corsAllowedOrigins: []string{},
	}
}

func defaultDBURL(dataDir string) string {
	return "sqlite:///" + filepath.Join(dataDir, DefaultDatabaseFilename)
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// APIKeys returns the configured API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// SecureToken returns the service token used when no caller credentials
// are available.
func (c AppConfig) SecureToken() string { return c.secureToken }

// ProjectsService returns the projects service endpoint.
func (c AppConfig) ProjectsService() ServiceEndpoint { return c.projectsService }

// TocService returns the table-of-contents service endpoint.
func (c AppConfig) TocService() ServiceEndpoint { return c.tocService }

// StorageService returns the storage service endpoint.
func (c AppConfig) StorageService() ServiceEndpoint { return c.storageService }

// SearchService returns the search service endpoint.
func (c AppConfig) SearchService() ServiceEndpoint { return c.searchService }

// PdfExportService returns the PDF export service endpoint.
func (c AppConfig) PdfExportService() ServiceEndpoint { return c.pdfExportService }

// DocumentBackend returns the document backend.
func (c AppConfig) DocumentBackend() DocumentBackend { return c.documentBackend }

// S3 returns the S3 backend config.
func (c AppConfig) S3() S3Config { return c.s3 }

// Renderer returns the renderer kind.
func (c AppConfig) Renderer() Renderer { return c.renderer }

// Chromium returns the local renderer config.
func (c AppConfig) Chromium() ChromiumConfig { return c.chromium }

// Upload returns the upload config.
func (c AppConfig) Upload() UploadConfig { return c.upload }

// MetricsEnabled returns whether /metrics is served.
func (c AppConfig) MetricsEnabled() bool { return c.metricsEnabled }

// CORSAllowedOrigins returns the allowed CORS origins.
func (c AppConfig) CORSAllowedOrigins() []string {
	origins := make([]string, len(c.corsAllowedOrigins))
	copy(origins, c.corsAllowedOrigins)
	return origins
}

// StagingDir returns the upload staging directory path.
func (c AppConfig) StagingDir() string {
	if dir := c.upload.StagingDir(); dir != "" {
		return dir
	}
	return filepath.Join(c.dataDir, DefaultStagingSubdir)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// EnsureStagingDir creates the staging directory if it doesn't exist.
func (c AppConfig) EnsureStagingDir() error {
	return os.MkdirAll(c.StagingDir(), 0o755)
}

// Validate checks that every backend the selected wiring needs is configured.
func (c AppConfig) Validate() error {
	var errs []error
	if !c.projectsService.IsConfigured() {
		errs = append(errs, errors.New("PROJECTS_SERVICE_URL is required"))
	}
	if !c.tocService.IsConfigured() {
		errs = append(errs, errors.New("TOC_SERVICE_URL is required"))
	}
	switch c.documentBackend {
	case DocumentBackendHTTP:
		if !c.storageService.IsConfigured() {
			errs = append(errs, errors.New("STORAGE_SERVICE_URL is required for the http document backend"))
		}
	case DocumentBackendS3:
		if c.s3.Bucket() == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 document backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown document backend %q", c.documentBackend))
	}
	switch c.renderer {
	case RendererHTTP:
		if !c.pdfExportService.IsConfigured() {
			errs = append(errs, errors.New("PDF_EXPORT_SERVICE_URL is required for the http renderer"))
		}
	case RendererChromium:
	default:
		errs = append(errs, fmt.Errorf("unknown renderer %q", c.renderer))
	}
	return errors.Join(errs...)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		// The default database follows the data directory.
		if c.dbURL == "" || c.dbURL == defaultDBURL(c.dataDir) {
			c.dbURL = defaultDBURL(dir)
		}
		c.dataDir = dir
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithSecureToken sets the service token.
func WithSecureToken(token string) AppConfigOption {
	return func(c *AppConfig) { c.secureToken = token }
}

// WithProjectsService sets the projects service endpoint.
func WithProjectsService(s ServiceEndpoint) AppConfigOption {
	return func(c *AppConfig) { c.projectsService = s }
}

// WithTocService sets the table-of-contents service endpoint.
func WithTocService(s ServiceEndpoint) AppConfigOption {
	return func(c *AppConfig) { c.tocService = s }
}

// WithStorageService sets the storage service endpoint.
func WithStorageService(s ServiceEndpoint) AppConfigOption {
	return func(c *AppConfig) { c.storageService = s }
}

// WithSearchService sets the search service endpoint.
func WithSearchService(s ServiceEndpoint) AppConfigOption {
	return func(c *AppConfig) { c.searchService = s }
}

// WithPdfExportService sets the PDF export service endpoint.
func WithPdfExportService(s ServiceEndpoint) AppConfigOption {
	return func(c *AppConfig) { c.pdfExportService = s }
}

// WithDocumentBackend sets the document backend.
func WithDocumentBackend(b DocumentBackend) AppConfigOption {
	return func(c *AppConfig) { c.documentBackend = b }
}

// WithS3Config sets the S3 backend config.
func WithS3Config(s S3Config) AppConfigOption {
	return func(c *AppConfig) { c.s3 = s }
}

// WithRenderer sets the renderer kind.
func WithRenderer(r Renderer) AppConfigOption {
	return func(c *AppConfig) { c.renderer = r }
}

// WithChromiumConfig sets the local renderer config.
func WithChromiumConfig(ch ChromiumConfig) AppConfigOption {
	return func(c *AppConfig) { c.chromium = ch }
}

// WithUploadConfig sets the upload config.
func WithUploadConfig(u UploadConfig) AppConfigOption {
	return func(c *AppConfig) { c.upload = u }
}

// WithMetricsEnabled sets whether /metrics is served.
func WithMetricsEnabled(enabled bool) AppConfigOption {
	return func(c *AppConfig) { c.metricsEnabled = enabled }
}

// WithCORSAllowedOrigins sets the allowed CORS origins.
func WithCORSAllowedOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsAllowedOrigins = make([]string, len(origins))
		copy(c.corsAllowedOrigins, origins)
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Secrets are masked or shown as counts.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("projects_service", c.projectsService.URL()),
		slog.String("toc_service", c.tocService.URL()),
		slog.String("storage_service", c.storageService.URL()),
		slog.String("search_service", c.searchService.URL()),
		slog.String("pdf_export_service", c.pdfExportService.URL()),
		slog.String("document_backend", string(c.documentBackend)),
		slog.String("renderer", string(c.renderer)),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Bool("secure_token_set", c.secureToken != ""),
		slog.Bool("upload_worker_enabled", c.upload.WorkerEnabled()),
		slog.Bool("metrics_enabled", c.metricsEnabled),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

// ParseList parses a comma-separated string, dropping blank entries.
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// ParseAPIKeys parses a comma-separated string of API keys.
func ParseAPIKeys(s string) []string {
	return ParseList(s)
}
