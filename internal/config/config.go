package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

// Config is the linkbio process configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Session    SessionConfig    `yaml:"session"`
	Upload     UploadConfig     `yaml:"upload"`
	LinkCheck  LinkCheckConfig  `yaml:"link_check"`
	NATS       NATSConfig       `yaml:"nats"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	BaseURL      string `yaml:"base_url"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

// DatabaseConfig points at the SQLite database file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig controls signed session cookies.
type SessionConfig struct {
	Secret     string `yaml:"secret"`
	TTL        string `yaml:"ttl"`
	CookieName string `yaml:"cookie_name"`
}

// UploadProvider selects where uploaded images are stored.
type UploadProvider string

const (
	UploadProviderCloudinary UploadProvider = "cloudinary"
	UploadProviderLocal      UploadProvider = "local"
)

// UploadConfig configures image uploads.
type UploadConfig struct {
	Provider   UploadProvider   `yaml:"provider"`
	MaxBytes   int64            `yaml:"max_bytes"`
	Folder     string           `yaml:"folder"`
	LocalDir   string           `yaml:"local_dir"`
	Cloudinary CloudinaryConfig `yaml:"cloudinary"`
	Retry      RetryConfig      `yaml:"retry"`
	Quota      QuotaConfig      `yaml:"quota"`
}

// QuotaConfig limits uploads per user. Zero disables a limit.
type QuotaConfig struct {
	PerHour        int64 `yaml:"per_hour"`
	PerDay         int64 `yaml:"per_day"`
	MaxBytesPerDay int64 `yaml:"max_bytes_per_day"`
}

// CloudinaryConfig carries Cloudinary API credentials.
type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	// BaseURL overrides the API origin (tests point this at httptest servers).
	BaseURL string `yaml:"base_url,omitempty"`
}

// Configured reports whether all credentials are present.
func (c CloudinaryConfig) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// RetryConfig describes backoff for transient upstream failures.
type RetryConfig struct {
	Backoff      RetryBackoffMode `yaml:"backoff"`
	InitialDelay string           `yaml:"initial_delay"`
	MaxDelay     string           `yaml:"max_delay"`
	MaxRetries   int              `yaml:"max_retries"`
}

// LinkCheckConfig configures the background link health checker.
type LinkCheckConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Interval         string `yaml:"interval"`
	Timeout          string `yaml:"timeout"`
	MaxConcurrent    int    `yaml:"max_concurrent"`
	MaxRedirects     int    `yaml:"max_redirects"`
	CacheTTL         string `yaml:"cache_ttl"`
	CacheTTLFailures string `yaml:"cache_ttl_failures"`
	UserAgent        string `yaml:"user_agent"`
	// AllowPrivateNetworks lets the checker reach loopback and private
	// addresses. Off by default.
	AllowPrivateNetworks bool `yaml:"allow_private_networks"`
}

// NATSConfig configures event publishing and the shared link-check cache.
// An empty URL disables NATS entirely.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	KVBucket      string `yaml:"kv_bucket"`
}

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads a configuration file, expands ${ENV} references, applies
// environment overrides, defaults and validation. An empty path yields the
// defaults plus environment overrides.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	var cfg Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
					WithContext("config_path", configPath).
					Build()
			}
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
				WithContext("config_path", configPath).
				Build()
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
				WithContext("config_path", configPath).
				Build()
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if res := NormalizeConfig(&cfg); len(res.Warnings) > 0 {
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
		}
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to apply defaults").Build()
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) error {
	return NewDefaultApplier().ApplyDefaults(cfg)
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.AlreadyExistsError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	example := Config{
		Server: ServerConfig{
			Addr:         ":3000",
			BaseURL:      "http://localhost:3000",
			ReadTimeout:  "15s",
			WriteTimeout: "30s",
		},
		Database: DatabaseConfig{Path: "./linkbio.db"},
		Session: SessionConfig{
			Secret:     "${LINKBIO_SESSION_SECRET}",
			TTL:        "720h",
			CookieName: "linkbio_session",
		},
		Upload: UploadConfig{
			Provider: UploadProviderCloudinary,
			MaxBytes: 5 << 20,
			Folder:   "link-app/avatars",
			LocalDir: "./data/media",
			Cloudinary: CloudinaryConfig{
				CloudName: "${CLOUDINARY_CLOUD_NAME}",
				APIKey:    "${CLOUDINARY_API_KEY}",
				APISecret: "${CLOUDINARY_API_SECRET}",
			},
			Retry: RetryConfig{Backoff: RetryBackoffExponential, InitialDelay: "500ms", MaxDelay: "5s", MaxRetries: 2},
			Quota: QuotaConfig{PerHour: 20, PerDay: 100, MaxBytesPerDay: 100 << 20},
		},
		LinkCheck: LinkCheckConfig{
			Enabled:          true,
			Interval:         "6h",
			Timeout:          "10s",
			MaxConcurrent:    4,
			MaxRedirects:     5,
			CacheTTL:         "24h",
			CacheTTLFailures: "1h",
			UserAgent:        "linkbio-linkcheck/1.0",
		},
		NATS: NATSConfig{
			URL:           "",
			SubjectPrefix: "linkbio",
			KVBucket:      "linkbio-linkcheck",
		},
		Monitoring: MonitoringConfig{
			Metrics: MonitoringMetrics{Enabled: true, Path: "/metrics"},
			Logging: MonitoringLogging{Level: LogLevelInfo, Format: LogFormatText},
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to marshal config").Build()
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("config_path", configPath).
			Build()
	}
	return nil
}

// parseDuration parses a configured duration, falling back when empty or invalid.
func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ReadTimeoutDuration returns the parsed server read timeout.
func (s ServerConfig) ReadTimeoutDuration() time.Duration {
	return parseDuration(s.ReadTimeout, 15*time.Second)
}

// WriteTimeoutDuration returns the parsed server write timeout.
func (s ServerConfig) WriteTimeoutDuration() time.Duration {
	return parseDuration(s.WriteTimeout, 30*time.Second)
}

// TTLDuration returns the session lifetime.
func (s SessionConfig) TTLDuration() time.Duration {
	return parseDuration(s.TTL, 30*24*time.Hour)
}

func (l LinkCheckConfig) IntervalDuration() time.Duration {
	return parseDuration(l.Interval, 6*time.Hour)
}

func (l LinkCheckConfig) TimeoutDuration() time.Duration {
	return parseDuration(l.Timeout, 10*time.Second)
}

func (l LinkCheckConfig) CacheTTLDuration() time.Duration {
	return parseDuration(l.CacheTTL, 24*time.Hour)
}

func (l LinkCheckConfig) CacheTTLFailuresDuration() time.Duration {
	return parseDuration(l.CacheTTLFailures, time.Hour)
}
