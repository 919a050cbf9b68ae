package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

// minSessionSecretLen is the shortest accepted HS256 signing secret.
const minSessionSecretLen = 16

// ValidateConfig validates the complete configuration after defaults were applied.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	steps := []func() error{
		cv.validateServer,
		cv.validateDatabase,
		cv.validateSession,
		cv.validateUpload,
		cv.validateLinkCheck,
		cv.validateNATS,
		cv.validateMonitoring,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return errors.ConfigError(fmt.Sprintf(format, args...)).
		WithContext("field", field).
		Build()
}

func (cv *configurationValidator) validateServer() error {
	s := cv.config.Server
	if strings.TrimSpace(s.Addr) == "" {
		return invalid("server.addr", "server.addr cannot be empty")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("server.base_url", "server.base_url must be an absolute http(s) URL: %q", s.BaseURL)
	}
	if err := validateDuration("server.read_timeout", s.ReadTimeout); err != nil {
		return err
	}
	return validateDuration("server.write_timeout", s.WriteTimeout)
}

func (cv *configurationValidator) validateDatabase() error {
	if strings.TrimSpace(cv.config.Database.Path) == "" {
		return invalid("database.path", "database.path cannot be empty")
	}
	return nil
}

func (cv *configurationValidator) validateSession() error {
	s := cv.config.Session
	if s.Secret == "" {
		return invalid("session.secret", "session.secret is required (set LINKBIO_SESSION_SECRET)")
	}
	if len(s.Secret) < minSessionSecretLen {
		return invalid("session.secret", "session.secret must be at least %d characters", minSessionSecretLen)
	}
	if strings.ContainsAny(s.CookieName, " ;,=") {
		return invalid("session.cookie_name", "session.cookie_name contains invalid characters: %q", s.CookieName)
	}
	return validateDuration("session.ttl", s.TTL)
}

func (cv *configurationValidator) validateUpload() error {
	u := cv.config.Upload
	switch u.Provider {
	case UploadProviderCloudinary, UploadProviderLocal:
	default:
		return invalid("upload.provider", "invalid upload.provider %q, valid options: [cloudinary local]", u.Provider)
	}
	if u.MaxBytes <= 0 {
		return invalid("upload.max_bytes", "upload.max_bytes must be positive")
	}
	if err := validateDuration("upload.retry.initial_delay", u.Retry.InitialDelay); err != nil {
		return err
	}
	if err := validateDuration("upload.retry.max_delay", u.Retry.MaxDelay); err != nil {
		return err
	}
	if u.Retry.MaxRetries > 10 {
		return invalid("upload.retry.max_retries", "upload.retry.max_retries cannot exceed 10")
	}
	if u.Quota.PerHour < 0 || u.Quota.PerDay < 0 || u.Quota.MaxBytesPerDay < 0 {
		return invalid("upload.quota", "upload.quota limits cannot be negative")
	}
	return nil
}

func (cv *configurationValidator) validateLinkCheck() error {
	lc := cv.config.LinkCheck
	for field, raw := range map[string]string{
		"link_check.interval":           lc.Interval,
		"link_check.timeout":            lc.Timeout,
		"link_check.cache_ttl":          lc.CacheTTL,
		"link_check.cache_ttl_failures": lc.CacheTTLFailures,
	} {
		if err := validateDuration(field, raw); err != nil {
			return err
		}
	}
	if lc.IntervalDuration() < time.Minute {
		return invalid("link_check.interval", "link_check.interval must be at least 1m")
	}
	if lc.MaxConcurrent > 64 {
		return invalid("link_check.max_concurrent", "link_check.max_concurrent cannot exceed 64")
	}
	return nil
}

func (cv *configurationValidator) validateNATS() error {
	n := cv.config.NATS
	if n.URL == "" {
		return nil
	}
	if strings.ContainsAny(n.SubjectPrefix, " *>") {
		return invalid("nats.subject_prefix", "nats.subject_prefix contains invalid characters: %q", n.SubjectPrefix)
	}
	if strings.ContainsAny(n.KVBucket, " .*>") {
		return invalid("nats.kv_bucket", "nats.kv_bucket contains invalid characters: %q", n.KVBucket)
	}
	return nil
}

func (cv *configurationValidator) validateMonitoring() error {
	p := cv.config.Monitoring.Metrics.Path
	if cv.config.Monitoring.Metrics.Enabled && !strings.HasPrefix(p, "/") {
		return invalid("monitoring.metrics.path", "monitoring.metrics.path must start with '/': %q", p)
	}
	return nil
}

func validateDuration(field, raw string) error {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return invalid(field, "invalid %s: %v", field, err)
	}
	if d <= 0 {
		return invalid(field, "%s must be positive", field)
	}
	return nil
}
