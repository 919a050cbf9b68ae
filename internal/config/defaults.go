package config

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier runs every domain applier in order.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier returns the applier chain used by Load.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{appliers: []DefaultApplier{
		&ServerDefaultApplier{},
		&DatabaseDefaultApplier{},
		&SessionDefaultApplier{},
		&UploadDefaultApplier{},
		&LinkCheckDefaultApplier{},
		&NATSDefaultApplier{},
		&MonitoringDefaultApplier{},
	}}
}

func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, a := range c.appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// ServerDefaultApplier handles Server configuration defaults.
type ServerDefaultApplier struct{}

func (s *ServerDefaultApplier) Domain() string { return "server" }

func (s *ServerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:3000"
	}
	if cfg.Server.ReadTimeout == "" {
		cfg.Server.ReadTimeout = "15s"
	}
	if cfg.Server.WriteTimeout == "" {
		cfg.Server.WriteTimeout = "30s"
	}
	return nil
}

// DatabaseDefaultApplier handles Database configuration defaults.
type DatabaseDefaultApplier struct{}

func (d *DatabaseDefaultApplier) Domain() string { return "database" }

func (d *DatabaseDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./linkbio.db"
	}
	return nil
}

// SessionDefaultApplier handles Session configuration defaults. The secret has no default.
type SessionDefaultApplier struct{}

func (s *SessionDefaultApplier) Domain() string { return "session" }

func (s *SessionDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Session.TTL == "" {
		cfg.Session.TTL = "720h"
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "linkbio_session"
	}
	return nil
}

// UploadDefaultApplier handles Upload configuration defaults.
type UploadDefaultApplier struct{}

func (u *UploadDefaultApplier) Domain() string { return "upload" }

func (u *UploadDefaultApplier) ApplyDefaults(cfg *Config) error {
	up := &cfg.Upload
	if up.Provider == "" {
		if up.Cloudinary.Configured() {
			up.Provider = UploadProviderCloudinary
		} else {
			up.Provider = UploadProviderLocal
		}
	}
	if up.MaxBytes == 0 {
		up.MaxBytes = 5 << 20
	}
	if up.Folder == "" {
		up.Folder = "link-app/avatars"
	}
	if up.LocalDir == "" {
		up.LocalDir = "./data/media"
	}
	if up.Retry.Backoff == "" {
		up.Retry.Backoff = RetryBackoffExponential
	}
	if up.Retry.InitialDelay == "" {
		up.Retry.InitialDelay = "500ms"
	}
	if up.Retry.MaxDelay == "" {
		up.Retry.MaxDelay = "5s"
	}
	if up.Retry.MaxRetries == 0 {
		up.Retry.MaxRetries = 2
	}
	return nil
}

// LinkCheckDefaultApplier handles LinkCheck configuration defaults.
type LinkCheckDefaultApplier struct{}

func (l *LinkCheckDefaultApplier) Domain() string { return "link_check" }

func (l *LinkCheckDefaultApplier) ApplyDefaults(cfg *Config) error {
	lc := &cfg.LinkCheck
	if lc.Interval == "" {
		lc.Interval = "6h"
	}
	if lc.Timeout == "" {
		lc.Timeout = "10s"
	}
	if lc.MaxConcurrent == 0 {
		lc.MaxConcurrent = 4
	}
	if lc.MaxRedirects == 0 {
		lc.MaxRedirects = 5
	}
	if lc.CacheTTL == "" {
		lc.CacheTTL = "24h"
	}
	if lc.CacheTTLFailures == "" {
		lc.CacheTTLFailures = "1h"
	}
	if lc.UserAgent == "" {
		lc.UserAgent = "linkbio-linkcheck/1.0"
	}
	return nil
}

// NATSDefaultApplier handles NATS configuration defaults. The URL has no default.
type NATSDefaultApplier struct{}

func (n *NATSDefaultApplier) Domain() string { return "nats" }

func (n *NATSDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = "linkbio"
	}
	if cfg.NATS.KVBucket == "" {
		cfg.NATS.KVBucket = "linkbio-linkcheck"
	}
	return nil
}

// MonitoringDefaultApplier handles Monitoring configuration defaults.
type MonitoringDefaultApplier struct{}

func (m *MonitoringDefaultApplier) Domain() string { return "monitoring" }

func (m *MonitoringDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = "/metrics"
	}
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = LogLevelInfo
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = LogFormatText
	}
	return nil
}
