package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/linkbio/internal/foundation/normalization"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

var uploadProviderNormalizer = normalization.NewNormalizer(map[string]UploadProvider{
	"cloudinary": UploadProviderCloudinary,
	"local":      UploadProviderLocal,
}, "")

// NormalizeConfig canonicalizes enumerated and bounded fields prior to default application.
// It mutates the provided config in-place.
func NormalizeConfig(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	if c == nil {
		return res
	}
	normalizeUpload(&c.Upload, res)
	normalizeLinkCheck(&c.LinkCheck)
	normalizeMonitoring(&c.Monitoring, res)
	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	return res
}

func normalizeUpload(u *UploadConfig, res *NormalizationResult) {
	raw := strings.TrimSpace(string(u.Provider))
	if raw != "" {
		// Unknown providers are kept as-is so validation can reject them.
		if p, ok := uploadProviderNormalizer.Lookup(raw); ok {
			if p != u.Provider {
				res.Warnings = append(res.Warnings, warnChanged("upload.provider", u.Provider, p))
			}
			u.Provider = p
		}
	}
	if u.MaxBytes < 0 {
		u.MaxBytes = 0
	}
	raw = strings.TrimSpace(string(u.Retry.Backoff))
	if raw != "" {
		if rb := NormalizeRetryBackoff(raw); rb != "" {
			u.Retry.Backoff = rb
		} else {
			res.Warnings = append(res.Warnings, warnUnknown("upload.retry.backoff", raw, string(RetryBackoffExponential)))
			u.Retry.Backoff = RetryBackoffExponential
		}
	}
	if u.Retry.MaxRetries < 0 {
		u.Retry.MaxRetries = 0
	}
}

func normalizeLinkCheck(l *LinkCheckConfig) {
	if l.MaxConcurrent < 0 {
		l.MaxConcurrent = 0
	}
	if l.MaxRedirects < 0 {
		l.MaxRedirects = 0
	}
}

func normalizeMonitoring(m *MonitoringConfig, res *NormalizationResult) {
	if raw := strings.TrimSpace(string(m.Logging.Level)); raw != "" {
		lvl, ok := logLevelNormalizer.Lookup(raw)
		if !ok {
			res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.level", raw, string(LogLevelInfo)))
			lvl = LogLevelInfo
		}
		m.Logging.Level = lvl
	}
	if raw := strings.TrimSpace(string(m.Logging.Format)); raw != "" {
		f, ok := logFormatNormalizer.Lookup(raw)
		if !ok {
			res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.format", raw, string(LogFormatText)))
			f = LogFormatText
		}
		m.Logging.Format = f
	}
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
