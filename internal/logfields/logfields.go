package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyUserID     = "user_id"
	KeyUsername   = "username"
	KeyLinkID     = "link_id"
	KeyURL        = "url"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyRequestID  = "request_id"
	KeyResponseSz = "response_size"
	KeyDurationMS = "duration_ms"
	KeyProvider   = "provider"
	KeySubject    = "subject"
	KeyJobID      = "job_id"
	KeyCount      = "count"
	KeyConfigPath = "config_path"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func UserID(id string) slog.Attr      { return slog.String(KeyUserID, id) }
func Username(u string) slog.Attr     { return slog.String(KeyUsername, u) }
func LinkID(id string) slog.Attr      { return slog.String(KeyLinkID, id) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func ResponseSize(n int) slog.Attr    { return slog.Int(KeyResponseSz, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Provider(p string) slog.Attr     { return slog.String(KeyProvider, p) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func ConfigPath(p string) slog.Attr   { return slog.String(KeyConfigPath, p) }

// Error logs err as text, or as a group when err knows how to log itself.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	if lv, ok := err.(slog.LogValuer); ok {
		return slog.Any(KeyError, lv)
	}
	return slog.String(KeyError, err.Error())
}
