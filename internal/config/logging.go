package config

import (
	"log/slog"

	"git.home.luguber.info/inful/linkbio/internal/foundation/normalization"
)

// LogLevel is a monitoring.logging.level value.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var slogLevels = map[LogLevel]slog.Level{
	LogLevelDebug: slog.LevelDebug,
	LogLevelInfo:  slog.LevelInfo,
	LogLevelWarn:  slog.LevelWarn,
	LogLevelError: slog.LevelError,
}

var logLevelNormalizer = func() *normalization.Normalizer[LogLevel] {
	n := normalization.NewNormalizer(map[string]LogLevel{}, LogLevelInfo)
	for l := range slogLevels {
		n.Add(string(l), l)
	}
	n.Add("warning", LogLevelWarn)
	return n
}()

// NormalizeLogLevel maps user input to a level; unknown input means info.
func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}

// SlogLevel is the slog equivalent; unknown levels map to info.
func (l LogLevel) SlogLevel() slog.Level {
	return slogLevels[l]
}

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer(map[string]LogFormat{
	string(LogFormatJSON): LogFormatJSON,
	string(LogFormatText): LogFormatText,
}, LogFormatText)
