// Package observability attaches request-scoped fields to log records and
// builds the process logger.
package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/linkbio/internal/logfields"
)

// LogContext is what the request pipeline knows about the current request.
type LogContext struct {
	RequestID string
	UserID    string
	Username  string
	LinkID    string
}

type logContextKey struct{}

func with(ctx context.Context, update func(*LogContext)) context.Context {
	lc := GetContext(ctx)
	update(&lc)
	return context.WithValue(ctx, logContextKey{}, lc)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.RequestID = id })
}

// WithUser records the authenticated user.
func WithUser(ctx context.Context, userID, username string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.UserID, lc.Username = userID, username })
}

func WithLinkID(ctx context.Context, id string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.LinkID = id })
}

// GetContext returns the fields stored in ctx; the zero value when none.
func GetContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	lc, _ := ctx.Value(logContextKey{}).(LogContext)
	return lc
}

// Attrs returns the non-empty fields of lc as log attributes.
func (lc LogContext) Attrs() []slog.Attr {
	var attrs []slog.Attr
	add := func(key, v string) {
		if v != "" {
			attrs = append(attrs, slog.String(key, v))
		}
	}
	add(logfields.KeyRequestID, lc.RequestID)
	add(logfields.KeyUserID, lc.UserID)
	add(logfields.KeyUsername, lc.Username)
	add(logfields.KeyLinkID, lc.LinkID)
	return attrs
}

// ContextHandler adds the LogContext of each record's context to the record.
// Keys the record already carries are left alone.
type ContextHandler struct {
	slog.Handler
}

func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := GetContext(ctx).Attrs()
	if len(attrs) == 0 {
		return h.Handler.Handle(ctx, r)
	}
	present := make(map[string]bool, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		present[a.Key] = true
		return true
	})
	r = r.Clone()
	for _, a := range attrs {
		if !present[a.Key] {
			r.AddAttrs(a)
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ContextHandler{h.Handler.WithAttrs(attrs)}
}

func (h ContextHandler) WithGroup(name string) slog.Handler {
	return ContextHandler{h.Handler.WithGroup(name)}
}

// NewLogger builds a text or JSON logger whose level follows levelVar, so a
// config reload can change verbosity in place.
func NewLogger(w io.Writer, format string, levelVar *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelVar}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(ContextHandler{h})
}
