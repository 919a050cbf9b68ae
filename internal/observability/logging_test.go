package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextChaining(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithUser(ctx, "u-1", "bob")
	ctx = WithLinkID(ctx, "link-1")

	want := LogContext{RequestID: "req-1", UserID: "u-1", Username: "bob", LinkID: "link-1"}
	if got := GetContext(ctx); got != want {
		t.Errorf("GetContext = %+v, want %+v", got, want)
	}
}

func TestContextIsolation(t *testing.T) {
	parent := WithRequestID(context.Background(), "req-parent")
	child := WithLinkID(parent, "link-child")

	if GetContext(parent).LinkID != "" {
		t.Error("parent context must not see child values")
	}
	if GetContext(child).RequestID != "req-parent" {
		t.Error("child context must inherit parent values")
	}
}

func TestEmptyContext(t *testing.T) {
	if lc := GetContext(context.Background()); lc != (LogContext{}) {
		t.Errorf("expected empty log context, got %+v", lc)
	}
	if attrs := (LogContext{}).Attrs(); len(attrs) != 0 {
		t.Errorf("expected no attrs, got %v", attrs)
	}
}

func TestContextHandlerAddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "text", new(slog.LevelVar))

	ctx := WithUser(WithRequestID(context.Background(), "req-9"), "u-9", "carol")
	logger.InfoContext(ctx, "Link created", slog.String("extra", "value"))

	out := buf.String()
	for _, want := range []string{"request_id=req-9", "user_id=u-9", "username=carol", "extra=value"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %s", want, out)
		}
	}
}

func TestContextHandlerKeepsExplicitFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "text", new(slog.LevelVar))

	ctx := WithUser(context.Background(), "from-ctx", "carol")
	logger.InfoContext(ctx, "Link deleted", slog.String("user_id", "explicit"))

	out := buf.String()
	if strings.Count(out, "user_id=") != 1 || !strings.Contains(out, "user_id=explicit") {
		t.Errorf("expected only the explicit user_id, got %s", out)
	}
}

func TestContextHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "json", new(slog.LevelVar)).With(slog.String("component", "linkcheck"))

	logger.InfoContext(WithLinkID(context.Background(), "l-1"), "checked")
	out := buf.String()
	if !strings.Contains(out, `"component":"linkcheck"`) || !strings.Contains(out, `"link_id":"l-1"`) {
		t.Errorf("unexpected record %s", out)
	}
}

func TestNewLoggerFollowsLevelVar(t *testing.T) {
	var buf bytes.Buffer
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelWarn)
	logger := NewLogger(&buf, "json", lv)

	logger.Info("before")
	if buf.Len() != 0 {
		t.Fatalf("info should be suppressed at warn level, got %s", buf.String())
	}

	lv.Set(slog.LevelDebug)
	logger.Debug("after")
	if !strings.Contains(buf.String(), `"msg":"after"`) {
		t.Errorf("expected json debug record after level change, got %s", buf.String())
	}
}
