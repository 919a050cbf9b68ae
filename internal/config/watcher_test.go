package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "session:\n  secret: "+testSecret+"\nmonitoring:\n  logging:\n    level: info\n")

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, 50*time.Millisecond, func(_ context.Context, cfg *Config) error {
		reloaded <- cfg
		return nil
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	update := "session:\n  secret: " + testSecret + "\nmonitoring:\n  logging:\n    level: debug\n"
	if err := os.WriteFile(path, []byte(update), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Monitoring.Logging.Level != LogLevelDebug {
			t.Errorf("reloaded level = %q", cfg.Monitoring.Logging.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherSkipsInvalidConfig(t *testing.T) {
	path := writeConfig(t, "session:\n  secret: "+testSecret+"\n")

	reloaded := make(chan struct{}, 1)
	w, err := NewWatcher(path, 20*time.Millisecond, func(context.Context, *Config) error {
		reloaded <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("session:\n  secret: short\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case <-reloaded:
		t.Fatal("invalid configuration must not be applied")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(writeConfig(t, ""), 0, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop()
}
