package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/linkbio/internal/logfields"
)

// ReloadFunc receives a freshly loaded and validated configuration.
type ReloadFunc func(ctx context.Context, cfg *Config) error

// Watcher monitors the configuration file and reloads it after changes settle.
type Watcher struct {
	configPath   string
	onReload     ReloadFunc
	watcher      *fsnotify.Watcher
	debounceTime time.Duration

	mu       sync.Mutex
	stopOnce sync.Once
	stopChan chan struct{}
	reload   chan struct{}
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher for configPath. debounce <= 0 selects 2s.
func NewWatcher(configPath string, debounce time.Duration, onReload ReloadFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	return &Watcher{
		configPath:   absPath,
		onReload:     onReload,
		watcher:      fw,
		debounceTime: debounce,
		stopChan:     make(chan struct{}),
		reload:       make(chan struct{}, 1),
	}, nil
}

// Start begins monitoring. The directory is watched rather than the file so
// editors that replace the file atomically are still observed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", dir, err)
	}

	slog.Info("Starting configuration watcher", logfields.ConfigPath(w.configPath))

	w.wg.Add(2)
	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

// Stop terminates the watcher goroutines and waits for them to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		if err := w.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	})
	w.wg.Wait()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()
	configFile := filepath.Base(w.configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				slog.Debug("Config file change detected", "file", event.Name, "op", event.Op.String())
				w.triggerReload()
			case event.Op&fsnotify.Remove != 0:
				slog.Warn("Config file removed", "file", event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) reloadLoop(ctx context.Context) {
	defer w.wg.Done()
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.reload:
			if timer == nil {
				timer = time.NewTimer(w.debounceTime)
			} else {
				timer.Reset(w.debounceTime)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := w.performReload(ctx); err != nil {
				slog.Error("Failed to reload configuration", logfields.ConfigPath(w.configPath), logfields.Error(err))
			}
		}
	}
}

func (w *Watcher) triggerReload() {
	select {
	case w.reload <- struct{}{}:
	default:
	}
}

func (w *Watcher) performReload(ctx context.Context) error {
	slog.Info("Reloading configuration", logfields.ConfigPath(w.configPath))

	cfg, err := Load(w.configPath)
	if err != nil {
		return fmt.Errorf("failed to load new configuration: %w", err)
	}
	if w.onReload != nil {
		if err := w.onReload(ctx, cfg); err != nil {
			return fmt.Errorf("failed to apply new configuration: %w", err)
		}
	}

	slog.Info("Configuration reloaded successfully")
	return nil
}
