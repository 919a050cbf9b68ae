package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/linkbio/internal/config"
	"git.home.luguber.info/inful/linkbio/internal/logfields"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr    string `help:"Override server.addr"`
	NoWatch bool   `name:"no-watch" help:"Do not reload the configuration file on change"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunServe(ctx, cfg, g, s.watchPath(root.Config))
}

func (s *ServeCmd) watchPath(configPath string) string {
	if s.NoWatch || configPath == "" {
		return ""
	}
	if _, err := os.Stat(configPath); err != nil {
		return ""
	}
	return configPath
}

// RunServe runs the application until ctx is canceled. A non-empty
// configPath is watched and reloaded on change.
func RunServe(ctx context.Context, cfg *config.Config, g *Global, configPath string) error {
	app, err := NewApp(ctx, cfg, g)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	if err := app.Start(ctx); err != nil {
		_ = app.Stop(context.Background())
		return fmt.Errorf("failed to start application: %w", err)
	}

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, 0, app.Reload)
		if err != nil {
			slog.Warn("Configuration hot reload disabled", logfields.Error(err))
		} else if err := watcher.Start(ctx); err != nil {
			slog.Warn("Configuration hot reload disabled", logfields.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	slog.Info("linkbio started, waiting for shutdown signal...", slog.String("addr", app.Addr()))
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}
	slog.Info("linkbio stopped successfully")
	return nil
}
