// Package commands implements the linkbio CLI subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/linkbio/internal/config"
	"git.home.luguber.info/inful/linkbio/internal/logfields"
	"git.home.luguber.info/inful/linkbio/internal/observability"
	"git.home.luguber.info/inful/linkbio/internal/store"
)

// Global is the state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	Level  *slog.LevelVar

	// Out receives user-facing command output; nil means stdout.
	Out io.Writer
	// verbose pins the level to debug regardless of configuration.
	verbose bool
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// ConfigureLogging applies the configured level and format. The level keeps
// following reloads through the shared LevelVar.
func (g *Global) ConfigureLogging(cfg config.MonitoringLogging) {
	if g.Level == nil {
		g.Level = new(slog.LevelVar)
	}
	g.SetLevel(cfg.Level)
	if cfg.Format == config.LogFormatJSON {
		g.Logger = observability.NewLogger(os.Stderr, string(cfg.Format), g.Level)
		slog.SetDefault(g.Logger)
	}
	if g.Logger == nil {
		g.Logger = slog.Default()
	}
}

// SetLevel changes the log level unless --verbose was given.
func (g *Global) SetLevel(level config.LogLevel) {
	if g.verbose {
		g.Level.Set(slog.LevelDebug)
		return
	}
	g.Level.Set(level.SlogLevel())
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"linkbio.yaml" env:"LINKBIO_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve      ServeCmd      `cmd:"" help:"Run the HTTP server and the background link checker"`
	Migrate    MigrateCmd    `cmd:"" help:"Apply database migrations"`
	Init       InitCmd       `cmd:"" help:"Initialize a new configuration file"`
	User       UserCmd       `cmd:"" help:"Manage users"`
	CheckLinks CheckLinksCmd `cmd:"" name:"check-links" help:"Probe every active link once and record its health"`
}

// AfterApply runs after flag parsing; --verbose takes effect before any
// configuration is read.
func (c *CLI) AfterApply(g *Global) error {
	g.verbose = c.Verbose
	if g.Level != nil && c.Verbose {
		g.Level.Set(slog.LevelDebug)
	}
	return nil
}

// loadConfig loads the configuration file and applies its logging settings.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	g.ConfigureLogging(cfg.Monitoring.Logging)
	g.Logger.Debug("Loaded configuration", logfields.ConfigPath(c.Config))
	return cfg, nil
}

// openStore opens the database and brings its schema up to date.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
