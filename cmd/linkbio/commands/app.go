package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/linkbio/internal/auth"
	"git.home.luguber.info/inful/linkbio/internal/config"
	"git.home.luguber.info/inful/linkbio/internal/events"
	"git.home.luguber.info/inful/linkbio/internal/linkcheck"
	"git.home.luguber.info/inful/linkbio/internal/links"
	"git.home.luguber.info/inful/linkbio/internal/logfields"
	"git.home.luguber.info/inful/linkbio/internal/metrics"
	"git.home.luguber.info/inful/linkbio/internal/profile"
	"git.home.luguber.info/inful/linkbio/internal/quota"
	"git.home.luguber.info/inful/linkbio/internal/render"
	"git.home.luguber.info/inful/linkbio/internal/server"
	"git.home.luguber.info/inful/linkbio/internal/store"
	"git.home.luguber.info/inful/linkbio/internal/upload"
)

const natsClientName = "linkbio"

// App is the fully wired linkbio process.
type App struct {
	global *Global
	cfg    *config.Config

	store     *store.Store
	nc        *nats.Conn
	publisher events.Publisher
	recorder  metrics.Recorder
	quota     *quota.Manager
	server    *server.Server
	checker   *linkcheck.Service
	scheduler *linkcheck.Scheduler
}

// NewApp wires every component from cfg. Nothing listens until Start.
func NewApp(ctx context.Context, cfg *config.Config, g *Global) (*App, error) {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{global: g, cfg: cfg}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = st

	var metricsHandler http.Handler
	if cfg.Monitoring.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		a.recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	} else {
		a.recorder = metrics.NoopRecorder{}
	}

	if err := a.connectNATS(); err != nil {
		a.closeResources()
		return nil, err
	}

	uploader, local, err := upload.FromConfig(cfg.Upload, cfg.Server.BaseURL, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		a.closeResources()
		return nil, err
	}

	renderer, err := render.New()
	if err != nil {
		a.closeResources()
		return nil, err
	}

	sessions := auth.NewSessionManager(auth.SessionConfig{
		Secret:     cfg.Session.Secret,
		TTL:        cfg.Session.TTLDuration(),
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Server.CookieSecure,
	})

	opts := server.Options{
		Addr:           cfg.Server.Addr,
		BaseURL:        cfg.Server.BaseURL,
		ReadTimeout:    cfg.Server.ReadTimeoutDuration(),
		WriteTimeout:   cfg.Server.WriteTimeoutDuration(),
		MaxUploadBytes: cfg.Upload.MaxBytes,
		MetricsPath:    cfg.Monitoring.Metrics.Path,
		MetricsHandler: metricsHandler,
	}
	if local != nil {
		opts.Media = local.Handler()
	}

	a.quota = quota.NewManager(quotaLimits(cfg.Upload.Quota))
	a.server = server.New(server.Deps{
		DB:       st,
		Auth:     auth.NewService(st, a.recorder),
		Sessions: sessions,
		Links:    links.NewService(st, a.publisher, a.recorder),
		Profile:  profile.NewService(st, uploader, a.publisher, a.recorder, profile.Options{Folder: cfg.Upload.Folder, Quota: a.quota}),
		Renderer: renderer,
		Recorder: a.recorder,
		Logger:   logger,
	}, opts)

	a.checker = newLinkCheckService(ctx, cfg, st, a.nc, a.publisher, a.recorder)
	scheduler, err := linkcheck.NewScheduler(a.checker)
	if err != nil {
		a.closeResources()
		return nil, err
	}
	a.scheduler = scheduler

	logger.Info("Application wired",
		slog.String("upload_provider", uploader.Name()),
		slog.Bool("nats", a.nc != nil),
		slog.Bool("metrics", cfg.Monitoring.Metrics.Enabled),
		slog.Bool("link_check", cfg.LinkCheck.Enabled))
	return a, nil
}

func quotaLimits(c config.QuotaConfig) quota.Limits {
	return quota.Limits{PerHour: c.PerHour, PerDay: c.PerDay, MaxBytesPerDay: c.MaxBytesPerDay}
}

func (a *App) connectNATS() error {
	if a.cfg.NATS.URL == "" {
		a.publisher = events.NoopPublisher{}
		return nil
	}
	nc, err := events.ConnectNATS(a.cfg.NATS.URL, natsClientName)
	if err != nil {
		return err
	}
	a.nc = nc
	a.publisher = events.NewNATSPublisher(nc, a.cfg.NATS.SubjectPrefix)
	return nil
}

// newLinkCheckService builds the checker with the JetStream KV cache when NATS
// is connected, falling back to an in-process cache.
func newLinkCheckService(ctx context.Context, cfg *config.Config, st *store.Store, nc *nats.Conn, publisher events.Publisher, recorder metrics.Recorder) *linkcheck.Service {
	var cache linkcheck.Cache
	if nc != nil {
		kv, err := linkcheck.NewKVCache(ctx, nc, cfg.NATS.KVBucket)
		if err != nil {
			slog.Warn("Link check KV cache unavailable, using memory cache", logfields.Error(err))
		} else {
			cache = kv
		}
	}
	lc := cfg.LinkCheck
	checker := linkcheck.NewChecker(lc.TimeoutDuration(), lc.MaxRedirects, lc.UserAgent,
		linkcheck.AllowPrivateNetworks(lc.AllowPrivateNetworks))
	return linkcheck.NewService(st, cache, checker, publisher, recorder, linkcheck.SettingsFromConfig(lc))
}

// Start begins serving HTTP and schedules the link checker when enabled.
func (a *App) Start(ctx context.Context) error {
	if err := a.server.Start(ctx); err != nil {
		return err
	}
	a.scheduler.Start()
	if a.cfg.LinkCheck.Enabled {
		if _, err := a.scheduler.Schedule(a.cfg.LinkCheck.IntervalDuration(), true); err != nil {
			return err
		}
	}
	return nil
}

// Addr returns the bound HTTP address once started.
func (a *App) Addr() string { return a.server.Addr() }

// Reload applies a changed configuration. Logging, upload quota and
// link-check settings take effect immediately; the rest needs a restart.
func (a *App) Reload(_ context.Context, cfg *config.Config) error {
	a.global.SetLevel(cfg.Monitoring.Logging.Level)
	a.quota.SetLimits(quotaLimits(cfg.Upload.Quota))

	a.checker.Reconfigure(linkcheck.SettingsFromConfig(cfg.LinkCheck))
	old := a.cfg.LinkCheck
	switch {
	case !cfg.LinkCheck.Enabled:
		a.scheduler.Unschedule()
	case !old.Enabled || old.Interval != cfg.LinkCheck.Interval || !a.scheduler.Scheduled():
		if _, err := a.scheduler.Schedule(cfg.LinkCheck.IntervalDuration(), !old.Enabled); err != nil {
			return err
		}
	}

	if a.needsRestart(cfg) {
		slog.Warn("Server, database, session, upload or NATS settings changed; restart to apply them")
	}
	a.cfg.Upload.Quota = cfg.Upload.Quota
	a.cfg.LinkCheck = cfg.LinkCheck
	a.cfg.Monitoring.Logging = cfg.Monitoring.Logging
	slog.Info("Configuration reloaded")
	return nil
}

// needsRestart reports whether cfg changes settings that Reload cannot apply
// to a running App.
func (a *App) needsRestart(cfg *config.Config) bool {
	uploadCfg := cfg.Upload
	uploadCfg.Quota = a.cfg.Upload.Quota
	return cfg.Server != a.cfg.Server ||
		cfg.Database != a.cfg.Database ||
		cfg.Session != a.cfg.Session ||
		uploadCfg != a.cfg.Upload ||
		cfg.NATS != a.cfg.NATS
}

// Stop shuts the HTTP server down and releases every resource.
func (a *App) Stop(ctx context.Context) error {
	var errs []error
	if err := a.server.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop http server: %w", err))
	}
	if err := a.scheduler.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return stderrors.Join(errs...)
}

func (a *App) closeResources() error {
	var errs []error
	if a.checker != nil {
		if err := a.checker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close link checker: %w", err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return stderrors.Join(errs...)
}
