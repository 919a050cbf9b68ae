// Package linkcheck probes the URLs of active links and records whether they
// still resolve.
package linkcheck

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/linkbio/internal/config"
	"git.home.luguber.info/inful/linkbio/internal/events"
	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/logfields"
	"git.home.luguber.info/inful/linkbio/internal/metrics"
	"git.home.luguber.info/inful/linkbio/internal/store"
)

// ErrAlreadyRunning is returned when a run is requested while one is active.
var ErrAlreadyRunning = errors.RuntimeError("link check already running").Build()

// Store is the persistence the checker needs.
type Store interface {
	ListAllActiveLinks(ctx context.Context) ([]store.Link, error)
	RecordLinkHealth(ctx context.Context, id string, h store.Health) error
}

// Settings tune a Service. They can be swapped at runtime with Reconfigure.
type Settings struct {
	MaxConcurrent    int
	CacheTTL         time.Duration
	CacheTTLFailures time.Duration
}

// SettingsFromConfig extracts Settings from the link check configuration.
func SettingsFromConfig(c config.LinkCheckConfig) Settings {
	return Settings{
		MaxConcurrent:    c.MaxConcurrent,
		CacheTTL:         c.CacheTTLDuration(),
		CacheTTLFailures: c.CacheTTLFailuresDuration(),
	}
}

// Summary counts the outcomes of one run.
type Summary struct {
	Checked int
	Healthy int
	Broken  int
	Cached  int
}

// Service runs link health checks.
type Service struct {
	store     Store
	cache     Cache
	checker   *Checker
	publisher events.Publisher
	recorder  metrics.Recorder
	now       func() time.Time

	mu       sync.Mutex
	settings Settings
	running  atomic.Bool
}

// NewService creates a link check service. A nil cache keeps results in memory.
func NewService(st Store, cache Cache, checker *Checker, publisher events.Publisher, recorder metrics.Recorder, settings Settings) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Service{
		store:     st,
		cache:     cache,
		checker:   checker,
		publisher: events.OrNoop(publisher),
		recorder:  metrics.OrNoop(recorder),
		now:       time.Now,
		settings:  normalizeSettings(settings),
	}
}

func normalizeSettings(s Settings) Settings {
	if s.MaxConcurrent <= 0 {
		s.MaxConcurrent = 4
	}
	if s.CacheTTL <= 0 {
		s.CacheTTL = 24 * time.Hour
	}
	if s.CacheTTLFailures <= 0 {
		s.CacheTTLFailures = time.Hour
	}
	return s
}

// Reconfigure replaces the settings used by subsequent runs.
func (s *Service) Reconfigure(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = normalizeSettings(settings)
}

func (s *Service) currentSettings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// CheckAll probes every active link once. Links sharing a URL share one cache
// entry. Only one run may be active at a time.
func (s *Service) CheckAll(ctx context.Context) (Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Summary{}, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	links, err := s.store.ListAllActiveLinks(ctx)
	if err != nil {
		return Summary{}, err
	}
	settings := s.currentSettings()
	slog.InfoContext(ctx, "Starting link check", logfields.Count(len(links)))
	start := s.now()

	var (
		mu      sync.Mutex
		summary Summary
	)
	g := new(errgroup.Group)
	g.SetLimit(settings.MaxConcurrent)
	for _, link := range links {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome := s.checkLink(ctx, link, settings)
			mu.Lock()
			defer mu.Unlock()
			summary.Checked++
			switch outcome {
			case metrics.ResultCached:
				summary.Cached++
			case metrics.ResultSuccess:
				summary.Healthy++
			case metrics.ResultBroken:
				summary.Broken++
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		slog.InfoContext(ctx, "Link check canceled", logfields.Count(summary.Checked))
		return summary, err
	}
	slog.InfoContext(ctx, "Link check completed",
		logfields.Count(summary.Checked),
		slog.Int("healthy", summary.Healthy),
		slog.Int("broken", summary.Broken),
		slog.Int("cached", summary.Cached),
		logfields.DurationMS(float64(s.now().Sub(start).Milliseconds())))
	return summary, nil
}

// checkLink probes one link, or reuses a fresh cached result for its URL.
func (s *Service) checkLink(ctx context.Context, link store.Link, settings Settings) metrics.ResultLabel {
	cached, err := s.cache.Get(ctx, link.URL)
	if err != nil && !stderrors.Is(err, ErrCacheMiss) {
		slog.DebugContext(ctx, "Cache lookup error", logfields.URL(link.URL), logfields.Error(err))
	}
	if err == nil && cached.Fresh(s.now(), settings.CacheTTL, settings.CacheTTLFailures) {
		s.record(ctx, link, cached)
		s.recorder.IncLinkCheck(metrics.ResultCached)
		return metrics.ResultCached
	}

	res := s.checker.Check(ctx, link.URL)
	if ctx.Err() != nil {
		return metrics.ResultFailure
	}
	entry := &CacheEntry{
		URL:       link.URL,
		Status:    res.Status,
		Healthy:   res.Healthy,
		Title:     res.Title,
		Error:     res.Error,
		CheckedAt: s.now().UTC(),
	}
	if !res.Healthy {
		entry.FailureCount = 1
		entry.FirstFailedAt = entry.CheckedAt
		if cached != nil && !cached.Healthy {
			entry.FailureCount = cached.FailureCount + 1
			if !cached.FirstFailedAt.IsZero() {
				entry.FirstFailedAt = cached.FirstFailedAt
			}
		}
	}
	if err := s.cache.Set(ctx, entry); err != nil {
		slog.WarnContext(ctx, "Failed to update link cache", logfields.URL(link.URL), logfields.Error(err))
	}
	s.record(ctx, link, entry)

	if res.Healthy {
		s.recorder.IncLinkCheck(metrics.ResultSuccess)
		return metrics.ResultSuccess
	}
	s.recorder.IncLinkCheck(metrics.ResultBroken)
	s.publishBroken(ctx, link, entry)
	return metrics.ResultBroken
}

func (s *Service) record(ctx context.Context, link store.Link, e *CacheEntry) {
	h := store.Health{Healthy: e.Healthy, CheckedAt: e.CheckedAt}
	if e.Status != 0 {
		status := e.Status
		h.Status = &status
	}
	if e.Title != "" {
		title := e.Title
		h.PageTitle = &title
	}
	if err := s.store.RecordLinkHealth(ctx, link.ID, h); err != nil {
		// The link may have been deleted while the run was in flight.
		slog.DebugContext(ctx, "Failed to record link health", logfields.LinkID(link.ID), logfields.Error(err))
	}
}

func (s *Service) publishBroken(ctx context.Context, link store.Link, e *CacheEntry) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:         events.TypeLinkBroken,
		UserID:       link.UserID,
		LinkID:       link.ID,
		URL:          link.URL,
		Status:       e.Status,
		Error:        e.Error,
		FailureCount: e.FailureCount,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish broken link event", logfields.URL(link.URL), logfields.Error(err))
		return
	}
	slog.WarnContext(ctx, "Broken link detected",
		logfields.URL(link.URL),
		logfields.LinkID(link.ID),
		logfields.UserID(link.UserID),
		logfields.Status(e.Status),
		slog.String("error", e.Error))
}

// Close releases the checker's connections and the cache.
func (s *Service) Close() error {
	if s.checker != nil {
		s.checker.Close()
	}
	return s.cache.Close()
}
