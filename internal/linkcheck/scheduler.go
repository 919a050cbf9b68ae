package linkcheck

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/linkbio/internal/logfields"
)

const jobName = "link-check"

// Scheduler runs CheckAll periodically with gocron.
type Scheduler struct {
	scheduler gocron.Scheduler
	service   *Service

	mu      sync.Mutex
	job     gocron.Job
	timeout time.Duration
}

// NewScheduler creates a scheduler with nothing scheduled.
func NewScheduler(service *Service) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, service: service}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting link check scheduler")
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for a running check to finish.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping link check scheduler")
	return s.scheduler.Shutdown()
}

// Schedule runs the link check every interval, replacing any previous
// schedule. Each run is bounded by interval. When immediate is set the first
// run starts right away.
func (s *Scheduler) Schedule(interval time.Duration, immediate bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked()
	s.timeout = interval

	opts := []gocron.JobOption{
		gocron.WithName(jobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediate {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	job, err := s.scheduler.NewJob(gocron.DurationJob(interval), gocron.NewTask(s.run), opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create link check job: %w", err)
	}
	s.job = job
	slog.Info("Scheduled link check", slog.Duration("interval", interval), logfields.JobID(job.ID().String()))
	return job.ID().String(), nil
}

// Unschedule removes the periodic job, if any.
func (s *Scheduler) Unschedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked()
}

// Scheduled reports whether a periodic job is registered.
func (s *Scheduler) Scheduled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job != nil
}

func (s *Scheduler) removeLocked() {
	if s.job == nil {
		return
	}
	if err := s.scheduler.RemoveJob(s.job.ID()); err != nil {
		slog.Warn("Failed to remove link check job", logfields.Error(err))
	}
	s.job = nil
}

// RunTimeout is the bound applied to each scheduled run.
func (s *Scheduler) RunTimeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

// run is called by gocron.
func (s *Scheduler) run() {
	ctx := context.Background()
	if timeout := s.RunTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if _, err := s.service.CheckAll(ctx); err != nil {
		slog.Error("Scheduled link check failed", logfields.Error(err))
	}
}
