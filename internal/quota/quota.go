// Package quota limits how many images each user may upload.
package quota

import (
	"fmt"
	"math"
	"sync"
	"time"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

// Limits bound per-user uploads. Zero means unlimited.
type Limits struct {
	PerHour        int64 // Uploads per rolling hour window
	PerDay         int64 // Uploads per 24 hour window
	MaxBytesPerDay int64 // Uploaded bytes per 24 hour window
}

// Usage is a snapshot of one user's counters.
type Usage struct {
	UserID        string
	UploadsHour   int64
	UploadsToday  int64
	BytesToday    int64
	HourResetTime time.Time
	DayResetTime  time.Time
}

type usage struct {
	hour, day, bytes    int64
	hourStart, dayStart time.Time
}

// Manager tracks upload usage for all users in memory.
type Manager struct {
	mu     sync.Mutex
	limits Limits
	usage  map[string]*usage
	now    func() time.Time
}

// NewManager creates a quota manager.
func NewManager(limits Limits) *Manager {
	return &Manager{
		limits: limits,
		usage:  make(map[string]*usage),
		now:    time.Now,
	}
}

// SetLimits replaces the limits; counters are kept.
func (m *Manager) SetLimits(limits Limits) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = limits
}

// Limits returns the current limits.
func (m *Manager) Limits() Limits {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limits
}

// Reserve counts one upload of size bytes against userID, or returns a
// rate-limit error without counting anything.
func (m *Manager) Reserve(userID string, size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	u := m.usageLocked(userID, now)

	if m.limits.PerHour > 0 && u.hour >= m.limits.PerHour {
		return limitError("uploads per hour", u.hour, m.limits.PerHour, u.hourStart.Add(time.Hour).Sub(now))
	}
	if m.limits.PerDay > 0 && u.day >= m.limits.PerDay {
		return limitError("uploads per day", u.day, m.limits.PerDay, u.dayStart.Add(24*time.Hour).Sub(now))
	}
	if m.limits.MaxBytesPerDay > 0 && u.bytes+size > m.limits.MaxBytesPerDay {
		return limitError("upload bytes per day", u.bytes+size, m.limits.MaxBytesPerDay, u.dayStart.Add(24*time.Hour).Sub(now))
	}

	u.hour++
	u.day++
	u.bytes += size
	return nil
}

// Release undoes a reservation whose upload failed.
func (m *Manager) Release(userID string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.usage[userID]
	if !ok {
		return
	}
	if u.hour > 0 {
		u.hour--
	}
	if u.day > 0 {
		u.day--
	}
	u.bytes = max(u.bytes-size, 0)
}

// GetUsage returns a copy of userID's counters.
func (m *Manager) GetUsage(userID string) Usage {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.usageLocked(userID, m.now())
	return Usage{
		UserID:        userID,
		UploadsHour:   u.hour,
		UploadsToday:  u.day,
		BytesToday:    u.bytes,
		HourResetTime: u.hourStart.Add(time.Hour),
		DayResetTime:  u.dayStart.Add(24 * time.Hour),
	}
}

// usageLocked returns the counters for userID, resetting expired windows.
func (m *Manager) usageLocked(userID string, now time.Time) *usage {
	u, ok := m.usage[userID]
	if !ok {
		u = &usage{hourStart: now, dayStart: now}
		m.usage[userID] = u
	}
	if now.Sub(u.hourStart) >= time.Hour {
		u.hour = 0
		u.hourStart = now
	}
	if now.Sub(u.dayStart) >= 24*time.Hour {
		u.day = 0
		u.bytes = 0
		u.dayStart = now
	}
	return u
}

func limitError(limit string, current, maximum int64, retryAfter time.Duration) error {
	secs := int(math.Ceil(retryAfter.Seconds()))
	return errors.RateLimitedError(fmt.Sprintf("Upload limit reached (%s); try again later", limit)).
		WithContext("limit", limit).
		WithContext("current", current).
		WithContext("maximum", maximum).
		WithContext(errors.ContextKeyRetryAfter, max(secs, 1)).
		Build()
}
