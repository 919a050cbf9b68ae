package quota

import (
	"net/http"
	"testing"
	"time"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

func newTestManager(limits Limits) (*Manager, *time.Time) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(limits)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestZeroLimitsAreUnlimited(t *testing.T) {
	m, _ := newTestManager(Limits{})
	for range 100 {
		if err := m.Reserve("u1", 1<<20); err != nil {
			t.Fatalf("Reserve: %v", err)
		}
	}
	if got := m.GetUsage("u1").UploadsToday; got != 100 {
		t.Errorf("uploads today = %d, want 100", got)
	}
}

func TestHourlyLimit(t *testing.T) {
	m, now := newTestManager(Limits{PerHour: 2})

	for range 2 {
		if err := m.Reserve("u1", 10); err != nil {
			t.Fatalf("Reserve: %v", err)
		}
	}
	*now = now.Add(15 * time.Minute)
	err := m.Reserve("u1", 10)
	if err == nil {
		t.Fatal("expected hourly limit error")
	}
	if !errors.HasCategory(err, errors.CategoryRateLimit) {
		t.Errorf("category: %v", err)
	}
	if got := errors.NewHTTPErrorAdapter(nil).StatusCodeFor(err); got != http.StatusTooManyRequests {
		t.Errorf("status = %d", got)
	}
	c, _ := errors.AsClassified(err)
	if v, _ := c.Context().Get(errors.ContextKeyRetryAfter); v != 45*60 {
		t.Errorf("retry after = %v, want %d", v, 45*60)
	}

	if err := m.Reserve("u2", 10); err != nil {
		t.Errorf("other users are independent: %v", err)
	}

	*now = now.Add(46 * time.Minute)
	if err := m.Reserve("u1", 10); err != nil {
		t.Errorf("window should have reset: %v", err)
	}
}

func TestDailyLimits(t *testing.T) {
	m, now := newTestManager(Limits{PerDay: 3, MaxBytesPerDay: 100})

	if err := m.Reserve("u1", 60); err != nil {
		t.Fatal(err)
	}
	if err := m.Reserve("u1", 50); err == nil {
		t.Fatal("expected byte limit error")
	}
	if err := m.Reserve("u1", 40); err != nil {
		t.Fatal(err)
	}
	if err := m.Reserve("u1", 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Reserve("u1", 0); err == nil {
		t.Fatal("expected daily count error")
	}

	*now = now.Add(24 * time.Hour)
	if err := m.Reserve("u1", 100); err != nil {
		t.Errorf("day window should have reset: %v", err)
	}
}

func TestRelease(t *testing.T) {
	m, _ := newTestManager(Limits{PerHour: 1})
	if err := m.Reserve("u1", 500); err != nil {
		t.Fatal(err)
	}
	m.Release("u1", 500)
	m.Release("u1", 500)
	m.Release("nobody", 1)

	u := m.GetUsage("u1")
	if u.UploadsHour != 0 || u.BytesToday != 0 {
		t.Errorf("usage after release = %+v", u)
	}
	if err := m.Reserve("u1", 500); err != nil {
		t.Errorf("released slot should be reusable: %v", err)
	}
}

func TestSetLimits(t *testing.T) {
	m, _ := newTestManager(Limits{PerHour: 1})
	if err := m.Reserve("u1", 1); err != nil {
		t.Fatal(err)
	}
	m.SetLimits(Limits{PerHour: 5})
	if err := m.Reserve("u1", 1); err != nil {
		t.Errorf("raised limit: %v", err)
	}
	if got := m.Limits().PerHour; got != 5 {
		t.Errorf("PerHour = %d", got)
	}
}
