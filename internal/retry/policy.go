// Package retry implements backoff policies for transient upstream failures.
package retry

import (
	"context"
	"time"

	"git.home.luguber.info/inful/linkbio/internal/config"
	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

// Policy describes how often and how patiently a failed call is repeated.
// MaxRetries counts attempts after the first one.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int
}

// DefaultPolicy is linear backoff from 1s, capped at 30s, with two retries.
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// NewPolicy overlays the given values on DefaultPolicy. Non-positive
// durations, negative retry counts and unknown modes keep the default.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	p.Initial = positiveOr(initial, p.Initial)
	p.Max = positiveOr(maxDelay, p.Max)
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if config.NormalizeRetryBackoff(string(mode)) == mode && mode != "" {
		p.Mode = mode
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// FromConfig builds the policy for a retry configuration block.
func FromConfig(rc config.RetryConfig) Policy {
	return NewPolicy(rc.Backoff, rc.InitialDelayDuration(), rc.MaxDelayDuration(), rc.MaxRetries)
}

// Delay is the wait before retry n (n >= 1), never above Max.
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffExponential:
		d = p.Initial
		for i := 1; i < n && d < p.Max; i++ {
			d *= 2
		}
	default:
		d = p.Initial * time.Duration(n)
	}
	if d <= 0 || d > p.Max {
		return p.Max
	}
	return d
}

// wait is the delay before retry n after err. A retry_after_seconds hint on
// the error wins over the backoff when it is longer, up to Max.
func (p Policy) wait(n int, err error) time.Duration {
	d := p.Delay(n)
	if secs, ok := errors.RetryAfterSeconds(err); ok {
		d = max(d, min(time.Duration(secs)*time.Second, p.Max))
	}
	return d
}

// Retryable reports whether err is a classified error worth repeating.
func Retryable(err error) bool {
	ce, ok := errors.AsClassified(err)
	return ok && ce.IsTransient()
}

// Do runs fn until it succeeds, fails permanently, runs out of retries or ctx
// ends. attempt is 0 for the first call. The last error from fn is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !Retryable(err) {
			return err
		}
		t := time.NewTimer(p.wait(attempt+1, err))
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
}

func positiveOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
