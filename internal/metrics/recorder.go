package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
	ResultBroken  ResultLabel = "broken"
	ResultCached  ResultLabel = "cached"
)

// Recorder defines observability hooks for HTTP traffic and domain events.
// Implementations may forward to Prometheus or any other backend.
type Recorder interface {
	ObserveHTTPRequest(method, route string, status int, d time.Duration)
	IncLinkClick()
	IncProfileView()
	IncRegistration()
	IncLogin(result ResultLabel)
	IncUpload(result ResultLabel)
	IncLinkCheck(result ResultLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveHTTPRequest(string, string, int, time.Duration) {}
func (NoopRecorder) IncLinkClick()                                         {}
func (NoopRecorder) IncProfileView()                                       {}
func (NoopRecorder) IncRegistration()                                      {}
func (NoopRecorder) IncLogin(ResultLabel)                                  {}
func (NoopRecorder) IncUpload(ResultLabel)                                 {}
func (NoopRecorder) IncLinkCheck(ResultLabel)                              {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
