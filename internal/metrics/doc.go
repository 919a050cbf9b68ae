// Package metrics defines the observability hooks used across linkbio.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks at call sites:
//
//	type Service struct {
//	    recorder metrics.Recorder
//	}
//
//	svc := &Service{recorder: metrics.NoopRecorder{}}
//
// When monitoring.metrics.enabled is set the server swaps in a
// PrometheusRecorder bound to its own registry and exposes it through
// HTTPHandler.
package metrics
