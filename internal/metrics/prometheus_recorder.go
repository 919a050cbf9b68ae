package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "linkbio"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	httpRequests  *prom.CounterVec
	httpDuration  *prom.HistogramVec
	linkClicks    prom.Counter
	profileViews  prom.Counter
	registrations prom.Counter
	logins        *prom.CounterVec
	uploads       *prom.CounterVec
	linkChecks    *prom.CounterVec
}

// NewPrometheusRecorder constructs the linkbio metrics and registers them on reg.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "route"}),
		linkClicks: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "link_clicks_total",
			Help:      "Link clicks recorded",
		}),
		profileViews: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "profile_views_total",
			Help:      "Public profile page views recorded (bots excluded)",
		}),
		registrations: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Successful user registrations",
		}),
		logins: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),
		uploads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Image uploads by result",
		}, []string{"result"}),
		linkChecks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "link_checks_total",
			Help:      "Link health probes by result",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.httpRequests, pr.httpDuration, pr.linkClicks, pr.profileViews,
		pr.registrations, pr.logins, pr.uploads, pr.linkChecks)
	return pr
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncLinkClick() {
	if p == nil {
		return
	}
	p.linkClicks.Inc()
}

func (p *PrometheusRecorder) IncProfileView() {
	if p == nil {
		return
	}
	p.profileViews.Inc()
}

func (p *PrometheusRecorder) IncRegistration() {
	if p == nil {
		return
	}
	p.registrations.Inc()
}

func (p *PrometheusRecorder) IncLogin(result ResultLabel) {
	if p == nil {
		return
	}
	p.logins.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncUpload(result ResultLabel) {
	if p == nil {
		return
	}
	p.uploads.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncLinkCheck(result ResultLabel) {
	if p == nil {
		return
	}
	p.linkChecks.WithLabelValues(string(result)).Inc()
}
