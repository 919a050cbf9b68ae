package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveHTTPRequest("GET", "/{username}", 200, 15*time.Millisecond)
	pr.IncLinkClick()
	pr.IncLinkClick()
	pr.IncProfileView()
	pr.IncRegistration()
	pr.IncLogin(ResultSuccess)
	pr.IncLogin(ResultFailure)
	pr.IncUpload(ResultSuccess)
	pr.IncLinkCheck(ResultBroken)

	if got := testutil.ToFloat64(pr.linkClicks); got != 2 {
		t.Fatalf("expected 2 clicks, got %v", got)
	}
	if got := testutil.ToFloat64(pr.logins.WithLabelValues("failure")); got != 1 {
		t.Fatalf("expected 1 failed login, got %v", got)
	}
	if got := testutil.ToFloat64(pr.httpRequests.WithLabelValues("GET", "/{username}", "200")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	pr.IncLinkClick()
	pr.IncLogin(ResultFailure)
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncProfileView()

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "linkbio_profile_views_total") {
		t.Fatalf("expected profile views metric in output:\n%s", body)
	}
}
