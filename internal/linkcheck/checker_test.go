package linkcheck

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckerHeadOnlyForNonHTML(t *testing.T) {
	var gets int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets++
		}
		w.Header().Set("Content-Type", "application/pdf")
	}))
	defer srv.Close()

	c := NewChecker(5*time.Second, 3, "test", AllowPrivateNetworks(true))
	defer c.Close()
	res := c.Check(t.Context(), srv.URL)
	assert.True(t, res.Healthy)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Zero(t, gets)
}

func TestCheckerFallsBackToGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<title>  Hello\n  World </title>"))
	}))
	defer srv.Close()

	c := NewChecker(5*time.Second, 3, "test", AllowPrivateNetworks(true))
	defer c.Close()
	res := c.Check(t.Context(), srv.URL)
	assert.True(t, res.Healthy)
	assert.Equal(t, "Hello World", res.Title)
}

func TestCheckerTreatsAuthAsHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewChecker(5*time.Second, 3, "test", AllowPrivateNetworks(true))
	defer c.Close()
	res := c.Check(t.Context(), srv.URL)
	assert.True(t, res.Healthy)
	assert.Equal(t, http.StatusForbidden, res.Status)
}

func TestCheckerStopsRedirectLoops(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/loop", http.StatusFound)
	}))
	defer srv.Close()

	c := NewChecker(5*time.Second, 2, "test", AllowPrivateNetworks(true))
	defer c.Close()
	res := c.Check(t.Context(), srv.URL)
	assert.False(t, res.Healthy)
	assert.Contains(t, res.Error, "stopped after 2 redirects")
}

func TestCheckerUnreachable(t *testing.T) {
	c := NewChecker(time.Second, 3, "test", AllowPrivateNetworks(true))
	defer c.Close()
	res := c.Check(t.Context(), "http://127.0.0.1:1/")
	assert.False(t, res.Healthy)
	assert.Zero(t, res.Status)
	assert.True(t, strings.HasPrefix(res.Error, "request failed"))
}

func TestCheckerBlocksPrivateAddresses(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits++
	}))
	defer srv.Close()

	c := NewChecker(5*time.Second, 3, "test")
	defer c.Close()
	res := c.Check(t.Context(), srv.URL)
	assert.False(t, res.Healthy)
	assert.Zero(t, res.Status)
	assert.Contains(t, res.Error, "blocked")
	assert.Zero(t, hits)
}

func TestCheckerBlocksIPv6Loopback(t *testing.T) {
	c := NewChecker(5*time.Second, 3, "test")
	defer c.Close()
	res := c.Check(t.Context(), "http://[::1]:1/")
	assert.False(t, res.Healthy)
	assert.Contains(t, res.Error, "blocked")
}

func TestPublicAddr(t *testing.T) {
	tests := []struct {
		addr   string
		public bool
	}{
		{"93.184.216.34", true},
		{"2606:2800:220:1:248:1893:25c8:1946", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fc00::1", false},
		{"0.0.0.0", false},
		{"::", false},
		{"224.0.0.1", false},
		{"::ffff:127.0.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.public, publicAddr(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "A & B", ExtractTitle(strings.NewReader("<html><head><title>A &amp; B</title>")))
	assert.Equal(t, "", ExtractTitle(strings.NewReader("<html><body>no title</body></html>")))
	long := strings.Repeat("x", 300)
	assert.Len(t, []rune(ExtractTitle(strings.NewReader("<title>"+long+"</title>"))), 200)
}
