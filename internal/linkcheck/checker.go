package linkcheck

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

// maxBodyBytes bounds how much of a page is read while looking for its title.
const maxBodyBytes = 256 << 10

// Result is the outcome of probing one URL.
type Result struct {
	// Status is the final HTTP status, 0 when no response was received.
	Status  int
	Healthy bool
	Title   string
	Error   string
}

// Checker probes URLs over HTTP.
type Checker struct {
	client    *http.Client
	userAgent string
}

// ErrBlockedAddress is returned when a link resolves to a loopback, private,
// link-local, multicast or unspecified address.
var ErrBlockedAddress = stderrors.New("blocked non-public address")

// CheckerOption customizes a Checker.
type CheckerOption func(*checkerOptions)

type checkerOptions struct {
	allowPrivate bool
}

// AllowPrivateNetworks lets the checker reach non-public addresses.
func AllowPrivateNetworks(allow bool) CheckerOption {
	return func(o *checkerOptions) { o.allowPrivate = allow }
}

// NewChecker creates a checker with its own transport so idle connections can
// be released on Close. Unless AllowPrivateNetworks is set, every dial is
// checked after DNS resolution and non-public addresses are refused.
func NewChecker(timeout time.Duration, maxRedirects int, userAgent string, opts ...CheckerOption) *Checker {
	var o checkerOptions
	for _, opt := range opts {
		opt(&o)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !o.allowPrivate {
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Control:   guardAddress,
		}
		transport.DialContext = dialer.DialContext
		// A proxy would be dialed instead of the target.
		transport.Proxy = nil
	}
	return &Checker{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

func guardAddress(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	if !publicAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ap.Addr())
	}
	return nil
}

func publicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified()
}

// Close releases idle connections.
func (c *Checker) Close() {
	c.client.CloseIdleConnections()
}

// Check probes rawURL with HEAD and falls back to GET when HEAD fails or is
// rejected. HTML pages are fetched with GET to read their title.
func (c *Checker) Check(ctx context.Context, rawURL string) Result {
	status, contentType, err := c.head(ctx, rawURL)
	if err == nil && healthyStatus(status) && !isHTML(contentType) {
		return Result{Status: status, Healthy: true}
	}
	return c.get(ctx, rawURL)
}

func (c *Checker) head(ctx context.Context, rawURL string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Content-Type"), nil
}

func (c *Checker) get(ctx context.Context, rawURL string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{Error: fmt.Sprintf("invalid request: %v", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	resp, err := c.client.Do(req)
	if err != nil {
		return Result{Error: fmt.Sprintf("request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	res := Result{Status: resp.StatusCode, Healthy: healthyStatus(resp.StatusCode)}
	if !res.Healthy {
		res.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	} else if isHTML(resp.Header.Get("Content-Type")) {
		res.Title = ExtractTitle(io.LimitReader(resp.Body, maxBodyBytes))
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return res
}

// healthyStatus treats auth and rate-limit responses as live: the page exists
// but refuses anonymous probes.
func healthyStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusMethodNotAllowed, http.StatusTooManyRequests:
		return true
	}
	return code >= 200 && code < 400
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mt == "text/html" || mt == "application/xhtml+xml")
}
