package events

import (
	"net/http"

	ua "github.com/mileusna/useragent"
)

// Device classes reported in visitor events.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

// Visit describes who requested a public page or clicked a link.
type Visit struct {
	UserAgent string
	Referrer  string
}

// VisitFromRequest captures the visitor headers of r.
func VisitFromRequest(r *http.Request) Visit {
	return Visit{UserAgent: r.UserAgent(), Referrer: r.Referer()}
}

// Client is the parsed form of a user agent string.
type Client struct {
	Device  string
	Browser string
	OS      string
}

// Client parses the visit's user agent.
func (v Visit) Client() Client {
	if v.UserAgent == "" {
		return Client{Device: DeviceUnknown}
	}
	p := ua.Parse(v.UserAgent)
	c := Client{Browser: p.Name, OS: p.OS}
	switch {
	case p.Bot:
		c.Device = DeviceBot
	case p.Tablet:
		c.Device = DeviceTablet
	case p.Mobile:
		c.Device = DeviceMobile
	case p.Desktop:
		c.Device = DeviceDesktop
	default:
		c.Device = DeviceUnknown
	}
	return c
}

// IsBot reports whether the visit comes from a crawler. Bot visits are not
// counted as page views.
func (v Visit) IsBot() bool {
	return v.Client().Device == DeviceBot
}

// Annotate copies the visitor details into e.
func (v Visit) Annotate(e *Event) {
	c := v.Client()
	e.Device = c.Device
	e.Browser = c.Browser
	e.OS = c.OS
	e.Referrer = v.Referrer
}
