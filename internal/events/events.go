// Package events publishes analytics and health events (link clicks, profile
// views, broken links) to NATS for downstream consumers.
package events

import (
	"context"
	"time"
)

// Type names an event and is appended to the subject prefix.
type Type string

const (
	TypeLinkClicked   Type = "link.clicked"
	TypeProfileViewed Type = "profile.viewed"
	TypeLinkBroken    Type = "link.broken"
)

// Event is the JSON payload published for every type. Fields that do not apply
// to a type are omitted.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId,omitempty"`
	Username  string    `json:"username,omitempty"`
	LinkID    string    `json:"linkId,omitempty"`
	URL       string    `json:"url,omitempty"`

	// Visitor details for clicks and views.
	Device   string `json:"device,omitempty"`
	Browser  string `json:"browser,omitempty"`
	OS       string `json:"os,omitempty"`
	Referrer string `json:"referrer,omitempty"`

	// Probe details for broken links.
	Status       int    `json:"status,omitempty"`
	Error        string `json:"error,omitempty"`
	FailureCount int    `json:"failureCount,omitempty"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NoopPublisher drops every event (default when NATS is not configured).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// OrNoop returns p, or NoopPublisher when p is nil.
func OrNoop(p Publisher) Publisher {
	if p == nil {
		return NoopPublisher{}
	}
	return p
}
