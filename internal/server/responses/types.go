// Package responses defines API response types used by linkbio HTTP handlers.
package responses

import "time"

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
}

// ReadinessResponse reports whether dependencies are reachable.
type ReadinessResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ClickResponse is returned after a link click was counted.
type ClickResponse struct {
	Clicks int64 `json:"clicks"`
}

// UploadResponse is returned after an image upload.
type UploadResponse struct {
	URL string `json:"url"`
}

// SessionResponse describes the signed-in user, or null when anonymous.
type SessionResponse struct {
	User    any        `json:"user"`
	Expires *time.Time `json:"expires,omitempty"`
}
