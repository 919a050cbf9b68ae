package errors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: http.StatusOK},
		{name: "validation", err: ValidationError("invalid input").Build(), expected: http.StatusBadRequest},
		{name: "already exists", err: AlreadyExistsError("taken").Build(), expected: http.StatusBadRequest},
		{name: "auth", err: AuthError("unauthorized").Build(), expected: http.StatusUnauthorized},
		{name: "forbidden", err: ForbiddenError("nope").Build(), expected: http.StatusForbidden},
		{name: "not found", err: NotFoundError("missing").Build(), expected: http.StatusNotFound},
		{name: "upload", err: UploadError("cloudinary down").Build(), expected: http.StatusBadGateway},
		{name: "rate limited", err: RateLimitedError("slow down").Build(), expected: http.StatusTooManyRequests},
		{name: "config", err: ConfigError("missing secret").Build(), expected: http.StatusInternalServerError},
		{name: "wrapped classified", err: fmt.Errorf("ctx: %w", NotFoundError("missing").Build()), expected: http.StatusNotFound},
		{name: "unclassified error", err: &customHTTPError{msg: "unknown error"}, expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.StatusCodeFor(tt.err)
			if got != tt.expected {
				t.Errorf("StatusCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		checkJSON      bool
	}{
		{name: "nil error", err: nil, expectedStatus: http.StatusOK},
		{name: "validation", err: ValidationError("invalid input").Build(), expectedStatus: http.StatusBadRequest, checkJSON: true},
		{name: "not found", err: NotFoundError("link not found").Build(), expectedStatus: http.StatusNotFound, checkJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/links", nil)
			adapter.WriteErrorResponse(w, r, tt.err)

			if w.Code != tt.expectedStatus {
				t.Errorf("WriteErrorResponse() status = %v, want %v", w.Code, tt.expectedStatus)
			}
			if !tt.checkJSON {
				return
			}

			var response HTTPErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("WriteErrorResponse() invalid JSON: %v", err)
			}
			if response.Error == "" || response.Message != response.Error {
				t.Errorf("WriteErrorResponse() expected matching error/message, got %+v", response)
			}
			if response.Code == "" {
				t.Error("WriteErrorResponse() missing error code")
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("WriteErrorResponse() content-type = %v", ct)
			}
		})
	}
}

func TestHTTPErrorAdapter_RetryAfterHeader(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/upload", nil)

	adapter.WriteErrorResponse(w, r, RateLimitedError("Too many uploads").WithContext(ContextKeyRetryAfter, 90).Build())

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "90" {
		t.Errorf("Retry-After = %q, want 90", got)
	}
	var body HTTPErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Retryable || body.Code != string(CategoryRateLimit) {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestHTTPErrorAdapter_NoRetryAfterOnBadGateway(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())
	w := httptest.NewRecorder()

	adapter.WriteErrorResponse(w, nil, UploadError("provider throttled").WithContext(ContextKeyRetryAfter, 30).Build())

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "" {
		t.Errorf("Retry-After = %q, want none", got)
	}
}

func TestHTTPErrorAdapter_FormatErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	t.Run("field errors lifted to top level", func(t *testing.T) {
		fields := []map[string]string{{"path": "bio", "message": "too long"}}
		err := ValidationError("Validation error").
			WithContext(ContextKeyFieldErrors, fields).
			WithContext("field_count", 1).
			Build()

		resp := adapter.FormatErrorResponse(err)
		if resp.Message != "Validation error" {
			t.Fatalf("unexpected message %q", resp.Message)
		}
		if resp.Errors == nil {
			t.Fatal("expected errors array")
		}
		if _, ok := resp.Details[ContextKeyFieldErrors]; ok {
			t.Fatal("field errors must not be duplicated in details")
		}
		if resp.Details["field_count"] != 1 {
			t.Fatalf("expected field_count detail, got %v", resp.Details)
		}
	})

	t.Run("retryable flag", func(t *testing.T) {
		resp := adapter.FormatErrorResponse(UploadError("timeout").Build())
		if !resp.Retryable {
			t.Fatal("expected retryable upload error")
		}
	})

	t.Run("unclassified errors are masked", func(t *testing.T) {
		resp := adapter.FormatErrorResponse(&customHTTPError{msg: "pq: secret detail"})
		if resp.Error != "internal server error" {
			t.Fatalf("expected masked message, got %q", resp.Error)
		}
	})
}

// customHTTPError is a test helper for unclassified errors
type customHTTPError struct {
	msg string
}

func (e *customHTTPError) Error() string {
	return e.msg
}
