package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// ContextKeyFieldErrors holds per-field validation problems. The adapter lifts
// it into the top-level "errors" array.
const ContextKeyFieldErrors = "errors"

// ContextKeyRetryAfter holds whole seconds until the caller may try again.
const ContextKeyRetryAfter = "retry_after_seconds"

var statusByCategory = map[ErrorCategory]int{
	CategoryValidation: http.StatusBadRequest,
	// Registration clients expect duplicates as a plain bad request.
	CategoryAlreadyExists: http.StatusBadRequest,
	CategoryAuth:          http.StatusUnauthorized,
	CategoryForbidden:     http.StatusForbidden,
	CategoryNotFound:      http.StatusNotFound,
	CategoryRateLimit:     http.StatusTooManyRequests,
	CategoryNetwork:       http.StatusBadGateway,
	CategoryUpload:        http.StatusBadGateway,
	CategoryRuntime:       http.StatusServiceUnavailable,
}

var levelBySeverity = map[ErrorSeverity]slog.Level{
	SeverityInfo:    slog.LevelInfo,
	SeverityWarning: slog.LevelWarn,
}

// HTTPErrorAdapter turns errors into JSON responses and logs them at a level
// derived from their severity.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter returns an adapter logging to logger, or to the default
// logger when nil.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse is the JSON error body. Message repeats Error because
// dashboard clients read "message".
type HTTPErrorResponse struct {
	Error     string         `json:"error"`
	Message   string         `json:"message"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Errors    any            `json:"errors,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

// StatusCodeFor maps err to a status code. Unclassified errors and
// categories without a mapping are 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if c, ok := AsClassified(err); ok {
		if status, ok := statusByCategory[c.Category()]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// WriteErrorResponse writes err as JSON, adding Retry-After for throttling
// responses, and logs it.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	status := a.StatusCodeFor(err)
	body, jerr := json.Marshal(a.FormatErrorResponse(err))
	if jerr != nil {
		body = []byte(`{"error":"internal error","message":"internal error"}`)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if secs, ok := RetryAfterSeconds(err); ok && (status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable) {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)

	a.log(r, status, err)
}

func (a *HTTPErrorAdapter) log(r *http.Request, status int, err error) {
	level := slog.LevelError
	msg := err.Error()
	if c, ok := AsClassified(err); ok {
		if l, ok := levelBySeverity[c.Severity()]; ok {
			level = l
		}
		msg = c.Message()
	}
	attrs := []any{slog.Int("status", status), slog.Any("error", err)}
	if r != nil {
		attrs = append(attrs, slog.String("method", r.Method), slog.String("path", r.URL.Path))
	}
	a.logger.Log(requestContext(r), level, msg, attrs...)
}

// FormatErrorResponse builds the response body for err. Unclassified errors
// are reported as internal errors without their text.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{}
	}
	c, ok := AsClassified(err)
	if !ok {
		const masked = "internal server error"
		return HTTPErrorResponse{Error: masked, Message: masked, Code: string(CategoryInternal)}
	}

	resp := HTTPErrorResponse{
		Error:     c.Message(),
		Message:   c.Message(),
		Code:      string(c.Category()),
		Retryable: c.CanRetry(),
	}
	for k, v := range c.Context() {
		if k == ContextKeyFieldErrors {
			resp.Errors = v
			continue
		}
		if resp.Details == nil {
			resp.Details = make(map[string]any, len(c.Context()))
		}
		resp.Details[k] = v
	}
	return resp
}

// RetryAfterSeconds returns the positive retry hint carried by a classified
// error.
func RetryAfterSeconds(err error) (int, bool) {
	c, ok := AsClassified(err)
	if !ok {
		return 0, false
	}
	v, ok := c.Context().Get(ContextKeyRetryAfter)
	if !ok {
		return 0, false
	}
	secs, ok := v.(int)
	return secs, ok && secs > 0
}
