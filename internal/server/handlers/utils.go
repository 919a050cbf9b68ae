package handlers

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/linkbio/internal/auth"
	"git.home.luguber.info/inful/linkbio/internal/foundation"
	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/logfields"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// genericFailure is shown when an error carries no user-facing message.
const genericFailure = "Something went wrong! Please try again later."

var errInvalidJSON = errors.ValidationError("Invalid JSON payload").Build()

// writeJSON serializes the provided value to JSON and writes it with the given
// status code. Encoding is performed into an intermediate buffer so that we
// don't send partial responses if serialization fails.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed writing JSON response body", logfields.Error(err))
		return err
	}
	return nil
}

// writeJSONPretty pretty prints when pretty=true via query parameter.
// It falls back to compact form if marshalling fails for any reason.
func writeJSONPretty(w http.ResponseWriter, r *http.Request, status int, v any) error {
	if r != nil {
		if p := r.URL.Query().Get("pretty"); p == "1" || p == "true" {
			b, err := json.MarshalIndent(v, "", "  ")
			if err == nil {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(status)
				if _, werr := w.Write(append(b, '\n')); werr != nil {
					slog.Error("failed writing pretty JSON", logfields.Error(werr))
					return werr
				}
				return nil
			}
			slog.Warn("pretty JSON marshal failed, falling back to standard encode", logfields.Error(err))
		}
	}
	return writeJSON(w, status, v)
}

// respond writes v as JSON, reporting encode failures through the adapter.
func respond(w http.ResponseWriter, r *http.Request, adapter *errors.HTTPErrorAdapter, status int, v any) {
	if err := writeJSONPretty(w, r, status, v); err != nil {
		adapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}

// decodeJSON reads a JSON body into dst. Any malformed body is reported as
// "Invalid JSON payload".
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.ValidationError("Request body too large").Build()
		}
		if stderrors.Is(err, io.EOF) {
			return errInvalidJSON
		}
		return errors.WrapError(err, errors.CategoryValidation, "Invalid JSON payload").Build()
	}
	return nil
}

// currentUser returns the session user attached by the auth middleware.
func currentUser(r *http.Request) (*auth.SessionUser, error) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, auth.ErrInvalidSession
	}
	return u, nil
}

// userMessage is the text shown to users for err. Unclassified errors are
// logged and replaced by a generic message.
func userMessage(r *http.Request, err error) string {
	if c, ok := errors.AsClassified(err); ok {
		if c.IsCategory(errors.CategoryInternal) || c.IsCategory(errors.CategoryDatabase) {
			slog.ErrorContext(r.Context(), "Request failed", logfields.Path(r.URL.Path), logfields.Error(err))
			return genericFailure
		}
		return withFieldProblems(c)
	}
	slog.ErrorContext(r.Context(), "Request failed", logfields.Path(r.URL.Path), logfields.Error(err))
	return genericFailure
}

// withFieldProblems appends per-field validation messages unless the message
// already is the only problem.
func withFieldProblems(c *errors.ClassifiedError) string {
	v, ok := c.Context().Get(errors.ContextKeyFieldErrors)
	if !ok {
		return c.Message()
	}
	problems, ok := v.([]foundation.FieldProblem)
	if !ok || len(problems) == 0 || (len(problems) == 1 && problems[0].Message == c.Message()) {
		return c.Message()
	}
	parts := make([]string, 0, len(problems))
	for _, p := range problems {
		parts = append(parts, p.Path+": "+p.Message)
	}
	return c.Message() + " (" + strings.Join(parts, "; ") + ")"
}
