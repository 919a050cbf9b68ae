package auth

import (
	"net/http"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/observability"
)

// Middleware guards routes based on the session cookie.
type Middleware struct {
	sessions *SessionManager
	errs     *errors.HTTPErrorAdapter
}

// NewMiddleware creates the auth middleware set.
func NewMiddleware(sessions *SessionManager, errs *errors.HTTPErrorAdapter) *Middleware {
	return &Middleware{sessions: sessions, errs: errs}
}

func (m *Middleware) attach(r *http.Request, u *SessionUser) *http.Request {
	ctx := WithUser(r.Context(), u)
	ctx = observability.WithUser(ctx, u.ID, u.Username)
	return r.WithContext(ctx)
}

// RequireAPI rejects requests without a valid session with a 401 JSON error.
func (m *Middleware) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.sessions.FromRequest(r)
		if err != nil {
			m.errs.WriteErrorResponse(w, r, err)
			return
		}
		next.ServeHTTP(w, m.attach(r, u))
	})
}

// RequirePage redirects requests without a valid session to /login.
func (m *Middleware) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.sessions.FromRequest(r)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, m.attach(r, u))
	})
}

// RedirectIfAuthenticated sends signed-in users from /login and /register to /dashboard.
func (m *Middleware) RedirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := m.sessions.FromRequest(r); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Optional attaches the session user when present and never blocks.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, err := m.sessions.FromRequest(r); err == nil {
			r = m.attach(r, u)
		}
		next.ServeHTTP(w, r)
	})
}
