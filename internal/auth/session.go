package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/store"
)

// ErrInvalidSession covers missing, malformed, expired or forged session tokens.
var ErrInvalidSession = errors.AuthError("Unauthorized").Build()

// SessionUser is the identity carried in a session token.
type SessionUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Claims are the JWT claims of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// SessionConfig configures a SessionManager.
type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// SessionManager issues and verifies HS256 session tokens stored in a cookie.
type SessionManager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

// NewSessionManager creates a session manager; zero TTL means 30 days.
func NewSessionManager(cfg SessionConfig) *SessionManager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	name := cfg.CookieName
	if name == "" {
		name = "linkbio_session"
	}
	return &SessionManager{
		secret:     []byte(cfg.Secret),
		ttl:        ttl,
		cookieName: name,
		secure:     cfg.Secure,
		now:        time.Now,
	}
}

// CookieName returns the session cookie name.
func (m *SessionManager) CookieName() string { return m.cookieName }

// Issue signs a token for user and returns it with its expiry.
func (m *SessionManager) Issue(user *store.User) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Username: user.Username,
		Email:    user.Email,
		Name:     user.Name,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, errors.WrapError(err, errors.CategoryInternal, "sign session token").Build()
	}
	return token, exp, nil
}

// Parse verifies a token's signature, algorithm and validity window.
func (m *SessionManager) Parse(token string) (*SessionUser, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return &SessionUser{
		ID:       claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Username: claims.Username,
	}, nil
}

// FromRequest reads and verifies the session cookie.
func (m *SessionManager) FromRequest(r *http.Request) (*SessionUser, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, ErrInvalidSession
	}
	return m.Parse(c.Value)
}

// Login issues a token for user and sets the session cookie.
func (m *SessionManager) Login(w http.ResponseWriter, user *store.User) error {
	token, exp, err := m.Issue(user)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(exp.Sub(m.now()).Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout clears the session cookie.
func (m *SessionManager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
