package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/linkbio/internal/store"
)

const testSecret = "0123456789abcdef0123"

func testUser() *store.User {
	return &store.User{ID: "u1", Email: "ada@example.com", Name: "Ada", Username: "ada"}
}

func TestIssueAndParse(t *testing.T) {
	m := NewSessionManager(SessionConfig{Secret: testSecret, TTL: time.Hour})

	token, exp, err := m.Issue(testUser())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	u, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, &SessionUser{ID: "u1", Email: "ada@example.com", Name: "Ada", Username: "ada"}, u)
}

func TestParseRejectsBadTokens(t *testing.T) {
	m := NewSessionManager(SessionConfig{Secret: testSecret, TTL: time.Hour})
	other := NewSessionManager(SessionConfig{Secret: "another-secret-value", TTL: time.Hour})

	forged, _, err := other.Issue(testUser())
	require.NoError(t, err)

	expired := NewSessionManager(SessionConfig{Secret: testSecret, TTL: time.Hour})
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(testUser())
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "not.a.token",
		"forged":  forged,
		"expired": old,
		"none":    none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(token)
			require.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}

func TestLoginSetsCookie(t *testing.T) {
	m := NewSessionManager(SessionConfig{Secret: testSecret, TTL: time.Hour, CookieName: "sess", Secure: true})
	rec := httptest.NewRecorder()
	require.NoError(t, m.Login(rec, testUser()))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "sess", c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	u, err := m.FromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestLogoutExpiresCookie(t *testing.T) {
	m := NewSessionManager(SessionConfig{Secret: testSecret})
	rec := httptest.NewRecorder()
	m.Logout(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "linkbio_session", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
