package render

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/linkbio/internal/auth"
	"git.home.luguber.info/inful/linkbio/internal/profile"
	"git.home.luguber.info/inful/linkbio/internal/social"
	"git.home.luguber.info/inful/linkbio/internal/store"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func strPtr(s string) *string { return &s }

func TestAllPagesParse(t *testing.T) {
	r := newTestRenderer(t)
	for _, p := range []string{PageLogin, PageRegister, PageDashboard, PageSettings, PageProfile, PageNotFound} {
		assert.Contains(t, r.pages, p)
	}
}

func TestRenderLoginEchoesForm(t *testing.T) {
	r := newTestRenderer(t)
	rec := httptest.NewRecorder()
	err := r.Render(rec, http.StatusUnauthorized, PageLogin, View{
		Title: "Sign in",
		Error: "Invalid credentials",
		Form:  map[string]string{"email": `a"b@example.com`},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "Invalid credentials")
	assert.Contains(t, body, `value="a&#34;b@example.com"`)
	assert.Contains(t, body, "<title>Sign in · linkbio</title>")
}

func TestRenderDashboard(t *testing.T) {
	r := newTestRenderer(t)
	healthy := false
	status := 404
	checked := time.Now().Add(-2 * time.Hour)
	rec := httptest.NewRecorder()
	err := r.Render(rec, http.StatusOK, PageDashboard, View{
		User: &auth.SessionUser{ID: "u1", Username: "ada", Name: "Ada"},
		Data: struct {
			Links      []store.Link
			Analytics  *profile.Analytics
			ProfileURL string
		}{
			Links: []store.Link{
				{ID: "l1", Title: "Blog", URL: "https://ada.dev", Active: true, Clicks: 1234},
				{ID: "l2", Title: "Code", URL: "https://github.com/ada", Active: false, IsSocial: true,
					SocialType: strPtr("GitHub"), Healthy: &healthy, LastStatus: &status, LastCheckedAt: &checked},
			},
			Analytics:  &profile.Analytics{TotalClicks: 1234, TotalViews: 5000, ClickRate: 0.2468, LinkCount: 2, ActiveLinks: 1},
			ProfileURL: "http://localhost/ada",
		},
	})
	require.NoError(t, err)
	body := rec.Body.String()
	assert.Contains(t, body, "1,234 clicks")
	assert.Contains(t, body, "24.7%")
	assert.Contains(t, body, "broken (404)")
	assert.Contains(t, body, "2 hours ago")
	assert.Contains(t, body, `action="/dashboard/links/l1/move"`)
	assert.Contains(t, body, `href="/ada"`)
}

func TestRenderProfile(t *testing.T) {
	r := newTestRenderer(t)
	gh, _ := social.Lookup("github")
	rec := httptest.NewRecorder()
	err := r.Render(rec, http.StatusOK, PageProfile, View{
		Title: "Ada's Links",
		Data: &profile.Page{
			User:        &store.User{Username: "ada"},
			DisplayName: "ada",
			BioHTML:     template.HTML("<p>Hello <em>world</em></p>"),
			Social:      []profile.SocialLink{{Link: store.Link{ID: "s1", Title: "GitHub"}, Platform: gh}},
			Links:       []store.Link{{ID: "l1", Title: "<Blog>"}},
			Background:  template.CSS("background-color: #112233;"),
		},
	})
	require.NoError(t, err)
	body := rec.Body.String()
	assert.Contains(t, body, "<p>Hello <em>world</em></p>")
	assert.Contains(t, body, `href="/go/l1"`)
	assert.Contains(t, body, "&lt;Blog&gt;")
	assert.Contains(t, body, "background-color: #112233;")
	assert.Contains(t, body, `>A</div>`)
	assert.NotContains(t, body, "Sign out")
}

func TestRenderUnknownPage(t *testing.T) {
	r := newTestRenderer(t)
	rec := httptest.NewRecorder()
	assert.Error(t, r.Render(rec, http.StatusOK, "missing", View{}))
	assert.Zero(t, rec.Body.Len())
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "A", Initial("", "ada"))
	assert.Equal(t, "É", Initial("élodie"))
	assert.Equal(t, "?", Initial(" "))
	assert.Equal(t, "1,000,000", Humanize(int64(1000000)))
	assert.Equal(t, "12", Humanize(12))
	assert.Equal(t, "#24292F", SocialColor("GitHub"))
	assert.Equal(t, "#6b7280", SocialColor("Myspace"))
	assert.Equal(t, "never", Ago(nil))
	assert.Equal(t, "50.0%", Percent(0.5))
	assert.Equal(t, "", Deref(nil))
}
