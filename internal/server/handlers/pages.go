package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	"git.home.luguber.info/inful/linkbio/internal/auth"
	"git.home.luguber.info/inful/linkbio/internal/events"
	"git.home.luguber.info/inful/linkbio/internal/foundation"
	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/links"
	"git.home.luguber.info/inful/linkbio/internal/profile"
	"git.home.luguber.info/inful/linkbio/internal/render"
	"git.home.luguber.info/inful/linkbio/internal/store"
)

// PageHandlers serves the server-rendered dashboard and public pages.
type PageHandlers struct {
	links          *links.Service
	profile        *profile.Service
	renderer       *render.Renderer
	baseURL        string
	maxUploadBytes int64
	errorAdapter   *errors.HTTPErrorAdapter
}

// NewPageHandlers creates the page handlers. baseURL prefixes the public
// profile address shown on the dashboard.
func NewPageHandlers(linkSvc *links.Service, profileSvc *profile.Service, renderer *render.Renderer, baseURL string, maxUploadBytes int64, adapter *errors.HTTPErrorAdapter) *PageHandlers {
	return &PageHandlers{
		links:          linkSvc,
		profile:        profileSvc,
		renderer:       renderer,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		maxUploadBytes: maxUploadBytes,
		errorAdapter:   adapter,
	}
}

// DashboardData is the dashboard page model.
type DashboardData struct {
	Links      []store.Link
	Analytics  *profile.Analytics
	ProfileURL string
}

// SettingsData is the settings page model.
type SettingsData struct {
	Settings     *profile.Settings
	Themes       []profile.Theme
	CurrentTheme string
}

// HandleDashboard renders the link list and statistics.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	h.renderDashboard(w, r, http.StatusOK, "", nil)
}

func (h *PageHandlers) renderDashboard(w http.ResponseWriter, r *http.Request, status int, msg string, form map[string]string) {
	u, err := currentUser(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	list, err := h.links.List(r.Context(), u.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := h.profile.Analytics(r.Context(), u.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, status, render.PageDashboard, render.View{
		Title: "Dashboard",
		User:  u,
		Error: msg,
		Form:  form,
		Data:  DashboardData{Links: list, Analytics: stats, ProfileURL: h.baseURL + "/" + u.Username},
	})
}

// HandleCreateLinkForm adds a link from the dashboard form.
func (h *PageHandlers) HandleCreateLinkForm(w http.ResponseWriter, r *http.Request) {
	h.withForm(w, r, func(u *auth.SessionUser) (map[string]string, error) {
		isSocial := r.PostForm.Get("isSocial") == "true"
		req := links.CreateLinkRequest{
			Title:    r.PostForm.Get("title"),
			URL:      r.PostForm.Get("url"),
			IsSocial: &isSocial,
		}
		form := map[string]string{"title": req.Title, "url": req.URL}
		if isSocial {
			form["isSocial"] = "true"
		}
		_, err := h.links.Create(r.Context(), u.ID, req)
		return form, err
	})
}

// HandleDeleteLinkForm removes a link from the dashboard.
func (h *PageHandlers) HandleDeleteLinkForm(w http.ResponseWriter, r *http.Request) {
	h.withForm(w, r, func(u *auth.SessionUser) (map[string]string, error) {
		return nil, h.links.Delete(r.Context(), u.ID, chi.URLParam(r, "id"))
	})
}

// HandleToggleLinkForm shows or hides a link.
func (h *PageHandlers) HandleToggleLinkForm(w http.ResponseWriter, r *http.Request) {
	h.withForm(w, r, func(u *auth.SessionUser) (map[string]string, error) {
		active, err := strconv.ParseBool(r.PostForm.Get("active"))
		if err != nil {
			return nil, errors.ValidationError("Invalid active flag").Build()
		}
		_, err = h.links.Update(r.Context(), u.ID, chi.URLParam(r, "id"), links.UpdateLinkRequest{Active: foundation.Set(active)})
		return nil, err
	})
}

// HandleMoveLinkForm moves a link to the posted position.
func (h *PageHandlers) HandleMoveLinkForm(w http.ResponseWriter, r *http.Request) {
	h.withForm(w, r, func(u *auth.SessionUser) (map[string]string, error) {
		to, err := strconv.Atoi(r.PostForm.Get("to"))
		if err != nil {
			return nil, errors.ValidationError("Invalid position").Build()
		}
		return nil, h.links.MoveTo(r.Context(), u.ID, chi.URLParam(r, "id"), to)
	})
}

// withForm parses the form, runs fn and redirects back to the dashboard, or
// re-renders it with the failure.
func (h *PageHandlers) withForm(w http.ResponseWriter, r *http.Request, fn func(u *auth.SessionUser) (map[string]string, error)) {
	u, err := currentUser(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderDashboard(w, r, http.StatusBadRequest, "Invalid form", nil)
		return
	}
	form, err := fn(u)
	if err != nil {
		h.renderDashboard(w, r, h.errorAdapter.StatusCodeFor(err), userMessage(r, err), form)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleSettingsPage renders the settings form.
func (h *PageHandlers) HandleSettingsPage(w http.ResponseWriter, r *http.Request) {
	h.renderSettings(w, r, http.StatusOK, "")
}

func (h *PageHandlers) renderSettings(w http.ResponseWriter, r *http.Request, status int, msg string) {
	u, err := currentUser(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	settings, err := h.profile.GetSettings(r.Context(), u.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	current := ""
	if settings.Theme != nil {
		current = *settings.Theme
	}
	h.render(w, r, status, render.PageSettings, render.View{
		Title: "Settings",
		User:  u,
		Error: msg,
		Data: SettingsData{
			Settings:     settings,
			Themes:       profile.Themes(),
			CurrentTheme: profile.ThemeFor(current).Value,
		},
	})
}

// settingsFormFields are the settings form inputs sent as a patch.
var settingsFormFields = []string{"bio", "theme", "backgroundColor", "backgroundImage", "image"}

// HandleSettingsForm saves the settings form. Fields missing from the form
// are left untouched; empty fields are cleared.
func (h *PageHandlers) HandleSettingsForm(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderSettings(w, r, http.StatusBadRequest, "Invalid form")
		return
	}
	raw := make(map[string]any)
	for _, f := range settingsFormFields {
		if vals, ok := r.PostForm[f]; ok && len(vals) > 0 {
			raw[f] = vals[0]
		}
	}
	if _, err := h.profile.UpdateSettings(r.Context(), u.ID, raw); err != nil {
		h.renderSettings(w, r, h.errorAdapter.StatusCodeFor(err), userMessage(r, err))
		return
	}
	http.Redirect(w, r, "/dashboard/settings", http.StatusSeeOther)
}

// HandleUploadForm uploads an avatar or background from the settings page.
func (h *PageHandlers) HandleUploadForm(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if _, err := uploadImage(r, h.profile, u.ID, h.maxUploadBytes); err != nil {
		h.renderSettings(w, r, h.errorAdapter.StatusCodeFor(err), userMessage(r, err))
		return
	}
	http.Redirect(w, r, "/dashboard/settings", http.StatusSeeOther)
}

// HandleProfile renders a public profile page and counts the view.
func (h *PageHandlers) HandleProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	page, err := h.profile.PublicPage(r.Context(), username, events.VisitFromRequest(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, render.PageProfile, render.View{
		Title: page.DisplayName + "'s Links",
		Data:  page,
	})
}

// HandleLinkRedirect sends /link/{username} to the canonical profile address.
func (h *PageHandlers) HandleLinkRedirect(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !auth.ValidUsername(username) {
		h.HandleNotFound(w, r)
		return
	}
	http.Redirect(w, r, "/"+username, http.StatusFound)
}

// HandleFollow counts a click and redirects to the link target.
func (h *PageHandlers) HandleFollow(w http.ResponseWriter, r *http.Request) {
	link, err := h.links.Follow(r.Context(), chi.URLParam(r, "id"), events.VisitFromRequest(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, link.URL, http.StatusFound)
}

// HandleNotFound renders the 404 page.
func (h *PageHandlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, render.PageNotFound, render.View{Title: "Not found", User: optionalUser(r)})
}

// fail renders not-found errors as the 404 page and everything else as a
// JSON error.
func (h *PageHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.HasCategory(err, errors.CategoryNotFound) || stderrors.Is(err, store.ErrUserNotFound) {
		h.HandleNotFound(w, r)
		return
	}
	h.errorAdapter.WriteErrorResponse(w, r, err)
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, status int, page string, v render.View) {
	if err := h.renderer.Render(w, status, page, v); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to render page").Build())
	}
}

func optionalUser(r *http.Request) any {
	if u, ok := auth.UserFromContext(r.Context()); ok {
		return u
	}
	return nil
}
