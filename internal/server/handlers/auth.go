package handlers

import (
	"net/http"
	"strings"

	"git.home.luguber.info/inful/linkbio/internal/auth"
	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/render"
	"git.home.luguber.info/inful/linkbio/internal/server/responses"
	"git.home.luguber.info/inful/linkbio/internal/store"
)

// AuthHandlers serves registration, login and logout for the API and the pages.
type AuthHandlers struct {
	auth         *auth.Service
	sessions     *auth.SessionManager
	renderer     *render.Renderer
	errorAdapter *errors.HTTPErrorAdapter
}

// NewAuthHandlers creates the auth handlers.
func NewAuthHandlers(svc *auth.Service, sessions *auth.SessionManager, renderer *render.Renderer, adapter *errors.HTTPErrorAdapter) *AuthHandlers {
	return &AuthHandlers{auth: svc, sessions: sessions, renderer: renderer, errorAdapter: adapter}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account and returns it without the password.
func (h *AuthHandlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	user, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, user)
}

// HandleLogin checks credentials and sets the session cookie.
func (h *AuthHandlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	user, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := h.sessions.Login(w, user); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, responses.SessionResponse{User: sessionUserOf(user)})
}

// HandleLogout clears the session cookie.
func (h *AuthHandlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(w)
	respond(w, r, h.errorAdapter, http.StatusOK, responses.MessageResponse{Message: "Signed out"})
}

// HandleSession returns the signed-in user, or a null user.
func (h *AuthHandlers) HandleSession(w http.ResponseWriter, r *http.Request) {
	resp := responses.SessionResponse{}
	if u, ok := auth.UserFromContext(r.Context()); ok {
		resp.User = u
	}
	respond(w, r, h.errorAdapter, http.StatusOK, resp)
}

// HandleLoginPage renders the login form.
func (h *AuthHandlers) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, render.PageLogin, render.View{Title: "Sign in"})
}

// HandleLoginForm signs in from the login form.
func (h *AuthHandlers) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, render.PageLogin, render.View{Title: "Sign in", Error: "Invalid form"})
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	user, err := h.auth.Authenticate(r.Context(), email, r.PostForm.Get("password"))
	if err == nil {
		err = h.sessions.Login(w, user)
	}
	if err != nil {
		h.render(w, r, h.errorAdapter.StatusCodeFor(err), render.PageLogin, render.View{
			Title: "Sign in",
			Error: userMessage(r, err),
			Form:  map[string]string{"email": email},
		})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleRegisterPage renders the registration form.
func (h *AuthHandlers) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, render.PageRegister, render.View{Title: "Register"})
}

// HandleRegisterForm registers from the form and signs the new user in.
func (h *AuthHandlers) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, render.PageRegister, render.View{Title: "Register", Error: "Invalid form"})
		return
	}
	req := auth.RegisterRequest{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
		Name:     r.PostForm.Get("name"),
		Username: r.PostForm.Get("username"),
	}
	user, err := h.auth.Register(r.Context(), req)
	if err == nil {
		err = h.sessions.Login(w, user)
	}
	if err != nil {
		h.render(w, r, h.errorAdapter.StatusCodeFor(err), render.PageRegister, render.View{
			Title: "Register",
			Error: userMessage(r, err),
			Form:  map[string]string{"email": req.Email, "name": req.Name, "username": req.Username},
		})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleLogoutForm signs out and returns to the login page.
func (h *AuthHandlers) HandleLogoutForm(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandlers) render(w http.ResponseWriter, r *http.Request, status int, page string, v render.View) {
	if err := h.renderer.Render(w, status, page, v); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to render page").Build())
	}
}

func sessionUserOf(u *store.User) *auth.SessionUser {
	return &auth.SessionUser{ID: u.ID, Email: u.Email, Name: u.Name, Username: u.Username}
}
