// Package server wires the linkbio HTTP routes and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi"
	chimw "github.com/go-chi/chi/middleware"

	"git.home.luguber.info/inful/linkbio/internal/auth"
	derrors "git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/links"
	"git.home.luguber.info/inful/linkbio/internal/metrics"
	"git.home.luguber.info/inful/linkbio/internal/profile"
	"git.home.luguber.info/inful/linkbio/internal/render"
	handlers "git.home.luguber.info/inful/linkbio/internal/server/handlers"
	smw "git.home.luguber.info/inful/linkbio/internal/server/middleware"
	"git.home.luguber.info/inful/linkbio/internal/upload"
)

// Deps are the services the routes delegate to.
type Deps struct {
	DB       handlers.Pinger
	Auth     *auth.Service
	Sessions *auth.SessionManager
	Links    *links.Service
	Profile  *profile.Service
	Renderer *render.Renderer
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Options configures the listener and optional endpoints.
type Options struct {
	Addr           string
	BaseURL        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64

	// Optional: Prometheus endpoint, mounted at MetricsPath when both are set.
	MetricsPath    string
	MetricsHandler http.Handler

	// Optional: local media handler mounted under upload.MediaPrefix.
	Media http.Handler
}

// Server manages the linkbio HTTP endpoints.
type Server struct {
	httpServer   *http.Server
	router       chi.Router
	opts         Options
	errorAdapter *derrors.HTTPErrorAdapter
	listener     net.Listener

	// Handler modules
	monitoringHandlers *handlers.MonitoringHandlers
	authHandlers       *handlers.AuthHandlers
	linkHandlers       *handlers.LinkHandlers
	userHandlers       *handlers.UserHandlers
	pageHandlers       *handlers.PageHandlers
	authMiddleware     *auth.Middleware
}

// New constructs a new HTTP server wiring instance.
func New(deps Deps, opts Options) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	adapter := derrors.NewHTTPErrorAdapter(logger)

	s := &Server{
		opts:         opts,
		errorAdapter: adapter,
	}

	// Initialize handler modules
	s.monitoringHandlers = handlers.NewMonitoringHandlers(deps.DB, adapter)
	s.authHandlers = handlers.NewAuthHandlers(deps.Auth, deps.Sessions, deps.Renderer, adapter)
	s.linkHandlers = handlers.NewLinkHandlers(deps.Links, adapter)
	s.userHandlers = handlers.NewUserHandlers(deps.Profile, opts.MaxUploadBytes, adapter)
	s.pageHandlers = handlers.NewPageHandlers(deps.Links, deps.Profile, deps.Renderer, opts.BaseURL, opts.MaxUploadBytes, adapter)
	s.authMiddleware = auth.NewMiddleware(deps.Sessions, adapter)

	s.router = s.routes(logger, deps.Recorder)
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes(logger *slog.Logger, recorder metrics.Recorder) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(smw.Chain(logger, s.errorAdapter, recorder))

	am := s.authMiddleware
	r.NotFound(s.pageHandlers.HandleNotFound)

	// Operations
	r.Get("/healthz", s.monitoringHandlers.HandleHealthCheck)
	r.Get("/readyz", s.monitoringHandlers.HandleReadiness)
	if s.opts.MetricsPath != "" && s.opts.MetricsHandler != nil {
		r.Method(http.MethodGet, s.opts.MetricsPath, s.opts.MetricsHandler)
	}

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.authHandlers.HandleRegister)
			r.Post("/login", s.authHandlers.HandleLogin)
			r.Post("/logout", s.authHandlers.HandleLogout)
			r.With(am.Optional).Get("/session", s.authHandlers.HandleSession)
		})
		r.Post("/links/{id}/click", s.linkHandlers.HandleClick)
		r.Group(func(r chi.Router) {
			r.Use(am.RequireAPI)
			r.Get("/links", s.linkHandlers.HandleList)
			r.Post("/links", s.linkHandlers.HandleCreate)
			r.Put("/links/reorder", s.linkHandlers.HandleReorder)
			r.Put("/links/{id}", s.linkHandlers.HandleUpdate)
			r.Delete("/links/{id}", s.linkHandlers.HandleDelete)
			r.Get("/user/settings", s.userHandlers.HandleGetSettings)
			r.Patch("/user/settings", s.userHandlers.HandlePatchSettings)
			r.Get("/user/analytics", s.userHandlers.HandleAnalytics)
			r.Post("/upload", s.userHandlers.HandleUpload)
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			s.errorAdapter.WriteErrorResponse(w, r, derrors.NotFoundError("Not found").Build())
		})
	})

	// Pages
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	r.Group(func(r chi.Router) {
		r.Use(am.RedirectIfAuthenticated)
		r.Get("/login", s.authHandlers.HandleLoginPage)
		r.Post("/login", s.authHandlers.HandleLoginForm)
		r.Get("/register", s.authHandlers.HandleRegisterPage)
		r.Post("/register", s.authHandlers.HandleRegisterForm)
	})
	r.Post("/logout", s.authHandlers.HandleLogoutForm)
	r.Route("/dashboard", func(r chi.Router) {
		r.Use(am.RequirePage)
		r.Get("/", s.pageHandlers.HandleDashboard)
		r.Post("/links", s.pageHandlers.HandleCreateLinkForm)
		r.Post("/links/{id}/delete", s.pageHandlers.HandleDeleteLinkForm)
		r.Post("/links/{id}/toggle", s.pageHandlers.HandleToggleLinkForm)
		r.Post("/links/{id}/move", s.pageHandlers.HandleMoveLinkForm)
		r.Get("/settings", s.pageHandlers.HandleSettingsPage)
		r.Post("/settings", s.pageHandlers.HandleSettingsForm)
		r.Post("/upload", s.pageHandlers.HandleUploadForm)
	})

	// Public
	r.Get("/go/{id}", s.pageHandlers.HandleFollow)
	r.Get("/link/{username}", s.pageHandlers.HandleLinkRedirect)
	if s.opts.Media != nil {
		r.Method(http.MethodGet, upload.MediaPrefix+"*", s.opts.Media)
	}
	r.Method(http.MethodGet, "/{username}", gziphandler.GzipHandler(http.HandlerFunc(s.pageHandlers.HandleProfile)))

	return r
}

// Start binds the listener and serves in the background. Binding happens
// before Start returns so address conflicts fail fast.
func (s *Server) Start(ctx context.Context) error {
	addr := s.opts.Addr
	if addr == "" {
		addr = ":8080"
	}
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("http startup failed: %w", err)
	}
	s.listener = ln
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	slog.Info("HTTP server started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr is the bound listener address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}
