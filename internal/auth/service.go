// Package auth handles credentials, signed session cookies and request authentication.
package auth

import (
	"context"
	stderrors "errors"
	"log/slog"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/linkbio/internal/foundation"
	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/logfields"
	"git.home.luguber.info/inful/linkbio/internal/metrics"
	"git.home.luguber.info/inful/linkbio/internal/store"
)

// ErrInvalidCredentials is returned for every failed login, whatever the cause.
var ErrInvalidCredentials = errors.AuthError("Invalid credentials").Build()

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// reservedUsernames collide with top-level routes served beside /{username}.
var reservedUsernames = []string{
	"api", "dashboard", "go", "healthz", "link", "login", "logout",
	"media", "metrics", "readyz", "register",
}

// ValidUsername reports whether name has the shape of a registrable username.
func ValidUsername(name string) bool {
	return usernameRule(name).Valid
}

var usernameRule = foundation.All(
	foundation.MinLength("username", 3),
	foundation.Matches("username", usernamePattern, "Invalid"),
	foundation.NotOneOf("username", "Username is reserved", reservedUsernames...),
)

// UserStore is the persistence the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, nu store.NewUser) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	FindUserByEmailOrUsername(ctx context.Context, email, username string) (*store.User, error)
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Service registers and authenticates users.
type Service struct {
	users    UserStore
	recorder metrics.Recorder
	// dummyHash is compared against when the e-mail is unknown so both failure
	// paths cost one bcrypt comparison.
	dummyHash string
}

// NewService creates an auth service.
func NewService(users UserStore, recorder metrics.Recorder) *Service {
	dummy, _ := HashPassword("linkbio-unknown-user")
	return &Service{users: users, recorder: metrics.OrNoop(recorder), dummyHash: dummy}
}

// Validate checks a registration payload.
func (r RegisterRequest) Validate() foundation.ValidationResult {
	return foundation.Email("email")(r.Email).
		Combine(foundation.MinLength("password", 6)(r.Password)).
		Combine(foundation.MinLength("name", 2)(r.Name)).
		Combine(usernameRule(r.Username))
}

// Register validates the request, rejects duplicates and creates the account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*store.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)

	if err := req.Validate().ToError(); err != nil {
		return nil, err
	}

	existing, err := s.users.FindUserByEmailOrUsername(ctx, req.Email, req.Username)
	switch {
	case err == nil:
		if strings.EqualFold(existing.Email, req.Email) {
			return nil, store.ErrEmailTaken
		}
		return nil, store.ErrUsernameTaken
	case !stderrors.Is(err, store.ErrUserNotFound):
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, store.NewUser{
		Email:        req.Email,
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	s.recorder.IncRegistration()
	slog.InfoContext(ctx, "User registered", logfields.UserID(user.ID), logfields.Username(user.Username))
	return user, nil
}

// Authenticate verifies credentials. Any failure yields ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		s.recorder.IncLogin(metrics.ResultFailure)
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !stderrors.Is(err, store.ErrUserNotFound) {
			slog.ErrorContext(ctx, "Login lookup failed", logfields.Error(err))
		}
		CheckPassword(s.dummyHash, password)
		s.recorder.IncLogin(metrics.ResultFailure)
		return nil, ErrInvalidCredentials
	}

	if user.PasswordHash == "" || !CheckPassword(user.PasswordHash, password) {
		s.recorder.IncLogin(metrics.ResultFailure)
		return nil, ErrInvalidCredentials
	}

	s.recorder.IncLogin(metrics.ResultSuccess)
	return user, nil
}
