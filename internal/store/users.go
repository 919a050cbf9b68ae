package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var userColumns = []string{
	"id", "email", "username", "name", "password_hash",
	"image", "theme", "bio", "background_color", "background_image",
	"page_views", "created_at", "updated_at",
}

// CreateUser inserts a new user. Emails are stored case-folded.
func (s *Store) CreateUser(ctx context.Context, nu NewUser) (*User, error) {
	now := s.now()
	u := &User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(nu.Email)),
		Username:     strings.TrimSpace(nu.Username),
		Name:         strings.TrimSpace(nu.Name),
		PasswordHash: nu.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query, args, err := sq.Insert("users").
		Columns("id", "email", "username", "name", "password_hash", "page_views", "created_at", "updated_at").
		Values(u.ID, u.Email, u.Username, u.Name, u.PasswordHash, 0, u.CreatedAt, u.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, dbError(err, "build insert user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		switch {
		case uniqueViolation(err, "users.email"):
			return nil, ErrEmailTaken
		case uniqueViolation(err, "users.username"):
			return nil, ErrUsernameTaken
		}
		return nil, dbError(err, "insert user")
	}
	return u, nil
}

func (s *Store) getUser(ctx context.Context, where sq.Sqlizer) (*User, error) {
	query, args, err := sq.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, dbError(err, "build select user")
	}
	var u User
	if err := s.db.GetContext(ctx, &u, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, dbError(err, "select user")
	}
	return &u, nil
}

// GetUserByID loads a user by primary key.
func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, sq.Eq{"id": id})
}

// GetUserByEmail loads a user by e-mail (case-insensitive).
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, sq.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

// GetUserByUsername loads a user by username (case-insensitive).
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, sq.Eq{"username": strings.TrimSpace(username)})
}

// FindUserByEmailOrUsername returns the first user owning either value, used to
// reject duplicate registrations with a precise message.
func (s *Store) FindUserByEmailOrUsername(ctx context.Context, email, username string) (*User, error) {
	return s.getUser(ctx, sq.Or{
		sq.Eq{"email": strings.ToLower(strings.TrimSpace(email))},
		sq.Eq{"username": strings.TrimSpace(username)},
	})
}

// UpdateProfile applies a partial profile update and returns the stored user.
func (s *Store) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error) {
	q := sq.Update("users")
	changed := false
	set := func(column string, f interface {
		IsSet() bool
		IsNull() bool
		Ptr() *string
	}) {
		if !f.IsSet() {
			return
		}
		changed = true
		if f.IsNull() {
			q = q.Set(column, nil)
			return
		}
		q = q.Set(column, *f.Ptr())
	}
	set("image", upd.Image)
	set("theme", upd.Theme)
	set("bio", upd.Bio)
	set("background_color", upd.BackgroundColor)
	set("background_image", upd.BackgroundImage)

	if !changed {
		return s.GetUserByID(ctx, id)
	}

	query, args, err := q.Set("updated_at", s.now()).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, dbError(err, "build update profile")
	}
	if err := s.execAffectingOne(ctx, query, args, ErrUserNotFound, "update profile"); err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, id)
}

// SetUserImage stores the avatar URL.
func (s *Store) SetUserImage(ctx context.Context, id, imageURL string) error {
	query, args, err := sq.Update("users").
		Set("image", imageURL).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return dbError(err, "build set image")
	}
	return s.execAffectingOne(ctx, query, args, ErrUserNotFound, "set user image")
}

// IncrementPageViews bumps the view counter and returns the new value.
func (s *Store) IncrementPageViews(ctx context.Context, id string) (int64, error) {
	query, args, err := sq.Update("users").
		Set("page_views", sq.Expr("page_views + 1")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING page_views").
		ToSql()
	if err != nil {
		return 0, dbError(err, "build increment page views")
	}
	return s.returningCounter(ctx, query, args, ErrUserNotFound, "increment page views")
}

// execAffectingOne runs a write and maps zero affected rows to notFound.
func (s *Store) execAffectingOne(ctx context.Context, query string, args []any, notFound error, op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return dbError(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(err, op)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func (s *Store) returningCounter(ctx context.Context, query string, args []any, notFound error, op string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return 0, notFound
		}
		return 0, dbError(err, op)
	}
	return n, nil
}
