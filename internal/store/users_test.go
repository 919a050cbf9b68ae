package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/linkbio/internal/foundation"
)

func createUser(t *testing.T, s *Store, username string) *User {
	t.Helper()
	u, err := s.CreateUser(t.Context(), NewUser{
		Email:        username + "@Example.com",
		Username:     username,
		Name:         "User " + username,
		PasswordHash: "$2a$10$hash",
	})
	require.NoError(t, err)
	return u
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	fixedClock(s)
	ctx := t.Context()

	created := createUser(t, s, "alice")
	assert.Equal(t, "alice@example.com", created.Email, "email is case-folded")
	assert.NotEmpty(t, created.ID)

	byID, err := s.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(created, byID, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Errorf("GetUserByID mismatch (-want +got):\n%s", diff)
	}

	byEmail, err := s.GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byName, err := s.GetUserByUsername(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = s.GetUserByID(ctx, "missing")
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestCreateUserDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	createUser(t, s, "bob")

	_, err := s.CreateUser(ctx, NewUser{Email: "BOB@example.com", Username: "other", Name: "Bob", PasswordHash: "x"})
	assert.True(t, errors.Is(err, ErrEmailTaken), "got %v", err)

	_, err = s.CreateUser(ctx, NewUser{Email: "new@example.com", Username: "BOB", Name: "Bob", PasswordHash: "x"})
	assert.True(t, errors.Is(err, ErrUsernameTaken), "got %v", err)
}

func TestFindUserByEmailOrUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	u := createUser(t, s, "carol")

	found, err := s.FindUserByEmailOrUsername(ctx, "nobody@example.com", "carol")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	found, err = s.FindUserByEmailOrUsername(ctx, "carol@example.com", "someone")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = s.FindUserByEmailOrUsername(ctx, "x@example.com", "x")
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestUpdateProfilePartial(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	u := createUser(t, s, "dave")

	updated, err := s.UpdateProfile(ctx, u.ID, ProfileUpdate{
		Bio:             foundation.Set("hello"),
		BackgroundColor: foundation.Set("#112233"),
		Theme:           foundation.Set("dark"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "hello", *updated.Bio)
	assert.Equal(t, "#112233", *updated.BackgroundColor)

	// Absent fields stay, null clears.
	updated, err = s.UpdateProfile(ctx, u.ID, ProfileUpdate{Bio: foundation.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, updated.Bio)
	require.NotNil(t, updated.BackgroundColor)
	assert.Equal(t, "#112233", *updated.BackgroundColor)
	assert.Equal(t, "dark", *updated.Theme)

	// No fields is a read.
	same, err := s.UpdateProfile(ctx, u.ID, ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, updated.UpdatedAt, same.UpdatedAt)

	_, err = s.UpdateProfile(ctx, "missing", ProfileUpdate{Bio: foundation.Set("x")})
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestSetUserImageAndPageViews(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	u := createUser(t, s, "erin")

	require.NoError(t, s.SetUserImage(ctx, u.ID, "https://cdn.example.com/a.png"))
	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Image)
	assert.Equal(t, "https://cdn.example.com/a.png", *got.Image)

	for want := int64(1); want <= 3; want++ {
		n, err := s.IncrementPageViews(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	assert.True(t, errors.Is(s.SetUserImage(ctx, "missing", "x"), ErrUserNotFound))
	_, err = s.IncrementPageViews(ctx, "missing")
	assert.True(t, errors.Is(err, ErrUserNotFound))
}
