package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/linkbio/internal/foundation"
)

func createLink(t *testing.T, s *Store, userID, title string, order int) *Link {
	t.Helper()
	l, err := s.CreateLink(t.Context(), NewLink{
		UserID: userID,
		Title:  title,
		URL:    "https://example.com/" + title,
		Order:  order,
		Active: true,
	})
	require.NoError(t, err)
	return l
}

func ids(links []Link) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.ID
	}
	return out
}

func TestCreateAndListLinks(t *testing.T) {
	s := newTestStore(t)
	fixedClock(s)
	ctx := t.Context()
	u := createUser(t, s, "alice")

	c := createLink(t, s, u.ID, "c", 2)
	a := createLink(t, s, u.ID, "a", 0)
	b := createLink(t, s, u.ID, "b", 1)
	b2 := createLink(t, s, u.ID, "b2", 1)

	links, err := s.ListLinks(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID, b2.ID, c.ID}, ids(links), "ordered by position then created_at")

	next, err := s.NextPosition(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, next)

	other := createUser(t, s, "bob")
	next, err = s.NextPosition(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, next)
}

func TestCreateLinkUnknownUser(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateLink(t.Context(), NewLink{UserID: "ghost", Title: "x", URL: "https://x.io"})
	assert.True(t, errors.Is(err, ErrUserNotFound), "got %v", err)
}

func TestGetLinkOwnership(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	l := createLink(t, s, alice.ID, "mine", 0)

	got, err := s.GetLink(ctx, l.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, l.URL, got.URL)
	assert.True(t, got.Active)
	assert.Nil(t, got.Healthy)

	_, err = s.GetLink(ctx, l.ID, bob.ID)
	assert.True(t, errors.Is(err, ErrLinkNotFound))

	public, err := s.GetLinkByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, public.UserID)
}

func TestUpdateLinkPartial(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	u := createUser(t, s, "alice")
	l := createLink(t, s, u.ID, "first", 0)

	status := 200
	require.NoError(t, s.RecordLinkHealth(ctx, l.ID, Health{Status: &status, Healthy: true}))

	updated, err := s.UpdateLink(ctx, l.ID, u.ID, LinkUpdate{
		Title:      foundation.Set("renamed"),
		Active:     foundation.Set(false),
		SocialType: foundation.Set("GitHub"),
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.False(t, updated.Active)
	require.NotNil(t, updated.SocialType)
	assert.Equal(t, "GitHub", *updated.SocialType)
	assert.Equal(t, l.URL, updated.URL)
	require.NotNil(t, updated.Healthy, "health survives non-URL edits")

	updated, err = s.UpdateLink(ctx, l.ID, u.ID, LinkUpdate{
		URL:        foundation.Set("https://changed.example.com"),
		SocialType: foundation.Null[string](),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.SocialType)
	assert.Nil(t, updated.Healthy, "URL change resets health")
	assert.Nil(t, updated.LastStatus)

	other := createUser(t, s, "mallory")
	_, err = s.UpdateLink(ctx, l.ID, other.ID, LinkUpdate{Title: foundation.Set("pwned")})
	assert.True(t, errors.Is(err, ErrLinkNotFound))
}

func TestDeleteLink(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	u := createUser(t, s, "alice")
	other := createUser(t, s, "bob")
	l := createLink(t, s, u.ID, "gone", 0)

	assert.True(t, errors.Is(s.DeleteLink(ctx, l.ID, other.ID), ErrLinkNotFound))
	require.NoError(t, s.DeleteLink(ctx, l.ID, u.ID))
	assert.True(t, errors.Is(s.DeleteLink(ctx, l.ID, u.ID), ErrLinkNotFound))
}

func TestReorderLinks(t *testing.T) {
	s := newTestStore(t)
	fixedClock(s)
	ctx := t.Context()
	u := createUser(t, s, "alice")
	a := createLink(t, s, u.ID, "a", 0)
	b := createLink(t, s, u.ID, "b", 1)
	c := createLink(t, s, u.ID, "c", 2)

	require.NoError(t, s.ReorderLinks(ctx, u.ID, []ReorderItem{
		{ID: c.ID, Order: 0},
		{ID: a.ID, Order: 1},
		{ID: b.ID, Order: 2},
	}))

	links, err := s.ListLinks(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, ids(links))
}

func TestReorderLinksIsAtomic(t *testing.T) {
	s := newTestStore(t)
	fixedClock(s)
	ctx := t.Context()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	a := createLink(t, s, alice.ID, "a", 0)
	b := createLink(t, s, alice.ID, "b", 1)
	foreign := createLink(t, s, bob.ID, "x", 0)

	err := s.ReorderLinks(ctx, alice.ID, []ReorderItem{
		{ID: b.ID, Order: 0},
		{ID: foreign.ID, Order: 1},
		{ID: a.ID, Order: 2},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLinkNotFound))

	links, err := s.ListLinks(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, ids(links), "failed batch must leave order untouched")

	bobs, err := s.ListLinks(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, bobs[0].Order)
}

func TestIncrementClicks(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	u := createUser(t, s, "alice")
	l := createLink(t, s, u.ID, "a", 0)

	n, err := s.IncrementClicks(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = s.IncrementClicks(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.IncrementClicks(ctx, "missing")
	assert.True(t, errors.Is(err, ErrLinkNotFound))
}

func TestActiveLinksAndHealth(t *testing.T) {
	s := newTestStore(t)
	fixedClock(s)
	ctx := t.Context()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	a := createLink(t, s, alice.ID, "a", 0)
	hidden := createLink(t, s, alice.ID, "hidden", 1)
	b := createLink(t, s, bob.ID, "b", 0)

	_, err := s.UpdateLink(ctx, hidden.ID, alice.ID, LinkUpdate{Active: foundation.Set(false)})
	require.NoError(t, err)

	active, err := s.ListActiveLinks(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids(active))

	status := 404
	title := "Not Found"
	checked := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordLinkHealth(ctx, a.ID, Health{Status: &status, Healthy: false, PageTitle: &title, CheckedAt: checked}))

	all, err := s.ListAllActiveLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, ids(all), "unchecked links come first")

	got, err := s.GetLink(ctx, a.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Healthy)
	assert.False(t, *got.Healthy)
	assert.Equal(t, 404, *got.LastStatus)
	assert.Equal(t, "Not Found", *got.PageTitle)
	require.NotNil(t, got.LastCheckedAt)
	assert.True(t, checked.Equal(*got.LastCheckedAt))

	assert.True(t, errors.Is(s.RecordLinkHealth(ctx, "missing", Health{}), ErrLinkNotFound))
}

func TestUserStats(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	u := createUser(t, s, "alice")

	empty, err := s.UserStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, UserStats{}, *empty)

	a := createLink(t, s, u.ID, "a", 0)
	b := createLink(t, s, u.ID, "b", 1)
	createLink(t, s, u.ID, "c", 2)
	for range 3 {
		_, err := s.IncrementClicks(ctx, a.ID)
		require.NoError(t, err)
	}
	_, err = s.IncrementClicks(ctx, b.ID)
	require.NoError(t, err)
	_, err = s.IncrementPageViews(ctx, u.ID)
	require.NoError(t, err)
	ok, bad := 200, 500
	require.NoError(t, s.RecordLinkHealth(ctx, a.ID, Health{Status: &ok, Healthy: true}))
	require.NoError(t, s.RecordLinkHealth(ctx, b.ID, Health{Status: &bad, Healthy: false}))
	_, err = s.UpdateLink(ctx, b.ID, u.ID, LinkUpdate{Active: foundation.Set(false)})
	require.NoError(t, err)

	st, err := s.UserStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, UserStats{
		PageViews:   1,
		TotalClicks: 4,
		LinkCount:   3,
		ActiveLinks: 2,
		Healthy:     1,
		Broken:      1,
		Unchecked:   1,
	}, *st)

	_, err = s.UserStats(ctx, "missing")
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestDeletingUserCascadesLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	u := createUser(t, s, "alice")
	createLink(t, s, u.ID, "a", 0)

	_, err := s.DB().ExecContext(ctx, "DELETE FROM users WHERE id = ?", u.ID)
	require.NoError(t, err)

	all, err := s.ListAllActiveLinks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
