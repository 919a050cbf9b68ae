package links

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/linkbio/internal/events"
	"git.home.luguber.info/inful/linkbio/internal/foundation"
	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc  *Service
	st   *store.Store
	pub  *recordingPublisher
	user *store.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(t.Context()))

	u, err := st.CreateUser(t.Context(), store.NewUser{
		Email: "ada@example.com", Username: "ada", Name: "Ada", PasswordHash: "x",
	})
	require.NoError(t, err)

	pub := &recordingPublisher{}
	return &fixture{svc: NewService(st, pub, nil), st: st, pub: pub, user: u}
}

func (f *fixture) create(t *testing.T, title, url string) *store.Link {
	t.Helper()
	l, err := f.svc.Create(t.Context(), f.user.ID, CreateLinkRequest{Title: title, URL: url})
	require.NoError(t, err)
	return l
}

func ids(list []store.Link) []string {
	out := make([]string, len(list))
	for i, l := range list {
		out[i] = l.ID
	}
	return out
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, "Blog", "https://blog.example.com")
	second := f.create(t, " Shop ", "https://shop.example.com")

	assert.True(t, first.Active)
	assert.False(t, first.IsSocial)
	assert.Nil(t, first.SocialType)
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 1, second.Order)
	assert.Equal(t, "Shop", second.Title)
}

func TestCreateDetectsSocialType(t *testing.T) {
	f := newFixture(t)
	yes := true
	l, err := f.svc.Create(t.Context(), f.user.ID, CreateLinkRequest{
		Title: "Me on X", URL: "https://x.com/ada", IsSocial: &yes,
	})
	require.NoError(t, err)
	require.NotNil(t, l.SocialType)
	assert.Equal(t, "Twitter/X", *l.SocialType)

	explicit := "github"
	l, err = f.svc.Create(t.Context(), f.user.ID, CreateLinkRequest{
		Title: "Code", URL: "https://example.com/code", IsSocial: &yes, SocialType: &explicit,
	})
	require.NoError(t, err)
	assert.Equal(t, "GitHub", *l.SocialType)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	neg := -1
	tests := []struct {
		name string
		req  CreateLinkRequest
		path string
	}{
		{"empty title", CreateLinkRequest{Title: " ", URL: "https://a.example"}, "title"},
		{"bad url", CreateLinkRequest{Title: "A", URL: "not a url"}, "url"},
		{"ftp url", CreateLinkRequest{Title: "A", URL: "ftp://a.example"}, "url"},
		{"negative order", CreateLinkRequest{Title: "A", URL: "https://a.example", Order: &neg}, "order"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(t.Context(), f.user.ID, tt.req)
			require.Error(t, err)
			ce, ok := errors.AsClassified(err)
			require.True(t, ok)
			assert.Equal(t, errors.CategoryValidation, ce.Category())
			fields := ce.Context()[errors.ContextKeyFieldErrors].([]foundation.FieldProblem)
			assert.Equal(t, tt.path, fields[0].Path)
		})
	}
}

func TestUpdatePartial(t *testing.T) {
	f := newFixture(t)
	l := f.create(t, "Blog", "https://blog.example.com")

	var req UpdateLinkRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"My blog","active":false}`), &req))
	got, err := f.svc.Update(t.Context(), f.user.ID, l.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "My blog", got.Title)
	assert.False(t, got.Active)
	assert.Equal(t, "https://blog.example.com", got.URL)

	_, err = f.svc.Update(t.Context(), f.user.ID, l.ID, UpdateLinkRequest{Title: foundation.Null[string]()})
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestUpdateMarksSocialAndDetects(t *testing.T) {
	f := newFixture(t)
	l := f.create(t, "Videos", "https://www.youtube.com/@ada")

	got, err := f.svc.Update(t.Context(), f.user.ID, l.ID, UpdateLinkRequest{IsSocial: foundation.Set(true)})
	require.NoError(t, err)
	require.NotNil(t, got.SocialType)
	assert.Equal(t, "YouTube", *got.SocialType)

	got, err = f.svc.Update(t.Context(), f.user.ID, l.ID, UpdateLinkRequest{
		IsSocial: foundation.Set(false), SocialType: foundation.Null[string](),
	})
	require.NoError(t, err)
	assert.False(t, got.IsSocial)
	assert.Nil(t, got.SocialType)
}

func TestUpdateAndDeleteRequireOwnership(t *testing.T) {
	f := newFixture(t)
	l := f.create(t, "Blog", "https://blog.example.com")

	other, err := f.st.CreateUser(t.Context(), store.NewUser{
		Email: "eve@example.com", Username: "eve", Name: "Eve", PasswordHash: "x",
	})
	require.NoError(t, err)

	_, err = f.svc.Update(t.Context(), other.ID, l.ID, UpdateLinkRequest{Title: foundation.Set("pwned")})
	require.ErrorIs(t, err, store.ErrLinkNotFound)
	require.ErrorIs(t, f.svc.Delete(t.Context(), other.ID, l.ID), store.ErrLinkNotFound)

	require.NoError(t, f.svc.Delete(t.Context(), f.user.ID, l.ID))
	list, err := f.svc.List(t.Context(), f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReorder(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "https://a.example")
	b := f.create(t, "B", "https://b.example")
	c := f.create(t, "C", "https://c.example")

	err := f.svc.Reorder(t.Context(), f.user.ID, []store.ReorderItem{
		{ID: c.ID, Order: 0}, {ID: a.ID, Order: 1}, {ID: b.ID, Order: 2},
	})
	require.NoError(t, err)
	list, err := f.svc.List(t.Context(), f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]string{c.ID, a.ID, b.ID}, ids(list)))

	err = f.svc.Reorder(t.Context(), f.user.ID, []store.ReorderItem{{ID: a.ID, Order: 0}, {ID: a.ID, Order: 1}})
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	err = f.svc.Reorder(t.Context(), f.user.ID, []store.ReorderItem{{ID: a.ID, Order: -1}})
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	// Unknown id aborts the batch and leaves the order untouched.
	err = f.svc.Reorder(t.Context(), f.user.ID, []store.ReorderItem{{ID: b.ID, Order: 0}, {ID: "missing", Order: 1}})
	require.ErrorIs(t, err, store.ErrLinkNotFound)
	list, err = f.svc.List(t.Context(), f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]string{c.ID, a.ID, b.ID}, ids(list)))
}

func TestMoveTo(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "https://a.example")
	b := f.create(t, "B", "https://b.example")
	c := f.create(t, "C", "https://c.example")

	require.NoError(t, f.svc.MoveTo(t.Context(), f.user.ID, a.ID, 2))
	list, err := f.svc.List(t.Context(), f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]string{b.ID, c.ID, a.ID}, ids(list)))
	for i, l := range list {
		assert.Equal(t, i, l.Order)
	}

	require.ErrorIs(t, f.svc.MoveTo(t.Context(), f.user.ID, "missing", 0), store.ErrLinkNotFound)
}

func TestClickAndFollow(t *testing.T) {
	f := newFixture(t)
	l := f.create(t, "Blog", "https://blog.example.com")

	n, err := f.svc.Click(t.Context(), l.ID, events.Visit{Referrer: "https://ref.example"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	followed, err := f.svc.Follow(t.Context(), l.ID, events.Visit{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, followed.Clicks)
	assert.Equal(t, "https://blog.example.com", followed.URL)

	require.Len(t, f.pub.events, 2)
	e := f.pub.events[0]
	assert.Equal(t, events.TypeLinkClicked, e.Type)
	assert.Equal(t, f.user.ID, e.UserID)
	assert.Equal(t, l.ID, e.LinkID)
	assert.Equal(t, "https://ref.example", e.Referrer)

	_, err = f.svc.Update(t.Context(), f.user.ID, l.ID, UpdateLinkRequest{Active: foundation.Set(false)})
	require.NoError(t, err)
	_, err = f.svc.Follow(t.Context(), l.ID, events.Visit{})
	require.ErrorIs(t, err, store.ErrLinkNotFound)

	_, err = f.svc.Click(t.Context(), "missing", events.Visit{})
	require.ErrorIs(t, err, store.ErrLinkNotFound)
}
