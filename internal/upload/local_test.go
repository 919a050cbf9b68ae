package upload

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/linkbio/internal/storage"
)

func TestLocalUploaderOverwritesPublicID(t *testing.T) {
	store := storage.NewMemoryStore()
	up := NewLocalUploader(store, "http://localhost:3000/")
	opts := Options{Folder: "link-app/avatars", PublicID: "user-1", Overwrite: true}

	first, err := up.Upload(t.Context(), Image{ContentType: "image/png", Data: pngBytes}, opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.URL, "http://localhost:3000/media/"))
	assert.Equal(t, "link-app/avatars/user-1", first.PublicID)
	assert.Equal(t, "png", first.Format)

	gif := []byte("GIF89a\x01\x00\x01\x00")
	second, err := up.Upload(t.Context(), Image{ContentType: "image/gif", Data: gif}, opts)
	require.NoError(t, err)
	assert.NotEqual(t, first.URL, second.URL)

	kept, err := store.Exists(t.Context(), path.Base(first.URL))
	require.NoError(t, err)
	assert.False(t, kept, "replaced image should be released")
	kept, err = store.Exists(t.Context(), path.Base(second.URL))
	require.NoError(t, err)
	assert.True(t, kept)
}

func TestLocalUploaderWithoutOverwrite(t *testing.T) {
	up := NewLocalUploader(storage.NewMemoryStore(), "")
	opts := Options{Folder: "bg", PublicID: "user-1"}

	_, err := up.Upload(t.Context(), Image{ContentType: "image/png", Data: pngBytes}, opts)
	require.NoError(t, err)
	_, err = up.Upload(t.Context(), Image{ContentType: "image/png", Data: []byte("GIF89a")}, opts)
	require.Error(t, err)
}

func TestLocalUploaderHandler(t *testing.T) {
	fs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	up := NewLocalUploader(fs, "")

	res, err := up.Upload(t.Context(), Image{ContentType: "image/png", Data: pngBytes}, Options{PublicID: "user-1", Overwrite: true})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	up.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, res.URL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, pngBytes, body)

	rec = httptest.NewRecorder()
	up.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/../../etc/passwd", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
