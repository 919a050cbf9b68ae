package upload

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/linkbio/internal/config"
	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/logfields"
	"git.home.luguber.info/inful/linkbio/internal/storage"
)

// MediaPrefix is the URL path local uploads are served under.
const MediaPrefix = "/media/"

// LocalUploader keeps images in a content-addressed object store and serves
// them itself. Public ids are refs, so overwriting one releases the old bytes.
type LocalUploader struct {
	store   storage.ObjectStore
	baseURL string
}

// NewLocalUploader creates an uploader whose URLs are rooted at baseURL.
func NewLocalUploader(store storage.ObjectStore, baseURL string) *LocalUploader {
	return &LocalUploader{store: store, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Name identifies the provider in logs and metrics.
func (l *LocalUploader) Name() string { return string(config.UploadProviderLocal) }

// Upload stores img and points the folder/public id ref at it.
func (l *LocalUploader) Upload(ctx context.Context, img Image, opts Options) (*Result, error) {
	hash, err := l.store.Put(ctx, &storage.Object{ContentType: img.ContentType, Data: img.Data})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "Failed to upload image").Build()
	}

	publicID := path.Join(opts.Folder, opts.PublicID)
	if opts.PublicID != "" {
		current, err := l.store.GetRef(ctx, publicID)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "Failed to upload image").Build()
		}
		if current != "" && current != hash && !opts.Overwrite {
			_ = l.store.Release(ctx, hash)
			return nil, errors.AlreadyExistsError("Image already exists").WithContext("public_id", publicID).Build()
		}
		prev, err := l.store.SetRef(ctx, publicID, hash)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "Failed to upload image").Build()
		}
		if prev != "" {
			if err := l.store.Release(ctx, prev); err != nil && !storage.IsNotFound(err) {
				slog.WarnContext(ctx, "Failed to release replaced image", logfields.Error(err))
			}
		}
	}

	return &Result{
		URL:      l.baseURL + MediaPrefix + hash,
		PublicID: publicID,
		Bytes:    len(img.Data),
		Format:   strings.TrimPrefix(img.ContentType, "image/"),
	}, nil
}

// Handler serves stored objects under MediaPrefix. Content is immutable, so
// responses are cacheable forever.
func (l *LocalUploader) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hash := strings.TrimPrefix(r.URL.Path, MediaPrefix)
		obj, err := l.store.Get(r.Context(), hash)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		ct := obj.ContentType
		if ct == "" {
			ct = http.DetectContentType(obj.Data)
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeContent(w, r, "", obj.CreatedAt.Truncate(time.Second), bytes.NewReader(obj.Data))
	})
}
