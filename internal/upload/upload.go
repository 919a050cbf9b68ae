// Package upload validates image uploads and hands them to a storage provider.
package upload

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

var (
	// ErrNoFile is returned when the multipart form has no file part.
	ErrNoFile = errors.ValidationError("No file provided").Build()
	// ErrNotImage is returned for content that is not an image.
	ErrNotImage = errors.ValidationError("File must be an image").Build()
)

// Image is a validated upload.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Options control where the provider stores the image.
type Options struct {
	Folder    string
	PublicID  string
	Overwrite bool
}

// Result describes a stored image.
type Result struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Bytes    int    `json:"bytes"`
	Format   string `json:"format,omitempty"`
}

// Uploader stores images and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, img Image, opts Options) (*Result, error)
	Name() string
}

// TooLargeError reports an upload over the size limit.
func TooLargeError(maxBytes int64) error {
	return errors.ValidationError(fmt.Sprintf("File too large (max %s)", humanize.IBytes(uint64(maxBytes)))).
		WithContext("max_bytes", maxBytes).
		Build()
}

// FromRequest reads the multipart file field and validates it as an image of
// at most maxBytes.
func FromRequest(r *http.Request, field string, maxBytes int64) (Image, error) {
	// Room for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes+64<<10)
	if err := r.ParseMultipartForm(maxBytes + 64<<10); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return Image{}, TooLargeError(maxBytes)
		}
		if stderrors.Is(err, http.ErrNotMultipart) || stderrors.Is(err, http.ErrMissingBoundary) {
			return Image{}, ErrNoFile
		}
		return Image{}, errors.WrapError(err, errors.CategoryValidation, "Invalid multipart form").Build()
	}
	f, fh, err := r.FormFile(field)
	if err != nil {
		if stderrors.Is(err, http.ErrMissingFile) {
			return Image{}, ErrNoFile
		}
		return Image{}, errors.WrapError(err, errors.CategoryValidation, "Invalid multipart form").Build()
	}
	defer func() { _ = f.Close() }()
	return Read(f, fh, maxBytes)
}

// Read validates an uploaded file. The declared content type is trusted only
// when it is an image type; otherwise the bytes are sniffed.
func Read(f io.Reader, fh *multipart.FileHeader, maxBytes int64) (Image, error) {
	if fh != nil && fh.Size > maxBytes {
		return Image{}, TooLargeError(maxBytes)
	}
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return Image{}, errors.WrapError(err, errors.CategoryUpload, "read upload").Build()
	}
	if len(data) == 0 {
		return Image{}, ErrNoFile
	}
	if int64(len(data)) > maxBytes {
		return Image{}, TooLargeError(maxBytes)
	}

	img := Image{Data: data}
	if fh != nil {
		img.Filename = fh.Filename
		img.ContentType = fh.Header.Get("Content-Type")
	}
	if !isImageType(img.ContentType) {
		img.ContentType = http.DetectContentType(data)
	}
	if !isImageType(img.ContentType) {
		return Image{}, ErrNotImage
	}
	return img, nil
}

func isImageType(ct string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "image/")
}
