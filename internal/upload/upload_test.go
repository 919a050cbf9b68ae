package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func multipartRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("other", "value"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFromRequestAcceptsImages(t *testing.T) {
	img, err := FromRequest(multipartRequest(t, "file", "me.png", "image/png", pngBytes), "file", 1024)
	require.NoError(t, err)
	assert.Equal(t, "me.png", img.Filename)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, pngBytes, img.Data)
}

func TestFromRequestSniffsGenericContentType(t *testing.T) {
	img, err := FromRequest(multipartRequest(t, "file", "blob", "application/octet-stream", pngBytes), "file", 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
}

func TestFromRequestRejects(t *testing.T) {
	tests := []struct {
		name    string
		req     *http.Request
		message string
	}{
		{"missing file", multipartRequest(t, "", "", "", nil), "No file provided"},
		{"not multipart", httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewReader(pngBytes)), "No file provided"},
		{"text file", multipartRequest(t, "file", "notes.txt", "text/plain", []byte("hello world")), "File must be an image"},
		{"too large", multipartRequest(t, "file", "big.png", "image/png", append(pngBytes, make([]byte, 2048)...)), "File too large (max 1.0 KiB)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRequest(tt.req, "file", 1024)
			require.Error(t, err)
			ce, ok := errors.AsClassified(err)
			require.True(t, ok)
			assert.Equal(t, errors.CategoryValidation, ce.Category())
			assert.Equal(t, tt.message, ce.Message())
		})
	}
}
