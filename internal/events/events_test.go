package events

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

type fakeConn struct {
	mu      sync.Mutex
	msgs    map[string][][]byte
	err     error
	drained bool
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.msgs == nil {
		f.msgs = map[string][][]byte{}
	}
	f.msgs[subj] = append(f.msgs[subj], data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestNATSPublisherSubjectAndPayload(t *testing.T) {
	fc := &fakeConn{}
	p := newNATSPublisher(fc, "linkbio.")
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return ts }

	err := p.Publish(t.Context(), Event{Type: TypeLinkClicked, LinkID: "l1", UserID: "u1", Device: DeviceMobile})
	require.NoError(t, err)

	require.Len(t, fc.msgs["linkbio.link.clicked"], 1)
	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.msgs["linkbio.link.clicked"][0], &got))
	assert.Equal(t, "link.clicked", got["type"])
	assert.Equal(t, "l1", got["linkId"])
	assert.Equal(t, "mobile", got["device"])
	assert.Equal(t, "2024-05-01T12:00:00Z", got["timestamp"])
	assert.NotContains(t, got, "status")

	require.NoError(t, p.Close())
	assert.True(t, fc.drained)
}

func TestNATSPublisherClassifiesFailures(t *testing.T) {
	p := newNATSPublisher(&fakeConn{err: errors.New("connection closed")}, "")
	assert.Equal(t, "profile.viewed", p.Subject(TypeProfileViewed))

	err := p.Publish(t.Context(), Event{Type: TypeProfileViewed})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryMessaging))
}

func TestVisitClient(t *testing.T) {
	tests := []struct {
		name   string
		ua     string
		device string
	}{
		{"empty", "", DeviceUnknown},
		{"desktop chrome", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/71.0.3578.98 Safari/537.36", DeviceDesktop},
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 12_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/12.0 Mobile/15E148 Safari/604.1", DeviceMobile},
		{"googlebot", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", DeviceBot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Visit{UserAgent: tt.ua}
			assert.Equal(t, tt.device, v.Client().Device)
			assert.Equal(t, tt.device == DeviceBot, v.IsBot())
		})
	}
}

func TestAnnotate(t *testing.T) {
	v := Visit{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/71.0.3578.98 Safari/537.36",
		Referrer:  "https://example.com/",
	}
	var e Event
	v.Annotate(&e)
	assert.Equal(t, "Chrome", e.Browser)
	assert.Equal(t, "Windows", e.OS)
	assert.Equal(t, "https://example.com/", e.Referrer)
}

func TestOrNoop(t *testing.T) {
	p := OrNoop(nil)
	require.NoError(t, p.Publish(t.Context(), Event{Type: TypeLinkBroken}))
	require.NoError(t, p.Close())
}
