package linkcheck

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

// KVCache keeps probe results in a JetStream key-value bucket so several
// instances share them.
type KVCache struct {
	kv jetstream.KeyValue
}

// NewKVCache opens bucket, creating it when missing.
func NewKVCache(ctx context.Context, nc *nats.Conn, bucket string) (*KVCache, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryMessaging, "failed to create JetStream context").Build()
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return &KVCache{kv: kv}, nil
	}
	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Link health probe cache",
		MaxBytes:    64 * 1024 * 1024,
		History:     1,
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryMessaging, "failed to create KV bucket").
			WithContext("bucket", bucket).
			Build()
	}
	slog.Info("Created KV bucket for link check cache", slog.String("bucket", bucket))
	return &KVCache{kv: kv}, nil
}

// cacheKey maps a URL onto the KV key alphabet.
func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func (c *KVCache) Get(ctx context.Context, url string) (*CacheEntry, error) {
	entry, err := c.kv.Get(ctx, cacheKey(url))
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrCacheMiss
		}
		return nil, errors.WrapError(err, errors.CategoryMessaging, "failed to get cache entry").Build()
	}
	var cached CacheEntry
	if err := json.Unmarshal(entry.Value(), &cached); err != nil {
		return nil, errors.WrapError(err, errors.CategoryMessaging, "failed to decode cache entry").Build()
	}
	return &cached, nil
}

func (c *KVCache) Set(ctx context.Context, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode cache entry").Build()
	}
	if _, err := c.kv.Put(ctx, cacheKey(entry.URL), data); err != nil {
		return errors.WrapError(err, errors.CategoryMessaging, "failed to put cache entry").Build()
	}
	return nil
}

// Close is a no-op; the connection is owned by the caller.
func (c *KVCache) Close() error { return nil }
