package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FSStore keeps objects on disk, sharded by the first two hash characters,
// with a JSON sidecar per object and one file per ref:
//
//	<dir>/objects/ab/cdef...       bytes
//	<dir>/objects/ab/cdef....json  content type, creation time, refs
//	<dir>/refs/link-app/avatars/user-1
type FSStore struct {
	objects string
	refs    string
	now     func() time.Time

	mu sync.RWMutex
}

// NewFSStore opens or creates a store rooted at dir.
func NewFSStore(dir string) (*FSStore, error) {
	s := &FSStore{
		objects: filepath.Join(dir, "objects"),
		refs:    filepath.Join(dir, "refs"),
		now:     time.Now,
	}
	for _, d := range []string{s.objects, s.refs} {
		if err := os.MkdirAll(d, 0o750); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	return s, nil
}

func (s *FSStore) Put(_ context.Context, obj *Object) (string, error) {
	hash := HashOf(obj.Data)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.record(hash)
	switch {
	case err == nil:
		rec.Refs++
		return hash, s.writeRecord(hash, rec)
	case !errors.Is(err, fs.ErrNotExist):
		return "", err
	}

	p := s.path(hash)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return "", fmt.Errorf("create shard: %w", err)
	}
	if err := writeAtomic(p, obj.Data); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	rec = Object{ContentType: obj.ContentType, CreatedAt: s.now(), Refs: 1}
	if err := s.writeRecord(hash, rec); err != nil {
		_ = os.Remove(p)
		return "", err
	}
	return hash, nil
}

func (s *FSStore) Get(_ context.Context, hash string) (*Object, error) {
	if !ValidHash(hash) {
		return nil, notFound(hash)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(hash)) // #nosec G304 -- path derived from a validated hash
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(hash)
	}
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	rec, err := s.record(hash)
	if err != nil {
		rec = Object{Refs: 1}
	}
	rec.Hash = hash
	rec.Data = data
	return &rec, nil
}

func (s *FSStore) Exists(_ context.Context, hash string) (bool, error) {
	if !ValidHash(hash) {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.path(hash))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *FSStore) Release(_ context.Context, hash string) error {
	if !ValidHash(hash) {
		return notFound(hash)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, err := s.record(hash); err == nil && rec.Refs > 1 {
		rec.Refs--
		return s.writeRecord(hash, rec)
	}
	p := s.path(hash)
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound(hash)
		}
		return fmt.Errorf("remove object: %w", err)
	}
	_ = os.Remove(p + ".json")
	// Only succeeds once the shard is empty.
	_ = os.Remove(filepath.Dir(p))
	return nil
}

func (s *FSStore) SetRef(_ context.Context, name, hash string) (string, error) {
	if err := checkRef(name); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p := filepath.Join(s.refs, filepath.FromSlash(name))
	prev, err := readRef(p)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return "", fmt.Errorf("create ref directory: %w", err)
	}
	if err := writeAtomic(p, []byte(hash)); err != nil {
		return "", fmt.Errorf("write ref: %w", err)
	}
	return prev, nil
}

func (s *FSStore) GetRef(_ context.Context, name string) (string, error) {
	if err := checkRef(name); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readRef(filepath.Join(s.refs, filepath.FromSlash(name)))
}

func (s *FSStore) Close() error { return nil }

func (s *FSStore) path(hash string) string {
	return filepath.Join(s.objects, hash[:2], hash[2:])
}

func (s *FSStore) record(hash string) (Object, error) {
	var rec Object
	raw, err := os.ReadFile(s.path(hash) + ".json") // #nosec G304 -- path derived from a validated hash
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decode record %s: %w", hash, err)
	}
	return rec, nil
}

func (s *FSStore) writeRecord(hash string, rec Object) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return writeAtomic(s.path(hash)+".json", raw)
}

func readRef(p string) (string, error) {
	raw, err := os.ReadFile(p) // #nosec G304 -- ref names are validated
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read ref: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func writeAtomic(p string, data []byte) error {
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
