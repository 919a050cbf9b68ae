package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an ObjectStore held in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*Object
	refs    map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]*Object{}, refs: map[string]string{}}
}

func (m *MemoryStore) Put(_ context.Context, obj *Object) (string, error) {
	hash := HashOf(obj.Data)
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.objects[hash]; ok {
		cur.Refs++
		return hash, nil
	}
	m.objects[hash] = &Object{
		Hash:        hash,
		ContentType: obj.ContentType,
		Data:        append([]byte(nil), obj.Data...),
		CreatedAt:   time.Now(),
		Refs:        1,
	}
	return hash, nil
}

func (m *MemoryStore) Get(_ context.Context, hash string) (*Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[hash]
	if !ok {
		return nil, notFound(hash)
	}
	cp := *obj
	return &cp, nil
}

func (m *MemoryStore) Exists(_ context.Context, hash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[hash]
	return ok, nil
}

func (m *MemoryStore) Release(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[hash]
	if !ok {
		return notFound(hash)
	}
	if obj.Refs--; obj.Refs <= 0 {
		delete(m.objects, hash)
	}
	return nil
}

func (m *MemoryStore) SetRef(_ context.Context, name, hash string) (string, error) {
	if err := checkRef(name); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.refs[name]
	m.refs[name] = hash
	return prev, nil
}

func (m *MemoryStore) GetRef(_ context.Context, name string) (string, error) {
	if err := checkRef(name); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refs[name], nil
}

func (m *MemoryStore) Close() error { return nil }
