// Package storage keeps uploaded media by content hash. Named refs map a
// public id to the object currently published under it.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ObjectStore is the media backend of the local uploader. Objects are
// reference counted: every Put of the same bytes adds a reference and every
// Release drops one.
type ObjectStore interface {
	Put(ctx context.Context, obj *Object) (hash string, err error)
	// Get returns ErrNotFound for unknown or malformed hashes.
	Get(ctx context.Context, hash string) (*Object, error)
	Exists(ctx context.Context, hash string) (bool, error)
	Release(ctx context.Context, hash string) error
	// SetRef points name at hash and returns the previous target, "" if none.
	SetRef(ctx context.Context, name, hash string) (previous string, err error)
	// GetRef returns "" for an unset name.
	GetRef(ctx context.Context, name string) (string, error)
	Close() error
}

// Object is one stored file.
type Object struct {
	Hash        string    `json:"-"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	Refs        int       `json:"refs"`
}

// ErrNotFound reports a missing object.
var ErrNotFound = errors.New("object not found")

func notFound(hash string) error { return fmt.Errorf("%w: %s", ErrNotFound, hash) }

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

var (
	hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
	refPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+(/[A-Za-z0-9_-]+)*$`)
)

// HashOf is the object hash of data: hex SHA-256.
func HashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidHash reports whether s can name an object.
func ValidHash(s string) bool { return hashPattern.MatchString(s) }

// ValidRef reports whether name is slash separated segments of letters,
// digits, '_' and '-'.
func ValidRef(name string) bool { return refPattern.MatchString(name) }

func checkRef(name string) error {
	if !ValidRef(name) {
		return fmt.Errorf("invalid ref name %q", name)
	}
	return nil
}
