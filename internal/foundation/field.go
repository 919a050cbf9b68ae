package foundation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is a tri-state value for partial updates: absent, explicitly null, or set.
// The zero value is absent, which is what encoding/json leaves behind for keys
// missing from the payload.
type Field[T any] struct {
	value T
	set   bool
	null  bool
}

// Set creates a Field holding a value.
func Set[T any](value T) Field[T] {
	return Field[T]{value: value, set: true}
}

// Null creates a Field that clears the stored value.
func Null[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// Absent creates a Field that leaves the stored value untouched.
func Absent[T any]() Field[T] {
	return Field[T]{}
}

// IsSet reports whether the field was present (including explicit null).
func (f Field[T]) IsSet() bool { return f.set }

// IsNull reports whether the field was explicitly null.
func (f Field[T]) IsNull() bool { return f.set && f.null }

// Value returns the value and whether one is present.
func (f Field[T]) Value() (T, bool) {
	if !f.set || f.null {
		var zero T
		return zero, false
	}
	return f.value, true
}

// Ptr returns a pointer to the value, or nil for absent/null.
func (f Field[T]) Ptr() *T {
	if v, ok := f.Value(); ok {
		return &v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.null = true
		return nil
	}
	f.null = false
	return json.Unmarshal(data, &f.value)
}

// MarshalJSON implements json.Marshaler. Absent fields marshal as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if v, ok := f.Value(); ok {
		return json.Marshal(v)
	}
	return []byte("null"), nil
}

// String provides a string representation of the Field.
func (f Field[T]) String() string {
	switch {
	case !f.set:
		return "Absent"
	case f.null:
		return "Null"
	default:
		return fmt.Sprintf("Set(%v)", f.value)
	}
}
