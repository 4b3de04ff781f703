// Package kv provides the persistent key-value store backing quota and
// conversation state. Values are opaque byte slices; the only coordination
// primitive is an optimistic compare-and-set.
package kv

import (
	"context"
	"errors"
)

// SchemaPrefix namespaces every key written by this program. Bumping the
// version segment abandons all previously stored state in one move instead
// of renaming individual keys.
const SchemaPrefix = "gemgram/v1/"

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv: store closed")

// Store is the minimal contract the rest of the program depends on.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key. The second result reports whether the
	// key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes the value for key unconditionally.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// CompareAndSet writes value only if the stored value still equals old.
	// A nil old means "key must be absent". Returns false (and no error)
	// when the precondition no longer holds.
	CompareAndSet(ctx context.Context, key string, old, value []byte) (bool, error)

	Close() error
}

// Key joins the schema prefix with the given path segments.
func Key(parts ...string) string {
	k := SchemaPrefix
	for i, p := range parts {
		if i > 0 {
			k += "/"
		}
		k += p
	}
	return k
}
