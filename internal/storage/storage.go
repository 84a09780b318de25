// Package storage provides the client's durable key/value storage, the
// equivalent of a browser's local storage.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates no value is stored under the requested key.
var ErrNotFound = errors.New("storage: key not found")

// ErrCorrupt indicates the backing store could not be decoded. Writes to a
// corrupt store start over from an empty one.
var ErrCorrupt = errors.New("storage: corrupt store")

// KeyValue persists small string records across process restarts.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
