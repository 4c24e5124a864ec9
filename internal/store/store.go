package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has no record.
var ErrNotFound = errors.New("store: key not found")

// Store is the persistent key-value engine shared by all telemetry
// components. Single records live under unique keys as JSON blobs;
// append-only logs use the list operations. Writes are last-write-wins and
// no ordering is guaranteed across keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Keys returns every key starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Append pushes value onto the end of the log stored under key.
	Append(ctx context.Context, key string, value []byte) error

	// Range returns the full log under key in insertion order.
	Range(ctx context.Context, key string) ([][]byte, error)

	// Trim drops the oldest entries of the log under key so that at most
	// max remain. The newest entries are always kept.
	Trim(ctx context.Context, key string, max int64) error
}
