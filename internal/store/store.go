// Package store persists small JSON documents such as the engine state and the
// notification settings.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// Keys used by the application.
const (
	KeyEngineState = "engine_state"
	KeySettings    = "notification_settings"
)

// Store is a key/value store for JSON-encodable values.
type Store interface {
	// Get decodes the value stored at key into dst.
	Get(ctx context.Context, key string, dst any) error
	// Set encodes value and stores it at key.
	Set(ctx context.Context, key string, value any) error
}
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
