package pipeline

import (
	"context"
	"time"

	"github.com/kbukum/reqpipe/httpclient"
)

// StoredResponse is a response persisted in a ResponseStore.
type StoredResponse struct {
	Response *httpclient.Response
	StoredAt time.Time
}

// ResponseStore is a shared second-level cache consulted on a local miss.
// Load reports false for absent or expired keys.
type ResponseStore interface {
	Load(ctx context.Context, key string) (StoredResponse, bool, error)
	Save(ctx context.Context, key string, entry StoredResponse, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ClearableStore is a ResponseStore that can drop every entry it owns.
type ClearableStore interface {
	ResponseStore
	Clear(ctx context.Context) error
}
