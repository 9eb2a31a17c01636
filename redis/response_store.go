package redis

import (
	"context"
	"time"

	"github.com/kbukum/reqpipe/httpclient"
	"github.com/kbukum/reqpipe/httpclient/pipeline"
)

// storedResponse is the JSON form of a cached response.
type storedResponse struct {
	Status   int               `json:"status"`
	Headers  map[string]string `json:"headers,omitempty"`
	Body     []byte            `json:"body,omitempty"`
	StoredAt time.Time         `json:"stored_at"`
}

// ResponseStore keeps pipeline responses in Redis. Entries expire through
// the Redis TTL, so Load never returns a response older than the TTL it was
// saved with.
type ResponseStore struct {
	store *TypedStore[storedResponse]
}

var _ pipeline.ClearableStore = (*ResponseStore)(nil)

// NewResponseStore creates a store under keyPrefix, DefaultKeyPrefix when
// empty.
func NewResponseStore(client *Client, keyPrefix string) *ResponseStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &ResponseStore{store: NewTypedStore[storedResponse](client, keyPrefix)}
}

// Load returns the response stored under key.
func (s *ResponseStore) Load(ctx context.Context, key string) (pipeline.StoredResponse, bool, error) {
	v, err := s.store.Load(ctx, key)
	if err != nil || v == nil {
		return pipeline.StoredResponse{}, false, err
	}
	return pipeline.StoredResponse{
		Response: &httpclient.Response{
			StatusCode: v.Status,
			Headers:    v.Headers,
			Body:       v.Body,
		},
		StoredAt: v.StoredAt,
	}, true, nil
}

// Save stores entry under key for ttl.
func (s *ResponseStore) Save(ctx context.Context, key string, entry pipeline.StoredResponse, ttl time.Duration) error {
	if entry.Response == nil {
		return nil
	}
	return s.store.Save(ctx, key, &storedResponse{
		Status:   entry.Response.StatusCode,
		Headers:  entry.Response.Headers,
		Body:     entry.Response.Body,
		StoredAt: entry.StoredAt,
	}, ttl)
}

// Delete removes the response stored under key.
func (s *ResponseStore) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

// Clear removes every response under the store's prefix.
func (s *ResponseStore) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}
