package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/reqpipe/httpclient"
	"github.com/kbukum/reqpipe/logger"
	"github.com/kbukum/reqpipe/observability"
)

// Clock returns the current time.
type Clock func() time.Time

// CacheConfig configures a Cache.
type CacheConfig struct {
	// TTL bounds the age of a served response. Defaults to DefaultCacheTTL.
	TTL time.Duration
	// BustHeader defaults to DefaultCacheBustHeader.
	BustHeader string
	// Store is an optional shared second-level cache.
	Store ResponseStore
	// Clock defaults to time.Now.
	Clock   Clock
	Log     *logger.Logger
	Metrics *observability.Metrics
}

// Cache deduplicates and caches GET requests. Concurrent identical GETs
// share one call to the next handler; a resolved response is reused until
// it is TTL old. Failures are never cached.
//
// Cached responses are shared between callers and must not be modified.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	ttl        time.Duration
	bustHeader string
	store      ResponseStore
	now        Clock
	log        *logger.Logger
	metrics    *observability.Metrics
}

// entry is a pending call until resolved is set. resp, err, resolved and
// storedAt are written under Cache.mu before done is closed.
type entry struct {
	done     chan struct{}
	resp     *httpclient.Response
	err      error
	resolved bool
	storedAt time.Time
}

// NewCache creates an empty cache.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	if cfg.BustHeader == "" {
		cfg.BustHeader = DefaultCacheBustHeader
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Cache{
		entries:    make(map[string]*entry),
		ttl:        cfg.TTL,
		bustHeader: cfg.BustHeader,
		store:      cfg.Store,
		now:        cfg.Clock,
		log:        cfg.Log.WithComponent("pipeline.cache"),
		metrics:    cfg.Metrics,
	}
}

// Key returns the cache key for req: the method and the full URL with its
// query string in sorted order.
func Key(req httpclient.Request) string {
	return strings.ToUpper(req.Method) + " " + req.FullURL()
}

// TTL returns the configured time to live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Middleware returns the cache stage.
func (c *Cache) Middleware() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
			return c.Handle(ctx, req, next)
		})
	}
}

// Handle serves req from cache or forwards it to next.
func (c *Cache) Handle(ctx context.Context, req httpclient.Request, next Handler) (*httpclient.Response, error) {
	bust := false
	if req.HasHeader(c.bustHeader) {
		bust, _ = strconv.ParseBool(strings.TrimSpace(req.HeaderValue(c.bustHeader)))
		req = req.WithoutHeader(c.bustHeader)
	}

	if !strings.EqualFold(req.Method, http.MethodGet) {
		c.metrics.RecordCacheLookup(ctx, observability.CacheBypass)
		return next.Send(ctx, req)
	}

	key := Key(req)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !bust {
		if !e.resolved {
			c.mu.Unlock()
			c.metrics.RecordCacheLookup(ctx, observability.CacheShared)
			c.log.Debug("joining in-flight request", logger.Fields(logger.FieldCacheKey, key))
			return c.wait(ctx, e)
		}
		if c.now().Sub(e.storedAt) < c.ttl {
			resp := e.resp
			c.mu.Unlock()
			c.metrics.RecordCacheLookup(ctx, observability.CacheHit)
			return resp, nil
		}
		delete(c.entries, key)
	}
	e := &entry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	if bust {
		c.metrics.RecordCacheLookup(ctx, observability.CacheBust)
		c.log.Debug("cache bust", logger.Fields(logger.FieldCacheKey, key))
	} else {
		c.metrics.RecordCacheLookup(ctx, observability.CacheMiss)
	}

	// The shared call outlives any single caller's cancellation.
	go c.execute(context.WithoutCancel(ctx), key, req, next, e, bust)
	return c.wait(ctx, e)
}

func (c *Cache) wait(ctx context.Context, e *entry) (*httpclient.Response, error) {
	select {
	case <-e.done:
		return e.resp, e.err
	default:
	}
	select {
	case <-e.done:
		return e.resp, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) execute(ctx context.Context, key string, req httpclient.Request, next Handler, e *entry, skipStore bool) {
	resp, storedAt, err := c.fetch(ctx, key, req, next, skipStore)

	c.mu.Lock()
	e.resp, e.err = resp, err
	if err == nil {
		e.resolved = true
		e.storedAt = storedAt
	} else if c.entries[key] == e {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	close(e.done)
}

func (c *Cache) fetch(ctx context.Context, key string, req httpclient.Request, next Handler, skipStore bool) (resp *httpclient.Response, storedAt time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("pipeline: request %s panicked: %v", key, r)
		}
	}()

	if c.store != nil && !skipStore {
		stored, ok, loadErr := c.store.Load(ctx, key)
		switch {
		case loadErr != nil:
			c.log.Warn("response store load failed", logger.Fields(logger.FieldCacheKey, key, logger.FieldError, loadErr.Error()))
		case ok && stored.Response != nil:
			c.metrics.RecordCacheLookup(ctx, observability.CacheStore)
			return stored.Response, stored.StoredAt, nil
		}
	}

	resp, err = next.Send(ctx, req)
	if err != nil {
		return nil, time.Time{}, err
	}
	storedAt = c.now()

	if c.store != nil && resp != nil {
		if saveErr := c.store.Save(ctx, key, StoredResponse{Response: resp, StoredAt: storedAt}, c.ttl); saveErr != nil {
			c.log.Warn("response store save failed", logger.Fields(logger.FieldCacheKey, key, logger.FieldError, saveErr.Error()))
		}
	}
	return resp, storedAt, nil
}

// Invalidate drops the entry for method and rawURL, pending or resolved.
// rawURL must be the normalized absolute URL. A pending call still
// completes for its callers but is not stored.
func (c *Cache) Invalidate(ctx context.Context, method, rawURL string) bool {
	key := Key(httpclient.NewRequest(method, rawURL))

	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Delete(ctx, key); err != nil {
			c.log.Warn("response store delete failed", logger.Fields(logger.FieldCacheKey, key, logger.FieldError, err.Error()))
		}
	}
	return ok
}

// Clear drops every entry, and every stored response when the store
// supports it.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	if cs, ok := c.store.(ClearableStore); ok {
		if err := cs.Clear(ctx); err != nil {
			c.log.Warn("response store clear failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}
}

// Purge evicts resolved entries that have reached their TTL and returns
// how many were removed.
func (c *Cache) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if e.resolved && now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Len returns the number of entries, pending ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
