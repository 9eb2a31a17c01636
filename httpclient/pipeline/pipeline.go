package pipeline

import (
	"context"
	"net/http"

	"github.com/kbukum/reqpipe/events"
	"github.com/kbukum/reqpipe/httpclient"
	"github.com/kbukum/reqpipe/logger"
	"github.com/kbukum/reqpipe/observability"
)

// Stage names, as reported by Pipeline.Stages.
const (
	StageErrorClassifier = "error_classifier"
	StageURLNormalizer   = "url_normalizer"
	StageAuthInjector    = "auth_injector"
	StageCache           = "cache"
	StageLoading         = "loading"
	StageTransport       = "transport"
)

// Pipeline runs requests through the fixed middleware chain.
type Pipeline struct {
	handler Handler
	cache   *Cache
	loading *Loading
	stages  []string
	log     *logger.Logger
}

var _ httpclient.Transport = (*Pipeline)(nil)

type options struct {
	tokens    httpclient.TokenProvider
	baseURL   BaseURLProvider
	log       *logger.Logger
	publisher events.Publisher
	store     ResponseStore
	metrics   *observability.Metrics
	clock     Clock
	loading   *Loading
}

// Option configures a Pipeline.
type Option func(*options)

// WithTokenProvider sets where bearer tokens come from.
func WithTokenProvider(tp httpclient.TokenProvider) Option {
	return func(o *options) { o.tokens = tp }
}

// WithBaseURLProvider overrides Config.BaseURL with a dynamic source.
func WithBaseURLProvider(p BaseURLProvider) Option {
	return func(o *options) { o.baseURL = p }
}

// WithLogger sets the logger for every stage.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithPublisher sets where error events are published.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithResponseStore adds a shared second-level cache.
func WithResponseStore(s ResponseStore) Option {
	return func(o *options) { o.store = s }
}

// WithMetrics records cache, loading and error metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock overrides the cache clock.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLoading shares a loading tracker between pipelines, for a single
// application-wide busy indicator.
func WithLoading(l *Loading) Option {
	return func(o *options) { o.loading = l }
}

// New builds a pipeline over transport.
func New(cfg Config, transport httpclient.Transport, opts ...Option) (*Pipeline, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.baseURL == nil {
		o.baseURL = StaticBaseURL(cfg.BaseURL)
	}
	if o.loading == nil {
		o.loading = NewLoading(o.metrics)
	}

	cache := NewCache(CacheConfig{
		TTL:        cfg.CacheTTL,
		BustHeader: cfg.CacheBustHeader,
		Store:      o.store,
		Clock:      o.clock,
		Log:        o.log,
		Metrics:    o.metrics,
	})

	chain := Chain(
		ErrorClassifier(o.log, o.publisher, WithClassifierMetrics(o.metrics)),
		NormalizeURLs(o.baseURL),
		InjectAuthorization(o.tokens),
		cache.Middleware(),
		Track(o.loading),
	)

	p := &Pipeline{
		handler: chain(transport),
		cache:   cache,
		loading: o.loading,
		stages: []string{
			StageErrorClassifier,
			StageURLNormalizer,
			StageAuthInjector,
			StageCache,
			StageLoading,
			StageTransport,
		},
		log: o.log.WithComponent("pipeline"),
	}
	p.log.Debug("pipeline built", logger.Fields(
		"base_url", cfg.BaseURL,
		"cache_ttl", cfg.CacheTTL.String(),
		"shared_store", o.store != nil,
	))
	return p, nil
}

// Do sends req through every stage.
func (p *Pipeline) Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
	return p.handler.Send(ctx, req)
}

// Send implements httpclient.Transport, so a pipeline can stand in for a
// transport.
func (p *Pipeline) Send(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
	return p.Do(ctx, req)
}

// Get issues a GET request.
func (p *Pipeline) Get(ctx context.Context, url string) (*httpclient.Response, error) {
	return p.Do(ctx, httpclient.NewRequest(http.MethodGet, url))
}

// Post issues a POST request with body.
func (p *Pipeline) Post(ctx context.Context, url string, body any) (*httpclient.Response, error) {
	return p.Do(ctx, httpclient.NewRequest(http.MethodPost, url).WithBody(body))
}

// Put issues a PUT request with body.
func (p *Pipeline) Put(ctx context.Context, url string, body any) (*httpclient.Response, error) {
	return p.Do(ctx, httpclient.NewRequest(http.MethodPut, url).WithBody(body))
}

// Patch issues a PATCH request with body.
func (p *Pipeline) Patch(ctx context.Context, url string, body any) (*httpclient.Response, error) {
	return p.Do(ctx, httpclient.NewRequest(http.MethodPatch, url).WithBody(body))
}

// Delete issues a DELETE request.
func (p *Pipeline) Delete(ctx context.Context, url string) (*httpclient.Response, error) {
	return p.Do(ctx, httpclient.NewRequest(http.MethodDelete, url))
}

// Cache returns the pipeline's cache, for explicit invalidation.
func (p *Pipeline) Cache() *Cache { return p.cache }

// Loading returns the pipeline's loading tracker.
func (p *Pipeline) Loading() *Loading { return p.loading }

// Stages returns the stage names, outermost first.
func (p *Pipeline) Stages() []string {
	return append([]string(nil), p.stages...)
}

// GetJSON issues a GET and decodes the JSON response into T.
func GetJSON[T any](ctx context.Context, p *Pipeline, url string) (T, error) {
	var out T
	resp, err := p.Get(ctx, url)
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// DoJSON sends req and decodes the JSON response into T.
func DoJSON[T any](ctx context.Context, p *Pipeline, req httpclient.Request) (T, error) {
	var out T
	resp, err := p.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
