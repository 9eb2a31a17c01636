package pipeline

import (
	"context"
	"sync"

	"github.com/kbukum/reqpipe/httpclient"
	"github.com/kbukum/reqpipe/observability"
)

// Loading counts requests in flight through the transport. The pipeline is
// busy while the count is above zero.
type Loading struct {
	// notifyMu orders transitions and their notifications.
	notifyMu sync.Mutex
	mu       sync.Mutex
	count    int
	subs     map[uint64]func(busy bool)
	nextID   uint64
	metrics  *observability.Metrics
}

// NewLoading creates an idle tracker. metrics may be nil.
func NewLoading(metrics *observability.Metrics) *Loading {
	return &Loading{
		subs:    make(map[uint64]func(bool)),
		metrics: metrics,
	}
}

// Start records one request starting.
func (l *Loading) Start(ctx context.Context) {
	l.add(ctx, 1)
}

// Done records one request finishing.
func (l *Loading) Done(ctx context.Context) {
	l.add(ctx, -1)
}

func (l *Loading) add(ctx context.Context, delta int) {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	wasBusy := l.count > 0
	l.count += delta
	if l.count < 0 {
		l.count = 0
	}
	busy := l.count > 0
	var subs []func(bool)
	if busy != wasBusy {
		subs = make([]func(bool), 0, len(l.subs))
		for _, fn := range l.subs {
			subs = append(subs, fn)
		}
	}
	l.mu.Unlock()

	l.metrics.AddInflight(ctx, int64(delta))
	for _, fn := range subs {
		fn(busy)
	}
}

// Busy reports whether any request is in flight.
func (l *Loading) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count > 0
}

// Count returns the number of requests in flight.
func (l *Loading) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Subscribe registers fn for idle/busy transitions and returns a function
// that removes it. fn runs synchronously and must not start requests on
// the same pipeline.
func (l *Loading) Subscribe(fn func(busy bool)) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	l.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}
}

// Track returns the loading tracker stage. The decrement is deferred, so
// it runs on error and panic too.
func Track(l *Loading) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
			l.Start(ctx)
			defer l.Done(ctx)
			return next.Send(ctx, req)
		})
	}
}
