package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/reqpipe/httpclient"
)

// fakeTransport records every request and answers with respond.
type fakeTransport struct {
	mu      sync.Mutex
	reqs    []httpclient.Request
	calls   atomic.Int32
	respond func(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

func newFakeTransport(respond func(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)) *fakeTransport {
	if respond == nil {
		respond = func(context.Context, httpclient.Request) (*httpclient.Response, error) {
			return &httpclient.Response{StatusCode: 200, Body: []byte(`{}`)}, nil
		}
	}
	return &fakeTransport{respond: respond}
}

func (f *fakeTransport) Send(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	return f.respond(ctx, req)
}

func (f *fakeTransport) Calls() int { return int(f.calls.Load()) }

func (f *fakeTransport) Last() httpclient.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

// blockingTransport parks every call until release is closed.
type blockingTransport struct {
	*fakeTransport
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingTransport(resp *httpclient.Response, err error) *blockingTransport {
	b := &blockingTransport{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	b.fakeTransport = newFakeTransport(func(ctx context.Context, _ httpclient.Request) (*httpclient.Response, error) {
		b.once.Do(func() { close(b.started) })
		<-b.release
		return resp, err
	})
	return b
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type published struct {
	topic   string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(topic string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, payload: payload})
}

func (p *recordingPublisher) All() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

// memoryStore is an in-memory ResponseStore.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]StoredResponse
	loads   int
	saves   int
	loadErr error
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]StoredResponse)}
}

func (m *memoryStore) Load(_ context.Context, key string) (StoredResponse, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return StoredResponse{}, false, m.loadErr
	}
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *memoryStore) Save(_ context.Context, key string, e StoredResponse, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries[key] = e
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]StoredResponse)
	return nil
}

func (m *memoryStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}
