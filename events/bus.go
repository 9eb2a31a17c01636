package events

import (
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/kbukum/reqpipe/logger"
)

// Bus is a synchronous in-process Publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   []*Subscription
	nextID uint64
	log    *logger.Logger
	now    func() time.Time
}

var _ Publisher = (*Bus)(nil)

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used for recovered handler panics.
func WithLogger(l *logger.Logger) BusOption {
	return func(b *Bus) {
		b.log = l.WithComponent("events.bus")
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) BusOption {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscription is a registered handler. Unsubscribe is idempotent.
type Subscription struct {
	id      uint64
	pattern string
	handler Handler
	bus     *Bus
	once    sync.Once
}

// Pattern returns the topic pattern the subscription matches.
func (s *Subscription) Pattern() string { return s.pattern }

// Unsubscribe stops further deliveries.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() { s.bus.remove(s.id) })
}

// Subscribe registers h for topics matching pattern. Patterns use
// path.Match syntax; "*" matches every topic.
func (b *Bus) Subscribe(pattern string, h Handler) (*Subscription, error) {
	if h == nil {
		return nil, fmt.Errorf("events: nil handler")
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("events: invalid pattern %q: %w", pattern, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{id: b.nextID, pattern: pattern, handler: h, bus: b}
	b.subs = append(b.subs, sub)
	return sub, nil
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers payload to every matching subscriber before returning.
func (b *Bus) Publish(topic string, payload any) {
	ev := NewEvent(topic, payload, b.now())

	b.mu.RLock()
	targets := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if ok, _ := path.Match(s.pattern, topic); ok {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		b.deliver(s, ev)
	}
}

func (b *Bus) deliver(s *Subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("subscriber panicked", logger.Fields(
				logger.FieldTopic, ev.Topic,
				"pattern", s.pattern,
				"panic", fmt.Sprint(r),
			))
		}
	}()
	s.handler(ev)
}
