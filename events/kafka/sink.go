package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/reqpipe/events"
	"github.com/kbukum/reqpipe/logger"
)

// Message header keys.
const (
	HeaderContentType = "content-type"
	HeaderEventTopic  = "event-topic"
	HeaderEventID     = "event-id"
)

// messageWriter is the subset of *kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Sink writes bus events to Kafka. Handle only enqueues; a single
// goroutine drains the queue so the bus never waits on a broker.
type Sink struct {
	writer  messageWriter
	cfg     Config
	log     *logger.Logger
	queue   chan events.Event
	done    chan struct{}
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewSink creates a sink backed by a kafka-go Writer.
func NewSink(cfg Config, log *logger.Logger) (*Sink, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("kafka: sink is disabled")
	}

	log = log.WithComponent("events.kafka")
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafkago.RequiredAcks(cfg.RequiredAcks),
		Compression:  ResolveCompression(cfg.Compression),
		Async:        cfg.Async,
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				log.Error("async write failed", logger.Fields("count", len(msgs), logger.FieldError, err.Error()))
			}
		},
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error("writer: " + fmt.Sprintf(msg, args...))
		}),
	}

	s := newSinkWithWriter(cfg, w, log)
	s.log.Info("kafka sink initialized", logger.Fields(
		"brokers", cfg.Brokers,
		logger.FieldTopic, cfg.Topic,
		"async", cfg.Async,
		"queue_size", cfg.QueueSize,
	))
	return s, nil
}

func newSinkWithWriter(cfg Config, w messageWriter, log *logger.Logger) *Sink {
	cfg.ApplyDefaults()
	s := &Sink{
		writer: w,
		cfg:    cfg,
		log:    log,
		queue:  make(chan events.Event, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	go s.drain()
	return s
}

// Pattern returns the bus topic pattern the sink should subscribe with.
func (s *Sink) Pattern() string { return s.cfg.Pattern }

// Dropped returns how many events were discarded because the queue was
// full.
func (s *Sink) Dropped() int64 { return s.dropped.Load() }

// Handle queues ev for writing. Its signature matches events.Handler; it
// never blocks, and failures are logged, never returned to the publisher.
func (s *Sink) Handle(ev events.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- ev:
	default:
		s.dropped.Add(1)
		s.log.Warn("event queue full, dropping event", logger.Fields(
			logger.FieldTopic, ev.Topic,
			"event_id", ev.ID,
		))
	}
}

func (s *Sink) drain() {
	defer close(s.done)
	for ev := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
		if err := s.send(ctx, ev); err != nil {
			s.log.Error("forward event failed", logger.Fields(
				logger.FieldTopic, ev.Topic,
				"event_id", ev.ID,
				logger.FieldError, err.Error(),
			))
		}
		cancel()
	}
}

// Write sends ev synchronously, retrying up to the configured count.
func (s *Sink) Write(ctx context.Context, ev events.Event) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return fmt.Errorf("kafka: sink is closed")
	}
	return s.send(ctx, ev)
}

func (s *Sink) send(ctx context.Context, ev events.Event) error {
	msg, err := toMessage(ev)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.Retries; attempt++ {
		if lastErr = s.writer.WriteMessages(ctx, msg); lastErr == nil {
			return nil
		}
		if attempt < s.cfg.Retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
	}
	return fmt.Errorf("kafka: write after %d attempts: %w", s.cfg.Retries, lastErr)
}

// Close stops accepting events, writes the ones already queued and closes
// the writer.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return s.writer.Close()
}

func toMessage(ev events.Event) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("kafka: marshal event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.ID),
		Value: data,
		Time:  ev.Timestamp,
		Headers: []kafkago.Header{
			{Key: HeaderContentType, Value: []byte("application/json")},
			{Key: HeaderEventTopic, Value: []byte(ev.Topic)},
			{Key: HeaderEventID, Value: []byte(ev.ID)},
		},
	}, nil
}
