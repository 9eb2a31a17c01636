package sse

import (
	"encoding/json"
	"path"
	"sync"

	"github.com/kbukum/reqpipe/events"
	"github.com/kbukum/reqpipe/logger"
)

const (
	clientBuffer    = 256
	broadcastBuffer = 256

	// DefaultPattern is the topic pattern used when a client names none.
	DefaultPattern = "http.*"
)

// Client is a connected SSE client.
type Client struct {
	id      string
	pattern string
	events  chan Frame
	log     *logger.Logger
}

// Frame is one SSE message.
type Frame struct {
	ID    string
	Event string
	Data  []byte
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPattern sets the topic pattern the client subscribes to.
func WithPattern(pattern string) ClientOption {
	return func(c *Client) {
		if pattern != "" {
			c.pattern = pattern
		}
	}
}

// NewClient creates a client subscribed to DefaultPattern unless overridden.
func NewClient(id string, opts ...ClientOption) *Client {
	c := &Client{
		id:      id,
		pattern: DefaultPattern,
		events:  make(chan Frame, clientBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// Pattern returns the client's topic pattern.
func (c *Client) Pattern() string { return c.pattern }

// Events returns the channel of frames queued for the client.
func (c *Client) Events() <-chan Frame { return c.events }

// Send queues f. Returns false if the client is too slow and the frame was
// dropped.
func (c *Client) Send(f Frame) bool {
	select {
	case c.events <- f:
		return true
	default:
		c.log.Warn("client channel full, dropping frame", logger.Fields("client_id", c.id, logger.FieldTopic, f.Event))
		return false
	}
}

func (c *Client) close() {
	close(c.events)
}

// Hub tracks connected clients and fans events out to them.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan events.Event
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
	log        *logger.Logger
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan events.Event, broadcastBuffer),
		done:       make(chan struct{}),
		log:        log.WithComponent("events.sse"),
	}
}

// Run is the hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", logger.Fields("client_id", client.id, "pattern", client.pattern, "total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.Fields("client_id", client.id, "total_clients", total))

		case ev := <-h.broadcast:
			h.fanOut(ev)
		}
	}
}

// Stop shuts the hub down and closes every client. Safe to call more
// than once.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.close()
		delete(h.clients, id)
	}
}

// Register adds a client. It reports false if the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	client.log = h.log
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Handle queues ev for delivery. Its signature matches events.Handler so
// the hub can subscribe to a bus directly.
func (h *Hub) Handle(ev events.Event) {
	select {
	case h.broadcast <- ev:
	case <-h.done:
	}
}

func (h *Hub) fanOut(ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode event failed", logger.Fields(logger.FieldTopic, ev.Topic, logger.FieldError, err.Error()))
		return
	}
	frame := Frame{ID: ev.ID, Event: ev.Topic, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, client := range h.clients {
		if ok, _ := path.Match(client.pattern, ev.Topic); ok && client.Send(frame) {
			sent++
		}
	}
	h.log.Debug("event broadcast", logger.Fields(logger.FieldTopic, ev.Topic, "match_count", sent, "data_size", len(data)))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client returns a client by ID, or nil.
func (h *Hub) Client(id string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[id]
}
