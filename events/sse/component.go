package sse

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/kbukum/reqpipe/component"
	"github.com/kbukum/reqpipe/events"
	"github.com/kbukum/reqpipe/logger"
)

// Component runs a Hub fed from a bus and serves it over HTTP.
type Component struct {
	cfg Config
	hub *Hub
	bus *events.Bus
	log *logger.Logger

	mu     sync.Mutex
	sub    *events.Subscription
	server *http.Server
	addr   string
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the hub for cfg. It serves nothing until Start.
func NewComponent(cfg Config, bus *events.Bus, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{
		cfg: cfg,
		hub: NewHub(log),
		bus: bus,
		log: log.WithComponent("events.sse"),
	}
}

// Hub returns the component's hub.
func (c *Component) Hub() *Hub { return c.hub }

// Addr returns the address the server listens on, once started.
func (c *Component) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// Name returns the component name.
func (c *Component) Name() string { return "sse" }

// Start binds the listener, then serves in the background. A bind failure
// is returned here rather than logged later.
func (c *Component) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.server != nil {
		return nil
	}

	ln, err := net.Listen("tcp", c.cfg.Addr)
	if err != nil {
		return fmt.Errorf("sse listen: %w", err)
	}
	sub, err := c.bus.Subscribe(c.cfg.Pattern, c.hub.Handle)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("sse subscribe: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(c.cfg.Path, Handler(c.hub))
	c.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	c.sub = sub
	c.addr = ln.Addr().String()

	go c.hub.Run()
	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.log.Error("event stream server failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}(c.server)

	c.log.Info("event stream listening", logger.Fields("addr", c.addr, logger.FieldPath, c.cfg.Path))
	return nil
}

// Stop unsubscribes from the bus, closes every client stream and shuts
// the server down.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.server == nil {
		return nil
	}
	c.sub.Unsubscribe()
	c.hub.Stop()
	err := c.server.Shutdown(ctx)
	c.server = nil
	return err
}

// Health is healthy while serving and reports the connected client count.
func (c *Component) Health(context.Context) component.Health {
	c.mu.Lock()
	serving := c.server != nil
	c.mu.Unlock()
	if !serving {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not serving"}
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d clients", c.hub.ClientCount()),
	}
}

// Describe reports the listen address and path.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Event stream",
		Type:    "sse",
		Details: fmt.Sprintf("%s%s pattern=%s", c.cfg.Addr, c.cfg.Path, c.cfg.Pattern),
	}
}
