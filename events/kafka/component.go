package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kbukum/reqpipe/component"
	"github.com/kbukum/reqpipe/events"
)

// Component subscribes a Sink to a bus on Start and unsubscribes and
// closes it on Stop.
type Component struct {
	sink *Sink
	bus  *events.Bus

	mu  sync.Mutex
	sub *events.Subscription
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps sink. Events published on bus that match the sink's
// pattern are forwarded while the component runs.
func NewComponent(sink *Sink, bus *events.Bus) *Component {
	return &Component{sink: sink, bus: bus}
}

// Sink returns the wrapped sink.
func (c *Component) Sink() *Sink { return c.sink }

// Name returns the component name.
func (c *Component) Name() string { return "kafka" }

// Start subscribes the sink to the bus.
func (c *Component) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub != nil {
		return nil
	}
	sub, err := c.bus.Subscribe(c.sink.Pattern(), c.sink.Handle)
	if err != nil {
		return fmt.Errorf("kafka subscribe: %w", err)
	}
	c.sub = sub
	return nil
}

// Stop unsubscribes, then writes whatever is still queued and closes the
// writer.
func (c *Component) Stop(context.Context) error {
	c.mu.Lock()
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
	c.mu.Unlock()
	return c.sink.Close()
}

// Health is unhealthy when the sink is not subscribed and degraded once
// events have been dropped.
func (c *Component) Health(context.Context) component.Health {
	c.mu.Lock()
	running := c.sub != nil
	c.mu.Unlock()

	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch dropped := c.sink.Dropped(); {
	case !running:
		h.Status = component.StatusUnhealthy
		h.Message = "not subscribed"
	case dropped > 0:
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("%d events dropped", dropped)
	}
	return h
}

// Describe reports the brokers, topic and forwarded pattern.
func (c *Component) Describe() component.Description {
	cfg := c.sink.cfg
	return component.Description{
		Name:    "Kafka event sink",
		Type:    "kafka",
		Details: fmt.Sprintf("%s topic=%s pattern=%s", strings.Join(cfg.Brokers, ","), cfg.Topic, cfg.Pattern),
	}
}
