package httpclient

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kbukum/reqpipe/component"
)

// Component manages the lifecycle of the Adapter at the bottom of the
// pipeline. The adapter is created up front because the pipeline is built
// around it; Stop releases its idle connections.
type Component struct {
	adapter *Adapter
	running atomic.Bool
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps adapter.
func NewComponent(adapter *Adapter) *Component {
	return &Component{adapter: adapter}
}

// Adapter returns the wrapped adapter.
func (c *Component) Adapter() *Adapter { return c.adapter }

// Name returns the adapter's configured name.
func (c *Component) Name() string { return c.adapter.Name() }

// Start marks the transport usable.
func (c *Component) Start(context.Context) error {
	c.running.Store(true)
	return nil
}

// Stop closes idle connections.
func (c *Component) Stop(ctx context.Context) error {
	c.running.Store(false)
	return c.adapter.Close(ctx)
}

// Health reports whether the component is between Start and Stop.
func (c *Component) Health(context.Context) component.Health {
	if !c.running.Load() {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "stopped"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe reports the transport's timeout and pool size.
func (c *Component) Describe() component.Description {
	cfg := c.adapter.GetConfig()
	return component.Description{
		Name:    "HTTP transport",
		Type:    "http-transport",
		Details: fmt.Sprintf("timeout=%s pool=%d", cfg.Timeout, cfg.MaxIdleConnsPerHost),
	}
}
