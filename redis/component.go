package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/reqpipe/component"
)

// Component manages the lifecycle of the Client behind the shared response
// store. The client is built before the pipeline so the store can be handed
// to it; Start only verifies the connection.
type Component struct {
	client *Client
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps client.
func NewComponent(client *Client) *Component {
	return &Component{client: client}
}

// Client returns the wrapped client.
func (c *Component) Client() *Client { return c.client }

// Name returns the component name.
func (c *Component) Name() string { return "redis" }

// Start pings the server so a bad address fails startup instead of the
// first cache miss.
func (c *Component) Start(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("redis start ping: %w", err)
	}
	return nil
}

// Stop closes the connection pool.
func (c *Component) Stop(context.Context) error {
	return c.client.Close()
}

// Health pings the server.
func (c *Component) Health(ctx context.Context) component.Health {
	if err := c.client.Ping(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe reports the server and key prefix.
func (c *Component) Describe() component.Description {
	cfg := c.client.Config()
	return component.Description{
		Name:    "Redis response store",
		Type:    "redis",
		Details: fmt.Sprintf("%s db=%d prefix=%s", cfg.Addr, cfg.DB, cfg.KeyPrefix),
	}
}
