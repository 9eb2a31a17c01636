package httpclient

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/reqpipe/component"
)

func TestComponentLifecycle(t *testing.T) {
	c := NewComponent(newTestAdapter(t, Config{Name: "users-api", Timeout: 5 * time.Second}))
	ctx := context.Background()

	if c.Name() != "users-api" {
		t.Errorf("Name() = %q", c.Name())
	}
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %+v", h)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %+v", h)
	}
	if d := c.Describe(); d.Type != "http-transport" || !strings.Contains(d.Details, "timeout=5s") {
		t.Errorf("unexpected description %+v", d)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy after stop, got %+v", h)
	}
}
