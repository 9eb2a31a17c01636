package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a piece of infrastructure around the pipeline with a managed
// lifecycle: the Redis response store, the Kafka sink, the event stream
// server and the HTTP transport.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start makes the component usable. It must not block.
	Start(ctx context.Context) error

	// Stop releases the component's resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description holds what a component reports about itself at startup.
type Description struct {
	// Name is the display name. If empty, the component's Name() is used.
	Name string
	// Type categorizes the component: "redis", "kafka", "sse", "http-transport".
	Type string
	// Details is a one-liner such as "localhost:6379 db=0 prefix=reqpipe:cache".
	Details string
}

// Describable is optionally implemented by components that report their
// configuration when the application starts.
type Describable interface {
	Describe() Description
}
