package main

import (
	"fmt"
	"time"

	"github.com/kbukum/reqpipe/config"
	"github.com/kbukum/reqpipe/events/kafka"
	"github.com/kbukum/reqpipe/events/sse"
	"github.com/kbukum/reqpipe/httpclient"
	"github.com/kbukum/reqpipe/httpclient/pipeline"
	"github.com/kbukum/reqpipe/observability"
	"github.com/kbukum/reqpipe/redis"
)

// AppConfig is the reqpipe binary's configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Pipeline  pipeline.Config   `yaml:"pipeline" mapstructure:"pipeline"`
	Transport httpclient.Config `yaml:"transport" mapstructure:"transport"`
	Auth      AuthConfig        `yaml:"auth" mapstructure:"auth"`
	Redis     redis.Config      `yaml:"redis" mapstructure:"redis"`
	Kafka     kafka.Config      `yaml:"kafka" mapstructure:"kafka"`
	SSE       sse.Config        `yaml:"sse" mapstructure:"sse"`
	Telemetry TelemetryConfig   `yaml:"telemetry" mapstructure:"telemetry"`
	Fetch     FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
}

// AuthConfig holds the bearer token attached to outgoing requests.
type AuthConfig struct {
	Token string `yaml:"token" mapstructure:"token"`
}

// TelemetryConfig turns on OTLP export.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled                    bool `yaml:"enabled" mapstructure:"enabled"`
	observability.TracerConfig `yaml:",inline" mapstructure:",squash"`
}

type MetricsConfig struct {
	Enabled                   bool `yaml:"enabled" mapstructure:"enabled"`
	observability.MeterConfig `yaml:",inline" mapstructure:",squash"`
}

// FetchConfig lists the requests the binary issues on start. Each path is
// requested Concurrency times at once.
type FetchConfig struct {
	Paths       []string      `yaml:"paths" mapstructure:"paths"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
	Rounds      int           `yaml:"rounds" mapstructure:"rounds"`
	Interval    time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults fills every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Transport.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Kafka.ApplyDefaults()
	c.SSE.ApplyDefaults()

	tracing := observability.DefaultTracerConfig(c.Name)
	if c.Telemetry.Tracing.Endpoint == "" {
		c.Telemetry.Tracing.Endpoint = tracing.Endpoint
		c.Telemetry.Tracing.Insecure = tracing.Insecure
	}
	if c.Telemetry.Tracing.SampleRate <= 0 {
		c.Telemetry.Tracing.SampleRate = tracing.SampleRate
	}
	metrics := observability.DefaultMeterConfig(c.Name)
	if c.Telemetry.Metrics.Endpoint == "" {
		c.Telemetry.Metrics.Endpoint = metrics.Endpoint
		c.Telemetry.Metrics.Insecure = metrics.Insecure
	}
	if c.Telemetry.Metrics.Interval <= 0 {
		c.Telemetry.Metrics.Interval = metrics.Interval
	}
	for _, s := range []*string{&c.Telemetry.Tracing.ServiceName, &c.Telemetry.Metrics.ServiceName} {
		if *s == "" {
			*s = c.Name
		}
	}
	for _, s := range []*string{&c.Telemetry.Tracing.ServiceVersion, &c.Telemetry.Metrics.ServiceVersion} {
		if *s == "" {
			*s = c.Version
		}
	}
	for _, s := range []*string{&c.Telemetry.Tracing.Environment, &c.Telemetry.Metrics.Environment} {
		if *s == "" {
			*s = c.Environment
		}
	}

	if c.Fetch.Concurrency <= 0 {
		c.Fetch.Concurrency = 1
	}
	if c.Fetch.Rounds <= 0 {
		c.Fetch.Rounds = 1
	}
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Transport.Validate(); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := c.Kafka.Validate(); err != nil {
		return err
	}
	if err := c.SSE.Validate(); err != nil {
		return err
	}
	if c.Pipeline.BaseURL == "" {
		for _, p := range c.Fetch.Paths {
			if !pipeline.IsAbsoluteURL(p) {
				return fmt.Errorf("fetch: %q is relative and pipeline.base_url is empty", p)
			}
		}
	}
	return nil
}
