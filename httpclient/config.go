package httpclient

import (
	"fmt"
	"time"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxIdlePerHost = 16
	defaultScheme         = "https"
)

// Config configures the default net/http transport.
type Config struct {
	// Name identifies the transport in logs and spans. Defaults to "http".
	Name string `yaml:"name" mapstructure:"name"`

	// Timeout bounds a whole request, body read included. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are default headers; request headers override them.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// MaxIdleConnsPerHost sizes the keep-alive pool. Defaults to 16.
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host"`

	// DefaultScheme completes protocol-relative URLs ("//host/path").
	// Defaults to "https".
	DefaultScheme string `yaml:"default_scheme" mapstructure:"default_scheme"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "http"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = defaultMaxIdlePerHost
	}
	if c.DefaultScheme == "" {
		c.DefaultScheme = defaultScheme
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.DefaultScheme != "http" && c.DefaultScheme != "https" {
		return fmt.Errorf("httpclient: default_scheme must be http or https (got: %s)", c.DefaultScheme)
	}
	return nil
}
