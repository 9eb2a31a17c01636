package sse

import (
	"fmt"
	"path"
	"strings"
)

// Config configures the event stream server.
type Config struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
	Path    string `yaml:"path" mapstructure:"path"`

	// Pattern selects which bus topics reach the hub. Clients narrow it
	// further with the "topic" query parameter.
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Path == "" {
		c.Path = "/events"
	}
	if c.Pattern == "" {
		c.Pattern = "*"
	}
}

// Validate checks the path and pattern.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("sse: path must start with /, got %q", c.Path)
	}
	if _, err := path.Match(c.Pattern, ""); err != nil {
		return fmt.Errorf("sse: invalid pattern %q: %w", c.Pattern, err)
	}
	return nil
}
