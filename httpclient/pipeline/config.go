package pipeline

import (
	"fmt"
	"net/url"
	"time"
)

const (
	// DefaultCacheTTL is how long a GET response is served from cache.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultCacheBustHeader forces a fresh call when set to a true value.
	DefaultCacheBustHeader = "X-Cache-Bust"
)

// Config configures a Pipeline.
type Config struct {
	// BaseURL resolves relative request URLs. Ignored when a
	// BaseURLProvider option is given.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// CacheTTL bounds the age of a served cached response.
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`

	// CacheBustHeader names the request header that bypasses the cache.
	// It is stripped before the request reaches the transport.
	CacheBustHeader string `yaml:"cache_bust_header" mapstructure:"cache_bust_header"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.CacheBustHeader == "" {
		c.CacheBustHeader = DefaultCacheBustHeader
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.CacheTTL <= 0 {
		return fmt.Errorf("pipeline: cache_ttl must be positive")
	}
	if c.CacheBustHeader == "" {
		return fmt.Errorf("pipeline: cache_bust_header is required")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("pipeline: invalid base_url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("pipeline: base_url must be an absolute http(s) URL (got: %s)", c.BaseURL)
		}
	}
	return nil
}
