package kafka

import (
	"fmt"
	"path"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Config configures the event sink.
type Config struct {
	// Enabled controls whether the sink is built at all.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Brokers is the list of Kafka broker addresses.
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`

	// Topic is the Kafka topic events are written to.
	Topic string `yaml:"topic" mapstructure:"topic"`

	// Pattern selects which bus topics are forwarded.
	Pattern string `yaml:"pattern" mapstructure:"pattern"`

	// Async makes the kafka-go writer batch in the background; errors are
	// only logged.
	Async bool `yaml:"async" mapstructure:"async"`

	// QueueSize bounds the events waiting to be written. Publishers never
	// wait on Kafka; events arriving while the queue is full are dropped.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`

	Compression  string        `yaml:"compression" mapstructure:"compression"` // none, gzip, snappy, lz4, zstd
	Retries      int           `yaml:"retries" mapstructure:"retries"`
	BatchSize    int           `yaml:"batch_size" mapstructure:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout" mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	RequiredAcks int           `yaml:"required_acks" mapstructure:"required_acks"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.Topic == "" {
		c.Topic = "reqpipe.events"
	}
	if c.Pattern == "" {
		c.Pattern = "http.*"
	}
	if c.Compression == "" {
		c.Compression = "snappy"
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = -1 // all replicas
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka: brokers are required")
	}
	if c.Topic == "" {
		return fmt.Errorf("kafka: topic is required")
	}
	if _, err := path.Match(c.Pattern, ""); err != nil {
		return fmt.Errorf("kafka: invalid pattern %q: %w", c.Pattern, err)
	}
	switch c.Compression {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		return fmt.Errorf("kafka: unsupported compression %q", c.Compression)
	}
	if c.Retries <= 0 {
		return fmt.Errorf("kafka: retries must be > 0")
	}
	if c.RequiredAcks < -1 || c.RequiredAcks > 1 {
		return fmt.Errorf("kafka: required_acks must be -1, 0 or 1")
	}
	return nil
}

// ResolveCompression maps a codec name to its kafka-go value.
func ResolveCompression(name string) kafkago.Compression {
	switch name {
	case "gzip":
		return kafkago.Gzip
	case "lz4":
		return kafkago.Lz4
	case "zstd":
		return kafkago.Zstd
	case "none":
		return 0
	default:
		return kafkago.Snappy
	}
}
