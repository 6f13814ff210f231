package hub

import "fmt"

// Config holds fan-out hub configuration.
type Config struct {
	// QueueCapacity bounds each subscriber's outbound queue.
	QueueCapacity int `yaml:"queue_capacity" mapstructure:"queue_capacity"`
	// OverflowPolicy is "drop_oldest" or "drop_newest".
	OverflowPolicy string `yaml:"overflow_policy" mapstructure:"overflow_policy"`
	// MaxPayload bounds event payloads in bytes.
	MaxPayload int `yaml:"max_payload" mapstructure:"max_payload"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.QueueCapacity == 0 {
		c.QueueCapacity = 256
	}
	if c.OverflowPolicy == "" {
		c.OverflowPolicy = string(DropOldest)
	}
	if c.MaxPayload == 0 {
		c.MaxPayload = 64 * 1024
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.QueueCapacity < 1 {
		return fmt.Errorf("hub.queue_capacity must be positive (got: %d)", c.QueueCapacity)
	}
	if p := OverflowPolicy(c.OverflowPolicy); p != DropOldest && p != DropNewest {
		return fmt.Errorf("hub.overflow_policy must be one of [drop_oldest, drop_newest] (got: %s)", c.OverflowPolicy)
	}
	if c.MaxPayload < 1 {
		return fmt.Errorf("hub.max_payload must be positive (got: %d)", c.MaxPayload)
	}
	return nil
}
