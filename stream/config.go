package stream

// Config holds transport-level settings shared by the SSE and WebSocket
// endpoints. Durations are in seconds, matching the server configuration.
type Config struct {
	// KeepAlive is the interval between keep-alive frames (SSE comments,
	// WebSocket pings) on an otherwise quiet connection.
	KeepAlive int `yaml:"keep_alive" mapstructure:"keep_alive"`
	// DrainGrace bounds how long a draining connection may spend flushing
	// queued events before it is force-closed.
	DrainGrace int `yaml:"drain_grace" mapstructure:"drain_grace"`
	// WriteTimeout is the per-frame write deadline.
	WriteTimeout int `yaml:"write_timeout" mapstructure:"write_timeout"`
	// ReadLimit caps inbound WebSocket control frames, in bytes.
	ReadLimit int64 `yaml:"read_limit" mapstructure:"read_limit"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.KeepAlive <= 0 {
		c.KeepAlive = 30
	}
	if c.DrainGrace <= 0 {
		c.DrainGrace = 5
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = 4 * 1024
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	return nil
}
