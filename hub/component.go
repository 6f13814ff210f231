package hub

import (
	"context"
	"fmt"

	"github.com/skillsenselab/relay/component"
)

// Component wraps a Hub as a lifecycle-managed component.
// Register it with the component registry so Start/Stop are handled
// automatically.
type Component struct {
	hub       *Hub
	metricsFn func() Metrics
}

// ensure Component satisfies component.Component and Describable.
var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// ComponentOption configures the hub component.
type ComponentOption func(*Component)

// WithMetricsSource defers metrics wiring to Start. The source runs when the
// component starts, after components registered before it. Use it when the
// recorder's instruments are built by an earlier component's Start.
func WithMetricsSource(fn func() Metrics) ComponentOption {
	return func(c *Component) { c.metricsFn = fn }
}

// NewComponent wraps the given hub.
func NewComponent(h *Hub, opts ...ComponentOption) *Component {
	c := &Component{hub: h}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hub returns the underlying Hub.
func (c *Component) Hub() *Hub { return c.hub }

// Name returns the component name.
func (c *Component) Name() string { return "hub" }

// Start wires the deferred metrics recorder, if one was configured. The hub
// has no background loop of its own; connections bring their own goroutines.
func (c *Component) Start(_ context.Context) error {
	if c.metricsFn != nil {
		c.hub.SetMetrics(c.metricsFn())
	}
	return nil
}

// Stop closes every attached connection's queue so drain loops exit and
// sessions close.
func (c *Component) Stop(_ context.Context) error {
	c.hub.Shutdown()
	return nil
}

// Health returns the health status of the hub.
func (c *Component) Health(_ context.Context) component.Health {
	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
		Message: fmt.Sprintf("%d connections, %d channels, %d dropped",
			c.hub.ConnectionCount(), c.hub.registry.ChannelCount(), c.hub.DroppedTotal()),
	}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name: "Fan-out Hub",
		Type: "hub",
		Details: fmt.Sprintf("%d shards, queue=%d %s",
			shardCount, c.hub.cfg.QueueCapacity, c.hub.cfg.OverflowPolicy),
	}
}
