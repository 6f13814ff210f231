package observability

import (
	"context"
	"fmt"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/skillsenselab/relay/component"
)

// Component manages the OpenTelemetry provider lifecycle. When disabled it
// starts nothing and the rest of the process records against the default
// no-op providers.
type Component struct {
	cfg     Config
	service string
	version string
	env     string

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider

	metrics *RelayMetrics
}

// NewComponent creates the observability component.
func NewComponent(cfg Config, service, version, env string) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, service: service, version: version, env: env}
}

// Name implements component.Component.
func (c *Component) Name() string { return "observability" }

// Start initializes the tracer and meter providers and the relay's metric
// instruments.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}

	tp, err := InitTracer(ctx, TracerConfig{
		ServiceName:    c.service,
		ServiceVersion: c.version,
		Environment:    c.env,
		Endpoint:       c.cfg.Endpoint,
		Insecure:       c.cfg.Insecure,
		SampleRate:     c.cfg.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	c.tp = tp

	mp, err := InitMeter(ctx, &MeterConfig{
		ServiceName:    c.service,
		ServiceVersion: c.version,
		Environment:    c.env,
		Endpoint:       c.cfg.Endpoint,
		Insecure:       c.cfg.Insecure,
		Interval:       time.Duration(c.cfg.Interval) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init meter: %w", err)
	}
	c.mp = mp

	metrics, err := NewRelayMetrics(Meter(c.service))
	if err != nil {
		return fmt.Errorf("create instruments: %w", err)
	}
	c.metrics = metrics
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.mp != nil {
		if err := c.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	if c.tp != nil {
		if err := c.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("observability shutdown: %v", errs)
	}
	return nil
}

// Health implements component.Component.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !c.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("otlp %s, sample=%.2f", c.cfg.Endpoint, c.cfg.SampleRate)
	}
	return component.Description{
		Name:    "Observability",
		Type:    "observability",
		Details: details,
	}
}

// Metrics returns the relay instruments, or nil when export is disabled.
func (c *Component) Metrics() *RelayMetrics { return c.metrics }
