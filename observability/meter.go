package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/skillsenselab/relay/logger"
	"github.com/skillsenselab/relay/stream"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// RelayMetrics holds metric instruments for the relay's fan-out path. It
// implements the hub's Metrics interface and the stream transition hook.
type RelayMetrics struct {
	eventsPublished   metric.Int64Counter
	eventsDropped     metric.Int64Counter
	fanoutSize        metric.Int64Histogram
	subscribers       metric.Int64Gauge
	activeConnections metric.Int64UpDownCounter
	stateTransitions  metric.Int64Counter
}

// NewRelayMetrics creates metric instruments on the given meter.
func NewRelayMetrics(meter metric.Meter) (*RelayMetrics, error) {
	eventsPublished, err := meter.Int64Counter("relay.events.published",
		metric.WithDescription("Total events accepted for fan-out"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating relay.events.published counter: %w", err)
	}

	eventsDropped, err := meter.Int64Counter("relay.events.dropped",
		metric.WithDescription("Events dropped by per-connection overflow policies"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating relay.events.dropped counter: %w", err)
	}

	fanoutSize, err := meter.Int64Histogram("relay.fanout.size",
		metric.WithDescription("Subscribers reached per published event"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating relay.fanout.size histogram: %w", err)
	}

	subscribers, err := meter.Int64Gauge("relay.subscribers",
		metric.WithDescription("Current subscribers per channel"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating relay.subscribers gauge: %w", err)
	}

	activeConnections, err := meter.Int64UpDownCounter("relay.connections.active",
		metric.WithDescription("Connections currently attached to the hub"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating relay.connections.active gauge: %w", err)
	}

	stateTransitions, err := meter.Int64Counter("relay.connections.transitions",
		metric.WithDescription("Connection state transitions by target state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating relay.connections.transitions counter: %w", err)
	}

	return &RelayMetrics{
		eventsPublished:   eventsPublished,
		eventsDropped:     eventsDropped,
		fanoutSize:        fanoutSize,
		subscribers:       subscribers,
		activeConnections: activeConnections,
		stateTransitions:  stateTransitions,
	}, nil
}

// EventPublished records a publish and its fan-out size.
func (m *RelayMetrics) EventPublished(channel string, fanout int) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("channel", channel))
	m.eventsPublished.Add(ctx, 1, attrs)
	m.fanoutSize.Record(ctx, int64(fanout), attrs)
}

// EventDropped records an event rejected by a connection's overflow policy.
func (m *RelayMetrics) EventDropped(connID string) {
	m.eventsDropped.Add(context.Background(), 1)
}

// SubscriberCount reports a channel's subscriber count after a change.
func (m *RelayMetrics) SubscriberCount(channel string, count int) {
	m.subscribers.Record(context.Background(), int64(count),
		metric.WithAttributes(attribute.String("channel", channel)))
}

// ConnectionAttached records a connection joining the hub.
func (m *RelayMetrics) ConnectionAttached() {
	m.activeConnections.Add(context.Background(), 1)
}

// ConnectionDetached records a connection leaving the hub.
func (m *RelayMetrics) ConnectionDetached() {
	m.activeConnections.Add(context.Background(), -1)
}

// RecordTransition counts a connection state transition. Wire it as the
// stream package's transition hook.
func (m *RelayMetrics) RecordTransition(connID string, from, to stream.State) {
	m.stateTransitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))
}
