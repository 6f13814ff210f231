// Package observability provides OpenTelemetry tracing and metrics for the
// relay, plus health aggregation across components.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("relay"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanPublish)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("relay"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewRelayMetrics(observability.Meter("relay"))
//
// RelayMetrics implements the hub's Metrics interface and the stream
// package's transition hook, so the fan-out path stays decoupled from the
// exporter wiring:
//
//	h := hub.New(cfg, log, hub.WithMetrics(metrics))
//	sess := stream.NewSession(h, scfg, log, stream.WithTransitionHook(metrics.RecordTransition))
package observability
