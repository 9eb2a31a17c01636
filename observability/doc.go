// Package observability wires OpenTelemetry tracing and metrics for reqpipe.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("reqpipe"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("reqpipe"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("reqpipe"))
//
// A nil *Metrics records nothing, so components take it as an optional
// dependency.
package observability
