// Package filters provides ready-made compass filters.
//
//   - Logging writes one record per lifecycle event through slog.
//   - Metrics exports navigation counts, action durations and exceptions to
//     Prometheus.
//   - Tracing opens an OpenTelemetry span per dispatch.
//
// All three implement compass.ActionFilter; Logging also implements
// compass.ApplicationFilter. Register them without a route scope to observe
// every dispatch:
//
//	app := compass.New(
//	    compass.WithActionFilter(filters.Logging(log), "", -100),
//	    compass.WithActionFilter(filters.NewMetrics(filters.WithRegistry(reg)), "", -90),
//	    compass.WithActionFilter(filters.NewTracing(), "", -80),
//	)
//
// Per-dispatch state lives on the dispatch context (FilterContext.Context)
// and goes away with the dispatch. Tracing also makes its span current on
// that context, so actions can open child spans from the ctx they receive.
// Exception delivery stops at the first failing exception filter; order
// these filters ahead of exception filters that can fail.
package filters
