// Package middleware provides observability for live sessions.
//
// # Prometheus Metrics
//
// Metrics collects event, flush and session metrics:
//   - tide_events_total: Events processed by type and status
//   - tide_event_duration_seconds: Event processing duration histogram
//   - tide_event_errors_total: Event errors by type and category
//   - tide_flushes_total, tide_flush_rounds, tide_flush_duration_seconds
//   - tide_notifications_total: Cell notifications delivered
//   - tide_flush_budget_exceeded_total: Flushes rejected as circular
//   - tide_active_sessions, tide_sessions_total
//
// Wire it into a server with its options:
//
//	reg := prometheus.NewRegistry()
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	srv := server.New(cfg, root, m.ServerOptions(reg, "/metrics")...)
//
// # OpenTelemetry
//
// OpenTelemetry traces every event; TraceFlushes records a span per flush.
// Both use the global tracer provider unless WithTracerProvider is given.
//
//	srv := server.New(cfg, root,
//	    server.WithMiddleware(middleware.OpenTelemetry()),
//	    server.WithFlushHook(middleware.TraceFlushes()),
//	)
//
// Handlers further down the chain receive the span in their context.
package middleware
