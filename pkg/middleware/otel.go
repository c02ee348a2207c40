package middleware

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/tide/pkg/reactive"
	"github.com/vango-dev/tide/pkg/server"
)

// Default tracer name for Tide applications.
const defaultTracerName = "tide"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "tide").
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// Filter determines which events to trace.
	// Return true to trace the event, false to skip.
	// If nil, all events are traced.
	Filter func(ev *server.Event) bool

	// AttributeExtractor extracts custom attributes from the event.
	// Called for each traced event.
	AttributeExtractor func(ev *server.Event) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithEventFilter sets a filter function for events.
func WithEventFilter(filter func(ev *server.Event) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ev *server.Event) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func newOTelConfig(opts []OTelOption) OTelConfig {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

func (c OTelConfig) tracer() trace.Tracer {
	if c.TracerProvider != nil {
		return c.TracerProvider.Tracer(c.TracerName)
	}
	return otel.Tracer(c.TracerName)
}

// OpenTelemetry creates middleware that traces every event.
//
// Each span is named "tide.<event>" and carries the session ID, event type,
// target HID and sequence number. Errors are recorded on the span. The span
// context is passed down the chain.
func OpenTelemetry(opts ...OTelOption) server.Middleware {
	config := newOTelConfig(opts)
	tracer := config.tracer()

	return func(next server.EventHandler) server.EventHandler {
		return func(ctx context.Context, ev *server.Event) error {
			if config.Filter != nil && !config.Filter(ev) {
				return next(ctx, ev)
			}

			attrs := []attribute.KeyValue{
				attribute.String("tide.event_type", ev.Type),
				attribute.String("tide.event_target", ev.HID),
				attribute.Int64("tide.event_seq", int64(ev.Seq)),
			}
			if ev.Session != nil {
				attrs = append(attrs, attribute.String("tide.session_id", ev.Session.ID))
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(ev)...)
			}

			spanCtx, span := tracer.Start(ctx, fmt.Sprintf("tide.%s", ev.Type),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			err := next(spanCtx, ev)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return err
		}
	}
}

// TraceFlushes returns a server flush hook that records one span per
// flush, backdated to when the flush started.
func TraceFlushes(opts ...OTelOption) func(*server.Session, reactive.FlushStats) {
	config := newOTelConfig(opts)
	tracer := config.tracer()

	return func(s *server.Session, st reactive.FlushStats) {
		end := time.Now()
		attrs := []attribute.KeyValue{
			attribute.Int("tide.flush.rounds", st.Rounds),
			attribute.Int("tide.flush.notified", st.Notified),
			attribute.Int("tide.flush.deferred", st.Deferred),
			attribute.Int("tide.flush.dropped", st.Dropped),
			attribute.Int("tide.flush.panics", st.Panics),
		}
		ctx := context.Background()
		if s != nil {
			ctx = s.Context()
			attrs = append(attrs, attribute.String("tide.session_id", s.ID))
		}

		_, span := tracer.Start(ctx, "tide.flush",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithTimestamp(end.Add(-st.Duration)),
			trace.WithAttributes(attrs...),
		)
		if st.Err != nil {
			span.RecordError(st.Err)
			span.SetStatus(codes.Error, st.Err.Error())
		}
		span.End(trace.WithTimestamp(end))
	}
}
