package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/tide/pkg/reactive"
	"github.com/vango-dev/tide/pkg/server"
)

// recordedSpan is what the recording tracer saw for one span.
type recordedSpan struct {
	tracer string
	name   string
	kind   trace.SpanKind
	attrs  []attribute.KeyValue
	start  time.Time
	status codes.Code
	errs   []error
	ended  bool
}

func (r *recordedSpan) attr(key string) (attribute.Value, bool) {
	for _, kv := range r.attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

type recordingProvider struct {
	embedded.TracerProvider
	spans *[]*recordedSpan
}

func newRecordingProvider() (recordingProvider, *[]*recordedSpan) {
	spans := &[]*recordedSpan{}
	return recordingProvider{spans: spans}, spans
}

func (p recordingProvider) Tracer(name string, _ ...trace.TracerOption) trace.Tracer {
	return recordingTracer{name: name, spans: p.spans}
}

type recordingTracer struct {
	embedded.Tracer
	name  string
	spans *[]*recordedSpan
}

func (r recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	rec := &recordedSpan{
		tracer: r.name,
		name:   name,
		kind:   cfg.SpanKind(),
		attrs:  cfg.Attributes(),
		start:  cfg.Timestamp(),
	}
	*r.spans = append(*r.spans, rec)

	_, inner := noop.NewTracerProvider().Tracer("").Start(ctx, name)
	span := &recordingSpan{Span: inner, rec: rec}
	return trace.ContextWithSpan(ctx, span), span
}

type recordingSpan struct {
	trace.Span
	rec *recordedSpan
}

func (s *recordingSpan) SetStatus(code codes.Code, _ string) { s.rec.status = code }

func (s *recordingSpan) RecordError(err error, _ ...trace.EventOption) {
	s.rec.errs = append(s.rec.errs, err)
}

func (s *recordingSpan) End(...trace.SpanEndOption) { s.rec.ended = true }

func TestOpenTelemetryMiddleware_RecordsEventSpan(t *testing.T) {
	tp, spans := newRecordingProvider()
	mw := OpenTelemetry(
		WithTracerProvider(tp),
		WithTracerName("test"),
		WithAttributeExtractor(func(*server.Event) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)

	var inner trace.Span
	h := mw(func(ctx context.Context, ev *server.Event) error {
		inner = trace.SpanFromContext(ctx)
		return nil
	})
	if err := h(context.Background(), &server.Event{Seq: 4, HID: "h2", Type: "click"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(*spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(*spans))
	}
	span := (*spans)[0]
	if span.tracer != "test" || span.name != "tide.click" || span.kind != trace.SpanKindServer {
		t.Errorf("span = %+v", span)
	}
	for key, want := range map[string]string{
		"tide.event_type":   "click",
		"tide.event_target": "h2",
		"test.attr":         "ok",
	} {
		if v, ok := span.attr(key); !ok || v.AsString() != want {
			t.Errorf("attribute %s = %v, want %s", key, v.Emit(), want)
		}
	}
	if v, _ := span.attr("tide.event_seq"); v.AsInt64() != 4 {
		t.Errorf("tide.event_seq = %v", v.Emit())
	}
	if span.status != codes.Ok || !span.ended {
		t.Errorf("status = %v, ended = %v", span.status, span.ended)
	}
	if rs, ok := inner.(*recordingSpan); !ok || rs.rec != span {
		t.Error("next handler should receive the span in its context")
	}
}

func TestOpenTelemetryMiddleware_ErrorPropagates(t *testing.T) {
	tp, spans := newRecordingProvider()
	wantErr := errors.New("boom")

	err := handle(OpenTelemetry(WithTracerProvider(tp)), &server.Event{Type: "input"}, wantErr)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected error %v, got %v", wantErr, err)
	}

	span := (*spans)[0]
	if span.tracer != defaultTracerName {
		t.Errorf("tracer = %q, want %q", span.tracer, defaultTracerName)
	}
	if span.status != codes.Error || len(span.errs) != 1 {
		t.Errorf("status = %v, errs = %v", span.status, span.errs)
	}
}

func TestOpenTelemetryMiddleware_FilterSkipsTracing(t *testing.T) {
	tp, spans := newRecordingProvider()
	mw := OpenTelemetry(
		WithTracerProvider(tp),
		WithEventFilter(func(ev *server.Event) bool { return ev.Type != "keydown" }),
	)

	nextCalled := false
	h := mw(func(context.Context, *server.Event) error {
		nextCalled = true
		return nil
	})
	if err := h(context.Background(), &server.Event{Type: "keydown"}); err != nil {
		t.Fatal(err)
	}
	if !nextCalled {
		t.Error("filtered event should still reach the handler")
	}
	if len(*spans) != 0 {
		t.Errorf("filtered event recorded %d spans", len(*spans))
	}
}

func TestOpenTelemetryMiddleware_GlobalProvider(t *testing.T) {
	err := handle(OpenTelemetry(), &server.Event{Type: "click"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTraceFlushes(t *testing.T) {
	tp, spans := newRecordingProvider()
	hook := TraceFlushes(WithTracerProvider(tp))

	before := time.Now()
	hook(nil, reactive.FlushStats{Rounds: 3, Notified: 5, Duration: time.Second})
	hook(nil, reactive.FlushStats{Rounds: 100, Dropped: 2, Err: reactive.ErrFlushBudget})

	if len(*spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(*spans))
	}
	first := (*spans)[0]
	if first.name != "tide.flush" || !first.ended {
		t.Errorf("span = %+v", first)
	}
	if v, _ := first.attr("tide.flush.rounds"); v.AsInt64() != 3 {
		t.Errorf("rounds = %v", v.Emit())
	}
	if !first.start.Before(before) {
		t.Error("flush span should start when the flush started")
	}

	second := (*spans)[1]
	if second.status != codes.Error || len(second.errs) != 1 {
		t.Errorf("budget flush status = %v, errs = %v", second.status, second.errs)
	}
}
