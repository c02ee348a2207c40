package server

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/vango-dev/tide/el"
	"github.com/vango-dev/tide/pkg/reactive"
)

// counterRoot renders a button that counts its clicks. A non-nil cleaned
// counts root cleanups.
func counterRoot(cleaned *int) RootFunc {
	return func() any {
		count := reactive.NewCell(0)
		if cleaned != nil {
			reactive.OnCleanup(func() { *cleaned++ })
		}
		return el.Main(
			el.Button(el.OnClick(func() { count.Update(func(n int) int { return n + 1 }) }), "count: ", count),
			el.Button(el.OnClick(func() { panic("boom") }), "explode"),
			el.Span("static"),
		)
	}
}

func newTestSession(t *testing.T, root RootFunc, opts sessionOptions) *Session {
	t.Helper()
	s := newSession(nil, "test", root, nil, nil, opts)
	t.Cleanup(s.Close)
	if err := s.Mount(); err != nil {
		t.Fatalf("Mount() = %v", err)
	}
	if n := s.rt.RunPending(); n != 1 {
		t.Fatalf("ran %d tasks for the mount, want 1", n)
	}
	return s
}

func runEvent(t *testing.T, s *Session, hid, typ string) {
	t.Helper()
	ev := &Event{HID: hid, Type: typ, Session: s}
	if err := s.rt.Run(func() { s.handleEvent(ev) }); err != nil {
		t.Fatalf("handleEvent: %v", err)
	}
}

func TestSessionMountAndEvent(t *testing.T) {
	var cleaned int
	s := newTestSession(t, counterRoot(&cleaned), sessionOptions{})

	html, err := s.HTML()
	if err != nil {
		t.Fatal(err)
	}
	want := `<main><button data-hid="h2" data-on-click="true">count: 0</button>`
	if !strings.HasPrefix(html, want) {
		t.Fatalf("HTML() = %s", html)
	}
	if got := s.Stats().Renders; got != 1 {
		t.Errorf("renders after mount = %d, want 1", got)
	}

	runEvent(t, s, "h2", "click")
	html, _ = s.HTML()
	if !strings.Contains(html, "count: 1") {
		t.Errorf("click not applied: %s", html)
	}
	if got := s.Stats().Renders; got != 2 {
		t.Errorf("renders after click = %d, want 2", got)
	}
}

func TestSessionNoRenderWithoutMutations(t *testing.T) {
	s := newTestSession(t, func() any {
		return el.Button(el.OnClick(func() {}), "noop")
	}, sessionOptions{})

	runEvent(t, s, "h1", "click")
	if got := s.Stats().Renders; got != 1 {
		t.Errorf("renders = %d, want only the mount render", got)
	}
}

func TestSessionDispatchErrors(t *testing.T) {
	var cleaned int
	s := newTestSession(t, counterRoot(&cleaned), sessionOptions{})

	tests := []struct {
		name string
		ev   *Event
		want error
	}{
		{"unknown hid", &Event{HID: "h99", Type: "click"}, ErrHandlerNotFound},
		{"unknown event", &Event{HID: "h2", Type: "input"}, ErrHandlerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			reactive.WithRuntime(s.rt, func() { err = s.safeExecute(tt.ev) })
			if !errors.Is(err, tt.want) {
				t.Errorf("safeExecute() = %v, want %v", err, tt.want)
			}
			if errorCode(err) != CodeHandlerMissing {
				t.Errorf("errorCode() = %s", errorCode(err))
			}
		})
	}
}

func TestSessionRecoversHandlerPanic(t *testing.T) {
	var cleaned int
	s := newTestSession(t, counterRoot(&cleaned), sessionOptions{})

	var err error
	reactive.WithRuntime(s.rt, func() {
		err = s.safeExecute(&Event{HID: "h3", Type: "click"})
	})

	var herr *HandlerError
	if !errors.As(err, &herr) {
		t.Fatalf("safeExecute() = %v, want *HandlerError", err)
	}
	if herr.HID != "h3" || herr.Panic != "boom" || len(herr.Stack) == 0 {
		t.Errorf("unexpected handler error %+v", herr)
	}

	// The session keeps working.
	runEvent(t, s, "h2", "click")
	if html, _ := s.HTML(); !strings.Contains(html, "count: 1") {
		t.Errorf("session broken after panic: %s", html)
	}
}

func TestSessionMiddlewareOrder(t *testing.T) {
	var calls []string
	trace := func(name string) Middleware {
		return func(next EventHandler) EventHandler {
			return func(ctx context.Context, ev *Event) error {
				calls = append(calls, name+":before")
				err := next(ctx, ev)
				calls = append(calls, name+":after")
				return err
			}
		}
	}

	var cleaned int
	s := newTestSession(t, counterRoot(&cleaned), sessionOptions{
		middleware: []Middleware{trace("outer"), nil, trace("inner")},
	})
	runEvent(t, s, "h2", "click")

	want := []string{"outer:before", "inner:before", "inner:after", "outer:after"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestSessionFlushHooks(t *testing.T) {
	var stats []reactive.FlushStats
	var cleaned int
	s := newTestSession(t, counterRoot(&cleaned), sessionOptions{
		flushHooks: []func(*Session, reactive.FlushStats){
			func(got *Session, st reactive.FlushStats) {
				if got.ID != "test" {
					t.Errorf("hook got session %q", got.ID)
				}
				stats = append(stats, st)
			},
		},
	})

	runEvent(t, s, "h2", "click")
	if len(stats) != 1 || stats[0].Notified != 1 {
		t.Errorf("flush stats = %+v", stats)
	}
}

func TestSessionCloseDisposesRoot(t *testing.T) {
	var cleaned, closed int
	s := newSession(nil, "test", counterRoot(&cleaned), nil, nil, sessionOptions{
		onClose: func(*Session) { closed++ },
	})
	if err := s.Mount(); err != nil {
		t.Fatal(err)
	}
	s.rt.RunPending()

	s.Close()
	s.Close()

	if cleaned != 1 || closed != 1 {
		t.Errorf("cleaned = %d, closed = %d, want 1 and 1", cleaned, closed)
	}
	if !s.Runtime().Closed() {
		t.Error("runtime should be closed")
	}
	if err := s.QueueEvent(&Event{HID: "h2", Type: "click"}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("QueueEvent after Close = %v", err)
	}
}

func TestSessionDispatchRendersFromOutsideTheLoop(t *testing.T) {
	var count *reactive.Cell[int]
	s := newTestSession(t, func() any {
		count = reactive.NewCell(0)
		return el.P("ticks: ", count)
	}, sessionOptions{})

	done := make(chan error, 1)
	go func() { done <- s.Dispatch(func() { count.Write(7) }) }()
	if err := <-done; err != nil {
		t.Fatalf("Dispatch() = %v", err)
	}
	if n := s.rt.RunPending(); n != 1 {
		t.Fatalf("ran %d tasks, want 1", n)
	}

	html, _ := s.HTML()
	if html != "<p>ticks: 7</p>" {
		t.Errorf("HTML() = %s", html)
	}
	if got := s.Stats().Renders; got != 2 {
		t.Errorf("renders = %d, want mount plus dispatch", got)
	}

	s.Close()
	if err := s.Dispatch(func() {}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Dispatch after Close = %v", err)
	}
}

func TestSessionSurvivesPanickingSubscriber(t *testing.T) {
	s := newTestSession(t, func() any {
		n := reactive.NewCell(0)
		label := reactive.Derive(func() string {
			if n.Read() == 1 {
				panic("bad label")
			}
			return fmt.Sprintf("n=%d", n.Read())
		}, n)
		return el.Button(el.OnClick(func() { n.Update(func(v int) int { return v + 1 }) }), label)
	}, sessionOptions{})

	runEvent(t, s, "h1", "click")
	html, _ := s.HTML()
	if html != `<button data-hid="h1" data-on-click="true">n=0</button>` {
		t.Fatalf("after the failing recompute HTML() = %s", html)
	}

	runEvent(t, s, "h1", "click")
	html, _ = s.HTML()
	if !strings.Contains(html, ">n=2</button>") {
		t.Errorf("session stopped updating: %s", html)
	}
}

func TestChainSkipsNil(t *testing.T) {
	called := false
	h := Chain(func(context.Context, *Event) error {
		called = true
		return nil
	}, nil)
	if err := h(context.Background(), &Event{}); err != nil || !called {
		t.Errorf("Chain() = %v, called = %v", err, called)
	}
}

func TestDecodeClientFrame(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"ping", `{"type":"ping"}`, false},
		{"event", `{"type":"event","hid":"h1","event":"click"}`, false},
		{"event without hid", `{"type":"event","event":"click"}`, true},
		{"unknown", `{"type":"nope"}`, true},
		{"garbage", `{`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeClientFrame([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeClientFrame() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
