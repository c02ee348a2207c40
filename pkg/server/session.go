package server

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/tide/pkg/dom"
	"github.com/vango-dev/tide/pkg/mount"
	"github.com/vango-dev/tide/pkg/reactive"
	"github.com/vango-dev/tide/pkg/render"
)

// RootFunc builds a session's root content. It runs inside a component
// scope on the session loop; anything it returns is classified with
// mount.From.
type RootFunc func() any

// Session is one live connection: a runtime, a document and the socket.
type Session struct {
	// Identity
	ID        string
	CreatedAt time.Time

	conn   *websocket.Conn
	mu     sync.Mutex // Guards writes to conn
	config *SessionConfig
	logger *slog.Logger

	rt      *reactive.Runtime
	doc     *dom.Document
	rootFn  RootFunc
	handler EventHandler

	// Owned by the loop goroutine.
	root  *reactive.Material[*dom.Node]
	dirty int

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	loopDone chan struct{}
	started  atomic.Bool
	closed   atomic.Bool

	closeOnce sync.Once
	onClose   func(*Session)

	lastActive atomic.Int64
	eventSeq   atomic.Uint64
	sendSeq    atomic.Uint64
	eventCount atomic.Uint64
	bytesSent  atomic.Uint64
	bytesRecv  atomic.Uint64
}

// sessionOptions carries what the server hands to each new session.
type sessionOptions struct {
	middleware []Middleware
	flushHooks []func(*Session, reactive.FlushStats)
	onClose    func(*Session)
}

// newSession creates a session. conn may be nil in tests; sends then fail
// with ErrNoConnection.
func newSession(conn *websocket.Conn, id string, root RootFunc, cfg *SessionConfig, logger *slog.Logger, opts sessionOptions) *Session {
	if cfg == nil {
		cfg = DefaultSessionConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		conn:      conn,
		config:    cfg,
		logger:    logger.With("session_id", id),
		doc:       dom.NewDocument(),
		rootFn:    root,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		loopDone:  make(chan struct{}),
		onClose:   opts.onClose,
	}
	s.lastActive.Store(s.CreatedAt.UnixNano())

	rtOpts := []reactive.Option{
		reactive.WithLogger(s.logger),
		reactive.WithMaxRounds(cfg.MaxFlushRounds),
		reactive.WithQueueSize(cfg.MaxEventQueue),
	}
	for _, hook := range opts.flushHooks {
		hook := hook
		rtOpts = append(rtOpts, reactive.WithFlushHook(func(st reactive.FlushStats) {
			hook(s, st)
		}))
	}
	// Registered last so observers see the flush before the render goes out.
	rtOpts = append(rtOpts, reactive.WithFlushHook(func(reactive.FlushStats) {
		s.sync()
	}))
	s.rt = reactive.New(rtOpts...)

	s.doc.Observe(func(dom.Mutation) { s.dirty++ })
	s.handler = Chain(s.dispatch, opts.middleware...)
	return s
}

// Runtime returns the session runtime.
func (s *Session) Runtime() *reactive.Runtime {
	return s.rt
}

// Document returns the session document. Touch it only from the loop.
func (s *Session) Document() *dom.Document {
	return s.doc
}

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Done returns a channel closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// IsClosed reports whether Close has been called.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// LastActive returns the time of the last message from the client.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// UpdateLastActive records client activity.
func (s *Session) UpdateLastActive() {
	s.lastActive.Store(time.Now().UnixNano())
}

// SessionStats is a point-in-time view of session counters.
type SessionStats struct {
	Events        uint64
	Renders       uint64
	BytesSent     uint64
	BytesReceived uint64
}

// Stats returns the session counters.
func (s *Session) Stats() SessionStats {
	return SessionStats{
		Events:        s.eventCount.Load(),
		Renders:       s.sendSeq.Load(),
		BytesSent:     s.bytesSent.Load(),
		BytesReceived: s.bytesRecv.Load(),
	}
}

// Mount queues the root mount on the loop. The first render goes out when
// the mount task finishes.
func (s *Session) Mount() error {
	return s.Dispatch(s.mount)
}

// mount builds the root and attaches it to the document.
func (s *Session) mount() {
	if s.root != nil {
		return
	}
	s.root = mount.Root(s.rootFn)
	if err := s.doc.AppendChild(s.root.Value()); err != nil {
		s.logger.Error("mount failed", "error", err)
		return
	}
	s.logger.Debug("root mounted", "mutations", s.dirty)
}

// QueueEvent posts an event to the loop without blocking.
func (s *Session) QueueEvent(ev *Event) error {
	if ev.Seq == 0 {
		ev.Seq = s.eventSeq.Add(1)
	}
	ev.Session = s
	return s.post(func() { s.handleEvent(ev) })
}

// Dispatch runs fn on the session loop, then flushes and sends a render if
// the document changed. Safe from any goroutine.
func (s *Session) Dispatch(fn func()) error {
	return s.post(func() {
		fn()
		if err := s.rt.Flush(); err != nil {
			s.logger.Warn("flush failed", "error", err)
		}
		s.sync()
	})
}

func (s *Session) post(fn func()) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	switch err := s.rt.Post(fn); err {
	case nil:
		return nil
	case reactive.ErrQueueFull:
		return ErrEventQueueFull
	case reactive.ErrRuntimeClosed:
		return ErrSessionClosed
	default:
		return err
	}
}

// handleEvent runs one event through the middleware chain and flushes.
func (s *Session) handleEvent(ev *Event) {
	s.eventCount.Add(1)

	if err := s.safeExecute(ev); err != nil {
		s.logger.Warn("event failed",
			"hid", ev.HID,
			"event", ev.Type,
			"error", err)
		s.sendError(errorCode(err), err.Error())
	}

	if err := s.rt.Flush(); err != nil {
		s.logger.Warn("flush failed", "error", err)
	}
	s.sync()
}

// safeExecute runs the handler chain. Panics in middleware are recovered
// here; element handler panics are recovered in dispatch so middleware
// sees them as errors.
func (s *Session) safeExecute(ev *Event) (err error) {
	defer s.recoverHandler(ev, &err)
	return s.handler(s.ctx, ev)
}

// recoverHandler turns a panic into a HandlerError stored in errp.
func (s *Session) recoverHandler(ev *Event, errp *error) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		s.logger.Error("handler panic",
			"hid", ev.HID,
			"event", ev.Type,
			"panic", r,
			"stack", string(stack))
		*errp = NewHandlerError(s.ID, ev.HID, ev.Type, r, stack)
	}
}

// dispatch is the innermost handler: it finds the element and calls it.
func (s *Session) dispatch(_ context.Context, ev *Event) (err error) {
	node := s.doc.FindByHID(ev.HID)
	if node == nil {
		return fmt.Errorf("%w: %s", ErrHandlerNotFound, ev.HID)
	}
	h := node.Handler(ev.Type)
	if h == nil {
		return fmt.Errorf("%w: %s on %s", ErrHandlerNotFound, ev.Type, ev.HID)
	}

	defer s.recoverHandler(ev, &err)
	h(dom.Event{Type: ev.Type, Value: ev.Value, Target: node})
	return nil
}

// sync sends the document when it changed since the last send. Loop only.
func (s *Session) sync() {
	if s.dirty == 0 || s.closed.Load() {
		return
	}
	mutations := s.dirty
	s.dirty = 0

	html, err := render.HTML(s.doc.Root())
	if err != nil {
		s.logger.Error("render failed", "error", err)
		return
	}

	frame := &ServerFrame{
		Type:      FrameRender,
		Seq:       s.sendSeq.Add(1),
		HTML:      html,
		Mutations: mutations,
	}
	if err := s.send(frame); err != nil && err != ErrNoConnection {
		s.logger.Error("send render failed", "error", err)
	}
}

// HTML renders the current document. Loop only.
func (s *Session) HTML() (string, error) {
	return render.HTML(s.doc.Root())
}

func (s *Session) sendError(code, message string) {
	err := s.send(&ServerFrame{Type: FrameError, Code: code, Message: message})
	if err != nil && err != ErrNoConnection {
		s.logger.Debug("send error frame failed", "error", err)
	}
}

func (s *Session) sendPong() {
	if err := s.send(&ServerFrame{Type: FramePong}); err != nil && err != ErrNoConnection {
		s.logger.Error("pong error", "error", err)
	}
}

// send writes one frame. A failed write closes the session.
func (s *Session) send(f *ServerFrame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}
	if s.conn == nil {
		return ErrNoConnection
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		go s.Close()
		return NewSessionError(s.ID, "write", err)
	}
	s.bytesSent.Add(uint64(len(data)))
	return nil
}

// sendPing sends a heartbeat ping.
func (s *Session) sendPing() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}
	if s.conn == nil {
		return ErrNoConnection
	}

	deadline := time.Now().Add(s.config.WriteTimeout)
	if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		s.logger.Debug("ping failed", "error", err)
		return err
	}
	return nil
}

// Close stops the session. The loop disposes the root and closes the
// runtime on its way out; Close waits for it, so it must not be called
// from the loop itself. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed.Store(true)
		if s.conn != nil {
			deadline := time.Now().Add(time.Second)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
			_ = s.conn.Close()
		}
		s.mu.Unlock()

		close(s.done)
		s.cancel()

		if s.started.Load() {
			<-s.loopDone
		} else {
			s.teardown()
		}

		s.logger.Info("session closed",
			"events", s.eventCount.Load(),
			"renders", s.sendSeq.Load())

		if s.onClose != nil {
			s.onClose(s)
		}
	})
}

// teardown disposes the root and closes the runtime.
func (s *Session) teardown() {
	if s.root != nil {
		reactive.WithRuntime(s.rt, s.root.Dispose)
	}
	s.rt.Close()
}
