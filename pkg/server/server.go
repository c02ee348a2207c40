package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/tide/pkg/dom"
	"github.com/vango-dev/tide/pkg/mount"
	"github.com/vango-dev/tide/pkg/reactive"
	"github.com/vango-dev/tide/pkg/render"
)

//go:embed client.js
var clientScript string

// ClientScript returns the browser client served with every page.
func ClientScript() string {
	return clientScript
}

// Server is the HTTP/WebSocket server for live sessions.
type Server struct {
	config   *ServerConfig
	root     RootFunc
	sessions *SessionManager
	upgrader websocket.Upgrader

	middleware     []Middleware
	httpMiddleware []func(http.Handler) http.Handler
	flushHooks     []func(*Session, reactive.FlushStats)
	metricsPath    string
	metricsHandler http.Handler
	onCreate       func(*Session)
	onClose        func(*Session)

	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Sessions derive theirs from it.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMiddleware appends event middleware. The first one is outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(s *Server) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithHTTPMiddleware appends chi-compatible HTTP middleware.
func WithHTTPMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(s *Server) {
		s.httpMiddleware = append(s.httpMiddleware, mw...)
	}
}

// WithFlushHook registers fn to run after every flush of every session.
func WithFlushHook(fn func(*Session, reactive.FlushStats)) Option {
	return func(s *Server) {
		if fn != nil {
			s.flushHooks = append(s.flushHooks, fn)
		}
	}
}

// WithMetricsHandler mounts h at path, typically promhttp.Handler().
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metricsHandler = h
	}
}

// WithSessionHooks sets callbacks for session creation and close.
func WithSessionHooks(onCreate, onClose func(*Session)) Option {
	return func(s *Server) {
		s.onCreate = onCreate
		s.onClose = onClose
	}
}

// New creates a Server that mounts root for every connection.
func New(config *ServerConfig, root RootFunc, opts ...Option) *Server {
	config = config.withDefaults()
	s := &Server{
		config: config,
		root:   root,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     config.CheckOrigin,
	}

	s.sessions = NewSessionManager(config.SessionConfig, config.MaxSessions, s.logger)
	s.sessions.opts = sessionOptions{
		middleware: s.middleware,
		flushHooks: s.flushHooks,
	}
	s.sessions.SetOnSessionCreate(s.onCreate)
	s.sessions.SetOnSessionClose(s.onClose)

	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	for _, mw := range s.httpMiddleware {
		r.Use(mw)
	}

	r.Get("/", s.HandlePage)
	r.Get(s.config.SocketPath, s.HandleWebSocket)
	r.Get("/snapshot", s.HandleSnapshot)
	r.Get("/healthz", s.HandleHealth)
	if s.metricsHandler != nil && s.metricsPath != "" {
		r.Handle(s.metricsPath, s.metricsHandler)
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Config returns the effective configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// HandlePage serves the page shell with the first render of the root.
func (s *Server) HandlePage(w http.ResponseWriter, r *http.Request) {
	doc, err := RenderDocument(s.root)
	if err != nil {
		s.logger.Error("page render failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	sr := render.NewStreamingRenderer(w, render.RendererConfig{})
	err = sr.RenderPage(render.PageData{
		Body:         doc.Root(),
		Title:        s.config.Title,
		SocketPath:   s.config.SocketPath,
		ClientScript: clientScript,
	})
	if err != nil {
		s.logger.Error("page write failed", "error", err)
	}
}

// HandleSnapshot renders the root once and returns the HTML fragment.
func (s *Server) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	doc, err := RenderDocument(s.root)
	if err != nil {
		s.logger.Error("snapshot render failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	html, err := render.HTML(doc.Root())
	if err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// HandleHealth reports liveness and the session count.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

// HandleWebSocket upgrades the connection and starts a session.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if limit := s.config.MaxSessions; limit > 0 && s.sessions.Count() >= limit {
		http.Error(w, ErrMaxSessionsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	session, err := s.sessions.Create(conn, s.root)
	if err != nil {
		s.logger.Warn("session rejected", "error", err)
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}
	session.Start()
}

// RenderDocument mounts root into a fresh document on a throwaway
// runtime, runs one flush, and disposes the root.
func RenderDocument(root RootFunc) (*dom.Document, error) {
	rt := reactive.New()
	defer rt.Close()

	doc := dom.NewDocument()
	var (
		m         *reactive.Material[*dom.Node]
		appendErr error
	)
	err := rt.Run(func() {
		m = mount.Root(root)
		appendErr = doc.AppendChild(m.Value())
	})
	if m != nil {
		reactive.WithRuntime(rt, m.Dispose)
	}
	if err != nil {
		return nil, fmt.Errorf("render root: %w", err)
	}
	if appendErr != nil {
		return nil, fmt.Errorf("render root: %w", appendErr)
	}
	return doc, nil
}

// Run listens on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting connections and closes every session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down", "sessions", s.sessions.Count())

	var httpErr error
	if s.httpServer != nil {
		httpErr = s.httpServer.Shutdown(ctx)
	}
	if err := s.sessions.Shutdown(ctx); err != nil {
		return err
	}
	return httpErr
}
