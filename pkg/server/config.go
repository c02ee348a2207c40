package server

import (
	"net/http"
	"time"

	"github.com/vango-dev/tide/pkg/reactive"
)

// SessionConfig holds configuration for individual sessions.
type SessionConfig struct {
	// ReadTimeout is the maximum time to wait for a message from the client.
	// Heartbeat pongs extend it.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// HeartbeatInterval is the time between heartbeat pings.
	// Default: 30 seconds.
	HeartbeatInterval time.Duration

	// MaxMessageSize is the maximum size of an incoming WebSocket message.
	// Default: 64KB.
	MaxMessageSize int64

	// MaxEventQueue is the size of the runtime task queue.
	// Default: 256.
	MaxEventQueue int

	// MaxFlushRounds bounds each flush of the session runtime.
	// Default: reactive.DefaultMaxRounds.
	MaxFlushRounds int
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxMessageSize:    64 * 1024, // 64KB
		MaxEventQueue:     256,
		MaxFlushRounds:    reactive.DefaultMaxRounds,
	}
}

// Clone returns a copy of the SessionConfig.
func (c *SessionConfig) Clone() *SessionConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// ServerConfig holds configuration for the HTTP/WebSocket server.
type ServerConfig struct {
	// Address is the address to listen on (e.g., ":8080" or "localhost:3000").
	// Default: ":8080".
	Address string

	// Title is the page title of the shell served at "/".
	Title string

	// SocketPath is the WebSocket endpoint.
	// Default: "/ws".
	SocketPath string

	// ReadBufferSize is the WebSocket read buffer size.
	// Default: 4096.
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size.
	// Default: 4096.
	WriteBufferSize int

	// CheckOrigin is called to validate the request origin.
	// Default: same-origin check of gorilla/websocket.
	CheckOrigin func(r *http.Request) bool

	// SessionConfig is the configuration for individual sessions.
	// Default: DefaultSessionConfig().
	SessionConfig *SessionConfig

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// MaxSessions is the maximum number of concurrent sessions.
	// 0 means no limit.
	MaxSessions int
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:         ":8080",
		Title:           "Tide",
		SocketPath:      "/ws",
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		SessionConfig:   DefaultSessionConfig(),
		ShutdownTimeout: 30 * time.Second,
	}
}

// Clone returns a deep copy of the ServerConfig.
func (c *ServerConfig) Clone() *ServerConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.SessionConfig = c.SessionConfig.Clone()
	return &clone
}

// withDefaults fills zero fields from DefaultServerConfig.
func (c *ServerConfig) withDefaults() *ServerConfig {
	def := DefaultServerConfig()
	if c == nil {
		return def
	}
	out := c.Clone()
	if out.Address == "" {
		out.Address = def.Address
	}
	if out.SocketPath == "" {
		out.SocketPath = def.SocketPath
	}
	if out.ReadBufferSize <= 0 {
		out.ReadBufferSize = def.ReadBufferSize
	}
	if out.WriteBufferSize <= 0 {
		out.WriteBufferSize = def.WriteBufferSize
	}
	if out.ShutdownTimeout <= 0 {
		out.ShutdownTimeout = def.ShutdownTimeout
	}
	if out.SessionConfig == nil {
		out.SessionConfig = def.SessionConfig
	}
	sc := out.SessionConfig
	dsc := def.SessionConfig
	if sc.ReadTimeout <= 0 {
		sc.ReadTimeout = dsc.ReadTimeout
	}
	if sc.WriteTimeout <= 0 {
		sc.WriteTimeout = dsc.WriteTimeout
	}
	if sc.HeartbeatInterval <= 0 {
		sc.HeartbeatInterval = dsc.HeartbeatInterval
	}
	if sc.MaxMessageSize <= 0 {
		sc.MaxMessageSize = dsc.MaxMessageSize
	}
	if sc.MaxEventQueue <= 0 {
		sc.MaxEventQueue = dsc.MaxEventQueue
	}
	if sc.MaxFlushRounds <= 0 {
		sc.MaxFlushRounds = dsc.MaxFlushRounds
	}
	return out
}
