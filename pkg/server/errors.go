package server

import (
	"errors"
	"fmt"
)

var (
	ErrSessionClosed      = errors.New("server: session closed")
	ErrSessionNotFound    = errors.New("server: session not found")
	ErrHandlerNotFound    = errors.New("server: no handler for event")
	ErrEventQueueFull     = errors.New("server: event queue full")
	ErrMaxSessionsReached = errors.New("server: session limit reached")

	// ErrNoConnection is returned by sends on a session built without a
	// websocket, as in tests.
	ErrNoConnection = errors.New("server: no connection")
)

// SessionError is a failed session operation.
type SessionError struct {
	SessionID string
	Op        string
	Err       error
}

func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("server: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// NewSessionError wraps err as the failure of op in a session.
func NewSessionError(sessionID, op string, err error) *SessionError {
	return &SessionError{SessionID: sessionID, Op: op, Err: err}
}

// HandlerError is a panic recovered from an element handler or from
// event middleware.
type HandlerError struct {
	SessionID string
	HID       string
	EventType string
	Panic     any
	Stack     []byte
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("server: %s handler on %s panicked: %v", e.EventType, e.HID, e.Panic)
}

// NewHandlerError records a recovered handler panic.
func NewHandlerError(sessionID, hid, eventType string, panicVal any, stack []byte) *HandlerError {
	return &HandlerError{
		SessionID: sessionID,
		HID:       hid,
		EventType: eventType,
		Panic:     panicVal,
		Stack:     stack,
	}
}

// ProtocolError is a client frame the session could not decode.
type ProtocolError struct {
	SessionID string
	Err       error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("server: malformed frame: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// errorCode maps an error to the code sent in an error frame.
func errorCode(err error) string {
	var (
		herr *HandlerError
		perr *ProtocolError
	)
	switch {
	case errors.As(err, &perr):
		return CodeBadFrame
	case errors.As(err, &herr):
		return CodeHandlerFailed
	case errors.Is(err, ErrHandlerNotFound):
		return CodeHandlerMissing
	case errors.Is(err, ErrEventQueueFull):
		return CodeQueueFull
	default:
		return CodeHandlerFailed
	}
}
