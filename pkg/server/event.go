package server

import (
	"context"
)

// Event is a client event addressed to a live element.
type Event struct {
	// Seq numbers events per session, starting at 1.
	Seq uint64

	// HID is the hydration ID of the target element.
	HID string

	// Type is the DOM event name without the "on" prefix.
	Type string

	// Value carries input values and similar payloads.
	Value string

	// Session is the session the event arrived on.
	Session *Session
}

// EventHandler processes one event on the session loop.
type EventHandler func(ctx context.Context, ev *Event) error

// Middleware wraps an EventHandler.
type Middleware func(next EventHandler) EventHandler

// Chain composes middleware so that the first one is outermost.
func Chain(h EventHandler, mw ...Middleware) EventHandler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			h = mw[i](h)
		}
	}
	return h
}
