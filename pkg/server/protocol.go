package server

import (
	"encoding/json"
	"fmt"
)

// Frame types.
const (
	FrameEvent  = "event"
	FramePing   = "ping"
	FrameRender = "render"
	FrameError  = "error"
	FramePong   = "pong"
)

// Error codes sent in error frames.
const (
	CodeBadFrame       = "E060"
	CodeHandlerMissing = "E061"
	CodeHandlerFailed  = "E062"
	CodeQueueFull      = "E063"
)

// ClientFrame is a message from the browser.
type ClientFrame struct {
	Type  string `json:"type"`
	HID   string `json:"hid,omitempty"`
	Event string `json:"event,omitempty"`
	Value string `json:"value,omitempty"`
}

// ServerFrame is a message to the browser.
type ServerFrame struct {
	Type      string `json:"type"`
	Seq       uint64 `json:"seq,omitempty"`
	HTML      string `json:"html,omitempty"`
	Mutations int    `json:"mutations,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// DecodeClientFrame parses and validates a client frame.
func DecodeClientFrame(data []byte) (*ClientFrame, error) {
	var f ClientFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	switch f.Type {
	case FramePing:
	case FrameEvent:
		if f.HID == "" || f.Event == "" {
			return nil, fmt.Errorf("event frame needs hid and event")
		}
	default:
		return nil, fmt.Errorf("unknown frame type %q", f.Type)
	}
	return &f, nil
}

// Encode serializes the frame.
func (f *ServerFrame) Encode() ([]byte, error) {
	return json.Marshal(f)
}
