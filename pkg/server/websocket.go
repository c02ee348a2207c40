package server

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

// ReadLoop continuously reads messages from the WebSocket connection.
// It decodes frames, answers pings, and queues events.
// This method blocks until the connection is closed or an error occurs.
func (s *Session) ReadLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	s.conn.SetPongHandler(func(string) error {
		s.UpdateLastActive()
		return s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		// Set read deadline
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		s.UpdateLastActive()
		s.bytesRecv.Add(uint64(len(msg)))

		frame, err := DecodeClientFrame(msg)
		if err != nil {
			perr := &ProtocolError{SessionID: s.ID, Err: err}
			s.logger.Warn("frame decode error", "error", perr)
			s.sendError(errorCode(perr), perr.Error())
			continue
		}

		switch frame.Type {
		case FramePing:
			s.sendPong()

		case FrameEvent:
			s.handleEventFrame(frame)
		}
	}
}

// handleEventFrame queues an event from the client.
func (s *Session) handleEventFrame(frame *ClientFrame) {
	ev := &Event{
		HID:   frame.HID,
		Type:  frame.Event,
		Value: frame.Value,
	}
	if err := s.QueueEvent(ev); err != nil {
		s.logger.Warn("event dropped", "hid", ev.HID, "event", ev.Type, "error", err)
		s.sendError(errorCode(err), err.Error())
	}
}

// WriteLoop handles periodic tasks like heartbeats.
// It runs until the session is closed.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sendPing(); err != nil {
				go s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}

// EventLoop runs the session runtime until the session closes, then
// disposes the root and closes the runtime.
func (s *Session) EventLoop() {
	defer close(s.loopDone)
	defer s.teardown()

	if err := s.rt.Loop(s.ctx); err != nil && !errors.Is(err, s.ctx.Err()) {
		s.logger.Error("event loop stopped", "error", err)
	}
}

// Start mounts the root and starts all session loops.
// This should be called after the handshake is complete.
func (s *Session) Start() {
	if s.started.Swap(true) {
		return
	}
	if err := s.Mount(); err != nil {
		s.logger.Error("mount not queued", "error", err)
	}

	go s.EventLoop()
	if s.conn != nil {
		go s.ReadLoop()
		go s.WriteLoop()
	}
}
