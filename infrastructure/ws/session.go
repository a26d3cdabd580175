package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"huddle/protocol"
	"huddle/runtime"
	"huddle/services"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = 45 * time.Second
	maxFrameBytes = 64 * 1024
)

// session binds one websocket to one registry connection. The read
// loop runs on the accepting goroutine, the write pump is the only
// writer of data frames, and every exit path funnels through the room
// service so teardown happens exactly once.
type session struct {
	ws          *websocket.Conn
	conn        *runtime.Connection
	dispatcher  *Dispatcher
	roomService services.IRoomService
	idleTimeout time.Duration
	log         *slog.Logger
}

func (s *session) run(ctx context.Context) {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(ctx)
	}()

	s.readLoop(ctx)

	// Leave closes the outbound queue, which stops the write pump
	// with a proper close frame.
	s.roomService.Leave(ctx, s.conn)
	<-writerDone
}

func (s *session) readLoop(ctx context.Context) {
	s.ws.SetReadLimit(maxFrameBytes)
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Pongs keep the read deadline alive, so a client that answers
	// pings but never sends a frame needs its own cutoff.
	var idle *time.Timer
	if s.idleTimeout > 0 {
		idle = time.AfterFunc(s.idleTimeout, s.cutIdle)
		defer idle.Stop()
	}

	for {
		var frame protocol.Frame
		if err := s.ws.ReadJSON(&frame); err != nil {
			s.closeOnReadError(err)
			return
		}
		if idle != nil {
			idle.Reset(s.idleTimeout)
		}
		s.dispatcher.Dispatch(ctx, s.conn, frame)
	}
}

// writePump is the single writer of data frames. It drains the
// connection queue, keeps the peer alive with pings, and says goodbye
// when the queue closes or the server goes away.
func (s *session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		// Closing the socket unblocks the read loop, which owns the
		// teardown. Covers eviction, write errors and shutdown alike.
		_ = s.ws.Close()
	}()

	for {
		select {
		case env, ok := <-s.conn.Outbound():
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.ws.WriteJSON(env); err != nil {
				s.log.Debug("websocket write failed",
					"connection_id", s.conn.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// cutIdle fires from the timer goroutine, so it only uses the two
// calls gorilla allows concurrently with the pumps.
func (s *session) cutIdle() {
	s.log.Info("idle connection cut",
		"connection_id", s.conn.ID,
		"room_id", s.conn.Room,
		"user_id", s.conn.Principal.UserID)
	_ = s.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "idle timeout"),
		time.Now().Add(writeWait))
	_ = s.ws.Close()
}

// closeOnReadError maps the read failure to its goodbye. Malformed
// JSON is the one fatal protocol offense and closes with 1007,
// everything else is the peer or the network going away.
func (s *session) closeOnReadError(err error) {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		s.log.Warn("malformed frame, closing",
			"connection_id", s.conn.ID, "room_id", s.conn.Room, "error", err)
		_ = s.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInvalidFramePayloadData, "malformed frame"),
			time.Now().Add(writeWait))
		return
	}

	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		s.log.Debug("websocket read ended",
			"connection_id", s.conn.ID, "error", err)
	}
}
