//go:generate go run go.uber.org/mock/mockgen -source=room_service.go -destination=../mocks/mock_room_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"time"

	"huddle/contract"
	"huddle/domain"
	"huddle/domain/event"
	"huddle/errors"
	"huddle/protocol"
	"huddle/recording"
	"huddle/runtime"
	"huddle/signaling"
)

type IRoomService interface {
	Join(ctx context.Context, principal domain.Principal, room domain.RoomID, kind domain.ConnectionKind) (*runtime.Connection, error)
	Leave(ctx context.Context, conn *runtime.Connection)
	Typing(ctx context.Context, conn *runtime.Connection, isTyping bool) error
	UserAction(ctx context.Context, conn *runtime.Connection, payload protocol.UserActionPayload) error
	MediaStream(ctx context.Context, conn *runtime.Connection, payload protocol.MediaStreamPayload) error
	Participants(ctx context.Context, conn *runtime.Connection) error
	Stats(ctx context.Context, conn *runtime.Connection) error
	Recording(ctx context.Context, conn *runtime.Connection, action string) error
}

// RoomService drives the room lifecycle on behalf of the transport:
// it owns the join/leave choreography and turns inbound room frames
// into broadcasts and bus events. It never touches a socket directly.
type RoomService struct {
	registry    *runtime.Registry
	rooms       *runtime.Rooms
	broadcaster contract.IBroadcaster
	bus         contract.Notifier
	relay       *signaling.Relay
	recorder    *recording.Manager
	queueSize   int
	log         *slog.Logger
}

func NewRoomService(
	registry *runtime.Registry,
	rooms *runtime.Rooms,
	broadcaster contract.IBroadcaster,
	bus contract.Notifier,
	relay *signaling.Relay,
	recorder *recording.Manager,
	queueSize int,
	log *slog.Logger) *RoomService {
	return &RoomService{
		registry:    registry,
		rooms:       rooms,
		broadcaster: broadcaster,
		bus:         bus,
		relay:       relay,
		recorder:    recorder,
		queueSize:   queueSize,
		log:         log,
	}
}

// Join admits an authenticated principal into a room.
//  1. The connection takes its slot in the registry, replacing and
//     closing any previous login of the same principal.
//  2. The room actor admits it or rejects with ErrRoomFull, in which
//     case nothing of the connection survives.
//  3. The joiner's first frame is the roster snapshot, itself included.
func (s *RoomService) Join(ctx context.Context, principal domain.Principal, room domain.RoomID, kind domain.ConnectionKind) (*runtime.Connection, error) {
	conn := runtime.NewConnection(principal, room, kind, s.queueSize)

	if previous := s.registry.Register(conn); previous != nil {
		s.rooms.Leave(ctx, previous)
		previous.Close()
		s.log.Info("previous login replaced",
			"user_id", principal.UserID, "old_connection_id", previous.ID)
	}

	snapshot, err := s.rooms.Join(ctx, conn)
	if err != nil {
		s.registry.Remove(conn)
		conn.Close()
		return nil, err
	}
	conn.MarkActive()

	if _, err := conn.Enqueue(protocol.NewParticipantsList(room, conn.ID, snapshot)); err != nil {
		s.log.Debug("joiner hung up before the roster frame", "connection_id", conn.ID)
	}

	s.log.Info("user joined room",
		"room_id", room,
		"user_id", principal.UserID,
		"connection_id", conn.ID,
		"participants", len(snapshot),
	)
	return conn, nil
}

// Leave tears one connection down. Safe to call from every exit path,
// every step tolerates already being done.
func (s *RoomService) Leave(ctx context.Context, conn *runtime.Connection) {
	s.rooms.Leave(ctx, conn)
	s.registry.Remove(conn)
	conn.Close()
	s.log.Debug("user left room",
		"room_id", conn.Room, "user_id", conn.Principal.UserID, "connection_id", conn.ID)
}

// Typing flips the sender in the room typing set and tells everyone
// else who is typing now. The sender does not hear its own echo.
func (s *RoomService) Typing(ctx context.Context, conn *runtime.Connection, isTyping bool) error {
	typingUsers, err := s.rooms.SetTyping(ctx, conn.Room, conn.Principal.UserID, isTyping)
	if err != nil {
		return err
	}

	env := protocol.NewTyping(conn.Room, conn.Principal.UserID, conn.Principal.Name, isTyping, typingUsers)
	s.broadcaster.Broadcast(ctx, conn.Room, env, conn.ID)

	s.bus.Notify(ctx, event.TypingChanged{
		Room:     conn.Room,
		UserID:   conn.Principal.UserID,
		UserName: conn.Principal.Name,
		IsTyping: isTyping,
		At:       time.Now().UTC(),
	})
	return nil
}

// UserAction folds presence verbs (mute, video_off, ...) into the
// sender's flags, then routes the action to the room as is. Verbs the
// presence model does not know still travel, untouched.
func (s *RoomService) UserAction(ctx context.Context, conn *runtime.Connection, payload protocol.UserActionPayload) error {
	if action, value, ok := domain.ParseUserAction(payload.Action); ok {
		s.applyPresence(ctx, conn, action, value)
	}

	env := protocol.NewUserAction(conn.Room, conn.Principal.UserID, payload.Action, payload.Value)
	s.broadcaster.Broadcast(ctx, conn.Room, env, conn.ID)
	return nil
}

// MediaStream mirrors a stream transition onto the presence flags and
// relays the event to the rest of the room.
func (s *RoomService) MediaStream(ctx context.Context, conn *runtime.Connection, payload protocol.MediaStreamPayload) error {
	if action, value, ok := domain.StreamAction(payload.StreamType, payload.EventType); ok {
		s.applyPresence(ctx, conn, action, value)
	}

	env := protocol.NewMediaStreamEvent(conn.Room, conn.Principal.UserID, payload)
	s.broadcaster.Broadcast(ctx, conn.Room, env, conn.ID)
	return nil
}

// Participants answers the requester, and only the requester, with the
// current roster.
func (s *RoomService) Participants(ctx context.Context, conn *runtime.Connection) error {
	snapshot := s.rooms.Lookup(ctx, conn.Room)
	_, err := conn.Enqueue(protocol.NewParticipantsList(conn.Room, conn.ID, snapshot))
	return err
}

// Stats answers the requester with the room counters, the signaling
// exchange numbers merged in.
func (s *RoomService) Stats(ctx context.Context, conn *runtime.Connection) error {
	stats, ok := s.rooms.Stats(ctx, conn.Room)
	if !ok {
		return errors.ErrRoomClosed
	}
	stats.SignalExchanges, stats.SignalsRelayed = s.relay.RoomStats(conn.Room)

	_, err := conn.Enqueue(protocol.NewRoomStats(stats))
	return err
}

// Recording starts or stops the room tape. Benign outcomes like a
// double start only reach the initiator, successful transitions are
// announced to the whole room, initiator included.
func (s *RoomService) Recording(ctx context.Context, conn *runtime.Connection, action string) error {
	switch action {
	case protocol.RecordingStart:
		return s.startRecording(ctx, conn)
	case protocol.RecordingStop:
		return s.stopRecording(ctx, conn)
	default:
		s.reject(conn, "unknown recording action: "+action)
		return nil
	}
}

func (s *RoomService) startRecording(ctx context.Context, conn *runtime.Connection) error {
	room := conn.Room

	// The actor flips the flag first, so concurrent starts serialize
	// there and exactly one of them reaches the manager.
	if err := s.rooms.SetRecording(ctx, room, true, conn.Principal); err != nil {
		s.reject(conn, err.Error())
		return nil
	}

	meta, err := s.recorder.Start(room, conn.Principal, s.rooms.Lookup(ctx, room))
	if err != nil {
		_ = s.rooms.SetRecording(ctx, room, false, conn.Principal)
		s.reject(conn, "recording could not be started")
		return err
	}

	env := protocol.NewRecordingStarted(room, meta.ID.String(), conn.Principal.UserID, conn.Principal.Name)
	s.broadcaster.Broadcast(ctx, room, env, "")

	s.bus.Notify(ctx, event.RecordingStarted{
		Room:   room,
		ByID:   conn.Principal.UserID,
		ByName: conn.Principal.Name,
		At:     meta.StartedAt,
	})
	return nil
}

func (s *RoomService) stopRecording(ctx context.Context, conn *runtime.Connection) error {
	room := conn.Room

	if err := s.rooms.SetRecording(ctx, room, false, conn.Principal); err != nil {
		s.reject(conn, err.Error())
		return nil
	}

	meta, err := s.recorder.Stop(room, conn.Principal)
	if err != nil {
		s.reject(conn, "recording could not be stopped")
		return err
	}

	env := protocol.NewRecordingStopped(room, meta.ID.String(),
		conn.Principal.UserID, conn.Principal.Name,
		meta.StoppedAt.Sub(meta.StartedAt), meta.Entries)
	s.broadcaster.Broadcast(ctx, room, env, "")

	s.bus.Notify(ctx, event.RecordingStopped{
		Room:   room,
		ByID:   conn.Principal.UserID,
		ByName: conn.Principal.Name,
		At:     meta.StoppedAt,
	})
	return nil
}

func (s *RoomService) applyPresence(ctx context.Context, conn *runtime.Connection, action string, value bool) {
	presence, changed := conn.ApplyAction(action, value)
	if !changed {
		return
	}
	s.bus.Notify(ctx, event.PresenceChanged{
		Room:     conn.Room,
		UserID:   conn.Principal.UserID,
		Action:   action,
		Value:    value,
		Presence: presence,
		At:       time.Now().UTC(),
	})
}

// reject delivers a benign failure to the initiating connection only.
func (s *RoomService) reject(conn *runtime.Connection, message string) {
	if _, err := conn.Enqueue(protocol.NewError(message)); err != nil {
		s.log.Debug("error frame lost, connection already closed", "connection_id", conn.ID)
	}
}
