package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"huddle/domain"
	"huddle/domain/event"
	"huddle/errors"
	"huddle/observability"
	"huddle/protocol"
	"huddle/runtime"
	"huddle/services"
	"huddle/signaling"
)

type frameHandler func(ctx context.Context, conn *runtime.Connection, frame protocol.Frame) error

// Dispatcher routes one decoded inbound frame to the service owning
// it. The type set is closed: unknown frames are logged and dropped,
// and a failing or panicking handler never takes the session down.
type Dispatcher struct {
	roomService services.IRoomService
	chatService services.IChatService
	relay       signaling.ISignalRelay

	handlers   map[string]frameHandler
	telemetry  chan<- event.Event
	monitoring *observability.Monitoring
	log        *slog.Logger
}

func NewDispatcher(
	roomService services.IRoomService,
	chatService services.IChatService,
	relay signaling.ISignalRelay,
	telemetry chan<- event.Event,
	monitoring *observability.Monitoring,
	log *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		roomService: roomService,
		chatService: chatService,
		relay:       relay,
		telemetry:   telemetry,
		monitoring:  monitoring,
		log:         log,
	}
	d.handlers = map[string]frameHandler{
		protocol.TypePing:             d.onPing,
		protocol.TypeChatMessage:      d.onChatMessage,
		protocol.TypeTyping:           d.onTyping,
		protocol.TypeWebRTCOffer:      d.onSignal,
		protocol.TypeWebRTCAnswer:     d.onSignal,
		protocol.TypeICECandidate:     d.onSignal,
		protocol.TypeUserAction:       d.onUserAction,
		protocol.TypeMediaStreamEvent: d.onMediaStream,
		protocol.TypeRecordingControl: d.onRecording,
		protocol.TypeGetParticipants:  d.onGetParticipants,
		protocol.TypeGetRoomStats:     d.onGetRoomStats,
	}
	return d
}

// Dispatch runs the handler for one inbound frame. Every outcome is
// absorbed here, the read loop only ever stops on transport errors.
func (d *Dispatcher) Dispatch(ctx context.Context, conn *runtime.Connection, frame protocol.Frame) {
	d.reportFrame(frame.Type)

	handler, known := d.handlers[frame.Type]
	if !known {
		if d.monitoring != nil {
			d.monitoring.IncrUnknownFrame()
		}
		d.log.Warn("inbound frame dropped",
			"frame_type", frame.Type,
			"connection_id", conn.ID,
			"reason", errors.ErrUnknownFrameType)
		return
	}

	if err := d.run(ctx, conn, frame, handler); err != nil {
		if d.monitoring != nil {
			d.monitoring.IncrHandlerFailure()
		}
		d.log.Error("frame handler failed",
			"frame_type", frame.Type,
			"room_id", conn.Room,
			"connection_id", conn.ID,
			"error", err)
	}
}

// run shields the session from a panicking handler.
func (d *Dispatcher) run(ctx context.Context, conn *runtime.Connection, frame protocol.Frame, handler frameHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrHandlerPanic, r)
		}
	}()
	return handler(ctx, conn, frame)
}

func (d *Dispatcher) onPing(_ context.Context, conn *runtime.Connection, _ protocol.Frame) error {
	_, err := conn.Enqueue(protocol.NewPong())
	return err
}

func (d *Dispatcher) onChatMessage(ctx context.Context, conn *runtime.Connection, frame protocol.Frame) error {
	payload, err := decode[protocol.ChatMessagePayload](frame.Data)
	if err != nil {
		return err
	}
	return d.chatService.PostMessage(ctx, domain.PostMessageCommand{
		Room:      conn.Room,
		Sender:    conn.Principal,
		Content:   payload.Content,
		CreatedAt: time.Now().UTC(),
	})
}

func (d *Dispatcher) onTyping(ctx context.Context, conn *runtime.Connection, frame protocol.Frame) error {
	payload, err := decode[protocol.TypingPayload](frame.Data)
	if err != nil {
		return err
	}
	return d.roomService.Typing(ctx, conn, payload.IsTyping)
}

// onSignal peels the routing head off and forwards the body as is.
// The same handler serves offers, answers and ICE candidates.
func (d *Dispatcher) onSignal(ctx context.Context, conn *runtime.Connection, frame protocol.Frame) error {
	payload, err := decode[protocol.SignalPayload](frame.Data)
	if err != nil {
		return err
	}
	d.relay.Relay(ctx, signaling.Inbound{
		Kind:       frame.Type,
		Room:       conn.Room,
		SenderID:   conn.Principal.UserID,
		SenderName: conn.Principal.Name,
		SenderConn: conn.ID,
		TargetID:   payload.TargetUserID,
		Payload:    frame.Data,
	})
	return nil
}

func (d *Dispatcher) onUserAction(ctx context.Context, conn *runtime.Connection, frame protocol.Frame) error {
	payload, err := decode[protocol.UserActionPayload](frame.Data)
	if err != nil {
		return err
	}
	return d.roomService.UserAction(ctx, conn, payload)
}

func (d *Dispatcher) onMediaStream(ctx context.Context, conn *runtime.Connection, frame protocol.Frame) error {
	payload, err := decode[protocol.MediaStreamPayload](frame.Data)
	if err != nil {
		return err
	}
	return d.roomService.MediaStream(ctx, conn, payload)
}

func (d *Dispatcher) onRecording(ctx context.Context, conn *runtime.Connection, frame protocol.Frame) error {
	payload, err := decode[protocol.RecordingControlPayload](frame.Data)
	if err != nil {
		return err
	}
	return d.roomService.Recording(ctx, conn, payload.Action)
}

func (d *Dispatcher) onGetParticipants(ctx context.Context, conn *runtime.Connection, _ protocol.Frame) error {
	return d.roomService.Participants(ctx, conn)
}

func (d *Dispatcher) onGetRoomStats(ctx context.Context, conn *runtime.Connection, _ protocol.Frame) error {
	return d.roomService.Stats(ctx, conn)
}

// reportFrame feeds the telemetry channel without ever blocking the
// hot path. A full channel just loses the sample.
func (d *Dispatcher) reportFrame(frameType string) {
	if d.telemetry == nil {
		return
	}
	select {
	case d.telemetry <- event.Event{
		Type:      event.FrameDispatchedType,
		CreatedAt: time.Now().UTC(),
		Payload:   event.FrameDispatched{FrameType: frameType},
	}:
	default:
	}
}

// decode rejects payloads whose shape does not match the frame type.
// The data part already parsed as JSON when the envelope did, so only
// type mismatches can fail here.
func decode[T any](data json.RawMessage) (T, error) {
	var payload T
	if len(data) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	return payload, nil
}
