package runtime

import (
	"context"
	"log/slog"
	"time"

	"huddle/domain"
	"huddle/domain/event"
	"huddle/observability"
	"huddle/protocol"
)

// Broadcaster is the delivery engine: room fan-out goes through the
// room actor, point delivery goes straight through the registry.
// Both paths share the same failure isolation rule, a dead connection
// never stops delivery to the others.
type Broadcaster struct {
	registry   *Registry
	rooms      *Rooms
	log        *slog.Logger
	telemetry  chan<- event.Event
	monitoring *observability.Monitoring
}

func NewBroadcaster(registry *Registry, rooms *Rooms, log *slog.Logger,
	telemetry chan<- event.Event, monitoring *observability.Monitoring) *Broadcaster {
	return &Broadcaster{
		registry:   registry,
		rooms:      rooms,
		log:        log,
		telemetry:  telemetry,
		monitoring: monitoring,
	}
}

// Broadcast delivers to every member of the room except the excluded
// connection id. Best effort, at most once per live connection.
func (b *Broadcaster) Broadcast(ctx context.Context, room domain.RoomID, env protocol.Envelope, excludeConnID string) int {
	return b.rooms.Broadcast(ctx, room, env, excludeConnID)
}

// SendTo delivers to the principal's live connection. A missing or
// already closed connection is a routine outcome reported as false,
// never an error.
func (b *Broadcaster) SendTo(ctx context.Context, principalID string, env protocol.Envelope) bool {
	conn, ok := b.registry.Get(principalID)
	if !ok {
		return false
	}

	evicted, err := conn.Enqueue(env)
	if err != nil {
		b.log.Debug("point delivery to closed connection", "principal_id", principalID)
		return false
	}
	if evicted {
		b.reportOverflow(conn)
		if b.monitoring != nil {
			b.monitoring.IncrDropped()
		}
	}
	if b.monitoring != nil {
		b.monitoring.AddDelivered(1)
	}
	return true
}

func (b *Broadcaster) reportOverflow(conn *Connection) {
	if b.telemetry == nil {
		return
	}
	select {
	case b.telemetry <- event.Event{
		Type:      event.QueueOverflowType,
		CreatedAt: time.Now().UTC(),
		Payload: event.QueueOverflow{
			ConnectionID: conn.ID,
			Room:         conn.Room,
			Dropped:      conn.Dropped(),
		},
	}:
	default:
	}
}
