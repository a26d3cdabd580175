//go:generate go run go.uber.org/mock/mockgen -source=relay.go -destination=../mocks/mock_relay.go -package=mocks

// Package signaling routes WebRTC negotiation frames between peers.
// The relay only ever reads the routing head of a frame: SDP and ICE
// payloads pass through as opaque bytes, so codec or media stack
// changes never touch this code.
package signaling

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"huddle/contract"
	"huddle/domain"
	"huddle/domain/event"
	"huddle/observability"
	"huddle/protocol"
)

// State follows the loose progression of one peer's negotiation.
// ICE candidates are routed at any point, only the transition into
// Connected is inferred from them.
type State string

const (
	StateIdle           State = "idle"
	StateOfferSent      State = "offer_sent"
	StateAnswerReceived State = "answer_received"
	StateConnected      State = "connected"
)

// Exchange is the per sender bookkeeping of a negotiation.
type Exchange struct {
	State    State
	Signals  int
	FirstAt  time.Time
	LastAt   time.Time
	LastKind string
}

func (e *Exchange) advance(kind string) {
	switch kind {
	case protocol.TypeWebRTCOffer:
		e.State = StateOfferSent
	case protocol.TypeWebRTCAnswer:
		e.State = StateAnswerReceived
	case protocol.TypeICECandidate:
		if e.State == StateAnswerReceived {
			e.State = StateConnected
		}
	}
}

// Inbound is one signaling frame after the dispatcher peeled the
// routing head off. Payload stays raw.
type Inbound struct {
	Kind       string
	Room       domain.RoomID
	SenderID   string
	SenderName string
	SenderConn string
	TargetID   string
	Payload    json.RawMessage
}

type exchangeKey struct {
	room   domain.RoomID
	sender string
}

// ISignalRelay is the slice of the relay the frame dispatcher sees.
type ISignalRelay interface {
	Relay(ctx context.Context, in Inbound)
}

// Relay forwards signaling frames. With a target it unicasts, without
// one it broadcasts to the sender's room excluding the sender. A
// missing target is a benign race, logged and dropped.
type Relay struct {
	mu        sync.Mutex
	exchanges map[exchangeKey]*Exchange

	broadcaster contract.IBroadcaster
	log         *slog.Logger
	monitoring  *observability.Monitoring
}

func NewRelay(broadcaster contract.IBroadcaster, log *slog.Logger, monitoring *observability.Monitoring) *Relay {
	return &Relay{
		exchanges:   make(map[exchangeKey]*Exchange),
		broadcaster: broadcaster,
		log:         log,
		monitoring:  monitoring,
	}
}

func (r *Relay) Relay(ctx context.Context, in Inbound) {
	r.track(in)

	env := protocol.NewSignal(in.Kind, in.Room, in.SenderID, in.SenderName, in.TargetID, in.Payload)

	if in.TargetID != "" {
		if !r.broadcaster.SendTo(ctx, in.TargetID, env) {
			// The target probably disconnected a moment ago
			r.log.Debug("signaling target not reachable",
				"room_id", in.Room, "sender_id", in.SenderID, "target_id", in.TargetID)
			if r.monitoring != nil {
				r.monitoring.IncrSignalMiss()
			}
			return
		}
		if r.monitoring != nil {
			r.monitoring.IncrSignalRouted()
		}
		return
	}

	r.broadcaster.Broadcast(ctx, in.Room, env, in.SenderConn)
	if r.monitoring != nil {
		r.monitoring.IncrSignalRouted()
	}
}

func (r *Relay) track(in Inbound) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := exchangeKey{room: in.Room, sender: in.SenderID}
	exchange, ok := r.exchanges[key]
	if !ok {
		exchange = &Exchange{State: StateIdle, FirstAt: time.Now().UTC()}
		r.exchanges[key] = exchange
	}
	exchange.advance(in.Kind)
	exchange.Signals++
	exchange.LastAt = time.Now().UTC()
	exchange.LastKind = in.Kind
}

// RoomStats sums the exchange bookkeeping of one room: how many
// senders opened a negotiation and how many signals moved in total.
func (r *Relay) RoomStats(room domain.RoomID) (exchanges, signals int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, exchange := range r.exchanges {
		if key.room != room {
			continue
		}
		exchanges++
		signals += exchange.Signals
	}
	return exchanges, signals
}

// ExchangeState exposes the tracked state of one sender's exchange.
func (r *Relay) ExchangeState(room domain.RoomID, senderID string) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exchange, ok := r.exchanges[exchangeKey{room: room, sender: senderID}]
	if !ok {
		return StateIdle, false
	}
	return exchange.State, true
}

// Snapshot copies the exchange table for diagnostics.
func (r *Relay) Snapshot() map[string]Exchange {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Exchange, len(r.exchanges))
	for key, exchange := range r.exchanges {
		out[key.room.String()+"/"+key.sender] = *exchange
	}
	return out
}

// Consume lets the relay ride the event bus: when a user leaves a
// room, their pending exchange is forgotten.
func (r *Relay) Consume(_ context.Context, e event.DomainEvent) error {
	left, ok := e.(event.UserLeft)
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.exchanges, exchangeKey{room: left.Room, sender: left.UserID})
	return nil
}
