package runtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"huddle/domain"
	"huddle/errors"
	"huddle/protocol"
)

type ConnState int32

const (
	StateConnecting ConnState = iota
	StateActive
	StateDisconnected
)

// Connection is the registry-side handle for one live socket.
// The transport owns reads and writes; everything here is the shared
// state other goroutines are allowed to touch.
type Connection struct {
	ID        string
	Principal domain.Principal
	Room      domain.RoomID
	Kind      domain.ConnectionKind
	CreatedAt time.Time

	mu       sync.Mutex
	presence domain.Presence
	closed   bool
	outbound chan protocol.Envelope

	state   atomic.Int32
	dropped atomic.Uint64
	once    sync.Once
}

func NewConnection(principal domain.Principal, room domain.RoomID, kind domain.ConnectionKind, queueSize int) *Connection {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Connection{
		ID:        uuid.NewString(),
		Principal: principal,
		Room:      room,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
		presence:  domain.DefaultPresence(),
		outbound:  make(chan protocol.Envelope, queueSize),
	}
}

// Enqueue puts a frame on the outbound queue. When the queue is full
// the oldest frame is evicted first, so a slow consumer loses history
// instead of stalling the room. Reports whether an eviction happened.
func (c *Connection) Enqueue(env protocol.Envelope) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, errors.ErrConnectionClosed
	}

	select {
	case c.outbound <- env:
		return false, nil
	default:
	}

	evicted := false
	select {
	case <-c.outbound:
		evicted = true
		c.dropped.Add(1)
	default:
	}

	select {
	case c.outbound <- env:
	default:
		// The consumer raced us for the freed slot, drop the new frame
		c.dropped.Add(1)
	}
	return evicted, nil
}

// Outbound is drained by the single transport writer.
// The channel is closed by Close, never by the writer.
func (c *Connection) Outbound() <-chan protocol.Envelope {
	return c.outbound
}

// Close is idempotent and safe against concurrent Enqueue calls.
func (c *Connection) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.state.Store(int32(StateDisconnected))
		close(c.outbound)
		c.mu.Unlock()
	})
}

func (c *Connection) MarkActive() {
	c.state.CompareAndSwap(int32(StateConnecting), int32(StateActive))
}

func (c *Connection) State() ConnState {
	return ConnState(c.state.Load())
}

// Dropped is the lifetime count of frames lost to queue overflow.
func (c *Connection) Dropped() uint64 {
	return c.dropped.Load()
}

func (c *Connection) Presence() domain.Presence {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presence
}

// ApplyAction folds a presence affecting user action into the flags.
// Unknown actions leave the flags untouched and report false.
func (c *Connection) ApplyAction(action string, value bool) (domain.Presence, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := c.presence.Apply(action, value)
	return c.presence, changed
}

// Participant renders this connection as a snapshot entry.
func (c *Connection) Participant() domain.Participant {
	return domain.Participant{
		ConnectionID: c.ID,
		UserID:       c.Principal.UserID,
		Name:         c.Principal.Name,
		Avatar:       c.Principal.Avatar,
		Kind:         c.Kind,
		Presence:     c.Presence(),
		JoinedAt:     c.CreatedAt,
	}
}
