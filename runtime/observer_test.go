package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"huddle/domain"
	"huddle/domain/event"
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type failingSink struct{ calls int }

func (s *failingSink) Consume(context.Context, event.DomainEvent) error {
	s.calls++
	return fmt.Errorf("sink is unwell")
}

type panickySink struct{ calls int }

func (s *panickySink) Consume(context.Context, event.DomainEvent) error {
	s.calls++
	panic("sink exploded")
}

func newTestBus() *Bus {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewBus(log, time.Second, nil)
}

func testEvent(room domain.RoomID) event.DomainEvent {
	return event.TypingChanged{Room: room, UserID: "u-1", IsTyping: true, At: time.Now().UTC()}
}

func Test_Notify_Survives_Failing_And_Panicking_Sinks(t *testing.T) {
	req := require.New(t)
	bus := newTestBus()

	healthy := &recordingSink{}
	unwell := &failingSink{}
	explosive := &panickySink{}

	bus.SubscribeRoom("healthy", "room-1", healthy)
	bus.SubscribeRoom("unwell", "room-1", unwell)
	bus.SubscribeRoom("explosive", "room-1", explosive)

	// When an event fires, Notify must return with every sink invoked
	bus.Notify(context.Background(), testEvent("room-1"))

	req.Equal(1, healthy.count())
	req.Equal(1, unwell.calls)
	req.Equal(1, explosive.calls)

	// The bus keeps working on the next event
	bus.Notify(context.Background(), testEvent("room-1"))
	req.Equal(2, healthy.count())
}

func Test_Subscribe_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	bus := newTestBus()

	sink := &recordingSink{}
	bus.SubscribeRoom("twice", "room-1", sink)
	bus.SubscribeRoom("twice", "room-1", sink)

	bus.Notify(context.Background(), testEvent("room-1"))

	// One registration, one delivery
	req.Equal(1, sink.count())
}

func Test_Room_Scoping_And_Global_Tier(t *testing.T) {
	req := require.New(t)
	bus := newTestBus()

	roomSink := &recordingSink{}
	globalSink := &recordingSink{}
	bus.SubscribeRoom("room-only", "room-1", roomSink)
	bus.SubscribeAll("sees-everything", globalSink)

	bus.Notify(context.Background(), testEvent("room-1"))
	bus.Notify(context.Background(), testEvent("room-2"))

	// The scoped sink only saw its own room
	req.Equal(1, roomSink.count())
	// The global sink saw both
	req.Equal(2, globalSink.count())
}

func Test_Unsubscribe_Stops_Delivery(t *testing.T) {
	req := require.New(t)
	bus := newTestBus()

	sink := &recordingSink{}
	bus.SubscribeRoom("transient", "room-1", sink)
	bus.Notify(context.Background(), testEvent("room-1"))
	req.Equal(1, sink.count())

	bus.UnsubscribeRoom("transient", "room-1")
	bus.Notify(context.Background(), testEvent("room-1"))
	req.Equal(1, sink.count())

	// Unsubscribing something unknown is a quiet no-op
	bus.UnsubscribeRoom("transient", "room-1")
	bus.UnsubscribeAll("never-registered")
}
