package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"huddle/contract"
	"huddle/domain"
	"huddle/domain/event"
	"huddle/observability"
)

// Bus fans domain events out to subscribers. Two tiers exist: sinks
// scoped to one room and sinks that see everything. Notify returns
// only once every sink ran, and a failing sink never prevents
// delivery to the others. No retry: a sink that fails misses the
// event for good.
type Bus struct {
	mu       sync.RWMutex
	roomSubs map[domain.RoomID]map[string]contract.EventSink
	allSubs  map[string]contract.EventSink

	log         *slog.Logger
	sinkTimeout time.Duration
	monitoring  *observability.Monitoring
}

func NewBus(log *slog.Logger, sinkTimeout time.Duration, monitoring *observability.Monitoring) *Bus {
	if sinkTimeout <= 0 {
		sinkTimeout = 5 * time.Second
	}
	return &Bus{
		roomSubs:    make(map[domain.RoomID]map[string]contract.EventSink),
		allSubs:     make(map[string]contract.EventSink),
		log:         log,
		sinkTimeout: sinkTimeout,
		monitoring:  monitoring,
	}
}

// SubscribeRoom registers a sink for one room. Subscribing the same
// name twice on the same room is a logged no-op.
func (b *Bus) SubscribeRoom(name string, roomID domain.RoomID, sink contract.EventSink) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.roomSubs[roomID]
	if !ok {
		subs = make(map[string]contract.EventSink)
		b.roomSubs[roomID] = subs
	}
	if _, duplicate := subs[name]; duplicate {
		b.log.Debug("duplicate room subscription ignored", "subscriber", name, "room_id", roomID)
		return
	}
	subs[name] = sink
}

// SubscribeAll registers a sink for every room, same idempotency rule.
func (b *Bus) SubscribeAll(name string, sink contract.EventSink) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, duplicate := b.allSubs[name]; duplicate {
		b.log.Debug("duplicate global subscription ignored", "subscriber", name)
		return
	}
	b.allSubs[name] = sink
}

// UnsubscribeRoom removes a room scoped sink, no-op when absent.
func (b *Bus) UnsubscribeRoom(name string, roomID domain.RoomID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.roomSubs[roomID]
	if !ok {
		return
	}
	delete(subs, name)
	if len(subs) == 0 {
		delete(b.roomSubs, roomID)
	}
}

func (b *Bus) UnsubscribeAll(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.allSubs, name)
}

type namedSink struct {
	name string
	sink contract.EventSink
}

// Notify invokes every global sink plus every sink scoped to the
// event's room, each on its own goroutine, and waits for all of them.
func (b *Bus) Notify(ctx context.Context, e event.DomainEvent) {
	b.mu.RLock()
	sinks := make([]namedSink, 0, len(b.allSubs)+len(b.roomSubs[e.RoomID()]))
	for name, sink := range b.allSubs {
		sinks = append(sinks, namedSink{name: name, sink: sink})
	}
	for name, sink := range b.roomSubs[e.RoomID()] {
		sinks = append(sinks, namedSink{name: name, sink: sink})
	}
	b.mu.RUnlock()

	if len(sinks) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, ns := range sinks {
		wg.Add(1)
		go func(ns namedSink) {
			defer wg.Done()
			b.deliver(ctx, ns, e)
		}(ns)
	}
	wg.Wait()
}

func (b *Bus) deliver(ctx context.Context, ns namedSink, e event.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("subscriber panicked", "subscriber", ns.name, "recover", r)
			if b.monitoring != nil {
				b.monitoring.IncrHandlerFailure()
			}
		}
	}()

	sinkCtx, cancel := context.WithTimeout(ctx, b.sinkTimeout)
	defer cancel()

	if err := ns.sink.Consume(sinkCtx, e); err != nil {
		b.log.Warn("subscriber failed", "subscriber", ns.name, "error", err)
		if b.monitoring != nil {
			b.monitoring.IncrHandlerFailure()
		}
	}
}
