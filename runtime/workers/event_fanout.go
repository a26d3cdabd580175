package workers

import (
	"context"
	"log/slog"

	"huddle/contract"
	"huddle/domain/event"
)

// EventFanout drains the room event channel and hands every event to the bus.
// It is the only bridge between the room goroutines, which must never block,
// and the subscribers, which are allowed to be slow.
type EventFanout struct {
	log    *slog.Logger
	events <-chan event.DomainEvent
	bus    contract.Notifier
}

func NewEventFanout(log *slog.Logger, events <-chan event.DomainEvent, bus contract.Notifier) *EventFanout {
	return &EventFanout{log: log, events: events, bus: bus}
}

func (w *EventFanout) Run(ctx context.Context) error {
	w.log.Info("Starting event fanout worker")

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel closed, stopping event fanout")
				return nil
			}
			// Notify blocks until every subscriber consumed the event or
			// timed out, which is exactly the backpressure the rooms must
			// not feel. That wait lives here, on the worker goroutine.
			w.bus.Notify(ctx, evt)
		}
	}
}
