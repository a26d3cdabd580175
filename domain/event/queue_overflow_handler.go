package event

import (
	"fmt"
	"log/slog"
	"sync"

	"huddle/errors"
)

// QueueOverflowHandler handles drop-oldest evictions reported by
// connection outbound queues. A connection that keeps showing up here
// is a slow consumer the operator should know about.
type QueueOverflowHandler struct {
	log     *slog.Logger
	mu      sync.Mutex
	counter *Counter
}

func NewQueueOverflowHandler(log *slog.Logger, counter *Counter) *QueueOverflowHandler {
	return &QueueOverflowHandler{log: log, counter: counter}
}

func (h *QueueOverflowHandler) Handle(event Event) {
	switch event.Type {
	case QueueOverflowType:
		payload, ok := event.Payload.(QueueOverflow)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		h.counter.Increment(QueueOverflowType)
		h.log.Warn(fmt.Sprintf("outbound queue overflow on %s (room %s), dropped so far: %d",
			payload.ConnectionID, payload.Room, payload.Dropped))
	}
}
