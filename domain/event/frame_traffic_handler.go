package event

import (
	"log/slog"
	"sync"

	"huddle/errors"
)

// FrameTrafficHandler counts dispatched frames per frame type.
// It is fed by the dispatcher each time a handler ran, which makes
// its counters a cheap view of what clients actually send.
type FrameTrafficHandler struct {
	mu      sync.Mutex
	log     *slog.Logger
	counter *Counter
	perType map[string]uint64
}

func NewFrameTrafficHandler(log *slog.Logger, counter *Counter) *FrameTrafficHandler {
	return &FrameTrafficHandler{
		log:     log,
		counter: counter,
		perType: make(map[string]uint64),
	}
}

func (h *FrameTrafficHandler) Handle(event Event) {
	switch event.Type {
	case FrameDispatchedType:
		payload, ok := event.Payload.(FrameDispatched)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		h.counter.Increment(FrameDispatchedType)
		h.perType[payload.FrameType]++
	}
}

// Hits returns a copy of the per frame type counts.
func (h *FrameTrafficHandler) Hits() map[string]uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]uint64, len(h.perType))
	for k, v := range h.perType {
		out[k] = v
	}
	return out
}
