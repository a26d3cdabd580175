package event

import (
	"fmt"
	"log/slog"

	"huddle/errors"
)

// ChannelCapacityHandler handles events reporting the fill level of
// internal channels. Useful for spotting backpressure before events
// start getting lost.
type ChannelCapacityHandler struct {
	log               *slog.Logger
	headroomThreshold int
}

func NewChannelCapacityHandler(log *slog.Logger, headroomThreshold int) *ChannelCapacityHandler {
	return &ChannelCapacityHandler{log: log, headroomThreshold: headroomThreshold}
}

func (h ChannelCapacityHandler) Handle(event Event) {
	switch event.Type {
	case ChannelCapacityType:
		payload, ok := event.Payload.(ChannelCapacity)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.log.Debug(fmt.Sprintf("Channel %s usage: %d / %d", payload.ChannelName, payload.Length, payload.Capacity))
		if payload.Capacity <= 0 {
			// In case of unbuffered channel
			return
		}
		headroom := payload.Capacity - payload.Length
		if headroom > 0 && headroom <= h.headroomThreshold {
			h.log.Warn(fmt.Sprintf("channel %s almost full, headroom left: %d", payload.ChannelName, headroom))
		}
	}
}
