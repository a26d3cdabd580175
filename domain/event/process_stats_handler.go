package event

import (
	"fmt"
	"log/slog"

	"huddle/errors"
)

type ProcessStatsHandler struct {
	log *slog.Logger
}

func NewProcessStatsHandler(log *slog.Logger) *ProcessStatsHandler {
	return &ProcessStatsHandler{log: log}
}

func (h ProcessStatsHandler) Handle(event Event) {
	switch event.Type {
	case ProcessStatsType:
		payload, ok := event.Payload.(ProcessStats)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.log.Debug(fmt.Sprintf(" [HEARTBEAT] | PID %d | STATUS %s | CPU %.2f%% | RAM %.2fMB | GOROUTINES %d",
			payload.PID, payload.Status, payload.Cpu, payload.RamMB, payload.Goroutines))
	}
}
