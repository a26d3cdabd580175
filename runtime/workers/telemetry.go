package workers

import (
	"context"
	"log/slog"

	"huddle/domain/event"
)

// TelemetryWorker drains the telemetry channel and walks every event
// through the handler chain. Producers all over the process send on
// that channel without blocking, so the drain runs continuously, a
// sampling tick here would let the channel back up under frame load.
type TelemetryWorker struct {
	log           *slog.Logger
	telemetryChan <-chan event.Event
	handlers      []event.Handler
}

func NewTelemetryWorker(log *slog.Logger,
	telemetryChan <-chan event.Event,
	handlers []event.Handler) *TelemetryWorker {
	return &TelemetryWorker{
		log:           log,
		telemetryChan: telemetryChan,
		handlers:      handlers,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry worker")
			return nil
		case evt, ok := <-w.telemetryChan:
			if !ok {
				w.log.Debug("Telemetry channel closed, stopping telemetry worker")
				return nil
			}
			w.handle(evt)
		}
	}
}

func (w *TelemetryWorker) handle(evt event.Event) {
	for _, h := range w.handlers {
		h.Handle(evt)
	}
}
