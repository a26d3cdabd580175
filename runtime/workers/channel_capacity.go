package workers

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"huddle/domain/event"
)

// NamedChannel pairs a channel with the name it is reported under.
// The channel stays untyped because the watched channels carry
// different element types (domain events, telemetry events, frames).
type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker samples the fill level of the hot channels.
// Reading len(channel) and cap(channel) is non-blocking, so the sampler
// never interferes with the goroutines draining them. A lost sample is
// fine, the next tick takes another one.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	telemetryChan  chan<- event.Event
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger,
	channels []NamedChannel, telemetryChan chan<- event.Event,
	metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log: log, channels: channels,
		telemetryChan:  telemetryChan,
		metricInterval: metricInterval,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping capacity sampler")
			return nil
		case <-ticker.C:
			for _, nc := range w.channels {
				w.sample(nc)
			}
		}
	}
}

func (w *ChannelCapacityWorker) sample(nc NamedChannel) {
	v := reflect.ValueOf(nc.Channel)
	if v.Kind() != reflect.Chan {
		w.log.Error("Provided object is not a channel", "name", nc.Name)
		return
	}

	evt := event.Event{
		Type:      event.ChannelCapacityType,
		CreatedAt: time.Now().UTC(),
		Payload: event.ChannelCapacity{
			ChannelName: nc.Name,
			Capacity:    v.Cap(),
			Length:      v.Len(),
		},
	}

	select {
	case w.telemetryChan <- evt:
	default:
		w.log.Debug("Observability telemetry event lost", "type", evt.Type)
	}
}
