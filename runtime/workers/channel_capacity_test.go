package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"huddle/domain/event"
)

func TestChannelCapacityWorker_SamplesFillLevel(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	// Given a channel filled to 3 of 8
	watched := make(chan string, 8)
	watched <- "a"
	watched <- "b"
	watched <- "c"

	telemetry := make(chan event.Event, 16)
	worker := NewChannelCapacityWorker(log,
		[]NamedChannel{{Name: "room_events", Channel: watched}},
		telemetry, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	// Then the first sample reports the exact fill level
	select {
	case evt := <-telemetry:
		req.Equal(event.ChannelCapacityType, evt.Type)
		payload, ok := evt.Payload.(event.ChannelCapacity)
		req.True(ok)
		req.Equal("room_events", payload.ChannelName)
		req.Equal(8, payload.Capacity)
		req.Equal(3, payload.Length)
	case <-time.After(time.Second):
		req.Fail("A sample should have been published")
	}
}

func TestChannelCapacityWorker_SkipsNonChannels(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	telemetry := make(chan event.Event, 16)
	worker := NewChannelCapacityWorker(log,
		[]NamedChannel{{Name: "oops", Channel: "not a channel"}},
		telemetry, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	// Then nothing is ever published for a non channel entry
	select {
	case evt := <-telemetry:
		req.Failf("Unexpected sample", "got %v", evt)
	case <-time.After(100 * time.Millisecond):
	}
}
