package workers

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"huddle/domain/event"
)

func TestHeartbeatWorker_ReportsOwnProcess(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	telemetry := make(chan event.Event, 16)
	worker := NewHeartbeatWorker(log, telemetry, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	select {
	case evt := <-telemetry:
		req.Equal(event.ProcessStatsType, evt.Type)
		payload, ok := evt.Payload.(event.ProcessStats)
		req.True(ok)
		req.Equal(int32(os.Getpid()), payload.PID)
		req.Greater(payload.Goroutines, 0)
		req.Greater(payload.RamMB, float32(0))
	case <-time.After(2 * time.Second):
		req.Fail("A process sample should have been published")
	}
}
