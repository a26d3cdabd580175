package workers

import (
	"context"
	"fmt"
	"time"

	"huddle/observability"
)

// ReporterWorker repaints one console line with the live traffic
// numbers. It exists for operators tailing a dev server, production
// reads the same snapshot through the debug endpoint instead.
type ReporterWorker struct {
	monitoring *observability.Monitoring
	interval   time.Duration
}

func NewReporterWorker(monitoring *observability.Monitoring, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{monitoring: monitoring, interval: interval}
}

// Run starts the reporting loop to display real-time metrics until context cancellation
func (w *ReporterWorker) Run(ctx context.Context) error {
	startTime := time.Now()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.printStats(startTime)
			fmt.Println("\n🏁 Reporter stopped.")
			return nil
		case <-ticker.C:
			w.printStats(startTime)
		}
	}
}

// printStats formats and prints the latest metrics snapshot to the console
func (w *ReporterWorker) printStats(startTime time.Time) {
	stats := w.monitoring.GetLatest()
	duration := time.Since(startTime).Round(time.Second).String()

	fmt.Printf("\r📊 [%s] RAM: %dMB | Msg/s: %.1f | Delivered: %d | Dropped: %d | Conns: %d | Rooms: %d",
		duration,
		stats.AllocMemMb,
		stats.MessagesPerSecond,
		stats.DeliveredFrames,
		stats.DroppedFrames,
		stats.ConnectionsOpen,
		stats.RoomsOpen,
	)
}
