package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	_ "github.com/shirou/gopsutil"
	"github.com/shirou/gopsutil/process"

	"huddle/domain/event"
)

// HeartbeatWorker samples the server's own process on a fixed interval
// and publishes the result as a telemetry event. The routing layer runs
// as a single process, so there is no PID registry to consult, the
// worker watches os.Getpid and nothing else.
type HeartbeatWorker struct {
	log            *slog.Logger
	telemetryChan  chan<- event.Event
	metricInterval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, telemetryChan chan<- event.Event,
	metricInterval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{
		log:            log,
		telemetryChan:  telemetryChan,
		metricInterval: metricInterval,
	}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	pid := int32(os.Getpid())
	proc, err := process.NewProcess(pid)
	if err != nil {
		// Without a process handle there is nothing to sample.
		// Returning the error lets the supervisor retry us.
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping heartbeat")
			return nil
		case <-ticker.C:
			stats, err := w.collect(pid, proc)
			if err != nil {
				w.log.Error("Error while sampling own process", "pid", pid, "err", err)
				continue
			}
			select {
			case w.telemetryChan <- toProcessStatsEvent(stats):
			default:
				w.log.Debug("Observability telemetry event lost", "type", event.ProcessStatsType)
			}
		}
	}
}

func (w *HeartbeatWorker) collect(pid int32, proc *process.Process) (event.ProcessStats, error) {
	status, err := proc.Status()
	if err != nil {
		return event.ProcessStats{}, err
	}
	cpu, err := proc.CPUPercent()
	if err != nil {
		return event.ProcessStats{}, err
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return event.ProcessStats{}, err
	}

	return event.ProcessStats{
		PID:        pid,
		Status:     status,
		Cpu:        cpu,
		RamMB:      float32(mem.RSS) / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
	}, nil
}

func toProcessStatsEvent(stats event.ProcessStats) event.Event {
	return event.Event{
		Type:      event.ProcessStatsType,
		CreatedAt: time.Now().UTC(),
		Payload:   stats,
	}
}
