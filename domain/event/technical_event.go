package event

import (
	"time"

	"huddle/domain"
)

const (
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
	ChannelCapacityType     Type = "CHANNEL_CAPACITY"
	QueueOverflowType       Type = "OUTBOUND_QUEUE_OVERFLOW"
	ProcessStatsType        Type = "PROCESS_STATS"
	FrameDispatchedType     Type = "FRAME_DISPATCHED"
	ModerationLatencyType   Type = "MODERATION_LATENCY"
)

type WorkerRestartedAfterPanic struct {
	WorkerName string
}

type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

// QueueOverflow reports a drop-oldest eviction on one connection's
// outbound queue. Dropped is the lifetime total for that connection.
type QueueOverflow struct {
	ConnectionID string
	Room         domain.RoomID
	Dropped      uint64
}

type ProcessStats struct {
	PID        int32
	Status     string
	Cpu        float64
	RamMB      float32
	Goroutines int
}

type FrameDispatched struct {
	FrameType string
}

type ModerationLatency struct {
	Room   domain.RoomID
	Author string
	At     time.Time
}
