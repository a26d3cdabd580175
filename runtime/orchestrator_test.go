package runtime_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"huddle/domain"
	"huddle/domain/event"
	"huddle/observability"
	"huddle/recording"
	"huddle/repositories"
	"huddle/runtime"
	"huddle/runtime/workers"
)

// probeSink records everything the bus delivers to it.
type probeSink struct {
	received chan event.DomainEvent
}

func (p *probeSink) Consume(_ context.Context, e event.DomainEvent) error {
	p.received <- e
	return nil
}

func newTestOrchestrator(t *testing.T) (*runtime.Orchestrator, context.Context) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	opts := badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	recorder := recording.NewManager(repositories.NewRecordingRepository(db, log), recording.NewKeyring(), log)
	monitoring := observability.NewMonitoring(log)
	telemetry := make(chan event.Event, 64)
	supervisor := workers.NewSupervisor(log, telemetry)

	o := runtime.NewOrchestrator(log, supervisor, monitoring, nil, recorder, telemetry,
		8,                   // roomCapacity
		16,                  // mailboxSize
		64,                  // bufferSize
		time.Second,         // sinkTimeout
		'*',                 // charReplacement
		2000,                // maxMessageLength
		10,                  // searchBatch
		50*time.Millisecond, // searchBufferTimeout
		20*time.Millisecond, // metricInterval
		false,
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	t.Cleanup(o.Stop)

	return o, ctx
}

func Test_Orchestrator_Start_Builds_The_Moderation_Filter(t *testing.T) {
	req := require.New(t)
	o, ctx := newTestOrchestrator(t)

	req.NoError(o.Start(ctx))

	// Then the embedded dictionaries are live
	res := o.Filter().Check("grab this casino bonus today")
	req.False(res.IsValid)
	req.NotContains(res.FilteredContent, "casino bonus")
}

func Test_Orchestrator_Fans_Room_Events_Out_To_Subscribers(t *testing.T) {
	req := require.New(t)
	o, ctx := newTestOrchestrator(t)

	probe := &probeSink{received: make(chan event.DomainEvent, 8)}
	o.Bus().SubscribeAll("probe", probe)

	req.NoError(o.Start(ctx))

	// When a connection joins a room
	conn := runtime.NewConnection(domain.Principal{UserID: "u-1", Name: "Alice"}, "lobby", domain.KindBoth, 8)
	o.Registry().Register(conn)
	_, err := o.Rooms().Join(ctx, conn)
	req.NoError(err)

	// Then the join travels room -> event channel -> fanout -> bus -> sink
	select {
	case evt := <-probe.received:
		joined, ok := evt.(event.UserJoined)
		req.True(ok)
		req.Equal(domain.RoomID("lobby"), joined.Room)
		req.Equal("u-1", joined.UserID)
	case <-time.After(2 * time.Second):
		req.Fail("The join event never reached the probe sink")
	}
}

func Test_Orchestrator_Telemetry_Feeds_The_Frame_Counters(t *testing.T) {
	req := require.New(t)
	o, ctx := newTestOrchestrator(t)

	req.NoError(o.Start(ctx))

	o.Telemetry() <- event.Event{
		Type:      event.FrameDispatchedType,
		CreatedAt: time.Now(),
		Payload:   event.FrameDispatched{FrameType: "ping"},
	}

	req.Eventually(func() bool {
		return o.FrameHits()["ping"] == 1
	}, 2*time.Second, 10*time.Millisecond)
}
