// Package runtime is the routing core: connection registry, room
// actors, broadcast fan-out, event bus and the supervised background
// workers. It carries no business rules, only state, composition and
// lifecycle.
package runtime

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"huddle/contract"
	"huddle/domain/event"
	"huddle/moderation"
	"huddle/observability"
	"huddle/projection"
	"huddle/recording"
	"huddle/runtime/workers"
	"huddle/search"
	"huddle/signaling"
	"huddle/sink"
)

//go:embed banned/*
var bannedFolder embed.FS

const (
	// capacityHeadroomWarn is the remaining-slot count below which the
	// capacity handler starts warning about a hot channel.
	capacityHeadroomWarn  = 8
	moderationLatencyWarn = 50 * time.Millisecond
	reporterRepaint       = time.Second
)

// Orchestrator owns the internal channels and assembles registry,
// rooms, bus, broadcaster, relay, sinks and workers into one running
// unit. Services and the websocket front end are built on top of its
// accessors by the composition in cmd.
type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	supervisor contract.ISupervisor
	monitoring *observability.Monitoring

	registry    *Registry
	rooms       *Rooms
	bus         *Bus
	broadcaster *Broadcaster
	relay       *signaling.Relay
	timeline    *projection.Timeline

	index        search.IMessageIndex
	recorder     *recording.Manager
	filter       *moderation.Filter
	frameTraffic *event.FrameTrafficHandler

	events    chan event.DomainEvent
	telemetry chan event.Event

	charReplacement     rune
	maxMessageLength    int
	searchBatch         int
	searchBufferTimeout time.Duration
	metricInterval      time.Duration
	debug               bool
}

// NewOrchestrator wires the routing core. The telemetry channel is owned by
// the caller so the supervisor can report restarts on the same channel the
// telemetry worker drains.
func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	monitoring *observability.Monitoring, index search.IMessageIndex,
	recorder *recording.Manager, telemetry chan event.Event,
	roomCapacity, mailboxSize, bufferSize int,
	sinkTimeout time.Duration, charReplacement rune, maxMessageLength int,
	searchBatch int, searchBufferTimeout time.Duration,
	metricInterval time.Duration, debug bool) *Orchestrator {

	events := make(chan event.DomainEvent, bufferSize)

	registry := NewRegistry()
	rooms := NewRooms(log, roomCapacity, mailboxSize, events, telemetry, monitoring)
	broadcaster := NewBroadcaster(registry, rooms, log, telemetry, monitoring)
	bus := NewBus(log, sinkTimeout, monitoring)

	monitoring.SetGauges(registry.Count, rooms.Count)

	return &Orchestrator{
		log:                 log,
		supervisor:          supervisor,
		monitoring:          monitoring,
		registry:            registry,
		rooms:               rooms,
		bus:                 bus,
		broadcaster:         broadcaster,
		relay:               signaling.NewRelay(broadcaster, log, monitoring),
		timeline:            projection.NewTimeline(),
		index:               index,
		recorder:            recorder,
		frameTraffic:        event.NewFrameTrafficHandler(log, event.NewCounter()),
		events:              events,
		telemetry:           telemetry,
		charReplacement:     charReplacement,
		maxMessageLength:    maxMessageLength,
		searchBatch:         searchBatch,
		searchBufferTimeout: searchBufferTimeout,
		metricInterval:      metricInterval,
		debug:               debug,
	}
}

// Start prepares all components (moderation, sinks, workers) and hands
// the workers to the supervisor. It uses a preparation pattern to keep
// the mutex hold time minimal.
func (o *Orchestrator) Start(ctx context.Context) error {
	// 1. Preparation phase (No Lock)
	// Heavy tasks like I/O (loading dictionaries) and CPU (Aho-Corasick build) are done here.
	filter, err := o.prepareModeration("banned")
	if err != nil {
		return err
	}

	workerFleet := o.prepareWorkers()
	sinks := o.prepareSinks()

	// 2. Critical Section (Short Lock)
	// We only lock to update the internal state and the supervisor.
	o.mu.Lock()
	o.filter = filter
	for _, s := range sinks {
		o.bus.SubscribeAll(s.name, s.sink)
	}
	o.supervisor.Add(workerFleet...)
	o.mu.Unlock()

	// 3. Execution phase (No Lock)
	o.log.Info("Starting orchestrator and all supervised workers")
	go o.monitoring.Listen(ctx)
	go o.supervisor.Run(ctx)
	return nil
}

// prepareModeration loads the banned word dictionaries and builds the filter.
func (o *Orchestrator) prepareModeration(path string) (*moderation.Filter, error) {
	loader := NewWordlistLoader(bannedFolder)
	data, err := loader.LoadAll(path)
	if err != nil {
		return nil, err
	}

	o.log.Info(fmt.Sprintf("%d banned word files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	o.log.Info(fmt.Sprintf("%d unique banned words loaded", len(data.Words)))

	moderator, err := moderation.NewModerator(data.Words, o.charReplacement, o.log)
	if err != nil {
		return nil, err
	}

	return moderation.NewFilter(moderator, o.maxMessageLength, o.log), nil
}

// prepareWorkers assembles the supervised background fleet.
func (o *Orchestrator) prepareWorkers() []contract.Worker {
	handlers := []event.Handler{
		o.frameTraffic,
		event.NewQueueOverflowHandler(o.log, event.NewCounter()),
		event.NewWorkerRestartedAfterPanicHandler(o.log, event.NewCounter()),
		event.NewChannelCapacityHandler(o.log, capacityHeadroomWarn),
		event.NewLatencyHandler(o.log, moderationLatencyWarn),
		event.NewProcessStatsHandler(o.log),
	}

	watched := []workers.NamedChannel{
		{Name: "room_events", Channel: o.events},
		{Name: "telemetry", Channel: o.telemetry},
	}

	fleet := []contract.Worker{
		workers.NewEventFanout(o.log, o.events, o.bus),
		workers.NewTelemetryWorker(o.log, o.telemetry, handlers),
		workers.NewChannelCapacityWorker(o.log, watched, o.telemetry, o.metricInterval),
	}

	// The process sampler and the console repaint only matter to an
	// operator watching a dev server.
	if o.debug {
		fleet = append(fleet,
			workers.NewHeartbeatWorker(o.log, o.telemetry, o.metricInterval),
			workers.NewReporterWorker(o.monitoring, reporterRepaint),
		)
	}

	return fleet
}

// prepareSinks builds the permanent bus subscribers.
func (o *Orchestrator) prepareSinks() []namedSink {
	sinks := []namedSink{
		{name: "ws", sink: sink.NewWsSink(o.broadcaster, o.log)},
		{name: "timeline", sink: o.timeline},
		{name: "recording", sink: sink.NewRecordingSink(o.recorder, o.log)},
	}

	if o.index != nil {
		sinks = append(sinks, namedSink{
			name: "search",
			sink: sink.NewSearchSink(o.index, o.log, o.searchBatch, o.searchBufferTimeout),
		})
	}

	return sinks
}

// Stop cancels the supervision context. Workers drain and exit, open
// websocket sessions are torn down by their own context.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}

func (o *Orchestrator) Registry() *Registry { return o.registry }

func (o *Orchestrator) Rooms() *Rooms { return o.rooms }

func (o *Orchestrator) Bus() *Bus { return o.bus }

func (o *Orchestrator) Broadcaster() *Broadcaster { return o.broadcaster }

func (o *Orchestrator) Relay() *signaling.Relay { return o.relay }

func (o *Orchestrator) Timeline() *projection.Timeline { return o.timeline }

// Telemetry exposes the technical event channel for producers built on
// top of the core, like the frame dispatcher.
func (o *Orchestrator) Telemetry() chan event.Event { return o.telemetry }

// Filter returns the moderation filter built during Start.
func (o *Orchestrator) Filter() *moderation.Filter {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.filter
}

// FrameHits returns the per frame type dispatch counts for the ops surface.
func (o *Orchestrator) FrameHits() map[string]uint64 {
	return o.frameTraffic.Hits()
}
