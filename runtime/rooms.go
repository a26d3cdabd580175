package runtime

import (
	"context"
	goerrors "errors"
	"log/slog"
	"sync"
	"time"

	"huddle/domain"
	"huddle/domain/event"
	"huddle/errors"
	"huddle/observability"
	"huddle/protocol"
)

type requestKind int

const (
	reqJoin requestKind = iota
	reqLeave
	reqBroadcast
	reqSnapshot
	reqStats
	reqSetRecording
	reqSetTyping
)

type roomRequest struct {
	kind      requestKind
	conn      *Connection
	env       protocol.Envelope
	exclude   string
	recording bool
	typing    bool
	userID    string
	by        domain.Principal
	reply     chan roomReply
}

type roomReply struct {
	snapshot  []domain.Participant
	stats     domain.RoomStats
	typing    []string
	delivered int
	err       error
}

// roomActor owns all mutable state of one room. Every mutation and
// every fan-out runs on its single goroutine, which is what makes
// delivery sequential per room without any locks.
type roomActor struct {
	id        domain.RoomID
	capacity  int
	createdAt time.Time
	recording bool
	members   map[string]*Connection
	typing    map[string]struct{}

	requests chan roomRequest
	retired  chan struct{}

	log        *slog.Logger
	events     chan<- event.DomainEvent
	telemetry  chan<- event.Event
	monitoring *observability.Monitoring
}

// Rooms creates, tracks and retires room actors. A room exists only
// while it has members: the instant the last one leaves, its actor
// removes itself from the map, closes retired and drains its mailbox.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomActor

	capacity    int
	mailboxSize int
	log         *slog.Logger
	events      chan<- event.DomainEvent
	telemetry   chan<- event.Event
	monitoring  *observability.Monitoring
}

func NewRooms(log *slog.Logger, capacity, mailboxSize int,
	events chan<- event.DomainEvent, telemetry chan<- event.Event,
	monitoring *observability.Monitoring) *Rooms {
	if capacity <= 0 {
		capacity = 50
	}
	if mailboxSize <= 0 {
		mailboxSize = 64
	}
	return &Rooms{
		rooms:       make(map[domain.RoomID]*roomActor),
		capacity:    capacity,
		mailboxSize: mailboxSize,
		log:         log,
		events:      events,
		telemetry:   telemetry,
		monitoring:  monitoring,
	}
}

// Join admits the connection into its room, creating the actor on
// first use. When the target actor retires mid-flight the call simply
// retries against a fresh one.
func (rm *Rooms) Join(ctx context.Context, conn *Connection) ([]domain.Participant, error) {
	for {
		actor := rm.getOrCreate(conn.Room)
		reply, err := actor.ask(ctx, roomRequest{kind: reqJoin, conn: conn})
		if goerrors.Is(err, errors.ErrRoomClosed) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return reply.snapshot, reply.err
	}
}

// Leave removes the connection from its room. Reports false when the
// room no longer knows the connection, which is normal on double
// cleanup paths.
func (rm *Rooms) Leave(ctx context.Context, conn *Connection) bool {
	actor, ok := rm.lookup(conn.Room)
	if !ok {
		return false
	}
	reply, err := actor.ask(ctx, roomRequest{kind: reqLeave, conn: conn})
	if err != nil {
		return false
	}
	return reply.err == nil
}

// Broadcast hands the envelope to the room actor which enqueues it on
// every member except the excluded connection id. Returns how many
// queues accepted it.
func (rm *Rooms) Broadcast(ctx context.Context, room domain.RoomID, env protocol.Envelope, excludeConnID string) int {
	actor, ok := rm.lookup(room)
	if !ok {
		return 0
	}
	reply, err := actor.ask(ctx, roomRequest{kind: reqBroadcast, env: env, exclude: excludeConnID})
	if err != nil {
		return 0
	}
	return reply.delivered
}

// Lookup returns the current participant snapshot, nil for a room
// that does not exist.
func (rm *Rooms) Lookup(ctx context.Context, room domain.RoomID) []domain.Participant {
	actor, ok := rm.lookup(room)
	if !ok {
		return nil
	}
	reply, err := actor.ask(ctx, roomRequest{kind: reqSnapshot})
	if err != nil {
		return nil
	}
	return reply.snapshot
}

func (rm *Rooms) Stats(ctx context.Context, room domain.RoomID) (domain.RoomStats, bool) {
	actor, ok := rm.lookup(room)
	if !ok {
		return domain.RoomStats{}, false
	}
	reply, err := actor.ask(ctx, roomRequest{kind: reqStats})
	if err != nil {
		return domain.RoomStats{}, false
	}
	return reply.stats, true
}

// SetRecording flips the room recording flag. Starting twice yields
// ErrRecordingActive, stopping without a start ErrNoActiveRecording.
func (rm *Rooms) SetRecording(ctx context.Context, room domain.RoomID, on bool, by domain.Principal) error {
	actor, ok := rm.lookup(room)
	if !ok {
		return errors.ErrRoomClosed
	}
	reply, err := actor.ask(ctx, roomRequest{kind: reqSetRecording, recording: on, by: by})
	if err != nil {
		return err
	}
	return reply.err
}

// SetTyping toggles a user in the room typing set and returns the ids
// still typing afterwards. The set follows users, not connections, so
// two tabs of the same user count once.
func (rm *Rooms) SetTyping(ctx context.Context, room domain.RoomID, userID string, isTyping bool) ([]string, error) {
	actor, ok := rm.lookup(room)
	if !ok {
		return nil, errors.ErrRoomClosed
	}
	reply, err := actor.ask(ctx, roomRequest{kind: reqSetTyping, userID: userID, typing: isTyping})
	if err != nil {
		return nil, err
	}
	return reply.typing, nil
}

// Count reports how many rooms are currently alive.
func (rm *Rooms) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

func (rm *Rooms) RoomIDs() []domain.RoomID {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	out := make([]domain.RoomID, 0, len(rm.rooms))
	for id := range rm.rooms {
		out = append(out, id)
	}
	return out
}

func (rm *Rooms) lookup(room domain.RoomID) (*roomActor, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	actor, ok := rm.rooms[room]
	return actor, ok
}

func (rm *Rooms) getOrCreate(room domain.RoomID) *roomActor {
	rm.mu.RLock()
	actor, ok := rm.rooms[room]
	rm.mu.RUnlock()
	if ok {
		return actor
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if actor, ok := rm.rooms[room]; ok {
		return actor
	}

	actor = &roomActor{
		id:         room,
		capacity:   rm.capacity,
		createdAt:  time.Now().UTC(),
		members:    make(map[string]*Connection),
		typing:     make(map[string]struct{}),
		requests:   make(chan roomRequest, rm.mailboxSize),
		retired:    make(chan struct{}),
		log:        rm.log,
		events:     rm.events,
		telemetry:  rm.telemetry,
		monitoring: rm.monitoring,
	}
	rm.rooms[room] = actor
	go actor.run(rm)
	rm.log.Debug("room actor started", "room_id", room)
	return actor
}

// remove deletes the mapping only when it still points at this actor.
// A fresh actor may already occupy the slot by the time a retiring
// one cleans up after itself.
func (rm *Rooms) remove(actor *roomActor) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if current, ok := rm.rooms[actor.id]; ok && current == actor {
		delete(rm.rooms, actor.id)
	}
}

// ask performs one synchronous round trip with the actor. The reply
// channel is buffered so the actor never blocks answering even when
// the caller gave up on its context. A mailbox drained during
// retirement surfaces as ErrRoomClosed, same as a refused send.
func (a *roomActor) ask(ctx context.Context, req roomRequest) (roomReply, error) {
	req.reply = make(chan roomReply, 1)

	select {
	case a.requests <- req:
	case <-a.retired:
		return roomReply{}, errors.ErrRoomClosed
	case <-ctx.Done():
		return roomReply{}, ctx.Err()
	}

	reply, err := a.awaitReply(ctx, req.reply)
	if err != nil {
		return roomReply{}, err
	}
	if goerrors.Is(reply.err, errors.ErrRoomClosed) {
		return roomReply{}, errors.ErrRoomClosed
	}
	return reply, nil
}

func (a *roomActor) awaitReply(ctx context.Context, replyChan chan roomReply) (roomReply, error) {
	select {
	case reply := <-replyChan:
		return reply, nil
	case <-a.retired:
		// The actor may have answered just before retiring.
		select {
		case reply := <-replyChan:
			return reply, nil
		default:
			return roomReply{}, errors.ErrRoomClosed
		}
	case <-ctx.Done():
		return roomReply{}, ctx.Err()
	}
}

func (a *roomActor) run(rm *Rooms) {
	for req := range a.requests {
		if retire := a.process(req); retire {
			rm.remove(a)
			close(a.retired)
			a.drainMailbox()
			a.log.Debug("room actor retired", "room_id", a.id)
			return
		}
	}
}

func (a *roomActor) process(req roomRequest) bool {
	switch req.kind {
	case reqJoin:
		req.reply <- a.handleJoin(req.conn)
		return false
	case reqLeave:
		return a.handleLeave(req)
	case reqBroadcast:
		delivered, pruned := a.fanOut(req.env, req.exclude)
		req.reply <- roomReply{delivered: delivered}
		return a.evict(pruned)
	case reqSnapshot:
		req.reply <- roomReply{snapshot: a.snapshot()}
		return false
	case reqStats:
		req.reply <- roomReply{stats: a.stats()}
		return false
	case reqSetRecording:
		req.reply <- roomReply{err: a.handleRecording(req.recording)}
		return false
	case reqSetTyping:
		req.reply <- roomReply{typing: a.handleTyping(req.userID, req.typing)}
		return false
	default:
		req.reply <- roomReply{err: errors.ErrUnknownFrameType}
		return false
	}
}

func (a *roomActor) handleJoin(conn *Connection) roomReply {
	if len(a.members) >= a.capacity {
		return roomReply{err: errors.ErrRoomFull}
	}

	a.members[conn.ID] = conn
	snapshot := a.snapshot()

	// The joiner gets its reply first, the rest hear about it after
	announce := protocol.NewUserJoined(a.id, conn.Principal, len(a.members))
	_, pruned := a.fanOut(announce, conn.ID)
	a.emit(event.UserJoined{
		Room:         a.id,
		ConnectionID: conn.ID,
		UserID:       conn.Principal.UserID,
		UserName:     conn.Principal.Name,
		Participants: len(a.members),
		At:           time.Now().UTC(),
	})

	if len(pruned) > 0 {
		// Dead members discovered during the announce are dropped,
		// but the join itself already succeeded.
		a.evictMembers(pruned)
	}
	return roomReply{snapshot: snapshot}
}

func (a *roomActor) handleLeave(req roomRequest) bool {
	conn, ok := a.members[req.conn.ID]
	if !ok {
		req.reply <- roomReply{err: errors.ErrConnectionClosed}
		return false
	}

	delete(a.members, req.conn.ID)
	req.reply <- roomReply{}

	a.announceLeft(conn)
	return len(a.members) == 0
}

// evict removes connections whose queues rejected delivery, telling
// the survivors, then reports whether the room emptied out.
func (a *roomActor) evict(pruned []*Connection) bool {
	if len(pruned) == 0 {
		return false
	}
	a.evictMembers(pruned)
	return len(a.members) == 0
}

func (a *roomActor) evictMembers(pruned []*Connection) {
	for _, conn := range pruned {
		if _, ok := a.members[conn.ID]; !ok {
			continue
		}
		delete(a.members, conn.ID)
		a.log.Debug("pruned dead connection", "room_id", a.id, "connection_id", conn.ID)
		if a.monitoring != nil {
			a.monitoring.IncrPruned()
		}
		a.announceLeft(conn)
	}
}

func (a *roomActor) announceLeft(conn *Connection) {
	a.clearTyping(conn)
	announce := protocol.NewUserLeft(a.id, conn.Principal, len(a.members))
	a.fanOut(announce, "")
	a.emit(event.UserLeft{
		Room:         a.id,
		ConnectionID: conn.ID,
		UserID:       conn.Principal.UserID,
		UserName:     conn.Principal.Name,
		Participants: len(a.members),
		At:           time.Now().UTC(),
	})
}

// fanOut enqueues the envelope on every member but the excluded id.
// A failed enqueue marks the member for pruning and the loop carries
// on: one dead socket never blocks the rest of the room.
func (a *roomActor) fanOut(env protocol.Envelope, excludeConnID string) (int, []*Connection) {
	delivered := 0
	var pruned []*Connection

	for _, member := range a.members {
		if excludeConnID != "" && member.ID == excludeConnID {
			continue
		}
		evicted, err := member.Enqueue(env)
		if err != nil {
			pruned = append(pruned, member)
			continue
		}
		if evicted {
			a.reportOverflow(member)
			if a.monitoring != nil {
				a.monitoring.IncrDropped()
			}
		}
		delivered++
	}
	if a.monitoring != nil {
		a.monitoring.AddDelivered(uint64(delivered))
	}
	return delivered, pruned
}

func (a *roomActor) snapshot() []domain.Participant {
	out := make([]domain.Participant, 0, len(a.members))
	for _, member := range a.members {
		out = append(out, member.Participant())
	}
	return out
}

func (a *roomActor) stats() domain.RoomStats {
	return domain.RoomStats{
		ID:           a.id,
		Participants: len(a.members),
		Capacity:     a.capacity,
		Typing:       len(a.typing),
		Recording:    a.recording,
		CreatedAt:    a.createdAt,
		Uptime:       time.Since(a.createdAt),
	}
}

func (a *roomActor) handleTyping(userID string, isTyping bool) []string {
	if isTyping {
		a.typing[userID] = struct{}{}
	} else {
		delete(a.typing, userID)
	}

	out := make([]string, 0, len(a.typing))
	for id := range a.typing {
		out = append(out, id)
	}
	return out
}

// clearTyping drops the leaving user from the typing set unless
// another connection of the same user is still in the room.
func (a *roomActor) clearTyping(conn *Connection) {
	for _, member := range a.members {
		if member.Principal.UserID == conn.Principal.UserID {
			return
		}
	}
	delete(a.typing, conn.Principal.UserID)
}

func (a *roomActor) handleRecording(on bool) error {
	if on && a.recording {
		return errors.ErrRecordingActive
	}
	if !on && !a.recording {
		return errors.ErrNoActiveRecording
	}
	a.recording = on
	return nil
}

// emit publishes a domain event without ever blocking the actor.
func (a *roomActor) emit(e event.DomainEvent) {
	select {
	case a.events <- e:
	default:
		a.log.Debug("domain event lost, bus channel full", "room_id", a.id)
	}
}

func (a *roomActor) reportOverflow(conn *Connection) {
	if a.telemetry == nil {
		return
	}
	select {
	case a.telemetry <- event.Event{
		Type:      event.QueueOverflowType,
		CreatedAt: time.Now().UTC(),
		Payload: event.QueueOverflow{
			ConnectionID: conn.ID,
			Room:         a.id,
			Dropped:      conn.Dropped(),
		},
	}:
	default:
	}
}

func (a *roomActor) drainMailbox() {
	for {
		select {
		case req := <-a.requests:
			req.reply <- roomReply{err: errors.ErrRoomClosed}
		default:
			return
		}
	}
}
