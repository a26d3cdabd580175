package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"huddle/domain"
	"huddle/domain/event"
	"huddle/errors"
	"huddle/protocol"
)

func newTestRooms(capacity int) (*Rooms, chan event.DomainEvent) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	events := make(chan event.DomainEvent, 64)
	return NewRooms(log, capacity, 16, events, nil, nil), events
}

func newTestConn(name string, room domain.RoomID) *Connection {
	return NewConnection(domain.Principal{UserID: "user-" + name, Name: name}, room, domain.KindBoth, 8)
}

// drainOutbound collects everything currently sitting in the queue.
func drainOutbound(conn *Connection) []protocol.Envelope {
	var out []protocol.Envelope
	for {
		select {
		case env, ok := <-conn.Outbound():
			if !ok {
				return out
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func Test_Join_Announces_To_Existing_Members_Only(t *testing.T) {
	req := require.New(t)
	rooms, _ := newTestRooms(10)
	ctx := context.Background()

	// Given Alice alone in the room
	alice := newTestConn("Alice", "room-1")
	snapshot, err := rooms.Join(ctx, alice)
	req.NoError(err)
	req.Len(snapshot, 1)

	// When Bob joins
	bob := newTestConn("Bob", "room-1")
	snapshot, err = rooms.Join(ctx, bob)
	req.NoError(err)

	// Then Bob's snapshot contains both participants
	req.Len(snapshot, 2)

	// And Alice heard exactly one user_joined naming Bob
	frames := drainOutbound(alice)
	req.Len(frames, 1)
	req.Equal(protocol.TypeUserJoined, frames[0].Type)
	data, ok := frames[0].Data.(protocol.MembershipData)
	req.True(ok)
	req.Equal("user-Bob", data.User.UserID)
	req.Equal(2, data.Participants)

	// And Bob heard nothing about his own join
	req.Empty(drainOutbound(bob))
}

func Test_Join_Full_Room_Is_Rejected(t *testing.T) {
	req := require.New(t)
	rooms, _ := newTestRooms(1)
	ctx := context.Background()

	// Given a room at capacity
	_, err := rooms.Join(ctx, newTestConn("Alice", "small"))
	req.NoError(err)

	// When one more tries to get in
	_, err = rooms.Join(ctx, newTestConn("Bob", "small"))

	// Then the join is refused and no connection was admitted
	req.ErrorIs(err, errors.ErrRoomFull)
	req.Len(rooms.Lookup(ctx, "small"), 1)
}

func Test_Last_Leave_Destroys_Room(t *testing.T) {
	req := require.New(t)
	rooms, _ := newTestRooms(10)
	ctx := context.Background()

	conn := newTestConn("Alice", "ephemeral")
	_, err := rooms.Join(ctx, conn)
	req.NoError(err)
	req.Equal(1, rooms.Count())

	// When the last member leaves
	req.True(rooms.Leave(ctx, conn))

	// Then the room state is fully gone
	req.Eventually(func() bool {
		return rooms.Count() == 0
	}, time.Second, 10*time.Millisecond, "room should retire once empty")
	req.Nil(rooms.Lookup(ctx, "ephemeral"))
}

func Test_Rejoin_After_Room_Retirement(t *testing.T) {
	req := require.New(t)
	rooms, _ := newTestRooms(10)
	ctx := context.Background()

	first := newTestConn("Alice", "revolving")
	_, err := rooms.Join(ctx, first)
	req.NoError(err)
	req.True(rooms.Leave(ctx, first))

	// A fresh join right after retirement lands in a brand new actor
	second := newTestConn("Alice", "revolving")
	snapshot, err := rooms.Join(ctx, second)
	req.NoError(err)
	req.Len(snapshot, 1)
	req.Equal(1, rooms.Count())
}

func Test_Broadcast_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	rooms, _ := newTestRooms(10)
	ctx := context.Background()

	alice := newTestConn("Alice", "room-b")
	bob := newTestConn("Bob", "room-b")
	carol := newTestConn("Carol", "room-b")
	for _, conn := range []*Connection{alice, bob, carol} {
		_, err := rooms.Join(ctx, conn)
		req.NoError(err)
	}
	// Clear the join announcements before measuring
	drainOutbound(alice)
	drainOutbound(bob)
	drainOutbound(carol)

	// When Alice broadcasts
	env := protocol.NewTyping("room-b", "user-Alice", "Alice", true, []string{"user-Alice"})
	delivered := rooms.Broadcast(ctx, "room-b", env, alice.ID)

	// Then everyone but Alice got it
	req.Equal(2, delivered)
	req.Empty(drainOutbound(alice))
	req.Len(drainOutbound(bob), 1)
	req.Len(drainOutbound(carol), 1)
}

func Test_Broadcast_Prunes_Dead_Connection_And_Continues(t *testing.T) {
	req := require.New(t)
	rooms, _ := newTestRooms(10)
	ctx := context.Background()

	alice := newTestConn("Alice", "room-p")
	bob := newTestConn("Bob", "room-p")
	carol := newTestConn("Carol", "room-p")
	for _, conn := range []*Connection{alice, bob, carol} {
		_, err := rooms.Join(ctx, conn)
		req.NoError(err)
	}
	drainOutbound(alice)
	drainOutbound(bob)
	drainOutbound(carol)

	// Given Bob's socket died without a proper leave
	bob.Close()

	// When someone broadcasts
	env := protocol.NewTyping("room-p", "user-Alice", "Alice", true, []string{"user-Alice"})
	delivered := rooms.Broadcast(ctx, "room-p", env, "")

	// Then the survivors were served and Bob was pruned
	req.Equal(2, delivered)
	req.Len(rooms.Lookup(ctx, "room-p"), 2)

	// And the survivors heard that Bob left
	var sawLeft bool
	for _, frame := range drainOutbound(alice) {
		if frame.Type == protocol.TypeUserLeft {
			data, ok := frame.Data.(protocol.MembershipData)
			req.True(ok)
			req.Equal("user-Bob", data.User.UserID)
			sawLeft = true
		}
	}
	req.True(sawLeft, "Alice should have received a user_left for Bob")
}

func Test_Join_Emits_Domain_Event(t *testing.T) {
	req := require.New(t)
	rooms, events := newTestRooms(10)
	ctx := context.Background()

	_, err := rooms.Join(ctx, newTestConn("Alice", "room-e"))
	req.NoError(err)

	select {
	case e := <-events:
		joined, ok := e.(event.UserJoined)
		req.True(ok)
		req.Equal(domain.RoomID("room-e"), joined.RoomID())
		req.Equal("user-Alice", joined.UserID)
		req.Equal(1, joined.Participants)
	case <-time.After(time.Second):
		req.Fail("Timeout: no UserJoined event emitted")
	}
}

func Test_Recording_Flag_Toggles_Once(t *testing.T) {
	req := require.New(t)
	rooms, _ := newTestRooms(10)
	ctx := context.Background()

	conn := newTestConn("Alice", "room-r")
	_, err := rooms.Join(ctx, conn)
	req.NoError(err)
	by := conn.Principal

	// Starting twice must fail the second time
	req.NoError(rooms.SetRecording(ctx, "room-r", true, by))
	req.ErrorIs(rooms.SetRecording(ctx, "room-r", true, by), errors.ErrRecordingActive)

	stats, ok := rooms.Stats(ctx, "room-r")
	req.True(ok)
	req.True(stats.Recording)

	// Stopping twice must fail the second time
	req.NoError(rooms.SetRecording(ctx, "room-r", false, by))
	req.ErrorIs(rooms.SetRecording(ctx, "room-r", false, by), errors.ErrNoActiveRecording)
}

func Test_Typing_Set_Follows_Users(t *testing.T) {
	req := require.New(t)
	rooms, _ := newTestRooms(10)
	ctx := context.Background()

	alice := newTestConn("Alice", "room-t")
	bob := newTestConn("Bob", "room-t")
	for _, conn := range []*Connection{alice, bob} {
		_, err := rooms.Join(ctx, conn)
		req.NoError(err)
	}

	// When both start typing
	typing, err := rooms.SetTyping(ctx, "room-t", "user-Alice", true)
	req.NoError(err)
	req.ElementsMatch([]string{"user-Alice"}, typing)

	typing, err = rooms.SetTyping(ctx, "room-t", "user-Bob", true)
	req.NoError(err)
	req.ElementsMatch([]string{"user-Alice", "user-Bob"}, typing)

	stats, ok := rooms.Stats(ctx, "room-t")
	req.True(ok)
	req.Equal(2, stats.Typing)

	// Then a leave clears the leaver from the typing set
	req.True(rooms.Leave(ctx, bob))
	typing, err = rooms.SetTyping(ctx, "room-t", "user-Alice", true)
	req.NoError(err)
	req.ElementsMatch([]string{"user-Alice"}, typing)

	// And stopping empties it
	typing, err = rooms.SetTyping(ctx, "room-t", "user-Alice", false)
	req.NoError(err)
	req.Empty(typing)
}

// Chaque room doit rester cohérente même sous une rafale de joins et
// de leaves concurrents.
func Test_Concurrent_Join_Leave_Keeps_State_Consistent(t *testing.T) {
	req := require.New(t)
	rooms, _ := newTestRooms(100)
	registry := NewRegistry()
	ctx := context.Background()

	const total = 100
	const roomCount = 5

	conns := make([]*Connection, total)
	joinErrs := make(chan error, total)
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room := domain.RoomID(fmt.Sprintf("room-%d", i%roomCount))
			conn := newTestConn(fmt.Sprintf("u%03d", i), room)
			conns[i] = conn
			registry.Register(conn)
			if _, err := rooms.Join(ctx, conn); err != nil {
				joinErrs <- err
			}
		}(i)
	}
	wg.Wait()
	close(joinErrs)
	for err := range joinErrs {
		req.NoError(err)
	}

	// When half of them leave concurrently
	leaveFailures := make(chan string, total)
	for i := 0; i < total; i += 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if !rooms.Leave(ctx, conns[i]) {
				leaveFailures <- conns[i].ID
			}
			registry.Remove(conns[i])
			conns[i].Close()
		}(i)
	}
	wg.Wait()
	close(leaveFailures)
	for id := range leaveFailures {
		req.Fail("leave refused for live member", "connection_id=%s", id)
	}

	// Then the sum of room members equals the live connections
	sum := 0
	for _, id := range rooms.RoomIDs() {
		sum += len(rooms.Lookup(ctx, id))
	}
	req.Equal(total/2, registry.Count())
	req.Equal(registry.Count(), sum)
}
