package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"huddle/domain"
	"huddle/errors"
	"huddle/protocol"
)

func newTestEnvelope() protocol.Envelope {
	return protocol.NewPong()
}

func Test_Enqueue_Keeps_FIFO_Order(t *testing.T) {
	req := require.New(t)
	conn := NewConnection(domain.Principal{UserID: "u-1"}, "lobby", domain.KindChat, 4)

	for _, name := range []string{"one", "two", "three"} {
		evicted, err := conn.Enqueue(protocol.NewUserAction("lobby", "u-1", name, true))
		req.NoError(err)
		req.False(evicted)
	}

	frames := drainOutbound(conn)
	req.Len(frames, 3)
	for i, name := range []string{"one", "two", "three"} {
		data, ok := frames[i].Data.(protocol.UserActionData)
		req.True(ok)
		req.Equal(name, data.Action)
	}
}

func Test_Enqueue_Evicts_Oldest_On_Overflow(t *testing.T) {
	req := require.New(t)
	conn := NewConnection(domain.Principal{UserID: "u-1"}, "lobby", domain.KindChat, 2)

	// Given a full queue
	for _, name := range []string{"one", "two"} {
		_, err := conn.Enqueue(protocol.NewUserAction("lobby", "u-1", name, true))
		req.NoError(err)
	}

	// When one more frame arrives
	evicted, err := conn.Enqueue(protocol.NewUserAction("lobby", "u-1", "three", true))
	req.NoError(err)
	req.True(evicted)
	req.Equal(uint64(1), conn.Dropped())

	// Then the oldest frame is the one that was sacrificed
	frames := drainOutbound(conn)
	req.Len(frames, 2)
	first, _ := frames[0].Data.(protocol.UserActionData)
	second, _ := frames[1].Data.(protocol.UserActionData)
	req.Equal("two", first.Action)
	req.Equal("three", second.Action)
}

func Test_Close_Is_Idempotent_And_Stops_Enqueue(t *testing.T) {
	req := require.New(t)
	conn := NewConnection(domain.Principal{UserID: "u-1"}, "lobby", domain.KindChat, 2)

	conn.Close()
	conn.Close()

	req.Equal(StateDisconnected, conn.State())
	_, err := conn.Enqueue(newTestEnvelope())
	req.ErrorIs(err, errors.ErrConnectionClosed)

	// The outbound channel is closed so the writer can drain and stop
	_, open := <-conn.Outbound()
	req.False(open)
}

func Test_ApplyAction_Updates_Presence_Flags(t *testing.T) {
	req := require.New(t)
	conn := NewConnection(domain.Principal{UserID: "u-1"}, "lobby", domain.KindBoth, 2)

	// Defaults: audio open, video on, no screen share
	presence := conn.Presence()
	req.False(presence.Muted)
	req.True(presence.VideoEnabled)
	req.False(presence.ScreenSharing)

	presence, changed := conn.ApplyAction(domain.ActionMute, true)
	req.True(changed)
	req.True(presence.Muted)

	presence, changed = conn.ApplyAction("wave", true)
	req.False(changed)
	req.True(presence.Muted)

	// The participant snapshot reflects the new flags
	req.True(conn.Participant().Presence.Muted)
}
