package signaling_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"huddle/domain/event"
	"huddle/mocks"
	"huddle/protocol"
	"huddle/signaling"
)

func newOffer(targetID string) signaling.Inbound {
	return signaling.Inbound{
		Kind:       protocol.TypeWebRTCOffer,
		Room:       "room-1",
		SenderID:   "user-1",
		SenderName: "Alice",
		SenderConn: "conn-1",
		TargetID:   targetID,
		Payload:    json.RawMessage(`{"sdp":"v=0..."}`),
	}
}

func Test_Relay_Unicast_When_Target_Set(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	broadcaster := mocks.NewMockIBroadcaster(ctrl)
	relay := signaling.NewRelay(broadcaster, log, nil)

	// Then only point delivery happens, never a room broadcast
	broadcaster.EXPECT().
		SendTo(gomock.Any(), "user-2", gomock.Any()).
		Do(func(_ context.Context, _ string, env protocol.Envelope) {
			data, ok := env.Data.(protocol.SignalData)
			require.True(t, ok)
			require.Equal(t, "user-1", data.SenderID)
			require.Equal(t, "user-2", data.TargetID)
			require.JSONEq(t, `{"sdp":"v=0..."}`, string(data.Signal))
		}).
		Return(true).
		Times(1)

	relay.Relay(context.Background(), newOffer("user-2"))

	state, ok := relay.ExchangeState("room-1", "user-1")
	req.True(ok)
	req.Equal(signaling.StateOfferSent, state)
}

func Test_Relay_Broadcasts_Room_Without_Target(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	broadcaster := mocks.NewMockIBroadcaster(ctrl)
	relay := signaling.NewRelay(broadcaster, log, nil)

	// Then the sender's own connection is excluded from the fan-out
	broadcaster.EXPECT().
		Broadcast(gomock.Any(), gomock.Any(), gomock.Any(), "conn-1").
		Return(2).
		Times(1)

	relay.Relay(context.Background(), newOffer(""))

	state, ok := relay.ExchangeState("room-1", "user-1")
	req.True(ok)
	req.Equal(signaling.StateOfferSent, state)
}

func Test_Relay_Missing_Target_Is_Benign(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	broadcaster := mocks.NewMockIBroadcaster(ctrl)
	relay := signaling.NewRelay(broadcaster, log, nil)

	// Given the target already disconnected
	broadcaster.EXPECT().
		SendTo(gomock.Any(), "user-gone", gomock.Any()).
		Return(false).
		Times(1)

	// When relaying, nothing blows up and the exchange is still tracked
	relay.Relay(context.Background(), newOffer("user-gone"))

	_, ok := relay.ExchangeState("room-1", "user-1")
	req.True(ok)
}

func Test_Relay_State_Progression(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	broadcaster := mocks.NewMockIBroadcaster(ctrl)
	broadcaster.EXPECT().SendTo(gomock.Any(), gomock.Any(), gomock.Any()).Return(true).AnyTimes()
	relay := signaling.NewRelay(broadcaster, log, nil)
	ctx := context.Background()

	steps := []struct {
		kind     string
		expected signaling.State
	}{
		{protocol.TypeICECandidate, signaling.StateIdle}, // early ICE is routed, not phase tracked
		{protocol.TypeWebRTCOffer, signaling.StateOfferSent},
		{protocol.TypeICECandidate, signaling.StateOfferSent},
		{protocol.TypeWebRTCAnswer, signaling.StateAnswerReceived},
		{protocol.TypeICECandidate, signaling.StateConnected},
	}

	for _, step := range steps {
		in := newOffer("user-2")
		in.Kind = step.kind
		relay.Relay(ctx, in)

		state, ok := relay.ExchangeState("room-1", "user-1")
		req.True(ok)
		req.Equal(step.expected, state, "after %s", step.kind)
	}
}

func Test_Relay_Forgets_Exchange_When_User_Leaves(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	broadcaster := mocks.NewMockIBroadcaster(ctrl)
	broadcaster.EXPECT().SendTo(gomock.Any(), gomock.Any(), gomock.Any()).Return(true).AnyTimes()
	relay := signaling.NewRelay(broadcaster, log, nil)
	ctx := context.Background()

	relay.Relay(ctx, newOffer("user-2"))
	_, ok := relay.ExchangeState("room-1", "user-1")
	req.True(ok)

	// When the sender leaves the room
	req.NoError(relay.Consume(ctx, event.UserLeft{Room: "room-1", UserID: "user-1"}))

	// Then the pending exchange is gone
	_, ok = relay.ExchangeState("room-1", "user-1")
	req.False(ok)
}
