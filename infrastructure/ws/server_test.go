package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"huddle/auth"
	"huddle/domain"
	"huddle/domain/event"
	"huddle/moderation"
	"huddle/protocol"
	"huddle/recording"
	"huddle/repositories"
	"huddle/runtime"
	"huddle/services"
	"huddle/signaling"
	"huddle/sink"
)

// wireEnvelope is the client side view of an outbound frame.
type wireEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type serverFixture struct {
	url    string
	tokens *auth.TokenManager
}

// newServerFixture stands up the full stack behind a real HTTP
// listener: registry, rooms, bus with the websocket sink, chat and
// room services, dispatcher and server.
func newServerFixture(t *testing.T, capacity int, idleTimeout time.Duration) serverFixture {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	registry := runtime.NewRegistry()
	events := make(chan event.DomainEvent, 64)
	rooms := runtime.NewRooms(log, capacity, 16, events, nil, nil)
	broadcaster := runtime.NewBroadcaster(registry, rooms, log, nil, nil)
	bus := runtime.NewBus(log, time.Second, nil)
	relay := signaling.NewRelay(broadcaster, log, nil)

	opts := badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	recorder := recording.NewManager(repositories.NewRecordingRepository(db, log), recording.NewKeyring(), log)
	roomService := services.NewRoomService(registry, rooms, broadcaster, bus, relay, recorder, 8, log)

	moderator, err := moderation.NewModerator([]string{"spam"}, '*', log)
	require.NoError(t, err)
	filter := moderation.NewFilter(moderator, 2000, log)
	chatService := services.NewChatService(filter, repositories.NewMessageRepository(db, log, nil), bus, nil, nil, log)

	bus.SubscribeAll("ws", sink.NewWsSink(broadcaster, log))

	tokens := auth.NewTokenManager("integration-secret", time.Hour)
	dispatcher := NewDispatcher(roomService, chatService, relay, nil, nil, log)
	server := NewServer(tokens, roomService, dispatcher, idleTimeout, log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mux := http.NewServeMux()
	server.Register(ctx, mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return serverFixture{
		url:    "ws" + strings.TrimPrefix(ts.URL, "http"),
		tokens: tokens,
	}
}

func (f serverFixture) dial(t *testing.T, room string, principal domain.Principal) *websocket.Conn {
	t.Helper()
	token, err := f.tokens.Generate(principal)
	require.NoError(t, err)

	header := http.Header{"Authorization": {"Bearer " + token}}
	ws, resp, err := websocket.DefaultDialer.Dial(f.url+"/ws/"+room, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readEnvelope(t *testing.T, ws *websocket.Conn) wireEnvelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))

	var env wireEnvelope
	require.NoError(t, ws.ReadJSON(&env))
	return env
}

// expectClose skips over pending data frames until the peer says
// goodbye, then checks the close code.
func expectClose(t *testing.T, ws *websocket.Conn, code int) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))

	for {
		_, _, err := ws.ReadMessage()
		if err == nil {
			continue
		}
		require.True(t, websocket.IsCloseError(err, code),
			"expected close code %d, got %v", code, err)
		return
	}
}

func Test_WebSocket_Chat_Roundtrip(t *testing.T) {
	req := require.New(t)
	fx := newServerFixture(t, 10, 0)

	// Given Alice in the room, her roster frame proving the join landed
	alice := fx.dial(t, "lobby", domain.Principal{UserID: "u-alice", Name: "Alice"})
	roster := readEnvelope(t, alice)
	req.Equal(protocol.TypeParticipantsList, roster.Type)

	// And Bob arriving after her
	bob := fx.dial(t, "lobby", domain.Principal{UserID: "u-bob", Name: "Bob"})
	roster = readEnvelope(t, bob)
	req.Equal(protocol.TypeParticipantsList, roster.Type)

	var rosterData protocol.ParticipantsListData
	req.NoError(json.Unmarshal(roster.Data, &rosterData))
	req.Len(rosterData.Participants, 2)

	joined := readEnvelope(t, alice)
	req.Equal(protocol.TypeUserJoined, joined.Type)

	// When Alice posts a message
	req.NoError(alice.WriteJSON(protocol.Frame{
		Type: protocol.TypeChatMessage,
		Data: json.RawMessage(`{"content": "hello room"}`),
	}))

	// Then both of them receive it, durable id included
	for _, ws := range []*websocket.Conn{alice, bob} {
		env := readEnvelope(t, ws)
		req.Equal(protocol.TypeChatMessage, env.Type)

		var msg protocol.MessageData
		req.NoError(json.Unmarshal(env.Data, &msg))
		req.Equal("hello room", msg.Content)
		req.Equal("u-alice", msg.SenderID)
		req.NotEmpty(msg.ID)
	}
}

func Test_WebSocket_Ping_Pong(t *testing.T) {
	req := require.New(t)
	fx := newServerFixture(t, 10, 0)

	ws := fx.dial(t, "lobby", domain.Principal{UserID: "u-1", Name: "One"})
	req.Equal(protocol.TypeParticipantsList, readEnvelope(t, ws).Type)

	req.NoError(ws.WriteJSON(protocol.Frame{Type: protocol.TypePing}))
	req.Equal(protocol.TypePong, readEnvelope(t, ws).Type)
}

func Test_WebSocket_Bad_Token_Closes_1008(t *testing.T) {
	fx := newServerFixture(t, 10, 0)

	header := http.Header{"Authorization": {"Bearer not-a-token"}}
	ws, resp, err := websocket.DefaultDialer.Dial(fx.url+"/ws/lobby", header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })

	expectClose(t, ws, websocket.ClosePolicyViolation)
}

func Test_WebSocket_Full_Room_Closes_1013(t *testing.T) {
	req := require.New(t)
	fx := newServerFixture(t, 1, 0)

	first := fx.dial(t, "tiny", domain.Principal{UserID: "u-1", Name: "One"})
	req.Equal(protocol.TypeParticipantsList, readEnvelope(t, first).Type)

	second := fx.dial(t, "tiny", domain.Principal{UserID: "u-2", Name: "Two"})
	expectClose(t, second, websocket.CloseTryAgainLater)
}

func Test_WebSocket_Malformed_Frame_Closes_1007(t *testing.T) {
	req := require.New(t)
	fx := newServerFixture(t, 10, 0)

	ws := fx.dial(t, "lobby", domain.Principal{UserID: "u-1", Name: "One"})
	req.Equal(protocol.TypeParticipantsList, readEnvelope(t, ws).Type)

	req.NoError(ws.WriteMessage(websocket.TextMessage, []byte("{not json")))

	expectClose(t, ws, websocket.CloseInvalidFramePayloadData)
}

func Test_WebSocket_Invalid_Room_Id_Fails_The_Handshake(t *testing.T) {
	req := require.New(t)
	fx := newServerFixture(t, 10, 0)

	token, err := fx.tokens.Generate(domain.Principal{UserID: "u-1", Name: "One"})
	req.NoError(err)

	// ':' would corrupt storage keys, the handshake never completes
	header := http.Header{"Authorization": {"Bearer " + token}}
	ws, resp, err := websocket.DefaultDialer.Dial(fx.url+"/ws/bad%3Aroom", header)
	req.ErrorIs(err, websocket.ErrBadHandshake)
	req.Nil(ws)
	if resp != nil {
		req.Equal(http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	}
}

func Test_WebSocket_Idle_Connection_Is_Cut(t *testing.T) {
	req := require.New(t)
	fx := newServerFixture(t, 10, 200*time.Millisecond)

	ws := fx.dial(t, "lobby", domain.Principal{UserID: "u-1", Name: "One"})
	req.Equal(protocol.TypeParticipantsList, readEnvelope(t, ws).Type)

	// No frames sent: the cutoff fires even though the transport
	// level ping/pong would keep the socket alive forever
	expectClose(t, ws, websocket.CloseGoingAway)
}
