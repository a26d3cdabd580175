package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"huddle/auth"
	"huddle/domain"
	"huddle/protocol"
)

const frameWait = 5 * time.Second

type BaseWsSuite struct {
	suite.Suite
	Config Config
	tokens *auth.TokenManager
}

// SetupSuite loads the environment configuration before running tests.
// Without a server address the whole suite steps aside.
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.ServerAddr == "" || s.Config.AuthSecret == "" {
		s.T().Skip("HUDDLE_ADDR / HUDDLE_AUTH_SECRET not set, skipping live server suite")
	}
	s.tokens = auth.NewTokenManager(s.Config.AuthSecret, time.Hour)
}

// DialRoom opens an authenticated websocket into a room with logging and colors
func (s *BaseWsSuite) DialRoom(t *testing.T, name string, user domain.Principal, room string) *websocket.Conn {
	// 1. Print a colorized header for the connection step in logs
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	// 2. Mint a token for this user, signed like the server expects
	token, err := s.tokens.Generate(user)
	s.Require().NoError(err)

	// 3. Dial with the bearer header, as a native client would
	target := url.URL{Scheme: "ws", Host: s.Config.ServerAddr, Path: "/ws/" + room}
	h := http.Header{"Authorization": {"Bearer " + token}}

	conn, _, err := websocket.DefaultDialer.Dial(target.String(), h)
	s.Require().NoError(err, "Failed to connect to websocket server at "+s.Config.ServerAddr)
	return conn
}

// SendFrame marshals and sends one inbound frame on the socket.
func (s *BaseWsSuite) SendFrame(conn *websocket.Conn, frameType string, payload any) {
	raw, err := json.Marshal(payload)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteJSON(protocol.Frame{Type: frameType, Data: raw}))
}

// WaitFor reads frames until the wanted type shows up and returns its data.
// Every skipped frame is logged so a failing scenario stays debuggable.
func (s *BaseWsSuite) WaitFor(t *testing.T, conn *websocket.Conn, frameType string) json.RawMessage {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(frameWait)))
	for {
		var envelope struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		err := conn.ReadJSON(&envelope)
		s.Require().NoError(err, "Timed out waiting for frame "+frameType)

		if s.Config.DebugJSON {
			t.Logf("FRAME %s: %s", envelope.Type, string(envelope.Data))
		} else {
			t.Logf("FRAME %s", envelope.Type)
		}

		if envelope.Type == frameType {
			s.Require().NoError(conn.SetReadDeadline(time.Time{}))
			return envelope.Data
		}
	}
}
