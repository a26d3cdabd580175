// Package ws is the websocket front door of the routing layer: one
// upgrade endpoint that authenticates the caller, joins the room and
// hands the socket to a session. All application logic stays behind
// the service interfaces.
package ws

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"huddle/contract"
	"huddle/domain"
	"huddle/errors"
	"huddle/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		// Browsers set the origin, native clients send none.
		// Cross origin policy belongs to the deployment proxy.
		return true
	},
}

type Server struct {
	authenticator contract.Authenticator
	roomService   services.IRoomService
	dispatcher    *Dispatcher
	idleTimeout   time.Duration
	log           *slog.Logger
}

func NewServer(
	authenticator contract.Authenticator,
	roomService services.IRoomService,
	dispatcher *Dispatcher,
	idleTimeout time.Duration,
	log *slog.Logger) *Server {
	return &Server{
		authenticator: authenticator,
		roomService:   roomService,
		dispatcher:    dispatcher,
		idleTimeout:   idleTimeout,
		log:           log,
	}
}

// Register mounts the websocket endpoint on the mux. The context
// bounds every session accepted through it: cancelling it tells the
// live sockets to go away.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/{room}", func(w http.ResponseWriter, r *http.Request) {
		s.serve(ctx, w, r)
	})
}

// serve runs the accept choreography: room check, upgrade, then
// authenticate exactly once. Auth failures close with 1008 and a full
// room with 1013, both after the upgrade so the client gets a real
// close code instead of a dead HTTP response.
func (s *Server) serve(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	room, ok := domain.ParseRoomID(r.PathValue("room"))
	if !ok {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	principal, err := s.authenticator.Authenticate(bearerToken(r))
	if err != nil {
		s.log.Warn("websocket accept rejected",
			"room_id", room, "remote_addr", r.RemoteAddr, "error", err)
		s.goodbye(ws, websocket.ClosePolicyViolation, "authentication failed")
		return
	}

	kind := domain.ToConnectionKind(r.URL.Query().Get("kind"))
	conn, err := s.roomService.Join(ctx, principal, room, kind)
	if err != nil {
		if stderrors.Is(err, errors.ErrRoomFull) {
			s.log.Info("join rejected, room is full",
				"room_id", room, "user_id", principal.UserID)
			s.goodbye(ws, websocket.CloseTryAgainLater, "room is full")
			return
		}
		s.log.Error("join failed",
			"room_id", room, "user_id", principal.UserID, "error", err)
		s.goodbye(ws, websocket.CloseInternalServerErr, "join failed")
		return
	}

	sess := &session{
		ws:          ws,
		conn:        conn,
		dispatcher:  s.dispatcher,
		roomService: s.roomService,
		idleTimeout: s.idleTimeout,
		log:         s.log,
	}
	sess.run(ctx)
}

func (s *Server) goodbye(ws *websocket.Conn, code int, reason string) {
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	_ = ws.Close()
}

// bearerToken reads the credential from the Authorization header, or
// from the query string for browser clients that cannot set headers
// on a websocket dial.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
