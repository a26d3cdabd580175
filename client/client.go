package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"

	"huddle/protocol"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"HUDDLE_SERVER_ADDR,default=localhost:8080"`
	Room          string `env:"HUDDLE_ROOM,default=lobby"`
	Token         string `env:"HUDDLE_TOKEN,required=true"`
	LogLevel      string `env:"LOG_LEVEL,required=true"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v", err)
	}
	os.Exit(code)
}

// run handles the websocket client lifecycle: dial, authenticate, then
// print every frame the room broadcasts until interrupted.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Dial the room endpoint. The token travels in the header,
	// exactly as a native client would send it.
	target := url.URL{Scheme: "ws", Host: config.ServerAddress, Path: "/ws/" + config.Room}
	header := http.Header{"Authorization": {"Bearer " + config.Token}}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target.String(), header)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	// Defer ensures the connection is closed even if the read loop fails later.
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	// Closing the socket on cancellation unblocks the read loop below.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	log.Info(fmt.Sprintf(">>> Connected to %s! Listening room %q (Ctrl+C to quit)...",
		config.ServerAddress, config.Room))

	// 4. Frame reception loop.
	// This loop runs until the context is canceled or the server closes the connection.
	for {
		var frame struct {
			Type      string          `json:"type"`
			Data      json.RawMessage `json:"data"`
			Timestamp time.Time       `json:"timestamp"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			// Normal exit if the user triggered a shutdown.
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("read error: %w", err)
		}

		printFrame(log, frame.Type, frame.Data, frame.Timestamp)
	}
}

// printFrame renders the frames a passive member cares about, one line each.
func printFrame(log *slog.Logger, frameType string, data json.RawMessage, at time.Time) {
	switch frameType {
	case protocol.TypeChatMessage, protocol.TypeModerated:
		var msg protocol.MessageData
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		flag := ""
		if frameType == protocol.TypeModerated {
			flag = " [moderated]"
		}
		log.Info(fmt.Sprintf("[%s] %s: %s%s",
			msg.CreatedAt.Format(time.TimeOnly), msg.SenderName, msg.Content, flag))

	case protocol.TypeUserJoined, protocol.TypeUserLeft:
		var membership protocol.MembershipData
		if err := json.Unmarshal(data, &membership); err != nil {
			return
		}
		verb := "joined"
		if frameType == protocol.TypeUserLeft {
			verb = "left"
		}
		log.Info(fmt.Sprintf("[%s] * %s %s (%d in room)",
			at.Format(time.TimeOnly), membership.User.Name, verb, membership.Participants))

	case protocol.TypeUserTyping:
		// Typing notifications are too chatty for a console listener.

	default:
		log.Info(fmt.Sprintf("[%s] <%s>", at.Format(time.TimeOnly), frameType))
	}
}
