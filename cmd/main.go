package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"huddle/auth"
	"huddle/domain/event"
	"huddle/infrastructure/ws"
	"huddle/internal"
	"huddle/observability"
	"huddle/recording"
	"huddle/repositories"
	"huddle/runtime"
	"huddle/runtime/workers"
	"huddle/search"
	"huddle/services"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownGrace = 5 * time.Second

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components and manages the server lifecycle.
// Returning an exit code instead of calling os.Exit directly ensures
// every defer (database close, index flush) executes before the process ends.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config validation: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx := context.Background()
	debug := logger.Enabled(ctx, slog.LevelDebug)

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, debug))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Search Index (Bluge)
	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()
	index := search.NewMessageIndex(blugeWriter, logger, config.SearchPageSize)

	// 4. Supervision & Orchestration
	telemetryChan := make(chan event.Event, config.BufferSize)
	sup := workers.NewSupervisor(logger, telemetryChan)
	monitoring := observability.NewMonitoring(logger)
	messageRepository := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	recordingRepository := repositories.NewRecordingRepository(db, logger)
	recorder := recording.NewManager(recordingRepository, recording.NewKeyring(), logger)

	orchestrator := runtime.NewOrchestrator(
		logger, sup, monitoring, index, recorder, telemetryChan,
		config.RoomCapacity, config.RoomMailboxSize, config.BufferSize,
		config.SinkTimeout, charReplacement, config.MaxContentLength,
		config.SearchBatchSize, config.SearchBufferTimeout,
		config.MetricInterval, debug,
	)

	// 5. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Start the Engine (Workers, Moderation, Sinks)
	if err = orchestrator.Start(ctx); err != nil {
		return exitRuntime, fmt.Errorf("orchestrator failed to start: %w", err)
	}

	if debug {
		endpoint := "/inspect"
		url := fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint)
		logger.Info("Debug inspector available", "url", url)
		internal.StartDebugServer(db, index, config.DebugPort, endpoint,
			internal.DefaultMapper, statsProvider(monitoring, orchestrator))
	}

	// 7. Application Services & WebSocket Server
	tokens := auth.NewTokenManager(config.AuthSecret, config.AuthTokenDuration)
	roomService := services.NewRoomService(
		orchestrator.Registry(), orchestrator.Rooms(), orchestrator.Broadcaster(),
		orchestrator.Bus(), orchestrator.Relay(), recorder,
		config.ConnectionBufferSize, logger,
	)
	chatService := services.NewChatService(
		orchestrator.Filter(), messageRepository, orchestrator.Bus(),
		orchestrator.Telemetry(), monitoring, logger,
	)
	dispatcher := ws.NewDispatcher(roomService, chatService, orchestrator.Relay(),
		orchestrator.Telemetry(), monitoring, logger)
	server := ws.NewServer(tokens, roomService, dispatcher, config.IdleTimeout, logger)

	mux := http.NewServeMux()
	server.Register(ctx, mux)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: mux}

	// Use an error channel to capture ListenAndServe() issues asynchronously.
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting WebSocket server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	// The execution blocks here until either a signal is received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 9. Final Cleanup (Graceful Shutdown)
	// Active sessions get a grace period to flush their outbound queues.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown exceeded grace period", "error", err)
	}
	orchestrator.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, debug bool) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if debug {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}

// statsProvider feeds the debug dashboard with live counters.
func statsProvider(monitoring *observability.Monitoring, orchestrator *runtime.Orchestrator) internal.StatsProvider {
	return func() map[string]any {
		stats := monitoring.GetLatest()
		out := map[string]any{
			"MsgPerSec":   fmt.Sprintf("%.1f", stats.MessagesPerSecond),
			"Delivered":   stats.DeliveredFrames,
			"Dropped":     stats.DroppedFrames,
			"Connections": stats.ConnectionsOpen,
			"Rooms":       stats.RoomsOpen,
			"Moderated":   stats.ModeratedMessages,
			"Signals":     stats.SignalsRouted,
			"RecentMsgs":  len(orchestrator.Timeline().Snapshot()),
		}
		for frame, hits := range orchestrator.FrameHits() {
			out["frame "+frame] = hits
		}
		return out
	}
}
