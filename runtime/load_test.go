package runtime_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"huddle/domain"
	"huddle/domain/event"
	"huddle/mocks"
	"huddle/moderation"
	"huddle/repositories"
	"huddle/runtime"
	"huddle/runtime/workers"
	"huddle/services"
	"huddle/sink"
)

func TestMessagePipeline_LoadTest(t *testing.T) {
	// 1. Setup minimaliste (on mock le repo pour ne pas être bridé par le disque/Badger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := gomock.NewController(t)
	mockMessageRepo := mocks.NewMockIMessageRepository(ctrl)
	mockMessageRepo.EXPECT().StoreMessage(gomock.Any()).Do(
		func(_ repositories.DiskMessage) {
			time.Sleep(2 * time.Millisecond)
		},
	).Return(nil).AnyTimes()

	log := slog.New(slog.DiscardHandler) // On désactive les logs pour la perf

	registry := runtime.NewRegistry()
	events := make(chan event.DomainEvent, 5000)
	rooms := runtime.NewRooms(log, 200, 64, events, nil, nil)
	broadcaster := runtime.NewBroadcaster(registry, rooms, log, nil, nil)
	bus := runtime.NewBus(log, 100*time.Millisecond, nil)
	bus.SubscribeAll("ws", sink.NewWsSink(broadcaster, log))

	fanout := workers.NewEventFanout(log, events, bus)
	go func() { _ = fanout.Run(ctx) }()

	// Une poignée de connexions passives pour exercer le fan-out
	// (leurs files débordent en drop-oldest, c'est voulu)
	for i := 0; i < 5; i++ {
		conn := runtime.NewConnection(domain.Principal{
			UserID: fmt.Sprintf("member-%d", i),
			Name:   fmt.Sprintf("Member %d", i),
		}, "load", domain.KindChat, 32)
		registry.Register(conn)
		if _, err := rooms.Join(ctx, conn); err != nil {
			t.Fatalf("join failed: %v", err)
		}
	}

	moderator, err := moderation.NewModerator([]string{"spam", "scam"}, '*', log)
	if err != nil {
		t.Fatalf("moderator: %v", err)
	}
	filter := moderation.NewFilter(moderator, 2000, log)
	chat := services.NewChatService(filter, mockMessageRepo, bus, nil, nil, log)

	// 2. Variables de mesure
	var successCount atomic.Uint64
	var failureCount atomic.Uint64

	numClients := 100
	messagesPerClient := 200

	start := time.Now()
	var wg sync.WaitGroup

	// 3. Simulation du trafic
	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			for j := 0; j < messagesPerClient; j++ {
				cmd := domain.PostMessageCommand{
					Room: "load",
					Sender: domain.Principal{
						UserID: fmt.Sprintf("user-%d", clientID),
						Name:   fmt.Sprintf("User %d", clientID),
					},
					Content:   "Ceci est un message de test de charge",
					CreatedAt: time.Now().UTC(),
				}

				if err := chat.PostMessage(ctx, cmd); err != nil {
					failureCount.Add(1)
				} else {
					successCount.Add(1)
				}
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(start)

	// 4. Résultats
	fmt.Printf("\n--- RÉSULTATS DU STRESS TEST ---\n")
	fmt.Printf("Durée totale     : %v\n", duration)
	fmt.Printf("Messages réussis : %d\n", successCount.Load())
	fmt.Printf("Messages rejetés : %d\n", failureCount.Load())
	fmt.Printf("Débit (TPS)      : %.2f msg/sec\n", float64(successCount.Load())/duration.Seconds())
	fmt.Printf("--------------------------------\n")

	if failureCount.Load() != 0 {
		t.Fatalf("%d messages failed", failureCount.Load())
	}
}
