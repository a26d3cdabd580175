package main

import (
	"flag"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"huddle/domain"
	"huddle/repositories"
)

// Phrases mélangées anglais/français pour donner du grain au dashboard
var samples = []struct {
	content  string
	language string
}{
	{"Hello everyone, the new build is up", "en"},
	{"On se retrouve dans la war room à 14h", "fr"},
	{"Can someone review the routing diagram?", "en"},
	{"Le serveur de staging est redémarré", "fr"},
	{"Deploy went fine, no dropped frames", "en"},
	{"Je partage mon écran dans deux minutes", "fr"},
	{"The capacity alert from last night was a false positive", "en"},
	{"Pensez à couper vos micros en entrant", "fr"},
}

var rooms = []string{"lobby", "war-room-01", "design"}

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	count := flag.Int("count", 200, "Number of messages to seed")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		fmt.Printf("❌ Impossible d'ouvrir Badger : %v\n", err)
		return
	}
	defer db.Close()

	fmt.Printf("🚀 Huddle : Génération de %d messages de test dans %s...\n", *count, *dbPath)

	repo := repositories.NewMessageRepository(db, slog.Default(), nil)
	start := time.Now().Add(-time.Duration(*count) * time.Second)

	for i := 0; i < *count; i++ {
		sample := samples[i%len(samples)]
		msg := domain.Message{
			ID:         uuid.New(),
			Room:       domain.RoomID(rooms[i%len(rooms)]),
			SenderID:   fmt.Sprintf("u-%d", i%7),
			SenderName: fmt.Sprintf("user_%d", i%7),
			Content:    sample.content,
			Language:   sample.language,
			// Un message par seconde pour étaler la timeline
			CreatedAt: start.Add(time.Duration(i) * time.Second),
		}
		if err := repo.StoreMessage(repositories.ToDiskMessage(msg)); err != nil {
			fmt.Printf("❌ Echec à l'insertion %d : %v\n", i, err)
			return
		}
	}

	// Relecture de contrôle sur la première room
	firstRoom := domain.RoomID(rooms[0])
	page, _, err := repo.GetMessages(firstRoom, nil)
	if err != nil {
		fmt.Printf("❌ Relecture impossible : %v\n", err)
		return
	}

	fmt.Printf("✅ Prêt ! %d messages relus dans %s. Lance le viewer ou l'inspecteur sur %s\n", len(page), firstRoom, *dbPath)
}
