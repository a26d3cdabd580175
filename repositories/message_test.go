package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"huddle/domain"
)

func Test_Record_Multiple_Message(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewMessageRepository(db, slog.Default(), nil)
	room := domain.RoomID("room-1")
	content := "this message will self destruct in 5 seconds"
	at := time.Now().UTC()
	diskMessages := []DiskMessage{
		{ID: uuid.New(), Room: room.String(), Author: "u-1", AuthorName: "Alice", Content: content, At: at},
		{ID: uuid.New(), Room: room.String(), Author: "u-2", AuthorName: "Bob", Content: content, At: at.Add(1 * time.Minute)},
		{ID: uuid.New(), Room: room.String(), Author: "u-3", AuthorName: "Clara", Content: content, At: at.Add(2 * time.Minute)},
	}
	for _, dm := range diskMessages {
		err = repository.StoreMessage(dm)
		req.NoError(err)
	}

	fetched, _, err := repository.GetMessages(room, nil)
	req.NoError(err)
	req.Len(fetched, len(diskMessages))

	// Le plus récent d'abord
	req.Equal("Clara", fetched[0].AuthorName)
	req.Equal("Bob", fetched[1].AuthorName)
	req.Equal("Alice", fetched[2].AuthorName)
}

func Test_Get_Messages_Ignores_Other_Rooms(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewMessageRepository(db, slog.Default(), nil)
	at := time.Now().UTC()

	req.NoError(repository.StoreMessage(DiskMessage{ID: uuid.New(), Room: "lobby", Author: "u-1", Content: "here", At: at}))
	req.NoError(repository.StoreMessage(DiskMessage{ID: uuid.New(), Room: "ops", Author: "u-2", Content: "elsewhere", At: at}))

	fetched, _, err := repository.GetMessages("lobby", nil)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("here", fetched[0].Content)
}

func Test_Get_Messages_Pagination(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	limit := 2
	repository := NewMessageRepository(db, slog.Default(), &limit)
	room := domain.RoomID("war-room-01")
	now := time.Now().UTC()

	for i := 1; i <= 5; i++ {
		err := repository.StoreMessage(DiskMessage{
			ID:      uuid.New(),
			Room:    room.String(),
			Author:  "u-1",
			Content: fmt.Sprintf("Message %d", i),
			At:      now.Add(time.Duration(i) * time.Minute),
		})
		req.NoError(err)
	}

	// --- PAGE 1 ---
	list1, cursor1, err := repository.GetMessages(room, nil)
	req.NoError(err)
	req.Len(list1, 2)
	req.Equal("Message 5", list1[0].Content)
	req.Equal("Message 4", list1[1].Content)
	req.NotEmpty(cursor1)

	// --- PAGE 2 ---
	list2, cursor2, err := repository.GetMessages(room, cursor1)
	req.NoError(err)
	req.Len(list2, 2)
	req.Equal("Message 3", list2[0].Content)
	req.Equal("Message 2", list2[1].Content)
	req.NotEmpty(cursor2)

	// --- PAGE 3 ---
	list3, _, err := repository.GetMessages(room, cursor2)
	req.NoError(err)
	req.Len(list3, 1)
	req.Equal("Message 1", list3[0].Content)
}
