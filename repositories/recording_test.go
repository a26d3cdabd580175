package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Recording_Meta_Roundtrip(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewRecordingRepository(db, slog.Default())
	meta := RecordingMeta{
		ID:            uuid.New(),
		Room:          "war-room-01",
		StartedBy:     "u-1",
		StartedByName: "Alice",
		StartedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
	req.NoError(repository.SaveMeta(meta))

	fetched, err := repository.GetMeta(meta.ID)
	req.NoError(err)
	req.Equal(meta, fetched)

	// Stop updates the same meta record in place
	meta.StoppedAt = meta.StartedAt.Add(5 * time.Minute)
	meta.Entries = 42
	req.NoError(repository.SaveMeta(meta))

	fetched, err = repository.GetMeta(meta.ID)
	req.NoError(err)
	req.Equal(uint64(42), fetched.Entries)
	req.Equal(meta.StoppedAt, fetched.StoppedAt)
}

func Test_Recording_Meta_Unknown_Id(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewRecordingRepository(db, slog.Default())
	_, err = repository.GetMeta(uuid.New())
	req.ErrorIs(err, badger.ErrKeyNotFound)
}

func Test_Recording_Entries_Keep_Append_Order(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewRecordingRepository(db, slog.Default())
	id := uuid.New()
	for seq := uint64(0); seq < 12; seq++ {
		req.NoError(repository.AppendEntry(id, seq, []byte(fmt.Sprintf("sealed-%d", seq))))
	}

	entries, err := repository.ReadEntries(id)
	req.NoError(err)
	req.Len(entries, 12)
	for i, sealed := range entries {
		req.Equal(fmt.Sprintf("sealed-%d", i), string(sealed))
	}
}

func Test_List_Recordings_Filters_By_Room(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewRecordingRepository(db, slog.Default())
	now := time.Now().UTC().Truncate(time.Millisecond)
	for i, room := range []string{"lobby", "ops", "lobby"} {
		meta := RecordingMeta{ID: uuid.New(), Room: room, StartedBy: "u-1", StartedAt: now.Add(time.Duration(i) * time.Minute)}
		req.NoError(repository.SaveMeta(meta))
		// entries must not pollute the meta listing
		req.NoError(repository.AppendEntry(meta.ID, 0, []byte("sealed")))
	}

	metas, err := repository.ListRecordings("lobby")
	req.NoError(err)
	req.Len(metas, 2)
	for _, meta := range metas {
		req.Equal("lobby", meta.Room)
	}
}
