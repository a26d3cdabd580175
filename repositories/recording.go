//go:generate go run go.uber.org/mock/mockgen -source=recording.go -destination=../mocks/mock_recording_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"huddle/domain"
)

type IRecordingRepository interface {
	SaveMeta(meta RecordingMeta) error
	GetMeta(id uuid.UUID) (RecordingMeta, error)
	AppendEntry(id uuid.UUID, seq uint64, sealed []byte) error
	ReadEntries(id uuid.UUID) ([][]byte, error)
	ListRecordings(room domain.RoomID) ([]RecordingMeta, error)
}

// RecordingMeta describes one recording session of a room.
// Entries are stored separately, sealed by the recording keyring,
// so the meta record stays readable without the room key.
type RecordingMeta struct {
	ID            uuid.UUID `json:"id"`
	Room          string    `json:"room"`
	StartedBy     string    `json:"started_by"`
	StartedByName string    `json:"started_by_name"`
	StartedAt     time.Time `json:"started_at"`
	StoppedAt     time.Time `json:"stopped_at,omitempty"`
	Entries       uint64    `json:"entries"`
}

type RecordingRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRecordingRepository(db *badger.DB, log *slog.Logger) *RecordingRepository {
	return &RecordingRepository{db: db, log: log}
}

func metaKey(id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("rec:%s:meta", id))
}

func entryKey(id uuid.UUID, seq uint64) []byte {
	return []byte(fmt.Sprintf("rec:%s:e:%019d", id, seq))
}

func (r RecordingRepository) SaveMeta(meta RecordingMeta) error {
	bytes, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey(meta.ID), bytes)
	})
}

func (r RecordingRepository) GetMeta(id uuid.UUID) (RecordingMeta, error) {
	var meta RecordingMeta
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return RecordingMeta{}, fmt.Errorf("recording %s: %w", id, err)
	}
	return meta, nil
}

func (r RecordingRepository) AppendEntry(id uuid.UUID, seq uint64, sealed []byte) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(id, seq), sealed)
	})
}

// ReadEntries returns the sealed entries of a recording in append order.
// Callers open them with the keyring that sealed them.
func (r RecordingRepository) ReadEntries(id uuid.UUID) ([][]byte, error) {
	prefix := []byte(fmt.Sprintf("rec:%s:e:", id))
	var entries [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			sealed, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			entries = append(entries, sealed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListRecordings scans every meta record and keeps those of the given room.
// The scan stays cheap because meta records are one small key per recording.
func (r RecordingRepository) ListRecordings(room domain.RoomID) ([]RecordingMeta, error) {
	prefix := []byte("rec:")
	var metas []RecordingMeta
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if !strings.HasSuffix(string(item.Key()), ":meta") {
				continue
			}
			var meta RecordingMeta
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			})
			if err != nil {
				return err
			}
			if meta.Room == room.String() {
				metas = append(metas, meta)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return metas, nil
}
