//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"huddle/domain"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(room domain.RoomID, cursor *string) ([]DiskMessage, *string, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type DiskMessage struct {
	ID         uuid.UUID `json:"id"`
	Room       string    `json:"room"`
	Author     string    `json:"author"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Language   string    `json:"language,omitempty"`
	At         time.Time `json:"at"`
}

func ToDiskMessage(message domain.Message) DiskMessage {
	return DiskMessage{
		ID:         message.ID,
		Room:       message.Room.String(),
		Author:     message.SenderID,
		AuthorName: message.SenderName,
		Content:    message.Content,
		Language:   message.Language,
		At:         message.CreatedAt,
	}
}

func (d DiskMessage) ToDomain() domain.Message {
	return domain.Message{
		ID:         d.ID,
		Room:       domain.RoomID(d.Room),
		SenderID:   d.Author,
		SenderName: d.AuthorName,
		Content:    d.Content,
		Language:   d.Language,
		CreatedAt:  d.At,
	}
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{room_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		message.Room,
		message.At.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages retrieves messages for a specific room using a prefix scan.
// Thanks to the padded timestamp in the key, messages are naturally sorted by time.
// It stops collecting messages once the configured limitMessages is reached.
func (m MessageRepository) GetMessages(room domain.RoomID, cursor *string) ([]DiskMessage, *string, error) {
	var byteMessages [][]byte
	var diskMessages []DiskMessage
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", room)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Le plus récent d'abord : on se place après la dernière clé
			// possible du préfixe puis on remonte le temps
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, value)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	for _, b := range byteMessages {
		var message DiskMessage
		if err = json.Unmarshal(b, &message); err != nil {
			return nil, nil, err
		}
		diskMessages = append(diskMessages, message)
	}
	return diskMessages, &lastKey, err
}
