//go:generate go run go.uber.org/mock/mockgen -source=index.go -destination=../mocks/mock_index.go -package=mocks

// Package search maintains the full-text index of chat history.
// Messages are indexed in batches and queried per room, so a search
// never leaks content across room boundaries.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"huddle/domain"
)

type IMessageIndex interface {
	IndexBatch(msgs []domain.Message) error
	Search(ctx context.Context, q *Query, offset int) ([]Hit, uint64, error)
}

// Hit is one search result hydrated from stored fields.
type Hit struct {
	ID         uuid.UUID
	Room       string
	Author     string
	AuthorName string
	Content    string
	At         time.Time
}

type MessageIndex struct {
	writer   *bluge.Writer
	log      *slog.Logger
	pageSize int
}

// NewMessageIndex wraps an open bluge writer. The writer stays owned
// by the caller, which closes it on shutdown.
func NewMessageIndex(writer *bluge.Writer, log *slog.Logger, pageSize int) *MessageIndex {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &MessageIndex{writer: writer, log: log, pageSize: pageSize}
}

func toDocument(msg domain.Message) *bluge.Document {
	doc := bluge.NewDocument(msg.ID.String())
	doc.AddField(bluge.NewTextField("content", msg.Content).StoreValue())
	doc.AddField(bluge.NewKeywordField("room", msg.Room.String()).StoreValue())
	doc.AddField(bluge.NewKeywordField("author", msg.SenderID).StoreValue())
	doc.AddField(bluge.NewKeywordField("author_name", msg.SenderName).StoreValue())
	doc.AddField(bluge.NewKeywordField("at", msg.CreatedAt.UTC().Format(time.RFC3339Nano)).StoreValue())
	return doc
}

// IndexBatch writes the whole slice in one bluge batch.
func (m *MessageIndex) IndexBatch(msgs []domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	batch := bluge.NewBatch()
	for _, msg := range msgs {
		doc := toDocument(msg)
		batch.Update(doc.ID(), doc)
	}
	if err := m.writer.Batch(batch); err != nil {
		return err
	}
	m.log.Debug("indexed message batch", "count", len(msgs))
	return nil
}

// Search runs a full-text query over message content, restricted to
// one room and optionally one author. Offset-based pagination, total
// hit count from the aggregations.
func (m *MessageIndex) Search(ctx context.Context, q *Query, offset int) ([]Hit, uint64, error) {
	reader, err := m.writer.Reader()
	if err != nil {
		return nil, 0, err
	}
	defer reader.Close()

	boolean := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(q.Terms).SetField("content"))
	if q.RoomID != "" {
		boolean.AddMust(bluge.NewTermQuery(q.RoomID).SetField("room"))
	}
	if q.Author != "" {
		boolean.AddMust(bluge.NewTermQuery(q.Author).SetField("author"))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = m.pageSize
	}
	request := bluge.NewTopNSearch(limit, boolean).
		SetFrom(offset).
		WithStandardAggregations()

	dmi, err := reader.Search(ctx, request)
	if err != nil {
		return nil, 0, err
	}

	var hits []Hit
	for {
		match, err := dmi.Next()
		if err != nil {
			return nil, 0, err
		}
		if match == nil {
			break
		}

		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					hit.ID = id
				}
			case "room":
				hit.Room = string(value)
			case "author":
				hit.Author = string(value)
			case "author_name":
				hit.AuthorName = string(value)
			case "content":
				hit.Content = string(value)
			case "at":
				if at, parseErr := time.Parse(time.RFC3339Nano, string(value)); parseErr == nil {
					hit.At = at
				}
			}
			return true
		})
		if err != nil {
			return nil, 0, err
		}
		hits = append(hits, hit)
	}

	return hits, dmi.Aggregations().Count(), nil
}
