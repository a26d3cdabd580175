package sink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"huddle/domain"
	"huddle/domain/event"
	"huddle/search"
)

// SearchSink feeds the full-text index. It acts as a buffer that
// aggregates messages: the flush is triggered either by reaching a
// size threshold (maxBatch) or a time-based deadline (bufferTimeout),
// so a quiet room still gets indexed without each message paying for
// its own bluge batch.
type SearchSink struct {
	mu            sync.Mutex
	timer         *time.Timer
	index         search.IMessageIndex
	log           *slog.Logger
	buffer        []domain.Message
	maxBatch      int
	bufferTimeout time.Duration
}

func NewSearchSink(index search.IMessageIndex, log *slog.Logger, maxBatch int, bufferTimeout time.Duration) *SearchSink {
	if maxBatch <= 0 {
		maxBatch = 50
	}
	if bufferTimeout <= 0 {
		bufferTimeout = 2 * time.Second
	}
	return &SearchSink{
		index:         index,
		log:           log,
		maxBatch:      maxBatch,
		bufferTimeout: bufferTimeout,
	}
}

func (s *SearchSink) Consume(_ context.Context, e event.DomainEvent) error {
	var msg domain.Message
	switch evt := e.(type) {
	case event.MessagePosted:
		msg = toMessage(evt)
	case event.MessageModerated:
		// The redacted form is what readers see, so it is what the
		// index holds too.
		msg = domain.Message{
			ID:         evt.ID,
			Room:       evt.Room,
			SenderID:   evt.Author,
			SenderName: evt.AuthorName,
			Content:    evt.Content,
			Language:   evt.Language,
			CreatedAt:  evt.At,
		}
	default:
		return nil
	}

	s.mu.Lock()
	s.buffer = append(s.buffer, msg)

	// First event of a new batch arms the deadline timer so low
	// throughput never leaves messages stuck in the buffer.
	if len(s.buffer) == 1 && s.timer == nil {
		s.timer = time.AfterFunc(s.bufferTimeout, func() {
			if err := s.Flush(); err != nil {
				s.log.Error("Batching: Timeout flush failed", "error", err)
			}
		})
	}

	isFull := len(s.buffer) >= s.maxBatch
	s.mu.Unlock()

	if isFull {
		return s.Flush()
	}
	return nil
}

// Flush swaps the buffer out under the lock and indexes the batch
// outside of it, so producers never wait on bluge.
func (s *SearchSink) Flush() error {
	s.mu.Lock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return nil
	}

	batch := s.buffer
	s.buffer = make([]domain.Message, 0, s.maxBatch)
	s.mu.Unlock()

	return s.index.IndexBatch(batch)
}
