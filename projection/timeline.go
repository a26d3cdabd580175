// Package projection builds local timelines from observed events.
// Handles ordering, deduplication, and projections.
// Does not emit events or interact with UI directly.
package projection

import (
	"context"
	"sync"

	"huddle/domain"
	"huddle/domain/event"
)

// Timeline holds a simple local timeline
type Timeline struct {
	mu       sync.Mutex
	Owner    string
	Messages []domain.Message
}

func NewTimeline() *Timeline {
	return &Timeline{
		Messages: nil,
	}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessagePosted:
		t.mu.Lock()
		t.Messages = append(t.Messages, fromEvent(evt))
		t.mu.Unlock()
		return nil
	}
	return nil
}

// Snapshot copies the current timeline for safe reading.
func (t *Timeline) Snapshot() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Message, len(t.Messages))
	copy(out, t.Messages)
	return out
}

func fromEvent(event event.MessagePosted) domain.Message {
	return domain.Message{
		ID:         event.ID,
		Room:       event.Room,
		SenderID:   event.Author,
		SenderName: event.AuthorName,
		Content:    event.Content,
		Language:   event.Language,
		CreatedAt:  event.At,
	}
}
