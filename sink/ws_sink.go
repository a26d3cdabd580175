// Package sink holds the event bus subscribers: everything that
// reacts to domain events without being part of the room hot path.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"huddle/contract"
	"huddle/domain"
	"huddle/domain/event"
	"huddle/protocol"
)

// WsSink turns chat events into websocket frames for the whole room.
// The sender is included: the echoed frame carries the durable id the
// client needs to reconcile its optimistic copy.
type WsSink struct {
	broadcaster contract.IBroadcaster
	log         *slog.Logger
}

func NewWsSink(broadcaster contract.IBroadcaster, log *slog.Logger) WsSink {
	return WsSink{broadcaster: broadcaster, log: log}
}

func (w WsSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessagePosted:
		w.broadcaster.Broadcast(ctx, evt.Room, protocol.NewChatMessage(toMessage(evt)), "")
		return nil
	case event.MessageModerated:
		msg := domain.Message{
			ID:         evt.ID,
			Room:       evt.Room,
			SenderID:   evt.Author,
			SenderName: evt.AuthorName,
			Content:    evt.Content,
			Language:   evt.Language,
			CreatedAt:  evt.At,
		}
		w.broadcaster.Broadcast(ctx, evt.Room, protocol.NewModerated(msg, evt.Violations), "")
		return nil
	default:
		w.log.Debug(fmt.Sprintf("Not implemented event : %v", evt))
		return nil
	}
}

func toMessage(event event.MessagePosted) domain.Message {
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
