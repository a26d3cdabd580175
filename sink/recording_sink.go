package sink

import (
	"context"
	"log/slog"

	"huddle/domain"
	"huddle/domain/event"
	"huddle/recording"
)

// RecordingSink copies room activity onto the tape of whichever room
// is being recorded. The manager ignores rooms without a session, so
// this sink can safely observe every room at once.
type RecordingSink struct {
	manager *recording.Manager
	log     *slog.Logger
}

func NewRecordingSink(manager *recording.Manager, log *slog.Logger) RecordingSink {
	return RecordingSink{manager: manager, log: log}
}

func (r RecordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessagePosted:
		return r.manager.Append(evt.Room, "chat", evt)
	case event.MessageModerated:
		return r.manager.Append(evt.Room, "moderated", evt)
	case event.UserJoined:
		return r.manager.Append(evt.Room, "join", evt)
	case event.UserLeft:
		if err := r.manager.Append(evt.Room, "leave", evt); err != nil {
			return err
		}
		return r.closeIfOrphaned(evt)
	case event.PresenceChanged:
		return r.manager.Append(evt.Room, "action", evt)
	default:
		// Typing chatter and recording control stay off the tape.
		return nil
	}
}

// closeIfOrphaned stops a running session whose room just emptied out.
// The room actor is already gone at this point, so nobody else would.
func (r RecordingSink) closeIfOrphaned(evt event.UserLeft) error {
	if evt.Participants > 0 || !r.manager.Active(evt.Room) {
		return nil
	}
	r.log.Info("room emptied, closing its recording", "room_id", evt.Room)
	_, err := r.manager.Stop(evt.Room, domain.Principal{UserID: "system", Name: "system"})
	return err
}
