//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks

// Package services holds the application layer between the transport
// and the runtime. A service call is one inbound frame worth of work.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"huddle/contract"
	"huddle/domain"
	"huddle/domain/event"
	"huddle/moderation"
	"huddle/observability"
	"huddle/repositories"
)

type IChatService interface {
	PostMessage(ctx context.Context, cmd domain.PostMessageCommand) error
	GetMessages(cmd domain.GetMessagesCommand) ([]domain.Message, *string, error)
}

// ChatService runs the chat pipeline in order: moderate, persist,
// notify. The store happens before anyone hears about the message, so
// every broadcast already carries the durable id.
type ChatService struct {
	filter     *moderation.Filter
	repo       repositories.IMessageRepository
	bus        contract.Notifier
	telemetry  chan<- event.Event
	monitoring *observability.Monitoring
	log        *slog.Logger
}

func NewChatService(
	filter *moderation.Filter,
	repo repositories.IMessageRepository,
	bus contract.Notifier,
	telemetry chan<- event.Event,
	monitoring *observability.Monitoring,
	log *slog.Logger) *ChatService {
	return &ChatService{
		filter:     filter,
		repo:       repo,
		bus:        bus,
		telemetry:  telemetry,
		monitoring: monitoring,
		log:        log,
	}
}

func (s *ChatService) PostMessage(ctx context.Context, cmd domain.PostMessageCommand) error {
	if s.monitoring != nil {
		s.monitoring.IncrMessage()
	}

	at := cmd.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	// 1. Moderation, synchronous and pure
	verdict := s.filter.Check(cmd.Content)
	s.reportLatency(cmd.Room, cmd.Sender.UserID, at)

	msg := domain.Message{
		ID:         uuid.New(),
		Room:       cmd.Room,
		SenderID:   cmd.Sender.UserID,
		SenderName: cmd.Sender.Name,
		Content:    verdict.FilteredContent,
		Language:   verdict.Language,
		CreatedAt:  at,
	}

	// 2. Persistence, only the redacted form ever touches disk
	if err := s.repo.StoreMessage(repositories.ToDiskMessage(msg)); err != nil {
		return fmt.Errorf("store message: %w", err)
	}

	// 3. Notification, Notify returns once every sink has seen it
	if verdict.IsValid {
		s.bus.Notify(ctx, event.MessagePosted{
			ID:         msg.ID,
			Room:       msg.Room,
			Author:     msg.SenderID,
			AuthorName: msg.SenderName,
			Content:    msg.Content,
			Language:   msg.Language,
			At:         msg.CreatedAt,
		})
		return nil
	}

	if s.monitoring != nil {
		s.monitoring.IncrModerated()
		s.monitoring.AddModeration(msg.ID.String(), msg.Room.String(), msg.SenderID, verdict.Violations)
	}
	s.log.Info("message moderated",
		"room_id", msg.Room,
		"author", msg.SenderID,
		"violations", verdict.Violations,
		"language", msg.Language,
	)

	s.bus.Notify(ctx, event.MessageModerated{
		ID:         msg.ID,
		Room:       msg.Room,
		Author:     msg.SenderID,
		AuthorName: msg.SenderName,
		Content:    msg.Content,
		Violations: verdict.Violations,
		Language:   msg.Language,
		At:         msg.CreatedAt,
	})
	return nil
}

func (s *ChatService) GetMessages(cmd domain.GetMessagesCommand) ([]domain.Message, *string, error) {
	disk, cursor, err := s.repo.GetMessages(cmd.Room, cmd.Cursor)
	if err != nil {
		return nil, nil, err
	}

	messages := lo.Map(disk, func(m repositories.DiskMessage, _ int) domain.Message {
		return m.ToDomain()
	})
	return messages, cursor, nil
}

// reportLatency feeds the telemetry channel without ever blocking the
// chat path. A full channel just loses the sample.
func (s *ChatService) reportLatency(room domain.RoomID, author string, start time.Time) {
	if s.telemetry == nil {
		return
	}
	select {
	case s.telemetry <- event.Event{
		Type:      event.ModerationLatencyType,
		CreatedAt: time.Now().UTC(),
		Payload:   event.ModerationLatency{Room: room, Author: author, At: start},
	}:
	default:
	}
}
