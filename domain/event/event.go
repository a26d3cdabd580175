package event

import (
	"time"

	"github.com/google/uuid"

	"huddle/domain"
)

// DomainEvent is anything the rooms publish on the bus.
// Every event is scoped to the room it happened in.
type DomainEvent interface {
	RoomID() domain.RoomID
}

type MessagePosted struct {
	ID         uuid.UUID
	Room       domain.RoomID
	Author     string
	AuthorName string
	Content    string
	Language   string
	At         time.Time
}

func (m MessagePosted) RoomID() domain.RoomID {
	return m.Room
}

// MessageModerated replaces MessagePosted when the filter rejects
// the content. Content carries the redacted form.
type MessageModerated struct {
	ID         uuid.UUID
	Room       domain.RoomID
	Author     string
	AuthorName string
	Content    string
	Violations []string
	Language   string
	At         time.Time
}

func (m MessageModerated) RoomID() domain.RoomID {
	return m.Room
}

type UserJoined struct {
	Room         domain.RoomID
	ConnectionID string
	UserID       string
	UserName     string
	Participants int
	At           time.Time
}

func (u UserJoined) RoomID() domain.RoomID {
	return u.Room
}

type UserLeft struct {
	Room         domain.RoomID
	ConnectionID string
	UserID       string
	UserName     string
	Participants int
	At           time.Time
}

func (u UserLeft) RoomID() domain.RoomID {
	return u.Room
}

type PresenceChanged struct {
	Room     domain.RoomID
	UserID   string
	Action   string
	Value    bool
	Presence domain.Presence
	At       time.Time
}

func (p PresenceChanged) RoomID() domain.RoomID {
	return p.Room
}

type TypingChanged struct {
	Room     domain.RoomID
	UserID   string
	UserName string
	IsTyping bool
	At       time.Time
}

func (t TypingChanged) RoomID() domain.RoomID {
	return t.Room
}

type RecordingStarted struct {
	Room   domain.RoomID
	ByID   string
	ByName string
	At     time.Time
}

func (r RecordingStarted) RoomID() domain.RoomID {
	return r.Room
}

type RecordingStopped struct {
	Room   domain.RoomID
	ByID   string
	ByName string
	At     time.Time
}

func (r RecordingStopped) RoomID() domain.RoomID {
	return r.Room
}
