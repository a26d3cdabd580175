// Package domain contains core concepts of the routing layer.
// This file defines Message events and related rules.
// Messages are immutable and validated before they reach this type.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event carrying its durable id.
type Message struct {
	ID         uuid.UUID // unique identifier
	Room       RoomID
	SenderID   string
	SenderName string
	Content    string
	Language   string
	CreatedAt  time.Time
}
