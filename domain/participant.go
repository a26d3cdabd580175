// Package domain contains core concepts of the routing layer.
// This file defines Participant snapshots handed to joiners.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Participant is the room-side view of one member, safe to copy.
type Participant struct {
	ConnectionID string
	UserID       string
	Name         string
	Avatar       string
	Kind         ConnectionKind
	Presence     Presence
	JoinedAt     time.Time
}
