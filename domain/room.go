package domain

import "time"

type RoomID string

func (r RoomID) String() string {
	return string(r)
}

const maxRoomIDLength = 64

// ParseRoomID admits the external room identifier. Room ids end up as
// storage key segments, so the charset excludes the ':' separator and
// anything else that is not [a-zA-Z0-9_-].
func ParseRoomID(s string) (RoomID, bool) {
	if s == "" || len(s) > maxRoomIDLength {
		return "", false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return "", false
		}
	}
	return RoomID(s), true
}

// RoomStats is a point-in-time view of a live room.
// It is assembled by the room itself, never mutated by readers.
// The signaling counters are filled in afterwards by the service,
// the room does not know about the relay.
type RoomStats struct {
	ID              RoomID
	Participants    int
	Capacity        int
	Typing          int
	Recording       bool
	SignalExchanges int
	SignalsRelayed  int
	CreatedAt       time.Time
	Uptime          time.Duration
}
