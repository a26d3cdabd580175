package event

import "time"

// Type discriminates technical events on the telemetry channel.
type Type string

// Event is the envelope moved across internal channels.
// Payload holds one of the typed payloads of this package.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}
