// Package protocol fixes the wire format of the routing layer.
// One envelope shape covers every outbound frame: type, data, timestamp.
// Inbound frames share the same two-field head with an opaque data part.
package protocol

import (
	"encoding/json"
	"time"
)

// Inbound frame types accepted by the dispatcher.
const (
	TypeChatMessage      = "chat_message"
	TypeTyping           = "typing"
	TypeWebRTCOffer      = "webrtc_offer"
	TypeWebRTCAnswer     = "webrtc_answer"
	TypeICECandidate     = "ice_candidate"
	TypeUserAction       = "user_action"
	TypeMediaStreamEvent = "media_stream_event"
	TypeRecordingControl = "recording_control"
	TypePing             = "ping"
	TypeGetParticipants  = "get_participants"
	TypeGetRoomStats     = "get_room_stats"
)

// Outbound only frame types.
const (
	TypePong             = "pong"
	TypeUserJoined       = "user_joined"
	TypeUserLeft         = "user_left"
	TypeUserTyping       = "user_typing"
	TypeParticipantsList = "participants_list"
	TypeRoomStats        = "room_stats"
	TypeModerated        = "moderated"
	TypeRecordingStarted = "recording_started"
	TypeRecordingStopped = "recording_stopped"
	TypeError            = "error"
)

// Envelope is the canonical outbound frame.
type Envelope struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Frame is an inbound client frame before payload decoding.
// Data stays raw until the dispatcher knows the type.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newEnvelope(frameType string, data any) Envelope {
	return Envelope{
		Type:      frameType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
