package protocol

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"huddle/domain"
)

// Inbound payload shapes, one per frame type.

type ChatMessagePayload struct {
	Content string `json:"content"`
}

type TypingPayload struct {
	RoomID   string `json:"room_id"`
	IsTyping bool   `json:"is_typing"`
}

// SignalPayload is the routing head of a signaling frame. The SDP or
// candidate body next to it stays opaque end to end, so the dispatcher
// forwards the raw data as is.
type SignalPayload struct {
	TargetUserID string `json:"target_user_id,omitempty"`
}

type MediaStreamPayload struct {
	EventType  string `json:"event_type"`
	StreamType string `json:"stream_type"`
	StreamID   string `json:"stream_id,omitempty"`
}

const (
	StreamStarted = "stream_started"
	StreamEnded   = "stream_ended"
	StreamPaused  = "stream_paused"

	StreamAudio  = "audio"
	StreamVideo  = "video"
	StreamScreen = "screen"
)

type UserActionPayload struct {
	Action string `json:"action"`
	Value  any    `json:"value"`
}

type RecordingControlPayload struct {
	Action string `json:"action"`
}

const (
	RecordingStart = "start"
	RecordingStop  = "stop"
)

// Outbound data shapes.

type UserData struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type PresenceData struct {
	Muted         bool `json:"muted"`
	VideoEnabled  bool `json:"video_enabled"`
	ScreenSharing bool `json:"screen_sharing"`
}

type ParticipantData struct {
	ConnectionID string       `json:"connection_id"`
	UserID       string       `json:"user_id"`
	Name         string       `json:"name"`
	Avatar       string       `json:"avatar,omitempty"`
	Kind         string       `json:"kind"`
	Presence     PresenceData `json:"presence"`
	JoinedAt     time.Time    `json:"joined_at"`
}

type MessageData struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	Language   string    `json:"language,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ModeratedData struct {
	MessageData
	Violations []string `json:"violations"`
}

type MembershipData struct {
	RoomID       string   `json:"room_id"`
	User         UserData `json:"user"`
	Participants int      `json:"participants"`
}

type TypingData struct {
	RoomID      string   `json:"room_id"`
	UserID      string   `json:"user_id"`
	UserName    string   `json:"user_name"`
	IsTyping    bool     `json:"is_typing"`
	TypingUsers []string `json:"typing_users"`
}

type UserActionData struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
	Action string `json:"action"`
	Value  any    `json:"value"`
}

type SignalData struct {
	RoomID     string          `json:"room_id"`
	SenderID   string          `json:"sender_id"`
	SenderName string          `json:"sender_name"`
	TargetID   string          `json:"target_id,omitempty"`
	Signal     json.RawMessage `json:"signal"`
}

type MediaStreamData struct {
	RoomID     string `json:"room_id"`
	UserID     string `json:"user_id"`
	EventType  string `json:"event_type"`
	StreamType string `json:"stream_type"`
	StreamID   string `json:"stream_id,omitempty"`
}

type RecordingStartedData struct {
	RoomID      string `json:"room_id"`
	RecordingID string `json:"recording_id"`
	ByID        string `json:"by_id"`
	ByName      string `json:"by_name"`
}

type RecordingStoppedData struct {
	RoomID          string `json:"room_id"`
	RecordingID     string `json:"recording_id"`
	ByID            string `json:"by_id"`
	ByName          string `json:"by_name"`
	DurationSeconds int64  `json:"duration_seconds"`
	Entries         uint64 `json:"entries"`
}

type ParticipantsListData struct {
	RoomID       string            `json:"room_id"`
	YourID       string            `json:"your_id,omitempty"`
	Participants []ParticipantData `json:"participants"`
}

type RoomStatsData struct {
	RoomID          string    `json:"room_id"`
	Participants    int       `json:"participants"`
	Capacity        int       `json:"capacity"`
	Typing          int       `json:"typing"`
	Recording       bool      `json:"recording"`
	SignalExchanges int       `json:"signal_exchanges"`
	SignalsRelayed  int       `json:"signals_relayed"`
	CreatedAt       time.Time `json:"created_at"`
	UptimeSeconds   int64     `json:"uptime_seconds"`
}

type ErrorData struct {
	Message string `json:"message"`
}

func toPresenceData(p domain.Presence) PresenceData {
	return PresenceData{
		Muted:         p.Muted,
		VideoEnabled:  p.VideoEnabled,
		ScreenSharing: p.ScreenSharing,
	}
}

func toParticipantData(p domain.Participant) ParticipantData {
	return ParticipantData{
		ConnectionID: p.ConnectionID,
		UserID:       p.UserID,
		Name:         p.Name,
		Avatar:       p.Avatar,
		Kind:         string(p.Kind),
		Presence:     toPresenceData(p.Presence),
		JoinedAt:     p.JoinedAt,
	}
}

// Constructors for every outbound frame.

func NewChatMessage(msg domain.Message) Envelope {
	return newEnvelope(TypeChatMessage, MessageData{
		ID:         msg.ID.String(),
		RoomID:     msg.Room.String(),
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Content:    msg.Content,
		Language:   msg.Language,
		CreatedAt:  msg.CreatedAt,
	})
}

func NewModerated(msg domain.Message, violations []string) Envelope {
	return newEnvelope(TypeModerated, ModeratedData{
		MessageData: MessageData{
			ID:         msg.ID.String(),
			RoomID:     msg.Room.String(),
			SenderID:   msg.SenderID,
			SenderName: msg.SenderName,
			Content:    msg.Content,
			Language:   msg.Language,
			CreatedAt:  msg.CreatedAt,
		},
		Violations: violations,
	})
}

func NewUserJoined(room domain.RoomID, user domain.Principal, participants int) Envelope {
	return newEnvelope(TypeUserJoined, MembershipData{
		RoomID:       room.String(),
		User:         UserData{UserID: user.UserID, Name: user.Name, Avatar: user.Avatar},
		Participants: participants,
	})
}

func NewUserLeft(room domain.RoomID, user domain.Principal, participants int) Envelope {
	return newEnvelope(TypeUserLeft, MembershipData{
		RoomID:       room.String(),
		User:         UserData{UserID: user.UserID, Name: user.Name, Avatar: user.Avatar},
		Participants: participants,
	})
}

func NewParticipantsList(room domain.RoomID, yourID string, participants []domain.Participant) Envelope {
	return newEnvelope(TypeParticipantsList, ParticipantsListData{
		RoomID: room.String(),
		YourID: yourID,
		Participants: lo.Map(participants, func(item domain.Participant, _ int) ParticipantData {
			return toParticipantData(item)
		}),
	})
}

func NewRoomStats(stats domain.RoomStats) Envelope {
	return newEnvelope(TypeRoomStats, RoomStatsData{
		RoomID:          stats.ID.String(),
		Participants:    stats.Participants,
		Capacity:        stats.Capacity,
		Typing:          stats.Typing,
		Recording:       stats.Recording,
		SignalExchanges: stats.SignalExchanges,
		SignalsRelayed:  stats.SignalsRelayed,
		CreatedAt:       stats.CreatedAt,
		UptimeSeconds:   int64(stats.Uptime.Seconds()),
	})
}

func NewTyping(room domain.RoomID, userID, userName string, isTyping bool, typingUsers []string) Envelope {
	return newEnvelope(TypeUserTyping, TypingData{
		RoomID:      room.String(),
		UserID:      userID,
		UserName:    userName,
		IsTyping:    isTyping,
		TypingUsers: typingUsers,
	})
}

func NewUserAction(room domain.RoomID, userID, action string, value any) Envelope {
	return newEnvelope(TypeUserAction, UserActionData{
		RoomID: room.String(),
		UserID: userID,
		Action: action,
		Value:  value,
	})
}

func NewSignal(kind string, room domain.RoomID, senderID, senderName, targetID string, signal json.RawMessage) Envelope {
	return newEnvelope(kind, SignalData{
		RoomID:     room.String(),
		SenderID:   senderID,
		SenderName: senderName,
		TargetID:   targetID,
		Signal:     signal,
	})
}

func NewMediaStreamEvent(room domain.RoomID, userID string, p MediaStreamPayload) Envelope {
	return newEnvelope(TypeMediaStreamEvent, MediaStreamData{
		RoomID:     room.String(),
		UserID:     userID,
		EventType:  p.EventType,
		StreamType: p.StreamType,
		StreamID:   p.StreamID,
	})
}

func NewRecordingStarted(room domain.RoomID, recordingID, byID, byName string) Envelope {
	return newEnvelope(TypeRecordingStarted, RecordingStartedData{
		RoomID:      room.String(),
		RecordingID: recordingID,
		ByID:        byID,
		ByName:      byName,
	})
}

func NewRecordingStopped(room domain.RoomID, recordingID, byID, byName string, duration time.Duration, entries uint64) Envelope {
	return newEnvelope(TypeRecordingStopped, RecordingStoppedData{
		RoomID:          room.String(),
		RecordingID:     recordingID,
		ByID:            byID,
		ByName:          byName,
		DurationSeconds: int64(duration.Seconds()),
		Entries:         entries,
	})
}

func NewError(message string) Envelope {
	return newEnvelope(TypeError, ErrorData{Message: message})
}

func NewPong() Envelope {
	return newEnvelope(TypePong, struct{}{})
}
