package errors

import "fmt"

var (
	ErrAuthenticationFailed = fmt.Errorf("authentication failed")
	ErrRoomFull             = fmt.Errorf("room is full")
	ErrRoomClosed           = fmt.Errorf("room already closed")
	ErrUnknownFrameType     = fmt.Errorf("unknown frame type")
	ErrMalformedFrame       = fmt.Errorf("malformed frame")
	ErrHandlerPanic         = fmt.Errorf("handler panic")
	ErrWorkerPanic          = fmt.Errorf("worker panic")
	ErrConnectionClosed     = fmt.Errorf("connection closed")
	ErrRecordingActive      = fmt.Errorf("recording already active")
	ErrNoActiveRecording    = fmt.Errorf("no active recording")
	ErrEmptyWords           = fmt.Errorf("no words have been found")
	ErrInvalidPayload       = fmt.Errorf("invalid event payload")
)
