package domain

// Presence carries the capability flags of one connection.
// Values are owned by the room session and copied into snapshots.
type Presence struct {
	Muted         bool
	VideoEnabled  bool
	ScreenSharing bool
}

// DefaultPresence is the state assigned on join: audio open,
// video on, no screen share.
func DefaultPresence() Presence {
	return Presence{
		Muted:         false,
		VideoEnabled:  true,
		ScreenSharing: false,
	}
}

// Known user_action identifiers. Anything else is routed untouched.
const (
	ActionMute        = "mute"
	ActionVideo       = "video"
	ActionScreenShare = "screen_share"
)

// Apply folds a user action into the presence flags.
// It reports whether the action changed anything presence related.
func (p *Presence) Apply(action string, value bool) bool {
	switch action {
	case ActionMute:
		p.Muted = value
	case ActionVideo:
		p.VideoEnabled = value
	case ActionScreenShare:
		p.ScreenSharing = value
	default:
		return false
	}
	return true
}

// ParseUserAction maps a wire level action verb onto the presence flag
// it drives. Verbs with no presence meaning report false and are routed
// to the room untouched.
func ParseUserAction(wire string) (string, bool, bool) {
	switch wire {
	case "mute":
		return ActionMute, true, true
	case "unmute":
		return ActionMute, false, true
	case "video_on":
		return ActionVideo, true, true
	case "video_off":
		return ActionVideo, false, true
	case "screen_share_start":
		return ActionScreenShare, true, true
	case "screen_share_stop":
		return ActionScreenShare, false, true
	default:
		return "", false, false
	}
}

// StreamAction translates a media stream transition into the presence
// action it implies. An ended audio stream means muted, a started
// video or screen stream means enabled. Paused streams keep their
// flags, the event is only routed.
func StreamAction(streamType, eventType string) (string, bool, bool) {
	if eventType != "stream_started" && eventType != "stream_ended" {
		return "", false, false
	}
	switch streamType {
	case "audio":
		return ActionMute, eventType == "stream_ended", true
	case "video":
		return ActionVideo, eventType == "stream_started", true
	case "screen":
		return ActionScreenShare, eventType == "stream_started", true
	default:
		return "", false, false
	}
}
