// Package domain contains core concepts of the routing layer.
// This file defines the authenticated identity attached to a connection.
// No runtime, network, or UI logic should be added here.
package domain

type Principal struct {
	UserID string
	Name   string
	Avatar string
}

// ConnectionKind states which planes a connection participates in.
type ConnectionKind string

const (
	KindChat  ConnectionKind = "chat"
	KindVideo ConnectionKind = "video"
	KindBoth  ConnectionKind = "both"
)

func ToConnectionKind(kind string) ConnectionKind {
	switch kind {
	case "chat":
		return KindChat
	case "video":
		return KindVideo
	default:
		return KindBoth
	}
}
