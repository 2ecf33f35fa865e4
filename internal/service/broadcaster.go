package service

import "feudlive/internal/model"

// Broadcaster delivers events to a session's subscribers (avoids import cycle).
// Implementations must serialize payload before returning.
type Broadcaster interface {
	Broadcast(gameCode string, event model.EventType, payload any)
	Unicast(gameCode, connID string, event model.EventType, payload any)
	DisconnectSession(gameCode string)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, model.EventType, any)       {}
func (nopBroadcaster) Unicast(string, string, model.EventType, any) {}
func (nopBroadcaster) DisconnectSession(string)                     {}
