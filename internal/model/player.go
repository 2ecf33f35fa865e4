package model

import "time"

// Player represents a participant in a session
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	GameCode  string    `json:"gameCode"`
	Connected bool      `json:"connected"`
	TeamID    TeamSlot  `json:"teamId,omitempty"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// PlayerJoinResponse is returned when a player joins a session
type PlayerJoinResponse struct {
	Player *Player `json:"player"`
	Token  string  `json:"token"`
}
