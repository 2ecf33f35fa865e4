package model

import "github.com/golang-jwt/jwt/v5"

// HostClaims are JWT claims identifying the host of one session
type HostClaims struct {
	GameCode string `json:"gameCode"`
	HostID   string `json:"hostId"`
	jwt.RegisteredClaims
}

// PlayerClaims are JWT claims for session-scoped player tokens
type PlayerClaims struct {
	GameCode string `json:"gameCode"`
	PlayerID string `json:"playerId"`
	jwt.RegisteredClaims
}
