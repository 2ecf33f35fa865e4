package model

import "time"

// TeamResult is a team's final line in an archived game
type TeamResult struct {
	TeamID      TeamSlot `json:"teamId" bson:"teamId"`
	Name        string   `json:"name" bson:"name"`
	Score       int      `json:"score" bson:"score"`
	RoundScores [4]int   `json:"roundScores" bson:"roundScores"`
}

// GameResult is frozen when a game finishes
type GameResult struct {
	Code       string       `json:"code" bson:"code"`
	Teams      []TeamResult `json:"teams" bson:"teams"`
	Winner     TeamSlot     `json:"winner,omitempty" bson:"winner,omitempty"` // Empty on a tie
	TossUp     TeamSlot     `json:"tossUpWinner,omitempty" bson:"tossUpWinner,omitempty"`
	Players    int          `json:"players" bson:"players"`
	FinishedAt time.Time    `json:"finishedAt" bson:"finishedAt"`
}

// NewGameResult summarises a game
func NewGameResult(g *Game, finishedAt time.Time) *GameResult {
	res := &GameResult{
		Code:       g.Code,
		Players:    len(g.Players),
		FinishedAt: finishedAt,
	}
	for _, t := range g.Teams {
		res.Teams = append(res.Teams, TeamResult{
			TeamID:      t.ID,
			Name:        t.Name,
			Score:       t.Score,
			RoundScores: t.RoundScores,
		})
	}
	switch {
	case g.Teams[0].Score > g.Teams[1].Score:
		res.Winner = Team1
	case g.Teams[1].Score > g.Teams[0].Score:
		res.Winner = Team2
	}
	if g.TossUpWinner != nil {
		res.TossUp = g.TossUpWinner.TeamID
	}
	return res
}
