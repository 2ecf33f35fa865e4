package model

import "time"

type GameStatus string

const (
	StatusWaiting      GameStatus = "waiting"
	StatusActive       GameStatus = "active"
	StatusRoundSummary GameStatus = "round-summary"
	StatusFinished     GameStatus = "finished"
)

const (
	RoundTossUp         = 0
	FirstStandardRound  = 1
	LastStandardRound   = 3
	RoundLightning      = 4
	LightningMultiplier = 4
)

// IsStandardRound reports whether round is one of the turn-based rounds
func IsStandardRound(round int) bool {
	return round >= FirstStandardRound && round <= LastStandardRound
}

// TossUpWinner is set once, when the toss-up resolves
type TossUpWinner struct {
	TeamID   TeamSlot `json:"teamId"`
	TeamName string   `json:"teamName"`
}

// TossUpAttempt is one team's toss-up submission
type TossUpAttempt struct {
	Answer  string `json:"answer"`
	Score   int    `json:"score"`
	Matched bool   `json:"matched"`
}

// TossUpState tracks the two-submission toss-up round
type TossUpState struct {
	Submissions    map[TeamSlot]*TossUpAttempt `json:"submissions"`
	FirstBuzz      TeamSlot                    `json:"firstBuzz,omitempty"`
	FirstSubmitter TeamSlot                    `json:"firstSubmitter,omitempty"`
	Resolved       bool                        `json:"resolved"`
}

// RoundScoreSnapshot freezes each team's points for a finished round
type RoundScoreSnapshot struct {
	Round  int              `json:"round"`
	Scores map[TeamSlot]int `json:"scores"`
}

// GameState is the nested per-round play state
type GameState struct {
	CurrentTurn         TeamSlot             `json:"currentTurn"`
	QuestionsAnswered   map[TeamSlot]int     `json:"questionsAnswered"`
	CanAdvance          bool                 `json:"canAdvance"`
	QuestionData        Ledger               `json:"questionData"`
	RoundScores         []RoundScoreSnapshot `json:"roundScores"`
	TossUp              TossUpState          `json:"tossUp"`
	LightningAttempts   map[TeamSlot]bool    `json:"lightningAttempts"` // Current lightning question only
	WaitingForOtherTeam bool                 `json:"waitingForOtherTeam"`
}

// NewGameState returns a zeroed play state
func NewGameState() GameState {
	return GameState{
		QuestionsAnswered: map[TeamSlot]int{Team1: 0, Team2: 0},
		QuestionData:      NewLedger(),
		RoundScores:       []RoundScoreSnapshot{},
		TossUp:            TossUpState{Submissions: map[TeamSlot]*TossUpAttempt{}},
		LightningAttempts: map[TeamSlot]bool{},
	}
}

// Game is the authoritative state of one session
type Game struct {
	Code                 string        `json:"code"`
	HostID               string        `json:"-"` // Connection stamped by host-join
	Status               GameStatus    `json:"status"`
	CurrentRound         int           `json:"currentRound"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	Questions            []Question    `json:"questions"`
	TossUpQuestion       *Question     `json:"tossUpQuestion,omitempty"`
	Teams                [2]Team       `json:"teams"`
	Players              []string      `json:"players"`
	BuzzedTeamID         TeamSlot      `json:"buzzedTeamId"`
	ActiveTeamID         TeamSlot      `json:"activeTeamId"`
	TossUpWinner         *TossUpWinner `json:"tossUpWinner"`
	TossUpWinnerApplied  bool          `json:"-"`
	GameState            GameState     `json:"gameState"`
	PauseTimer           bool          `json:"pauseTimer"`
	DisableForceNext     bool          `json:"disableForceNext"`
	Epoch                int           `json:"epoch"`
	CreatedAt            time.Time     `json:"createdAt"`
}

// Team returns the team for a slot, or nil
func (g *Game) Team(slot TeamSlot) *Team {
	i := slot.Index()
	if i < 0 {
		return nil
	}
	return &g.Teams[i]
}

// TeamOf returns the slot playerID belongs to
func (g *Game) TeamOf(playerID string) TeamSlot {
	for i := range g.Teams {
		if g.Teams[i].HasMember(playerID) {
			return g.Teams[i].ID
		}
	}
	return NoTeam
}

// CurrentQuestion returns the question in play, or nil
func (g *Game) CurrentQuestion() *Question {
	if g.CurrentRound == RoundTossUp {
		return g.TossUpQuestion
	}
	if g.CurrentQuestionIndex < 0 || g.CurrentQuestionIndex >= len(g.Questions) {
		return nil
	}
	return &g.Questions[g.CurrentQuestionIndex]
}

// QuestionIndex finds a question by round, team and slot; shared questions match any team.
// Returns -1 when absent.
func (g *Game) QuestionIndex(round int, team TeamSlot, slot int) int {
	for i, q := range g.Questions {
		if q.Round != round || q.QuestionNumber != slot {
			continue
		}
		if q.TeamAssignment == AssignShared || TeamSlot(q.TeamAssignment) == team {
			return i
		}
	}
	return -1
}

// QuestionAt finds (round, team, slot) and returns the question itself
func (g *Game) QuestionAt(round int, team TeamSlot, slot int) *Question {
	if round == RoundTossUp {
		return g.TossUpQuestion
	}
	i := g.QuestionIndex(round, team, slot)
	if i < 0 {
		return nil
	}
	return &g.Questions[i]
}

// Clone deep-copies the game so it can be read outside the session lock
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	cp := *g
	cp.Questions = make([]Question, len(g.Questions))
	for i := range g.Questions {
		cp.Questions[i] = *g.Questions[i].Clone()
	}
	cp.TossUpQuestion = g.TossUpQuestion.Clone()
	for i := range g.Teams {
		cp.Teams[i].Members = append([]string(nil), g.Teams[i].Members...)
	}
	cp.Players = append([]string(nil), g.Players...)
	if g.TossUpWinner != nil {
		w := *g.TossUpWinner
		cp.TossUpWinner = &w
	}
	cp.GameState = g.GameState.Clone()
	return &cp
}

// Clone deep-copies the nested state
func (s GameState) Clone() GameState {
	cp := s
	cp.QuestionsAnswered = make(map[TeamSlot]int, len(s.QuestionsAnswered))
	for k, v := range s.QuestionsAnswered {
		cp.QuestionsAnswered[k] = v
	}
	cp.QuestionData = s.QuestionData.Clone()
	cp.RoundScores = make([]RoundScoreSnapshot, len(s.RoundScores))
	for i, snap := range s.RoundScores {
		scores := make(map[TeamSlot]int, len(snap.Scores))
		for k, v := range snap.Scores {
			scores[k] = v
		}
		cp.RoundScores[i] = RoundScoreSnapshot{Round: snap.Round, Scores: scores}
	}
	cp.TossUp.Submissions = make(map[TeamSlot]*TossUpAttempt, len(s.TossUp.Submissions))
	for k, v := range s.TossUp.Submissions {
		if v != nil {
			a := *v
			cp.TossUp.Submissions[k] = &a
		}
	}
	cp.LightningAttempts = make(map[TeamSlot]bool, len(s.LightningAttempts))
	for k, v := range s.LightningAttempts {
		cp.LightningAttempts[k] = v
	}
	return cp
}
