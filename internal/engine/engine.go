// Package engine holds the pure round/turn transitions of a game.
// Callers validate preconditions and hold the session lock; nothing here
// blocks, broadcasts or schedules.
package engine

import (
	"errors"

	"feudlive/internal/model"
)

var (
	ErrNoQuestion   = errors.New("no question for round")
	ErrInvalidRound = errors.New("invalid round")
	ErrInvalidTeam  = errors.New("invalid team")
	ErrUnknownSlot  = errors.New("unknown ledger slot")
	ErrUnknownCard  = errors.New("unknown answer index")
)

// Checkpoint identifies the exact point of play a delayed effect was
// scheduled for. An effect whose checkpoint no longer matches is stale.
type Checkpoint struct {
	Status model.GameStatus
	Round  int
	Index  int
	Epoch  int
}

// CheckpointOf captures the current point of play
func CheckpointOf(g *model.Game) Checkpoint {
	return Checkpoint{
		Status: g.Status,
		Round:  g.CurrentRound,
		Index:  g.CurrentQuestionIndex,
		Epoch:  g.Epoch,
	}
}

// Matches reports whether g is still at the checkpoint
func (c Checkpoint) Matches(g *model.Game) bool {
	return g != nil && CheckpointOf(g) == c
}

// Multiplier is the score multiplier of a round; lightning plays at x4
func Multiplier(round int) int {
	if round == model.RoundLightning {
		return model.LightningMultiplier
	}
	if model.IsStandardRound(round) {
		return round
	}
	return 1
}

// StartGame moves a waiting game into the toss-up
func StartGame(g *model.Game) {
	g.Status = model.StatusActive
	g.CurrentRound = model.RoundTossUp
	g.CurrentQuestionIndex = 0
	g.BuzzedTeamID = model.NoTeam
	g.ActiveTeamID = model.NoTeam
	g.GameState = model.NewGameState()
	setActive(g, model.NoTeam)
}

// RevealAll turns every card of the current question face up
func RevealAll(g *model.Game) {
	if q := g.CurrentQuestion(); q != nil {
		for i := range q.Answers {
			q.Answers[i].Revealed = true
		}
	}
}

// StartNextRound leaves round-summary for the next round. The toss-up
// winner takes the first turn of the first round played after it, once.
func StartNextRound(g *model.Game) error {
	round := g.CurrentRound + 1
	if round > model.RoundLightning {
		return ErrInvalidRound
	}

	turn := model.Team1
	if g.TossUpWinner != nil && !g.TossUpWinnerApplied {
		turn = g.TossUpWinner.TeamID
		g.TossUpWinnerApplied = true
	}
	if round == model.RoundLightning {
		turn = model.NoTeam
	}

	idx := g.QuestionIndex(round, turn, 1)
	if idx < 0 && turn != model.NoTeam {
		// The seeded team has nothing to play this round; let the other open.
		turn = turn.Other()
		idx = g.QuestionIndex(round, turn, 1)
	}
	if idx < 0 {
		return ErrNoQuestion
	}

	g.Status = model.StatusActive
	g.CurrentRound = round
	g.CurrentQuestionIndex = idx
	beginRound(g, turn)
	return nil
}

// EndRound closes the current round and reports whether the game is over.
// The round's points are frozen into a snapshot.
func EndRound(g *model.Game) (finished bool) {
	round := g.CurrentRound
	if round >= model.FirstStandardRound {
		snapshotRound(g, round)
	}

	st := &g.GameState
	st.CanAdvance = false
	st.WaitingForOtherTeam = false
	st.CurrentTurn = model.NoTeam
	g.BuzzedTeamID = model.NoTeam
	g.ActiveTeamID = model.NoTeam
	setActive(g, model.NoTeam)

	if round == model.RoundLightning {
		g.Status = model.StatusFinished
		return true
	}
	g.Status = model.StatusRoundSummary
	return false
}

// SetPaused flips the UI timer gate
func SetPaused(g *model.Game, paused bool) {
	g.PauseTimer = paused
}

// Reset returns the game to waiting with every score, ledger entry and
// reveal cleared. Teams and players are kept.
func Reset(g *model.Game) {
	g.Status = model.StatusWaiting
	g.CurrentRound = model.RoundTossUp
	g.CurrentQuestionIndex = 0
	g.BuzzedTeamID = model.NoTeam
	g.ActiveTeamID = model.NoTeam
	g.TossUpWinner = nil
	g.TossUpWinnerApplied = false
	g.PauseTimer = false
	g.GameState = model.NewGameState()

	for i := range g.Teams {
		t := &g.Teams[i]
		t.Score = 0
		t.CurrentRoundScore = 0
		t.RoundScores = [4]int{}
		t.Active = false
	}

	hideAll(g.TossUpQuestion)
	for i := range g.Questions {
		hideAll(&g.Questions[i])
	}
	g.Epoch++
}

// SkipToRound jumps straight into round with team holding the turn.
// The target round and every later one are replayed from zero, so their
// ledgers, reveals and banked points are cleared.
func SkipToRound(g *model.Game, round int, team model.TeamSlot) error {
	if round < model.FirstStandardRound || round > model.RoundLightning {
		return ErrInvalidRound
	}
	if round == model.RoundLightning {
		team = model.NoTeam
	} else if !team.Valid() {
		return ErrInvalidTeam
	}

	idx := g.QuestionIndex(round, team, 1)
	if idx < 0 {
		return ErrNoQuestion
	}

	st := &g.GameState
	for r := round; r <= model.RoundLightning; r++ {
		st.QuestionData.ResetRound(r)
		for i := range g.Teams {
			t := &g.Teams[i]
			t.Score -= t.RoundScores[r-1]
			t.RoundScores[r-1] = 0
		}
		for i := range g.Questions {
			if g.Questions[i].Round == r {
				hideAll(&g.Questions[i])
			}
		}
	}

	// Snapshots are rebuilt from the rounds that stay banked
	st.RoundScores = st.RoundScores[:0]
	for r := model.FirstStandardRound; r < round; r++ {
		snapshotRound(g, r)
	}

	// The host picked the opening team, so the toss-up seed is spent
	if g.TossUpWinner != nil {
		g.TossUpWinnerApplied = true
	}

	g.Status = model.StatusActive
	g.CurrentRound = round
	g.CurrentQuestionIndex = idx
	beginRound(g, team)
	g.Epoch++
	return nil
}

// beginRound clears the per-round play state and hands team the turn
func beginRound(g *model.Game, turn model.TeamSlot) {
	st := &g.GameState
	st.CurrentTurn = turn
	st.QuestionsAnswered = map[model.TeamSlot]int{model.Team1: 0, model.Team2: 0}
	st.CanAdvance = false
	st.LightningAttempts = map[model.TeamSlot]bool{}
	st.WaitingForOtherTeam = false

	g.BuzzedTeamID = model.NoTeam
	g.ActiveTeamID = turn
	for i := range g.Teams {
		g.Teams[i].CurrentRoundScore = 0
	}
	setActive(g, turn)
}

func setActive(g *model.Game, team model.TeamSlot) {
	for i := range g.Teams {
		g.Teams[i].Active = g.Teams[i].ID == team
	}
}

func snapshotRound(g *model.Game, round int) {
	scores := make(map[model.TeamSlot]int, len(g.Teams))
	for _, t := range g.Teams {
		scores[t.ID] = t.RoundScores[round-1]
	}
	st := &g.GameState
	for i := range st.RoundScores {
		if st.RoundScores[i].Round == round {
			st.RoundScores[i].Scores = scores
			return
		}
	}
	st.RoundScores = append(st.RoundScores, model.RoundScoreSnapshot{Round: round, Scores: scores})
}

func hideAll(q *model.Question) {
	if q == nil {
		return
	}
	for i := range q.Answers {
		q.Answers[i].Revealed = false
	}
}

// award banks points for team in the current round
func award(g *model.Game, team model.TeamSlot, round, points int) {
	t := g.Team(team)
	if t == nil || round < model.FirstStandardRound {
		return
	}
	t.Score += points
	t.RoundScores[round-1] += points
	if round == g.CurrentRound {
		t.CurrentRoundScore += points
	}
}
