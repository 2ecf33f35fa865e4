package engine

import (
	"feudlive/internal/matcher"
	"feudlive/internal/model"
)

// LightningOutcome is what a lightning submission did to the question
type LightningOutcome int

const (
	LightningScored     LightningOutcome = iota // Question settled by a hit
	LightningWaiting                            // Miss, the other team still to play
	LightningBothMissed                         // Question settled with no hit
)

// LightningResult describes one lightning submission
type LightningResult struct {
	AnswerResult
	Outcome LightningOutcome
}

// SubmitLightning scores one team's attempt at the shared question. A hit
// closes the question for both teams and marks the opponent's slot as a miss.
func SubmitLightning(g *model.Game, team model.TeamSlot, text string) LightningResult {
	st := &g.GameState
	q := g.CurrentQuestion()
	round := g.CurrentRound
	other := team.Other()

	if st.LightningAttempts == nil {
		st.LightningAttempts = map[model.TeamSlot]bool{}
	}
	st.LightningAttempts[team] = true
	countAnswered(g, team)

	res := LightningResult{AnswerResult: AnswerResult{Team: team, Slot: q.QuestionNumber}}
	entry := st.QuestionData.Entry(team, round, q.QuestionNumber)

	if ans := matcher.Match(text, q.Answers); ans != nil {
		ans.Revealed = true
		cp := *ans
		res.Answer = &cp
		res.Points = ans.Score * Multiplier(round)
		record(g, team, round, entry, true, res.Points)
		if oe := st.QuestionData.Entry(other, round, q.QuestionNumber); oe != nil && oe.FirstAttemptCorrect == nil {
			*oe = model.LedgerEntry{FirstAttemptCorrect: model.BoolPtr(false)}
		}
		st.LightningAttempts[other] = true
		st.WaitingForOtherTeam = false
		st.CanAdvance = true
		res.Outcome = LightningScored
		return res
	}

	record(g, team, round, entry, false, 0)
	if !st.LightningAttempts[other] {
		st.WaitingForOtherTeam = true
		res.Outcome = LightningWaiting
		return res
	}

	RevealAll(g)
	st.WaitingForOtherTeam = false
	st.CanAdvance = true
	res.Outcome = LightningBothMissed
	return res
}

// CanSubmitLightning reports whether team may still attempt the current question
func CanSubmitLightning(g *model.Game, team model.TeamSlot) bool {
	st := g.GameState
	return !st.CanAdvance && !st.LightningAttempts[team]
}

// AdvanceLightning moves to the next shared question and reports whether the
// game finished because none were left
func AdvanceLightning(g *model.Game) (finished bool) {
	next := 1
	if q := g.CurrentQuestion(); q != nil {
		next = q.QuestionNumber + 1
	}
	idx := g.QuestionIndex(model.RoundLightning, model.NoTeam, next)
	if idx < 0 {
		return EndRound(g)
	}

	st := &g.GameState
	g.CurrentQuestionIndex = idx
	st.LightningAttempts = map[model.TeamSlot]bool{}
	st.WaitingForOtherTeam = false
	st.CanAdvance = false
	return false
}
