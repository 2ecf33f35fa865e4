package engine

import (
	"feudlive/internal/matcher"
	"feudlive/internal/model"
)

// AnswerResult describes one scored submission in rounds 1-4
type AnswerResult struct {
	Team   model.TeamSlot
	Slot   int
	Answer *model.Answer // Copy of the matched card, nil on a miss
	Points int
}

// Correct reports whether the submission matched a card
func (r AnswerResult) Correct() bool {
	return r.Answer != nil
}

// Advance is the outcome of moving past a standard question
type Advance int

const (
	AdvanceSameTeam Advance = iota
	AdvanceTurnChanged
	AdvanceRoundComplete
)

// SubmitStandard scores the current team's answer. A hit banks
// score x round and shows the matched card; a miss shows every card.
// Either way the host gate opens.
func SubmitStandard(g *model.Game, team model.TeamSlot, text string) AnswerResult {
	q := g.CurrentQuestion()
	res := AnswerResult{Team: team, Slot: q.QuestionNumber}
	entry := g.GameState.QuestionData.Entry(team, g.CurrentRound, q.QuestionNumber)

	if ans := matcher.Match(text, q.Answers); ans != nil {
		ans.Revealed = true
		cp := *ans
		res.Answer = &cp
		res.Points = ans.Score * Multiplier(g.CurrentRound)
	} else {
		RevealAll(g)
	}
	record(g, team, g.CurrentRound, entry, res.Correct(), res.Points)

	countAnswered(g, team)
	g.GameState.CanAdvance = true
	return res
}

// Attempted reports whether team already has a ledger result for the
// current question
func Attempted(g *model.Game, team model.TeamSlot) bool {
	q := g.CurrentQuestion()
	if q == nil {
		return false
	}
	e := g.GameState.QuestionData.Entry(team, g.CurrentRound, q.QuestionNumber)
	return e != nil && e.FirstAttemptCorrect != nil
}

// AdvanceStandard moves to the next question once the host confirms: the
// same team continues until it has played its slots, then the other team
// plays, then the round completes.
func AdvanceStandard(g *model.Game) Advance {
	st := &g.GameState
	round := g.CurrentRound
	team := st.CurrentTurn

	if idx, ok := nextSlot(g, round, team); ok {
		g.CurrentQuestionIndex = idx
		st.CanAdvance = false
		return AdvanceSameTeam
	}

	other := team.Other()
	if idx, ok := nextSlot(g, round, other); ok {
		g.CurrentQuestionIndex = idx
		st.CanAdvance = false
		st.CurrentTurn = other
		g.ActiveTeamID = other
		setActive(g, other)
		return AdvanceTurnChanged
	}

	EndRound(g)
	return AdvanceRoundComplete
}

// nextSlot finds team's next unplayed question in round. A team with fewer
// prepared questions than slots is done when it runs out.
func nextSlot(g *model.Game, round int, team model.TeamSlot) (int, bool) {
	answered := g.GameState.QuestionsAnswered[team]
	if !team.Valid() || answered >= model.StandardSlots {
		return 0, false
	}
	idx := g.QuestionIndex(round, team, answered+1)
	return idx, idx >= 0
}

// record writes a slot's outcome and banks the difference from whatever the
// slot already held, so the ledger and the team totals stay equal
func record(g *model.Game, team model.TeamSlot, round int, entry *model.LedgerEntry, correct bool, points int) {
	prev := 0
	if entry != nil {
		prev = entry.PointsEarned
		*entry = model.LedgerEntry{FirstAttemptCorrect: model.BoolPtr(correct), PointsEarned: points}
	}
	if delta := points - prev; delta != 0 {
		award(g, team, round, delta)
	}
}

func countAnswered(g *model.Game, team model.TeamSlot) {
	st := &g.GameState
	if st.QuestionsAnswered == nil {
		st.QuestionsAnswered = map[model.TeamSlot]int{}
	}
	limit := model.SlotsInRound(g.CurrentRound)
	if st.QuestionsAnswered[team] < limit {
		st.QuestionsAnswered[team]++
	}
}
