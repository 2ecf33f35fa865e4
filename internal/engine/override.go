package engine

import "feudlive/internal/model"

// NoCard marks an override that rules the slot incorrect
const NoCard = -1

// Override is a host correction of one ledger slot. Zero Round and
// QuestionNumber default to the question in play.
type Override struct {
	Team           model.TeamSlot
	Round          int
	QuestionNumber int
	AnswerIndex    int
}

// OverrideResult reports what the correction changed
type OverrideResult struct {
	Team           model.TeamSlot
	Round          int
	QuestionNumber int
	Points         int
	Delta          int
}

// OverrideAnswer rewrites a slot's outcome. The slot's previously recorded
// points are subtracted before the new value is added, so applying the
// same override twice leaves every score where one application put it.
func OverrideAnswer(g *model.Game, o Override) (OverrideResult, error) {
	if !o.Team.Valid() {
		return OverrideResult{}, ErrInvalidTeam
	}
	round := o.Round
	if round == 0 {
		round = g.CurrentRound
	}
	if round < model.FirstStandardRound || round > model.RoundLightning {
		return OverrideResult{}, ErrInvalidRound
	}
	number := o.QuestionNumber
	if number == 0 {
		cur := g.CurrentQuestion()
		if cur == nil || round != g.CurrentRound {
			return OverrideResult{}, ErrUnknownSlot
		}
		number = cur.QuestionNumber
	}

	q := g.QuestionAt(round, o.Team, number)
	entry := g.GameState.QuestionData.Entry(o.Team, round, number)
	if q == nil || entry == nil {
		return OverrideResult{}, ErrUnknownSlot
	}
	// Unplayed slots can only be ruled on while they are in play
	if entry.FirstAttemptCorrect == nil && !inPlay(g, o.Team, round, number) {
		return OverrideResult{}, ErrUnknownSlot
	}

	points := 0
	correct := false
	if o.AnswerIndex != NoCard {
		if o.AnswerIndex < 0 || o.AnswerIndex >= len(q.Answers) {
			return OverrideResult{}, ErrUnknownCard
		}
		q.Answers[o.AnswerIndex].Revealed = true
		points = q.Answers[o.AnswerIndex].Score * Multiplier(round)
		correct = true
	}

	firstRuling := entry.FirstAttemptCorrect == nil
	delta := points - entry.PointsEarned
	*entry = model.LedgerEntry{FirstAttemptCorrect: model.BoolPtr(correct), PointsEarned: points}
	award(g, o.Team, round, delta)

	// A finished round's snapshot follows the correction
	for i := range g.GameState.RoundScores {
		snap := &g.GameState.RoundScores[i]
		if snap.Round == round && snap.Scores != nil {
			snap.Scores[o.Team] = g.Team(o.Team).RoundScores[round-1]
		}
	}

	if firstRuling {
		settleCurrent(g, o.Team, number, correct)
	}

	return OverrideResult{
		Team:           o.Team,
		Round:          round,
		QuestionNumber: number,
		Points:         points,
		Delta:          delta,
	}, nil
}

// inPlay reports whether the slot is the question team is answering now
func inPlay(g *model.Game, team model.TeamSlot, round, number int) bool {
	cur := g.CurrentQuestion()
	if g.Status != model.StatusActive || round != g.CurrentRound || cur == nil || cur.QuestionNumber != number {
		return false
	}
	return round == model.RoundLightning || team == g.GameState.CurrentTurn
}

// settleCurrent counts a ruling on a never-attempted current question as
// that team's attempt so play can move on
func settleCurrent(g *model.Game, team model.TeamSlot, number int, correct bool) {
	cur := g.CurrentQuestion()
	if cur == nil || cur.QuestionNumber != number {
		return
	}
	st := &g.GameState
	if g.CurrentRound == model.RoundLightning {
		if st.LightningAttempts == nil {
			st.LightningAttempts = map[model.TeamSlot]bool{}
		}
		st.LightningAttempts[team] = true
		countAnswered(g, team)
		if correct || st.LightningAttempts[team.Other()] {
			st.LightningAttempts[team.Other()] = true
			st.WaitingForOtherTeam = false
			st.CanAdvance = true
		}
		return
	}
	if team == st.CurrentTurn {
		countAnswered(g, team)
		st.CanAdvance = true
	}
}

// ForceNext ends the current question without a hit: every card is shown and
// whichever teams still owed an attempt are charged a miss. The host gate
// opens but nothing advances.
func ForceNext(g *model.Game) []model.TeamSlot {
	if g.CurrentRound == model.RoundTossUp {
		charged := ForfeitTossUp(g)
		RevealAll(g)
		return charged
	}

	RevealAll(g)
	st := &g.GameState
	q := g.CurrentQuestion()
	var pending []model.TeamSlot
	if g.CurrentRound == model.RoundLightning {
		for _, team := range model.TeamSlots {
			if !st.LightningAttempts[team] {
				pending = append(pending, team)
			}
		}
	} else if st.CurrentTurn.Valid() && !Attempted(g, st.CurrentTurn) {
		pending = append(pending, st.CurrentTurn)
	}

	if st.LightningAttempts == nil {
		st.LightningAttempts = map[model.TeamSlot]bool{}
	}
	for _, team := range pending {
		if q != nil {
			if e := st.QuestionData.Entry(team, g.CurrentRound, q.QuestionNumber); e != nil && e.FirstAttemptCorrect == nil {
				*e = model.LedgerEntry{FirstAttemptCorrect: model.BoolPtr(false)}
			}
		}
		if g.CurrentRound == model.RoundLightning {
			st.LightningAttempts[team] = true
		}
		countAnswered(g, team)
	}

	st.WaitingForOtherTeam = false
	st.CanAdvance = true
	return pending
}
