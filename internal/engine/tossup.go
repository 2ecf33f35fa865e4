package engine

import (
	"feudlive/internal/matcher"
	"feudlive/internal/model"
)

// TossUpResult describes one toss-up submission
type TossUpResult struct {
	Team     model.TeamSlot
	Answer   *model.Answer // Copy of the matched card, nil on a miss
	Points   int
	Resolved bool // Both teams are done and a winner is set
	Winner   *model.TossUpWinner
}

// Buzz records team pressing the buzzer and reports whether it was first
func Buzz(g *model.Game, team model.TeamSlot) bool {
	if g.BuzzedTeamID != model.NoTeam {
		return false
	}
	g.BuzzedTeamID = team
	g.ActiveTeamID = team
	g.GameState.TossUp.FirstBuzz = team
	return true
}

// CanSubmitTossUp reports whether team may submit right now. Whoever holds
// the buzz answers first; once a team has submitted control passes over.
func CanSubmitTossUp(g *model.Game, team model.TeamSlot) bool {
	tu := g.GameState.TossUp
	if tu.Resolved || tu.Submissions[team] != nil {
		return false
	}
	return g.ActiveTeamID == model.NoTeam || g.ActiveTeamID == team
}

// SubmitTossUp scores team's single toss-up attempt. The second submission
// closes the round and picks the winner.
func SubmitTossUp(g *model.Game, team model.TeamSlot, text string) TossUpResult {
	st := &g.GameState
	if st.TossUp.Submissions == nil {
		st.TossUp.Submissions = map[model.TeamSlot]*model.TossUpAttempt{}
	}
	if st.TossUp.FirstSubmitter == model.NoTeam {
		st.TossUp.FirstSubmitter = team
	}

	res := TossUpResult{Team: team}
	attempt := &model.TossUpAttempt{Answer: text}
	if q := g.TossUpQuestion; q != nil {
		if ans := matcher.Match(text, q.Answers); ans != nil {
			ans.Revealed = true
			cp := *ans
			res.Answer = &cp
			res.Points = ans.Score
			attempt.Score = ans.Score
			attempt.Matched = true
		}
	}
	st.TossUp.Submissions[team] = attempt
	g.ActiveTeamID = team.Other()

	if len(st.TossUp.Submissions) == len(model.TeamSlots) {
		res.Winner = ResolveTossUp(g)
		res.Resolved = true
	}
	return res
}

// ResolveTossUp picks the winner from the recorded submissions: the higher
// score takes it, a tie goes to the first buzz and then the first submitter.
// Missing submissions count as zero.
func ResolveTossUp(g *model.Game) *model.TossUpWinner {
	tu := &g.GameState.TossUp

	score := func(team model.TeamSlot) int {
		if a := tu.Submissions[team]; a != nil {
			return a.Score
		}
		return 0
	}

	s1, s2 := score(model.Team1), score(model.Team2)
	var winner model.TeamSlot
	switch {
	case s1 > s2:
		winner = model.Team1
	case s2 > s1:
		winner = model.Team2
	case tu.FirstBuzz != model.NoTeam:
		winner = tu.FirstBuzz
	case tu.FirstSubmitter != model.NoTeam:
		winner = tu.FirstSubmitter
	default:
		winner = model.Team1
	}

	tu.Resolved = true
	g.GameState.CanAdvance = true
	g.ActiveTeamID = winner
	g.TossUpWinner = &model.TossUpWinner{TeamID: winner, TeamName: g.Team(winner).Name}
	return g.TossUpWinner
}

// ForfeitTossUp charges every team that has not submitted with a miss and
// resolves the round
func ForfeitTossUp(g *model.Game) []model.TeamSlot {
	tu := &g.GameState.TossUp
	if tu.Submissions == nil {
		tu.Submissions = map[model.TeamSlot]*model.TossUpAttempt{}
	}
	var charged []model.TeamSlot
	for _, team := range model.TeamSlots {
		if tu.Submissions[team] == nil {
			tu.Submissions[team] = &model.TossUpAttempt{}
			charged = append(charged, team)
		}
	}
	if !tu.Resolved {
		ResolveTossUp(g)
	}
	return charged
}

// CompleteTossUp moves a resolved toss-up into the round summary
func CompleteTossUp(g *model.Game) {
	EndRound(g)
}
