package service

import (
	"context"

	"feudlive/internal/engine"
	"feudlive/internal/logging"
	"feudlive/internal/model"
	"feudlive/internal/store"
)

type joinPayload struct {
	PlayerName string `json:"playerName"`
	PlayerID   string `json:"playerId"`
}

type teamPayload struct {
	TeamID model.TeamSlot `json:"teamId"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

func (s *GameService) handlePlayer(ctx context.Context, from *Sender, cmd model.Command) error {
	if from.Role == RoleObserver && cmd.Type != model.CmdGetPlayers {
		return reject(ReasonInvalidCommand, "observers may only list players")
	}

	switch cmd.Type {
	case model.CmdPlayerJoin:
		return s.playerJoin(ctx, from, cmd)
	case model.CmdGetPlayers:
		return s.do(cmd.GameCode, func(sess *store.Session) error {
			s.broadcaster.Unicast(sess.Game.Code, from.ConnID, model.EvtPlayersList, map[string]any{
				"players": sess.Players(),
				"game":    sess.Game.Clone(),
			})
			return nil
		})
	case model.CmdJoinTeam, model.CmdPlayerBuzz, model.CmdSubmitAnswer:
	default:
		return reject(ReasonInvalidCommand, "unknown command %q", cmd.Type)
	}

	return s.do(cmd.GameCode, func(sess *store.Session) error {
		p := sess.Player(from.PlayerID)
		if from.PlayerID == "" || p == nil {
			return reject(ReasonInvalidCommand, "join the session first")
		}
		switch cmd.Type {
		case model.CmdJoinTeam:
			return s.joinTeam(sess, p, cmd)
		case model.CmdPlayerBuzz:
			return s.buzz(sess.Game, p)
		default:
			return s.submitAnswer(sess.Game, p, cmd)
		}
	})
}

func (s *GameService) playerJoin(ctx context.Context, from *Sender, cmd model.Command) error {
	var p joinPayload
	if err := decode(cmd, &p); err != nil {
		return err
	}
	if p.PlayerID == "" {
		p.PlayerID = from.PlayerID
	}

	res, err := s.Join(ctx, cmd.GameCode, p.PlayerName, p.PlayerID)
	if err != nil {
		return err
	}
	from.PlayerID = res.Player.ID
	s.broadcaster.Unicast(res.Player.GameCode, from.ConnID, model.EvtPlayerJoined, res)
	return nil
}

// Join adds or reconnects a player, mints its token and announces the new
// roster to the session
func (s *GameService) Join(_ context.Context, code, name, existingID string) (*model.PlayerJoinResponse, error) {
	player, err := s.store.JoinGame(code, name, existingID)
	if err != nil {
		return nil, err
	}

	res := &model.PlayerJoinResponse{Player: player}
	if s.auth != nil {
		token, err := s.auth.GeneratePlayerToken(player.GameCode, player.ID)
		if err != nil {
			return nil, err
		}
		res.Token = token
	}

	logging.Info(s.logger, "player joined",
		logging.FieldGameCode, player.GameCode, logging.FieldPlayerID, player.ID)
	s.announcePlayers(player.GameCode)
	return res, nil
}

// Disconnect marks a player offline and re-announces the roster
func (s *GameService) Disconnect(code, playerID string) {
	if playerID == "" {
		return
	}
	_ = s.do(code, func(sess *store.Session) error {
		if sess.SetConnected(playerID, false) {
			s.emit(sess.Game, model.EvtPlayersList, map[string]any{"players": sess.Players()})
		}
		return nil
	})
}

func (s *GameService) announcePlayers(code string) {
	_ = s.do(code, func(sess *store.Session) error {
		s.emit(sess.Game, model.EvtPlayersList, map[string]any{"players": sess.Players()})
		return nil
	})
}

func (s *GameService) joinTeam(sess *store.Session, p *model.Player, cmd model.Command) error {
	g := sess.Game
	if g.Status != model.StatusWaiting {
		return reject(ReasonInvalidState, "teams are locked once play starts")
	}
	var tp teamPayload
	if err := decode(cmd, &tp); err != nil {
		return err
	}
	if !tp.TeamID.Valid() {
		return reject(ReasonInvalidTeam, "unknown team %q", tp.TeamID)
	}
	if err := sess.AssignTeam(p.ID, tp.TeamID, s.maxPerTeam); err != nil {
		return err
	}
	s.emit(g, model.EvtTeamUpdated, map[string]any{
		"playerId": p.ID,
		"teamId":   tp.TeamID,
		"players":  sess.Players(),
	})
	return nil
}

func (s *GameService) buzz(g *model.Game, p *model.Player) error {
	if g.Status != model.StatusActive || g.CurrentRound != model.RoundTossUp {
		return reject(ReasonInvalidState, "buzzer is only live in the toss-up")
	}
	team := g.TeamOf(p.ID)
	if !team.Valid() {
		return reject(ReasonInvalidTeam, "player has no team")
	}
	if g.GameState.TossUp.Resolved {
		return reject(ReasonInvalidState, "toss-up already resolved")
	}
	if !engine.Buzz(g, team) {
		return reject(ReasonNotYourTurn, "another team buzzed first")
	}
	s.emit(g, model.EvtBuzzerPressed, map[string]any{"teamId": team, "playerId": p.ID})
	return nil
}

func (s *GameService) submitAnswer(g *model.Game, p *model.Player, cmd model.Command) error {
	if g.Status != model.StatusActive {
		return reject(ReasonInvalidState, "game not active")
	}
	team := g.TeamOf(p.ID)
	if !team.Valid() {
		return reject(ReasonInvalidTeam, "player has no team")
	}
	var ap answerPayload
	if err := decode(cmd, &ap); err != nil {
		return err
	}

	switch {
	case g.CurrentRound == model.RoundTossUp:
		return s.submitTossUp(g, p, team, ap.Answer)
	case g.CurrentRound == model.RoundLightning:
		return s.submitLightning(g, p, team, ap.Answer)
	default:
		return s.submitStandard(g, p, team, ap.Answer)
	}
}

func (s *GameService) submitTossUp(g *model.Game, p *model.Player, team model.TeamSlot, text string) error {
	tu := g.GameState.TossUp
	if tu.Submissions[team] != nil {
		return reject(ReasonAlreadyAnswered, "team already answered the toss-up")
	}
	if tu.Resolved {
		return reject(ReasonInvalidState, "toss-up already resolved")
	}
	if !engine.CanSubmitTossUp(g, team) {
		return reject(ReasonNotYourTurn, "the other team holds the toss-up")
	}

	res := engine.SubmitTossUp(g, team, text)
	s.emitAnswer(g, p, res.Team, res.Answer, res.Points, nil)
	if !res.Resolved {
		return nil
	}

	s.emit(g, model.EvtQuestionComplete, map[string]any{"tossUpWinner": res.Winner})
	s.later(g, "reveal-all", s.timing.RevealDelay, func(sess *store.Session) {
		engine.RevealAll(sess.Game)
		s.emit(sess.Game, model.EvtAnswersRevealed, nil)
	})
	return nil
}

func (s *GameService) submitStandard(g *model.Game, p *model.Player, team model.TeamSlot, text string) error {
	st := g.GameState
	if g.CurrentQuestion() == nil {
		return reject(ReasonInvalidState, "no question in play")
	}
	if team != st.CurrentTurn {
		return reject(ReasonNotYourTurn, "it is %s's turn", st.CurrentTurn)
	}
	if st.CanAdvance || engine.Attempted(g, team) {
		return reject(ReasonAlreadyAnswered, "question already answered")
	}

	res := engine.SubmitStandard(g, team, text)
	s.emitAnswer(g, p, res.Team, res.Answer, res.Points, nil)
	s.mirrorScores(g)
	if res.Correct() {
		s.scheduleRevealRemaining(g)
	}
	return nil
}

func (s *GameService) submitLightning(g *model.Game, p *model.Player, team model.TeamSlot, text string) error {
	st := g.GameState
	if g.CurrentQuestion() == nil {
		return reject(ReasonInvalidState, "no question in play")
	}
	if st.LightningAttempts[team] {
		return reject(ReasonAlreadyAnswered, "team already answered this question")
	}
	if !engine.CanSubmitLightning(g, team) {
		return reject(ReasonInvalidState, "question already settled")
	}

	res := engine.SubmitLightning(g, team, text)
	switch res.Outcome {
	case engine.LightningScored:
		s.emitAnswer(g, p, res.Team, res.Answer, res.Points, nil)
		s.mirrorScores(g)
		s.scheduleRevealRemaining(g)
		s.scheduleLightningAdvance(g)
	case engine.LightningWaiting:
		s.emitAnswer(g, p, res.Team, nil, 0, map[string]any{"waitingForOtherTeam": true})
	case engine.LightningBothMissed:
		s.emitAnswer(g, p, res.Team, nil, 0, nil)
		s.emit(g, model.EvtAnswersRevealed, nil)
		s.scheduleLightningAdvance(g)
	}
	return nil
}

func (s *GameService) emitAnswer(g *model.Game, p *model.Player, team model.TeamSlot, ans *model.Answer, points int, extras map[string]any) {
	payload := map[string]any{
		"teamId":   team,
		"playerId": p.ID,
		"points":   points,
		"answer":   ans,
	}
	for k, v := range extras {
		payload[k] = v
	}
	event := model.EvtAnswerIncorrect
	if ans != nil {
		event = model.EvtAnswerCorrect
	}
	s.emit(g, event, payload)
}

func (s *GameService) scheduleRevealRemaining(g *model.Game) {
	s.later(g, "reveal-remaining", s.timing.RevealDelay, func(sess *store.Session) {
		engine.RevealAll(sess.Game)
		s.emit(sess.Game, model.EvtRemainingCardsRevealed, nil)
	})
}

func (s *GameService) scheduleLightningAdvance(g *model.Game) {
	s.later(g, "lightning-advance", s.timing.LightningAdvanceDelay, func(sess *store.Session) {
		if sess.Game.Status != model.StatusActive || !sess.Game.GameState.CanAdvance {
			return
		}
		s.advanceLightning(sess.Game)
	})
}
