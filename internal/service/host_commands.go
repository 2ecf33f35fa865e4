package service

import (
	"context"

	"feudlive/internal/engine"
	"feudlive/internal/logging"
	"feudlive/internal/model"
	"feudlive/internal/store"
)

type overridePayload struct {
	TeamID         model.TeamSlot `json:"teamId"`
	Round          int            `json:"round"`
	QuestionNumber int            `json:"questionNumber"`
	AnswerIndex    *int           `json:"answerIndex"`
}

type skipPayload struct {
	Round  int            `json:"round"`
	TeamID model.TeamSlot `json:"teamId"`
}

type pausePayload struct {
	Paused *bool `json:"paused"`
}

func (s *GameService) handleHost(_ context.Context, from *Sender, cmd model.Command) error {
	return s.do(cmd.GameCode, func(sess *store.Session) error {
		g := sess.Game

		if cmd.Type == model.CmdHostJoin {
			g.HostID = from.ConnID
			logging.Info(s.logger, "host joined",
				logging.FieldGameCode, g.Code, logging.FieldConnID, from.ConnID)
			s.emit(g, model.EvtHostJoined, map[string]any{"players": sess.Players()})
			return nil
		}
		if g.HostID == "" || g.HostID != from.ConnID {
			return reject(ReasonNotHost, "connection is not the session host")
		}

		switch cmd.Type {
		case model.CmdStartGame:
			return s.startGame(sess)
		case model.CmdCompleteTossUpRound:
			return s.completeTossUp(g)
		case model.CmdContinueToNextRound:
			return s.continueToNextRound(g)
		case model.CmdForceNextQuestion:
			return s.forceNext(g)
		case model.CmdAdvanceQuestion:
			return s.advanceQuestion(g)
		case model.CmdPauseTimer:
			return s.pauseTimer(g, cmd)
		case model.CmdForceRoundSummary:
			return s.forceRoundSummary(g)
		case model.CmdOverrideAnswer:
			return s.overrideAnswer(g, cmd)
		case model.CmdResetGame:
			return s.resetGame(g)
		case model.CmdSkipToRound:
			return s.skipToRound(g, cmd)
		}
		return reject(ReasonInvalidCommand, "unknown host command %q", cmd.Type)
	})
}

func (s *GameService) startGame(sess *store.Session) error {
	if sess.Game.Status != model.StatusWaiting {
		return reject(ReasonInvalidState, "game already started")
	}
	s.begin(sess)
	return nil
}

// begin starts play. Players still without a team are dealt onto the
// smaller side. Without a prepared toss-up the game opens on the round
// summary so the host can go straight to round one.
func (s *GameService) begin(sess *store.Session) {
	g := sess.Game
	if moved := sess.AssignUnassigned(); len(moved) > 0 {
		logging.Info(s.logger, "auto-assigned players", logging.FieldGameCode, g.Code, logging.FieldCount, len(moved))
	}
	engine.StartGame(g)
	if g.TossUpQuestion == nil {
		engine.CompleteTossUp(g)
	}
	logging.Info(s.logger, "game started", logging.FieldGameCode, g.Code)
	s.emit(g, model.EvtGameStarted, nil)
	s.mirrorScores(g)
}

func (s *GameService) completeTossUp(g *model.Game) error {
	if g.Status != model.StatusActive || g.CurrentRound != model.RoundTossUp {
		return reject(ReasonInvalidState, "no toss-up in play")
	}
	if !g.GameState.TossUp.Resolved {
		return reject(ReasonInvalidState, "toss-up not resolved")
	}
	engine.CompleteTossUp(g)
	s.emit(g, model.EvtRoundComplete, map[string]any{
		"round":        model.RoundTossUp,
		"tossUpWinner": g.TossUpWinner,
	})
	return nil
}

func (s *GameService) continueToNextRound(g *model.Game) error {
	if g.Status != model.StatusRoundSummary {
		return reject(ReasonInvalidState, "not in round summary")
	}
	if err := engine.StartNextRound(g); err != nil {
		return err
	}
	logging.Info(s.logger, "round started",
		logging.FieldGameCode, g.Code, logging.FieldRound, g.CurrentRound)
	s.emit(g, model.EvtRoundStarted, map[string]any{
		"round":       g.CurrentRound,
		"currentTurn": g.GameState.CurrentTurn,
	})
	s.mirrorScores(g)
	return nil
}

func (s *GameService) forceNext(g *model.Game) error {
	if g.Status != model.StatusActive {
		return reject(ReasonInvalidState, "game not active")
	}
	if g.DisableForceNext {
		return reject(ReasonInvalidState, "force-next disabled")
	}
	if g.GameState.CanAdvance {
		return reject(ReasonInvalidState, "question already settled")
	}

	charged := engine.ForceNext(g)
	extras := map[string]any{"forced": true, "charged": charged}
	if g.CurrentRound == model.RoundTossUp {
		extras["tossUpWinner"] = g.TossUpWinner
	}
	s.emit(g, model.EvtAnswersRevealed, extras)
	return nil
}

func (s *GameService) advanceQuestion(g *model.Game) error {
	if g.Status != model.StatusActive || g.CurrentRound < model.FirstStandardRound {
		return reject(ReasonInvalidState, "no question to advance")
	}
	if !g.GameState.CanAdvance {
		return reject(ReasonInvalidState, "question not settled")
	}

	if g.CurrentRound == model.RoundLightning {
		s.advanceLightning(g)
		return nil
	}

	round := g.CurrentRound
	switch engine.AdvanceStandard(g) {
	case engine.AdvanceSameTeam:
		s.emit(g, model.EvtNextQuestion, map[string]any{"currentTurn": g.GameState.CurrentTurn})
	case engine.AdvanceTurnChanged:
		s.emit(g, model.EvtTurnChanged, map[string]any{"currentTurn": g.GameState.CurrentTurn})
	case engine.AdvanceRoundComplete:
		s.emit(g, model.EvtRoundComplete, map[string]any{"round": round})
		s.mirrorScores(g)
	}
	return nil
}

// advanceLightning moves to the next shared question or ends the game
func (s *GameService) advanceLightning(g *model.Game) {
	if engine.AdvanceLightning(g) {
		s.finish(g)
		return
	}
	s.emit(g, model.EvtNextQuestion, nil)
}

func (s *GameService) pauseTimer(g *model.Game, cmd model.Command) error {
	var p pausePayload
	if err := decode(cmd, &p); err != nil {
		return err
	}
	paused := !g.PauseTimer
	if p.Paused != nil {
		paused = *p.Paused
	}
	engine.SetPaused(g, paused)
	s.emit(g, model.EvtTimerPaused, map[string]any{"paused": paused})
	return nil
}

func (s *GameService) forceRoundSummary(g *model.Game) error {
	if g.Status != model.StatusActive {
		return reject(ReasonInvalidState, "game not active")
	}
	round := g.CurrentRound
	if engine.EndRound(g) {
		s.finish(g)
		return nil
	}
	s.emit(g, model.EvtRoundComplete, map[string]any{"round": round, "forced": true})
	s.mirrorScores(g)
	return nil
}

func (s *GameService) overrideAnswer(g *model.Game, cmd model.Command) error {
	if g.Status != model.StatusActive && g.Status != model.StatusRoundSummary {
		return reject(ReasonInvalidState, "nothing to override")
	}
	var p overridePayload
	if err := decode(cmd, &p); err != nil {
		return err
	}
	if p.AnswerIndex == nil {
		return reject(ReasonInvalidCommand, "answerIndex is required")
	}

	res, err := engine.OverrideAnswer(g, engine.Override{
		Team:           p.TeamID,
		Round:          p.Round,
		QuestionNumber: p.QuestionNumber,
		AnswerIndex:    *p.AnswerIndex,
	})
	if err != nil {
		return err
	}

	logging.Info(s.logger, "answer overridden",
		logging.FieldGameCode, g.Code,
		logging.FieldTeam, res.Team,
		logging.FieldRound, res.Round,
		"delta", res.Delta)
	s.emit(g, model.EvtAnswerOverridden, map[string]any{
		"teamId":         res.Team,
		"round":          res.Round,
		"questionNumber": res.QuestionNumber,
		"points":         res.Points,
		"delta":          res.Delta,
	})
	s.mirrorScores(g)
	return nil
}

func (s *GameService) resetGame(g *model.Game) error {
	engine.Reset(g)
	logging.Info(s.logger, "game reset", logging.FieldGameCode, g.Code)
	s.emit(g, model.EvtGameReset, nil)
	s.mirrorScores(g)

	// Restart unless the host already started by hand
	s.later(g, "restart", s.timing.RestartDelay, func(sess *store.Session) {
		if sess.Game.Status == model.StatusWaiting {
			s.begin(sess)
		}
	})
	return nil
}

func (s *GameService) skipToRound(g *model.Game, cmd model.Command) error {
	if g.Status == model.StatusWaiting {
		return reject(ReasonInvalidState, "game not started")
	}
	var p skipPayload
	if err := decode(cmd, &p); err != nil {
		return err
	}
	if err := engine.SkipToRound(g, p.Round, p.TeamID); err != nil {
		return err
	}
	logging.Info(s.logger, "skipped to round",
		logging.FieldGameCode, g.Code, logging.FieldRound, g.CurrentRound)
	s.emit(g, model.EvtSkippedToRound, map[string]any{
		"round":       g.CurrentRound,
		"currentTurn": g.GameState.CurrentTurn,
	})
	s.mirrorScores(g)
	return nil
}
