package service

import (
	"errors"
	"fmt"

	"feudlive/internal/engine"
	"feudlive/internal/store"
)

// Reason is the tag carried by a rejection event
type Reason string

const (
	ReasonInvalidState     Reason = "invalid-state"
	ReasonAlreadyAnswered  Reason = "already-answered"
	ReasonNotYourTurn      Reason = "not-your-turn"
	ReasonSubmissionFailed Reason = "submission-failed"
	ReasonInvalidTeam      Reason = "invalid-team"
	ReasonTeamFull         Reason = "team-full"
	ReasonSessionNotFound  Reason = "session-not-found"
	ReasonSessionFull      Reason = "session-full"
	ReasonNotHost          Reason = "not-host"
	ReasonInvalidCommand   Reason = "invalid-command"
)

var (
	ErrInvalidQuestions    = errors.New("invalid question set")
	ErrQuestionSetNotFound = errors.New("question set not found")
	ErrCodeUnavailable     = errors.New("no session code available")
)

// Rejection is a command refused before it touched shared state
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string {
	if r.Message == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Message)
}

func reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ReasonOf classifies any error returned while handling a command
func ReasonOf(err error) Reason {
	var rej *Rejection
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rej):
		return rej.Reason
	case errors.Is(err, store.ErrSessionNotFound):
		return ReasonSessionNotFound
	case errors.Is(err, store.ErrSessionFull):
		return ReasonSessionFull
	case errors.Is(err, store.ErrTeamFull):
		return ReasonTeamFull
	case errors.Is(err, store.ErrInvalidTeam), errors.Is(err, engine.ErrInvalidTeam):
		return ReasonInvalidTeam
	case errors.Is(err, store.ErrPlayerNameRequired):
		return ReasonInvalidCommand
	case errors.Is(err, engine.ErrInvalidRound), errors.Is(err, engine.ErrNoQuestion),
		errors.Is(err, engine.ErrUnknownSlot), errors.Is(err, engine.ErrUnknownCard):
		return ReasonInvalidState
	}
	return ReasonSubmissionFailed
}
