package model

import "encoding/json"

// CommandType names an inbound command
type CommandType string

// Host commands
const (
	CmdHostJoin            CommandType = "host-join"
	CmdStartGame           CommandType = "start-game"
	CmdCompleteTossUpRound CommandType = "complete-toss-up-round"
	CmdContinueToNextRound CommandType = "continue-to-next-round"
	CmdForceNextQuestion   CommandType = "force-next-question"
	CmdAdvanceQuestion     CommandType = "advance-question"
	CmdPauseTimer          CommandType = "pause-timer"
	CmdForceRoundSummary   CommandType = "force-round-summary"
	CmdOverrideAnswer      CommandType = "override-answer"
	CmdResetGame           CommandType = "reset-game"
	CmdSkipToRound         CommandType = "skip-to-round"
)

// Player commands
const (
	CmdPlayerJoin   CommandType = "player-join"
	CmdJoinTeam     CommandType = "join-team"
	CmdPlayerBuzz   CommandType = "player-buzz"
	CmdSubmitAnswer CommandType = "submit-answer"
	CmdGetPlayers   CommandType = "get-players"
)

// IsHostCommand reports whether only the host may send t
func (t CommandType) IsHostCommand() bool {
	switch t {
	case CmdHostJoin, CmdStartGame, CmdCompleteTossUpRound, CmdContinueToNextRound,
		CmdForceNextQuestion, CmdAdvanceQuestion, CmdPauseTimer, CmdForceRoundSummary,
		CmdOverrideAnswer, CmdResetGame, CmdSkipToRound:
		return true
	}
	return false
}

// Command is the inbound envelope
type Command struct {
	Type     CommandType     `json:"type"`
	GameCode string          `json:"gameCode"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// EventType names an outbound event
type EventType string

// Broadcast events
const (
	EvtHostJoined             EventType = "host-joined"
	EvtGameStarted            EventType = "game-started"
	EvtBuzzerPressed          EventType = "buzzer-pressed"
	EvtAnswerCorrect          EventType = "answer-correct"
	EvtAnswerIncorrect        EventType = "answer-incorrect"
	EvtRemainingCardsRevealed EventType = "remaining-cards-revealed"
	EvtTurnChanged            EventType = "turn-changed"
	EvtQuestionComplete       EventType = "question-complete"
	EvtNextQuestion           EventType = "next-question"
	EvtRoundComplete          EventType = "round-complete"
	EvtRoundStarted           EventType = "round-started"
	EvtGameOver               EventType = "game-over"
	EvtPlayersList            EventType = "players-list"
	EvtTeamUpdated            EventType = "team-updated"
	EvtAnswersRevealed        EventType = "answers-revealed"
	EvtAnswerOverridden       EventType = "answer-overridden"
	EvtGameReset              EventType = "game-reset"
	EvtSkippedToRound         EventType = "skipped-to-round"
	EvtTimerPaused            EventType = "timer-paused"
)

// Unicast-only events
const (
	EvtAnswerRejected  EventType = "answer-rejected"
	EvtCommandRejected EventType = "command-rejected"
	EvtPlayerJoined    EventType = "player-joined"
)

// Event is the outbound envelope
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
