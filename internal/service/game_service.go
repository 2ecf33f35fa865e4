package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"feudlive/internal/cache"
	"feudlive/internal/engine"
	"feudlive/internal/logging"
	"feudlive/internal/metrics"
	"feudlive/internal/model"
	"feudlive/internal/repository"
	"feudlive/internal/store"
)

// Role is what a connection is allowed to do in a session
type Role string

const (
	RoleHost     Role = "host"
	RolePlayer   Role = "player"
	RoleObserver Role = "observer"
)

// Sender identifies the connection a command arrived on. PlayerID is bound
// by a player token or by a successful player-join.
type Sender struct {
	ConnID   string
	Role     Role
	PlayerID string
}

// Timing holds the delays of the deferred reveal/advance effects
type Timing struct {
	RevealDelay           time.Duration
	LightningAdvanceDelay time.Duration
	RestartDelay          time.Duration
}

// DefaultTiming is used when no timing is configured
var DefaultTiming = Timing{
	RevealDelay:           2 * time.Second,
	LightningAdvanceDelay: 3 * time.Second,
	RestartDelay:          time.Second,
}

// GameService validates inbound commands, runs the engine under the
// session lock and broadcasts the resulting events
type GameService struct {
	store       *store.SessionStore
	broadcaster Broadcaster
	scheduler   Scheduler
	auth        *AuthService
	scoreboard  cache.ScoreboardCache
	results     repository.ResultRepo
	logger      *slog.Logger
	metrics     *metrics.Recorder
	timing      Timing
	maxPerTeam  int
	background  func(func())
	now         func() time.Time

	mirrorMu sync.Mutex
	mirrors  map[string]*scoreMirror
}

// scoreMirror orders the scoreboard writes of one session. queued is bumped
// under the session lock, so a job older than the last write is dropped.
type scoreMirror struct {
	queued  atomic.Uint64
	mu      sync.Mutex
	written uint64
}

// Option configures a GameService
type Option func(*GameService)

func WithScheduler(sch Scheduler) Option {
	return func(s *GameService) { s.scheduler = sch }
}

func WithAuth(a *AuthService) Option {
	return func(s *GameService) { s.auth = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *GameService) { s.logger = l }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(s *GameService) { s.metrics = m }
}

func WithTiming(t Timing) Option {
	return func(s *GameService) { s.timing = t }
}

func WithMaxPerTeam(n int) Option {
	return func(s *GameService) { s.maxPerTeam = n }
}

func WithResults(r repository.ResultRepo) Option {
	return func(s *GameService) { s.results = r }
}

func WithScoreboard(c cache.ScoreboardCache) Option {
	return func(s *GameService) { s.scoreboard = c }
}

// WithBackground overrides how fire-and-forget I/O is started
func WithBackground(run func(func())) Option {
	return func(g *GameService) { g.background = run }
}

// NewGameService creates the orchestrator over st
func NewGameService(st *store.SessionStore, opts ...Option) *GameService {
	s := &GameService{
		store:       st,
		broadcaster: nopBroadcaster{},
		scheduler:   TimerScheduler{},
		timing:      DefaultTiming,
		maxPerTeam:  st.MaxPlayers() / 2,
		background:  func(fn func()) { go fn() },
		now:         time.Now,
		mirrors:     make(map[string]*scoreMirror),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *GameService) SetBroadcaster(b Broadcaster) {
	if b == nil {
		b = nopBroadcaster{}
	}
	s.broadcaster = b
}

// Store exposes the session store the service drives
func (s *GameService) Store() *store.SessionStore {
	return s.store
}

// Handle runs one command to completion. A refused command is answered
// with a unicast rejection to the sender and its error is returned.
func (s *GameService) Handle(ctx context.Context, from *Sender, cmd model.Command) (err error) {
	s.metrics.RecordCommand(string(cmd.Type))

	defer func() {
		if r := recover(); r != nil {
			logging.Error(s.logger, "command panicked", fmt.Errorf("%v", r),
				logging.FieldCommand, cmd.Type, logging.FieldGameCode, cmd.GameCode)
			err = reject(ReasonSubmissionFailed, "internal error")
		}
		if err != nil {
			s.rejected(from, cmd, err)
		}
	}()

	if from == nil {
		return reject(ReasonInvalidCommand, "unknown sender")
	}
	if cmd.GameCode == "" {
		return reject(ReasonInvalidCommand, "gameCode is required")
	}

	if cmd.Type.IsHostCommand() {
		if from.Role != RoleHost {
			return reject(ReasonNotHost, "%s is a host command", cmd.Type)
		}
		return s.handleHost(ctx, from, cmd)
	}
	return s.handlePlayer(ctx, from, cmd)
}

func (s *GameService) rejected(from *Sender, cmd model.Command, err error) {
	reason := ReasonOf(err)
	s.metrics.RecordRejection(string(reason))
	logging.Debug(s.logger, "command rejected",
		logging.FieldCommand, cmd.Type,
		logging.FieldGameCode, cmd.GameCode,
		logging.FieldReason, reason,
		logging.FieldError, err)

	if from == nil || from.ConnID == "" {
		return
	}
	event := model.EvtAnswerRejected
	if cmd.Type.IsHostCommand() {
		event = model.EvtCommandRejected
	}
	s.broadcaster.Unicast(cmd.GameCode, from.ConnID, event, map[string]any{
		"command": cmd.Type,
		"reason":  reason,
		"message": err.Error(),
	})
}

// do runs fn under the session lock
func (s *GameService) do(code string, fn func(sess *store.Session) error) error {
	return s.store.Do(code, fn)
}

// emit broadcasts event with the live game and extras. Callers hold the
// session lock, so events leave in the order the mutations happened.
func (s *GameService) emit(g *model.Game, event model.EventType, extras map[string]any) {
	payload := make(map[string]any, len(extras)+1)
	for k, v := range extras {
		payload[k] = v
	}
	payload["game"] = g.Clone()
	s.broadcaster.Broadcast(g.Code, event, payload)
	logging.Debug(s.logger, "event", logging.FieldEvent, event, logging.FieldGameCode, g.Code)
}

// later schedules fn against the current point of play. When it fires the
// live game is re-checked and fn is skipped if play has moved on or the
// session is gone.
func (s *GameService) later(g *model.Game, name string, delay time.Duration, fn func(sess *store.Session)) {
	code := g.Code
	cp := engine.CheckpointOf(g)
	s.scheduler.After(delay, func() {
		applied := false
		defer func() {
			if r := recover(); r != nil {
				logging.Error(s.logger, "delayed effect panicked", fmt.Errorf("%v", r),
					logging.FieldEvent, name, logging.FieldGameCode, code)
				applied = false
			}
			s.metrics.RecordEffect(name, applied)
		}()

		_ = s.do(code, func(sess *store.Session) error {
			if !cp.Matches(sess.Game) {
				return nil
			}
			applied = true
			fn(sess)
			return nil
		})
	})
}

// mirrorScores pushes team totals to the scoreboard cache off the command path
func (s *GameService) mirrorScores(g *model.Game) {
	if s.scoreboard == nil {
		return
	}
	code, teams := g.Code, g.Teams
	m := s.mirrorFor(code)
	seq := m.queued.Add(1)

	s.background(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if seq <= m.written {
			return
		}
		m.written = seq

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.scoreboard.SetScores(ctx, code, teams); err != nil {
			logging.Warn(s.logger, "scoreboard mirror failed", logging.FieldGameCode, code, logging.FieldError, err)
		}
	})
}

func (s *GameService) mirrorFor(code string) *scoreMirror {
	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()
	m, ok := s.mirrors[code]
	if !ok {
		m = &scoreMirror{}
		s.mirrors[code] = m
	}
	return m
}

// forgetScores drops the write ordering kept for an ended session
func (s *GameService) forgetScores(code string) {
	s.mirrorMu.Lock()
	delete(s.mirrors, code)
	s.mirrorMu.Unlock()
}

// finish announces game over and archives the result off the command path
func (s *GameService) finish(g *model.Game) {
	result := model.NewGameResult(g, s.now())
	s.emit(g, model.EvtGameOver, map[string]any{"result": result})
	s.mirrorScores(g)
	logging.Info(s.logger, "game finished", logging.FieldGameCode, g.Code)

	if s.results == nil {
		return
	}
	s.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.results.SaveResult(ctx, result); err != nil {
			logging.Error(s.logger, "archive result failed", err, logging.FieldGameCode, result.Code)
		}
	})
}

func decode(cmd model.Command, v any) error {
	if len(cmd.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(cmd.Payload, v); err != nil {
		return reject(ReasonInvalidCommand, "malformed payload: %v", err)
	}
	return nil
}
