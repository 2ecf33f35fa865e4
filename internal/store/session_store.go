package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"feudlive/internal/model"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionFull        = errors.New("session full")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrTeamNamesRequired  = errors.New("exactly two non-empty team names are required")
	ErrDuplicateTeamNames = errors.New("team names must differ")
	ErrPlayerNameRequired = errors.New("player name is required")
	ErrInvalidTeam        = errors.New("invalid team")
	ErrTeamFull           = errors.New("team full")
)

const (
	DefaultMaxPlayers = 10
	codeChars         = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLen           = 6
)

// Session is the locked view of one game handed to Do callbacks.
// It must not be retained after the callback returns.
type Session struct {
	Game    *model.Game
	players map[string]*model.Player
}

// Player returns the live player record, or nil
func (s *Session) Player(id string) *model.Player {
	return s.players[id]
}

// Players returns copies of the session's players in join order
func (s *Session) Players() []model.Player {
	out := make([]model.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// AssignTeam moves a player onto team, enforcing the per-team cap
func (s *Session) AssignTeam(playerID string, team model.TeamSlot, maxPerTeam int) error {
	p := s.players[playerID]
	if p == nil {
		return ErrPlayerNotFound
	}
	target := s.Game.Team(team)
	if target == nil {
		return ErrInvalidTeam
	}
	if target.HasMember(playerID) {
		return nil
	}
	if maxPerTeam > 0 && len(target.Members) >= maxPerTeam {
		return ErrTeamFull
	}
	if current := s.Game.Team(p.TeamID); current != nil {
		current.RemoveMember(playerID)
	}
	target.Members = append(target.Members, playerID)
	p.TeamID = team
	return nil
}

// AssignUnassigned puts every player without a team, in join order, on the
// team with fewer members (tie goes to team1). It returns the players moved.
func (s *Session) AssignUnassigned() []string {
	var moved []string
	for _, p := range s.Players() {
		if p.TeamID.Valid() {
			continue
		}
		if err := s.AssignTeam(p.ID, s.smallerTeam(), 0); err == nil {
			moved = append(moved, p.ID)
		}
	}
	return moved
}

func (s *Session) smallerTeam() model.TeamSlot {
	if len(s.Game.Teams[1].Members) < len(s.Game.Teams[0].Members) {
		return model.Team2
	}
	return model.Team1
}

// SetConnected flags a player's connection state and reports whether it changed
func (s *Session) SetConnected(playerID string, connected bool) bool {
	p := s.players[playerID]
	if p == nil || p.Connected == connected {
		return false
	}
	p.Connected = connected
	return true
}

type entry struct {
	mu      sync.Mutex
	session Session
	removed bool
}

// SessionStore holds every live game and player in memory.
// Lock order: an entry lock may be held while taking the store lock, never the reverse.
type SessionStore struct {
	mu         sync.RWMutex
	games      map[string]*entry
	playerGame map[string]string // playerID -> game code

	maxPlayers int
	now        func() time.Time
}

// Option configures a SessionStore
type Option func(*SessionStore)

// WithMaxPlayers overrides the per-session player cap
func WithMaxPlayers(n int) Option {
	return func(s *SessionStore) {
		if n > 0 {
			s.maxPlayers = n
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store
func New(opts ...Option) *SessionStore {
	s := &SessionStore{
		games:      make(map[string]*entry),
		playerGame: make(map[string]string),
		maxPlayers: DefaultMaxPlayers,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxPlayers returns the per-session player cap
func (s *SessionStore) MaxPlayers() int {
	return s.maxPlayers
}

// CreateGame registers a new waiting game and returns a copy of it
func (s *SessionStore) CreateGame(questions []model.Question, tossUp *model.Question, teamNames []string) (*model.Game, error) {
	if len(teamNames) != 2 {
		return nil, ErrTeamNamesRequired
	}
	names := [2]string{strings.TrimSpace(teamNames[0]), strings.TrimSpace(teamNames[1])}
	if names[0] == "" || names[1] == "" {
		return nil, ErrTeamNamesRequired
	}
	if cases.Fold().String(names[0]) == cases.Fold().String(names[1]) {
		return nil, ErrDuplicateTeamNames
	}

	game := &model.Game{
		Status:         model.StatusWaiting,
		CurrentRound:   model.RoundTossUp,
		Questions:      make([]model.Question, len(questions)),
		TossUpQuestion: tossUp.Clone(),
		Players:        []string{},
		GameState:      model.NewGameState(),
		CreatedAt:      s.now(),
	}
	for i := range questions {
		game.Questions[i] = *questions[i].Clone()
	}
	for i, slot := range model.TeamSlots {
		game.Teams[i] = model.Team{ID: slot, Name: names[i], Members: []string{}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.generateCode()
	if err != nil {
		return nil, err
	}
	game.Code = code
	s.games[code] = &entry{session: Session{Game: game, players: make(map[string]*model.Player)}}
	return game.Clone(), nil
}

// GetGame returns a snapshot of the game, or nil when absent
func (s *SessionStore) GetGame(code string) *model.Game {
	e := s.lookup(code)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil
	}
	return e.session.Game.Clone()
}

// GetPlayer returns a copy of the player, or nil when absent
func (s *SessionStore) GetPlayer(id string) *model.Player {
	s.mu.RLock()
	code, ok := s.playerGame[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	e := s.lookup(code)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.session.players[id]
	if p == nil || e.removed {
		return nil
	}
	cp := *p
	return &cp
}

// Do runs fn with exclusive access to the session. Mutations made by fn are
// atomic with respect to every other Do on the same code.
func (s *SessionStore) Do(code string, fn func(*Session) error) error {
	e := s.lookup(code)
	if e == nil {
		return ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return ErrSessionNotFound
	}
	return fn(&e.session)
}

// GamePatch lists top-level fields to overwrite; nil fields are left alone.
// GameState is replaced as a whole.
type GamePatch struct {
	Status               *model.GameStatus
	CurrentRound         *int
	CurrentQuestionIndex *int
	BuzzedTeamID         *model.TeamSlot
	ActiveTeamID         *model.TeamSlot
	TossUpWinner         *model.TossUpWinner
	GameState            *model.GameState
	PauseTimer           *bool
	DisableForceNext     *bool
}

// UpdateGame shallow-merges patch into the game and returns the result
func (s *SessionStore) UpdateGame(code string, patch GamePatch) (*model.Game, error) {
	var out *model.Game
	err := s.Do(code, func(sess *Session) error {
		g := sess.Game
		if patch.Status != nil {
			g.Status = *patch.Status
		}
		if patch.CurrentRound != nil {
			g.CurrentRound = *patch.CurrentRound
		}
		if patch.CurrentQuestionIndex != nil {
			g.CurrentQuestionIndex = *patch.CurrentQuestionIndex
		}
		if patch.BuzzedTeamID != nil {
			g.BuzzedTeamID = *patch.BuzzedTeamID
		}
		if patch.ActiveTeamID != nil {
			g.ActiveTeamID = *patch.ActiveTeamID
		}
		if patch.TossUpWinner != nil {
			w := *patch.TossUpWinner
			g.TossUpWinner = &w
		}
		if patch.GameState != nil {
			g.GameState = patch.GameState.Clone()
		}
		if patch.PauseTimer != nil {
			g.PauseTimer = *patch.PauseTimer
		}
		if patch.DisableForceNext != nil {
			g.DisableForceNext = *patch.DisableForceNext
		}
		out = g.Clone()
		return nil
	})
	return out, err
}

// JoinGame adds a player to a session. Passing the id of a player already in
// the session reconnects that player instead.
func (s *SessionStore) JoinGame(code, name, existingID string) (*model.Player, error) {
	name = strings.TrimSpace(name)
	code = NormalizeCode(code)

	e := s.lookup(code)
	if e == nil {
		return nil, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, ErrSessionNotFound
	}
	sess := &e.session

	if existingID != "" {
		if p := sess.players[existingID]; p != nil {
			p.Connected = true
			if name != "" {
				p.Name = name
			}
			cp := *p
			return &cp, nil
		}
	}
	if name == "" {
		return nil, ErrPlayerNameRequired
	}
	if len(sess.players) >= s.maxPlayers {
		return nil, ErrSessionFull
	}

	s.mu.Lock()
	id := existingID
	if _, taken := s.playerGame[id]; id == "" || taken {
		id = s.newPlayerID()
	}
	s.playerGame[id] = code
	s.mu.Unlock()

	p := &model.Player{
		ID:        id,
		Name:      name,
		GameCode:  code,
		Connected: true,
		JoinedAt:  s.now(),
	}
	sess.players[id] = p
	sess.Game.Players = append(sess.Game.Players, id)

	if sess.Game.Status != model.StatusWaiting {
		if err := sess.AssignTeam(id, sess.smallerTeam(), 0); err != nil {
			return nil, fmt.Errorf("auto-assign team: %w", err)
		}
	}

	cp := *p
	return &cp, nil
}

// Delete removes a session and its players
func (s *SessionStore) Delete(code string) bool {
	code = NormalizeCode(code)
	e := s.lookup(code)
	if e == nil {
		return false
	}
	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return false
	}
	e.removed = true
	ids := make([]string, 0, len(e.session.players))
	for id := range e.session.players {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	s.drop(code, ids)
	return true
}

// Sweep deletes every session created more than maxAge ago and returns their codes.
// Each session is re-checked under its own lock, so a command already holding
// the lock finishes first and later commands observe ErrSessionNotFound.
func (s *SessionStore) Sweep(maxAge time.Duration) []string {
	cutoff := s.now().Add(-maxAge)

	s.mu.RLock()
	candidates := make(map[string]*entry, len(s.games))
	for code, e := range s.games {
		candidates[code] = e
	}
	s.mu.RUnlock()

	var removed []string
	for code, e := range candidates {
		e.mu.Lock()
		if e.removed || !e.session.Game.CreatedAt.Before(cutoff) {
			e.mu.Unlock()
			continue
		}
		e.removed = true
		ids := make([]string, 0, len(e.session.players))
		for id := range e.session.players {
			ids = append(ids, id)
		}
		e.mu.Unlock()

		s.drop(code, ids)
		removed = append(removed, code)
	}
	sort.Strings(removed)
	return removed
}

// Count returns the number of live sessions
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

func (s *SessionStore) drop(code string, playerIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, code)
	for _, id := range playerIDs {
		if s.playerGame[id] == code {
			delete(s.playerGame, id)
		}
	}
}

func (s *SessionStore) lookup(code string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.games[NormalizeCode(code)]
}

// NormalizeCode canonicalizes a user-typed session code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// newPlayerID must be called with s.mu held
func (s *SessionStore) newPlayerID() string {
	for {
		id := "p_" + uuid.New().String()[:8]
		if _, taken := s.playerGame[id]; !taken {
			return id
		}
	}
}

// generateCode creates a 6-char code; must be called with s.mu held
func (s *SessionStore) generateCode() (string, error) {
	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, codeLen)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}

		code := make([]byte, codeLen)
		for i := range code {
			code[i] = codeChars[int(b[i])%len(codeChars)]
		}
		codeStr := string(code)

		if _, exists := s.games[codeStr]; !exists {
			return codeStr, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique session code")
}
