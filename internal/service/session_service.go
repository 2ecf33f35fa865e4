package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"feudlive/internal/cache"
	"feudlive/internal/logging"
	"feudlive/internal/model"
	"feudlive/internal/repository"
	"feudlive/internal/store"

	"github.com/google/uuid"
)

// maxCodeAttempts bounds how often a code lost to another instance is retried
const maxCodeAttempts = 5

// CreateSessionRequest prepares a session from a stored set or inline questions
type CreateSessionRequest struct {
	TeamNames      []string         `json:"teamNames"`
	QuestionSetID  string           `json:"questionSetId,omitempty"`
	Questions      []model.Question `json:"questions,omitempty"`
	TossUpQuestion *model.Question  `json:"tossUpQuestion,omitempty"`
}

// CreateSessionResponse carries the new code and the host's credential
type CreateSessionResponse struct {
	Code      string      `json:"code"`
	HostToken string      `json:"hostToken"`
	Game      *model.Game `json:"game"`
}

// SessionService owns the session lifecycle outside of live play
type SessionService struct {
	games      *GameService
	store      *store.SessionStore
	questions  repository.QuestionSource
	codes      cache.CodeCache
	scoreboard cache.ScoreboardCache
	auth       *AuthService
	logger     *slog.Logger
	owner      string
}

// NewSessionService creates a session service. questions, codes and
// scoreboard may be nil.
func NewSessionService(
	games *GameService,
	questions repository.QuestionSource,
	codes cache.CodeCache,
	scoreboard cache.ScoreboardCache,
	auth *AuthService,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		games:      games,
		store:      games.Store(),
		questions:  questions,
		codes:      codes,
		scoreboard: scoreboard,
		auth:       auth,
		logger:     logger,
		owner:      "node_" + uuid.New().String()[:8],
	}
}

// Owner is the id this instance reserves codes under
func (s *SessionService) Owner() string {
	return s.owner
}

// Create registers a new waiting session and issues the host token
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*CreateSessionResponse, error) {
	questions, tossUp := req.Questions, req.TossUpQuestion

	// Resolve a stored question set
	if req.QuestionSetID != "" {
		if s.questions == nil {
			return nil, ErrQuestionSetNotFound
		}
		set, err := s.questions.GetSet(ctx, req.QuestionSetID)
		if err != nil {
			return nil, fmt.Errorf("load question set: %w", err)
		}
		if set == nil {
			return nil, ErrQuestionSetNotFound
		}
		questions, tossUp = set.Questions, set.TossUp
	}

	if err := ValidateQuestions(questions, tossUp); err != nil {
		return nil, err
	}

	game, err := s.createUnique(ctx, questions, tossUp, req.TeamNames)
	if err != nil {
		return nil, err
	}

	resp := &CreateSessionResponse{Code: game.Code, Game: game}
	if s.auth != nil {
		token, _, err := s.auth.IssueHostToken(game.Code)
		if err != nil {
			s.discard(ctx, game.Code)
			return nil, fmt.Errorf("issue host token: %w", err)
		}
		resp.HostToken = token
	}

	if s.scoreboard != nil {
		if err := s.scoreboard.SetScores(ctx, game.Code, game.Teams); err != nil {
			logging.Warn(s.logger, "scoreboard seed failed", logging.FieldGameCode, game.Code, logging.FieldError, err)
		}
	}

	s.games.metrics.SetSessions(s.store.Count())
	logging.Info(s.logger, "session created", logging.FieldGameCode, game.Code)
	return resp, nil
}

// createUnique creates the game and claims its code across instances
func (s *SessionService) createUnique(ctx context.Context, questions []model.Question, tossUp *model.Question, names []string) (*model.Game, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		game, err := s.store.CreateGame(questions, tossUp, names)
		if err != nil {
			return nil, err
		}
		if s.codes == nil {
			return game, nil
		}

		ok, err := s.codes.Reserve(ctx, game.Code, s.owner)
		if err != nil {
			// Redis being down must not stop local play
			logging.Warn(s.logger, "code reservation failed", logging.FieldGameCode, game.Code, logging.FieldError, err)
			return game, nil
		}
		if ok {
			return game, nil
		}
		s.store.Delete(game.Code)
	}
	return nil, ErrCodeUnavailable
}

func (s *SessionService) discard(ctx context.Context, code string) {
	s.store.Delete(code)
	if s.codes != nil {
		_ = s.codes.Release(ctx, code)
	}
}

// Join adds a player through the same path as the websocket player-join
func (s *SessionService) Join(ctx context.Context, code, name, existingID string) (*model.PlayerJoinResponse, error) {
	return s.games.Join(ctx, code, name, existingID)
}

// Get returns a snapshot of the session, or nil
func (s *SessionService) Get(code string) *model.Game {
	return s.store.GetGame(code)
}

// Player returns a copy of a joined player, or nil
func (s *SessionService) Player(id string) *model.Player {
	return s.store.GetPlayer(id)
}

// Scoreboard reads the mirrored standings, falling back to live state
func (s *SessionService) Scoreboard(ctx context.Context, code string) ([]cache.ScoreboardEntry, error) {
	if s.scoreboard != nil {
		entries, err := s.scoreboard.GetScores(ctx, store.NormalizeCode(code))
		if err != nil {
			logging.Warn(s.logger, "scoreboard read failed", logging.FieldGameCode, code, logging.FieldError, err)
		}
		if len(entries) > 0 {
			return entries, nil
		}
	}

	game := s.store.GetGame(code)
	if game == nil {
		return nil, store.ErrSessionNotFound
	}
	return Standings(game), nil
}

// Standings ranks the teams of g, highest score first
func Standings(g *model.Game) []cache.ScoreboardEntry {
	entries := make([]cache.ScoreboardEntry, 0, len(g.Teams))
	for _, t := range g.Teams {
		entries = append(entries, cache.ScoreboardEntry{TeamID: t.ID, Name: t.Name, Score: t.Score})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Release frees everything held outside the store for code
func (s *SessionService) Release(ctx context.Context, code string) {
	if s.codes != nil {
		if err := s.codes.Release(ctx, code); err != nil {
			logging.Warn(s.logger, "code release failed", logging.FieldGameCode, code, logging.FieldError, err)
		}
	}
	s.games.forgetScores(code)
	if s.scoreboard != nil {
		if err := s.scoreboard.Delete(ctx, code); err != nil {
			logging.Warn(s.logger, "scoreboard delete failed", logging.FieldGameCode, code, logging.FieldError, err)
		}
	}
}

// ValidateQuestions checks a prepared set can be played through: rounds 1-3
// carry team1/team2 questions numbered 1-3, round 4 carries shared questions
// numbered 1-7, and every round has a first question.
func ValidateQuestions(questions []model.Question, tossUp *model.Question) error {
	if tossUp != nil && len(tossUp.Answers) == 0 {
		return fmt.Errorf("%w: toss-up has no answers", ErrInvalidQuestions)
	}

	type slot struct {
		round  int
		team   model.TeamAssignment
		number int
	}
	seen := make(map[slot]bool, len(questions))
	first := make(map[int]bool)

	for i, q := range questions {
		if len(q.Answers) == 0 {
			return fmt.Errorf("%w: question %d has no answers", ErrInvalidQuestions, i)
		}
		switch {
		case model.IsStandardRound(q.Round):
			if q.TeamAssignment != model.AssignTeam1 && q.TeamAssignment != model.AssignTeam2 {
				return fmt.Errorf("%w: question %d in round %d needs a team", ErrInvalidQuestions, i, q.Round)
			}
			if q.QuestionNumber < 1 || q.QuestionNumber > model.StandardSlots {
				return fmt.Errorf("%w: question %d numbered %d", ErrInvalidQuestions, i, q.QuestionNumber)
			}
		case q.Round == model.RoundLightning:
			if q.TeamAssignment != model.AssignShared {
				return fmt.Errorf("%w: lightning question %d must be shared", ErrInvalidQuestions, i)
			}
			if q.QuestionNumber < 1 || q.QuestionNumber > model.LightningSlots {
				return fmt.Errorf("%w: question %d numbered %d", ErrInvalidQuestions, i, q.QuestionNumber)
			}
		default:
			return fmt.Errorf("%w: question %d has round %d", ErrInvalidQuestions, i, q.Round)
		}

		key := slot{q.Round, q.TeamAssignment, q.QuestionNumber}
		if seen[key] {
			return fmt.Errorf("%w: duplicate round %d %s #%d", ErrInvalidQuestions, q.Round, q.TeamAssignment, q.QuestionNumber)
		}
		seen[key] = true
		if q.QuestionNumber == 1 {
			first[q.Round] = true
		}
	}

	for r := model.FirstStandardRound; r <= model.RoundLightning; r++ {
		if !first[r] {
			return fmt.Errorf("%w: round %d has no first question", ErrInvalidQuestions, r)
		}
	}
	return nil
}

// IsClientError reports whether err stems from a bad request rather than a fault
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidQuestions) ||
		errors.Is(err, ErrQuestionSetNotFound) ||
		errors.Is(err, store.ErrTeamNamesRequired) ||
		errors.Is(err, store.ErrDuplicateTeamNames) ||
		errors.Is(err, store.ErrPlayerNameRequired) ||
		errors.Is(err, repository.ErrInvalidSetID)
}
