package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"feudlive/internal/logging"
	"feudlive/internal/repository"
	"feudlive/internal/service"
	"feudlive/internal/store"
	"feudlive/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	sessions *service.SessionService
	results  repository.ResultRepo
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler. results may be nil when
// no archive is configured.
func NewSessionHandler(sessions *service.SessionService, results repository.ResultRepo, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, results: results, logger: logger}
}

type joinRequest struct {
	PlayerName string `json:"playerName"`
	PlayerID   string `json:"playerId,omitempty"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.sessions.Create(r.Context(), req)
	if err != nil {
		if !service.IsClientError(err) {
			logging.Error(h.logger, "create session failed", err)
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /v1/sessions/{code}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	g := h.sessions.Get(mux.Vars(r)["code"])
	if g == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Join handles POST /v1/sessions/{code}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.sessions.Join(r.Context(), mux.Vars(r)["code"], req.PlayerName, req.PlayerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Scoreboard handles GET /v1/sessions/{code}/scoreboard
func (h *SessionHandler) Scoreboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.sessions.Scoreboard(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"teams": entries})
}

// Result handles GET /v1/sessions/{code}/result for the host
func (h *SessionHandler) Result(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		writeError(w, http.StatusNotFound, "no result archive configured")
		return
	}

	code := middleware.GetGameCode(r.Context())
	result, err := h.results.GetResult(r.Context(), code)
	if err != nil {
		logging.Error(h.logger, "load result failed", err, logging.FieldGameCode, code)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "result not found")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Me handles GET /v1/sessions/{code}/me for a joined player
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	code := middleware.GetGameCode(r.Context())
	if h.sessions.Get(code) == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	p := h.sessions.Player(middleware.GetPlayerID(r.Context()))
	if p == nil || p.GameCode != code {
		writeError(w, http.StatusNotFound, store.ErrPlayerNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}
