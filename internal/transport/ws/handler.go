package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"feudlive/internal/logging"
	"feudlive/internal/model"
	"feudlive/internal/service"
	"feudlive/internal/store"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	games    *service.GameService
	authSvc  *service.AuthService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. An origin list containing "*"
// accepts every origin.
func NewHandler(hub *Hub, games *service.GameService, authSvc *service.AuthService, logger *slog.Logger, origins []string) *Handler {
	return &Handler{
		hub:     hub,
		games:   games,
		authSvc: authSvc,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}

// HostWS handles GET /v1/ws/sessions/{code}/host
func (h *Handler) HostWS(w http.ResponseWriter, r *http.Request) {
	code := store.NormalizeCode(mux.Vars(r)["code"])
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateHostToken(token)
	if err != nil || claims.HostID == "" {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if claims.GameCode != code {
		http.Error(w, "token not valid for this session", http.StatusForbidden)
		return
	}
	if h.games.Store().GetGame(code) == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	h.serve(w, r, NewConnection(claims.HostID, code, service.RoleHost))
}

// PlayerWS handles GET /v1/ws/sessions/{code}/player. A token from an
// earlier join binds the connection to that player; otherwise the client
// sends player-join.
func (h *Handler) PlayerWS(w http.ResponseWriter, r *http.Request) {
	code := store.NormalizeCode(mux.Vars(r)["code"])

	playerID := ""
	if token := r.URL.Query().Get("token"); token != "" {
		claims, err := h.authSvc.ValidatePlayerToken(token)
		if err != nil || claims.PlayerID == "" {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if claims.GameCode != code {
			http.Error(w, "token not valid for this session", http.StatusForbidden)
			return
		}
		playerID = claims.PlayerID
	}
	if h.games.Store().GetGame(code) == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn := NewConnection("conn_"+uuid.New().String(), code, service.RolePlayer)
	conn.PlayerID = playerID
	h.serve(w, r, conn)
}

// ObserverWS handles GET /v1/ws/sessions/{code}/observer
func (h *Handler) ObserverWS(w http.ResponseWriter, r *http.Request) {
	code := store.NormalizeCode(mux.Vars(r)["code"])
	if h.games.Store().GetGame(code) == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	h.serve(w, r, NewConnection("obs_"+uuid.New().String(), code, service.RoleObserver))
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, conn *Connection) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn(h.logger, "websocket upgrade failed", logging.FieldPath, r.URL.Path, logging.FieldError, err)
		return
	}

	h.hub.Register(conn)
	logging.Info(h.logger, "websocket connected",
		logging.FieldGameCode, conn.GameCode,
		logging.FieldRole, conn.Role,
		logging.FieldConnID, conn.ID)

	sender := &service.Sender{ConnID: conn.ID, Role: conn.Role, PlayerID: conn.PlayerID}
	ctx := context.Background()

	// Reconnect a player that presented a token
	if sender.PlayerID != "" {
		res, err := h.games.Join(ctx, conn.GameCode, "", sender.PlayerID)
		if err != nil {
			sender.PlayerID = ""
		} else {
			h.hub.Unicast(conn.GameCode, conn.ID, model.EvtPlayerJoined, res)
		}
	}

	go h.writePump(wsConn, conn)
	h.readPump(ctx, wsConn, conn, sender)
}

func (h *Handler) readPump(ctx context.Context, wsConn *websocket.Conn, conn *Connection, sender *service.Sender) {
	defer func() {
		h.hub.Unregister(conn)
		_ = wsConn.Close()
		if sender.Role == service.RolePlayer {
			h.games.Disconnect(conn.GameCode, sender.PlayerID)
		}
		logging.Info(h.logger, "websocket disconnected",
			logging.FieldGameCode, conn.GameCode, logging.FieldConnID, conn.ID)
	}()

	wsConn.SetReadLimit(maxMessageSize)
	_ = wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn(h.logger, "websocket read failed", logging.FieldConnID, conn.ID, logging.FieldError, err)
			}
			return
		}

		var cmd model.Command
		if err := json.Unmarshal(data, &cmd); err != nil || cmd.Type == "" {
			h.hub.Unicast(conn.GameCode, conn.ID, model.EvtCommandRejected, map[string]any{
				"reason":  service.ReasonInvalidCommand,
				"message": "malformed command",
			})
			continue
		}
		// A connection only ever speaks for its own session
		cmd.GameCode = conn.GameCode

		if err := h.games.Handle(ctx, sender, cmd); err != nil {
			logging.Debug(h.logger, "command refused",
				logging.FieldCommand, cmd.Type, logging.FieldConnID, conn.ID, logging.FieldError, err)
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			_ = wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
