package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"feudlive/internal/logging"
	"feudlive/internal/metrics"
	"feudlive/internal/model"
	"feudlive/internal/service"
)

const sendBuffer = 256

// Hub manages the subscriber set of every session
type Hub struct {
	// Session code -> connections
	sessions map[string]map[*Connection]struct{}

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	outbound   chan *outboundMessage
	quit       chan struct{}
	closeOnce  sync.Once

	logger  *slog.Logger
	metrics *metrics.Recorder
}

// Connection is one subscriber of a session
type Connection struct {
	ID       string
	GameCode string
	Role     service.Role
	PlayerID string // Bound by a player token or a player-join
	Send     chan []byte
}

// NewConnection creates a subscriber with a buffered send queue
func NewConnection(id, gameCode string, role service.Role) *Connection {
	return &Connection{
		ID:       id,
		GameCode: gameCode,
		Role:     role,
		Send:     make(chan []byte, sendBuffer),
	}
}

type outboundMessage struct {
	gameCode string
	connID   string // Empty means every subscriber
	data     []byte
	closeAll bool
}

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger, recorder *metrics.Recorder) *Hub {
	h := &Hub{
		sessions:   make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		outbound:   make(chan *outboundMessage, sendBuffer),
		quit:       make(chan struct{}),
		logger:     logger,
		metrics:    recorder,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.sessions[conn.GameCode] == nil {
				h.sessions[conn.GameCode] = make(map[*Connection]struct{})
			}
			h.sessions[conn.GameCode][conn] = struct{}{}
			h.mu.Unlock()
			h.metrics.ConnectionOpened(string(conn.Role))
			logging.Debug(h.logger, "subscriber connected",
				logging.FieldGameCode, conn.GameCode,
				logging.FieldConnID, conn.ID,
				logging.FieldRole, conn.Role)

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.sessions[conn.GameCode]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					h.metrics.ConnectionClosed(string(conn.Role))
					if len(conns) == 0 {
						delete(h.sessions, conn.GameCode)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.outbound:
			if msg.closeAll {
				h.dropSession(msg.gameCode)
				continue
			}
			h.mu.RLock()
			for conn := range h.sessions[msg.gameCode] {
				if msg.connID != "" && conn.ID != msg.connID {
					continue
				}
				select {
				case conn.Send <- msg.data:
				default:
					// Drop message if buffer full
					logging.Warn(h.logger, "subscriber too slow, dropping event",
						logging.FieldGameCode, msg.gameCode, logging.FieldConnID, conn.ID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) dropSession(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.sessions[code]
	for conn := range conns {
		close(conn.Send)
		h.metrics.ConnectionClosed(string(conn.Role))
	}
	delete(h.sessions, code)
	if len(conns) > 0 {
		logging.Info(h.logger, "session subscribers dropped",
			logging.FieldGameCode, code, logging.FieldCount, len(conns))
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.quit:
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.quit:
	}
}

// Close stops the hub loop
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

// Subscribers returns how many connections a session has
func (h *Hub) Subscribers(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[code])
}

// Broadcast sends an event to every subscriber of a session (implements service.Broadcaster)
func (h *Hub) Broadcast(gameCode string, event model.EventType, payload any) {
	h.enqueue(gameCode, "", event, payload)
}

// Unicast sends an event to one connection (implements service.Broadcaster)
func (h *Hub) Unicast(gameCode, connID string, event model.EventType, payload any) {
	h.enqueue(gameCode, connID, event, payload)
}

// DisconnectSession closes every subscriber of a session (implements service.Broadcaster)
func (h *Hub) DisconnectSession(gameCode string) {
	h.push(&outboundMessage{gameCode: gameCode, closeAll: true})
}

// enqueue serializes before returning so later mutations of payload are not observed
func (h *Hub) enqueue(gameCode, connID string, event model.EventType, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		logging.Error(h.logger, "encode event failed", err,
			logging.FieldEvent, event, logging.FieldGameCode, gameCode)
		return
	}
	h.push(&outboundMessage{gameCode: gameCode, connID: connID, data: data})
}

func (h *Hub) push(msg *outboundMessage) {
	select {
	case h.outbound <- msg:
	case <-h.quit:
	}
}

func encode(event model.EventType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&model.Event{Type: event, Payload: raw})
}
