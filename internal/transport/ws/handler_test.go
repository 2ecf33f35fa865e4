package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"feudlive/internal/model"
	"feudlive/internal/service"
	"feudlive/internal/store"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

type wsFixture struct {
	server *httptest.Server
	games  *service.GameService
	auth   *service.AuthService
	code   string
}

func newFixture(t *testing.T) *wsFixture {
	t.Helper()
	st := store.New()
	auth := service.NewAuthService("test-secret", time.Hour)
	games := service.NewGameService(st, service.WithAuth(auth))
	hub := newTestHub(t)
	games.SetBroadcaster(hub)

	qs := []model.Question{
		{Round: 1, TeamAssignment: model.AssignTeam1, QuestionNumber: 1, Answers: []model.Answer{{Answer: "Clock", Score: 10}}},
	}
	g, err := st.CreateGame(qs, nil, []string{"Red", "Blue"})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	h := NewHandler(hub, games, auth, nil, []string{"*"})
	r := mux.NewRouter()
	r.HandleFunc("/v1/ws/sessions/{code}/host", h.HostWS)
	r.HandleFunc("/v1/ws/sessions/{code}/player", h.PlayerWS)
	r.HandleFunc("/v1/ws/sessions/{code}/observer", h.ObserverWS)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &wsFixture{server: server, games: games, auth: auth, code: g.Code}
}

func (f *wsFixture) url(path string) string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + path
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", url, err, status)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, want model.EventType) model.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var evt model.Event
		if err := conn.ReadJSON(&evt); err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		if evt.Type == want {
			return evt
		}
	}
}

func TestHostSocketRequiresMatchingToken(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/v1/ws/sessions/" + f.code + "/host")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	token, _, err := f.auth.IssueHostToken("OTHER1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	resp, err = http.Get(f.server.URL + "/v1/ws/sessions/" + f.code + "/host?token=" + token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for another session's token, got %d", resp.StatusCode)
	}
}

func TestHostAndPlayerOverSockets(t *testing.T) {
	f := newFixture(t)
	token, _, err := f.auth.IssueHostToken(f.code)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	host := dial(t, f.url("/v1/ws/sessions/"+f.code+"/host?token="+token))
	if err := host.WriteJSON(model.Command{Type: model.CmdHostJoin}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, host, model.EvtHostJoined)

	player := dial(t, f.url("/v1/ws/sessions/"+strings.ToLower(f.code)+"/player"))
	if err := player.WriteJSON(map[string]any{
		"type":    model.CmdPlayerJoin,
		"payload": map[string]string{"playerName": "alice"},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, player, model.EvtPlayerJoined)
	readUntil(t, host, model.EvtPlayersList)

	// Host-only commands from a player are refused to the sender alone
	if err := player.WriteJSON(model.Command{Type: model.CmdStartGame}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, player, model.EvtCommandRejected)

	if err := player.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, player, model.EvtCommandRejected)

	if err := host.WriteJSON(model.Command{Type: model.CmdStartGame}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, player, model.EvtGameStarted)

	// Leaving marks the player offline for everyone
	_ = player.Close()
	readUntil(t, host, model.EvtPlayersList)
}

func TestObserverUnknownSession(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.server.URL + "/v1/ws/sessions/NOPE00/observer")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
