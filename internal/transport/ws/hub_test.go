package ws

import (
	"encoding/json"
	"testing"
	"time"

	"feudlive/internal/model"
	"feudlive/internal/service"
)

func receive(t *testing.T, conn *Connection) model.Event {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		if !ok {
			t.Fatalf("connection %s closed", conn.ID)
		}
		var evt model.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return evt
	case <-time.After(time.Second):
		t.Fatalf("no event for %s", conn.ID)
	}
	return model.Event{}
}

func expectNothing(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case data := <-conn.Send:
		t.Fatalf("unexpected message for %s: %s", conn.ID, data)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitClosed(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case _, ok := <-conn.Send:
		if ok {
			t.Fatalf("expected %s to be closed", conn.ID)
		}
	case <-time.After(time.Second):
		t.Fatalf("%s was not closed", conn.ID)
	}
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(nil, nil)
	t.Cleanup(h.Close)
	return h
}

func TestHubBroadcastReachesOnlyItsSession(t *testing.T) {
	h := newTestHub(t)
	host := NewConnection("host_1", "ABC234", service.RoleHost)
	player := NewConnection("conn_1", "ABC234", service.RolePlayer)
	other := NewConnection("conn_2", "XYZ789", service.RolePlayer)
	h.Register(host)
	h.Register(player)
	h.Register(other)

	h.Broadcast("ABC234", model.EvtGameStarted, map[string]any{"round": 0})

	for _, conn := range []*Connection{host, player} {
		evt := receive(t, conn)
		if evt.Type != model.EvtGameStarted {
			t.Fatalf("expected game-started, got %s", evt.Type)
		}
		var payload map[string]int
		if err := json.Unmarshal(evt.Payload, &payload); err != nil || payload["round"] != 0 {
			t.Fatalf("unexpected payload %s", evt.Payload)
		}
	}
	expectNothing(t, other)
}

func TestHubUnicastTargetsOneConnection(t *testing.T) {
	h := newTestHub(t)
	a := NewConnection("conn_a", "ABC234", service.RolePlayer)
	b := NewConnection("conn_b", "ABC234", service.RolePlayer)
	h.Register(a)
	h.Register(b)

	h.Unicast("ABC234", "conn_b", model.EvtAnswerRejected, map[string]string{"reason": "not-your-turn"})
	if evt := receive(t, b); evt.Type != model.EvtAnswerRejected {
		t.Fatalf("expected answer-rejected, got %s", evt.Type)
	}
	expectNothing(t, a)
}

func TestHubPreservesOrder(t *testing.T) {
	h := newTestHub(t)
	conn := NewConnection("conn_a", "ABC234", service.RolePlayer)
	h.Register(conn)

	events := []model.EventType{model.EvtAnswerCorrect, model.EvtRemainingCardsRevealed, model.EvtNextQuestion}
	for _, e := range events {
		h.Broadcast("ABC234", e, nil)
	}
	for _, want := range events {
		if got := receive(t, conn).Type; got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
}

func TestHubSerializesBeforeReturning(t *testing.T) {
	h := newTestHub(t)
	conn := NewConnection("conn_a", "ABC234", service.RolePlayer)
	h.Register(conn)

	payload := map[string]int{"score": 10}
	h.Broadcast("ABC234", model.EvtAnswerCorrect, payload)
	payload["score"] = 99

	var got map[string]int
	if err := json.Unmarshal(receive(t, conn).Payload, &got); err != nil || got["score"] != 10 {
		t.Fatalf("expected the payload as it was at broadcast time, got %v", got)
	}
}

func TestHubDisconnectSession(t *testing.T) {
	h := newTestHub(t)
	a := NewConnection("conn_a", "ABC234", service.RolePlayer)
	b := NewConnection("conn_b", "XYZ789", service.RolePlayer)
	h.Register(a)
	h.Register(b)

	h.DisconnectSession("ABC234")
	waitClosed(t, a)

	// Unregistering after the session was dropped must not double-close
	h.Unregister(a)
	h.Broadcast("XYZ789", model.EvtPlayersList, nil)
	if evt := receive(t, b); evt.Type != model.EvtPlayersList {
		t.Fatalf("expected the other session to stay up, got %s", evt.Type)
	}
	if n := h.Subscribers("ABC234"); n != 0 {
		t.Fatalf("expected no subscribers left, got %d", n)
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := newTestHub(t)
	conn := NewConnection("conn_a", "ABC234", service.RolePlayer)
	h.Register(conn)
	h.Unregister(conn)
	waitClosed(t, conn)
}
