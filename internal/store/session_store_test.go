package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"feudlive/internal/model"
)

func newTestStore(t *testing.T, opts ...Option) *SessionStore {
	t.Helper()
	return New(opts...)
}

func createGame(t *testing.T, s *SessionStore) *model.Game {
	t.Helper()
	questions := []model.Question{
		{ID: "q1", Round: 1, TeamAssignment: model.AssignTeam1, QuestionNumber: 1, Answers: []model.Answer{{Answer: "Clock", Score: 10}}},
	}
	tossUp := &model.Question{ID: "t", Round: 0, TeamAssignment: model.AssignShared, QuestionNumber: 1}
	g, err := s.CreateGame(questions, tossUp, []string{"Red", "Blue"})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g
}

func TestCreateGame(t *testing.T) {
	s := newTestStore(t)
	g := createGame(t, s)

	if len(g.Code) != codeLen {
		t.Fatalf("expected %d-char code, got %q", codeLen, g.Code)
	}
	if g.Status != model.StatusWaiting {
		t.Fatalf("expected waiting, got %s", g.Status)
	}
	if g.Teams[0].ID != model.Team1 || g.Teams[1].ID != model.Team2 {
		t.Fatalf("unexpected team ids: %+v", g.Teams)
	}
	if g.Teams[0].Name != "Red" || g.Teams[1].Name != "Blue" {
		t.Fatalf("unexpected team names: %+v", g.Teams)
	}
	if s.Count() != 1 {
		t.Fatalf("expected one session, got %d", s.Count())
	}
}

func TestCreateGameRejectsTeamNames(t *testing.T) {
	cases := []struct {
		names []string
		want  error
	}{
		{[]string{"Red", "red "}, ErrDuplicateTeamNames},
		{[]string{"Straße", "STRASSE"}, ErrDuplicateTeamNames},
		{[]string{"Red"}, ErrTeamNamesRequired},
		{[]string{"Red", "  "}, ErrTeamNamesRequired},
		{[]string{"A", "B", "C"}, ErrTeamNamesRequired},
	}
	s := newTestStore(t)
	for _, tc := range cases {
		if _, err := s.CreateGame(nil, nil, tc.names); !errors.Is(err, tc.want) {
			t.Fatalf("names %q: expected %v, got %v", tc.names, tc.want, err)
		}
	}
	if s.Count() != 0 {
		t.Fatalf("expected no sessions after rejections")
	}
}

func TestGetMissReturnsNil(t *testing.T) {
	s := newTestStore(t)
	if g := s.GetGame("NOPE"); g != nil {
		t.Fatalf("expected nil game, got %+v", g)
	}
	if p := s.GetPlayer("p_missing"); p != nil {
		t.Fatalf("expected nil player, got %+v", p)
	}
}

func TestGetGameReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	g := createGame(t, s)

	snap := s.GetGame(g.Code)
	snap.Questions[0].Answers[0].Revealed = true
	snap.Teams[0].Score = 99

	again := s.GetGame(g.Code)
	if again.Questions[0].Answers[0].Revealed || again.Teams[0].Score != 0 {
		t.Fatalf("snapshot mutation leaked into store")
	}
}

func TestGetGameIsCaseInsensitiveOnCode(t *testing.T) {
	s := newTestStore(t)
	g := createGame(t, s)
	if s.GetGame(" "+toLower(g.Code)+" ") == nil {
		t.Fatalf("expected lookup to normalise the code")
	}
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

func TestJoinGame(t *testing.T) {
	s := newTestStore(t)
	g := createGame(t, s)

	p, err := s.JoinGame(g.Code, "Ann", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if p.ID == "" || !p.Connected || p.GameCode != g.Code {
		t.Fatalf("unexpected player: %+v", p)
	}
	if p.TeamID != model.NoTeam {
		t.Fatalf("players joining a waiting game pick their own team, got %s", p.TeamID)
	}
	if got := s.GetPlayer(p.ID); got == nil || got.Name != "Ann" {
		t.Fatalf("expected player lookup, got %+v", got)
	}
	if len(s.GetGame(g.Code).Players) != 1 {
		t.Fatalf("expected player id on game")
	}
}

func TestJoinGameRejoinIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	g := createGame(t, s)

	p, _ := s.JoinGame(g.Code, "Ann", "")
	_ = s.Do(g.Code, func(sess *Session) error {
		sess.SetConnected(p.ID, false)
		return nil
	})

	again, err := s.JoinGame(g.Code, "Ann", p.ID)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if again.ID != p.ID || !again.Connected {
		t.Fatalf("expected same connected player, got %+v", again)
	}
	if n := len(s.GetGame(g.Code).Players); n != 1 {
		t.Fatalf("expected one player after rejoin, got %d", n)
	}
}

func TestJoinGameReusesUnknownSuppliedID(t *testing.T) {
	s := newTestStore(t)
	g := createGame(t, s)

	p, err := s.JoinGame(g.Code, "Ann", "p_custom")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if p.ID != "p_custom" {
		t.Fatalf("expected supplied id to be kept, got %s", p.ID)
	}
}

func TestJoinGameErrors(t *testing.T) {
	s := newTestStore(t, WithMaxPlayers(2))
	g := createGame(t, s)

	if _, err := s.JoinGame("ZZZZZZ", "Ann", ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.JoinGame(g.Code, " ", ""); !errors.Is(err, ErrPlayerNameRequired) {
		t.Fatalf("expected name required, got %v", err)
	}
	first, _ := s.JoinGame(g.Code, "A", "")
	_, _ = s.JoinGame(g.Code, "B", "")
	if _, err := s.JoinGame(g.Code, "C", ""); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("expected session full, got %v", err)
	}
	if _, err := s.JoinGame(g.Code, "A", first.ID); err != nil {
		t.Fatalf("rejoin should bypass the cap, got %v", err)
	}
}

func TestJoinGameAutoAssignsMidGame(t *testing.T) {
	s := newTestStore(t)
	g := createGame(t, s)

	active := model.StatusActive
	if _, err := s.UpdateGame(g.Code, GamePatch{Status: &active}); err != nil {
		t.Fatalf("update: %v", err)
	}

	want := []model.TeamSlot{model.Team1, model.Team2, model.Team1, model.Team2}
	for i, team := range want {
		p, err := s.JoinGame(g.Code, fmt.Sprintf("P%d", i), "")
		if err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
		if p.TeamID != team {
			t.Fatalf("join %d: expected %s, got %s", i, team, p.TeamID)
		}
	}
	snap := s.GetGame(g.Code)
	if len(snap.Teams[0].Members) != 2 || len(snap.Teams[1].Members) != 2 {
		t.Fatalf("expected balanced teams, got %+v", snap.Teams)
	}
}

func TestAssignUnassignedBalancesTeams(t *testing.T) {
	s := newTestStore(t)
	g := createGame(t, s)

	var ids []string
	for i := 0; i < 4; i++ {
		p, err := s.JoinGame(g.Code, fmt.Sprintf("P%d", i), "")
		if err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
		ids = append(ids, p.ID)
	}

	err := s.Do(g.Code, func(sess *Session) error {
		if err := sess.AssignTeam(ids[0], model.Team1, 0); err != nil {
			return err
		}
		if moved := sess.AssignUnassigned(); len(moved) != 3 {
			t.Fatalf("expected three players moved, got %v", moved)
		}
		if again := sess.AssignUnassigned(); len(again) != 0 {
			t.Fatalf("expected nothing left to assign, got %v", again)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}

	snap := s.GetGame(g.Code)
	if len(snap.Teams[0].Members) != 2 || len(snap.Teams[1].Members) != 2 {
		t.Fatalf("expected balanced teams, got %+v", snap.Teams)
	}
	if got := s.GetPlayer(ids[0]).TeamID; got != model.Team1 {
		t.Fatalf("a player's own pick must stay, got %s", got)
	}
}

func TestAssignTeam(t *testing.T) {
	s := newTestStore(t)
	g := createGame(t, s)
	a, _ := s.JoinGame(g.Code, "A", "")
	b, _ := s.JoinGame(g.Code, "B", "")

	err := s.Do(g.Code, func(sess *Session) error {
		if err := sess.AssignTeam(a.ID, model.Team1, 1); err != nil {
			return err
		}
		if err := sess.AssignTeam(b.ID, model.Team1, 1); !errors.Is(err, ErrTeamFull) {
			t.Fatalf("expected team full, got %v", err)
		}
		if err := sess.AssignTeam(b.ID, model.NoTeam, 1); !errors.Is(err, ErrInvalidTeam) {
			t.Fatalf("expected invalid team, got %v", err)
		}
		return sess.AssignTeam(a.ID, model.Team2, 1)
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}

	snap := s.GetGame(g.Code)
	if len(snap.Teams[0].Members) != 0 || len(snap.Teams[1].Members) != 1 {
		t.Fatalf("expected player moved to team2, got %+v", snap.Teams)
	}
	if got := s.GetPlayer(a.ID); got.TeamID != model.Team2 {
		t.Fatalf("expected player team updated, got %s", got.TeamID)
	}
}

func TestUpdateGameShallowMerge(t *testing.T) {
	s := newTestStore(t)
	g := createGame(t, s)

	state := model.NewGameState()
	state.CurrentTurn = model.Team2
	round := 2
	out, err := s.UpdateGame(g.Code, GamePatch{CurrentRound: &round, GameState: &state})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.CurrentRound != 2 || out.GameState.CurrentTurn != model.Team2 {
		t.Fatalf("patch not applied: %+v", out)
	}
	if out.Status != model.StatusWaiting {
		t.Fatalf("untouched fields must survive, got %s", out.Status)
	}

	state.CurrentTurn = model.Team1
	if s.GetGame(g.Code).GameState.CurrentTurn != model.Team2 {
		t.Fatalf("patched state must be copied, not aliased")
	}

	if _, err := s.UpdateGame("NOPE", GamePatch{}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSweepRemovesExpiredSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithClock(func() time.Time { return now }))

	old := createGame(t, s)
	p, _ := s.JoinGame(old.Code, "Ann", "")

	now = now.Add(2 * time.Hour)
	fresh := createGame(t, s)

	removed := s.Sweep(time.Hour)
	if len(removed) != 1 || removed[0] != old.Code {
		t.Fatalf("expected only %s swept, got %v", old.Code, removed)
	}
	if s.GetGame(old.Code) != nil || s.GetPlayer(p.ID) != nil {
		t.Fatalf("expected swept session and its players gone")
	}
	if s.GetGame(fresh.Code) == nil {
		t.Fatalf("fresh session must survive")
	}
	if err := s.Do(old.Code, func(*Session) error { return nil }); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found after sweep, got %v", err)
	}
}

func TestSweepWaitsForInFlightCommand(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithClock(func() time.Time { return now }))
	g := createGame(t, s)
	now = now.Add(2 * time.Hour)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.Do(g.Code, func(sess *Session) error {
			close(entered)
			<-release
			sess.Game.Teams[0].Score = 5
			return nil
		})
	}()
	<-entered

	swept := make(chan []string, 1)
	go func() { swept <- s.Sweep(time.Hour) }()

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("in-flight command should complete, got %v", err)
	}
	if got := <-swept; len(got) != 1 {
		t.Fatalf("expected session swept after the command, got %v", got)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	g := createGame(t, s)
	if !s.Delete(g.Code) {
		t.Fatalf("expected delete to report removal")
	}
	if s.Delete(g.Code) {
		t.Fatalf("second delete must be a no-op")
	}
	if s.Count() != 0 {
		t.Fatalf("expected empty store")
	}
}
