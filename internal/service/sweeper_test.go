package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"feudlive/internal/cache"
	"feudlive/internal/metrics"
	"feudlive/internal/store"
)

func TestSweeperRemovesExpiredSessions(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	mr, client := newRedis(t)
	st := store.New(store.WithClock(clock))
	games := NewGameService(st, WithScheduler(&manualScheduler{}))
	codes := cache.NewCodeCache(client, time.Hour)
	sessions := NewSessionService(games, nil, codes, nil, nil, nil)
	out := &recordingBroadcaster{}
	sweeper := NewSweeper(st, sessions, out, nil, metrics.NewRecorder(), time.Minute, time.Hour)

	ctx := context.Background()
	old, err := sessions.Create(ctx, CreateSessionRequest{TeamNames: []string{"Red", "Blue"}, Questions: fixtureQuestions()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()
	fresh, err := sessions.Create(ctx, CreateSessionRequest{TeamNames: []string{"Red", "Blue"}, Questions: fixtureQuestions()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	removed := sweeper.SweepOnce(ctx)
	if len(removed) != 1 || removed[0] != old.Code {
		t.Fatalf("expected only %s to be swept, got %v", old.Code, removed)
	}
	if st.GetGame(old.Code) != nil || st.GetGame(fresh.Code) == nil {
		t.Fatalf("sweep removed the wrong session")
	}
	if len(out.disconnected) != 1 || out.disconnected[0] != old.Code {
		t.Fatalf("expected subscribers of %s to be dropped, got %v", old.Code, out.disconnected)
	}
	if mr.Exists("session:" + old.Code + ":owner") {
		t.Fatalf("expected the code reservation to be released")
	}
	if !mr.Exists("session:" + fresh.Code + ":owner") {
		t.Fatalf("fresh reservation must survive")
	}
}

func TestSweeperStartStop(t *testing.T) {
	st := store.New()
	sweeper := NewSweeper(st, nil, nil, nil, nil, time.Millisecond, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper.Start(ctx)
	sweeper.Start(ctx)
	sweeper.Stop()
	sweeper.Stop()
}
