package cache

import (
	"context"
	"testing"
	"time"

	"feudlive/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCodeCacheReserve(t *testing.T) {
	mr, client := newTestClient(t)
	c := NewCodeCache(client, time.Minute)
	ctx := context.Background()

	ok, err := c.Reserve(ctx, "ABC234", "node-a")
	if err != nil || !ok {
		t.Fatalf("expected first reservation to win, got %v %v", ok, err)
	}
	ok, err = c.Reserve(ctx, "ABC234", "node-b")
	if err != nil || ok {
		t.Fatalf("expected second reservation to lose, got %v %v", ok, err)
	}

	owner, err := c.Owner(ctx, "ABC234")
	if err != nil || owner != "node-a" {
		t.Fatalf("expected node-a, got %q %v", owner, err)
	}
	if ttl := mr.TTL("session:ABC234:owner"); ttl != time.Minute {
		t.Fatalf("expected one minute ttl, got %s", ttl)
	}

	mr.FastForward(2 * time.Minute)
	owner, err = c.Owner(ctx, "ABC234")
	if err != nil || owner != "" {
		t.Fatalf("expected reservation to expire, got %q %v", owner, err)
	}
}

func TestCodeCacheRelease(t *testing.T) {
	_, client := newTestClient(t)
	c := NewCodeCache(client, time.Minute)
	ctx := context.Background()

	_, _ = c.Reserve(ctx, "XYZ789", "node-a")
	if err := c.Release(ctx, "XYZ789"); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err := c.Reserve(ctx, "XYZ789", "node-b")
	if err != nil || !ok {
		t.Fatalf("expected code free after release, got %v %v", ok, err)
	}
}

func TestScoreboardCache(t *testing.T) {
	_, client := newTestClient(t)
	c := NewScoreboardCache(client, time.Hour)
	ctx := context.Background()

	empty, err := c.GetScores(ctx, "ABC234")
	if err != nil || empty != nil {
		t.Fatalf("expected nil miss, got %v %v", empty, err)
	}

	teams := [2]model.Team{
		{ID: model.Team1, Name: "Red", Score: 40},
		{ID: model.Team2, Name: "Blue", Score: 90},
	}
	if err := c.SetScores(ctx, "ABC234", teams); err != nil {
		t.Fatalf("set: %v", err)
	}
	teams[0].Score = 120
	if err := c.SetScores(ctx, "ABC234", teams); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := c.GetScores(ctx, "ABC234")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two entries, got %+v", got)
	}
	if got[0].TeamID != model.Team1 || got[0].Name != "Red" || got[0].Score != 120 || got[0].Rank != 1 {
		t.Fatalf("unexpected leader: %+v", got[0])
	}
	if got[1].TeamID != model.Team2 || got[1].Rank != 2 {
		t.Fatalf("unexpected runner-up: %+v", got[1])
	}

	if err := c.Delete(ctx, "ABC234"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := c.GetScores(ctx, "ABC234"); got != nil {
		t.Fatalf("expected scores gone, got %+v", got)
	}
}
