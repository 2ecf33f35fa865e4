package cache

import (
	"context"
	"fmt"
	"time"

	"feudlive/internal/model"

	"github.com/redis/go-redis/v9"
)

// ScoreboardCache mirrors team totals into a Redis ZSET per session
type ScoreboardCache interface {
	SetScores(ctx context.Context, code string, teams [2]model.Team) error
	GetScores(ctx context.Context, code string) ([]ScoreboardEntry, error)
	Delete(ctx context.Context, code string) error
}

// ScoreboardEntry is one team's line, highest score first
type ScoreboardEntry struct {
	TeamID model.TeamSlot `json:"teamId"`
	Name   string         `json:"name"`
	Score  int            `json:"score"`
	Rank   int            `json:"rank"`
}

type scoreboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScoreboardCache creates a new scoreboard cache
func NewScoreboardCache(client *redis.Client, ttl time.Duration) ScoreboardCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &scoreboardCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *scoreboardCache) key(code string) string {
	return fmt.Sprintf("session:%s:scores", code)
}

func (c *scoreboardCache) namesKey(code string) string {
	return fmt.Sprintf("session:%s:teams", code)
}

func (c *scoreboardCache) SetScores(ctx context.Context, code string, teams [2]model.Team) error {
	members := make([]redis.Z, 0, len(teams))
	names := make(map[string]interface{}, len(teams))
	for _, t := range teams {
		members = append(members, redis.Z{Score: float64(t.Score), Member: string(t.ID)})
		names[string(t.ID)] = t.Name
	}

	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, c.key(code), members...)
	pipe.HSet(ctx, c.namesKey(code), names)
	pipe.Expire(ctx, c.key(code), c.ttl)
	pipe.Expire(ctx, c.namesKey(code), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror scores for %s: %w", code, err)
	}
	return nil
}

// GetScores returns nil when nothing was mirrored for code
func (c *scoreboardCache) GetScores(ctx context.Context, code string) ([]ScoreboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(code), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	names, err := c.client.HGetAll(ctx, c.namesKey(code)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]ScoreboardEntry, len(results))
	for i, z := range results {
		id, _ := z.Member.(string)
		entries[i] = ScoreboardEntry{
			TeamID: model.TeamSlot(id),
			Name:   names[id],
			Score:  int(z.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}

func (c *scoreboardCache) Delete(ctx context.Context, code string) error {
	return c.client.Del(ctx, c.key(code), c.namesKey(code)).Err()
}
