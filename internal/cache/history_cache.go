package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"ragdocs/internal/model"
)

// HistoryCache keeps recent session transcripts in redis, keyed by owner and
// session so one tenant's view of a session id can never replace another's.
// A short-lived dirty marker set on every append keeps a concurrent reader
// from re-caching a transcript that is about to change.
type HistoryCache struct {
	client         *redisv9.Client
	historyTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewHistoryCache(client *redisv9.Client, historyTTL, dirtyMarkerTTL time.Duration) *HistoryCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &HistoryCache{
		client:         client,
		historyTTL:     historyTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *HistoryCache) GetTurns(ctx context.Context, sessionID string, userID uint) ([]model.ConversationTurn, bool, error) {
	raw, err := c.client.Get(ctx, c.historyKey(sessionID, userID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history failed: %w", err)
	}

	var turns []model.ConversationTurn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return turns, true, nil
}

func (c *HistoryCache) SetTurns(ctx context.Context, sessionID string, userID uint, turns []model.ConversationTurn) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.historyKey(sessionID, userID), payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) Invalidate(ctx context.Context, sessionID string, userID uint) error {
	if err := c.client.Set(ctx, c.dirtyKey(sessionID, userID), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	if err := c.client.Del(ctx, c.historyKey(sessionID, userID)).Err(); err != nil {
		return fmt.Errorf("redis delete history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) IsDirty(ctx context.Context, sessionID string, userID uint) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(sessionID, userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *HistoryCache) historyKey(sessionID string, userID uint) string {
	return fmt.Sprintf("conversation:history:%d:%s", userID, sessionID)
}

func (c *HistoryCache) dirtyKey(sessionID string, userID uint) string {
	return fmt.Sprintf("conversation:history:dirty:%d:%s", userID, sessionID)
}
