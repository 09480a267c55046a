// Package cache stores computed grade statistics in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/grades"
	"github.com/RubachokBoss/classroom-service/internal/models"
)

type StatsCache interface {
	Get(ctx context.Context, scope, id string) (*grades.Summary, bool)
	Set(ctx context.Context, scope, id string, summary grades.Summary)
	// Invalidate drops the cached statistics of an assessment and its server.
	Invalidate(ctx context.Context, assessmentID, serverID string)
}

func statsKey(scope, id string) string {
	return fmt.Sprintf("stats:%s:%s", scope, id)
}

type redisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisStatsCache caches through client. A nil client disables caching.
func NewRedisStatsCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) StatsCache {
	return &redisStatsCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *redisStatsCache) Get(ctx context.Context, scope, id string) (*grades.Summary, bool) {
	if c.client == nil {
		return nil, false
	}

	key := statsKey(scope, id)
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Error().Err(err).Str("key", key).Msg("Redis GET failed")
		}
		return nil, false
	}

	var summary grades.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached stats")
		return nil, false
	}

	return &summary, true
}

func (c *redisStatsCache) Set(ctx context.Context, scope, id string, summary grades.Summary) {
	if c.client == nil {
		return
	}

	key := statsKey(scope, id)
	data, err := json.Marshal(summary)
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("Failed to marshal stats for caching")
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("Redis SET failed")
	}
}

func (c *redisStatsCache) Invalidate(ctx context.Context, assessmentID, serverID string) {
	if c.client == nil {
		return
	}

	keys := []string{statsKey(models.StatsScopeAssessment, assessmentID)}
	if serverID != "" {
		keys = append(keys, statsKey(models.StatsScopeServer, serverID))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error().Err(err).Strs("keys", keys).Msg("Redis DEL failed")
	}
}

// MemoryStatsCache is a process-local StatsCache without expiry.
type MemoryStatsCache struct {
	mu      sync.Mutex
	entries map[string]grades.Summary
}

func NewMemoryStatsCache() *MemoryStatsCache {
	return &MemoryStatsCache{entries: make(map[string]grades.Summary)}
}

func (c *MemoryStatsCache) Get(_ context.Context, scope, id string) (*grades.Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary, ok := c.entries[statsKey(scope, id)]
	if !ok {
		return nil, false
	}
	return &summary, true
}

func (c *MemoryStatsCache) Set(_ context.Context, scope, id string, summary grades.Summary) {
	c.mu.Lock()
	c.entries[statsKey(scope, id)] = summary
	c.mu.Unlock()
}

func (c *MemoryStatsCache) Invalidate(_ context.Context, assessmentID, serverID string) {
	c.mu.Lock()
	delete(c.entries, statsKey(models.StatsScopeAssessment, assessmentID))
	delete(c.entries, statsKey(models.StatsScopeServer, serverID))
	c.mu.Unlock()
}
