package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/trade-arena/pkg/state"
)

// Live episodes expire after a day of inactivity; completed episodes move to
// the archive and are deleted from Redis.
const episodeTTL = 24 * time.Hour

// RedisStorage implements the Storage interface using Redis for in-flight
// episode state.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

func episodeKey(id uuid.UUID) string {
	return "episode:" + id.String()
}

func (r *RedisStorage) SaveEpisode(ctx context.Context, es *state.EpisodeState) error {
	es.UpdatedAt = time.Now()

	data, err := json.Marshal(es)
	if err != nil {
		r.logger.Error("Failed to marshal episode", "uuid", es.ID, "error", err)
		return fmt.Errorf("failed to marshal episode: %w", err)
	}

	if err := r.client.Set(ctx, episodeKey(es.ID), string(data), episodeTTL).Err(); err != nil {
		r.logger.Error("Failed to save episode", "uuid", es.ID, "error", err)
		return fmt.Errorf("failed to save episode: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadEpisode(ctx context.Context, id uuid.UUID) (*state.EpisodeState, error) {
	cmd := r.client.Get(ctx, episodeKey(id))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Warn("Episode not found", "uuid", id)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load episode", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load episode: %w", err)
	}

	var es state.EpisodeState
	if err := json.Unmarshal([]byte(cmd.Val()), &es); err != nil {
		r.logger.Error("Failed to unmarshal episode", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal episode: %w", err)
	}
	return &es, nil
}

func (r *RedisStorage) DeleteEpisode(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, episodeKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete episode", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete episode: %w", err)
	}
	return nil
}
