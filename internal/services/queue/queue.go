package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// selfPlayQueueKey is the Redis list of episode IDs awaiting self-play.
const selfPlayQueueKey = "selfplay:episodes"

// Client wraps the Redis connection shared by queue consumers and producers
type Client struct {
	rdb *redis.Client
}

// NewClient creates a Redis queue client
func NewClient(redisURL string) *Client {
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr: redisURL,
		}),
	}
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// EpisodeQueue manages the queue of episodes waiting to be played by the
// self-play worker.
type EpisodeQueue struct {
	client *Client
}

func NewEpisodeQueue(client *Client) *EpisodeQueue {
	return &EpisodeQueue{client: client}
}

// Enqueue adds an episode to the end of the self-play queue
func (q *EpisodeQueue) Enqueue(ctx context.Context, episodeID uuid.UUID) error {
	if err := q.client.rdb.RPush(ctx, selfPlayQueueKey, episodeID.String()).Err(); err != nil {
		return fmt.Errorf("failed to enqueue episode: %w", err)
	}
	return nil
}

// Dequeue removes and returns the next queued episode. The second return is
// false when the queue is empty.
func (q *EpisodeQueue) Dequeue(ctx context.Context) (uuid.UUID, bool, error) {
	val, err := q.client.rdb.LPop(ctx, selfPlayQueueKey).Result()
	if err == redis.Nil {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to dequeue episode: %w", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt queue entry %q: %w", val, err)
	}
	return id, true, nil
}

// Depth returns the number of episodes waiting in the queue
func (q *EpisodeQueue) Depth(ctx context.Context) (int, error) {
	count, err := q.client.rdb.LLen(ctx, selfPlayQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}

// Clear removes all queued episodes
func (q *EpisodeQueue) Clear(ctx context.Context) error {
	if err := q.client.rdb.Del(ctx, selfPlayQueueKey).Err(); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}
