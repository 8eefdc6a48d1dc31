package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	waitingKey      = "match:waiting" // Sorted set: user IDs scored by enqueue time
	queueMetaPrefix = "match:entry:"  // Hash prefix: match:entry:{userID} -> entry details
)

// MatchQueue stores the matchmaking waiting line in Redis. The sorted set
// keeps FIFO order by enqueue time; the per-user hash carries display data
// shown to the matched peer.
type MatchQueue struct {
	client *redis.Client
}

// NewMatchQueue creates a MatchQueue instance
func NewMatchQueue(client *redis.Client) *MatchQueue {
	return &MatchQueue{client: client}
}

// Helper to generate the per-entry meta key
func queueMetaKey(userID string) string {
	return queueMetaPrefix + userID
}

// Ping verifies the Redis connection.
func (q *MatchQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Enqueue adds a user to the waiting line. Re-enqueueing a waiting user is a
// no-op so the original position is kept.
func (q *MatchQueue) Enqueue(ctx context.Context, userID, handle string) error {
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}

	pipe := q.client.Pipeline()
	pipe.ZAddNX(ctx, waitingKey, &redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: userID,
	})
	pipe.HSet(ctx, queueMetaKey(userID), map[string]interface{}{
		"handle":      handle,
		"enqueued_at": time.Now().UnixMilli(),
	})
	// Meta outlives the zset entry on purpose: Restore needs the original
	// enqueue time after a failed pairing. The expiry bounds orphans.
	pipe.Expire(ctx, queueMetaKey(userID), 24*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("Failed to enqueue user", "error", err, "user_id", userID)
		return fmt.Errorf("failed to enqueue user: %w", err)
	}
	slog.Info("User enqueued for matchmaking", "user_id", userID)
	return nil
}

// Leave removes a user from the waiting line.
func (q *MatchQueue) Leave(ctx context.Context, userID string) error {
	pipe := q.client.Pipeline()
	pipe.ZRem(ctx, waitingKey, userID)
	pipe.Del(ctx, queueMetaKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("Failed to remove user from queue", "error", err, "user_id", userID)
		return fmt.Errorf("failed to leave queue: %w", err)
	}
	return nil
}

// Position returns the zero-based queue position, or -1 when not waiting.
func (q *MatchQueue) Position(ctx context.Context, userID string) (int64, error) {
	rank, err := q.client.ZRank(ctx, waitingKey, userID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		slog.Error("Failed to get queue position", "error", err, "user_id", userID)
		return -1, fmt.Errorf("failed to get queue position: %w", err)
	}
	return rank, nil
}

// Size returns the number of waiting users.
func (q *MatchQueue) Size(ctx context.Context) (int64, error) {
	size, err := q.client.ZCard(ctx, waitingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue size: %w", err)
	}
	return size, nil
}

// PopPair atomically claims the two longest-waiting users. When fewer than
// two are waiting the popped entry is pushed back at its original position
// and both results are empty.
func (q *MatchQueue) PopPair(ctx context.Context) (string, string, error) {
	entries, err := q.client.ZPopMin(ctx, waitingKey, 2).Result()
	if err != nil {
		slog.Error("Failed to pop waiting pair", "error", err)
		return "", "", fmt.Errorf("failed to pop waiting pair: %w", err)
	}

	if len(entries) < 2 {
		for _, entry := range entries {
			q.client.ZAdd(ctx, waitingKey, &redis.Z{Score: entry.Score, Member: entry.Member})
		}
		return "", "", nil
	}

	first, _ := entries[0].Member.(string)
	second, _ := entries[1].Member.(string)
	return first, second, nil
}

// Forget drops the meta of users whose pairing completed.
func (q *MatchQueue) Forget(ctx context.Context, userIDs ...string) error {
	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, queueMetaKey(userID))
	}
	if err := q.client.Del(ctx, keys...).Err(); err != nil {
		slog.Error("Failed to drop queue meta", "error", err)
		return fmt.Errorf("failed to drop queue meta: %w", err)
	}
	return nil
}

// Restore puts a popped user back into the waiting line at the original
// enqueue time, so a failed pairing does not cost the queue position.
func (q *MatchQueue) Restore(ctx context.Context, userID string) error {
	score := float64(time.Now().UnixMilli())
	if raw, err := q.client.HGet(ctx, queueMetaKey(userID), "enqueued_at").Result(); err == nil {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			score = float64(ms)
		}
	}

	if err := q.client.ZAddNX(ctx, waitingKey, &redis.Z{Score: score, Member: userID}).Err(); err != nil {
		slog.Error("Failed to restore user to queue", "error", err, "user_id", userID)
		return fmt.Errorf("failed to restore user to queue: %w", err)
	}
	slog.Info("User restored to matchmaking queue", "user_id", userID)
	return nil
}

// EvictStale removes entries older than ttl and returns the evicted user IDs
// so their clients can be notified.
func (q *MatchQueue) EvictStale(ctx context.Context, ttl time.Duration) ([]string, error) {
	cutoff := strconv.FormatInt(time.Now().Add(-ttl).UnixMilli(), 10)

	stale, err := q.client.ZRangeByScore(ctx, waitingKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: cutoff,
	}).Result()
	if err != nil {
		slog.Error("Failed to list stale queue entries", "error", err)
		return nil, fmt.Errorf("failed to list stale queue entries: %w", err)
	}
	if len(stale) == 0 {
		return nil, nil
	}

	pipe := q.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, waitingKey, "-inf", cutoff)
	for _, userID := range stale {
		pipe.Del(ctx, queueMetaKey(userID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("Failed to evict stale queue entries", "error", err)
		return nil, fmt.Errorf("failed to evict stale queue entries: %w", err)
	}

	slog.Info("Stale queue entries evicted", "count", len(stale))
	return stale, nil
}
