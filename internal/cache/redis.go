// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup.
var Rdb *redis.Client

// QueueName is the Redis list (queue) the historian consumes.
var QueueName = "bloodrecall_actions"

// MatchActionRecord holds the minimal info needed by the historian.
type MatchActionRecord struct {
	MatchID       uuid.UUID              `json:"match_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorID       string                 `json:"actor_id"` // empty for actions the match issues itself
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client and pings it.
func ConnectRedis(ctx context.Context, addr string, db int, queue string) error {
	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if queue != "" {
		QueueName = queue
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishMatchAction serializes the record to JSON and pushes it onto the
// historian queue.
func PublishMatchAction(ctx context.Context, record MatchActionRecord) error {
	return PublishMatchActionTo(ctx, Rdb, record)
}

// PublishMatchActionTo is PublishMatchAction against an explicit client.
func PublishMatchActionTo(ctx context.Context, rdb redis.Cmdable, record MatchActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal MatchActionRecord: %w", err)
	}
	if err := rdb.RPush(ctx, QueueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", QueueName, err)
	}
	return nil
}

// PopMatchActions blocks up to timeout for the next record and then drains up
// to max-1 more without blocking. It returns no records and no error on
// timeout.
func PopMatchActions(ctx context.Context, rdb redis.Cmdable, timeout time.Duration, max int) ([]MatchActionRecord, error) {
	res, err := rdb.BLPop(ctx, timeout, QueueName).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPOP %s: %w", QueueName, err)
	}
	raw := []string{res[1]}
	if max > 1 {
		more, err := rdb.LPopCount(ctx, QueueName, max-1).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("LPOP %s: %w", QueueName, err)
		}
		raw = append(raw, more...)
	}

	// Malformed entries are dropped; the rest of the batch is still returned.
	out := make([]MatchActionRecord, 0, len(raw))
	var errs []error
	for _, r := range raw {
		var rec MatchActionRecord
		if err := json.Unmarshal([]byte(r), &rec); err != nil {
			errs = append(errs, fmt.Errorf("failed to decode MatchActionRecord: %w", err))
			continue
		}
		out = append(out, rec)
	}
	return out, errors.Join(errs...)
}
