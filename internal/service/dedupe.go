package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dedupeTTL    = 24 * time.Hour
	dedupePrefix = "event_seen:"
)

// EventDeduper suppresses duplicate Events API deliveries. Slack retries a
// delivery up to three times on slow responses, always with the same event_id.
type EventDeduper interface {
	// Seen marks the event and reports whether it was already delivered.
	Seen(ctx context.Context, eventID string) (bool, error)
	// Forget clears the marker so a retried delivery is not dropped after
	// the first one failed downstream of the dedupe check.
	Forget(ctx context.Context, eventID string) error
}

type redisDeduper struct {
	redis *redis.Client
}

func NewEventDeduper(redisClient *redis.Client) EventDeduper {
	return &redisDeduper{redis: redisClient}
}

func (d *redisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	set, err := d.redis.SetNX(ctx, dedupePrefix+eventID, 1, dedupeTTL).Result()
	if err != nil {
		return false, fmt.Errorf("marking event seen: %w", err)
	}
	return !set, nil
}

func (d *redisDeduper) Forget(ctx context.Context, eventID string) error {
	if err := d.redis.Del(ctx, dedupePrefix+eventID).Err(); err != nil {
		return fmt.Errorf("clearing event marker: %w", err)
	}
	return nil
}
