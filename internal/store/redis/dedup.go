package redis

import (
	"context"
	"fmt"
	"time"
)

const (
	dedupPrefix = "daylog:seen:"

	// dedupTTL comfortably exceeds any sane lookback window, so a restart's
	// re-fetch always finds its identifiers still marked.
	dedupTTL = 14 * 24 * time.Hour
)

// Seen reports whether a stable source identifier has already been ingested.
func (c *Client) Seen(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, dedupPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis.Client.Seen: %w", err)
	}
	return n > 0, nil
}

// Mark records a stable source identifier as ingested.
func (c *Client) Mark(ctx context.Context, key string) error {
	if err := c.client.Set(ctx, dedupPrefix+key, 1, dedupTTL).Err(); err != nil {
		return fmt.Errorf("redis.Client.Mark: %w", err)
	}
	return nil
}
