package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// lastSeenKey is the hash holding userId -> unix milliseconds.
const lastSeenKey = "presence:lastseen"

const dialTimeout = 5 * time.Second

// Client keeps presence side data in Redis so it survives restarts and is
// shared by every process pointed at the same instance.
type Client struct {
	rdb *redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	// Test connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("[REDIS] Connected to Redis", "addr", opt.Addr)

	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// RecordLastSeen stores the moment userID's last connection closed.
func (c *Client) RecordLastSeen(ctx context.Context, userID string, at time.Time) error {
	if err := c.rdb.HSet(ctx, lastSeenKey, userID, at.UnixMilli()).Err(); err != nil {
		slog.Error("[REDIS] Failed to record last seen", "user", userID, "error", err)
		return err
	}
	return nil
}

// LastSeen reports when userID was last online. ok is false for users that
// have never disconnected.
func (c *Client) LastSeen(ctx context.Context, userID string) (time.Time, bool, error) {
	raw, err := c.rdb.HGet(ctx, lastSeenKey, userID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt last seen for %s: %w", userID, err)
	}
	return time.UnixMilli(ms).UTC(), true, nil
}
