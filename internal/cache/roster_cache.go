package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const rosterKeyPrefix = "pipeline:roster:"

// RosterCache keeps team rosters (member ids of a leader) in Redis.
type RosterCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

// NewClient parses redisURL and checks the connection.
func NewClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}
	return client, nil
}

func NewRosterCache(client *redis.Client, ttl time.Duration) *RosterCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RosterCache{Redis: client, TTL: ttl}
}

func rosterKey(leaderID int) string {
	return rosterKeyPrefix + strconv.Itoa(leaderID)
}

// Get returns the cached roster of leaderID; ok is false on a miss.
func (c *RosterCache) Get(ctx context.Context, leaderID int) (ids []int, ok bool, err error) {
	raw, err := c.Redis.Get(ctx, rosterKey(leaderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get roster %d: %w", leaderID, err)
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false, fmt.Errorf("decode roster %d: %w", leaderID, err)
	}
	return ids, true, nil
}

func (c *RosterCache) Set(ctx context.Context, leaderID int, ids []int) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode roster %d: %w", leaderID, err)
	}
	if err := c.Redis.Set(ctx, rosterKey(leaderID), raw, c.TTL).Err(); err != nil {
		return fmt.Errorf("set roster %d: %w", leaderID, err)
	}
	return nil
}

// InvalidateAll drops every cached roster. Uses SCAN rather than KEYS.
func (c *RosterCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.Redis.Scan(ctx, cursor, rosterKeyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan roster keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.Redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete roster keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
