package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// ReportCache keeps report results in redis for a short TTL so repeated admin
// polls do not rescan the logs. Every cache failure falls back to a fresh
// build; the cache can never make a report request fail.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ReportCache{client: client, ttl: ttl}
}

func reportCacheKey(id int) string {
	return fmt.Sprintf("report:%d", id)
}

// Get returns the cached rows for the report id, or nil on a miss or any
// redis failure.
func (c *ReportCache) Get(ctx context.Context, id int) []ReportRow {
	if c == nil || c.client == nil {
		return nil
	}
	val, err := c.client.Get(ctx, reportCacheKey(id)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("report cache: get failed: %v", err)
		}
		return nil
	}
	var rows []ReportRow
	if err := json.Unmarshal([]byte(val), &rows); err != nil {
		log.Printf("report cache: corrupt entry for report %d: %v", id, err)
		return nil
	}
	return rows
}

// Put stores the rows best-effort.
func (c *ReportCache) Put(ctx context.Context, id int, rows []ReportRow) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(rows)
	if err != nil {
		log.Printf("report cache: marshal failed: %v", err)
		return
	}
	if err := c.client.Set(ctx, reportCacheKey(id), data, c.ttl).Err(); err != nil {
		log.Printf("report cache: set failed: %v", err)
	}
}
