package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache key not found")
)

type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	LessonCacheConfig     = CacheConfig{TTL: 30 * time.Minute, Prefix: "lesson:"}
	HomeworkCacheConfig   = CacheConfig{TTL: 15 * time.Minute, Prefix: "homework:"}
	SubmissionCacheConfig = CacheConfig{TTL: 10 * time.Minute, Prefix: "submission:"}
	StatsCacheConfig      = CacheConfig{TTL: 10 * time.Minute, Prefix: "stats:"}
	ExistsCacheConfig     = CacheConfig{TTL: 2 * time.Minute, Prefix: "exists:"}
	FastCacheConfig       = CacheConfig{TTL: 5 * time.Minute, Prefix: "fast:"}
)

// CacheHelper wraps a redis client with key prefixing and JSON codec.
// A nil client degrades gracefully: reads miss, writes are no-ops.
type CacheHelper struct {
	client *redis.Client
	prefix string
}

func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{client: client, prefix: prefix}
}

func (c *CacheHelper) key(key string) string {
	return c.prefix + key
}

func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return nil
}

func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, c.key(key))
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *CacheHelper) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, ErrCacheNotAvailable
	}

	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists failed: %w", err)
	}
	return n > 0, nil
}

// InvalidatePattern removes all keys matching the prefixed pattern using
// SCAN to avoid blocking redis.
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	var cursor uint64
	fullPattern := c.key(pattern)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, fullPattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache delete failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

// CacheOrExecute reads through the cache; on miss it runs fetchFunc, fills
// dest, and writes the cache entry asynchronously.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetchFunc func() (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		return err
	}

	result, err := fetchFunc()
	if err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal fetch result failed: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal fetch result failed: %w", err)
	}

	if c.client != nil {
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = c.Set(bgCtx, key, result, ttl)
		}()
	}
	return nil
}

// CacheManager groups the per-concern helpers.
type CacheManager struct {
	Lesson     *CacheHelper
	Homework   *CacheHelper
	Submission *CacheHelper
	Stats      *CacheHelper
	Exists     *CacheHelper
	Fast       *CacheHelper

	client *redis.Client
}

func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{
		Lesson:     NewCacheHelper(client, LessonCacheConfig.Prefix),
		Homework:   NewCacheHelper(client, HomeworkCacheConfig.Prefix),
		Submission: NewCacheHelper(client, SubmissionCacheConfig.Prefix),
		Stats:      NewCacheHelper(client, StatsCacheConfig.Prefix),
		Exists:     NewCacheHelper(client, ExistsCacheConfig.Prefix),
		Fast:       NewCacheHelper(client, FastCacheConfig.Prefix),
		client:     client,
	}
}

func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return ErrCacheNotAvailable
	}
	return cm.client.Ping(ctx).Err()
}

func (cm *CacheManager) ClearAll(ctx context.Context) error {
	if cm.client == nil {
		return nil
	}
	return cm.client.FlushDB(ctx).Err()
}

func (cm *CacheManager) InvalidateHomework(ctx context.Context, homeworkID uint) error {
	pattern := fmt.Sprintf("*%d*", homeworkID)
	if err := cm.Homework.InvalidatePattern(ctx, pattern); err != nil {
		return err
	}
	return cm.Stats.InvalidatePattern(ctx, pattern)
}

func (cm *CacheManager) InvalidateSubmission(ctx context.Context, submissionID uint) error {
	return cm.Submission.InvalidatePattern(ctx, fmt.Sprintf("*%d*", submissionID))
}
