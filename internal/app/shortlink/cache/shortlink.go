package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"hashkey.local/internal/platform/metrics"
)

const notFoundSentinel = "__nil__"

// ShortlinkCache 缓存 短链 id → 目标 URL。
// L1 是本地 ristretto，L2 是 Redis；client 为 nil 时只用 L1。
type ShortlinkCache struct {
	client   *redis.Client
	local    *LocalCache
	ttl      time.Duration
	emptyTTL time.Duration
}

func NewShortlinkCache(client *redis.Client, local *LocalCache) *ShortlinkCache {
	return &ShortlinkCache{
		client:   client,
		local:    local,
		ttl:      time.Hour,
		emptyTTL: 30 * time.Second,
	}
}

func redisKey(id int64) string {
	return "sl:id:" + strconv.FormatInt(id, 10)
}

// Get 返回 (url, hit, err)。hit=true 且 url=="" 表示命中负缓存。
func (c *ShortlinkCache) Get(ctx context.Context, id int64) (string, bool, error) {
	// L1: 本地缓存
	if c.local != nil {
		if url, ok := c.local.Get(id); ok {
			if url == notFoundSentinel {
				metrics.CacheOperations.WithLabelValues("l1", "hit_negative").Inc()
				return "", true, nil
			}
			metrics.CacheOperations.WithLabelValues("l1", "hit").Inc()
			return url, true, nil
		}
		metrics.CacheOperations.WithLabelValues("l1", "miss").Inc()
	}
	if c.client == nil {
		return "", false, nil
	}

	// L2: Redis
	res, err := c.client.Get(ctx, redisKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		metrics.CacheOperations.WithLabelValues("l2", "miss").Inc()
		return "", false, nil
	}
	if err != nil {
		metrics.CacheOperations.WithLabelValues("l2", "error").Inc()
		return "", false, err
	}

	// 回填本地缓存
	if res == notFoundSentinel {
		metrics.CacheOperations.WithLabelValues("l2", "hit_negative").Inc()
		if c.local != nil {
			c.local.SetNotFound(id)
		}
		return "", true, nil
	}
	metrics.CacheOperations.WithLabelValues("l2", "hit").Inc()
	if c.local != nil {
		c.local.Set(id, res)
	}
	return res, true, nil
}

func (c *ShortlinkCache) Set(ctx context.Context, id int64, url string) error {
	if c.local != nil {
		c.local.Set(id, url)
	}
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, redisKey(id), url, c.ttl).Err()
}

func (c *ShortlinkCache) Delete(ctx context.Context, id int64) error {
	if c.local != nil {
		c.local.Del(id)
	}
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, redisKey(id)).Err()
}

// SetNotFound 用明确哨兵值做"负缓存"，避免缓存穿透。
// 不要用 "" 作为哨兵值，容易把"未命中"和"命中空值"混淆。
func (c *ShortlinkCache) SetNotFound(ctx context.Context, id int64) error {
	if c.local != nil {
		c.local.SetNotFound(id)
	}
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, redisKey(id), notFoundSentinel, c.emptyTTL).Err()
}

// Close 关闭本地缓存
func (c *ShortlinkCache) Close() {
	if c.local != nil {
		c.local.Close()
		slog.Info("本地缓存已关闭")
	}
}
