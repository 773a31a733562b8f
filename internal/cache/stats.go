package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/metrics"
	"github.com/pokepocketdata/ppdd/internal/models"
)

// StatsCache stores computed player statistics. Failures are never surfaced to
// callers: a broken cache behaves like an empty one.
//
// Each player has a generation that Invalidate advances. Get reports the
// generation it saw and Set only writes when it is still current, so statistics
// computed before a new game was recorded never land in the cache.
type StatsCache interface {
	Get(ctx context.Context, playerID string) (stats *models.PlayerStatistics, generation int64, ok bool)
	Set(ctx context.Context, stats *models.PlayerStatistics, generation int64)
	Invalidate(ctx context.Context, playerID string)
}

const keyPrefix = "ppdd:stats:"

// generationTTLSlack keeps generation counters alive well past the entries they guard
const generationTTLSlack = time.Hour

var errStaleStatistics = errors.New("statistics generation changed")

func statsKey(playerID string) string {
	return keyPrefix + playerID
}

func generationKey(playerID string) string {
	return keyPrefix + "gen:" + playerID
}

type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisStatsCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisStatsCache {
	return &RedisStatsCache{client: client, ttl: ttl, log: log.Named("stats-cache")}
}

// Get returns a generation of -1 when Redis could not be read; Set ignores it.
func (c *RedisStatsCache) Get(ctx context.Context, playerID string) (*models.PlayerStatistics, int64, bool) {
	vals, err := c.client.MGet(ctx, statsKey(playerID), generationKey(playerID)).Result()
	if err != nil {
		metrics.StatsCacheRequestsTotal.WithLabelValues("error").Inc()
		c.log.Warn("redis get failed", zap.String("player_id", playerID), zap.Error(err))
		return nil, -1, false
	}

	var generation int64
	if raw, ok := vals[1].(string); ok {
		generation, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			metrics.StatsCacheRequestsTotal.WithLabelValues("error").Inc()
			c.log.Warn("unreadable statistics generation", zap.String("player_id", playerID), zap.Error(err))
			return nil, -1, false
		}
	}

	raw, ok := vals[0].(string)
	if !ok {
		metrics.StatsCacheRequestsTotal.WithLabelValues("miss").Inc()
		return nil, generation, false
	}

	var stats models.PlayerStatistics
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		metrics.StatsCacheRequestsTotal.WithLabelValues("error").Inc()
		c.log.Warn("discarding undecodable cache entry", zap.String("player_id", playerID), zap.Error(err))
		c.Invalidate(ctx, playerID)
		return nil, -1, false
	}

	metrics.StatsCacheRequestsTotal.WithLabelValues("hit").Inc()
	return &stats, generation, true
}

func (c *RedisStatsCache) Set(ctx context.Context, stats *models.PlayerStatistics, generation int64) {
	if generation < 0 {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		c.log.Warn("failed to marshal statistics", zap.Error(err))
		return
	}

	genKey := generationKey(stats.PlayerID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleStatistics
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, statsKey(stats.PlayerID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleStatistics), errors.Is(err, redis.TxFailedErr):
		c.log.Debug("skipping stale statistics", zap.String("player_id", stats.PlayerID))
	default:
		c.log.Warn("redis set failed", zap.String("player_id", stats.PlayerID), zap.Error(err))
	}
}

func (c *RedisStatsCache) Invalidate(ctx context.Context, playerID string) {
	genKey := generationKey(playerID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, c.ttl+generationTTLSlack)
		pipe.Del(ctx, statsKey(playerID))
		return nil
	})
	if err != nil {
		c.log.Warn("redis invalidate failed", zap.String("player_id", playerID), zap.Error(err))
	}
}

// NoopStatsCache is used when no Redis address is configured
type NoopStatsCache struct{}

func (NoopStatsCache) Get(context.Context, string) (*models.PlayerStatistics, int64, bool) {
	return nil, 0, false
}
func (NoopStatsCache) Set(context.Context, *models.PlayerStatistics, int64) {}
func (NoopStatsCache) Invalidate(context.Context, string) {}

// New returns a Redis-backed cache for addr, or a no-op cache when addr is empty.
// The returned close function releases the client.
func New(addr, password string, ttl time.Duration, log *zap.Logger) (StatsCache, func() error) {
	if addr == "" {
		log.Info("REDIS_ADDR not set, statistics cache disabled")
		return NoopStatsCache{}, func() error { return nil }
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	log.Info("Statistics cache enabled", zap.String("redis_addr", addr), zap.Duration("ttl", ttl))
	return NewRedisStatsCache(client, ttl, log), client.Close
}
