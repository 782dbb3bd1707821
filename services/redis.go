// services/redis.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/redis/go-redis/v9"
)

type RedisService struct {
	appContext.DefaultService
	redis *redis.Client
}

const REDIS_SVC = "redis_svc"

func (svc RedisService) Id() string {
	return REDIS_SVC
}

func (svc *RedisService) Configure(ctx *appContext.Context) error {
	svc.initRedisClient()
	return svc.DefaultService.Configure(ctx)
}

func (svc *RedisService) Start() error {
	if svc.redis != nil {
		ctx := context.Background()
		if _, err := svc.redis.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}
	return nil
}

func (svc *RedisService) initRedisClient() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			redisDB = db
		}
	}

	svc.redis = redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	})
}

func (svc *RedisService) GetClient() *redis.Client {
	return svc.redis
}

func (svc *RedisService) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if svc.redis == nil {
		return fmt.Errorf("redis client not initialized")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return svc.redis.Set(ctx, key, data, expiration).Err()
}

// GetJSON unmarshals the key into dest. A missing key is not an error; dest
// is left untouched and (false, nil) is returned.
func (svc *RedisService) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if svc.redis == nil {
		return false, fmt.Errorf("redis client not initialized")
	}

	result, err := svc.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(result), dest)
}

func (svc *RedisService) Delete(ctx context.Context, keys ...string) error {
	if svc.redis == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return svc.redis.Del(ctx, keys...).Err()
}

// ==================== LEADERBOARD SETS ====================

// ZIncrLeaderboard bumps a user's score on a leaderboard sorted set and
// keeps a TTL on period boards so stale weeks/months expire on their own.
func (svc *RedisService) ZIncrLeaderboard(ctx context.Context, key, userID string, amount int, ttl time.Duration) error {
	if svc.redis == nil {
		return fmt.Errorf("redis client not initialized")
	}

	if err := svc.redis.ZIncrBy(ctx, key, float64(amount), userID).Err(); err != nil {
		return err
	}
	if ttl > 0 {
		return svc.redis.Expire(ctx, key, ttl).Err()
	}
	return nil
}

func (svc *RedisService) ZTopUsers(ctx context.Context, key string, limit int) ([]redis.Z, error) {
	if svc.redis == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}
	return svc.redis.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
}

// ZUserRank returns the 1-based rank of userID on the board, or 0 when the
// user has no score yet.
func (svc *RedisService) ZUserRank(ctx context.Context, key, userID string) (int, error) {
	if svc.redis == nil {
		return 0, fmt.Errorf("redis client not initialized")
	}

	rank, err := svc.redis.ZRevRank(ctx, key, userID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int(rank) + 1, nil
}

// ==================== FIXED-WINDOW COUNTERS ====================

// IncrWindow increments a fixed-window counter, setting the window TTL on
// first increment. Used by the rate-limit middleware.
func (svc *RedisService) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	if svc.redis == nil {
		return 0, fmt.Errorf("redis client not initialized")
	}

	count, err := svc.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := svc.redis.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}
