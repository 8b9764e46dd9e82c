package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/redis/go-redis/v9"
)

const REDIS_SVC = "redis_svc"

var errRedisNotInitialized = errors.New("redis client not initialized")

// RedisService is the counter store: rate limit windows, sessions, read caches and analytics counters.
type RedisService struct {
	appContext.DefaultService
	redis *redis.Client
}

// NewRedisService wraps an existing client.
func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{redis: client}
}

func (svc RedisService) Id() string {
	return REDIS_SVC
}

func (svc *RedisService) Configure(ctx *appContext.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()

	svc.redis = redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return svc.DefaultService.Configure(ctx)
}

func (svc *RedisService) Start() error {
	if err := svc.Ping(context.Background()); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

func (svc *RedisService) Shutdown() {
	if svc.redis != nil {
		_ = svc.redis.Close()
	}
}

func (svc *RedisService) GetClient() *redis.Client {
	return svc.redis
}

func (svc *RedisService) client() (*redis.Client, error) {
	if svc.redis == nil {
		return nil, errRedisNotInitialized
	}
	return svc.redis, nil
}

func (svc *RedisService) Ping(ctx context.Context) error {
	rdb, err := svc.client()
	if err != nil {
		return err
	}
	return rdb.Ping(ctx).Err()
}

// Get returns "" and no error for a missing key.
func (svc *RedisService) Get(ctx context.Context, key string) (string, error) {
	rdb, err := svc.client()
	if err != nil {
		return "", err
	}

	val, err := rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// Set stores strings and bytes as-is and JSON-encodes anything else.
func (svc *RedisService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	rdb, err := svc.client()
	if err != nil {
		return err
	}

	switch v := value.(type) {
	case string, []byte:
		return rdb.Set(ctx, key, v, ttl).Err()
	default:
		encoded, err := shared.JSONAPI.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		return rdb.Set(ctx, key, encoded, ttl).Err()
	}
}

func (svc *RedisService) Delete(ctx context.Context, keys ...string) error {
	rdb, err := svc.client()
	if err != nil {
		return err
	}
	return rdb.Del(ctx, keys...).Err()
}

func (svc *RedisService) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	rdb, err := svc.client()
	if err != nil {
		return nil, err
	}
	return rdb.HGetAll(ctx, key).Result()
}

// Pipelined runs fn against a single round-trip pipeline.
func (svc *RedisService) Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) error {
	rdb, err := svc.client()
	if err != nil {
		return err
	}
	_, err = rdb.Pipelined(ctx, fn)
	return err
}
