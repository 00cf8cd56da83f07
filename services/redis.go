package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var errRedisDisabled = errors.New("redis client not initialized")

// RedisService is an optional cache. With REDIS_ADDR unset it stays disabled
// and every caller falls back to the database.
type RedisService struct {
	appContext.DefaultService
	redis *redis.Client

	statusTTL time.Duration
}

const REDIS_SVC = "redis_svc"

const visitorStatusKeyPrefix = "visitor:status:"

func (svc RedisService) Id() string {
	return REDIS_SVC
}

// NewRedisService wraps an existing client.
func NewRedisService(client *redis.Client, statusTTL time.Duration) *RedisService {
	return &RedisService{redis: client, statusTTL: statusTTL}
}

func (svc *RedisService) Configure(ctx *appContext.Context) error {
	svc.statusTTL = 5 * time.Minute
	svc.initRedisClient()
	return svc.DefaultService.Configure(ctx)
}

func (svc *RedisService) Start() error {
	if svc.redis == nil {
		log.Info("REDIS_ADDR not set, visitor status cache disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := svc.redis.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

func (svc *RedisService) Shutdown() {
	if svc.redis != nil {
		_ = svc.redis.Close()
	}
}

func (svc *RedisService) initRedisClient() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		return
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

func (svc *RedisService) Enabled() bool {
	return svc != nil && svc.redis != nil
}

func (svc *RedisService) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if svc.redis == nil {
		return errRedisDisabled
	}
	return svc.redis.Set(ctx, key, value, expiration).Err()
}

// Get returns "" without error on a cache miss.
func (svc *RedisService) Get(ctx context.Context, key string) (string, error) {
	if svc.redis == nil {
		return "", errRedisDisabled
	}

	result, err := svc.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return result, err
}

func (svc *RedisService) Delete(ctx context.Context, keys ...string) error {
	if svc.redis == nil {
		return errRedisDisabled
	}
	return svc.redis.Del(ctx, keys...).Err()
}

// ==================== VISITOR STATUS CACHE ====================

func (svc *RedisService) GetStatus(ctx context.Context, userID string) (string, bool, error) {
	status, err := svc.Get(ctx, visitorStatusKeyPrefix+userID)
	if err != nil {
		return "", false, err
	}
	return status, status != "", nil
}

func (svc *RedisService) SetStatus(ctx context.Context, userID, status string) error {
	return svc.Set(ctx, visitorStatusKeyPrefix+userID, status, svc.statusTTL)
}

func (svc *RedisService) DeleteStatus(ctx context.Context, userID string) error {
	return svc.Delete(ctx, visitorStatusKeyPrefix+userID)
}
