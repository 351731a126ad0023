package redis

import (
	"context"
	"fmt"
	"time"

	"Paggo/backend/go/internal/config"
	"Paggo/backend/go/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// Open 创建 Redis 客户端并用 Ping 确认连接可用。
// 提取结果缓存的 redis 后端使用这个客户端。
func Open(ctx context.Context, cfg *config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("无法连接到 Redis: %w", err)
	}

	log.WithPayload(map[string]interface{}{"address": cfg.Address, "db": cfg.DB}).Info("成功连接到 Redis")
	return rdb, nil
}

// HealthCheck 返回一个检查 Redis 连通性的函数。
func HealthCheck(rdb *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
