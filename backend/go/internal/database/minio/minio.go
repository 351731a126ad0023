package minio

import (
	"context"
	"fmt"

	"Paggo/backend/go/internal/config"
	"Paggo/backend/go/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Open 创建 MinIO 客户端并执行一次简单的健康检查。
// minio-go 客户端按需建立连接，不需要显式关闭。
func Open(ctx context.Context, cfg *config.MinIOConfig, log *logger.Logger) (*minio.Client, error) {
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""), // 静态凭证。
		Secure: cfg.Secure,                                                // 是否使用 HTTPS。
	})
	if err != nil {
		return nil, fmt.Errorf("无法创建 MinIO 客户端: %w", err)
	}

	if _, err := c.BucketExists(ctx, cfg.Bucket); err != nil {
		return nil, fmt.Errorf("MinIO 初始化健康检查失败: %w", err)
	}

	log.WithPayload(map[string]interface{}{"endpoint": cfg.Endpoint, "bucket": cfg.Bucket}).Info("成功连接到 MinIO")
	return c, nil
}

// HealthCheck 返回一个检查存储桶可访问性的函数。
func HealthCheck(c *minio.Client, bucket string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if _, err := c.BucketExists(ctx, bucket); err != nil {
			return fmt.Errorf("MinIO 健康检查失败: %w", err)
		}
		return nil
	}
}
