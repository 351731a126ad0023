package store

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// ObjectArchive 把原始上传文件镜像到 MinIO。本地文件丢失时，
// 报告生成从这里取回原图。
type ObjectArchive struct {
	client *minio.Client
	bucket string
}

// NewObjectArchive 创建归档并确保存储桶存在。
func NewObjectArchive(ctx context.Context, client *minio.Client, bucket string) (*ObjectArchive, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶 '%s' 失败: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建存储桶 '%s' 失败: %w", bucket, err)
		}
	}
	return &ObjectArchive{client: client, bucket: bucket}, nil
}

// Put 上传本地文件。
func (a *ObjectArchive) Put(ctx context.Context, key, path, contentType string) error {
	_, err := a.client.FPutObject(ctx, a.bucket, key, path, minio.PutObjectOptions{ContentType: contentType})
	return err
}

// Get 读取整个对象。对象不存在时返回 ErrNotFound。
func (a *ObjectArchive) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Remove 删除对象。
func (a *ObjectArchive) Remove(ctx context.Context, key string) error {
	return a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{})
}
