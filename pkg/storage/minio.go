package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// presignExpiry 预签名下载链接有效期
const presignExpiry = 24 * time.Hour

type MinioProvider struct {
	client *minio.Client
	bucket string
}

func NewMinioProvider(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioProvider, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	// 自动建桶
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", bucket, err)
		}
	}

	return &MinioProvider{client: client, bucket: bucket}, nil
}

func (m *MinioProvider) Save(filename string, data io.Reader) error {
	// 流式上传, 大小未知 (-1)，minio 内部分片缓冲
	// 注意：filename 在 MinIO 里作为 ObjectKey，需要用 "/" 分隔
	objectName := strings.ReplaceAll(filename, "\\", "/")

	_, err := m.client.PutObject(context.Background(), m.bucket, objectName, data, -1, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	return err
}

func (m *MinioProvider) Delete(filename string) error {
	objectName := strings.ReplaceAll(filename, "\\", "/")
	// 对象不存在时 RemoveObject 不报错
	return m.client.RemoveObject(context.Background(), m.bucket, objectName, minio.RemoveObjectOptions{})
}

func (m *MinioProvider) GetDownloadURL(filename string) (string, error) {
	objectName := strings.ReplaceAll(filename, "\\", "/")

	// 生成预签名 URL (客户端直接去 MinIO 下载)
	u, err := m.client.PresignedGetObject(context.Background(), m.bucket, objectName, presignExpiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (m *MinioProvider) ListFiles() ([]FileInfo, error) {
	var files []FileInfo
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	objectCh := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Recursive: true})
	for object := range objectCh {
		if object.Err != nil {
			return nil, object.Err
		}
		files = append(files, FileInfo{
			Name: object.Key,
			Size: object.Size,
		})
	}
	return files, nil
}
