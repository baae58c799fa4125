package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/noticeboard/backend/internal/config"
	"github.com/noticeboard/backend/pkg/logger"
)

// presignRegion is pinned on the public client so signing never triggers a
// bucket location lookup against an endpoint the server may not reach.
const presignRegion = "us-east-1"

type MinIOClient struct {
	client       *minio.Client
	publicClient *minio.Client // Separate client for presigned URLs with public endpoint
	bucket       string
}

var (
	_ ObjectStore = (*MinIOClient)(nil)
	_ Lister      = (*MinIOClient)(nil)
	_ URLSigner   = (*MinIOClient)(nil)
)

func NewMinIOClient(cfg config.MinIOConfig) (*MinIOClient, error) {
	var creds *credentials.Credentials
	if cfg.AccessKey == "" {
		creds = credentials.NewIAM("")
	} else {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	m := &MinIOClient{
		client: client,
		bucket: cfg.Bucket,
	}

	if cfg.PublicEndpoint != "" && cfg.PublicEndpoint != cfg.Endpoint {
		publicClient, err := minio.New(cfg.PublicEndpoint, &minio.Options{
			Creds:  creds,
			Secure: cfg.UseSSL,
			Region: presignRegion,
		})
		if err != nil {
			return nil, fmt.Errorf("public endpoint client: %w", err)
		}
		m.publicClient = publicClient
	}

	return m, nil
}

// Store uploads data under key and returns the key as the reference.
func (m *MinIOClient) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	size := int64(len(data))
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("minio_upload_failed", err, map[string]interface{}{
			"object_name":  key,
			"size":         size,
			"content_type": contentType,
			"bucket":       m.bucket,
		})
		return "", err
	}

	logger.Info("minio_upload_success", map[string]interface{}{
		"object_name":  key,
		"size":         size,
		"content_type": contentType,
		"bucket":       m.bucket,
	})
	return key, nil
}

func (m *MinIOClient) Delete(ctx context.Context, ref string) error {
	if _, err := m.client.StatObject(ctx, m.bucket, ref, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, ref)
		}
		return err
	}

	err := m.client.RemoveObject(ctx, m.bucket, ref, minio.RemoveObjectOptions{})
	if err != nil {
		logger.Error("minio_delete_failed", err, map[string]interface{}{
			"object_name": ref,
			"bucket":      m.bucket,
		})
	} else {
		logger.Info("minio_delete_success", map[string]interface{}{
			"object_name": ref,
			"bucket":      m.bucket,
		})
	}
	return err
}

func (m *MinIOClient) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		out = append(out, ObjectInfo{
			Ref:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

func (m *MinIOClient) PresignedGetURL(ctx context.Context, ref string, expiry time.Duration) (string, error) {
	client := m.client
	if m.publicClient != nil {
		client = m.publicClient
	}
	urlValue, err := client.PresignedGetObject(ctx, m.bucket, ref, expiry, nil)
	if err != nil {
		return "", err
	}
	return urlValue.String(), nil
}

func (m *MinIOClient) Ping(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.bucket)
	return err
}

func (m *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", m.bucket, err)
	}
	return nil
}
