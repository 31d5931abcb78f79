package clients

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
}

// S3Client is the S3-compatible export destination, used instead of local
// disk when EXPORT_STORAGE=s3. It satisfies the same Save/GetURL surface as
// StorageClient.
type S3Client struct {
	raw      *minio.Client
	endpoint string
	bucket   string
	prefix   string
	useSSL   bool
}

func NewS3Client(ctx context.Context, cfg S3Config) (*S3Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	return &S3Client{
		raw:      client,
		endpoint: cfg.Endpoint,
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		useSSL:   cfg.UseSSL,
	}, nil
}

// Save uploads an xlsx export and returns its object key.
func (c *S3Client) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	if c.raw == nil {
		return "", fmt.Errorf("s3 client is nil")
	}

	key := c.prefix + fileName

	_, err := c.raw.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	})
	if err != nil {
		return "", fmt.Errorf("put object %q failed: %w", key, err)
	}

	return key, nil
}

// GetURL builds the public URL for an uploaded object. The bucket is
// expected to allow reads; use local storage otherwise.
func (c *S3Client) GetURL(key string) string {
	scheme := "http"
	if c.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, c.endpoint, c.bucket, key)
}
