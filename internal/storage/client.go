package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Client defines the interface for storage operations.
type Client interface {
	// List returns the keys of every object in the bucket.
	List(ctx context.Context, bucket string) ([]string, error)
	// Get downloads an object. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// Put uploads an object, replacing any existing one.
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
	// Remove deletes an object. Removing a missing object is not an error.
	Remove(ctx context.Context, bucket, key string) error
}

// NewClient creates a new Minio client based on the configuration.
func NewClient(cfg Config) (Client, error) {
	// Minio expects endpoint without scheme
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:     newCredentials(cfg),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &minioClient{client: mc}, nil
}

func newCredentials(cfg Config) *credentials.Credentials {
	if cfg.AccessKey != "" {
		return credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.FileAWSCredentials{},
		&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
	})
}

type minioClient struct {
	client *minio.Client
}

func (c *minioClient) List(ctx context.Context, bucket string) ([]string, error) {
	var keys []string
	for obj := range c.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects in %s: %w", bucket, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (c *minioClient) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := c.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify(err, bucket, key)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key only surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classify(err, bucket, key)
	}
	return data, nil
}

func (c *minioClient) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (c *minioClient) Remove(ctx context.Context, bucket, key string) error {
	err := c.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("remove object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// IsNotFound reports whether err is a missing-object error from S3/MinIO.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func classify(err error, bucket, key string) error {
	if IsNotFound(err) {
		return fmt.Errorf("get object %s/%s: %w", bucket, key, ErrNotFound)
	}
	return fmt.Errorf("get object %s/%s: %w", bucket, key, err)
}
