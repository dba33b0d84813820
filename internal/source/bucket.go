package source

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/imrishuroy/widget-consumer/internal/storage"
)

// BucketSource reads requests from objects in a bucket. Each poll is a full
// listing, not a cursor.
type BucketSource struct {
	client storage.Client
	bucket string
}

// NewBucketSource creates a source over bucket.
func NewBucketSource(client storage.Client, bucket string) *BucketSource {
	return &BucketSource{client: client, bucket: bucket}
}

func (s *BucketSource) Name() string { return "bucket" }

// Poll lists the bucket and returns the keys in ascending order.
func (s *BucketSource) Poll(ctx context.Context) ([]string, error) {
	keys, err := s.client.List(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("poll bucket %s: %w", s.bucket, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *BucketSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.bucket, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("fetch %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}
	return data, nil
}

func (s *BucketSource) Ack(ctx context.Context, id string) error {
	if err := s.client.Remove(ctx, s.bucket, id); err != nil {
		return fmt.Errorf("ack %s: %w", id, err)
	}
	return nil
}
