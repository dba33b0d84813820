package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/imrishuroy/widget-consumer/internal/storage"
	"github.com/imrishuroy/widget-consumer/internal/widgets"
)

// ErrNotFound is returned by Get when no record exists at the key.
var ErrNotFound = errors.New("widget record not found")

// Store is the durable keyed record store.
type Store interface {
	Get(ctx context.Context, key widgets.Key) (widgets.Record, error)
	Put(ctx context.Context, key widgets.Key, rec widgets.Record) error
	// Delete is idempotent: deleting a missing record is not an error.
	Delete(ctx context.Context, key widgets.Key) error
}

// IndexStore is the secondary store holding flattened attributes.
type IndexStore interface {
	Upsert(ctx context.Context, key widgets.Key, attrs widgets.Record) error
}

// BucketStore keeps records as JSON objects in an object-store bucket.
type BucketStore struct {
	client storage.Client
	bucket string
}

// NewBucketStore creates a record store over bucket.
func NewBucketStore(client storage.Client, bucket string) *BucketStore {
	return &BucketStore{client: client, bucket: bucket}
}

// Bucket returns the destination bucket name.
func (s *BucketStore) Bucket() string { return s.bucket }

// Get fetches and decodes the record at key.
func (s *BucketStore) Get(ctx context.Context, key widgets.Key) (widgets.Record, error) {
	data, err := s.client.Get(ctx, s.bucket, key.String())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("get %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return widgets.UnmarshalRecord(data)
}

// Put replaces the record at key.
func (s *BucketStore) Put(ctx context.Context, key widgets.Key, rec widgets.Record) error {
	data, err := rec.Marshal()
	if err != nil {
		return fmt.Errorf("encode record %s: %w", key, err)
	}
	if err := s.client.Put(ctx, s.bucket, key.String(), data, "application/json"); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete removes the record at key.
func (s *BucketStore) Delete(ctx context.Context, key widgets.Key) error {
	if err := s.client.Remove(ctx, s.bucket, key.String()); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
