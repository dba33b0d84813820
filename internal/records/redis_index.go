package records

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/imrishuroy/widget-consumer/internal/widgets"
)

// RedisIndex keeps flattened widget attributes in a Redis hash per record key.
type RedisIndex struct {
	redis *redis.Client
}

// NewRedisIndex creates an index over an existing client.
func NewRedisIndex(client *redis.Client) *RedisIndex {
	return &RedisIndex{redis: client}
}

// Upsert sets every attribute as a hash field. Strings are stored as-is,
// anything else JSON-encoded.
func (r *RedisIndex) Upsert(ctx context.Context, key widgets.Key, attrs widgets.Record) error {
	if len(attrs) == 0 {
		return nil
	}
	fields := make(map[string]any, len(attrs))
	for name, value := range attrs {
		if s, ok := value.(string); ok {
			fields[name] = s
			continue
		}
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode attribute %q: %w", name, err)
		}
		fields[name] = string(data)
	}
	if err := r.redis.HSet(ctx, key.String(), fields).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}
