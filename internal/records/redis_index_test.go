package records

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/widget-consumer/internal/widgets"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisIndex_Upsert(t *testing.T) {
	mr, client := setupTestRedis(t)
	idx := NewRedisIndex(client)
	ctx := context.Background()
	key := widgets.NewKey("John Doe", "123")

	require.NoError(t, idx.Upsert(ctx, key, widgets.Record{"id": "John Doe", "size": "5", "count": 3.0}))
	require.NoError(t, idx.Upsert(ctx, key, widgets.Record{"size": "6"}))

	assert.Equal(t, "6", mr.HGet("widgets/john-doe/123", "size"))
	assert.Equal(t, "John Doe", mr.HGet("widgets/john-doe/123", "id"))
	assert.Equal(t, "3", mr.HGet("widgets/john-doe/123", "count"))
}

func TestRedisIndex_UpsertLargeInteger(t *testing.T) {
	mr, client := setupTestRedis(t)
	key := widgets.NewKey("Ann", "1")

	require.NoError(t, NewRedisIndex(client).Upsert(context.Background(), key, widgets.Record{"count": json.Number("9007199254740993")}))
	assert.Equal(t, "9007199254740993", mr.HGet(key.String(), "count"))
}

func TestRedisIndex_UpsertEmpty(t *testing.T) {
	mr, client := setupTestRedis(t)

	require.NoError(t, NewRedisIndex(client).Upsert(context.Background(), widgets.NewKey("a", "1"), widgets.Record{}))
	assert.False(t, mr.Exists("widgets/a/1"))
}

func TestRedisIndex_UpsertConnectionError(t *testing.T) {
	mr, client := setupTestRedis(t)
	mr.Close()

	err := NewRedisIndex(client).Upsert(context.Background(), widgets.NewKey("a", "1"), widgets.Record{"x": "y"})
	assert.Error(t, err)
}
