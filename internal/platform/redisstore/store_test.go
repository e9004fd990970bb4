package redisstore

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memology/memology-api/internal/domain"
	"github.com/memology/memology-api/internal/task"
)

// newTestStore connects to the Redis instance named by
// MEMOLOGY_TEST_REDIS_ADDR, skipping the test when it is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("MEMOLOGY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MEMOLOGY_TEST_REDIS_ADDR not set, skipping Redis integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	store, err := New(client, time.Hour, logger)
	require.NoError(t, err)
	require.NoError(t, store.Ping(context.Background()))
	return store
}

func TestStoreLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, task.ErrTaskNotFound)

	require.NoError(t, store.SetStatus(ctx, "task-1", task.StatusQueued))
	rec, err := store.Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusQueued, rec.Status)
	assert.Equal(t, task.PendingProgress(), rec.Progress)

	p := task.Progress{Current: 2, Total: task.TotalStages, Status: "Generating image..."}
	require.NoError(t, store.SetProgress(ctx, "task-1", p))
	rec, err = store.Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, p, rec.Progress)

	require.NoError(t, store.SetRetry(ctx, "task-1", 1, "model unavailable"))
	rec, err = store.Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusRetry, rec.Status)
	assert.Equal(t, 1, rec.RetryCount)
	assert.Equal(t, "model unavailable", rec.Error)

	result := domain.GenerationResult{GenerationID: "gen-1", Success: true}
	require.NoError(t, store.SetResult(ctx, "task-1", result))
	rec, err = store.Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusSuccess, rec.Status)
	require.NotNil(t, rec.Result)
	assert.Equal(t, "gen-1", rec.Result.GenerationID)
	assert.Empty(t, rec.Error)
}

func TestStoreSetFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetFailure(ctx, "task-2", "out of retries"))
	rec, err := store.Get(ctx, "task-2")
	require.NoError(t, err)
	assert.Equal(t, task.StatusFailure, rec.Status)
	assert.Equal(t, "out of retries", rec.Error)
}
