package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/memology/memology-api/internal/domain"
	"github.com/memology/memology-api/internal/task"
)

const keyPrefix = "task:"

// Store persists task records in Redis as JSON values with a TTL, so
// finished tasks expire on their own instead of accumulating.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a Store backed by the given Redis client. Records expire
// after ttl; a non-positive ttl keeps them forever.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "redis_task_store"),
	}, nil
}

func key(taskID string) string {
	return keyPrefix + taskID
}

// Get retrieves the record for a task.
func (s *Store) Get(ctx context.Context, taskID string) (task.Record, error) {
	data, err := s.client.Get(ctx, key(taskID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return task.Record{}, task.ErrTaskNotFound
	}
	if err != nil {
		return task.Record{}, fmt.Errorf("failed to read task record: %w", err)
	}

	var rec task.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return task.Record{}, fmt.Errorf("corrupt task record for %s: %w", taskID, err)
	}
	return rec, nil
}

// SetStatus updates the lifecycle status, creating the record if needed.
func (s *Store) SetStatus(ctx context.Context, taskID string, status task.Status) error {
	return s.update(ctx, taskID, func(rec *task.Record) {
		rec.Status = status
	})
}

// SetProgress updates the stage progress, creating the record if needed.
func (s *Store) SetProgress(ctx context.Context, taskID string, progress task.Progress) error {
	return s.update(ctx, taskID, func(rec *task.Record) {
		rec.Progress = progress
	})
}

// SetRetry marks the task RETRY with the attempt count and cause.
func (s *Store) SetRetry(ctx context.Context, taskID string, retryCount int, errMsg string) error {
	return s.update(ctx, taskID, func(rec *task.Record) {
		rec.Status = task.StatusRetry
		rec.RetryCount = retryCount
		rec.Error = errMsg
	})
}

// SetResult stores the finished generation and marks the task SUCCESS.
func (s *Store) SetResult(ctx context.Context, taskID string, result domain.GenerationResult) error {
	return s.update(ctx, taskID, func(rec *task.Record) {
		rec.Status = task.StatusSuccess
		rec.Result = &result
		rec.Error = ""
	})
}

// SetFailure marks the task FAILURE with a terminal error message.
func (s *Store) SetFailure(ctx context.Context, taskID string, errMsg string) error {
	return s.update(ctx, taskID, func(rec *task.Record) {
		rec.Status = task.StatusFailure
		rec.Error = errMsg
	})
}

// Ping verifies Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}
	return nil
}

// update reads the current record, applies fn and writes it back,
// refreshing the TTL. A missing record is initialized as QUEUED first.
//
// Each task is written by a single worker at a time, so read-modify-write
// without a transaction is safe here.
func (s *Store) update(ctx context.Context, taskID string, fn func(*task.Record)) error {
	rec, err := s.Get(ctx, taskID)
	if errors.Is(err, task.ErrTaskNotFound) {
		rec = task.Record{
			TaskID:   taskID,
			Status:   task.StatusQueued,
			Progress: task.PendingProgress(),
		}
	} else if err != nil {
		return err
	}

	fn(&rec)
	rec.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode task record: %w", err)
	}

	var ttl time.Duration
	if s.ttl > 0 {
		ttl = s.ttl
	}
	if err := s.client.Set(ctx, key(taskID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write task record: %w", err)
	}
	return nil
}
