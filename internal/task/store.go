package task

import (
	"context"
	"errors"

	"github.com/memology/memology-api/internal/domain"
)

// ErrTaskNotFound is returned when no record exists for the given task ID.
var ErrTaskNotFound = errors.New("task not found")

// Store persists task records so their state survives across the
// submit/poll gap and across worker processes.
//
// Each Set method creates the record if it does not exist yet, so the
// worker can update state even if the submitter's write was evicted.
type Store interface {
	// SetStatus updates the lifecycle status of a task.
	SetStatus(ctx context.Context, taskID string, status Status) error

	// SetProgress updates the stage progress of a task.
	SetProgress(ctx context.Context, taskID string, progress Progress) error

	// SetRetry marks a task as scheduled for retry, recording the
	// attempt count and the error that caused the retry.
	SetRetry(ctx context.Context, taskID string, retryCount int, errMsg string) error

	// SetResult stores a completed generation and marks the task SUCCESS.
	SetResult(ctx context.Context, taskID string, result domain.GenerationResult) error

	// SetFailure marks a task FAILURE with a terminal error message.
	SetFailure(ctx context.Context, taskID string, errMsg string) error

	// Get retrieves the current record for a task.
	// Returns ErrTaskNotFound if no record exists.
	Get(ctx context.Context, taskID string) (Record, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
