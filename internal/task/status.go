package task

import (
	"time"

	"github.com/memology/memology-api/internal/domain"
)

// Status represents the current state of a generation task.
type Status string

// Possible task status values.
const (
	StatusQueued  Status = "QUEUED"
	StatusStarted Status = "STARTED"
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusRetry   Status = "RETRY"
	StatusRevoked Status = "REVOKED"
)

// Terminal reports whether the status is final and will not change again.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure || s == StatusRevoked
}

// TotalStages is the number of progress stages a task advances through.
const TotalStages = 4

// Progress describes how far along a task is within its pipeline stages.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Status  string `json:"status"`
}

// PendingProgress is the progress reported for tasks that have not started yet.
func PendingProgress() Progress {
	return Progress{Current: 0, Total: TotalStages, Status: "Task is waiting in the queue"}
}

// Record is the persisted state of a task, updated as it moves through
// the lifecycle and read back by status polling.
type Record struct {
	TaskID     string                   `json:"task_id"`
	Status     Status                   `json:"status"`
	Progress   Progress                 `json:"progress"`
	RetryCount int                      `json:"retry_count"`
	Result     *domain.GenerationResult `json:"result,omitempty"`
	Error      string                   `json:"error,omitempty"`
	UpdatedAt  time.Time                `json:"updated_at"`
}
