package api

import (
	"github.com/memology/memology-api/internal/domain"
	"github.com/memology/memology-api/internal/task"
)

// GenerateMemeRequest is the body of POST /api/memes/generate.
type GenerateMemeRequest struct {
	UserInput string `json:"user_input" validate:"required"`
	Style     string `json:"style,omitempty"`
}

// GenerateMemeResponse acknowledges an accepted generation task.
type GenerateMemeResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TaskStatusResponse is the polling view of a task.
type TaskStatusResponse struct {
	TaskID   string                   `json:"task_id"`
	Status   string                   `json:"status"`
	Progress *task.Progress           `json:"progress,omitempty"`
	Result   *domain.GenerationResult `json:"result,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// StyleResponse is one entry of the style catalog.
type StyleResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MemegenRequest is the body of POST /api/memes/memegen.
type MemegenRequest struct {
	Context string `json:"context" validate:"required,min=3,max=500"`
	Width   int    `json:"width,omitempty" validate:"omitempty,min=1,max=4096"`
	Height  int    `json:"height,omitempty" validate:"omitempty,min=1,max=4096"`
}

// MemegenResponse is the synchronous gallery-path result.
type MemegenResponse struct {
	URL      string   `json:"url"`
	Template string   `json:"template"`
	Text     []string `json:"text"`
}

// UploadResponse acknowledges an internal artifact upload.
type UploadResponse struct {
	TaskID string `json:"task_id"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
}
