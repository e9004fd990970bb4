package api

import (
	"errors"
	"net/http"

	"github.com/memology/memology-api/internal/artifact"
	"github.com/memology/memology-api/internal/domain"
	"github.com/memology/memology-api/internal/generation"
	"github.com/memology/memology-api/internal/queue"
	"github.com/memology/memology-api/internal/task"
)

// Stable machine-readable error codes returned in the error envelope.
const (
	CodeTaskNotFound       = "TASK_NOT_FOUND"
	CodeTaskProcessing     = "TASK_PROCESSING"
	CodeTaskFailed         = "TASK_FAILED"
	CodeImageNotFound      = "IMAGE_NOT_FOUND"
	CodeInvalidStyle       = "INVALID_STYLE"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// MapError translates internal errors into the HTTP status and error
// code of the public contract, so handlers never leak error types or
// raw messages to clients.
func MapError(err error) (status int, code, detail string) {
	switch {
	case errors.Is(err, domain.ErrUnknownStyle):
		return http.StatusBadRequest, CodeInvalidStyle, "Unknown style name"

	case errors.Is(err, domain.ErrEmptyUserInput),
		errors.Is(err, domain.ErrUserInputTooShort),
		errors.Is(err, domain.ErrUserInputTooLong):
		return http.StatusBadRequest, CodeValidationError, err.Error()

	case errors.Is(err, task.ErrTaskNotFound):
		return http.StatusNotFound, CodeTaskNotFound, "Task not found"

	case errors.Is(err, artifact.ErrArtifactMissing):
		return http.StatusNotFound, CodeImageNotFound, "Generated image not found"

	case errors.Is(err, queue.ErrBrokerClosed),
		errors.Is(err, generation.ErrServiceUnavailable),
		errors.Is(err, generation.ErrTimeout):
		return http.StatusServiceUnavailable, CodeServiceUnavailable, "Service temporarily unavailable"

	default:
		return http.StatusInternalServerError, CodeInternalError, "Internal server error"
	}
}
