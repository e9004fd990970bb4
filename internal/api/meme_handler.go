package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/memology/memology-api/internal/api/shared"
	"github.com/memology/memology-api/internal/artifact"
	"github.com/memology/memology-api/internal/domain"
	"github.com/memology/memology-api/internal/task"
)

// MemeHandler serves the asynchronous generation endpoints: submit,
// status polling, result fetch and the style catalog.
type MemeHandler struct {
	submitter *task.Submitter
	store     task.Store
	artifacts *artifact.Store
	logger    *slog.Logger
}

// NewMemeHandler creates a MemeHandler.
func NewMemeHandler(submitter *task.Submitter, store task.Store, artifacts *artifact.Store, logger *slog.Logger) *MemeHandler {
	return &MemeHandler{
		submitter: submitter,
		store:     store,
		artifacts: artifacts,
		logger:    logger.With("component", "meme_handler"),
	}
}

// Generate handles POST /api/memes/generate: validates the idea and
// style, enqueues a task and acknowledges with its ID.
func (h *MemeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateMemeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, CodeValidationError, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, CodeValidationError, "Validation error: user_input is required")
		return
	}

	taskID, err := h.submitter.Submit(r.Context(), req.UserInput, req.Style)
	if err != nil {
		status, code, detail := MapError(err)
		shared.RespondWithErrorAndLog(w, r, status, code, detail, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, GenerateMemeResponse{
		TaskID:  taskID,
		Status:  string(task.StatusQueued),
		Message: "Meme generation task accepted",
	})
}

// Status handles GET /api/memes/task/{task_id}. Unknown IDs report
// QUEUED rather than 404: a freshly submitted task may not have reached
// the store yet, and polling clients treat QUEUED as "keep waiting".
func (h *MemeHandler) Status(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	rec, err := h.store.Get(r.Context(), taskID)
	if errors.Is(err, task.ErrTaskNotFound) {
		progress := task.PendingProgress()
		shared.RespondWithJSON(w, r, http.StatusOK, TaskStatusResponse{
			TaskID:   taskID,
			Status:   string(task.StatusQueued),
			Progress: &progress,
		})
		return
	}
	if err != nil {
		status, code, detail := MapError(err)
		shared.RespondWithErrorAndLog(w, r, status, code, detail, err)
		return
	}

	resp := TaskStatusResponse{
		TaskID:   rec.TaskID,
		Status:   string(rec.Status),
		Progress: &rec.Progress,
	}
	if rec.Status == task.StatusSuccess {
		resp.Result = rec.Result
	}
	if rec.Status == task.StatusFailure || rec.Status == task.StatusRetry {
		resp.Error = rec.Error
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Result handles GET /api/memes/task/{task_id}/result, returning the
// final image bytes once the task has succeeded.
func (h *MemeHandler) Result(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	rec, err := h.store.Get(r.Context(), taskID)
	if errors.Is(err, task.ErrTaskNotFound) {
		shared.RespondWithError(w, r, http.StatusNotFound, CodeTaskNotFound, "Task not found")
		return
	}
	if err != nil {
		status, code, detail := MapError(err)
		shared.RespondWithErrorAndLog(w, r, status, code, detail, err)
		return
	}

	switch rec.Status {
	case task.StatusQueued, task.StatusStarted, task.StatusRetry:
		shared.RespondWithError(w, r, http.StatusAccepted, CodeTaskProcessing, "Task is still processing")
		return
	case task.StatusFailure:
		detail := rec.Error
		if detail == "" {
			detail = "Meme generation failed"
		}
		shared.RespondWithError(w, r, http.StatusInternalServerError, CodeTaskFailed, detail)
		return
	case task.StatusRevoked:
		shared.RespondWithError(w, r, http.StatusInternalServerError, CodeTaskFailed, "Task was revoked")
		return
	}

	if rec.Result == nil || rec.Result.FinalImagePath == "" {
		shared.RespondWithError(w, r, http.StatusNotFound, CodeImageNotFound, "Generated image not found")
		return
	}

	data, err := h.artifacts.Open(rec.Result.FinalImagePath)
	if errors.Is(err, artifact.ErrArtifactMissing) {
		// The record says SUCCESS but the file is gone, most likely
		// cleaned up after the retention window.
		shared.RespondWithErrorAndLog(w, r, http.StatusNotFound, CodeImageNotFound,
			"Generated image not found", err)
		return
	}
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, CodeInternalError,
			"Failed to read generated image", err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("X-Task-ID", rec.TaskID)
	w.Header().Set("X-Generation-ID", rec.Result.GenerationID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write image response", "task_id", taskID, "error", err)
	}
}

// Styles handles GET /api/memes/styles.
func (h *MemeHandler) Styles(w http.ResponseWriter, r *http.Request) {
	styles := domain.Styles()
	resp := make([]StyleResponse, 0, len(styles))
	for _, s := range styles {
		resp = append(resp, StyleResponse{Name: s.Name, Description: s.Description})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
