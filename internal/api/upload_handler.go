package api

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/memology/memology-api/internal/api/shared"
	"github.com/memology/memology-api/internal/artifact"
)

// maxUploadBytes bounds internal artifact uploads.
const maxUploadBytes = 32 << 20

// UploadHandler accepts artifact files from workers running on other
// hosts, so the gateway can serve results it did not generate itself.
type UploadHandler struct {
	artifacts *artifact.Store
	logger    *slog.Logger
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(artifacts *artifact.Store, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		artifacts: artifacts,
		logger:    logger.With("component", "upload_handler"),
	}
}

// Upload handles POST /internal/upload/{task_id}: a multipart form with
// a single "file" field written into the artifact directory. Route
// access is guarded by the worker token middleware.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, CodeValidationError, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, CodeValidationError, "Missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	// The stored name must not be attacker-controlled beyond its base.
	name := filepath.Base(header.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		shared.RespondWithError(w, r, http.StatusBadRequest, CodeValidationError, "Invalid file name")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, CodeInternalError,
			"Failed to read upload", err)
		return
	}

	path, err := h.artifacts.Save(name, data)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, CodeInternalError,
			"Failed to store upload", err)
		return
	}

	h.logger.Info("artifact uploaded",
		"task_id", taskID,
		"file", name,
		"size", len(data))

	shared.RespondWithJSON(w, r, http.StatusOK, UploadResponse{
		TaskID: taskID,
		Path:   path,
		Size:   int64(len(data)),
	})
}
