package api

import (
	"log/slog"
	"net/http"

	"github.com/memology/memology-api/internal/api/shared"
	"github.com/memology/memology-api/internal/service/memegen"
)

// MemegenHandler serves the synchronous template-gallery path.
type MemegenHandler struct {
	generator *memegen.Generator
	logger    *slog.Logger
}

// NewMemegenHandler creates a MemegenHandler.
func NewMemegenHandler(generator *memegen.Generator, logger *slog.Logger) *MemegenHandler {
	return &MemegenHandler{
		generator: generator,
		logger:    logger.With("component", "memegen_handler"),
	}
}

// Generate handles POST /api/memes/memegen: picks a template, captions
// it and returns the assembled image URL synchronously.
func (h *MemegenHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req MemegenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, CodeValidationError, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, CodeValidationError, "Validation error: "+err.Error())
		return
	}

	meme, err := h.generator.Generate(r.Context(), req.Context, req.Width, req.Height)
	if err != nil {
		status, code, detail := MapError(err)
		shared.RespondWithErrorAndLog(w, r, status, code, detail, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MemegenResponse{
		URL:      meme.URL,
		Template: meme.Template,
		Text:     meme.Text,
	})
}
