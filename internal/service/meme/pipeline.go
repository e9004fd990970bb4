package meme

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/memology/memology-api/internal/artifact"
	"github.com/memology/memology-api/internal/domain"
	"github.com/memology/memology-api/internal/generation"
	"github.com/memology/memology-api/internal/imaging"
	"github.com/memology/memology-api/internal/task"
)

// Service runs the full generation pipeline for one request: visual
// prompt, caption, image, and the captioned final artifact.
type Service struct {
	prompts   *PromptService
	captions  *CaptionService
	images    generation.ImageGenerator
	renderer  *imaging.Renderer
	artifacts *artifact.Store
	logger    *slog.Logger
}

// NewService creates the pipeline Service. All dependencies are required.
func NewService(
	prompts *PromptService,
	captions *CaptionService,
	images generation.ImageGenerator,
	renderer *imaging.Renderer,
	artifacts *artifact.Store,
	logger *slog.Logger,
) (*Service, error) {
	if prompts == nil {
		return nil, fmt.Errorf("prompt service is required")
	}
	if captions == nil {
		return nil, fmt.Errorf("caption service is required")
	}
	if images == nil {
		return nil, fmt.Errorf("image generator is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if artifacts == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		prompts:   prompts,
		captions:  captions,
		images:    images,
		renderer:  renderer,
		artifacts: artifacts,
		logger:    logger.With("component", "meme_service"),
	}, nil
}

// Generate runs the pipeline stages in order and reports progress after
// each one. The text stages degrade to fallbacks on their own; an image
// generation or storage failure yields a result with Success=false so
// the caller decides whether to retry.
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest, report task.ProgressFunc) (domain.GenerationResult, error) {
	start := time.Now()
	generationID := uuid.New().String()[:8]

	logger := s.logger.With("generation_id", generationID, "task_id", req.ID)
	logger.Info("starting meme generation", "style", req.StyleName)

	style, ok := domain.StyleByName(req.StyleName)
	if !ok {
		style = domain.RandomStyle()
	}

	report(1, "Generating visual prompt...")
	visualPrompt := s.prompts.GenerateVisualPrompt(ctx, req.UserInput, style)

	report(2, "Generating caption...")
	caption := s.captions.GenerateCaption(ctx, req.UserInput)

	report(3, "Generating image...")
	rawImage, err := s.images.GenerateImage(ctx, visualPrompt)
	if err != nil {
		return s.failed(req, generationID, visualPrompt, caption, style, start,
			fmt.Errorf("image generation failed: %w", err), logger), nil
	}

	rawPath, err := s.artifacts.Save(s.artifacts.Filename(generationID, "raw"), rawImage)
	if err != nil {
		return s.failed(req, generationID, visualPrompt, caption, style, start,
			fmt.Errorf("failed to save raw image: %w", err), logger), nil
	}

	finalImage, err := s.renderer.AddCaption(rawImage, caption)
	if err != nil {
		return s.failed(req, generationID, visualPrompt, caption, style, start,
			fmt.Errorf("failed to render caption: %w", err), logger), nil
	}

	finalPath, err := s.artifacts.Save(s.artifacts.Filename(generationID, "final"), finalImage)
	if err != nil {
		return s.failed(req, generationID, visualPrompt, caption, style, start,
			fmt.Errorf("failed to save final image: %w", err), logger), nil
	}

	elapsed := time.Since(start).Seconds()
	logger.Info("meme generation completed",
		"generation_time", elapsed,
		"final_path", finalPath)

	return domain.GenerationResult{
		GenerationID:   generationID,
		UserInput:      req.UserInput,
		VisualPrompt:   visualPrompt,
		Caption:        caption,
		Style:          style.Name,
		RawImagePath:   rawPath,
		FinalImagePath: finalPath,
		GenerationTime: elapsed,
		GeneratedAt:    time.Now().UTC(),
		Success:        true,
	}, nil
}

func (s *Service) failed(
	req domain.GenerationRequest,
	generationID, visualPrompt, caption string,
	style domain.Style,
	start time.Time,
	cause error,
	logger *slog.Logger,
) domain.GenerationResult {
	logger.Error("meme generation failed", "error", cause)
	return domain.GenerationResult{
		GenerationID:   generationID,
		UserInput:      req.UserInput,
		VisualPrompt:   visualPrompt,
		Caption:        caption,
		Style:          style.Name,
		GenerationTime: time.Since(start).Seconds(),
		GeneratedAt:    time.Now().UTC(),
		Success:        false,
		ErrorMessage:   cause.Error(),
	}
}
