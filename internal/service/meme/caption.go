package meme

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/memology/memology-api/internal/generation"
)

// captionSystem instructs the model to produce a short Russian caption.
const captionSystem = `Ты — генератор коротких мемных подписей.
Создавай короткие смешные подписи на русском языке (2–4 слов).
Используй сарказм, самоиронию, иронию или жизненные ситуации.
Не упоминай людей, бренды, политику и не используй грубости.
Отвечай только подписью, без кавычек и пояснений.`

// fallbackCaption is used when the model cannot produce a caption.
const fallbackCaption = "Когда всё пошло не так"

// maxCaptionRunes limits how much text gets drawn onto the image.
const maxCaptionRunes = 80

// CaptionService produces the short text overlaid on the final image.
type CaptionService struct {
	generator generation.TextGenerator
	timeout   time.Duration
	logger    *slog.Logger
}

// NewCaptionService creates a CaptionService. A non-positive timeout
// defaults to thirty seconds.
func NewCaptionService(generator generation.TextGenerator, timeout time.Duration, logger *slog.Logger) (*CaptionService, error) {
	if generator == nil {
		return nil, fmt.Errorf("text generator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CaptionService{
		generator: generator,
		timeout:   timeout,
		logger:    logger.With("component", "caption_service"),
	}, nil
}

// GenerateCaption produces a short caption for the scene. Errors fall
// back to a canned caption so a meme is still produced.
func (s *CaptionService) GenerateCaption(ctx context.Context, sceneDescription string) string {
	s.logger.Info("generating caption")

	messages := []generation.Message{
		{Role: generation.RoleSystem, Content: captionSystem},
		{Role: generation.RoleUser, Content: sceneDescription},
	}

	raw, err := s.generator.GenerateText(ctx, messages, s.timeout)
	if err != nil {
		s.logger.Error("caption generation failed, using fallback", "error", err)
		return fallbackCaption
	}

	caption := cleanCaption(raw)
	if caption == "" {
		s.logger.Warn("model returned empty caption, using fallback")
		return fallbackCaption
	}

	s.logger.Info("generated caption", "caption", caption)
	return caption
}

// cleanCaption strips markdown leftovers, keeps the first line and
// limits the length to maxCaptionRunes characters.
func cleanCaption(text string) string {
	cleaned := cleanModelText(text)
	if idx := strings.IndexByte(cleaned, '\n'); idx != -1 {
		cleaned = cleaned[:idx]
	}
	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if len(runes) > maxCaptionRunes {
		cleaned = string(runes[:maxCaptionRunes])
	}
	return cleaned
}
