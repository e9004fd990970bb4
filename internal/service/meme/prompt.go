package meme

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/memology/memology-api/internal/domain"
	"github.com/memology/memology-api/internal/generation"
)

// visualPromptSystem instructs the model to produce a single-paragraph
// Stable Diffusion prompt tuned for comedic images.
const visualPromptSystem = `You are a professional prompt engineer for Stable Diffusion specialized in creating hilarious and funny meme images.
Your task is to transform user ideas into visually entertaining, absurd, and comedic prompts.

Requirements:
- Output only the prompt text, one paragraph, no formatting, no quotes, no explanations.
- The style must be humorous, absurd, exaggerated, or ironical.
- Include details about lighting, mood, color palette, and depth of field.
- Use rendering styles that enhance comedy:
"cartoon style", "anime style", "pop art", "digital art", "exaggerated proportions", "slapstick humor"
- Adapt the humor style to the topic:
- Use "cartoon exaggerated" or "absurd humor" for ridiculous or surreal ideas;
- Use "sarcastic realism" or "deadpan" for ironic commentary;
- Use "anime comedy" or "chibi style" for cute but funny moments.
- Add comedic elements:
"awkward pose", "funny expression", "over-the-top emotion", "unexpected detail", "ironic juxtaposition"
- Mention a suitable camera angle (e.g., "close-up of face", "wide shot showing chaos", "awkward angle", "slow-motion effect")
- Include dramatic or exaggerated lighting that enhances the humor
- Never use markdown, colons, explanations, or any meta instructions.
- The text should be directly usable as a Stable Diffusion prompt and result in a funny, engaging image.`

// stopPhrases mark the start of meta commentary some models append after
// the prompt; everything from the first occurrence on is discarded.
var stopPhrases = []string{"Instruction", "Explanation", "Note", "Ensure", "Remember"}

// PromptService turns a user idea into an English visual prompt for the
// image backend.
type PromptService struct {
	generator generation.TextGenerator
	timeout   time.Duration
	logger    *slog.Logger
}

// NewPromptService creates a PromptService. A non-positive timeout
// defaults to one minute.
func NewPromptService(generator generation.TextGenerator, timeout time.Duration, logger *slog.Logger) (*PromptService, error) {
	if generator == nil {
		return nil, fmt.Errorf("text generator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &PromptService{
		generator: generator,
		timeout:   timeout,
		logger:    logger.With("component", "prompt_service"),
	}, nil
}

// GenerateVisualPrompt produces a Stable Diffusion prompt in English for
// the given idea and style. A response containing Cyrillic triggers one
// retry with an explicit language instruction; generation errors fall
// back to a deterministic prompt so the pipeline can continue.
func (s *PromptService) GenerateVisualPrompt(ctx context.Context, userInput string, style domain.Style) string {
	s.logger.Info("generating visual prompt", "input_length", len(userInput))

	messages := s.buildMessages(userInput, style)
	const maxRetries = 1

	for attempt := 0; attempt <= maxRetries; attempt++ {
		raw, err := s.generator.GenerateText(ctx, messages, s.timeout)
		if err != nil {
			s.logger.Error("visual prompt generation failed", "error", err, "attempt", attempt)
			if attempt >= maxRetries {
				return fallbackPrompt(userInput, style)
			}
			continue
		}

		cleaned := cleanModelText(raw)
		if containsCyrillic(cleaned) {
			if attempt < maxRetries {
				s.logger.Warn("prompt contains Cyrillic, retrying with explicit instruction")
				messages = s.buildMessages(userInput+". Answer ONLY in English.", style)
				continue
			}
			s.logger.Warn("prompt still contains Cyrillic after retry")
		}

		s.logger.Info("generated visual prompt", "prompt_length", len(cleaned))
		return cleaned
	}

	return fallbackPrompt(userInput, style)
}

func (s *PromptService) buildMessages(userInput string, style domain.Style) []generation.Message {
	return []generation.Message{
		{Role: generation.RoleSystem, Content: visualPromptSystem},
		{
			Role:    generation.RoleUser,
			Content: fmt.Sprintf("Describe this scene in English: %s. Style: %s", userInput, style.Description),
		},
	}
}

// fallbackPrompt is used when the model cannot produce a usable prompt.
func fallbackPrompt(userInput string, style domain.Style) string {
	return fmt.Sprintf("A scene depicting: %s, %s", userInput, style.Description)
}

// cleanModelText strips reasoning blocks, markdown leftovers and
// trailing meta commentary from model output.
func cleanModelText(text string) string {
	text = stripThinkBlocks(text)

	for _, phrase := range stopPhrases {
		if idx := strings.Index(text, phrase); idx != -1 {
			text = text[:idx]
		}
	}

	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// stripThinkBlocks removes <think>...</think> sections emitted by
// reasoning models before the actual answer.
func stripThinkBlocks(text string) string {
	for {
		start := strings.Index(text, "<think>")
		if start == -1 {
			return text
		}
		end := strings.Index(text[start:], "</think>")
		if end == -1 {
			return text[:start]
		}
		text = text[:start] + text[start+end+len("</think>"):]
	}
}

func containsCyrillic(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}
