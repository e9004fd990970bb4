package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/memology/memology-api/internal/config"
	"github.com/memology/memology-api/internal/generation"
)

// TextGenerator implements generation.TextGenerator using Google's Gemini
// API. It performs no retries of its own: the task orchestrator is the
// single retry point in the system.
type TextGenerator struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

// NewTextGenerator creates a TextGenerator from LLM configuration. It
// validates the configuration and establishes the API client.
func NewTextGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*TextGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &TextGenerator{
		logger: logger.With("component", "gemini_text_generator"),
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// GenerateText sends the ordered message list to the model and returns the
// generated text. System-role messages become the system instruction; the
// rest become user content in order. The call is bound to the given timeout
// via a deadline-aware context; exceeding it returns ErrTimeout.
func (g *TextGenerator) GenerateText(
	ctx context.Context,
	messages []generation.Message,
	timeout time.Duration,
) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: empty message list", generation.ErrInvalidResponse)
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	genCfg := &genai.GenerateContentConfig{}
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case generation.RoleSystem:
			genCfg.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return "", fmt.Errorf("%w: no user content in message list", generation.ErrInvalidResponse)
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(callCtx, g.model, contents, genCfg)
	if err != nil {
		if callCtx.Err() != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			g.logger.ErrorContext(ctx, "text generation timed out",
				"timeout", timeout,
				"elapsed", time.Since(start))
			return "", fmt.Errorf("%w: exceeded %s budget", generation.ErrTimeout, timeout)
		}
		g.logger.ErrorContext(ctx, "text generation call failed", "error", err)
		return "", fmt.Errorf("%w: %v", generation.ErrServiceUnavailable, err)
	}

	text := resp.Text()
	if text == "" {
		g.logger.ErrorContext(ctx, "text generation returned no content")
		return "", fmt.Errorf("%w: empty completion", generation.ErrInvalidResponse)
	}

	g.logger.DebugContext(ctx, "text generated",
		"model", g.model,
		"length", len(text),
		"elapsed", time.Since(start))

	return text, nil
}

var _ generation.TextGenerator = (*TextGenerator)(nil)
