package memegen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/memology/memology-api/internal/generation"
)

const fallbackSnippetLen = 40

// Meme is the synchronous gallery-path result: a ready-to-fetch image
// URL plus the template and captions that produced it.
type Meme struct {
	URL      string   `json:"url"`
	Template string   `json:"template"`
	Text     []string `json:"text"`
}

// Generator builds meme URLs from the template gallery, captioned by
// the language model with deterministic fallbacks.
type Generator struct {
	catalog   *Catalog
	generator generation.TextGenerator
	baseURL   string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewGenerator creates a Generator. All dependencies are required.
func NewGenerator(
	catalog *Catalog,
	textGen generation.TextGenerator,
	baseURL string,
	timeout time.Duration,
	logger *slog.Logger,
) (*Generator, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if textGen == nil {
		return nil, fmt.Errorf("text generator is required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("gallery base URL is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		catalog:   catalog,
		generator: textGen,
		baseURL:   baseURL,
		timeout:   timeout,
		logger:    logger.With("component", "memegen_generator"),
	}, nil
}

// Generate picks a random template, captions it for the given context
// and assembles the image URL.
func (g *Generator) Generate(ctx context.Context, topic string, width, height int) (Meme, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	template := g.catalog.Random(ctx)
	g.logger.Info("selected template", "template", template.ID, "lines", template.Lines)

	lines := g.captionLines(ctx, topic, template)
	url := g.buildURL(template, lines, "notosans", width, height)

	g.logger.Info("generated meme url", "template", template.ID, "url", url)
	return Meme{URL: url, Template: template.ID, Text: lines}, nil
}

// captionLines asks the model for exactly template.Lines caption lines
// as a JSON array, falling back to template-specific canned captions.
func (g *Generator) captionLines(ctx context.Context, topic string, template Template) []string {
	prompt := fmt.Sprintf(
		"Шаблон - %s\nКонтекст пользователя - %s\nВозвращай ровно %d строк как JSON список.\nПример:\n[\"Первая строка\", \"Вторая строка\"]",
		template.Name, topic, template.Lines,
	)

	raw, err := g.generator.GenerateText(ctx, []generation.Message{
		{Role: generation.RoleUser, Content: prompt},
	}, g.timeout)
	if err != nil {
		g.logger.Error("caption generation failed, using fallback", "error", err)
		return fallbackLines(topic, template.ID)
	}

	lines := ParseCaptionLines(raw)
	if len(lines) == 0 {
		g.logger.Warn("model returned no caption lines, using fallback")
		return fallbackLines(topic, template.ID)
	}
	return lines
}

// fallbackLines produces captions without the model for a handful of
// known templates, splitting the context in half otherwise.
func fallbackLines(topic, templateID string) []string {
	switch templateID {
	case "buzz":
		words := strings.Fields(topic)
		noun := "Это"
		if len(words) > 0 {
			noun = words[0]
		}
		return []string{noun, noun + " повсюду 🌍"}
	case "fine":
		top := topic
		if len([]rune(top)) > fallbackSnippetLen {
			top = string([]rune(top)[:fallbackSnippetLen]) + "..."
		}
		return []string{top, "Всё хорошо ☕"}
	case "stonks":
		top := topic
		if len([]rune(top)) > fallbackSnippetLen {
			top = string([]rune(top)[:fallbackSnippetLen])
		}
		return []string{top, "STONKS 📈"}
	case "rollsafe":
		return []string{"Нельзя иметь проблемы\nЕсли их игнорировать", ""}
	}

	words := strings.Fields(topic)
	mid := len(words) / 2
	top := strings.Join(words[:mid], " ")
	if top == "" {
		top = topic
	}
	return []string{top, strings.Join(words[mid:], " ")}
}

// buildURL assembles the gallery image URL from encoded caption lines.
func (g *Generator) buildURL(template Template, lines []string, font string, width, height int) string {
	parts := []string{g.baseURL, "images", template.ID}
	for i, line := range lines {
		encoded := EncodeText(line)
		if i == len(lines)-1 {
			encoded += ".png"
		}
		parts = append(parts, encoded)
	}
	url := strings.Join(parts, "/")

	var params []string
	if font != "" {
		params = append(params, "font="+font)
	}
	if width != DefaultWidth {
		params = append(params, fmt.Sprintf("width=%d", width))
	}
	if height != DefaultHeight {
		params = append(params, fmt.Sprintf("height=%d", height))
	}
	if len(params) > 0 {
		url += "?" + strings.Join(params, "&")
	}
	return url
}
