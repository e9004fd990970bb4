package meme

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memology/memology-api/internal/domain"
	"github.com/memology/memology-api/internal/generation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// scriptedTextGenerator returns canned responses in order and records
// the messages of every call.
type scriptedTextGenerator struct {
	responses []string
	errs      []error
	calls     [][]generation.Message
}

func (g *scriptedTextGenerator) GenerateText(_ context.Context, messages []generation.Message, _ time.Duration) (string, error) {
	i := len(g.calls)
	g.calls = append(g.calls, messages)
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func mustStyle(t *testing.T, name string) domain.Style {
	t.Helper()
	style, ok := domain.StyleByName(name)
	require.True(t, ok)
	return style
}

func TestGenerateVisualPrompt(t *testing.T) {
	gen := &scriptedTextGenerator{responses: []string{"a funny cat in a cartoon style, dramatic lighting"}}
	svc, err := NewPromptService(gen, time.Minute, testLogger())
	require.NoError(t, err)

	prompt := svc.GenerateVisualPrompt(context.Background(), "кот пьет кофе", mustStyle(t, "realistic"))

	assert.Equal(t, "a funny cat in a cartoon style, dramatic lighting", prompt)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, generation.RoleSystem, gen.calls[0][0].Role)
	assert.Contains(t, gen.calls[0][1].Content, "кот пьет кофе")
}

func TestGenerateVisualPromptRetriesOnCyrillic(t *testing.T) {
	gen := &scriptedTextGenerator{responses: []string{
		"кот пьет кофе в мультяшном стиле",
		"a cartoon cat drinking coffee",
	}}
	svc, err := NewPromptService(gen, time.Minute, testLogger())
	require.NoError(t, err)

	prompt := svc.GenerateVisualPrompt(context.Background(), "кот пьет кофе", mustStyle(t, "cartoon"))

	assert.Equal(t, "a cartoon cat drinking coffee", prompt)
	require.Len(t, gen.calls, 2)
	assert.Contains(t, gen.calls[1][1].Content, "Answer ONLY in English.")
}

func TestGenerateVisualPromptFallsBackOnError(t *testing.T) {
	gen := &scriptedTextGenerator{errs: []error{
		errors.New("model down"),
		errors.New("still down"),
	}}
	svc, err := NewPromptService(gen, time.Minute, testLogger())
	require.NoError(t, err)

	style := mustStyle(t, "realistic")
	prompt := svc.GenerateVisualPrompt(context.Background(), "cat drinks coffee", style)

	assert.Equal(t, "A scene depicting: cat drinks coffee, "+style.Description, prompt)
}

func TestCleanModelText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "a funny cat", "a funny cat"},
		{"markdown", "**a funny cat**\n```", "a funny cat"},
		{"think block", "<think>reasoning here</think>a funny cat", "a funny cat"},
		{"unterminated think block", "a funny cat<think>trailing reasoning", "a funny cat"},
		{"stop phrase", "a funny cat. Note: ensure the cat is funny", "a funny cat."},
		{"whitespace", "  a funny cat  ", "a funny cat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelText(tt.in))
		})
	}
}

func TestContainsCyrillic(t *testing.T) {
	assert.True(t, containsCyrillic("кот"))
	assert.True(t, containsCyrillic("mostly english с одним словом"))
	assert.False(t, containsCyrillic("a funny cat"))
	assert.False(t, containsCyrillic(""))
}

func TestCleanCaption(t *testing.T) {
	assert.Equal(t, "Когда всё пошло не так", cleanCaption("Когда всё пошло не так\nвторая строка"))
	assert.Equal(t, "подпись", cleanCaption("**подпись**"))

	long := strings.Repeat("о", 120)
	assert.Equal(t, 80, len([]rune(cleanCaption(long))))
}
