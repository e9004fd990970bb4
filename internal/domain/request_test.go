package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerationRequest(t *testing.T) {
	t.Run("valid request with generated id", func(t *testing.T) {
		req, err := NewGenerationRequest("", "кот пьет кофе", "realistic")
		require.NoError(t, err)

		assert.NotEmpty(t, req.ID)
		assert.Equal(t, "кот пьет кофе", req.UserInput)
		assert.Equal(t, "realistic", req.StyleName)
		assert.False(t, req.CreatedAt.IsZero())
	})

	t.Run("caller-supplied id is kept", func(t *testing.T) {
		req, err := NewGenerationRequest("req-123", "cat drinks coffee", "")
		require.NoError(t, err)
		assert.Equal(t, "req-123", req.ID)
	})

	t.Run("input is trimmed before validation", func(t *testing.T) {
		req, err := NewGenerationRequest("", "  cat drinks coffee  ", "")
		require.NoError(t, err)
		assert.Equal(t, "cat drinks coffee", req.UserInput)
	})

	t.Run("unknown style is rejected", func(t *testing.T) {
		_, err := NewGenerationRequest("", "cat drinks coffee", "not-a-real-style")
		assert.ErrorIs(t, err, ErrUnknownStyle)
	})
}

func TestValidateUserInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", ErrEmptyUserInput},
		{"whitespace only", "   \t\n ", ErrEmptyUserInput},
		{"too short", "ab", ErrUserInputTooShort},
		{"minimum length", "abc", nil},
		{"cyrillic counted in runes", "кот", nil},
		{"maximum length", strings.Repeat("a", MaxUserInputLen), nil},
		{"too long", strings.Repeat("a", MaxUserInputLen+1), ErrUserInputTooLong},
		{"long cyrillic within bounds", strings.Repeat("ж", MaxUserInputLen), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUserInput(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStyleCatalog(t *testing.T) {
	t.Run("lookup by name", func(t *testing.T) {
		s, ok := StyleByName("cyberpunk")
		require.True(t, ok)
		assert.Equal(t, "cyberpunk", s.Name)
		assert.Contains(t, s.Description, "neon")
	})

	t.Run("unknown name", func(t *testing.T) {
		_, ok := StyleByName("vaporwave")
		assert.False(t, ok)
	})

	t.Run("catalog copy cannot mutate the original", func(t *testing.T) {
		styles := Styles()
		require.NotEmpty(t, styles)
		styles[0].Name = "mutated"

		again := Styles()
		assert.NotEqual(t, "mutated", again[0].Name)
	})

	t.Run("random style covers the whole catalog", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 2000; i++ {
			seen[RandomStyle().Name] = true
		}
		assert.Len(t, seen, len(Styles()))
	})
}
