package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Input length bounds for a generation request, in characters after trim.
const (
	MinUserInputLen = 3
	MaxUserInputLen = 500
)

// Common validation errors for GenerationRequest
var (
	ErrEmptyUserInput    = errors.New("user input cannot be empty")
	ErrUserInputTooShort = errors.New("user input is too short")
	ErrUserInputTooLong  = errors.New("user input is too long")
	ErrUnknownStyle      = errors.New("unknown style name")
)

// GenerationRequest is the immutable input to one meme generation task.
// The ID doubles as the task's external handle so a submission can be
// traced end to end.
type GenerationRequest struct {
	ID        string    `json:"id"`
	UserInput string    `json:"user_input"`
	StyleName string    `json:"style,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewGenerationRequest creates a validated GenerationRequest. The id may be
// empty, in which case a new UUID is generated. The user input is trimmed
// before length validation. A non-empty style name must match the catalog.
func NewGenerationRequest(id, userInput, styleName string) (*GenerationRequest, error) {
	if id == "" {
		id = uuid.New().String()
	}

	userInput = strings.TrimSpace(userInput)
	if err := ValidateUserInput(userInput); err != nil {
		return nil, err
	}

	if styleName != "" {
		if _, ok := StyleByName(styleName); !ok {
			return nil, ErrUnknownStyle
		}
	}

	return &GenerationRequest{
		ID:        id,
		UserInput: userInput,
		StyleName: styleName,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ValidateUserInput checks the trimmed free-text idea against the length
// bounds. Length is measured in runes, not bytes, because inputs are
// routinely non-ASCII.
func ValidateUserInput(userInput string) error {
	trimmed := strings.TrimSpace(userInput)
	n := utf8.RuneCountInString(trimmed)

	switch {
	case n == 0:
		return ErrEmptyUserInput
	case n < MinUserInputLen:
		return ErrUserInputTooShort
	case n > MaxUserInputLen:
		return ErrUserInputTooLong
	}
	return nil
}
