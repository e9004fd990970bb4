package generation

import (
	"context"
	"time"
)

// Message roles accepted by text generation backends.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one entry of an ordered conversation sent to a text
// generation backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextGenerator is the boundary to a language model backend. The timeout is
// enforced by the adapter even when the underlying client has no native
// timeout support: a call that does not finish within the budget returns
// ErrTimeout, never waits longer.
type TextGenerator interface {
	GenerateText(ctx context.Context, messages []Message, timeout time.Duration) (string, error)
}

// ImageGenerator is the boundary to an image rendering backend. The
// returned bytes are an encoded image (typically PNG or JPEG).
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}
