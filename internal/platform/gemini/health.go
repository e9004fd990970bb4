package gemini

import (
	"context"
	"fmt"

	"github.com/memology/memology-api/internal/generation"
)

// Ping verifies that the configured model is reachable. Used by the
// readiness endpoint; failures map to the unavailable classification.
func (g *TextGenerator) Ping(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
		return fmt.Errorf("%w: %v", generation.ErrServiceUnavailable, err)
	}
	return nil
}
