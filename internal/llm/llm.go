// Package llm defines the text generation collaborator used by actions.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrGeneration wraps every provider, network or timeout failure.
var ErrGeneration = errors.New("generation failed")

// PlaceholderClient generates deterministic text without calling a provider.
// It is used in dev and tests when no provider is configured.
type PlaceholderClient struct{}

// Generate echoes a bounded view of the prompt.
func (PlaceholderClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	preview := strings.TrimSpace(prompt)
	if r := []rune(preview); len(r) > 200 {
		preview = string(r[:200])
	}
	return "Generated output (placeholder)\n\n" + preview, nil
}

var _ Generator = PlaceholderClient{}
