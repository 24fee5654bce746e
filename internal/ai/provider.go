package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rag-chatbot-platform/internal/errdefs"
)

// GenerationRequest carries a fully built prompt plus optional system
// instructions. Provider-specific rules for blank system instructions are
// handled inside each implementation.
type GenerationRequest struct {
	Prompt             string
	SystemInstructions string
}

// FragmentFunc receives each streamed text fragment as it arrives. Returning
// an error cancels the stream.
type FragmentFunc func(fragment string) error

// Provider is the capability contract shared by all generation backends.
// Adding a provider means adding one implementation; the orchestrator only
// dispatches on the registered name.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	GenerateStream(ctx context.Context, req GenerationRequest, onFragment FragmentFunc) error
}

// validateRequest enforces the pre-network checks common to all providers.
func validateRequest(req GenerationRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return fmt.Errorf("prompt cannot be empty: %w", errdefs.ErrEmptyInput)
	}
	return nil
}

// classifyErr maps transport-level failures onto the shared taxonomy.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("provider call exceeded deadline: %w", errdefs.ErrProviderTimeout)
	}
	return err
}
