package services

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"rag-chatbot-platform/internal/ai"
	"rag-chatbot-platform/internal/errdefs"
	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/models"
)

// GenerateRequest is one chat turn through the full pipeline: retrieval over
// the given scopes followed by generation with the chosen provider.
type GenerateRequest struct {
	Prompt             string
	SystemInstructions string
	Provider           string
	Scopes             models.ScopeSet
	ExpandKeywords     bool
}

// GenerateResult carries the answer plus which provider produced it.
type GenerateResult struct {
	Answer     string
	Provider   string
	ChunkCount int
}

// GenerationService dispatches chat turns to registered providers. Retrieval
// failures degrade to an empty context so the user still gets an answer.
type GenerationService struct {
	providers       map[string]ai.Provider
	search          *SearchService
	defaultProvider string
}

func NewGenerationService(search *SearchService, defaultProvider string, providers ...ai.Provider) *GenerationService {
	registry := make(map[string]ai.Provider, len(providers))
	for _, p := range providers {
		registry[p.Name()] = p
	}
	return &GenerationService{
		providers:       registry,
		search:          search,
		defaultProvider: defaultProvider,
	}
}

// Providers lists the registered provider names.
func (gs *GenerationService) Providers() []string {
	names := make([]string, 0, len(gs.providers))
	for name := range gs.providers {
		names = append(names, name)
	}
	return names
}

func (gs *GenerationService) provider(name string) (ai.Provider, error) {
	if name == "" {
		name = gs.defaultProvider
	}
	p, ok := gs.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q: %w", name, errdefs.ErrProviderUnavailable)
	}
	return p, nil
}

// Chat runs retrieval plus blocking generation.
func (gs *GenerationService) Chat(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return GenerateResult{}, fmt.Errorf("prompt cannot be empty: %w", errdefs.ErrEmptyInput)
	}

	provider, err := gs.provider(req.Provider)
	if err != nil {
		return GenerateResult{}, err
	}

	tracer := otel.Tracer("generation")
	ctx, span := tracer.Start(ctx, "generation.chat")
	defer span.End()
	span.SetAttributes(attribute.String("generation.provider", provider.Name()))

	retrieval := gs.retrieve(ctx, req)
	span.SetAttributes(attribute.Int("generation.context_chunks", retrieval.ChunkCount))

	answer, err := provider.Generate(ctx, ai.GenerationRequest{
		Prompt:             buildFullPrompt(req.Prompt, retrieval.Context),
		SystemInstructions: req.SystemInstructions,
	})
	if err != nil {
		return GenerateResult{}, err
	}

	return GenerateResult{
		Answer:     answer,
		Provider:   provider.Name(),
		ChunkCount: retrieval.ChunkCount,
	}, nil
}

// ChatStream runs retrieval, then streams generated fragments through
// onFragment. Retrieval completes before the first fragment is emitted.
func (gs *GenerationService) ChatStream(ctx context.Context, req GenerateRequest, onFragment ai.FragmentFunc) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return fmt.Errorf("prompt cannot be empty: %w", errdefs.ErrEmptyInput)
	}

	provider, err := gs.provider(req.Provider)
	if err != nil {
		return err
	}

	tracer := otel.Tracer("generation")
	ctx, span := tracer.Start(ctx, "generation.chat_stream")
	defer span.End()
	span.SetAttributes(attribute.String("generation.provider", provider.Name()))

	retrieval := gs.retrieve(ctx, req)
	span.SetAttributes(attribute.Int("generation.context_chunks", retrieval.ChunkCount))

	return provider.GenerateStream(ctx, ai.GenerationRequest{
		Prompt:             buildFullPrompt(req.Prompt, retrieval.Context),
		SystemInstructions: req.SystemInstructions,
	}, onFragment)
}

// retrieve fetches context for the request. Any retrieval failure, including
// an empty scope set, collapses to no context rather than blocking the chat.
func (gs *GenerationService) retrieve(ctx context.Context, req GenerateRequest) RetrievalResult {
	if gs.search == nil || req.Scopes.Empty() {
		return RetrievalResult{}
	}
	retrieval, err := gs.search.RetrieveContext(ctx, req.Prompt, req.Scopes, req.ExpandKeywords)
	if err != nil {
		logger.Warn("Context retrieval failed, answering without context", "error", err)
		return RetrievalResult{}
	}
	return retrieval
}

// buildFullPrompt wraps the user question with retrieved context. Without
// context the question passes through untouched.
func buildFullPrompt(prompt, context string) string {
	if context == "" {
		return prompt
	}
	var sb strings.Builder
	sb.WriteString("Context Information:\n")
	sb.WriteString(context)
	sb.WriteString("\n\n")
	sb.WriteString("IMPORTANT: Answer the question using the Context Information above. Do NOT repeat or quote the Context Information in your response unless explicitly asked.\n\n")
	sb.WriteString("User Question: ")
	sb.WriteString(prompt)
	sb.WriteString("\n\nPlease answer based on the context above. Format your response with clear structure using markdown when helpful.")
	return sb.String()
}
