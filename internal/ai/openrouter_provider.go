package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"rag-chatbot-platform/internal/errdefs"
	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/internal/telemetry"
)

const OpenRouterProviderName = "openrouter"

// maxMalformedDeltas bounds how many empty or malformed stream chunks we skip
// before treating the stream as broken.
const maxMalformedDeltas = 50

type OpenRouterProvider struct {
	client    *openai.Client
	modelName string
	timeout   time.Duration
}

// NewOpenRouterProvider talks to OpenRouter through its OpenAI-compatible API
// by pointing the client at a custom base URL.
func NewOpenRouterProvider(apiKey, modelName, baseURL string, timeout time.Duration) (*OpenRouterProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENROUTER_API_KEY: %w", errdefs.ErrProviderUnavailable)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &OpenRouterProvider{
		client:    openai.NewClientWithConfig(cfg),
		modelName: modelName,
		timeout:   timeout,
	}, nil
}

func (op *OpenRouterProvider) Name() string { return OpenRouterProviderName }

// messages builds the chat payload. A system role message is included only
// when the instructions are non-empty after trimming.
func (op *OpenRouterProvider) messages(req GenerationRequest) []openai.ChatCompletionMessage {
	var msgs []openai.ChatCompletionMessage
	if si := strings.TrimSpace(req.SystemInstructions); si != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: si,
		})
	}
	return append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})
}

func (op *OpenRouterProvider) Generate(ctx context.Context, req GenerationRequest) (text string, err error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, op.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		telemetry.RecordProviderCall(ctx, OpenRouterProviderName, "generate", time.Since(start).Seconds(), err)
	}()

	resp, err := op.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    op.modelName,
		Messages: op.messages(req),
	})
	if err != nil {
		return "", op.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openrouter returned no choices: %w", errdefs.ErrProviderError)
	}
	return resp.Choices[0].Message.Content, nil
}

func (op *OpenRouterProvider) GenerateStream(ctx context.Context, req GenerationRequest, onFragment FragmentFunc) (err error) {
	if err := validateRequest(req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, op.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		telemetry.RecordProviderCall(ctx, OpenRouterProviderName, "stream", time.Since(start).Seconds(), err)
	}()

	stream, err := op.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    op.modelName,
		Messages: op.messages(req),
		Stream:   true,
	})
	if err != nil {
		return op.classify(err)
	}
	defer stream.Close()

	malformed := 0
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return op.classify(err)
		}
		if len(resp.Choices) == 0 {
			malformed++
			if malformed > maxMalformedDeltas {
				return fmt.Errorf("too many malformed stream chunks: %w", errdefs.ErrProviderError)
			}
			logger.Debug("Skipping stream chunk without choices", "model", op.modelName)
			continue
		}
		if fragment := resp.Choices[0].Delta.Content; fragment != "" {
			if err := onFragment(fragment); err != nil {
				return err
			}
		}
	}
}

// classify maps go-openai errors onto the shared taxonomy.
func (op *OpenRouterProvider) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("openrouter call exceeded deadline: %w", errdefs.ErrProviderTimeout)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openrouter api error (status %d): %w", apiErr.HTTPStatusCode, errdefs.ErrProviderError)
	}
	return fmt.Errorf("openrouter request: %w", err)
}
