package ai

import (
	"context"
	"fmt"
	"strings"

	"rag-chatbot-platform/internal/config"
	"rag-chatbot-platform/internal/errdefs"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Embedder turns text into fixed-dimension vectors. Implementations must
// return one vector per input text, in input order, or fail the whole batch.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GeminiEmbedder embeds text with the Google Generative AI embedding model.
type GeminiEmbedder struct {
	client    *genai.Client
	modelName string
}

func NewGeminiEmbedder(ctx context.Context, cfg *config.Config) (*GeminiEmbedder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings: %w", errdefs.ErrProviderUnavailable)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiEmbedder{
		client:    client,
		modelName: cfg.GoogleEmbedModel,
	}, nil
}

// Embed returns the embedding vector for a single query text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errdefs.ErrEmptyInput
	}

	model := e.client.EmbeddingModel(e.modelName)
	model.TaskType = genai.TaskTypeRetrievalQuery

	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding returned: %w", errdefs.ErrProviderError)
	}

	return resp.Embedding.Values, nil
}

// EmbedBatch embeds document texts in a single API call. The result has
// exactly one vector per input text, in input order; any count mismatch from
// the provider fails the whole batch so callers never pair vectors with the
// wrong text.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := e.client.EmbeddingModel(e.modelName)
	model.TaskType = genai.TaskTypeRetrievalDocument

	batch := model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("batch embed contents: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("requested %d embeddings, got %d: %w",
			len(texts), len(resp.Embeddings), errdefs.ErrEmbeddingBatchMismatch)
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d: %w", i, errdefs.ErrEmbeddingBatchMismatch)
		}
		vectors[i] = emb.Values
	}

	return vectors, nil
}

// Close releases the underlying genai client.
func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
