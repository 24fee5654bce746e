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
	"rag-chatbot-platform/internal/store"
	"rag-chatbot-platform/models"
)

const contextSeparator = "\n\n---\n\n"

// RetrievalResult is the assembled context plus the keywords that produced
// it.
type RetrievalResult struct {
	Context    string
	Keywords   []string
	ChunkCount int
}

// SearchService runs the retrieval pipeline: optional keyword expansion,
// query embedding, scoped vector search, and context assembly.
type SearchService struct {
	embedder   ai.Embedder
	expander   *KeywordExpander
	store      store.DocumentStore
	maxResults int
}

func NewSearchService(embedder ai.Embedder, expander *KeywordExpander, docStore store.DocumentStore, maxResults int) *SearchService {
	if maxResults <= 0 {
		maxResults = 10
	}
	return &SearchService{
		embedder:   embedder,
		expander:   expander,
		store:      docStore,
		maxResults: maxResults,
	}
}

// RetrieveContext returns context for the query limited to the given scopes.
// An empty scope set is rejected rather than widened into a global search.
func (ss *SearchService) RetrieveContext(ctx context.Context, query string, scopes models.ScopeSet, expandKeywords bool) (RetrievalResult, error) {
	if scopes.Empty() {
		return RetrievalResult{}, errdefs.ErrScopeRequired
	}

	tracer := otel.Tracer("search")
	ctx, span := tracer.Start(ctx, "search.retrieve_context")
	defer span.End()
	span.SetAttributes(
		attribute.Int("search.knowledge_bases", len(scopes.KnowledgeBaseIDs)),
		attribute.Bool("search.bot_scoped", scopes.BotID != ""),
		attribute.Bool("search.expand_keywords", expandKeywords),
	)

	keywords := []string{query}
	if expandKeywords && ss.expander != nil {
		keywords = ss.expander.Expand(ctx, query)
	}

	embedText := query
	if len(keywords) > 1 {
		embedText = strings.Join(keywords, " ")
	}

	embedding, err := ss.embedder.Embed(ctx, embedText)
	if err != nil {
		return RetrievalResult{Keywords: keywords}, fmt.Errorf("embed query: %w", err)
	}

	scored, err := ss.store.NearestChunks(ctx, embedding, scopes, ss.maxResults)
	if err != nil {
		return RetrievalResult{Keywords: keywords}, err
	}
	span.SetAttributes(attribute.Int("search.chunks", len(scored)))

	if len(scored) == 0 {
		// A bot with documents but no searchable chunks still gets its raw
		// content, so freshly uploaded bots answer before embeddings settle.
		if scopes.BotID != "" && len(scopes.KnowledgeBaseIDs) == 0 {
			return ss.botContentFallback(ctx, scopes.BotID, keywords)
		}
		return RetrievalResult{Keywords: keywords}, nil
	}

	parts := make([]string, 0, len(scored))
	for _, sc := range scored {
		parts = append(parts, formatSource(sc.Chunk.Filename, sc.Chunk.Content))
	}

	return RetrievalResult{
		Context:    strings.Join(parts, contextSeparator),
		Keywords:   keywords,
		ChunkCount: len(scored),
	}, nil
}

func (ss *SearchService) botContentFallback(ctx context.Context, botID string, keywords []string) (RetrievalResult, error) {
	docs, err := ss.store.BotDocuments(ctx, botID)
	if err != nil {
		logger.Warn("Bot content fallback failed", "bot_id", botID, "error", err)
		return RetrievalResult{Keywords: keywords}, nil
	}

	var parts []string
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		parts = append(parts, formatSource(doc.Filename, doc.Content))
	}
	if len(parts) == 0 {
		return RetrievalResult{Keywords: keywords}, nil
	}

	logger.Info("Bot content fallback served", "bot_id", botID, "files", len(parts))
	return RetrievalResult{
		Context:    strings.Join(parts, contextSeparator),
		Keywords:   keywords,
		ChunkCount: len(parts),
	}, nil
}

func formatSource(filename, content string) string {
	if filename == "" {
		filename = "Unknown source"
	}
	return fmt.Sprintf("[Source: %s]\n%s", filename, content)
}
