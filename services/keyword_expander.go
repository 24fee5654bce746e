package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rag-chatbot-platform/internal/ai"
	"rag-chatbot-platform/internal/cache"
	"rag-chatbot-platform/internal/logger"
)

const (
	keywordCacheTTL  = time.Hour
	keywordCacheSize = 1000
)

const keywordPromptTemplate = `You are a search expert. Generate 5-10 search keywords for the following user question.
The keywords will be used to search a database.

User Question: "%s"

Rules:
1. If the question is in Vietnamese, generate keywords in BOTH Vietnamese and English.
2. If the question is in English, generate keywords in English.
3. Include synonyms, related terms, and important nouns.
4. Remove question words (what, how, why, là gì, như thế nào).
5. Return ONLY the keywords separated by commas.

Example:
Question: "Cách cài đặt server RLCraft"
Keywords: cài đặt server, RLCraft setup, install server, cấu hình server, server configuration, minecraft server

Keywords:`

// KeywordExpander widens a user query into search keywords using the
// generation provider, with a one hour cache keyed on the raw query.
type KeywordExpander struct {
	provider ai.Provider
	cache    *cache.TTLCache[string, []string]
}

func NewKeywordExpander(provider ai.Provider) *KeywordExpander {
	return &KeywordExpander{
		provider: provider,
		cache:    cache.NewTTLCache[string, []string](keywordCacheSize, keywordCacheTTL),
	}
}

// Expand returns search keywords for the query, always starting with the
// query itself. Provider failures degrade to just the original query; the
// caller never sees an error.
func (ke *KeywordExpander) Expand(ctx context.Context, query string) []string {
	if keywords, ok := ke.cache.Get(query); ok {
		return keywords
	}

	text, err := ke.provider.Generate(ctx, ai.GenerationRequest{
		Prompt: fmt.Sprintf(keywordPromptTemplate, query),
	})
	if err != nil {
		logger.Warn("Keyword expansion failed, using raw query", "error", err)
		return []string{query}
	}

	keywords := parseKeywords(text)
	if !containsString(keywords, query) {
		keywords = append([]string{query}, keywords...)
	}

	ke.cache.Set(query, keywords)
	return keywords
}

// parseKeywords splits the model output on commas, falling back to newlines
// when the model ignored the separator instruction.
func parseKeywords(text string) []string {
	text = strings.TrimSpace(text)
	sep := ","
	if !strings.Contains(text, ",") {
		sep = "\n"
	}

	var keywords []string
	for _, part := range strings.Split(text, sep) {
		if kw := strings.TrimSpace(part); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
