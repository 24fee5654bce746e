package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"rag-chatbot-platform/internal/cache"
)

const (
	embeddingCacheTTL = 30 * time.Minute

	// Cache keys fingerprint only a bounded prefix of the text. Query texts
	// rarely differ beyond this length, and it keeps hashing cheap for the
	// occasional long input.
	fingerprintPrefixLen = 500
)

// CachedEmbedder memoizes single-text Embed calls by a fingerprint of the
// text. Batch calls pass through uncached: ingestion embeds each chunk once.
type CachedEmbedder struct {
	inner Embedder
	cache *cache.TTLCache[string, []float32]
}

func NewCachedEmbedder(inner Embedder, capacity int) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		cache: cache.NewTTLCache[string, []float32](capacity, embeddingCacheTTL),
	}
}

func fingerprint(text string) string {
	if len(text) > fingerprintPrefixLen {
		text = text[:fingerprintPrefixLen]
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := fingerprint(text)
	if vec, ok := e.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.Set(key, vec)
	return vec, nil
}

func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.inner.EmbedBatch(ctx, texts)
}
