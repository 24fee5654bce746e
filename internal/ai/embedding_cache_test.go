package ai

import (
	"context"
	"testing"
	"time"

	"rag-chatbot-platform/internal/cache"
)

type countingEmbedder struct {
	embedCalls int
	batchCalls int
	vector     []float32
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.embedCalls++
	return c.vector, nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchCalls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = c.vector
	}
	return out, nil
}

func TestEmbedCachesWithinTTL(t *testing.T) {
	stub := &countingEmbedder{vector: []float32{0.1, 0.2}}
	e := NewCachedEmbedder(stub, 10)

	for i := 0; i < 3; i++ {
		vec, err := e.Embed(context.Background(), "hello world")
		if err != nil {
			t.Fatalf("embed error: %v", err)
		}
		if len(vec) != 2 {
			t.Fatalf("unexpected vector: %v", vec)
		}
	}

	if stub.embedCalls != 1 {
		t.Fatalf("expected a single provider call, got %d", stub.embedCalls)
	}
}

func TestEmbedReinvokesProviderAfterExpiry(t *testing.T) {
	stub := &countingEmbedder{vector: []float32{0.1}}
	e := NewCachedEmbedder(stub, 10)
	e.cache = cache.NewTTLCache[string, []float32](10, 10*time.Millisecond)

	if _, err := e.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("embed error: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, err := e.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("embed error: %v", err)
	}

	if stub.embedCalls != 2 {
		t.Fatalf("expected provider re-invoked after TTL, got %d calls", stub.embedCalls)
	}
}

func TestFingerprintBoundsLongText(t *testing.T) {
	long := make([]byte, 10000)
	for i := range long {
		long[i] = 'a'
	}
	prefix := string(long[:fingerprintPrefixLen])

	if fingerprint(string(long)) != fingerprint(prefix+"different suffix ignored") {
		t.Fatalf("expected fingerprint to depend only on the bounded prefix")
	}
}

func TestEmbedBatchBypassesCache(t *testing.T) {
	stub := &countingEmbedder{vector: []float32{0.5}}
	e := NewCachedEmbedder(stub, 10)

	texts := []string{"a", "b"}
	for i := 0; i < 2; i++ {
		if _, err := e.EmbedBatch(context.Background(), texts); err != nil {
			t.Fatalf("batch error: %v", err)
		}
	}

	if stub.batchCalls != 2 {
		t.Fatalf("expected batch calls to pass through, got %d", stub.batchCalls)
	}
}
