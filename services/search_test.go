package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rag-chatbot-platform/internal/errdefs"
	"rag-chatbot-platform/models"
)

func seedChunk(st *fakeStore, id, fileID, kbID, botID, filename, content string, index int, embedding []float32) {
	st.chunks = append(st.chunks, models.Chunk{
		ID:              id,
		FileID:          fileID,
		KnowledgeBaseID: kbID,
		BotID:           botID,
		Filename:        filename,
		Content:         content,
		ChunkIndex:      index,
		Embedding:       embedding,
	})
}

func TestRetrieveContextRejectsEmptyScope(t *testing.T) {
	// The corpus is non-empty; an unscoped query must still return nothing.
	st := newFakeStore()
	seedChunk(st, "c1", "f1", "kb1", "", "a.txt", "indexed content", 0, []float32{5, 0, 0, 0})
	seedChunk(st, "c2", "f2", "", "bot1", "b.txt", "bot content", 0, []float32{7, 0, 0, 0})

	ss := NewSearchService(&fakeEmbedder{dim: 4}, nil, st, 10)
	res, err := ss.RetrieveContext(context.Background(), "query", models.ScopeSet{}, false)
	if !errors.Is(err, errdefs.ErrScopeRequired) {
		t.Errorf("expected ErrScopeRequired, got %v", err)
	}
	if res.Context != "" || res.ChunkCount != 0 {
		t.Errorf("unscoped query leaked content: %+v", res)
	}
}

func TestIngestThenSearchRoundTrip(t *testing.T) {
	st := newFakeStore()
	seedDocument(st, "doc1")
	seedDocument(st, "doc2")
	embedder := &fakeEmbedder{dim: 4}
	svc := newTestIngestion(st, embedder, 50)

	ctx := context.Background()
	for _, up := range []struct{ id, name, text string }{
		{"doc1", "a.txt", "Alpha bravo charlie."},
		{"doc2", "b.txt", "Unrelated materials on another topic entirely."},
	} {
		if _, _, err := svc.Ingest(ctx, IngestFile{
			DocumentID:      up.id,
			Filename:        up.name,
			FileType:        "txt",
			KnowledgeBaseID: "kb1",
			Content:         []byte(up.text),
		}); err != nil {
			t.Fatalf("ingest %s: %v", up.id, err)
		}
	}

	// Searching with the exact ingested text embeds to the chunk's own vector,
	// so it comes back at distance zero ahead of everything else.
	ss := NewSearchService(embedder, nil, st, 10)
	res, err := ss.RetrieveContext(ctx, "Alpha bravo charlie.",
		models.ScopeSet{KnowledgeBaseIDs: []string{"kb1"}}, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.ChunkCount != 2 {
		t.Fatalf("expected both ingested chunks, got %d", res.ChunkCount)
	}
	blocks := strings.Split(res.Context, "\n\n---\n\n")
	if blocks[0] != "[Source: a.txt]\nAlpha bravo charlie." {
		t.Errorf("exact match not ranked first:\n%s", res.Context)
	}
}

func TestRetrieveContextOrdersByDistance(t *testing.T) {
	st := newFakeStore()
	seedChunk(st, "c1", "f1", "kb1", "", "a.txt", "far content", 0, []float32{9, 0, 0, 0})
	seedChunk(st, "c2", "f1", "kb1", "", "a.txt", "near content", 1, []float32{1, 0, 0, 0})
	seedChunk(st, "c3", "f2", "kb2", "", "b.txt", "out of scope", 0, []float32{0, 0, 0, 0})

	// fakeEmbedder puts len(text) in slot 0; "qq" embeds to {2,0,0,0}.
	ss := NewSearchService(&fakeEmbedder{dim: 4}, nil, st, 10)
	res, err := ss.RetrieveContext(context.Background(), "qq",
		models.ScopeSet{KnowledgeBaseIDs: []string{"kb1"}}, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.ChunkCount != 2 {
		t.Fatalf("expected 2 chunks, got %d", res.ChunkCount)
	}
	if strings.Contains(res.Context, "out of scope") {
		t.Error("scope filter leaked")
	}
	nearIdx := strings.Index(res.Context, "near content")
	farIdx := strings.Index(res.Context, "far content")
	if nearIdx < 0 || farIdx < 0 || nearIdx > farIdx {
		t.Errorf("distance order broken:\n%s", res.Context)
	}
}

func TestRetrieveContextAssemblyFormat(t *testing.T) {
	st := newFakeStore()
	seedChunk(st, "c1", "f1", "kb1", "", "doc.pdf", "alpha", 0, []float32{1, 0, 0, 0})
	seedChunk(st, "c2", "f2", "kb1", "", "", "beta", 0, []float32{2, 0, 0, 0})

	ss := NewSearchService(&fakeEmbedder{dim: 4}, nil, st, 10)
	res, err := ss.RetrieveContext(context.Background(), "q",
		models.ScopeSet{KnowledgeBaseIDs: []string{"kb1"}}, false)
	if err != nil {
		t.Fatal(err)
	}

	blocks := strings.Split(res.Context, "\n\n---\n\n")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d:\n%s", len(blocks), res.Context)
	}
	if blocks[0] != "[Source: doc.pdf]\nalpha" {
		t.Errorf("block 0 = %q", blocks[0])
	}
	if blocks[1] != "[Source: Unknown source]\nbeta" {
		t.Errorf("block 1 = %q", blocks[1])
	}
}

func TestRetrieveContextBotFallback(t *testing.T) {
	st := newFakeStore()
	// The bot has a processed document but vector search finds nothing, so
	// the raw retained text backs the answer. Unprocessed documents stay out.
	st.documents["f1"] = &models.Document{
		ID: "f1", BotID: "bot1", Filename: "guide.md",
		Status: models.StatusCompleted, Content: "part one\npart two",
	}
	st.documents["f2"] = &models.Document{
		ID: "f2", BotID: "bot1", Filename: "broken.pdf",
		Status: models.StatusFailed, Content: "unprocessed material",
	}

	ss := NewSearchService(&fakeEmbedder{dim: 4}, nil, &fallbackOnlyStore{fakeStore: st}, 10)

	res, err := ss.RetrieveContext(context.Background(), "q",
		models.ScopeSet{BotID: "bot1"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Context != "[Source: guide.md]\npart one\npart two" {
		t.Errorf("fallback context = %q", res.Context)
	}
	if strings.Contains(res.Context, "unprocessed") {
		t.Error("failed document leaked into fallback")
	}
}

// fallbackOnlyStore forces the vector search to return nothing.
type fallbackOnlyStore struct {
	*fakeStore
}

func (f *fallbackOnlyStore) NearestChunks(_ context.Context, _ []float32, scopes models.ScopeSet, _ int) ([]models.ScoredChunk, error) {
	if scopes.Empty() {
		return nil, errdefs.ErrScopeRequired
	}
	return nil, nil
}

func TestRetrieveContextNoFallbackForKnowledgeBaseScope(t *testing.T) {
	st := newFakeStore()
	st.documents["f1"] = &models.Document{
		ID: "f1", BotID: "bot1", Filename: "guide.md",
		Status: models.StatusCompleted, Content: "bot content",
	}
	ss := NewSearchService(&fakeEmbedder{dim: 4}, nil, &fallbackOnlyStore{fakeStore: st}, 10)

	res, err := ss.RetrieveContext(context.Background(), "q",
		models.ScopeSet{KnowledgeBaseIDs: []string{"kb1"}, BotID: "bot1"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Context != "" {
		t.Errorf("mixed scope should not fall back to raw bot content:\n%s", res.Context)
	}
}

func TestRetrieveContextExpandedKeywordsFeedEmbedding(t *testing.T) {
	st := newFakeStore()
	seedChunk(st, "c1", "f1", "kb1", "", "a.txt", "content", 0, []float32{30, 0, 0, 0})

	sp := &scriptedProvider{output: "alpha, beta"}
	expander := NewKeywordExpander(sp)
	embedder := &recordingEmbedder{fakeEmbedder{dim: 4}, ""}
	ss := NewSearchService(embedder, expander, st, 10)

	res, err := ss.RetrieveContext(context.Background(), "query",
		models.ScopeSet{KnowledgeBaseIDs: []string{"kb1"}}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Keywords) != 3 || res.Keywords[0] != "query" {
		t.Errorf("keywords = %v", res.Keywords)
	}
	if embedder.lastText != "query alpha beta" {
		t.Errorf("embedded text = %q", embedder.lastText)
	}
}

type recordingEmbedder struct {
	fakeEmbedder
	lastText string
}

func (re *recordingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	re.lastText = text
	return re.fakeEmbedder.Embed(ctx, text)
}
