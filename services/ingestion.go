package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"rag-chatbot-platform/internal/ai"
	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/internal/store"
	"rag-chatbot-platform/internal/telemetry"
	"rag-chatbot-platform/models"
)

// IngestFile describes one upload to process. Exactly one of KnowledgeBaseID
// and BotID is set, matching the parent document.
type IngestFile struct {
	DocumentID      string
	Filename        string
	FileType        string
	KnowledgeBaseID string
	BotID           string
	Content         []byte
}

// IngestionService runs the extract, chunk, embed, persist pipeline. A
// document is ingested by at most one pipeline run at a time; callers enforce
// that by routing each upload through a single task.
type IngestionService struct {
	extractor *Extractor
	chunker   *Chunker
	embedder  ai.Embedder
	store     store.DocumentStore
	batchSize int
}

func NewIngestionService(extractor *Extractor, chunker *Chunker, embedder ai.Embedder, docStore store.DocumentStore, batchSize int) *IngestionService {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &IngestionService{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		store:     docStore,
		batchSize: batchSize,
	}
}

// Ingest processes the file and returns the number of chunks persisted plus
// the file size. Empty extraction results mark the document failed but return
// a nil error; only infrastructure failures propagate.
func (is *IngestionService) Ingest(ctx context.Context, req IngestFile) (int, int64, error) {
	tracer := otel.Tracer("ingestion")
	ctx, span := tracer.Start(ctx, "ingestion.process_file")
	defer span.End()
	span.SetAttributes(
		attribute.String("file.id", req.DocumentID),
		attribute.String("file.type", req.FileType),
		attribute.Int("file.bytes", len(req.Content)),
	)

	fileSize := int64(len(req.Content))
	start := time.Now()

	text, err := is.extractor.Extract(req.Content, req.FileType)
	if err != nil {
		is.markFailed(ctx, req.DocumentID, fmt.Sprintf("extraction failed: %v", err))
		return 0, fileSize, err
	}
	if strings.TrimSpace(text) == "" {
		logger.Warn("No text extracted from file", "file_id", req.DocumentID, "filename", req.Filename)
		is.markFailed(ctx, req.DocumentID, "no text could be extracted")
		return 0, fileSize, nil
	}

	// Retain the extracted text for the bot raw-content fallback. Losing it
	// only degrades that fallback, so failures are not fatal.
	if err := is.store.SetDocumentContent(ctx, req.DocumentID, text); err != nil {
		logger.Warn("Failed to retain extracted text", "file_id", req.DocumentID, "error", err)
	}

	texts := is.chunker.Split(text)
	if len(texts) == 0 {
		is.markFailed(ctx, req.DocumentID, "no chunks produced")
		return 0, fileSize, nil
	}
	span.SetAttributes(attribute.Int("file.chunks", len(texts)))

	embeddings, err := is.embedBatches(ctx, texts)
	if err != nil {
		is.markFailed(ctx, req.DocumentID, fmt.Sprintf("embedding failed: %v", err))
		return 0, fileSize, err
	}

	now := time.Now().UTC()
	var chunks []models.Chunk
	for i, emb := range embeddings {
		if emb == nil {
			continue
		}
		chunks = append(chunks, models.Chunk{
			ID:              uuid.NewString(),
			FileID:          req.DocumentID,
			KnowledgeBaseID: req.KnowledgeBaseID,
			BotID:           req.BotID,
			Filename:        req.Filename,
			Content:         texts[i],
			ChunkIndex:      i,
			TotalChunks:     len(texts),
			Embedding:       emb,
			CreatedAt:       now,
		})
	}

	if len(chunks) == 0 {
		is.markFailed(ctx, req.DocumentID, "embedding generation produced no chunks")
		return 0, fileSize, nil
	}

	if err := is.store.InsertChunks(ctx, chunks); err != nil {
		is.markFailed(ctx, req.DocumentID, fmt.Sprintf("persisting chunks failed: %v", err))
		return 0, fileSize, err
	}
	if err := is.store.UpdateDocumentStatus(ctx, req.DocumentID, models.StatusCompleted, "", len(chunks)); err != nil {
		return len(chunks), fileSize, err
	}
	if req.KnowledgeBaseID != "" {
		if err := is.store.AdjustScopeCounters(ctx, req.KnowledgeBaseID, 1, len(chunks)); err != nil {
			logger.Error("Failed to adjust knowledge base counters",
				"knowledge_base_id", req.KnowledgeBaseID, "error", err)
		}
	}

	telemetry.RecordIngestion(ctx, req.FileType, len(chunks), time.Since(start).Seconds())
	logger.Info("File ingested",
		"file_id", req.DocumentID,
		"filename", req.Filename,
		"chunks", len(chunks),
		"dropped", len(texts)-len(chunks),
		"duration", time.Since(start).String())
	return len(chunks), fileSize, nil
}

// embedBatches embeds texts in fixed-size sub-batches concurrently. A failed
// or miscounted sub-batch is dropped with a warning; its slots stay nil so
// surviving chunks keep their original indices.
func (is *IngestionService) embedBatches(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for offset := 0; offset < len(texts); offset += is.batchSize {
		offset := offset
		end := offset + is.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[offset:end]

		g.Go(func() error {
			result, err := is.embedder.EmbedBatch(ctx, batch)
			if err != nil {
				logger.Warn("Embedding sub-batch failed, skipping",
					"offset", offset, "size", len(batch), "error", err)
				telemetry.RecordSubBatchDrop(ctx, "provider_error")
				return nil
			}
			if len(result) != len(batch) {
				logger.Warn("Embedding sub-batch count mismatch, skipping",
					"offset", offset, "want", len(batch), "got", len(result))
				telemetry.RecordSubBatchDrop(ctx, "count_mismatch")
				return nil
			}
			mu.Lock()
			copy(embeddings[offset:end], result)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (is *IngestionService) markFailed(ctx context.Context, documentID, message string) {
	if err := is.store.UpdateDocumentStatus(ctx, documentID, models.StatusFailed, message, 0); err != nil {
		logger.Error("Failed to mark document failed", "file_id", documentID, "error", err)
	}
}
