package store

import (
	"context"
	"math"

	"rag-chatbot-platform/models"
)

// DocumentStore persists documents, their chunks, and the grouping records
// they hang off. Implementations must keep chunk scope fields consistent with
// the parent document.
type DocumentStore interface {
	InsertDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	UpdateDocumentStatus(ctx context.Context, id, status, errorMessage string, chunkCount int) error
	SetDocumentContent(ctx context.Context, id, content string) error
	DeleteDocument(ctx context.Context, id string) error

	InsertChunks(ctx context.Context, chunks []models.Chunk) error
	NearestChunks(ctx context.Context, embedding []float32, scopes models.ScopeSet, limit int) ([]models.ScoredChunk, error)
	BotDocuments(ctx context.Context, botID string) ([]models.Document, error)

	GetBot(ctx context.Context, id string) (*models.Bot, error)
	GetKnowledgeBase(ctx context.Context, id string) (*models.KnowledgeBase, error)
	AdjustScopeCounters(ctx context.Context, knowledgeBaseID string, fileDelta, chunkDelta int) error
}

// L2Distance computes the Euclidean distance between two equal-length
// vectors.
func L2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
