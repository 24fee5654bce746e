package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rag-chatbot-platform/internal/errdefs"
	"rag-chatbot-platform/models"
)

const (
	documentsCollection      = "files"
	chunksCollection         = "chunks"
	knowledgeBasesCollection = "knowledge_bases"
	botsCollection           = "bots"
)

// MongoStore implements DocumentStore on MongoDB. Vector scoring happens
// application-side: chunks are prefiltered by scope, then ranked by L2
// distance in memory.
type MongoStore struct {
	db        *mongo.Database
	vectorDim int
}

func NewMongoStore(db *mongo.Database, vectorDim int) *MongoStore {
	return &MongoStore{db: db, vectorDim: vectorDim}
}

func (s *MongoStore) InsertDocument(ctx context.Context, doc *models.Document) error {
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	_, err := s.db.Collection(documentsCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *MongoStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.Collection(documentsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("document %s not found: %w", id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// statusUpdate builds the update for a status transition. A transition
// without an error message clears any earlier failure so a retried document
// never reports completed with a stale error.
func statusUpdate(status, errorMessage string, chunkCount int) bson.M {
	set := bson.M{
		"status":      status,
		"chunk_count": chunkCount,
	}
	if errorMessage != "" {
		set["error_message"] = errorMessage
	}
	if status == models.StatusCompleted || status == models.StatusFailed {
		set["processed_at"] = time.Now().UTC()
	}

	update := bson.M{"$set": set}
	if errorMessage == "" {
		update["$unset"] = bson.M{"error_message": ""}
	}
	return update
}

func (s *MongoStore) UpdateDocumentStatus(ctx context.Context, id, status, errorMessage string, chunkCount int) error {
	res, err := s.db.Collection(documentsCollection).UpdateOne(ctx,
		bson.M{"_id": id}, statusUpdate(status, errorMessage, chunkCount))
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("document %s not found", id)
	}
	return nil
}

// SetDocumentContent retains the extracted text on the document record so
// bot-scoped fallback answers do not depend on chunk state.
func (s *MongoStore) SetDocumentContent(ctx context.Context, id, content string) error {
	res, err := s.db.Collection(documentsCollection).UpdateOne(ctx,
		bson.M{"_id": id}, bson.M{"$set": bson.M{"content": content}})
	if err != nil {
		return fmt.Errorf("set document content: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("document %s not found", id)
	}
	return nil
}

// DeleteDocument removes the document, its chunks, and decrements the
// knowledge base counters in one pass.
func (s *MongoStore) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	chunkRes, err := s.db.Collection(chunksCollection).DeleteMany(ctx, bson.M{"file_id": id})
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	if _, err := s.db.Collection(documentsCollection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if fileDelta, chunkDelta, ok := deleteCounterDeltas(doc, int(chunkRes.DeletedCount)); ok {
		if err := s.AdjustScopeCounters(ctx, doc.KnowledgeBaseID, fileDelta, chunkDelta); err != nil {
			return err
		}
	}
	return nil
}

// deleteCounterDeltas reports the knowledge base counter adjustment for a
// deleted document. Counters only ever count completed documents, so deleting
// one that never finished processing must not decrement them.
func deleteCounterDeltas(doc *models.Document, deletedChunks int) (fileDelta, chunkDelta int, ok bool) {
	if doc.KnowledgeBaseID == "" || doc.Status != models.StatusCompleted {
		return 0, 0, false
	}
	return -1, -deletedChunks, true
}

// InsertChunks validates embedding dimensions before writing. A mixed-dim
// batch is rejected whole so partial documents never become searchable.
func (s *MongoStore) InsertChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) != s.vectorDim {
			return fmt.Errorf("chunk %d has embedding dim %d, want %d: %w",
				c.ChunkIndex, len(c.Embedding), s.vectorDim, errdefs.ErrEmbeddingBatchMismatch)
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}
		docs = append(docs, c)
	}

	_, err := s.db.Collection(chunksCollection).InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

// scopeFilter builds the OR filter for a scope set. Callers must reject empty
// scopes first; an empty filter would match everything.
func scopeFilter(scopes models.ScopeSet) bson.M {
	var or []bson.M
	if len(scopes.KnowledgeBaseIDs) > 0 {
		or = append(or, bson.M{"knowledge_base_id": bson.M{"$in": scopes.KnowledgeBaseIDs}})
	}
	if scopes.BotID != "" {
		or = append(or, bson.M{"bot_id": scopes.BotID})
	}
	return bson.M{"$or": or}
}

func (s *MongoStore) NearestChunks(ctx context.Context, embedding []float32, scopes models.ScopeSet, limit int) ([]models.ScoredChunk, error) {
	if scopes.Empty() {
		return nil, errdefs.ErrScopeRequired
	}
	if len(embedding) != s.vectorDim {
		return nil, fmt.Errorf("query embedding dim %d, want %d: %w",
			len(embedding), s.vectorDim, errdefs.ErrEmbeddingBatchMismatch)
	}

	cursor, err := s.db.Collection(chunksCollection).Find(ctx, scopeFilter(scopes))
	if err != nil {
		return nil, fmt.Errorf("find chunks: %w", err)
	}
	defer cursor.Close(ctx)

	var scored []models.ScoredChunk
	for cursor.Next(ctx) {
		var c models.Chunk
		if err := cursor.Decode(&c); err != nil {
			return nil, fmt.Errorf("decode chunk: %w", err)
		}
		if len(c.Embedding) != s.vectorDim {
			continue
		}
		scored = append(scored, models.ScoredChunk{
			Chunk:    c,
			Distance: L2Distance(embedding, c.Embedding),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// BotDocuments returns a bot's processed documents with their retained text,
// used as the raw fallback when vector search yields nothing for a
// single-bot scope.
func (s *MongoStore) BotDocuments(ctx context.Context, botID string) ([]models.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: 1}})

	cursor, err := s.db.Collection(documentsCollection).Find(ctx,
		bson.M{"bot_id": botID, "status": models.StatusCompleted}, opts)
	if err != nil {
		return nil, fmt.Errorf("find bot documents: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode bot documents: %w", err)
	}
	return docs, nil
}

func (s *MongoStore) GetBot(ctx context.Context, id string) (*models.Bot, error) {
	var bot models.Bot
	err := s.db.Collection(botsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&bot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("bot %s not found: %w", id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get bot: %w", err)
	}
	return &bot, nil
}

func (s *MongoStore) GetKnowledgeBase(ctx context.Context, id string) (*models.KnowledgeBase, error) {
	var kb models.KnowledgeBase
	err := s.db.Collection(knowledgeBasesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&kb)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("knowledge base %s not found: %w", id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get knowledge base: %w", err)
	}
	return &kb, nil
}

// clampedAdd builds a pipeline expression adding delta to field, floored at
// zero so concurrent deletes can never drive a counter negative.
func clampedAdd(field string, delta int) bson.M {
	return bson.M{"$max": bson.A{0, bson.M{
		"$add": bson.A{bson.M{"$ifNull": bson.A{field, 0}}, delta},
	}}}
}

func (s *MongoStore) AdjustScopeCounters(ctx context.Context, knowledgeBaseID string, fileDelta, chunkDelta int) error {
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"file_count":  clampedAdd("$file_count", fileDelta),
		"chunk_count": clampedAdd("$chunk_count", chunkDelta),
		"updated_at":  "$$NOW",
	}}}}

	_, err := s.db.Collection(knowledgeBasesCollection).UpdateOne(ctx,
		bson.M{"_id": knowledgeBaseID}, update)
	if err != nil {
		return fmt.Errorf("adjust knowledge base counters: %w", err)
	}
	return nil
}
