package models

import "time"

// Document processing status constants
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Document is an uploaded file attached to a knowledge base or directly to a
// bot. Exactly one of KnowledgeBaseID / BotID is set.
type Document struct {
	ID              string     `bson:"_id" json:"id"`
	KnowledgeBaseID string     `bson:"knowledge_base_id,omitempty" json:"knowledge_base_id,omitempty"`
	BotID           string     `bson:"bot_id,omitempty" json:"bot_id,omitempty"`
	Filename        string     `bson:"filename" json:"filename"`
	FileType        string     `bson:"file_type" json:"file_type"`
	FileSize        int64      `bson:"file_size" json:"file_size"`
	Content         string     `bson:"content,omitempty" json:"-"`
	Status          string     `bson:"status" json:"status"`
	ErrorMessage    string     `bson:"error_message,omitempty" json:"error_message,omitempty"`
	ChunkCount      int        `bson:"chunk_count" json:"chunk_count"`
	UploadedAt      time.Time  `bson:"uploaded_at" json:"uploaded_at"`
	ProcessedAt     *time.Time `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
}

// Chunk is one embedded slice of a document. Scope fields are denormalized
// from the parent document so searches filter without a join.
type Chunk struct {
	ID              string    `bson:"_id" json:"id"`
	FileID          string    `bson:"file_id" json:"file_id"`
	KnowledgeBaseID string    `bson:"knowledge_base_id,omitempty" json:"knowledge_base_id,omitempty"`
	BotID           string    `bson:"bot_id,omitempty" json:"bot_id,omitempty"`
	Filename        string    `bson:"filename" json:"filename"`
	Content         string    `bson:"content" json:"content"`
	ChunkIndex      int       `bson:"chunk_index" json:"chunk_index"`
	TotalChunks     int       `bson:"total_chunks" json:"total_chunks"`
	Embedding       []float32 `bson:"embedding" json:"-"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

// ScoredChunk pairs a chunk with its L2 distance to the query embedding.
// Lower distance means more relevant.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float64
}

// ScopeSet names the knowledge reachable by one retrieval request. An empty
// scope set must never widen into a global search.
type ScopeSet struct {
	KnowledgeBaseIDs []string
	BotID            string
}

// Empty reports whether the scope set grants access to nothing.
func (s ScopeSet) Empty() bool {
	return len(s.KnowledgeBaseIDs) == 0 && s.BotID == ""
}
