package models

import "time"

// KnowledgeBase groups documents so multiple bots can share them.
type KnowledgeBase struct {
	ID          string    `bson:"_id" json:"id"`
	OwnerID     string    `bson:"owner_id" json:"owner_id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	FileCount   int       `bson:"file_count" json:"file_count"`
	ChunkCount  int       `bson:"chunk_count" json:"chunk_count"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// Bot is a chat assistant. It may link knowledge bases and also hold
// documents of its own.
type Bot struct {
	ID                 string    `bson:"_id" json:"id"`
	OwnerID            string    `bson:"owner_id" json:"owner_id"`
	Name               string    `bson:"name" json:"name"`
	CustomInstructions string    `bson:"custom_instructions,omitempty" json:"custom_instructions,omitempty"`
	AIProvider         string    `bson:"ai_provider,omitempty" json:"ai_provider,omitempty"`
	KnowledgeBaseIDs   []string  `bson:"knowledge_base_ids,omitempty" json:"knowledge_base_ids,omitempty"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updated_at"`
}
