package models

// ChatRequest is the payload for both blocking and streaming chat endpoints.
type ChatRequest struct {
	Prompt             string   `json:"prompt" binding:"required"`
	SystemInstructions string   `json:"system_instructions,omitempty"`
	Provider           string   `json:"provider,omitempty"`
	KnowledgeBaseIDs   []string `json:"knowledge_base_ids,omitempty"`
	BotID              string   `json:"bot_id,omitempty"`
	ExpandKeywords     *bool    `json:"expand_keywords,omitempty"`
}

// Scope derives the retrieval scope from the request.
func (r ChatRequest) Scope() ScopeSet {
	return ScopeSet{KnowledgeBaseIDs: r.KnowledgeBaseIDs, BotID: r.BotID}
}

// ShouldExpandKeywords defaults to true when the field is omitted.
func (r ChatRequest) ShouldExpandKeywords() bool {
	return r.ExpandKeywords == nil || *r.ExpandKeywords
}

// ChatResponse is the blocking chat reply.
type ChatResponse struct {
	Success    bool   `json:"success"`
	Response   string `json:"response"`
	Provider   string `json:"provider"`
	ChunkCount int    `json:"chunk_count"`
}

// UploadResponse is returned after a document upload is accepted.
type UploadResponse struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	TaskID     string `json:"task_id,omitempty"`
	Message    string `json:"message"`
}
