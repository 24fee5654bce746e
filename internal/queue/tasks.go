package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/services"
)

const TaskIngestFile = "file:ingest"

type IngestFilePayload struct {
	FileID          string `json:"file_id"`
	Filename        string `json:"filename"`
	FileType        string `json:"file_type"`
	KnowledgeBaseID string `json:"knowledge_base_id,omitempty"`
	BotID           string `json:"bot_id,omitempty"`
	FilePath        string `json:"file_path"`
}

// NewIngestFileTask builds the ingestion task for an uploaded file. The file
// content stays on disk; the payload only carries its path.
func NewIngestFileTask(p IngestFilePayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestFile,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// TaskProcessor executes queued work on the worker process.
type TaskProcessor struct {
	ingestion *services.IngestionService
}

func NewTaskProcessor(ingestion *services.IngestionService) *TaskProcessor {
	return &TaskProcessor{ingestion: ingestion}
}

// HandleIngestFile runs the full ingestion pipeline for an uploaded file and
// removes the temp file afterwards. Pipeline verdicts (empty file, failed
// embeddings) are final: the document is marked failed and the task is not
// retried.
func (p *TaskProcessor) HandleIngestFile(ctx context.Context, t *asynq.Task) error {
	var payload IngestFilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal ingest payload: %v: %w", err, asynq.SkipRetry)
	}

	logger.Info("Processing file ingestion task",
		"file_id", payload.FileID, "filename", payload.Filename)

	content, err := os.ReadFile(payload.FilePath)
	if err != nil {
		return fmt.Errorf("read uploaded file: %w", err)
	}

	chunks, _, err := p.ingestion.Ingest(ctx, services.IngestFile{
		DocumentID:      payload.FileID,
		Filename:        payload.Filename,
		FileType:        payload.FileType,
		KnowledgeBaseID: payload.KnowledgeBaseID,
		BotID:           payload.BotID,
		Content:         content,
	})
	if err != nil {
		logger.Error("File ingestion failed",
			"file_id", payload.FileID, "error", err)
		return fmt.Errorf("ingest file %s: %v: %w", payload.FileID, err, asynq.SkipRetry)
	}

	if err := os.Remove(payload.FilePath); err != nil {
		logger.Warn("Could not remove processed upload", "path", payload.FilePath, "error", err)
	}

	logger.Info("File ingestion task finished",
		"file_id", payload.FileID, "chunks", chunks)
	return nil
}
