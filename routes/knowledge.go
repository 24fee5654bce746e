package routes

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"rag-chatbot-platform/internal/config"
	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/internal/queue"
	"rag-chatbot-platform/internal/store"
	"rag-chatbot-platform/models"
	"rag-chatbot-platform/services"
	"rag-chatbot-platform/utils"
)

// HandleFileUpload accepts a document for a knowledge base or a bot. Small
// files are ingested inline; larger ones are parked on disk and processed by
// the worker.
func HandleFileUpload(cfg *config.Config, docStore store.DocumentStore, ingestion *services.IngestionService, queueClient *asynq.Client) gin.HandlerFunc {
	extractor := services.NewExtractor()

	return func(c *gin.Context) {
		knowledgeBaseID := c.PostForm("knowledge_base_id")
		botID := c.PostForm("bot_id")
		if (knowledgeBaseID == "") == (botID == "") {
			utils.RespondWithBadRequest(c, "Exactly one of knowledge_base_id or bot_id is required", nil)
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "no_file", "No file provided", nil)
			return
		}
		defer file.Close()

		if header.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large",
				"File size exceeds maximum limit", gin.H{"max_bytes": cfg.MaxFileSize})
			return
		}

		fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
		if !extractor.Supported(fileType) {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_file_type",
				"File type is not supported",
				gin.H{"supported": services.SupportedFileTypes})
			return
		}

		fileID := uuid.NewString()
		doc := &models.Document{
			ID:              fileID,
			KnowledgeBaseID: knowledgeBaseID,
			BotID:           botID,
			Filename:        header.Filename,
			FileType:        fileType,
			FileSize:        header.Size,
			Status:          models.StatusProcessing,
			UploadedAt:      time.Now().UTC(),
		}
		if err := docStore.InsertDocument(c.Request.Context(), doc); err != nil {
			logger.Error("Failed to create document record", "error", err)
			utils.RespondWithInternalError(c, "Failed to create document record", nil)
			return
		}

		if header.Size <= cfg.SyncProcessingLimit {
			ingestInline(c, docStore, ingestion, file, doc)
			return
		}
		enqueueIngestion(c, cfg, docStore, queueClient, file, doc)
	}
}

func ingestInline(c *gin.Context, docStore store.DocumentStore, ingestion *services.IngestionService, file io.Reader, doc *models.Document) {
	content, err := io.ReadAll(file)
	if err != nil {
		utils.RespondWithInternalError(c, "Failed to read file", nil)
		return
	}

	chunks, _, err := ingestion.Ingest(c.Request.Context(), services.IngestFile{
		DocumentID:      doc.ID,
		Filename:        doc.Filename,
		FileType:        doc.FileType,
		KnowledgeBaseID: doc.KnowledgeBaseID,
		BotID:           doc.BotID,
		Content:         content,
	})
	if err != nil {
		utils.RespondWithPipelineError(c, err)
		return
	}

	current, getErr := docStore.GetDocument(c.Request.Context(), doc.ID)
	status := models.StatusCompleted
	message := "File processed"
	if getErr == nil {
		status = current.Status
		if current.ErrorMessage != "" {
			message = current.ErrorMessage
		}
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		ID:         doc.ID,
		Filename:   doc.Filename,
		Status:     status,
		ChunkCount: chunks,
		Message:    message,
	})
}

func enqueueIngestion(c *gin.Context, cfg *config.Config, docStore store.DocumentStore, queueClient *asynq.Client, file io.Reader, doc *models.Document) {
	uploadDir := filepath.Join(cfg.FileStorageDir, "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		utils.RespondWithInternalError(c, "Failed to prepare upload storage", nil)
		return
	}

	filePath := filepath.Join(uploadDir, fmt.Sprintf("%s.%s", doc.ID, doc.FileType))
	dst, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		utils.RespondWithInternalError(c, "Failed to store file", nil)
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, io.LimitReader(file, cfg.MaxFileSize)); err != nil {
		os.Remove(filePath)
		utils.RespondWithInternalError(c, "Failed to store file", nil)
		return
	}

	task, err := queue.NewIngestFileTask(queue.IngestFilePayload{
		FileID:          doc.ID,
		Filename:        doc.Filename,
		FileType:        doc.FileType,
		KnowledgeBaseID: doc.KnowledgeBaseID,
		BotID:           doc.BotID,
		FilePath:        filePath,
	})
	if err != nil {
		cleanupFailedEnqueue(c, docStore, doc.ID, filePath)
		return
	}

	info, err := queueClient.Enqueue(task)
	if err != nil {
		cleanupFailedEnqueue(c, docStore, doc.ID, filePath)
		return
	}

	c.JSON(http.StatusAccepted, models.UploadResponse{
		ID:       doc.ID,
		Filename: doc.Filename,
		Status:   models.StatusProcessing,
		TaskID:   info.ID,
		Message:  "File accepted for processing",
	})
}

func cleanupFailedEnqueue(c *gin.Context, docStore store.DocumentStore, fileID, filePath string) {
	os.Remove(filePath)
	if err := docStore.DeleteDocument(c.Request.Context(), fileID); err != nil {
		logger.Error("Failed to clean up document after enqueue failure",
			"file_id", fileID, "error", err)
	}
	utils.RespondWithError(c, http.StatusInternalServerError, "queue_error",
		"Failed to enqueue processing task", nil)
}

// HandleFileStatus reports processing state for one document.
func HandleFileStatus(docStore store.DocumentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := docStore.GetDocument(c.Request.Context(), c.Param("fileID"))
		if err != nil {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

// HandleFileDelete removes a document, its chunks, and updates knowledge
// base counters.
func HandleFileDelete(docStore store.DocumentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileID := c.Param("fileID")
		if err := docStore.DeleteDocument(c.Request.Context(), fileID); err != nil {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "id": fileID})
	}
}
