package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/models"
	"rag-chatbot-platform/services"
	"rag-chatbot-platform/utils"
)

// HandleChat runs retrieval plus blocking generation in one call.
func HandleChat(gen *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", gin.H{"error": err.Error()})
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			utils.RespondWithBadRequest(c, "Prompt cannot be empty", nil)
			return
		}

		result, err := gen.Chat(c.Request.Context(), services.GenerateRequest{
			Prompt:             req.Prompt,
			SystemInstructions: req.SystemInstructions,
			Provider:           req.Provider,
			Scopes:             req.Scope(),
			ExpandKeywords:     req.ShouldExpandKeywords(),
		})
		if err != nil {
			logger.Error("Chat generation failed", "error", err)
			utils.RespondWithPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.ChatResponse{
			Success:    true,
			Response:   result.Answer,
			Provider:   result.Provider,
			ChunkCount: result.ChunkCount,
		})
	}
}

// HandleChatStream streams the generated answer over SSE. Errors after the
// stream has started are delivered in-band as an `[ERROR]` event since the
// status line is already written.
func HandleChatStream(gen *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", gin.H{"error": err.Error()})
			return
		}

		sse, ok := newSSEWriter(c)
		if !ok {
			utils.RespondWithInternalError(c, "Streaming not supported", nil)
			return
		}

		if strings.TrimSpace(req.Prompt) == "" {
			sse.error("Prompt cannot be empty")
			return
		}

		err := gen.ChatStream(c.Request.Context(), services.GenerateRequest{
			Prompt:             req.Prompt,
			SystemInstructions: req.SystemInstructions,
			Provider:           req.Provider,
			Scopes:             req.Scope(),
			ExpandKeywords:     req.ShouldExpandKeywords(),
		}, sse.fragment)
		if err != nil {
			logger.Error("Chat stream failed", "error", err)
			sse.error(err.Error())
			return
		}

		sse.done()
	}
}

// HandleProviders lists the registered generation providers.
func HandleProviders(gen *services.GenerationService, defaultProvider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"providers": gen.Providers(),
			"default":   defaultProvider,
		})
	}
}
