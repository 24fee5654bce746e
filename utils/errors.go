package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-chatbot-platform/internal/errdefs"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithUnauthorized sends a 401 Unauthorized error
func RespondWithUnauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, "unauthorized", message, nil)
}

// RespondWithForbidden sends a 403 Forbidden error
func RespondWithForbidden(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden, "forbidden", message, nil)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithPipelineError maps pipeline sentinel errors onto HTTP responses
// so handlers stay free of status-code switches.
func RespondWithPipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errdefs.ErrEmptyInput):
		RespondWithBadRequest(c, "Prompt cannot be empty", nil)
	case errors.Is(err, errdefs.ErrScopeRequired):
		RespondWithBadRequest(c, "At least one knowledge base or bot scope is required", nil)
	case errors.Is(err, errdefs.ErrUnsupportedType):
		RespondWithError(c, http.StatusBadRequest, "invalid_file_type",
			"File type is not supported", gin.H{"supported": []string{"pdf", "txt", "md", "docx"}})
	case errors.Is(err, errdefs.ErrProviderUnavailable):
		RespondWithError(c, http.StatusServiceUnavailable, "provider_unavailable",
			"AI provider is not available", nil)
	case errors.Is(err, errdefs.ErrProviderTimeout):
		RespondWithError(c, http.StatusGatewayTimeout, "provider_timeout",
			"AI provider timed out", nil)
	default:
		RespondWithInternalError(c, "Request failed", gin.H{"error": err.Error()})
	}
}
