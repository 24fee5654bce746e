package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// sseWriter frames chat fragments for EventSource consumers. The wire format
// is `data: <fragment>\n\n` per fragment, with `[DONE]` and `[ERROR] <msg>`
// as terminal events the frontend switches on.
type sseWriter struct {
	w       gin.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(c *gin.Context) (*sseWriter, bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		return nil, false
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	return &sseWriter{w: c.Writer, flusher: flusher}, true
}

func (s *sseWriter) fragment(text string) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", text); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) done() {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}

func (s *sseWriter) error(message string) {
	fmt.Fprintf(s.w, "data: [ERROR] %s\n\n", message)
	s.flusher.Flush()
}
