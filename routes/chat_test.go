package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"rag-chatbot-platform/internal/ai"
	"rag-chatbot-platform/services"
)

type stubProvider struct {
	name      string
	answer    string
	fragments []string
	err       error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Generate(_ context.Context, _ ai.GenerationRequest) (string, error) {
	return p.answer, p.err
}

func (p *stubProvider) GenerateStream(_ context.Context, _ ai.GenerationRequest, onFragment ai.FragmentFunc) error {
	if p.err != nil {
		return p.err
	}
	for _, f := range p.fragments {
		if err := onFragment(f); err != nil {
			return err
		}
	}
	return nil
}

func newChatRouter(p *stubProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	gen := services.NewGenerationService(nil, p.name, p)
	r := gin.New()
	r.POST("/api/ai/chat", HandleChat(gen))
	r.POST("/api/ai/chat/stream", HandleChatStream(gen))
	r.GET("/api/ai/providers", HandleProviders(gen, p.name))
	return r
}

func TestChatStreamSSEFraming(t *testing.T) {
	r := newChatRouter(&stubProvider{name: "gemini", fragments: []string{"Hel", "lo"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat/stream",
		strings.NewReader(`{"prompt":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content type = %q", ct)
	}
	want := "data: Hel\n\ndata: lo\n\ndata: [DONE]\n\n"
	if w.Body.String() != want {
		t.Errorf("body = %q, want %q", w.Body.String(), want)
	}
}

func TestChatStreamBlankPromptErrorEvent(t *testing.T) {
	r := newChatRouter(&stubProvider{name: "gemini"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat/stream",
		strings.NewReader(`{"prompt":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.HasPrefix(body, "data: [ERROR] ") {
		t.Errorf("expected error event, got %q", body)
	}
	if strings.Contains(body, "[DONE]") {
		t.Errorf("error stream must not end with [DONE]: %q", body)
	}
}

func TestChatStreamProviderFailureErrorEvent(t *testing.T) {
	r := newChatRouter(&stubProvider{name: "gemini", err: errors.New("model exploded")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat/stream",
		strings.NewReader(`{"prompt":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "data: [ERROR] model exploded\n\n") {
		t.Errorf("body = %q", body)
	}
}

func TestChatBlockingEndpoint(t *testing.T) {
	r := newChatRouter(&stubProvider{name: "gemini", answer: "42"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat",
		strings.NewReader(`{"prompt":"meaning of life"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `"response":"42"`) || !strings.Contains(body, `"provider":"gemini"`) {
		t.Errorf("body = %s", body)
	}
}

func TestChatBlankPromptRejected(t *testing.T) {
	r := newChatRouter(&stubProvider{name: "gemini"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat",
		strings.NewReader(`{"prompt":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestProvidersEndpoint(t *testing.T) {
	r := newChatRouter(&stubProvider{name: "gemini"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/ai/providers", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"default":"gemini"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}
