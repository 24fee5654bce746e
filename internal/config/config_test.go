package config

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_SECRET", "test-secret")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("OPENROUTER_API_KEY", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 200 {
		t.Errorf("chunking defaults = %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.EmbedBatchSize != 50 || cfg.MaxSearchResults != 10 {
		t.Errorf("pipeline defaults = %d/%d", cfg.EmbedBatchSize, cfg.MaxSearchResults)
	}
	if cfg.DefaultAIProvider != "gemini" {
		t.Errorf("default provider = %s", cfg.DefaultAIProvider)
	}
}

func TestLoadConfigRequiresAccessSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without ACCESS_SECRET")
	}
}

func TestLoadConfigRequiresGeminiKeyEvenWithOpenRouter(t *testing.T) {
	// OpenRouter alone cannot run the platform: ingestion and search embed
	// through the Google embedding model.
	setRequiredEnv(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected error without GEMINI_API_KEY")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("error = %v", err)
	}
}

func TestAvailableProviders(t *testing.T) {
	cfg := &Config{GeminiAPIKey: "g", OpenRouterAPIKey: "o"}
	got := cfg.AvailableProviders()
	if len(got) != 2 || got[0] != "gemini" || got[1] != "openrouter" {
		t.Errorf("providers = %v", got)
	}

	cfg = &Config{GeminiAPIKey: "g"}
	got = cfg.AvailableProviders()
	if len(got) != 1 || got[0] != "gemini" {
		t.Errorf("providers = %v", got)
	}
}
