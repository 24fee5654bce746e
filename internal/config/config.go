package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	// JWT Token Secret
	AccessSecret string

	// Gemini
	GeminiAPIKey     string
	GeminiModel      string
	GoogleEmbedModel string

	// OpenRouter (OpenAI-compatible alternative provider)
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string

	// Default AI provider: "gemini" or "openrouter"
	DefaultAIProvider string

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Search
	MaxSearchResults   int
	EmbeddingCacheSize int
	EmbedBatchSize     int
	VectorDim          int

	// Provider call budget (seconds)
	ProviderTimeout int

	// Upload handling
	MaxFileSize         int64
	AllowedTypes        []string
	FileStorageDir      string
	SyncProcessingLimit int64

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/rag_chatbot"),
		DBName:      getEnv("DB_NAME", "rag_chatbot"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),

		AccessSecret: getEnv("ACCESS_SECRET", ""),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		GoogleEmbedModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),

		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", "tngtech/deepseek-r1t2-chimera:free"),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),

		DefaultAIProvider: getEnv("DEFAULT_AI_PROVIDER", "gemini"),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		MaxSearchResults:   getEnvInt("MAX_SEARCH_RESULTS", 10),
		EmbeddingCacheSize: getEnvInt("EMBEDDING_CACHE_SIZE", 500),
		EmbedBatchSize:     getEnvInt("EMBED_BATCH_SIZE", 50),
		VectorDim:          getEnvInt("VECTOR_DIM", 768),

		ProviderTimeout: getEnvInt("PROVIDER_TIMEOUT", 60),

		MaxFileSize:         getEnvInt64("MAX_FILE_SIZE", 104857600), // 100MB
		AllowedTypes:        strings.Split(getEnv("ALLOWED_FILE_TYPES", "pdf,txt,md,docx"), ","),
		FileStorageDir:      getEnv("FILE_STORAGE_DIR", "./storage"),
		SyncProcessingLimit: getEnvInt64("SYNC_PROCESSING_LIMIT", 20971520), // 20MB processed in-request

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),
	}

	// Validate required fields
	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("ACCESS_SECRET is required - set it in .env file")
	}

	// Embeddings always go through the Google embedding model, so the Gemini
	// key is required even when OpenRouter handles generation.
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - embeddings use %s", cfg.GoogleEmbedModel)
	}

	return cfg, nil
}

// AvailableProviders lists providers with credentials configured.
func (c *Config) AvailableProviders() []string {
	providers := []string{}
	if c.GeminiAPIKey != "" {
		providers = append(providers, "gemini")
	}
	if c.OpenRouterAPIKey != "" {
		providers = append(providers, "openrouter")
	}
	return providers
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
