package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"rag-chatbot-platform/internal/ai"
	"rag-chatbot-platform/internal/config"
	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/internal/store"
	"rag-chatbot-platform/internal/telemetry"
	"rag-chatbot-platform/middleware"
	"rag-chatbot-platform/routes"
	"rag-chatbot-platform/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("rag-chatbot-platform")
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	} else {
		defer shutdownTracer()
	}
	if _, err := telemetry.InitMetrics(); err != nil {
		log.Printf("Metrics disabled: %v", err)
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	docStore := store.NewMongoStore(mongoClient.Database(cfg.DBName), cfg.VectorDim)

	baseEmbedder, err := ai.NewGeminiEmbedder(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer baseEmbedder.Close()
	embedder := ai.NewCachedEmbedder(baseEmbedder, cfg.EmbeddingCacheSize)

	providers, defaultProvider := buildProviders(cfg)
	if len(providers) == 0 {
		log.Fatal("No AI providers configured")
	}

	expander := services.NewKeywordExpander(providers[0])
	search := services.NewSearchService(embedder, expander, docStore, cfg.MaxSearchResults)
	generation := services.NewGenerationService(search, defaultProvider, providers...)

	chunker := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	ingestion := services.NewIngestionService(services.NewExtractor(), chunker, embedder, docStore, cfg.EmbedBatchSize)

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	auth := middleware.NewAuthMiddleware(cfg)
	api := router.Group("/api", auth.RequireAuth(), middleware.EnrichTrace())
	{
		api.POST("/files/upload", routes.HandleFileUpload(cfg, docStore, ingestion, queueClient))
		api.GET("/files/:fileID/status", routes.HandleFileStatus(docStore))
		api.DELETE("/files/:fileID", routes.HandleFileDelete(docStore))

		api.POST("/ai/chat", routes.HandleChat(generation))
		api.POST("/ai/chat/stream", routes.HandleChatStream(generation))
		api.GET("/ai/providers", routes.HandleProviders(generation, defaultProvider))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// buildProviders constructs every provider with credentials configured. The
// default falls back to whichever provider is available when the configured
// one has no key.
func buildProviders(cfg *config.Config) ([]ai.Provider, string) {
	timeout := time.Duration(cfg.ProviderTimeout) * time.Second
	var providers []ai.Provider

	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel, timeout)
		if err != nil {
			log.Printf("Gemini provider unavailable: %v", err)
		} else {
			providers = append(providers, gemini)
		}
	}
	if cfg.OpenRouterAPIKey != "" {
		openrouter, err := ai.NewOpenRouterProvider(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL, timeout)
		if err != nil {
			log.Printf("OpenRouter provider unavailable: %v", err)
		} else {
			providers = append(providers, openrouter)
		}
	}

	defaultProvider := cfg.DefaultAIProvider
	available := false
	for _, p := range providers {
		if p.Name() == defaultProvider {
			available = true
			break
		}
	}
	if !available && len(providers) > 0 {
		defaultProvider = providers[0].Name()
	}
	return providers, defaultProvider
}
