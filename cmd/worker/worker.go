package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"rag-chatbot-platform/internal/ai"
	"rag-chatbot-platform/internal/config"
	"rag-chatbot-platform/internal/logger"
	"rag-chatbot-platform/internal/queue"
	"rag-chatbot-platform/internal/store"
	"rag-chatbot-platform/internal/telemetry"
	"rag-chatbot-platform/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("rag-chatbot-worker")
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

	docStore := store.NewMongoStore(mongoClient.Database(cfg.DBName), cfg.VectorDim)

	baseEmbedder, err := ai.NewGeminiEmbedder(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer baseEmbedder.Close()
	embedder := ai.NewCachedEmbedder(baseEmbedder, cfg.EmbeddingCacheSize)

	chunker := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	ingestion := services.NewIngestionService(services.NewExtractor(), chunker, embedder, docStore, cfg.EmbedBatchSize)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task failed: %s, error: %v", task.Type(), err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(ingestion)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestFile, processor.HandleIngestFile)

	log.Printf("Starting worker, redis=%s", redisOpt.Addr)
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
