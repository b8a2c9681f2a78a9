package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"form-query-platform/internal/ai"
	"form-query-platform/internal/config"
	"form-query-platform/internal/logger"
	"form-query-platform/internal/telemetry"
	"form-query-platform/middleware"
	"form-query-platform/routes"
	"form-query-platform/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Initialize tracing and metrics
	shutdownTracer, err := telemetry.InitTracer("form-query-platform")
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
		shutdownTracer = func() {}
	}
	defer shutdownTracer()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Connect to Redis
	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	// Gemini provider client, constructed once and injected everywhere
	geminiClient, err := ai.NewGeminiClient(cfg, metrics)
	if err != nil {
		log.Fatal("Failed to create Gemini client:", err)
	}
	defer geminiClient.Close()

	// Provider adapters
	db := mongoClient.Database(cfg.DBName)
	cache := services.NewRedisCache(redisClient)
	searchIndex := services.NewMongoSearchIndex(
		db.Collection(cfg.ChunksCollection),
		cfg.SearchIndexName,
		cfg.VectorIndexName,
		cfg.VectorDimensions,
	)
	customerStore := services.NewCustomerStore(db.Collection(cfg.CustomerDataCollection))

	// Core pipeline
	tokenizer, err := services.NewTokenizerService(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatal("Invalid chunking configuration:", err)
	}

	ingestor := services.NewIngestor(customerStore, cache, searchIndex, geminiClient, tokenizer,
		services.IngestorOptions{
			MinFieldLength:   cfg.MinFieldLength,
			UpsertBatchSize:  cfg.UpsertBatchSize,
			CustomerDataTTL:  cfg.CustomerDataTTL,
			DataCacheEnabled: cfg.CustomerDataCacheEnabled,
		}, metrics)

	retriever := services.NewRetriever(geminiClient, searchIndex, cfg.TopK)
	generator := services.NewGenerator(geminiClient)
	scorer := services.NewConfidenceScorer(services.ConfidenceWeights{
		Similarity: cfg.WeightSimilarity,
		Lexical:    cfg.WeightLexical,
		LLMSelf:    cfg.WeightLLMSelf,
	}, cfg.ConfidenceThreshold)

	orchestrator := services.NewQueryOrchestrator(cache, retriever, generator, scorer, ingestor,
		services.OrchestratorOptions{
			QueryCacheEnabled: cfg.QueryCacheEnabled,
			QueryCacheTTL:     cfg.QueryCacheTTL,
			MarkerTTL:         cfg.CustomerDataTTL,
		}, metrics)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.RateLimitMiddleware(redisClient, cfg))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With", middleware.IngestSecretHeader}
	router.Use(cors.New(corsConfig))

	// Setup routes
	routes.SetupHealthRoutes(router, cache, searchIndex)
	routes.SetupQueryRoutes(router, cfg, orchestrator)
	routes.SetupIngestRoutes(router, cfg, ingestor, cache)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
