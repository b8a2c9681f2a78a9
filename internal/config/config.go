package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Gemini provider
	GeminiAPIKey    string
	GeminiChatModel string
	EmbeddingsModel string
	GeminiTier      string

	// MongoDB (search index + customer object store)
	MongoURI               string
	DBName                 string
	ChunksCollection       string
	CustomerDataCollection string
	SearchIndexName        string
	VectorIndexName        string
	VectorDimensions       int

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Ingest endpoint shared secret
	IngestSecret string

	// Feature flags
	QueryCacheEnabled        bool
	CustomerDataCacheEnabled bool
	PIIRedactionEnabled      bool

	// RAG parameters
	ChunkSize           int
	ChunkOverlap        int
	TopK                int
	ConfidenceThreshold float64
	MinFieldLength      int
	UpsertBatchSize     int

	// Confidence weights, must sum to 1.0
	WeightSimilarity float64
	WeightLexical    float64
	WeightLLMSelf    float64

	// Cache TTLs
	QueryCacheTTL   time.Duration
	CustomerDataTTL time.Duration

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
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiChatModel: getEnv("GEMINI_CHAT_MODEL", "gemini-2.0-flash"),
		EmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "gemini-embedding-001"),
		GeminiTier:      getEnv("GEMINI_TIER", "free"),

		MongoURI:               getEnv("MONGO_URI", "mongodb://localhost:27017/form_query"),
		DBName:                 getEnv("DB_NAME", "form_query"),
		ChunksCollection:       getEnv("CHUNKS_COLLECTION", "form_chunks"),
		CustomerDataCollection: getEnv("CUSTOMER_DATA_COLLECTION", "customer_data"),
		SearchIndexName:        getEnv("MONGODB_SEARCH_INDEX", "form_chunks_text"),
		VectorIndexName:        getEnv("MONGODB_VECTOR_INDEX", "form_chunks_vector"),
		VectorDimensions:       getEnvInt("VECTOR_DIM", 3072),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		IngestSecret: getEnv("INGEST_SECRET", ""),

		QueryCacheEnabled:        getEnvBool("QUERY_CACHE_ENABLED", true),
		CustomerDataCacheEnabled: getEnvBool("CUSTOMER_DATA_CACHE_ENABLED", true),
		PIIRedactionEnabled:      getEnvBool("PII_REDACTION_ENABLED", false),

		ChunkSize:           getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", 100),
		TopK:                getEnvInt("RAG_TOP_K", 5),
		ConfidenceThreshold: getEnvFloat64("CONFIDENCE_THRESHOLD", 0.5),
		MinFieldLength:      getEnvInt("MIN_FIELD_LENGTH", 10),
		UpsertBatchSize:     getEnvInt("UPSERT_BATCH_SIZE", 100),

		WeightSimilarity: getEnvFloat64("WEIGHT_SIMILARITY", 0.45),
		WeightLexical:    getEnvFloat64("WEIGHT_LEXICAL", 0.35),
		WeightLLMSelf:    getEnvFloat64("WEIGHT_LLM_SELF", 0.20),

		QueryCacheTTL:   time.Duration(getEnvInt("QUERY_CACHE_TTL_SECONDS", 3600)) * time.Second,
		CustomerDataTTL: time.Duration(getEnvInt("CUSTOMER_DATA_TTL_SECONDS", 86400)) * time.Second,

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.IngestSecret == "" {
		return nil, fmt.Errorf("INGEST_SECRET is required - set it in .env file")
	}

	// overlap >= size would stop the chunk window from ever advancing
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	sum := cfg.WeightSimilarity + cfg.WeightLexical + cfg.WeightLLMSelf
	if math.Abs(sum-1.0) > 1e-9 {
		return nil, fmt.Errorf("confidence weights must sum to 1.0, got %.4f", sum)
	}

	return cfg, nil
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
