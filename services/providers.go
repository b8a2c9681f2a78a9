package services

import (
	"context"
	"time"

	"form-query-platform/models"
)

// AIProvider is the embedding/completion capability. The concrete client
// lives in internal/ai; tests substitute fakes.
type AIProvider interface {
	// EmbedTexts embeds all texts in one batched call, preserving order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// CompleteStructured returns the raw JSON text of a schema-constrained
	// completion. Parsing is the caller's job.
	CompleteStructured(ctx context.Context, prompt string) (string, error)
}

// SearchIndex is the external index provider. Ranking is its problem, not
// ours; mutation is delete-by-customer-then-reinsert.
type SearchIndex interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, docs []models.FormChunkIndex) error
	DeleteByCustomer(ctx context.Context, customerID string) error
	HybridSearch(ctx context.Context, vector []float32, query string, topK int, customerID string) ([]models.SearchResult, error)
	Ping(ctx context.Context) error
}

// KVCache is the key-value cache capability with per-key TTLs.
type KVCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}

// ObjectStore fetches a customer's raw structured data by id.
type ObjectStore interface {
	GetJSON(ctx context.Context, customerID string) (map[string]interface{}, error)
}
