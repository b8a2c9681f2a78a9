package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"form-query-platform/internal/logger"
	"form-query-platform/internal/telemetry"
	"form-query-platform/models"
	"form-query-platform/utils"
)

// IngestorOptions tunes the ingestion pipeline.
type IngestorOptions struct {
	MinFieldLength   int
	UpsertBatchSize  int
	CustomerDataTTL  time.Duration
	DataCacheEnabled bool
}

// Ingestor orchestrates fetch, flatten, chunk, embed and index for one
// customer. Ingestion is all-or-nothing: any provider failure aborts the
// run and a retry starts from scratch.
type Ingestor struct {
	store     ObjectStore
	cache     KVCache
	index     SearchIndex
	ai        AIProvider
	tokenizer *TokenizerService
	opts      IngestorOptions
	metrics   *telemetry.Metrics
}

func NewIngestor(store ObjectStore, cache KVCache, index SearchIndex, ai AIProvider, tokenizer *TokenizerService, opts IngestorOptions, metrics *telemetry.Metrics) *Ingestor {
	if opts.MinFieldLength <= 0 {
		opts.MinFieldLength = 10
	}
	if opts.UpsertBatchSize <= 0 {
		opts.UpsertBatchSize = 100
	}
	if opts.CustomerDataTTL <= 0 {
		opts.CustomerDataTTL = 24 * time.Hour
	}
	return &Ingestor{
		store:     store,
		cache:     cache,
		index:     index,
		ai:        ai,
		tokenizer: tokenizer,
		opts:      opts,
		metrics:   metrics,
	}
}

// Ingest indexes one customer's data. With forceReindex the customer's
// existing chunks are deleted first and the source document is re-fetched,
// making the run a full scope replace.
func (ing *Ingestor) Ingest(ctx context.Context, customerID string, forceReindex bool) (models.IngestResult, error) {
	tracer := otel.Tracer("ingestor")
	ctx, span := tracer.Start(ctx, "ingestor.ingest")
	defer span.End()

	span.SetAttributes(
		attribute.String("customer.id", customerID),
		attribute.Bool("ingestion.force_reindex", forceReindex),
	)

	started := time.Now()
	result, err := ing.run(ctx, customerID, forceReindex)
	if ing.metrics != nil {
		ing.metrics.RecordIngestion(customerID, result.ChunksCreated, time.Since(started).Seconds(), err == nil)
	}
	if err != nil {
		span.SetAttributes(attribute.Bool("ingestion.error", true))
		return models.IngestResult{CustomerID: customerID}, err
	}

	span.SetAttributes(
		attribute.Int("ingestion.documents", result.DocumentsProcessed),
		attribute.Int("ingestion.chunks", result.ChunksCreated),
	)
	return result, nil
}

func (ing *Ingestor) run(ctx context.Context, customerID string, forceReindex bool) (models.IngestResult, error) {
	if err := ing.index.EnsureIndex(ctx); err != nil {
		return models.IngestResult{}, err
	}

	data, err := ing.resolveCustomerData(ctx, customerID, forceReindex)
	if err != nil {
		return models.IngestResult{}, err
	}

	if forceReindex {
		if err := ing.index.DeleteByCustomer(ctx, customerID); err != nil {
			return models.IngestResult{}, err
		}
		logger.Info("Deleted existing chunks for reindex", "customer_id", customerID)
	}

	fields := Flatten(data, "")

	documentsProcessed := 0
	chunksCreated := 0
	var staged []models.FormChunkIndex

	for _, field := range fields {
		if len(field.Value) < ing.opts.MinFieldLength {
			continue
		}
		documentsProcessed++

		chunks := ing.tokenizer.Chunk(field.Value)
		if len(chunks) == 0 {
			continue
		}

		// One batched embedding call per path
		vectors, err := ing.ai.EmbedTexts(ctx, chunks)
		if err != nil {
			return models.IngestResult{}, &UpstreamError{Provider: "embedding", Err: err}
		}

		for i, chunk := range chunks {
			staged = append(staged, models.FormChunkIndex{
				ID:            utils.ChunkID(customerID, field.Path, i),
				CustomerID:    customerID,
				DataPath:      field.Path,
				ChunkIndex:    i,
				Content:       chunk,
				ContentVector: vectors[i],
			})
		}
		chunksCreated += len(chunks)
	}

	// Upsert in fixed-size batches to bound request size
	for start := 0; start < len(staged); start += ing.opts.UpsertBatchSize {
		end := start + ing.opts.UpsertBatchSize
		if end > len(staged) {
			end = len(staged)
		}
		if err := ing.index.Upsert(ctx, staged[start:end]); err != nil {
			return models.IngestResult{}, err
		}
	}

	logger.Info("Ingestion complete",
		"customer_id", customerID,
		"documents", documentsProcessed,
		"chunks", chunksCreated,
		"force_reindex", forceReindex)

	return models.IngestResult{
		CustomerID:         customerID,
		DocumentsProcessed: documentsProcessed,
		ChunksCreated:      chunksCreated,
		Success:            true,
	}, nil
}

// resolveCustomerData uses the cached source document unless the caller
// forced a reindex, falling back to the object store and refreshing the
// cache on the way through.
func (ing *Ingestor) resolveCustomerData(ctx context.Context, customerID string, forceReindex bool) (map[string]interface{}, error) {
	key := utils.CustomerDataKey(customerID)

	if !forceReindex && ing.opts.DataCacheEnabled {
		var cached map[string]interface{}
		hit, err := ing.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			logger.Warn("Customer data cache read failed, fetching fresh", "customer_id", customerID, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	data, err := ing.store.GetJSON(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if ing.opts.DataCacheEnabled {
		if err := ing.cache.SetJSON(ctx, key, data, ing.opts.CustomerDataTTL); err != nil {
			// Caching the source is best effort
			logger.Warn("Failed to cache customer data", "customer_id", customerID, "error", err)
		}
	}

	return data, nil
}
