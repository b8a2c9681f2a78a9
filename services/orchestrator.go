package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"form-query-platform/internal/logger"
	"form-query-platform/internal/telemetry"
	"form-query-platform/models"
	"form-query-platform/utils"
)

// NoRelevantInformationAnswer is the fixed reply for queries whose
// retrieval returned nothing.
const NoRelevantInformationAnswer = "No relevant information was found in the customer's data for this question."

const maxResponseSources = 5

// OrchestratorOptions tunes the request pipeline.
type OrchestratorOptions struct {
	QueryCacheEnabled bool
	QueryCacheTTL     time.Duration
	MarkerTTL         time.Duration
}

// QueryOrchestrator runs one query through the full lifecycle:
// normalize, cache lookup, ensure-ingested, retrieve, generate, score,
// assemble, cache store. Strictly sequential per request.
type QueryOrchestrator struct {
	cache     KVCache
	retriever *Retriever
	generator *Generator
	scorer    *ConfidenceScorer
	ingestor  *Ingestor
	opts      OrchestratorOptions
	metrics   *telemetry.Metrics
}

func NewQueryOrchestrator(cache KVCache, retriever *Retriever, generator *Generator, scorer *ConfidenceScorer, ingestor *Ingestor, opts OrchestratorOptions, metrics *telemetry.Metrics) *QueryOrchestrator {
	if opts.QueryCacheTTL <= 0 {
		opts.QueryCacheTTL = time.Hour
	}
	if opts.MarkerTTL <= 0 {
		opts.MarkerTTL = 24 * time.Hour
	}
	return &QueryOrchestrator{
		cache:     cache,
		retriever: retriever,
		generator: generator,
		scorer:    scorer,
		ingestor:  ingestor,
		opts:      opts,
		metrics:   metrics,
	}
}

// Answer processes one form question, optionally scoped to a customer.
func (qo *QueryOrchestrator) Answer(ctx context.Context, question, customerID string) (models.FormQueryResponse, error) {
	tracer := otel.Tracer("orchestrator")
	ctx, span := tracer.Start(ctx, "orchestrator.answer")
	defer span.End()

	normalized := utils.NormalizeQuery(question)
	cacheKey := utils.QueryCacheKey(normalized, customerID)

	span.SetAttributes(
		attribute.String("customer.id", customerID),
		attribute.Int("query.length", len(question)),
	)

	// Cache lookup: the cached flag flips to true only here, at read time
	if qo.opts.QueryCacheEnabled {
		var cached models.FormQueryResponse
		hit, err := qo.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("Query cache read failed, computing fresh", "error", err)
		}
		if qo.metrics != nil {
			qo.metrics.RecordCacheLookup(hit)
		}
		if hit {
			span.SetAttributes(attribute.Bool("query.cache_hit", true))
			cached.Cached = true
			return cached, nil
		}
	}

	if err := qo.ensureIngested(ctx, customerID); err != nil {
		return models.FormQueryResponse{}, err
	}

	summary, err := qo.retriever.Retrieve(ctx, question, customerID)
	if err != nil {
		return models.FormQueryResponse{}, err
	}

	// Zero results short-circuits generation and scoring; this is a valid
	// empty answer, not an error, and is not cached so a later ingestion
	// can make the same question answerable.
	if len(summary.Results) == 0 {
		span.SetAttributes(attribute.Bool("query.no_results", true))
		return models.FormQueryResponse{
			Answer:     NoRelevantInformationAnswer,
			DataPath:   []string{},
			Confidence: 0,
			Sources:    []models.SourceRef{},
			Cached:     false,
		}, nil
	}

	generation, err := qo.generator.Generate(ctx, question, summary.Results)
	if err != nil {
		return models.FormQueryResponse{}, err
	}

	confidence := qo.scorer.Score(summary.AvgSimilarity, summary.AvgLexical, generation.Confidence)
	if !qo.scorer.MeetsThreshold(confidence.Score) {
		logger.Warn("Answer confidence below threshold",
			"customer_id", customerID,
			"confidence", confidence.Score)
	}

	response := qo.assemble(generation, summary, confidence)

	// Best-effort cache store: the persisted copy carries Cached=false
	if qo.opts.QueryCacheEnabled {
		if err := qo.cache.SetJSON(ctx, cacheKey, response, qo.opts.QueryCacheTTL); err != nil {
			logger.Warn("Failed to cache query response", "error", err)
		}
	}

	span.SetAttributes(attribute.Float64("query.confidence", response.Confidence))
	return response, nil
}

// ensureIngested runs ingestion once per marker TTL per customer. The
// check-then-set on the marker can race between concurrent requests;
// duplicate ingestion is accepted because chunk ids make it idempotent.
func (qo *QueryOrchestrator) ensureIngested(ctx context.Context, customerID string) error {
	if customerID == "" {
		return nil
	}

	markerKey := utils.IngestionMarkerKey(customerID)
	exists, err := qo.cache.Exists(ctx, markerKey)
	if err != nil {
		logger.Warn("Ingestion marker check failed, ingesting anyway", "customer_id", customerID, "error", err)
	}
	if exists {
		return nil
	}

	if _, err := qo.ingestor.Ingest(ctx, customerID, false); err != nil {
		// A customer without source data simply has nothing to retrieve;
		// the query resolves to the fixed no-information answer.
		if errors.Is(err, ErrCustomerDataNotFound) {
			logger.Info("No source data for customer, skipping ingestion", "customer_id", customerID)
			return nil
		}
		return err
	}

	if err := qo.cache.SetJSON(ctx, markerKey, true, qo.opts.MarkerTTL); err != nil {
		logger.Warn("Failed to set ingestion marker", "customer_id", customerID, "error", err)
	}
	return nil
}

func (qo *QueryOrchestrator) assemble(generation models.GenerationResult, summary models.RetrievalSummary, confidence models.ConfidenceResult) models.FormQueryResponse {
	dataPaths := generation.DataPaths
	if len(dataPaths) == 0 {
		dataPaths = ExtractSourcePaths(summary.Results)
	}

	limit := maxResponseSources
	if len(summary.Results) < limit {
		limit = len(summary.Results)
	}
	sources := make([]models.SourceRef, 0, limit)
	for _, result := range summary.Results[:limit] {
		sources = append(sources, models.SourceRef{
			DataPath: result.DataPath,
			Score:    result.Similarity,
		})
	}

	return models.FormQueryResponse{
		Answer:     generation.Answer,
		DataPath:   dataPaths,
		Confidence: confidence.Score,
		Sources:    sources,
		Cached:     false,
	}
}
