package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"form-query-platform/models"
)

// Retriever embeds a question and runs hybrid search, aggregating the
// signal statistics the confidence scorer needs.
type Retriever struct {
	ai    AIProvider
	index SearchIndex
	topK  int
}

func NewRetriever(ai AIProvider, index SearchIndex, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{ai: ai, index: index, topK: topK}
}

// Retrieve returns the ranked results plus avgSimilarity over the top 3
// and avgLexical over all results, falling back to similarity where the
// provider reported no distinct lexical score. An empty result set is a
// valid zero-valued summary, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query, customerID string) (models.RetrievalSummary, error) {
	tracer := otel.Tracer("retriever")
	ctx, span := tracer.Start(ctx, "retriever.retrieve")
	defer span.End()

	vectors, err := r.ai.EmbedTexts(ctx, []string{query})
	if err != nil {
		return models.RetrievalSummary{}, &UpstreamError{Provider: "embedding", Err: err}
	}

	results, err := r.index.HybridSearch(ctx, vectors[0], query, r.topK, customerID)
	if err != nil {
		return models.RetrievalSummary{}, err
	}

	span.SetAttributes(attribute.Int("retriever.result_count", len(results)))

	if len(results) == 0 {
		return models.RetrievalSummary{Results: []models.SearchResult{}}, nil
	}

	topN := 3
	if len(results) < topN {
		topN = len(results)
	}
	similaritySum := 0.0
	for _, result := range results[:topN] {
		similaritySum += result.Similarity
	}

	lexicalSum := 0.0
	for _, result := range results {
		if result.HasLexical {
			lexicalSum += result.Lexical
		} else {
			lexicalSum += result.Similarity
		}
	}

	summary := models.RetrievalSummary{
		Results:       results,
		AvgSimilarity: similaritySum / float64(topN),
		AvgLexical:    lexicalSum / float64(len(results)),
	}

	span.SetAttributes(
		attribute.Float64("retriever.avg_similarity", summary.AvgSimilarity),
		attribute.Float64("retriever.avg_lexical", summary.AvgLexical),
	)

	return summary, nil
}

// ExtractSourcePaths returns the unique source paths of the results in
// rank order, used as a citation fallback when generation cites none.
func ExtractSourcePaths(results []models.SearchResult) []string {
	seen := make(map[string]bool, len(results))
	paths := make([]string, 0, len(results))
	for _, result := range results {
		if result.DataPath != "" && !seen[result.DataPath] {
			seen[result.DataPath] = true
			paths = append(paths, result.DataPath)
		}
	}
	return paths
}
