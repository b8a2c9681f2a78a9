package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-query-platform/models"
	"form-query-platform/utils"
)

type orchestratorFixture struct {
	ai    *mockAI
	index *mockIndex
	cache *mockCache
	store *mockStore

	orchestrator *QueryOrchestrator
}

func newOrchestratorFixture() *orchestratorFixture {
	f := &orchestratorFixture{
		ai:    &mockAI{},
		index: &mockIndex{},
		cache: newMockCache(),
		store: &mockStore{docs: map[string]map[string]interface{}{
			"cust-123": {
				"contact": map[string]interface{}{"email": "john.doe@example.com"},
			},
		}},
	}
	f.index.hybridFn = func(_ []float32, _ string, _ int, _ string) ([]models.SearchResult, error) {
		return []models.SearchResult{
			{ChunkID: "c1", DataPath: "contact.email", Content: "contact.email: john.doe@example.com", Similarity: 0.89, Lexical: 38.5, HasLexical: true},
			{ChunkID: "c2", DataPath: "contact.phone", Content: "contact.phone: 555-0100", Similarity: 0.61, Lexical: 12.0, HasLexical: true},
		}, nil
	}
	f.ai.completeFn = func(string) (string, error) {
		return `{"answer":"The customer's email is john.doe@example.com","dataPaths":["contact.email"],"explanation":"Found in the contact record","confidence":0.92}`, nil
	}

	ingestor := NewIngestor(f.store, f.cache, f.index, f.ai, mustTokenizer(100, 20), IngestorOptions{
		MinFieldLength:   10,
		DataCacheEnabled: true,
	}, nil)
	scorer := NewConfidenceScorer(ConfidenceWeights{Similarity: 0.45, Lexical: 0.35, LLMSelf: 0.20}, 0.5)
	f.orchestrator = NewQueryOrchestrator(
		f.cache,
		NewRetriever(f.ai, f.index, 5),
		NewGenerator(f.ai),
		scorer,
		ingestor,
		OrchestratorOptions{QueryCacheEnabled: true},
		nil,
	)
	return f
}

func TestAnswerEndToEnd(t *testing.T) {
	f := newOrchestratorFixture()

	resp, err := f.orchestrator.Answer(context.Background(), "What is the customer's email address?", "cust-123")

	require.NoError(t, err)
	assert.Equal(t, "The customer's email is john.doe@example.com", resp.Answer)
	assert.Equal(t, []string{"contact.email"}, resp.DataPath)
	assert.False(t, resp.Cached)
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "contact.email", resp.Sources[0].DataPath)
	assert.InDelta(t, 0.89, resp.Sources[0].Score, 1e-9)
	assert.Greater(t, resp.Confidence, 0.0)
	assert.LessOrEqual(t, resp.Confidence, 1.0)
}

func TestAnswerCacheHitSemantics(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	first, err := f.orchestrator.Answer(ctx, "What is the customer's email address?", "cust-123")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// The stored copy keeps cached=false; the flag flips at read time
	key := utils.QueryCacheKey(utils.NormalizeQuery("What is the customer's email address?"), "cust-123")
	var stored models.FormQueryResponse
	hit, err := f.cache.GetJSON(ctx, key, &stored)
	require.NoError(t, err)
	require.True(t, hit)
	assert.False(t, stored.Cached)

	prompts := len(f.ai.prompts)
	second, err := f.orchestrator.Answer(ctx, "What is the customer's email address?", "cust-123")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Answer, second.Answer)
	// No second generation round trip
	assert.Equal(t, prompts, len(f.ai.prompts))
}

func TestAnswerNormalizationSharesCacheEntry(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	_, err := f.orchestrator.Answer(ctx, "What is the customer's email address?", "cust-123")
	require.NoError(t, err)

	// Same question modulo case and punctuation hits the same entry
	resp, err := f.orchestrator.Answer(ctx, "  WHAT is the customer's email address???  ", "cust-123")
	require.NoError(t, err)
	assert.True(t, resp.Cached)
}

func TestAnswerZeroResults(t *testing.T) {
	f := newOrchestratorFixture()
	f.index.hybridFn = func(_ []float32, _ string, _ int, _ string) ([]models.SearchResult, error) {
		return nil, nil
	}

	resp, err := f.orchestrator.Answer(context.Background(), "What is the shipping address?", "cust-123")

	require.NoError(t, err)
	assert.Equal(t, NoRelevantInformationAnswer, resp.Answer)
	assert.Equal(t, 0.0, resp.Confidence)
	assert.Empty(t, resp.DataPath)
	assert.Empty(t, resp.Sources)
	// Generation never runs on an empty retrieval
	assert.Empty(t, f.ai.prompts)

	// The empty answer is not cached, so a later ingestion can change it
	key := utils.QueryCacheKey(utils.NormalizeQuery("What is the shipping address?"), "cust-123")
	var stored models.FormQueryResponse
	hit, err := f.cache.GetJSON(context.Background(), key, &stored)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestAnswerCitationFallback(t *testing.T) {
	f := newOrchestratorFixture()
	f.ai.completeFn = func(string) (string, error) {
		return `{"answer":"The email is john.doe@example.com","dataPaths":[],"explanation":"From the contact section","confidence":0.8}`, nil
	}

	resp, err := f.orchestrator.Answer(context.Background(), "email?", "cust-123")

	require.NoError(t, err)
	assert.Equal(t, []string{"contact.email", "contact.phone"}, resp.DataPath)
}

func TestAnswerCacheStoreBestEffort(t *testing.T) {
	f := newOrchestratorFixture()

	// Warm the ingestion marker first so the set failure only affects the
	// response store
	_, err := f.orchestrator.Answer(context.Background(), "warm up", "cust-123")
	require.NoError(t, err)

	f.cache.setErr = errors.New("redis oom")
	resp, err := f.orchestrator.Answer(context.Background(), "What is the customer's email address?", "cust-123")

	require.NoError(t, err)
	assert.Equal(t, "The customer's email is john.doe@example.com", resp.Answer)
}

func TestAnswerIngestsOncePerMarker(t *testing.T) {
	f := newOrchestratorFixture()
	ctx := context.Background()

	_, err := f.orchestrator.Answer(ctx, "first question", "cust-123")
	require.NoError(t, err)
	assert.Equal(t, 1, f.index.ensureCalls)
	assert.Equal(t, 1, f.store.getCalls)

	_, err = f.orchestrator.Answer(ctx, "second question", "cust-123")
	require.NoError(t, err)
	// The marker gates the second ingestion
	assert.Equal(t, 1, f.index.ensureCalls)
	assert.Equal(t, 1, f.store.getCalls)
}

func TestAnswerUnknownCustomerStillAnswers(t *testing.T) {
	f := newOrchestratorFixture()
	f.index.hybridFn = func(_ []float32, _ string, _ int, _ string) ([]models.SearchResult, error) {
		return nil, nil
	}

	// No source document: ingestion is skipped and retrieval comes up empty
	resp, err := f.orchestrator.Answer(context.Background(), "anything?", "cust-missing")

	require.NoError(t, err)
	assert.Equal(t, NoRelevantInformationAnswer, resp.Answer)
}

func TestAnswerNoCustomerSkipsIngestion(t *testing.T) {
	f := newOrchestratorFixture()

	_, err := f.orchestrator.Answer(context.Background(), "general question", "")

	require.NoError(t, err)
	assert.Zero(t, f.index.ensureCalls)
	assert.Zero(t, f.store.getCalls)
}

func TestAnswerRetrievalFailurePropagates(t *testing.T) {
	f := newOrchestratorFixture()
	f.index.hybridFn = func(_ []float32, _ string, _ int, _ string) ([]models.SearchResult, error) {
		return nil, &UpstreamError{Provider: "search", Err: errors.New("atlas timeout")}
	}

	_, err := f.orchestrator.Answer(context.Background(), "email?", "cust-123")

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "search", upstream.Provider)
}

func TestAnswerGenerationParseFailurePropagates(t *testing.T) {
	f := newOrchestratorFixture()
	f.ai.completeFn = func(string) (string, error) {
		return "not json at all", nil
	}

	_, err := f.orchestrator.Answer(context.Background(), "email?", "cust-123")

	var parseErr *GenerationParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestAnswerSourcesCappedAtFive(t *testing.T) {
	f := newOrchestratorFixture()
	f.index.hybridFn = func(_ []float32, _ string, _ int, _ string) ([]models.SearchResult, error) {
		results := make([]models.SearchResult, 7)
		for i := range results {
			results[i] = models.SearchResult{
				ChunkID:    string(rune('a' + i)),
				DataPath:   "field." + string(rune('a'+i)),
				Content:    "some indexed content",
				Similarity: 0.9 - float64(i)*0.05,
			}
		}
		return results, nil
	}

	resp, err := f.orchestrator.Answer(context.Background(), "email?", "cust-123")

	require.NoError(t, err)
	assert.Len(t, resp.Sources, 5)
}
