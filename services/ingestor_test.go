package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-query-platform/models"
)

func testCustomerData() map[string]interface{} {
	return map[string]interface{}{
		"contact": map[string]interface{}{
			"email": "john.doe@example.com",
			"ext":   "x12", // under the minimum length, filtered out
		},
		"notes": "customer prefers invoices by email every month",
	}
}

func newTestIngestor(store *mockStore, cache *mockCache, index *mockIndex, ai *mockAI) *Ingestor {
	return NewIngestor(store, cache, index, ai, mustTokenizer(5, 1), IngestorOptions{
		MinFieldLength:   10,
		UpsertBatchSize:  100,
		DataCacheEnabled: true,
	}, nil)
}

func TestIngestHappyPath(t *testing.T) {
	store := &mockStore{docs: map[string]map[string]interface{}{"cust-1": testCustomerData()}}
	cache := newMockCache()
	index := &mockIndex{}
	ai := &mockAI{}

	result, err := newTestIngestor(store, cache, index, ai).Ingest(context.Background(), "cust-1", false)

	require.NoError(t, err)
	assert.Equal(t, "cust-1", result.CustomerID)
	// contact.ext is under the 10-char minimum
	assert.Equal(t, 2, result.DocumentsProcessed)
	assert.True(t, result.Success)
	assert.Equal(t, 1, index.ensureCalls)
	assert.Empty(t, index.deleted)

	// The notes field is 7 tokens: size 5 overlap 1 gives 2 chunks
	assert.Equal(t, 3, result.ChunksCreated)

	var indexed []models.FormChunkIndex
	for _, batch := range index.upserts {
		indexed = append(indexed, batch...)
	}
	require.Len(t, indexed, 3)
	for _, doc := range indexed {
		assert.Equal(t, "cust-1", doc.CustomerID)
		assert.NotEmpty(t, doc.ID)
		assert.NotEmpty(t, doc.ContentVector)
	}
}

func TestIngestDeterministicChunkIDs(t *testing.T) {
	store := &mockStore{docs: map[string]map[string]interface{}{"cust-1": testCustomerData()}}
	index := &mockIndex{}
	ing := newTestIngestor(store, newMockCache(), index, &mockAI{})

	_, err := ing.Ingest(context.Background(), "cust-1", true)
	require.NoError(t, err)
	firstRun := collectIDs(index.upserts)

	index.upserts = nil
	_, err = ing.Ingest(context.Background(), "cust-1", true)
	require.NoError(t, err)
	secondRun := collectIDs(index.upserts)

	// Identical content yields identical ids both times, no accumulation
	assert.Equal(t, firstRun, secondRun)
}

func collectIDs(upserts [][]models.FormChunkIndex) []string {
	var ids []string
	for _, batch := range upserts {
		for _, doc := range batch {
			ids = append(ids, doc.ID)
		}
	}
	return ids
}

func TestIngestForceReindexDeletesFirst(t *testing.T) {
	store := &mockStore{docs: map[string]map[string]interface{}{"cust-1": testCustomerData()}}
	index := &mockIndex{}

	_, err := newTestIngestor(store, newMockCache(), index, &mockAI{}).Ingest(context.Background(), "cust-1", true)

	require.NoError(t, err)
	assert.Equal(t, []string{"cust-1"}, index.deleted)
}

func TestIngestUsesCachedCustomerData(t *testing.T) {
	store := &mockStore{docs: map[string]map[string]interface{}{"cust-1": testCustomerData()}}
	cache := newMockCache()
	ing := newTestIngestor(store, cache, &mockIndex{}, &mockAI{})

	_, err := ing.Ingest(context.Background(), "cust-1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, store.getCalls)

	// Second run hits the cached source document
	_, err = ing.Ingest(context.Background(), "cust-1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, store.getCalls)
}

func TestIngestForceReindexBypassesDataCache(t *testing.T) {
	store := &mockStore{docs: map[string]map[string]interface{}{"cust-1": testCustomerData()}}
	cache := newMockCache()
	ing := newTestIngestor(store, cache, &mockIndex{}, &mockAI{})

	_, err := ing.Ingest(context.Background(), "cust-1", false)
	require.NoError(t, err)

	_, err = ing.Ingest(context.Background(), "cust-1", true)
	require.NoError(t, err)
	assert.Equal(t, 2, store.getCalls)
}

func TestIngestBatchesUpserts(t *testing.T) {
	data := map[string]interface{}{}
	for i := 0; i < 5; i++ {
		data[string(rune('a'+i))] = "a field value long enough to index"
	}
	store := &mockStore{docs: map[string]map[string]interface{}{"cust-1": data}}
	index := &mockIndex{}

	ing := NewIngestor(store, newMockCache(), index, &mockAI{}, mustTokenizer(50, 10), IngestorOptions{
		MinFieldLength:  10,
		UpsertBatchSize: 2,
	}, nil)

	result, err := ing.Ingest(context.Background(), "cust-1", false)

	require.NoError(t, err)
	assert.Equal(t, 5, result.ChunksCreated)
	// 5 docs in batches of 2: 2+2+1
	require.Len(t, index.upserts, 3)
	assert.Len(t, index.upserts[0], 2)
	assert.Len(t, index.upserts[2], 1)
}

func TestIngestMissingCustomer(t *testing.T) {
	store := &mockStore{docs: map[string]map[string]interface{}{}}

	_, err := newTestIngestor(store, newMockCache(), &mockIndex{}, &mockAI{}).Ingest(context.Background(), "nope", false)

	assert.ErrorIs(t, err, ErrCustomerDataNotFound)
}

func TestIngestEmbeddingFailureAbortsRun(t *testing.T) {
	store := &mockStore{docs: map[string]map[string]interface{}{"cust-1": testCustomerData()}}
	index := &mockIndex{}
	ai := &mockAI{
		embedFn: func(_ []string) ([][]float32, error) {
			return nil, errors.New("quota exhausted")
		},
	}

	_, err := newTestIngestor(store, newMockCache(), index, ai).Ingest(context.Background(), "cust-1", false)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	// Nothing makes it to the index on a failed run
	assert.Empty(t, index.upserts)
}

func TestIngestIndexFailurePropagates(t *testing.T) {
	store := &mockStore{docs: map[string]map[string]interface{}{"cust-1": testCustomerData()}}
	index := &mockIndex{ensureErr: errors.New("index create denied")}

	_, err := newTestIngestor(store, newMockCache(), index, &mockAI{}).Ingest(context.Background(), "cust-1", false)
	require.Error(t, err)
}
