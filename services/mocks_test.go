package services

import (
	"context"
	"encoding/json"
	"time"

	"form-query-platform/models"
)

// --- Mock implementations ---

// mockAI implements AIProvider for testing.
type mockAI struct {
	embedFn    func(texts []string) ([][]float32, error)
	completeFn func(prompt string) (string, error)

	embedCalls [][]string
	prompts    []string
}

func (m *mockAI) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	m.embedCalls = append(m.embedCalls, texts)
	if m.embedFn != nil {
		return m.embedFn(texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func (m *mockAI) CompleteStructured(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.completeFn != nil {
		return m.completeFn(prompt)
	}
	return `{"answer":"answer","dataPaths":["a.b"],"explanation":"from a.b","confidence":0.9}`, nil
}

// mockIndex implements SearchIndex for testing.
type mockIndex struct {
	hybridFn func(vector []float32, query string, topK int, customerID string) ([]models.SearchResult, error)

	ensureErr   error
	upsertErr   error
	deleteErr   error
	ensureCalls int
	upserts     [][]models.FormChunkIndex
	deleted     []string
}

func (m *mockIndex) EnsureIndex(_ context.Context) error {
	m.ensureCalls++
	return m.ensureErr
}

func (m *mockIndex) Upsert(_ context.Context, docs []models.FormChunkIndex) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	batch := make([]models.FormChunkIndex, len(docs))
	copy(batch, docs)
	m.upserts = append(m.upserts, batch)
	return nil
}

func (m *mockIndex) DeleteByCustomer(_ context.Context, customerID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, customerID)
	return nil
}

func (m *mockIndex) HybridSearch(_ context.Context, vector []float32, query string, topK int, customerID string) ([]models.SearchResult, error) {
	if m.hybridFn != nil {
		return m.hybridFn(vector, query, topK, customerID)
	}
	return []models.SearchResult{}, nil
}

func (m *mockIndex) Ping(_ context.Context) error {
	return nil
}

// mockCache implements KVCache in memory for testing.
type mockCache struct {
	data map[string][]byte
	ttls map[string]time.Duration

	getErr    error
	setErr    error
	existsErr error
}

func newMockCache() *mockCache {
	return &mockCache{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		delete(m.data, key)
		return false, nil
	}
	return true, nil
}

func (m *mockCache) SetJSON(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockCache) Exists(_ context.Context, key string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockCache) Ping(_ context.Context) error {
	return nil
}

// mockStore implements ObjectStore for testing.
type mockStore struct {
	docs     map[string]map[string]interface{}
	err      error
	getCalls int
}

func (m *mockStore) GetJSON(_ context.Context, customerID string) (map[string]interface{}, error) {
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	doc, ok := m.docs[customerID]
	if !ok {
		return nil, ErrCustomerDataNotFound
	}
	return doc, nil
}

func mustTokenizer(size, overlap int) *TokenizerService {
	ts, err := NewTokenizerService(size, overlap)
	if err != nil {
		panic(err)
	}
	return ts
}
