package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"form-query-platform/internal/logger"
	"form-query-platform/models"
)

// MongoSearchIndex implements SearchIndex on a MongoDB Atlas collection
// with a $vectorSearch index and a $search text index over the same
// chunk documents.
type MongoSearchIndex struct {
	collection      *mongo.Collection
	searchIndexName string
	vectorIndexName string
	vectorDims      int
}

func NewMongoSearchIndex(collection *mongo.Collection, searchIndexName, vectorIndexName string, vectorDims int) *MongoSearchIndex {
	return &MongoSearchIndex{
		collection:      collection,
		searchIndexName: searchIndexName,
		vectorIndexName: vectorIndexName,
		vectorDims:      vectorDims,
	}
}

// EnsureIndex creates the Atlas vector and text search indexes if they do
// not exist yet. Safe to call on every ingestion.
func (ms *MongoSearchIndex) EnsureIndex(ctx context.Context) error {
	vectorDefinition := bson.M{
		"fields": []bson.M{
			{
				"type":          "vector",
				"path":          "content_vector",
				"numDimensions": ms.vectorDims,
				"similarity":    "cosine",
			},
			{
				"type": "filter",
				"path": "customer_id",
			},
		},
	}

	textDefinition := bson.M{
		"mappings": bson.M{
			"dynamic": false,
			"fields": bson.M{
				"content":     bson.M{"type": "string"},
				"customer_id": bson.M{"type": "token"},
			},
		},
	}

	views := ms.collection.SearchIndexes()

	_, err := views.CreateOne(ctx, mongo.SearchIndexModel{
		Definition: vectorDefinition,
		Options:    options.SearchIndexes().SetName(ms.vectorIndexName).SetType("vectorSearch"),
	})
	if err != nil && !isIndexExistsError(err) {
		return &UpstreamError{Provider: "search", Err: err}
	}

	_, err = views.CreateOne(ctx, mongo.SearchIndexModel{
		Definition: textDefinition,
		Options:    options.SearchIndexes().SetName(ms.searchIndexName).SetType("search"),
	})
	if err != nil && !isIndexExistsError(err) {
		return &UpstreamError{Provider: "search", Err: err}
	}

	return nil
}

func isIndexExistsError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate")
}

// Upsert replaces staged chunk documents by deterministic _id, so
// re-ingesting identical content overwrites in place.
func (ms *MongoSearchIndex) Upsert(ctx context.Context, docs []models.FormChunkIndex) error {
	if len(docs) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	_, err := ms.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return &UpstreamError{Provider: "search", Err: err}
	}
	return nil
}

// DeleteByCustomer removes every chunk for one customer ahead of a forced
// reindex.
func (ms *MongoSearchIndex) DeleteByCustomer(ctx context.Context, customerID string) error {
	_, err := ms.collection.DeleteMany(ctx, bson.M{"customer_id": customerID})
	if err != nil {
		return &UpstreamError{Provider: "search", Err: err}
	}
	return nil
}

// HybridSearch runs the vector and text branches and merges them by chunk
// id. Vector order is the primary ranking; text-only hits trail with zero
// similarity. The lexical (Lucene) score is unbounded by contract.
func (ms *MongoSearchIndex) HybridSearch(ctx context.Context, vector []float32, query string, topK int, customerID string) ([]models.SearchResult, error) {
	vectorHits, err := ms.vectorSearch(ctx, vector, topK, customerID)
	if err != nil {
		return nil, err
	}

	textHits, err := ms.textSearch(ctx, query, topK, customerID)
	if err != nil {
		// The vector branch alone still yields usable results
		logger.Warn("Text search branch failed, continuing vector-only", "error", err)
		textHits = nil
	}

	lexicalByID := make(map[string]float64, len(textHits))
	for _, hit := range textHits {
		lexicalByID[hit.ChunkID] = hit.Lexical
	}

	results := make([]models.SearchResult, 0, topK)
	seen := make(map[string]bool, topK)
	for _, hit := range vectorHits {
		if lexical, ok := lexicalByID[hit.ChunkID]; ok {
			hit.Lexical = lexical
			hit.HasLexical = true
		}
		results = append(results, hit)
		seen[hit.ChunkID] = true
	}
	for _, hit := range textHits {
		if !seen[hit.ChunkID] {
			hit.HasLexical = true
			results = append(results, hit)
		}
	}

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

type searchHit struct {
	ID         string  `bson:"_id"`
	DataPath   string  `bson:"data_path"`
	Content    string  `bson:"content"`
	Score      float64 `bson:"score"`
	CustomerID string  `bson:"customer_id"`
}

func (ms *MongoSearchIndex) vectorSearch(ctx context.Context, vector []float32, topK int, customerID string) ([]models.SearchResult, error) {
	stage := bson.M{
		"index":         ms.vectorIndexName,
		"path":          "content_vector",
		"queryVector":   vector,
		"numCandidates": topK * 10,
		"limit":         topK,
	}
	if customerID != "" {
		stage["filter"] = bson.M{"customer_id": customerID}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: stage}},
		{{Key: "$project", Value: bson.M{
			"data_path":   1,
			"content":     1,
			"customer_id": 1,
			"score":       bson.M{"$meta": "vectorSearchScore"},
		}}},
	}

	return ms.runSearch(ctx, pipeline, func(hit searchHit) models.SearchResult {
		return models.SearchResult{
			ChunkID:    hit.ID,
			DataPath:   hit.DataPath,
			Content:    hit.Content,
			Similarity: hit.Score,
		}
	})
}

func (ms *MongoSearchIndex) textSearch(ctx context.Context, query string, topK int, customerID string) ([]models.SearchResult, error) {
	compound := bson.M{
		"must": []bson.M{
			{"text": bson.M{"query": query, "path": "content"}},
		},
	}
	if customerID != "" {
		compound["filter"] = []bson.M{
			{"equals": bson.M{"path": "customer_id", "value": customerID}},
		}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$search", Value: bson.M{
			"index":    ms.searchIndexName,
			"compound": compound,
		}}},
		{{Key: "$limit", Value: topK}},
		{{Key: "$project", Value: bson.M{
			"data_path":   1,
			"content":     1,
			"customer_id": 1,
			"score":       bson.M{"$meta": "searchScore"},
		}}},
	}

	return ms.runSearch(ctx, pipeline, func(hit searchHit) models.SearchResult {
		return models.SearchResult{
			ChunkID:  hit.ID,
			DataPath: hit.DataPath,
			Content:  hit.Content,
			Lexical:  hit.Score,
		}
	})
}

func (ms *MongoSearchIndex) runSearch(ctx context.Context, pipeline mongo.Pipeline, convert func(searchHit) models.SearchResult) ([]models.SearchResult, error) {
	cursor, err := ms.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, &UpstreamError{Provider: "search", Err: err}
	}
	defer cursor.Close(ctx)

	var results []models.SearchResult
	for cursor.Next(ctx) {
		var hit searchHit
		if err := cursor.Decode(&hit); err != nil {
			return nil, &UpstreamError{Provider: "search", Err: err}
		}
		results = append(results, convert(hit))
	}
	if err := cursor.Err(); err != nil {
		return nil, &UpstreamError{Provider: "search", Err: err}
	}
	return results, nil
}

// Ping verifies index connectivity for health checks.
func (ms *MongoSearchIndex) Ping(ctx context.Context) error {
	return ms.collection.Database().Client().Ping(ctx, nil)
}
