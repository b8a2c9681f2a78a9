package models

// FlatField is one (path, leaf value) pair produced by flattening a
// customer's JSON document.
type FlatField struct {
	Path  string
	Value string
}

// FormChunkIndex is a denormalized chunk stored in the form_chunks
// collection for Atlas $search/$vectorSearch. The _id is derived
// deterministically from (customer, path, chunk index) so re-ingestion
// upserts in place instead of accumulating duplicates.
type FormChunkIndex struct {
	ID            string    `bson:"_id" json:"id"`
	CustomerID    string    `bson:"customer_id" json:"customerId"`
	DataPath      string    `bson:"data_path" json:"dataPath"`
	ChunkIndex    int       `bson:"chunk_index" json:"chunkIndex"`
	Content       string    `bson:"content" json:"content"`
	ContentVector []float32 `bson:"content_vector" json:"contentVector"`
}

// SearchResult is one ranked hit from hybrid search. Similarity is the
// vector score in [0,1]; Lexical is the text engine's score and is
// unbounded (Lucene-style), with HasLexical false when the text branch
// produced no score for this chunk.
type SearchResult struct {
	ChunkID    string
	DataPath   string
	Content    string
	Similarity float64
	Lexical    float64
	HasLexical bool
}

// RetrievalSummary aggregates one retrieval pass: the ranked results plus
// the signal averages the confidence scorer consumes.
type RetrievalSummary struct {
	Results       []SearchResult
	AvgSimilarity float64
	AvgLexical    float64
}
