package models

// FormQueryRequest is the body of POST /api/form-query.
type FormQueryRequest struct {
	FormQuestion string `json:"formQuestion" binding:"required,min=1,max=1000"`
	CustomerID   string `json:"customerId" binding:"omitempty,min=1,max=100"`
}

// SourceRef points a caller at one indexed fragment that backed the answer.
type SourceRef struct {
	DataPath string  `json:"dataPath"`
	Score    float64 `json:"score"`
}

// FormQueryResponse is the payload under data{} in the form-query response.
// The persisted cache copy always carries Cached=false; the orchestrator
// flips it to true at cache-read time, never at write time.
type FormQueryResponse struct {
	Answer     string      `json:"answer"`
	DataPath   []string    `json:"dataPath"`
	Confidence float64     `json:"confidence"`
	Sources    []SourceRef `json:"sources"`
	Cached     bool        `json:"cached"`
}

// IngestRequest is the body of POST /api/ingest.
type IngestRequest struct {
	CustomerID   string `json:"customerId" binding:"required,min=1,max=100"`
	ForceReindex bool   `json:"forceReindex"`
}

// IngestResult reports how much work a completed ingestion did.
type IngestResult struct {
	CustomerID         string `json:"customerId"`
	DocumentsProcessed int    `json:"documentsProcessed"`
	ChunksCreated      int    `json:"chunksCreated"`
	Success            bool   `json:"success"`
}
