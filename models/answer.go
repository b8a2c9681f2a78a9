package models

// GenerationResult is the structured answer parsed out of the model's
// JSON completion. Validate before trusting any field.
type GenerationResult struct {
	Answer      string   `json:"answer"`
	DataPaths   []string `json:"dataPaths"`
	Explanation string   `json:"explanation"`
	Confidence  float64  `json:"confidence"`
}

// ConfidenceResult carries the final blended score together with the
// normalized components and the weights that produced it.
type ConfidenceResult struct {
	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
	Lexical    float64 `json:"lexical"`
	LLMSelf    float64 `json:"llmSelf"`

	WeightSimilarity float64 `json:"weightSimilarity"`
	WeightLexical    float64 `json:"weightLexical"`
	WeightLLMSelf    float64 `json:"weightLlmSelf"`
}
