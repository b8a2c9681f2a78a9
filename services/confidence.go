package services

import (
	"math"

	"form-query-platform/models"
)

// lexicalScoreCeiling is the assumed ceiling of the text engine's score.
// This is a coupling to the configured lexical backend, not a universal
// constant.
const lexicalScoreCeiling = 100.0

// ConfidenceWeights blends the three retrieval/generation signals. The
// config layer validates that they sum to 1.0.
type ConfidenceWeights struct {
	Similarity float64
	Lexical    float64
	LLMSelf    float64
}

// ConfidenceScorer combines similarity, lexical and self-reported signals
// into one score. Pure, no I/O.
type ConfidenceScorer struct {
	weights   ConfidenceWeights
	threshold float64
}

func NewConfidenceScorer(weights ConfidenceWeights, threshold float64) *ConfidenceScorer {
	return &ConfidenceScorer{weights: weights, threshold: threshold}
}

// Score normalizes the three signals and returns their weighted sum
// rounded to 2 decimals. Similarity and llmSelf clamp to [0,1]; lexical
// divides by the backend's score ceiling before clamping.
func (cs *ConfidenceScorer) Score(similarity, lexical, llmSelf float64) models.ConfidenceResult {
	normSimilarity := clamp01(similarity)
	normLexical := clamp01(lexical / lexicalScoreCeiling)
	normLLMSelf := clamp01(llmSelf)

	weighted := cs.weights.Similarity*normSimilarity +
		cs.weights.Lexical*normLexical +
		cs.weights.LLMSelf*normLLMSelf

	return models.ConfidenceResult{
		Score:            math.Round(weighted*100) / 100,
		Similarity:       normSimilarity,
		Lexical:          normLexical,
		LLMSelf:          normLLMSelf,
		WeightSimilarity: cs.weights.Similarity,
		WeightLexical:    cs.weights.Lexical,
		WeightLLMSelf:    cs.weights.LLMSelf,
	}
}

// MeetsThreshold reports whether a final score clears the configured
// confidence threshold.
func (cs *ConfidenceScorer) MeetsThreshold(score float64) bool {
	return score >= cs.threshold
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
