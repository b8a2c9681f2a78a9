package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"form-query-platform/internal/logger"
	"form-query-platform/models"
)

// Generator builds a grounded prompt from retrieved fragments and requests
// a schema-constrained answer from the AI provider.
type Generator struct {
	ai AIProvider
}

func NewGenerator(ai AIProvider) *Generator {
	return &Generator{ai: ai}
}

// Generate answers the question against the given fragments. Unparseable
// completions and completions that fail field validation both surface as
// a GenerationParseError; the pipeline never substitutes defaults for a
// malformed response.
func (g *Generator) Generate(ctx context.Context, question string, fragments []models.SearchResult) (models.GenerationResult, error) {
	prompt := buildPrompt(question, fragments)

	raw, err := g.ai.CompleteStructured(ctx, prompt)
	if err != nil {
		return models.GenerationResult{}, &UpstreamError{Provider: "completion", Err: err}
	}

	var result models.GenerationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return models.GenerationResult{}, &GenerationParseError{Raw: raw, Err: err}
	}

	if err := validateGeneration(result); err != nil {
		return models.GenerationResult{}, &GenerationParseError{Raw: raw, Err: err}
	}

	// An answer with no citations is degraded, not fatal: the orchestrator
	// falls back to the retriever's source paths.
	if len(result.DataPaths) == 0 {
		logger.Warn("Generation cited no data paths", "question_len", len(question))
	}

	return result, nil
}

func buildPrompt(question string, fragments []models.SearchResult) string {
	var b strings.Builder
	b.WriteString("You are answering a question using only the customer data fragments below.\n")
	b.WriteString("Each fragment is labeled with its index and source data path.\n\n")

	for i, fragment := range fragments {
		fmt.Fprintf(&b, "[%d] %s:\n%s\n\n", i+1, fragment.DataPath, fragment.Content)
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString("Respond with JSON containing: answer (grounded in the fragments), ")
	b.WriteString("dataPaths (the source data paths you used), explanation (one short sentence), ")
	b.WriteString("and confidence (0 to 1). Cite only paths that appear above.")
	return b.String()
}

func validateGeneration(result models.GenerationResult) error {
	if strings.TrimSpace(result.Answer) == "" {
		return fmt.Errorf("empty answer")
	}
	if strings.TrimSpace(result.Explanation) == "" {
		return fmt.Errorf("empty explanation")
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return fmt.Errorf("confidence %.3f out of [0,1]", result.Confidence)
	}
	return nil
}
