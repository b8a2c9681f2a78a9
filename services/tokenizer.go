package services

import (
	"fmt"
	"strings"
)

// TokenizerService splits text into overlapping token-bounded windows.
// Tokens are whitespace-delimited; the external embedding model does its
// own subword tokenization, this only bounds request sizes.
type TokenizerService struct {
	size    int
	overlap int
}

// NewTokenizerService creates a tokenizer. overlap must be smaller than
// size or the window start would never advance.
func NewTokenizerService(size, overlap int) (*TokenizerService, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlap, size)
	}
	return &TokenizerService{size: size, overlap: overlap}, nil
}

// Chunk splits text into windows of size tokens, each subsequent window
// starting size-overlap tokens after the previous one. The final window
// may be shorter and is emitted once. Input at or under size tokens yields
// exactly one chunk.
func (ts *TokenizerService) Chunk(text string) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return []string{}
	}
	if len(tokens) <= ts.size {
		return []string{strings.Join(tokens, " ")}
	}

	step := ts.size - ts.overlap
	var chunks []string
	for start := 0; ; start += step {
		end := start + ts.size
		if end >= len(tokens) {
			chunks = append(chunks, strings.Join(tokens[start:], " "))
			break
		}
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
	}
	return chunks
}

// CountTokens returns the whitespace token count of text.
func (ts *TokenizerService) CountTokens(text string) int {
	return len(strings.Fields(text))
}

// Truncate cuts text down to at most maxTokens tokens.
func (ts *TokenizerService) Truncate(text string, maxTokens int) string {
	tokens := strings.Fields(text)
	if maxTokens <= 0 {
		return ""
	}
	if len(tokens) <= maxTokens {
		return strings.Join(tokens, " ")
	}
	return strings.Join(tokens[:maxTokens], " ")
}
