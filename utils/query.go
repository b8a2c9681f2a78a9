package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var (
	nonWordRegex    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// NormalizeQuery canonicalizes a question for cache keying: lowercase,
// trimmed, punctuation stripped, internal whitespace collapsed. Pure and
// idempotent.
func NormalizeQuery(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = nonWordRegex.ReplaceAllString(s, "")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// QueryCacheKey derives the deterministic cache key for a normalized
// question within a customer scope. Different scopes never collide even
// for identical question text.
func QueryCacheKey(normalized, customerID string) string {
	sum := sha256.Sum256([]byte(normalized + "|" + customerID))
	return "query:" + hex.EncodeToString(sum[:])
}

// CustomerDataKey namespaces the cached raw customer JSON document.
func CustomerDataKey(customerID string) string {
	return fmt.Sprintf("customer:%s:data", customerID)
}

// IngestionMarkerKey namespaces the "already indexed" flag for a customer.
func IngestionMarkerKey(customerID string) string {
	return fmt.Sprintf("customer:%s:indexed", customerID)
}

// ChunkID derives the deterministic index id for one chunk so that
// re-ingesting identical content upserts the same documents.
func ChunkID(customerID, dataPath string, chunkIndex int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", customerID, dataPath, chunkIndex)))
	return hex.EncodeToString(sum[:])
}
