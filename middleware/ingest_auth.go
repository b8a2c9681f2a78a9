package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"form-query-platform/internal/config"
	"form-query-platform/utils"
)

const IngestSecretHeader = "X-Ingest-Secret"

// RequireIngestSecret guards the ingest endpoint with a shared secret
// header, compared in constant time.
func RequireIngestSecret(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(IngestSecretHeader)
		if provided == "" {
			utils.RespondWithUnauthorized(c, "Ingest secret header is required")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.IngestSecret)) != 1 {
			utils.RespondWithUnauthorized(c, "Invalid ingest secret")
			c.Abort()
			return
		}

		c.Next()
	}
}
