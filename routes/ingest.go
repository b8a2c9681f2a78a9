package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"form-query-platform/internal/config"
	"form-query-platform/internal/logger"
	"form-query-platform/middleware"
	"form-query-platform/models"
	"form-query-platform/services"
	"form-query-platform/utils"
)

func SetupIngestRoutes(router *gin.Engine, cfg *config.Config, ingestor *services.Ingestor, cache services.KVCache) {
	api := router.Group("/api")
	api.Use(middleware.RequireIngestSecret(cfg))

	api.POST("/ingest", func(c *gin.Context) {
		var req models.IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		result, err := ingestor.Ingest(c.Request.Context(), req.CustomerID, req.ForceReindex)
		if err != nil {
			if errors.Is(err, services.ErrCustomerDataNotFound) {
				utils.RespondWithError(c, http.StatusNotFound, "customer_not_found",
					"No source data found for customer", gin.H{"customerId": req.CustomerID})
				return
			}
			respondPipelineError(c, cfg, err)
			return
		}

		// A completed ingestion refreshes the marker so queries skip the
		// on-demand path for the next window
		markerKey := utils.IngestionMarkerKey(req.CustomerID)
		if err := cache.SetJSON(c.Request.Context(), markerKey, true, cfg.CustomerDataTTL); err != nil {
			logger.Warn("Failed to set ingestion marker", "customer_id", req.CustomerID, "error", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    result,
		})
	})
}
