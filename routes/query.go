package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"form-query-platform/internal/config"
	"form-query-platform/internal/logger"
	"form-query-platform/models"
	"form-query-platform/services"
	"form-query-platform/utils"
)

func SetupQueryRoutes(router *gin.Engine, cfg *config.Config, orchestrator *services.QueryOrchestrator) {
	api := router.Group("/api")

	api.POST("/form-query", func(c *gin.Context) {
		var req models.FormQueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		question := req.FormQuestion
		if cfg.PIIRedactionEnabled {
			question = utils.RedactPII(question)
		}

		response, err := orchestrator.Answer(c.Request.Context(), question, req.CustomerID)
		if err != nil {
			respondPipelineError(c, cfg, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    response,
		})
	})
}

// respondPipelineError maps pipeline failures to HTTP responses: generic
// message in release mode, detailed in debug.
func respondPipelineError(c *gin.Context, cfg *config.Config, err error) {
	logger.Error("Query pipeline failed", "error", err, "path", c.FullPath())

	message := "Failed to process the question"
	var details interface{}
	if cfg.GinMode == "debug" {
		details = gin.H{"error": err.Error()}
	}

	var parseErr *services.GenerationParseError
	if errors.As(err, &parseErr) {
		utils.RespondWithError(c, http.StatusInternalServerError, "generation_error", message, details)
		return
	}

	utils.RespondWithInternalError(c, message, details)
}
