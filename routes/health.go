package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"form-query-platform/services"
)

func SetupHealthRoutes(router *gin.Engine, cache services.KVCache, index services.SearchIndex) {
	router.GET("/health", func(c *gin.Context) {
		cacheStatus := "ok"
		searchStatus := "ok"

		if err := cache.Ping(c.Request.Context()); err != nil {
			cacheStatus = "unreachable"
		}
		if err := index.Ping(c.Request.Context()); err != nil {
			searchStatus = "unreachable"
		}

		status := "ok"
		code := http.StatusOK
		if cacheStatus != "ok" || searchStatus != "ok" {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now(),
			"dependencies": gin.H{
				"cache":  cacheStatus,
				"search": searchStatus,
			},
		})
	})
}
