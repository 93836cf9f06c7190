package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Aashish23092/income-underwriting/logger"
)

// SetupRouter registers the health, metrics and API routes.
func SetupRouter(h *UnderwritingHandler, maxUploadMB int64, log *zap.Logger) *gin.Engine {
	log = logger.OrNop(log)

	router := gin.New()
	router.Use(gin.Recovery(), RequestMetrics(log))

	if maxUploadMB > 0 {
		router.MaxMultipartMemory = maxUploadMB << 20
		router.Use(LimitRequestBody(maxUploadMB << 20))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Income Underwriting",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/income/extract", h.ExtractIncome)
		api.POST("/underwriting/evaluate", h.EvaluateApplication)
		api.POST("/policy/evaluate", h.EvaluatePolicy)
	}

	return router
}
