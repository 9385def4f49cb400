package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/question-import-service/internal/services"
	"github.com/SAP-F-2025/question-import-service/internal/utils"
)

type HandlerManager struct {
	importHandler *ImportHandler
}

func NewHandlerManager(importService services.ImportService, maxUploadBytes int64, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		importHandler: NewImportHandler(importService, maxUploadBytes, logger),
	}
}

// SetupRoutes sets up all API routes. auth guards every /api/v1 route.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(auth)
	{
		imports := v1.Group("/imports")
		{
			imports.POST("", hm.importHandler.ImportBundle)
			imports.GET("/:id", hm.importHandler.GetImportJob)
			imports.GET("/:id/questions", hm.importHandler.ListImportedQuestions)
			imports.DELETE("/:id", hm.importHandler.DeleteImport)
		}
		v1.GET("/media/:scope/:name", hm.importHandler.GetMedia)
	}
}

// HealthCheck reports service liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "question-import-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
