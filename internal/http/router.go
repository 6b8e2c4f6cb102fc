package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookscan/internal/database"
)

// RouterConfig carries every dependency the router needs, improving
// testability and reducing parameter count.
type RouterConfig struct {
	Flow         Flow
	HistoryStore GenerationLister
	Database     *database.Database
	OutputDir    string
	Version      string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.OutputDir, cfg.Version)
	scanController := NewScanController(cfg.Flow)

	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	router.POST("/api/scan", scanController.Handle)

	if cfg.HistoryStore != nil {
		historyController := NewHistoryController(cfg.HistoryStore)
		router.GET("/api/history", historyController.ListGenerations)
	}

	return router
}
