package http

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookscan/internal/database"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db        *database.Database
	outputDir string
	version   string
}

func NewHealthController(db *database.Database, outputDir, version string) *HealthController {
	return &HealthController{
		db:        db,
		outputDir: outputDir,
		version:   version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		sqlDB, err := h.db.DB.DB()
		if err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else if err := sqlDB.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	if h.outputDir != "" {
		if info, err := os.Stat(h.outputDir); err != nil {
			checks["output_dir"] = "error: " + err.Error()
			status = "unhealthy"
		} else if !info.IsDir() {
			checks["output_dir"] = "error: not a directory"
			status = "unhealthy"
		} else {
			checks["output_dir"] = "ok"
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
