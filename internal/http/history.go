package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookscan/internal/entities"
)

const defaultHistoryLimit = 50

// GenerationLister reads past generations, newest first.
type GenerationLister interface {
	ListGenerations(limit int) ([]entities.Generation, error)
}

type HistoryController struct {
	store GenerationLister
}

func NewHistoryController(store GenerationLister) *HistoryController {
	return &HistoryController{store: store}
}

func (controller *HistoryController) ListGenerations(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	generations, err := controller.store.ListGenerations(limit)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"generations": generations,
		"count":       len(generations),
	})
}
