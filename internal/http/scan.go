package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookscan/internal/metadata"
	"github.com/mrlokans/bookscan/internal/workflow"
)

const (
	actionSearch      = "search"
	actionManual      = "manual_search"
	actionCoverSearch = "gemini_cover_search"
	actionConfirm     = "confirm_epub_creation"
)

// Flow is the subset of the workflow controller the scan endpoint drives.
type Flow interface {
	SearchByISBN(ctx context.Context, isbn string) (*workflow.FlowResult, error)
	ManualSearch(ctx context.Context, title, author string) (*workflow.FlowResult, error)
	CoverSearch(ctx context.Context, imageDataURI string) (*workflow.FlowResult, error)
	ConfirmAndGenerate(ctx context.Context, rec metadata.BookRecord) (*workflow.GenerateResult, error)
}

type ScanRequest struct {
	Action    string               `json:"action"`
	ISBN      string               `json:"isbn"`
	Title     string               `json:"title"`
	Author    string               `json:"author"`
	ImageData string               `json:"image_data"`
	Metadata  *metadata.BookRecord `json:"metadata"`
}

type ScanController struct {
	flow Flow
}

func NewScanController(flow Flow) *ScanController {
	return &ScanController{flow: flow}
}

// Handle dispatches a scan request on its action discriminator. Every
// failure is reported through the same {success:false, ...} envelope.
func (controller *ScanController) Handle(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body: " + err.Error()})
		return
	}

	action := strings.TrimSpace(req.Action)
	if action == "" {
		action = actionSearch
	}

	switch action {
	case actionSearch:
		controller.search(c, req)
	case actionManual:
		controller.manualSearch(c, req)
	case actionCoverSearch:
		controller.coverSearch(c, req)
	case actionConfirm:
		controller.confirm(c, req)
	default:
		c.IndentedJSON(http.StatusBadRequest, gin.H{"success": false, "message": "unknown action: " + action})
	}
}

func (controller *ScanController) search(c *gin.Context, req ScanRequest) {
	if strings.TrimSpace(req.ISBN) == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"success": false, "message": "isbn is required"})
		return
	}

	res, err := controller.flow.SearchByISBN(c.Request.Context(), req.ISBN)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	if res.State == workflow.StateManualFallback {
		c.IndentedJSON(http.StatusOK, gin.H{
			"success":                false,
			"requires_manual_search": true,
			"isbn_fallback":          res.FallbackISBN,
		})
		return
	}

	controller.resolved(c, res)
}

func (controller *ScanController) manualSearch(c *gin.Context, req ScanRequest) {
	res, err := controller.flow.ManualSearch(c.Request.Context(), req.Title, req.Author)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, workflow.ErrNotFound) {
			status = http.StatusOK
		}
		c.IndentedJSON(status, gin.H{"success": false, "message": err.Error()})
		return
	}

	controller.resolved(c, res)
}

func (controller *ScanController) coverSearch(c *gin.Context, req ScanRequest) {
	if req.ImageData == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"success": false, "message": "image_data is required"})
		return
	}

	res, err := controller.flow.CoverSearch(c.Request.Context(), req.ImageData)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	controller.resolved(c, res)
}

func (controller *ScanController) confirm(c *gin.Context, req ScanRequest) {
	if req.Metadata == nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"success": false, "message": "metadata is required"})
		return
	}

	res, err := controller.flow.ConfirmAndGenerate(c.Request.Context(), *req.Metadata)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "EPUB created successfully",
		"filename": res.Filename,
		"metadata": gin.H{
			"title":     res.Record.Title,
			"author":    res.Record.Author,
			"publisher": res.Record.Publisher,
			"isbn":      res.Record.ISBN,
		},
	})
}

// resolved renders the shared success shape for every resolution outcome
// that reached confirmation or selection.
func (controller *ScanController) resolved(c *gin.Context, res *workflow.FlowResult) {
	switch res.State {
	case workflow.StateSelecting:
		c.IndentedJSON(http.StatusOK, gin.H{
			"success":            true,
			"requires_selection": true,
			"options":            res.Candidates,
		})
	case workflow.StateConfirming:
		c.IndentedJSON(http.StatusOK, gin.H{
			"success":               true,
			"requires_confirmation": true,
			"metadata":              res.Record,
		})
	default:
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "unexpected resolution state"})
	}
}
