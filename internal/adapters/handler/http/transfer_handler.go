package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/blocktracker-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/services"
)

const maxImportSize = 16 << 20

type TransferHandler struct {
	svc *services.TransferService
}

func NewTransferHandler(svc *services.TransferService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

func (h *TransferHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/export", h.Export)
	r.POST("/import", h.Import)
}

func (h *TransferHandler) Export(c *gin.Context) {
	data, err := h.svc.ExportJSON(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	filename := fmt.Sprintf("blocktracker-export-%s.json", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/json", data)
}

// Import replaces all stored data with the uploaded export document.
func (h *TransferHandler) Import(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "import document too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	subject, _ := middleware.GetSubject(c)
	log.Printf("[IMPORT] %d bytes uploaded by %q", len(body), subject)

	result, err := h.svc.Import(c.Request.Context(), body)
	respondEvaluation(c, result, err)
}
