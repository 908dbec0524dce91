package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/badges"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/services"
)

type BadgeHandler struct {
	svc *services.BadgeService
}

func NewBadgeHandler(svc *services.BadgeService) *BadgeHandler {
	return &BadgeHandler{svc: svc}
}

func (h *BadgeHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/badges")
	{
		group.GET("", h.List)
		group.POST("/evaluate", h.Evaluate)
	}
}

func (h *BadgeHandler) List(c *gin.Context) {
	var category badges.Category
	if raw := c.Query("category"); raw != "" {
		parsed, err := badges.ParseCategory(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "categories": badges.Categories})
			return
		}
		category = parsed
	}

	list, err := h.svc.List(c.Request.Context(), category)
	if err != nil {
		handleError(c, err)
		return
	}

	unlocked := 0
	for _, b := range list {
		if b.Unlocked {
			unlocked++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"badges":   list,
		"unlocked": unlocked,
		"total":    len(list),
	})
}

// Evaluate recomputes statistics from every session and reconciles the unlock state.
func (h *BadgeHandler) Evaluate(c *gin.Context) {
	result, err := h.svc.Refresh(c.Request.Context())
	respondEvaluation(c, result, err)
}
