package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/services"
)

type SessionHandler struct {
	svc *services.SessionService
}

func NewSessionHandler(svc *services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type startSessionRequest struct {
	StartDate   *time.Time `json:"start_date"`
	Placeholder bool       `json:"placeholder"`
}

type finishSessionRequest struct {
	EndDate *time.Time `json:"end_date"`
}

type blocRequest struct {
	Level     int  `json:"level" binding:"required"`
	Completed bool `json:"completed"`
	Attempts  int  `json:"attempts"`
	Overhang  bool `json:"overhang"`
}

type sessionResponse struct {
	Session *domain.Session       `json:"session"`
	Summary domain.SessionSummary `json:"summary"`
}

func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/sessions")
	{
		sessions.POST("", h.Start)
		sessions.GET("", h.List)
		sessions.GET("/active", h.Active)
		sessions.GET("/:id", h.Get)
		sessions.POST("/:id/finish", h.Finish)
		sessions.DELETE("/:id", h.Delete)

		sessions.POST("/:id/blocs", h.AddBloc)
		sessions.PUT("/:id/blocs/:blocId", h.UpdateBloc)
		sessions.DELETE("/:id/blocs/:blocId", h.RemoveBloc)
	}
}

// bindOptionalJSON accepts an empty body and leaves dst untouched in that case.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return false
	}
	return true
}

func (h *SessionHandler) Start(c *gin.Context) {
	var req startSessionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	input := services.StartSessionInput{WithPlaceholder: req.Placeholder}
	if req.StartDate != nil {
		input.StartDate = *req.StartDate
	}

	result, err := h.svc.Start(c.Request.Context(), input)
	respondMutation(c, http.StatusCreated, result, err)
}

func (h *SessionHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *SessionHandler) Active(c *gin.Context) {
	session, err := h.svc.Active(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{Session: session, Summary: session.Summary()})
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{Session: session, Summary: session.Summary()})
}

func (h *SessionHandler) Finish(c *gin.Context) {
	var req finishSessionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	var at time.Time
	if req.EndDate != nil {
		at = *req.EndDate
	}

	result, err := h.svc.Finish(c.Request.Context(), c.Param("id"), at)
	respondMutation(c, http.StatusOK, result, err)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	result, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	respondMutation(c, http.StatusOK, result, err)
}

func (h *SessionHandler) AddBloc(c *gin.Context) {
	var req blocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.svc.AddBloc(c.Request.Context(), req.input(c.Param("id"), ""))
	respondMutation(c, http.StatusCreated, result, err)
}

func (h *SessionHandler) UpdateBloc(c *gin.Context) {
	var req blocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.svc.UpdateBloc(c.Request.Context(), req.input(c.Param("id"), c.Param("blocId")))
	respondMutation(c, http.StatusOK, result, err)
}

func (h *SessionHandler) RemoveBloc(c *gin.Context) {
	result, err := h.svc.RemoveBloc(c.Request.Context(), c.Param("id"), c.Param("blocId"))
	respondMutation(c, http.StatusOK, result, err)
}

func (r blocRequest) input(sessionID, blocID string) services.BlocInput {
	return services.BlocInput{
		SessionID: sessionID,
		BlocID:    blocID,
		Level:     r.Level,
		Completed: r.Completed,
		Attempts:  r.Attempts,
		Overhang:  r.Overhang,
	}
}
