package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/services"
)

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidLevel),
		errors.Is(err, domain.ErrInvalidEndDate),
		errors.Is(err, domain.ErrInvalidDocument),
		errors.Is(err, domain.ErrCorruptedData):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrBlocNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrActiveSessionExists) || errors.Is(err, domain.ErrSessionAlreadyFinished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrIncompatibleVersion):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrBadgePersistence) || errors.Is(err, domain.ErrImportFailed):
		log.Printf("[ERROR] Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, try again"})

	default:
		log.Printf("[ERROR] Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

type mutationResponse struct {
	*services.MutationResult
	BadgeError string `json:"badge_error,omitempty"`
}

// respondMutation writes a session change. A result that comes back with an error means the
// change was stored but the badge refresh failed, so the client still gets the change.
func respondMutation(c *gin.Context, status int, result *services.MutationResult, err error) {
	if result == nil {
		handleError(c, err)
		return
	}

	resp := mutationResponse{MutationResult: result}
	if err != nil {
		log.Printf("[BADGES] %s %s stored, badge refresh failed: %v", c.Request.Method, c.Request.URL.Path, err)
		resp.BadgeError = "badge state could not be updated, it will be recomputed on the next change"
	}

	c.JSON(status, resp)
}

type evaluationResponse struct {
	*services.EvaluationResult
	Error string `json:"error,omitempty"`
}

// respondEvaluation answers 503 with the computed delta when the unlock state could not be saved.
func respondEvaluation(c *gin.Context, result *services.EvaluationResult, err error) {
	if err == nil {
		c.JSON(http.StatusOK, evaluationResponse{EvaluationResult: result})
		return
	}
	if result == nil || !errors.Is(err, domain.ErrBadgePersistence) {
		handleError(c, err)
		return
	}

	log.Printf("[BADGES] Evaluation computed but not persisted: %v", err)
	c.JSON(http.StatusServiceUnavailable, evaluationResponse{
		EvaluationResult: result,
		Error:            "badge state could not be saved",
	})
}
