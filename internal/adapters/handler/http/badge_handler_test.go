package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/badges"
)

type badgeListBody struct {
	Badges []struct {
		ID       string          `json:"id"`
		Category badges.Category `json:"category"`
		Unlocked bool            `json:"unlocked"`
	} `json:"badges"`
	Unlocked int `json:"unlocked"`
	Total    int `json:"total"`
}

type evaluationBody struct {
	Stats struct {
		TotalSessions int `json:"total_sessions"`
	} `json:"stats"`
	Unlocked []struct {
		ID string `json:"id"`
	} `json:"unlocked"`
	Error string `json:"error"`
}

func TestBadgeHandler_List(t *testing.T) {
	api := setupAPI(t)

	t.Run("Success: Full catalog with nothing unlocked", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/badges", nil)
		require.Equal(t, http.StatusOK, w.Code)

		body := decode[badgeListBody](t, w)
		assert.Equal(t, badges.Default().Len(), body.Total)
		assert.Len(t, body.Badges, body.Total)
		assert.Zero(t, body.Unlocked)
	})

	t.Run("Success: Category filter", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/badges?category=sessions", nil)
		require.Equal(t, http.StatusOK, w.Code)

		body := decode[badgeListBody](t, w)
		assert.Equal(t, len(badges.Default().InCategory(badges.CategorySessions)), body.Total)
		for _, b := range body.Badges {
			assert.Equal(t, badges.CategorySessions, b.Category)
		}
	})

	t.Run("Fail: 400 Unknown category", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/badges?category=legendary", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unknown badge category")
	})

	t.Run("Success: Unlock state follows sessions", func(t *testing.T) {
		require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/sessions", nil).Code)

		body := decode[badgeListBody](t, api.do(http.MethodGet, "/api/v1/badges?category=sessions", nil))
		assert.Equal(t, 1, body.Unlocked)
		for _, b := range body.Badges {
			assert.Equal(t, b.ID == "first_session", b.Unlocked, b.ID)
		}
	})
}

func TestBadgeHandler_Evaluate(t *testing.T) {
	t.Run("Success: Nothing to change", func(t *testing.T) {
		api := setupAPI(t)

		w := api.do(http.MethodPost, "/api/v1/badges/evaluate", nil)
		require.Equal(t, http.StatusOK, w.Code)

		body := decode[evaluationBody](t, w)
		assert.Zero(t, body.Stats.TotalSessions)
		assert.Empty(t, body.Unlocked)
	})

	t.Run("Fail: 503 Delta is still returned when it cannot be saved", func(t *testing.T) {
		api := setupBrokenBadgeAPI(t)
		require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/sessions", nil).Code)

		w := api.do(http.MethodPost, "/api/v1/badges/evaluate", nil)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		body := decode[evaluationBody](t, w)
		assert.Equal(t, 1, body.Stats.TotalSessions)
		require.NotEmpty(t, body.Unlocked)
		assert.Equal(t, "first_session", body.Unlocked[0].ID)
		assert.NotEmpty(t, body.Error)
	})
}
