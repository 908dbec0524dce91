package http_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

func seedSession(t *testing.T, api *testAPI, start time.Time, blocs ...map[string]interface{}) string {
	t.Helper()

	w := api.do(http.MethodPost, "/api/v1/sessions", map[string]interface{}{"start_date": start})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[mutationBody](t, w).Session.ID

	for _, b := range blocs {
		w := api.do(http.MethodPost, "/api/v1/sessions/"+id+"/blocs", b)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = api.do(http.MethodPost, "/api/v1/sessions/"+id+"/finish", map[string]interface{}{"end_date": start.Add(time.Hour)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return id
}

func TestStatsHandler(t *testing.T) {
	api := setupAPI(t)
	day := time.Date(2024, 3, 10, 17, 0, 0, 0, time.UTC)

	t.Run("Success: Empty history", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/stats", nil)
		require.Equal(t, http.StatusOK, w.Code)

		stats := decode[domain.GlobalStats](t, w)
		assert.Zero(t, stats.TotalSessions)
		assert.Zero(t, stats.GlobalSuccessRate)
	})

	first := seedSession(t, api, day,
		map[string]interface{}{"level": 4, "completed": true, "attempts": 1, "overhang": true},
		map[string]interface{}{"level": 6, "completed": false, "attempts": 5},
	)
	seedSession(t, api, day.AddDate(0, 0, 2),
		map[string]interface{}{"level": 7, "completed": true, "attempts": 2},
	)

	t.Run("Success: Aggregates every session", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/stats", nil)
		require.Equal(t, http.StatusOK, w.Code)

		stats := decode[domain.GlobalStats](t, w)
		assert.Equal(t, 2, stats.TotalSessions)
		assert.Equal(t, 2, stats.TotalCompletedBlocs)
		assert.Equal(t, 7, stats.MaxLevelCompleted)
		assert.Equal(t, 1, stats.TotalFlashBlocs)
		assert.Equal(t, 1, stats.TotalOverhangCompleted)
		assert.True(t, stats.HasPerfectSession)
		assert.True(t, stats.CompletedLevels.Contains(4))
		assert.True(t, stats.CompletedLevels.Contains(7))
		assert.False(t, stats.CompletedLevels.Contains(6))
		assert.Len(t, stats.ScoreHistory, 2)
	})

	t.Run("Success: Session summary", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/sessions/"+first+"/summary", nil)
		require.Equal(t, http.StatusOK, w.Code)

		summary := decode[domain.SessionSummary](t, w)
		assert.Equal(t, first, summary.SessionID)
		assert.Equal(t, 2, summary.BlocCount)
		assert.Equal(t, 4, summary.MinBlocLevel)
		assert.Equal(t, 6, summary.MaxBlocLevel)
		assert.InDelta(t, 5.0, summary.AverageBlocLevel, 1e-9)
		assert.Equal(t, 1, summary.OverhangBlocCount)
		assert.Equal(t, time.Hour, summary.Duration)
	})

	t.Run("Fail: 404 Unknown session summary", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/sessions/nope/summary", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
