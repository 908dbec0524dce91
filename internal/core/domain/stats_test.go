package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

func sessionAt(start time.Time, blocs ...*domain.Bloc) *domain.Session {
	s := domain.NewSession(start)
	for _, b := range blocs {
		b.SessionID = s.ID
	}
	s.Blocs = blocs
	return s
}

func bloc(level int, completed bool, attempts int, overhang bool) *domain.Bloc {
	return &domain.Bloc{Level: level, Completed: completed, Attempts: attempts, Overhang: overhang}
}

func TestComputeStats_Empty(t *testing.T) {
	stats := domain.ComputeStats(nil)

	assert.Equal(t, domain.GlobalStats{}, stats)
	assert.False(t, stats.CompletedLevels.Contains(1))

	assert.Equal(t, domain.GlobalStats{}, domain.ComputeStats([]*domain.Session{}))
}

func TestComputeStats_Aggregates(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 1, d, 18, 0, 0, 0, time.UTC) }

	early := sessionAt(day(1),
		bloc(4, true, 1, false),
		bloc(6, true, 3, true),
		bloc(8, false, 5, true),
	)
	perfect := sessionAt(day(3),
		bloc(5, true, 1, true),
	)
	empty := sessionAt(day(2))

	sessions := []*domain.Session{perfect, early, empty}
	stats := domain.ComputeStats(sessions)

	assert.Equal(t, 3, stats.TotalSessions)
	assert.InDelta(t, (early.TotalScore()+perfect.TotalScore())/3, stats.GlobalAverageScore, 1e-9)
	assert.InDelta(t, (6.0+5.0+0.0)/3, stats.GlobalAverageLevel, 1e-9)
	assert.Equal(t, 1, stats.AverageBlocsPerSession, "4 blocs / 3 sessions truncates to 1")
	assert.Equal(t, 8, stats.MaxLevelCompleted)
	assert.Equal(t, 3, stats.TotalCompletedBlocs)
	assert.InDelta(t, 75.0, stats.GlobalSuccessRate, 1e-9)
	assert.InDelta(t, 0.75, stats.OverhangRatio, 1e-9)
	assert.Equal(t, 2, stats.TotalFlashBlocs)
	assert.Equal(t, 2, stats.TotalOverhangCompleted)
	assert.True(t, stats.HasPerfectSession)
	assert.Equal(t, 3, stats.MaxBlocsInSession)
	assert.InDelta(t, 6.0, stats.MaxAverageLevelInSession, 1e-9)

	assert.Equal(t, []int{4, 5, 6}, stats.CompletedLevels.Sorted())
	assert.Equal(t, []int{4, 5}, stats.FlashedLevels.Sorted())
	assert.Equal(t, []int{5, 6}, stats.OverhangLevels.Sorted())
	assert.False(t, stats.CompletedLevels.Contains(8), "failed blocs never count as completed levels")

	require.Len(t, stats.ScoreHistory, 3)
	require.Len(t, stats.LevelHistory, 3)
	assert.Equal(t, day(1), stats.ScoreHistory[0].Date)
	assert.Equal(t, day(2), stats.ScoreHistory[1].Date)
	assert.Equal(t, day(3), stats.ScoreHistory[2].Date)
	assert.InDelta(t, early.TotalScore(), stats.ScoreHistory[0].Value, 1e-9)
	assert.InDelta(t, 0.0, stats.LevelHistory[1].Value, 1e-9)
	assert.InDelta(t, 5.0, stats.LevelHistory[2].Value, 1e-9)

	assert.Same(t, perfect, sessions[0], "input slice must not be reordered")
}

func TestComputeStats_OrderInvariance(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 2, d, 9, 0, 0, 0, time.UTC) }
	a := sessionAt(day(5), bloc(10, true, 1, false), bloc(3, false, 2, false))
	b := sessionAt(day(1), bloc(7, true, 4, true))
	c := sessionAt(day(3), bloc(2, true, 1, false), bloc(2, true, 1, true))

	forward := domain.ComputeStats([]*domain.Session{a, b, c})
	reversed := domain.ComputeStats([]*domain.Session{c, b, a})

	assert.Equal(t, forward.TotalSessions, reversed.TotalSessions)
	assert.InDelta(t, forward.GlobalAverageScore, reversed.GlobalAverageScore, 1e-9)
	assert.InDelta(t, forward.GlobalAverageLevel, reversed.GlobalAverageLevel, 1e-9)
	assert.Equal(t, forward.TotalCompletedBlocs, reversed.TotalCompletedBlocs)
	assert.Equal(t, forward.CompletedLevels, reversed.CompletedLevels)
	assert.Equal(t, forward.FlashedLevels, reversed.FlashedLevels)
	assert.Equal(t, forward.OverhangLevels, reversed.OverhangLevels)
	assert.Equal(t, forward.ScoreHistory, reversed.ScoreHistory)
	assert.Equal(t, forward.LevelHistory, reversed.LevelHistory)

	for i := 1; i < len(forward.ScoreHistory); i++ {
		assert.True(t, forward.ScoreHistory[i-1].Date.Before(forward.ScoreHistory[i].Date))
	}
}

func TestComputeStats_PerfectSession(t *testing.T) {
	t.Run("Success: All blocs completed", func(t *testing.T) {
		stats := domain.ComputeStats([]*domain.Session{
			sessionAt(time.Now(), bloc(3, true, 2, false), bloc(4, true, 1, false)),
		})
		assert.True(t, stats.HasPerfectSession)
	})

	t.Run("Edge Case: Empty bloc list is never perfect", func(t *testing.T) {
		stats := domain.ComputeStats([]*domain.Session{sessionAt(time.Now())})
		assert.False(t, stats.HasPerfectSession)
	})

	t.Run("Edge Case: One failed bloc breaks perfection", func(t *testing.T) {
		stats := domain.ComputeStats([]*domain.Session{
			sessionAt(time.Now(), bloc(3, true, 1, false), bloc(4, false, 1, false)),
		})
		assert.False(t, stats.HasPerfectSession)
	})
}

func TestLevelSet_JSON(t *testing.T) {
	set := domain.NewLevelSet(9, 2, 5)

	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `[2,5,9]`, string(data))

	var back domain.LevelSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Contains(5))
	assert.False(t, back.Contains(6))
}
