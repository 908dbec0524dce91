package domain

import (
	"encoding/json"
	"slices"
	"sort"
	"time"
)

// GlobalStats is an all-time snapshot recomputed from every session. It is never persisted.
type GlobalStats struct {
	TotalSessions          int     `json:"total_sessions"`
	GlobalAverageScore     float64 `json:"global_average_score"`
	GlobalAverageLevel     float64 `json:"global_average_level"`
	AverageBlocsPerSession int     `json:"average_blocs_per_session"`
	GlobalSuccessRate      float64 `json:"global_success_rate"`
	TotalCompletedBlocs    int     `json:"total_completed_blocs"`
	MaxLevelCompleted      int     `json:"max_level_completed"`
	OverhangRatio          float64 `json:"overhang_ratio"`
	TotalFlashBlocs        int     `json:"total_flash_blocs"`
	HasPerfectSession      bool    `json:"has_perfect_session"`
	TotalOverhangCompleted int     `json:"total_overhang_completed"`

	MaxBlocsInSession        int     `json:"max_blocs_in_session"`
	MaxAverageLevelInSession float64 `json:"max_average_level_in_session"`

	CompletedLevels LevelSet `json:"completed_levels"`
	FlashedLevels   LevelSet `json:"flashed_levels"`
	OverhangLevels  LevelSet `json:"overhang_levels"`

	ScoreHistory []ChartPoint `json:"score_history"`
	LevelHistory []ChartPoint `json:"level_history"`
}

type ChartPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// LevelSet is a set of bloc levels. The nil set is empty and safe to query.
type LevelSet map[int]struct{}

func NewLevelSet(levels ...int) LevelSet {
	set := make(LevelSet, len(levels))
	for _, l := range levels {
		set[l] = struct{}{}
	}
	return set
}

func (s LevelSet) Contains(level int) bool {
	_, ok := s[level]
	return ok
}

func (s LevelSet) add(level int) LevelSet {
	if s == nil {
		s = make(LevelSet)
	}
	s[level] = struct{}{}
	return s
}

// Sorted returns the levels in ascending order.
func (s LevelSet) Sorted() []int {
	levels := make([]int, 0, len(s))
	for l := range s {
		levels = append(levels, l)
	}
	slices.Sort(levels)
	return levels
}

func (s LevelSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *LevelSet) UnmarshalJSON(data []byte) error {
	var levels []int
	if err := json.Unmarshal(data, &levels); err != nil {
		return err
	}
	*s = NewLevelSet(levels...)
	return nil
}

// ComputeStats derives the all-time statistics from the full collection of sessions.
// Input order does not matter: the history series are always sorted by start date.
func ComputeStats(sessions []*Session) GlobalStats {
	var stats GlobalStats
	if len(sessions) == 0 {
		return stats
	}

	stats.TotalSessions = len(sessions)

	totalScore := 0.0
	totalAverageLevel := 0.0
	totalBlocs := 0
	totalOverhang := 0

	for _, session := range sessions {
		sessionScore := session.TotalScore()
		sessionAverage := session.AverageBlocLevel()

		totalScore += sessionScore
		totalAverageLevel += sessionAverage
		totalBlocs += len(session.Blocs)

		stats.MaxBlocsInSession = max(stats.MaxBlocsInSession, len(session.Blocs))
		stats.MaxAverageLevelInSession = max(stats.MaxAverageLevelInSession, sessionAverage)

		if session.IsPerfect() {
			stats.HasPerfectSession = true
		}

		for _, bloc := range session.Blocs {
			stats.MaxLevelCompleted = max(stats.MaxLevelCompleted, bloc.Level)

			if bloc.Overhang {
				totalOverhang++
			}
			if !bloc.Completed {
				continue
			}

			stats.TotalCompletedBlocs++
			stats.CompletedLevels = stats.CompletedLevels.add(bloc.Level)

			if bloc.Attempts == 1 {
				stats.TotalFlashBlocs++
				stats.FlashedLevels = stats.FlashedLevels.add(bloc.Level)
			}
			if bloc.Overhang {
				stats.TotalOverhangCompleted++
				stats.OverhangLevels = stats.OverhangLevels.add(bloc.Level)
			}
		}
	}

	stats.GlobalAverageScore = totalScore / float64(stats.TotalSessions)
	stats.GlobalAverageLevel = totalAverageLevel / float64(stats.TotalSessions)

	// Truncating division.
	stats.AverageBlocsPerSession = totalBlocs / stats.TotalSessions

	if totalBlocs > 0 {
		stats.GlobalSuccessRate = float64(stats.TotalCompletedBlocs) / float64(totalBlocs) * 100
		stats.OverhangRatio = float64(totalOverhang) / float64(totalBlocs)
	}

	sorted := make([]*Session, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})

	stats.ScoreHistory = make([]ChartPoint, 0, len(sorted))
	stats.LevelHistory = make([]ChartPoint, 0, len(sorted))
	for _, session := range sorted {
		stats.ScoreHistory = append(stats.ScoreHistory, ChartPoint{Date: session.StartDate, Value: session.TotalScore()})
		stats.LevelHistory = append(stats.LevelHistory, ChartPoint{Date: session.StartDate, Value: session.AverageBlocLevel()})
	}

	return stats
}
