package badges

import (
	"fmt"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

// Badge ids are persisted in unlock records and must never change or be reused.

func sessionBadges() []Badge {
	list := []Badge{
		{
			ID: "first_session", Name: "First Climb",
			Description: "Finish your first session",
			Icon:        "figure.climbing", Category: CategorySessions,
			Condition: func(s domain.GlobalStats) bool { return s.TotalSessions >= 1 },
		},
		{
			ID: "ten_sessions", Name: "Regular",
			Description: "Finish 10 sessions",
			Icon:        "calendar", Category: CategorySessions,
			Condition: func(s domain.GlobalStats) bool { return s.TotalSessions >= 10 },
		},
		{
			ID: "thirty_sessions", Name: "Dedicated",
			Description: "Finish 30 sessions",
			Icon:        "medal.fill", Category: CategorySessions,
			Condition: func(s domain.GlobalStats) bool { return s.TotalSessions >= 30 },
		},
		{
			ID: "fifty_sessions", Name: "Veteran",
			Description: "Finish 50 sessions",
			Icon:        "crown.fill", Category: CategorySessions,
			Condition: func(s domain.GlobalStats) bool { return s.TotalSessions >= 50 },
		},
		{
			ID: "hundred_sessions", Name: "Legend",
			Description: "Finish 100 sessions",
			Icon:        "trophy.fill", Category: CategorySessions,
			Condition: func(s domain.GlobalStats) bool { return s.TotalSessions >= 100 },
		},
	}

	sizeNames := map[int]string{10: "Marathon", 20: "Ultra Marathon", 30: "Machine", 40: "Tireless", 50: "Superhuman"}
	for _, size := range []int{10, 20, 30, 40, 50} {
		size := size
		list = append(list, Badge{
			ID:          fmt.Sprintf("session_%d_blocs", size),
			Name:        sizeNames[size],
			Description: fmt.Sprintf("Log %d blocs in a single session", size),
			Icon:        fmt.Sprintf("%d.circle.fill", size),
			Category:    CategorySessions,
			Condition:   func(s domain.GlobalStats) bool { return s.MaxBlocsInSession >= size },
		})
	}

	avgNames := map[int]string{
		5: "Level 5", 6: "Level 6", 7: "Level 7", 8: "Level 8", 9: "Level 9",
		10: "Top 10", 11: "Elite 11", 12: "Pro 12", 13: "Expert 13", 14: "Master 14",
		15: "Champion 15", 16: "Legend 16",
	}
	for level := 5; level <= domain.MaxLevel; level++ {
		level := level
		list = append(list, Badge{
			ID:          fmt.Sprintf("session_avg_%d", level),
			Name:        avgNames[level],
			Description: fmt.Sprintf("Finish a session with an average level of %d+", level),
			Icon:        fmt.Sprintf("%d.circle", level),
			Category:    CategorySessions,
			Condition:   func(s domain.GlobalStats) bool { return s.MaxAverageLevelInSession >= float64(level) },
		})
	}

	return list
}

func blocBadges() []Badge {
	completed := []struct {
		id, name, icon string
		count          int
	}{
		{"first_bloc", "First Bloc", "checkmark.circle.fill", 1},
		{"ten_blocs", "Beginner", "10.circle.fill", 10},
		{"fifty_blocs", "Climber", "50.circle.fill", 50},
		{"hundred_blocs", "Centurion", "100.circle.fill", 100},
		{"two_hundred_blocs", "Bicentennial", "200.circle.fill", 200},
		{"three_hundred_blocs", "Tricentennial", "flame.fill", 300},
		{"four_hundred_blocs", "Athlete", "bolt.fill", 400},
		{"five_hundred_blocs", "Champion", "star.fill", 500},
		{"thousand_blocs", "Living Legend", "crown.fill", 1000},
	}

	overhang := []struct {
		id, name, icon string
		count          int
	}{
		{"first_overhang", "First Overhang", "arrow.up.right", 1},
		{"five_overhang", "Overhang Fan", "arrow.up.right.circle", 5},
		{"ten_overhang", "Overhang Regular", "arrow.up.right.circle.fill", 10},
		{"fifty_overhang", "Overhang Expert", "angle", 50},
		{"hundred_overhang", "Overhang Master", "triangle.fill", 100},
		{"two_hundred_overhang", "Overhang King", "pyramid.fill", 200},
	}

	list := make([]Badge, 0, len(completed)+len(overhang))

	for _, c := range completed {
		count := c.count
		desc := fmt.Sprintf("Complete %d blocs", count)
		if count == 1 {
			desc = "Complete your first bloc"
		}
		list = append(list, Badge{
			ID: c.id, Name: c.name, Description: desc, Icon: c.icon,
			Category:  CategoryBlocs,
			Condition: func(s domain.GlobalStats) bool { return s.TotalCompletedBlocs >= count },
		})
	}

	for _, o := range overhang {
		count := o.count
		desc := fmt.Sprintf("Complete %d overhang blocs", count)
		if count == 1 {
			desc = "Complete your first overhang bloc"
		}
		list = append(list, Badge{
			ID: o.id, Name: o.name, Description: desc, Icon: o.icon,
			Category:  CategorySpecial,
			Condition: func(s domain.GlobalStats) bool { return s.TotalOverhangCompleted >= count },
		})
	}

	return list
}

// levelTemplate generates one badge per level for a single achievement axis.
type levelTemplate struct {
	idFormat    string
	nameFormat  string
	iconFormat  string
	description string
	levels      func(domain.GlobalStats) domain.LevelSet
}

var levelTemplates = []levelTemplate{
	{
		idFormat:    "level_complete_%d",
		nameFormat:  "Level %d",
		iconFormat:  "%d.circle.fill",
		description: "Complete a bloc at this level",
		levels:      func(s domain.GlobalStats) domain.LevelSet { return s.CompletedLevels },
	},
	{
		idFormat:    "level_flash_%d",
		nameFormat:  "Flash %d",
		iconFormat:  "%d.square.fill",
		description: "Complete a bloc at this level on the first attempt",
		levels:      func(s domain.GlobalStats) domain.LevelSet { return s.FlashedLevels },
	},
	{
		idFormat:    "level_overhang_%d",
		nameFormat:  "Overhang %d",
		iconFormat:  "%d.circle",
		description: "Complete an overhang bloc at this level",
		levels:      func(s domain.GlobalStats) domain.LevelSet { return s.OverhangLevels },
	},
}

func performanceBadges() []Badge {
	list := []Badge{
		{
			ID: "perfect_session", Name: "Flawless",
			Description: "Finish a session with every bloc completed",
			Icon:        "star.fill", Category: CategoryPerformance,
			Condition: func(s domain.GlobalStats) bool { return s.HasPerfectSession },
		},
	}

	for _, tpl := range levelTemplates {
		for level := domain.MinLevel; level <= domain.MaxLevel; level++ {
			levels, lvl := tpl.levels, level
			list = append(list, Badge{
				ID:          fmt.Sprintf(tpl.idFormat, lvl),
				Name:        fmt.Sprintf(tpl.nameFormat, lvl),
				Description: tpl.description,
				Icon:        fmt.Sprintf(tpl.iconFormat, lvl),
				Category:    CategoryPerformance,
				Condition:   func(s domain.GlobalStats) bool { return levels(s).Contains(lvl) },
			})
		}
	}

	return list
}
