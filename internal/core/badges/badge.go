// Package badges holds the static achievement catalog and the pure unlock/revoke evaluation.
package badges

import (
	"fmt"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

type Category string

const (
	CategorySessions    Category = "sessions"
	CategoryBlocs       Category = "blocs"
	CategoryPerformance Category = "performance"
	CategorySpecial     Category = "special"
)

// Categories lists every category in display order.
var Categories = []Category{CategorySessions, CategoryBlocs, CategoryPerformance, CategorySpecial}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown badge category %q", s)
}

// Condition reports whether a badge is earned for the given statistics. It must be pure.
type Condition func(stats domain.GlobalStats) bool

// Badge is a declarative achievement. Two badges are the same badge when their ids match.
type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Category    Category  `json:"category"`
	Condition   Condition `json:"-"`
}

func (b Badge) Equal(other Badge) bool {
	return b.ID == other.ID
}

// Earned evaluates the badge condition. A badge without condition is never earned.
func (b Badge) Earned(stats domain.GlobalStats) bool {
	if b.Condition == nil {
		return false
	}
	return b.Condition(stats)
}

// Registry is an immutable, ordered badge catalog.
type Registry struct {
	badges []Badge
	byID   map[string]int
}

// NewRegistry builds a registry keeping the given order. Duplicate ids are a programming error.
func NewRegistry(lists ...[]Badge) *Registry {
	r := &Registry{byID: make(map[string]int)}
	for _, list := range lists {
		for _, b := range list {
			if _, exists := r.byID[b.ID]; exists {
				panic(fmt.Sprintf("badges: duplicate badge id %q", b.ID))
			}
			r.byID[b.ID] = len(r.badges)
			r.badges = append(r.badges, b)
		}
	}
	return r
}

// All returns a copy of every badge in registration order.
func (r *Registry) All() []Badge {
	out := make([]Badge, len(r.badges))
	copy(out, r.badges)
	return out
}

func (r *Registry) InCategory(c Category) []Badge {
	var out []Badge
	for _, b := range r.badges {
		if b.Category == c {
			out = append(out, b)
		}
	}
	return out
}

func (r *Registry) Lookup(id string) (Badge, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Badge{}, false
	}
	return r.badges[i], true
}

func (r *Registry) Len() int {
	return len(r.badges)
}

var defaultRegistry = NewRegistry(sessionBadges(), blocBadges(), performanceBadges())

// Default returns the catalog shipped with the application.
func Default() *Registry {
	return defaultRegistry
}
