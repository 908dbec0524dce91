package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrBadgePersistence = errors.New("failed to persist badge changes")

// UnlockedBadge records that a badge condition held at some point. BadgeID is a weak reference
// into the badge registry.
type UnlockedBadge struct {
	ID         string    `json:"id" db:"id"`
	BadgeID    string    `json:"badge_id" db:"badge_id"`
	UnlockedAt time.Time `json:"unlocked_at" db:"unlocked_at"`
}

func NewUnlockedBadge(badgeID string, at time.Time) *UnlockedBadge {
	return &UnlockedBadge{
		ID:         uuid.New().String(),
		BadgeID:    badgeID,
		UnlockedAt: at.UTC(),
	}
}

// UnlockedIDs flattens unlock records into the set of badge ids.
func UnlockedIDs(records []*UnlockedBadge) map[string]struct{} {
	ids := make(map[string]struct{}, len(records))
	for _, r := range records {
		ids[r.BadgeID] = struct{}{}
	}
	return ids
}
