package repository

import (
	"fmt"
	"time"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

// SQLite hands timestamps back as text, PostgreSQL as time.Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

type timestamp struct {
	time.Time
}

func (t *timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		return fmt.Errorf("timestamp: unexpected NULL")
	default:
		return fmt.Errorf("timestamp: unsupported type %T", src)
	}
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("timestamp: cannot parse %q", s)
}

type nullTimestamp struct {
	Time  time.Time
	Valid bool
}

func (n *nullTimestamp) Scan(src interface{}) error {
	if src == nil {
		n.Time, n.Valid = time.Time{}, false
		return nil
	}
	var ts timestamp
	if err := ts.Scan(src); err != nil {
		return err
	}
	n.Time, n.Valid = ts.Time, true
	return nil
}

func (n nullTimestamp) Ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

type sessionRow struct {
	ID        string        `db:"id"`
	StartDate timestamp     `db:"start_date"`
	EndDate   nullTimestamp `db:"end_date"`
	CreatedAt timestamp     `db:"created_at"`
	UpdatedAt timestamp     `db:"updated_at"`
}

func (r sessionRow) toDomain() *domain.Session {
	return &domain.Session{
		ID:        r.ID,
		StartDate: r.StartDate.Time,
		EndDate:   r.EndDate.Ptr(),
		Blocs:     []*domain.Bloc{},
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

type blocRow struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	Position  int       `db:"position"`
	Level     int       `db:"level"`
	Completed bool      `db:"completed"`
	Attempts  int       `db:"attempts"`
	Overhang  bool      `db:"overhang"`
	LoggedAt  timestamp `db:"logged_at"`
}

func (r blocRow) toDomain() *domain.Bloc {
	return &domain.Bloc{
		ID:        r.ID,
		SessionID: r.SessionID,
		Level:     r.Level,
		Completed: r.Completed,
		Attempts:  r.Attempts,
		Overhang:  r.Overhang,
		Date:      r.LoggedAt.Time,
	}
}

type unlockedBadgeRow struct {
	ID         string    `db:"id"`
	BadgeID    string    `db:"badge_id"`
	UnlockedAt timestamp `db:"unlocked_at"`
}

func (r unlockedBadgeRow) toDomain() *domain.UnlockedBadge {
	return &domain.UnlockedBadge{
		ID:         r.ID,
		BadgeID:    r.BadgeID,
		UnlockedAt: r.UnlockedAt.Time,
	}
}

// nullableTime converts an optional end date into a driver value.
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
