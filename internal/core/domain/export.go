package domain

import (
	"errors"
	"time"
)

const ExportVersion = "1.0"

var (
	ErrInvalidDocument     = errors.New("invalid export document")
	ErrIncompatibleVersion = errors.New("incompatible export version")
	ErrCorruptedData       = errors.New("export document contains corrupted data")
	ErrExportFailed        = errors.New("export failed")
	ErrImportFailed        = errors.New("import failed")
	ErrFileAccess          = errors.New("cannot access file")
)

// ExportDocument is the versioned JSON backup of every session and unlock record.
type ExportDocument struct {
	Version    string        `json:"version"`
	ExportDate time.Time     `json:"exportDate"`
	Data       ExportPayload `json:"data"`
}

type ExportPayload struct {
	Sessions       []SessionRecord       `json:"sessions"`
	UnlockedBadges []UnlockedBadgeRecord `json:"unlockedBadges"`
}

type SessionRecord struct {
	ID        string       `json:"id"`
	StartDate time.Time    `json:"startDate"`
	EndDate   *time.Time   `json:"endDate,omitempty"`
	Blocs     []BlocRecord `json:"blocs"`
}

type BlocRecord struct {
	ID        string    `json:"id"`
	Level     int       `json:"level"`
	Completed bool      `json:"completed"`
	Attempts  int       `json:"attempts"`
	Overhang  bool      `json:"overhang"`
	Date      time.Time `json:"date"`
}

type UnlockedBadgeRecord struct {
	ID         string    `json:"id"`
	BadgeID    string    `json:"badgeId"`
	UnlockedAt time.Time `json:"unlockedAt"`
}
