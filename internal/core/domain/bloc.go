package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidLevel = fmt.Errorf("invalid bloc level (must be %d-%d)", MinLevel, MaxLevel)
	ErrBlocNotFound = errors.New("bloc not found")
)

const (
	MinLevel        = 1
	MaxLevel        = 16
	MinAttempts     = 1
	MaxAttempts     = 30
	DefaultLevel    = 3
	DefaultAttempts = 1
)

// Bloc is a single recorded attempt at a climbing problem. It is owned by exactly one Session.
type Bloc struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Level     int       `json:"level" db:"level"`
	Completed bool      `json:"completed" db:"completed"`
	Attempts  int       `json:"attempts" db:"attempts"`
	Overhang  bool      `json:"overhang" db:"overhang"`
	Date      time.Time `json:"date" db:"date"`
}

func validateLevel(level int) error {
	if level < MinLevel || level > MaxLevel {
		return ErrInvalidLevel
	}
	return nil
}

func clampAttempts(attempts int) int {
	if attempts < MinAttempts {
		return MinAttempts
	}
	if attempts > MaxAttempts {
		return MaxAttempts
	}
	return attempts
}

func NewBloc(sessionID string, level int, completed bool, attempts int, overhang bool) (*Bloc, error) {
	if err := validateLevel(level); err != nil {
		return nil, err
	}

	return &Bloc{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Level:     level,
		Completed: completed,
		Attempts:  clampAttempts(attempts),
		Overhang:  overhang,
		Date:      time.Now().UTC(),
	}, nil
}

func (b *Bloc) Update(level int, completed bool, attempts int, overhang bool) error {
	if err := validateLevel(level); err != nil {
		return err
	}

	b.Level = level
	b.Completed = completed
	b.Attempts = clampAttempts(attempts)
	b.Overhang = overhang
	b.Date = time.Now().UTC()

	return nil
}

// Score is always recomputed from the bloc attributes and never stored.
func (b *Bloc) Score() float64 {
	return Score(b.Level, b.Completed, b.Attempts, b.Overhang)
}

// IsFlash reports a bloc completed on the first attempt.
func (b *Bloc) IsFlash() bool {
	return b.Completed && b.Attempts == 1
}

func (b Bloc) MarshalJSON() ([]byte, error) {
	type plain Bloc
	return json.Marshal(struct {
		plain
		Score float64 `json:"score"`
	}{
		plain: plain(b),
		Score: b.Score(),
	})
}
