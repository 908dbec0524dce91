package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrSessionAlreadyFinished = errors.New("session is already finished")
	ErrInvalidEndDate         = errors.New("session end date cannot be before its start date")
	ErrActiveSessionExists    = errors.New("another session is still in progress")
)

// Session is one climbing outing. EndDate stays nil while the session is in progress.
type Session struct {
	ID        string     `json:"id" db:"id"`
	StartDate time.Time  `json:"start_date" db:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty" db:"end_date"`
	Blocs     []*Bloc    `json:"blocs" db:"-"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// SessionSummary holds the metrics derived from a session's blocs.
type SessionSummary struct {
	SessionID          string        `json:"session_id"`
	BlocCount          int           `json:"bloc_count"`
	TotalScore         float64       `json:"total_score"`
	MinBlocLevel       int           `json:"min_bloc_level"`
	MaxBlocLevel       int           `json:"max_bloc_level"`
	AverageBlocLevel   float64       `json:"average_bloc_level"`
	CompletedBlocCount int           `json:"completed_bloc_count"`
	OverhangBlocCount  int           `json:"overhang_bloc_count"`
	Duration           time.Duration `json:"duration_ns"`
}

func NewSession(start time.Time) *Session {
	now := time.Now().UTC()
	if start.IsZero() {
		start = now
	}

	return &Session{
		ID:        uuid.New().String(),
		StartDate: start.UTC(),
		Blocs:     []*Bloc{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) IsActive() bool {
	return s.EndDate == nil
}

// Finish sets the end date. It can only happen once.
func (s *Session) Finish(at time.Time) error {
	if s.EndDate != nil {
		return ErrSessionAlreadyFinished
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if at.Before(s.StartDate) {
		return ErrInvalidEndDate
	}

	end := at.UTC()
	s.EndDate = &end
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Session) AddBloc(level int, completed bool, attempts int, overhang bool) (*Bloc, error) {
	bloc, err := NewBloc(s.ID, level, completed, attempts, overhang)
	if err != nil {
		return nil, err
	}

	s.Blocs = append(s.Blocs, bloc)
	s.UpdatedAt = time.Now().UTC()
	return bloc, nil
}

func (s *Session) FindBloc(blocID string) (*Bloc, error) {
	for _, b := range s.Blocs {
		if b.ID == blocID {
			return b, nil
		}
	}
	return nil, ErrBlocNotFound
}

func (s *Session) UpdateBloc(blocID string, level int, completed bool, attempts int, overhang bool) (*Bloc, error) {
	bloc, err := s.FindBloc(blocID)
	if err != nil {
		return nil, err
	}
	if err := bloc.Update(level, completed, attempts, overhang); err != nil {
		return nil, err
	}

	s.UpdatedAt = time.Now().UTC()
	return bloc, nil
}

func (s *Session) RemoveBloc(blocID string) error {
	for i, b := range s.Blocs {
		if b.ID == blocID {
			s.Blocs = append(s.Blocs[:i], s.Blocs[i+1:]...)
			s.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrBlocNotFound
}

func (s *Session) TotalScore() float64 {
	total := 0.0
	for _, b := range s.Blocs {
		total += b.Score()
	}
	return total
}

func (s *Session) MinBlocLevel() int {
	if len(s.Blocs) == 0 {
		return 0
	}
	lowest := s.Blocs[0].Level
	for _, b := range s.Blocs[1:] {
		lowest = min(lowest, b.Level)
	}
	return lowest
}

func (s *Session) MaxBlocLevel() int {
	highest := 0
	for _, b := range s.Blocs {
		highest = max(highest, b.Level)
	}
	return highest
}

func (s *Session) AverageBlocLevel() float64 {
	if len(s.Blocs) == 0 {
		return 0.0
	}
	sum := 0
	for _, b := range s.Blocs {
		sum += b.Level
	}
	return float64(sum) / float64(len(s.Blocs))
}

func (s *Session) CompletedBlocCount() int {
	count := 0
	for _, b := range s.Blocs {
		if b.Completed {
			count++
		}
	}
	return count
}

func (s *Session) OverhangBlocCount() int {
	count := 0
	for _, b := range s.Blocs {
		if b.Overhang {
			count++
		}
	}
	return count
}

// IsPerfect reports a non-empty session where every bloc was completed.
func (s *Session) IsPerfect() bool {
	return len(s.Blocs) > 0 && s.CompletedBlocCount() == len(s.Blocs)
}

// Duration is zero until the session is finished.
func (s *Session) Duration() time.Duration {
	if s.EndDate == nil {
		return 0
	}
	return s.EndDate.Sub(s.StartDate)
}

func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		SessionID:          s.ID,
		BlocCount:          len(s.Blocs),
		TotalScore:         s.TotalScore(),
		MinBlocLevel:       s.MinBlocLevel(),
		MaxBlocLevel:       s.MaxBlocLevel(),
		AverageBlocLevel:   s.AverageBlocLevel(),
		CompletedBlocCount: s.CompletedBlocCount(),
		OverhangBlocCount:  s.OverhangBlocCount(),
		Duration:           s.Duration(),
	}
}
