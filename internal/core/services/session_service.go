package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/badges"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

type SessionService struct {
	repo   domain.SessionRepository
	badges *BadgeService
}

func NewSessionService(repo domain.SessionRepository, badgeService *BadgeService) *SessionService {
	return &SessionService{
		repo:   repo,
		badges: badgeService,
	}
}

type StartSessionInput struct {
	StartDate       time.Time
	WithPlaceholder bool
}

type BlocInput struct {
	SessionID string
	BlocID    string
	Level     int
	Completed bool
	Attempts  int
	Overhang  bool
}

// MutationResult pairs a changed session with the badge delta the change produced.
// Session is nil after a delete.
type MutationResult struct {
	Session *domain.Session `json:"session,omitempty"`
	Bloc    *domain.Bloc    `json:"bloc,omitempty"`
	Badges  badges.Delta    `json:"badges"`
}

// Start opens a new session. Only one session may be in progress at a time.
func (s *SessionService) Start(ctx context.Context, input StartSessionInput) (*MutationResult, error) {
	active, err := s.repo.GetActive(ctx)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}
	if active != nil {
		return nil, domain.ErrActiveSessionExists
	}

	session := domain.NewSession(input.StartDate)

	if input.WithPlaceholder {
		if _, err := session.AddBloc(domain.DefaultLevel, false, domain.DefaultAttempts, false); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	return s.refresh(ctx, &MutationResult{Session: session})
}

func (s *SessionService) Finish(ctx context.Context, id string, at time.Time) (*MutationResult, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if at.IsZero() {
		at = time.Now().UTC()
	}
	if err := session.Finish(at); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}

	return s.refresh(ctx, &MutationResult{Session: session})
}

func (s *SessionService) Delete(ctx context.Context, id string) (*MutationResult, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}

	return s.refresh(ctx, &MutationResult{})
}

func (s *SessionService) AddBloc(ctx context.Context, input BlocInput) (*MutationResult, error) {
	session, err := s.repo.GetByID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	bloc, err := session.AddBloc(input.Level, input.Completed, input.Attempts, input.Overhang)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}

	return s.refresh(ctx, &MutationResult{Session: session, Bloc: bloc})
}

func (s *SessionService) UpdateBloc(ctx context.Context, input BlocInput) (*MutationResult, error) {
	session, err := s.repo.GetByID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	bloc, err := session.UpdateBloc(input.BlocID, input.Level, input.Completed, input.Attempts, input.Overhang)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}

	return s.refresh(ctx, &MutationResult{Session: session, Bloc: bloc})
}

func (s *SessionService) RemoveBloc(ctx context.Context, sessionID, blocID string) (*MutationResult, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := session.RemoveBloc(blocID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}

	return s.refresh(ctx, &MutationResult{Session: session})
}

func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *SessionService) List(ctx context.Context) ([]*domain.Session, error) {
	return s.repo.List(ctx)
}

func (s *SessionService) Active(ctx context.Context) (*domain.Session, error) {
	return s.repo.GetActive(ctx)
}

// refresh re-evaluates badges after a stored change. The session change is already durable,
// so on failure the result is still returned alongside the error.
func (s *SessionService) refresh(ctx context.Context, result *MutationResult) (*MutationResult, error) {
	result.Badges = badges.Delta{Unlocked: []badges.Badge{}, Revoked: []badges.Badge{}}

	eval, err := s.badges.Refresh(ctx)
	if eval != nil {
		result.Badges = eval.Delta
	}
	if err != nil {
		log.Printf("[ERROR] Badge refresh failed after session change: %v", err)
		return result, err
	}

	return result, nil
}
