package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/badges"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) Create(ctx context.Context, session *domain.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepo) List(ctx context.Context) ([]*domain.Session, error) {
	args := m.Called(ctx)
	if fn, ok := args.Get(0).(func(context.Context) []*domain.Session); ok {
		return fn(ctx), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Session), args.Error(1)
}

func (m *MockSessionRepo) GetActive(ctx context.Context) (*domain.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepo) Update(ctx context.Context, session *domain.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessionRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSessionRepo) ReplaceAll(ctx context.Context, sessions []*domain.Session, unlocked []*domain.UnlockedBadge) error {
	return m.Called(ctx, sessions, unlocked).Error(0)
}

type MockBadgeRepo struct {
	mock.Mock
}

func (m *MockBadgeRepo) ListUnlocked(ctx context.Context) ([]*domain.UnlockedBadge, error) {
	args := m.Called(ctx)
	if fn, ok := args.Get(0).(func(context.Context) []*domain.UnlockedBadge); ok {
		return fn(ctx), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UnlockedBadge), args.Error(1)
}

func (m *MockBadgeRepo) Begin(ctx context.Context) (domain.BadgeUnitOfWork, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.BadgeUnitOfWork), args.Error(1)
}

type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Insert(ctx context.Context, record *domain.UnlockedBadge) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockUnitOfWork) Delete(ctx context.Context, badgeID string) error {
	return m.Called(ctx, badgeID).Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	return m.Called().Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	return m.Called().Error(0)
}

func finishedSession(start time.Time, blocs ...*domain.Bloc) *domain.Session {
	s := domain.NewSession(start)
	for _, b := range blocs {
		b.SessionID = s.ID
		s.Blocs = append(s.Blocs, b)
	}
	end := start.Add(90 * time.Minute)
	s.EndDate = &end
	return s
}

func newBloc(level int, completed bool, attempts int, overhang bool) *domain.Bloc {
	b, err := domain.NewBloc("", level, completed, attempts, overhang)
	if err != nil {
		panic(err)
	}
	return b
}

func unlocked(ids ...string) []*domain.UnlockedBadge {
	out := make([]*domain.UnlockedBadge, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.NewUnlockedBadge(id, time.Now().Add(-time.Hour)))
	}
	return out
}

func hasBadge(list []badges.Badge, id string) bool {
	for _, b := range list {
		if b.ID == id {
			return true
		}
	}
	return false
}
