package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

var (
	_ domain.SessionRepository = (*InMemoryRepository)(nil)
	_ domain.BadgeRepository   = (*InMemoryRepository)(nil)
)

// InMemoryRepository keeps sessions and unlock records in process memory. Values are copied
// on the way in and out so callers never share state with the store.
type InMemoryRepository struct {
	sessions map[string]*domain.Session
	unlocked map[string]*domain.UnlockedBadge

	mu sync.RWMutex
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		sessions: make(map[string]*domain.Session),
		unlocked: make(map[string]*domain.UnlockedBadge),
	}
}

func cloneSession(s *domain.Session) *domain.Session {
	clone := *s
	if s.EndDate != nil {
		end := *s.EndDate
		clone.EndDate = &end
	}
	clone.Blocs = make([]*domain.Bloc, 0, len(s.Blocs))
	for _, b := range s.Blocs {
		bloc := *b
		bloc.SessionID = s.ID
		clone.Blocs = append(clone.Blocs, &bloc)
	}
	return &clone
}

func (r *InMemoryRepository) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.IsActive() {
		for _, s := range r.sessions {
			if s.IsActive() {
				return domain.ErrActiveSessionExists
			}
		}
	}

	r.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, cloneSession(s))
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].StartDate.Equal(list[j].StartDate) {
			return list[i].ID < list[j].ID
		}
		return list[i].StartDate.Before(list[j].StartDate)
	})

	return list, nil
}

func (r *InMemoryRepository) GetActive(ctx context.Context) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.IsActive() {
			return cloneSession(s), nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (r *InMemoryRepository) Update(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return domain.ErrSessionNotFound
	}

	r.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}

	delete(r.sessions, id)
	return nil
}

func (r *InMemoryRepository) ReplaceAll(ctx context.Context, sessions []*domain.Session, unlocked []*domain.UnlockedBadge) error {
	nextSessions := make(map[string]*domain.Session, len(sessions))
	for _, s := range sessions {
		nextSessions[s.ID] = cloneSession(s)
	}

	nextUnlocked := make(map[string]*domain.UnlockedBadge, len(unlocked))
	for _, u := range unlocked {
		record := *u
		nextUnlocked[u.BadgeID] = &record
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = nextSessions
	r.unlocked = nextUnlocked
	return nil
}

func (r *InMemoryRepository) ListUnlocked(ctx context.Context) ([]*domain.UnlockedBadge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*domain.UnlockedBadge, 0, len(r.unlocked))
	for _, u := range r.unlocked {
		record := *u
		list = append(list, &record)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].UnlockedAt.Equal(list[j].UnlockedAt) {
			return list[i].BadgeID < list[j].BadgeID
		}
		return list[i].UnlockedAt.Before(list[j].UnlockedAt)
	})

	return list, nil
}

func (r *InMemoryRepository) Begin(ctx context.Context) (domain.BadgeUnitOfWork, error) {
	return &memoryUnitOfWork{repo: r}, nil
}

type memoryOp struct {
	insert  *domain.UnlockedBadge
	deleted string
}

// memoryUnitOfWork buffers operations and applies them under one lock on Commit.
type memoryUnitOfWork struct {
	repo *InMemoryRepository
	ops  []memoryOp
	done bool
}

func (u *memoryUnitOfWork) Insert(ctx context.Context, record *domain.UnlockedBadge) error {
	clone := *record
	u.ops = append(u.ops, memoryOp{insert: &clone})
	return nil
}

func (u *memoryUnitOfWork) Delete(ctx context.Context, badgeID string) error {
	u.ops = append(u.ops, memoryOp{deleted: badgeID})
	return nil
}

func (u *memoryUnitOfWork) Commit() error {
	if u.done {
		return nil
	}

	u.repo.mu.Lock()
	defer u.repo.mu.Unlock()

	for _, op := range u.ops {
		if op.insert != nil {
			if _, exists := u.repo.unlocked[op.insert.BadgeID]; !exists {
				u.repo.unlocked[op.insert.BadgeID] = op.insert
			}
			continue
		}
		delete(u.repo.unlocked, op.deleted)
	}

	u.done = true
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	u.ops = nil
	u.done = true
	return nil
}
