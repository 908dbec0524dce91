package repository

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

var _ domain.SessionRepository = (*CachedSessionRepository)(nil)

const (
	sessionListKey = "sessions:all"
	sessionListTTL = 5 * time.Minute
)

// CachedSessionRepository keeps the full session list in Redis. Every write invalidates it.
type CachedSessionRepository struct {
	next  domain.SessionRepository
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedSessionRepository(next domain.SessionRepository, cache *redis.Client) *CachedSessionRepository {
	return &CachedSessionRepository{
		next:  next,
		cache: cache,
		ttl:   sessionListTTL,
	}
}

func (r *CachedSessionRepository) invalidate(ctx context.Context) {
	if err := r.cache.Del(ctx, sessionListKey).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate session list: %v", err)
	}
}

func (r *CachedSessionRepository) List(ctx context.Context) ([]*domain.Session, error) {
	val, err := r.cache.Get(ctx, sessionListKey).Result()
	if err == nil {
		var sessions []*domain.Session
		if err := json.Unmarshal([]byte(val), &sessions); err == nil {
			return sessions, nil
		}

		log.Printf("[CACHE] Corrupted session list, cleaning up key")
		r.cache.Del(ctx, sessionListKey)
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	sessions, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(sessions); err == nil {
		if setErr := r.cache.Set(ctx, sessionListKey, data, r.ttl).Err(); setErr != nil {
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return sessions, nil
}

func (r *CachedSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedSessionRepository) GetActive(ctx context.Context) (*domain.Session, error) {
	return r.next.GetActive(ctx)
}

func (r *CachedSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if err := r.next.Create(ctx, session); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	if err := r.next.Update(ctx, session); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedSessionRepository) Delete(ctx context.Context, id string) error {
	defer r.invalidate(ctx)
	return r.next.Delete(ctx, id)
}

func (r *CachedSessionRepository) ReplaceAll(ctx context.Context, sessions []*domain.Session, unlocked []*domain.UnlockedBadge) error {
	defer r.invalidate(ctx)
	return r.next.ReplaceAll(ctx, sessions, unlocked)
}
