package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/badges"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

type BadgeService struct {
	registry    *badges.Registry
	repo        domain.BadgeRepository
	sessionRepo domain.SessionRepository
}

func NewBadgeService(registry *badges.Registry, repo domain.BadgeRepository, sessionRepo domain.SessionRepository) *BadgeService {
	if registry == nil {
		registry = badges.Default()
	}
	return &BadgeService{
		registry:    registry,
		repo:        repo,
		sessionRepo: sessionRepo,
	}
}

type EvaluationResult struct {
	Stats domain.GlobalStats `json:"stats"`
	badges.Delta
}

type BadgeStatus struct {
	badges.Badge
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

func (s *BadgeService) Registry() *badges.Registry {
	return s.registry
}

// Evaluate computes the unlock/revoke delta for stats and persists it in a single unit of work.
// The computed result is returned even when persistence fails; the error then wraps
// domain.ErrBadgePersistence.
func (s *BadgeService) Evaluate(ctx context.Context, stats domain.GlobalStats, unlockedIDs map[string]struct{}) (*EvaluationResult, error) {
	started := time.Now()
	defer func() {
		badgeEvaluationDuration.Observe(time.Since(started).Seconds())
	}()

	result := &EvaluationResult{
		Stats: stats,
		Delta: badges.Evaluate(s.registry, stats, unlockedIDs),
	}

	if result.IsEmpty() {
		return result, nil
	}

	if err := s.persist(ctx, result.Delta); err != nil {
		badgePersistenceFailures.Inc()
		log.Printf("[BADGES] Failed to persist %d unlocks / %d revocations: %v", len(result.Unlocked), len(result.Revoked), err)
		return result, fmt.Errorf("%w: %w", domain.ErrBadgePersistence, err)
	}

	for _, b := range result.Revoked {
		badgesRevoked.WithLabelValues(string(b.Category)).Inc()
	}
	for _, b := range result.Unlocked {
		badgesUnlocked.WithLabelValues(string(b.Category)).Inc()
	}

	log.Printf("[BADGES] %d unlocked, %d revoked", len(result.Unlocked), len(result.Revoked))

	return result, nil
}

func (s *BadgeService) persist(ctx context.Context, delta badges.Delta) error {
	uow, err := s.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := uow.Rollback(); rerr != nil {
			log.Printf("[BADGES] Rollback failed: %v", rerr)
		}
	}()

	for _, b := range delta.Revoked {
		if err := uow.Delete(ctx, b.ID); err != nil {
			return fmt.Errorf("revoke %s: %w", b.ID, err)
		}
	}

	now := time.Now().UTC()
	for _, b := range delta.Unlocked {
		if err := uow.Insert(ctx, domain.NewUnlockedBadge(b.ID, now)); err != nil {
			return fmt.Errorf("unlock %s: %w", b.ID, err)
		}
	}

	return uow.Commit()
}

// Refresh recomputes statistics from every stored session and evaluates badges against the
// persisted unlock records.
func (s *BadgeService) Refresh(ctx context.Context) (*EvaluationResult, error) {
	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	records, err := s.repo.ListUnlocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("load unlocked badges: %w", err)
	}

	return s.Evaluate(ctx, domain.ComputeStats(sessions), domain.UnlockedIDs(records))
}

// List returns the catalog, optionally filtered by category, with the persisted unlock state.
func (s *BadgeService) List(ctx context.Context, category badges.Category) ([]BadgeStatus, error) {
	records, err := s.repo.ListUnlocked(ctx)
	if err != nil {
		return nil, err
	}

	unlockedAt := make(map[string]time.Time, len(records))
	for _, r := range records {
		unlockedAt[r.BadgeID] = r.UnlockedAt
	}

	catalog := s.registry.All()
	if category != "" {
		catalog = s.registry.InCategory(category)
	}

	out := make([]BadgeStatus, 0, len(catalog))
	for _, b := range catalog {
		status := BadgeStatus{Badge: b}
		if at, ok := unlockedAt[b.ID]; ok {
			at := at
			status.Unlocked = true
			status.UnlockedAt = &at
		}
		out = append(out, status)
	}

	return out, nil
}
