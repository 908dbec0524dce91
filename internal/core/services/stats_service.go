package services

import (
	"context"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

type StatsService struct {
	sessionRepo domain.SessionRepository
}

func NewStatsService(sessionRepo domain.SessionRepository) *StatsService {
	return &StatsService{
		sessionRepo: sessionRepo,
	}
}

func (s *StatsService) GlobalStats(ctx context.Context) (*domain.GlobalStats, error) {
	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := domain.ComputeStats(sessions)
	return &stats, nil
}

func (s *StatsService) SessionSummary(ctx context.Context, id string) (*domain.SessionSummary, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := session.Summary()
	return &summary, nil
}
