package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	badgesUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blocktracker_badges_unlocked_total",
		Help: "Total badges unlocked by category",
	}, []string{"category"})

	badgesRevoked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blocktracker_badges_revoked_total",
		Help: "Total badges revoked by category",
	}, []string{"category"})

	badgePersistenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blocktracker_badge_persistence_failures_total",
		Help: "Total badge evaluations whose delta could not be persisted",
	})

	badgeEvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blocktracker_badge_evaluation_duration_seconds",
		Help:    "Duration of badge evaluation including persistence",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	sessionsImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blocktracker_sessions_imported_total",
		Help: "Total sessions restored from export documents",
	})
)
