package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счётчики переходов ядра. Регистрируются в DefaultRegisterer,
// отдаются через promhttp на /metrics.
var (
	ScoreSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tournament_score_submissions_total",
		Help: "Number of accepted score submissions.",
	})

	ScoreConfirmations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tournament_score_confirmations_total",
		Help: "Number of peer score confirmations.",
	})

	ScoreDisputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tournament_score_disputes_total",
		Help: "Number of score disputes raised.",
	})

	AdminOverrides = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tournament_admin_overrides_total",
		Help: "Number of authoritative score overrides.",
	})

	EncountersCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tournament_encounters_completed_total",
		Help: "Number of encounters rolled up to a final result.",
	})

	ConflictsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tournament_schedule_conflicts_detected_total",
		Help: "Number of schedule conflicts reported by the validator.",
	})
)
