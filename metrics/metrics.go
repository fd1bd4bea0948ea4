package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var RoundsFrozenCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "arena_rounds_frozen_total",
	Help: "Number of rounds frozen",
})

var RoundsUnfrozenCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "arena_rounds_unfrozen_total",
	Help: "Number of rounds unfrozen",
})

var ScoreWritesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "arena_score_writes_total",
	Help: "Score writes by outcome",
}, []string{"outcome"})

var ImportRowsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "arena_import_rows_total",
	Help: "Bulk import rows by outcome",
}, []string{"outcome"})

var TeamJoinsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "arena_team_joins_total",
	Help: "Team join attempts by outcome",
}, []string{"outcome"})

var TeamCodeRetriesCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "arena_team_code_retries_total",
	Help: "Team code allocation retries due to collisions",
})

var ReferralsCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "arena_referrals_total",
	Help: "Referrals credited",
})

var FreezeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "arena_freeze_duration_seconds",
	Help: "Duration of the freeze computation and commit",
	Buckets: []float64{
		0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10,
	},
})

var LeaderboardDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "arena_leaderboard_duration_seconds",
	Help: "Duration of the leaderboard projection",
	Buckets: []float64{
		0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10,
	},
})
