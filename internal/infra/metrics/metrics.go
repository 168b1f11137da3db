// Package metrics provides Prometheus metrics for squadxp.
// Counters and gauges for the XP ledger, achievements, reconciliation,
// persistence, health and HTTP traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/squadplanner/squadxp/internal/app/gamification"
)

// ─── XP Ledger ──────────────────────────────────────────────────────────────

// XPAwarded tracks XP granted by action, bonuses excluded.
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "squadxp",
	Name:      "xp_awarded_total",
	Help:      "Total XP granted per action.",
}, []string{"action"})

// XPBonus tracks XP granted through achievement bonuses.
var XPBonus = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "squadxp",
	Name:      "xp_bonus_total",
	Help:      "Total XP granted by achievement bonuses.",
})

// UnknownActions counts AddXP calls for actions outside the reward table.
var UnknownActions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "squadxp",
	Name:      "unknown_actions_total",
	Help:      "AddXP calls ignored because the action is unknown.",
})

// XPCurrent tracks the profile's cumulative XP.
var XPCurrent = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "squadxp",
	Name:      "xp_current",
	Help:      "Current cumulative XP.",
})

// LevelCurrent tracks the profile's level.
var LevelCurrent = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "squadxp",
	Name:      "level_current",
	Help:      "Current level.",
})

// LevelUps counts level crossings.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "squadxp",
	Name:      "level_ups_total",
	Help:      "Total level crossings.",
})

// ─── Achievements ───────────────────────────────────────────────────────────

// AchievementsUnlocked counts unlocks per achievement id.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "squadxp",
	Name:      "achievements_unlocked_total",
	Help:      "Total achievement unlocks by id.",
}, []string{"id"})

// ─── Reconciliation ─────────────────────────────────────────────────────────

// SyncResults counts remote reconciliations by outcome (adopted, kept, error).
var SyncResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "squadxp",
	Name:      "sync_results_total",
	Help:      "Remote profile reconciliations by outcome.",
}, []string{"outcome"})

// SyncLatency tracks remote profile fetch latency.
var SyncLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "squadxp",
	Name:      "sync_latency_seconds",
	Help:      "Remote profile fetch latency in seconds.",
	Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
})

// ─── Persistence ────────────────────────────────────────────────────────────

// PersistWrites counts snapshot writes by result (ok, error).
var PersistWrites = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "squadxp",
	Name:      "persist_writes_total",
	Help:      "Snapshot writes by result.",
}, []string{"result"})

// PersistRetries counts scheduled write retries.
var PersistRetries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "squadxp",
	Name:      "persist_retries_total",
	Help:      "Snapshot write retries attempted.",
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "squadxp",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts API requests by route pattern and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "squadxp",
	Name:      "http_requests_total",
	Help:      "API requests by route and status.",
}, []string{"route", "status"})

// WSClients tracks connected websocket clients.
var WSClients = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "squadxp",
	Name:      "ws_clients",
	Help:      "Connected websocket clients.",
})

// ─── Engine Listener ────────────────────────────────────────────────────────

// NewObserver returns a listener for one engine. Counters record every
// change; the gauges follow the newest state only.
func NewObserver() gamification.Listener {
	var latest gamification.LatestFilter
	return func(c gamification.Change) {
		if latest.Fresh(c) {
			XPCurrent.Set(float64(c.State.XP))
			LevelCurrent.Set(float64(c.State.Level))
		}
		observe(c)
	}
}

func observe(c gamification.Change) {
	if c.Kind != gamification.ChangeXP || c.Award == nil {
		return
	}
	a := c.Award
	XPAwarded.WithLabelValues(string(a.Action)).Add(float64(a.Reward))
	if a.LeveledUp {
		LevelUps.Inc()
	}
	if a.Unlocked != nil {
		AchievementsUnlocked.WithLabelValues(a.Unlocked.ID).Inc()
		XPBonus.Add(float64(a.Bonus))
	}
}
