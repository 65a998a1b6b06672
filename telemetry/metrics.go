// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	EventsTotal     *prometheus.CounterVec
	EventsDropped   prometheus.Counter
	ResultsApplied  prometheus.Counter
	Recalculations  prometheus.Counter
	ParseSkips      prometheus.Counter
	RoleChanges     *prometheus.CounterVec
	TitleExpiries   prometheus.Counter
	PublishFailures prometheus.Counter

	// Histograms (seconds)
	ReconcileDuration prometheus.Observer

	// Gauges
	CurrentStreakGauge   *prometheus.GaugeVec
	TrackedMessagesGauge *prometheus.GaugeVec
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "scrim_events_total", Help: "Reconciliation passes by event kind and outcome"}, []string{"kind", "outcome"})
		EventsDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "scrim_events_dropped_total", Help: "Events dropped because the queue was full"})
		ResultsApplied = promauto.NewCounter(prometheus.CounterOpts{Name: "scrim_results_applied_total", Help: "Game results folded into championship state"})
		Recalculations = promauto.NewCounter(prometheus.CounterOpts{Name: "scrim_recalculations_total", Help: "Full recalculations from the recent channel window"})
		ParseSkips = promauto.NewCounter(prometheus.CounterOpts{Name: "scrim_parse_skips_total", Help: "Malformed result matches skipped during parsing"})
		RoleChanges = promauto.NewCounterVec(prometheus.CounterOpts{Name: "scrim_role_changes_total", Help: "Championship role grants and revocations"}, []string{"op"})
		TitleExpiries = promauto.NewCounter(prometheus.CounterOpts{Name: "scrim_title_expiries_total", Help: "Reigns expired by the inactivity timeout"})
		PublishFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "scrim_publish_failures_total", Help: "Leaderboard publish attempts that failed"})
		ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "scrim_reconcile_duration_seconds", Help: "Reconciliation pass duration seconds", Buckets: prometheus.DefBuckets})
		CurrentStreakGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{Name: "scrim_current_streak", Help: "Current title streak per guild"}, []string{"guild"})
		TrackedMessagesGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{Name: "scrim_tracked_messages", Help: "Message ledger size per guild"}, []string{"guild"})
	})
}

// IncEvent counts one reconciliation pass by event kind and outcome.
func IncEvent(kind, outcome string) {
	if EventsTotal != nil {
		EventsTotal.WithLabelValues(kind, outcome).Inc()
	}
}

// IncEventDropped counts an event dropped at the queue.
func IncEventDropped() {
	if EventsDropped != nil {
		EventsDropped.Inc()
	}
}

// IncResultApplied counts one applied game result.
func IncResultApplied() {
	if ResultsApplied != nil {
		ResultsApplied.Inc()
	}
}

// IncRecalculation counts one completed window recalculation.
func IncRecalculation() {
	if Recalculations != nil {
		Recalculations.Inc()
	}
}

// IncParseSkip counts one malformed match skipped by the parser.
func IncParseSkip() {
	if ParseSkips != nil {
		ParseSkips.Inc()
	}
}

// IncRoleChange counts a role operation; op is "assign" or "unassign".
func IncRoleChange(op string) {
	if RoleChanges != nil {
		RoleChanges.WithLabelValues(op).Inc()
	}
}

// IncTitleExpiry counts a reign ended by the inactivity timeout.
func IncTitleExpiry() {
	if TitleExpiries != nil {
		TitleExpiries.Inc()
	}
}

// IncPublishFailure counts a failed leaderboard publish.
func IncPublishFailure() {
	if PublishFailures != nil {
		PublishFailures.Inc()
	}
}

// ObserveReconcile records the duration of one reconciliation pass.
func ObserveReconcile(seconds float64) {
	if ReconcileDuration != nil {
		ReconcileDuration.Observe(seconds)
	}
}

// SetCurrentStreak records the live streak for a guild.
func SetCurrentStreak(guild string, v float64) {
	if CurrentStreakGauge != nil {
		CurrentStreakGauge.WithLabelValues(guild).Set(v)
	}
}

// SetTrackedMessages records the message ledger size for a guild.
func SetTrackedMessages(guild string, v float64) {
	if TrackedMessagesGauge != nil {
		TrackedMessagesGauge.WithLabelValues(guild).Set(v)
	}
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
