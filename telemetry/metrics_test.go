package telemetry

import (
	"context"
	"testing"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	Init() // second call must not re-register

	if EventsTotal == nil {
		t.Error("EventsTotal not initialized")
	}
	if ReconcileDuration == nil {
		t.Error("ReconcileDuration not initialized")
	}
	if CurrentStreakGauge == nil {
		t.Error("CurrentStreakGauge not initialized")
	}
	if TrackedMessagesGauge == nil {
		t.Error("TrackedMessagesGauge not initialized")
	}
}

func TestCounterHelpers(t *testing.T) {
	Init()

	// Helpers must accept any label values without panicking.
	IncEvent("create", "applied")
	IncEvent("edit", "recalculated")
	IncEvent("sweep", "noop")
	IncEventDropped()
	IncResultApplied()
	IncRecalculation()
	IncParseSkip()
	IncRoleChange("assign")
	IncRoleChange("unassign")
	IncTitleExpiry()
	IncPublishFailure()
}

func TestGaugeAndHistogramHelpers(t *testing.T) {
	Init()

	SetCurrentStreak("guild-1", 3)
	SetCurrentStreak("guild-1", 0)
	SetTrackedMessages("guild-1", 5)
	ObserveReconcile(0.002)
	ObserveReconcile(1.5)
}

func TestCorrelationRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Errorf("GetCorrelation(empty ctx) = %q, want empty", got)
	}

	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Errorf("GetCorrelation() = %q, want abc-123", got)
	}
}

func TestLoggerWithCorr(t *testing.T) {
	if LoggerWithCorr(context.Background()) == nil {
		t.Error("LoggerWithCorr returned nil for plain context")
	}
	ctx := WithCorrelation(context.Background(), "abc-123")
	if LoggerWithCorr(ctx) == nil {
		t.Error("LoggerWithCorr returned nil for correlated context")
	}
}
