package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLeadMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLeadMetrics(reg)

	m.ObserveCreate(OutcomeCreated, 0.02)
	m.ObserveCreate(OutcomeCreated, 0.03)
	m.ObserveCreate(OutcomeDuplicate, 0.01)
	m.ObserveListCache("hit")

	if got := testutil.ToFloat64(m.createTotal.WithLabelValues(OutcomeCreated)); got != 2 {
		t.Fatalf("expected 2 created, got %v", got)
	}
	if got := testutil.ToFloat64(m.createTotal.WithLabelValues(OutcomeDuplicate)); got != 1 {
		t.Fatalf("expected 1 duplicate, got %v", got)
	}
	if got := testutil.ToFloat64(m.listCache.WithLabelValues("hit")); got != 1 {
		t.Fatalf("expected 1 cache hit, got %v", got)
	}
}

func TestLeadMetricsNilSafe(t *testing.T) {
	var m *LeadMetrics
	m.ObserveCreate(OutcomeError, 0.1)
	m.ObserveListCache("miss")
}
