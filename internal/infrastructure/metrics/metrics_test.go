package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.TransactionsCreated == nil || m.StageTransitions == nil || m.CacheHits == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.TransactionsCreated.Inc()
	m.StageTransitions.WithLabelValues("agreement", "earnest_money").Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	if got := testutil.ToFloat64(m.TransactionsCreated); got != 1 {
		t.Errorf("expected 1 created transaction, got %v", got)
	}
	if got := testutil.ToFloat64(m.StageTransitions.WithLabelValues("agreement", "earnest_money")); got != 1 {
		t.Errorf("expected 1 transition, got %v", got)
	}
}

func TestNewSeparateRegistries(t *testing.T) {
	// Two instances on distinct registries must not collide.
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}
