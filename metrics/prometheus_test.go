package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDefaultIsSingleton(t *testing.T) {
	a := Default()
	b := Default()
	if a != b {
		t.Fatal("Default returned distinct instances")
	}
}

func TestMetricsRecord(t *testing.T) {
	m := Default()

	m.ActiveNodes.Set(3)
	if got := testutil.ToFloat64(m.ActiveNodes); got != 3 {
		t.Errorf("ActiveNodes = %v, want 3", got)
	}

	before := testutil.ToFloat64(m.RetriesTotal)
	m.RetriesTotal.Inc()
	if got := testutil.ToFloat64(m.RetriesTotal); got != before+1 {
		t.Errorf("RetriesTotal = %v, want %v", got, before+1)
	}

	m.NodeDeactivations.WithLabelValues("east").Inc()
	if got := testutil.ToFloat64(m.NodeDeactivations.WithLabelValues("east")); got < 1 {
		t.Errorf("NodeDeactivations{east} = %v, want >= 1", got)
	}

	m.RequestsTotal.WithLabelValues("get", "success").Inc()
	m.RequestDuration.WithLabelValues("get").Observe(0.01)
}
