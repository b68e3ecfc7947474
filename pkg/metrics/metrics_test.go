package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheus_ObserveSelection(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.ObserveSelection("day_based", 7, 2, 3)
	p.ObserveSelection("day_based", 1, 1, 0)

	if got := testutil.ToFloat64(p.selections.WithLabelValues("day_based")); got != 2 {
		t.Fatalf("expected 2 selections, got %v", got)
	}
	if got := testutil.ToFloat64(p.operations.WithLabelValues("day_based")); got != 8 {
		t.Fatalf("expected 8 operations, got %v", got)
	}
	if got := testutil.ToFloat64(p.admittedPartitions.WithLabelValues("day_based")); got != 3 {
		t.Fatalf("expected 3 admitted partitions, got %v", got)
	}
	if got := testutil.ToFloat64(p.rejectedPartitions.WithLabelValues("day_based")); got != 3 {
		t.Fatalf("expected 3 rejected partitions, got %v", got)
	}
}

func TestPrometheus_IncSelectionError(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.IncSelectionError("day_based", "invalid_partition")

	if got := testutil.ToFloat64(p.errors.WithLabelValues("day_based", "invalid_partition")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if n := testutil.CollectAndCount(p.errors); n != 1 {
		t.Fatalf("expected 1 error series, got %d", n)
	}
}
