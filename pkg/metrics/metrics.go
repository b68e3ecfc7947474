package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "compactd"
	subsystem = "selection"
)

// Collector records the outcome of compaction selections.
type Collector interface {
	ObserveSelection(strategy string, operations, admittedPartitions, rejectedPartitions int)
	IncSelectionError(strategy, reason string)
}

// Prometheus is a Collector backed by Prometheus counters and histograms.
type Prometheus struct {
	selections         *prometheus.CounterVec
	operations         *prometheus.CounterVec
	admittedPartitions *prometheus.CounterVec
	rejectedPartitions *prometheus.CounterVec
	selectionSize      *prometheus.HistogramVec
	errors             *prometheus.CounterVec
}

var _ Collector = (*Prometheus)(nil)

// NewPrometheus creates the selection metrics and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Total number of compaction selections, per strategy",
		}, []string{"strategy"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operations_admitted_total",
			Help:      "Total number of compaction operations admitted into a run, per strategy",
		}, []string{"strategy"}),
		admittedPartitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "partitions_admitted_total",
			Help:      "Total number of partitions admitted into a run, per strategy",
		}, []string{"strategy"}),
		rejectedPartitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "partitions_rejected_total",
			Help:      "Total number of partitions left for a later run, per strategy",
		}, []string{"strategy"}),
		selectionSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operations_per_run",
			Help:      "Number of operations admitted per run, per strategy",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"strategy"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of failed selections, per strategy and reason",
		}, []string{"strategy", "reason"}),
	}

	reg.MustRegister(
		p.selections,
		p.operations,
		p.admittedPartitions,
		p.rejectedPartitions,
		p.selectionSize,
		p.errors,
	)
	return p
}

func (p *Prometheus) ObserveSelection(strategy string, operations, admittedPartitions, rejectedPartitions int) {
	p.selections.WithLabelValues(strategy).Inc()
	p.operations.WithLabelValues(strategy).Add(float64(operations))
	p.admittedPartitions.WithLabelValues(strategy).Add(float64(admittedPartitions))
	p.rejectedPartitions.WithLabelValues(strategy).Add(float64(rejectedPartitions))
	p.selectionSize.WithLabelValues(strategy).Observe(float64(operations))
}

func (p *Prometheus) IncSelectionError(strategy, reason string) {
	p.errors.WithLabelValues(strategy, reason).Inc()
}

// Nop discards everything.
type Nop struct{}

var _ Collector = Nop{}

func (Nop) ObserveSelection(string, int, int, int) {}

func (Nop) IncSelectionError(string, string) {}
