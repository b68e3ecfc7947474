package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"compactd/pkg/compaction"
	"compactd/pkg/config"
	"compactd/pkg/dberrors"
	"compactd/pkg/metrics"
	"compactd/pkg/planstore"
)

const (
	reasonInvalidPartition = "invalid_partition"
	reasonUnknownStrategy  = "unknown_strategy"
	reasonPendingPlans     = "pending_plans"
	reasonOther            = "other"

	// metric label for requested names that match no strategy
	unknownStrategyLabel = "unknown"
)

// Request is one selection round. Nil overrides fall back to the configured
// values.
type Request struct {
	Strategy               string
	TargetPartitionsPerRun *int
	TargetIOPerRunMB       *int64
	Operations             []compaction.Operation
}

// Service runs compaction strategies against the pending plans of a store.
type Service struct {
	cfg      config.CompactionConfig
	strategy compaction.Strategy
	plans    planstore.Store
	metrics  metrics.Collector
}

// New builds a Service. plans may be nil, in which case no plan is pending.
func New(cfg config.CompactionConfig, plans planstore.Store, collector metrics.Collector) (*Service, error) {
	strategy, err := cfg.NewStrategy()
	if err != nil {
		return nil, err
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		cfg:      cfg,
		strategy: strategy,
		plans:    plans,
		metrics:  collector,
	}, nil
}

// StrategyName returns the name of the configured strategy.
func (s *Service) StrategyName() string {
	return s.strategy.Name()
}

// Select picks the operations admitted into this run.
func (s *Service) Select(ctx context.Context, req Request) (compaction.Selection, error) {
	strategy, err := s.strategyFor(req.Strategy)
	if err != nil {
		s.metrics.IncSelectionError(unknownStrategyLabel, reasonUnknownStrategy)
		return compaction.Selection{}, err
	}
	name := strategy.Name()

	pending, err := s.pending(ctx)
	if err != nil {
		s.metrics.IncSelectionError(name, reasonPendingPlans)
		return compaction.Selection{}, fmt.Errorf("list pending plans: %w", err)
	}

	cfg := s.cfg.StrategyConfig()
	if req.TargetPartitionsPerRun != nil {
		cfg.TargetPartitionsPerRun = *req.TargetPartitionsPerRun
	}
	if req.TargetIOPerRunMB != nil {
		cfg.TargetIOPerRunMB = *req.TargetIOPerRunMB
	}

	start := time.Now()
	sel, err := compaction.Select(strategy, cfg, req.Operations, pending)
	if err != nil {
		reason := reasonOther
		if errors.Is(err, dberrors.ErrInvalidPartition) {
			reason = reasonInvalidPartition
		}
		s.metrics.IncSelectionError(name, reason)
		slog.Error("compaction selection failed", "strategy", name, "candidates", len(req.Operations), "error", err)
		return compaction.Selection{}, err
	}

	s.metrics.ObserveSelection(name, len(sel.Operations), len(sel.Admitted), len(sel.Rejected))
	slog.Info("compaction selection done",
		"strategy", name,
		"candidates", len(req.Operations),
		"admitted_operations", len(sel.Operations),
		"admitted_partitions", len(sel.Admitted),
		"rejected_partitions", len(sel.Rejected),
		"pending_plans", len(pending),
		"took", time.Since(start))
	return sel, nil
}

func (s *Service) strategyFor(name string) (compaction.Strategy, error) {
	if name == "" || name == s.cfg.Strategy {
		return s.strategy, nil
	}
	cfg := s.cfg
	cfg.Strategy = name
	return cfg.NewStrategy()
}

func (s *Service) pending(ctx context.Context) ([]compaction.Plan, error) {
	if s.plans == nil {
		return nil, nil
	}
	return s.plans.List(ctx)
}
