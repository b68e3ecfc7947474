package compaction

import (
	"fmt"
	"log/slog"
	"sort"

	"compactd/pkg/dberrors"
)

const (
	NameUnbounded             = "unbounded"
	NameBoundedIO             = "bounded_io"
	NameLogFileSize           = "log_file_size"
	NameDayBased              = "day_based"
	NameBoundedPartitionAware = "bounded_partition_aware"
)

// Strategy decides which pending compaction operations enter the current run
// and in what order.
//
// Implementations must not modify ops or pending, must return a subset of ops
// and must give identical output for identical input.
type Strategy interface {
	Name() string
	OrderAndFilter(cfg Config, ops []Operation, pending []Plan) ([]Operation, error)
}

// Selector is implemented by strategies that admit whole partitions and can
// report the partitions they admitted and rejected.
type Selector interface {
	Strategy
	Select(cfg Config, ops []Operation, pending []Plan) (Selection, error)
}

var constructors = map[string]func(opts ...Option) Strategy{
	NameUnbounded:   func(...Option) Strategy { return UnboundedStrategy{} },
	NameBoundedIO:   func(...Option) Strategy { return BoundedIOStrategy{} },
	NameLogFileSize: func(...Option) Strategy { return LogFileSizeStrategy{} },
	NameDayBased: func(opts ...Option) Strategy {
		return NewDayBasedStrategy(opts...)
	},
	NameBoundedPartitionAware: func(opts ...Option) Strategy {
		return NewBoundedPartitionAwareStrategy(opts...)
	},
}

// New returns the strategy registered under name.
func New(name string, opts ...Option) (Strategy, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dberrors.ErrUnknownStrategy, name)
	}
	return ctor(opts...), nil
}

// Names lists the registered strategy names in lexical order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select runs s and returns a Selection. For strategies that do not work on
// whole partitions, Admitted lists the partitions of the returned operations
// and Rejected the remaining ones, both in order of first appearance.
func Select(s Strategy, cfg Config, ops []Operation, pending []Plan) (Selection, error) {
	if sel, ok := s.(Selector); ok {
		return sel.Select(cfg, ops, pending)
	}

	out, err := s.OrderAndFilter(cfg, ops, pending)
	if err != nil {
		return Selection{}, err
	}

	sel := Selection{Operations: out, Admitted: []string{}, Rejected: []string{}}
	seen := make(map[string]struct{})
	for _, op := range out {
		if _, ok := seen[op.PartitionPath]; !ok {
			seen[op.PartitionPath] = struct{}{}
			sel.Admitted = append(sel.Admitted, op.PartitionPath)
		}
	}
	for _, op := range ops {
		if _, ok := seen[op.PartitionPath]; !ok {
			seen[op.PartitionPath] = struct{}{}
			sel.Rejected = append(sel.Rejected, op.PartitionPath)
		}
	}
	return sel, nil
}

type fileGroupID struct {
	partition string
	fileID    string
}

// PendingAwareStrategy drops operations on file groups that already belong to
// a pending plan, then delegates to the wrapped strategy.
type PendingAwareStrategy struct {
	inner Strategy
}

var _ Strategy = (*PendingAwareStrategy)(nil)

// PendingAware wraps inner so that file groups already scheduled in a pending
// plan are never selected twice.
func PendingAware(inner Strategy) *PendingAwareStrategy {
	return &PendingAwareStrategy{inner: inner}
}

func (s *PendingAwareStrategy) Name() string {
	return s.inner.Name()
}

func (s *PendingAwareStrategy) OrderAndFilter(cfg Config, ops []Operation, pending []Plan) ([]Operation, error) {
	return s.inner.OrderAndFilter(cfg, s.exclude(ops, pending), pending)
}

func (s *PendingAwareStrategy) Select(cfg Config, ops []Operation, pending []Plan) (Selection, error) {
	return Select(s.inner, cfg, s.exclude(ops, pending), pending)
}

func (s *PendingAwareStrategy) exclude(ops []Operation, pending []Plan) []Operation {
	if len(pending) == 0 {
		return ops
	}

	scheduled := make(map[fileGroupID]struct{})
	for _, plan := range pending {
		for _, op := range plan.Operations {
			scheduled[fileGroupID{partition: op.PartitionPath, fileID: op.FileID}] = struct{}{}
		}
	}

	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if _, ok := scheduled[fileGroupID{partition: op.PartitionPath, fileID: op.FileID}]; ok {
			continue
		}
		out = append(out, op)
	}
	if excluded := len(ops) - len(out); excluded > 0 {
		slog.Debug("excluded file groups with pending compaction",
			"strategy", s.inner.Name(), "excluded", excluded, "pending_plans", len(pending))
	}
	return out
}
