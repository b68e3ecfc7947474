package compaction

import (
	"log/slog"
	"time"
)

// BoundedPartitionAwareStrategy keeps only partitions dated within the last
// Config.TargetPartitionsPerRun days (today included), newest first.
type BoundedPartitionAwareStrategy struct {
	parser partitionParser
	now    func() time.Time
}

var _ Strategy = (*BoundedPartitionAwareStrategy)(nil)

func NewBoundedPartitionAwareStrategy(opts ...Option) *BoundedPartitionAwareStrategy {
	o := buildOptions(opts)
	return &BoundedPartitionAwareStrategy{
		parser: partitionParser{layout: o.layout, location: o.location},
		now:    o.now,
	}
}

func (s *BoundedPartitionAwareStrategy) Name() string {
	return NameBoundedPartitionAware
}

func (s *BoundedPartitionAwareStrategy) OrderAndFilter(cfg Config, ops []Operation, pending []Plan) ([]Operation, error) {
	sel, err := s.Select(cfg, ops, pending)
	if err != nil {
		return nil, err
	}
	return sel.Operations, nil
}

func (s *BoundedPartitionAwareStrategy) Select(cfg Config, ops []Operation, _ []Plan) (Selection, error) {
	groups, err := s.parser.sortedGroups(ops)
	if err != nil {
		return Selection{}, err
	}

	days := cfg.TargetPartitionsPerRun
	if days < 0 {
		if len(groups) > 0 {
			slog.Warn("negative day window, admitting no partitions",
				"strategy", NameBoundedPartitionAware, "target_partitions_per_run", days)
		}
		return flatten(nil, groups), nil
	}

	earliest := s.earliestDay(days)
	// groups are sorted newest first, so the first one older than the
	// window ends the admitted prefix
	cut := len(groups)
	for i, g := range groups {
		if g.date.Before(earliest) {
			cut = i
			break
		}
	}
	return flatten(groups[:cut], groups[cut:]), nil
}

func (s *BoundedPartitionAwareStrategy) earliestDay(days int) time.Time {
	t := s.now().In(s.parser.location)
	today := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.parser.location)
	return today.AddDate(0, 0, -days)
}
