package compaction

import "log/slog"

// DayBasedStrategy admits the most recent date partitions first, capped at
// Config.TargetPartitionsPerRun partitions per run. Partitions are admitted or
// rejected as a whole.
//
// A DayBasedStrategy is immutable and safe for concurrent use.
type DayBasedStrategy struct {
	parser partitionParser
}

var _ Strategy = (*DayBasedStrategy)(nil)

// NewDayBasedStrategy creates a day based strategy. Partition paths are parsed
// with DefaultPartitionLayout in UTC unless overridden.
func NewDayBasedStrategy(opts ...Option) *DayBasedStrategy {
	o := buildOptions(opts)
	return &DayBasedStrategy{
		parser: partitionParser{layout: o.layout, location: o.location},
	}
}

func (s *DayBasedStrategy) Name() string {
	return NameDayBased
}

// Layout returns the time layout partition paths must match.
func (s *DayBasedStrategy) Layout() string {
	return s.parser.layout
}

// Compare orders two partition paths most recent first. It fails with a
// *PartitionFormatError when either path does not parse.
func (s *DayBasedStrategy) Compare(left, right string) (int, error) {
	return s.parser.compare(left, right)
}

// OrderAndFilter returns the operations of the admitted partitions, newest
// partition first. Pending plans are accepted but not consulted.
func (s *DayBasedStrategy) OrderAndFilter(cfg Config, ops []Operation, pending []Plan) ([]Operation, error) {
	sel, err := s.Select(cfg, ops, pending)
	if err != nil {
		return nil, err
	}
	return sel.Operations, nil
}

// Select is OrderAndFilter that also reports which partitions were admitted
// and which were left for a later run.
func (s *DayBasedStrategy) Select(cfg Config, ops []Operation, _ []Plan) (Selection, error) {
	groups, err := s.parser.sortedGroups(ops)
	if err != nil {
		return Selection{}, err
	}

	budget := cfg.TargetPartitionsPerRun
	if budget <= 0 {
		if len(groups) > 0 {
			slog.Warn("non-positive partition budget, admitting no partitions",
				"strategy", NameDayBased, "target_partitions_per_run", budget, "partitions", len(groups))
		}
		budget = 0
	}
	budget = min(budget, len(groups))

	return flatten(groups[:budget], groups[budget:]), nil
}
