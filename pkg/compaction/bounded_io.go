package compaction

import "slices"

// UnboundedStrategy admits every operation in input order.
type UnboundedStrategy struct{}

var _ Strategy = UnboundedStrategy{}

func (UnboundedStrategy) Name() string {
	return NameUnbounded
}

func (UnboundedStrategy) OrderAndFilter(_ Config, ops []Operation, _ []Plan) ([]Operation, error) {
	return slices.Clone(ops), nil
}

// BoundedIOStrategy admits operations in input order until their summed
// TOTAL_IO_MB reaches Config.TargetIOPerRunMB. The operation that exhausts
// the budget is still admitted.
type BoundedIOStrategy struct{}

var _ Strategy = BoundedIOStrategy{}

func (BoundedIOStrategy) Name() string {
	return NameBoundedIO
}

func (BoundedIOStrategy) OrderAndFilter(cfg Config, ops []Operation, _ []Plan) ([]Operation, error) {
	return boundByIO(cfg.TargetIOPerRunMB, ops), nil
}

// LogFileSizeStrategy admits the file groups with the largest accumulated log
// files first, bounded by Config.TargetIOPerRunMB.
type LogFileSizeStrategy struct{}

var _ Strategy = LogFileSizeStrategy{}

func (LogFileSizeStrategy) Name() string {
	return NameLogFileSize
}

func (LogFileSizeStrategy) OrderAndFilter(cfg Config, ops []Operation, _ []Plan) ([]Operation, error) {
	sorted := slices.Clone(ops)
	slices.SortStableFunc(sorted, func(a, b Operation) int {
		la, lb := a.Metric(MetricTotalLogFilesSize), b.Metric(MetricTotalLogFilesSize)
		switch {
		case la > lb:
			return -1
		case la < lb:
			return 1
		default:
			return 0
		}
	})
	return boundByIO(cfg.TargetIOPerRunMB, sorted), nil
}

func boundByIO(targetMB int64, ops []Operation) []Operation {
	out := make([]Operation, 0, len(ops))
	if targetMB <= 0 {
		return out
	}

	remaining := float64(targetMB)
	for _, op := range ops {
		remaining -= op.Metric(MetricTotalIOMB)
		out = append(out, op)
		if remaining <= 0 {
			break
		}
	}
	return out
}
