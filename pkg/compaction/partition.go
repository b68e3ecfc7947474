package compaction

import (
	"slices"
	"time"
)

// partitionGroup holds every operation of one partition in input order.
type partitionGroup struct {
	path string
	date time.Time
	ops  []Operation
}

// partitionParser turns partition paths into dates. It holds no mutable state.
type partitionParser struct {
	layout   string
	location *time.Location
}

func (p partitionParser) parse(partition string) (time.Time, error) {
	date, err := time.ParseInLocation(p.layout, partition, p.location)
	if err != nil {
		return time.Time{}, &PartitionFormatError{Partition: partition, Layout: p.layout, Err: err}
	}
	return date, nil
}

// compare orders partitions last-in first: the more recent partition sorts first.
func (p partitionParser) compare(left, right string) (int, error) {
	l, err := p.parse(left)
	if err != nil {
		return 0, err
	}
	r, err := p.parse(right)
	if err != nil {
		return 0, err
	}
	return r.Compare(l), nil
}

// groupByPartition groups operations by partition path. Groups come out in the
// order their partition first appears so that later stable sorting is
// deterministic for identical input.
func groupByPartition(ops []Operation) []*partitionGroup {
	index := make(map[string]*partitionGroup)
	groups := make([]*partitionGroup, 0)
	for _, op := range ops {
		g, ok := index[op.PartitionPath]
		if !ok {
			g = &partitionGroup{path: op.PartitionPath}
			index[op.PartitionPath] = g
			groups = append(groups, g)
		}
		g.ops = append(g.ops, op)
	}
	return groups
}

// sortedGroups groups ops, parses each distinct partition once and sorts the
// groups by descending date. Equal dates keep their relative order.
func (p partitionParser) sortedGroups(ops []Operation) ([]*partitionGroup, error) {
	groups := groupByPartition(ops)
	for _, g := range groups {
		date, err := p.parse(g.path)
		if err != nil {
			return nil, err
		}
		g.date = date
	}

	slices.SortStableFunc(groups, func(a, b *partitionGroup) int {
		return b.date.Compare(a.date)
	})
	return groups, nil
}

func flatten(admitted, rejected []*partitionGroup) Selection {
	n := 0
	for _, g := range admitted {
		n += len(g.ops)
	}

	sel := Selection{
		Operations: make([]Operation, 0, n),
		Admitted:   make([]string, 0, len(admitted)),
		Rejected:   make([]string, 0, len(rejected)),
	}
	for _, g := range admitted {
		sel.Operations = append(sel.Operations, g.ops...)
		sel.Admitted = append(sel.Admitted, g.path)
	}
	for _, g := range rejected {
		sel.Rejected = append(sel.Rejected, g.path)
	}
	return sel
}
