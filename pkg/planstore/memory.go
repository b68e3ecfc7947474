package planstore

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/zhangyunhao116/skipmap"

	"compactd/pkg/compaction"
	"compactd/pkg/dberrors"
)

type planMap = skipmap.FuncMap[string, compaction.Plan]

// Memory is an in-process Store. Plans iterate in instant order without an
// explicit sort because the underlying skip list keeps keys ordered.
type Memory struct {
	plans  *planMap
	closed atomic.Bool
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		plans: skipmap.NewFunc[string, compaction.Plan](func(a, b string) bool {
			return strings.Compare(a, b) < 0
		}),
	}
}

func (m *Memory) Put(_ context.Context, plan compaction.Plan) error {
	if m.closed.Load() {
		return dberrors.ErrClosed
	}
	if err := validateInstant(plan.InstantTime); err != nil {
		return err
	}

	if _, loaded := m.plans.LoadOrStore(plan.InstantTime, clonePlan(plan)); loaded {
		return fmt.Errorf("%w: instant %s", dberrors.ErrCompactionPending, plan.InstantTime)
	}
	return nil
}

func (m *Memory) Get(_ context.Context, instant string) (compaction.Plan, error) {
	if m.closed.Load() {
		return compaction.Plan{}, dberrors.ErrClosed
	}

	plan, ok := m.plans.Load(instant)
	if !ok {
		return compaction.Plan{}, fmt.Errorf("%w: instant %s", dberrors.ErrNotFound, instant)
	}
	return clonePlan(plan), nil
}

func (m *Memory) Delete(_ context.Context, instant string) error {
	if m.closed.Load() {
		return dberrors.ErrClosed
	}

	if _, ok := m.plans.LoadAndDelete(instant); !ok {
		return fmt.Errorf("%w: instant %s", dberrors.ErrNotFound, instant)
	}
	return nil
}

func (m *Memory) List(_ context.Context) ([]compaction.Plan, error) {
	if m.closed.Load() {
		return nil, dberrors.ErrClosed
	}

	result := make([]compaction.Plan, 0, m.plans.Len())
	m.plans.Range(func(_ string, plan compaction.Plan) bool {
		result = append(result, clonePlan(plan))
		return true
	})
	return result, nil
}

func (m *Memory) Close() error {
	m.closed.Store(true)
	return nil
}
