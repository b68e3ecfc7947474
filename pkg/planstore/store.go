package planstore

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"compactd/pkg/compaction"
	"compactd/pkg/dberrors"
)

// Store keeps the compaction plans that are scheduled but not yet executed,
// ordered by instant time.
type Store interface {
	// Put schedules a plan. It fails with dberrors.ErrCompactionPending when a
	// plan with the same instant time already exists.
	Put(ctx context.Context, plan compaction.Plan) error
	Get(ctx context.Context, instant string) (compaction.Plan, error)
	Delete(ctx context.Context, instant string) error
	// List returns every pending plan in ascending instant order.
	List(ctx context.Context) ([]compaction.Plan, error)
	Close() error
}

func validateInstant(instant string) error {
	if instant == "" {
		return fmt.Errorf("%w: empty instant time", dberrors.ErrInvalidArgument)
	}
	// instants name znodes, so only [0-9A-Za-z_-] is allowed
	for _, c := range instant {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '-':
		default:
			return fmt.Errorf("%w: instant time %q contains %q", dberrors.ErrInvalidArgument, instant, c)
		}
	}
	return nil
}

// clonePlan deep-copies plan so the stored value shares nothing with the caller.
func clonePlan(plan compaction.Plan) compaction.Plan {
	plan.ExtraMetadata = maps.Clone(plan.ExtraMetadata)
	if plan.Operations == nil {
		return plan
	}
	ops := make([]compaction.Operation, len(plan.Operations))
	for i, op := range plan.Operations {
		op.DeltaFilePaths = slices.Clone(op.DeltaFilePaths)
		op.Metrics = maps.Clone(op.Metrics)
		ops[i] = op
	}
	plan.Operations = ops
	return plan
}
