package compaction

import (
	"errors"
	"fmt"

	"compactd/pkg/dberrors"
)

// PartitionFormatError reports a partition path that does not parse under the
// strategy's partition layout. It aborts the whole selection.
type PartitionFormatError struct {
	Partition string
	Layout    string
	Err       error
}

func (e *PartitionFormatError) Error() string {
	return fmt.Sprintf("invalid partition date format: partition %q does not match layout %q: %v",
		e.Partition, e.Layout, e.Err)
}

// Unwrap exposes both the parse failure and dberrors.ErrInvalidPartition.
func (e *PartitionFormatError) Unwrap() []error {
	return []error{dberrors.ErrInvalidPartition, e.Err}
}

// IsPartitionFormatError reports whether err carries a *PartitionFormatError.
func IsPartitionFormatError(err error) bool {
	var pfe *PartitionFormatError
	return errors.As(err, &pfe)
}
