package dberrors

import "errors"

var (
	ErrNotFound          = errors.New("compactd: not found")
	ErrClosed            = errors.New("compactd: closed")
	ErrInvalidArgument   = errors.New("compactd: invalid argument")
	ErrInvalidPartition  = errors.New("compactd: invalid partition format")
	ErrUnknownStrategy   = errors.New("compactd: unknown compaction strategy")
	ErrCompactionPending = errors.New("compactd: compaction already pending")
)
