// Package database implements the embedded API surface consumed by
// external collaborators (the binder and planner, both out of scope
// per spec.md §1): connect/executeStatement/QueryResult, transaction
// control, and the extension hooks (spec.md §6), plus a thin built-in
// scan + hash-join execution path so the storage (C1) and join-probe
// (C2) cores have a real caller.
package database

import (
	"errors"
	"fmt"

	"github.com/latticedb/graphcore/pkg/storage/hashindex"
	"github.com/latticedb/graphcore/pkg/storage/wal"
)

// ErrorKind classifies a failed QueryResult per spec.md §7's taxonomy.
type ErrorKind uint8

const (
	// ErrBinding covers syntax/binding errors: unknown table/column,
	// duplicate projection, type mismatch (spec.md §7).
	ErrBinding ErrorKind = iota
	// ErrRuntime covers runtime execution errors: duplicate map keys,
	// cast failure, unaligned list sizes (spec.md §7).
	ErrRuntime
	// ErrStorage covers I/O failure, WAL replay inconsistency, hash-index
	// corruption (spec.md §7).
	ErrStorage
	// ErrNotImplemented is reached only when a planner-produced operator
	// variant has no implementation here; always a developer bug (spec.md
	// §7).
	ErrNotImplemented
)

func (k ErrorKind) String() string {
	switch k {
	case ErrBinding:
		return "binding"
	case ErrRuntime:
		return "runtime"
	case ErrStorage:
		return "storage"
	case ErrNotImplemented:
		return "not_implemented"
	default:
		return "unknown"
	}
}

// Error is the classified error that a failed QueryResult reports and
// that Insert and CreateNodeTable return (spec.md §7: "no exception
// escapes the embedding API"). Open, Close, Commit and
// CommitSkipCheckpoint return the wrapped lower-level error unclassified,
// and QueryResult.Next returns whatever error its operator produced.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Message }

func (e *Error) Unwrap() error { return e.cause }

func newError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// classifyStorageErr maps a lower-level storage sentinel to the §7
// "storage errors" kind; anything else surfaces as ErrRuntime since it
// reached this package during execution, not during binding.
func classifyStorageErr(err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, wal.ErrCorrupt) {
		return newError(ErrStorage, err, "write-ahead log replay inconsistency: %v", err)
	}
	if errors.Is(err, hashindex.ErrCorrupt) {
		return newError(ErrStorage, err, "primary-key index corruption: %v", err)
	}
	return newError(ErrRuntime, err, "%v", err)
}
