// Package apperr carries the behavioural kind of a failure alongside the
// wrapped cause, so handlers can decide what the learner sees.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	PermissionDenied
	NotFound
	EmptyPool
	Conflict
	External
	SchemaMissing
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case PermissionDenied:
		return "permission_denied"
	case NotFound:
		return "not_found"
	case EmptyPool:
		return "empty_pool"
	case Conflict:
		return "conflict"
	case External:
		return "external"
	case SchemaMissing:
		return "schema_missing"
	}
	return "internal"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func New(kind Kind, err error, msg string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Msg:  fmt.Sprintf(msg, args...),
		Err:  err,
	}
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg != "" {
		return e.Msg + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
