// Package apperr classifies errors that cross the HTTP boundary.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind is the category of a failure as seen by a caller.
type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	Conflict
	MalformedID
	MethodNotAllowed
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case MalformedID:
		return "malformed_id"
	case MethodNotAllowed:
		return "method_not_allowed"
	default:
		return "internal"
	}
}

// Status maps the kind onto an HTTP status code. Conflicts share 400 with
// validation failures; clients tell them apart by message only.
func (k Kind) Status() int {
	switch k {
	case Validation, Conflict, MalformedID:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error with a message safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New returns a classified error annotated with the caller's stack.
func New(kind Kind, msg string) error {
	return errors.WithStack(&Error{Kind: kind, Message: msg})
}

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap classifies cause. The caller-facing message is msg; cause stays
// reachable through errors.Is/As.
func Wrap(kind Kind, cause error, msg string) error {
	return errors.WithStack(&Error{Kind: kind, Message: msg, cause: cause})
}

// KindOf reports the kind of err; unclassified errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf returns the caller-facing message of err. Unclassified errors
// expose their own text, matching what the store reported.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
