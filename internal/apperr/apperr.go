// Package apperr is the error taxonomy of the scheduling engine.
// Every error leaving the service layer is an *Error carrying a Kind and,
// where callers need to tell situations apart, a Reason.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindForbidden
	KindConflict
	KindDuplicate
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindDuplicate:
		return "duplicate"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Retryable reports whether the caller may retry the same call.
// Conflicts are retryable only after refetching current state.
func (k Kind) Retryable() bool {
	return k == KindConflict || k == KindUnavailable
}

// Sentinels for errors.Is checks, one per kind.
var (
	ErrInternal     = errors.New("internal error")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrDuplicate    = errors.New("duplicate")
	ErrUnavailable  = errors.New("unavailable")
)

var sentinels = map[Kind]error{
	KindInternal:     ErrInternal,
	KindInvalidInput: ErrInvalidInput,
	KindNotFound:     ErrNotFound,
	KindForbidden:    ErrForbidden,
	KindConflict:     ErrConflict,
	KindDuplicate:    ErrDuplicate,
	KindUnavailable:  ErrUnavailable,
}

// Reason discriminates errors of the same kind for the calling layer
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonSlotUnavailable     Reason = "slot_unavailable"     // requestBooking lost the slot
	ReasonAppointmentResolved Reason = "appointment_resolved" // decide/cancel on a settled appointment
	ReasonSlotNotOpen         Reason = "slot_not_open"        // withdraw of a held/booked slot
	ReasonAlreadyApproved     Reason = "already_approved"
	ReasonInvariantViolation  Reason = "invariant_violation"
)

type Error struct {
	Kind    Kind
	Reason  Reason
	Op      string // operation that failed, e.g. "booking.RequestBooking"
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinel as well as the wrapped error chain
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func InvalidInput(op, message string) *Error {
	return New(KindInvalidInput, op, message)
}

func NotFound(op, message string) *Error {
	return New(KindNotFound, op, message)
}

func Forbidden(op, message string) *Error {
	return New(KindForbidden, op, message)
}

func Conflict(op string, reason Reason, message string) *Error {
	e := New(KindConflict, op, message)
	e.Reason = reason
	return e
}

func Duplicate(op, message string) *Error {
	return New(KindDuplicate, op, message)
}

// Invariant reports a detected inconsistency between slot and appointment state
func Invariant(op, message string) *Error {
	e := New(KindInternal, op, message)
	e.Reason = ReasonInvariantViolation
	return e
}

// KindOf returns the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ReasonOf returns the reason code of err, if any
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonNone
}

// As returns err as *Error when it is one
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
