package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every service error wraps exactly one of them so the delivery
// layer can map it with errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal failure")
)

// Error is a domain error of a given kind.
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

var (
	ErrMissingIdentity = newError(ErrUnauthenticated, "authentication required")

	ErrProfileNotFound    = newError(ErrNotFound, "profile not found")
	ErrServerNotFound     = newError(ErrNotFound, "server not found")
	ErrInviteNotFound     = newError(ErrNotFound, "invite code not found")
	ErrMemberNotFound     = newError(ErrNotFound, "member not found")
	ErrChannelNotFound    = newError(ErrNotFound, "channel not found")
	ErrAssessmentNotFound = newError(ErrNotFound, "assessment not found")
	ErrResultNotFound     = newError(ErrNotFound, "result not found")

	ErrNotMember          = newError(ErrForbidden, "not a member of this server")
	ErrMembershipPending  = newError(ErrForbidden, "membership is awaiting approval")
	ErrMembershipRejected = newError(ErrForbidden, "membership was rejected")
	ErrInsufficientRole   = newError(ErrForbidden, "insufficient role")
	ErrOwnerProtected     = newError(ErrForbidden, "the server owner's membership cannot be changed this way")

	ErrEmptyAnswers     = newError(ErrInvalidInput, "answers are empty")
	ErrAssessmentClosed = newError(ErrInvalidInput, "assessment is not active")
	ErrDeadlinePassed   = newError(ErrInvalidInput, "assessment deadline has passed")
	ErrInvalidScore     = newError(ErrInvalidInput, "score must be between 0 and 10")
	ErrEmptyFile        = newError(ErrInvalidInput, "file is empty")
	ErrInvalidAnswers   = newError(ErrInvalidInput, "answers are malformed")
	ErrNotEssay         = newError(ErrInvalidInput, "essay answers must be uploaded as a file")

	ErrAlreadyMember         = newError(ErrConflict, "profile is already a member")
	ErrMemberNotPending      = newError(ErrConflict, "member is not pending approval")
	ErrMemberAlreadyRejected = newError(ErrConflict, "member is already rejected")
	ErrEmailTaken            = newError(ErrConflict, "email is already registered")
)

// RedirectError is a denial that comes with a page the user should be sent to.
type RedirectError struct {
	Err   error
	Route string
}

func (e *RedirectError) Error() string { return e.Err.Error() }

func (e *RedirectError) Unwrap() error { return e.Err }

// invalidInput marks a validation failure as ErrInvalidInput while keeping
// the underlying field errors reachable with errors.As.
func invalidInput(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
