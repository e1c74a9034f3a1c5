package types

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned when a user has no Drive credential on file
type ErrNotConnected struct {
	UserId string
}

func (e *ErrNotConnected) Error() string {
	return fmt.Sprintf("user not connected: %s", e.UserId)
}

// From checks if the given error is an ErrNotConnected
func (e *ErrNotConnected) From(err error) bool {
	var notConnected *ErrNotConnected
	return errors.As(err, &notConnected)
}

// ErrAuthorizationExpired is returned when a pending setup link is not found
// or was already consumed
type ErrAuthorizationExpired struct {
	Token string
}

func (e *ErrAuthorizationExpired) Error() string {
	return fmt.Sprintf("authorization link expired or already used: %s", e.Token)
}

// From checks if the given error is an ErrAuthorizationExpired
func (e *ErrAuthorizationExpired) From(err error) bool {
	var expired *ErrAuthorizationExpired
	return errors.As(err, &expired)
}

// ErrCredentialRejected is returned when the Drive API rejects the stored
// credential (revoked or expired refresh token)
type ErrCredentialRejected struct {
	UserId string
	Reason string
}

func (e *ErrCredentialRejected) Error() string {
	return fmt.Sprintf("credential rejected for %s: %s", e.UserId, e.Reason)
}

// From checks if the given error is an ErrCredentialRejected, copying its fields
func (e *ErrCredentialRejected) From(err error) bool {
	var rejected *ErrCredentialRejected
	if errors.As(err, &rejected) {
		*e = *rejected
		return true
	}
	return false
}

// ExecutorErrorKind classifies failures surfaced by the file-store executor
type ExecutorErrorKind string

const (
	ExecutorErrNotFound         ExecutorErrorKind = "not_found"
	ExecutorErrPermissionDenied ExecutorErrorKind = "permission_denied"
	ExecutorErrTransient        ExecutorErrorKind = "transient"
)

// ErrExecutor wraps a failure from the file-store executor with minimal
// context; the message is surfaced to the user verbatim
type ErrExecutor struct {
	Kind    ExecutorErrorKind
	Op      string
	Message string
}

func (e *ErrExecutor) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Op, e.Message, e.Kind)
}

// From checks if the given error is an ErrExecutor, copying its fields
func (e *ErrExecutor) From(err error) bool {
	var execErr *ErrExecutor
	if errors.As(err, &execErr) {
		*e = *execErr
		return true
	}
	return false
}
