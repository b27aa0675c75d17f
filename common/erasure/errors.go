package erasure

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means the operator purge path has no secret and is disabled
	ErrNotConfigured = errors.New("purge by email is not configured")

	// ErrBadSecret means the caller-supplied operator secret did not match
	ErrBadSecret = errors.New("invalid purge secret")

	ErrInvalidAccountID = errors.New("invalid account id")
	ErrInvalidEmail     = errors.New("invalid email address")

	// ErrAccountNotFound is returned by lookups before any mutation happens
	ErrAccountNotFound = errors.New("account not found")

	// ErrDeletionFailed is the category of every error raised inside the transaction
	ErrDeletionFailed = errors.New("account deletion failed")

	ErrTransactionAborted = errors.New("previous step failed, transaction aborted")

	// ErrAccountMissing means the root delete removed zero rows. The row either
	// never existed or was removed concurrently; the two are not distinguished.
	ErrAccountMissing = errors.New("account missing or already removed")
)

// Error is a failure inside the erasure transaction. It always matches
// ErrDeletionFailed and the underlying cause with errors.Is.
type Error struct {
	Stage Stage
	Table string
	Err   error
}

func (e *Error) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("erasure %s failed on %s: %v", e.Stage, e.Table, e.Err)
	}
	return fmt.Sprintf("erasure %s failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrDeletionFailed, e.Err}
}

// IsValidation reports whether err was rejected before touching the store
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAccountID) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrBadSecret)
}
