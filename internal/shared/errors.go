package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated indicates a request without a usable principal.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrLockHeld occurs when a distributed lock is owned by someone else.
	ErrLockHeld = errors.New("lock already held")
)
