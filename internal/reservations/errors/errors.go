package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	// ErrStatusChanged is returned by conditional updates whose expected
	// current status no longer matches the stored document.
	ErrStatusChanged = errors.New("reservation status changed concurrently")

	ErrLockHeld = errors.New("reservation lock is held by another writer")

	ErrLockNotOwned = errors.New("reservation lock is not owned by caller")
)
