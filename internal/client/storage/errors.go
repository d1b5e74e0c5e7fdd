package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no stored credential exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrSnapshotNotFound indicates that no cached layout exists for the project
	ErrSnapshotNotFound = errors.New("layout snapshot not found")

	// ErrOpNotFound indicates that the operation is not in the outbox
	ErrOpNotFound = errors.New("outbox operation not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
