package storage

import "context"

// MetadataStorage defines interface for storing client metadata
type MetadataStorage interface {
	// SaveLastSyncTimestamp saves the time of the last snapshot received for the project
	SaveLastSyncTimestamp(ctx context.Context, projectID string, timestamp int64) error

	// GetLastSyncTimestamp retrieves the time of the last snapshot
	// Returns 0 if no snapshot has been received yet
	GetLastSyncTimestamp(ctx context.Context, projectID string) (int64, error)
}
