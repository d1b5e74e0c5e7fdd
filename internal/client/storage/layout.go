package storage

import (
	"context"
	"time"

	"github.com/iudanet/layoutsync/internal/models"
)

//go:generate moq -out layout_mock.go . LayoutStorage

// Snapshot последний известный layout проекта
type Snapshot struct {
	SavedAt   time.Time     `json:"saved_at"`
	Layout    models.Layout `json:"layout"`
	ProjectID string        `json:"project_id"`
}

// LayoutStorage defines interface for caching the last layout per project.
// Кэш позволяет показать план до прихода snapshot и работать автономно.
type LayoutStorage interface {
	// SaveSnapshot stores or replaces the cached layout of the project
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error

	// GetSnapshot retrieves the cached layout
	// Returns ErrSnapshotNotFound if nothing is cached
	GetSnapshot(ctx context.Context, projectID string) (*Snapshot, error)

	// DeleteSnapshot removes the cached layout
	DeleteSnapshot(ctx context.Context, projectID string) error
}
