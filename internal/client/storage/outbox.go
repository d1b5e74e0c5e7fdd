package storage

import (
	"context"

	"github.com/iudanet/layoutsync/internal/models"
)

// OutboxStorage defines interface for persisting operations that were sent
// but not yet acknowledged. After a restart they are replayed with the same opId.
type OutboxStorage interface {
	// PutOp appends an operation to the project outbox; an existing opId is not duplicated
	PutOp(ctx context.Context, projectID string, op models.Op) error

	// DeleteOp removes an operation by opId
	// Returns ErrOpNotFound if the opId is unknown
	DeleteOp(ctx context.Context, projectID, opID string) error

	// ListOps returns the outbox in insertion order
	ListOps(ctx context.Context, projectID string) ([]models.Op, error)

	// ClearOps removes the whole project outbox
	ClearOps(ctx context.Context, projectID string) error
}
