package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/layoutsync/internal/client/storage"
)

// SaveSnapshot stores or replaces the cached layout of the project
func (s *Storage) SaveSnapshot(ctx context.Context, snapshot *storage.Snapshot) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if snapshot.ProjectID == "" {
		return fmt.Errorf("snapshot has no project id")
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketLayouts)
		if bucket == nil {
			return fmt.Errorf("layouts bucket not found")
		}

		// Ключ - id проекта, храним только последний layout
		if err := bucket.Put([]byte(snapshot.ProjectID), data); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}

		return nil
	})
}

// GetSnapshot retrieves the cached layout
func (s *Storage) GetSnapshot(ctx context.Context, projectID string) (*storage.Snapshot, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var snapshot *storage.Snapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketLayouts)
		if bucket == nil {
			return fmt.Errorf("layouts bucket not found")
		}

		data := bucket.Get([]byte(projectID))
		if data == nil {
			return storage.ErrSnapshotNotFound
		}

		snapshot = &storage.Snapshot{}
		if err := json.Unmarshal(data, snapshot); err != nil {
			return fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// DeleteSnapshot removes the cached layout; deleting a missing one is not an error
func (s *Storage) DeleteSnapshot(ctx context.Context, projectID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketLayouts)
		if bucket == nil {
			return fmt.Errorf("layouts bucket not found")
		}

		if err := bucket.Delete([]byte(projectID)); err != nil {
			return fmt.Errorf("failed to delete snapshot: %w", err)
		}

		return nil
	})
}
