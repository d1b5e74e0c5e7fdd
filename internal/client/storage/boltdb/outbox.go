package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/layoutsync/internal/client/storage"
	"github.com/iudanet/layoutsync/internal/models"
)

// Outbox: вложенный bucket на проект, ключ - 8 байт NextSequence (big endian),
// поэтому курсор обходит операции в порядке добавления.

// PutOp appends an operation to the project outbox
func (s *Storage) PutOp(ctx context.Context, projectID string, op models.Op) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if op.OpID == "" {
		return fmt.Errorf("operation has no opId")
	}

	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal operation: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := projectOutbox(tx, projectID, true)
		if err != nil {
			return err
		}

		// Повторная запись того же opId не создает дубликат
		if key, _ := findOp(bucket, op.OpID); key != nil {
			return nil
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate outbox sequence: %w", err)
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		if err := bucket.Put(key, data); err != nil {
			return fmt.Errorf("failed to save operation: %w", err)
		}
		return nil
	})
}

// DeleteOp removes an operation by opId
func (s *Storage) DeleteOp(ctx context.Context, projectID, opID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := projectOutbox(tx, projectID, false)
		if err != nil {
			return err
		}
		if bucket == nil {
			return storage.ErrOpNotFound
		}

		key, err := findOp(bucket, opID)
		if err != nil {
			return err
		}
		if key == nil {
			return storage.ErrOpNotFound
		}

		if err := bucket.Delete(key); err != nil {
			return fmt.Errorf("failed to delete operation: %w", err)
		}
		return nil
	})
}

// ListOps returns the outbox in insertion order
func (s *Storage) ListOps(ctx context.Context, projectID string) ([]models.Op, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var ops []models.Op

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := projectOutbox(tx, projectID, false)
		if err != nil || bucket == nil {
			return err
		}

		return bucket.ForEach(func(k, v []byte) error {
			var op models.Op
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("failed to unmarshal operation: %w", err)
			}
			ops = append(ops, op)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return ops, nil
}

// ClearOps removes the whole project outbox
func (s *Storage) ClearOps(ctx context.Context, projectID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketOutbox)
		if root == nil {
			return fmt.Errorf("outbox bucket not found")
		}
		if root.Bucket([]byte(projectID)) == nil {
			return nil
		}
		if err := root.DeleteBucket([]byte(projectID)); err != nil {
			return fmt.Errorf("failed to clear outbox: %w", err)
		}
		return nil
	})
}

// projectOutbox возвращает bucket проекта; при create=false может вернуть nil
func projectOutbox(tx *bbolt.Tx, projectID string, create bool) (*bbolt.Bucket, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	root := tx.Bucket(bucketOutbox)
	if root == nil {
		return nil, fmt.Errorf("outbox bucket not found")
	}
	if !create {
		return root.Bucket([]byte(projectID)), nil
	}
	bucket, err := root.CreateBucketIfNotExists([]byte(projectID))
	if err != nil {
		return nil, fmt.Errorf("failed to create project outbox: %w", err)
	}
	return bucket, nil
}

// findOp ищет ключ записи с указанным opId
func findOp(bucket *bbolt.Bucket, opID string) ([]byte, error) {
	c := bucket.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var head struct {
			OpID string `json:"opId"`
		}
		if err := json.Unmarshal(v, &head); err != nil {
			return nil, fmt.Errorf("failed to unmarshal operation: %w", err)
		}
		if head.OpID == opID {
			return append([]byte(nil), k...), nil
		}
	}
	return nil, nil
}
