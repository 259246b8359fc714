package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a run history on backend.
func NewRunRepository(backend *Backend) (storage.RunRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &RunRepository{backend: backend}, nil
}

// Close releases resources. RunRepository has no resources to release.
func (r *RunRepository) Close() error {
	return nil
}

// AddRun stores run and indexes it by ID.
func (r *RunRepository) AddRun(ctx context.Context, run *core.RunRecord) error {
	if run == nil || run.ID == "" {
		return storage.ErrInvalidQuery
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRunKey(run.StartedAt, run.ID)
		if err := tx.Set(key, storage.MarshalRun(run)); err != nil {
			return err
		}
		if err := tx.Set(makeRunIndexKey(run.ID), key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetRun retrieves a run by ID.
func (r *RunRepository) GetRun(ctx context.Context, id string) (*core.RunRecord, error) {
	var run *core.RunRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		idx, err := tx.Get(makeRunIndexKey(id))
		if err != nil {
			return err
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := tx.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			run, err = storage.UnmarshalRun(val)
			return err
		})
	}, false)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	return run, err
}

// RecentRuns returns up to limit runs, newest first.
func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]*core.RunRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	var runs []*core.RunRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(runPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration must seek past the last key under the prefix
		seek := append([]byte(runPrefix), 0xFF)
		for iter.Seek(seek); iter.Valid() && len(runs) < limit; iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				run, err := storage.UnmarshalRun(val)
				if err != nil {
					return err
				}
				runs = append(runs, run)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return runs, err
}
