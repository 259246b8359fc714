package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docsift/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a vector cache on backend.
func NewVectorRepository(backend *Backend) (storage.VectorRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &VectorRepository{backend: backend}, nil
}

// Close releases resources. VectorRepository has no resources to release.
func (r *VectorRepository) Close() error {
	return nil
}

// GetVector returns the vector stored under key.
func (r *VectorRepository) GetVector(ctx context.Context, key string) ([]float32, bool, error) {
	var vector []float32
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVectorKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			vector, err = storage.UnmarshalVector(val)
			return err
		})
	}, false)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return vector, true, nil
}

// PutVector stores vector under key.
func (r *VectorRepository) PutVector(ctx context.Context, key string, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeVectorKey(key), storage.MarshalVector(vector)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CountVectors returns the number of cached vectors.
func (r *VectorRepository) CountVectors(ctx context.Context) (int, error) {
	return r.backend.countPrefix([]byte(vectorPrefix))
}

// PurgeVectors removes every cached vector.
func (r *VectorRepository) PurgeVectors(ctx context.Context) (int, error) {
	return r.backend.dropPrefix([]byte(vectorPrefix))
}
