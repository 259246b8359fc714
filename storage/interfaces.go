package storage

import (
	"context"

	"github.com/poiesic/docsift/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// VectorRepository caches embedding vectors by content key.
// It satisfies ai.VectorCache.
type VectorRepository interface {
	Repository

	// GetVector returns the stored vector and true, or nil and false when
	// no vector is stored under key.
	GetVector(ctx context.Context, key string) ([]float32, bool, error)

	// PutVector stores vector under key, replacing any previous value.
	PutVector(ctx context.Context, key string, vector []float32) error

	// CountVectors returns the number of cached vectors.
	CountVectors(ctx context.Context) (int, error)

	// PurgeVectors removes every cached vector and returns how many were removed.
	PurgeVectors(ctx context.Context) (int, error)
}

// RunRepository keeps a history of pipeline runs.
type RunRepository interface {
	Repository

	// AddRun stores a run record. Records are keyed by StartedAt and ID.
	AddRun(ctx context.Context, run *core.RunRecord) error

	// GetRun retrieves a run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	GetRun(ctx context.Context, id string) (*core.RunRecord, error)

	// RecentRuns returns up to limit runs, most recent first.
	RecentRuns(ctx context.Context, limit int) ([]*core.RunRecord, error)
}
