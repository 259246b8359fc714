package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/poiesic/docsift/core"
)

// Source lists and loads documents by ID.
// Implementations must be safe for concurrent use.
type Source interface {
	// Documents returns the IDs of every supported document, sorted.
	Documents(ctx context.Context) ([]string, error)

	// Load reads and decodes one document.
	// Failures wrap core.ErrSourceRead.
	Load(ctx context.Context, id string) (*Document, error)
}

// DirSource reads documents from a directory. IDs are paths relative to it.
type DirSource struct {
	root string
}

var _ Source = (*DirSource)(nil)

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", core.ErrConfiguration, dir)
	}
	return &DirSource{root: dir}, nil
}

// Documents lists the supported files directly under the root.
func (s *DirSource) Documents(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrSourceRead, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		ids = append(ids, e.Name())
	}
	slices.Sort(ids)
	return ids, nil
}

// Load reads root/id.
func (s *DirSource) Load(ctx context.Context, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := id
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, id)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrSourceRead, err)
	}
	return Decode(ctx, id, data)
}

// MemorySource holds raw document bytes keyed by ID.
type MemorySource struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

var _ Source = (*MemorySource)(nil)

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{docs: make(map[string][]byte)}
}

// Add stores data under id, replacing any previous document.
func (s *MemorySource) Add(id string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = data
}

func (s *MemorySource) Documents(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		if Supported(id) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *MemorySource) Load(ctx context.Context, id string) (*Document, error) {
	s.mu.RLock()
	data, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrSourceRead, id, os.ErrNotExist)
	}
	return Decode(ctx, id, data)
}
