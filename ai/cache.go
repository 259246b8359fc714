package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/poiesic/docsift/core"
)

// CachingEmbedder serves repeated texts from a VectorCache. Keys combine the
// model name with the text so switching models never returns stale vectors.
// Cache failures are logged and treated as misses.
type CachingEmbedder struct {
	inner  Embedder
	cache  VectorCache
	model  string
	logger *slog.Logger
}

// NewCachingEmbedder wraps inner with cache.
func NewCachingEmbedder(inner Embedder, cache VectorCache, model string) (*CachingEmbedder, error) {
	if inner == nil {
		return nil, ErrNilEmbedder
	}
	if cache == nil {
		return nil, ErrNilCache
	}
	return &CachingEmbedder{
		inner:  inner,
		cache:  cache,
		model:  model,
		logger: slog.Default().With("component", "embedding-cache"),
	}, nil
}

// CacheKey returns the key a text is stored under for model.
func CacheKey(model, text string) string {
	return strconv.FormatUint(uint64(core.IDFromContent(model+"\x00"+text)), 16)
}

func (c *CachingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(c.model, text)
	if v, ok := c.lookup(ctx, key); ok {
		return v, nil
	}
	v, err := c.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, v)
	return v, nil
}

func (c *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		keys[i] = CacheKey(c.model, text)
		if v, ok := c.lookup(ctx, keys[i]); ok {
			out[i] = v
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	c.logger.Debug("cache miss", "hits", len(texts)-len(missing), "misses", len(missing))
	vectors, err := c.inner.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVectorCount, len(vectors), len(missing))
	}
	for j, i := range missingIdx {
		out[i] = vectors[j]
		c.store(ctx, keys[i], vectors[j])
	}
	return out, nil
}

func (c *CachingEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	v, ok, err := c.cache.GetVector(ctx, key)
	if err != nil {
		c.logger.Warn("vector cache read failed", "key", key, "err", err)
		return nil, false
	}
	return v, ok
}

func (c *CachingEmbedder) store(ctx context.Context, key string, v []float32) {
	if len(v) == 0 {
		return
	}
	if err := c.cache.PutVector(ctx, key, v); err != nil {
		c.logger.Warn("vector cache write failed", "key", key, "err", err)
	}
}
