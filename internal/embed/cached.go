package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of embeddings kept in memory.
const DefaultCacheSize = 10000

// CachedEmbedder wraps another embedder with an LRU cache keyed by
// text and model name. Identical texts embed once per cache lifetime.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]

	hits   atomic.Int64
	misses atomic.Int64
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with an LRU of the given size
// (DefaultCacheSize if size <= 0).
func NewCachedEmbedder(inner Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

// cacheKey binds the cached vector to both the text and the model, so a
// model switch never serves stale vectors.
func (e *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(e.inner.ModelName() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Load delegates to the wrapped embedder.
func (e *CachedEmbedder) Load(ctx context.Context) error {
	return e.inner.Load(ctx)
}

// Embed returns a cached vector when available, delegating otherwise.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.cacheKey(text)
	if vec, ok := e.cache.Get(key); ok {
		e.hits.Add(1)
		return vec, nil
	}
	e.misses.Add(1)

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, vec)
	return vec, nil
}

// EmbedBatch serves cached vectors and embeds only the misses, in a
// single delegated batch, preserving input order.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		if vec, ok := e.cache.Get(e.cacheKey(text)); ok {
			e.hits.Add(1)
			results[i] = vec
			continue
		}
		e.misses.Add(1)
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	vectors, err := e.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range vectors {
		results[missIdx[j]] = vec
		e.cache.Add(e.cacheKey(missTexts[j]), vec)
	}

	return results, nil
}

// Dimensions delegates to the wrapped embedder.
func (e *CachedEmbedder) Dimensions() int { return e.inner.Dimensions() }

// ModelName delegates to the wrapped embedder.
func (e *CachedEmbedder) ModelName() string { return e.inner.ModelName() }

// Available delegates to the wrapped embedder.
func (e *CachedEmbedder) Available(ctx context.Context) bool {
	return e.inner.Available(ctx)
}

// Close logs cache effectiveness and closes the wrapped embedder.
func (e *CachedEmbedder) Close() error {
	hits, misses := e.hits.Load(), e.misses.Load()
	if hits+misses > 0 {
		slog.Debug("embedding cache stats",
			slog.Int64("hits", hits),
			slog.Int64("misses", misses),
			slog.Int("entries", e.cache.Len()))
	}
	return e.inner.Close()
}
