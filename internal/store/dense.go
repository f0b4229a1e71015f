package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Dense index file names inside the data directory.
const (
	VectorFileName   = "vectors.hnsw"
	MetadataFileName = "metadata.db"
)

// DenseIndex pairs the HNSW vector store with the SQLite metadata store
// so a query returns fully hydrated results: ID, document text, display
// metadata, and the raw distance.
type DenseIndex struct {
	mu      sync.RWMutex
	vectors *HNSWStore
	meta    MetadataStore
	config  VectorStoreConfig
	dataDir string
}

// OpenDenseIndex opens the dense index under dataDir, loading a
// persisted vector graph when one exists. A corrupt graph is discarded
// with a warning; callers detect the empty index via Count and rebuild.
func OpenDenseIndex(dataDir string, cfg VectorStoreConfig) (*DenseIndex, error) {
	meta, err := NewSQLiteMetadataStore(filepath.Join(dataDir, MetadataFileName))
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}

	vectors, err := NewHNSWStore(cfg)
	if err != nil {
		_ = meta.Close()
		return nil, err
	}

	vectorPath := filepath.Join(dataDir, VectorFileName)
	if _, statErr := os.Stat(vectorPath); statErr == nil {
		if loadErr := vectors.Load(vectorPath); loadErr != nil {
			slog.Warn("discarding unreadable vector index",
				slog.String("path", vectorPath),
				slog.String("error", loadErr.Error()))
			_ = vectors.Close()
			vectors, err = NewHNSWStore(cfg)
			if err != nil {
				_ = meta.Close()
				return nil, err
			}
		}
	}

	return &DenseIndex{
		vectors: vectors,
		meta:    meta,
		config:  cfg,
		dataDir: dataDir,
	}, nil
}

// NewDenseIndexInMemory builds a dense index with no persistence,
// for tests.
func NewDenseIndexInMemory(cfg VectorStoreConfig) (*DenseIndex, error) {
	meta, err := NewSQLiteMetadataStore("")
	if err != nil {
		return nil, err
	}
	vectors, err := NewHNSWStore(cfg)
	if err != nil {
		_ = meta.Close()
		return nil, err
	}
	return &DenseIndex{vectors: vectors, meta: meta, config: cfg}, nil
}

// Upsert stores entries and their vectors. Metadata is written first so
// a crash between the writes never leaves a vector without a document.
func (d *DenseIndex) Upsert(ctx context.Context, entries []*Entry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("entries and vectors length mismatch: %d vs %d", len(entries), len(vectors))
	}
	if len(entries) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.meta.SaveEntries(ctx, entries); err != nil {
		return fmt.Errorf("save entries: %w", err)
	}

	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	if err := d.vectors.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("add vectors: %w", err)
	}
	return nil
}

// Query embeds nothing itself; it searches the vector store with a
// prepared query vector and hydrates each hit from the metadata store.
// Results come back closest first with raw (unnormalized) distances.
func (d *DenseIndex) Query(ctx context.Context, vector []float32, k int) ([]DenseResult, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	hits, err := d.vectors.Search(ctx, vector, k)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []DenseResult{}, nil
	}

	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
	}
	entries, err := d.meta.GetEntries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}

	results := make([]DenseResult, 0, len(hits))
	for _, hit := range hits {
		entry, ok := entries[hit.ID]
		if !ok {
			slog.Warn("vector hit has no metadata entry", slog.String("id", hit.ID))
			continue
		}
		results = append(results, DenseResult{
			ID:       hit.ID,
			Document: entry.Document,
			Metadata: entry.Metadata,
			Distance: hit.Distance,
		})
	}
	return results, nil
}

// Count returns the number of indexed vectors.
func (d *DenseIndex) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.vectors.Count()
}

// GetState reads an index state value.
func (d *DenseIndex) GetState(ctx context.Context, key string) (string, error) {
	return d.meta.GetState(ctx, key)
}

// SetState writes an index state value.
func (d *DenseIndex) SetState(ctx context.Context, key, value string) error {
	return d.meta.SetState(ctx, key, value)
}

// Reset discards all vectors and entries, keeping state keys. Used by
// forced rebuilds.
func (d *DenseIndex) Reset(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	fresh, err := NewHNSWStore(d.config)
	if err != nil {
		return err
	}
	if err := d.meta.ClearEntries(ctx); err != nil {
		return err
	}

	_ = d.vectors.Close()
	d.vectors = fresh
	return nil
}

// Save persists the vector graph to disk. The metadata store is durable
// on its own; only the in-memory graph needs an explicit flush.
func (d *DenseIndex) Save() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.dataDir == "" {
		return nil
	}
	return d.vectors.Save(filepath.Join(d.dataDir, VectorFileName))
}

// Close flushes and closes both stores.
func (d *DenseIndex) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	if err := d.vectors.Close(); err != nil {
		firstErr = err
	}
	if err := d.meta.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
