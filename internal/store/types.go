// Package store provides the persistence layer: the HNSW vector store,
// the SQLite metadata store, and the dense index that combines them.
package store

import (
	"context"
	"fmt"
)

// State keys for the metadata store's key-value table.
const (
	// StateKeyIndexDimension stores the embedding dimension used for the index.
	StateKeyIndexDimension = "index_embedding_dimension"
	// StateKeyIndexModel stores the embedding model name used for the index.
	StateKeyIndexModel = "index_embedding_model"
	// StateKeyContentHash stores a hash of the indexed corpus for drift detection.
	StateKeyContentHash = "index_content_hash"
	// StateKeyIndexedAt stores when the index was last built.
	StateKeyIndexedAt = "index_built_at"
)

// Entry is one indexed document: the enriched text that was embedded
// plus display metadata carried alongside it.
type Entry struct {
	ID       string            // Message ID
	Document string            // Enriched text ("{name} ({date}): {text}")
	Metadata map[string]string // user_name, timestamp, original_message
}

// DenseResult is a single dense search hit with its raw distance.
type DenseResult struct {
	ID       string
	Document string
	Metadata map[string]string
	Distance float32 // Unnormalized; lower is more similar
}

// VectorResult is a raw vector store hit, before metadata hydration.
type VectorResult struct {
	ID       string
	Distance float32
	Score    float32 // 1/(1+distance) for l2, 1-distance/2 for cos
}

// VectorStoreConfig configures the HNSW vector store.
type VectorStoreConfig struct {
	// Dimensions is the vector dimension (auto-detected from the embedder).
	Dimensions int

	// Metric is the distance metric: "l2" (euclidean) or "cos" (cosine).
	// Default is "l2" so raw distances are comparable to the confidence
	// thresholds tuned for euclidean space.
	Metric string

	// M is HNSW max connections per layer.
	M int

	// EfSearch is HNSW query-time search width.
	EfSearch int
}

// DefaultVectorStoreConfig returns sensible defaults for the vector store.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions: dimensions,
		Metric:     "l2",
		M:          16,
		EfSearch:   64,
	}
}

// VectorStore provides approximate nearest neighbor search.
type VectorStore interface {
	// Add inserts vectors with their IDs. If an ID exists, it is replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search finds k nearest neighbors, closest first.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)

	// Delete removes vectors by ID.
	Delete(ctx context.Context, ids []string) error

	// Contains checks if ID exists.
	Contains(id string) bool

	// Count returns number of vectors.
	Count() int

	// Persistence
	Save(path string) error
	Load(path string) error
	Close() error
}

// MetadataStore persists entry documents, metadata, and index state.
type MetadataStore interface {
	// Entry operations
	SaveEntries(ctx context.Context, entries []*Entry) error
	GetEntries(ctx context.Context, ids []string) (map[string]*Entry, error)
	CountEntries(ctx context.Context) (int, error)
	ClearEntries(ctx context.Context) error

	// State operations (key-value store for index state)
	GetState(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, key, value string) error

	Close() error
}

// ErrDimensionMismatch indicates vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (rebuild the index)", e.Expected, e.Got)
}
