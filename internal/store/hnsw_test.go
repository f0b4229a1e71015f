package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitVector(dims, hot int) []float32 {
	v := make([]float32, dims)
	v[hot] = 1
	return v
}

func TestHNSWStore_AddAndSearch(t *testing.T) {
	// Given: three orthogonal vectors
	s, err := NewHNSWStore(DefaultVectorStoreConfig(4))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	require.NoError(t, s.Add(ctx,
		[]string{"a", "b", "c"},
		[][]float32{unitVector(4, 0), unitVector(4, 1), unitVector(4, 2)}))

	// When: searching near vector "a"
	results, err := s.Search(ctx, []float32{0.9, 0.1, 0, 0}, 2)
	require.NoError(t, err)

	// Then: "a" is closest, distances ascend
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Less(t, results[0].Distance, results[1].Distance)
	assert.Equal(t, 3, s.Count())
}

func TestHNSWStore_EmptySearch(t *testing.T) {
	s, err := NewHNSWStore(DefaultVectorStoreConfig(4))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	results, err := s.Search(context.Background(), unitVector(4, 0), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHNSWStore_DimensionMismatch(t *testing.T) {
	s, err := NewHNSWStore(DefaultVectorStoreConfig(4))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	err = s.Add(context.Background(), []string{"a"}, [][]float32{{1, 0}})
	require.Error(t, err)
	assert.ErrorAs(t, err, &ErrDimensionMismatch{})
}

func TestHNSWStore_ReplaceExistingID(t *testing.T) {
	// Given: an id indexed at one position
	s, err := NewHNSWStore(DefaultVectorStoreConfig(4))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []string{"a"}, [][]float32{unitVector(4, 0)}))

	// When: the same id is re-added elsewhere
	require.NoError(t, s.Add(ctx, []string{"a"}, [][]float32{unitVector(4, 3)}))

	// Then: count stays 1 and the new position wins
	assert.Equal(t, 1, s.Count())
	results, err := s.Search(ctx, unitVector(4, 3), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
	assert.InDelta(t, 0, results[0].Distance, 1e-5)
}

func TestHNSWStore_DeleteHidesVector(t *testing.T) {
	s, err := NewHNSWStore(DefaultVectorStoreConfig(4))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	require.NoError(t, s.Add(ctx,
		[]string{"a", "b"},
		[][]float32{unitVector(4, 0), unitVector(4, 1)}))
	require.NoError(t, s.Delete(ctx, []string{"a"}))

	assert.Equal(t, 1, s.Count())
	assert.False(t, s.Contains("a"))

	results, err := s.Search(ctx, unitVector(4, 0), 5)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "a", r.ID)
	}
}

func TestHNSWStore_SaveLoadRoundTrip(t *testing.T) {
	// Given: a populated store saved to disk
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.hnsw")

	s, err := NewHNSWStore(DefaultVectorStoreConfig(4))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Add(ctx,
		[]string{"a", "b"},
		[][]float32{unitVector(4, 0), unitVector(4, 1)}))
	require.NoError(t, s.Save(path))
	require.NoError(t, s.Close())

	// When: a fresh store loads the files
	loaded, err := NewHNSWStore(DefaultVectorStoreConfig(4))
	require.NoError(t, err)
	defer func() { _ = loaded.Close() }()
	require.NoError(t, loaded.Load(path))

	// Then: contents and search behavior survive
	assert.Equal(t, 2, loaded.Count())
	results, err := loaded.Search(ctx, unitVector(4, 1), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)

	// And: the stored dimensions are readable without opening the store
	dims, err := ReadStoredDimensions(path)
	require.NoError(t, err)
	assert.Equal(t, 4, dims)
}

func TestReadStoredDimensions_MissingFileIsFreshStart(t *testing.T) {
	dims, err := ReadStoredDimensions(filepath.Join(t.TempDir(), "nope.hnsw"))
	require.NoError(t, err)
	assert.Equal(t, 0, dims)
}
