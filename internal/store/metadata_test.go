package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetadataStore(t *testing.T) *SQLiteMetadataStore {
	t.Helper()
	s, err := NewSQLiteMetadataStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMetadataStore_SaveAndGetEntries(t *testing.T) {
	s := newTestMetadataStore(t)
	ctx := context.Background()

	// Given: two saved entries
	err := s.SaveEntries(ctx, []*Entry{
		{ID: "1", Document: "Layla (October 01, 2025): hello", Metadata: map[string]string{
			"user_name":        "Layla",
			"original_message": "hello",
		}},
		{ID: "2", Document: "Omar (October 02, 2025): hi", Metadata: map[string]string{
			"user_name":        "Omar",
			"original_message": "hi",
		}},
	})
	require.NoError(t, err)

	// When: fetching by id, including a missing one
	entries, err := s.GetEntries(ctx, []string{"1", "2", "missing"})
	require.NoError(t, err)

	// Then: present entries hydrate fully, missing ids are absent
	require.Len(t, entries, 2)
	assert.Equal(t, "Layla", entries["1"].Metadata["user_name"])
	assert.Equal(t, "hi", entries["2"].Metadata["original_message"])
	assert.NotContains(t, entries, "missing")

	count, err := s.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetadataStore_UpsertReplaces(t *testing.T) {
	s := newTestMetadataStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEntries(ctx, []*Entry{
		{ID: "1", Document: "old", Metadata: map[string]string{}},
	}))
	require.NoError(t, s.SaveEntries(ctx, []*Entry{
		{ID: "1", Document: "new", Metadata: map[string]string{"k": "v"}},
	}))

	entries, err := s.GetEntries(ctx, []string{"1"})
	require.NoError(t, err)
	require.Contains(t, entries, "1")
	assert.Equal(t, "new", entries["1"].Document)
	assert.Equal(t, "v", entries["1"].Metadata["k"])

	count, err := s.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetadataStore_StateRoundTrip(t *testing.T) {
	s := newTestMetadataStore(t)
	ctx := context.Background()

	// Missing keys read as empty with no error.
	value, err := s.GetState(ctx, StateKeyIndexModel)
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, s.SetState(ctx, StateKeyIndexModel, "all-minilm:l6-v2"))
	require.NoError(t, s.SetState(ctx, StateKeyIndexModel, "nomic-embed-text"))

	value, err = s.GetState(ctx, StateKeyIndexModel)
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", value)
}

func TestMetadataStore_ClearEntriesKeepsState(t *testing.T) {
	s := newTestMetadataStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEntries(ctx, []*Entry{
		{ID: "1", Document: "doc", Metadata: map[string]string{}},
	}))
	require.NoError(t, s.SetState(ctx, StateKeyContentHash, "abc"))

	require.NoError(t, s.ClearEntries(ctx))

	count, err := s.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	value, err := s.GetState(ctx, StateKeyContentHash)
	require.NoError(t, err)
	assert.Equal(t, "abc", value)
}

func TestDenseIndex_QueryHydratesMetadata(t *testing.T) {
	// Given: an in-memory dense index with two entries
	d, err := NewDenseIndexInMemory(DefaultVectorStoreConfig(4))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	ctx := context.Background()
	entries := []*Entry{
		{ID: "1", Document: "Layla: trip to London", Metadata: map[string]string{"user_name": "Layla"}},
		{ID: "2", Document: "Omar: gym today", Metadata: map[string]string{"user_name": "Omar"}},
	}
	vectors := [][]float32{unitVector(4, 0), unitVector(4, 1)}
	require.NoError(t, d.Upsert(ctx, entries, vectors))

	// When: querying near the first vector
	results, err := d.Query(ctx, unitVector(4, 0), 2)
	require.NoError(t, err)

	// Then: results carry documents, metadata, and ascending distances
	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].ID)
	assert.Equal(t, "Layla: trip to London", results[0].Document)
	assert.Equal(t, "Layla", results[0].Metadata["user_name"])
	assert.Less(t, results[0].Distance, results[1].Distance)
	assert.Equal(t, 2, d.Count())
}

func TestDenseIndex_ResetClearsEverything(t *testing.T) {
	d, err := NewDenseIndexInMemory(DefaultVectorStoreConfig(4))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	ctx := context.Background()
	require.NoError(t, d.Upsert(ctx,
		[]*Entry{{ID: "1", Document: "doc", Metadata: map[string]string{}}},
		[][]float32{unitVector(4, 0)}))
	require.Equal(t, 1, d.Count())

	require.NoError(t, d.Reset(ctx))

	assert.Equal(t, 0, d.Count())
	results, err := d.Query(ctx, unitVector(4, 0), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
