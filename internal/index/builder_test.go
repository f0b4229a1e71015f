package index

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurorahq/aurora/internal/corpus"
	"github.com/aurorahq/aurora/internal/embed"
	"github.com/aurorahq/aurora/internal/errors"
	"github.com/aurorahq/aurora/internal/lexical"
	"github.com/aurorahq/aurora/internal/store"
)

// countingEmbedder wraps the static embedder and counts batch calls, to
// verify that idempotent rebuilds skip embedding entirely.
type countingEmbedder struct {
	embed.Embedder
	mu      sync.Mutex
	batches int
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{Embedder: embed.NewStaticEmbedder(32)}
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.batches++
	c.mu.Unlock()
	return c.Embedder.EmbedBatch(ctx, texts)
}

func (c *countingEmbedder) batchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batches
}

type staticSource struct {
	mu       sync.Mutex
	messages []corpus.Message
	fail     bool
	fetches  int
}

func (s *staticSource) FetchAll(context.Context) (int, []corpus.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fail {
		return 0, nil, fmt.Errorf("upstream unreachable")
	}
	return len(s.messages), s.messages, nil
}

func (s *staticSource) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func builderMessages(n int) []corpus.Message {
	msgs := make([]corpus.Message, n)
	for i := range msgs {
		msgs[i] = corpus.Message{
			ID:        fmt.Sprintf("m%d", i),
			UserID:    fmt.Sprintf("u%d", i),
			UserName:  "Member",
			Timestamp: time.Date(2025, 10, 1+i%28, 8, 0, 0, 0, time.UTC),
			Text:      fmt.Sprintf("message number %d about daily life", i),
		}
	}
	return msgs
}

type builderEnv struct {
	builder  *Builder
	dense    *store.DenseIndex
	lex      *lexical.Index
	embedder *countingEmbedder
	dir      string
}

func builderFixture(t *testing.T, source corpus.Source) builderEnv {
	t.Helper()

	dir := t.TempDir()
	dense, err := store.OpenDenseIndex(dir, store.DefaultVectorStoreConfig(32))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dense.Close() })

	embedder := newCountingEmbedder()
	lex := lexical.NewIndex()
	cache := corpus.NewCache(source, time.Nanosecond)
	backup := corpus.NewBackup(dir)

	return builderEnv{
		builder:  NewBuilder(cache, backup, embedder, dense, lex, dir, 3),
		dense:    dense,
		lex:      lex,
		embedder: embedder,
		dir:      dir,
	}
}

func TestBuild_ColdStartIndexesEverything(t *testing.T) {
	// Given: a reachable upstream with 7 messages and a batch size of 3
	source := &staticSource{messages: builderMessages(7)}
	env := builderFixture(t, source)

	// When: building from cold
	require.NoError(t, env.builder.Build(context.Background(), false))

	// Then: both indexes cover the corpus and embedding ran in batches
	assert.Equal(t, 7, env.dense.Count())
	assert.Equal(t, 7, env.lex.Count())
	assert.Equal(t, 3, env.embedder.batchCount())

	// And: index state was recorded
	model, err := env.dense.GetState(context.Background(), store.StateKeyIndexModel)
	require.NoError(t, err)
	assert.Equal(t, "static-fnv", model)
}

func TestBuild_SecondBuildIsNoOpForDense(t *testing.T) {
	// Given: a completed build
	source := &staticSource{messages: builderMessages(5)}
	env := builderFixture(t, source)
	require.NoError(t, env.builder.Build(context.Background(), false))
	batchesAfterFirst := env.embedder.batchCount()

	// When: building again over the unchanged corpus
	require.NoError(t, env.builder.Build(context.Background(), false))

	// Then: the dense index is untouched and no embedding happened
	assert.Equal(t, 5, env.dense.Count())
	assert.Equal(t, batchesAfterFirst, env.embedder.batchCount())
}

func TestBuild_ForceRebuilds(t *testing.T) {
	source := &staticSource{messages: builderMessages(4)}
	env := builderFixture(t, source)
	require.NoError(t, env.builder.Build(context.Background(), false))
	batchesAfterFirst := env.embedder.batchCount()

	// When: forcing a rebuild
	require.NoError(t, env.builder.Build(context.Background(), true))

	// Then: everything was re-embedded
	assert.Equal(t, 4, env.dense.Count())
	assert.Greater(t, env.embedder.batchCount(), batchesAfterFirst)
}

func TestBuild_WritesBackup(t *testing.T) {
	source := &staticSource{messages: builderMessages(3)}
	env := builderFixture(t, source)

	require.NoError(t, env.builder.Build(context.Background(), false))

	// The backup file is the degraded-mode fallback; it must exist after
	// a successful build.
	assert.True(t, corpus.NewBackup(env.dir).Exists())
}

// brokenEmbedder fails every batch, so dense builds cannot complete.
type brokenEmbedder struct {
	embed.Embedder
}

func (brokenEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, fmt.Errorf("embedding host down")
}

func TestBuild_FailedBuildWritesNoBackup(t *testing.T) {
	source := &staticSource{messages: builderMessages(3)}

	dir := t.TempDir()
	dense, err := store.OpenDenseIndex(dir, store.DefaultVectorStoreConfig(32))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dense.Close() })

	builder := NewBuilder(corpus.NewCache(source, time.Hour), corpus.NewBackup(dir),
		brokenEmbedder{Embedder: embed.NewStaticEmbedder(32)},
		dense, lexical.NewIndex(), dir, 3)

	err = builder.Build(context.Background(), false)

	// The build failed, so no backup replaces a known-good fallback.
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEmbeddingFailed, errors.CodeOf(err))
	assert.False(t, corpus.NewBackup(dir).Exists())
}

func TestBuild_FallsBackToBackupWhenUpstreamDies(t *testing.T) {
	// Given: a successful first build, then a dead upstream
	source := &staticSource{messages: builderMessages(6)}
	env := builderFixture(t, source)
	require.NoError(t, env.builder.Build(context.Background(), false))

	source.fail = true

	// When: a fresh process (empty cache) builds against the same data
	// directory with the upstream down
	lex := lexical.NewIndex()
	restarted := NewBuilder(corpus.NewCache(source, time.Hour),
		corpus.NewBackup(env.dir), env.embedder, env.dense, lex, env.dir, 3)
	require.NoError(t, restarted.Build(context.Background(), false))

	// Then: the backup carried the corpus; both indexes stay ready
	assert.Equal(t, 6, env.dense.Count())
	assert.Equal(t, 6, lex.Count())
}

func TestRefresh_BypassesSnapshotTTL(t *testing.T) {
	source := &staticSource{messages: builderMessages(3)}

	dir := t.TempDir()
	dense, err := store.OpenDenseIndex(dir, store.DefaultVectorStoreConfig(32))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dense.Close() })

	// Long TTL: plain builds reuse the cached snapshot.
	cache := corpus.NewCache(source, time.Hour)
	builder := NewBuilder(cache, corpus.NewBackup(dir), newCountingEmbedder(),
		dense, lexical.NewIndex(), dir, 3)

	require.NoError(t, builder.Build(context.Background(), false))
	require.NoError(t, builder.Build(context.Background(), false))
	assert.Equal(t, 1, source.fetchCount())

	require.NoError(t, builder.Refresh(context.Background(), false))
	assert.Equal(t, 2, source.fetchCount())
}

func TestBuild_ConcurrentBuildRejected(t *testing.T) {
	source := &staticSource{messages: builderMessages(2)}
	env := builderFixture(t, source)

	// Hold the build lock as an in-flight build would.
	env.builder.mu.Lock()
	defer env.builder.mu.Unlock()

	err := env.builder.Build(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeIndexLocked, errors.CodeOf(err))
}

func TestBuild_ColdStartWithDeadUpstreamFails(t *testing.T) {
	// Given: no backup, no persisted index, upstream down
	source := &staticSource{fail: true}
	env := builderFixture(t, source)

	err := env.builder.Build(context.Background(), false)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUpstreamUnavailable, errors.CodeOf(err))
}
