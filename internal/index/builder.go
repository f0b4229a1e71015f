// Package index builds and refreshes both retrieval indexes from the
// message corpus. Builds are exclusive per data directory; queries keep
// running against the previous structures until the swap.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/aurorahq/aurora/internal/corpus"
	"github.com/aurorahq/aurora/internal/embed"
	"github.com/aurorahq/aurora/internal/errors"
	"github.com/aurorahq/aurora/internal/lexical"
	"github.com/aurorahq/aurora/internal/search"
	"github.com/aurorahq/aurora/internal/store"
)

// DefaultBatchSize is the embedding batch size for dense index builds.
const DefaultBatchSize = 100

// LockFileName guards against concurrent builds across processes
// sharing a data directory.
const LockFileName = "index.lock"

// Builder owns the build/refresh path for both indexes.
type Builder struct {
	cache     *corpus.Cache
	backup    *corpus.Backup
	embedder  embed.Embedder
	dense     *store.DenseIndex
	lex       *lexical.Index
	batchSize int

	mu   sync.Mutex // one build at a time in-process
	lock *flock.Flock
}

// NewBuilder wires an index builder over the given stores. dataDir
// hosts the cross-process build lock.
func NewBuilder(cache *corpus.Cache, backup *corpus.Backup, embedder embed.Embedder,
	dense *store.DenseIndex, lex *lexical.Index, dataDir string, batchSize int) *Builder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Builder{
		cache:     cache,
		backup:    backup,
		embedder:  embedder,
		dense:     dense,
		lex:       lex,
		batchSize: batchSize,
		lock:      flock.New(filepath.Join(dataDir, LockFileName)),
	}
}

// Build fetches the corpus and brings both indexes up to date. With
// force set, the dense index is rebuilt from scratch; otherwise a dense
// index that already covers the corpus is left untouched (reindexing is
// idempotent at count granularity).
//
// Degradation ladder when the upstream fetch fails: serve a cached
// snapshot, then the on-disk backup, then (on warm starts only) the
// persisted dense index alone with the lexical leg disabled.
func (b *Builder) Build(ctx context.Context, force bool) error {
	return b.build(ctx, force, force)
}

// Refresh bypasses the snapshot TTL and rebuilds both indexes. With
// force set the dense index is also rebuilt from scratch.
func (b *Builder) Refresh(ctx context.Context, force bool) error {
	return b.build(ctx, true, force)
}

func (b *Builder) build(ctx context.Context, forceFetch, forceDense bool) error {
	if !b.mu.TryLock() {
		return errors.New(errors.ErrCodeIndexLocked,
			"another index build is in progress", nil)
	}
	defer b.mu.Unlock()

	locked, err := b.lock.TryLock()
	if err != nil {
		return errors.InternalError("failed to acquire index lock", err)
	}
	if !locked {
		return errors.New(errors.ErrCodeIndexLocked,
			"another index build is in progress", nil)
	}
	defer func() { _ = b.lock.Unlock() }()

	if err := b.embedder.Load(ctx); err != nil {
		return errors.New(errors.ErrCodeEmbeddingFailed, "embedding model load failed", err)
	}

	fromUpstream := true
	snap, fetchErr := b.cache.Fetch(ctx, forceFetch)
	if fetchErr != nil {
		fromUpstream = false
		snap, fetchErr = b.recoverFromBackup(fetchErr)
		if fetchErr != nil {
			return fetchErr
		}
	}

	if snap == nil {
		// Warm start with no reachable corpus: dense-only operation.
		return nil
	}

	if err := b.buildDense(ctx, snap, forceDense); err != nil {
		return err
	}
	b.lex.IndexMessages(ctx, snap.Messages)

	// The backup snapshot is written only after a successful build, so a
	// failed build never replaces a known-good fallback.
	if fromUpstream {
		if err := b.backup.Save(snap); err != nil {
			slog.Warn("failed to save corpus backup", slog.String("error", err.Error()))
		}
	}
	return nil
}

// recoverFromBackup falls back to the backup file, and past that to a
// persisted dense index. The nil, nil return means dense-only warm
// start.
func (b *Builder) recoverFromBackup(fetchErr error) (*corpus.Snapshot, error) {
	slog.Warn("upstream fetch failed, trying backup",
		slog.String("error", fetchErr.Error()))

	snap, err := b.backup.Load()
	if err == nil {
		slog.Info("corpus restored from backup", slog.Int("count", snap.Len()))
		b.cache.Prime(snap)
		return snap, nil
	}

	if b.dense.Count() > 0 {
		slog.Warn("no backup available, continuing with persisted dense index only",
			slog.String("backup_error", err.Error()))
		return nil, nil
	}
	return nil, errors.UpstreamError("cold start failed: upstream unreachable and no backup", fetchErr)
}

// buildDense embeds and indexes the snapshot unless the dense index
// already covers it. Drift at equal-or-higher count is detected via a
// content hash and logged, never auto-rebuilt; operators force a
// rebuild explicitly.
func (b *Builder) buildDense(ctx context.Context, snap *corpus.Snapshot, force bool) error {
	hash := snapshotHash(snap)

	if force {
		if err := b.dense.Reset(ctx); err != nil {
			return errors.InternalError("failed to reset dense index", err)
		}
	} else if b.dense.Count() >= snap.Len() {
		slog.Info("dense index already covers corpus, skipping",
			slog.Int("indexed", b.dense.Count()),
			slog.Int("corpus", snap.Len()))

		stored, err := b.dense.GetState(ctx, store.StateKeyContentHash)
		if err == nil && stored != "" && stored != hash {
			slog.Warn("corpus content drifted under unchanged count, dense index may be stale",
				slog.String("indexed_hash", stored),
				slog.String("corpus_hash", hash))
		}
		return nil
	}

	slog.Info("building dense index",
		slog.Int("count", snap.Len()),
		slog.String("model", b.embedder.ModelName()))
	start := time.Now()

	for batchStart := 0; batchStart < snap.Len(); batchStart += b.batchSize {
		batchEnd := batchStart + b.batchSize
		if batchEnd > snap.Len() {
			batchEnd = snap.Len()
		}
		batch := snap.Messages[batchStart:batchEnd]

		entries := make([]*store.Entry, len(batch))
		texts := make([]string, len(batch))
		for i, msg := range batch {
			doc := enrichDocument(msg)
			texts[i] = doc
			entries[i] = &store.Entry{
				ID:       msg.ID,
				Document: doc,
				Metadata: map[string]string{
					"user_id":                  msg.UserID,
					search.MetaUserName:        msg.UserName,
					search.MetaTimestamp:       msg.Timestamp.Format(time.RFC3339),
					search.MetaOriginalMessage: msg.Text,
				},
			}
		}

		vectors, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return errors.New(errors.ErrCodeEmbeddingFailed,
				fmt.Sprintf("failed to embed batch [%d:%d]", batchStart, batchEnd), err)
		}
		if err := b.dense.Upsert(ctx, entries, vectors); err != nil {
			return errors.InternalError("failed to upsert dense batch", err)
		}
	}

	states := map[string]string{
		store.StateKeyIndexModel:     b.embedder.ModelName(),
		store.StateKeyIndexDimension: fmt.Sprintf("%d", b.embedder.Dimensions()),
		store.StateKeyContentHash:    hash,
		store.StateKeyIndexedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range states {
		if err := b.dense.SetState(ctx, key, value); err != nil {
			return errors.InternalError("failed to record index state", err)
		}
	}

	if err := b.dense.Save(); err != nil {
		return errors.InternalError("failed to persist dense index", err)
	}

	slog.Info("dense index built",
		slog.Int("count", b.dense.Count()),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// enrichDocument prefixes the author and a formatted date so queries
// naming a member or a time period land near that member's messages in
// embedding space. Display always uses the raw text from metadata.
func enrichDocument(msg corpus.Message) string {
	return fmt.Sprintf("%s (%s): %s",
		msg.UserName, msg.Timestamp.Format("January 02, 2006"), msg.Text)
}

// snapshotHash fingerprints the corpus content in order, so unchanged
// counts with edited texts are still detectable.
func snapshotHash(snap *corpus.Snapshot) string {
	h := sha256.New()
	for _, msg := range snap.Messages {
		h.Write([]byte(msg.ID))
		h.Write([]byte{0})
		h.Write([]byte(msg.Text))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
