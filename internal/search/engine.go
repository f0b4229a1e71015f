package search

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aurorahq/aurora/internal/embed"
	"github.com/aurorahq/aurora/internal/errors"
	"github.com/aurorahq/aurora/internal/lexical"
	"github.com/aurorahq/aurora/internal/store"
)

// Config tunes the retrieval pipeline.
type Config struct {
	LexicalWeight     float64
	TopK              int
	DenseCandidates   int
	LexicalCandidates int
	Expansion         bool
	Timeout           time.Duration
}

// DefaultConfig returns the standard retrieval parameters.
func DefaultConfig() Config {
	return Config{
		LexicalWeight:     DefaultLexicalWeight,
		TopK:              DefaultTopK,
		DenseCandidates:   DefaultDenseCandidates,
		LexicalCandidates: DefaultLexicalCandidates,
		Expansion:         true,
		Timeout:           15 * time.Second,
	}
}

// Engine runs a question through both index legs and fuses the results.
// It is safe for concurrent use once the indexes are built; rebuilds
// swap in fresh structures without pausing queries.
type Engine struct {
	embedder embed.Embedder
	dense    *store.DenseIndex
	lex      *lexical.Index
	config   Config
}

// NewEngine wires the retrieval pipeline.
func NewEngine(embedder embed.Embedder, dense *store.DenseIndex, lex *lexical.Index, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.DenseCandidates < cfg.TopK {
		cfg.DenseCandidates = DefaultDenseCandidates
	}
	if cfg.LexicalCandidates <= 0 {
		cfg.LexicalCandidates = DefaultLexicalCandidates
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Engine{embedder: embedder, dense: dense, lex: lex, config: cfg}
}

// Ready reports whether at least one leg has been built. Queries do not
// require readiness (empty indexes answer with empty results); this
// exists for health reporting.
func (e *Engine) Ready() bool {
	return e.dense.Count() > 0 || e.lex.Ready()
}

// Search runs both legs in parallel and fuses their ranked lists.
//
// The dense leg oversamples (DenseCandidates > TopK) so fusion has a
// broad pool to rerank; the lexical leg scores the whole corpus with
// expansion enabled by default. A dense-leg failure degrades to
// lexical-only results rather than failing the query; only when both
// legs come back empty-handed with the dense leg in error does the
// error propagate. Unbuilt indexes are not an error: both legs return
// empty, and the caller gets an empty low-confidence response.
func (e *Engine) Search(ctx context.Context, question string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	start := time.Now()

	var (
		denseResults []store.DenseResult
		denseErr     error
		lexResults   []lexical.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vector, err := e.embedder.Embed(gctx, question)
		if err != nil {
			denseErr = errors.New(errors.ErrCodeEmbeddingFailed, "failed to embed question", err)
			return nil
		}
		denseResults, err = e.dense.Query(gctx, vector, e.config.DenseCandidates)
		if err != nil {
			denseErr = errors.New(errors.ErrCodeCorruptIndex, "dense query failed", err)
		}
		return nil
	})
	g.Go(func() error {
		lexResults = e.lex.Search(gctx, question, e.config.LexicalCandidates, e.config.Expansion)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.New(errors.ErrCodeInternal, "search timed out", err)
	}

	degraded := false
	if denseErr != nil {
		if len(lexResults) == 0 {
			return nil, denseErr
		}
		degraded = true
		slog.Warn("dense leg failed, serving lexical-only results",
			slog.String("error", denseErr.Error()))
	}

	fused := Fuse(denseResults, lexResults, e.config.LexicalWeight, e.config.TopK)
	confidence := EstimateConfidence(fused)

	slog.Info("search complete",
		slog.Int("dense_candidates", len(denseResults)),
		slog.Int("lexical_candidates", len(lexResults)),
		slog.Int("fused", len(fused)),
		slog.String("confidence", string(confidence)),
		slog.Duration("elapsed", time.Since(start)))

	return &Response{
		Results:    fused,
		Confidence: confidence,
		Degraded:   degraded,
	}, nil
}
