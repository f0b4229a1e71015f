package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aurorahq/aurora/internal/answer"
	"github.com/aurorahq/aurora/internal/config"
	"github.com/aurorahq/aurora/internal/corpus"
	"github.com/aurorahq/aurora/internal/embed"
	"github.com/aurorahq/aurora/internal/index"
	"github.com/aurorahq/aurora/internal/lexical"
	"github.com/aurorahq/aurora/internal/logging"
	"github.com/aurorahq/aurora/internal/metrics"
	"github.com/aurorahq/aurora/internal/search"
	"github.com/aurorahq/aurora/internal/store"
)

// app bundles the long-lived service objects. Everything is constructed
// once at process start and handed around by reference; there is no
// ambient global state.
type app struct {
	cfg         *config.Config
	embedder    embed.Embedder
	dense       *store.DenseIndex
	lex         *lexical.Index
	cache       *corpus.Cache
	backup      *corpus.Backup
	builder     *index.Builder
	engine      *search.Engine
	synthesizer *answer.Synthesizer
	metrics     *metrics.Metrics
	registry    *prometheus.Registry

	cleanups []func()
}

// newApp loads config, installs logging, and wires every service.
func newApp(withFileLog bool) (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:         cfg.Server.LogLevel,
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
	if debugMode {
		logCfg.Level = "debug"
	}
	if withFileLog {
		logCfg.FilePath = logging.DefaultLogPath()
	}
	logCleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	a := &app{cfg: cfg}
	a.cleanups = append(a.cleanups, logCleanup)

	if err := a.wire(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	cfg := a.cfg

	var base embed.Embedder
	switch cfg.Embedding.Provider {
	case "static":
		base = embed.NewStaticEmbedder(cfg.Embedding.Dimensions)
	default:
		base = embed.NewOllamaEmbedder(embed.OllamaConfig{
			Host:       cfg.Embedding.OllamaHost,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			BatchSize:  cfg.Embedding.BatchSize,
		})
	}
	cached, err := embed.NewCachedEmbedder(base, cfg.Embedding.CacheSize)
	if err != nil {
		return fmt.Errorf("failed to create embedding cache: %w", err)
	}
	a.embedder = cached
	a.cleanups = append(a.cleanups, func() { _ = cached.Close() })

	dims := cfg.Embedding.Dimensions
	if dims == 0 {
		// Auto-detect: reuse the dimension a persisted index was built
		// with, so Load agrees with the stored graph. A fresh index
		// picks the dimension up from the model at build time.
		stored, err := store.ReadStoredDimensions(
			filepath.Join(cfg.Index.DataDir, store.VectorFileName))
		if err != nil {
			slog.Warn("could not read stored index dimensions",
				slog.String("error", err.Error()))
		}
		dims = stored
	}

	vcfg := store.DefaultVectorStoreConfig(dims)
	vcfg.Metric = cfg.Index.Metric
	dense, err := store.OpenDenseIndex(cfg.Index.DataDir, vcfg)
	if err != nil {
		return fmt.Errorf("failed to open dense index: %w", err)
	}
	a.dense = dense
	a.cleanups = append(a.cleanups, func() { _ = dense.Close() })

	a.lex = lexical.NewIndex()

	client := corpus.NewClient(corpus.ClientConfig{
		URL:        cfg.Upstream.URL,
		FetchLimit: cfg.Upstream.FetchLimit,
		Timeout:    cfg.Upstream.Timeout,
		MaxRetries: cfg.Upstream.MaxRetries,
	})
	a.cache = corpus.NewCache(client, cfg.Cache.TTL)
	a.backup = corpus.NewBackup(cfg.Index.DataDir)

	a.builder = index.NewBuilder(a.cache, a.backup, a.embedder,
		a.dense, a.lex, cfg.Index.DataDir, cfg.Index.DenseBatchSize)

	a.engine = search.NewEngine(a.embedder, a.dense, a.lex, search.Config{
		LexicalWeight:     cfg.Search.LexicalWeight,
		TopK:              cfg.Search.TopK,
		DenseCandidates:   cfg.Search.DenseCandidates,
		LexicalCandidates: cfg.Search.LexicalCandidates,
		Expansion:         cfg.Search.ExpansionEnabled(),
		Timeout:           cfg.Search.Timeout,
	})

	a.synthesizer = answer.NewSynthesizer(answer.NewClient(answer.ClientConfig{
		BaseURL:     cfg.Synthesis.BaseURL,
		APIKey:      cfg.Synthesis.APIKey,
		Model:       cfg.Synthesis.Model,
		Temperature: cfg.Synthesis.Temperature,
		MaxTokens:   cfg.Synthesis.MaxTokens,
		Timeout:     cfg.Synthesis.Timeout,
		MaxRetries:  cfg.Synthesis.MaxRetries,
	}))

	a.metrics, a.registry = metrics.New()
	return nil
}

// Close runs cleanups in reverse construction order.
func (a *app) Close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}
