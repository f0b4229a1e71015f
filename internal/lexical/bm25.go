package lexical

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync/atomic"

	"github.com/aurorahq/aurora/internal/corpus"
)

// Okapi BM25 parameters.
const (
	bm25K1      = 1.5
	bm25B       = 0.75
	bm25Epsilon = 0.25
)

// Result is a single lexical hit. The message is carried whole so
// fusion can fall back to its raw fields when an id has no dense
// counterpart.
type Result struct {
	Message corpus.Message
	Score   float64
}

// bm25Model is an immutable scoring model over one corpus snapshot.
// A rebuild constructs a fresh model and swaps it in atomically, so
// queries never observe a half-built index.
type bm25Model struct {
	messages   []corpus.Message
	termFreqs  []map[string]int // per-document token counts
	docLengths []int
	avgDocLen  float64
	idf        map[string]float64
}

// Index scores the corpus with Okapi BM25 and expands query tokens
// with synonyms. Indexing tokenizes "{user_name} {text}" so queries
// naming an author match that author's messages.
type Index struct {
	model atomic.Pointer[bm25Model]
}

// NewIndex returns an empty, unindexed instance. Queries before the
// first IndexMessages call return no results.
func NewIndex() *Index {
	return &Index{}
}

// IndexMessages rebuilds the model from scratch over the snapshot.
// Token lists are always recomputed in full; there is no incremental
// patching.
func (idx *Index) IndexMessages(_ context.Context, messages []corpus.Message) {
	slog.Info("indexing lexical corpus", slog.Int("count", len(messages)))

	model := &bm25Model{
		messages:   messages,
		termFreqs:  make([]map[string]int, len(messages)),
		docLengths: make([]int, len(messages)),
		idf:        make(map[string]float64),
	}

	docFreq := make(map[string]int)
	totalLen := 0
	for i, msg := range messages {
		tokens := Tokenize(msg.UserName + " " + msg.Text)
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		for tok := range freqs {
			docFreq[tok]++
		}
		model.termFreqs[i] = freqs
		model.docLengths[i] = len(tokens)
		totalLen += len(tokens)
	}
	if len(messages) > 0 {
		model.avgDocLen = float64(totalLen) / float64(len(messages))
	}

	// Okapi IDF with the epsilon floor: terms appearing in more than
	// half the corpus get a small positive weight instead of a
	// negative one.
	n := float64(len(messages))
	var idfSum float64
	var negative []string
	for tok, freq := range docFreq {
		idf := math.Log((n - float64(freq) + 0.5) / (float64(freq) + 0.5))
		model.idf[tok] = idf
		idfSum += idf
		if idf < 0 {
			negative = append(negative, tok)
		}
	}
	if len(docFreq) > 0 {
		floor := bm25Epsilon * idfSum / float64(len(docFreq))
		for _, tok := range negative {
			model.idf[tok] = floor
		}
	}

	idx.model.Store(model)
	slog.Info("lexical indexing complete", slog.Int("count", len(messages)))
}

// Ready reports whether the index has been built.
func (idx *Index) Ready() bool {
	return idx.model.Load() != nil
}

// Count returns the number of indexed messages.
func (idx *Index) Count() int {
	model := idx.model.Load()
	if model == nil {
		return 0
	}
	return len(model.messages)
}

// Search scores every document against the (optionally expanded) query
// tokens. Documents scoring <= 0 are excluded; the rest are sorted by
// descending score, ties broken by original corpus order, truncated to
// topK. Querying before indexing logs an error and returns an empty
// list so the caller can proceed dense-only.
func (idx *Index) Search(_ context.Context, query string, topK int, expand bool) []Result {
	model := idx.model.Load()
	if model == nil {
		slog.Error("lexical index not built, returning empty results")
		return []Result{}
	}

	tokens := Tokenize(query)
	if expand {
		before := len(tokens)
		tokens = ExpandTokens(tokens)
		slog.Debug("query expanded",
			slog.Int("original_tokens", before),
			slog.Int("expanded_tokens", len(tokens)))
	}

	type scored struct {
		index int
		score float64
	}
	hits := make([]scored, 0, 32)
	for i := range model.messages {
		score := model.score(tokens, i)
		if score > 0 {
			hits = append(hits, scored{index: i, score: score})
		}
	}

	// SliceStable keeps corpus order among equal scores.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}

	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = Result{
			Message: model.messages[hit.index],
			Score:   hit.score,
		}
	}
	return results
}

// score computes the Okapi BM25 score of document doc for the query
// token set.
func (m *bm25Model) score(tokens []string, doc int) float64 {
	freqs := m.termFreqs[doc]
	lenNorm := bm25K1 * (1 - bm25B + bm25B*float64(m.docLengths[doc])/m.avgDocLen)

	var total float64
	for _, tok := range tokens {
		tf := float64(freqs[tok])
		if tf == 0 {
			continue
		}
		total += m.idf[tok] * tf * (bm25K1 + 1) / (tf + lenNorm)
	}
	return total
}
