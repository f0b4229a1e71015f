package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// StaticEmbedder produces deterministic embeddings via feature hashing,
// with no model download and no external process. It exists for tests
// and for degraded operation when no embedding host is reachable; the
// vectors capture token overlap, not meaning.
type StaticEmbedder struct {
	dims int
}

var _ Embedder = (*StaticEmbedder)(nil)

// Common English words that carry little signal for similarity.
var staticStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "if": {}, "in": {},
	"is": {}, "it": {}, "of": {}, "on": {}, "or": {}, "so": {},
	"the": {}, "to": {}, "was": {}, "we": {}, "with": {},
}

// NewStaticEmbedder creates a hash-based embedder with the given
// dimensionality (StaticDimensions if dims <= 0).
func NewStaticEmbedder(dims int) *StaticEmbedder {
	if dims <= 0 {
		dims = StaticDimensions
	}
	return &StaticEmbedder{dims: dims}
}

// Load is a no-op; there is nothing to load.
func (e *StaticEmbedder) Load(_ context.Context) error { return nil }

// Embed produces a normalized feature-hashed vector. The same text
// always produces the same vector.
func (e *StaticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)

	tokens := staticTokenize(text)
	for _, tok := range tokens {
		if _, stop := staticStopWords[tok]; stop {
			continue
		}
		e.addFeature(vec, tok, 1.0)

		// Character trigrams give partial-match signal for
		// misspellings and inflected forms.
		for i := 0; i+3 <= len(tok); i++ {
			e.addFeature(vec, "tri:"+tok[i:i+3], 0.4)
		}
	}

	// Consecutive token pairs preserve a little word order.
	for i := 0; i+1 < len(tokens); i++ {
		e.addFeature(vec, tokens[i]+" "+tokens[i+1], 0.6)
	}

	return normalizeVector(vec), nil
}

// EmbedBatch embeds each text independently.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

// addFeature hashes a feature into two buckets with sign flips, which
// reduces collision bias compared to a single bucket.
func (e *StaticEmbedder) addFeature(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx1 := int(sum % uint64(e.dims))
	idx2 := int((sum >> 32) % uint64(e.dims))

	sign := float32(1)
	if sum&1 == 1 {
		sign = -1
	}

	vec[idx1] += sign * weight
	vec[idx2] += sign * weight * 0.5
}

// staticTokenize lowercases and splits on non-alphanumeric runs.
func staticTokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Dimensions returns the configured dimensionality.
func (e *StaticEmbedder) Dimensions() int { return e.dims }

// ModelName identifies the hashing scheme, not a real model.
func (e *StaticEmbedder) ModelName() string { return "static-fnv" }

// Available always returns true.
func (e *StaticEmbedder) Available(_ context.Context) bool { return true }

// Close is a no-op.
func (e *StaticEmbedder) Close() error { return nil }

// cosineSimilarity is used by tests to sanity-check static vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
