package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurorahq/aurora/internal/corpus"
	"github.com/aurorahq/aurora/internal/lexical"
	"github.com/aurorahq/aurora/internal/store"
)

// --- Test Helpers ---

func denseResult(id string, distance float32) store.DenseResult {
	return store.DenseResult{
		ID:       id,
		Document: "Member Name (October 01, 2025): text of " + id,
		Metadata: map[string]string{
			MetaUserName:        "Member Name",
			MetaTimestamp:       "2025-10-01T12:00:00Z",
			MetaOriginalMessage: "text of " + id,
		},
		Distance: distance,
	}
}

func lexResult(id string, score float64) lexical.Result {
	return lexical.Result{
		Message: corpus.Message{
			ID:        id,
			UserName:  "Lex Author",
			Timestamp: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
			Text:      "lexical text of " + id,
		},
		Score: score,
	}
}

func TestFuse_ScoresBoundedZeroOne(t *testing.T) {
	// Given: overlapping dense and lexical lists with arbitrary scales
	dense := []store.DenseResult{
		denseResult("a", 0.1), denseResult("b", 0.9), denseResult("c", 1.7),
	}
	lex := []lexical.Result{
		lexResult("b", 42.0), lexResult("c", 17.5), lexResult("d", 3.3),
	}

	// When: fused at several weights
	for _, w := range []float64{0.0, 0.3, 0.6, 1.0} {
		fused := Fuse(dense, lex, w, 10)

		// Then: every fused score lands in [0,1]
		require.NotEmpty(t, fused)
		for _, r := range fused {
			assert.GreaterOrEqual(t, r.FusedScore, 0.0, "weight %v id %s", w, r.ID)
			assert.LessOrEqual(t, r.FusedScore, 1.0, "weight %v id %s", w, r.ID)
		}
	}
}

func TestFuse_WeightOneIsLexicalOrder(t *testing.T) {
	// Given: dense and lexical legs that disagree on the best id
	dense := []store.DenseResult{denseResult("dense-best", 0.1), denseResult("shared", 1.5)}
	lex := []lexical.Result{lexResult("lex-best", 9.0), lexResult("shared", 4.0)}

	// When: lexical weight is 1
	fused := Fuse(dense, lex, 1.0, 10)

	// Then: ranking reduces to the lexical ordering; dense-only ids
	// trail with zero score
	require.GreaterOrEqual(t, len(fused), 3)
	assert.Equal(t, "lex-best", fused[0].ID)
	assert.Equal(t, "shared", fused[1].ID)
	assert.Equal(t, 0.0, fused[2].FusedScore)
}

func TestFuse_WeightZeroIsDenseOrder(t *testing.T) {
	dense := []store.DenseResult{denseResult("dense-best", 0.1), denseResult("shared", 1.5)}
	lex := []lexical.Result{lexResult("lex-best", 9.0), lexResult("shared", 4.0)}

	fused := Fuse(dense, lex, 0.0, 10)

	require.GreaterOrEqual(t, len(fused), 3)
	assert.Equal(t, "dense-best", fused[0].ID)
	assert.Equal(t, "shared", fused[1].ID)
}

func TestFuse_AgreeingSignalsRankFirst(t *testing.T) {
	// Given: both legs prefer the same id (distance 0.2 + score 10
	// versus distance 0.8 + score 2)
	dense := []store.DenseResult{denseResult("x", 0.2), denseResult("y", 0.8)}
	lex := []lexical.Result{lexResult("x", 10), lexResult("y", 2)}

	// When: fused with the lexical-favoring default
	fused := Fuse(dense, lex, 0.6, 10)

	// Then: the agreed-on id ranks first with the maximum score 1.0
	require.Len(t, fused, 2)
	assert.Equal(t, "x", fused[0].ID)
	assert.InDelta(t, 1.0, fused[0].FusedScore, 1e-9)
	assert.Greater(t, fused[0].FusedScore, fused[1].FusedScore)
}

func TestFuse_LexicalOnlyIDSurvives(t *testing.T) {
	// Given: an id present only in the lexical list
	dense := []store.DenseResult{denseResult("both", 0.4)}
	lex := []lexical.Result{lexResult("both", 8), lexResult("lex-only", 5)}

	// When: fused
	fused := Fuse(dense, lex, 0.6, 10)

	// Then: the lexical-only id appears with dense contribution 0 and
	// the placeholder distance, carrying its raw message fields
	require.Len(t, fused, 2)
	var lexOnly *Result
	for i := range fused {
		if fused[i].ID == "lex-only" {
			lexOnly = &fused[i]
		}
	}
	require.NotNil(t, lexOnly)
	assert.Equal(t, 0.0, lexOnly.DenseScore)
	assert.Equal(t, float32(PlaceholderDistance), lexOnly.Distance)
	assert.Equal(t, "Lex Author", lexOnly.UserName)
	assert.Equal(t, "lexical text of lex-only", lexOnly.OriginalMessage)
	assert.Greater(t, lexOnly.FusedScore, 0.0)
}

func TestFuse_DenseSideSuppliesDisplayFields(t *testing.T) {
	// Given: an id in both lists
	dense := []store.DenseResult{denseResult("shared", 0.3)}
	lex := []lexical.Result{lexResult("shared", 6)}

	fused := Fuse(dense, lex, 0.5, 10)

	// Then: display fields come from the dense side's enriched entry
	require.Len(t, fused, 1)
	assert.Equal(t, "Member Name", fused[0].UserName)
	assert.Equal(t, "text of shared", fused[0].OriginalMessage)
	assert.Equal(t, float32(0.3), fused[0].Distance)
	assert.Equal(t, 2025, fused[0].Timestamp.Year())
}

func TestFuse_EmptyInputs(t *testing.T) {
	assert.Empty(t, Fuse(nil, nil, 0.6, 10))

	// One empty side leaves the other normalized against itself.
	fused := Fuse([]store.DenseResult{denseResult("a", 0.5)}, nil, 0.6, 10)
	require.Len(t, fused, 1)
	assert.InDelta(t, 0.4, fused[0].FusedScore, 1e-9)
}

func TestFuse_TruncatesToTopK(t *testing.T) {
	dense := make([]store.DenseResult, 0, 30)
	for i := 0; i < 30; i++ {
		dense = append(dense, denseResult(string(rune('a'+i)), float32(i)*0.1))
	}

	fused := Fuse(dense, nil, 0.6, 25)
	assert.Len(t, fused, 25)
}
