package search

import (
	"sort"
	"time"

	"github.com/aurorahq/aurora/internal/lexical"
	"github.com/aurorahq/aurora/internal/store"
)

// Metadata keys carried by dense entries.
const (
	MetaUserName        = "user_name"
	MetaTimestamp       = "timestamp"
	MetaOriginalMessage = "original_message"
)

// Fuse merges a dense result list and a lexical result list into one
// ranked list of at most topK results.
//
// Each dense distance d becomes a similarity 1/(1+d); each list is then
// normalized by its own maximum, so the best item on each side
// contributes exactly 1.0 and lexicalWeight keeps a stable meaning
// across queries. An id present in only one list scores 0 for the
// missing side rather than being dropped. With both normalized
// components in [0,1] and the weights summing to 1, every fused score
// lands in [0,1].
func Fuse(dense []store.DenseResult, lex []lexical.Result, lexicalWeight float64, topK int) []Result {
	denseScores := make(map[string]float64, len(dense))
	var maxDense float64
	for _, r := range dense {
		sim := 1.0 / (1.0 + float64(r.Distance))
		denseScores[r.ID] = sim
		if sim > maxDense {
			maxDense = sim
		}
	}
	if maxDense > 0 {
		for id, s := range denseScores {
			denseScores[id] = s / maxDense
		}
	}

	lexScores := make(map[string]float64, len(lex))
	var maxLex float64
	for _, r := range lex {
		lexScores[r.Message.ID] = r.Score
		if r.Score > maxLex {
			maxLex = r.Score
		}
	}
	if maxLex > 0 {
		for id, s := range lexScores {
			lexScores[id] = s / maxLex
		}
	}

	denseByID := make(map[string]store.DenseResult, len(dense))
	for _, r := range dense {
		denseByID[r.ID] = r
	}
	lexByID := make(map[string]lexical.Result, len(lex))
	for _, r := range lex {
		lexByID[r.Message.ID] = r
	}

	fused := make([]Result, 0, len(denseScores)+len(lexScores))
	seen := make(map[string]struct{}, len(denseScores)+len(lexScores))
	appendID := func(id string) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		ds := denseScores[id]
		ls := lexScores[id]
		result := Result{
			ID:           id,
			FusedScore:   lexicalWeight*ls + (1-lexicalWeight)*ds,
			DenseScore:   ds,
			LexicalScore: ls,
		}

		// Display fields come from the dense side when available:
		// it carries the enriched document and full metadata. A
		// lexical-only id falls back to the raw message with a
		// placeholder distance.
		if d, ok := denseByID[id]; ok {
			result.Document = d.Document
			result.OriginalMessage = d.Metadata[MetaOriginalMessage]
			result.UserName = d.Metadata[MetaUserName]
			result.Timestamp = parseMetaTimestamp(d.Metadata[MetaTimestamp])
			result.Distance = d.Distance
			if result.OriginalMessage == "" {
				result.OriginalMessage = d.Document
			}
		} else {
			msg := lexByID[id].Message
			result.Document = msg.Text
			result.OriginalMessage = msg.Text
			result.UserName = msg.UserName
			result.Timestamp = msg.Timestamp
			result.Distance = PlaceholderDistance
		}
		fused = append(fused, result)
	}
	for _, r := range dense {
		appendID(r.ID)
	}
	for _, r := range lex {
		appendID(r.Message.ID)
	}

	// Descending fused score; equal scores fall back to id so the
	// output is deterministic.
	sort.SliceStable(fused, func(a, b int) bool {
		if fused[a].FusedScore != fused[b].FusedScore {
			return fused[a].FusedScore > fused[b].FusedScore
		}
		return fused[a].ID < fused[b].ID
	})

	if topK > 0 && len(fused) > topK {
		fused = fused[:topK]
	}
	return fused
}

func parseMetaTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
