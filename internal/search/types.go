// Package search orchestrates a query across both indexes: dense and
// lexical legs run in parallel, their ranked lists are fused with
// weighted max-normalized scores, and the fused set yields a coarse
// confidence label.
package search

import "time"

// Default retrieval parameters.
const (
	// DefaultLexicalWeight favors keyword matches; the corpus is short
	// informal messages where exact terms carry most of the signal.
	DefaultLexicalWeight = 0.6

	// DefaultTopK is the final fused result count.
	DefaultTopK = 25

	// DefaultDenseCandidates oversamples the dense leg so fusion has a
	// broad pool to rerank.
	DefaultDenseCandidates = 50

	// DefaultLexicalCandidates bounds the lexical leg.
	DefaultLexicalCandidates = 100

	// PlaceholderDistance stands in for ids with no dense hit, so every
	// fused result carries a distance for confidence estimation.
	PlaceholderDistance = 0.5
)

// Result is one fused hit with its display fields and score breakdown.
type Result struct {
	ID              string
	Document        string // Enriched text when the dense leg saw this id
	OriginalMessage string // Raw text, always present
	UserName        string
	Timestamp       time.Time
	Distance        float32 // Raw dense distance, PlaceholderDistance if lexical-only
	FusedScore      float64 // In [0,1]
	DenseScore      float64 // Max-normalized, 0 if absent
	LexicalScore    float64 // Max-normalized, 0 if absent
}

// Confidence is a coarse label over the fused result set.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Response is the full retrieval outcome for one question.
type Response struct {
	Results    []Result
	Confidence Confidence
	Degraded   bool // True when one leg failed and the other carried the query
}
