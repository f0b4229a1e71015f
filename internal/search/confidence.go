package search

// Distance thresholds for the confidence heuristic, tuned for
// euclidean distances between normalized sentence embeddings.
const (
	highConfidenceDistance   = 1.3
	mediumConfidenceDistance = 1.6

	highConfidenceMinResults   = 5
	mediumConfidenceMinResults = 3
)

// EstimateConfidence derives a coarse label from the fused set's raw
// distance distribution and size. High needs both a tight mean
// distance and enough corroborating contexts; an empty set is always
// low. Lexical-only results participate with their placeholder
// distance, which counts in their favor.
func EstimateConfidence(results []Result) Confidence {
	if len(results) == 0 {
		return ConfidenceLow
	}

	var sum float64
	for _, r := range results {
		sum += float64(r.Distance)
	}
	mean := sum / float64(len(results))

	switch {
	case mean < highConfidenceDistance && len(results) >= highConfidenceMinResults:
		return ConfidenceHigh
	case mean < mediumConfidenceDistance && len(results) >= mediumConfidenceMinResults:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
