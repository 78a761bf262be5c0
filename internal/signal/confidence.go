package signal

// Confidence expresses how much corroboration backs an output.
type Confidence string

const (
	ConfidenceLow      Confidence = "low"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceHigh     Confidence = "high"
	ConfidenceVeryHigh Confidence = "very_high"
)

// Score maps a confidence level onto the 1..4 integer scale used for
// unweighted averaging across bots.
func (c Confidence) Score() int {
	switch c {
	case ConfidenceVeryHigh:
		return 4
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	default:
		return 1
	}
}

// ConfidenceFromScore thresholds an average score back to a level. Boundaries
// are inclusive: an average of exactly 2.5 resolves to high.
func ConfidenceFromScore(avg float64) Confidence {
	switch {
	case avg >= 3.5:
		return ConfidenceVeryHigh
	case avg >= 2.5:
		return ConfidenceHigh
	case avg >= 1.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ConfidenceFromSourceCount is the shared count ladder for multi-source bots:
// three or more agreeing sources are very high confidence, two high, one
// medium, none low.
func ConfidenceFromSourceCount(n int) Confidence {
	switch {
	case n >= 3:
		return ConfidenceVeryHigh
	case n == 2:
		return ConfidenceHigh
	case n == 1:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
