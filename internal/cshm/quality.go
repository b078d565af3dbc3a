package cshm

// MatchQuality grades a measure for human-facing summaries. Thresholds
// follow common practice in the coordination-geometry literature: values
// below ~1 indicate essentially the ideal shape, values beyond ~10 a
// different geometry altogether.
type MatchQuality string

const (
	MatchQualityExact    MatchQuality = "exact"     // measure < 0.1
	MatchQualityClose    MatchQuality = "close"     // measure 0.1-1
	MatchQualityDistort  MatchQuality = "distorted" // measure 1-10
	MatchQualityMismatch MatchQuality = "mismatch"  // measure >= 10
)

// Measure thresholds for quality grading.
const (
	qualityExactMax   = 0.1
	qualityCloseMax   = 1.0
	qualityDistortMax = 10.0
)

// GradeMeasure maps a measure onto a MatchQuality band.
func GradeMeasure(measure float64) MatchQuality {
	switch {
	case measure < qualityExactMax:
		return MatchQualityExact
	case measure < qualityCloseMax:
		return MatchQualityClose
	case measure < qualityDistortMax:
		return MatchQualityDistort
	default:
		return MatchQualityMismatch
	}
}

// String returns a human-readable description of the quality band.
func (q MatchQuality) String() string {
	switch q {
	case MatchQualityExact:
		return "exact (measure < 0.1)"
	case MatchQualityClose:
		return "close (measure 0.1-1)"
	case MatchQualityDistort:
		return "distorted (measure 1-10)"
	case MatchQualityMismatch:
		return "mismatch (measure >= 10)"
	default:
		return string(q)
	}
}
