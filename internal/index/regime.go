package index

import "liquidity-lab/internal/domain"

// Regime band thresholds over the composite score. Bands are ordered,
// non-overlapping and cover the full real line; each threshold is the
// inclusive upper edge of its band, so a score of exactly 1.0 reads
// Loose, not Very Loose.
const (
	VeryTightUpper = -1.0
	TightUpper     = -0.5
	NeutralUpper   = 0.5
	LooseUpper     = 1.0
)

// ClassifyRegime maps a composite score to its regime label. Pure function
// of the score: no hysteresis, no memory of the previous label.
func ClassifyRegime(score float64) domain.Regime {
	switch {
	case score <= VeryTightUpper:
		return domain.RegimeVeryTight
	case score <= TightUpper:
		return domain.RegimeTight
	case score <= NeutralUpper:
		return domain.RegimeNeutral
	case score <= LooseUpper:
		return domain.RegimeLoose
	default:
		return domain.RegimeVeryLoose
	}
}
