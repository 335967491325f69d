package index

import (
	"testing"

	"liquidity-lab/internal/domain"
)

func TestClassifyRegime_Bands(t *testing.T) {
	cases := []struct {
		score float64
		want  domain.Regime
	}{
		{-2.5, domain.RegimeVeryTight},
		{-1.01, domain.RegimeVeryTight},
		{-0.99, domain.RegimeTight},
		{-0.51, domain.RegimeTight},
		{-0.49, domain.RegimeNeutral},
		{0, domain.RegimeNeutral},
		{0.49, domain.RegimeNeutral},
		{0.51, domain.RegimeLoose},
		{0.99, domain.RegimeLoose},
		{1.01, domain.RegimeVeryLoose},
		{3.0, domain.RegimeVeryLoose},
	}
	for _, tc := range cases {
		if got := ClassifyRegime(tc.score); got != tc.want {
			t.Errorf("score %v: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestClassifyRegime_BoundariesUpperInclusive(t *testing.T) {
	// Each band includes its upper edge.
	cases := []struct {
		score float64
		want  domain.Regime
	}{
		{-1.0, domain.RegimeVeryTight},
		{-0.5, domain.RegimeTight},
		{0.5, domain.RegimeNeutral},
		{1.0, domain.RegimeLoose},
	}
	for _, tc := range cases {
		if got := ClassifyRegime(tc.score); got != tc.want {
			t.Errorf("boundary %v: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}
