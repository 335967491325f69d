package index

import (
	"liquidity-lab/internal/domain"
	"liquidity-lab/internal/stats"
)

// Pillar is one computed sub-index with its composite weight.
type Pillar struct {
	Name   string
	Weight float64
	Values []*float64
}

// Aggregator combines pillar sub-indices into the composite score series.
type Aggregator struct {
	// ShortWindow and LongWindow size the composite moving averages.
	ShortWindow int
	LongWindow  int
}

// Aggregate computes the composite score over the date axis, its short and
// long moving averages, and the per-date regime. Missing pillars are handled
// with the same weight renormalization as within a sub-index; the moving
// averages require a full window of defined scores. A date with no defined
// pillar yields a fully missing row with an empty regime, never an error.
func (a Aggregator) Aggregate(dates []domain.Date, pillars []Pillar) []domain.CompositeRow {
	n := len(dates)
	metrics := make([]Metric, len(pillars))
	for i, p := range pillars {
		metrics[i] = Metric{Name: p.Name, Weight: p.Weight, Values: p.Values}
	}
	score := combine(metrics, n)
	maShort := stats.RollingMean(score, a.ShortWindow, 0)
	maLong := stats.RollingMean(score, a.LongWindow, 0)

	byName := make(map[string][]*float64, len(pillars))
	for _, p := range pillars {
		byName[p.Name] = p.Values
	}

	rows := make([]domain.CompositeRow, n)
	for i := 0; i < n; i++ {
		row := domain.CompositeRow{
			Date:          dates[i],
			FiscalIndex:   at(byName[domain.PillarFiscal], i),
			MonetaryIndex: at(byName[domain.PillarMonetary], i),
			PlumbingIndex: at(byName[domain.PillarPlumbing], i),
			Composite:     score[i],
			CompositeMA5:  maShort[i],
			CompositeMA20: maLong[i],
		}
		if score[i] != nil {
			row.Regime = ClassifyRegime(*score[i])
		}
		rows[i] = row
	}
	return rows
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
