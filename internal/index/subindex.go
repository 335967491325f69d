// Package index converts z-scored liquidity metrics into the three pillar
// sub-indices and aggregates them into the composite score with its regime
// classification.
package index

// Metric is one z-scored input of a sub-index, aligned to the pipeline's
// common date axis (nil where the z-score is undefined).
type Metric struct {
	Name   string
	Weight float64
	Values []*float64
}

// SubIndex is a named, weighted combination of z-scored metrics.
// Declared weights must sum to 1.0 (validated at configuration load).
type SubIndex struct {
	Name    string
	Metrics []Metric
}

// Compute evaluates the sub-index on each of the n axis positions as
// Σ w_i·z_i over the metrics with a defined z-score there, renormalizing
// the weights of the available metrics to sum to 1.0. A date where one
// input is missing therefore still gets a reading from the rest, but a
// date where every input is missing stays missing: the sub-index never
// fabricates a neutral zero.
func (s SubIndex) Compute(n int) []*float64 {
	return combine(s.Metrics, n)
}

func combine(metrics []Metric, n int) []*float64 {
	out := make([]*float64, n)
	for i := 0; i < n; i++ {
		var sum, weight float64
		found := false
		for _, m := range metrics {
			if i >= len(m.Values) || m.Values[i] == nil {
				continue
			}
			sum += m.Weight * *m.Values[i]
			weight += m.Weight
			found = true
		}
		if !found || weight == 0 {
			continue
		}
		v := sum / weight
		out[i] = &v
	}
	return out
}
