package index

// BoundedSharePct computes numerator/denominator as a percentage clamped to
// [0, 100]. A zero, negative or missing denominator yields 0: shares of a
// degenerate total carry no signal, and the documented zero fallback keeps
// an upstream sign or unit error from leaking an out-of-range value into
// the z-score pipeline. A missing numerator yields missing.
func BoundedSharePct(numerator, denominator *float64) *float64 {
	zero := 0.0
	if denominator == nil || *denominator <= 0 {
		if numerator == nil {
			return nil
		}
		return &zero
	}
	if numerator == nil {
		return nil
	}
	pct := *numerator / *denominator * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return &pct
}

// Spread returns a - b, missing when either side is missing.
func Spread(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	d := *a - *b
	return &d
}

// Sub3 returns a - b - c, missing when any term is missing. Used for net
// liquidity (assets minus RRP minus TGA).
func Sub3(a, b, c *float64) *float64 {
	if a == nil || b == nil || c == nil {
		return nil
	}
	d := *a - *b - *c
	return &d
}
