package domain

// Series is one named column viewed over an ordered set of dates.
// Values[i] is nil where the observation is missing. Dates are unique and
// ascending; constructors from table rows preserve store ordering.
type Series struct {
	Dates  []Date
	Values []*float64
}

// SeriesFromRows extracts one numeric column from date-ordered rows.
func SeriesFromRows(rows []Row, column string) Series {
	s := Series{
		Dates:  make([]Date, len(rows)),
		Values: make([]*float64, len(rows)),
	}
	for i, row := range rows {
		s.Dates[i] = row.Date
		s.Values[i] = row.Get(column).FloatOrNil()
	}
	return s
}

// Len returns the number of dates in the series.
func (s Series) Len() int { return len(s.Dates) }

// At returns the value for a date, nil if the date is absent or missing.
func (s Series) At(d Date) *float64 {
	for i, sd := range s.Dates {
		if sd.Equal(d) {
			return s.Values[i]
		}
	}
	return nil
}

// Diff returns the first difference v[i] - v[i-1]; the first element and any
// element whose neighbor is missing become nil.
func (s Series) Diff() Series {
	out := Series{
		Dates:  s.Dates,
		Values: make([]*float64, len(s.Values)),
	}
	for i := 1; i < len(s.Values); i++ {
		if s.Values[i] == nil || s.Values[i-1] == nil {
			continue
		}
		d := *s.Values[i] - *s.Values[i-1]
		out.Values[i] = &d
	}
	return out
}

// Negate returns the series with every present value sign-flipped.
// Used for metrics where a decline injects liquidity (TGA drawdown,
// RRP release) or an increase signals stress (spreads, fails).
func (s Series) Negate() Series {
	out := Series{
		Dates:  s.Dates,
		Values: make([]*float64, len(s.Values)),
	}
	for i, v := range s.Values {
		if v == nil {
			continue
		}
		n := -*v
		out.Values[i] = &n
	}
	return out
}
