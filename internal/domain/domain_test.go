package domain

import (
	"math"
	"testing"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2025-03-09" {
		t.Errorf("expected 2025-03-09, got %s", d)
	}
	if _, err := ParseDate("09/03/2025"); err == nil {
		t.Error("expected error on wrong layout")
	}
}

func TestDateRange(t *testing.T) {
	days := DateRange(MustDate("2025-01-30"), MustDate("2025-02-02"))
	want := []string{"2025-01-30", "2025-01-31", "2025-02-01", "2025-02-02"}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), len(days))
	}
	for i := range want {
		if days[i].String() != want[i] {
			t.Errorf("day %d: expected %s, got %s", i, want[i], days[i])
		}
	}
	if got := DateRange(MustDate("2025-01-02"), MustDate("2025-01-01")); len(got) != 0 {
		t.Errorf("inverted range must be empty, got %d days", len(got))
	}
}

func TestDaysSince(t *testing.T) {
	a := MustDate("2025-03-10")
	b := MustDate("2025-03-01")
	if got := a.DaysSince(b); got != 9 {
		t.Errorf("expected 9, got %d", got)
	}
}

func TestFloat_CollapsesNonFinite(t *testing.T) {
	if !Float(math.NaN()).IsNull() {
		t.Error("NaN must become null")
	}
	if !Float(math.Inf(1)).IsNull() {
		t.Error("+Inf must become null")
	}
	if Float(0).IsNull() {
		t.Error("zero is a real value, not null")
	}
}

func TestInferSchema(t *testing.T) {
	r1 := NewRow(MustDate("2025-01-01"))
	r1.Set("a", Float(1))
	r1.Set("b", Null())
	r2 := NewRow(MustDate("2025-01-02"))
	r2.Set("b", Bool(true))
	r2.Set("c", String("x"))

	schema := InferSchema([]Row{r1, r2})

	if len(schema.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(schema.Columns))
	}
	byName := make(map[string]ColumnType)
	for _, col := range schema.Columns {
		byName[col.Name] = col.Type
	}
	if byName["a"] != ColumnFloat || byName["b"] != ColumnBool || byName["c"] != ColumnString {
		t.Errorf("unexpected types: %v", byName)
	}
}

func TestInferSchema_AllNullColumnOmitted(t *testing.T) {
	r := NewRow(MustDate("2025-01-01"))
	r.Set("gap", Null())

	schema := InferSchema([]Row{r})
	if len(schema.Columns) != 0 {
		t.Errorf("all-null column must be omitted, got %d columns", len(schema.Columns))
	}
}

func TestValidIdentifier(t *testing.T) {
	for _, good := range []string{"fed_liquidity", "_x", "Table9"} {
		if !ValidIdentifier(good) {
			t.Errorf("%q should be valid", good)
		}
	}
	for _, bad := range []string{"", "9table", "a-b", "x;drop"} {
		if ValidIdentifier(bad) {
			t.Errorf("%q should be invalid", bad)
		}
	}
}

func TestSeriesDiffAndNegate(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	s := Series{
		Dates:  []Date{MustDate("2025-01-01"), MustDate("2025-01-02"), MustDate("2025-01-03")},
		Values: []*float64{f(10), nil, f(16)},
	}

	diff := s.Diff()
	if diff.Values[0] != nil {
		t.Error("first difference is undefined")
	}
	if diff.Values[1] != nil || diff.Values[2] != nil {
		t.Error("differences across a gap are undefined")
	}

	neg := s.Negate()
	if *neg.Values[0] != -10 || neg.Values[1] != nil || *neg.Values[2] != -16 {
		t.Error("negate must flip present values and keep gaps")
	}
}

func TestCompositeRow_RoundTrip(t *testing.T) {
	f := 0.42
	row := CompositeRow{
		Date:      MustDate("2025-01-01"),
		Composite: &f,
		Regime:    RegimeNeutral,
	}

	back := CompositeRowFromRow(row.ToRow())

	if !back.Date.Equal(row.Date) || back.Regime != RegimeNeutral {
		t.Error("round trip changed date or regime")
	}
	if back.Composite == nil || *back.Composite != f {
		t.Error("round trip changed the score")
	}
	if back.FiscalIndex != nil {
		t.Error("missing pillar must stay missing")
	}
}

func TestQueryMatches(t *testing.T) {
	from := MustDate("2025-01-02")
	to := MustDate("2025-01-03")
	q := Query{From: &from, To: &to}

	if q.Matches(MustDate("2025-01-01")) {
		t.Error("before From must not match")
	}
	if !q.Matches(MustDate("2025-01-02")) || !q.Matches(MustDate("2025-01-03")) {
		t.Error("bounds are inclusive")
	}
	if q.Matches(MustDate("2025-01-04")) {
		t.Error("after To must not match")
	}
	if !(Query{}).Matches(MustDate("1999-12-31")) {
		t.Error("zero query matches everything")
	}
}
