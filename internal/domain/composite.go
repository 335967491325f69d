package domain

// Regime is the five-valued liquidity classification derived from the
// composite score. It is a pure function of the score with no hysteresis:
// the label is recomputed from scratch on every run, so a single noisy day
// can flip it between adjacent bands.
type Regime string

const (
	RegimeVeryTight Regime = "Very Tight"
	RegimeTight     Regime = "Tight"
	RegimeNeutral   Regime = "Neutral"
	RegimeLoose     Regime = "Loose"
	RegimeVeryLoose Regime = "Very Loose"
)

// Regimes lists all labels from tightest to loosest.
var Regimes = []Regime{
	RegimeVeryTight,
	RegimeTight,
	RegimeNeutral,
	RegimeLoose,
	RegimeVeryLoose,
}

// Pillar names of the composite index.
const (
	PillarFiscal   = "fiscal"
	PillarMonetary = "monetary"
	PillarPlumbing = "plumbing"
)

// Column names of the persisted composite table.
const (
	ColFiscalIndex   = "fiscal_index"
	ColMonetaryIndex = "monetary_index"
	ColPlumbingIndex = "plumbing_index"
	ColComposite     = "composite"
	ColCompositeMA5  = "composite_ma5"
	ColCompositeMA20 = "composite_ma20"
	ColRegime        = "regime"
)

// CompositeTable is the name of the table the pipeline owns. It is fully
// recomputed and superseded on every run.
const CompositeTable = "liquidity_composite_index"

// CompositeRow is one date of the final composite table. Sub-index and
// score fields are nil where the value could not be computed; Regime is
// empty exactly when Composite is nil.
type CompositeRow struct {
	Date          Date
	FiscalIndex   *float64
	MonetaryIndex *float64
	PlumbingIndex *float64
	Composite     *float64
	CompositeMA5  *float64
	CompositeMA20 *float64
	Regime        Regime
}

// ToRow converts the composite row into the generic table representation.
func (c CompositeRow) ToRow() Row {
	row := NewRow(c.Date)
	row.Set(ColFiscalIndex, FloatPtr(c.FiscalIndex))
	row.Set(ColMonetaryIndex, FloatPtr(c.MonetaryIndex))
	row.Set(ColPlumbingIndex, FloatPtr(c.PlumbingIndex))
	row.Set(ColComposite, FloatPtr(c.Composite))
	row.Set(ColCompositeMA5, FloatPtr(c.CompositeMA5))
	row.Set(ColCompositeMA20, FloatPtr(c.CompositeMA20))
	if c.Regime != "" {
		row.Set(ColRegime, String(string(c.Regime)))
	} else {
		row.Set(ColRegime, Null())
	}
	return row
}

// CompositeRowFromRow converts a generic table row back.
func CompositeRowFromRow(row Row) CompositeRow {
	c := CompositeRow{
		Date:          row.Date,
		FiscalIndex:   row.Get(ColFiscalIndex).FloatOrNil(),
		MonetaryIndex: row.Get(ColMonetaryIndex).FloatOrNil(),
		PlumbingIndex: row.Get(ColPlumbingIndex).FloatOrNil(),
		Composite:     row.Get(ColComposite).FloatOrNil(),
		CompositeMA5:  row.Get(ColCompositeMA5).FloatOrNil(),
		CompositeMA20: row.Get(ColCompositeMA20).FloatOrNil(),
	}
	if s, ok := row.Get(ColRegime).AsString(); ok {
		c.Regime = Regime(s)
	}
	return c
}
