// Package impute fills forward missing values for series whose sources only
// publish on business days, tagging every filled cell with a provenance
// flag. It is the single forward-fill implementation for the whole
// pipeline; per-metric fill logic lives here and nowhere else.
package impute

import "liquidity-lab/internal/domain"

// FieldPolicy declares one field as daily-expected and bounds how far its
// last reported value may be carried.
type FieldPolicy struct {
	Field string
	// MaxGap caps consecutive filled days. 0 carries the value until the
	// next real observation, which suits weekly-published series; daily
	// series should use a small bound (e.g. 3 covers a weekend plus one
	// holiday) so a prolonged source outage stays visible as missing data.
	MaxGap int
}

// Imputer forward-fills the declared fields over a date-ordered row slice.
type Imputer struct {
	policies []FieldPolicy
}

// New creates an Imputer for the given field policies.
func New(policies ...FieldPolicy) *Imputer {
	return &Imputer{policies: policies}
}

// Apply returns a copy of rows with the declared fields forward-filled and
// their `<field>_imputed` companions set. Rows must be ordered by date
// ascending and should cover a contiguous calendar range (see ReindexDaily).
//
// For each date where a field is missing, the most recent reported value is
// carried forward, within the policy's gap bound, and the flag is set true.
// A leading gap (no prior observation) stays missing with the flag false.
// Dates where the field was reported keep any pre-existing upstream flag,
// so applying the Imputer twice is a no-op.
func (im *Imputer) Apply(rows []domain.Row) []domain.Row {
	out := make([]domain.Row, len(rows))
	for i, row := range rows {
		out[i] = domain.NewRow(row.Date)
		for k, v := range row.Cells {
			out[i].Cells[k] = v
		}
	}

	for _, p := range im.policies {
		flagCol := domain.ImputedColumn(p.Field)
		var last *float64
		gap := 0
		for i := range out {
			if v, ok := out[i].Float(p.Field); ok {
				if out[i].Bool(flagCol) {
					// filled on an earlier pass; still counts against the
					// gap bound, or reapplying would creep past it
					gap++
					if last == nil {
						last = &v
					}
					continue
				}
				last = &v
				gap = 0
				out[i].Set(flagCol, domain.Bool(false))
				continue
			}
			gap++
			if last == nil || (p.MaxGap > 0 && gap > p.MaxGap) {
				out[i].Set(flagCol, domain.Bool(false))
				continue
			}
			out[i].Set(p.Field, domain.Float(*last))
			out[i].Set(flagCol, domain.Bool(true))
		}
	}
	return out
}

// ReindexDaily expands date-ordered rows to one row per calendar day over
// their full range, inserting empty rows for absent dates so non-published
// days become fillable. Empty and single-row inputs are returned unchanged.
func ReindexDaily(rows []domain.Row) []domain.Row {
	if len(rows) < 2 {
		return rows
	}
	byDate := make(map[string]domain.Row, len(rows))
	for _, row := range rows {
		byDate[row.Date.String()] = row
	}
	days := domain.DateRange(rows[0].Date, rows[len(rows)-1].Date)
	out := make([]domain.Row, 0, len(days))
	for _, d := range days {
		if row, ok := byDate[d.String()]; ok {
			out = append(out, row)
		} else {
			out = append(out, domain.NewRow(d))
		}
	}
	return out
}

// DeriveFlag sets the derived field's `<field>_imputed` companion to the OR
// of its inputs' flags on every date where the derived field is present, so
// provenance survives through derived calculations. Where the derived field
// is missing the flag is false.
func DeriveFlag(rows []domain.Row, derived string, inputs ...string) {
	flagCol := domain.ImputedColumn(derived)
	for i := range rows {
		if _, ok := rows[i].Float(derived); !ok {
			rows[i].Set(flagCol, domain.Bool(false))
			continue
		}
		any := false
		for _, in := range inputs {
			if rows[i].Bool(domain.ImputedColumn(in)) {
				any = true
				break
			}
		}
		rows[i].Set(flagCol, domain.Bool(any))
	}
}
