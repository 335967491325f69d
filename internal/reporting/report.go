// Package reporting renders the stored composite table as a markdown
// summary and a CSV export.
package reporting

import (
	"context"
	"time"

	"liquidity-lab/internal/domain"
	"liquidity-lab/internal/quality"
	"liquidity-lab/internal/stats"
	"liquidity-lab/internal/storage"
)

// Report is the rendered view of the stored composite table.
type Report struct {
	GeneratedAt time.Time

	// Latest is the newest row carrying a defined composite score.
	Latest    domain.CompositeRow
	HasLatest bool

	// LatestPercentile ranks the latest composite against its trailing
	// year of readings; nil when there is no history to rank against.
	LatestPercentile *float64

	// Trend holds the most recent rows, oldest first.
	Trend []domain.CompositeRow

	RangeStart domain.Date
	RangeEnd   domain.Date
	TotalRows  int

	// Quality carries the check results of the run, when available.
	Quality *quality.Result
}

// trendDays is how many recent rows the summary shows.
const trendDays = 10

// percentileWindow is the trailing window, in composite rows, used to rank
// the latest reading against its own recent history.
const percentileWindow = 252

// Generator produces reports from the stored composite table.
type Generator struct {
	store storage.TableStore
	now   func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a report generator.
func NewGenerator(store storage.TableStore) *Generator {
	return &Generator{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate reads the full composite table and builds the report model.
// An empty or absent table yields a report with HasLatest false.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	rows, err := g.store.Query(ctx, domain.CompositeTable, domain.Query{})
	if err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt: g.now(),
		TotalRows:   len(rows),
	}
	if len(rows) == 0 {
		return report, nil
	}
	report.RangeStart = rows[0].Date
	report.RangeEnd = rows[len(rows)-1].Date

	composite := make([]domain.CompositeRow, len(rows))
	for i, row := range rows {
		composite[i] = domain.CompositeRowFromRow(row)
	}

	scores := make([]*float64, len(composite))
	for i := range composite {
		scores[i] = composite[i].Composite
	}
	for i := len(composite) - 1; i >= 0; i-- {
		if composite[i].Composite != nil {
			report.Latest = composite[i]
			report.HasLatest = true
			report.LatestPercentile = stats.PercentileRankAt(scores, percentileWindow, i, *composite[i].Composite)
			break
		}
	}

	from := len(composite) - trendDays
	if from < 0 {
		from = 0
	}
	report.Trend = composite[from:]
	return report, nil
}

// WithQuality attaches check results to the report.
func (r *Report) WithQuality(res *quality.Result) *Report {
	r.Quality = res
	return r
}
