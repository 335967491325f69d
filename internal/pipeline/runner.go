// Package pipeline runs the batch flow end to end: read source tables,
// normalize and forward-fill them, derive liquidity metrics, build the
// pillar sub-indices, and persist the composite table.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"liquidity-lab/internal/config"
	"liquidity-lab/internal/domain"
	"liquidity-lab/internal/impute"
	"liquidity-lab/internal/index"
	"liquidity-lab/internal/observability"
	"liquidity-lab/internal/stats"
	"liquidity-lab/internal/storage"
)

// Options for creating a Runner.
type Options struct {
	Store  storage.TableStore
	Mirror storage.CompositeMirror // optional
	Config *config.Config
	Logger zerolog.Logger
}

// Runner executes the composite index pipeline against one store.
type Runner struct {
	store  storage.TableStore
	mirror storage.CompositeMirror
	cfg    *config.Config
	log    zerolog.Logger
}

// New creates a Runner. Config must already be validated.
func New(opts Options) *Runner {
	return &Runner{
		store:  opts.Store,
		mirror: opts.Mirror,
		cfg:    opts.Config,
		log:    opts.Logger,
	}
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	SourceRows    map[string]int // normalized rows per source table
	ImputedCells  map[string]int // filled cells per field
	CompositeRows int
	RangeStart    domain.Date
	RangeEnd      domain.Date
}

// Run executes the full pipeline. Source tables are normalized in place
// (reindexed to calendar days, forward-filled, derived columns added),
// then the composite table is recomputed from scratch and upserted, so a
// second run over unchanged sources leaves the store byte-identical.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		SourceRows:   make(map[string]int),
		ImputedCells: make(map[string]int),
	}

	start := time.Now()
	tables, err := r.normalize(ctx, result)
	observability.RecordPipelineRun("normalize", status(err), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	start = time.Now()
	rows, err := r.buildComposite(ctx, tables)
	observability.RecordPipelineRun("index", status(err), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("build composite: %w", err)
	}
	result.CompositeRows = len(rows)
	if len(rows) > 0 {
		result.RangeStart = rows[0].Date
		result.RangeEnd = rows[len(rows)-1].Date
		observability.DefaultMetrics.LastCompositeDate.Set(float64(result.RangeEnd.Time().Unix()))
	}
	observability.DefaultMetrics.CompositeRowsBuilt.Add(float64(len(rows)))

	if r.mirror != nil && len(rows) > 0 {
		start = time.Now()
		err = r.mirror.ReplaceAll(ctx, rows)
		observability.RecordPipelineRun("mirror", status(err), time.Since(start).Seconds())
		if err != nil {
			return nil, fmt.Errorf("mirror composite: %w", err)
		}
		r.log.Info().Int("rows", len(rows)).Msg("composite table mirrored")
	}

	observability.DefaultMetrics.LastSuccessfulRun.SetToCurrentTime()
	r.log.Info().
		Int("composite_rows", result.CompositeRows).
		Str("range_start", result.RangeStart.String()).
		Str("range_end", result.RangeEnd.String()).
		Msg("pipeline run complete")
	return result, nil
}

// normalize reads each source table, expands it to calendar days, forward
// fills it under the per-field policies, adds derived columns, and writes
// it back. Returns the normalized rows keyed by table name.
func (r *Runner) normalize(ctx context.Context, result *RunResult) (map[string][]domain.Row, error) {
	tables := make(map[string][]domain.Row, len(SourceTables))
	for _, name := range SourceTables {
		rows, err := r.store.Query(ctx, name, domain.Query{})
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", name, err)
		}
		if len(rows) == 0 {
			r.log.Warn().Str("table", name).Msg("source table empty, skipping")
			tables[name] = nil
			continue
		}

		policies := ImputePolicies(name, r.cfg.Impute.DailyMaxGap)
		before := countFlags(rows, policies)
		rows = impute.New(policies...).Apply(impute.ReindexDaily(rows))
		for field, n := range countFlags(rows, policies) {
			filled := n - before[field]
			if filled > 0 {
				result.ImputedCells[field] += filled
				observability.RecordCellsImputed(field, filled)
			}
		}

		switch name {
		case TableFiscal:
			deriveHouseholdShare(rows)
		case TableFed:
			deriveNetLiquidity(rows)
		}

		if err := r.store.Upsert(ctx, name, rows); err != nil {
			return nil, fmt.Errorf("upsert %s: %w", name, err)
		}
		observability.RecordRowsUpserted(name, len(rows))
		result.SourceRows[name] = len(rows)
		tables[name] = rows
		r.log.Debug().Str("table", name).Int("rows", len(rows)).Msg("source table normalized")
	}
	return tables, nil
}

// buildComposite derives the nine z-scored metrics on a common date axis,
// combines them into the three pillars and the composite score, and
// upserts the resulting table.
func (r *Runner) buildComposite(ctx context.Context, tables map[string][]domain.Row) ([]domain.CompositeRow, error) {
	fiscal, fed := tables[TableFiscal], tables[TableFed]
	repo, fails := tables[TableRepo], tables[TableFails]

	axis := unionDates(fiscal, fed, repo, fails)
	if len(axis) == 0 {
		r.log.Warn().Msg("no source data, composite table unchanged")
		return nil, nil
	}
	n := len(axis)
	z := func(s domain.Series) []*float64 {
		aligned := alignToAxis(s, axis)
		return stats.ZScore(aligned, r.cfg.ZScore.Window, r.cfg.ZScore.MinPeriods)
	}

	fiscalIdx := index.SubIndex{
		Name: domain.PillarFiscal,
		Metrics: []index.Metric{
			{Name: "impulse", Weight: r.cfg.Fiscal.Impulse,
				Values: z(domain.SeriesFromRows(fiscal, ColMA20Impulse))},
			{Name: "tga_drawdown", Weight: r.cfg.Fiscal.TGADrawdown,
				Values: z(domain.SeriesFromRows(fiscal, ColTGABalance).Diff().Negate())},
			{Name: "tax_extraction", Weight: r.cfg.Fiscal.TaxExtraction,
				Values: z(domain.SeriesFromRows(fiscal, ColWithheldTax).Negate())},
		},
	}
	monetaryIdx := index.SubIndex{
		Name: domain.PillarMonetary,
		Metrics: []index.Metric{
			{Name: "net_liquidity", Weight: r.cfg.Monetary.NetLiquidity,
				Values: z(domain.SeriesFromRows(fed, ColNetLiquidity))},
			{Name: "rrp_release", Weight: r.cfg.Monetary.RRPRelease,
				Values: z(domain.SeriesFromRows(fed, ColRRPBalance).Diff().Negate())},
			{Name: "sofr_stress", Weight: r.cfg.Monetary.SOFRStress,
				Values: z(spreadSeries(fed, ColSOFR, ColIORB).Negate())},
		},
	}
	plumbingIdx := index.SubIndex{
		Name: domain.PillarPlumbing,
		Metrics: []index.Metric{
			{Name: "repo_stress", Weight: r.cfg.Plumbing.RepoStress,
				Values: z(domain.SeriesFromRows(repo, ColSubmissionRatio).Negate())},
			{Name: "fails_stress", Weight: r.cfg.Plumbing.FailsStress,
				Values: z(domain.SeriesFromRows(fails, ColTotalFails).Negate())},
		},
	}

	agg := index.Aggregator{
		ShortWindow: r.cfg.Composite.ShortWindow,
		LongWindow:  r.cfg.Composite.LongWindow,
	}
	rows := agg.Aggregate(axis, []index.Pillar{
		{Name: domain.PillarFiscal, Weight: r.cfg.Composite.Weights.Fiscal, Values: fiscalIdx.Compute(n)},
		{Name: domain.PillarMonetary, Weight: r.cfg.Composite.Weights.Monetary, Values: monetaryIdx.Compute(n)},
		{Name: domain.PillarPlumbing, Weight: r.cfg.Composite.Weights.Plumbing, Values: plumbingIdx.Compute(n)},
	})

	tableRows := make([]domain.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = row.ToRow()
	}
	if err := r.store.Upsert(ctx, domain.CompositeTable, tableRows); err != nil {
		return nil, err
	}
	observability.RecordRowsUpserted(domain.CompositeTable, len(tableRows))
	return rows, nil
}

// deriveHouseholdShare writes the bounded household spending share into
// each fiscal row.
func deriveHouseholdShare(rows []domain.Row) {
	for i := range rows {
		share := index.BoundedSharePct(
			rows[i].Get(ColHouseholdSpending).FloatOrNil(),
			rows[i].Get(ColTotalSpending).FloatOrNil(),
		)
		rows[i].Set(ColHouseholdSharePct, domain.FloatPtr(share))
	}
	impute.DeriveFlag(rows, ColHouseholdSharePct, ColHouseholdSpending, ColTotalSpending)
}

// deriveNetLiquidity writes assets minus RRP minus TGA into each fed row,
// with a provenance flag that is the OR of the three input flags.
func deriveNetLiquidity(rows []domain.Row) {
	for i := range rows {
		nl := index.Sub3(
			rows[i].Get(ColTotalAssets).FloatOrNil(),
			rows[i].Get(ColRRPBalance).FloatOrNil(),
			rows[i].Get(ColFedTGA).FloatOrNil(),
		)
		rows[i].Set(ColNetLiquidity, domain.FloatPtr(nl))
	}
	impute.DeriveFlag(rows, ColNetLiquidity, ColTotalAssets, ColRRPBalance, ColFedTGA)
}

// unionDates merges the dates of several row sets into one ascending axis.
func unionDates(tables ...[]domain.Row) []domain.Date {
	seen := make(map[string]domain.Date)
	for _, rows := range tables {
		for _, row := range rows {
			seen[row.Date.String()] = row.Date
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]domain.Date, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out
}

// alignToAxis maps a series onto the axis, nil where the date is absent.
func alignToAxis(s domain.Series, axis []domain.Date) []*float64 {
	byDate := make(map[string]*float64, s.Len())
	for i, d := range s.Dates {
		byDate[d.String()] = s.Values[i]
	}
	out := make([]*float64, len(axis))
	for i, d := range axis {
		out[i] = byDate[d.String()]
	}
	return out
}

// spreadSeries builds the per-date difference of two columns of one table.
func spreadSeries(rows []domain.Row, a, b string) domain.Series {
	s := domain.Series{
		Dates:  make([]domain.Date, len(rows)),
		Values: make([]*float64, len(rows)),
	}
	for i, row := range rows {
		s.Dates[i] = row.Date
		s.Values[i] = index.Spread(row.Get(a).FloatOrNil(), row.Get(b).FloatOrNil())
	}
	return s
}

// countFlags counts rows with a true imputation flag per policy field.
func countFlags(rows []domain.Row, policies []impute.FieldPolicy) map[string]int {
	counts := make(map[string]int, len(policies))
	for _, p := range policies {
		flag := domain.ImputedColumn(p.Field)
		for _, row := range rows {
			if row.Bool(flag) {
				counts[p.Field]++
			}
		}
	}
	return counts
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
