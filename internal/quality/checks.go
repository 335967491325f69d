// Package quality runs data-quality checks over the stored source tables.
// Checks warn, they never fail a pipeline run: a degraded source is worth
// publishing an index over, but not silently.
package quality

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"liquidity-lab/internal/config"
	"liquidity-lab/internal/domain"
	"liquidity-lab/internal/observability"
	"liquidity-lab/internal/pipeline"
	"liquidity-lab/internal/storage"
)

// Check names, used as report rows and metric labels.
const (
	CheckImputationRate = "imputation_rate"
	CheckShareBounds    = "household_share_bounds"
	CheckStaleness      = "staleness"
)

// Check is one evaluated criterion.
type Check struct {
	Name      string
	Subject   string // table or field the check looked at
	Threshold string
	Actual    string
	Pass      bool
}

// Result contains all checks of one run.
type Result struct {
	Checks  []Check
	AllPass bool
}

// Warnings returns the failed checks.
func (r *Result) Warnings() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}

// Checker evaluates the stored source tables against configured thresholds.
type Checker struct {
	store storage.TableStore
	cfg   *config.Config
	log   zerolog.Logger
}

// New creates a Checker.
func New(store storage.TableStore, cfg *config.Config, log zerolog.Logger) *Checker {
	return &Checker{store: store, cfg: cfg, log: log}
}

// trailing window of the imputation-rate check, in calendar days.
const imputationWindowDays = 30

// Run evaluates every check, logs each failure, and records it in the
// warning counter. As-of is the newest key across the source tables.
func (c *Checker) Run(ctx context.Context) (*Result, error) {
	result := &Result{AllPass: true}

	asOf, ok, err := c.newestKey(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		// nothing stored yet, nothing to check
		return result, nil
	}

	for _, table := range pipeline.SourceTables {
		checks, err := c.checkTable(ctx, table, asOf)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", table, err)
		}
		result.Checks = append(result.Checks, checks...)
	}

	for _, check := range result.Checks {
		if check.Pass {
			continue
		}
		result.AllPass = false
		observability.RecordQualityWarning(check.Name)
		c.log.Warn().
			Str("check", check.Name).
			Str("subject", check.Subject).
			Str("threshold", check.Threshold).
			Str("actual", check.Actual).
			Msg("data quality warning")
	}
	return result, nil
}

func (c *Checker) checkTable(ctx context.Context, table string, asOf domain.Date) ([]Check, error) {
	var checks []Check

	last, ok, err := c.store.LastKey(ctx, table)
	if err != nil {
		return nil, err
	}
	staleDays := 0
	if ok {
		staleDays = asOf.DaysSince(last)
	}
	checks = append(checks, Check{
		Name:      CheckStaleness,
		Subject:   table,
		Threshold: fmt.Sprintf("<= %d days", c.cfg.Quality.MaxStalenessDays),
		Actual:    staleActual(ok, staleDays),
		Pass:      ok && staleDays <= c.cfg.Quality.MaxStalenessDays,
	})
	if ok {
		observability.DefaultMetrics.SeriesStaleness.WithLabelValues(table).Set(float64(staleDays))
	}
	if !ok {
		return checks, nil
	}

	from := asOf.AddDays(-(imputationWindowDays - 1))
	rows, err := c.store.Query(ctx, table, domain.Query{From: &from})
	if err != nil {
		return nil, err
	}

	for _, policy := range imputedFields(table, c.cfg) {
		rate := imputationRate(rows, policy)
		checks = append(checks, Check{
			Name:      CheckImputationRate,
			Subject:   policy,
			Threshold: fmt.Sprintf("<= %.0f%%", c.cfg.Quality.MaxImputationRate30D*100),
			Actual:    fmt.Sprintf("%.0f%%", rate*100),
			Pass:      rate <= c.cfg.Quality.MaxImputationRate30D,
		})
		observability.DefaultMetrics.ImputationRate.WithLabelValues(policy).Set(rate)
	}

	if table == pipeline.TableFiscal {
		checks = append(checks, c.checkShareBounds(rows))
	}
	return checks, nil
}

// checkShareBounds verifies the derived household share stayed inside
// [0, 100] for every stored row of the window.
func (c *Checker) checkShareBounds(rows []domain.Row) Check {
	violations := 0
	for _, row := range rows {
		v, ok := row.Float(pipeline.ColHouseholdSharePct)
		if ok && (v < 0 || v > 100) {
			violations++
		}
	}
	return Check{
		Name:      CheckShareBounds,
		Subject:   pipeline.ColHouseholdSharePct,
		Threshold: "0 rows outside [0,100]",
		Actual:    fmt.Sprintf("%d rows", violations),
		Pass:      violations == 0,
	}
}

// newestKey returns the maximum key across the source tables.
func (c *Checker) newestKey(ctx context.Context) (domain.Date, bool, error) {
	var newest domain.Date
	found := false
	for _, table := range pipeline.SourceTables {
		last, ok, err := c.store.LastKey(ctx, table)
		if err != nil {
			return domain.Date{}, false, fmt.Errorf("last key of %s: %w", table, err)
		}
		if ok && (!found || last.After(newest)) {
			newest = last
			found = true
		}
	}
	return newest, found, nil
}

// imputedFields lists the flagged fields of a table, derived ones included.
func imputedFields(table string, cfg *config.Config) []string {
	var fields []string
	for _, p := range pipeline.ImputePolicies(table, cfg.Impute.DailyMaxGap) {
		fields = append(fields, p.Field)
	}
	switch table {
	case pipeline.TableFed:
		fields = append(fields, pipeline.ColNetLiquidity)
	case pipeline.TableFiscal:
		fields = append(fields, pipeline.ColHouseholdSharePct)
	}
	return fields
}

// imputationRate is the share of rows carrying a true flag for the field,
// over rows where the field is present.
func imputationRate(rows []domain.Row, field string) float64 {
	flag := domain.ImputedColumn(field)
	present, imputed := 0, 0
	for _, row := range rows {
		if _, ok := row.Float(field); !ok {
			continue
		}
		present++
		if row.Bool(flag) {
			imputed++
		}
	}
	if present == 0 {
		return 0
	}
	return float64(imputed) / float64(present)
}

func staleActual(ok bool, days int) string {
	if !ok {
		return "no data"
	}
	return fmt.Sprintf("%d days", days)
}
