package pipeline

import (
	"liquidity-lab/internal/impute"
)

// Source table names. Upstream collectors own these tables; the pipeline
// reads them, normalizes them in place, and never invents rows beyond
// their observed date range.
const (
	TableFiscal = "fiscal_daily_metrics"
	TableFed    = "fed_liquidity"
	TableRepo   = "nyfed_repo_ops"
	TableFails  = "nyfed_settlement_fails"
)

// Columns of fiscal_daily_metrics.
const (
	ColMA20Impulse       = "ma20_impulse"
	ColTGABalance        = "tga_balance"
	ColWithheldTax       = "withheld_tax"
	ColHouseholdSpending = "household_spending"
	ColTotalSpending     = "total_spending"
	// ColHouseholdSharePct is derived and written back by the pipeline.
	ColHouseholdSharePct = "household_share_pct"
)

// Columns of fed_liquidity.
const (
	ColTotalAssets = "total_assets"
	ColRRPBalance  = "rrp_balance"
	ColFedTGA      = "tga_balance"
	ColSOFR        = "sofr"
	ColIORB        = "iorb"
	// ColNetLiquidity is derived and written back by the pipeline.
	ColNetLiquidity = "net_liquidity"
)

// Columns of nyfed_repo_ops and nyfed_settlement_fails.
const (
	ColSubmissionRatio = "submission_ratio"
	ColTotalFails      = "total_fails"
)

// SourceTables lists the tables the pipeline consumes, in processing order.
var SourceTables = []string{TableFiscal, TableFed, TableRepo, TableFails}

// ImputePolicies returns the forward-fill policy set for a source table.
// The balance sheet is published weekly, so total assets carry unbounded;
// everything else is a daily series bounded by dailyMaxGap.
func ImputePolicies(table string, dailyMaxGap int) []impute.FieldPolicy {
	switch table {
	case TableFiscal:
		return []impute.FieldPolicy{
			{Field: ColMA20Impulse, MaxGap: dailyMaxGap},
			{Field: ColTGABalance, MaxGap: dailyMaxGap},
			{Field: ColWithheldTax, MaxGap: dailyMaxGap},
			{Field: ColHouseholdSpending, MaxGap: dailyMaxGap},
			{Field: ColTotalSpending, MaxGap: dailyMaxGap},
		}
	case TableFed:
		return []impute.FieldPolicy{
			{Field: ColTotalAssets, MaxGap: 0},
			{Field: ColRRPBalance, MaxGap: dailyMaxGap},
			{Field: ColFedTGA, MaxGap: dailyMaxGap},
			{Field: ColSOFR, MaxGap: dailyMaxGap},
			{Field: ColIORB, MaxGap: dailyMaxGap},
		}
	case TableRepo:
		return []impute.FieldPolicy{
			{Field: ColSubmissionRatio, MaxGap: dailyMaxGap},
		}
	case TableFails:
		return []impute.FieldPolicy{
			{Field: ColTotalFails, MaxGap: dailyMaxGap},
		}
	}
	return nil
}
