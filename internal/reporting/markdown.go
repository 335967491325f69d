package reporting

import (
	"fmt"
	"strings"
	"time"

	"liquidity-lab/internal/domain"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Liquidity Composite Index\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	if !r.HasLatest {
		sb.WriteString("No composite data available. Run the pipeline first.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Coverage: %s to %s (%d rows)\n\n",
		r.RangeStart, r.RangeEnd, r.TotalRows))

	latest := r.Latest
	sb.WriteString(fmt.Sprintf("## Latest Reading (%s)\n\n", latest.Date))
	sb.WriteString("| Measure | Value |\n")
	sb.WriteString("|---------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Composite | %s |\n", fmtScore(latest.Composite)))
	sb.WriteString(fmt.Sprintf("| Regime | %s |\n", fmtRegime(latest.Regime)))
	sb.WriteString(fmt.Sprintf("| 1y percentile | %s |\n", fmtPercentile(r.LatestPercentile)))
	sb.WriteString(fmt.Sprintf("| MA5 | %s |\n", fmtScore(latest.CompositeMA5)))
	sb.WriteString(fmt.Sprintf("| MA20 | %s |\n", fmtScore(latest.CompositeMA20)))
	sb.WriteString(fmt.Sprintf("| Fiscal pillar | %s |\n", fmtScore(latest.FiscalIndex)))
	sb.WriteString(fmt.Sprintf("| Monetary pillar | %s |\n", fmtScore(latest.MonetaryIndex)))
	sb.WriteString(fmt.Sprintf("| Plumbing pillar | %s |\n", fmtScore(latest.PlumbingIndex)))
	sb.WriteString("\n")

	if len(r.Trend) > 0 {
		sb.WriteString("## Recent Trend\n\n")
		sb.WriteString("| Date | Composite | MA5 | Regime |\n")
		sb.WriteString("|------|-----------|-----|--------|\n")
		for _, row := range r.Trend {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				row.Date, fmtScore(row.Composite), fmtScore(row.CompositeMA5), fmtRegime(row.Regime)))
		}
		sb.WriteString("\n")
	}

	if r.Quality != nil {
		sb.WriteString("## Data Quality\n\n")
		sb.WriteString("| Check | Subject | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|---------|-----------|--------|--------|\n")
		for _, check := range r.Quality.Checks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				check.Name, check.Subject, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")
		if r.Quality.AllPass {
			sb.WriteString("All checks passed.\n")
		} else {
			sb.WriteString(fmt.Sprintf("%d check(s) failed; readings over degraded inputs carry less signal.\n",
				len(r.Quality.Warnings())))
		}
	}

	return sb.String()
}

func fmtScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%+.4f", *v)
}

func fmtPercentile(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", *v*100)
}

func fmtRegime(r domain.Regime) string {
	if r == "" {
		return "-"
	}
	return string(r)
}
