package reporting

import (
	"fmt"
	"strings"

	"liquidity-lab/internal/domain"
)

// RenderCSV renders the composite rows as a CSV string with a fixed
// column order. Missing values render as empty cells.
func RenderCSV(rows []domain.CompositeRow) string {
	var sb strings.Builder

	sb.WriteString("record_date,fiscal_index,monetary_index,plumbing_index,")
	sb.WriteString("composite,composite_ma5,composite_ma20,regime\n")

	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%s\n",
			row.Date,
			csvFloat(row.FiscalIndex),
			csvFloat(row.MonetaryIndex),
			csvFloat(row.PlumbingIndex),
			csvFloat(row.Composite),
			csvFloat(row.CompositeMA5),
			csvFloat(row.CompositeMA20),
			string(row.Regime),
		))
	}

	return sb.String()
}

func csvFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.6f", *v)
}
