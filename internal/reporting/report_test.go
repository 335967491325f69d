package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"liquidity-lab/internal/domain"
	"liquidity-lab/internal/storage/memory"
)

func ptr(v float64) *float64 { return &v }

func seedComposite(t *testing.T, store *memory.TableStore, rows []domain.CompositeRow) {
	t.Helper()
	tableRows := make([]domain.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = row.ToRow()
	}
	if err := store.Upsert(context.Background(), domain.CompositeTable, tableRows); err != nil {
		t.Fatalf("seed composite: %v", err)
	}
}

func fixedClock() time.Time {
	return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
}

func TestGenerate_EmptyStore(t *testing.T) {
	store := memory.NewTableStore()
	report, err := NewGenerator(store).WithClock(fixedClock).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.HasLatest {
		t.Error("expected no latest reading over an empty store")
	}

	md := RenderMarkdown(report)
	if !strings.Contains(md, "No composite data available") {
		t.Error("expected the empty-store notice")
	}
}

func TestGenerate_LatestSkipsUndefinedTail(t *testing.T) {
	store := memory.NewTableStore()
	seedComposite(t, store, []domain.CompositeRow{
		{Date: domain.MustDate("2025-01-01"), Composite: ptr(0.8), Regime: domain.RegimeLoose},
		{Date: domain.MustDate("2025-01-02"), Composite: ptr(1.2), Regime: domain.RegimeVeryLoose},
		{Date: domain.MustDate("2025-01-03")}, // undefined day
	})

	report, err := NewGenerator(store).WithClock(fixedClock).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !report.HasLatest {
		t.Fatal("expected a latest reading")
	}
	if report.Latest.Date.String() != "2025-01-02" {
		t.Errorf("latest must be the newest defined score, got %s", report.Latest.Date)
	}
	if report.TotalRows != 3 {
		t.Errorf("expected 3 total rows, got %d", report.TotalRows)
	}
	if len(report.Trend) != 3 {
		t.Errorf("expected full trend for a short table, got %d", len(report.Trend))
	}
	if report.LatestPercentile == nil || *report.LatestPercentile != 0.5 {
		t.Errorf("latest 1.2 ranks above one of two readings, got %v", report.LatestPercentile)
	}
}

func TestRenderMarkdown_Sections(t *testing.T) {
	store := memory.NewTableStore()
	seedComposite(t, store, []domain.CompositeRow{
		{
			Date:          domain.MustDate("2025-01-02"),
			FiscalIndex:   ptr(0.4),
			MonetaryIndex: ptr(-0.2),
			PlumbingIndex: ptr(0.1),
			Composite:     ptr(0.13),
			Regime:        domain.RegimeNeutral,
		},
	})

	report, err := NewGenerator(store).WithClock(fixedClock).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	md := RenderMarkdown(report)

	for _, want := range []string{
		"# Liquidity Composite Index",
		"## Latest Reading (2025-01-02)",
		"| Composite | +0.1300 |",
		"| Regime | Neutral |",
		"| 1y percentile | 0% |",
		"| MA5 | - |",
		"## Recent Trend",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(md, "## Data Quality") {
		t.Error("quality section must be absent without check results")
	}
}

func TestRenderCSV(t *testing.T) {
	rows := []domain.CompositeRow{
		{
			Date:      domain.MustDate("2025-01-01"),
			Composite: ptr(0.5),
			Regime:    domain.RegimeNeutral,
		},
		{Date: domain.MustDate("2025-01-02")},
	}

	csv := RenderCSV(rows)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "record_date,fiscal_index,monetary_index,plumbing_index,composite,composite_ma5,composite_ma20,regime" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if lines[1] != "2025-01-01,,,,0.500000,,,Neutral" {
		t.Errorf("unexpected row: %s", lines[1])
	}
	if lines[2] != "2025-01-02,,,,,,," {
		t.Errorf("missing values must render empty, got %s", lines[2])
	}
}
