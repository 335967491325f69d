package quality

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"liquidity-lab/internal/config"
	"liquidity-lab/internal/domain"
	"liquidity-lab/internal/pipeline"
	"liquidity-lab/internal/storage/memory"
)

func seedTable(t *testing.T, store *memory.TableStore, name string, rows []domain.Row) {
	t.Helper()
	if err := store.Upsert(context.Background(), name, rows); err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
}

func fiscalRow(date string, share float64, imputed bool) domain.Row {
	row := domain.NewRow(domain.MustDate(date))
	row.Set(pipeline.ColMA20Impulse, domain.Float(10))
	row.Set(domain.ImputedColumn(pipeline.ColMA20Impulse), domain.Bool(imputed))
	row.Set(pipeline.ColHouseholdSharePct, domain.Float(share))
	return row
}

func TestRun_EmptyStorePasses(t *testing.T) {
	store := memory.NewTableStore()
	checker := New(store, config.Default(), zerolog.Nop())

	result, err := checker.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.AllPass {
		t.Error("empty store has nothing to warn about")
	}
	if len(result.Checks) != 0 {
		t.Errorf("expected no checks, got %d", len(result.Checks))
	}
}

func TestRun_StalenessWarning(t *testing.T) {
	store := memory.NewTableStore()
	// fiscal current, repo 20 days behind
	start := domain.MustDate("2025-06-01")
	var fiscal, repo []domain.Row
	for i := 0; i < 30; i++ {
		fiscal = append(fiscal, fiscalRow(start.AddDays(i).String(), 30, false))
	}
	for i := 0; i < 10; i++ {
		row := domain.NewRow(start.AddDays(i))
		row.Set(pipeline.ColSubmissionRatio, domain.Float(0.1))
		repo = append(repo, row)
	}
	seedTable(t, store, pipeline.TableFiscal, fiscal)
	seedTable(t, store, pipeline.TableRepo, repo)

	result, err := New(store, config.Default(), zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.AllPass {
		t.Fatal("expected a staleness warning")
	}
	found := false
	for _, w := range result.Warnings() {
		if w.Name == CheckStaleness && w.Subject == pipeline.TableRepo {
			found = true
		}
		if w.Name == CheckStaleness && w.Subject == pipeline.TableFiscal {
			t.Error("current table must not warn")
		}
	}
	if !found {
		t.Error("expected staleness warning for the lagging table")
	}
}

func TestRun_ImputationRateWarning(t *testing.T) {
	store := memory.NewTableStore()
	start := domain.MustDate("2025-06-01")
	var rows []domain.Row
	for i := 0; i < 30; i++ {
		// half the window imputed, over the 40% threshold
		rows = append(rows, fiscalRow(start.AddDays(i).String(), 30, i%2 == 0))
	}
	seedTable(t, store, pipeline.TableFiscal, rows)

	result, err := New(store, config.Default(), zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	found := false
	for _, w := range result.Warnings() {
		if w.Name == CheckImputationRate && w.Subject == pipeline.ColMA20Impulse {
			found = true
		}
	}
	if !found {
		t.Error("expected imputation-rate warning at 50% imputed")
	}
}

func TestRun_HouseholdShareBounds(t *testing.T) {
	store := memory.NewTableStore()
	rows := []domain.Row{
		fiscalRow("2025-06-01", 30, false),
		fiscalRow("2025-06-02", 130, false), // out of bounds
	}
	seedTable(t, store, pipeline.TableFiscal, rows)

	result, err := New(store, config.Default(), zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	found := false
	for _, w := range result.Warnings() {
		if w.Name == CheckShareBounds {
			found = true
		}
	}
	if !found {
		t.Error("expected household-share bounds warning")
	}
}

func TestRun_CleanDataPasses(t *testing.T) {
	store := memory.NewTableStore()
	start := domain.MustDate("2025-06-01")
	var fiscal, fed, repo, fails []domain.Row
	for i := 0; i < 30; i++ {
		d := start.AddDays(i)
		fiscal = append(fiscal, fiscalRow(d.String(), 30, false))

		fr := domain.NewRow(d)
		fr.Set(pipeline.ColRRPBalance, domain.Float(400))
		fed = append(fed, fr)

		rr := domain.NewRow(d)
		rr.Set(pipeline.ColSubmissionRatio, domain.Float(0.1))
		repo = append(repo, rr)

		sf := domain.NewRow(d)
		sf.Set(pipeline.ColTotalFails, domain.Float(50))
		fails = append(fails, sf)
	}
	seedTable(t, store, pipeline.TableFiscal, fiscal)
	seedTable(t, store, pipeline.TableFed, fed)
	seedTable(t, store, pipeline.TableRepo, repo)
	seedTable(t, store, pipeline.TableFails, fails)

	result, err := New(store, config.Default(), zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.AllPass {
		for _, w := range result.Warnings() {
			t.Errorf("unexpected warning: %s %s actual %s", w.Name, w.Subject, w.Actual)
		}
	}
}
