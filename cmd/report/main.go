// Package main renders the stored composite table as a markdown report
// and a CSV export.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"liquidity-lab/internal/config"
	"liquidity-lab/internal/domain"
	"liquidity-lab/internal/logging"
	"liquidity-lab/internal/quality"
	"liquidity-lab/internal/reporting"
	"liquidity-lab/internal/storage"
	"liquidity-lab/internal/storage/memory"
	"liquidity-lab/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults apply when empty)")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	ctx := context.Background()

	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer store.Close()

	checkResult, err := quality.New(store, cfg, log).Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("quality checks failed")
	}

	report, err := reporting.NewGenerator(store).Generate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("generate report")
	}
	report.WithQuality(checkResult)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatal().Err(err).Msg("create output dir")
	}

	mdPath := filepath.Join(*outputDir, "REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		log.Fatal().Err(err).Msg("write markdown report")
	}

	rows, err := store.Query(ctx, domain.CompositeTable, domain.Query{})
	if err != nil {
		log.Fatal().Err(err).Msg("query composite table")
	}
	composite := make([]domain.CompositeRow, len(rows))
	for i, row := range rows {
		composite[i] = domain.CompositeRowFromRow(row)
	}
	csvPath := filepath.Join(*outputDir, "liquidity_composite_index.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(composite)), 0644); err != nil {
		log.Fatal().Err(err).Msg("write csv export")
	}

	fmt.Printf("Report written:\n  %s\n  %s\n", mdPath, csvPath)
}

func openStore(cfg *config.Config, log zerolog.Logger) (storage.TableStore, error) {
	if cfg.Store.Path == "" {
		return memory.NewTableStore(), nil
	}
	return sqlite.Open(cfg.Store.Path, sqlite.WithLogger(log))
}
