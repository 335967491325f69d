// Package main prints an inventory of the stored tables: row counts,
// date ranges, and imputation counts per flagged column.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"liquidity-lab/internal/config"
	"liquidity-lab/internal/domain"
	"liquidity-lab/internal/logging"
	"liquidity-lab/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults apply when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Store.Path == "" {
		fmt.Fprintln(os.Stderr, "No store path configured; nothing to inspect")
		os.Exit(1)
	}
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	ctx := context.Background()

	store, err := sqlite.Open(cfg.Store.Path, sqlite.WithLogger(log))
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer store.Close()

	names, err := store.TableNames(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list tables")
	}
	if len(names) == 0 {
		fmt.Println("Store is empty.")
		return
	}

	for _, name := range names {
		rows, err := store.Query(ctx, name, domain.Query{})
		if err != nil {
			log.Fatal().Err(err).Str("table", name).Msg("query table")
		}
		fmt.Printf("%s: %d rows", name, len(rows))
		if len(rows) > 0 {
			fmt.Printf(" (%s to %s)", rows[0].Date, rows[len(rows)-1].Date)
		}
		fmt.Println()

		for _, line := range imputationSummary(rows) {
			fmt.Printf("  %s\n", line)
		}
	}
}

// imputationSummary counts true provenance flags per flagged column.
func imputationSummary(rows []domain.Row) []string {
	counts := make(map[string]int)
	for _, row := range rows {
		for col := range row.Cells {
			if strings.HasSuffix(col, "_imputed") && row.Bool(col) {
				counts[col]++
			}
		}
	}
	cols := make([]string, 0, len(counts))
	for col := range counts {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = fmt.Sprintf("%s: %d imputed", strings.TrimSuffix(col, "_imputed"), counts[col])
	}
	return out
}
