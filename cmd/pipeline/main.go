// Package main runs the composite index batch pipeline:
// normalize → impute → derive → index → persist → quality checks.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"liquidity-lab/internal/config"
	"liquidity-lab/internal/logging"
	"liquidity-lab/internal/observability"
	"liquidity-lab/internal/pipeline"
	"liquidity-lab/internal/quality"
	"liquidity-lab/internal/storage"
	"liquidity-lab/internal/storage/clickhouse"
	"liquidity-lab/internal/storage/memory"
	"liquidity-lab/internal/storage/migrations"
	"liquidity-lab/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults apply when empty)")
	useFixtures := flag.Bool("use-fixtures", false, "Seed the store with synthetic source data first")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address for the duration of the run")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("cancelling pipeline")
		cancel()
	}()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Error().Err(err).Str("addr", *metricsAddr).Msg("metrics listener stopped")
			}
		}()
		log.Info().Str("addr", *metricsAddr).Msg("serving metrics")
	}

	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer store.Close()

	if *useFixtures {
		if err := pipeline.LoadFixtures(ctx, store); err != nil {
			log.Fatal().Err(err).Msg("load fixtures")
		}
		log.Info().Msg("fixture source tables loaded")
	}

	var mirror storage.CompositeMirror
	if cfg.ClickHouse.DSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("clickhouse migrations")
		}
		defer conn.Close()
		mirror = clickhouse.NewCompositeStore(conn)
	}

	runner := pipeline.New(pipeline.Options{
		Store:  store,
		Mirror: mirror,
		Config: cfg,
		Logger: log,
	})
	result, err := runner.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline failed")
	}

	checkResult, err := quality.New(store, cfg, log).Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("quality checks failed")
	}

	fmt.Println("=== Pipeline Summary ===")
	for _, table := range pipeline.SourceTables {
		fmt.Printf("  %s: %d rows\n", table, result.SourceRows[table])
	}
	fmt.Printf("  composite rows: %d (%s to %s)\n",
		result.CompositeRows, result.RangeStart, result.RangeEnd)
	if total := totalImputed(result.ImputedCells); total > 0 {
		fmt.Printf("  cells imputed: %d\n", total)
	}
	if warnings := checkResult.Warnings(); len(warnings) > 0 {
		fmt.Printf("  quality warnings: %d\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    - %s %s: %s (threshold %s)\n", w.Name, w.Subject, w.Actual, w.Threshold)
		}
	} else {
		fmt.Println("  quality checks: all passed")
	}
}

// openStore selects the store backend: the configured SQLite file, or the
// in-memory store when no path is set.
func openStore(cfg *config.Config, log zerolog.Logger) (storage.TableStore, error) {
	if cfg.Store.Path == "" {
		log.Info().Msg("no store path configured, using in-memory store")
		return memory.NewTableStore(), nil
	}
	opts := []sqlite.Option{sqlite.WithLogger(log)}
	if cfg.Store.RecreateOnConflict {
		opts = append(opts, sqlite.WithRecreateOnConflict())
	}
	return sqlite.Open(cfg.Store.Path, opts...)
}

func totalImputed(cells map[string]int) int {
	total := 0
	for _, n := range cells {
		total += n
	}
	return total
}
