// Package config loads and validates the pipeline configuration.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full pipeline configuration. Weights are fixed, declared
// constants of a deployment; they are validated, never derived.
type Config struct {
	Store struct {
		// Path of the SQLite backing file. Empty selects the in-memory
		// store (demo and test runs).
		Path string `yaml:"path"`
		// RecreateOnConflict enables the destructive schema-migration
		// fallback. Every use is logged with a data-loss warning.
		RecreateOnConflict bool `yaml:"recreate_on_conflict"`
	} `yaml:"store"`

	Logging struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // json or console
	} `yaml:"logging"`

	ClickHouse struct {
		// DSN of the analytical mirror. Empty disables mirroring.
		DSN string `yaml:"dsn"`
	} `yaml:"clickhouse"`

	ZScore struct {
		Window     int `yaml:"window"`
		MinPeriods int `yaml:"min_periods"`
	} `yaml:"zscore"`

	Composite struct {
		ShortWindow int `yaml:"short_window"`
		LongWindow  int `yaml:"long_window"`
		Weights     struct {
			Fiscal   float64 `yaml:"fiscal"`
			Monetary float64 `yaml:"monetary"`
			Plumbing float64 `yaml:"plumbing"`
		} `yaml:"weights"`
	} `yaml:"composite"`

	Fiscal struct {
		Impulse       float64 `yaml:"impulse"`
		TGADrawdown   float64 `yaml:"tga_drawdown"`
		TaxExtraction float64 `yaml:"tax_extraction"`
	} `yaml:"fiscal_weights"`

	Monetary struct {
		NetLiquidity float64 `yaml:"net_liquidity"`
		RRPRelease   float64 `yaml:"rrp_release"`
		SOFRStress   float64 `yaml:"sofr_stress"`
	} `yaml:"monetary_weights"`

	Plumbing struct {
		RepoStress  float64 `yaml:"repo_stress"`
		FailsStress float64 `yaml:"fails_stress"`
	} `yaml:"plumbing_weights"`

	Impute struct {
		// DailyMaxGap bounds forward-fill of daily-published series;
		// weekly series fill until their next observation.
		DailyMaxGap int `yaml:"daily_max_gap"`
	} `yaml:"impute"`

	Quality struct {
		MaxImputationRate30D float64 `yaml:"max_imputation_rate_30d"`
		MaxStalenessDays     int     `yaml:"max_staleness_days"`
	} `yaml:"quality"`
}

// Default returns the documented production configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"
	cfg.ZScore.Window = 252
	cfg.ZScore.MinPeriods = 126
	cfg.Composite.ShortWindow = 5
	cfg.Composite.LongWindow = 20
	cfg.Composite.Weights.Fiscal = 0.40
	cfg.Composite.Weights.Monetary = 0.35
	cfg.Composite.Weights.Plumbing = 0.25
	cfg.Fiscal.Impulse = 0.50
	cfg.Fiscal.TGADrawdown = 0.30
	cfg.Fiscal.TaxExtraction = 0.20
	cfg.Monetary.NetLiquidity = 0.60
	cfg.Monetary.RRPRelease = 0.25
	cfg.Monetary.SOFRStress = 0.15
	cfg.Plumbing.RepoStress = 0.60
	cfg.Plumbing.FailsStress = 0.40
	cfg.Impute.DailyMaxGap = 3
	cfg.Quality.MaxImputationRate30D = 0.40
	cfg.Quality.MaxStalenessDays = 7
	return cfg
}

// Load reads a YAML file over the defaults. An empty path returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

const weightTolerance = 1e-9

func sumTo1(name string, weights ...float64) error {
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("%s weights must be non-negative", name)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%s weights sum to %v, want 1.0", name, sum)
	}
	return nil
}

// Validate checks windows and weight sums.
func (c *Config) Validate() error {
	if c.ZScore.Window <= 0 {
		return fmt.Errorf("zscore window must be positive")
	}
	if c.ZScore.MinPeriods < 0 || c.ZScore.MinPeriods > c.ZScore.Window {
		return fmt.Errorf("zscore min_periods must be in [0, window]")
	}
	if c.Composite.ShortWindow <= 0 || c.Composite.LongWindow <= 0 {
		return fmt.Errorf("composite windows must be positive")
	}
	if c.Impute.DailyMaxGap < 0 {
		return fmt.Errorf("impute daily_max_gap must be non-negative")
	}
	if err := sumTo1("composite",
		c.Composite.Weights.Fiscal, c.Composite.Weights.Monetary, c.Composite.Weights.Plumbing); err != nil {
		return err
	}
	if err := sumTo1("fiscal", c.Fiscal.Impulse, c.Fiscal.TGADrawdown, c.Fiscal.TaxExtraction); err != nil {
		return err
	}
	if err := sumTo1("monetary", c.Monetary.NetLiquidity, c.Monetary.RRPRelease, c.Monetary.SOFRStress); err != nil {
		return err
	}
	if err := sumTo1("plumbing", c.Plumbing.RepoStress, c.Plumbing.FailsStress); err != nil {
		return err
	}
	return nil
}
