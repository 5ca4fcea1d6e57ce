// Package config loads the template cell map and run settings.
//
// Every setting has a default matching the stock Landed Cost HFBA and
// Pycnogenol Profit Calculator templates, so a config file is only needed
// when a template moves its cells.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxAttempts = 3
	DefaultLogFile     = "profit_calculator_debug.log"
)

// LandedCostCells addresses the cells of the Landed Cost template.
type LandedCostCells struct {
	ShippingTotal string `yaml:"shipping_total_cell"`
	UnitCost      string `yaml:"unit_cost_cell"`
	Derived       string `yaml:"derived_cell"`
}

// ProfitCalculatorCells addresses the cells of the Profit Calculator template.
type ProfitCalculatorCells struct {
	TargetSales    string `yaml:"target_sales_cell"`
	SellingPrice   string `yaml:"selling_price_cell"`
	FulfillmentFee string `yaml:"fulfillment_fee_cell"`
	LandedCost     string `yaml:"landed_cost_cell"`
	StorageCost    string `yaml:"storage_cost_cell"`
}

type Config struct {
	LandedCost       LandedCostCells       `yaml:"landed_cost"`
	ProfitCalculator ProfitCalculatorCells `yaml:"profit_calculator"`
	MaxAttempts      int                   `yaml:"max_attempts"`
	LogFile          string                `yaml:"log_file"`
	OutputDir        string                `yaml:"output_dir"`
	DownloadDir      string                `yaml:"download_dir"`
	// TempDir holds the intermediate recalculation files. Empty means the
	// system temp directory.
	TempDir string `yaml:"temp_dir"`
}

func Default() Config {
	return Config{
		LandedCost: LandedCostCells{
			ShippingTotal: "G17",
			UnitCost:      "G25",
			Derived:       "M25",
		},
		ProfitCalculator: ProfitCalculatorCells{
			TargetSales:    "F33",
			SellingPrice:   "F35",
			FulfillmentFee: "F37",
			LandedCost:     "F39",
			StorageCost:    "F43",
		},
		MaxAttempts: DefaultMaxAttempts,
		LogFile:     DefaultLogFile,
		OutputDir:   ".",
		DownloadDir: ".",
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every cell address and the attempt budget.
func (c Config) Validate() error {
	cells := []struct {
		key  string
		addr string
	}{
		{"landed_cost.shipping_total_cell", c.LandedCost.ShippingTotal},
		{"landed_cost.unit_cost_cell", c.LandedCost.UnitCost},
		{"landed_cost.derived_cell", c.LandedCost.Derived},
		{"profit_calculator.target_sales_cell", c.ProfitCalculator.TargetSales},
		{"profit_calculator.selling_price_cell", c.ProfitCalculator.SellingPrice},
		{"profit_calculator.fulfillment_fee_cell", c.ProfitCalculator.FulfillmentFee},
		{"profit_calculator.landed_cost_cell", c.ProfitCalculator.LandedCost},
		{"profit_calculator.storage_cost_cell", c.ProfitCalculator.StorageCost},
	}

	var errs []error
	for _, cell := range cells {
		if _, _, err := excelize.CellNameToCoordinates(cell.addr); err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid cell address %q", cell.key, cell.addr))
		}
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts))
	}
	return errors.Join(errs...)
}
