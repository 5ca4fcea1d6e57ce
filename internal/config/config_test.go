package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "G17", cfg.LandedCost.ShippingTotal)
	assert.Equal(t, "M25", cfg.LandedCost.Derived)
	assert.Equal(t, "F39", cfg.ProfitCalculator.LandedCost)
	assert.Equal(t, 3, cfg.MaxAttempts)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profitcalc.yaml")
	data := `landed_cost:
  derived_cell: N30
profit_calculator:
  landed_cost_cell: F40
max_attempts: 5
output_dir: out
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "N30", cfg.LandedCost.Derived)
	assert.Equal(t, "G17", cfg.LandedCost.ShippingTotal, "unset keys keep defaults")
	assert.Equal(t, "F40", cfg.ProfitCalculator.LandedCost)
	assert.Equal(t, "F33", cfg.ProfitCalculator.TargetSales)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, DefaultLogFile, cfg.LogFile)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	data := `landed_cost:
  unit_cost_cell: "not a cell"
max_attempts: 0
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "landed_cost.unit_cost_cell")
	assert.Contains(t, err.Error(), "max_attempts")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("landed_cost: [unclosed"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}
