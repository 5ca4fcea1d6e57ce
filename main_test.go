package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/nconklindev/profitcalc/internal/config"
	"github.com/nconklindev/profitcalc/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// useConfig installs the package-level config the root command would load
// and restores the previous one afterwards.
func useConfig(t *testing.T) config.Config {
	t.Helper()
	prevCfg, prevLogger := cfg, logger
	t.Cleanup(func() { cfg, logger = prevCfg, prevLogger })

	cfg = config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.DownloadDir = t.TempDir()
	cfg.TempDir = t.TempDir()
	logger = zap.NewNop()
	return cfg
}

// writeWorkbooks saves the two templates. derived is the content of the
// Landed Cost M25 cell: a formula, or text when pending is set.
func writeWorkbooks(t *testing.T, derived string, pending bool) (string, string) {
	t.Helper()
	dir := t.TempDir()

	lc := excelize.NewFile()
	defer lc.Close()
	require.NoError(t, lc.SetSheetName("Sheet1", "Landed Cost"))
	require.NoError(t, lc.SetCellFloat("Landed Cost", "G17", 0, -1, 64))
	require.NoError(t, lc.SetCellFloat("Landed Cost", "G25", 0, -1, 64))
	if pending {
		require.NoError(t, lc.SetCellStr("Landed Cost", "M25", derived))
	} else {
		require.NoError(t, lc.SetCellFormula("Landed Cost", "M25", derived))
	}
	landedPath := filepath.Join(dir, "Landed Cost HFBA.xlsx")
	require.NoError(t, lc.SaveAs(landedPath))

	pc := excelize.NewFile()
	defer pc.Close()
	require.NoError(t, pc.SetSheetName("Sheet1", "Profit Calculator"))
	require.NoError(t, pc.SetCellFormula("Profit Calculator", "F45", "F35-F39-F37-F43"))
	profitPath := filepath.Join(dir, "Profit Calculator.xlsx")
	require.NoError(t, pc.SaveAs(profitPath))

	return landedPath, profitPath
}

func executeCalc(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newCalcCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func widgetXArgs(landedPath, profitPath string) []string {
	return []string{
		"--keyword", "WidgetX",
		"--shipping-total", "10",
		"--unit-cost", "5",
		"--target-sales", "100",
		"--selling-price", "29.99",
		"--fulfillment-fee", "3.5",
		"--storage-cost", "0.75",
		"--landed-cost", landedPath,
		"--profit-calc", profitPath,
	}
}

func TestCalcCommand(t *testing.T) {
	c := useConfig(t)
	landedPath, profitPath := writeWorkbooks(t, "G17+G25", false)

	out, err := executeCalc(t, widgetXArgs(landedPath, profitPath)...)
	require.NoError(t, err)

	assert.Contains(t, out, "Calculated Landed Cost: 15.0000")
	assert.NotContains(t, out, "Warning")
	assert.Contains(t, out, "Sheets: Landed Cost, Profit Calculator")
	assert.Regexp(t, regexp.MustCompile(`Saved: .*WidgetX_\d{8}_\d{2}\.xlsx`), out)

	download := filepath.Join(c.DownloadDir, "WidgetX_Updated_Profit_Calculator.xlsx")
	assert.Contains(t, out, "Download: "+download)
	assert.FileExists(t, download)

	saved, err := filepath.Glob(filepath.Join(c.OutputDir, "WidgetX_*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	f, err := excelize.OpenFile(download)
	require.NoError(t, err)
	defer f.Close()
	for addr, want := range map[string]string{"F33": "100", "F35": "29.99", "F37": "3.5", "F39": "15", "F43": "0.75"} {
		got, err := f.GetCellValue("Profit Calculator", addr, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		assert.Equal(t, want, got, "Profit Calculator!%s", addr)
	}
}

func TestCalcCommandDirectoryOverrides(t *testing.T) {
	c := useConfig(t)
	landedPath, profitPath := writeWorkbooks(t, "G17+G25", false)
	outDir, downloadDir := t.TempDir(), t.TempDir()

	args := append(widgetXArgs(landedPath, profitPath), "--output-dir", outDir, "--download-dir", downloadDir)
	_, err := executeCalc(t, args...)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(downloadDir, "WidgetX_Updated_Profit_Calculator.xlsx"))
	saved, err := filepath.Glob(filepath.Join(outDir, "WidgetX_*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	for _, dir := range []string{c.OutputDir, c.DownloadDir} {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "configured directory %s used despite override", dir)
	}
}

func TestCalcCommandFallbackWarning(t *testing.T) {
	useConfig(t)
	landedPath, profitPath := writeWorkbooks(t, "#REF!", true)

	args := widgetXArgs(landedPath, profitPath)
	args[7] = "1" // --target-sales
	out, err := executeCalc(t, args...)
	require.NoError(t, err)

	assert.Contains(t, out, "Calculated Landed Cost: 15.0000")
	assert.Contains(t, out, "Warning: failed to retrieve recalculated Landed Cost. Using fallback manual calculation.")
}

func TestCalcCommandMissingKeyword(t *testing.T) {
	c := useConfig(t)
	landedPath, profitPath := writeWorkbooks(t, "G17+G25", false)

	args := widgetXArgs(landedPath, profitPath)
	args[1] = ""
	out, err := executeCalc(t, args...)
	require.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Contains(t, err.Error(), "keyword name")
	assert.Empty(t, out)

	for _, dir := range []string{c.OutputDir, c.DownloadDir, c.TempDir} {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "files written to %s", dir)
	}
}

func TestCalcCommandUnreadableWorkbook(t *testing.T) {
	useConfig(t)
	_, profitPath := writeWorkbooks(t, "G17+G25", false)
	bogus := filepath.Join(t.TempDir(), "Landed Cost HFBA.xlsx")
	require.NoError(t, os.WriteFile(bogus, []byte("not a workbook"), 0o644))

	_, err := executeCalc(t, widgetXArgs(bogus, profitPath)...)
	require.Error(t, err)
	assert.Equal(t, "Failed to load one or both Excel files. Please check the files and try again.", err.Error())
}
