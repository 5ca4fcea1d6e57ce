// Package calculator runs one profit calculation end to end: it resolves the
// landed cost from the Landed Cost workbook, fills in the Profit Calculator
// workbook, merges both and saves the result.
package calculator

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nconklindev/profitcalc/internal/config"
	"github.com/nconklindev/profitcalc/internal/extractor"
	"github.com/nconklindev/profitcalc/internal/logging"
	"github.com/nconklindev/profitcalc/internal/merger"
	"github.com/nconklindev/profitcalc/internal/types"
	"github.com/nconklindev/profitcalc/internal/workbook"

	"go.uber.org/zap"
)

// Outcome describes a finished run.
type Outcome struct {
	RunID      string
	LandedCost types.DerivedValue
	Document   *types.Document
	SheetNames []string
	// ArtifactPath is the dated output file; DownloadPath is the copy offered
	// to the user and is empty when no download directory is configured.
	ArtifactPath string
	DownloadPath string
}

type Calculator struct {
	cfg    config.Config
	logger *zap.Logger
	store  *workbook.Store
	now    func() time.Time
	intN   func(int) int
}

func New(cfg config.Config, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		cfg:    cfg,
		logger: logger,
		store:  workbook.NewStore(logger),
		now:    time.Now,
		intN:   rand.IntN,
	}
}

// Open loads a template in formula mode and checks that it has a sheet.
func (c *Calculator) Open(path string) (*types.Document, error) {
	doc, err := c.store.Open(path, workbook.ModeFormula)
	if err != nil {
		return nil, err
	}
	if len(doc.Sheets) == 0 {
		c.logger.Error("No sheets found", zap.String("path", path))
		return nil, fmt.Errorf("%s: %w", path, workbook.ErrNoSheets)
	}
	return doc, nil
}

// Run validates in, then updates both documents, merges them and writes the
// output files. Invalid input returns before either document is touched.
// Progress, when non-nil, receives completion fractions without blocking.
func (c *Calculator) Run(in types.InputSet, landedCost, profitCalc *types.Document, progress chan<- float64) (*Outcome, error) {
	logger, runID := logging.WithRun(c.logger)

	if err := in.Validate(); err != nil {
		logger.Warn("Input validation failed", zap.Error(err))
		return nil, err
	}
	if landedCost.First() == nil || profitCalc.First() == nil {
		logger.Error("Failed to load one or both Excel files. No sheet names found.")
		return nil, workbook.ErrNoSheets
	}

	logger.Info("Starting calculation and update process",
		zap.String("keyword", in.Keyword),
		zap.Float64("shipping_total", in.ShippingTotal),
		zap.Float64("unit_cost", in.UnitCost),
		zap.Int("target_sales_per_month", in.TargetSalesPerMonth),
		zap.Float64("selling_price", in.SellingPrice),
		zap.Float64("fulfillment_fee", in.FulfillmentFee),
		zap.Float64("storage_cost", in.StorageCost))
	report(progress, 0.1)

	outcome, err := c.run(logger, in, landedCost, profitCalc, progress)
	if err != nil {
		logger.Error("Error during calculation and update process", zap.Error(err))
		return nil, err
	}
	outcome.RunID = runID

	logger.Info("Excel files have been successfully updated and combined",
		zap.String("artifact", outcome.ArtifactPath),
		zap.String("download", outcome.DownloadPath))
	report(progress, 1)
	return outcome, nil
}

func (c *Calculator) run(logger *zap.Logger, in types.InputSet, landedCost, profitCalc *types.Document, progress chan<- float64) (*Outcome, error) {
	store := workbook.NewStore(logger)

	res, err := extractor.New(store, c.cfg, logger).Extract(landedCost, in)
	if err != nil {
		return nil, err
	}
	defer os.Remove(res.TempPath)
	report(progress, 0.5)

	if err := c.fillProfitCalculator(logger, profitCalc.First(), in, res.Value); err != nil {
		return nil, err
	}
	report(progress, 0.6)

	merged, err := merger.New(logger).Merge(res.Snapshot, profitCalc)
	if err != nil {
		return nil, fmt.Errorf("merge workbooks: %w", err)
	}
	report(progress, 0.8)

	outcome := &Outcome{
		LandedCost: res.DerivedValue,
		Document:   merged,
		SheetNames: merged.SheetNames(),
	}
	if err := c.save(store, in.Keyword, outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (c *Calculator) fillProfitCalculator(logger *zap.Logger, sheet *types.Sheet, in types.InputSet, landedCost float64) error {
	cells := c.cfg.ProfitCalculator
	logger.Info("Updating Profit Calculator with provided values",
		zap.String("sheet", sheet.Name),
		zap.Float64("landed_cost", landedCost))

	writes := []struct {
		addr  string
		value float64
	}{
		{cells.TargetSales, float64(in.TargetSalesPerMonth)},
		{cells.SellingPrice, in.SellingPrice},
		{cells.FulfillmentFee, in.FulfillmentFee},
		{cells.StorageCost, in.StorageCost},
		{cells.LandedCost, landedCost},
	}
	for _, w := range writes {
		if err := sheet.SetValue(w.addr, w.value); err != nil {
			return fmt.Errorf("write %s: %w", w.addr, err)
		}
	}
	return nil
}

func (c *Calculator) save(store *workbook.Store, keyword string, outcome *Outcome) error {
	now := c.now()
	outcome.ArtifactPath = filepath.Join(c.cfg.OutputDir, ArtifactName(keyword, now, 10+c.intN(90)))
	if err := store.Save(outcome.Document, outcome.ArtifactPath); err != nil {
		return err
	}

	if c.cfg.DownloadDir == "" {
		return nil
	}
	download := filepath.Join(c.cfg.DownloadDir, DownloadName(keyword))
	if err := store.Save(outcome.Document, download); err != nil {
		return errors.Join(err, os.Remove(outcome.ArtifactPath))
	}
	outcome.DownloadPath = download
	return nil
}

// ArtifactName is the dated output file name, {keyword}_{YYYYMMDD}_{NN}.xlsx.
func ArtifactName(keyword string, t time.Time, suffix int) string {
	return fmt.Sprintf("%s_%s_%02d.xlsx", safeName(keyword), t.Format("20060102"), suffix)
}

// DownloadName is the name the merged workbook is offered under.
func DownloadName(keyword string) string {
	return fmt.Sprintf("%s_Updated_Profit_Calculator.xlsx", safeName(keyword))
}

func safeName(keyword string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(strings.TrimSpace(keyword))
}

func report(progress chan<- float64, p float64) {
	if progress == nil {
		return
	}
	select {
	case progress <- p:
	default:
	}
}
