// Package extractor obtains the landed cost that the Landed Cost template
// derives by formula. The inputs are written, the document is saved and
// reopened in computed mode, and the derived cell is read back. Reads that
// are not yet numeric are retried by reopening the same file; when the budget
// runs out a manual approximation is used instead.
package extractor

import (
	"fmt"
	"os"

	"github.com/nconklindev/profitcalc/internal/config"
	"github.com/nconklindev/profitcalc/internal/types"
	"github.com/nconklindev/profitcalc/internal/workbook"

	"go.uber.org/zap"
)

// PersistFunc saves doc at path.
type PersistFunc func(doc *types.Document, path string) error

// ReloadFunc opens path in computed mode.
type ReloadFunc func(path string) (*types.Document, error)

type Cells struct {
	ShippingTotal string
	UnitCost      string
	Derived       string
}

type Extractor struct {
	Persist     PersistFunc
	Reload      ReloadFunc
	Cells       Cells
	MaxAttempts int
	// TempDir receives the intermediate file; empty means os.TempDir.
	TempDir string
	Logger  *zap.Logger
}

type Result struct {
	types.DerivedValue
	// Snapshot is the last computed-mode reload of the document.
	Snapshot *types.Document
	// TempPath is the intermediate file. The caller removes it.
	TempPath string
}

// New wires an Extractor to a workbook store and the configured cell map.
func New(store *workbook.Store, cfg config.Config, logger *zap.Logger) *Extractor {
	return &Extractor{
		Persist: store.Save,
		Reload: func(path string) (*types.Document, error) {
			return store.Open(path, workbook.ModeComputed)
		},
		Cells: Cells{
			ShippingTotal: cfg.LandedCost.ShippingTotal,
			UnitCost:      cfg.LandedCost.UnitCost,
			Derived:       cfg.LandedCost.Derived,
		},
		MaxAttempts: cfg.MaxAttempts,
		TempDir:     cfg.TempDir,
		Logger:      logger,
	}
}

// Extract writes the shipping total and unit cost into the first sheet of
// doc, which is modified in place, and resolves the derived landed cost.
// Persist and reload failures are returned as is and never retried.
func (e *Extractor) Extract(doc *types.Document, in types.InputSet) (*Result, error) {
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxAttempts := e.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = config.DefaultMaxAttempts
	}

	sheet := doc.First()
	if sheet == nil {
		return nil, workbook.ErrNoSheets
	}

	logger.Info("Updating Landed Cost workbook",
		zap.String("sheet", sheet.Name),
		zap.String("shipping_total_cell", e.Cells.ShippingTotal),
		zap.Float64("shipping_total", in.ShippingTotal),
		zap.String("unit_cost_cell", e.Cells.UnitCost),
		zap.Float64("unit_cost", in.UnitCost))
	if err := sheet.SetValue(e.Cells.ShippingTotal, in.ShippingTotal); err != nil {
		return nil, fmt.Errorf("write shipping total: %w", err)
	}
	if err := sheet.SetValue(e.Cells.UnitCost, in.UnitCost); err != nil {
		return nil, fmt.Errorf("write unit cost: %w", err)
	}

	tmp, err := os.CreateTemp(e.TempDir, "landed-cost-*.xlsx")
	if err != nil {
		return nil, fmt.Errorf("create temporary workbook: %w", err)
	}
	path := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("create temporary workbook: %w", err)
	}

	logger.Info("Saving temporary Landed Cost workbook", zap.String("path", path))
	if err := e.Persist(doc, path); err != nil {
		os.Remove(path)
		return nil, err
	}

	fallback := in.FallbackLandedCost()
	s := start()
	var snapshot *types.Document

	for !s.done() {
		logger.Debug("Reloading Landed Cost workbook to recalculate formulas",
			zap.String("path", path), zap.Int("attempt", s.attempt))
		snapshot, err = e.Reload(path)
		if err != nil {
			os.Remove(path)
			return nil, err
		}

		var read *types.Cell
		if first := snapshot.First(); first != nil {
			if read, _, err = first.Lookup(e.Cells.Derived); err != nil {
				os.Remove(path)
				return nil, fmt.Errorf("read derived cell: %w", err)
			}
		}

		next := step(s, read, maxAttempts, fallback)
		logger.Debug("Recalculation step",
			zap.Int("attempt", s.attempt),
			zap.Stringer("from", s.phase),
			zap.Stringer("to", next.phase))
		switch next.phase {
		case attempting:
			logger.Warn("Failed to retrieve a valid landed cost value, retrying",
				zap.Int("attempt", s.attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.String("cell", e.Cells.Derived),
				zap.String("read", describe(read)))
		case fellBack:
			logger.Warn("Using fallback manual calculation for landed cost",
				zap.Int("attempts", next.attempt),
				zap.String("read", describe(read)),
				zap.Float64("landed_cost", next.value))
		case resolved:
			logger.Info("Calculated landed cost extracted",
				zap.Int("attempt", next.attempt),
				zap.Float64("landed_cost", next.value))
		}
		s = next
	}

	return &Result{
		DerivedValue: types.DerivedValue{
			Value:       s.value,
			WasFallback: s.phase == fellBack,
			Attempts:    s.attempt,
		},
		Snapshot: snapshot,
		TempPath: path,
	}, nil
}
