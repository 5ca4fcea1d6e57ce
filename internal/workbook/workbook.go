// Package workbook moves documents between xlsx files and the in-memory
// model in internal/types, using excelize as the spreadsheet engine.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nconklindev/profitcalc/internal/types"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Mode selects how formula cells are read.
type Mode int

const (
	// ModeFormula keeps the formula text and drops any cached result.
	ModeFormula Mode = iota
	// ModeComputed replaces every formula with its evaluated result.
	ModeComputed
)

func (m Mode) String() string {
	if m == ModeComputed {
		return "computed"
	}
	return "formula"
}

const maxSheetNameLen = 31

var (
	ErrLoad     = errors.New("failed to load workbook")
	ErrSave     = errors.New("failed to save workbook")
	ErrNoSheets = errors.New("document has no sheets")
)

// Store opens and saves documents, logging every step.
type Store struct {
	logger *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// Open loads the xlsx file at path.
func (s *Store) Open(path string, mode Mode) (*types.Document, error) {
	s.logger.Info("Loading workbook", zap.String("path", path), zap.Stringer("mode", mode))

	f, err := excelize.OpenFile(path)
	if err != nil {
		s.logger.Error("Failed to load workbook", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w from %s: %w", ErrLoad, path, err)
	}
	defer f.Close()

	doc, err := read(f, mode)
	if err != nil {
		s.logger.Error("Failed to read workbook", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w from %s: %w", ErrLoad, path, err)
	}
	return doc, nil
}

// OpenReader loads an xlsx document from r.
func (s *Store) OpenReader(r io.Reader, mode Mode) (*types.Document, error) {
	s.logger.Info("Loading workbook from stream", zap.Stringer("mode", mode))

	f, err := excelize.OpenReader(r)
	if err != nil {
		s.logger.Error("Failed to load workbook from stream", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	doc, err := read(f, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return doc, nil
}

// Save writes doc to path. The file is written beside path first and renamed
// into place, so a failed save never leaves a partial file behind.
func (s *Store) Save(doc *types.Document, path string) error {
	s.logger.Info("Saving workbook", zap.String("path", path))

	tmp, err := os.CreateTemp(filepath.Dir(path), ".profitcalc-*.xlsx")
	if err != nil {
		s.logger.Error("Failed to save workbook", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w to %s: %w", ErrSave, path, err)
	}
	tmpPath := tmp.Name()

	werr := s.Write(doc, tmp)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr, os.Chmod(tmpPath, 0o644)); err != nil {
		os.Remove(tmpPath)
		s.logger.Error("Failed to save workbook", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w to %s: %w", ErrSave, path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		s.logger.Error("Failed to save workbook", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w to %s: %w", ErrSave, path, err)
	}
	return nil
}

// Write encodes doc as xlsx into w.
func (s *Store) Write(doc *types.Document, w io.Writer) error {
	f, err := s.build(doc)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	return nil
}

func read(f *excelize.File, mode Mode) (*types.Document, error) {
	doc := &types.Document{}
	styles := make(map[int]*types.Style)

	for _, name := range f.GetSheetList() {
		sheet := doc.AddSheet(name)
		if err := readSheet(f, sheet, mode, styles); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	return doc, nil
}

func readSheet(f *excelize.File, sheet *types.Sheet, mode Mode, styles map[int]*types.Style) error {
	maxRow, maxCol, err := extent(f, sheet.Name)
	if err != nil {
		return err
	}

	for row := 1; row <= maxRow; row++ {
		for col := 1; col <= maxCol; col++ {
			coord := types.Coord{Row: row, Col: col}
			cell, err := readCell(f, sheet.Name, coord.String(), mode, styles)
			if err != nil {
				return err
			}
			if cell != nil {
				sheet.Set(coord, cell)
			}
		}
	}
	return nil
}

// extent returns the bounds to scan: the recorded sheet dimension, widened by
// whatever GetRows actually finds.
func extent(f *excelize.File, sheet string) (int, int, error) {
	maxRow, maxCol := 0, 0

	if dim, err := f.GetSheetDimension(sheet); err == nil && dim != "" {
		last := dim
		if _, after, ok := strings.Cut(dim, ":"); ok {
			last = after
		}
		if col, row, err := excelize.CellNameToCoordinates(last); err == nil {
			maxRow, maxCol = row, col
		}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, 0, err
	}
	maxRow = max(maxRow, len(rows))
	for _, r := range rows {
		maxCol = max(maxCol, len(r))
	}
	return maxRow, maxCol, nil
}

func readCell(f *excelize.File, sheet, addr string, mode Mode, styles map[int]*types.Style) (*types.Cell, error) {
	formula, err := f.GetCellFormula(sheet, addr)
	if err != nil {
		return nil, err
	}
	raw, err := f.GetCellValue(sheet, addr, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	styleID, err := f.GetCellStyle(sheet, addr)
	if err != nil {
		return nil, err
	}

	cell := &types.Cell{}
	switch {
	case formula != "" && mode == ModeFormula:
		cell.Formula = formula
	case formula != "":
		cell.Value = evaluate(f, sheet, addr, raw)
	default:
		cellType, err := f.GetCellType(sheet, addr)
		if err != nil {
			return nil, err
		}
		cell.Value = typedValue(raw, cellType)
	}

	if styleID != 0 {
		style, ok := styles[styleID]
		if !ok {
			st, err := f.GetStyle(styleID)
			if err != nil {
				return nil, err
			}
			style = fromExcelize(st)
			styles[styleID] = style
		}
		cell.Style = style
	}

	if !cell.IsPopulated() && cell.Style == nil {
		return nil, nil
	}
	return cell, nil
}

// evaluate runs the formula through the calculation engine. When the engine
// fails, the result cached in the file is used, and failing that the engine's
// error text (for example "#REF!").
func evaluate(f *excelize.File, sheet, addr, cached string) any {
	result, err := f.CalcCellValue(sheet, addr, excelize.Options{RawCellValue: true})
	if err == nil {
		return typedValue(result, excelize.CellTypeNumber)
	}
	if cached != "" {
		return typedValue(cached, excelize.CellTypeNumber)
	}
	if result != "" {
		return result
	}
	return nil
}

func typedValue(raw string, cellType excelize.CellType) any {
	if raw == "" {
		return nil
	}
	switch cellType {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "TRUE")
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeDate:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return raw
}

func (s *Store) build(doc *types.Document) (*excelize.File, error) {
	if doc == nil || len(doc.Sheets) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrSave, ErrNoSheets)
	}

	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)
	used := make(map[string]bool)
	styleIDs := make(map[*types.Style]int)

	for i, sheet := range doc.Sheets {
		name := uniqueSheetName(sheet.Name, used)
		if name != sheet.Name {
			s.logger.Warn("Duplicate sheet name renamed on save",
				zap.String("sheet", sheet.Name), zap.String("saved_as", name))
		}

		var err error
		if i == 0 {
			err = f.SetSheetName(defaultSheet, name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err == nil {
			err = writeSheet(f, name, sheet, styleIDs)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: sheet %q: %w", ErrSave, sheet.Name, err)
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, name string, sheet *types.Sheet, styleIDs map[*types.Style]int) error {
	var last types.Coord
	for _, coord := range sheet.Coords() {
		cell := sheet.Cells[coord]
		addr := coord.String()
		last.Row = max(last.Row, coord.Row)
		last.Col = max(last.Col, coord.Col)

		var err error
		if cell.Formula != "" {
			err = f.SetCellFormula(name, addr, cell.Formula)
		} else {
			switch v := cell.Value.(type) {
			case float64:
				err = f.SetCellFloat(name, addr, v, -1, 64)
			case string:
				err = f.SetCellStr(name, addr, v)
			case bool:
				err = f.SetCellBool(name, addr, v)
			}
		}
		if err != nil {
			return err
		}

		if cell.Style.IsZero() {
			continue
		}
		id, ok := styleIDs[cell.Style]
		if !ok {
			id, err = f.NewStyle(toExcelize(cell.Style))
			if err != nil {
				return fmt.Errorf("cell %s: %w", addr, err)
			}
			styleIDs[cell.Style] = id
		}
		if err := f.SetCellStyle(name, addr, addr, id); err != nil {
			return err
		}
	}

	// excelize records the dimension from values only; widen it so styled
	// empty cells past the last value are read back.
	if last.Row == 0 {
		return nil
	}
	return f.SetSheetDimension(name, "A1:"+last.String())
}

// uniqueSheetName returns name, or name with the smallest numeric suffix that
// is still free. Excel compares sheet names case-insensitively.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 1; used[strings.ToLower(candidate)]; n++ {
		suffix := strconv.Itoa(n)
		base := []rune(name)
		if len(base)+len(suffix) > maxSheetNameLen {
			base = base[:maxSheetNameLen-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func fromExcelize(st *excelize.Style) *types.Style {
	if st == nil {
		return nil
	}
	s := &types.Style{
		Font:       st.Font,
		Protection: st.Protection,
		Alignment:  st.Alignment,
	}
	if len(st.Border) > 0 {
		s.Border = st.Border
	}
	if st.Fill.Type != "" || len(st.Fill.Color) > 0 {
		fill := st.Fill
		s.Fill = &fill
	}
	switch {
	case st.CustomNumFmt != nil && *st.CustomNumFmt != "":
		s.NumberFormat = &types.NumberFormat{ID: st.NumFmt, Code: *st.CustomNumFmt}
	case st.NumFmt != 0:
		s.NumberFormat = &types.NumberFormat{ID: st.NumFmt}
	}
	if s.IsZero() {
		return nil
	}
	return s
}

func toExcelize(s *types.Style) *excelize.Style {
	st := &excelize.Style{
		Font:       s.Font,
		Border:     s.Border,
		Protection: s.Protection,
		Alignment:  s.Alignment,
	}
	if s.Fill != nil {
		st.Fill = *s.Fill
	}
	if nf := s.NumberFormat; nf != nil {
		st.NumFmt = nf.ID
		if nf.Code != "" {
			code := nf.Code
			st.CustomNumFmt = &code
		}
	}
	return st
}
