// Package merger combines two documents into a new one, sheet by sheet.
package merger

import (
	"github.com/nconklindev/profitcalc/internal/types"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"
)

type Merger struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{logger: logger}
}

// Merge returns a new document holding every sheet of a followed by every
// sheet of b, in their original order. Values, formulas and the six style
// facets are copied cell by cell; the output shares no memory with a or b,
// and neither input is modified. Sheet names are kept as they are, so a name
// present in both inputs appears twice.
func (m *Merger) Merge(a, b *types.Document) (*types.Document, error) {
	out := &types.Document{}
	seen := make(map[string]bool)

	for _, src := range []struct {
		label string
		doc   *types.Document
	}{
		{"first", a},
		{"second", b},
	} {
		if src.doc == nil {
			continue
		}
		for _, sheet := range src.doc.Sheets {
			if seen[sheet.Name] {
				m.logger.Warn("Sheet name already present in merged workbook",
					zap.String("sheet", sheet.Name), zap.String("source", src.label))
			}
			seen[sheet.Name] = true

			m.logger.Info("Copying sheet",
				zap.String("sheet", sheet.Name),
				zap.String("source", src.label),
				zap.Int("cells", len(sheet.Cells)))
			copied, err := copySheet(sheet)
			if err != nil {
				return nil, err
			}
			out.Sheets = append(out.Sheets, copied)
		}
	}
	return out, nil
}

func copySheet(src *types.Sheet) (*types.Sheet, error) {
	dst := types.NewSheet(src.Name)
	styles := make(map[*types.Style]*types.Style)

	for coord, cell := range src.Cells {
		if cell == nil {
			continue
		}
		copied := &types.Cell{Value: cell.Value, Formula: cell.Formula}
		if !cell.Style.IsZero() {
			style, ok := styles[cell.Style]
			if !ok {
				var err error
				if style, err = copyStyle(cell.Style); err != nil {
					return nil, err
				}
				styles[cell.Style] = style
			}
			copied.Style = style
		}
		dst.Set(coord, copied)
	}
	return dst, nil
}

// copyStyle deep-copies all six facets.
func copyStyle(s *types.Style) (*types.Style, error) {
	var dst types.Style
	if err := deepcopy.Copy(&dst, *s); err != nil {
		return nil, err
	}
	return &dst, nil
}
