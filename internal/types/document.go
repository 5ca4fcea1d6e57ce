package types

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

// Coord is a 1-based (row, column) position in a sheet.
type Coord struct {
	Row int
	Col int
}

// ParseCoord converts an A1-style token such as "G17" into a Coord.
func ParseCoord(addr string) (Coord, error) {
	col, row, err := excelize.CellNameToCoordinates(addr)
	if err != nil {
		return Coord{}, err
	}
	return Coord{Row: row, Col: col}, nil
}

func (c Coord) String() string {
	name, err := excelize.CoordinatesToCellName(c.Col, c.Row)
	if err != nil {
		return fmt.Sprintf("R%dC%d", c.Row, c.Col)
	}
	return name
}

// NumberFormat is either a built-in format ID or a custom format code.
// Code takes precedence when set.
type NumberFormat struct {
	ID   int
	Code string
}

// Style holds the six cell style facets. A nil facet means the cell does not
// override it.
type Style struct {
	Font         *excelize.Font
	Border       []excelize.Border
	Fill         *excelize.Fill
	NumberFormat *NumberFormat
	Protection   *excelize.Protection
	Alignment    *excelize.Alignment
}

// IsZero reports whether no facet is set.
func (s *Style) IsZero() bool {
	return s == nil || (s.Font == nil && len(s.Border) == 0 && s.Fill == nil &&
		s.NumberFormat == nil && s.Protection == nil && s.Alignment == nil)
}

// Cell holds a value (nil, float64, string or bool) and, for documents loaded
// in formula mode, the formula text without the leading "=".
type Cell struct {
	Value   any
	Formula string
	Style   *Style
}

// IsPopulated reports whether the cell carries a value or a formula.
func (c *Cell) IsPopulated() bool {
	return c != nil && (c.Value != nil || c.Formula != "")
}

// IsText reports whether the cell value is a string.
func (c *Cell) IsText() bool {
	if c == nil {
		return false
	}
	_, ok := c.Value.(string)
	return ok
}

// Number returns the cell value when it is numeric.
func (c *Cell) Number() (float64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.Value.(float64)
	return v, ok
}

type Sheet struct {
	Name  string
	Cells map[Coord]*Cell
}

func NewSheet(name string) *Sheet {
	return &Sheet{Name: name, Cells: make(map[Coord]*Cell)}
}

func (s *Sheet) Get(c Coord) (*Cell, bool) {
	cell, ok := s.Cells[c]
	return cell, ok
}

// Lookup returns the cell at an A1-style address.
func (s *Sheet) Lookup(addr string) (*Cell, bool, error) {
	c, err := ParseCoord(addr)
	if err != nil {
		return nil, false, err
	}
	cell, ok := s.Cells[c]
	return cell, ok, nil
}

func (s *Sheet) Set(c Coord, cell *Cell) {
	if s.Cells == nil {
		s.Cells = make(map[Coord]*Cell)
	}
	s.Cells[c] = cell
}

// SetValue writes a plain value at addr. Any formula in the cell is replaced;
// its style is kept.
func (s *Sheet) SetValue(addr string, v any) error {
	c, err := ParseCoord(addr)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case nil, float64, string, bool:
	case int:
		v = float64(x)
	default:
		return fmt.Errorf("unsupported cell value type %T", v)
	}
	if cell, ok := s.Cells[c]; ok {
		cell.Value = v
		cell.Formula = ""
		return nil
	}
	s.Set(c, &Cell{Value: v})
	return nil
}

// Coords returns every stored coordinate in row-major order.
func (s *Sheet) Coords() []Coord {
	coords := make([]Coord, 0, len(s.Cells))
	for c := range s.Cells {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Row != coords[j].Row {
			return coords[i].Row < coords[j].Row
		}
		return coords[i].Col < coords[j].Col
	})
	return coords
}

type Document struct {
	Sheets []*Sheet
}

func (d *Document) SheetNames() []string {
	names := make([]string, 0, len(d.Sheets))
	for _, s := range d.Sheets {
		names = append(names, s.Name)
	}
	return names
}

// First returns the first sheet, or nil for a document without sheets.
func (d *Document) First() *Sheet {
	if d == nil || len(d.Sheets) == 0 {
		return nil
	}
	return d.Sheets[0]
}

// Sheet returns the first sheet with the given name.
func (d *Document) Sheet(name string) *Sheet {
	for _, s := range d.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func (d *Document) AddSheet(name string) *Sheet {
	s := NewSheet(name)
	d.Sheets = append(d.Sheets, s)
	return s
}
