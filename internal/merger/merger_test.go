package merger

import (
	"testing"

	"github.com/nconklindev/profitcalc/internal/types"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func headerStyle() *types.Style {
	theme := 1
	return &types.Style{
		Font:         &excelize.Font{Bold: true, Family: "Calibri", Size: 12, Color: "FF0000", ColorTheme: &theme},
		Border:       []excelize.Border{{Type: "left", Color: "000000", Style: 1}, {Type: "bottom", Color: "000000", Style: 2}},
		Fill:         &excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFF00"}},
		NumberFormat: &types.NumberFormat{ID: 4},
		Protection:   &excelize.Protection{Locked: true, Hidden: false},
		Alignment:    &excelize.Alignment{Horizontal: "center", WrapText: true},
	}
}

func landedCost() *types.Document {
	doc := &types.Document{}
	s := doc.AddSheet("Landed Cost")
	s.Set(types.Coord{Row: 1, Col: 1}, &types.Cell{Value: "Landed Cost HFBA", Style: headerStyle()})
	s.Set(types.Coord{Row: 17, Col: 7}, &types.Cell{Value: 10.0})
	s.Set(types.Coord{Row: 25, Col: 7}, &types.Cell{Value: 5.0})
	s.Set(types.Coord{Row: 25, Col: 13}, &types.Cell{Value: 15.0, Style: &types.Style{NumberFormat: &types.NumberFormat{Code: "0.00"}}})
	// styled but empty
	s.Set(types.Coord{Row: 3, Col: 3}, &types.Cell{Style: &types.Style{Fill: &excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}}}})
	doc.AddSheet("Rates").Set(types.Coord{Row: 1, Col: 1}, &types.Cell{Value: true})
	return doc
}

func profitCalc() *types.Document {
	doc := &types.Document{}
	s := doc.AddSheet("Profit Calculator")
	s.Set(types.Coord{Row: 33, Col: 6}, &types.Cell{Value: 100.0})
	s.Set(types.Coord{Row: 39, Col: 6}, &types.Cell{Value: 15.0, Style: headerStyle()})
	s.Set(types.Coord{Row: 45, Col: 6}, &types.Cell{Formula: "F35-F39-F37-F43", Style: headerStyle()})
	return doc
}

func TestMergeSheetOrder(t *testing.T) {
	a, b := landedCost(), profitCalc()

	out, err := New(nil).Merge(a, b)
	require.NoError(t, err)

	want := append(a.SheetNames(), b.SheetNames()...)
	assert.Equal(t, want, out.SheetNames())
	assert.Equal(t, []string{"Landed Cost", "Rates", "Profit Calculator"}, out.SheetNames())
}

func TestMergePreservesCells(t *testing.T) {
	a, b := landedCost(), profitCalc()

	out, err := New(nil).Merge(a, b)
	require.NoError(t, err)

	for i, src := range append(a.Sheets, b.Sheets...) {
		dst := out.Sheets[i]
		require.Equal(t, src.Name, dst.Name)
		require.Len(t, dst.Cells, len(src.Cells))

		for coord, want := range src.Cells {
			got, ok := dst.Get(coord)
			require.True(t, ok, "%s!%s missing", src.Name, coord)
			assert.Equal(t, want.Value, got.Value, "%s!%s value", src.Name, coord)
			assert.Equal(t, want.Formula, got.Formula, "%s!%s formula", src.Name, coord)
			if diff := cmp.Diff(want.Style, got.Style); diff != "" {
				t.Errorf("%s!%s style mismatch (-want +got):\n%s", src.Name, coord, diff)
			}
		}
	}
}

func TestMergeLeavesUnstyledCellsUnstyled(t *testing.T) {
	out, err := New(nil).Merge(landedCost(), profitCalc())
	require.NoError(t, err)

	cell, _, err := out.Sheets[0].Lookup("G17")
	require.NoError(t, err)
	assert.Nil(t, cell.Style)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	a, b := landedCost(), profitCalc()
	wantA, wantB := landedCost(), profitCalc()

	out, err := New(nil).Merge(a, b)
	require.NoError(t, err)

	if diff := cmp.Diff(wantA, a); diff != "" {
		t.Errorf("first input changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantB, b); diff != "" {
		t.Errorf("second input changed (-want +got):\n%s", diff)
	}

	// Changing the output must not reach back into the inputs.
	header, _, _ := out.Sheets[0].Lookup("A1")
	header.Value = "changed"
	header.Style.Font.Bold = false
	header.Style.Border[0].Style = 5
	header.Style.Fill.Color[0] = "000000"
	require.NoError(t, out.Sheets[2].SetValue("F39", 99.0))

	if diff := cmp.Diff(wantA, a); diff != "" {
		t.Errorf("first input reachable from output (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantB, b); diff != "" {
		t.Errorf("second input reachable from output (-want +got):\n%s", diff)
	}
}

func TestMergeKeepsDuplicateSheetNames(t *testing.T) {
	a := &types.Document{}
	a.AddSheet("Sheet1").Set(types.Coord{Row: 1, Col: 1}, &types.Cell{Value: "from a"})
	b := &types.Document{}
	b.AddSheet("Sheet1").Set(types.Coord{Row: 1, Col: 1}, &types.Cell{Value: "from b"})

	out, err := New(nil).Merge(a, b)
	require.NoError(t, err)
	require.Equal(t, []string{"Sheet1", "Sheet1"}, out.SheetNames())

	first, _, _ := out.Sheets[0].Lookup("A1")
	second, _, _ := out.Sheets[1].Lookup("A1")
	assert.Equal(t, "from a", first.Value)
	assert.Equal(t, "from b", second.Value)
}

func TestMergeEmptyInputs(t *testing.T) {
	out, err := New(nil).Merge(&types.Document{}, nil)
	require.NoError(t, err)
	assert.Empty(t, out.Sheets)
}
