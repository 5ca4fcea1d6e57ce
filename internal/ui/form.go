package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nconklindev/profitcalc/internal/types"

	"github.com/charmbracelet/bubbles/textinput"
)

const (
	fieldKeyword = iota
	fieldShippingTotal
	fieldUnitCost
	fieldTargetSales
	fieldSellingPrice
	fieldFulfillmentFee
	fieldStorageCost
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Keyword Name",
	"Shipping Total",
	"Unit Cost",
	"Target Sales per Month",
	"Selling Price",
	"Fulfillment Fee",
	"Storage Cost",
}

func newFormInputs() []textinput.Model {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = "› "
		ti.CharLimit = 32
		ti.Width = 24
		switch i {
		case fieldKeyword:
			ti.Placeholder = "e.g. WidgetX"
			ti.CharLimit = 64
		case fieldTargetSales:
			ti.Placeholder = "0"
		default:
			ti.Placeholder = "0.00"
		}
		inputs[i] = ti
	}
	inputs[fieldKeyword].Focus()
	return inputs
}

// ParseInputs converts the raw form values, in field order, into an InputSet.
// Blank numeric fields parse as zero and are left for Validate to reject.
func ParseInputs(values []string) (types.InputSet, error) {
	if len(values) != fieldCount {
		return types.InputSet{}, fmt.Errorf("expected %d values, got %d", fieldCount, len(values))
	}

	in := types.InputSet{Keyword: strings.TrimSpace(values[fieldKeyword])}

	floats := []struct {
		field int
		dst   *float64
	}{
		{fieldShippingTotal, &in.ShippingTotal},
		{fieldUnitCost, &in.UnitCost},
		{fieldSellingPrice, &in.SellingPrice},
		{fieldFulfillmentFee, &in.FulfillmentFee},
		{fieldStorageCost, &in.StorageCost},
	}
	for _, f := range floats {
		v, err := parseNumber(values[f.field])
		if err != nil {
			return in, fmt.Errorf("%s must be a number", fieldLabels[f.field])
		}
		*f.dst = v
	}

	if s := strings.TrimSpace(values[fieldTargetSales]); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return in, fmt.Errorf("%s must be a whole number", fieldLabels[fieldTargetSales])
		}
		in.TargetSalesPerMonth = n
	}
	return in, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}
