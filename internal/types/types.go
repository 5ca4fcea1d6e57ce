package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is wrapped by every ValidationError.
var ErrInvalidInput = errors.New("invalid input")

type InputSet struct {
	Keyword             string
	ShippingTotal       float64
	UnitCost            float64
	TargetSalesPerMonth int
	SellingPrice        float64
	FulfillmentFee      float64
	StorageCost         float64
}

type DerivedValue struct {
	Value       float64
	WasFallback bool
	Attempts    int
}

// ValidationError lists every input field that is missing or out of range.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("all fields must be filled out before proceeding (missing: %s)", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Validate reports a *ValidationError when the keyword is blank or any
// numeric field is zero or negative.
func (in InputSet) Validate() error {
	var missing []string

	if strings.TrimSpace(in.Keyword) == "" {
		missing = append(missing, "keyword name")
	}

	numeric := []struct {
		name  string
		value float64
	}{
		{"shipping total", in.ShippingTotal},
		{"unit cost", in.UnitCost},
		{"target sales per month", float64(in.TargetSalesPerMonth)},
		{"selling price", in.SellingPrice},
		{"fulfillment fee", in.FulfillmentFee},
		{"storage cost", in.StorageCost},
	}
	for _, f := range numeric {
		if f.value <= 0 {
			missing = append(missing, f.name)
		}
	}

	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// FallbackLandedCost approximates the landed cost when the template's own
// formula cannot be read back. A zero or negative target counts as 1.
func (in InputSet) FallbackLandedCost() float64 {
	target := in.TargetSalesPerMonth
	if target < 1 {
		target = 1
	}
	return (in.ShippingTotal + in.UnitCost) / float64(target)
}
