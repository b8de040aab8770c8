package Billing

import (
	"github.com/shopspring/decimal"

	"Invoicing/Models"
)

// ValidateLine checks one line's inputs; index is zero-based.
func ValidateLine(index int, l Models.LineItem) error {
	const op = "ValidateLine"
	switch {
	case l.ProductID == 0:
		return Validation(op, "line %d: product is required", index+1)
	case !l.Quantity.IsPositive():
		return Validation(op, "line %d: quantity must be greater than 0", index+1)
	case l.UnitPrice.IsNegative():
		return Validation(op, "line %d: unit price must not be negative", index+1)
	case l.Discount.IsNegative() || l.Discount.GreaterThan(hundred):
		return Validation(op, "line %d: discount must be between 0 and 100", index+1)
	}
	return nil
}

// ValidateLines requires at least one line and checks each of them.
func ValidateLines(lines []Models.LineItem) error {
	if len(lines) == 0 {
		return Validation("ValidateLines", "at least one line is required")
	}
	for i, l := range lines {
		if err := ValidateLine(i, l); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTaxRate accepts rates in [0, 1].
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return Validation("ValidateTaxRate", "tax rate must be between 0 and 1, got %s", rate)
	}
	return nil
}
