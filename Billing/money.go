package Billing

import (
	"github.com/shopspring/decimal"

	"Invoicing/Models"
)

// MoneyPlaces is the number of decimal places money is rounded to, half away from zero.
const MoneyPlaces int32 = 2

var (
	// DefaultTaxRate is the flat rate applied to the subtotal when none is configured.
	DefaultTaxRate = decimal.RequireFromString("0.10")

	hundred = decimal.NewFromInt(100)
)

// Totals are the derived money fields of a contract or invoice.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// RoundMoney rounds to MoneyPlaces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// ComputeLineAmount returns quantity * unitPrice * (1 - discount/100), rounded.
func ComputeLineAmount(quantity, unitPrice, discountPercent decimal.Decimal) decimal.Decimal {
	gross := quantity.Mul(unitPrice)
	return RoundMoney(gross.Mul(hundred.Sub(discountPercent)).Div(hundred))
}

// ComputeTotals sums line amounts and applies one flat tax rate to the subtotal.
// Line amounts are recomputed from their inputs; any stored Amount is ignored.
func ComputeTotals(lines []Models.LineItem, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(ComputeLineAmount(l.Quantity, l.UnitPrice, l.Discount))
	}
	tax := RoundMoney(subtotal.Mul(taxRate))
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

// PriceContract sets every line amount and the contract totals.
func PriceContract(c *Models.Contract, taxRate decimal.Decimal) Totals {
	for i := range c.Lines {
		l := &c.Lines[i].LineItem
		l.Amount = ComputeLineAmount(l.Quantity, l.UnitPrice, l.Discount)
	}
	t := ComputeTotals(c.LineItems(), taxRate)
	c.Subtotal, c.Tax, c.TotalAmount, c.TaxRate = t.Subtotal, t.Tax, t.Total, taxRate
	return t
}

// PriceInvoice sets every line amount and the invoice totals.
func PriceInvoice(inv *Models.Invoice, taxRate decimal.Decimal) Totals {
	for i := range inv.Lines {
		l := &inv.Lines[i].LineItem
		l.Amount = ComputeLineAmount(l.Quantity, l.UnitPrice, l.Discount)
	}
	t := ComputeTotals(inv.LineItems(), taxRate)
	inv.Subtotal, inv.Tax, inv.TotalAmount, inv.TaxRate = t.Subtotal, t.Tax, t.Total, taxRate
	return t
}

// TaxRateFor returns zero for tax-exempt clients and the configured rate otherwise.
func TaxRateFor(client *Models.Client, rate decimal.Decimal) decimal.Decimal {
	if client != nil && client.TaxExempt {
		return decimal.Zero
	}
	return rate
}
