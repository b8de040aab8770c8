package Billing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"Invoicing/Models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(productID uint, qty, price, discount string) Models.LineItem {
	return Models.LineItem{ProductID: productID, Quantity: d(qty), UnitPrice: d(price), Discount: d(discount)}
}

func TestComputeLineAmount(t *testing.T) {
	tests := []struct {
		name                string
		qty, price, discount string
		want                string
	}{
		{"no discount", "1", "10", "0", "10"},
		{"ten percent", "2", "100", "10", "180"},
		{"full discount", "3", "19.99", "100", "0"},
		{"fractional quantity", "1.5", "33.33", "0", "50"},
		{"rounds half away from zero", "1", "0.125", "0", "0.13"},
		{"free item", "4", "0", "25", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeLineAmount(d(tt.qty), d(tt.price), d(tt.discount))
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name                   string
		lines                  []Models.LineItem
		subtotal, tax, total string
	}{
		{
			name:     "discounted and plain lines",
			lines:    []Models.LineItem{line(1, "2", "50", "10"), line(2, "1", "100", "0")},
			subtotal: "190.00", tax: "19.00", total: "209.00",
		},
		{
			name:     "discount on the larger line",
			lines:    []Models.LineItem{line(1, "2", "100", "10"), line(2, "1", "10", "0")},
			subtotal: "190.00", tax: "19.00", total: "209.00",
		},
		{
			name:     "tax rounds to cents",
			lines:    []Models.LineItem{line(1, "1", "0.05", "0")},
			subtotal: "0.05", tax: "0.01", total: "0.06",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := ComputeTotals(tt.lines, DefaultTaxRate)

			assert.Equal(t, tt.subtotal, totals.Subtotal.StringFixed(2))
			assert.Equal(t, tt.tax, totals.Tax.StringFixed(2))
			assert.Equal(t, tt.total, totals.Total.StringFixed(2))
		})
	}
}

func TestComputeTotalsIgnoresStoredAmounts(t *testing.T) {
	l := line(1, "1", "50", "0")
	l.Amount = d("9999")

	totals := ComputeTotals([]Models.LineItem{l}, decimal.Zero)

	assert.Equal(t, "50.00", totals.Total.StringFixed(2))
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil, DefaultTaxRate)
	assert.True(t, totals.Total.IsZero())
}

func TestLineAmountBounds(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		qty := decimal.NewFromInt(r.Int63n(1000) + 1)
		price := decimal.New(r.Int63n(1_000_000), -2)
		discount := decimal.NewFromInt(r.Int63n(101))

		amount := ComputeLineAmount(qty, price, discount)

		assert.False(t, amount.IsNegative(), "qty=%s price=%s discount=%s", qty, price, discount)
		assert.True(t, amount.LessThanOrEqual(qty.Mul(price)), "qty=%s price=%s discount=%s", qty, price, discount)
	}
}

func TestTotalsAreSumOfLines(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		var lines []Models.LineItem
		want := decimal.Zero
		for j := 0; j < r.Intn(8)+1; j++ {
			l := Models.LineItem{
				ProductID: 1,
				Quantity:  decimal.NewFromInt(r.Int63n(20) + 1),
				UnitPrice: decimal.New(r.Int63n(100000), -2),
				Discount:  decimal.NewFromInt(r.Int63n(50)),
			}
			lines = append(lines, l)
			want = want.Add(ComputeLineAmount(l.Quantity, l.UnitPrice, l.Discount))
		}

		totals := ComputeTotals(lines, DefaultTaxRate)

		assert.True(t, totals.Subtotal.Equal(want))
		assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax)))
	}
}

func TestPriceInvoiceSetsLineAmounts(t *testing.T) {
	inv := &Models.Invoice{Lines: []Models.InvoiceLine{
		{LineItem: line(1, "2", "100", "10")},
		{LineItem: line(2, "1", "10", "0")},
	}}

	PriceInvoice(inv, DefaultTaxRate)

	assert.Equal(t, "180.00", inv.Lines[0].Amount.StringFixed(2))
	assert.Equal(t, "10.00", inv.Lines[1].Amount.StringFixed(2))
	assert.Equal(t, "209.00", inv.TotalAmount.StringFixed(2))
	assert.True(t, inv.TaxRate.Equal(DefaultTaxRate))
}

func TestTaxRateFor(t *testing.T) {
	assert.True(t, TaxRateFor(nil, DefaultTaxRate).Equal(DefaultTaxRate))
	assert.True(t, TaxRateFor(&Models.Client{}, DefaultTaxRate).Equal(DefaultTaxRate))
	assert.True(t, TaxRateFor(&Models.Client{TaxExempt: true}, DefaultTaxRate).IsZero())
}

func TestValidateLine(t *testing.T) {
	tests := []struct {
		name    string
		line    Models.LineItem
		wantErr bool
	}{
		{"valid", line(1, "1", "10", "0"), false},
		{"free", line(1, "1", "0", "0"), false},
		{"missing product", line(0, "1", "10", "0"), true},
		{"zero quantity", line(1, "0", "10", "0"), true},
		{"negative quantity", line(1, "-1", "10", "0"), true},
		{"negative price", line(1, "1", "-0.01", "0"), true},
		{"negative discount", line(1, "1", "10", "-1"), true},
		{"discount over 100", line(1, "1", "10", "100.5"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLine(0, tt.line)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLinesRequiresOne(t *testing.T) {
	assert.ErrorIs(t, ValidateLines(nil), ErrValidation)
}
