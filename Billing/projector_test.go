package Billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Invoicing/Models"
)

func product(id uint, price string, active bool) Models.Product {
	return Models.Product{Model: gorm.Model{ID: id}, Name: "Product", Price: d(price), Unit: Models.UnitPiece, IsActive: active}
}

func activeContract(terms Models.PaymentTerms, lines ...Models.LineItem) *Models.Contract {
	c := &Models.Contract{
		Model:          gorm.Model{ID: 7},
		ContractNumber: "CON-000007",
		ClientID:       3,
		Status:         Models.ContractActive,
		IsActive:       true,
		PaymentTerms:   terms,
		Currency:       "USD",
	}
	for _, l := range lines {
		c.Lines = append(c.Lines, Models.ContractLine{LineItem: l})
	}
	return c
}

var jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestProjectInvoiceFromContract(t *testing.T) {
	contract := activeContract(Models.TermsNet15,
		line(1, "2", "50", "10"),
		line(2, "1", "100", "0"),
	)
	products := []Models.Product{product(1, "50", true), product(2, "100", true)}

	inv, err := ProjectInvoiceFromContract(contract, products, jan1, DefaultTaxRate)
	require.NoError(t, err)

	assert.Equal(t, Models.InvoiceDraft, inv.Status)
	assert.Empty(t, inv.InvoiceNumber)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), inv.DueDate)
	assert.Equal(t, uint(3), inv.ClientID)
	require.NotNil(t, inv.ContractID)
	assert.Equal(t, uint(7), *inv.ContractID)
	assert.Equal(t, "USD", inv.Currency)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, "90.00", inv.Lines[0].Amount.StringFixed(2))
	assert.Equal(t, "100.00", inv.Lines[1].Amount.StringFixed(2))
	assert.Equal(t, "190.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "19.00", inv.Tax.StringFixed(2))
	assert.Equal(t, "209.00", inv.TotalAmount.StringFixed(2))
	assert.False(t, inv.IsPaid)
}

func TestProjectInvoiceKeepsContractPrices(t *testing.T) {
	contract := activeContract(Models.TermsNet30,
		line(1, "3", "0", "0"),
		line(2, "2", "40", "0"),
	)
	PriceContract(contract, decimal.Zero)
	products := []Models.Product{product(1, "12.50", true), product(2, "55", true)}

	inv, err := ProjectInvoiceFromContract(contract, products, jan1, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, inv.Lines[0].UnitPrice.IsZero())
	assert.Equal(t, "40.00", inv.Lines[1].UnitPrice.StringFixed(2))
	assert.Equal(t, "80.00", inv.TotalAmount.StringFixed(2))
	assert.True(t, inv.TotalAmount.Equal(contract.TotalAmount), "invoice %s contract %s", inv.TotalAmount, contract.TotalAmount)
}

func TestProjectInvoiceFillsDescriptionFromProduct(t *testing.T) {
	contract := activeContract(Models.TermsNet30, line(1, "1", "10", "0"))

	inv, err := ProjectInvoiceFromContract(contract, []Models.Product{product(1, "12.50", true)}, jan1, DefaultTaxRate)
	require.NoError(t, err)

	assert.Equal(t, "Product", inv.Lines[0].Description)
	assert.Empty(t, contract.Lines[0].Description)
}

func TestProjectInvoiceErrors(t *testing.T) {
	inactive := activeContract(Models.TermsNet30, line(1, "1", "10", "0"))
	inactive.IsActive = false

	cancelled := activeContract(Models.TermsNet30, line(1, "1", "10", "0"))
	cancelled.Status = Models.ContractCancelled

	tests := []struct {
		name     string
		contract *Models.Contract
		products []Models.Product
		rate     decimal.Decimal
		want     error
	}{
		{"missing contract", nil, nil, DefaultTaxRate, ErrNotFound},
		{"inactive contract", inactive, []Models.Product{product(1, "10", true)}, DefaultTaxRate, ErrConflict},
		{"cancelled contract", cancelled, []Models.Product{product(1, "10", true)}, DefaultTaxRate, ErrConflict},
		{"no lines", activeContract(Models.TermsNet30), nil, DefaultTaxRate, ErrFailedPrecondition},
		{"missing product", activeContract(Models.TermsNet30, line(9, "1", "10", "0")), []Models.Product{product(1, "10", true)}, DefaultTaxRate, ErrFailedPrecondition},
		{"inactive product", activeContract(Models.TermsNet30, line(1, "1", "10", "0")), []Models.Product{product(1, "10", false)}, DefaultTaxRate, ErrFailedPrecondition},
		{"bad quantity", activeContract(Models.TermsNet30, line(1, "0", "10", "0")), []Models.Product{product(1, "10", true)}, DefaultTaxRate, ErrValidation},
		{"bad tax rate", activeContract(Models.TermsNet30, line(1, "1", "10", "0")), []Models.Product{product(1, "10", true)}, d("1.5"), ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := ProjectInvoiceFromContract(tt.contract, tt.products, jan1, tt.rate)
			assert.Nil(t, inv)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMissingProductErrorNamesProduct(t *testing.T) {
	contract := activeContract(Models.TermsNet30, line(42, "1", "10", "0"))

	_, err := ProjectInvoiceFromContract(contract, nil, jan1, DefaultTaxRate)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "product 42")
}

func TestDueDateOffset(t *testing.T) {
	tests := []struct {
		terms Models.PaymentTerms
		want  int
	}{
		{Models.TermsImmediate, 0},
		{Models.TermsNet15, 15},
		{Models.TermsNet30, 30},
		{Models.TermsNet60, 60},
		{"", 30},
		{"net90", 30},
	}

	for _, tt := range tests {
		t.Run(string(tt.terms), func(t *testing.T) {
			assert.Equal(t, tt.want, DueDateOffset(tt.terms))
			assert.Equal(t, jan1.AddDate(0, 0, tt.want), DueDate(jan1, tt.terms))
		})
	}
}
