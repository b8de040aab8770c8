package Exports

import (
	"bytes"
	"encoding/csv"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"Invoicing/Billing"
	"Invoicing/Models"
)

var issued = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleInvoice() Models.Invoice {
	inv := Models.Invoice{
		InvoiceNumber: "INV-000001",
		Client:        &Models.Client{Name: "Jane", Company: "Acme Ltd", Email: "jane@acme.test"},
		Status:        Models.InvoiceSent,
		IssueDate:     issued,
		DueDate:       issued.AddDate(0, 0, 15),
		Currency:      "USD",
		Notes:         "Thank you for your business",
		Lines: []Models.InvoiceLine{
			{LineItem: Models.LineItem{ProductID: 1, Description: "Consulting", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100), Discount: decimal.NewFromInt(10)}},
			{LineItem: Models.LineItem{ProductID: 2, Description: "Hosting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10), Discount: decimal.Zero}},
		},
	}
	Billing.PriceInvoice(&inv, Billing.DefaultTaxRate)
	return inv
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"209", "USD", "$209.00"},
		{"1234567.891", "USD", "$1,234,567.89"},
		{"-1500", "EUR", "-€1,500.00"},
		{"12.5", "NZD", "NZD 12.50"},
		{"0.005", "", "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}

func TestWriteInvoicesCSV(t *testing.T) {
	invoices := []Models.Invoice{sampleInvoice()}
	var buf bytes.Buffer

	require.NoError(t, WriteInvoicesCSV(&buf, invoices, issued.AddDate(0, 1, 0)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, invoiceColumns, records[0])
	assert.Equal(t, []string{
		"INV-000001", "Acme Ltd", "jane@acme.test", "2024-01-01", "2024-01-16",
		"overdue", "Overdue", "190.00", "19.00", "209.00", "USD", "",
	}, records[1])
}

func TestInvoicesXLSX(t *testing.T) {
	buf, err := InvoicesXLSX([]Models.Invoice{sampleInvoice()}, issued)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(invoiceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Invoice Number", rows[0][0])
	assert.Equal(t, "INV-000001", rows[1][0])
	assert.Equal(t, "sent", rows[1][5])

	total, err := f.GetCellValue(invoiceSheet, "J2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "209", total)
}

func TestReadProductsXLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Unit", "Name", "Price", "Tax Rate"},
		{"Hour", "Consulting", "120.50", "0.15"},
		{},
		{"piece", "Widget", "3", ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	products, err := ReadProductsXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "Consulting", products[0].Name)
	assert.Equal(t, Models.UnitHour, products[0].Unit)
	assert.Equal(t, "120.5", products[0].Price.String())
	require.NotNil(t, products[0].TaxRate)
	assert.Equal(t, "0.15", products[0].TaxRate.String())
	assert.Nil(t, products[1].TaxRate)
}

func TestReadProductsXLSXRejectsBadRows(t *testing.T) {
	f := excelize.NewFile()
	header := []interface{}{"Name", "Price", "Unit"}
	bad := []interface{}{"Widget", "cheap", "piece"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &bad))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	_, err := ReadProductsXLSX(&buf)
	assert.ErrorIs(t, err, Billing.ErrValidation)
	assert.Contains(t, err.Error(), "row 2")

	_, err = ReadProductsXLSX(bytes.NewReader([]byte("not a workbook")))
	assert.ErrorIs(t, err, Billing.ErrValidation)
}

func TestProductTemplateXLSXRoundTrip(t *testing.T) {
	buf, err := ProductTemplateXLSX()
	require.NoError(t, err)

	products, err := ReadProductsXLSX(buf)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestInvoicePDF(t *testing.T) {
	inv := sampleInvoice()
	out, err := InvoicePDF(&inv, Models.InvoiceSent, CompanyInfo{Name: "Invoicing Co", Currency: "USD"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestContractPDFWithLogo(t *testing.T) {
	logo := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, imaging.Save(imaging.New(60, 30, color.NRGBA{0, 0, 255, 255}), logo))

	c := &Models.Contract{
		ContractNumber: "CON-000001",
		Title:          "Support retainer",
		StartDate:      issued,
		EndDate:        issued.AddDate(1, 0, 0),
		Status:         Models.ContractActive,
		Currency:       "EUR",
		Terms:          "Net 30",
		Lines: []Models.ContractLine{{LineItem: Models.LineItem{
			ProductID: 1, Description: "Support", Quantity: decimal.NewFromInt(12), UnitPrice: decimal.NewFromInt(500),
		}}},
	}
	Billing.PriceContract(c, Billing.DefaultTaxRate)

	out, err := ContractPDF(c, CompanyInfo{Name: "Invoicing Co", LogoPath: logo})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestSaveLogoScalesDown(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 900, 300))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	dst := filepath.Join(t.TempDir(), "uploads", "logo.png")
	require.NoError(t, SaveLogo(&buf, dst))

	saved, err := imaging.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, LogoMaxWidth, saved.Bounds().Dx())
	assert.Equal(t, 100, saved.Bounds().Dy())
}

func TestSaveLogoRejectsGarbage(t *testing.T) {
	err := SaveLogo(bytes.NewReader([]byte("nope")), filepath.Join(t.TempDir(), "logo.png"))
	assert.ErrorIs(t, err, Billing.ErrValidation)
}
