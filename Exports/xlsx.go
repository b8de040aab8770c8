package Exports

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"Invoicing/Billing"
	"Invoicing/Models"
)

const (
	invoiceSheet = "Invoices"
	productSheet = "Products"
)

// XLSXContentType is the MIME type of the workbooks produced here.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InvoicesXLSX renders the same columns as the CSV export, with money as numbers.
func InvoicesXLSX(invoices []Models.Invoice, now time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}

	if err := writeHeader(f, invoiceSheet, invoiceColumns); err != nil {
		return nil, err
	}

	for i := range invoices {
		inv := &invoices[i]
		values := make([]interface{}, 0, len(invoiceColumns))
		for col, v := range invoiceRow(inv, now) {
			switch col {
			case 7:
				values = append(values, inv.Subtotal.InexactFloat64())
			case 8:
				values = append(values, inv.Tax.InexactFloat64())
			case 9:
				values = append(values, inv.TotalAmount.InexactFloat64())
			default:
				values = append(values, v)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(invoiceSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err == nil && len(invoices) > 0 {
		last, _ := excelize.CoordinatesToCellName(10, len(invoices)+1)
		_ = f.SetCellStyle(invoiceSheet, "H2", last, moneyStyle)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing Excel file to buffer: %w", err)
	}
	return &buf, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
	})
	if err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, headerStyle)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	return f.SetColWidth(sheet, "A", lastCol, 16)
}

// ProductColumns is the header row expected by ReadProductsXLSX, in any order.
var ProductColumns = []string{"Name", "Description", "Category", "Price", "Unit", "Tax Rate"}

// ProductTemplateXLSX returns an empty import workbook with the expected header.
func ProductTemplateXLSX() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", productSheet); err != nil {
		return nil, err
	}
	if err := writeHeader(f, productSheet, ProductColumns); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

// ReadProductsXLSX parses the first sheet of an import workbook. Blank rows
// are skipped; a malformed row fails the whole import with its row number.
func ReadProductsXLSX(r io.Reader) ([]Models.ProductRequest, error) {
	const op = "ReadProductsXLSX"
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, Billing.Validation(op, "not a readable xlsx file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, Billing.Validation(op, "workbook is empty")
	}

	columns := make(map[string]int)
	for i, h := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "price", "unit"} {
		if _, ok := columns[required]; !ok {
			return nil, Billing.Validation(op, "missing %q column", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var products []Models.ProductRequest
	for n, row := range rows[1:] {
		rowNumber := n + 2
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}

		price, err := decimal.NewFromString(cell(row, "price"))
		if err != nil {
			return nil, Billing.Validation(op, "row %d: invalid price %q", rowNumber, cell(row, "price"))
		}
		req := Models.ProductRequest{
			Name:        cell(row, "name"),
			Description: cell(row, "description"),
			Category:    cell(row, "category"),
			Price:       &price,
			Unit:        Models.ProductUnit(strings.ToLower(cell(row, "unit"))),
		}
		if raw := cell(row, "tax rate"); raw != "" {
			rate, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, Billing.Validation(op, "row %d: invalid tax rate %q", rowNumber, raw)
			}
			req.TaxRate = &rate
		}
		products = append(products, req)
	}
	return products, nil
}
