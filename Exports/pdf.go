package Exports

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"Invoicing/Models"
)

var lineColumns = []struct {
	title string
	width float64
	align string
}{
	{"Item", 80, "L"},
	{"Qty", 20, "R"},
	{"Unit price", 30, "R"},
	{"Disc %", 20, "R"},
	{"Amount", 30, "R"},
}

type document struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newDocument(company CompanyInfo, title, number string) *document {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title+" "+number, true)
	pdf.SetAuthor(company.Name, true)
	pdf.AddPage()
	doc := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	if company.LogoPath != "" {
		if _, err := os.Stat(company.LogoPath); err == nil {
			pdf.ImageOptions(company.LogoPath, 10, 10, 40, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
	}

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, doc.tr(strings.ToUpper(title)), "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, doc.tr(number), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, doc.tr(company.Name), "", 1, "R", false, 0, "")
	pdf.Ln(12)
	return doc
}

func (d *document) label(name, value string) {
	d.pdf.SetFont("Arial", "B", 10)
	d.pdf.CellFormat(35, 6, d.tr(name), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Arial", "", 10)
	d.pdf.CellFormat(0, 6, d.tr(value), "", 1, "L", false, 0, "")
}

func (d *document) billTo(client *Models.Client) {
	if client == nil {
		return
	}
	d.pdf.Ln(4)
	d.pdf.SetFont("Arial", "B", 11)
	d.pdf.CellFormat(0, 6, "Bill to", "", 1, "L", false, 0, "")
	d.pdf.SetFont("Arial", "", 10)
	lines := append([]string{client.DisplayName()}, client.ParsedAddress().Lines()...)
	lines = append(lines, client.Email)
	for _, l := range lines {
		d.pdf.CellFormat(0, 5, d.tr(l), "", 1, "L", false, 0, "")
	}
	d.pdf.Ln(6)
}

func (d *document) lineTable(lines []Models.LineItem, currency string) {
	d.pdf.SetFont("Arial", "B", 10)
	d.pdf.SetFillColor(230, 230, 250)
	for _, col := range lineColumns {
		d.pdf.CellFormat(col.width, 8, col.title, "1", 0, col.align, true, 0, "")
	}
	d.pdf.Ln(-1)

	d.pdf.SetFont("Arial", "", 10)
	for _, l := range lines {
		values := []string{
			l.Description,
			l.Quantity.String(),
			FormatMoney(l.UnitPrice, currency),
			l.Discount.String(),
			FormatMoney(l.Amount, currency),
		}
		for i, col := range lineColumns {
			d.pdf.CellFormat(col.width, 7, d.tr(values[i]), "1", 0, col.align, false, 0, "")
		}
		d.pdf.Ln(-1)
	}
	d.pdf.Ln(4)
}

func (d *document) totals(subtotal, tax, total, rate decimal.Decimal, currency string) {
	rows := [][2]string{
		{"Subtotal", FormatMoney(subtotal, currency)},
		{fmt.Sprintf("Tax (%s%%)", rate.Mul(decimal.NewFromInt(100)).String()), FormatMoney(tax, currency)},
		{"Total", FormatMoney(total, currency)},
	}
	for i, row := range rows {
		style := ""
		if i == len(rows)-1 {
			style = "B"
		}
		d.pdf.SetFont("Arial", style, 10)
		d.pdf.CellFormat(150, 7, row[0], "", 0, "R", false, 0, "")
		d.pdf.CellFormat(30, 7, d.tr(row[1]), "", 1, "R", false, 0, "")
	}
}

func (d *document) notes(title, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	d.pdf.Ln(6)
	d.pdf.SetFont("Arial", "B", 10)
	d.pdf.CellFormat(0, 6, title, "", 1, "L", false, 0, "")
	d.pdf.SetFont("Arial", "", 10)
	d.pdf.MultiCell(0, 5, d.tr(text), "", "L", false)
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// InvoicePDF renders an invoice with its lines and client preloaded.
func InvoicePDF(inv *Models.Invoice, status Models.InvoiceStatus, company CompanyInfo) ([]byte, error) {
	doc := newDocument(company, "Invoice", inv.InvoiceNumber)
	doc.label("Issue date", FormatDate(inv.IssueDate))
	doc.label("Due date", FormatDate(inv.DueDate))
	doc.label("Status", strings.ToUpper(string(status)))
	if inv.IsPaid {
		doc.label("Paid on", formatDatePtr(inv.PaymentDate))
	}
	doc.billTo(inv.Client)
	doc.lineTable(inv.LineItems(), inv.Currency)
	doc.totals(inv.Subtotal, inv.Tax, inv.TotalAmount, inv.TaxRate, inv.Currency)
	doc.notes("Notes", inv.Notes)
	return doc.bytes()
}

// ContractPDF renders a contract with its lines and client preloaded.
func ContractPDF(c *Models.Contract, company CompanyInfo) ([]byte, error) {
	doc := newDocument(company, "Contract", c.ContractNumber)
	doc.label("Title", c.Title)
	doc.label("Period", FormatDate(c.StartDate)+" - "+FormatDate(c.EndDate))
	doc.label("Status", strings.ToUpper(string(c.Status)))
	if c.BillingCycle != "" {
		doc.label("Billing cycle", string(c.BillingCycle))
	}
	if c.PaymentTerms != "" {
		doc.label("Payment terms", string(c.PaymentTerms))
	}
	doc.billTo(c.Client)
	doc.notes("Description", c.Description)
	doc.lineTable(c.LineItems(), c.Currency)
	doc.totals(c.Subtotal, c.Tax, c.TotalAmount, c.TaxRate, c.Currency)
	doc.notes("Terms", c.Terms)
	return doc.bytes()
}
