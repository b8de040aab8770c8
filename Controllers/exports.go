package Controllers

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Invoicing/Billing"
	"Invoicing/Exports"
	"Invoicing/Models"
)

// ExportFilter narrows an invoice export by issue date and stored status.
type ExportFilter struct {
	From   time.Time
	To     time.Time
	Status Models.InvoiceStatus
}

// FindInvoicesForExport loads invoices with their clients, oldest first.
// Zero bounds are open.
func FindInvoicesForExport(db *gorm.DB, f ExportFilter) ([]Models.Invoice, error) {
	query := db.Preload("Client").Order("issue_date, id")
	if !f.From.IsZero() {
		query = query.Where("issue_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		query = query.Where("issue_date < ?", f.To.AddDate(0, 0, 1))
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	var invoices []Models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// ExportController serves spreadsheet downloads
type ExportController struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewExportController(db *gorm.DB) *ExportController {
	return &ExportController{DB: db, Now: time.Now}
}

func (ec *ExportController) filter(c *fiber.Ctx) (ExportFilter, error) {
	from, err := parseDate(c.Query("from"), time.Time{})
	if err != nil {
		return ExportFilter{}, err
	}
	to, err := parseDate(c.Query("to"), time.Time{})
	if err != nil {
		return ExportFilter{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return ExportFilter{}, Billing.Validation("export", "to must not be before from")
	}
	return ExportFilter{From: from, To: to, Status: Models.InvoiceStatus(c.Query("status"))}, nil
}

// InvoicesCSV GET /api/exports/invoices.csv?from=&to=&status=
func (ec *ExportController) InvoicesCSV(c *fiber.Ctx) error {
	f, err := ec.filter(c)
	if err != nil {
		return respondError(c, err)
	}
	invoices, err := FindInvoicesForExport(ec.DB, f)
	if err != nil {
		return respondError(c, err)
	}
	var buf bytes.Buffer
	if err := Exports.WriteInvoicesCSV(&buf, invoices, ec.Now()); err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename=invoices.csv")
	return c.Send(buf.Bytes())
}

// InvoicesXLSX GET /api/exports/invoices.xlsx?from=&to=&status=
func (ec *ExportController) InvoicesXLSX(c *fiber.Ctx) error {
	f, err := ec.filter(c)
	if err != nil {
		return respondError(c, err)
	}
	invoices, err := FindInvoicesForExport(ec.DB, f)
	if err != nil {
		return respondError(c, err)
	}
	buf, err := Exports.InvoicesXLSX(invoices, ec.Now())
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, Exports.XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename=invoices.xlsx")
	return c.Send(buf.Bytes())
}
