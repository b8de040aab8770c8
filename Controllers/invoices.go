package Controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Invoicing/Billing"
	"Invoicing/Exports"
	"Invoicing/Models"
	"Invoicing/Notifications"
	"Invoicing/middleware"
)

// InvoiceView adds the derived statuses to a stored invoice.
type InvoiceView struct {
	*Models.Invoice
	PaymentStatus Models.PaymentStatus `json:"payment_status"`
	DisplayStatus Models.InvoiceStatus `json:"display_status"`
	AmountPaid    decimal.Decimal      `json:"amount_paid"`
	Outstanding   decimal.Decimal      `json:"outstanding"`
}

func newInvoiceView(inv *Models.Invoice, now time.Time) InvoiceView {
	paid := Billing.SumPayments(inv.Payments)
	return InvoiceView{
		Invoice:       inv,
		PaymentStatus: Billing.DerivePaymentStatus(inv, now),
		DisplayStatus: Billing.EffectiveStatus(inv, now),
		AmountPaid:    paid,
		Outstanding:   Billing.Outstanding(inv, paid),
	}
}

func loadInvoice(db *gorm.DB, id uint) (*Models.Invoice, error) {
	var inv Models.Invoice
	err := db.Preload("Client").
		Preload("Lines", linesByPosition).
		Preload("Lines.Product").
		Preload("Payments").
		First(&inv, id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// lockInvoice takes a row lock on the invoice until tx ends, so writers that
// depend on its balance run one at a time. sqlite ignores the clause and
// relies on its single connection instead.
func lockInvoice(tx *gorm.DB, id uint) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&Models.Invoice{}, id)
}

// saveNewInvoice assigns the next invoice number and inserts inv in one
// transaction, so a failed insert never consumes a number.
func saveNewInvoice(db *gorm.DB, inv *Models.Invoice) error {
	return db.Transaction(func(tx *gorm.DB) error {
		number, err := Billing.AssignNumber(inv.InvoiceNumber, Billing.PrefixInvoice, Models.NewCounterStore(tx))
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		return tx.Omit("Client", "Contract").Create(inv).Error
	})
}

// saveStatus persists the status and payment columns only if the stored
// status is still from. A concurrent change yields a Conflict.
func saveStatus(db *gorm.DB, inv *Models.Invoice, from Models.InvoiceStatus) error {
	res := db.Model(&Models.Invoice{}).
		Where("id = ? AND status = ?", inv.ID, from).
		Updates(map[string]interface{}{
			"status":            inv.Status,
			"is_paid":           inv.IsPaid,
			"payment_date":      inv.PaymentDate,
			"payment_mode":      inv.PaymentMode,
			"payment_method":    inv.PaymentMethod,
			"payment_reference": inv.PaymentReference,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return Billing.Conflict("saveStatus", "invoice %s was changed by another request", inv.InvoiceNumber)
	}
	return nil
}

// notifyPaid runs after commit; delivery failures are logged, not returned.
func notifyPaid(ctx context.Context, notifier Notifications.Notifier, inv *Models.Invoice) {
	if notifier == nil {
		return
	}
	if err := notifier.InvoicePaid(ctx, inv); err != nil {
		log.Warn().Err(err).Str("invoice_number", inv.InvoiceNumber).Msg("paid notification failed")
	}
}

// InvoiceController handles invoice endpoints
type InvoiceController struct {
	DB       *gorm.DB
	TaxRate  decimal.Decimal
	Notifier Notifications.Notifier
	Company  Exports.CompanyInfo
	Now      func() time.Time
}

func NewInvoiceController(db *gorm.DB, taxRate decimal.Decimal, notifier Notifications.Notifier, company Exports.CompanyInfo) *InvoiceController {
	if notifier == nil {
		notifier = Notifications.Noop{}
	}
	return &InvoiceController{DB: db, TaxRate: taxRate, Notifier: notifier, Company: company, Now: time.Now}
}

func (ic *InvoiceController) applyInvoiceRequest(req Models.InvoiceRequest, inv *Models.Invoice) error {
	const op = "applyInvoiceRequest"
	lines, err := buildLines(req.Lines)
	if err != nil {
		return err
	}
	client, err := loadClient(ic.DB, req.ClientID)
	if err != nil {
		return err
	}
	if req.ContractID != nil {
		var contract Models.Contract
		if err := ic.DB.First(&contract, *req.ContractID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Billing.NotFound(op, "contract %d not found", *req.ContractID)
			}
			return err
		}
		if contract.ClientID != client.ID {
			return Billing.Validation(op, "contract %s belongs to another client", contract.ContractNumber)
		}
	}
	if err := checkProducts(ic.DB, lines); err != nil {
		return err
	}

	terms := req.PaymentTerms
	if terms == "" {
		terms = client.PaymentTerms
	}
	issueDate, err := parseDate(req.IssueDate, today(ic.Now()))
	if err != nil {
		return err
	}
	dueDate, err := parseDate(req.DueDate, Billing.DueDate(issueDate, terms))
	if err != nil {
		return err
	}
	if dueDate.Before(issueDate) {
		return Billing.Validation(op, "due date must not be before issue date")
	}

	inv.ClientID = client.ID
	inv.Client = client
	inv.ContractID = req.ContractID
	inv.IssueDate, inv.DueDate = issueDate, dueDate
	inv.PaymentTerms = terms
	inv.Currency = firstNonEmpty(req.Currency, client.Currency, ic.Company.Currency)
	inv.Notes = req.Notes
	inv.Lines = make([]Models.InvoiceLine, len(lines))
	for i, l := range lines {
		inv.Lines[i] = Models.InvoiceLine{InvoiceID: inv.ID, LineItem: l}
	}
	Billing.PriceInvoice(inv, Billing.TaxRateFor(client, ic.TaxRate))
	return nil
}

// GetInvoices GET /api/invoices?page=1&limit=10&status=&client_id=&contract_id=&q=
// status=overdue selects sent, unpaid invoices past their due date.
func (ic *InvoiceController) GetInvoices(c *fiber.Ctx) error {
	page, limit, offset := paginate(c)
	now := ic.Now()

	query := ic.DB.Model(&Models.Invoice{})
	switch status := Models.InvoiceStatus(c.Query("status")); status {
	case "":
	case Models.InvoiceOverdue:
		query = query.Where("status = ? AND is_paid = ? AND due_date < ?", Models.InvoiceSent, false, now)
	default:
		query = query.Where("status = ?", status)
	}
	if clientID := c.Query("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if contractID := c.Query("contract_id"); contractID != "" {
		query = query.Where("contract_id = ?", contractID)
	}
	if q := c.Query("q"); q != "" {
		query = query.Where("invoice_number LIKE ?", "%"+q+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return respondError(c, err)
	}
	var invoices []Models.Invoice
	err := query.Preload("Client").Preload("Payments").
		Order("issue_date DESC, id DESC").Offset(offset).Limit(limit).Find(&invoices).Error
	if err != nil {
		return respondError(c, err)
	}

	views := make([]InvoiceView, len(invoices))
	for i := range invoices {
		views[i] = newInvoiceView(&invoices[i], now)
	}
	return c.JSON(fiber.Map{
		"message":    "Invoices retrieved successfully",
		"data":       views,
		"pagination": pagination(page, limit, total),
	})
}

// GetInvoice GET /api/invoices/:id
func (ic *InvoiceController) GetInvoice(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	inv, err := loadInvoice(ic.DB, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": newInvoiceView(inv, ic.Now())})
}

// CreateInvoice creates a draft invoice from explicit lines
// POST /api/invoices
func (ic *InvoiceController) CreateInvoice(c *fiber.Ctx) error {
	var req Models.InvoiceRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	inv := Models.Invoice{Status: Models.InvoiceDraft}
	if err := ic.applyInvoiceRequest(req, &inv); err != nil {
		return respondError(c, err)
	}
	if user, ok := middleware.CurrentUser(c); ok {
		inv.UserID = user.ID
	}

	if err := saveNewInvoice(ic.DB, &inv); err != nil {
		return respondError(c, err)
	}
	saved, err := loadInvoice(ic.DB, inv.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Invoice created successfully",
		"data":    newInvoiceView(saved, ic.Now()),
	})
}

// UpdateInvoice replaces a draft invoice's lines and dates
// PUT /api/invoices/:id
func (ic *InvoiceController) UpdateInvoice(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req Models.InvoiceRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	inv, err := loadInvoice(ic.DB, id)
	if err != nil {
		return respondError(c, err)
	}
	if inv.Status != Models.InvoiceDraft {
		return respondError(c, Billing.Conflict("UpdateInvoice", "invoice %s is %s; only drafts can be edited", inv.InvoiceNumber, inv.Status))
	}
	if err := ic.applyInvoiceRequest(req, inv); err != nil {
		return respondError(c, err)
	}

	err = ic.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&Models.InvoiceLine{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&inv.Lines).Error; err != nil {
			return err
		}
		res := tx.Model(&Models.Invoice{}).
			Where("id = ? AND status = ?", inv.ID, Models.InvoiceDraft).
			Updates(map[string]interface{}{
				"client_id":     inv.ClientID,
				"contract_id":   inv.ContractID,
				"issue_date":    inv.IssueDate,
				"due_date":      inv.DueDate,
				"payment_terms": inv.PaymentTerms,
				"currency":      inv.Currency,
				"notes":         inv.Notes,
				"subtotal":      inv.Subtotal,
				"tax":           inv.Tax,
				"total_amount":  inv.TotalAmount,
				"tax_rate":      inv.TaxRate,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return Billing.Conflict("UpdateInvoice", "invoice %s was changed by another request", inv.InvoiceNumber)
		}
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}

	saved, err := loadInvoice(ic.DB, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Invoice updated successfully",
		"data":    newInvoiceView(saved, ic.Now()),
	})
}

// DeleteInvoice soft-deletes an unpaid invoice
// DELETE /api/invoices/:id
func (ic *InvoiceController) DeleteInvoice(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var inv Models.Invoice
	if err := ic.DB.First(&inv, id).Error; err != nil {
		return respondError(c, err)
	}
	if inv.IsPaid || inv.Status == Models.InvoicePaid {
		return respondError(c, Billing.Conflict("DeleteInvoice", "invoice %s is paid and cannot be deleted", inv.InvoiceNumber))
	}
	if err := ic.DB.Delete(&inv).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Invoice deleted successfully"})
}

// UpdateStatus moves an invoice through its lifecycle
// PATCH /api/invoices/:id/status
func (ic *InvoiceController) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req Models.StatusRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	inv, err := loadInvoice(ic.DB, id)
	if err != nil {
		return respondError(c, err)
	}
	from := inv.Status

	if req.Status == Models.InvoicePaid {
		paidOn, err := parseDate(req.PaymentDate, time.Time{})
		if err != nil {
			return respondError(c, err)
		}
		err = Billing.MarkPaid(inv, Billing.PaymentDetails{
			PaymentDate: paidOn,
			Mode:        req.PaymentMode,
			Method:      req.PaymentMethod,
			Reference:   req.PaymentReference,
		})
		if err != nil {
			return respondError(c, err)
		}
	} else if err := Billing.Transition(inv, req.Status); err != nil {
		return respondError(c, err)
	}

	if err := saveStatus(ic.DB, inv, from); err != nil {
		return respondError(c, err)
	}
	if inv.Status == Models.InvoicePaid {
		notifyPaid(c.UserContext(), ic.Notifier, inv)
	}

	return c.JSON(fiber.Map{
		"message": "Invoice status updated",
		"data":    newInvoiceView(inv, ic.Now()),
	})
}

// MarkPaid records the payment details and marks the invoice paid
// POST /api/invoices/:id/pay
func (ic *InvoiceController) MarkPaid(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req Models.MarkPaidRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	paidOn, err := parseDate(req.PaymentDate, time.Time{})
	if err != nil {
		return respondError(c, err)
	}

	inv, err := loadInvoice(ic.DB, id)
	if err != nil {
		return respondError(c, err)
	}
	from := inv.Status
	err = Billing.MarkPaid(inv, Billing.PaymentDetails{
		PaymentDate: paidOn,
		Mode:        req.PaymentMode,
		Method:      req.PaymentMethod,
		Reference:   req.PaymentReference,
	})
	if err != nil {
		return respondError(c, err)
	}
	if err := saveStatus(ic.DB, inv, from); err != nil {
		return respondError(c, err)
	}
	notifyPaid(c.UserContext(), ic.Notifier, inv)

	return c.JSON(fiber.Map{
		"message": "Invoice marked as paid",
		"data":    newInvoiceView(inv, ic.Now()),
	})
}

// InvoicePDF GET /api/invoices/:id/pdf
func (ic *InvoiceController) InvoicePDF(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	inv, err := loadInvoice(ic.DB, id)
	if err != nil {
		return respondError(c, err)
	}
	out, err := Exports.InvoicePDF(inv, Billing.EffectiveStatus(inv, ic.Now()), ic.Company)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+inv.InvoiceNumber+".pdf")
	return c.Send(out)
}

type previewLine struct {
	Description string
	Quantity    string
	UnitPrice   string
	Discount    string
	Amount      string
}

// Preview renders the invoice as an HTML page
// GET /api/invoices/:id/preview
func (ic *InvoiceController) Preview(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	inv, err := loadInvoice(ic.DB, id)
	if err != nil {
		return respondError(c, err)
	}

	lines := make([]previewLine, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = previewLine{
			Description: l.Description,
			Quantity:    l.Quantity.String(),
			UnitPrice:   Exports.FormatMoney(l.UnitPrice, inv.Currency),
			Discount:    l.Discount.String() + "%",
			Amount:      Exports.FormatMoney(l.Amount, inv.Currency),
		}
	}
	var client Models.Client
	if inv.Client != nil {
		client = *inv.Client
	}

	return c.Render("invoice", fiber.Map{
		"Company":       ic.Company.Name,
		"Number":        inv.InvoiceNumber,
		"Status":        string(Billing.EffectiveStatus(inv, ic.Now())),
		"ClientName":    client.DisplayName(),
		"ClientEmail":   client.Email,
		"ClientAddress": client.ParsedAddress().Lines(),
		"IssuedOn":      Exports.FormatDate(inv.IssueDate),
		"DueOn":         Exports.FormatDate(inv.DueDate),
		"Lines":         lines,
		"Subtotal":      Exports.FormatMoney(inv.Subtotal, inv.Currency),
		"TaxRate":       inv.TaxRate.Mul(decimal.NewFromInt(100)).String() + "%",
		"Tax":           Exports.FormatMoney(inv.Tax, inv.Currency),
		"Total":         Exports.FormatMoney(inv.TotalAmount, inv.Currency),
		"Notes":         inv.Notes,
	})
}
