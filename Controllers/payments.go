package Controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Invoicing/Billing"
	"Invoicing/Models"
	"Invoicing/Notifications"
	"Invoicing/middleware"
)

// PaymentController records payments against invoices
type PaymentController struct {
	DB       *gorm.DB
	Notifier Notifications.Notifier
	Now      func() time.Time
}

func NewPaymentController(db *gorm.DB, notifier Notifications.Notifier) *PaymentController {
	if notifier == nil {
		notifier = Notifications.Noop{}
	}
	return &PaymentController{DB: db, Notifier: notifier, Now: time.Now}
}

// GetPayments GET /api/invoices/:id/payments
func (pc *PaymentController) GetPayments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	inv, err := loadInvoice(pc.DB, id)
	if err != nil {
		return respondError(c, err)
	}
	paid := Billing.SumPayments(inv.Payments)
	return c.JSON(fiber.Map{
		"data":        inv.Payments,
		"amount_paid": paid,
		"outstanding": Billing.Outstanding(inv, paid),
	})
}

// CreatePayment records a payment; the invoice is marked paid once fully settled
// POST /api/invoices/:id/payments
func (pc *PaymentController) CreatePayment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req Models.PaymentRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	paidOn, err := parseDate(req.PaymentDate, time.Time{})
	if err != nil {
		return respondError(c, err)
	}

	payment := Models.Payment{
		InvoiceID:   id,
		Amount:      *req.Amount,
		Method:      req.Method,
		Reference:   req.Reference,
		PaymentDate: paidOn,
		Notes:       req.Notes,
	}
	if user, ok := middleware.CurrentUser(c); ok {
		payment.UserID = user.ID
	}

	var inv *Models.Invoice
	var becamePaid bool
	err = pc.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockInvoice(tx, id).Error; err != nil {
			return err
		}
		var err error
		if inv, err = loadInvoice(tx, id); err != nil {
			return err
		}
		from := inv.Status
		becamePaid, err = Billing.RecordPayment(inv, Billing.SumPayments(inv.Payments), payment)
		if err != nil {
			return err
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		inv.Payments = append(inv.Payments, payment)
		if becamePaid {
			return saveStatus(tx, inv, from)
		}
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}
	if becamePaid {
		notifyPaid(c.UserContext(), pc.Notifier, inv)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment recorded successfully",
		"data":    payment,
		"invoice": newInvoiceView(inv, pc.Now()),
	})
}
