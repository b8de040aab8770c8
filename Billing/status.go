package Billing

import (
	"time"

	"Invoicing/Models"
)

// PaymentDetails are recorded when an invoice is marked paid.
type PaymentDetails struct {
	PaymentDate time.Time
	Mode        string
	Method      string
	Reference   string
}

// DerivePaymentStatus reports Paid, Overdue or Pending. A due date equal to now is not overdue.
func DerivePaymentStatus(inv *Models.Invoice, now time.Time) Models.PaymentStatus {
	if inv.IsPaid {
		return Models.PaymentPaid
	}
	if now.After(inv.DueDate) {
		return Models.PaymentOverdue
	}
	return Models.PaymentPending
}

// IsOverdue reports whether an unpaid, sent invoice has passed its due date.
func IsOverdue(inv *Models.Invoice, now time.Time) bool {
	return inv.Status == Models.InvoiceSent && DerivePaymentStatus(inv, now) == Models.PaymentOverdue
}

// EffectiveStatus is the status shown to users: a stored status, or overdue.
func EffectiveStatus(inv *Models.Invoice, now time.Time) Models.InvoiceStatus {
	if IsOverdue(inv, now) {
		return Models.InvoiceOverdue
	}
	return inv.Status
}

// CheckTransition reports whether inv may move to target without changing it.
// Moving to paid is checked separately by MarkPaid.
func CheckTransition(inv *Models.Invoice, target Models.InvoiceStatus) error {
	const op = "Transition"
	from := inv.Status
	switch target {
	case Models.InvoiceDraft, Models.InvoiceSent, Models.InvoicePaid, Models.InvoiceCancelled:
	case Models.InvoiceOverdue:
		return Validation(op, "overdue is derived from the due date and cannot be set")
	default:
		return Validation(op, "unknown status %q", target)
	}

	if from == Models.InvoiceCancelled {
		return Conflict(op, "invoice %s is cancelled", inv.InvoiceNumber)
	}
	if from == target {
		return Conflict(op, "invoice %s is already %s", inv.InvoiceNumber, target)
	}

	switch target {
	case Models.InvoiceDraft:
		return Conflict(op, "invoice %s cannot return to draft", inv.InvoiceNumber)
	case Models.InvoiceSent:
		if from != Models.InvoiceDraft {
			return Conflict(op, "only draft invoices can be sent, invoice %s is %s", inv.InvoiceNumber, from)
		}
	case Models.InvoicePaid:
		if inv.IsPaid {
			return Conflict(op, "invoice %s is already paid", inv.InvoiceNumber)
		}
	case Models.InvoiceCancelled:
		if from == Models.InvoicePaid || inv.IsPaid {
			return Conflict(op, "invoice %s is paid and cannot be cancelled", inv.InvoiceNumber)
		}
	}
	return nil
}

// Transition moves inv to target. Paid requires a payment date, so use MarkPaid.
// On error inv is unchanged.
func Transition(inv *Models.Invoice, target Models.InvoiceStatus) error {
	if err := CheckTransition(inv, target); err != nil {
		return err
	}
	if target == Models.InvoicePaid && (!inv.IsPaid || inv.PaymentDate == nil) {
		return Validation("Transition", "a payment date is required to mark invoice %s paid", inv.InvoiceNumber)
	}
	inv.Status = target
	return nil
}

// MarkPaid records the payment details and moves inv to paid.
// On error inv is unchanged.
func MarkPaid(inv *Models.Invoice, details PaymentDetails) error {
	if err := CheckTransition(inv, Models.InvoicePaid); err != nil {
		return err
	}
	if details.PaymentDate.IsZero() {
		return Validation("MarkPaid", "payment date is required")
	}
	date := details.PaymentDate
	inv.IsPaid = true
	inv.PaymentDate = &date
	inv.PaymentMode = details.Mode
	inv.PaymentMethod = details.Method
	inv.PaymentReference = details.Reference
	inv.Status = Models.InvoicePaid
	return nil
}
