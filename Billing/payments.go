package Billing

import (
	"github.com/shopspring/decimal"

	"Invoicing/Models"
)

// SumPayments adds up recorded payment amounts.
func SumPayments(payments []Models.Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Outstanding is the amount still owed on inv, never negative.
func Outstanding(inv *Models.Invoice, alreadyPaid decimal.Decimal) decimal.Decimal {
	if inv.IsPaid {
		return decimal.Zero
	}
	rest := inv.TotalAmount.Sub(alreadyPaid)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// RecordPayment applies payment against inv given the sum already paid.
// When the running total reaches the invoice total the invoice is marked
// paid and becamePaid is true. On error inv is unchanged.
func RecordPayment(inv *Models.Invoice, alreadyPaid decimal.Decimal, payment Models.Payment) (becamePaid bool, err error) {
	const op = "RecordPayment"
	if !payment.Amount.IsPositive() {
		return false, Validation(op, "payment amount must be greater than 0")
	}
	if payment.PaymentDate.IsZero() {
		return false, Validation(op, "payment date is required")
	}
	if inv.Status == Models.InvoiceCancelled {
		return false, Conflict(op, "invoice %s is cancelled", inv.InvoiceNumber)
	}
	if inv.IsPaid {
		return false, Conflict(op, "invoice %s is already paid", inv.InvoiceNumber)
	}

	outstanding := Outstanding(inv, alreadyPaid)
	if payment.Amount.GreaterThan(outstanding) {
		return false, Conflict(op, "payment of %s exceeds the outstanding %s on invoice %s",
			payment.Amount.StringFixed(MoneyPlaces), outstanding.StringFixed(MoneyPlaces), inv.InvoiceNumber)
	}
	if alreadyPaid.Add(payment.Amount).LessThan(inv.TotalAmount) {
		return false, nil
	}

	err = MarkPaid(inv, PaymentDetails{
		PaymentDate: payment.PaymentDate,
		Method:      payment.Method,
		Reference:   payment.Reference,
		Mode:        "payments",
	})
	return err == nil, err
}
