package Exports

import (
	"encoding/csv"
	"io"
	"time"

	"Invoicing/Billing"
	"Invoicing/Models"
)

var invoiceColumns = []string{
	"Invoice Number", "Client", "Client Email", "Issue Date", "Due Date", "Status",
	"Payment Status", "Subtotal", "Tax", "Total", "Currency", "Payment Date",
}

func invoiceRow(inv *Models.Invoice, now time.Time) []string {
	var clientName, clientEmail string
	if inv.Client != nil {
		clientName, clientEmail = inv.Client.DisplayName(), inv.Client.Email
	}
	return []string{
		inv.InvoiceNumber,
		clientName,
		clientEmail,
		inv.IssueDate.Format(Models.DateLayout),
		inv.DueDate.Format(Models.DateLayout),
		string(Billing.EffectiveStatus(inv, now)),
		string(Billing.DerivePaymentStatus(inv, now)),
		inv.Subtotal.StringFixed(Billing.MoneyPlaces),
		inv.Tax.StringFixed(Billing.MoneyPlaces),
		inv.TotalAmount.StringFixed(Billing.MoneyPlaces),
		inv.Currency,
		paymentDate(inv),
	}
}

func paymentDate(inv *Models.Invoice) string {
	if inv.PaymentDate == nil {
		return ""
	}
	return inv.PaymentDate.Format(Models.DateLayout)
}

// WriteInvoicesCSV writes one row per invoice with derived statuses as of now.
func WriteInvoicesCSV(w io.Writer, invoices []Models.Invoice, now time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(invoiceColumns); err != nil {
		return err
	}
	for i := range invoices {
		if err := cw.Write(invoiceRow(&invoices[i], now)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
