package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog"

	"Invoicing/Billing"
	"Invoicing/Exports"
	"Invoicing/Models"
	"Invoicing/logger"
)

// Renderer renders a named template; the Fiber html engine satisfies it.
type Renderer interface {
	Render(out io.Writer, name string, binding interface{}, layout ...string) error
}

// Mailer emails clients about their invoices.
type Mailer struct {
	Config  Models.EmailConfig
	Views   Renderer
	Company Exports.CompanyInfo
	Send    func(Models.EmailConfig, Models.EmailMessage) error
	log     zerolog.Logger
}

func NewMailer(config Models.EmailConfig, views Renderer, company Exports.CompanyInfo) *Mailer {
	return &Mailer{
		Config:  config,
		Views:   views,
		Company: company,
		Send:    SendEmail,
		log:     logger.WithComponent("email"),
	}
}

// InvoicePaid sends a receipt with the invoice PDF attached.
func (m *Mailer) InvoicePaid(ctx context.Context, inv *Models.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.compose(inv, "emails/paid",
		fmt.Sprintf("Payment received for invoice %s", inv.InvoiceNumber),
		map[string]interface{}{"PaidOn": Exports.FormatDate(derefTime(inv.PaymentDate))})
	if err != nil {
		return err
	}
	return m.deliver(inv, msg)
}

// InvoicesOverdue sends one reminder per invoice and reports every failure.
func (m *Mailer) InvoicesOverdue(ctx context.Context, invoices []Models.Invoice, now time.Time) error {
	var errs []error
	for i := range invoices {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		inv := &invoices[i]
		days := int(math.Floor(now.Sub(inv.DueDate).Hours() / 24))
		msg, err := m.compose(inv, "emails/overdue",
			fmt.Sprintf("Reminder: invoice %s is overdue", inv.InvoiceNumber),
			map[string]interface{}{"DaysOverdue": days})
		if err == nil {
			err = m.deliver(inv, msg)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", inv.InvoiceNumber, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Mailer) compose(inv *Models.Invoice, view, subject string, extra map[string]interface{}) (Models.EmailMessage, error) {
	if inv.Client == nil || inv.Client.Email == "" {
		return Models.EmailMessage{}, Billing.FailedPrecondition("compose", "invoice %s has no client email", inv.InvoiceNumber)
	}

	binding := map[string]interface{}{
		"Company":  m.Company.Name,
		"Client":   inv.Client.DisplayName(),
		"Number":   inv.InvoiceNumber,
		"Total":    Exports.FormatMoney(inv.TotalAmount, inv.Currency),
		"IssuedOn": Exports.FormatDate(inv.IssueDate),
		"DueOn":    Exports.FormatDate(inv.DueDate),
	}
	for k, v := range extra {
		binding[k] = v
	}

	var body bytes.Buffer
	if err := m.Views.Render(&body, view, binding); err != nil {
		return Models.EmailMessage{}, fmt.Errorf("failed to render %s: %w", view, err)
	}

	pdf, err := Exports.InvoicePDF(inv, inv.Status, m.Company)
	if err != nil {
		return Models.EmailMessage{}, err
	}

	return Models.EmailMessage{
		To:            []string{inv.Client.Email},
		Subject:       subject,
		TextBody:      plainSummary(inv, binding),
		HTMLBody:      body.String(),
		InvoiceNumber: inv.InvoiceNumber,
		Attachments: []Models.Attachment{{
			Filename:    inv.InvoiceNumber + ".pdf",
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	}, nil
}

// plainSummary is the text alternative for mail clients that skip HTML.
func plainSummary(inv *Models.Invoice, binding map[string]interface{}) string {
	return fmt.Sprintf("Invoice %s from %s\r\nTotal: %s\r\nIssued: %s\r\nDue: %s\r\n\r\nThe invoice is attached as a PDF.\r\n",
		inv.InvoiceNumber, binding["Company"], binding["Total"], binding["IssuedOn"], binding["DueOn"])
}

func (m *Mailer) deliver(inv *Models.Invoice, msg Models.EmailMessage) error {
	if err := m.Send(m.Config, msg); err != nil {
		m.log.Error().Err(err).Str("invoice_number", inv.InvoiceNumber).Msg("failed to send email")
		return err
	}
	m.log.Info().Str("invoice_number", inv.InvoiceNumber).Strs("to", msg.To).Str("subject", msg.Subject).Msg("email sent")
	return nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
