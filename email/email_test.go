package email

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Invoicing/Billing"
	"Invoicing/Exports"
	"Invoicing/Models"
)

type fakeViews struct{}

func (fakeViews) Render(out io.Writer, name string, binding interface{}, _ ...string) error {
	b := binding.(map[string]interface{})
	_, err := fmt.Fprintf(out, "<p>%s %s %s</p>", name, b["Number"], b["Total"])
	return err
}

type outbox struct {
	sent []Models.EmailMessage
	fail bool
}

func (o *outbox) send(_ Models.EmailConfig, msg Models.EmailMessage) error {
	if o.fail {
		return fmt.Errorf("smtp unavailable")
	}
	o.sent = append(o.sent, msg)
	return nil
}

func newTestMailer(box *outbox) *Mailer {
	return &Mailer{
		Config:  Models.EmailConfig{FromEmail: "billing@example.com", FromName: "Billing"},
		Views:   fakeViews{},
		Company: Exports.CompanyInfo{Name: "Invoicing Co"},
		Send:    box.send,
		log:     zerolog.Nop(),
	}
}

func paidInvoice() *Models.Invoice {
	paidAt := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	inv := &Models.Invoice{
		InvoiceNumber: "INV-000001",
		Client:        &Models.Client{Name: "Jane", Email: "jane@acme.test"},
		Status:        Models.InvoicePaid,
		IsPaid:        true,
		PaymentDate:   &paidAt,
		Currency:      "USD",
		IssueDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Lines: []Models.InvoiceLine{{LineItem: Models.LineItem{
			ProductID: 1, Description: "Consulting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(190),
		}}},
	}
	Billing.PriceInvoice(inv, Billing.DefaultTaxRate)
	return inv
}

func TestInvoicePaidSendsReceiptWithPDF(t *testing.T) {
	box := &outbox{}
	m := newTestMailer(box)

	require.NoError(t, m.InvoicePaid(context.Background(), paidInvoice()))

	require.Len(t, box.sent, 1)
	msg := box.sent[0]
	assert.Equal(t, []string{"jane@acme.test"}, msg.To)
	assert.Equal(t, "Payment received for invoice INV-000001", msg.Subject)
	assert.Equal(t, "<p>emails/paid INV-000001 $209.00</p>", msg.HTMLBody)
	assert.Contains(t, msg.TextBody, "Invoice INV-000001")
	assert.Contains(t, msg.TextBody, "Total: $209.00")
	assert.Equal(t, "INV-000001", msg.InvoiceNumber)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "INV-000001.pdf", msg.Attachments[0].Filename)
	assert.True(t, strings.HasPrefix(string(msg.Attachments[0].Data), "%PDF-"))
}

func TestInvoicePaidWithoutClientEmail(t *testing.T) {
	inv := paidInvoice()
	inv.Client.Email = ""

	err := newTestMailer(&outbox{}).InvoicePaid(context.Background(), inv)
	assert.ErrorIs(t, err, Billing.ErrFailedPrecondition)
}

func TestInvoicesOverdueReportsEveryFailure(t *testing.T) {
	box := &outbox{fail: true}
	first, second := *paidInvoice(), *paidInvoice()
	second.InvoiceNumber = "INV-000002"

	err := newTestMailer(box).InvoicesOverdue(context.Background(), []Models.Invoice{first, second}, first.DueDate.AddDate(0, 0, 5))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INV-000001")
	assert.Contains(t, err.Error(), "INV-000002")
}

func TestInvoicesOverdueStopsOnCancelledContext(t *testing.T) {
	box := &outbox{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestMailer(box).InvoicesOverdue(ctx, []Models.Invoice{*paidInvoice()}, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, box.sent)
}

func TestBuildMessage(t *testing.T) {
	cfg := Models.EmailConfig{FromEmail: "billing@example.com", FromName: "Billing"}
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	plain, err := BuildMessage(cfg, Models.EmailMessage{To: []string{"a@b.test"}, Subject: "Hello", TextBody: "Hi"}, now)
	require.NoError(t, err)
	assert.Contains(t, string(plain), "From: Billing <billing@example.com>\r\n")
	assert.Contains(t, string(plain), "Content-Type: text/plain; charset=UTF-8\r\n")
	assert.True(t, strings.HasSuffix(string(plain), "\r\n\r\nHi"))

	withFile, err := BuildMessage(cfg, Models.EmailMessage{
		To:            []string{"a@b.test"},
		Subject:       "Invoice",
		TextBody:      "Hi",
		HTMLBody:      "<p>Hi</p>",
		InvoiceNumber: "INV-000001",
		Attachments:   []Models.Attachment{{Filename: "INV-000001.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}},
	}, now)
	require.NoError(t, err)
	assert.Contains(t, string(withFile), "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, string(withFile), "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, string(withFile), "X-Invoice-Number: INV-000001\r\n")
	assert.Less(t, strings.Index(string(withFile), "text/plain"), strings.Index(string(withFile), "text/html"))
	assert.Contains(t, string(withFile), `Content-Disposition: attachment; filename="INV-000001.pdf"`)
	assert.Contains(t, string(withFile), "JVBERi0xLjM=")

	_, err = BuildMessage(cfg, Models.EmailMessage{To: []string{"a@b.test"}, Subject: "Empty"}, now)
	assert.Error(t, err)
}
