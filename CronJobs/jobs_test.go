package CronJobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Invoicing/Models"
)

type captured struct {
	invoices []Models.Invoice
	err      error
}

func (c *captured) InvoicePaid(context.Context, *Models.Invoice) error { return nil }

func (c *captured) InvoicesOverdue(_ context.Context, invoices []Models.Invoice, _ time.Time) error {
	c.invoices = append(c.invoices, invoices...)
	return c.err
}

var today = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func seed(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Models.Connect(Models.DBConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))

	client := Models.Client{Name: "Acme", Email: "acme@acme.test"}
	require.NoError(t, db.Create(&client).Error)

	paidAt := today.AddDate(0, 0, -20)
	rows := []Models.Invoice{
		{InvoiceNumber: "INV-000001", Status: Models.InvoiceSent, DueDate: today.AddDate(0, 0, -10)},
		{InvoiceNumber: "INV-000002", Status: Models.InvoiceSent, DueDate: today.AddDate(0, 0, 5)},
		{InvoiceNumber: "INV-000003", Status: Models.InvoiceDraft, DueDate: today.AddDate(0, 0, -10)},
		{InvoiceNumber: "INV-000004", Status: Models.InvoicePaid, IsPaid: true, PaymentDate: &paidAt, DueDate: today.AddDate(0, 0, -10)},
		{InvoiceNumber: "INV-000005", Status: Models.InvoiceCancelled, DueDate: today.AddDate(0, 0, -10)},
		{InvoiceNumber: "INV-000006", Status: Models.InvoiceSent, DueDate: today.AddDate(0, 0, -30)},
	}
	for i := range rows {
		rows[i].ClientID = client.ID
		rows[i].IssueDate = rows[i].DueDate.AddDate(0, 0, -30)
		rows[i].TotalAmount = decimal.NewFromInt(100)
		require.NoError(t, db.Create(&rows[i]).Error)
	}
	return db
}

func newReminder(db *gorm.DB, n *captured) *OverdueReminder {
	r := NewOverdueReminder(db, n, "0 0 8 * * *")
	r.now = func() time.Time { return today }
	r.log = zerolog.Nop()
	return r
}

func TestRunNotifiesOnlyOverdueInvoices(t *testing.T) {
	db := seed(t)
	n := &captured{}

	count, err := newReminder(db, n).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	require.Len(t, n.invoices, 2)
	assert.Equal(t, "INV-000006", n.invoices[0].InvoiceNumber)
	assert.Equal(t, "INV-000001", n.invoices[1].InvoiceNumber)
	require.NotNil(t, n.invoices[0].Client)
	assert.Equal(t, "acme@acme.test", n.invoices[0].Client.Email)
}

func TestRunNeverPersistsOverdue(t *testing.T) {
	db := seed(t)
	_, err := newReminder(db, &captured{}).Run(context.Background())
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&Models.Invoice{}).Where("status = ?", Models.InvoiceOverdue).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRunReportsNotifierFailure(t *testing.T) {
	db := seed(t)
	count, err := newReminder(db, &captured{err: errors.New("slack down")}).Run(context.Background())
	assert.Equal(t, 2, count)
	assert.ErrorContains(t, err, "slack down")
}

func TestUpdateSchedule(t *testing.T) {
	r := newReminder(seed(t), &captured{})
	require.NoError(t, r.Start())
	defer r.Stop()

	require.NoError(t, r.UpdateSchedule("0 30 9 * * *"))
	assert.Len(t, r.cronScheduler.Entries(), 1)
	assert.Error(t, r.UpdateSchedule("not a schedule"))
	assert.Equal(t, "0 30 9 * * *", r.schedule)
}
