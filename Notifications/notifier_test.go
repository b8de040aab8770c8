package Notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"Invoicing/Config"
	"Invoicing/Models"
)

type recorder struct {
	paid    []string
	overdue int
	err     error
}

func (r *recorder) InvoicePaid(_ context.Context, inv *Models.Invoice) error {
	r.paid = append(r.paid, inv.InvoiceNumber)
	return r.err
}

func (r *recorder) InvoicesOverdue(_ context.Context, invoices []Models.Invoice, _ time.Time) error {
	r.overdue += len(invoices)
	return r.err
}

func TestMultiDeliversToEveryNotifier(t *testing.T) {
	failing := &recorder{err: errors.New("smtp down")}
	working := &recorder{}
	m := Multi{failing, working}

	err := m.InvoicePaid(context.Background(), &Models.Invoice{InvoiceNumber: "INV-000001"})

	assert.ErrorContains(t, err, "smtp down")
	assert.Equal(t, []string{"INV-000001"}, working.paid)

	assert.Error(t, m.InvoicesOverdue(context.Background(), make([]Models.Invoice, 2), time.Now()))
	assert.Equal(t, 2, working.overdue)
}

func TestMultiWithoutErrors(t *testing.T) {
	assert.NoError(t, Multi{&recorder{}}.InvoicePaid(context.Background(), &Models.Invoice{}))
}

func TestNewWithoutChannelsIsNoop(t *testing.T) {
	n := New(&Config.Config{}, nil)
	assert.Equal(t, Noop{}, n)
}

func TestNewBuildsEnabledChannels(t *testing.T) {
	cfg := &Config.Config{
		SMTPServer: "smtp.example.com", SMTPFromEmail: "billing@example.com",
		SlackBotToken: "xoxb-test", SlackChannel: "C123",
	}
	n, ok := New(cfg, nil).(Multi)
	assert.True(t, ok)
	assert.Len(t, n, 2)
}
