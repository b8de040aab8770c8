package Billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Invoicing/Models"
)

func payment(amount string) Models.Payment {
	return Models.Payment{Amount: d(amount), PaymentDate: jan1.AddDate(0, 0, 5), Method: "card"}
}

func TestRecordPaymentAccumulates(t *testing.T) {
	inv := invoiceIn(Models.InvoiceSent)

	paid, err := RecordPayment(inv, decimal.Zero, payment("100"))
	require.NoError(t, err)
	assert.False(t, paid)
	assert.Equal(t, Models.InvoiceSent, inv.Status)

	paid, err = RecordPayment(inv, d("100"), payment("109"))
	require.NoError(t, err)
	assert.True(t, paid)
	assert.Equal(t, Models.InvoicePaid, inv.Status)
	assert.True(t, inv.IsPaid)
	assert.Equal(t, "card", inv.PaymentMethod)
}

func TestRecordPaymentRejected(t *testing.T) {
	tests := []struct {
		name        string
		status      Models.InvoiceStatus
		alreadyPaid string
		payment     Models.Payment
		want        error
	}{
		{"zero amount", Models.InvoiceSent, "0", payment("0"), ErrValidation},
		{"negative amount", Models.InvoiceSent, "0", payment("-5"), ErrValidation},
		{"no date", Models.InvoiceSent, "0", Models.Payment{Amount: d("5")}, ErrValidation},
		{"cancelled", Models.InvoiceCancelled, "0", payment("5"), ErrConflict},
		{"already paid", Models.InvoicePaid, "209", payment("5"), ErrConflict},
		{"overpayment", Models.InvoiceSent, "200", payment("10"), ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := invoiceIn(tt.status)
			before := *inv

			paid, err := RecordPayment(inv, d(tt.alreadyPaid), tt.payment)

			assert.False(t, paid)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, *inv)
		})
	}
}

func TestOutstanding(t *testing.T) {
	inv := invoiceIn(Models.InvoiceSent)
	assert.Equal(t, "109.00", Outstanding(inv, d("100")).StringFixed(2))
	assert.True(t, Outstanding(inv, d("500")).IsZero())
	assert.True(t, Outstanding(invoiceIn(Models.InvoicePaid), decimal.Zero).IsZero())
}

func TestSumPayments(t *testing.T) {
	sum := SumPayments([]Models.Payment{payment("10.10"), payment("0.90")})
	assert.Equal(t, "11.00", sum.StringFixed(2))
}
