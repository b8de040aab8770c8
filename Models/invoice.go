package Models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue" // derived for display, never stored
	InvoiceCancelled InvoiceStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentOverdue PaymentStatus = "Overdue"
)

type Invoice struct {
	gorm.Model
	InvoiceNumber    string          `json:"invoice_number" gorm:"size:32;uniqueIndex;not null"`
	ContractID       *uint           `json:"contract_id" gorm:"index"`
	Contract         *Contract       `json:"contract,omitempty" gorm:"foreignKey:ContractID"`
	ClientID         uint            `json:"client_id" gorm:"not null;index"`
	Client           *Client         `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Lines            []InvoiceLine   `json:"lines" gorm:"foreignKey:InvoiceID"`
	Subtotal         decimal.Decimal `json:"subtotal" gorm:"type:decimal(18,4);not null"`
	Tax              decimal.Decimal `json:"tax" gorm:"type:decimal(18,4);not null"`
	TotalAmount      decimal.Decimal `json:"total_amount" gorm:"type:decimal(18,4);not null"`
	TaxRate          decimal.Decimal `json:"tax_rate" gorm:"type:decimal(7,4);not null"`
	Status           InvoiceStatus   `json:"status" gorm:"size:20;not null;index"`
	IssueDate        time.Time       `json:"issue_date" gorm:"not null"`
	DueDate          time.Time       `json:"due_date" gorm:"not null;index"`
	PaymentTerms     PaymentTerms    `json:"payment_terms" gorm:"size:20"`
	Currency         string          `json:"currency" gorm:"size:3"`
	Notes            string          `json:"notes" gorm:"type:text"`
	PaymentMode      string          `json:"payment_mode" gorm:"size:30"`
	PaymentMethod    string          `json:"payment_method" gorm:"size:30"`
	PaymentReference string          `json:"payment_reference" gorm:"size:100"`
	IsPaid           bool            `json:"is_paid" gorm:"index"`
	PaymentDate      *time.Time      `json:"payment_date"`
	Payments         []Payment       `json:"payments,omitempty" gorm:"foreignKey:InvoiceID"`
	UserID           uint            `json:"user_id" gorm:"index"`
}

// LineItems returns copies of the invoice's priced lines.
func (inv *Invoice) LineItems() []LineItem {
	items := make([]LineItem, len(inv.Lines))
	for i, l := range inv.Lines {
		items[i] = l.LineItem
	}
	return items
}

// ProductIDs returns the distinct products referenced by the invoice.
func (inv *Invoice) ProductIDs() []uint {
	return productIDs(inv.LineItems())
}

type Payment struct {
	gorm.Model
	InvoiceID   uint            `json:"invoice_id" gorm:"not null;index"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(18,4);not null"`
	Method      string          `json:"method" gorm:"size:30"`
	Reference   string          `json:"reference" gorm:"size:100"`
	PaymentDate time.Time       `json:"payment_date" gorm:"not null"`
	Notes       string          `json:"notes" gorm:"type:text"`
	UserID      uint            `json:"user_id" gorm:"index"`
}
