package Models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContractStatus string

const (
	ContractDraft     ContractStatus = "draft"
	ContractActive    ContractStatus = "active"
	ContractCompleted ContractStatus = "completed"
	ContractCancelled ContractStatus = "cancelled"
)

type PaymentTerms string

const (
	TermsImmediate PaymentTerms = "immediate"
	TermsNet15     PaymentTerms = "net15"
	TermsNet30     PaymentTerms = "net30"
	TermsNet60     PaymentTerms = "net60"
)

type BillingCycle string

const (
	CycleOneTime   BillingCycle = "one-time"
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleAnnually  BillingCycle = "annually"
)

type Contract struct {
	gorm.Model
	ContractNumber string          `json:"contract_number" gorm:"size:32;uniqueIndex;not null"`
	ClientID       uint            `json:"client_id" gorm:"not null;index"`
	Client         *Client         `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Title          string          `json:"title" gorm:"size:200;not null"`
	Description    string          `json:"description" gorm:"type:text"`
	Lines          []ContractLine  `json:"lines" gorm:"foreignKey:ContractID"`
	StartDate      time.Time       `json:"start_date" gorm:"not null"`
	EndDate        time.Time       `json:"end_date" gorm:"not null"`
	Status         ContractStatus  `json:"status" gorm:"size:20;not null;index"`
	IsActive       bool            `json:"is_active"`
	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:decimal(18,4);not null"`
	Tax            decimal.Decimal `json:"tax" gorm:"type:decimal(18,4);not null"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:decimal(18,4);not null"`
	TaxRate        decimal.Decimal `json:"tax_rate" gorm:"type:decimal(7,4);not null"`
	Terms          string          `json:"terms" gorm:"type:text"`
	PaymentTerms   PaymentTerms    `json:"payment_terms" gorm:"size:20"`
	Currency       string          `json:"currency" gorm:"size:3"`
	BillingCycle   BillingCycle    `json:"billing_cycle" gorm:"size:20"`
	AutoRenew      bool            `json:"auto_renew"`
	RenewalTerm    int             `json:"renewal_term"`
	Notes          string          `json:"notes" gorm:"type:text"`
	UserID         uint            `json:"user_id" gorm:"index"`
}

// LineItems returns copies of the contract's priced lines.
func (c *Contract) LineItems() []LineItem {
	items := make([]LineItem, len(c.Lines))
	for i, l := range c.Lines {
		items[i] = l.LineItem
	}
	return items
}

// ProductIDs returns the distinct products referenced by the contract.
func (c *Contract) ProductIDs() []uint {
	return productIDs(c.LineItems())
}

func productIDs(lines []LineItem) []uint {
	seen := make(map[uint]bool, len(lines))
	var ids []uint
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	return ids
}
