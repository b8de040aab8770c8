package Models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LineItem is the priced line shared by contracts and invoices. Amount is
// always derived from Quantity, UnitPrice and Discount, never taken from input.
type LineItem struct {
	ProductID   uint            `json:"product_id" gorm:"not null;index"`
	Description string          `json:"description" gorm:"size:500"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(18,4);not null"`
	Discount    decimal.Decimal `json:"discount" gorm:"type:decimal(7,4);not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(18,4);not null"`
	Notes       string          `json:"notes" gorm:"type:text"`
	Position    int             `json:"position" gorm:"not null"`
}

type ContractLine struct {
	gorm.Model
	ContractID uint     `json:"contract_id" gorm:"not null;index"`
	LineItem   `gorm:"embedded"`
	Product    *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

type InvoiceLine struct {
	gorm.Model
	InvoiceID uint     `json:"invoice_id" gorm:"not null;index"`
	LineItem  `gorm:"embedded"`
	Product   *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
